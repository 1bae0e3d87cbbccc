// Package builder implements the semantic actions that turn grammar rule
// matches into canonical AST nodes.
//
// Every function receives already-built children and raw tokens and
// returns one node. Invalid input is reported through the diagnostics
// sink and replaced by an *ast.Dummy so the caller can keep going.
package builder

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

// Scope is the declared-locals collaborator.
type Scope interface {
	Declared(name string) bool
	Declare(name string)
}

// Context describes where in the program the builder is being invoked.
type Context struct {
	InDef bool
}

// Builder holds the collaborators threaded through every semantic action.
type Builder struct {
	Env     Scope
	Diags   diagnostics.Reporter
	Context Context

	emitFileLineAsLiterals bool
	emitEncodingAsConst    bool
}

// Option configures a Builder.
type Option func(*Builder)

// WithFileLineLiterals controls whether __FILE__ and __LINE__ become
// string and integer literals.
func WithFileLineLiterals(on bool) Option {
	return func(b *Builder) { b.emitFileLineAsLiterals = on }
}

// WithEncodingConst controls whether __ENCODING__ becomes Encoding::UTF_8.
func WithEncodingConst(on bool) Option {
	return func(b *Builder) { b.emitEncodingAsConst = on }
}

// New creates a Builder. A nil reporter discards diagnostics.
func New(env Scope, diags diagnostics.Reporter, opts ...Option) *Builder {
	if diags == nil {
		diags = diagnostics.Discard{}
	}
	b := &Builder{
		Env:                    env,
		Diags:                  diags,
		emitFileLineAsLiterals: true,
		emitEncodingAsConst:    true,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) report(code, msg string, span ast.Span) {
	b.Diags.Report(diagnostics.Error, code, &span, msg)
}

func join(spans ...ast.Span) ast.Span {
	var out ast.Span
	for _, s := range spans {
		out = out.Join(s)
	}
	return out
}

func spanOf(n ast.Node) ast.Span {
	if n == nil {
		return ast.Span{}
	}
	return n.NodeSpan()
}

func tokSpan(tok *lexer.Token) ast.Span {
	if tok == nil {
		return ast.Span{}
	}
	return tok.Span
}

func nodesSpan(nodes []ast.Node) ast.Span {
	var out ast.Span
	for _, n := range nodes {
		out = out.Join(spanOf(n))
	}
	return out
}

// ---------------------------------------------------------------------------
// Singletons and numbers
// ---------------------------------------------------------------------------

func (b *Builder) Nil(tok lexer.Token) ast.Node   { return &ast.Nil{Span: tok.Span} }
func (b *Builder) True(tok lexer.Token) ast.Node  { return &ast.True{Span: tok.Span} }
func (b *Builder) False(tok lexer.Token) ast.Node { return &ast.False{Span: tok.Span} }
func (b *Builder) Self(tok lexer.Token) ast.Node  { return &ast.Self{Span: tok.Span} }

func (b *Builder) Integer(tok lexer.Token) ast.Node {
	return &ast.Int{Span: tok.Span, Value: tok.Int}
}

func (b *Builder) Float(tok lexer.Token) ast.Node {
	v, _ := strconv.ParseFloat(strings.ReplaceAll(tok.Value, "_", ""), 64)
	return &ast.Float{Span: tok.Span, Value: v}
}

func (b *Builder) Rational(tok lexer.Token) ast.Node {
	v, err := decimal.NewFromString(strings.ReplaceAll(tok.Value, "_", ""))
	if err != nil {
		b.report(diagnostics.ENumber, fmt.Sprintf("invalid rational literal %q", tok.Value), tok.Span)
		return &ast.Dummy{Span: tok.Span}
	}
	return &ast.Rational{Span: tok.Span, Value: v}
}

// Complex builds an imaginary literal. The token value is the coefficient,
// with a trailing "r" for rational coefficients.
func (b *Builder) Complex(tok lexer.Token) ast.Node {
	coef := tok
	var imag ast.Node
	switch {
	case strings.HasSuffix(tok.Value, "r"):
		coef.Value = strings.TrimSuffix(tok.Value, "r")
		imag = b.Rational(coef)
	case !strings.HasPrefix(strings.ToLower(tok.Value), "0x") && strings.ContainsAny(tok.Value, ".eE"):
		imag = b.Float(coef)
	default:
		v, _ := strconv.ParseInt(strings.ReplaceAll(tok.Value, "_", ""), 0, 64)
		imag = &ast.Int{Span: tok.Span, Value: v}
	}
	return &ast.Complex{Span: tok.Span, Imag: imag}
}

// UnaryNum folds a leading sign into a numeric literal.
func (b *Builder) UnaryNum(sign lexer.Token, n ast.Node) ast.Node {
	span := join(sign.Span, spanOf(n))
	negate := sign.Value == "-"
	switch n := n.(type) {
	case *ast.Int:
		// A negated math.MinInt64 magnitude is itself, so the lower bound
		// survives the round trip.
		v := n.Value
		if negate {
			v = -v
		}
		return &ast.Int{Span: span, Value: v}
	case *ast.Float:
		v := n.Value
		if negate {
			v = -v
		}
		return &ast.Float{Span: span, Value: v}
	case *ast.Rational:
		v := n.Value
		if negate {
			v = v.Neg()
		}
		return &ast.Rational{Span: span, Value: v}
	case *ast.Complex:
		return &ast.Complex{Span: span, Imag: b.UnaryNum(sign, n.Imag)}
	case *ast.Dummy:
		return &ast.Dummy{Span: span}
	}
	panic(fmt.Sprintf("builder: unary_num on %s", n.Kind()))
}

// ---------------------------------------------------------------------------
// Strings
// ---------------------------------------------------------------------------

// String builds a literal from a monolithic tSTRING token.
func (b *Builder) String(tok lexer.Token) ast.Node {
	return &ast.Str{Span: tok.Span, Value: tok.Value}
}

// StringInternal builds one tSTRING_CONTENT part.
func (b *Builder) StringInternal(tok lexer.Token) ast.Node {
	return &ast.Str{Span: tok.Span, Value: tok.Value}
}

func (b *Builder) Character(tok lexer.Token) ast.Node {
	return &ast.Str{Span: tok.Span, Value: tok.Value}
}

// collapsible reports whether parts is a single string that needs no
// interpolation wrapper.
func collapsible(parts []ast.Node) bool {
	if len(parts) != 1 {
		return false
	}
	switch parts[0].(type) {
	case *ast.Str, *ast.DStr:
		return true
	}
	return false
}

// StringCompose returns a lone string part unwrapped and wraps anything
// else in a dstr. begin and end may be nil.
func (b *Builder) StringCompose(begin *lexer.Token, parts []ast.Node, end *lexer.Token) ast.Node {
	span := join(tokSpan(begin), nodesSpan(parts), tokSpan(end))
	if collapsible(parts) {
		switch p := parts[0].(type) {
		case *ast.Str:
			return &ast.Str{Span: span, Value: p.Value}
		case *ast.DStr:
			return &ast.DStr{Span: span, Parts: p.Parts}
		}
	}
	return &ast.DStr{Span: span, Parts: parts}
}

func (b *Builder) XStringCompose(begin *lexer.Token, parts []ast.Node, end *lexer.Token) ast.Node {
	return &ast.XStr{Span: join(tokSpan(begin), nodesSpan(parts), tokSpan(end)), Parts: parts}
}

// DedentString removes level columns of indentation from the string parts
// of a squiggly heredoc.
func (b *Builder) DedentString(n ast.Node, level int) ast.Node {
	d := NewDedenter(level)
	switch n := n.(type) {
	case *ast.Str:
		return &ast.Str{Span: n.Span, Value: d.Dedent(n.Value)}
	case *ast.DStr:
		return &ast.DStr{Span: n.Span, Parts: d.dedentParts(n.Parts)}
	case *ast.XStr:
		return &ast.XStr{Span: n.Span, Parts: d.dedentParts(n.Parts)}
	}
	return n
}

// BeginBody wraps the statements of an interpolation.
func (b *Builder) BeginBody(begin lexer.Token, body ast.Node, end lexer.Token) ast.Node {
	out := &ast.Begin{Span: join(begin.Span, end.Span)}
	switch body := body.(type) {
	case nil, *ast.Null:
	case *ast.Begin:
		out.Body = body.Body
	default:
		out.Body = []ast.Node{body}
	}
	return out
}

// ---------------------------------------------------------------------------
// Symbols and regexps
// ---------------------------------------------------------------------------

func (b *Builder) Symbol(tok lexer.Token) ast.Node {
	return &ast.Sym{Span: tok.Span, Name: tok.Value}
}

func (b *Builder) SymbolInternal(tok lexer.Token) ast.Node {
	return &ast.Sym{Span: tok.Span, Name: tok.Value}
}

// SymbolCompose collapses a lone plain part into a sym and builds a dsym
// otherwise.
func (b *Builder) SymbolCompose(begin *lexer.Token, parts []ast.Node, end *lexer.Token) ast.Node {
	span := join(tokSpan(begin), nodesSpan(parts), tokSpan(end))
	if collapsible(parts) {
		switch p := parts[0].(type) {
		case *ast.Str:
			return &ast.Sym{Span: span, Name: p.Value}
		case *ast.DStr:
			return &ast.DSym{Span: span, Parts: p.Parts}
		}
	}
	return &ast.DSym{Span: span, Parts: parts}
}

// RegexpOptions sorts and de-duplicates the flags of a tREGEXP_OPT token.
func (b *Builder) RegexpOptions(tok lexer.Token) *ast.RegOpt {
	seen := make(map[rune]bool)
	var flags []string
	for _, r := range tok.Value {
		if !seen[r] {
			seen[r] = true
			flags = append(flags, string(r))
		}
	}
	sort.Strings(flags)
	return &ast.RegOpt{Span: tok.Span, Options: strings.Join(flags, "")}
}

func (b *Builder) RegexpCompose(begin lexer.Token, parts []ast.Node, end lexer.Token, opts *ast.RegOpt) ast.Node {
	span := join(begin.Span, end.Span)
	if opts != nil {
		span = span.Join(opts.Span)
	}
	return &ast.Regexp{Span: span, Parts: parts, Options: opts}
}

// ---------------------------------------------------------------------------
// Word lists and collections
// ---------------------------------------------------------------------------

// Word builds one element of a %w or %W list.
func (b *Builder) Word(parts []ast.Node) ast.Node {
	if collapsible(parts) {
		if s, ok := parts[0].(*ast.Str); ok {
			return s
		}
	}
	return &ast.DStr{Span: nodesSpan(parts), Parts: parts}
}

func (b *Builder) WordsCompose(begin lexer.Token, words []ast.Node, end lexer.Token) ast.Node {
	return &ast.Array{Span: join(begin.Span, end.Span), Elements: words}
}

// SymbolsCompose builds a %i or %I list, turning each word into a symbol.
func (b *Builder) SymbolsCompose(begin lexer.Token, words []ast.Node, end lexer.Token) ast.Node {
	elems := make([]ast.Node, len(words))
	for i, w := range words {
		switch w := w.(type) {
		case *ast.Str:
			elems[i] = &ast.Sym{Span: w.Span, Name: w.Value}
		case *ast.DStr:
			elems[i] = &ast.DSym{Span: w.Span, Parts: w.Parts}
		default:
			elems[i] = w
		}
	}
	return &ast.Array{Span: join(begin.Span, end.Span), Elements: elems}
}

func (b *Builder) Array(begin *lexer.Token, elems []ast.Node, end *lexer.Token) ast.Node {
	return &ast.Array{Span: join(tokSpan(begin), nodesSpan(elems), tokSpan(end)), Elements: elems}
}

func (b *Builder) Pair(key ast.Node, assoc lexer.Token, value ast.Node) ast.Node {
	return &ast.Pair{Span: join(spanOf(key), spanOf(value)), Key: key, Value: value}
}

// PairKeyword builds a pair from a label such as "a:".
func (b *Builder) PairKeyword(label lexer.Token, value ast.Node) ast.Node {
	key := &ast.Sym{Span: label.Span, Name: label.Value}
	return &ast.Pair{Span: join(label.Span, spanOf(value)), Key: key, Value: value}
}

func (b *Builder) Associate(begin *lexer.Token, pairs []ast.Node, end *lexer.Token) ast.Node {
	return &ast.Hash{Span: join(tokSpan(begin), nodesSpan(pairs), tokSpan(end)), Pairs: pairs}
}

func (b *Builder) Splat(star lexer.Token, value ast.Node) ast.Node {
	return &ast.Splat{Span: join(star.Span, spanOf(value)), Value: value}
}

func (b *Builder) RangeInclusive(lo ast.Node, op lexer.Token, hi ast.Node) ast.Node {
	return &ast.IRange{Span: join(spanOf(lo), op.Span, spanOf(hi)), Lo: lo, Hi: hi}
}

func (b *Builder) RangeExclusive(lo ast.Node, op lexer.Token, hi ast.Node) ast.Node {
	return &ast.ERange{Span: join(spanOf(lo), op.Span, spanOf(hi)), Lo: lo, Hi: hi}
}

// ---------------------------------------------------------------------------
// Variables and constants
// ---------------------------------------------------------------------------

func (b *Builder) Ident(tok lexer.Token) ast.Node {
	return &ast.Ident{Span: tok.Span, Name: tok.Value}
}

func (b *Builder) IVar(tok lexer.Token) ast.Node { return &ast.IVar{Span: tok.Span, Name: tok.Value} }
func (b *Builder) GVar(tok lexer.Token) ast.Node { return &ast.GVar{Span: tok.Span, Name: tok.Value} }
func (b *Builder) CVar(tok lexer.Token) ast.Node { return &ast.CVar{Span: tok.Span, Name: tok.Value} }

func (b *Builder) BackRef(tok lexer.Token) ast.Node {
	return &ast.BackRef{Span: tok.Span, Name: tok.Value}
}

func (b *Builder) NthRef(tok lexer.Token) ast.Node {
	return &ast.NthRef{Span: tok.Span, N: int(tok.Int)}
}

func (b *Builder) Const(tok lexer.Token) ast.Node {
	return &ast.Const{Span: tok.Span, Name: tok.Value}
}

// ConstGlobal builds ::Name.
func (b *Builder) ConstGlobal(colon lexer.Token, name lexer.Token) ast.Node {
	return &ast.Const{
		Span:  join(colon.Span, name.Span),
		Scope: &ast.CBase{Span: colon.Span},
		Name:  name.Value,
	}
}

// ConstFetch builds Scope::Name.
func (b *Builder) ConstFetch(scope ast.Node, colon lexer.Token, name lexer.Token) ast.Node {
	return &ast.Const{Span: join(spanOf(scope), name.Span), Scope: scope, Name: name.Value}
}

func (b *Builder) FileLiteral(tok lexer.Token) ast.Node     { return &ast.File{Span: tok.Span} }
func (b *Builder) LineLiteral(tok lexer.Token) ast.Node     { return &ast.Line{Span: tok.Span} }
func (b *Builder) EncodingLiteral(tok lexer.Token) ast.Node { return &ast.Encoding{Span: tok.Span} }

// Accessible resolves a node in read position. A bare identifier becomes
// a local variable read when declared and a receiverless call otherwise.
func (b *Builder) Accessible(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.Ident:
		if b.Env != nil && b.Env.Declared(n.Name) {
			return &ast.LVar{Span: n.Span, Name: n.Name}
		}
		return &ast.Send{Span: n.Span, Method: n.Name}
	case *ast.File:
		if b.emitFileLineAsLiterals {
			return &ast.Str{Span: n.Span, Value: n.Span.File}
		}
	case *ast.Line:
		if b.emitFileLineAsLiterals {
			return &ast.Int{Span: n.Span, Value: int64(n.Span.StartLine)}
		}
	case *ast.Encoding:
		if b.emitEncodingAsConst {
			encoding := &ast.Const{Span: n.Span, Name: "Encoding"}
			return &ast.Const{Span: n.Span, Scope: encoding, Name: "UTF_8"}
		}
	}
	return n
}

// Assignable turns a read-form node into its write form. Assigning a bare
// identifier declares it in the current scope.
func (b *Builder) Assignable(n ast.Node) ast.Node {
	switch n := n.(type) {
	case *ast.Ident:
		b.declare(n.Name)
		return &ast.LVasgn{Span: n.Span, Name: n.Name}
	case *ast.LVar:
		b.declare(n.Name)
		return &ast.LVasgn{Span: n.Span, Name: n.Name}
	case *ast.IVar:
		return &ast.IVasgn{Span: n.Span, Name: n.Name}
	case *ast.GVar:
		return &ast.GVasgn{Span: n.Span, Name: n.Name}
	case *ast.CVar:
		return &ast.CVasgn{Span: n.Span, Name: n.Name}
	case *ast.Const:
		if b.Context.InDef {
			b.report(diagnostics.EDynamicConst, "dynamic constant assignment", n.Span)
			return &ast.Dummy{Span: n.Span}
		}
		return &ast.Casgn{Span: n.Span, Scope: n.Scope, Name: n.Name}
	case *ast.BackRef, *ast.NthRef:
		b.report(diagnostics.EBackrefAssign,
			fmt.Sprintf("can't set variable %s", describeRef(n)), n.NodeSpan())
		return &ast.Dummy{Span: n.NodeSpan()}
	case *ast.Send:
		if target := callTarget(n.Receiver, n.Method, n.Args); target != "" {
			return &ast.Send{Span: n.Span, Receiver: n.Receiver, Method: target, Args: n.Args}
		}
	case *ast.CSend:
		if target := callTarget(n.Receiver, n.Method, n.Args); target != "" {
			return &ast.CSend{Span: n.Span, Receiver: n.Receiver, Method: target, Args: n.Args}
		}
	case *ast.Dummy:
		return n
	}
	b.report(diagnostics.EInvalidAssign,
		fmt.Sprintf("cannot assign to %s", describeTarget(n)), spanOf(n))
	return &ast.Dummy{Span: spanOf(n)}
}

// callTarget names the writer method for an attribute or index read, or
// returns "" when the call cannot be assigned to.
func callTarget(receiver ast.Node, method string, args []ast.Node) string {
	switch {
	case receiver == nil:
		return ""
	case method == "[]":
		return "[]="
	case len(args) == 0 && isIdentName(method):
		return method + "="
	}
	return ""
}

func isIdentName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c >= 0x80) {
			return false
		}
	}
	return true
}

func (b *Builder) declare(name string) {
	if b.Env != nil {
		b.Env.Declare(name)
	}
}

func describeRef(n ast.Node) string {
	switch n := n.(type) {
	case *ast.BackRef:
		return n.Name
	case *ast.NthRef:
		return fmt.Sprintf("$%d", n.N)
	}
	return n.Kind()
}

func describeTarget(n ast.Node) string {
	switch n.(type) {
	case *ast.Self:
		return "self"
	case *ast.Nil:
		return "nil"
	case *ast.True:
		return "true"
	case *ast.False:
		return "false"
	case *ast.File:
		return "__FILE__"
	case *ast.Line:
		return "__LINE__"
	case *ast.Encoding:
		return "__ENCODING__"
	case nil:
		return "nothing"
	}
	return "a " + n.Kind() + " expression"
}

// ---------------------------------------------------------------------------
// Assignment
// ---------------------------------------------------------------------------

// Assign fills in the value of a write-form node returned by Assignable.
// Attribute and index writes are sends that take the value as a final
// argument.
func (b *Builder) Assign(lhs ast.Node, eql lexer.Token, rhs ast.Node) ast.Node {
	span := join(spanOf(lhs), spanOf(rhs))
	switch lhs := lhs.(type) {
	case *ast.LVasgn:
		return &ast.LVasgn{Span: span, Name: lhs.Name, Value: rhs}
	case *ast.IVasgn:
		return &ast.IVasgn{Span: span, Name: lhs.Name, Value: rhs}
	case *ast.GVasgn:
		return &ast.GVasgn{Span: span, Name: lhs.Name, Value: rhs}
	case *ast.CVasgn:
		return &ast.CVasgn{Span: span, Name: lhs.Name, Value: rhs}
	case *ast.Casgn:
		return &ast.Casgn{Span: span, Scope: lhs.Scope, Name: lhs.Name, Value: rhs}
	case *ast.Send:
		args := append(append([]ast.Node(nil), lhs.Args...), rhs)
		return &ast.Send{Span: span, Receiver: lhs.Receiver, Method: lhs.Method, Args: args}
	case *ast.CSend:
		args := append(append([]ast.Node(nil), lhs.Args...), rhs)
		return &ast.CSend{Span: span, Receiver: lhs.Receiver, Method: lhs.Method, Args: args}
	case *ast.Dummy:
		return &ast.Dummy{Span: span}
	}
	panic(fmt.Sprintf("builder: assign to %s", lhs.Kind()))
}

// OpAssign builds "lhs op= rhs". The operator is the tOP_ASGN value.
func (b *Builder) OpAssign(lhs ast.Node, op lexer.Token, rhs ast.Node) ast.Node {
	span := join(spanOf(lhs), spanOf(rhs))
	switch lhs.(type) {
	case *ast.BackRef, *ast.NthRef:
		b.report(diagnostics.EBackrefAssign,
			fmt.Sprintf("can't set variable %s", describeRef(lhs)), spanOf(lhs))
		return &ast.Dummy{Span: span}
	case *ast.Dummy:
		return &ast.Dummy{Span: span}
	}
	switch op.Value {
	case "&&":
		return &ast.AndAsgn{Span: span, Target: lhs, Value: rhs}
	case "||":
		return &ast.OrAsgn{Span: span, Target: lhs, Value: rhs}
	}
	return &ast.OpAsgn{Span: span, Target: lhs, Operator: op.Value, Value: rhs}
}

// ---------------------------------------------------------------------------
// Calls and operators
// ---------------------------------------------------------------------------

// Call builds a method call. dot is nil for receiverless calls; a "&."
// dot builds a csend.
func (b *Builder) Call(receiver ast.Node, dot *lexer.Token, selector lexer.Token, args []ast.Node) ast.Node {
	span := join(spanOf(receiver), tokSpan(dot), selector.Span, nodesSpan(args))
	if dot != nil && dot.Type == lexer.TokAndDot {
		return &ast.CSend{Span: span, Receiver: receiver, Method: selector.Value, Args: args}
	}
	return &ast.Send{Span: span, Receiver: receiver, Method: selector.Value, Args: args}
}

// AttrAsgn builds the target of "recv.name = value".
func (b *Builder) AttrAsgn(receiver ast.Node, dot lexer.Token, selector lexer.Token) ast.Node {
	span := join(spanOf(receiver), selector.Span)
	if dot.Type == lexer.TokAndDot {
		return &ast.CSend{Span: span, Receiver: receiver, Method: selector.Value + "="}
	}
	return &ast.Send{Span: span, Receiver: receiver, Method: selector.Value + "="}
}

func (b *Builder) Index(receiver ast.Node, lbrack lexer.Token, args []ast.Node, rbrack lexer.Token) ast.Node {
	return &ast.Send{Span: join(spanOf(receiver), rbrack.Span), Receiver: receiver, Method: "[]", Args: args}
}

// IndexAsgn builds the target of "recv[args] = value".
func (b *Builder) IndexAsgn(receiver ast.Node, lbrack lexer.Token, args []ast.Node, rbrack lexer.Token) ast.Node {
	return &ast.Send{Span: join(spanOf(receiver), rbrack.Span), Receiver: receiver, Method: "[]=", Args: args}
}

func (b *Builder) BinaryOp(lhs ast.Node, op lexer.Token, rhs ast.Node) ast.Node {
	return &ast.Send{Span: join(spanOf(lhs), spanOf(rhs)), Receiver: lhs, Method: op.Value, Args: []ast.Node{rhs}}
}

// UnaryOp builds -x, +x and ~x as calls to -@, +@ and ~.
func (b *Builder) UnaryOp(op lexer.Token, operand ast.Node) ast.Node {
	method := op.Value
	switch method {
	case "-", "+":
		method += "@"
	}
	return &ast.Send{Span: join(op.Span, spanOf(operand)), Receiver: operand, Method: method}
}

func (b *Builder) Not(op lexer.Token, operand ast.Node) ast.Node {
	return &ast.Send{Span: join(op.Span, spanOf(operand)), Receiver: operand, Method: "!"}
}

func (b *Builder) Logical(lhs ast.Node, op lexer.Token, rhs ast.Node) ast.Node {
	span := join(spanOf(lhs), spanOf(rhs))
	if op.Type == lexer.TokOrOp || op.Type == lexer.TokKwOr {
		return &ast.Or{Span: span, Left: lhs, Right: rhs}
	}
	return &ast.And{Span: span, Left: lhs, Right: rhs}
}

// Loop builds a while or until loop from its keyword.
func (b *Builder) Loop(keyword lexer.Token, cond ast.Node, body ast.Node, end lexer.Token) ast.Node {
	span := join(keyword.Span, end.Span)
	if keyword.Type == lexer.TokKwUntil {
		return &ast.Until{Span: span, Cond: cond, Body: body}
	}
	return &ast.While{Span: span, Cond: cond, Body: body}
}

// ---------------------------------------------------------------------------
// Definitions and blocks
// ---------------------------------------------------------------------------

func (b *Builder) DefMethod(def lexer.Token, name lexer.Token, args *ast.Args, body ast.Node, end lexer.Token) ast.Node {
	return &ast.Def{Span: join(def.Span, end.Span), Name: name.Value, Args: args, Body: body}
}

func (b *Builder) DefSingleton(def lexer.Token, singleton ast.Node, name lexer.Token, args *ast.Args, body ast.Node, end lexer.Token) ast.Node {
	return &ast.Defs{Span: join(def.Span, end.Span), Singleton: singleton, Name: name.Value, Args: args, Body: body}
}

func (b *Builder) Args(begin *lexer.Token, args []ast.Node, end *lexer.Token) *ast.Args {
	return &ast.Args{Span: join(tokSpan(begin), nodesSpan(args), tokSpan(end)), Args: args}
}

func (b *Builder) Arg(name lexer.Token) ast.Node {
	b.declare(name.Value)
	return &ast.Arg{Span: name.Span, Name: name.Value}
}

func (b *Builder) OptArg(name lexer.Token, eql lexer.Token, def ast.Node) ast.Node {
	b.declare(name.Value)
	return &ast.OptArg{Span: join(name.Span, spanOf(def)), Name: name.Value, Default: def}
}

func (b *Builder) KwArg(label lexer.Token) ast.Node {
	b.declare(label.Value)
	return &ast.KwArg{Span: label.Span, Name: label.Value}
}

func (b *Builder) KwOptArg(label lexer.Token, def ast.Node) ast.Node {
	b.declare(label.Value)
	return &ast.KwOptArg{Span: join(label.Span, spanOf(def)), Name: label.Value, Default: def}
}

// RestArg builds *name; name is nil for a bare *.
func (b *Builder) RestArg(star lexer.Token, name *lexer.Token) ast.Node {
	if name == nil {
		return &ast.RestArg{Span: star.Span}
	}
	b.declare(name.Value)
	return &ast.RestArg{Span: join(star.Span, name.Span), Name: name.Value}
}

func (b *Builder) BlockArg(amper lexer.Token, name lexer.Token) ast.Node {
	b.declare(name.Value)
	return &ast.BlockArg{Span: join(amper.Span, name.Span), Name: name.Value}
}

func (b *Builder) Lambda(tok lexer.Token) ast.Node {
	return &ast.Lambda{Span: tok.Span}
}

func (b *Builder) Block(call ast.Node, begin lexer.Token, args *ast.Args, body ast.Node, end lexer.Token) ast.Node {
	return &ast.Block{Span: join(spanOf(call), end.Span), Call: call, Args: args, Body: body}
}

// ---------------------------------------------------------------------------
// Sequencing
// ---------------------------------------------------------------------------

// Compstmt returns the body marker for zero statements, the statement
// itself for one, and a begin node for more.
func (b *Builder) Compstmt(stmts []ast.Node) ast.Node {
	switch len(stmts) {
	case 0:
		return &ast.Null{}
	case 1:
		return stmts[0]
	}
	return &ast.Begin{Span: nodesSpan(stmts), Body: stmts}
}

// Begin wraps a parenthesised statement list.
func (b *Builder) Begin(lparen lexer.Token, body ast.Node, rparen lexer.Token) ast.Node {
	span := join(lparen.Span, rparen.Span)
	switch body := body.(type) {
	case nil, *ast.Null:
		return &ast.Begin{Span: span}
	case *ast.Begin:
		return &ast.Begin{Span: span, Body: body.Body}
	}
	return &ast.Begin{Span: span, Body: []ast.Node{body}}
}
