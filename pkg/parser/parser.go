// Package parser implements a recursive-descent parser for Ruby source.
//
// The parser pulls tokens from the lexer one at a time. It shares the
// lexer's command-argument stack and local-variable scope, so the lexer
// always disambiguates the next token with the grammar's current view.
package parser

import (
	"fmt"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/builder"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
	"github.com/thomasrohde/rubyfront/pkg/scope"
)

// Option configures a parse.
type Option func(*config)

type config struct {
	lexerOpts   []lexer.Option
	builderOpts []builder.Option
}

// WithLexerOptions passes options through to the lexer.
func WithLexerOptions(opts ...lexer.Option) Option {
	return func(c *config) { c.lexerOpts = append(c.lexerOpts, opts...) }
}

// WithBuilderOptions passes options through to the AST builder.
func WithBuilderOptions(opts ...builder.Option) Option {
	return func(c *config) { c.builderOpts = append(c.builderOpts, opts...) }
}

type parser struct {
	lx    *lexer.Lexer
	b     *builder.Builder
	env   *scope.StaticEnv
	diags *diagnostics.Collector
	file  string

	tok  lexer.Token
	prev lexer.Token

	// commandDepth counts enclosing paren-less argument lists. A do-block
	// lexed while it is non-zero belongs to the outermost command.
	commandDepth int
	lastErr      ast.Span
}

// Parse parses source into an AST. The tree is returned even when
// diagnostics were reported; unparseable fragments become dummy nodes.
func Parse(source, filename string, opts ...Option) (ast.Node, []diagnostics.Diagnostic) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	diags := &diagnostics.Collector{}
	env := scope.New()
	lexOpts := append([]lexer.Option{
		lexer.WithFilename(filename),
		lexer.WithReporter(diags),
		lexer.WithStaticEnv(env),
	}, cfg.lexerOpts...)

	p := &parser{
		lx:    lexer.New(source, lexOpts...),
		b:     builder.New(env, diags, cfg.builderOpts...),
		env:   env,
		diags: diags,
		file:  filename,
	}
	p.next()
	program := p.parseStatements()
	return program, diags.Diagnostics()
}

// ---------------------------------------------------------------------------
// Token handling
// ---------------------------------------------------------------------------

func (p *parser) next() {
	p.prev = p.tok
	tok, ok := p.lx.Advance()
	if !ok {
		end := p.prev.Span
		if end.EndLine == 0 {
			end.EndLine, end.EndCol = 1, 1
		}
		tok = lexer.Token{Type: lexer.TokEOF, Span: ast.Span{
			File:      p.file,
			StartLine: end.EndLine,
			StartCol:  end.EndCol,
			EndLine:   end.EndLine,
			EndCol:    end.EndCol,
		}}
	}
	p.tok = tok
}

func (p *parser) advance() lexer.Token {
	tok := p.tok
	p.next()
	return tok
}

func (p *parser) at(types ...lexer.TokenType) bool {
	for _, t := range types {
		if p.tok.Type == t {
			return true
		}
	}
	return false
}

func (p *parser) expect(t lexer.TokenType) (lexer.Token, bool) {
	if p.tok.Type != t {
		p.errorf(p.tok.Span, "expected %s, got %s", t, describe(p.tok))
		return p.tok, false
	}
	return p.advance(), true
}

func (p *parser) skipNewlines() {
	for p.tok.Type == lexer.TokNL {
		p.next()
	}
}

func (p *parser) isTerminator() bool {
	return p.at(lexer.TokNL, lexer.TokSemi, lexer.TokEOF)
}

// errorf reports a parse error. Errors after a fatal lexer diagnostic and
// repeated errors at one position are dropped.
func (p *parser) errorf(span ast.Span, format string, args ...any) {
	if p.lx.Fatal() != nil {
		return
	}
	if span.StartLine == p.lastErr.StartLine && span.StartCol == p.lastErr.StartCol && p.lastErr.StartLine != 0 {
		return
	}
	p.lastErr = span
	p.diags.Report(diagnostics.Error, diagnostics.EParse, &span, fmt.Sprintf(format, args...))
}

func (p *parser) unexpected() ast.Node {
	p.errorf(p.tok.Span, "unexpected %s", describe(p.tok))
	return &ast.Dummy{Span: p.tok.Span}
}

func describe(tok lexer.Token) string {
	if tok.Type == lexer.TokEOF {
		return "end of input"
	}
	if tok.Value == "" {
		return tok.Type.String()
	}
	return fmt.Sprintf("%s %q", tok.Type, tok.Value)
}

// ---------------------------------------------------------------------------
// Scopes
// ---------------------------------------------------------------------------

func (p *parser) setEnv(env *scope.StaticEnv) {
	p.env = env
	p.b.Env = env
	p.lx.SetStaticEnv(env)
}

// pushScope opens a method body (static) or block body (dynamic) scope
// and returns the scope to restore.
func (p *parser) pushScope(dynamic bool) *scope.StaticEnv {
	outer := p.env
	if dynamic {
		p.setEnv(outer.ExtendDynamic())
	} else {
		p.setEnv(outer.ExtendStatic())
	}
	return outer
}

// ---------------------------------------------------------------------------
// Statements
// ---------------------------------------------------------------------------

// parseStatements parses a statement list up to one of closers or the end
// of input. The closing token is left for the caller.
func (p *parser) parseStatements(closers ...lexer.TokenType) ast.Node {
	saved := p.commandDepth
	p.commandDepth = 0
	defer func() { p.commandDepth = saved }()

	var stmts []ast.Node
	for {
		for p.at(lexer.TokNL, lexer.TokSemi) {
			p.next()
		}
		if p.tok.Type == lexer.TokEOF || p.at(closers...) {
			break
		}
		stmts = append(stmts, p.parseExpr())
		if p.isTerminator() || p.at(closers...) {
			continue
		}
		p.unexpected()
		p.synchronize(closers)
	}
	return p.b.Compstmt(stmts)
}

// synchronize skips at least one token and stops at the next terminator or
// closer.
func (p *parser) synchronize(closers []lexer.TokenType) {
	for {
		p.next()
		if p.isTerminator() || p.at(closers...) {
			return
		}
	}
}

// parseExpr handles the low-precedence keyword operators.
func (p *parser) parseExpr() ast.Node {
	left := p.parseNotExpr()
	for p.at(lexer.TokKwAnd, lexer.TokKwOr) {
		op := p.advance()
		p.skipNewlines()
		left = p.b.Logical(left, op, p.parseNotExpr())
	}
	return left
}

func (p *parser) parseNotExpr() ast.Node {
	if p.tok.Type == lexer.TokKwNot {
		op := p.advance()
		return p.b.Not(op, p.parseNotExpr())
	}
	return p.parseArg()
}

// parseArg handles assignment, which is right-associative and binds
// looser than every operator but the keyword ones.
func (p *parser) parseArg() ast.Node {
	lhs := p.parseRange()
	switch p.tok.Type {
	case lexer.TokEql:
		target := p.b.Assignable(lhs)
		eql := p.advance()
		p.skipNewlines()
		return p.b.Assign(target, eql, p.parseArg())
	case lexer.TokOpAsgn:
		target := lhs
		switch lhs.(type) {
		case *ast.Send, *ast.CSend:
		default:
			target = p.b.Assignable(lhs)
		}
		op := p.advance()
		p.skipNewlines()
		return p.b.OpAssign(target, op, p.parseArg())
	}
	return lhs
}

func (p *parser) parseRange() ast.Node {
	lo := p.parseBinary(precOr)
	switch p.tok.Type {
	case lexer.TokDot2:
		op := p.advance()
		return p.b.RangeInclusive(lo, op, p.parseBinary(precOr))
	case lexer.TokDot3:
		op := p.advance()
		return p.b.RangeExclusive(lo, op, p.parseBinary(precOr))
	}
	return lo
}

const (
	precOr = iota + 1
	precAnd
	precEquality
	precComparison
	precBitOr
	precBitAnd
	precShift
	precAdditive
	precMultiplicative
	precPow
)

var binaryPrec = map[lexer.TokenType]int{
	lexer.TokOrOp:    precOr,
	lexer.TokAndOp:   precAnd,
	lexer.TokCmp:     precEquality,
	lexer.TokEq:      precEquality,
	lexer.TokEqq:     precEquality,
	lexer.TokNeq:     precEquality,
	lexer.TokMatch:   precEquality,
	lexer.TokNMatch:  precEquality,
	lexer.TokLt:      precComparison,
	lexer.TokLeq:     precComparison,
	lexer.TokGt:      precComparison,
	lexer.TokGeq:     precComparison,
	lexer.TokPipe:    precBitOr,
	lexer.TokCaret:   precBitOr,
	lexer.TokAmper2:  precBitAnd,
	lexer.TokLShft:   precShift,
	lexer.TokRShft:   precShift,
	lexer.TokPlus:    precAdditive,
	lexer.TokMinus:   precAdditive,
	lexer.TokStar2:   precMultiplicative,
	lexer.TokDivide:  precMultiplicative,
	lexer.TokPercent: precMultiplicative,
	lexer.TokPow:     precPow,
}

// parseBinary is a precedence climber over binaryPrec. ** is the only
// right-associative operator.
func (p *parser) parseBinary(minPrec int) ast.Node {
	left := p.parseUnary()
	for {
		prec, ok := binaryPrec[p.tok.Type]
		if !ok || prec < minPrec {
			return left
		}
		op := p.advance()
		p.skipNewlines()
		next := prec + 1
		if op.Type == lexer.TokPow {
			next = prec
		}
		right := p.parseBinary(next)
		if op.Type == lexer.TokAndOp || op.Type == lexer.TokOrOp {
			left = p.b.Logical(left, op, right)
		} else {
			left = p.b.BinaryOp(left, op, right)
		}
	}
}

func (p *parser) parseUnary() ast.Node {
	switch p.tok.Type {
	case lexer.TokUMinus:
		op := p.advance()
		return p.b.UnaryOp(op, p.parseBinary(precPow))
	case lexer.TokUPlus, lexer.TokTilde:
		op := p.advance()
		return p.b.UnaryOp(op, p.parseUnary())
	case lexer.TokBang:
		op := p.advance()
		return p.b.Not(op, p.parseUnary())
	case lexer.TokUnaryNum:
		sign := p.advance()
		if !p.at(lexer.TokInteger, lexer.TokFloat, lexer.TokRational, lexer.TokImaginary) {
			return p.unexpected()
		}
		num := p.parseNumber()
		if p.tok.Type == lexer.TokPow && sign.Value == "-" {
			// -2 ** 2 is -(2 ** 2)
			op := p.advance()
			pow := p.b.BinaryOp(num, op, p.parseBinary(precPow))
			return p.b.UnaryOp(sign, pow)
		}
		return p.parsePostfix(p.b.UnaryNum(sign, num))
	}
	return p.parsePostfix(p.parsePrimary())
}

// ---------------------------------------------------------------------------
// Postfix: calls, constants, indexing
// ---------------------------------------------------------------------------

// parsePostfix applies method calls, scope lookups and indexing to n. A
// bare name that is about to be assigned is returned unresolved so the
// caller can turn it into a write.
func (p *parser) parsePostfix(n ast.Node) ast.Node {
	for {
		switch p.tok.Type {
		case lexer.TokDot, lexer.TokAndDot:
			recv := p.b.Accessible(n)
			dot := p.advance()
			sel, ok := p.parseSelector()
			if !ok {
				return &ast.Dummy{Span: dot.Span}
			}
			n = p.parseCallRest(recv, &dot, sel)
		case lexer.TokColon2:
			recv := p.b.Accessible(n)
			colon := p.advance()
			if p.tok.Type == lexer.TokConstant {
				name := p.advance()
				if p.tok.Type == lexer.TokLParen2 {
					n = p.parseCallRest(recv, &colon, name)
				} else {
					n = p.b.ConstFetch(recv, colon, name)
				}
				continue
			}
			sel, ok := p.parseSelector()
			if !ok {
				return &ast.Dummy{Span: colon.Span}
			}
			n = p.parseCallRest(recv, &colon, sel)
		case lexer.TokLBrack2:
			recv := p.b.Accessible(n)
			lb := p.advance()
			args := p.parseArgList(lexer.TokRBrack)
			rb, _ := p.expect(lexer.TokRBrack)
			n = p.b.Index(recv, lb, args, rb)
		case lexer.TokEql, lexer.TokOpAsgn:
			return n
		default:
			return p.b.Accessible(n)
		}
	}
}

// parseSelector reads the method name after a dot.
func (p *parser) parseSelector() (lexer.Token, bool) {
	switch {
	case p.at(lexer.TokIdentifier, lexer.TokFID, lexer.TokConstant), p.tok.Type.IsKeyword():
		return p.advance(), true
	case binaryPrec[p.tok.Type] != 0, p.at(lexer.TokBang, lexer.TokTilde, lexer.TokAref, lexer.TokAset):
		return p.advance(), true
	}
	p.unexpected()
	return p.tok, false
}

// parseCallRest parses the arguments and block of a call whose selector
// has been read.
func (p *parser) parseCallRest(recv ast.Node, dot *lexer.Token, sel lexer.Token) ast.Node {
	var call ast.Node
	switch {
	case p.tok.Type == lexer.TokLParen2:
		call = p.b.Call(recv, dot, sel, p.parseParenArgs())
	case p.canStartCommandArg():
		return p.parseCommand(recv, dot, sel)
	default:
		call = p.b.Call(recv, dot, sel, nil)
	}
	return p.parseBlockIfAny(call)
}

// canStartCommandArg reports whether the current token opens the first
// argument of a paren-less call. The lexer has already told unary and
// binary operators apart by their spacing.
func (p *parser) canStartCommandArg() bool {
	switch p.tok.Type {
	case lexer.TokInteger, lexer.TokFloat, lexer.TokRational, lexer.TokImaginary, lexer.TokUnaryNum,
		lexer.TokString, lexer.TokStringBeg, lexer.TokXStringBeg, lexer.TokSymBeg, lexer.TokRegexpBeg,
		lexer.TokWordsBeg, lexer.TokQWordsBeg, lexer.TokSymbolsBeg, lexer.TokQSymbolsBeg,
		lexer.TokSymbol, lexer.TokCharacter,
		lexer.TokIdentifier, lexer.TokFID, lexer.TokConstant,
		lexer.TokIVar, lexer.TokGVar, lexer.TokCVar, lexer.TokBackRef, lexer.TokNthRef,
		lexer.TokLabel, lexer.TokLBrack, lexer.TokLParenArg, lexer.TokColon3, lexer.TokLambda,
		lexer.TokStar, lexer.TokUMinus, lexer.TokUPlus, lexer.TokBang, lexer.TokTilde,
		lexer.TokKwNil, lexer.TokKwTrue, lexer.TokKwFalse, lexer.TokKwSelf,
		lexer.TokKwFile, lexer.TokKwLine, lexer.TokKwEncoding, lexer.TokKwDef:
		return true
	}
	return false
}

// parseCommand parses a paren-less argument list. While it runs the
// command-argument stack is active, which makes the lexer report a
// trailing do as kDO_BLOCK.
func (p *parser) parseCommand(recv ast.Node, dot *lexer.Token, sel lexer.Token) ast.Node {
	p.lx.Cmdarg().Push(true)
	p.commandDepth++
	args := p.parseArgList(lexer.TokEOF)
	p.commandDepth--
	p.lx.Cmdarg().Pop()

	call := p.b.Call(recv, dot, sel, args)
	if p.tok.Type == lexer.TokKwDoBlock && p.commandDepth == 0 {
		return p.parseDoBlock(call)
	}
	return call
}

func (p *parser) parseParenArgs() []ast.Node {
	p.advance()
	args := p.parseArgList(lexer.TokRParen)
	p.expect(lexer.TokRParen)
	return args
}

// parseArgList parses comma-separated call arguments. Trailing label and
// => pairs are collected into a hash. With a closer other than EOF the
// list is bracketed: newlines are skipped and a trailing comma is allowed.
func (p *parser) parseArgList(closer lexer.TokenType) []ast.Node {
	bracketed := closer != lexer.TokEOF
	if bracketed {
		saved := p.commandDepth
		p.commandDepth = 0
		defer func() { p.commandDepth = saved }()
	}

	var args, pairs []ast.Node
	for {
		if bracketed {
			p.skipNewlines()
			if p.tok.Type == closer {
				break
			}
		}
		switch p.tok.Type {
		case lexer.TokLabel:
			pairs = append(pairs, p.parseLabelPair())
		case lexer.TokStar:
			star := p.advance()
			args = append(args, p.b.Splat(star, p.parseArg()))
		default:
			arg := p.parseArg()
			if p.tok.Type == lexer.TokAssoc {
				assoc := p.advance()
				p.skipNewlines()
				pairs = append(pairs, p.b.Pair(arg, assoc, p.parseArg()))
				break
			}
			if len(pairs) > 0 {
				args = append(args, p.b.Associate(nil, pairs, nil))
				pairs = nil
			}
			args = append(args, arg)
		}
		if p.tok.Type != lexer.TokComma {
			break
		}
		p.advance()
	}
	if bracketed {
		p.skipNewlines()
	}
	if len(pairs) > 0 {
		args = append(args, p.b.Associate(nil, pairs, nil))
	}
	return args
}

func (p *parser) parseLabelPair() ast.Node {
	label := p.advance()
	p.skipNewlines()
	return p.b.PairKeyword(label, p.parseArg())
}

// ---------------------------------------------------------------------------
// Blocks
// ---------------------------------------------------------------------------

func (p *parser) parseBlockIfAny(call ast.Node) ast.Node {
	switch p.tok.Type {
	case lexer.TokLCurly, lexer.TokLBraceArg:
		return p.parseBraceBlock(call)
	case lexer.TokKwDo:
		return p.parseDoBlock(call)
	case lexer.TokKwDoBlock:
		if p.commandDepth == 0 {
			return p.parseDoBlock(call)
		}
	}
	return call
}

func (p *parser) parseBraceBlock(call ast.Node) ast.Node {
	return p.parseBlockBody(call, lexer.TokRCurly)
}

func (p *parser) parseDoBlock(call ast.Node) ast.Node {
	return p.parseBlockBody(call, lexer.TokKwEnd)
}

func (p *parser) parseBlockBody(call ast.Node, closer lexer.TokenType) ast.Node {
	outer := p.pushScope(true)
	begin := p.advance()
	args := p.parseBlockParams()
	body := p.parseStatements(closer)
	p.setEnv(outer)
	end, _ := p.expect(closer)
	return p.b.Block(call, begin, args, body, end)
}

func (p *parser) parseBlockParams() *ast.Args {
	switch p.tok.Type {
	case lexer.TokOrOp:
		tok := p.advance()
		return p.b.Args(&tok, nil, &tok)
	case lexer.TokPipe:
		lp := p.advance()
		params := p.parseParamList(lexer.TokPipe)
		rp, _ := p.expect(lexer.TokPipe)
		return p.b.Args(&lp, params, &rp)
	}
	return p.b.Args(nil, nil, nil)
}

// ---------------------------------------------------------------------------
// Primaries
// ---------------------------------------------------------------------------

func (p *parser) parsePrimary() ast.Node {
	switch p.tok.Type {
	case lexer.TokInteger, lexer.TokFloat, lexer.TokRational, lexer.TokImaginary:
		return p.parseNumber()
	case lexer.TokString, lexer.TokStringBeg:
		return p.parseStrings()
	case lexer.TokXStringBeg:
		return p.parseXString()
	case lexer.TokSymBeg:
		return p.parseDSymbol()
	case lexer.TokRegexpBeg:
		return p.parseRegexp()
	case lexer.TokWordsBeg, lexer.TokQWordsBeg, lexer.TokSymbolsBeg, lexer.TokQSymbolsBeg:
		return p.parseWords()
	case lexer.TokSymbol:
		return p.b.Symbol(p.advance())
	case lexer.TokCharacter:
		return p.b.Character(p.advance())
	case lexer.TokKwNil:
		return p.b.Nil(p.advance())
	case lexer.TokKwTrue:
		return p.b.True(p.advance())
	case lexer.TokKwFalse:
		return p.b.False(p.advance())
	case lexer.TokKwSelf:
		return p.b.Self(p.advance())
	case lexer.TokKwFile:
		return p.b.FileLiteral(p.advance())
	case lexer.TokKwLine:
		return p.b.LineLiteral(p.advance())
	case lexer.TokKwEncoding:
		return p.b.EncodingLiteral(p.advance())
	case lexer.TokIVar:
		return p.b.IVar(p.advance())
	case lexer.TokGVar:
		return p.b.GVar(p.advance())
	case lexer.TokCVar:
		return p.b.CVar(p.advance())
	case lexer.TokBackRef:
		return p.b.BackRef(p.advance())
	case lexer.TokNthRef:
		return p.b.NthRef(p.advance())
	case lexer.TokIdentifier:
		return p.parseIdentifier(p.advance())
	case lexer.TokFID:
		return p.parseCallRest(nil, nil, p.advance())
	case lexer.TokConstant:
		name := p.advance()
		if p.tok.Type == lexer.TokLParen2 {
			return p.parseCallRest(nil, nil, name)
		}
		return p.b.Const(name)
	case lexer.TokColon3:
		colon := p.advance()
		name, ok := p.expect(lexer.TokConstant)
		if !ok {
			return &ast.Dummy{Span: colon.Span}
		}
		return p.b.ConstGlobal(colon, name)
	case lexer.TokLBrack:
		return p.parseArray()
	case lexer.TokLBrace:
		return p.parseHash()
	case lexer.TokLParen, lexer.TokLParenArg:
		lp := p.advance()
		body := p.parseStatements(lexer.TokRParen)
		rp, _ := p.expect(lexer.TokRParen)
		return p.b.Begin(lp, body, rp)
	case lexer.TokLambda:
		return p.parseLambda()
	case lexer.TokKwDef:
		return p.parseDef()
	case lexer.TokKwWhile, lexer.TokKwUntil:
		return p.parseLoop()
	}
	return p.unexpected()
}

// parseIdentifier decides whether a bare name is a local variable, a call
// with arguments or a call with a block. Plain names are returned raw and
// resolved by parsePostfix.
func (p *parser) parseIdentifier(name lexer.Token) ast.Node {
	switch {
	case p.tok.Type == lexer.TokLParen2:
		return p.parseCallRest(nil, nil, name)
	case p.env.Declared(name.Value):
		return p.b.Ident(name)
	case p.canStartCommandArg():
		return p.parseCommand(nil, nil, name)
	case p.at(lexer.TokLCurly, lexer.TokLBraceArg, lexer.TokKwDo):
		return p.parseBlockIfAny(p.b.Call(nil, nil, name, nil))
	case p.tok.Type == lexer.TokKwDoBlock && p.commandDepth == 0:
		return p.parseDoBlock(p.b.Call(nil, nil, name, nil))
	}
	return p.b.Ident(name)
}

func (p *parser) parseNumber() ast.Node {
	tok := p.advance()
	switch tok.Type {
	case lexer.TokFloat:
		return p.b.Float(tok)
	case lexer.TokRational:
		return p.b.Rational(tok)
	case lexer.TokImaginary:
		return p.b.Complex(tok)
	}
	return p.b.Integer(tok)
}

func (p *parser) parseArray() ast.Node {
	lb := p.advance()
	elems := p.parseArgList(lexer.TokRBrack)
	rb, _ := p.expect(lexer.TokRBrack)
	return p.b.Array(&lb, elems, &rb)
}

func (p *parser) parseHash() ast.Node {
	saved := p.commandDepth
	p.commandDepth = 0
	defer func() { p.commandDepth = saved }()

	lb := p.advance()
	var pairs []ast.Node
	for {
		p.skipNewlines()
		if p.tok.Type == lexer.TokRCurly {
			break
		}
		pairs = append(pairs, p.parsePair())
		if p.tok.Type != lexer.TokComma {
			break
		}
		p.advance()
	}
	p.skipNewlines()
	rb, _ := p.expect(lexer.TokRCurly)
	return p.b.Associate(&lb, pairs, &rb)
}

func (p *parser) parsePair() ast.Node {
	if p.tok.Type == lexer.TokLabel {
		return p.parseLabelPair()
	}
	key := p.parseArg()
	assoc, ok := p.expect(lexer.TokAssoc)
	if !ok {
		return &ast.Dummy{Span: assoc.Span}
	}
	p.skipNewlines()
	return p.b.Pair(key, assoc, p.parseArg())
}

// ---------------------------------------------------------------------------
// Definitions
// ---------------------------------------------------------------------------

func (p *parser) parseDef() ast.Node {
	outer := p.pushScope(false)
	outerCtx := p.b.Context
	p.b.Context.InDef = true
	restore := func() {
		p.b.Context = outerCtx
		p.setEnv(outer)
	}

	def := p.advance()
	var singleton ast.Node
	var name lexer.Token
	named := false
	if p.tok.Type == lexer.TokKwSelf {
		self := p.advance()
		if p.tok.Type == lexer.TokDot {
			singleton = p.b.Self(self)
			p.advance()
		} else {
			name, named = self, true
		}
	}
	if !named {
		if p.at(lexer.TokNL, lexer.TokSemi, lexer.TokEOF, lexer.TokLParen2, lexer.TokLParen) {
			p.unexpected()
			restore()
			return &ast.Dummy{Span: def.Span}
		}
		name = p.advance()
	}

	args := p.parseDefParams()
	body := p.parseStatements(lexer.TokKwEnd)
	restore()
	end, _ := p.expect(lexer.TokKwEnd)
	if singleton != nil {
		return p.b.DefSingleton(def, singleton, name, args, body, end)
	}
	return p.b.DefMethod(def, name, args, body, end)
}

// parseLoop parses while and until. The condition stack is active while
// the condition is read, so a do after it lexes as kDO_COND instead of
// opening a block on a call in the condition.
func (p *parser) parseLoop() ast.Node {
	keyword := p.advance()
	p.lx.Cond().Push(true)
	cond := p.parseExprValue()
	p.lx.Cond().Pop()

	switch p.tok.Type {
	case lexer.TokKwDoCond, lexer.TokNL, lexer.TokSemi:
		p.advance()
	default:
		return p.unexpected()
	}
	body := p.parseStatements(lexer.TokKwEnd)
	end, _ := p.expect(lexer.TokKwEnd)
	return p.b.Loop(keyword, cond, body, end)
}

// parseExprValue parses an expression in a position where commands end at
// the statement level.
func (p *parser) parseExprValue() ast.Node {
	saved := p.commandDepth
	p.commandDepth = 0
	defer func() { p.commandDepth = saved }()
	return p.parseExpr()
}

func (p *parser) parseDefParams() *ast.Args {
	switch p.tok.Type {
	case lexer.TokLParen2, lexer.TokLParen, lexer.TokLParenArg:
		lp := p.advance()
		params := p.parseParamList(lexer.TokRParen)
		rp, _ := p.expect(lexer.TokRParen)
		return p.b.Args(&lp, params, &rp)
	case lexer.TokNL, lexer.TokSemi, lexer.TokEOF:
		return p.b.Args(nil, nil, nil)
	}
	p.lx.SetInKwarg(true)
	params := p.parseParamList(lexer.TokNL)
	p.lx.SetInKwarg(false)
	return p.b.Args(nil, params, nil)
}

// parseParamList parses formal parameters up to closer, which is left in
// place. Parenthesised lists may span lines.
func (p *parser) parseParamList(closer lexer.TokenType) []ast.Node {
	multiline := closer == lexer.TokRParen
	var params []ast.Node
	for {
		if multiline {
			p.skipNewlines()
		}
		if p.tok.Type == closer {
			break
		}
		params = append(params, p.parseParam())
		if p.tok.Type != lexer.TokComma {
			break
		}
		p.advance()
	}
	if multiline {
		p.skipNewlines()
	}
	return params
}

func (p *parser) parseParam() ast.Node {
	switch p.tok.Type {
	case lexer.TokIdentifier:
		name := p.advance()
		if p.tok.Type == lexer.TokEql {
			eql := p.advance()
			return p.b.OptArg(name, eql, p.parseArg())
		}
		return p.b.Arg(name)
	case lexer.TokLabel:
		label := p.advance()
		if p.atParamEnd() {
			return p.b.KwArg(label)
		}
		return p.b.KwOptArg(label, p.parseArg())
	case lexer.TokStar, lexer.TokStar2:
		star := p.advance()
		if p.tok.Type == lexer.TokIdentifier {
			name := p.advance()
			return p.b.RestArg(star, &name)
		}
		return p.b.RestArg(star, nil)
	case lexer.TokAmper, lexer.TokAmper2:
		amper := p.advance()
		name, ok := p.expect(lexer.TokIdentifier)
		if !ok {
			return &ast.Dummy{Span: amper.Span}
		}
		return p.b.BlockArg(amper, name)
	}
	return p.unexpected()
}

func (p *parser) atParamEnd() bool {
	return p.at(lexer.TokComma, lexer.TokRParen, lexer.TokPipe, lexer.TokNL, lexer.TokSemi,
		lexer.TokEOF, lexer.TokLambeg, lexer.TokKwDoLambda)
}

func (p *parser) parseLambda() ast.Node {
	outer := p.pushScope(true)
	lambda := p.advance()

	var args *ast.Args
	switch p.tok.Type {
	case lexer.TokLParen2, lexer.TokLParen, lexer.TokLParenArg:
		lp := p.advance()
		params := p.parseParamList(lexer.TokRParen)
		rp, _ := p.expect(lexer.TokRParen)
		args = p.b.Args(&lp, params, &rp)
	case lexer.TokLambeg, lexer.TokKwDoLambda:
		args = p.b.Args(nil, nil, nil)
	default:
		args = p.b.Args(nil, p.parseParamList(lexer.TokLambeg), nil)
	}

	var closer lexer.TokenType
	switch p.tok.Type {
	case lexer.TokLambeg:
		closer = lexer.TokRCurly
	case lexer.TokKwDoLambda:
		closer = lexer.TokKwEnd
	default:
		p.setEnv(outer)
		return p.unexpected()
	}
	begin := p.advance()
	body := p.parseStatements(closer)
	p.setEnv(outer)
	end, _ := p.expect(closer)
	return p.b.Block(p.b.Lambda(lambda), begin, args, body, end)
}

// ---------------------------------------------------------------------------
// String-like literals
// ---------------------------------------------------------------------------

// parseStrings parses one string literal and any literals juxtaposed with
// it, which concatenate.
func (p *parser) parseStrings() ast.Node {
	strs := []ast.Node{p.parseString()}
	for p.at(lexer.TokString, lexer.TokStringBeg) {
		strs = append(strs, p.parseString())
	}
	if len(strs) == 1 {
		return strs[0]
	}
	return p.b.StringCompose(nil, strs, nil)
}

func (p *parser) parseString() ast.Node {
	if p.tok.Type == lexer.TokString {
		return p.b.String(p.advance())
	}
	begin := p.advance()
	parts := p.parseStringBody()
	level, dedent := p.heredocDedent(begin)
	end, _ := p.expect(lexer.TokStringEnd)
	node := p.b.StringCompose(&begin, parts, &end)
	if dedent {
		node = p.b.DedentString(node, level)
	}
	return node
}

// heredocDedent returns the indentation to strip from a squiggly heredoc.
// The lexer reports the level when it closes the body, so it must be read
// before the closing token is consumed.
func (p *parser) heredocDedent(begin lexer.Token) (int, bool) {
	if p.tok.Type != lexer.TokStringEnd || len(begin.Value) < 3 || begin.Value[:3] != "<<~" {
		return 0, false
	}
	return p.lx.DedentLevel()
}

func (p *parser) parseXString() ast.Node {
	begin := p.advance()
	parts := p.parseStringBody()
	level, dedent := p.heredocDedent(begin)
	end, _ := p.expect(lexer.TokStringEnd)
	node := p.b.XStringCompose(&begin, parts, &end)
	if dedent {
		node = p.b.DedentString(node, level)
	}
	return node
}

func (p *parser) parseDSymbol() ast.Node {
	begin := p.advance()
	parts := p.parseStringBody()
	end, _ := p.expect(lexer.TokStringEnd)
	return p.b.SymbolCompose(&begin, parts, &end)
}

func (p *parser) parseRegexp() ast.Node {
	begin := p.advance()
	parts := p.parseStringBody()
	end, _ := p.expect(lexer.TokStringEnd)
	var opts *ast.RegOpt
	if p.tok.Type == lexer.TokRegexpOpt {
		opts = p.b.RegexpOptions(p.advance())
	}
	return p.b.RegexpCompose(begin, parts, end, opts)
}

func (p *parser) parseWords() ast.Node {
	begin := p.advance()
	var words []ast.Node
	for {
		if parts := p.parseStringBody(); len(parts) > 0 {
			words = append(words, p.b.Word(parts))
		}
		if p.tok.Type != lexer.TokSpace {
			break
		}
		p.advance()
	}
	end, _ := p.expect(lexer.TokStringEnd)
	switch begin.Type {
	case lexer.TokSymbolsBeg, lexer.TokQSymbolsBeg:
		return p.b.SymbolsCompose(begin, words, end)
	}
	return p.b.WordsCompose(begin, words, end)
}

// parseStringBody collects content, interpolation and interpolated
// variable parts up to the closing token or a word separator.
func (p *parser) parseStringBody() []ast.Node {
	var parts []ast.Node
	for {
		switch p.tok.Type {
		case lexer.TokStringContent:
			parts = append(parts, p.b.StringInternal(p.advance()))
		case lexer.TokStringDBeg:
			begin := p.advance()
			body := p.parseStatements(lexer.TokStringDEnd)
			end, _ := p.expect(lexer.TokStringDEnd)
			parts = append(parts, p.b.BeginBody(begin, body, end))
		case lexer.TokStringDVar:
			p.advance()
			parts = append(parts, p.parseInterpolatedVar())
		default:
			return parts
		}
	}
}

func (p *parser) parseInterpolatedVar() ast.Node {
	switch p.tok.Type {
	case lexer.TokIVar:
		return p.b.IVar(p.advance())
	case lexer.TokGVar:
		return p.b.GVar(p.advance())
	case lexer.TokCVar:
		return p.b.CVar(p.advance())
	case lexer.TokBackRef:
		return p.b.BackRef(p.advance())
	case lexer.TokNthRef:
		return p.b.NthRef(p.advance())
	}
	return p.unexpected()
}
