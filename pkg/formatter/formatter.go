// Package formatter renders ASTs as S-expressions and token streams as
// line-oriented dumps.
package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

const indent = "  "

// sexp is one rendered node: a head followed by atoms and child nodes.
type sexp struct {
	head  string
	atoms []string
	kids  []*sexp
	// order interleaves atoms (false) and kids (true) in source order.
	order []bool
}

func (s *sexp) atom(a string) *sexp {
	s.atoms = append(s.atoms, a)
	s.order = append(s.order, false)
	return s
}

func (s *sexp) kid(k *sexp) *sexp {
	s.kids = append(s.kids, k)
	s.order = append(s.order, true)
	return s
}

func (s *sexp) node(n ast.Node) *sexp {
	return s.kid(build(n))
}

func (s *sexp) nodes(ns []ast.Node) *sexp {
	for _, n := range ns {
		s.node(n)
	}
	return s
}

func (s *sexp) inline(b *strings.Builder) {
	if s.head == "" {
		b.WriteString(s.atoms[0])
		return
	}
	b.WriteByte('(')
	b.WriteString(s.head)
	ai, ki := 0, 0
	for _, isKid := range s.order {
		b.WriteByte(' ')
		if isKid {
			s.kids[ki].inline(b)
			ki++
		} else {
			b.WriteString(s.atoms[ai])
			ai++
		}
	}
	b.WriteByte(')')
}

// nested renders a node whose compound children each start on their own
// line, indented one level deeper than the parent.
func (s *sexp) nested(b *strings.Builder, depth int) {
	if s.head == "" || len(s.kids) == 0 || s.simple() {
		s.inline(b)
		return
	}
	b.WriteByte('(')
	b.WriteString(s.head)
	ai, ki := 0, 0
	for _, isKid := range s.order {
		if !isKid {
			b.WriteByte(' ')
			b.WriteString(s.atoms[ai])
			ai++
			continue
		}
		b.WriteByte('\n')
		b.WriteString(strings.Repeat(indent, depth+1))
		s.kids[ki].nested(b, depth+1)
		ki++
	}
	b.WriteByte(')')
}

// simple reports whether every child is an atom or a childless node.
func (s *sexp) simple() bool {
	for _, k := range s.kids {
		if k.head != "" && len(k.kids) > 0 {
			return false
		}
	}
	return true
}

func atom(a string) *sexp { return &sexp{atoms: []string{a}} }

func head(h string) *sexp { return &sexp{head: h} }

// Format renders n as an indented S-expression, one compound child per line.
func Format(n ast.Node) string {
	var b strings.Builder
	build(n).nested(&b, 0)
	return b.String()
}

// Inline renders n as a single-line S-expression.
func Inline(n ast.Node) string {
	var b strings.Builder
	build(n).inline(&b)
	return b.String()
}

func build(n ast.Node) *sexp {
	switch n := n.(type) {
	case nil, *ast.Null:
		return atom("nil")
	case *ast.Int:
		return head("int").atom(strconv.FormatInt(n.Value, 10))
	case *ast.Float:
		return head("float").atom(formatFloat(n.Value))
	case *ast.Rational:
		return head("rational").atom("(" + n.Value.Rat().String() + ")")
	case *ast.Complex:
		return head("complex").atom("(" + formatImaginary(n.Imag) + ")")
	case *ast.Str:
		return head("str").atom(strconv.Quote(n.Value))
	case *ast.DStr:
		return head("dstr").nodes(n.Parts)
	case *ast.XStr:
		return head("xstr").nodes(n.Parts)
	case *ast.Sym:
		return head("sym").atom(symbol(n.Name))
	case *ast.DSym:
		return head("dsym").nodes(n.Parts)
	case *ast.Regexp:
		s := head("regexp").nodes(n.Parts)
		if n.Options == nil {
			return s.kid(head("regopt"))
		}
		return s.node(n.Options)
	case *ast.RegOpt:
		s := head("regopt")
		for _, r := range n.Options {
			s.atom(":" + string(r))
		}
		return s
	case *ast.Array:
		return head("array").nodes(n.Elements)
	case *ast.Pair:
		return head("pair").node(n.Key).node(n.Value)
	case *ast.Hash:
		return head("hash").nodes(n.Pairs)
	case *ast.Splat:
		return head("splat").node(n.Value)
	case *ast.IRange:
		return head("irange").node(n.Lo).node(n.Hi)
	case *ast.ERange:
		return head("erange").node(n.Lo).node(n.Hi)
	case *ast.Ident:
		return head("ident").atom(symbol(n.Name))
	case *ast.LVar:
		return head("lvar").atom(symbol(n.Name))
	case *ast.IVar:
		return head("ivar").atom(symbol(n.Name))
	case *ast.GVar:
		return head("gvar").atom(symbol(n.Name))
	case *ast.CVar:
		return head("cvar").atom(symbol(n.Name))
	case *ast.BackRef:
		return head("back_ref").atom(symbol(n.Name))
	case *ast.NthRef:
		return head("nth_ref").atom(strconv.Itoa(n.N))
	case *ast.Const:
		return head("const").node(n.Scope).atom(symbol(n.Name))
	case *ast.LVasgn:
		return assignment("lvasgn", nil, false, n.Name, n.Value)
	case *ast.IVasgn:
		return assignment("ivasgn", nil, false, n.Name, n.Value)
	case *ast.GVasgn:
		return assignment("gvasgn", nil, false, n.Name, n.Value)
	case *ast.CVasgn:
		return assignment("cvasgn", nil, false, n.Name, n.Value)
	case *ast.Casgn:
		return assignment("casgn", n.Scope, true, n.Name, n.Value)
	case *ast.OpAsgn:
		return head("op_asgn").node(n.Target).atom(symbol(n.Operator)).node(n.Value)
	case *ast.AndAsgn:
		return head("and_asgn").node(n.Target).node(n.Value)
	case *ast.OrAsgn:
		return head("or_asgn").node(n.Target).node(n.Value)
	case *ast.And:
		return head("and").node(n.Left).node(n.Right)
	case *ast.Or:
		return head("or").node(n.Left).node(n.Right)
	case *ast.While:
		return head("while").node(n.Cond).node(n.Body)
	case *ast.Until:
		return head("until").node(n.Cond).node(n.Body)
	case *ast.Send:
		return head("send").node(n.Receiver).atom(symbol(n.Method)).nodes(n.Args)
	case *ast.CSend:
		return head("csend").node(n.Receiver).atom(symbol(n.Method)).nodes(n.Args)
	case *ast.Def:
		return head("def").atom(symbol(n.Name)).kid(args(n.Args)).node(n.Body)
	case *ast.Defs:
		return head("defs").node(n.Singleton).atom(symbol(n.Name)).kid(args(n.Args)).node(n.Body)
	case *ast.Args:
		return args(n)
	case *ast.Arg:
		return head("arg").atom(symbol(n.Name))
	case *ast.OptArg:
		return head("optarg").atom(symbol(n.Name)).node(n.Default)
	case *ast.KwArg:
		return head("kwarg").atom(symbol(n.Name))
	case *ast.KwOptArg:
		return head("kwoptarg").atom(symbol(n.Name)).node(n.Default)
	case *ast.RestArg:
		if n.Name == "" {
			return head("restarg")
		}
		return head("restarg").atom(symbol(n.Name))
	case *ast.BlockArg:
		return head("blockarg").atom(symbol(n.Name))
	case *ast.Block:
		return head("block").node(n.Call).kid(args(n.Args)).node(n.Body)
	case *ast.Begin:
		return head("begin").nodes(n.Body)
	}
	// Leaf nodes with no payload: nil, true, self, cbase, lambda, dummy
	// and the pseudo-variables.
	return head(n.Kind())
}

func assignment(kind string, scope ast.Node, scoped bool, name string, value ast.Node) *sexp {
	s := head(kind)
	if scoped {
		s.node(scope)
	}
	s.atom(symbol(name))
	if value != nil {
		s.node(value)
	}
	return s
}

func args(a *ast.Args) *sexp {
	s := head("args")
	if a != nil {
		s.nodes(a.Args)
	}
	return s
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func formatImaginary(n ast.Node) string {
	var coef string
	switch n := n.(type) {
	case *ast.Int:
		coef = strconv.FormatInt(n.Value, 10) + "i"
	case *ast.Float:
		coef = formatFloat(n.Value) + "i"
	case *ast.Rational:
		r := n.Value.Rat()
		if r.Sign() < 0 {
			return "0-(" + r.Neg(r).String() + ")*i"
		}
		return "0+(" + r.String() + ")*i"
	default:
		return "0+?i"
	}
	if strings.HasPrefix(coef, "-") {
		return "0" + coef
	}
	return "0+" + coef
}

// symbol renders name as a symbol literal, quoting it unless it is a
// plain identifier, variable or operator name.
func symbol(name string) string {
	if plainSymbol(name) {
		return ":" + name
	}
	return ":" + strconv.Quote(name)
}

var operatorSymbols = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true, "**": true,
	"==": true, "!=": true, "===": true, "=~": true, "!~": true, "<=>": true,
	"<": true, "<=": true, ">": true, ">=": true, "<<": true, ">>": true,
	"&": true, "|": true, "^": true, "~": true, "!": true,
	"+@": true, "-@": true, "[]": true, "[]=": true, "`": true,
}

func plainSymbol(name string) bool {
	if operatorSymbols[name] {
		return true
	}
	body := strings.TrimLeft(name, "$@")
	if len(name)-len(body) > 2 {
		return false
	}
	if strings.HasPrefix(name, "$") && len(body) == 1 {
		return true // $&, $~, $1 and friends
	}
	body = strings.TrimRight(body, "?!=")
	if len(name)-len(body) > 3 || body == "" {
		return false
	}
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80 {
			continue
		}
		if c >= '0' && c <= '9' && i > 0 {
			continue
		}
		return false
	}
	return true
}

// FormatTokens renders one token per line as TYPE "value" line:col.
func FormatTokens(tokens []lexer.Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		fmt.Fprintf(&b, "%-16s %-12q %d:%d\n", tok.Type, tok.Value, tok.Span.StartLine, tok.Span.StartCol)
	}
	return b.String()
}
