package formatter

import (
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

func TestInline(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"null", &ast.Null{}, "nil"},
		{"nil literal", &ast.Nil{}, "(nil)"},
		{"int", &ast.Int{Value: -3}, "(int -3)"},
		{"float whole", &ast.Float{Value: 2}, "(float 2.0)"},
		{"float", &ast.Float{Value: 1.25}, "(float 1.25)"},
		{"float inf", &ast.Float{Value: math.Inf(1)}, "(float Infinity)"},
		{"rational", &ast.Rational{Value: decimal.RequireFromString("1.5")}, "(rational (3/2))"},
		{"complex int", &ast.Complex{Imag: &ast.Int{Value: 2}}, "(complex (0+2i))"},
		{"complex negative", &ast.Complex{Imag: &ast.Int{Value: -2}}, "(complex (0-2i))"},
		{"complex rational", &ast.Complex{Imag: &ast.Rational{Value: decimal.NewFromInt(3)}}, "(complex (0+(3/1)*i))"},
		{"string", &ast.Str{Value: "a\"b\n"}, `(str "a\"b\n")`},
		{"symbol", &ast.Sym{Name: "foo?"}, "(sym :foo?)"},
		{"operator symbol", &ast.Sym{Name: "[]="}, "(sym :[]=)"},
		{"quoted symbol", &ast.Sym{Name: "a b"}, `(sym :"a b")`},
		{"ivar symbol", &ast.IVar{Name: "@a"}, "(ivar :@a)"},
		{"const", &ast.Const{Scope: &ast.CBase{}, Name: "Foo"}, "(const (cbase) :Foo)"},
		{"lvasgn bare", &ast.LVasgn{Name: "x"}, "(lvasgn :x)"},
		{"casgn", &ast.Casgn{Name: "A", Value: &ast.Int{Value: 1}}, "(casgn nil :A (int 1))"},
		{"op_asgn", &ast.OpAsgn{Target: &ast.LVasgn{Name: "x"}, Operator: "+", Value: &ast.Int{Value: 1}},
			"(op_asgn (lvasgn :x) :+ (int 1))"},
		{"send", &ast.Send{Method: "puts", Args: []ast.Node{&ast.Str{Value: "hi"}}}, `(send nil :puts (str "hi"))`},
		{"regexp no options", &ast.Regexp{Parts: []ast.Node{&ast.Str{Value: "a"}}}, `(regexp (str "a") (regopt))`},
		{"regexp options", &ast.Regexp{Parts: nil, Options: &ast.RegOpt{Options: "im"}}, "(regexp (regopt :i :m))"},
		{"restarg anonymous", &ast.RestArg{}, "(restarg)"},
		{"def", &ast.Def{Name: "f", Args: &ast.Args{}, Body: &ast.Null{}}, "(def :f (args) nil)"},
		{"defs", &ast.Defs{Singleton: &ast.Self{}, Name: "f", Args: &ast.Args{Args: []ast.Node{&ast.Arg{Name: "a"}}}},
			"(defs (self) :f (args (arg :a)) nil)"},
		{"block", &ast.Block{Call: &ast.Lambda{}, Args: &ast.Args{}, Body: &ast.LVar{Name: "x"}},
			"(block (lambda) (args) (lvar :x))"},
		{"leaf", &ast.Dummy{}, "(dummy)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Inline(tt.node); got != tt.want {
				t.Errorf("Inline() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatNestsCompoundChildren(t *testing.T) {
	n := &ast.Begin{Body: []ast.Node{
		&ast.LVasgn{Name: "x", Value: &ast.Int{Value: 1}},
		&ast.Send{Receiver: &ast.LVar{Name: "x"}, Method: "+", Args: []ast.Node{&ast.Int{Value: 2}}},
	}}
	want := strings.Join([]string{
		"(begin",
		"  (lvasgn :x (int 1))",
		"  (send (lvar :x) :+ (int 2)))",
	}, "\n")
	if got := Format(n); got != want {
		t.Errorf("Format() =\n%s\nwant\n%s", got, want)
	}
}

func TestFormatSimpleNodeStaysInline(t *testing.T) {
	n := &ast.Array{Elements: []ast.Node{&ast.Int{Value: 1}, &ast.Int{Value: 2}}}
	if got := Format(n); got != "(array (int 1) (int 2))" {
		t.Errorf("Format() = %s", got)
	}
}

func TestFormatTokens(t *testing.T) {
	toks := []lexer.Token{
		{Type: lexer.TokIdentifier, Value: "foo", Span: ast.Span{StartLine: 1, StartCol: 1}},
		{Type: lexer.TokEOF, Span: ast.Span{StartLine: 1, StartCol: 4}},
	}
	got := FormatTokens(toks)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", got)
	}
	if !strings.HasPrefix(lines[0], "tIDENTIFIER") || !strings.Contains(lines[0], `"foo"`) || !strings.HasSuffix(lines[0], "1:1") {
		t.Errorf("unexpected first line %q", lines[0])
	}
	if !strings.HasSuffix(lines[1], "1:4") {
		t.Errorf("unexpected second line %q", lines[1])
	}
}
