package builder

import (
	"math"
	"testing"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
	"github.com/thomasrohde/rubyfront/pkg/scope"
)

func span(line, col, endCol int) ast.Span {
	return ast.Span{File: "test.rb", StartLine: line, StartCol: col, EndLine: line, EndCol: endCol}
}

func tok(t lexer.TokenType, value string, col int) lexer.Token {
	return lexer.Token{Type: t, Value: value, Span: span(1, col, col+len(value))}
}

func newBuilder(t *testing.T) (*Builder, *scope.StaticEnv, *diagnostics.Collector) {
	t.Helper()
	env := scope.New()
	diags := &diagnostics.Collector{}
	return New(env, diags), env, diags
}

func assertKind(t *testing.T, n ast.Node, want string) {
	t.Helper()
	if n == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if n.Kind() != want {
		t.Fatalf("expected %s, got %s", want, n.Kind())
	}
}

func assertCode(t *testing.T, diags *diagnostics.Collector, code string) {
	t.Helper()
	got := diags.Diagnostics()
	if len(got) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d: %+v", len(got), got)
	}
	if got[0].Code != code {
		t.Errorf("expected %s, got %s", code, got[0].Code)
	}
	if got[0].Span == nil {
		t.Error("diagnostic has no span")
	}
}

// ---------------------------------------------------------------------------
// Numbers
// ---------------------------------------------------------------------------

func TestUnaryNum(t *testing.T) {
	b, _, _ := newBuilder(t)
	n := lexer.Token{Type: lexer.TokInteger, Value: "42", Int: 42, Span: span(1, 2, 4)}

	tests := []struct {
		sign string
		want int64
	}{
		{"-", -42},
		{"+", 42},
	}
	for _, tt := range tests {
		t.Run(tt.sign, func(t *testing.T) {
			sign := tok(lexer.TokUnaryNum, tt.sign, 1)
			got := b.UnaryNum(sign, b.Integer(n))
			i, ok := got.(*ast.Int)
			if !ok {
				t.Fatalf("expected *ast.Int, got %T", got)
			}
			if i.Value != tt.want {
				t.Errorf("expected %d, got %d", tt.want, i.Value)
			}
			if i.Span.StartCol != 1 || i.Span.EndCol != 4 {
				t.Errorf("sign not folded into span: %+v", i.Span)
			}
		})
	}
}

func TestUnaryNumMinInt64(t *testing.T) {
	b, _, diags := newBuilder(t)
	// The lexer stores the negated magnitude, which for the lower bound is
	// math.MinInt64 itself.
	n := lexer.Token{Type: lexer.TokInteger, Value: "9223372036854775808", Int: math.MinInt64, Span: span(1, 2, 21)}
	got := b.UnaryNum(tok(lexer.TokUnaryNum, "-", 1), b.Integer(n)).(*ast.Int)
	if got.Value != math.MinInt64 {
		t.Errorf("expected %d, got %d", int64(math.MinInt64), got.Value)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics %v", diags.Diagnostics())
	}
}

func TestUnaryNumFloatAndRational(t *testing.T) {
	b, _, _ := newBuilder(t)
	minus := tok(lexer.TokUnaryNum, "-", 1)

	f := b.UnaryNum(minus, b.Float(tok(lexer.TokFloat, "1.5", 2))).(*ast.Float)
	if f.Value != -1.5 {
		t.Errorf("expected -1.5, got %v", f.Value)
	}

	r := b.UnaryNum(minus, b.Rational(tok(lexer.TokRational, "1.5", 2))).(*ast.Rational)
	if r.Value.String() != "-1.5" {
		t.Errorf("expected -1.5, got %s", r.Value)
	}

	c := b.UnaryNum(minus, b.Complex(tok(lexer.TokImaginary, "2", 2))).(*ast.Complex)
	if c.Imag.(*ast.Int).Value != -2 {
		t.Errorf("complex coefficient not negated: %+v", c.Imag)
	}
}

func TestRationalIsExact(t *testing.T) {
	b, _, diags := newBuilder(t)
	r := b.Rational(tok(lexer.TokRational, "0.1", 1)).(*ast.Rational)
	sum := r.Value.Add(r.Value).Add(r.Value)
	if sum.String() != "0.3" {
		t.Errorf("expected exact 0.3, got %s", sum)
	}
	if len(diags.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics %+v", diags.Diagnostics())
	}
}

func TestComplexCoefficients(t *testing.T) {
	b, _, _ := newBuilder(t)
	tests := []struct {
		value string
		kind  string
	}{
		{"3", "int"},
		{"1.5", "float"},
		{"3r", "rational"},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c := b.Complex(tok(lexer.TokImaginary, tt.value, 1)).(*ast.Complex)
			assertKind(t, c.Imag, tt.kind)
		})
	}
}

// ---------------------------------------------------------------------------
// Sequencing and strings
// ---------------------------------------------------------------------------

func TestCompstmt(t *testing.T) {
	b, _, _ := newBuilder(t)
	one := b.Nil(tok(lexer.TokKwNil, "nil", 1))
	two := b.Self(tok(lexer.TokKwSelf, "self", 6))

	assertKind(t, b.Compstmt(nil), "null")
	if got := b.Compstmt([]ast.Node{one}); got != one {
		t.Errorf("single statement should be returned as-is, got %v", got)
	}
	seq := b.Compstmt([]ast.Node{one, two})
	assertKind(t, seq, "begin")
	if len(seq.(*ast.Begin).Body) != 2 {
		t.Errorf("expected 2 statements, got %d", len(seq.(*ast.Begin).Body))
	}
}

func TestStringCompose(t *testing.T) {
	b, _, _ := newBuilder(t)
	beg := tok(lexer.TokStringBeg, `"`, 1)
	end := tok(lexer.TokStringEnd, `"`, 5)
	part := b.StringInternal(tok(lexer.TokStringContent, "abc", 2))

	got := b.StringCompose(&beg, []ast.Node{part}, &end)
	s, ok := got.(*ast.Str)
	if !ok {
		t.Fatalf("expected str, got %s", got.Kind())
	}
	if s.Value != "abc" || s.Span.StartCol != 1 || s.Span.EndCol != 6 {
		t.Errorf("unexpected str %+v", s)
	}

	interp := b.BeginBody(tok(lexer.TokStringDBeg, "#{", 5), b.Ident(tok(lexer.TokIdentifier, "x", 7)), tok(lexer.TokStringDEnd, "}", 8))
	got = b.StringCompose(&beg, []ast.Node{part, interp}, &end)
	d, ok := got.(*ast.DStr)
	if !ok {
		t.Fatalf("expected dstr, got %s", got.Kind())
	}
	if len(d.Parts) != 2 {
		t.Errorf("expected 2 parts, got %d", len(d.Parts))
	}

	assertKind(t, b.StringCompose(&beg, nil, &end), "dstr")
}

func TestSymbolCompose(t *testing.T) {
	b, _, _ := newBuilder(t)
	beg := tok(lexer.TokSymBeg, `:"`, 1)
	end := tok(lexer.TokStringEnd, `"`, 6)
	part := b.StringInternal(tok(lexer.TokStringContent, "abc", 3))

	sym := b.SymbolCompose(&beg, []ast.Node{part}, &end)
	assertKind(t, sym, "sym")
	if sym.(*ast.Sym).Name != "abc" {
		t.Errorf("unexpected name %q", sym.(*ast.Sym).Name)
	}

	ivar := b.IVar(tok(lexer.TokIVar, "@a", 6))
	assertKind(t, b.SymbolCompose(&beg, []ast.Node{part, ivar}, &end), "dsym")
}

func TestRegexpOptions(t *testing.T) {
	b, _, _ := newBuilder(t)
	opts := b.RegexpOptions(tok(lexer.TokRegexpOpt, "xmix", 5))
	if opts.Options != "imx" {
		t.Errorf("expected sorted unique flags imx, got %q", opts.Options)
	}
	re := b.RegexpCompose(tok(lexer.TokRegexpBeg, "/", 1), nil, tok(lexer.TokStringEnd, "/", 3), opts)
	assertKind(t, re, "regexp")
}

func TestSymbolsCompose(t *testing.T) {
	b, _, _ := newBuilder(t)
	words := []ast.Node{
		b.Word([]ast.Node{b.StringInternal(tok(lexer.TokStringContent, "a", 4))}),
		b.Word([]ast.Node{b.StringInternal(tok(lexer.TokStringContent, "b", 6))}),
	}
	arr := b.SymbolsCompose(tok(lexer.TokQSymbolsBeg, "%i(", 1), words, tok(lexer.TokStringEnd, ")", 7)).(*ast.Array)
	if len(arr.Elements) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(arr.Elements))
	}
	for _, e := range arr.Elements {
		assertKind(t, e, "sym")
	}
}

// ---------------------------------------------------------------------------
// Variables
// ---------------------------------------------------------------------------

func TestAccessibleIdentifier(t *testing.T) {
	b, env, _ := newBuilder(t)
	x := b.Ident(tok(lexer.TokIdentifier, "x", 1))

	assertKind(t, b.Accessible(x), "send")
	env.Declare("x")
	assertKind(t, b.Accessible(x), "lvar")
}

func TestAssignableDeclares(t *testing.T) {
	b, env, diags := newBuilder(t)
	x := b.Ident(tok(lexer.TokIdentifier, "x", 1))

	lhs := b.Assignable(x)
	assertKind(t, lhs, "lvasgn")
	if !env.Declared("x") {
		t.Error("assignment target was not declared")
	}
	asgn := b.Assign(lhs, tok(lexer.TokEql, "=", 3), b.Integer(lexer.Token{Type: lexer.TokInteger, Value: "1", Int: 1, Span: span(1, 5, 6)}))
	if asgn.(*ast.LVasgn).Value == nil {
		t.Error("value not attached")
	}
	if len(diags.Diagnostics()) != 0 {
		t.Errorf("unexpected diagnostics %+v", diags.Diagnostics())
	}
}

func TestAssignableWriteForms(t *testing.T) {
	b, _, _ := newBuilder(t)
	tests := []struct {
		node ast.Node
		want string
	}{
		{b.IVar(tok(lexer.TokIVar, "@a", 1)), "ivasgn"},
		{b.GVar(tok(lexer.TokGVar, "$a", 1)), "gvasgn"},
		{b.CVar(tok(lexer.TokCVar, "@@a", 1)), "cvasgn"},
		{b.Const(tok(lexer.TokConstant, "A", 1)), "casgn"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assertKind(t, b.Assignable(tt.node), tt.want)
		})
	}
}

func TestInvalidAssignment(t *testing.T) {
	tests := []struct {
		name string
		node func(b *Builder) ast.Node
		code string
	}{
		{"self", func(b *Builder) ast.Node { return b.Self(tok(lexer.TokKwSelf, "self", 1)) }, diagnostics.EInvalidAssign},
		{"nil", func(b *Builder) ast.Node { return b.Nil(tok(lexer.TokKwNil, "nil", 1)) }, diagnostics.EInvalidAssign},
		{"true", func(b *Builder) ast.Node { return b.True(tok(lexer.TokKwTrue, "true", 1)) }, diagnostics.EInvalidAssign},
		{"file", func(b *Builder) ast.Node { return b.FileLiteral(tok(lexer.TokKwFile, "__FILE__", 1)) }, diagnostics.EInvalidAssign},
		{"back ref", func(b *Builder) ast.Node { return b.BackRef(tok(lexer.TokBackRef, "$&", 1)) }, diagnostics.EBackrefAssign},
		{"nth ref", func(b *Builder) ast.Node {
			return b.NthRef(lexer.Token{Type: lexer.TokNthRef, Value: "1", Int: 1, Span: span(1, 1, 3)})
		}, diagnostics.EBackrefAssign},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _, diags := newBuilder(t)
			assertKind(t, b.Assignable(tt.node(b)), "dummy")
			assertCode(t, diags, tt.code)
		})
	}
}

func TestDynamicConstant(t *testing.T) {
	b, _, diags := newBuilder(t)
	b.Context.InDef = true
	assertKind(t, b.Assignable(b.Const(tok(lexer.TokConstant, "A", 1))), "dummy")
	assertCode(t, diags, diagnostics.EDynamicConst)
}

func TestPseudoVariables(t *testing.T) {
	b, _, _ := newBuilder(t)

	file := b.Accessible(b.FileLiteral(tok(lexer.TokKwFile, "__FILE__", 1)))
	if s, ok := file.(*ast.Str); !ok || s.Value != "test.rb" {
		t.Errorf("expected str \"test.rb\", got %#v", file)
	}

	line := b.Accessible(b.LineLiteral(lexer.Token{Type: lexer.TokKwLine, Value: "__LINE__", Span: span(3, 1, 9)}))
	if i, ok := line.(*ast.Int); !ok || i.Value != 3 {
		t.Errorf("expected int 3, got %#v", line)
	}

	enc := b.Accessible(b.EncodingLiteral(tok(lexer.TokKwEncoding, "__ENCODING__", 1))).(*ast.Const)
	if enc.Name != "UTF_8" || enc.Scope.(*ast.Const).Name != "Encoding" {
		t.Errorf("unexpected encoding constant %#v", enc)
	}

	raw := New(nil, nil, WithFileLineLiterals(false), WithEncodingConst(false))
	assertKind(t, raw.Accessible(raw.FileLiteral(tok(lexer.TokKwFile, "__FILE__", 1))), "__FILE__")
	assertKind(t, raw.Accessible(raw.EncodingLiteral(tok(lexer.TokKwEncoding, "__ENCODING__", 1))), "__ENCODING__")
}

// ---------------------------------------------------------------------------
// Assignment operators and calls
// ---------------------------------------------------------------------------

func TestOpAssign(t *testing.T) {
	b, _, _ := newBuilder(t)
	one := b.Integer(lexer.Token{Type: lexer.TokInteger, Value: "1", Int: 1, Span: span(1, 7, 8)})
	tests := []struct {
		op   string
		want string
	}{
		{"+", "op_asgn"},
		{"&&", "and_asgn"},
		{"||", "or_asgn"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			lhs := b.Assignable(b.Ident(tok(lexer.TokIdentifier, "x", 1)))
			got := b.OpAssign(lhs, tok(lexer.TokOpAsgn, tt.op, 3), one)
			assertKind(t, got, tt.want)
		})
	}
}

func TestAttributeAssign(t *testing.T) {
	b, _, _ := newBuilder(t)
	recv := b.Accessible(b.Ident(tok(lexer.TokIdentifier, "a", 1)))
	target := b.AttrAsgn(recv, tok(lexer.TokDot, ".", 2), tok(lexer.TokIdentifier, "b", 3))
	got := b.Assign(target, tok(lexer.TokEql, "=", 5), b.Nil(tok(lexer.TokKwNil, "nil", 7))).(*ast.Send)
	if got.Method != "b=" || len(got.Args) != 1 {
		t.Errorf("unexpected attribute write %#v", got)
	}

	safe := b.AttrAsgn(recv, tok(lexer.TokAndDot, "&.", 2), tok(lexer.TokIdentifier, "b", 4))
	assertKind(t, safe, "csend")
}

func TestUnaryOperators(t *testing.T) {
	b, _, _ := newBuilder(t)
	x := b.Accessible(b.Ident(tok(lexer.TokIdentifier, "x", 2)))
	tests := []struct {
		op   string
		want string
	}{
		{"-", "-@"},
		{"+", "+@"},
		{"~", "~"},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			got := b.UnaryOp(tok(lexer.TokUMinus, tt.op, 1), x).(*ast.Send)
			if got.Method != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got.Method)
			}
		})
	}
}

func TestLogical(t *testing.T) {
	b, _, _ := newBuilder(t)
	l := b.True(tok(lexer.TokKwTrue, "true", 1))
	r := b.False(tok(lexer.TokKwFalse, "false", 9))
	assertKind(t, b.Logical(l, tok(lexer.TokAndOp, "&&", 6), r), "and")
	assertKind(t, b.Logical(l, tok(lexer.TokKwOr, "or", 6), r), "or")
}

func TestArgsDeclare(t *testing.T) {
	b, env, _ := newBuilder(t)
	b.Arg(tok(lexer.TokIdentifier, "a", 1))
	b.KwArg(tok(lexer.TokLabel, "k", 4))
	b.RestArg(tok(lexer.TokStar, "*", 8), nil)
	b.BlockArg(tok(lexer.TokAmper, "&", 11), tok(lexer.TokIdentifier, "blk", 12))
	for _, name := range []string{"a", "k", "blk"} {
		if !env.Declared(name) {
			t.Errorf("%s not declared", name)
		}
	}
}

func TestNilReporterDiscards(t *testing.T) {
	b := New(scope.New(), nil)
	assertKind(t, b.Assignable(b.Self(tok(lexer.TokKwSelf, "self", 1))), "dummy")
}

func TestLoop(t *testing.T) {
	b, _, _ := newBuilder(t)
	cond := b.Integer(lexer.Token{Type: lexer.TokInteger, Value: "1", Int: 1, Span: span(1, 7, 8)})
	end := tok(lexer.TokKwEnd, "end", 13)

	w := b.Loop(tok(lexer.TokKwWhile, "while", 1), cond, nil, end)
	assertKind(t, w, "while")
	if sp := w.NodeSpan(); sp.StartCol != 1 || sp.EndCol != 16 {
		t.Errorf("unexpected span %+v", sp)
	}

	u := b.Loop(tok(lexer.TokKwUntil, "until", 1), cond, nil, end).(*ast.Until)
	if u.Cond != cond || u.Body != nil {
		t.Errorf("unexpected until %+v", u)
	}
}
