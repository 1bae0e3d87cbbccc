package validator_test

import (
	"strings"
	"testing"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/parser"
	"github.com/thomasrohde/rubyfront/pkg/validator"
)

// helper parses source and validates, returning diagnostics from validation only.
// It fatals on parse errors so test cases focus on validator behavior.
func mustParseAndValidate(t *testing.T, source string) []diagnostics.Diagnostic {
	t.Helper()
	tree, parseErrs := parser.Parse(source, "test.rb")
	if len(parseErrs) > 0 {
		t.Fatalf("unexpected parse error: %s", parseErrs[0].Message)
	}
	return validator.Validate(tree)
}

// assertNoDiags asserts zero diagnostics were produced.
func assertNoDiags(t *testing.T, diags []diagnostics.Diagnostic) {
	t.Helper()
	if len(diags) != 0 {
		var msgs []string
		for _, d := range diags {
			msgs = append(msgs, d.Code+": "+d.Message)
		}
		t.Errorf("expected no diagnostics, got %d:\n  %s", len(diags), strings.Join(msgs, "\n  "))
	}
}

// assertHasCode asserts that at least one diagnostic with the given code exists.
func assertHasCode(t *testing.T, diags []diagnostics.Diagnostic, code string) {
	t.Helper()
	for _, d := range diags {
		if d.Code == code {
			return
		}
	}
	var codes []string
	for _, d := range diags {
		codes = append(codes, d.Code)
	}
	t.Errorf("expected diagnostic code %s, got codes: %v", code, codes)
}

// ---- Parser output is canonical ----

func TestValid_ParsedPrograms(t *testing.T) {
	sources := []string{
		"x = 1; x + 2",
		"x = x",
		"x ||= 1; x",
		"@a += 1",
		"a.b = 1; a[1] = 2; a.b += 3",
		"def foo(a, b = a, *c, d:, e: 1, &f)\n  [a, b, c, d, e, f]\nend",
		"def self.foo; end",
		"y = 1\nfoo { |x| x + y }",
		"->(x) { x }",
		"foo a do |x, _, _| x end",
		`"a#{b = 1}c"; b`,
		"x = <<~EOS\n  a\n    b\nEOS\n",
		"A = 1; ::B = 2; Foo::C = 3",
		"{a: 1, :b => [1, 2], 'c' => 1..2}",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			assertNoDiags(t, mustParseAndValidate(t, src))
		})
	}
}

// ---- Duplicate arguments ----

func TestInvalid_DuplicateArgument(t *testing.T) {
	sources := []string{
		"def f(a, a); end",
		"def f(a, *a); end",
		"def f(a, a: 1); end",
		"foo { |x, x| }",
		"->(a, &a) {}",
	}
	for _, src := range sources {
		t.Run(src, func(t *testing.T) {
			diags := mustParseAndValidate(t, src)
			assertHasCode(t, diags, diagnostics.EDupArg)
		})
	}
}

func TestValid_UnderscoreArgumentsMayRepeat(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "def f(_, _); end"))
}

func TestValid_BlockArgumentShadowsOuterLocal(t *testing.T) {
	assertNoDiags(t, mustParseAndValidate(t, "x = 1; foo { |x| x }"))
}

// ---- Hand-built trees ----

func TestInvalid_LeftoverIdentifier(t *testing.T) {
	tree := &ast.Send{Method: "puts", Args: []ast.Node{&ast.Ident{Name: "x"}}}
	diags := validator.Validate(tree)
	assertHasCode(t, diags, diagnostics.EAst)
	if !strings.Contains(diags[0].Message, "'x'") {
		t.Errorf("expected the name in the message, got %q", diags[0].Message)
	}
}

func TestInvalid_DummyNode(t *testing.T) {
	tree := &ast.Begin{Body: []ast.Node{&ast.Int{Value: 1}, &ast.Dummy{}}}
	assertHasCode(t, validator.Validate(tree), diagnostics.EAst)
}

func TestInvalid_WriteWithoutValue(t *testing.T) {
	trees := []ast.Node{
		&ast.LVasgn{Name: "x"},
		&ast.IVasgn{Name: "@x"},
		&ast.GVasgn{Name: "$x"},
		&ast.CVasgn{Name: "@@x"},
		&ast.Casgn{Name: "X"},
	}
	for _, tree := range trees {
		t.Run(tree.Kind(), func(t *testing.T) {
			assertHasCode(t, validator.Validate(tree), diagnostics.EAst)
		})
	}
}

func TestValid_OpAssignTargetWithoutValue(t *testing.T) {
	tree := &ast.OrAsgn{Target: &ast.IVasgn{Name: "@x"}, Value: &ast.Int{Value: 1}}
	assertNoDiags(t, validator.Validate(tree))
}

func TestInvalid_OpAssignTargetWithValue(t *testing.T) {
	tree := &ast.OpAsgn{
		Target:   &ast.LVasgn{Name: "x", Value: &ast.Int{Value: 1}},
		Operator: "+",
		Value:    &ast.Int{Value: 2},
	}
	assertHasCode(t, validator.Validate(tree), diagnostics.EAst)
}

func TestInvalid_LocalReadBeforeAssignment(t *testing.T) {
	tree := &ast.Begin{Body: []ast.Node{
		&ast.LVar{Name: "x"},
		&ast.LVasgn{Name: "x", Value: &ast.Int{Value: 1}},
	}}
	assertHasCode(t, validator.Validate(tree), diagnostics.EAst)
}

func TestInvalid_MethodBodyDoesNotSeeOuterLocals(t *testing.T) {
	tree := &ast.Begin{Body: []ast.Node{
		&ast.LVasgn{Name: "x", Value: &ast.Int{Value: 1}},
		&ast.Def{Name: "f", Args: &ast.Args{}, Body: &ast.LVar{Name: "x"}},
	}}
	assertHasCode(t, validator.Validate(tree), diagnostics.EAst)
}

func TestValid_NilTree(t *testing.T) {
	assertNoDiags(t, validator.Validate(nil))
	assertNoDiags(t, validator.Validate(&ast.Null{}))
}

func TestDiagnosticsCarrySpans(t *testing.T) {
	span := ast.Span{File: "x.rb", StartLine: 3, StartCol: 2, EndLine: 3, EndCol: 4}
	diags := validator.Validate(&ast.Dummy{Span: span})
	if len(diags) != 1 || diags[0].Span == nil || *diags[0].Span != span {
		t.Fatalf("unexpected diagnostics %+v", diags)
	}
	if diags[0].Severity != diagnostics.Error {
		t.Errorf("expected error severity, got %s", diags[0].Severity)
	}
}
