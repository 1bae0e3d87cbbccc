package runtime

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/thomasrohde/rubyfront/pkg/config"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

func TestTokens(t *testing.T) {
	rt := New()
	tokens, err := rt.Tokens("foo 1", "t.rb")
	if err != nil {
		t.Fatal(err)
	}
	want := []lexer.TokenType{lexer.TokIdentifier, lexer.TokInteger, lexer.TokEOF}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Type != w {
			t.Errorf("token %d: got %s, want %s", i, tokens[i].Type, w)
		}
	}
}

func TestTokensFatal(t *testing.T) {
	_, err := New().Tokens(`"abc`, "t.rb")
	var derr *DiagnosticError
	if !errors.As(err, &derr) {
		t.Fatalf("expected *DiagnosticError, got %v", err)
	}
	if !derr.Fatal() {
		t.Error("expected a fatal diagnostic")
	}
	if derr.Diagnostics[0].Code != diagnostics.EUnterminated {
		t.Errorf("unexpected code %s", derr.Diagnostics[0].Code)
	}
}

func TestParseAndFormat(t *testing.T) {
	rt := New()
	out, err := rt.Format("x = 1\nx + 2", "t.rb")
	if err != nil {
		t.Fatal(err)
	}
	want := "(begin\n  (lvasgn :x (int 1))\n  (send (lvar :x) :+ (int 2)))"
	if out != want {
		t.Errorf("Format =\n%s\nwant\n%s", out, want)
	}
}

func TestParseErrorKeepsTree(t *testing.T) {
	tree, err := New().Parse("self = 1", "t.rb")
	if err == nil {
		t.Fatal("expected an error")
	}
	if tree == nil || tree.Kind() != "dummy" {
		t.Errorf("expected a dummy tree, got %v", tree)
	}
	var derr *DiagnosticError
	if !errors.As(err, &derr) || derr.Fatal() {
		t.Errorf("expected a non-fatal diagnostic error, got %v", err)
	}
	if !strings.Contains(err.Error(), diagnostics.EInvalidAssign) {
		t.Errorf("error text %q lacks the code", err.Error())
	}
}

func TestCheck(t *testing.T) {
	rt := New()
	if diags := rt.Check("def f(a, b); a; end", "t.rb"); len(diags) != 0 {
		t.Errorf("unexpected diagnostics %v", diags)
	}
	diags := rt.Check("def f(a, a); end", "t.rb")
	if len(diags) != 1 || diags[0].Code != diagnostics.EDupArg {
		t.Errorf("expected E_DUP_ARG, got %v", diags)
	}
}

func TestWithConfigBuilderOptions(t *testing.T) {
	cfg := config.Default()
	cfg.EmitFileLineAsLiterals = false
	out, err := New(WithConfig(cfg)).Format("__FILE__", "t.rb")
	if err != nil {
		t.Fatal(err)
	}
	if out != "(__FILE__)" {
		t.Errorf("got %s", out)
	}
}

func TestWithConfigStepBudget(t *testing.T) {
	cfg := config.Default()
	cfg.MaxSteps = 3
	_, err := New(WithConfig(cfg)).Parse("a = 1; b = 2; c = 3", "t.rb")
	var derr *DiagnosticError
	if !errors.As(err, &derr) || !derr.Fatal() {
		t.Fatalf("expected a fatal budget error, got %v", err)
	}
	if derr.Diagnostics[0].Code != diagnostics.EStepBudget {
		t.Errorf("unexpected code %s", derr.Diagnostics[0].Code)
	}
}

func TestWithReporterSeesDiagnostics(t *testing.T) {
	c := &diagnostics.Collector{}
	rt := New(WithReporter(c))
	rt.Check("$1 = 1", "t.rb")
	if len(c.Diagnostics()) != 1 || c.Diagnostics()[0].Code != diagnostics.EBackrefAssign {
		t.Errorf("reporter saw %v", c.Diagnostics())
	}
}

func TestWithLoggerTracesLexer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	if _, err := New(WithLogger(logger)).Tokens("x", "t.rb"); err != nil {
		t.Fatal(err)
	}
	if buf.Len() == 0 {
		t.Error("expected debug output from the lexer")
	}
}
