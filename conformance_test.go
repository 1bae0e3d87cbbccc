package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/thomasrohde/rubyfront/internal/testutil"
	"github.com/thomasrohde/rubyfront/pkg/config"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/formatter"
	"github.com/thomasrohde/rubyfront/pkg/runtime"
)

// outcome is what the CLI would print and return for a scenario.
type outcome struct {
	exitCode int
	stdout   string
	stderr   string
	diags    []diagnostics.Diagnostic
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("failed to list scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		dir := dir
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}

			source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			pretty, inline := false, false
			for _, arg := range scenario.Cmd {
				switch arg {
				case "--pretty":
					pretty = true
				case "--inline":
					inline = true
				}
			}

			rt := runtime.New(runtime.WithConfig(scenarioConfig(scenario)))

			var got outcome
			switch scenario.Cmd[0] {
			case "tokens":
				got = runTokens(rt, source, filename, pretty)
			case "parse":
				got = runParse(rt, source, filename, pretty, inline)
			case "check":
				got = runCheck(rt, source, filename, pretty)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}

			checkOutcome(t, got, scenario)
		})
	}
}

func scenarioConfig(s *testutil.Scenario) *config.Config {
	cfg := config.Default()
	if s.Config == nil {
		return cfg
	}
	if s.Config.EmitFileLineAsLiterals != nil {
		cfg.EmitFileLineAsLiterals = *s.Config.EmitFileLineAsLiterals
	}
	if s.Config.EmitEncodingAsConst != nil {
		cfg.EmitEncodingAsConst = *s.Config.EmitEncodingAsConst
	}
	cfg.MaxSteps = s.Config.MaxSteps
	return cfg
}

func runTokens(rt *runtime.Runtime, source, filename string, pretty bool) outcome {
	tokens, err := rt.Tokens(source, filename)
	if err != nil {
		return failed(err, pretty)
	}
	return outcome{stdout: formatter.FormatTokens(tokens)}
}

func runParse(rt *runtime.Runtime, source, filename string, pretty, inline bool) outcome {
	tree, err := rt.Parse(source, filename)
	if err != nil {
		return failed(err, pretty)
	}
	if inline {
		return outcome{stdout: formatter.Inline(tree)}
	}
	return outcome{stdout: formatter.Format(tree)}
}

func runCheck(rt *runtime.Runtime, source, filename string, pretty bool) outcome {
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		return failed(&runtime.DiagnosticError{Diagnostics: diags}, pretty)
	}
	if pretty {
		return outcome{stdout: "No errors found."}
	}
	return outcome{stdout: "[]"}
}

func failed(err error, pretty bool) outcome {
	derr, ok := err.(*runtime.DiagnosticError)
	if !ok {
		return outcome{exitCode: 1, stderr: err.Error()}
	}
	code := 2
	if derr.Fatal() {
		code = 3
	}
	return outcome{
		exitCode: code,
		stderr:   diagnostics.FormatDiagnostics(derr.Diagnostics, pretty),
		diags:    derr.Diagnostics,
	}
}

func checkOutcome(t *testing.T, got outcome, scenario *testutil.Scenario) {
	t.Helper()
	want := scenario.Expect

	if got.exitCode != want.ExitCode {
		t.Errorf("exit code: got %d, want %d (stderr: %s)", got.exitCode, want.ExitCode, got.stderr)
	}
	if want.StdoutText != "" && strings.TrimSuffix(got.stdout, "\n") != want.StdoutText {
		t.Errorf("stdout:\n  got:  %s\n  want: %s", got.stdout, want.StdoutText)
	}
	if want.StdoutContains != "" && !strings.Contains(got.stdout, want.StdoutContains) {
		t.Errorf("stdout should contain '%s', got: %s", want.StdoutContains, got.stdout)
	}
	if want.StderrContains != "" && !strings.Contains(got.stderr, want.StderrContains) {
		t.Errorf("stderr should contain '%s', got: %s", want.StderrContains, got.stderr)
	}

	if want.StderrJSONSubset != nil {
		var expectedSubset []map[string]any
		if err := json.Unmarshal(want.StderrJSONSubset, &expectedSubset); err != nil {
			t.Fatalf("failed to parse expected stderr JSON subset: %v", err)
		}

		diagsJSON, _ := json.Marshal(got.diags)
		var actualDiags []map[string]any
		if err := json.Unmarshal(diagsJSON, &actualDiags); err != nil {
			t.Fatalf("failed to parse actual diagnostics: %v", err)
		}

		for _, expected := range expectedSubset {
			found := false
			for _, actual := range actualDiags {
				if isSubset(expected, actual) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("stderr JSON subset not found: %v (got %s)", expected, got.stderr)
			}
		}
	}
}

// isSubset checks if expected is a subset of actual (for JSON comparison).
func isSubset(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok {
			return false
		}
		for k, ev := range e {
			av, exists := a[k]
			if !exists {
				return false
			}
			if !isSubset(ev, av) {
				return false
			}
		}
		return true

	case []any:
		a, ok := actual.([]any)
		if !ok {
			return false
		}
		if len(e) > len(a) {
			return false
		}
		for i, ev := range e {
			if !isSubset(ev, a[i]) {
				return false
			}
		}
		return true

	case float64:
		af, ok := actual.(float64)
		return ok && e == af

	case string:
		as, ok := actual.(string)
		return ok && e == as

	case bool:
		ab, ok := actual.(bool)
		return ok && e == ab

	case nil:
		return actual == nil
	}
	return false
}
