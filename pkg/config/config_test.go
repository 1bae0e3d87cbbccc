package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.EmitFileLineAsLiterals || !cfg.EmitEncodingAsConst {
		t.Error("expected literal emission on by default")
	}
	if cfg.MaxSteps != 0 || cfg.MaxStall != 64 || cfg.Debug {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoadProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	writeFile(t, filepath.Join(dir, ProjectFile), `{"maxSteps": 1000, "debug": true}`)

	cfg, src, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if src != SourceProject {
		t.Errorf("source = %s, want project", src)
	}
	if cfg.MaxSteps != 1000 || !cfg.Debug {
		t.Errorf("unexpected config %+v", cfg)
	}
	// fields absent from the file keep their defaults
	if !cfg.EmitFileLineAsLiterals || cfg.MaxStall != 64 {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestLoadUserFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, filepath.Join(home, UserDir, UserFile), `{"emitEncodingAsConst": false}`)

	cfg, src, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if src != SourceUser {
		t.Errorf("source = %s, want user", src)
	}
	if cfg.EmitEncodingAsConst {
		t.Error("expected emitEncodingAsConst to be overridden")
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, src, err := Load(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if src != SourceDefault {
		t.Errorf("source = %s, want default", src)
	}
	if *cfg != *Default() {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestFromFileErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"maxSteps": `},
		{"wrong type", `{"maxSteps": "many"}`},
		{"negative budget", `{"maxStall": -1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			writeFile(t, path, tt.content)
			_, err := FromFile(path)
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if cerr.Diag.Code != diagnostics.EConfig {
				t.Errorf("code = %s, want %s", cerr.Diag.Code, diagnostics.EConfig)
			}
			if cerr.Diag.Span == nil || cerr.Diag.Span.File != path {
				t.Errorf("expected the path in the span, got %+v", cerr.Diag.Span)
			}
		})
	}
}

func TestLoadReportsBrokenProjectFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	writeFile(t, filepath.Join(dir, ProjectFile), `not json`)
	if _, _, err := Load(dir); err == nil {
		t.Fatal("expected an error for a broken project config")
	}
}
