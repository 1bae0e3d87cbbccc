// Package config loads frontend settings from project and user config files.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

// Config holds the settings shared by the lexer, builder and CLI.
type Config struct {
	EmitFileLineAsLiterals bool `json:"emitFileLineAsLiterals"`
	EmitEncodingAsConst    bool `json:"emitEncodingAsConst"`
	MaxSteps               int  `json:"maxSteps"`
	MaxStall               int  `json:"maxStall"`
	Debug                  bool `json:"debug"`
}

// Source names where a Config came from.
type Source string

const (
	SourceProject Source = "project"
	SourceUser    Source = "user"
	SourceDefault Source = "default"
)

// ProjectFile and UserFile are the file names Load looks for.
const (
	ProjectFile = ".rubyfront.json"
	UserDir     = ".rubyfront"
	UserFile    = "config.json"
)

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		EmitFileLineAsLiterals: true,
		EmitEncodingAsConst:    true,
		MaxStall:               lexer.DefaultMaxStall,
	}
}

// Load loads the config from project and user config files.
// Precedence: project (.rubyfront.json) → user (~/.rubyfront/config.json) → defaults.
// A file that exists but cannot be decoded is an error; a missing file falls
// through to the next source.
func Load(projectDir string) (*Config, Source, error) {
	// Try project config
	projectPath := filepath.Join(projectDir, ProjectFile)
	cfg, err := FromFile(projectPath)
	if err == nil {
		return cfg, SourceProject, nil
	}
	if !notFound(err) {
		return nil, "", err
	}

	// Try user config
	homeDir, herr := os.UserHomeDir()
	if herr == nil {
		userPath := filepath.Join(homeDir, UserDir, UserFile)
		cfg, err := FromFile(userPath)
		if err == nil {
			return cfg, SourceUser, nil
		}
		if !notFound(err) {
			return nil, "", err
		}
	}

	return Default(), SourceDefault, nil
}

// FromFile loads one config file. Fields missing from the file keep their
// default values. Failures are returned as *Error values carrying an E_CONFIG
// diagnostic, or the underlying error when the file does not exist.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, newError(path, fmt.Sprintf("cannot read config: %v", err))
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, newError(path, fmt.Sprintf("invalid config: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, newError(path, err.Error())
	}
	return cfg, nil
}

// Validate rejects negative budgets.
func (c *Config) Validate() error {
	if c.MaxSteps < 0 {
		return fmt.Errorf("maxSteps must not be negative, got %d", c.MaxSteps)
	}
	if c.MaxStall < 0 {
		return fmt.Errorf("maxStall must not be negative, got %d", c.MaxStall)
	}
	return nil
}

// Error wraps an E_CONFIG diagnostic.
type Error struct {
	Diag diagnostics.Diagnostic
}

func (e *Error) Error() string {
	return e.Diag.Message
}

func newError(path, msg string) *Error {
	span := &ast.Span{File: path}
	return &Error{Diag: diagnostics.MakeDiag(diagnostics.EConfig, msg, span, "")}
}

func notFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
