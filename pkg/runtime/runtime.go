// Package runtime provides the top-level frontend orchestrator.
package runtime

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/builder"
	"github.com/thomasrohde/rubyfront/pkg/config"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/formatter"
	"github.com/thomasrohde/rubyfront/pkg/lexer"
	"github.com/thomasrohde/rubyfront/pkg/parser"
	"github.com/thomasrohde/rubyfront/pkg/validator"
)

// Runtime wires together the lexer, parser, validator and formatter.
type Runtime struct {
	cfg      *config.Config
	logger   *slog.Logger
	reporter diagnostics.Reporter
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithConfig sets the frontend settings.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithLogger sets the logger handed to the lexer.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithReporter sets a sink that receives every diagnostic as it is reported,
// in addition to the ones returned.
func WithReporter(r diagnostics.Reporter) Option {
	return func(rt *Runtime) {
		rt.reporter = r
	}
}

// New creates a new Runtime with the given options.
// By default the built-in config is used and diagnostics are only returned.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		cfg:      config.Default(),
		reporter: diagnostics.Discard{},
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.logger == nil && rt.cfg.Debug {
		rt.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return rt
}

// Config returns the effective settings.
func (rt *Runtime) Config() *config.Config {
	return rt.cfg
}

func (rt *Runtime) lexerOptions() []lexer.Option {
	opts := []lexer.Option{
		lexer.WithMaxSteps(rt.cfg.MaxSteps),
		lexer.WithMaxStall(rt.cfg.MaxStall),
	}
	if rt.logger != nil {
		opts = append(opts, lexer.WithLogger(rt.logger))
	}
	return opts
}

// Definition returns a participle lexer definition configured like Tokens.
// Diagnostics other than the fatal one are not surfaced through it.
func (rt *Runtime) Definition() *lexer.Definition {
	return &lexer.Definition{Options: rt.lexerOptions()}
}

// Tokens lexes source and returns the token stream ending in EOF.
func (rt *Runtime) Tokens(source, filename string) ([]lexer.Token, error) {
	collector := &diagnostics.Collector{}
	opts := append(rt.lexerOptions(), lexer.WithReporter(rt.tee(collector)))
	tokens, err := lexer.Tokenize(source, filename, opts...)
	if err != nil {
		return tokens, &DiagnosticError{Diagnostics: collector.Diagnostics()}
	}
	return tokens, nil
}

// Parse parses source into a tree. Any diagnostic makes it fail; the
// partial tree is still returned.
func (rt *Runtime) Parse(source, filename string) (ast.Node, error) {
	tree, diags := rt.parse(source, filename)
	if len(diags) > 0 {
		return tree, &DiagnosticError{Diagnostics: diags}
	}
	return tree, nil
}

func (rt *Runtime) parse(source, filename string) (ast.Node, []diagnostics.Diagnostic) {
	tree, diags := parser.Parse(source, filename,
		parser.WithLexerOptions(rt.lexerOptions()...),
		parser.WithBuilderOptions(
			builder.WithFileLineLiterals(rt.cfg.EmitFileLineAsLiterals),
			builder.WithEncodingConst(rt.cfg.EmitEncodingAsConst),
		),
	)
	for _, d := range diags {
		rt.reporter.Report(d.Severity, d.Code, d.Span, d.Message)
	}
	if rt.logger != nil {
		rt.logger.Debug("parsed", "file", filename, "diagnostics", len(diags))
	}
	return tree, diags
}

// Check parses and validates source without producing output.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	tree, diags := rt.parse(source, filename)
	if len(diags) > 0 {
		return diags
	}

	vDiags := validator.Validate(tree)
	for _, d := range vDiags {
		rt.reporter.Report(d.Severity, d.Code, d.Span, d.Message)
	}
	return vDiags
}

// Format parses source and renders the tree as an indented S-expression.
func (rt *Runtime) Format(source, filename string) (string, error) {
	tree, err := rt.Parse(source, filename)
	if err != nil {
		return "", err
	}
	return formatter.Format(tree), nil
}

// tee forwards reports to the runtime's reporter and to c.
func (rt *Runtime) tee(c *diagnostics.Collector) diagnostics.Reporter {
	return teeReporter{rt.reporter, c}
}

type teeReporter []diagnostics.Reporter

func (t teeReporter) Report(sev diagnostics.Severity, code string, span *ast.Span, message string) {
	for _, r := range t {
		r.Report(sev, code, span, message)
	}
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Fatal reports whether a diagnostic stopped the lexer.
func (e *DiagnosticError) Fatal() bool {
	for _, d := range e.Diagnostics {
		if d.Severity == diagnostics.Fatal {
			return true
		}
	}
	return false
}
