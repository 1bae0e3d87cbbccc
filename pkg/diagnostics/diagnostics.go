// Package diagnostics defines the diagnostic values reported by the lexer,
// builder and validator, and the sink they are reported through.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/thomasrohde/rubyfront/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex           = "E_LEX"
	EUnterminated  = "E_UNTERMINATED"
	EEscape        = "E_ESCAPE"
	EUnicode       = "E_UNICODE"
	ENumber        = "E_NUMBER"
	EInvalidAssign = "E_INVALID_ASSIGNMENT"
	EDynamicConst  = "E_DYNAMIC_CONST"
	EBackrefAssign = "E_BACKREF_ASSIGNMENT"
	EParse         = "E_PARSE"
	EAst           = "E_AST"
	EDupArg        = "E_DUP_ARG"
	EStall         = "E_STALL"
	EStepBudget    = "E_STEP_BUDGET"
	EIO            = "E_IO"
	EConfig        = "E_CONFIG"
)

// Severity orders diagnostics by how much of the pipeline they stop.
type Severity string

const (
	Warning Severity = "warning"
	Error   Severity = "error"
	Fatal   Severity = "fatal"
)

// Diagnostic represents a lexer, builder, parse or validation diagnostic.
type Diagnostic struct {
	Severity Severity  `json:"severity"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Span     *ast.Span `json:"span,omitempty"`
	Hint     string    `json:"hint,omitempty"`
}

// MakeDiag creates a new error-severity Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Code:     code,
		Message:  message,
		Span:     span,
		Hint:     hint,
	}
}

// Reporter is the sink every component reports through.
type Reporter interface {
	Report(sev Severity, code string, span *ast.Span, message string)
}

// Collector is a Reporter that keeps diagnostics in report order.
type Collector struct {
	diags []Diagnostic
}

// Report implements Reporter.
func (c *Collector) Report(sev Severity, code string, span *ast.Span, message string) {
	c.diags = append(c.diags, Diagnostic{Severity: sev, Code: code, Message: message, Span: span})
}

// Add appends an already-built diagnostic.
func (c *Collector) Add(d Diagnostic) {
	c.diags = append(c.diags, d)
}

// Diagnostics returns everything reported so far.
func (c *Collector) Diagnostics() []Diagnostic {
	return c.diags
}

// HasErrors reports whether an error or fatal diagnostic was reported.
func (c *Collector) HasErrors() bool {
	for _, d := range c.diags {
		if d.Severity == Error || d.Severity == Fatal {
			return true
		}
	}
	return false
}

// FirstFatal returns the first fatal diagnostic, if any.
func (c *Collector) FirstFatal() (Diagnostic, bool) {
	for _, d := range c.diags {
		if d.Severity == Fatal {
			return d, true
		}
	}
	return Diagnostic{}, false
}

// Discard is a Reporter that drops everything.
type Discard struct{}

func (Discard) Report(Severity, string, *ast.Span, string) {}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	if d.Span != nil {
		loc = fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
	}
	sev := d.Severity
	if sev == "" {
		sev = Error
	}
	out := fmt.Sprintf("%s[%s]: %s\n  --> %s", sev, d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
