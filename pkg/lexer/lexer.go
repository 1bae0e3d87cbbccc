// Package lexer implements the state-machine tokenizer for Ruby source.
//
// The lexer is driven by a table of actions per LexingState. Each call to
// Advance runs the exec loop until an action emits a token and breaks, the
// input ends, or a fatal diagnostic halts the scan.
package lexer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

// StaticEnv answers whether a name is a declared local variable. Declared
// names lex as operands rather than method calls.
type StaticEnv interface {
	Declared(name string) bool
}

// Lexer holds all scanning state for one source buffer.
type Lexer struct {
	cur *cursor

	state        LexingState
	nextState    LexingState
	callingState LexingState
	lastState    LexingState
	breaking     bool
	commandState bool

	cond, cmdarg *StackState
	literals     []*literal
	parenNest    int
	lambdaStack  []int
	inKwarg      bool
	herebodyS    int
	negativeNum  bool

	dedentLevel int
	hasDedent   bool

	env      StaticEnv
	reporter diagnostics.Reporter
	logger   *slog.Logger
	debug    bool

	queue      []Token
	halted     bool
	fatalDiag  *diagnostics.Diagnostic
	firstError *diagnostics.Diagnostic

	budget  Budget
	tracker BudgetTracker
}

// Option configures a Lexer.
type Option func(*Lexer)

// WithFilename sets the file name recorded in token spans.
func WithFilename(name string) Option {
	return func(lx *Lexer) { lx.cur.filename = name }
}

// WithReporter sets the diagnostics sink.
func WithReporter(r diagnostics.Reporter) Option {
	return func(lx *Lexer) { lx.reporter = r }
}

// WithStaticEnv sets the local variable scope consulted for bare names.
func WithStaticEnv(env StaticEnv) Option {
	return func(lx *Lexer) { lx.env = env }
}

// WithLogger replaces the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(lx *Lexer) { lx.logger = l }
}

// WithMaxSteps caps the number of exec-loop iterations for the whole scan.
func WithMaxSteps(n int) Option {
	return func(lx *Lexer) { lx.budget.MaxSteps = n }
}

// WithMaxStall caps consecutive iterations without progress.
func WithMaxStall(n int) Option {
	return func(lx *Lexer) { lx.budget.MaxStall = n }
}

// New creates a Lexer positioned at the start of source, in LineBegin.
func New(source string, opts ...Option) *Lexer {
	lx := &Lexer{
		cur:       newCursor(source, ""),
		state:     LineBegin,
		lastState: LineBegin,
		cond:      NewStackState("cond"),
		cmdarg:    NewStackState("cmdarg"),
		herebodyS: -1,
		reporter:  diagnostics.Discard{},
		budget:    Budget{MaxStall: DefaultMaxStall},
	}
	for _, opt := range opts {
		opt(lx)
	}
	if lx.logger == nil {
		lx.logger = defaultLogger()
	}
	lx.debug = lx.logger.Enabled(context.Background(), slog.LevelDebug)
	return lx
}

// defaultLogger writes debug traces to stderr when RUBYFRONT_DEBUG_LEXER is
// set and discards them otherwise.
func defaultLogger() *slog.Logger {
	if os.Getenv("RUBYFRONT_DEBUG_LEXER") == "" {
		return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	}))
}

// Advance returns the next token. ok is false once the input is exhausted
// or the lexer has halted on a fatal diagnostic.
func (lx *Lexer) Advance() (tok Token, ok bool) {
	if len(lx.queue) == 0 && !lx.halted {
		lx.exec()
	}
	if len(lx.queue) == 0 {
		return Token{}, false
	}
	tok = lx.queue[0]
	lx.queue = lx.queue[1:]
	return tok, true
}

func (lx *Lexer) pendingState() LexingState {
	switch {
	case lx.callingState != stateUnset:
		return lx.callingState
	case lx.nextState != stateUnset:
		return lx.nextState
	}
	return lx.state
}

func (lx *Lexer) exec() {
	pending := lx.pendingState()
	lx.commandState = pending == ExprValue || pending == LineBegin
	lx.breaking = false
	table := machines()

	for !lx.breaking && !lx.halted {
		lx.lastState = lx.state
		if lx.callingState != stateUnset {
			lx.state = lx.callingState
			lx.callingState = stateUnset
		} else if lx.nextState != stateUnset {
			lx.state = lx.nextState
			lx.nextState = stateUnset
		}

		if !lx.checkStepBudget() {
			return
		}

		act, end := lx.cur.longestMatch(table[lx.state], lx.topLiteral())
		if act == nil {
			panic(fmt.Sprintf("lexer: no action matches in state %s at offset %d", lx.state, lx.cur.pos))
		}
		lx.cur.ts, lx.cur.te = lx.cur.pos, end
		lx.cur.pos = end
		if lx.debug {
			lx.logger.Debug("match",
				"state", lx.state.String(),
				"next", lx.nextState.String(),
				"calling", lx.callingState.String(),
				"action", act.name,
				"text", lx.cur.text())
		}

		before, queued := lx.cur.ts, len(lx.queue)
		act.proc(lx)
		if lx.halted {
			return
		}
		progressed := lx.cur.pos != before || len(lx.queue) != queued
		if !lx.checkStallBudget(progressed) {
			return
		}
	}
}

// State returns the current lexing state.
func (lx *Lexer) State() LexingState { return lx.state }

// SetState forces the lexing state. A pending transition is discarded.
func (lx *Lexer) SetState(s LexingState) {
	lx.state = s
	lx.nextState = stateUnset
	lx.callingState = stateUnset
}

// LastState returns the state the most recent action ran from.
func (lx *Lexer) LastState() LexingState { return lx.lastState }

// Cond returns the condition stack shared with the parser.
func (lx *Lexer) Cond() *StackState { return lx.cond }

// Cmdarg returns the command-argument stack shared with the parser.
func (lx *Lexer) Cmdarg() *StackState { return lx.cmdarg }

func (lx *Lexer) InKwarg() bool { return lx.inKwarg }

func (lx *Lexer) SetInKwarg(v bool) { lx.inKwarg = v }

// SetStaticEnv swaps the scope consulted for bare names. The parser calls
// it when entering and leaving method bodies.
func (lx *Lexer) SetStaticEnv(env StaticEnv) { lx.env = env }

// DedentLevel returns the indentation removed from the most recently
// closed squiggly heredoc. It reports each level once.
func (lx *Lexer) DedentLevel() (int, bool) {
	if !lx.hasDedent {
		return 0, false
	}
	lx.hasDedent = false
	return lx.dedentLevel, true
}

// Halted reports whether the lexer has stopped for good.
func (lx *Lexer) Halted() bool { return lx.halted }

// Fatal returns the diagnostic that halted the lexer, if any.
func (lx *Lexer) Fatal() *diagnostics.Diagnostic { return lx.fatalDiag }

// Source returns the buffer being scanned.
func (lx *Lexer) Source() string { return lx.cur.src }

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

// Tokenize breaks source code into a slice of tokens ending in TokEOF. On
// failure it returns the tokens produced so far together with a *LexError
// for the first fatal diagnostic or, failing that, the first error.
func Tokenize(source, filename string, opts ...Option) ([]Token, error) {
	opts = append([]Option{WithFilename(filename)}, opts...)
	lx := New(source, opts...)
	var tokens []Token

	for {
		tok, ok := lx.Advance()
		if !ok {
			break
		}
		tokens = append(tokens, tok)
	}

	switch {
	case lx.fatalDiag != nil:
		return tokens, &LexError{Diag: *lx.fatalDiag}
	case lx.firstError != nil:
		return tokens, &LexError{Diag: *lx.firstError}
	}
	end := len(source)
	tokens = append(tokens, Token{Type: TokEOF, Span: lx.cur.span(end, end)})
	return tokens, nil
}
