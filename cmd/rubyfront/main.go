// Command rubyfront is the CLI entry point for the Ruby lexer and AST frontend.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	plexer "github.com/alecthomas/participle/v2/lexer"
	"github.com/peterh/liner"

	"github.com/thomasrohde/rubyfront/pkg/ast"
	"github.com/thomasrohde/rubyfront/pkg/config"
	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
	"github.com/thomasrohde/rubyfront/pkg/formatter"
	"github.com/thomasrohde/rubyfront/pkg/help"
	"github.com/thomasrohde/rubyfront/pkg/runtime"
)

const (
	historyFile = ".rubyfront_history"
	promptMain  = "rb> "
	promptCont  = "..> "
)

var commands = []string{"tokens", "parse", "check", "repl", "config", "help"}

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(stderr, "usage: rubyfront <command> [options]")
		fmt.Fprintf(stderr, "commands: %s\n", strings.Join(commands, ", "))
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "tokens":
		return cmdTokens(args[1:])
	case "parse":
		return cmdParse(args[1:])
	case "check":
		return cmdCheck(args[1:])
	case "repl":
		return cmdRepl(args[1:])
	case "config":
		return cmdConfig(args[1:])
	case "help", "--help", "-h":
		return cmdHelp(args[1:])
	default:
		if s := help.Suggest(cmd, commands); s != "" {
			fmt.Fprintf(stderr, "Unknown command: %s (did you mean '%s'?)\n", cmd, s)
		} else {
			fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		}
		return 1
	}
}

// flags holds the options shared by the file commands.
type flags struct {
	file   string
	pretty bool
	inline bool
	json   bool

	// participle streams tokens through the participle lexer adapter.
	participle bool
}

func parseFlags(args []string) flags {
	var f flags
	for _, a := range args {
		switch a {
		case "--pretty":
			f.pretty = true
		case "--inline":
			f.inline = true
		case "--json":
			f.json = true
		case "--participle":
			f.participle = true
		default:
			if a == "-" || !strings.HasPrefix(a, "-") {
				f.file = a
			}
		}
	}
	return f
}

func cmdTokens(args []string) int {
	f := parseFlags(args)
	if f.file == "" {
		fmt.Fprintln(stderr, "usage: rubyfront tokens <file> [--json] [--participle] [--pretty]")
		return 1
	}
	source, filename, exitCode := readSource(f.file, f.pretty)
	if exitCode != 0 {
		return exitCode
	}
	rt, exitCode := newRuntime(f.pretty)
	if exitCode != 0 {
		return exitCode
	}

	if f.participle {
		return streamTokens(rt, source, filename)
	}

	tokens, err := rt.Tokens(source, filename)
	if err != nil {
		return reportError(err, f.pretty)
	}

	if f.json {
		type jsonToken struct {
			Type  string   `json:"type"`
			Value string   `json:"value"`
			Span  ast.Span `json:"span"`
		}
		out := make([]jsonToken, len(tokens))
		for i, tok := range tokens {
			out[i] = jsonToken{Type: tok.Type.String(), Value: tok.Value, Span: tok.Span}
		}
		b, _ := json.Marshal(out)
		fmt.Fprintln(stdout, string(b))
		return 0
	}
	fmt.Fprint(stdout, formatter.FormatTokens(tokens))
	return 0
}

// streamTokens prints the token stream as a participle grammar sees it.
func streamTokens(rt *runtime.Runtime, source, filename string) int {
	def := rt.Definition()
	lex, err := def.LexString(filename, source)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	names := plexer.SymbolsByRune(def)
	tokens, err := plexer.ConsumeAll(lex)
	for _, tok := range tokens {
		if tok.EOF() {
			break
		}
		fmt.Fprintf(stdout, "%s %q %d:%d\n", names[tok.Type], tok.Value, tok.Pos.Line, tok.Pos.Column)
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 3
	}
	return 0
}

func cmdParse(args []string) int {
	f := parseFlags(args)
	if f.file == "" {
		fmt.Fprintln(stderr, "usage: rubyfront parse <file> [--inline] [--pretty]")
		return 1
	}
	source, filename, exitCode := readSource(f.file, f.pretty)
	if exitCode != 0 {
		return exitCode
	}
	rt, exitCode := newRuntime(f.pretty)
	if exitCode != 0 {
		return exitCode
	}

	tree, err := rt.Parse(source, filename)
	if err != nil {
		return reportError(err, f.pretty)
	}
	if f.inline {
		fmt.Fprintln(stdout, formatter.Inline(tree))
	} else {
		fmt.Fprintln(stdout, formatter.Format(tree))
	}
	return 0
}

func cmdCheck(args []string) int {
	f := parseFlags(args)
	if f.file == "" {
		fmt.Fprintln(stderr, "usage: rubyfront check <file> [--pretty]")
		return 1
	}
	source, filename, exitCode := readSource(f.file, f.pretty)
	if exitCode != 0 {
		return exitCode
	}
	rt, exitCode := newRuntime(f.pretty)
	if exitCode != 0 {
		return exitCode
	}

	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		return reportError(&runtime.DiagnosticError{Diagnostics: diags}, f.pretty)
	}

	if f.pretty {
		fmt.Fprintln(stdout, "No errors found.")
	} else {
		fmt.Fprintln(stdout, "[]")
	}
	return 0
}

// -----------------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------------

func cmdRepl(args []string) int {
	pretty := parseFlags(args).pretty
	rt, exitCode := newRuntime(pretty)
	if exitCode != 0 {
		return exitCode
	}

	fmt.Fprintln(stdout, "rubyfront repl. Type :quit to exit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	for {
		code, ok := readByParseProbe(ln, rt, promptMain, promptCont)
		if !ok {
			fmt.Fprintln(stdout)
			break
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			switch strings.ToLower(trimmed) {
			case ":quit", ":q":
				return 0
			default:
				fmt.Fprintln(stdout, "unknown command. Type :quit to exit.")
			}
			continue
		}

		ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		tree, err := rt.Parse(code, "<repl>")
		if err != nil {
			printError(err, pretty)
			continue
		}
		fmt.Fprintln(stdout, formatter.Format(tree))
	}
	return 0
}

// readByParseProbe keeps reading lines while the buffered source ends inside
// an open literal.
func readByParseProbe(ln *liner.State, rt *runtime.Runtime, prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = ln.Prompt(prompt)
		} else {
			line, err = ln.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			b.Reset()
			continue
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if incomplete(rt, src) {
			continue
		}
		return src, true
	}
}

// incomplete reports whether src stops inside a string, heredoc,
// interpolation or embedded document.
func incomplete(rt *runtime.Runtime, src string) bool {
	_, err := rt.Tokens(src, "<repl>")
	var derr *runtime.DiagnosticError
	if !errors.As(err, &derr) {
		return false
	}
	for _, d := range derr.Diagnostics {
		if d.Severity == diagnostics.Fatal && d.Code == diagnostics.EUnterminated {
			return true
		}
	}
	return false
}

// -----------------------------------------------------------------------------
// config / help
// -----------------------------------------------------------------------------

func cmdConfig(args []string) int {
	pretty := parseFlags(args).pretty
	cwd, _ := os.Getwd()
	cfg, src, err := config.Load(cwd)
	if err != nil {
		return reportConfigError(err, pretty)
	}
	b, _ := json.MarshalIndent(struct {
		Source config.Source  `json:"source"`
		Config *config.Config `json:"config"`
	}{src, cfg}, "", "  ")
	fmt.Fprintln(stdout, string(b))
	return 0
}

func cmdHelp(args []string) int {
	showIndex := false
	topic := ""
	for _, arg := range args {
		if arg == "--index" {
			showIndex = true
		} else if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if showIndex {
		if topic != "states" {
			fmt.Fprintln(stderr, "error: --index is only supported for the states topic (rubyfront help states --index)")
			return 1
		}
		fmt.Fprint(stdout, help.StatesIndex())
		return 0
	}

	if topic == "" {
		fmt.Fprint(stdout, help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Fprint(stdout, content)
	return 0
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func newRuntime(pretty bool) (*runtime.Runtime, int) {
	cwd, _ := os.Getwd()
	cfg, _, err := config.Load(cwd)
	if err != nil {
		return nil, reportConfigError(err, pretty)
	}
	return runtime.New(runtime.WithConfig(cfg)), 0
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read stdin: %s", err), nil, "")
			fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}

func reportConfigError(err error, pretty bool) int {
	var cerr *config.Error
	if errors.As(err, &cerr) {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{cerr.Diag}, pretty))
	} else {
		diag := diagnostics.MakeDiag(diagnostics.EIO, err.Error(), nil, "")
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
	}
	return 1
}

// reportError prints err and returns the exit code for it.
func reportError(err error, pretty bool) int {
	printError(err, pretty)
	return exitCodeFor(err)
}

func printError(err error, pretty bool) {
	var derr *runtime.DiagnosticError
	if errors.As(err, &derr) {
		fmt.Fprintln(stderr, diagnostics.FormatDiagnostics(derr.Diagnostics, pretty))
		return
	}
	fmt.Fprintln(stderr, err.Error())
}

func exitCodeFor(err error) int {
	var derr *runtime.DiagnosticError
	if !errors.As(err, &derr) {
		return 1
	}
	if derr.Fatal() {
		return 3
	}
	return 2
}
