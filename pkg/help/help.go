// Package help holds the CLI reference text and topic lookup.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/thomasrohde/rubyfront/pkg/lexer"
)

// QUICKREF is printed by "rubyfront help" with no topic.
const QUICKREF = `rubyfront v0.1 - Ruby lexer and AST frontend

USAGE
  rubyfront <command> [options]

COMMANDS
  tokens <file>   print the token stream
  parse <file>    print the AST as an S-expression
  check <file>    parse and validate; print diagnostics only
  repl            interactive parse loop
  config          print the effective configuration
  help [topic]    show this reference or a topic

Use "-" as <file> to read standard input. Add --pretty for human-readable
diagnostics; the default is JSON.

EXIT CODES
  0 ok   1 usage or I/O   2 diagnostics   3 fatal lexer error

TOPICS
  tokens, parse, check, repl, config, states, diagnostics, examples
`

// TopicList is the display order of Topics.
var TopicList = []string{"tokens", "parse", "check", "repl", "config", "states", "diagnostics", "examples"}

// Topics maps topic names to their text.
var Topics = map[string]string{
	"tokens": `TOKENS
  rubyfront tokens <file> [--json] [--participle] [--pretty]

Prints one token per line: type, quoted value and line:col. Types use the
classic parser names (tIDENTIFIER, kDO_BLOCK, tSTRING_CONTENT, ...).
--json prints an array instead. --participle streams the tokens through the
participle lexer adapter, as a participle grammar would see them.
Without a grammar the lexer sees no local variables, so "x -1" always lexes
as a call with a negative argument.
`,
	"parse": `PARSE
  rubyfront parse <file> [--pretty] [--inline]

Parses the file and prints the tree as an indented S-expression, for
example (lvasgn :x (int 1)). --inline prints one line per program.
`,
	"check": `CHECK
  rubyfront check <file> [--pretty]

Parses and validates the tree. Prints [] (or "No errors found.") when the
file is clean, otherwise the diagnostics, and exits with code 2.
`,
	"repl": `REPL
  rubyfront repl

Reads Ruby line by line and prints each tree. Input continues on the next
line while a string, heredoc or interpolation is still open. History is
kept in ~/.rubyfront_history. Type :quit to leave.
`,
	"config": `CONFIG
  rubyfront config

Prints the effective configuration as JSON. Sources, first match wins:
  ./.rubyfront.json
  ~/.rubyfront/config.json
  built-in defaults

Fields:
  emitFileLineAsLiterals  __FILE__ and __LINE__ become str/int (default true)
  emitEncodingAsConst     __ENCODING__ becomes Encoding::UTF_8 (default true)
  maxSteps                lexer step budget, 0 = unlimited
  maxStall                lexer iterations without progress (default 64)
  debug                   trace the lexer to stderr

RUBYFRONT_DEBUG_LEXER=1 also enables the lexer trace.
`,
	"states": `STATES
  rubyfront help states --index

The lexer is a state machine. Each state owns an ordered list of rules;
the longest match wins and ties go to the earlier rule. Actions emit
tokens and pick the next state. Use --index for the state list.
`,
	"diagnostics": `DIAGNOSTICS
  E_LEX                 unexpected character
  E_UNTERMINATED        string, heredoc, interpolation or =begin not closed (fatal)
  E_ESCAPE              malformed escape sequence
  E_UNICODE             code point out of range or a surrogate
  E_NUMBER              bad digits, trailing underscore or overflow
  E_INVALID_ASSIGNMENT  assignment to self, nil, a literal ...
  E_DYNAMIC_CONST       constant assignment inside a method body
  E_BACKREF_ASSIGNMENT  assignment to $&, $1 ...
  E_PARSE               unexpected token
  E_AST                 tree is not in canonical form
  E_DUP_ARG             duplicated argument name
  E_STALL, E_STEP_BUDGET  lexer budget exhausted (fatal)
  E_IO, E_CONFIG        file and configuration errors
`,
	"examples": `EXAMPLES
  $ echo 'x = 1; x -1' | rubyfront parse - --inline
  (begin (lvasgn :x (int 1)) (send (lvar :x) :- (int 1)))

  $ echo 'foo -1' | rubyfront parse - --inline
  (send nil :foo (int -1))

  $ echo 'def f(a, a); end' | rubyfront check - --pretty
  error[E_DUP_ARG]: duplicated argument name 'a'
`,
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if content, ok := Topics[q]; ok {
		return q, content, nil
	}

	var matches []string
	for _, name := range TopicList {
		if q != "" && strings.HasPrefix(name, q) {
			matches = append(matches, name)
		}
	}
	if len(matches) == 1 {
		return matches[0], Topics[matches[0]], nil
	}
	if len(matches) > 1 {
		return "", "", fmt.Errorf("ambiguous topic '%s': %s", query, strings.Join(matches, ", "))
	}

	if s := Suggest(q, TopicList); s != "" {
		return "", "", fmt.Errorf("unknown topic '%s' (did you mean '%s'?)", query, s)
	}
	return "", "", fmt.Errorf("unknown topic '%s'", query)
}

const maxSuggestDistance = 2

// Suggest returns the candidate closest to target, or "" when none is close.
func Suggest(target string, candidates []string) string {
	if target == "" || len(candidates) == 0 {
		return ""
	}
	ranks := fuzzy.RankFindFold(target, candidates)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		return ranks[0].Target
	}

	// Subsequence matching misses transposed letters.
	best, bestDist := "", maxSuggestDistance+1
	lower := strings.ToLower(target)
	for _, c := range candidates {
		if d := fuzzy.LevenshteinDistance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// StatesIndex lists the lexing states.
func StatesIndex() string {
	var b strings.Builder
	n := 0
	for st := lexer.LineBegin; st <= lexer.StringBody; st++ {
		fmt.Fprintf(&b, "  %s\n", st)
		n++
	}
	fmt.Fprintf(&b, "Total: %d states\n", n)
	return b.String()
}
