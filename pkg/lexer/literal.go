package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

type literalKind int

const (
	litString literalKind = iota
	litSymbol
	litXString
	litRegexp
	litWords
	litSymbols
	litHeredoc
)

// literal describes one string, symbol, regexp, word list or heredoc whose
// body is being scanned.
type literal struct {
	kind        literalKind
	interpolate bool
	open, close rune // zero for heredocs
	nesting     int
	start       int // offset of the opener

	// heredoc only
	heredocID string
	indentEnd bool // <<- and <<~ allow an indented terminator
	squiggly  bool
	xstring   bool
	resume    int // where scanning continues after the terminator line
	dedent    int // minimum body indentation, -1 until a line is seen

	// braceNest counts open braces of the interpolation inside this
	// literal. Reaching zero on '}' closes the interpolation.
	braceNest int

	buf          strings.Builder
	bufStart     int
	bufEnd       int
	begPending   bool
	begTok       Token
	interpolated bool
	wordOpen     bool
}

func newLiteral(kind literalKind, interpolate bool, open rune, start int) *literal {
	return &literal{
		kind:        kind,
		interpolate: interpolate,
		open:        open,
		close:       closingDelimiter(open),
		start:       start,
		bufStart:    -1,
		dedent:      -1,
	}
}

func closingDelimiter(r rune) rune {
	switch r {
	case '(':
		return ')'
	case '[':
		return ']'
	case '{':
		return '}'
	case '<':
		return '>'
	}
	return r
}

// percentLiteral decodes a %-literal opener such as "%w[" or "%(".
func percentLiteral(text string, start int) *literal {
	body := text[1:]
	typ := byte('Q')
	if strings.IndexByte("qQwWiIsrx", body[0]) >= 0 {
		typ = body[0]
		body = body[1:]
	}
	delim, _ := utf8.DecodeRuneInString(body)
	switch typ {
	case 'q':
		return newLiteral(litString, false, delim, start)
	case 'w':
		return newLiteral(litWords, false, delim, start)
	case 'W':
		return newLiteral(litWords, true, delim, start)
	case 'i':
		return newLiteral(litSymbols, false, delim, start)
	case 'I':
		return newLiteral(litSymbols, true, delim, start)
	case 's':
		return newLiteral(litSymbol, false, delim, start)
	case 'r':
		return newLiteral(litRegexp, true, delim, start)
	case 'x':
		return newLiteral(litXString, true, delim, start)
	}
	return newLiteral(litString, true, delim, start)
}

// heredocLiteral decodes a heredoc opener such as `<<~"EOS"`.
func heredocLiteral(text string, start, resume int) *literal {
	id := text[2:]
	lit := newLiteral(litHeredoc, true, 0, start)
	lit.close = 0
	lit.resume = resume
	switch {
	case strings.HasPrefix(id, "-"):
		lit.indentEnd = true
		id = id[1:]
	case strings.HasPrefix(id, "~"):
		lit.indentEnd = true
		lit.squiggly = true
		id = id[1:]
	}
	if len(id) >= 2 {
		switch id[0] {
		case '\'':
			lit.interpolate = false
			id = id[1 : len(id)-1]
		case '"':
			id = id[1 : len(id)-1]
		case '`':
			lit.xstring = true
			id = id[1 : len(id)-1]
		}
	}
	lit.heredocID = id
	return lit
}

func (l *literal) describe() string {
	switch l.kind {
	case litSymbol:
		return "symbol"
	case litXString:
		return "command string"
	case litRegexp:
		return "regexp"
	case litWords:
		return "word list"
	case litSymbols:
		return "symbol list"
	case litHeredoc:
		return fmt.Sprintf("heredoc %q", l.heredocID)
	}
	return "string"
}

// monolithic reports whether the literal closes as a single tSTRING or
// tSYMBOL when it contains no interpolation.
func (l *literal) monolithic() bool {
	return l.kind == litString || l.kind == litSymbol
}

func (l *literal) words() bool {
	return l.kind == litWords || l.kind == litSymbols
}

func (l *literal) begType() TokenType {
	switch l.kind {
	case litSymbol:
		return TokSymBeg
	case litXString:
		return TokXStringBeg
	case litRegexp:
		return TokRegexpBeg
	case litWords:
		if l.interpolate {
			return TokWordsBeg
		}
		return TokQWordsBeg
	case litSymbols:
		if l.interpolate {
			return TokSymbolsBeg
		}
		return TokQSymbolsBeg
	case litHeredoc:
		if l.xstring {
			return TokXStringBeg
		}
	}
	return TokStringBeg
}

func (l *literal) isDelimiter(r rune) bool {
	return l.kind != litHeredoc && (r == l.open || r == l.close)
}

// append adds decoded text taken from src[from:to] to the buffer.
func (l *literal) append(s string, from, to int) {
	if l.bufStart < 0 {
		l.bufStart = from
	}
	l.bufEnd = to
	l.buf.WriteString(s)
	l.wordOpen = true
}

func (l *literal) take() string {
	s := l.buf.String()
	l.buf.Reset()
	l.bufStart = -1
	return s
}

// plainRun returns the length of the longest prefix of rest that holds no
// character with a meaning inside the literal.
func plainRun(rest string, lit *literal) int {
	if lit == nil {
		return -1
	}
	n := 0
	for n < len(rest) {
		r, size := utf8.DecodeRuneInString(rest[n:])
		if r == '\\' || r == '#' || r == '\n' || lit.isDelimiter(r) {
			break
		}
		if lit.words() && isSpace(r) {
			break
		}
		n += size
	}
	if n == 0 {
		return -1
	}
	return n
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f' || r == '\r' || r == '\n'
}

// escapeError describes a malformed escape sequence.
type escapeError struct {
	code string
	msg  string
}

var simpleEscapes = map[byte]string{
	'n': "\n", 't': "\t", 'r': "\r", 'e': "\x1b", 's': " ",
	'a': "\a", 'b': "\b", 'f': "\f", 'v': "\v",
}

// unescape decodes one backslash sequence of an interpolating literal.
func unescape(raw string) (string, *escapeError) {
	if len(raw) < 2 {
		return raw, nil
	}
	c := raw[1]
	if s, ok := simpleEscapes[c]; ok {
		return s, nil
	}
	switch {
	case c >= '0' && c <= '7':
		v, _ := strconv.ParseUint(raw[1:], 8, 16)
		return string([]byte{byte(v)}), nil
	case c == 'x':
		if len(raw) == 2 {
			return "", &escapeError{diagnostics.EEscape, "invalid hex escape"}
		}
		v, _ := strconv.ParseUint(raw[2:], 16, 8)
		return string([]byte{byte(v)}), nil
	case c == 'u':
		return unescapeUnicode(raw[2:])
	case (c == 'C' && len(raw) == 4) || (c == 'c' && len(raw) == 3):
		ch := raw[len(raw)-1]
		if ch == '?' {
			return "\x7f", nil
		}
		return string([]byte{ch & 0x9f}), nil
	case c == 'M' && len(raw) == 4:
		return string([]byte{raw[len(raw)-1] | 0x80}), nil
	case c == '\n':
		return "", nil
	}
	return raw[1:], nil
}

func unescapeUnicode(body string) (string, *escapeError) {
	if strings.HasPrefix(body, "{") {
		if !strings.HasSuffix(body, "}") {
			return "", &escapeError{diagnostics.EEscape, "unterminated Unicode escape"}
		}
		var sb strings.Builder
		for _, hex := range strings.Fields(body[1 : len(body)-1]) {
			s, err := codepoint(hex)
			if err != nil {
				return "", err
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	}
	if len(body) != 4 {
		return "", &escapeError{diagnostics.EEscape, "invalid Unicode escape"}
	}
	return codepoint(body)
}

func codepoint(hex string) (string, *escapeError) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return "", &escapeError{diagnostics.EEscape, "invalid Unicode escape"}
	}
	if v >= 0x110000 {
		return "", &escapeError{diagnostics.EUnicode, fmt.Sprintf("invalid Unicode codepoint (too large): 0x%X", v)}
	}
	if v >= 0xD800 && v <= 0xDFFF {
		return "", &escapeError{diagnostics.EUnicode, fmt.Sprintf("invalid Unicode codepoint (surrogate): 0x%X", v)}
	}
	return string(rune(v)), nil
}

// indentWidth measures leading whitespace with tabs advancing to the next
// multiple of 8. blank is true when the line holds only whitespace.
func indentWidth(line string) (width int, blank bool) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case ' ':
			width++
		case '\t':
			width = (width/8 + 1) * 8
		case '\n', '\r':
			return width, true
		default:
			return width, false
		}
	}
	return width, true
}
