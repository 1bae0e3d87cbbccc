package lexer

import (
	"sort"
	"unicode/utf8"

	"github.com/thomasrohde/rubyfront/pkg/ast"
)

// cursor owns the source buffer and the scan position. ts and te delimit
// the text matched by the action currently running.
type cursor struct {
	src        string
	filename   string
	pos        int
	ts, te     int
	lineStarts []int
}

func newCursor(src, filename string) *cursor {
	c := &cursor{src: src, filename: filename, lineStarts: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			c.lineStarts = append(c.lineStarts, i+1)
		}
	}
	return c
}

// longestMatch returns the action whose pattern matches the most input at
// the current position. Ties go to the action listed first. It returns nil
// when nothing matches.
func (c *cursor) longestMatch(actions []*action, lit *literal) (*action, int) {
	rest := c.src[c.pos:]
	var best *action
	bestLen := -1
	for _, a := range actions {
		n := a.matchLen(rest, lit)
		if n > bestLen {
			best, bestLen = a, n
		}
	}
	if best == nil || bestLen < 0 {
		return nil, 0
	}
	return best, c.pos + bestLen
}

// hold rewinds to the start of the current match.
func (c *cursor) hold() {
	c.pos = c.ts
}

func (c *cursor) text() string {
	return c.src[c.ts:c.te]
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.src)
}

func (c *cursor) byteAt(i int) byte {
	if i < 0 || i >= len(c.src) {
		return 0
	}
	return c.src[i]
}

func (c *cursor) atLineStart(i int) bool {
	return i == 0 || c.byteAt(i-1) == '\n'
}

// lineEnd returns the offset just past the newline ending the line that
// contains i, or len(src) on the last line.
func (c *cursor) lineEnd(i int) int {
	for j := i; j < len(c.src); j++ {
		if c.src[j] == '\n' {
			return j + 1
		}
	}
	return len(c.src)
}

func (c *cursor) location(off int) (line, col int) {
	if off > len(c.src) {
		off = len(c.src)
	}
	idx := sort.Search(len(c.lineStarts), func(i int) bool { return c.lineStarts[i] > off }) - 1
	if idx < 0 {
		idx = 0
	}
	start := c.lineStarts[idx]
	return idx + 1, utf8.RuneCountInString(c.src[start:off]) + 1
}

func (c *cursor) span(from, to int) ast.Span {
	sl, sc := c.location(from)
	el, ec := c.location(to)
	return ast.Span{File: c.filename, StartLine: sl, StartCol: sc, EndLine: el, EndCol: ec}
}
