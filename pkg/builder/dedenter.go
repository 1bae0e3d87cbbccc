package builder

import (
	"strings"

	"github.com/thomasrohde/rubyfront/pkg/ast"
)

const tabWidth = 8

// Dedenter strips a fixed amount of leading whitespace from every line of
// a squiggly heredoc body. It keeps track of whether it is at the start of
// a line across successive string parts.
type Dedenter struct {
	level     int
	atLineBeg bool
}

// NewDedenter creates a Dedenter that removes level columns per line.
func NewDedenter(level int) *Dedenter {
	return &Dedenter{level: level, atLineBeg: true}
}

// Dedent processes one chunk of body text.
func (d *Dedenter) Dedent(s string) string {
	var out strings.Builder
	for len(s) > 0 {
		if d.atLineBeg {
			s = d.stripIndent(s)
			d.atLineBeg = false
			continue
		}
		i := strings.IndexByte(s, '\n')
		if i < 0 {
			out.WriteString(s)
			break
		}
		out.WriteString(s[:i+1])
		s = s[i+1:]
		d.atLineBeg = true
	}
	return out.String()
}

// Interrupt records that a non-string part sits in the middle of a line.
func (d *Dedenter) Interrupt() {
	d.atLineBeg = false
}

func (d *Dedenter) stripIndent(s string) string {
	col := 0
	i := 0
	for i < len(s) && col < d.level {
		switch s[i] {
		case ' ':
			col++
		case '\t':
			next := (col/tabWidth + 1) * tabWidth
			if next > d.level {
				return s[i:]
			}
			col = next
		default:
			return s[i:]
		}
		i++
	}
	return s[i:]
}

func (d *Dedenter) dedentParts(parts []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(parts))
	for _, p := range parts {
		s, ok := p.(*ast.Str)
		if !ok {
			d.Interrupt()
			out = append(out, p)
			continue
		}
		v := d.Dedent(s.Value)
		if v == "" {
			continue
		}
		out = append(out, &ast.Str{Span: s.Span, Value: v})
	}
	return out
}
