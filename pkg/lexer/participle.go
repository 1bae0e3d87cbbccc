package lexer

import (
	"io"
	"unicode/utf8"

	plexer "github.com/alecthomas/participle/v2/lexer"

	"github.com/thomasrohde/rubyfront/pkg/ast"
)

// Definition exposes the lexer as a participle lexer definition so that
// participle grammars can consume the disambiguated token stream. Grammar
// rules refer to tokens by their reference names, e.g. @tINTEGER.
type Definition struct {
	Options []Option
}

var (
	_ plexer.Definition       = (*Definition)(nil)
	_ plexer.StringDefinition = (*Definition)(nil)
)

// ParticipleType maps a TokenType into participle's negative token space.
// TokEOF maps onto participle's EOF.
func ParticipleType(t TokenType) plexer.TokenType {
	return plexer.TokenType(-int(t) - 1)
}

func (d *Definition) Symbols() map[string]plexer.TokenType {
	syms := make(map[string]plexer.TokenType, int(tokenTypeCount))
	for t := TokEOF; t < tokenTypeCount; t++ {
		syms[t.String()] = ParticipleType(t)
	}
	return syms
}

func (d *Definition) Lex(filename string, r io.Reader) (plexer.Lexer, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return d.LexString(filename, string(src))
}

func (d *Definition) LexString(filename string, input string) (plexer.Lexer, error) {
	opts := append([]Option{WithFilename(filename)}, d.Options...)
	return &participleLexer{lx: New(input, opts...)}, nil
}

type participleLexer struct {
	lx *Lexer
}

func (p *participleLexer) Next() (plexer.Token, error) {
	tok, ok := p.lx.Advance()
	if ok {
		return plexer.Token{Type: ParticipleType(tok.Type), Value: tok.Value, Pos: p.position(tok.Span)}, nil
	}
	if d := p.lx.Fatal(); d != nil {
		var pos plexer.Position
		if d.Span != nil {
			pos = p.position(*d.Span)
		}
		return plexer.Token{}, &plexer.Error{Msg: d.Code + ": " + d.Message, Pos: pos}
	}
	end := len(p.lx.cur.src)
	return plexer.Token{Type: plexer.EOF, Pos: p.position(p.lx.cur.span(end, end))}, nil
}

func (p *participleLexer) position(span ast.Span) plexer.Position {
	return plexer.Position{
		Filename: span.File,
		Offset:   p.lx.cur.offset(span.StartLine, span.StartCol),
		Line:     span.StartLine,
		Column:   span.StartCol,
	}
}

// offset converts a 1-based line and rune column back to a byte offset.
func (c *cursor) offset(line, col int) int {
	if line < 1 || line > len(c.lineStarts) {
		return len(c.src)
	}
	off := c.lineStarts[line-1]
	for i := 1; i < col && off < len(c.src); i++ {
		_, size := utf8.DecodeRuneInString(c.src[off:])
		off += size
	}
	return off
}
