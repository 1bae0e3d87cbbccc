package lexer

import (
	"errors"
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2"
	plexer "github.com/alecthomas/participle/v2/lexer"
)

func TestParticipleSymbols(t *testing.T) {
	syms := (&Definition{}).Symbols()
	if syms["EOF"] != plexer.EOF {
		t.Errorf("EOF must map to participle EOF, got %d", syms["EOF"])
	}
	if syms["tINTEGER"] != ParticipleType(TokInteger) {
		t.Errorf("unexpected tINTEGER mapping %d", syms["tINTEGER"])
	}
	if len(syms) != int(tokenTypeCount) {
		t.Errorf("expected %d symbols, got %d", tokenTypeCount, len(syms))
	}
}

func TestParticipleStream(t *testing.T) {
	lex, err := (&Definition{}).Lex("stream.rb", strings.NewReader("foo 42"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	want := []plexer.TokenType{ParticipleType(TokIdentifier), ParticipleType(TokInteger), plexer.EOF}
	for i, w := range want {
		tok, err := lex.Next()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Type != w {
			t.Errorf("token %d: expected type %d, got %d", i, w, tok.Type)
		}
	}
	tok, _ := lex.Next()
	if tok.Pos.Filename != "stream.rb" || tok.Pos.Offset != 6 {
		t.Errorf("unexpected EOF position %+v", tok.Pos)
	}
}

func TestParticipleFatal(t *testing.T) {
	lex, _ := (&Definition{}).LexString("bad.rb", `"open`)
	_, err := lex.Next()
	if err == nil {
		t.Fatal("expected an error for an unterminated string")
	}
	var perr *plexer.Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected a participle lexer error, got %T", err)
	}
	if !strings.HasPrefix(perr.Msg, "E_UNTERMINATED: ") || perr.Pos.Filename != "bad.rb" {
		t.Errorf("unexpected error %+v", perr)
	}
}

type intList struct {
	Values []string `parser:"@tINTEGER*"`
}

func TestParticipleGrammar(t *testing.T) {
	parser := participle.MustBuild[intList](participle.Lexer(&Definition{}))
	list, err := parser.ParseString("ints.rb", "1 2 3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if strings.Join(list.Values, ",") != "1,2,3" {
		t.Errorf("unexpected values %v", list.Values)
	}
}
