package parser_test

import (
	"testing"

	"github.com/thomasrohde/rubyfront/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; invalid input yields diagnostics and dummy nodes.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Literals
		`nil true false self 42 -1 1.5 3r 2i 1.5ri`,
		`"abc" 'abc' "a#{b}c" "#@x" :sym :"dsym#{1}" ?a`,
		`%w[a b] %i(x y) %W[a#{1} b] /ab+/mix`,
		"<<~EOS\n    a\n      b\n    EOS\n",
		// Assignment
		`x = 1; x -1`,
		`a.b = 1; a[1] = 2; x ||= 3; @a += 1`,
		`self = 1; nil = 2; $1 = 3; $& = 4`,
		// Calls and blocks
		`foo 1, a: 2 do |x| x end`,
		`foo.bar(1, *rest) { |a, b = 1| a }`,
		`a&.b::C::D`,
		`->(x) { x }; -> do end`,
		// Definitions
		"def foo(a, b = 1, *c, d:, e: 2, &f)\n  a\nend",
		"def self.foo; A = 1; end",
		"def foo a, b\n  b\nend",
		// Edge cases
		``,
		`(`,
		`)`,
		`def`,
		`foo(`,
		`[1, 2`,
		`{a: }`,
		`"unterminated`,
		`"#{`,
		`-> {`,
		`foo do |`,
		"\x00\xff",
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("Parse panicked on input %q: %v", input, r)
				}
			}()
			node, _ := parser.Parse(input, "fuzz.rb")
			if node == nil {
				t.Fatalf("Parse returned a nil tree for %q", input)
			}
		}()
	})
}
