// Package ast defines the canonical node set produced by the builder.
package ast

import "github.com/shopspring/decimal"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Join returns the smallest span covering both s and o.
func (s Span) Join(o Span) Span {
	if s.StartLine == 0 {
		return o
	}
	if o.StartLine == 0 {
		return s
	}
	out := s
	if o.StartLine < out.StartLine || (o.StartLine == out.StartLine && o.StartCol < out.StartCol) {
		out.StartLine, out.StartCol = o.StartLine, o.StartCol
	}
	if o.EndLine > out.EndLine || (o.EndLine == out.EndLine && o.EndCol > out.EndCol) {
		out.EndLine, out.EndCol = o.EndLine, o.EndCol
	}
	return out
}

// Node is the interface implemented by all AST nodes. The set is closed:
// only types in this package implement it.
type Node interface {
	Kind() string
	NodeSpan() Span
	node() // sealed marker
}

// --- Empty and placeholder ---

// Null marks an empty statement body.
type Null struct {
	Span Span
}

func (n *Null) Kind() string   { return "null" }
func (n *Null) NodeSpan() Span { return n.Span }
func (n *Null) node()          {}

// Dummy stands in for a node the builder rejected after reporting a diagnostic.
type Dummy struct {
	Span Span
}

func (n *Dummy) Kind() string   { return "dummy" }
func (n *Dummy) NodeSpan() Span { return n.Span }
func (n *Dummy) node()          {}

// --- Singleton literals ---

type Nil struct {
	Span Span
}

func (n *Nil) Kind() string   { return "nil" }
func (n *Nil) NodeSpan() Span { return n.Span }
func (n *Nil) node()          {}

type True struct {
	Span Span
}

func (n *True) Kind() string   { return "true" }
func (n *True) NodeSpan() Span { return n.Span }
func (n *True) node()          {}

type False struct {
	Span Span
}

func (n *False) Kind() string   { return "false" }
func (n *False) NodeSpan() Span { return n.Span }
func (n *False) node()          {}

type Self struct {
	Span Span
}

func (n *Self) Kind() string   { return "self" }
func (n *Self) NodeSpan() Span { return n.Span }
func (n *Self) node()          {}

// --- Numeric literals ---

type Int struct {
	Span  Span
	Value int64
}

func (n *Int) Kind() string   { return "int" }
func (n *Int) NodeSpan() Span { return n.Span }
func (n *Int) node()          {}

type Float struct {
	Span  Span
	Value float64
}

func (n *Float) Kind() string   { return "float" }
func (n *Float) NodeSpan() Span { return n.Span }
func (n *Float) node()          {}

// Rational holds an exact value such as 3r or 1.5r.
type Rational struct {
	Span  Span
	Value decimal.Decimal
}

func (n *Rational) Kind() string   { return "rational" }
func (n *Rational) NodeSpan() Span { return n.Span }
func (n *Rational) node()          {}

// Complex is an imaginary literal; Imag is the Int, Float or Rational
// coefficient of i.
type Complex struct {
	Span Span
	Imag Node
}

func (n *Complex) Kind() string   { return "complex" }
func (n *Complex) NodeSpan() Span { return n.Span }
func (n *Complex) node()          {}

// --- Strings and symbols ---

type Str struct {
	Span  Span
	Value string
}

func (n *Str) Kind() string   { return "str" }
func (n *Str) NodeSpan() Span { return n.Span }
func (n *Str) node()          {}

// DStr is an interpolated string.
type DStr struct {
	Span  Span
	Parts []Node
}

func (n *DStr) Kind() string   { return "dstr" }
func (n *DStr) NodeSpan() Span { return n.Span }
func (n *DStr) node()          {}

type XStr struct {
	Span  Span
	Parts []Node
}

func (n *XStr) Kind() string   { return "xstr" }
func (n *XStr) NodeSpan() Span { return n.Span }
func (n *XStr) node()          {}

type Sym struct {
	Span Span
	Name string
}

func (n *Sym) Kind() string   { return "sym" }
func (n *Sym) NodeSpan() Span { return n.Span }
func (n *Sym) node()          {}

type DSym struct {
	Span  Span
	Parts []Node
}

func (n *DSym) Kind() string   { return "dsym" }
func (n *DSym) NodeSpan() Span { return n.Span }
func (n *DSym) node()          {}

type Regexp struct {
	Span    Span
	Parts   []Node
	Options *RegOpt
}

func (n *Regexp) Kind() string   { return "regexp" }
func (n *Regexp) NodeSpan() Span { return n.Span }
func (n *Regexp) node()          {}

// RegOpt holds sorted, de-duplicated regexp flags.
type RegOpt struct {
	Span    Span
	Options string
}

func (n *RegOpt) Kind() string   { return "regopt" }
func (n *RegOpt) NodeSpan() Span { return n.Span }
func (n *RegOpt) node()          {}

// --- Collections ---

type Array struct {
	Span     Span
	Elements []Node
}

func (n *Array) Kind() string   { return "array" }
func (n *Array) NodeSpan() Span { return n.Span }
func (n *Array) node()          {}

type Pair struct {
	Span  Span
	Key   Node
	Value Node
}

func (n *Pair) Kind() string   { return "pair" }
func (n *Pair) NodeSpan() Span { return n.Span }
func (n *Pair) node()          {}

type Hash struct {
	Span  Span
	Pairs []Node
}

func (n *Hash) Kind() string   { return "hash" }
func (n *Hash) NodeSpan() Span { return n.Span }
func (n *Hash) node()          {}

type Splat struct {
	Span  Span
	Value Node
}

func (n *Splat) Kind() string   { return "splat" }
func (n *Splat) NodeSpan() Span { return n.Span }
func (n *Splat) node()          {}

type IRange struct {
	Span Span
	Lo   Node
	Hi   Node
}

func (n *IRange) Kind() string   { return "irange" }
func (n *IRange) NodeSpan() Span { return n.Span }
func (n *IRange) node()          {}

type ERange struct {
	Span Span
	Lo   Node
	Hi   Node
}

func (n *ERange) Kind() string   { return "erange" }
func (n *ERange) NodeSpan() Span { return n.Span }
func (n *ERange) node()          {}

// --- Variables and constants ---

// Ident is a bare word whose role (local read or call) is not yet decided.
// The builder resolves it through Accessible or Assignable.
type Ident struct {
	Span Span
	Name string
}

func (n *Ident) Kind() string   { return "ident" }
func (n *Ident) NodeSpan() Span { return n.Span }
func (n *Ident) node()          {}

type LVar struct {
	Span Span
	Name string
}

func (n *LVar) Kind() string   { return "lvar" }
func (n *LVar) NodeSpan() Span { return n.Span }
func (n *LVar) node()          {}

type IVar struct {
	Span Span
	Name string
}

func (n *IVar) Kind() string   { return "ivar" }
func (n *IVar) NodeSpan() Span { return n.Span }
func (n *IVar) node()          {}

type GVar struct {
	Span Span
	Name string
}

func (n *GVar) Kind() string   { return "gvar" }
func (n *GVar) NodeSpan() Span { return n.Span }
func (n *GVar) node()          {}

type CVar struct {
	Span Span
	Name string
}

func (n *CVar) Kind() string   { return "cvar" }
func (n *CVar) NodeSpan() Span { return n.Span }
func (n *CVar) node()          {}

// BackRef is one of $&, $`, $' or $+.
type BackRef struct {
	Span Span
	Name string
}

func (n *BackRef) Kind() string   { return "back_ref" }
func (n *BackRef) NodeSpan() Span { return n.Span }
func (n *BackRef) node()          {}

// NthRef is a numbered match group reference such as $1.
type NthRef struct {
	Span Span
	N    int
}

func (n *NthRef) Kind() string   { return "nth_ref" }
func (n *NthRef) NodeSpan() Span { return n.Span }
func (n *NthRef) node()          {}

// Const is a constant read; Scope is nil, *CBase or another constant path.
type Const struct {
	Span  Span
	Scope Node
	Name  string
}

func (n *Const) Kind() string   { return "const" }
func (n *Const) NodeSpan() Span { return n.Span }
func (n *Const) node()          {}

// CBase is the top-level scope of ::Foo.
type CBase struct {
	Span Span
}

func (n *CBase) Kind() string   { return "cbase" }
func (n *CBase) NodeSpan() Span { return n.Span }
func (n *CBase) node()          {}

// --- Pseudo-variables ---

type File struct {
	Span Span
}

func (n *File) Kind() string   { return "__FILE__" }
func (n *File) NodeSpan() Span { return n.Span }
func (n *File) node()          {}

type Line struct {
	Span Span
}

func (n *Line) Kind() string   { return "__LINE__" }
func (n *Line) NodeSpan() Span { return n.Span }
func (n *Line) node()          {}

type Encoding struct {
	Span Span
}

func (n *Encoding) Kind() string   { return "__ENCODING__" }
func (n *Encoding) NodeSpan() Span { return n.Span }
func (n *Encoding) node()          {}

// --- Assignment ---
//
// Write nodes carry a nil Value until Assign fills it in. Inside an
// operator-assignment the target keeps a nil Value.

type LVasgn struct {
	Span  Span
	Name  string
	Value Node
}

func (n *LVasgn) Kind() string   { return "lvasgn" }
func (n *LVasgn) NodeSpan() Span { return n.Span }
func (n *LVasgn) node()          {}

type IVasgn struct {
	Span  Span
	Name  string
	Value Node
}

func (n *IVasgn) Kind() string   { return "ivasgn" }
func (n *IVasgn) NodeSpan() Span { return n.Span }
func (n *IVasgn) node()          {}

type GVasgn struct {
	Span  Span
	Name  string
	Value Node
}

func (n *GVasgn) Kind() string   { return "gvasgn" }
func (n *GVasgn) NodeSpan() Span { return n.Span }
func (n *GVasgn) node()          {}

type CVasgn struct {
	Span  Span
	Name  string
	Value Node
}

func (n *CVasgn) Kind() string   { return "cvasgn" }
func (n *CVasgn) NodeSpan() Span { return n.Span }
func (n *CVasgn) node()          {}

type Casgn struct {
	Span  Span
	Scope Node
	Name  string
	Value Node
}

func (n *Casgn) Kind() string   { return "casgn" }
func (n *Casgn) NodeSpan() Span { return n.Span }
func (n *Casgn) node()          {}

type OpAsgn struct {
	Span     Span
	Target   Node
	Operator string
	Value    Node
}

func (n *OpAsgn) Kind() string   { return "op_asgn" }
func (n *OpAsgn) NodeSpan() Span { return n.Span }
func (n *OpAsgn) node()          {}

type AndAsgn struct {
	Span   Span
	Target Node
	Value  Node
}

func (n *AndAsgn) Kind() string   { return "and_asgn" }
func (n *AndAsgn) NodeSpan() Span { return n.Span }
func (n *AndAsgn) node()          {}

type OrAsgn struct {
	Span   Span
	Target Node
	Value  Node
}

func (n *OrAsgn) Kind() string   { return "or_asgn" }
func (n *OrAsgn) NodeSpan() Span { return n.Span }
func (n *OrAsgn) node()          {}

// --- Logical operators ---

type And struct {
	Span  Span
	Left  Node
	Right Node
}

func (n *And) Kind() string   { return "and" }
func (n *And) NodeSpan() Span { return n.Span }
func (n *And) node()          {}

type Or struct {
	Span  Span
	Left  Node
	Right Node
}

func (n *Or) Kind() string   { return "or" }
func (n *Or) NodeSpan() Span { return n.Span }
func (n *Or) node()          {}

// --- Loops ---

// While is a pre-condition loop. Until runs while Cond is false.
type While struct {
	Span Span
	Cond Node
	Body Node
}

func (n *While) Kind() string   { return "while" }
func (n *While) NodeSpan() Span { return n.Span }
func (n *While) node()          {}

type Until struct {
	Span Span
	Cond Node
	Body Node
}

func (n *Until) Kind() string   { return "until" }
func (n *Until) NodeSpan() Span { return n.Span }
func (n *Until) node()          {}

// --- Calls ---

// Send is a method call. Receiver is nil for calls on the implicit self.
type Send struct {
	Span     Span
	Receiver Node
	Method   string
	Args     []Node
}

func (n *Send) Kind() string   { return "send" }
func (n *Send) NodeSpan() Span { return n.Span }
func (n *Send) node()          {}

// CSend is a safe-navigation call (recv&.meth).
type CSend struct {
	Span     Span
	Receiver Node
	Method   string
	Args     []Node
}

func (n *CSend) Kind() string   { return "csend" }
func (n *CSend) NodeSpan() Span { return n.Span }
func (n *CSend) node()          {}

// --- Definitions ---

type Def struct {
	Span Span
	Name string
	Args *Args
	Body Node
}

func (n *Def) Kind() string   { return "def" }
func (n *Def) NodeSpan() Span { return n.Span }
func (n *Def) node()          {}

// Defs is a singleton method definition such as "def self.name".
type Defs struct {
	Span      Span
	Singleton Node
	Name      string
	Args      *Args
	Body      Node
}

func (n *Defs) Kind() string   { return "defs" }
func (n *Defs) NodeSpan() Span { return n.Span }
func (n *Defs) node()          {}

type Args struct {
	Span Span
	Args []Node
}

func (n *Args) Kind() string   { return "args" }
func (n *Args) NodeSpan() Span { return n.Span }
func (n *Args) node()          {}

type Arg struct {
	Span Span
	Name string
}

func (n *Arg) Kind() string   { return "arg" }
func (n *Arg) NodeSpan() Span { return n.Span }
func (n *Arg) node()          {}

type OptArg struct {
	Span    Span
	Name    string
	Default Node
}

func (n *OptArg) Kind() string   { return "optarg" }
func (n *OptArg) NodeSpan() Span { return n.Span }
func (n *OptArg) node()          {}

type KwArg struct {
	Span Span
	Name string
}

func (n *KwArg) Kind() string   { return "kwarg" }
func (n *KwArg) NodeSpan() Span { return n.Span }
func (n *KwArg) node()          {}

type KwOptArg struct {
	Span    Span
	Name    string
	Default Node
}

func (n *KwOptArg) Kind() string   { return "kwoptarg" }
func (n *KwOptArg) NodeSpan() Span { return n.Span }
func (n *KwOptArg) node()          {}

// RestArg is *name; Name is empty for a bare *.
type RestArg struct {
	Span Span
	Name string
}

func (n *RestArg) Kind() string   { return "restarg" }
func (n *RestArg) NodeSpan() Span { return n.Span }
func (n *RestArg) node()          {}

type BlockArg struct {
	Span Span
	Name string
}

func (n *BlockArg) Kind() string   { return "blockarg" }
func (n *BlockArg) NodeSpan() Span { return n.Span }
func (n *BlockArg) node()          {}

// Lambda is the call target of a -> literal.
type Lambda struct {
	Span Span
}

func (n *Lambda) Kind() string   { return "lambda" }
func (n *Lambda) NodeSpan() Span { return n.Span }
func (n *Lambda) node()          {}

type Block struct {
	Span Span
	Call Node
	Args *Args
	Body Node
}

func (n *Block) Kind() string   { return "block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) node()          {}

// --- Sequencing ---

// Begin wraps two or more statements, or the body of an interpolation.
type Begin struct {
	Span Span
	Body []Node
}

func (n *Begin) Kind() string   { return "begin" }
func (n *Begin) NodeSpan() Span { return n.Span }
func (n *Begin) node()          {}
