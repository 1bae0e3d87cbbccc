package lexer

import (
	"regexp"
	"sort"
	"strings"
)

// keyword describes one reserved word. beg is emitted at the start of an
// expression, mod everywhere else; next is the state that follows.
type keyword struct {
	beg, mod TokenType
	next     LexingState
}

var keywords = map[string]keyword{
	// with value
	"and":    {TokKwAnd, TokKwAnd, ExprValue},
	"begin":  {TokKwBegin, TokKwBegin, ExprValue},
	"case":   {TokKwCase, TokKwCase, ExprValue},
	"do":     {TokKwDo, TokKwDo, ExprValue},
	"else":   {TokKwElse, TokKwElse, ExprValue},
	"elsif":  {TokKwElsif, TokKwElsif, ExprValue},
	"ensure": {TokKwEnsure, TokKwEnsure, ExprValue},
	"for":    {TokKwFor, TokKwFor, ExprValue},
	"if":     {TokKwIf, TokKwIfMod, ExprValue},
	"in":     {TokKwIn, TokKwIn, ExprValue},
	"module": {TokKwModule, TokKwModule, ExprValue},
	"or":     {TokKwOr, TokKwOr, ExprValue},
	"then":   {TokKwThen, TokKwThen, ExprValue},
	"unless": {TokKwUnless, TokKwUnlessMod, ExprValue},
	"until":  {TokKwUntil, TokKwUntilMod, ExprValue},
	"when":   {TokKwWhen, TokKwWhen, ExprValue},
	"while":  {TokKwWhile, TokKwWhileMod, ExprValue},

	"class": {TokKwClass, TokKwClass, ExprClass},

	// with mid
	"break":  {TokKwBreak, TokKwBreak, ExprMid},
	"next":   {TokKwNext, TokKwNext, ExprMid},
	"rescue": {TokKwRescue, TokKwRescueMod, ExprMid},
	"return": {TokKwReturn, TokKwReturn, ExprMid},

	// with arg
	"defined?": {TokKwDefined, TokKwDefined, ExprArg},
	"not":      {TokKwNot, TokKwNot, ExprArg},
	"super":    {TokKwSuper, TokKwSuper, ExprArg},
	"yield":    {TokKwYield, TokKwYield, ExprArg},

	// with fname
	"alias": {TokKwAlias, TokKwAlias, ExprFName},
	"def":   {TokKwDef, TokKwDef, ExprFName},
	"undef": {TokKwUndef, TokKwUndef, ExprFName},

	// with end
	"BEGIN":        {TokKwLBegin, TokKwLBegin, ExprEnd},
	"END":          {TokKwLEnd, TokKwLEnd, ExprEnd},
	"end":          {TokKwEnd, TokKwEnd, ExprEnd},
	"false":        {TokKwFalse, TokKwFalse, ExprEnd},
	"nil":          {TokKwNil, TokKwNil, ExprEnd},
	"redo":         {TokKwRedo, TokKwRedo, ExprEnd},
	"retry":        {TokKwRetry, TokKwRetry, ExprEnd},
	"self":         {TokKwSelf, TokKwSelf, ExprEnd},
	"true":         {TokKwTrue, TokKwTrue, ExprEnd},
	"__ENCODING__": {TokKwEncoding, TokKwEncoding, ExprEnd},
	"__FILE__":     {TokKwFile, TokKwFile, ExprEnd},
	"__LINE__":     {TokKwLine, TokKwLine, ExprEnd},
}

// punctuation holds operators as they appear after an operand.
var punctuation = map[string]TokenType{
	"**": TokPow, "*": TokStar2, "&": TokAmper2, "&&": TokAndOp,
	"||": TokOrOp, "|": TokPipe, "^": TokCaret, "+": TokPlus,
	"-": TokMinus, "/": TokDivide, "%": TokPercent, "~": TokTilde,
	"!": TokBang, "!=": TokNeq, "!~": TokNMatch, "=": TokEql,
	"==": TokEq, "===": TokEqq, "=~": TokMatch, "=>": TokAssoc,
	"<": TokLt, "<=": TokLeq, "<=>": TokCmp, "<<": TokLShft,
	">": TokGt, ">=": TokGeq, ">>": TokRShft, "..": TokDot2,
	"...": TokDot3, "?": TokEh, ":": TokColon, ",": TokComma,
	";": TokSemi, ".": TokDot, "&.": TokAndDot, "::": TokColon2,
	"->": TokLambda,
}

// punctuationBegin holds the prefix forms used where an operand is
// expected.
var punctuationBegin = map[string]TokenType{
	"-": TokUMinus, "+": TokUPlus, "*": TokStar, "**": TokDStar,
	"&": TokAmper, "::": TokColon3, "!": TokBang, "~": TokTilde,
	"..": TokDot2, "...": TokDot3,
}

// operatorNames are the operators that may follow def or a symbol colon.
var operatorNames = map[string]TokenType{
	"**": TokPow, "*": TokStar2, "&": TokAmper2, "|": TokPipe,
	"^": TokCaret, "+": TokPlus, "-": TokMinus, "/": TokDivide,
	"%": TokPercent, "~": TokTilde, "!": TokBang, "!=": TokNeq,
	"!~": TokNMatch, "==": TokEq, "===": TokEqq, "=~": TokMatch,
	"<": TokLt, "<=": TokLeq, "<=>": TokCmp, "<<": TokLShft,
	">": TokGt, ">=": TokGeq, ">>": TokRShft,
	"[]": TokAref, "[]=": TokAset, "-@": TokUMinus, "+@": TokUPlus,
	"!@": TokBang, "~@": TokTilde,
}

// alternation builds a regexp alternation matching any key of m, longest
// keys first.
func alternation[V any](m map[string]V) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for i, k := range keys {
		keys[i] = regexp.QuoteMeta(k)
	}
	return strings.Join(keys, "|")
}
