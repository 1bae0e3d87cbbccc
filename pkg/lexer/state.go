package lexer

import "fmt"

// LexingState is the scanning mode of the lexer. Each state owns an ordered
// action list; transitions between states are data assigned by actions.
type LexingState int

const (
	stateUnset LexingState = iota

	LineBegin
	ExprBeg
	ExprValue
	ExprMid
	ExprArg
	ExprCmdArg
	ExprEnd
	ExprEndArg
	ExprEndFn
	ExprFName
	ExprDot
	ExprClass
	ExprLabeled

	// StringBody scans the innermost open literal.
	StringBody
)

var stateNames = map[LexingState]string{
	stateUnset:  "unset",
	LineBegin:   "line_begin",
	ExprBeg:     "expr_beg",
	ExprValue:   "expr_value",
	ExprMid:     "expr_mid",
	ExprArg:     "expr_arg",
	ExprCmdArg:  "expr_cmdarg",
	ExprEnd:     "expr_end",
	ExprEndArg:  "expr_endarg",
	ExprEndFn:   "expr_endfn",
	ExprFName:   "expr_fname",
	ExprDot:     "expr_dot",
	ExprClass:   "expr_class",
	ExprLabeled: "expr_labeled",
	StringBody:  "string_body",
}

func (s LexingState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// ParseState returns the state with the given snake_case name.
func ParseState(name string) (LexingState, bool) {
	for st, n := range stateNames {
		if n == name && st != stateUnset {
			return st, true
		}
	}
	return stateUnset, false
}
