package lexer

import (
	"regexp"
	"sync"
)

// action pairs a pattern with the procedure run when it wins the longest
// match. Actions with a scan function match procedurally.
type action struct {
	name string
	re   *regexp.Regexp
	scan func(rest string, lit *literal) int
	proc func(lx *Lexer)
}

func (a *action) matchLen(rest string, lit *literal) int {
	if a.scan != nil {
		return a.scan(rest, lit)
	}
	loc := a.re.FindStringIndex(rest)
	if loc == nil {
		return -1
	}
	return loc[1]
}

func rule(name, pattern string, proc func(*Lexer)) *action {
	re := regexp.MustCompile(`^(?:` + pattern + `)`)
	re.Longest()
	return &action{name: name, re: re, proc: proc}
}

func scanRule(name string, scan func(string, *literal) int, proc func(*Lexer)) *action {
	return &action{name: name, scan: scan, proc: proc}
}

// fallback rewinds and retries the same input in another state. It must be
// the last action of a state so that any specific rule wins the tie.
func fallback(to LexingState) *action {
	return rule("fallback_"+to.String(), `(?s:.)`, func(lx *Lexer) {
		lx.cur.hold()
		lx.nextState = to
	})
}

const (
	identStart = `[a-z_\x{80}-\x{10FFFF}]`
	anyStart   = `[A-Za-z_\x{80}-\x{10FFFF}]`
	identChar  = `[0-9A-Za-z_\x{80}-\x{10FFFF}]`

	patIdent    = identStart + identChar + `*`
	patConstant = `[A-Z]` + identChar + `*`
	patBareword = anyStart + identChar + `*`
	patFID      = anyStart + identChar + `*[?!]`
	patLabel    = anyStart + identChar + `*[?!]?:`
	patIVar     = `@` + anyStart + identChar + `*`
	patCVar     = `@@` + anyStart + identChar + `*`
	patGVar     = `\$` + anyStart + identChar + `*|\$-[0-9A-Za-z_]|\$[~*$?!@/\\;,.=:<>"0]`
	patBackRef  = "\\$[&`'+]"
	patNthRef   = `\$[1-9][0-9]*`

	patNumber = `(?:0[xX][0-9a-fA-F_]+|0[bB][01_]+|0[dD][0-9_]+|0[oO][0-7_]+|` +
		`[0-9][0-9_]*(?:\.[0-9][0-9_]*)?(?:[eE][-+]?[0-9][0-9_]*)?)(?:ri|r|i)?`

	patSpace   = `[ \t\r\f\v]+|\\\r?\n`
	patComment = `#[^\n]*`

	patHeredoc = "<<[-~]?(?:\"[^\"\\n]*\"|'[^'\\n]*'|`[^`\\n]*`|" + anyStart + identChar + "*)"
	patPercent = `%[qQwWiIsrx]?[^0-9A-Za-z \t\r\n]`
	patChar    = `\?(?:\\(?:u\{[0-9a-fA-F ]*\}|u[0-9a-fA-F]{4}|x[0-9a-fA-F]{1,2}|[0-7]{1,3}|C-.|M-.|c.|.)|[^ \t\r\n\\])`
	patEscape  = `\\(?:u\{[^}\n]*\}?|u[0-9a-fA-F]{0,4}|x[0-9a-fA-F]{0,2}|[0-7]{1,3}|C-(?s:.)|M-(?s:.)|c(?s:.)|(?s:.))`
	patOpAsgn  = `(?:\*\*|<<|>>|&&|\|\||[-+*/%&|^])=`
)

var (
	machinesOnce sync.Once
	machineTable map[LexingState][]*action
)

// machines returns the action table, building it on first use. The table
// is shared by every Lexer and never mutated after construction.
func machines() map[LexingState][]*action {
	machinesOnce.Do(func() {
		machineTable = buildMachines()
	})
	return machineTable
}

func buildMachines() map[LexingState][]*action {
	eof := rule("eof", `\z`, (*Lexer).onEOF)
	space := rule("space", patSpace, (*Lexer).skip)
	comment := rule("comment", patComment, (*Lexer).skip)
	keywordRe := alternation(keywords)
	symbolOps := alternation(operatorNames)

	variables := []*action{
		rule("ivar", patIVar, emitVariable(TokIVar)),
		rule("cvar", patCVar, emitVariable(TokCVar)),
		rule("gvar", patGVar, emitVariable(TokGVar)),
		rule("back_ref", patBackRef, emitVariable(TokBackRef)),
		rule("nth_ref", patNthRef, emitVariable(TokNthRef)),
	}

	m := make(map[LexingState][]*action)

	m[LineBegin] = []*action{
		eof,
		scanRule("embedded_doc", scanBeginDoc, (*Lexer).onEmbeddedDoc),
		rule("end_marker", `__END__(?:\r?\n|\z)`, (*Lexer).onEndMarker),
		rule("blank_line", `[ \t\r\f\v]*(?:#[^\n]*)?\n`, (*Lexer).skipNewline),
		fallback(ExprValue),
	}

	m[ExprValue] = []*action{
		eof,
		space,
		comment,
		rule("newline", `\n`, (*Lexer).skipNewline),
		fallback(ExprBeg),
	}

	m[ExprBeg] = []*action{
		eof,
		space,
		comment,
		rule("newline", `\n`, (*Lexer).skipNewline),
		rule("unary_num", `[-+][0-9]`, (*Lexer).onUnaryNum),
		rule("prefix_op", alternation(punctuationBegin), (*Lexer).onPunctBegin),
		rule("lambda", `->`, (*Lexer).onLambda),
		rule("lparen", `\(`, openParen(TokLParen)),
		rule("lbrack", `\[`, openBracket(TokLBrack)),
		rule("lbrace", `\{`, (*Lexer).onLBrace),
		rule("label", patLabel, (*Lexer).onLabel),
		rule("keyword", keywordRe, emitKeyword(true)),
		rule("bareword", patBareword+`[?!]?`, holdTo(ExprEnd)),
		rule("string", "[\"'`]", (*Lexer).onStringOpen),
		rule("percent", patPercent, (*Lexer).onPercentOpen),
		rule("regexp", `/`, (*Lexer).onRegexpOpen),
		rule("heredoc", patHeredoc, (*Lexer).onHeredocOpen),
		rule("symbol", `:`+patBareword+`[?!=]?`, (*Lexer).onSymbol),
		rule("symbol_var", `:(?:`+patCVar+`|`+patIVar+`|`+patGVar+`)`, (*Lexer).onSymbol),
		rule("symbol_op", `:(?:`+symbolOps+`)`, (*Lexer).onSymbol),
		rule("dsym", `:["']`, (*Lexer).onDSymOpen),
		rule("character", patChar, (*Lexer).onCharacter),
		fallback(ExprEnd),
	}

	m[ExprMid] = []*action{
		eof,
		space,
		comment,
		rule("newline", `\n`, (*Lexer).onNewline),
		rule("modifier", `(?:if|unless|while|until|rescue)\b`, holdTo(ExprEnd)),
		fallback(ExprBeg),
	}

	m[ExprCmdArg] = []*action{
		eof,
		fallback(ExprArg),
	}

	m[ExprArg] = []*action{
		eof,
		rule("space", `[ \t\r\f\v]+`, (*Lexer).skip),
		rule("paren_arg", `[ \t]+\(`, (*Lexer).onSpacedParen),
		rule("bracket_arg", `[ \t]+\[`, (*Lexer).onSpacedBracket),
		rule("unary_num_arg", `[ \t]+[-+][0-9]`, spaceThen(ExprBeg)),
		rule("unary_op_arg", `[ \t]+(?:-[^ \t\r\n=>0-9]|\+[^ \t\r\n=0-9]|\*[^ \t\r\n=*]|\*\*[^ \t\r\n=]|&[^ \t\r\n=&.]|::|:[^ \t\r\n:])`, spaceThen(ExprBeg)),
		rule("literal_arg", "[ \\t]*[\"'`]|[ \\t]+(?:/[^ \\t\\r\\n=]|%[qQwWiIsrx]?[^0-9A-Za-z \\t\\r\\n=]|<<[-~]?[\"'`A-Za-z_]|\\?[^ \\t\\r\\n])", spaceThen(ExprBeg)),
		rule("label", patLabel, (*Lexer).onLabel),
		fallback(ExprEnd),
	}

	m[ExprEndArg] = []*action{eof, fallback(ExprEnd)}

	m[ExprEndFn] = []*action{
		eof,
		rule("space", `[ \t\r\f\v]+`, (*Lexer).skip),
		rule("label", patLabel, (*Lexer).onLabel),
		fallback(ExprEnd),
	}

	m[ExprDot] = []*action{
		eof,
		space,
		comment,
		rule("newline", `\n`, (*Lexer).skipNewlineInPlace),
		rule("method", patBareword, (*Lexer).onMethodName),
		rule("method_fid", patFID, (*Lexer).onMethodName),
		fallback(ExprEnd),
	}

	m[ExprFName] = []*action{
		eof,
		space,
		comment,
		rule("def_self", `self\.`, (*Lexer).onDefSelf),
		rule("def_name", patBareword+`[?!=]?`, (*Lexer).onDefName),
		rule("def_operator", symbolOps, (*Lexer).onOperatorName),
		fallback(ExprEnd),
	}

	m[ExprClass] = []*action{
		eof,
		space,
		rule("singleton", `<<`, (*Lexer).onSingletonClass),
		fallback(ExprBeg),
	}

	m[ExprLabeled] = []*action{
		eof,
		rule("space", `[ \t\r\f\v]+`, (*Lexer).skip),
		rule("newline", `\n`, (*Lexer).onLabeledNewline),
		fallback(ExprBeg),
	}

	end := []*action{
		eof,
		space,
		comment,
		rule("newline", `\n`, (*Lexer).onNewline),
		rule("adjacent_string", `[ \t]*["']`, spaceThen(ExprBeg)),
		rule("number", patNumber, (*Lexer).onNumber),
		rule("keyword", keywordRe, emitKeyword(false)),
		rule("identifier", patIdent, (*Lexer).onIdentifier),
		rule("constant", patConstant, (*Lexer).onConstant),
		rule("fid", patFID, (*Lexer).onFID),
	}
	end = append(end, variables...)
	end = append(end,
		rule("op_asgn", patOpAsgn, (*Lexer).onOpAsgn),
		rule("operator", alternation(punctuation), (*Lexer).onPunct),
		rule("lparen", `\(`, openParen(TokLParen2)),
		rule("lbrack", `\[`, openBracket(TokLBrack2)),
		rule("lbrace", `\{`, (*Lexer).onLBrace),
		rule("rparen", `\)`, (*Lexer).onRParen),
		rule("rbrack", `\]`, (*Lexer).onRBrack),
		rule("rbrace", `\}`, (*Lexer).onRBrace),
		rule("unexpected", `(?s:.)`, (*Lexer).onUnexpected),
	)
	m[ExprEnd] = end

	m[StringBody] = []*action{
		rule("eof", `\z`, (*Lexer).onUnterminated),
		rule("escape", patEscape, (*Lexer).onEscape),
		rule("interp_begin", `#\{`, (*Lexer).onInterpBegin),
		rule("interp_var", `#(?:`+patCVar+`|`+patIVar+`|`+patGVar+`)`, (*Lexer).onInterpVar),
		rule("newline", `\n`, (*Lexer).onStringNewline),
		rule("space", `[ \t\r\f\v]+`, (*Lexer).onStringSpace),
		scanRule("text", plainRun, (*Lexer).onStringText),
		rule("char", `(?s:.)`, (*Lexer).onStringChar),
	}

	return m
}

// scanBeginDoc matches "=begin" at the start of a line when followed by
// whitespace or the end of input.
func scanBeginDoc(rest string, _ *literal) int {
	const marker = "=begin"
	if len(rest) < len(marker) || rest[:len(marker)] != marker {
		return -1
	}
	if len(rest) == len(marker) {
		return len(marker)
	}
	switch rest[len(marker)] {
	case ' ', '\t', '\r', '\n':
		return len(marker)
	}
	return -1
}
