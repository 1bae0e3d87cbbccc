package lexer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/rubyfront/pkg/diagnostics"
)

// ----------------------------------------------------------------------------
// Emission
// ----------------------------------------------------------------------------

func (lx *Lexer) emit(t TokenType, value string, from, to int) {
	lx.push(Token{Type: t, Value: value, Span: lx.cur.span(from, to)})
}

func (lx *Lexer) push(tok Token) {
	lx.queue = append(lx.queue, tok)
	if lx.debug {
		lx.logger.Debug("emit", "token", tok.Type.String(), "value", tok.Value, "state", lx.state.String())
	}
}

func (lx *Lexer) emitText(t TokenType) {
	lx.emit(t, lx.cur.text(), lx.cur.ts, lx.cur.te)
}

// flagBreaking ends the current exec loop once the running action returns.
func (lx *Lexer) flagBreaking() {
	lx.breaking = true
}

func (lx *Lexer) errorAt(code, msg string, from, to int) {
	span := lx.cur.span(from, to)
	lx.reporter.Report(diagnostics.Error, code, &span, msg)
	if lx.firstError == nil {
		d := diagnostics.MakeDiag(code, msg, &span, "")
		lx.firstError = &d
	}
}

// fatalAt reports a fatal diagnostic and halts the lexer. Tokens still
// queued are dropped.
func (lx *Lexer) fatalAt(code, msg string, from, to int) {
	span := lx.cur.span(from, to)
	lx.reporter.Report(diagnostics.Fatal, code, &span, msg)
	if lx.fatalDiag == nil {
		lx.fatalDiag = &diagnostics.Diagnostic{Severity: diagnostics.Fatal, Code: code, Message: msg, Span: &span}
	}
	lx.queue = nil
	lx.halted = true
	lx.flagBreaking()
}

func (lx *Lexer) topLiteral() *literal {
	if len(lx.literals) == 0 {
		return nil
	}
	return lx.literals[len(lx.literals)-1]
}

func (lx *Lexer) popLiteral() {
	lx.literals = lx.literals[:len(lx.literals)-1]
}

// ----------------------------------------------------------------------------
// Layout
// ----------------------------------------------------------------------------

func (lx *Lexer) skip() {}

func (lx *Lexer) onEOF() {
	if lit := lx.topLiteral(); lit != nil {
		lx.unterminated(lit)
		return
	}
	lx.halted = true
	lx.flagBreaking()
}

func (lx *Lexer) onUnterminated() {
	lit := lx.topLiteral()
	if lit == nil {
		lx.onEOF()
		return
	}
	lx.unterminated(lit)
}

func (lx *Lexer) unterminated(lit *literal) {
	lx.fatalAt(diagnostics.EUnterminated,
		fmt.Sprintf("unterminated %s meets end of file", lit.describe()),
		lit.start, len(lx.cur.src))
}

// jumpHerebody moves past heredoc bodies whose openers sit on the line
// that just ended.
func (lx *Lexer) jumpHerebody() {
	if lx.herebodyS >= 0 {
		lx.cur.pos = lx.herebodyS
		lx.herebodyS = -1
	}
}

func (lx *Lexer) skipNewline() {
	lx.jumpHerebody()
	lx.nextState = LineBegin
}

func (lx *Lexer) skipNewlineInPlace() {
	lx.jumpHerebody()
}

func (lx *Lexer) onNewline() {
	nl := lx.cur.ts
	lx.jumpHerebody()
	if lx.leadingDot(lx.cur.pos) {
		return
	}
	lx.emit(TokNL, "\n", nl, nl+1)
	lx.inKwarg = false
	lx.nextState = LineBegin
	lx.flagBreaking()
}

func (lx *Lexer) onLabeledNewline() {
	if lx.inKwarg {
		lx.onNewline()
		return
	}
	lx.skipNewline()
}

// leadingDot reports whether the next code line, skipping comment lines,
// continues the expression with "." or "&.".
func (lx *Lexer) leadingDot(i int) bool {
	src := lx.cur.src
	for i < len(src) {
		for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
			i++
		}
		if i >= len(src) {
			return false
		}
		switch src[i] {
		case '#':
			i = lx.cur.lineEnd(i)
			continue
		case '&':
			return lx.cur.byteAt(i+1) == '.'
		case '.':
			return lx.cur.byteAt(i+1) != '.'
		}
		return false
	}
	return false
}

func (lx *Lexer) onEmbeddedDoc() {
	src := lx.cur.src
	for i := lx.cur.lineEnd(lx.cur.ts); i < len(src); {
		end := lx.cur.lineEnd(i)
		line := src[i:end]
		if strings.HasPrefix(line, "=end") && (len(line) == 4 || isSpace(rune(line[4]))) {
			lx.cur.pos = end
			return
		}
		i = end
	}
	lx.fatalAt(diagnostics.EUnterminated, "embedded document meets end of file", lx.cur.ts, len(src))
}

func (lx *Lexer) onEndMarker() {
	lx.cur.pos = len(lx.cur.src)
}

func (lx *Lexer) onUnexpected() {
	lx.errorAt(diagnostics.ELex, fmt.Sprintf("unexpected character %q", lx.cur.text()), lx.cur.ts, lx.cur.te)
}

// ----------------------------------------------------------------------------
// State helpers
// ----------------------------------------------------------------------------

func holdTo(to LexingState) func(*Lexer) {
	return func(lx *Lexer) {
		lx.cur.hold()
		lx.nextState = to
	}
}

// spaceThen consumes the leading blanks of the match and rescans the rest
// in another state.
func spaceThen(to LexingState) func(*Lexer) {
	return func(lx *Lexer) {
		i := lx.cur.ts
		for i < lx.cur.te && (lx.cur.src[i] == ' ' || lx.cur.src[i] == '\t') {
			i++
		}
		lx.cur.pos = i
		lx.nextState = to
	}
}

// argState picks the state after a bare name: local variables are operands,
// anything else may be a method call taking arguments.
func (lx *Lexer) argState(name string) LexingState {
	if lx.env != nil && lx.env.Declared(name) {
		return ExprEnd
	}
	if lx.commandState {
		return ExprCmdArg
	}
	return ExprArg
}

// ----------------------------------------------------------------------------
// Numbers
// ----------------------------------------------------------------------------

func (lx *Lexer) onNumber() {
	ts, te := lx.cur.ts, lx.cur.te
	text := lx.cur.text()
	negative := lx.negativeNum
	lx.negativeNum = false
	digits, suffix := splitNumberSuffix(text)
	if strings.HasSuffix(digits, "_") || strings.Contains(digits, "__") {
		lx.errorAt(diagnostics.ENumber, "trailing '_' in number", ts, te)
	}
	clean := strings.ReplaceAll(digits, "_", "")

	base, body := 10, clean
	if len(clean) > 1 && clean[0] == '0' {
		switch clean[1] {
		case 'x', 'X':
			base, body = 16, clean[2:]
		case 'b', 'B':
			base, body = 2, clean[2:]
		case 'o', 'O':
			base, body = 8, clean[2:]
		case 'd', 'D':
			base, body = 10, clean[2:]
		default:
			if !strings.ContainsAny(clean, ".eE") {
				base, body = 8, clean[1:]
			}
		}
	}

	isFloat := base == 10 && body == clean && strings.ContainsAny(clean, ".eE")
	number := clean
	var tok Token
	if isFloat {
		if _, err := strconv.ParseFloat(clean, 64); err != nil && !errors.Is(err, strconv.ErrRange) {
			lx.errorAt(diagnostics.ENumber, fmt.Sprintf("invalid float literal %q", text), ts, te)
		}
		tok = Token{Type: TokFloat, Value: clean}
	} else {
		signed := body
		if negative {
			signed = "-" + body
		}
		v, err := strconv.ParseInt(signed, base, 64)
		switch {
		case errors.Is(err, strconv.ErrRange):
			lx.errorAt(diagnostics.ENumber, fmt.Sprintf("integer literal %q out of range", text), ts, te)
		case err != nil:
			lx.errorAt(diagnostics.ENumber, fmt.Sprintf("invalid digit in %q", text), ts, te)
		default:
			number = strings.TrimPrefix(strconv.FormatInt(v, 10), "-")
			if negative {
				// Int carries the magnitude. math.MinInt64 negates to itself.
				v = -v
			}
		}
		tok = Token{Type: TokInteger, Value: number, Int: v}
	}

	switch suffix {
	case "r":
		tok = Token{Type: TokRational, Value: number}
	case "i":
		tok = Token{Type: TokImaginary, Value: number}
	case "ri":
		tok = Token{Type: TokImaginary, Value: number + "r"}
	}
	tok.Span = lx.cur.span(ts, te)
	lx.push(tok)
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

func splitNumberSuffix(text string) (digits, suffix string) {
	for _, s := range []string{"ri", "r", "i"} {
		if strings.HasSuffix(text, s) {
			return text[:len(text)-len(s)], s
		}
	}
	return text, ""
}

func (lx *Lexer) onUnaryNum() {
	ts := lx.cur.ts
	lx.emit(TokUnaryNum, lx.cur.src[ts:ts+1], ts, ts+1)
	lx.negativeNum = lx.cur.src[ts] == '-'
	lx.cur.pos = ts + 1
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

// ----------------------------------------------------------------------------
// Names
// ----------------------------------------------------------------------------

func isIdentByte(c byte) bool {
	return c == '_' || c >= 0x80 ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

// trimOperatorSuffix gives back the '=' of "foo!=" and "foo?=" so that it
// starts the following operator.
func (lx *Lexer) trimOperatorSuffix() {
	text := lx.cur.text()
	last := text[len(text)-1]
	if last != '?' && last != '!' || lx.cur.byteAt(lx.cur.te) != '=' {
		return
	}
	switch lx.cur.byteAt(lx.cur.te + 1) {
	case '=', '~', '>':
		return
	}
	lx.cur.te--
	lx.cur.pos--
}

// trimSetterSuffix gives back a trailing '=' that begins "==", "=~" or "=>".
func (lx *Lexer) trimSetterSuffix() {
	text := lx.cur.text()
	if len(text) < 2 || text[len(text)-1] != '=' {
		return
	}
	switch lx.cur.byteAt(lx.cur.te) {
	case '=', '~', '>':
		lx.cur.te--
		lx.cur.pos--
	}
}

func (lx *Lexer) onIdentifier() {
	name := lx.cur.text()
	lx.emit(TokIdentifier, name, lx.cur.ts, lx.cur.te)
	lx.nextState = lx.argState(name)
	lx.flagBreaking()
}

func (lx *Lexer) onConstant() {
	lx.emitText(TokConstant)
	if lx.commandState {
		lx.nextState = ExprCmdArg
	} else {
		lx.nextState = ExprArg
	}
	lx.flagBreaking()
}

func (lx *Lexer) onFID() {
	lx.trimOperatorSuffix()
	text := lx.cur.text()
	switch last := text[len(text)-1]; {
	case last == '?' || last == '!':
	case keywordExists(text):
		lx.keyword(text, false)
		return
	case isUpper(text[0]):
		lx.onConstant()
		return
	default:
		lx.onIdentifier()
		return
	}
	lx.emitText(TokFID)
	if lx.commandState {
		lx.nextState = ExprCmdArg
	} else {
		lx.nextState = ExprArg
	}
	lx.flagBreaking()
}

func keywordExists(word string) bool {
	_, ok := keywords[word]
	return ok
}

func (lx *Lexer) onLabel() {
	if lx.cur.byteAt(lx.cur.te) == ':' {
		// "foo::Bar" is a scope lookup
		lx.cur.hold()
		lx.nextState = ExprEnd
		return
	}
	text := lx.cur.text()
	if lx.state == ExprEndFn {
		lx.inKwarg = true
	}
	lx.emit(TokLabel, text[:len(text)-1], lx.cur.ts, lx.cur.te)
	lx.nextState = ExprLabeled
	lx.flagBreaking()
}

func emitKeyword(begin bool) func(*Lexer) {
	return func(lx *Lexer) {
		lx.keyword(lx.cur.text(), begin)
	}
}

func (lx *Lexer) keyword(word string, begin bool) {
	if word == "do" {
		lx.emitDo()
		return
	}
	kw := keywords[word]
	t := kw.mod
	if begin {
		t = kw.beg
	}
	lx.emit(t, word, lx.cur.ts, lx.cur.ts+len(word))
	lx.nextState = kw.next
	lx.flagBreaking()
}

// emitDo picks the do variant from the lambda, cond and cmdarg stacks.
func (lx *Lexer) emitDo() {
	t := TokKwDo
	switch n := len(lx.lambdaStack); {
	case n > 0 && lx.lambdaStack[n-1] == lx.parenNest:
		lx.lambdaStack = lx.lambdaStack[:n-1]
		t = TokKwDoLambda
	case lx.cond.IsActive():
		t = TokKwDoCond
	case lx.cmdarg.IsActive() || lx.lastState == ExprEndArg:
		t = TokKwDoBlock
	}
	lx.emit(t, "do", lx.cur.ts, lx.cur.ts+2)
	lx.nextState = ExprValue
	lx.flagBreaking()
}

func emitVariable(t TokenType) func(*Lexer) {
	return func(lx *Lexer) {
		text := lx.cur.text()
		tok := Token{Type: t, Value: text, Span: lx.cur.span(lx.cur.ts, lx.cur.te)}
		if t == TokNthRef {
			tok.Int, _ = strconv.ParseInt(text[1:], 10, 64)
		}
		lx.push(tok)
		lx.nextState = ExprEnd
		lx.flagBreaking()
	}
}

func (lx *Lexer) onMethodName() {
	lx.trimOperatorSuffix()
	text := lx.cur.text()
	t := TokIdentifier
	switch {
	case strings.HasSuffix(text, "?") || strings.HasSuffix(text, "!"):
		t = TokFID
	case isUpper(text[0]):
		t = TokConstant
	}
	lx.emitText(t)
	if lx.commandState {
		lx.nextState = ExprCmdArg
	} else {
		lx.nextState = ExprArg
	}
	lx.flagBreaking()
}

func (lx *Lexer) onDefSelf() {
	ts := lx.cur.ts
	lx.emit(TokKwSelf, "self", ts, ts+4)
	lx.emit(TokDot, ".", ts+4, ts+5)
	lx.nextState = ExprFName
	lx.flagBreaking()
}

func (lx *Lexer) onDefName() {
	lx.trimSetterSuffix()
	text := lx.cur.text()
	t := TokIdentifier
	switch {
	case strings.HasSuffix(text, "?") || strings.HasSuffix(text, "!"):
		t = TokFID
	case isUpper(text[0]):
		t = TokConstant
	}
	lx.emitText(t)
	lx.nextState = ExprEndFn
	lx.flagBreaking()
}

func (lx *Lexer) onOperatorName() {
	lx.emitText(operatorNames[lx.cur.text()])
	lx.nextState = ExprEndFn
	lx.flagBreaking()
}

func (lx *Lexer) onSingletonClass() {
	lx.emitText(TokLShft)
	lx.nextState = ExprValue
	lx.flagBreaking()
}

// ----------------------------------------------------------------------------
// Punctuation and brackets
// ----------------------------------------------------------------------------

func (lx *Lexer) onPunct() {
	t := punctuation[lx.cur.text()]
	if t == TokLambda {
		lx.onLambda()
		return
	}
	lx.emitText(t)
	switch t {
	case TokDot, TokAndDot, TokColon2:
		lx.nextState = ExprDot
	case TokSemi:
		lx.inKwarg = false
		lx.nextState = ExprValue
	case TokEh:
		lx.nextState = ExprValue
	default:
		lx.nextState = ExprBeg
	}
	lx.flagBreaking()
}

func (lx *Lexer) onPunctBegin() {
	lx.emitText(punctuationBegin[lx.cur.text()])
	lx.nextState = ExprBeg
	lx.flagBreaking()
}

func (lx *Lexer) onOpAsgn() {
	text := lx.cur.text()
	lx.emit(TokOpAsgn, text[:len(text)-1], lx.cur.ts, lx.cur.te)
	lx.nextState = ExprBeg
	lx.flagBreaking()
}

func (lx *Lexer) onLambda() {
	lx.emitText(TokLambda)
	lx.lambdaStack = append(lx.lambdaStack, lx.parenNest)
	lx.nextState = ExprEndFn
	lx.flagBreaking()
}

func openParen(t TokenType) func(*Lexer) {
	return func(lx *Lexer) {
		lx.openParenAt(t, lx.cur.ts)
	}
}

func (lx *Lexer) openParenAt(t TokenType, at int) {
	lx.emit(t, "(", at, at+1)
	lx.cond.Push(false)
	lx.cmdarg.Push(false)
	lx.parenNest++
	lx.nextState = ExprBeg
	lx.flagBreaking()
}

func (lx *Lexer) onSpacedParen() {
	lx.openParenAt(TokLParenArg, lx.cur.te-1)
}

func openBracket(t TokenType) func(*Lexer) {
	return func(lx *Lexer) {
		lx.openBracketAt(t, lx.cur.ts)
	}
}

func (lx *Lexer) openBracketAt(t TokenType, at int) {
	lx.emit(t, "[", at, at+1)
	lx.cond.Push(false)
	lx.cmdarg.Push(false)
	lx.nextState = ExprBeg
	lx.flagBreaking()
}

func (lx *Lexer) onSpacedBracket() {
	lx.openBracketAt(TokLBrack, lx.cur.te-1)
}

func (lx *Lexer) onLBrace() {
	t, next := TokLBrace, ExprBeg
	switch n := len(lx.lambdaStack); {
	case n > 0 && lx.lambdaStack[n-1] == lx.parenNest:
		lx.lambdaStack = lx.lambdaStack[:n-1]
		t, next = TokLambeg, ExprValue
	case lx.state == ExprEnd && lx.lastState == ExprEndArg:
		t, next = TokLBraceArg, ExprValue
	case lx.state == ExprEnd:
		t, next = TokLCurly, ExprValue
	}
	if lit := lx.topLiteral(); lit != nil {
		lit.braceNest++
	}
	lx.cond.Push(false)
	lx.cmdarg.Push(false)
	lx.emitText(t)
	lx.nextState = next
	lx.flagBreaking()
}

func (lx *Lexer) onRParen() {
	lx.cond.Lexpop()
	lx.cmdarg.Lexpop()
	if lx.parenNest > 0 {
		lx.parenNest--
	}
	lx.emitText(TokRParen)
	lx.nextState = ExprEndFn
	lx.flagBreaking()
}

func (lx *Lexer) onRBrack() {
	lx.cond.Lexpop()
	lx.cmdarg.Lexpop()
	lx.emitText(TokRBrack)
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

func (lx *Lexer) onRBrace() {
	lx.cond.Lexpop()
	lx.cmdarg.Lexpop()
	if lit := lx.topLiteral(); lit != nil && lit.braceNest > 0 {
		lit.braceNest--
		if lit.braceNest == 0 {
			lx.emitText(TokStringDEnd)
			lx.nextState = StringBody
			lx.flagBreaking()
			return
		}
	}
	lx.emitText(TokRCurly)
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

// ----------------------------------------------------------------------------
// Symbols and characters
// ----------------------------------------------------------------------------

func (lx *Lexer) onSymbol() {
	if isIdentByte(lx.cur.byteAt(lx.cur.ts + 1)) {
		lx.trimSetterSuffix()
	}
	text := lx.cur.text()
	lx.emit(TokSymbol, text[1:], lx.cur.ts, lx.cur.te)
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

func (lx *Lexer) onCharacter() {
	text := lx.cur.text()
	if text[1] != '\\' && isIdentByte(lx.cur.byteAt(lx.cur.te)) {
		// "?ab" starts a ternary
		lx.cur.hold()
		lx.nextState = ExprEnd
		return
	}
	value := text[1:]
	if value[0] == '\\' {
		decoded, err := unescape(value)
		if err != nil {
			lx.errorAt(err.code, err.msg, lx.cur.ts, lx.cur.te)
		}
		value = decoded
	}
	lx.emit(TokCharacter, value, lx.cur.ts, lx.cur.te)
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

// ----------------------------------------------------------------------------
// Literal openers
// ----------------------------------------------------------------------------

func (lx *Lexer) onStringOpen() {
	ts := lx.cur.ts
	switch lx.cur.src[ts] {
	case '"':
		lx.openLiteral(newLiteral(litString, true, '"', ts))
	case '\'':
		lx.openLiteral(newLiteral(litString, false, '\'', ts))
	default:
		lx.openLiteral(newLiteral(litXString, true, '`', ts))
	}
}

func (lx *Lexer) onPercentOpen() {
	lx.openLiteral(percentLiteral(lx.cur.text(), lx.cur.ts))
}

func (lx *Lexer) onRegexpOpen() {
	lx.openLiteral(newLiteral(litRegexp, true, '/', lx.cur.ts))
}

func (lx *Lexer) onDSymOpen() {
	q := rune(lx.cur.src[lx.cur.ts+1])
	lx.openLiteral(newLiteral(litSymbol, q == '"', q, lx.cur.ts))
}

// openLiteral pushes lit and enters its body. Plain strings and symbols
// hold back their opening token until the body proves to be interpolated.
func (lx *Lexer) openLiteral(lit *literal) {
	lit.begTok = Token{Type: lit.begType(), Value: lx.cur.text(), Span: lx.cur.span(lx.cur.ts, lx.cur.te)}
	lx.literals = append(lx.literals, lit)
	lx.nextState = StringBody
	if lit.monolithic() {
		lit.begPending = true
		return
	}
	lx.push(lit.begTok)
	lx.flagBreaking()
}

func (lx *Lexer) onHeredocOpen() {
	lit := heredocLiteral(lx.cur.text(), lx.cur.ts, lx.cur.te)
	body := lx.herebodyS
	if body < 0 {
		body = lx.cur.lineEnd(lx.cur.te)
	}
	lx.herebodyS = -1
	lit.begTok = Token{Type: lit.begType(), Value: lx.cur.text(), Span: lx.cur.span(lx.cur.ts, lx.cur.te)}
	lx.push(lit.begTok)
	lx.literals = append(lx.literals, lit)
	lx.cur.pos = body
	lx.nextState = StringBody
	lx.heredocLineStart(lit)
	lx.flagBreaking()
}

// heredocLineStart runs at the first byte of each heredoc body line. It
// closes the heredoc on its terminator and tracks squiggly indentation.
func (lx *Lexer) heredocLineStart(lit *literal) {
	pos := lx.cur.pos
	if pos >= len(lx.cur.src) {
		return
	}
	end := lx.cur.lineEnd(pos)
	line := lx.cur.src[pos:end]
	if isHeredocTerminator(lit, line) {
		lx.closeHeredoc(lit, pos, end)
		return
	}
	if lit.squiggly {
		if w, blank := indentWidth(line); !blank && (lit.dedent < 0 || w < lit.dedent) {
			lit.dedent = w
		}
	}
}

func isHeredocTerminator(lit *literal, line string) bool {
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	if lit.indentEnd {
		line = strings.TrimLeft(line, " \t")
	}
	return line == lit.heredocID
}

func (lx *Lexer) closeHeredoc(lit *literal, from, to int) {
	lx.flushContent(lit)
	idEnd := from + len(strings.TrimRight(lx.cur.src[from:to], "\r\n"))
	lx.emit(TokStringEnd, lit.heredocID, from, idEnd)
	lx.herebodyS = to
	lx.cur.pos = lit.resume
	lx.popLiteral()
	if lit.squiggly {
		lx.dedentLevel = max(lit.dedent, 0)
		lx.hasDedent = true
	}
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

// ----------------------------------------------------------------------------
// Literal bodies
// ----------------------------------------------------------------------------

// flushContent emits the buffered text as one tSTRING_CONTENT, first
// releasing a held-back opening token.
func (lx *Lexer) flushContent(lit *literal) {
	if lit.begPending {
		lit.begPending = false
		lx.push(lit.begTok)
	}
	if lit.bufStart < 0 {
		return
	}
	from, to := lit.bufStart, lit.bufEnd
	lx.emit(TokStringContent, lit.take(), from, to)
}

// endWord closes the current word of a %w or %i list.
func (lx *Lexer) endWord(lit *literal) {
	if !lit.wordOpen {
		return
	}
	lx.flushContent(lit)
	lx.emitText(TokSpace)
	lit.wordOpen = false
	lx.flagBreaking()
}

func (lx *Lexer) onStringText() {
	if lit := lx.topLiteral(); lit != nil {
		lit.append(lx.cur.text(), lx.cur.ts, lx.cur.te)
	}
}

func (lx *Lexer) onStringSpace() {
	lit := lx.topLiteral()
	if lit == nil {
		return
	}
	if lit.words() {
		lx.endWord(lit)
		return
	}
	lit.append(lx.cur.text(), lx.cur.ts, lx.cur.te)
}

func (lx *Lexer) onStringNewline() {
	lit := lx.topLiteral()
	if lit == nil {
		lx.skipNewline()
		return
	}
	if lit.words() {
		lx.endWord(lit)
		lx.jumpHerebody()
		return
	}
	lit.append("\n", lx.cur.ts, lx.cur.te)
	if lit.kind == litHeredoc {
		lx.heredocLineEnd(lit)
		return
	}
	lx.jumpHerebody()
}

// heredocLineEnd emits the finished body line and checks the next one.
func (lx *Lexer) heredocLineEnd(lit *literal) {
	lx.flushContent(lit)
	lx.jumpHerebody()
	lx.heredocLineStart(lit)
	lx.flagBreaking()
}

func (lx *Lexer) onStringChar() {
	lit := lx.topLiteral()
	if lit == nil {
		lx.cur.hold()
		lx.nextState = ExprEnd
		return
	}
	text := lx.cur.text()
	r, _ := utf8.DecodeRuneInString(text)
	if lit.kind != litHeredoc {
		switch {
		case r == lit.close && lit.nesting == 0:
			lx.closeLiteral(lit)
			return
		case r == lit.close:
			lit.nesting--
		case r == lit.open:
			lit.nesting++
		}
	}
	lit.append(text, lx.cur.ts, lx.cur.te)
}

func (lx *Lexer) closeLiteral(lit *literal) {
	ts, te := lx.cur.ts, lx.cur.te
	if lit.begPending {
		t := TokString
		if lit.kind == litSymbol {
			t = TokSymbol
		}
		lx.emit(t, lit.take(), lit.start, te)
	} else {
		lx.flushContent(lit)
		lx.emit(TokStringEnd, lx.cur.text(), ts, te)
		if lit.kind == litRegexp {
			lx.regexpOptions(te)
		}
	}
	lx.popLiteral()
	lx.nextState = ExprEnd
	lx.flagBreaking()
}

const regexpOptionChars = "mixounse"

func (lx *Lexer) regexpOptions(from int) {
	end := from
	for end < len(lx.cur.src) {
		c := lx.cur.src[end]
		if c < 'a' || c > 'z' {
			break
		}
		end++
	}
	opts := lx.cur.src[from:end]
	for i := 0; i < len(opts); i++ {
		if strings.IndexByte(regexpOptionChars, opts[i]) < 0 {
			lx.errorAt(diagnostics.ELex, fmt.Sprintf("unknown regexp option %q", opts[i:i+1]), from+i, from+i+1)
		}
	}
	lx.emit(TokRegexpOpt, opts, from, end)
	lx.cur.pos = end
}

func (lx *Lexer) onInterpBegin() {
	lit := lx.topLiteral()
	if lit == nil {
		return
	}
	if !lit.interpolate {
		lit.append(lx.cur.text(), lx.cur.ts, lx.cur.te)
		return
	}
	lx.flushContent(lit)
	lx.emitText(TokStringDBeg)
	lit.interpolated = true
	lit.wordOpen = true
	lit.braceNest = 1
	lx.cond.Push(false)
	lx.cmdarg.Push(false)
	lx.callingState = ExprValue
	lx.flagBreaking()
}

func (lx *Lexer) onInterpVar() {
	lit := lx.topLiteral()
	if lit == nil {
		return
	}
	if !lit.interpolate {
		lit.append(lx.cur.text(), lx.cur.ts, lx.cur.te)
		return
	}
	ts, te := lx.cur.ts, lx.cur.te
	lx.flushContent(lit)
	lx.emit(TokStringDVar, "#", ts, ts+1)
	name := lx.cur.src[ts+1 : te]
	t := TokGVar
	switch {
	case strings.HasPrefix(name, "@@"):
		t = TokCVar
	case strings.HasPrefix(name, "@"):
		t = TokIVar
	}
	lx.emit(t, name, ts+1, te)
	lit.interpolated = true
	lit.wordOpen = true
	lx.flagBreaking()
}

func (lx *Lexer) onEscape() {
	lit := lx.topLiteral()
	if lit == nil {
		return
	}
	ts, te := lx.cur.ts, lx.cur.te
	raw := lx.cur.text()
	c, _ := utf8.DecodeRuneInString(raw[1:])
	switch {
	case lit.kind == litHeredoc && !lit.interpolate:
		lit.append(raw, ts, te)
	case lit.kind == litRegexp:
		if lit.isDelimiter(c) {
			lit.append(raw[1:], ts, te)
		} else {
			lit.append(raw, ts, te)
		}
	case !lit.interpolate:
		if c == '\\' || lit.isDelimiter(c) || (lit.words() && isSpace(c)) {
			lit.append(raw[1:], ts, te)
		} else {
			lit.append(raw, ts, te)
		}
	case lit.words() && isSpace(c):
		lit.append(raw[1:], ts, te)
	default:
		decoded, err := unescape(raw)
		if err != nil {
			lx.errorAt(err.code, err.msg, ts, te)
		}
		if decoded != "" {
			lit.append(decoded, ts, te)
		}
	}
	if strings.HasSuffix(raw, "\n") {
		if lit.kind == litHeredoc {
			lx.heredocLineEnd(lit)
			return
		}
		lx.jumpHerebody()
	}
}
