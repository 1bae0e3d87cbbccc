package lexer

import (
	"fmt"

	"github.com/thomasrohde/rubyfront/pkg/ast"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	TokEOF TokenType = iota

	// Payload-bearing tokens
	TokInteger
	TokFloat
	TokRational
	TokImaginary
	TokIdentifier
	TokConstant
	TokFID
	TokLabel
	TokIVar
	TokCVar
	TokGVar
	TokBackRef
	TokNthRef
	TokSymbol
	TokUnaryNum
	TokCharacter
	TokString
	TokStringContent
	TokOpAsgn
	TokRegexpOpt

	// Literal delimiters
	TokStringBeg
	TokXStringBeg
	TokSymBeg
	TokRegexpBeg
	TokWordsBeg
	TokQWordsBeg
	TokSymbolsBeg
	TokQSymbolsBeg
	TokStringDBeg
	TokStringDEnd
	TokStringDVar
	TokStringEnd
	TokSpace

	// Keywords
	TokKwAlias
	TokKwAnd
	TokKwBegin
	TokKwBreak
	TokKwCase
	TokKwClass
	TokKwDef
	TokKwDefined
	TokKwDo
	TokKwDoBlock
	TokKwDoCond
	TokKwDoLambda
	TokKwElse
	TokKwElsif
	TokKwEnd
	TokKwEnsure
	TokKwFalse
	TokKwFor
	TokKwIf
	TokKwIfMod
	TokKwIn
	TokKwLBegin // BEGIN
	TokKwLEnd   // END
	TokKwModule
	TokKwNext
	TokKwNil
	TokKwNot
	TokKwOr
	TokKwRedo
	TokKwRescue
	TokKwRescueMod
	TokKwRetry
	TokKwReturn
	TokKwSelf
	TokKwSuper
	TokKwThen
	TokKwTrue
	TokKwUndef
	TokKwUnless
	TokKwUnlessMod
	TokKwUntil
	TokKwUntilMod
	TokKwWhen
	TokKwWhile
	TokKwWhileMod
	TokKwYield
	TokKwEncoding // __ENCODING__
	TokKwFile     // __FILE__
	TokKwLine     // __LINE__

	// Punctuation
	TokAmper     // & (block pass)
	TokAmper2    // & (binary)
	TokAndDot    // &.
	TokAndOp     // &&
	TokAref      // []
	TokAset      // []=
	TokAssoc     // =>
	TokBang      // !
	TokCaret     // ^
	TokCmp       // <=>
	TokColon     // :
	TokColon2    // ::
	TokColon3    // :: (top-level)
	TokComma     // ,
	TokDivide    // /
	TokDot       // .
	TokDot2      // ..
	TokDot3      // ...
	TokDStar     // **
	TokEh        // ?
	TokEq        // ==
	TokEql       // =
	TokEqq       // ===
	TokGeq       // >=
	TokGt        // >
	TokLambda    // ->
	TokLambeg    // { opening a lambda body
	TokLBrace    // { opening a hash
	TokLBraceArg // { after a parenthesised argument
	TokLBrack    // [ opening an array
	TokLBrack2   // [ indexing
	TokLCurly    // { opening a block
	TokLeq       // <=
	TokLParen    // ( at expression start
	TokLParen2   // ( call arguments
	TokLParenArg // ( after a space in argument position
	TokLShft     // <<
	TokLt        // <
	TokMatch     // =~
	TokMinus     // -
	TokNeq       // !=
	TokNL        // newline
	TokNMatch    // !~
	TokOrOp      // ||
	TokPercent   // %
	TokPipe      // |
	TokPlus      // +
	TokPow       // **
	TokRBrack    // ]
	TokRCurly    // }
	TokRParen    // )
	TokRShft     // >>
	TokSemi      // ;
	TokStar      // * (splat)
	TokStar2     // * (binary)
	TokTilde     // ~
	TokUMinus    // unary -
	TokUPlus     // unary +

	tokenTypeCount
)

var tokenNames = [...]string{
	TokEOF: "EOF",

	TokInteger:       "tINTEGER",
	TokFloat:         "tFLOAT",
	TokRational:      "tRATIONAL",
	TokImaginary:     "tIMAGINARY",
	TokIdentifier:    "tIDENTIFIER",
	TokConstant:      "tCONSTANT",
	TokFID:           "tFID",
	TokLabel:         "tLABEL",
	TokIVar:          "tIVAR",
	TokCVar:          "tCVAR",
	TokGVar:          "tGVAR",
	TokBackRef:       "tBACK_REF",
	TokNthRef:        "tNTH_REF",
	TokSymbol:        "tSYMBOL",
	TokUnaryNum:      "tUNARY_NUM",
	TokCharacter:     "tCHARACTER",
	TokString:        "tSTRING",
	TokStringContent: "tSTRING_CONTENT",
	TokOpAsgn:        "tOP_ASGN",
	TokRegexpOpt:     "tREGEXP_OPT",

	TokStringBeg:   "tSTRING_BEG",
	TokXStringBeg:  "tXSTRING_BEG",
	TokSymBeg:      "tSYMBEG",
	TokRegexpBeg:   "tREGEXP_BEG",
	TokWordsBeg:    "tWORDS_BEG",
	TokQWordsBeg:   "tQWORDS_BEG",
	TokSymbolsBeg:  "tSYMBOLS_BEG",
	TokQSymbolsBeg: "tQSYMBOLS_BEG",
	TokStringDBeg:  "tSTRING_DBEG",
	TokStringDEnd:  "tSTRING_DEND",
	TokStringDVar:  "tSTRING_DVAR",
	TokStringEnd:   "tSTRING_END",
	TokSpace:       "tSPACE",

	TokKwAlias:     "kALIAS",
	TokKwAnd:       "kAND",
	TokKwBegin:     "kBEGIN",
	TokKwBreak:     "kBREAK",
	TokKwCase:      "kCASE",
	TokKwClass:     "kCLASS",
	TokKwDef:       "kDEF",
	TokKwDefined:   "kDEFINED",
	TokKwDo:        "kDO",
	TokKwDoBlock:   "kDO_BLOCK",
	TokKwDoCond:    "kDO_COND",
	TokKwDoLambda:  "kDO_LAMBDA",
	TokKwElse:      "kELSE",
	TokKwElsif:     "kELSIF",
	TokKwEnd:       "kEND",
	TokKwEnsure:    "kENSURE",
	TokKwFalse:     "kFALSE",
	TokKwFor:       "kFOR",
	TokKwIf:        "kIF",
	TokKwIfMod:     "kIF_MOD",
	TokKwIn:        "kIN",
	TokKwLBegin:    "klBEGIN",
	TokKwLEnd:      "klEND",
	TokKwModule:    "kMODULE",
	TokKwNext:      "kNEXT",
	TokKwNil:       "kNIL",
	TokKwNot:       "kNOT",
	TokKwOr:        "kOR",
	TokKwRedo:      "kREDO",
	TokKwRescue:    "kRESCUE",
	TokKwRescueMod: "kRESCUE_MOD",
	TokKwRetry:     "kRETRY",
	TokKwReturn:    "kRETURN",
	TokKwSelf:      "kSELF",
	TokKwSuper:     "kSUPER",
	TokKwThen:      "kTHEN",
	TokKwTrue:      "kTRUE",
	TokKwUndef:     "kUNDEF",
	TokKwUnless:    "kUNLESS",
	TokKwUnlessMod: "kUNLESS_MOD",
	TokKwUntil:     "kUNTIL",
	TokKwUntilMod:  "kUNTIL_MOD",
	TokKwWhen:      "kWHEN",
	TokKwWhile:     "kWHILE",
	TokKwWhileMod:  "kWHILE_MOD",
	TokKwYield:     "kYIELD",
	TokKwEncoding:  "k__ENCODING__",
	TokKwFile:      "k__FILE__",
	TokKwLine:      "k__LINE__",

	TokAmper:     "tAMPER",
	TokAmper2:    "tAMPER2",
	TokAndDot:    "tANDDOT",
	TokAndOp:     "tANDOP",
	TokAref:      "tAREF",
	TokAset:      "tASET",
	TokAssoc:     "tASSOC",
	TokBang:      "tBANG",
	TokCaret:     "tCARET",
	TokCmp:       "tCMP",
	TokColon:     "tCOLON",
	TokColon2:    "tCOLON2",
	TokColon3:    "tCOLON3",
	TokComma:     "tCOMMA",
	TokDivide:    "tDIVIDE",
	TokDot:       "tDOT",
	TokDot2:      "tDOT2",
	TokDot3:      "tDOT3",
	TokDStar:     "tDSTAR",
	TokEh:        "tEH",
	TokEq:        "tEQ",
	TokEql:       "tEQL",
	TokEqq:       "tEQQ",
	TokGeq:       "tGEQ",
	TokGt:        "tGT",
	TokLambda:    "tLAMBDA",
	TokLambeg:    "tLAMBEG",
	TokLBrace:    "tLBRACE",
	TokLBraceArg: "tLBRACE_ARG",
	TokLBrack:    "tLBRACK",
	TokLBrack2:   "tLBRACK2",
	TokLCurly:    "tLCURLY",
	TokLeq:       "tLEQ",
	TokLParen:    "tLPAREN",
	TokLParen2:   "tLPAREN2",
	TokLParenArg: "tLPAREN_ARG",
	TokLShft:     "tLSHFT",
	TokLt:        "tLT",
	TokMatch:     "tMATCH",
	TokMinus:     "tMINUS",
	TokNeq:       "tNEQ",
	TokNL:        "tNL",
	TokNMatch:    "tNMATCH",
	TokOrOp:      "tOROP",
	TokPercent:   "tPERCENT",
	TokPipe:      "tPIPE",
	TokPlus:      "tPLUS",
	TokPow:       "tPOW",
	TokRBrack:    "tRBRACK",
	TokRCurly:    "tRCURLY",
	TokRParen:    "tRPAREN",
	TokRShft:     "tRSHFT",
	TokSemi:      "tSEMI",
	TokStar:      "tSTAR",
	TokStar2:     "tSTAR2",
	TokTilde:     "tTILDE",
	TokUMinus:    "tUMINUS",
	TokUPlus:     "tUPLUS",
}

func (t TokenType) String() string {
	if t >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsKeyword reports whether t is one of the k* tokens.
func (t TokenType) IsKeyword() bool {
	return t >= TokKwAlias && t <= TokKwLine
}

// Token represents a single lexer token. Tokens are never modified after
// they are queued.
type Token struct {
	Type TokenType
	// Value is the payload for identifiers, labels, variables, symbols,
	// string content and operator-assignments, and the source text for
	// everything else.
	Value string
	// Int is the payload of TokInteger.
	Int  int64
	Span ast.Span
}

func (t Token) String() string {
	return fmt.Sprintf("%s(%q)", t.Type, t.Value)
}
