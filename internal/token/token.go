// Package token defines the closed set of lexical token kinds shared by
// every Kryon frontend lexer. A Kind is independent of which
// concrete DSL flavor produced it — frontends differ in grammar, not in
// token vocabulary.
package token

// Kind is the type of a scanned token.
type Kind int

const (
	ILLEGAL Kind = iota
	EOF
	COMMENT

	// Literals
	IDENT     // identifiers: count, MyButton, on_click
	NUMBER    // 100, 3.14 — units are attached separately, see NUMUNIT
	NUMUNIT   // 100px, 1.5em, 50pct — a single Number+Unit token
	STRING    // "hello" or 'hello'
	COLOR     // #RGB, #RGBA, #RRGGBB or #RRGGBBAA
	BOOL      // true / false
	NULLLIT   // null

	literalEnd

	// Keywords
	KW_COMPONENT
	KW_STYLE
	KW_EXTENDS
	KW_STATE
	KW_CONST
	KW_INCLUDE
	KW_IMPORT
	KW_EXPORT
	KW_ON_MOUNT
	KW_ON_UNMOUNT

	keywordEnd

	// Sigils (keyword-shaped but prefixed, kept distinct from bare keywords)
	AT_WATCH   // @watch
	AT_EVENT   // @event
	AT_FOR     // @for
	AT_IF      // @if
	AT_ELIF    // @elif
	AT_ELSE    // @else
	AT_CONSTFOR // @const_for
	AT_CONSTIF  // @const_if
	AT_THEME    // @theme
	AT_VAR      // @var

	// Punctuation
	LBRACE    // {
	RBRACE    // }
	LBRACKET  // [
	RBRACKET  // ]
	LPAREN    // (
	RPAREN    // )
	COLON     // :
	COMMA     // ,
	SEMI      // ;
	DOT       // .

	// Operators
	PLUS
	MINUS
	STAR
	SLASH
	PERCENT
	EQ
	NEQ
	LT
	GT
	LE
	GE
	AND
	OR
	NOT
	QUESTION
	ASSIGN

	// Sigils
	AT       // @
	DOLLAR   // $
	TMPL_START // ${
	TMPL_END   // } closing a template expression — internal/lexer does not emit it; it scans every } as RBRACE

	DOUBLESLASH // //
)

var names = map[Kind]string{
	ILLEGAL: "ILLEGAL", EOF: "EOF", COMMENT: "COMMENT",
	IDENT: "IDENT", NUMBER: "NUMBER", NUMUNIT: "NUMUNIT", STRING: "STRING",
	COLOR: "COLOR", BOOL: "BOOL", NULLLIT: "NULL",
	KW_COMPONENT: "component", KW_STYLE: "style", KW_EXTENDS: "extends",
	KW_STATE: "state", KW_CONST: "const", KW_INCLUDE: "include",
	KW_IMPORT: "import", KW_EXPORT: "export", KW_ON_MOUNT: "on_mount",
	KW_ON_UNMOUNT: "on_unmount",
	AT_WATCH: "@watch", AT_EVENT: "@event", AT_FOR: "@for", AT_IF: "@if",
	AT_ELIF: "@elif", AT_ELSE: "@else", AT_CONSTFOR: "@const_for",
	AT_CONSTIF: "@const_if", AT_THEME: "@theme", AT_VAR: "@var",
	LBRACE: "{", RBRACE: "}", LBRACKET: "[", RBRACKET: "]",
	LPAREN: "(", RPAREN: ")", COLON: ":", COMMA: ",", SEMI: ";", DOT: ".",
	PLUS: "+", MINUS: "-", STAR: "*", SLASH: "/", PERCENT: "%",
	EQ: "==", NEQ: "!=", LT: "<", GT: ">", LE: "<=", GE: ">=",
	AND: "&&", OR: "||", NOT: "!", QUESTION: "?", ASSIGN: "=",
	AT: "@", DOLLAR: "$", TMPL_START: "${", TMPL_END: "}",
	DOUBLESLASH: "//",
}

func (k Kind) String() string {
	if s, ok := names[k]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsLiteral reports whether k is one of the literal kinds.
func (k Kind) IsLiteral() bool { return k > ILLEGAL+2 && k < literalEnd }

// IsKeyword reports whether k is one of the bare keywords.
func (k Kind) IsKeyword() bool { return k > literalEnd && k < keywordEnd }

// Keywords maps the literal spelling to its Kind for lexer lookups.
var Keywords = map[string]Kind{
	"component":  KW_COMPONENT,
	"style":      KW_STYLE,
	"extends":    KW_EXTENDS,
	"state":      KW_STATE,
	"const":      KW_CONST,
	"include":    KW_INCLUDE,
	"import":     KW_IMPORT,
	"export":     KW_EXPORT,
	"on_mount":   KW_ON_MOUNT,
	"on_unmount": KW_ON_UNMOUNT,
	"true":       BOOL,
	"false":      BOOL,
	"null":       NULLLIT,
}

// Directives maps the `@name` spelling (without the `@`) to its Kind.
var Directives = map[string]Kind{
	"watch":     AT_WATCH,
	"event":     AT_EVENT,
	"for":       AT_FOR,
	"if":        AT_IF,
	"elif":      AT_ELIF,
	"else":      AT_ELSE,
	"const_for": AT_CONSTFOR,
	"const_if":  AT_CONSTIF,
	"theme":     AT_THEME,
	"var":       AT_VAR,
}

// Unit is the closed enum of unit suffixes a NUMUNIT token may carry.
type Unit int

const (
	UnitNone Unit = iota
	UnitPx
	UnitPct
	UnitEm
	UnitRem
	UnitVw
	UnitVh
	UnitVmin
	UnitVmax
)

var unitNames = map[string]Unit{
	"px": UnitPx, "pct": UnitPct, "%": UnitPct, "em": UnitEm, "rem": UnitRem,
	"vw": UnitVw, "vh": UnitVh, "vmin": UnitVmin, "vmax": UnitVmax,
}

// ParseUnit resolves a lexeme unit suffix to a Unit, returning UnitNone and
// false if it is not one of the recognized suffixes.
func ParseUnit(s string) (Unit, bool) {
	if s == "" {
		return UnitNone, true
	}
	u, ok := unitNames[s]
	return u, ok
}

func (u Unit) String() string {
	switch u {
	case UnitPx:
		return "px"
	case UnitPct:
		return "pct"
	case UnitEm:
		return "em"
	case UnitRem:
		return "rem"
	case UnitVw:
		return "vw"
	case UnitVh:
		return "vh"
	case UnitVmin:
		return "vmin"
	case UnitVmax:
		return "vmax"
	default:
		return "none"
	}
}

// Position is a single point in a source file, in rune (not byte) columns,
// so multi-byte UTF-8 never throws off diagnostic carets.
type Position struct {
	File   string
	Line   int
	Column int
}

// Token is one scanned lexeme.
type Token struct {
	Kind    Kind
	Literal string // raw lexeme text
	Unit    Unit   // only meaningful when Kind == NUMUNIT
	Pos     Position
}
