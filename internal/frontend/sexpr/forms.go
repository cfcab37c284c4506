package sexpr

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// formLexer tokenizes the whole s-expression document. Unlike jsx, where a
// tag's children interleave literal text with markup and only the
// attribute region is flat enough for a struct-tag grammar, an
// s-expression document is uniformly parenthesized — every level nests the
// same way — so the full document grammar fits participle/v2's recursive
// @@ capture directly, driven through one stateful lexer.
var formLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Whitespace", `\s+`, nil},
		{"String", `"(?:\\.|[^"\\])*"`, nil},
		{"LParen", `\(`, nil},
		{"RParen", `\)`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_]*`, nil},
		{"Number", `-?[0-9]+(\.[0-9]+)?[A-Za-z%]*`, nil},
		{"Punct", `[^\s()"A-Za-z0-9_]+`, nil},
	},
})

// document is the whole file: a run of top-level forms, in source order —
// mirrored onto ast.Root.Body/Directives the same order-preserving way
// jsx and xmlkry are.
type document struct {
	Forms []*form `@@*`
}

// form is one parenthesized `(Head arg arg ...)` construct. Pos is
// populated by participle from the opening "(" token and is the only
// position information this frontend carries — matching xmlkry's and
// jsx's identical file-only Location cut, since reconstructing a raw span
// from re-joined tokens (renderForm, below) already loses the original
// byte offsets.
type form struct {
	Pos  lexer.Position
	Head string  `"(" @Ident`
	Args []*atom `@@* ")"`
}

// atom is one argument inside a form: a nested form, a quoted string, or
// a bare token (identifier, number, or an operator/punctuation run —
// `=`, `+`, `>`, `&&`, ...). A bare multi-token property or handler body
// is a run of these, re-joined by renderArgs into the plain text
// internal/frontend/kry's exported parsers expect.
type atom struct {
	Form *form   `  @@`
	Str  *string `| @String`
	Tok  string  `| @(Ident | Number | Punct)`
}

var formParser = participle.MustBuild[document](
	participle.Lexer(formLexer),
	participle.Elide("Comment", "Whitespace"),
)

// renderAtom reconstructs the plain source text one atom carried, quotes
// and all — the inverse of formLexer tokenizing it, used to hand a
// sub-form's argument list back to kry.ParseBareValue/ParseExpression
// without re-deriving either grammar here.
func renderAtom(a *atom) string {
	switch {
	case a.Form != nil:
		return renderForm(a.Form)
	case a.Str != nil:
		return *a.Str
	default:
		return a.Tok
	}
}

func renderForm(f *form) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(f.Head)
	for _, a := range f.Args {
		b.WriteByte(' ')
		b.WriteString(renderAtom(a))
	}
	b.WriteByte(')')
	return b.String()
}

// renderArgs joins a form's arguments into the bare, unquoted text
// kry.ParseBareValue/ParseExpression/ParseHandlerBody expect — a single
// quoted-string argument is unquoted directly rather than re-joined with
// surrounding space, so `(id "btn")`'s single string argument reads as
// `btn`, not `"btn"`.
func renderArgs(args []*atom) string {
	if len(args) == 1 && args[0].Str != nil {
		return unquoteSexpr(*args[0].Str)
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = renderAtom(a)
	}
	return strings.Join(parts, " ")
}

func unquoteSexpr(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}
