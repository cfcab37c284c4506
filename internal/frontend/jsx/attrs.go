package jsx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
)

// attrLexer tokenizes the flat, non-recursive region between a tag's name
// and its closing `>` or `/>` — an attribute list has no element nesting of
// its own, which is exactly the shape github.com/alecthomas/participle/v2's
// struct-tag grammars fit well. This grammar stays small on purpose, since
// Parser's own hand-written scanner (parser.go) already resolves the
// recursive part of JSX — matching a tag against its closing tag — the
// same way frontend/kry's own recursive descent resolves block nesting,
// just scanning runes instead of a token stream.
var attrLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{"Comment", `//[^\n]*`, nil},
		{"Whitespace", `\s+`, nil},
		{"String", `"(?:\\.|[^"\\])*"`, nil},
		{"LBrace", `\{`, nil},
		{"RBrace", `\}`, nil},
		{"Eq", `=`, nil},
		{"Ident", `[A-Za-z_][A-Za-z0-9_]*`, nil},
		{"Other", `[^\sA-Za-z_{}="]+`, nil},
	},
})

// attrList is the whole attribute region of one opening tag: a run of
// bare-name or name=value pairs.
type attrList struct {
	Attrs []*rawAttr `@@*`
}

type rawAttr struct {
	Name  string     `@Ident`
	Value *attrValue `("=" @@)?`
}

// attrValue is either a quoted string (`name="..."`, reusing kry's own
// literal/template grammar via ParseBareValue the way frontend/xmlkry's XML
// attributes do) or a brace-delimited expression slot (`name={...}`, JSX's
// own contribution — a genuine embedded expression, not a string to
// re-lex). bracedGroup lets the slot contain further balanced `{}` nesting
// structurally, even though a Kryon expression inside one never needs it
// (object-literal property values are not supported in a `{}` slot; write
// them as a named const instead).
type attrValue struct {
	Str  *string     `  @String`
	Expr []*exprFrag `| "{" @@* "}"`
}

type exprFrag struct {
	Block *bracedGroup `  @@`
	Tok   string       `| @(Ident | String | Eq | Other)`
}

type bracedGroup struct {
	Inner []*exprFrag `"{" @@* "}"`
}

var attrParser = participle.MustBuild[attrList](
	participle.Lexer(attrLexer),
	participle.Elide("Comment", "Whitespace"),
)

// parsedAttr is one converted attribute or event binding, ready for an
// ast.Element's Properties/Events lists.
type parsedAttr struct {
	Name    string
	Value   ast.Expression
	Handler ast.HandlerBody
	IsEvent bool
}

// parseAttrRegion parses raw (the text between a tag's name and its `>` or
// `/>`) and converts each attribute to kry's shared expression/statement
// grammar: a bare name becomes a boolean-true flag, `name="..."` defers to
// kry.ParseBareValue on the unquoted text, `name={...}` defers to
// kry.ParseExpression on the reconstructed slot text, and an `onXxx` name
// defers to kry.ParseHandlerBody instead of treating its value as a plain
// property.
func parseAttrRegion(file, raw string) ([]parsedAttr, *diag.List) {
	diags := &diag.List{}
	tree, err := attrParser.ParseString(file, raw)
	if err != nil {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindSyntax, Severity: diag.Error,
			Pos:     diag.Position{File: file},
			Message: fmt.Sprintf("malformed attribute list: %s", err),
		})
		return nil, diags
	}

	var out []parsedAttr
	for _, a := range tree.Attrs {
		if kind, ok := eventKind(a.Name); ok {
			h, hdiags := kry.ParseHandlerBody(file, rawTextOf(a.Value))
			diags.Merge(hdiags)
			out = append(out, parsedAttr{Name: kind, Handler: h, IsEvent: true})
			continue
		}
		if a.Value == nil {
			out = append(out, parsedAttr{Name: a.Name, Value: &ast.Literal{
				Value: ast.LiteralValue{Kind: ast.LitBool, Bool: true},
			}})
			continue
		}
		if a.Value.Str != nil {
			out = append(out, parsedAttr{
				Name:  a.Name,
				Value: kry.ParseBareValue(file, ast.Location{File: file}, unquoteJSX(*a.Value.Str)),
			})
			continue
		}
		expr, ediags := kry.ParseExpression(file, flattenFrags(a.Value.Expr))
		diags.Merge(ediags)
		out = append(out, parsedAttr{Name: a.Name, Value: expr})
	}
	return out, diags
}

// rawTextOf recovers the plain source text an attribute's value carried,
// regardless of whether it was written quoted or inside a `{}` slot — the
// shape kry.ParseHandlerBody expects (a bare, unquoted statement list).
func rawTextOf(v *attrValue) string {
	if v == nil {
		return ""
	}
	if v.Str != nil {
		return unquoteJSX(*v.Str)
	}
	return flattenFrags(v.Expr)
}

func flattenFrags(frags []*exprFrag) string {
	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			b.WriteByte(' ')
		}
		if f.Block != nil {
			b.WriteByte('{')
			b.WriteString(flattenFrags(f.Block.Inner))
			b.WriteByte('}')
		} else {
			b.WriteString(f.Tok)
		}
	}
	return b.String()
}

func unquoteJSX(s string) string {
	if u, err := strconv.Unquote(s); err == nil {
		return u
	}
	return strings.Trim(s, `"`)
}

// eventKind reports whether attrName has the onXxx shape event bindings use
// (onClick, onChange, ...) and, if so, the lower-camel event kind
// (only the first letter is lowercased: onClick gives "click", onKeyDown
// gives "keyDown").
func eventKind(attrName string) (string, bool) {
	if len(attrName) < 3 || attrName[:2] != "on" {
		return "", false
	}
	rest := attrName[2:]
	if rest[0] < 'A' || rest[0] > 'Z' {
		return "", false
	}
	return strings.ToLower(rest[:1]) + rest[1:], true
}
