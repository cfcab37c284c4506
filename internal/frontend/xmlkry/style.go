package xmlkry

import (
	"fmt"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
)

// parseDeclarations reads a `<Style>` element's text body as a bare CSS
// declaration list — `name: value;` pairs with no selector, since the
// selector here is already the element's own `name`/`extends` attributes.
// Uses github.com/tdewolff/parse/v2/css in inline mode (the second
// NewParser argument) rather than full stylesheet mode, since a
// Style body is exactly one declaration list and never contains nested
// rulesets or at-rules.
func parseDeclarations(file string, loc ast.Location, body string) ([]*ast.Property, error) {
	input := parse.NewInput(strings.NewReader(body))
	parser := css.NewParser(input, true)

	var props []*ast.Property
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && err.Error() != "EOF" {
				return props, fmt.Errorf("malformed style body: %w", err)
			}
			return props, nil
		case css.DeclarationGrammar:
			name := string(data)
			raw := valuesToString(parser.Values())
			props = append(props, &ast.Property{
				Location: loc, Name: name,
				Value: kry.ParseBareValue(file, loc, raw),
			})
		case css.CustomPropertyGrammar:
			// `--custom: value` — not a recognized element/style property
			// category (internal/ir/category's closed PropertyID enum has
			// no slot for author-defined CSS custom properties), carried
			// through as a plain named property anyway so the builder's
			// own category validation is the single place that decides
			// whether it survives.
			name := string(data)
			raw := valuesToString(parser.Values())
			props = append(props, &ast.Property{
				Location: loc, Name: name,
				Value: kry.ParseBareValue(file, loc, raw),
			})
		}
	}
}

func valuesToString(tokens []css.Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.Write(t.Data)
	}
	return strings.TrimSpace(b.String())
}
