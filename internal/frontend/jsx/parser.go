// Package jsx implements the JSX-flavored Kryon frontend: an
// `<Element attr="value" attr2={expr}>children</Element>` document maps
// onto the same raw internal/ast vocabulary frontend/kry and
// frontend/xmlkry produce. Every frontend parser here is order-tolerant
// and shares one AST — a third concrete grammar is a matter of mapping
// tags and attributes onto it, not reinventing expression or statement
// parsing.
//
// Everything that is not an element — `const`, `style`, `theme`,
// `component`, `function`, `@var`, `@for`/`@const_for`, `@if`/`@const_if`,
// `@watch`, `@event`, `include`, `import`, `export` — is written in exactly
// frontend/kry's own surface syntax: Parser locates the span of one such
// top-level construct (balancing braces/parens/brackets and chasing any
// `@elif`/`@else` continuations) and hands the raw text straight to
// kry.Parse, taking its single parsed node rather than re-deriving that
// whole grammar a second time. Only the element tree — JSX's actual
// contribution — gets its own parsing here, and even there, attribute
// values and `{}` expression slots are parsed by frontend/kry's exported
// ParseBareValue/ParseExpression/ParseHandlerBody (see attrs.go), so every
// frontend still agrees on one expression and one statement grammar.
//
// The element scanner itself is a small hand-written recursive-descent
// reader over the raw source string, in the same spirit as frontend/kry's
// own parser.go — kry tracks a block stack to resolve `{ }` nesting
// over a token stream; here the analogous structure is a tag nesting
// depth resolved by scanning runes directly, since JSX's matching problem
// (an opening tag against its closing tag) isn't expressible as a flat
// token-type grammar the way an attribute list is (see attrLexer in
// attrs.go, which participle does handle).
package jsx

import (
	"fmt"
	"strings"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
)

func Parse(file, source string) (*ast.Root, *diag.List) {
	p := &Parser{file: file, src: source, diags: &diag.List{}}
	out := &ast.Root{Location: ast.Location{File: file}}
	p.skipTrivia()
	for p.pos < len(p.src) {
		node := p.parseTopLevel()
		if node == nil {
			break
		}
		if d, ok := node.(ast.Directive); ok {
			out.Directives = append(out.Directives, d)
		}
		out.Body = append(out.Body, node)
		p.skipTrivia()
	}
	return out, p.diags
}

type Parser struct {
	file  string
	src   string
	pos   int
	diags *diag.List
}

func (p *Parser) loc() ast.Location { return ast.Location{File: p.file} }

func (p *Parser) errorf(format string, args ...any) {
	p.diags.Add(diag.Diagnostic{
		Kind: diag.KindSyntax, Severity: diag.Error,
		Pos:     diag.Position{File: p.file},
		Message: fmt.Sprintf(format, args...),
	})
}

func (p *Parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *Parser) peekAt(n int) byte {
	if p.pos+n >= len(p.src) {
		return 0
	}
	return p.src[p.pos+n]
}

func (p *Parser) skipTrivia() {
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			p.pos++
			continue
		}
		if c == '/' && p.peekAt(1) == '/' {
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

// parseTopLevel dispatches one document-level construct: an Element if the
// next rune opens a tag, otherwise a kry-syntax directive chunk delegated
// to kry.Parse.
func (p *Parser) parseTopLevel() ast.Node {
	if p.peek() == '<' {
		return p.parseElement()
	}
	return p.parseDirectiveChunk()
}

// parseDirectiveChunk locates the span of one kry-syntax top-level
// construct starting at p.pos and reparses it with frontend/kry, folding
// any diagnostics it raises into this parse's own list and returning its
// single top-level node.
func (p *Parser) parseDirectiveChunk() ast.Node {
	start := p.pos
	p.scanTopLevelSpan()
	chunk := strings.TrimSpace(p.src[start:p.pos])
	if chunk == "" {
		return nil
	}
	root, diags := kry.Parse(p.file, chunk)
	p.diags.Merge(diags)
	if len(root.Body) == 0 {
		p.errorf("directive produced no node: %q", chunk)
		return &ast.UnknownDirective{Location: p.loc(), Name: "?", Diagnostic: "empty parse"}
	}
	return root.Body[0]
}

// scanTopLevelSpan advances p.pos past one top-level construct: it tracks
// bracket depth (treating `{`, `(`, `[` uniformly, since a directive's
// inner expressions may use any of them) and string-literal/comment
// skipping so braces or angle brackets inside quoted text never confuse
// the count, stopping at the first depth-0 `;`, the first depth-0 `}` that
// closes the construct's own block (chasing `@elif`/`@else` continuations
// if present), or the next top-level `<` / end of input.
func (p *Parser) scanTopLevelSpan() {
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.skipStringLiteral()
		case c == '/' && p.peekAt(1) == '/':
			for p.pos < len(p.src) && p.src[p.pos] != '\n' {
				p.pos++
			}
		case c == '{' || c == '(' || c == '[':
			depth++
			p.pos++
		case c == '}' || c == ')' || c == ']':
			depth--
			p.pos++
			if depth == 0 && c == '}' {
				if p.consumeElifElseChain(&depth) {
					continue
				}
				return
			}
		case depth == 0 && c == ';':
			p.pos++
			return
		case depth == 0 && c == '<':
			return
		default:
			p.pos++
		}
	}
}

// consumeElifElseChain checks, after a depth-0 `}`, whether the next
// significant token is a literal "@elif" or "@else" continuation and, if
// so, consumes it plus its own `{ ... }` block (recursing through the same
// depth-tracking loop shape), reporting whether it consumed anything.
func (p *Parser) consumeElifElseChain(depth *int) bool {
	save := p.pos
	p.skipTrivia()
	if !p.matchLiteral("@elif") && !p.matchLiteral("@else") {
		p.pos = save
		return false
	}
	for p.pos < len(p.src) && p.src[p.pos] != '{' {
		if p.src[p.pos] == '"' {
			p.skipStringLiteral()
			continue
		}
		p.pos++
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.skipStringLiteral()
		case c == '{':
			*depth = *depth + 1
			p.pos++
		case c == '}':
			*depth = *depth - 1
			p.pos++
			if *depth == 0 {
				return true
			}
		default:
			p.pos++
		}
	}
	return true
}

func (p *Parser) matchLiteral(lit string) bool {
	if strings.HasPrefix(p.src[p.pos:], lit) {
		p.pos += len(lit)
		return true
	}
	return false
}

func (p *Parser) skipStringLiteral() {
	p.pos++ // opening quote
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' {
			p.pos += 2
			continue
		}
		p.pos++
		if c == '"' {
			return
		}
	}
}

// --- Elements ----------------------------------------------------------

func (p *Parser) parseElement() *ast.Element {
	p.pos++ // '<'
	tag := p.scanIdent()
	attrEnd, selfClosing := p.scanAttrRegionEnd()
	rawAttrs := p.src[p.pos:attrEnd]
	p.pos = attrEnd

	el := &ast.Element{Location: p.loc(), TypeName: tag}
	attrs, diags := parseAttrRegion(p.file, rawAttrs)
	p.diags.Merge(diags)
	p.applyAttrs(el, attrs)

	if selfClosing {
		p.matchLiteral("/>")
		return el
	}
	p.matchLiteral(">")
	p.parseChildrenInto(el, tag)
	return el
}

func (p *Parser) scanIdent() string {
	start := p.pos
	for p.pos < len(p.src) && isIdentByte(p.src[p.pos]) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// scanAttrRegionEnd finds the offset of the `>` terminating a tag's opening
// attribute region, honoring string literals and `{}` expression slots
// (which may themselves nest braces) so a stray `>` inside either is never
// mistaken for the tag's own close. Reports whether the tag is
// self-closing (`/>`).
func (p *Parser) scanAttrRegionEnd() (end int, selfClosing bool) {
	i := p.pos
	depth := 0
	for i < len(p.src) {
		c := p.src[i]
		switch {
		case c == '"':
			i++
			for i < len(p.src) {
				if p.src[i] == '\\' {
					i += 2
					continue
				}
				if p.src[i] == '"' {
					i++
					break
				}
				i++
			}
		case c == '{':
			depth++
			i++
		case c == '}':
			depth--
			i++
		case depth == 0 && c == '/' && i+1 < len(p.src) && p.src[i+1] == '>':
			return i, true
		case depth == 0 && c == '>':
			return i, false
		default:
			i++
		}
	}
	return i, false
}

func (p *Parser) applyAttrs(el *ast.Element, attrs []parsedAttr) {
	for _, a := range attrs {
		if a.IsEvent {
			el.Events = append(el.Events, &ast.Event{Location: p.loc(), Kind: a.Name, Handler: a.Handler})
			continue
		}
		switch a.Name {
		case "id":
			if lit, ok := a.Value.(*ast.Literal); ok && lit.Value.Kind == ast.LitBool {
				continue
			}
			el.ID = literalString(a.Value)
		case "style":
			el.StyleRef = literalString(a.Value)
		default:
			el.Properties = append(el.Properties, &ast.Property{Location: p.loc(), Name: a.Name, Value: a.Value})
		}
	}
}

// literalString extracts the bare text an `id`/`style` attribute carried.
// ParseBareValue returns a plain string ast.Literal for ordinary
// identifiers (neither a number, color, bool, nor null token), which is
// what these two attributes are expected to hold.
func literalString(e ast.Expression) string {
	if lit, ok := e.(*ast.Literal); ok && lit.Value.Kind == ast.LitString {
		return lit.Value.Str
	}
	return ""
}

// --- Children ------------------------------------------------------------

type childSeg struct {
	element *ast.Element
	text    string
	expr    ast.Expression
	isExpr  bool
}

// parseChildrenInto scans from just after the opening tag's `>` through the
// matching `</tag>`, collecting nested elements, `{expr}` interpolation
// slots, and literal text runs. If any nested element was found, those
// become el.Children (stray non-whitespace text alongside them is reported
// and dropped — a deliberate scope cut, documented in DESIGN.md); otherwise
// every text/expr run is folded into a single `text` property, matching
// frontend/xmlkry's same convenience promotion.
func (p *Parser) parseChildrenInto(el *ast.Element, tag string) {
	var segs []childSeg
	for p.pos < len(p.src) {
		if p.src[p.pos] == '<' && p.peekAt(1) == '/' {
			p.pos += 2
			p.scanIdent()
			p.matchLiteral(">")
			break
		}
		switch p.src[p.pos] {
		case '<':
			segs = append(segs, childSeg{element: p.parseElement()})
		case '{':
			p.pos++
			start := p.pos
			p.scanExprSlot()
			raw := p.src[start:p.pos]
			p.matchLiteral("}")
			expr, diags := kry.ParseExpression(p.file, raw)
			p.diags.Merge(diags)
			segs = append(segs, childSeg{expr: expr, isExpr: true})
		default:
			start := p.pos
			for p.pos < len(p.src) && p.src[p.pos] != '<' && p.src[p.pos] != '{' {
				p.pos++
			}
			segs = append(segs, childSeg{text: p.src[start:p.pos]})
		}
	}

	hasElement := false
	for _, s := range segs {
		if s.element != nil {
			hasElement = true
			break
		}
	}
	if hasElement {
		for _, s := range segs {
			if s.element != nil {
				el.Children = append(el.Children, s.element)
			} else if strings.TrimSpace(s.text) != "" {
				p.errorf("<%s>: stray text between child elements is dropped: %q", tag, strings.TrimSpace(s.text))
			}
		}
		return
	}

	var tmpl ast.Template
	for _, s := range segs {
		if s.isExpr {
			tmpl.Segments = append(tmpl.Segments, ast.TemplateSegment{Expr: s.expr})
		} else if s.text != "" {
			tmpl.Segments = append(tmpl.Segments, ast.TemplateSegment{Literal: s.text})
		}
	}
	if onlyWhitespaceSegments(tmpl.Segments) {
		return
	}
	el.Properties = append(el.Properties, &ast.Property{Location: p.loc(), Name: "text", Value: foldTemplate(p.loc(), tmpl)})
}

func onlyWhitespaceSegments(segs []ast.TemplateSegment) bool {
	for _, s := range segs {
		if s.Expr != nil || strings.TrimSpace(s.Literal) != "" {
			return false
		}
	}
	return true
}

// foldTemplate collapses a single-literal-segment template down to a plain
// string Literal (matching what kry.ParseTemplate itself would produce for
// text with no `${...}`/`{}` interpolation), keeping a real ast.Template
// only when more than one segment survived.
func foldTemplate(loc ast.Location, tmpl ast.Template) ast.Expression {
	if len(tmpl.Segments) == 1 && tmpl.Segments[0].Expr == nil {
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitString, Str: tmpl.Segments[0].Literal}}
	}
	if len(tmpl.Segments) == 1 && tmpl.Segments[0].Expr != nil {
		return tmpl.Segments[0].Expr
	}
	tmpl.Location = loc
	out := tmpl
	return &out
}

// scanExprSlot advances p.pos to the offset of the `}` matching the `{`
// already consumed by the caller, honoring string literals and nested
// braces (a JSX expression slot is not restricted from containing its own
// balanced `{}`, even though this frontend assigns no meaning to a bare
// object-literal inside one).
func (p *Parser) scanExprSlot() {
	depth := 0
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		switch {
		case c == '"':
			p.skipStringLiteral()
		case c == '{':
			depth++
			p.pos++
		case c == '}':
			if depth == 0 {
				return
			}
			depth--
			p.pos++
		default:
			p.pos++
		}
	}
}
