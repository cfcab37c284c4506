// Package xmlkry implements the XML/CSS-flavored Kryon frontend: an
// `<Element attr="value">...</Element>` document maps onto the same raw
// internal/ast vocabulary frontend/kry produces. Every frontend parser
// here is order-tolerant and shares one AST, so a second concrete grammar
// is a matter of mapping tags and attributes onto it, not reinventing
// expression or statement parsing.
//
// Reads XML with github.com/beevik/etree: ReadFromString into a Document,
// walk ChildElements, read attributes with SelectAttrValue, recurse by
// Tag. Style blocks use the github.com/tdewolff/parse/v2 css subpackage for
// their `name: value;` bodies, run in inline-declaration mode since a
// style's selector is already its `name`/`extends` attributes rather than
// CSS selector syntax.
//
// Literal values, templates, and handler-body statement lists are not
// reparsed here: xmlkry defers to frontend/kry's exported ParseBareValue,
// ParseTemplate, and ParseHandlerBody so every frontend agrees on exactly
// one expression and statement grammar, and only differs in how it finds
// the raw text to feed them.
package xmlkry

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
)

// reservedAttrs are attributes this frontend interprets itself rather than
// passing through as an ast.Property.
var reservedAttrs = map[string]bool{
	"id": true, "style": true,
}

// Parse reads one XML document and returns the shared raw AST, folding
// both XML well-formedness errors and this frontend's own mapping errors
// into the unified diagnostic list.
func Parse(file, source string) (*ast.Root, *diag.List) {
	diags := &diag.List{}
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{Permissive: true}
	if _, err := doc.ReadFromString(source); err != nil {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindSyntax, Severity: diag.Error,
			Pos:     diag.Position{File: file},
			Message: fmt.Sprintf("malformed XML: %s", err),
		})
		return &ast.Root{}, diags
	}
	root := doc.Root()
	if root == nil {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindSyntax, Severity: diag.Error,
			Pos:     diag.Position{File: file},
			Message: "document has no root element",
		})
		return &ast.Root{}, diags
	}

	p := &parser{file: file, diags: diags}
	out := &ast.Root{Location: ast.Location{File: file}}
	for _, child := range root.ChildElements() {
		p.parseTopLevel(child, out)
	}
	return out, diags
}

type parser struct {
	file  string
	diags *diag.List
}

// loc builds a Location for el. etree does not track source line/column
// (unlike internal/lexer's token stream), so every xmlkry-produced
// Location carries only the file name; diagnostics still resolve to a
// file, just not a line.
func (p *parser) loc(el *etree.Element) ast.Location {
	return ast.Location{File: p.file}
}

func (p *parser) errorf(el *etree.Element, format string, args ...any) {
	p.diags.Add(diag.Diagnostic{
		Kind: diag.KindSyntax, Severity: diag.Error,
		Pos:     diag.Position{File: p.file},
		Message: fmt.Sprintf("<%s>: %s", el.Tag, fmt.Sprintf(format, args...)),
	})
}

// parseTopLevel dispatches one child of the document root and appends it
// to out.Body in document order — mirroring frontend/kry's own parseRoot,
// whose Body is the single ordered list the IR builder actually walks
// (expandIncludes etc. all take root.Body; Directives is a same-order
// filtered view nothing downstream reads, kept only because the shared
// ast.Root shape has the field). Anything that is itself an ast.Directive
// also goes into out.Directives for parity with that shape.
func (p *parser) parseTopLevel(el *etree.Element, out *ast.Root) {
	var node ast.Node
	switch el.Tag {
	case "Var":
		node = p.parseVariables(el)
	case "Const":
		for _, d := range p.parseConsts(el) {
			out.Directives = append(out.Directives, d)
			out.Body = append(out.Body, d)
		}
		return
	case "Style":
		node = p.parseStyleDef(el)
	case "Theme":
		node = p.parseTheme(el)
	case "Component":
		node = p.parseComponent(el)
	case "Function":
		node = p.parseFunctionDef(el)
	case "Include":
		node = &ast.IncludeDirective{Location: p.loc(el), Path: el.SelectAttrValue("path", "")}
	case "Import":
		node = &ast.ImportDirective{
			Location: p.loc(el), Path: el.SelectAttrValue("path", ""), Symbols: splitList(el.SelectAttrValue("symbols", "")),
		}
	case "Export":
		node = &ast.ExportDirective{Location: p.loc(el), Symbols: splitList(el.SelectAttrValue("symbols", ""))}
	case "Watch":
		node = p.parseWatch(el)
	case "Event":
		node = p.parseEventDirective(el)
	default:
		node = p.parseNode(el)
	}
	if d, ok := node.(ast.Directive); ok {
		out.Directives = append(out.Directives, d)
	}
	out.Body = append(out.Body, node)
}

// parseNode parses an element that is part of the visible tree (as opposed
// to a top-level directive); @for/@if-shaped tags are still directives,
// just nested ones, so they route through the same dispatch one level
// down from parseTopLevel.
func (p *parser) parseNode(el *etree.Element) ast.Node {
	switch el.Tag {
	case "For", "ConstFor":
		return p.parseFor(el)
	case "If", "ConstIf":
		return p.parseIf(el)
	default:
		return p.parseElement(el)
	}
}

func (p *parser) parseVariables(el *etree.Element) *ast.VariablesDirective {
	d := &ast.VariablesDirective{Location: p.loc(el)}
	for _, attr := range el.Attr {
		d.Assignments = append(d.Assignments, &ast.VarAssign{
			Location: p.loc(el), Name: attr.Key,
			Value: kry.ParseBareValue(p.file, p.loc(el), attr.Value),
		})
	}
	return d
}

func (p *parser) parseConsts(el *etree.Element) []ast.Directive {
	var out []ast.Directive
	for _, attr := range el.Attr {
		out = append(out, &ast.ConstDirective{
			Location: p.loc(el), Name: attr.Key,
			Value: kry.ParseBareValue(p.file, p.loc(el), attr.Value),
		})
	}
	return out
}

func (p *parser) parseStyleDef(el *etree.Element) *ast.StyleDef {
	props, err := parseDeclarations(p.file, p.loc(el), el.Text())
	if err != nil {
		p.errorf(el, "style %q: %s", el.SelectAttrValue("name", ""), err)
	}
	return &ast.StyleDef{
		Location:   p.loc(el),
		Name:       el.SelectAttrValue("name", ""),
		Parent:     el.SelectAttrValue("extends", ""),
		Properties: props,
	}
}

func (p *parser) parseTheme(el *etree.Element) *ast.ThemeDef {
	t := &ast.ThemeDef{Location: p.loc(el), Group: el.SelectAttrValue("group", "")}
	for _, child := range el.ChildElements() {
		if child.Tag != "Var" {
			p.errorf(child, "unexpected tag %q inside Theme, expected Var", child.Tag)
			continue
		}
		for _, attr := range child.Attr {
			if attr.Key == "type" {
				continue
			}
			t.Variables = append(t.Variables, &ast.ThemeVariable{
				Location: p.loc(child), Name: attr.Key,
				Type:    child.SelectAttrValue("type", ""),
				Initial: kry.ParseBareValue(p.file, p.loc(child), attr.Value),
			})
		}
	}
	return t
}

func (p *parser) parseComponent(el *etree.Element) *ast.ComponentDef {
	c := &ast.ComponentDef{
		Location: p.loc(el),
		Name:     el.SelectAttrValue("name", ""),
		Parent:   el.SelectAttrValue("extends", ""),
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "Param":
			param := ast.Param{Name: child.SelectAttrValue("name", "")}
			if d := child.SelectAttrValue("default", ""); d != "" {
				param.Default = kry.ParseBareValue(p.file, p.loc(child), d)
			}
			c.Params = append(c.Params, param)
		case "State":
			c.StateVars = append(c.StateVars, p.parseStateDef(child))
		case "Function":
			c.Functions = append(c.Functions, p.parseFunctionDef(child))
		case "OnMount":
			c.OnMount = p.parseLifecycleHook(child)
		case "OnUnmount":
			c.OnUnmount = p.parseLifecycleHook(child)
		default:
			c.Body = append(c.Body, p.parseNode(child))
		}
	}
	return c
}

func (p *parser) parseStateDef(el *etree.Element) *ast.StateDef {
	return &ast.StateDef{
		Location: p.loc(el),
		Name:     el.SelectAttrValue("name", ""),
		Type:     el.SelectAttrValue("type", ""),
		Initial:  kry.ParseBareValue(p.file, p.loc(el), el.SelectAttrValue("initial", "")),
	}
}

func (p *parser) parseLifecycleHook(el *etree.Element) *ast.LifecycleHook {
	h, diags := kry.ParseHandlerBody(p.file, el.Text())
	p.diags.Merge(diags)
	inline, ok := h.(ast.InlineHandler)
	if !ok {
		return &ast.LifecycleHook{Location: p.loc(el)}
	}
	return &ast.LifecycleHook{Location: p.loc(el), Statements: inline.Statements}
}

func (p *parser) parseFunctionDef(el *etree.Element) *ast.FunctionDef {
	d := &ast.FunctionDef{
		Location: p.loc(el),
		Language: el.SelectAttrValue("lang", ""),
		Name:     el.SelectAttrValue("name", ""),
		Params:   splitList(el.SelectAttrValue("params", "")),
	}
	if d.Language != "" {
		d.Code = el.Text()
		return d
	}
	h, diags := kry.ParseHandlerBody(p.file, el.Text())
	p.diags.Merge(diags)
	if inline, ok := h.(ast.InlineHandler); ok {
		d.Body = inline.Statements
	}
	return d
}

func (p *parser) parseWatch(el *etree.Element) *ast.WatchDirective {
	return &ast.WatchDirective{
		Location: p.loc(el),
		Var:      el.SelectAttrValue("var", ""),
		Handler:  p.parseHandlerAttrOrBody(el),
	}
}

func (p *parser) parseEventDirective(el *etree.Element) *ast.EventDirective {
	return &ast.EventDirective{
		Location: p.loc(el),
		Kind:     el.SelectAttrValue("kind", ""),
		Handler:  p.parseHandlerAttrOrBody(el),
	}
}

// parseHandlerAttrOrBody reads a handler from an `on="..."` attribute if
// present, else from the element's own text content — directives that
// bind a handler (Watch, Event) are leaves with no further element
// children, so either surface is unambiguous.
func (p *parser) parseHandlerAttrOrBody(el *etree.Element) ast.HandlerBody {
	raw := el.SelectAttrValue("on", "")
	if raw == "" {
		raw = el.Text()
	}
	return p.parseHandler(el, raw)
}

func (p *parser) parseFor(el *etree.Element) *ast.ForDirective {
	d := &ast.ForDirective{
		Location: p.loc(el),
		IsConst:  el.Tag == "ConstFor",
		Index:    el.SelectAttrValue("index", ""),
		Var:      el.SelectAttrValue("var", ""),
		Iterable: kry.ParseBareValue(p.file, p.loc(el), el.SelectAttrValue("in", "")),
	}
	for _, child := range el.ChildElements() {
		d.Body = append(d.Body, p.parseNode(child))
	}
	return d
}

func (p *parser) parseIf(el *etree.Element) *ast.IfDirective {
	d := &ast.IfDirective{
		Location: p.loc(el),
		IsConst:  el.Tag == "ConstIf",
		Cond:     kry.ParseBareValue(p.file, p.loc(el), el.SelectAttrValue("cond", "")),
	}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "Elif":
			d.ElifPairs = append(d.ElifPairs, ast.ElifPair{
				Cond: kry.ParseBareValue(p.file, p.loc(child), child.SelectAttrValue("cond", "")),
				Body: p.parseChildren(child),
			})
		case "Else":
			d.Else = p.parseChildren(child)
		default:
			d.Then = append(d.Then, p.parseNode(child))
		}
	}
	return d
}

func (p *parser) parseChildren(el *etree.Element) []ast.Node {
	var out []ast.Node
	for _, child := range el.ChildElements() {
		out = append(out, p.parseNode(child))
	}
	return out
}

// parseElement maps one visible XML element onto ast.Element: `id` and
// `style` attributes become Element.ID/StyleRef, `onXxx`-shaped attributes
// become Events, everything else becomes a Property. Direct text content
// (if any, and if no explicit `text` attribute/property already claims
// it) becomes a `text` property — the common case of `<Text>count:
// ${count}</Text>` reading naturally instead of forcing `text="..."`.
func (p *parser) parseElement(el *etree.Element) *ast.Element {
	out := &ast.Element{
		Location: p.loc(el),
		TypeName: el.Tag,
		ID:       el.SelectAttrValue("id", ""),
		StyleRef: el.SelectAttrValue("style", ""),
	}
	hasTextProp := false
	for _, attr := range el.Attr {
		if reservedAttrs[attr.Key] {
			continue
		}
		if kind, isEvent := eventKind(attr.Key); isEvent {
			out.Events = append(out.Events, &ast.Event{
				Location: p.loc(el), Kind: kind, Handler: p.parseHandler(el, attr.Value),
			})
			continue
		}
		if attr.Key == "text" {
			hasTextProp = true
		}
		out.Properties = append(out.Properties, &ast.Property{
			Location: p.loc(el), Name: attr.Key,
			Value: kry.ParseBareValue(p.file, p.loc(el), attr.Value),
		})
	}
	if !hasTextProp {
		if text := strings.TrimSpace(directText(el)); text != "" {
			out.Properties = append(out.Properties, &ast.Property{
				Location: p.loc(el), Name: "text",
				Value: kry.ParseTemplate(p.loc(el), text),
			})
		}
	}
	for _, child := range el.ChildElements() {
		out.Children = append(out.Children, p.parseNode(child))
	}
	return out
}

// parseHandler decides between an inline statement list and a bare
// function-name reference the same way frontend/kry's own parseHandlerBody
// does for a `{ ... }` vs bare IDENT handler body — an XML attribute value
// has no braces to disambiguate on, so a lone identifier is treated as a
// NamedHandler and anything else as an inline statement list.
func (p *parser) parseHandler(el *etree.Element, raw string) ast.HandlerBody {
	raw = strings.TrimSpace(raw)
	if isBareIdent(raw) {
		return ast.NamedHandler{FunctionName: raw}
	}
	h, diags := kry.ParseHandlerBody(p.file, raw)
	p.diags.Merge(diags)
	return h
}

func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// eventKind recognizes `onXxx` attribute names, translating to the
// lower-camel event kind frontend/kry's own grammar uses for `onXxx = ...`
// handler properties.
func eventKind(attrName string) (string, bool) {
	if len(attrName) < 3 || attrName[:2] != "on" || attrName[2] < 'A' || attrName[2] > 'Z' {
		return "", false
	}
	rest := attrName[2:]
	return strings.ToLower(rest[:1]) + rest[1:], true
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// directText returns the char data directly under el that precedes its
// first child element — etree.Element.Text()'s own behavior (first CharData
// run); kept as a named wrapper so intent reads at the call site.
func directText(el *etree.Element) string {
	return el.Text()
}
