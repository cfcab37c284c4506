// Package sexpr implements the S-expression-flavored Kryon frontend: a
// `(TagName (prop value) (onClick handler) (Child ...))` document maps
// onto the exact same internal/ast vocabulary frontend/kry and
// frontend/xmlkry produce. Every frontend parser here is order-tolerant
// and shares one AST — a third concrete grammar is a matter of mapping
// forms onto it, not reinventing expression or statement parsing.
//
// Unlike frontend/jsx, which keeps its non-element directive syntax
// textually identical to frontend/kry's own and delegates whole spans
// straight to kry.Parse, sexpr's directives have their own natural
// parenthesized shape — `(const MAX 10)`, not `const MAX = 10;` — so they
// are built directly from parsed forms here, the same way
// frontend/xmlkry builds them directly from XML tags/attributes rather
// than re-deriving kry's own textual grammar. Only the leaf values
// (property values, conditions, handler bodies) are handed to
// frontend/kry's exported ParseBareValue/ParseExpression/ParseHandlerBody,
// keeping exactly one expression grammar and one statement grammar for
// every frontend to agree on.
package sexpr

import (
	"fmt"
	"strings"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
)

// directiveHeads are the lowercase form heads this frontend interprets
// itself, mirroring frontend/kry's own bare keywords (const, style,
// component, include, import, export) and `@`-directives (var, watch,
// event, for, const_for, if, const_if, theme) — spelled here without the
// `@`, since parenthesization already marks a form as structural.
var directiveHeads = map[string]bool{
	"var": true, "const": true, "style": true, "theme": true,
	"component": true, "function": true, "include": true, "import": true,
	"export": true, "watch": true, "event": true,
	"for": true, "const_for": true, "if": true, "const_if": true,
}

// Parse reads one S-expression document and returns the shared raw AST.
func Parse(file, source string) (*ast.Root, *diag.List) {
	diags := &diag.List{}
	tree, err := formParser.ParseString(file, source)
	if err != nil {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindSyntax, Severity: diag.Error,
			Pos:     diag.Position{File: file},
			Message: fmt.Sprintf("malformed s-expression document: %s", err),
		})
		return &ast.Root{Location: ast.Location{File: file}}, diags
	}

	p := &parser{file: file, diags: diags}
	out := &ast.Root{Location: ast.Location{File: file}}
	for _, f := range tree.Forms {
		node := p.parseTopLevel(f)
		if d, ok := node.(ast.Directive); ok {
			out.Directives = append(out.Directives, d)
		}
		out.Body = append(out.Body, node)
	}
	return out, diags
}

type parser struct {
	file  string
	diags *diag.List
}

// loc builds this frontend's Location. Like xmlkry, the generic
// document/form grammar's only position info is the opening "(" of a
// form — reconstructing text via renderForm/renderArgs already loses
// byte offsets, so every sexpr Location carries only the file name.
func (p *parser) loc() ast.Location { return ast.Location{File: p.file} }

func (p *parser) errorf(f *form, format string, args ...any) {
	p.diags.Add(diag.Diagnostic{
		Kind: diag.KindSyntax, Severity: diag.Error,
		Pos:     diag.Position{File: p.file},
		Message: fmt.Sprintf("(%s ...): %s", f.Head, fmt.Sprintf(format, args...)),
	})
}

// valueExpr parses a property/condition/constant's value arguments: a
// single argument goes through kry.ParseBareValue (a bare number, unit,
// color, bool, null, or string token — reusing ParseTemplate's ${...}
// scan for the string case), anything longer goes through the full
// kry.ParseExpression chain, since a single bare atom can never itself be
// a multi-token expression like `count + 1`.
func (p *parser) valueExpr(args []*atom) ast.Expression {
	raw := renderArgs(args)
	if len(args) == 1 {
		return kry.ParseBareValue(p.file, p.loc(), raw)
	}
	expr, diags := kry.ParseExpression(p.file, raw)
	p.diags.Merge(diags)
	return expr
}

func (p *parser) parseTopLevel(f *form) ast.Node {
	switch {
	case f.Head == "var":
		return p.parseVariables(f)
	case f.Head == "const":
		return p.parseConst(f)
	case f.Head == "style":
		return p.parseStyleDef(f)
	case f.Head == "theme":
		return p.parseTheme(f)
	case f.Head == "component":
		return p.parseComponent(f)
	case f.Head == "function":
		return p.parseFunctionDef(f)
	case f.Head == "include":
		return &ast.IncludeDirective{Location: p.loc(), Path: renderArgs(f.Args)}
	case f.Head == "import":
		return p.parseImport(f)
	case f.Head == "export":
		return &ast.ExportDirective{Location: p.loc(), Symbols: tokStrings(f.Args)}
	case f.Head == "watch":
		return p.parseWatch(f)
	case f.Head == "event":
		return p.parseEventDirective(f)
	default:
		return p.parseNode(f)
	}
}

// parseNode parses a form that is part of the visible tree (as opposed to
// a top-level directive); `for`/`const_for`/`if`/`const_if` are still
// directives, just nested ones, so they route through this one level
// down from parseTopLevel — mirroring xmlkry's parseNode exactly.
func (p *parser) parseNode(f *form) ast.Node {
	switch f.Head {
	case "for", "const_for":
		return p.parseFor(f)
	case "if", "const_if":
		return p.parseIf(f)
	default:
		if !isElementHead(f.Head) {
			p.errorf(f, "unrecognized construct %q (element tags must start uppercase)", f.Head)
			return &ast.UnknownDirective{Location: p.loc(), Name: f.Head, Diagnostic: "unrecognized top-level form"}
		}
		return p.parseElement(f)
	}
}

func (p *parser) parseVariables(f *form) *ast.VariablesDirective {
	d := &ast.VariablesDirective{Location: p.loc()}
	for _, a := range f.Args {
		if a.Form == nil || len(a.Form.Args) == 0 {
			p.errorf(f, "expected (name value), got %q", renderAtom(a))
			continue
		}
		d.Assignments = append(d.Assignments, &ast.VarAssign{
			Location: p.loc(), Name: a.Form.Head,
			Value: p.valueExpr(a.Form.Args),
		})
	}
	return d
}

func (p *parser) parseConst(f *form) *ast.ConstDirective {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (const NAME value...)")
		return &ast.ConstDirective{Location: p.loc()}
	}
	return &ast.ConstDirective{
		Location: p.loc(), Name: f.Args[0].Tok,
		Value: p.valueExpr(f.Args[1:]),
	}
}

func (p *parser) parseStyleDef(f *form) *ast.StyleDef {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (style NAME ...)")
		return &ast.StyleDef{Location: p.loc()}
	}
	d := &ast.StyleDef{Location: p.loc(), Name: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form == nil {
			p.errorf(f, "unexpected bare value %q in style body", renderAtom(a))
			continue
		}
		if a.Form.Head == "extends" {
			d.Parent = renderArgs(a.Form.Args)
			continue
		}
		d.Properties = append(d.Properties, &ast.Property{
			Location: p.loc(), Name: a.Form.Head, Value: p.valueExpr(a.Form.Args),
		})
	}
	return d
}

func (p *parser) parseTheme(f *form) *ast.ThemeDef {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (theme GROUP ...)")
		return &ast.ThemeDef{Location: p.loc()}
	}
	t := &ast.ThemeDef{Location: p.loc(), Group: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form == nil || a.Form.Head != "var" || len(a.Form.Args) < 2 {
			p.errorf(f, "expected (var NAME [TYPE] VALUE), got %q", renderAtom(a))
			continue
		}
		inner := a.Form.Args
		name := inner[0].Tok
		typ := ""
		valueArgs := inner[1:]
		if len(inner) >= 3 && inner[1].Form == nil && inner[1].Str == nil {
			typ = inner[1].Tok
			valueArgs = inner[2:]
		}
		t.Variables = append(t.Variables, &ast.ThemeVariable{
			Location: p.loc(), Name: name, Type: typ, Initial: p.valueExpr(valueArgs),
		})
	}
	return t
}

func (p *parser) parseComponent(f *form) *ast.ComponentDef {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (component NAME ...)")
		return &ast.ComponentDef{Location: p.loc()}
	}
	c := &ast.ComponentDef{Location: p.loc(), Name: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form == nil {
			p.errorf(f, "unexpected bare value %q in component body", renderAtom(a))
			continue
		}
		switch a.Form.Head {
		case "extends":
			c.Parent = renderArgs(a.Form.Args)
		case "param":
			c.Params = append(c.Params, p.parseParam(a.Form))
		case "state":
			c.StateVars = append(c.StateVars, p.parseStateDef(a.Form))
		case "function":
			c.Functions = append(c.Functions, p.parseFunctionDef(a.Form))
		case "on_mount":
			c.OnMount = p.parseLifecycleHook(a.Form)
		case "on_unmount":
			c.OnUnmount = p.parseLifecycleHook(a.Form)
		default:
			c.Body = append(c.Body, p.parseNode(a.Form))
		}
	}
	return c
}

// parseParam reads `(param NAME)` or `(param NAME (default VALUE...))`.
func (p *parser) parseParam(f *form) ast.Param {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (param NAME [(default VALUE)])")
		return ast.Param{}
	}
	param := ast.Param{Name: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form != nil && a.Form.Head == "default" {
			param.Default = p.valueExpr(a.Form.Args)
		}
	}
	return param
}

func (p *parser) parseStateDef(f *form) *ast.StateDef {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (state NAME [(type TYPE)] (initial VALUE))")
		return &ast.StateDef{Location: p.loc()}
	}
	d := &ast.StateDef{Location: p.loc(), Name: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form == nil {
			continue
		}
		switch a.Form.Head {
		case "type":
			d.Type = renderArgs(a.Form.Args)
		case "initial":
			d.Initial = p.valueExpr(a.Form.Args)
		}
	}
	return d
}

func (p *parser) parseLifecycleHook(f *form) *ast.LifecycleHook {
	h, diags := kry.ParseHandlerBody(p.file, renderArgs(f.Args))
	p.diags.Merge(diags)
	hook := &ast.LifecycleHook{Location: p.loc()}
	if inline, ok := h.(ast.InlineHandler); ok {
		hook.Statements = inline.Statements
	}
	return hook
}

func (p *parser) parseFunctionDef(f *form) *ast.FunctionDef {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (function NAME ...)")
		return &ast.FunctionDef{Location: p.loc()}
	}
	d := &ast.FunctionDef{Location: p.loc(), Name: f.Args[0].Tok}
	rest := f.Args[1:]
	for len(rest) > 0 && rest[0].Form != nil && rest[0].Form.Head == "param" {
		d.Params = append(d.Params, renderArgs(rest[0].Form.Args))
		rest = rest[1:]
	}
	if len(rest) > 0 && rest[0].Form != nil && rest[0].Form.Head == "lang" {
		d.Language = renderArgs(rest[0].Form.Args)
		rest = rest[1:]
	}
	if d.Language != "" {
		d.Code = renderArgs(rest)
		return d
	}
	h, diags := kry.ParseHandlerBody(p.file, renderArgs(rest))
	p.diags.Merge(diags)
	if inline, ok := h.(ast.InlineHandler); ok {
		d.Body = inline.Statements
	}
	return d
}

func (p *parser) parseImport(f *form) *ast.ImportDirective {
	if len(f.Args) < 1 {
		p.errorf(f, "expected (import \"path\" symbol...)")
		return &ast.ImportDirective{Location: p.loc()}
	}
	return &ast.ImportDirective{
		Location: p.loc(), Path: renderAtomUnquoted(f.Args[0]), Symbols: tokStrings(f.Args[1:]),
	}
}

func (p *parser) parseWatch(f *form) *ast.WatchDirective {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (watch VAR handler-body...)")
		return &ast.WatchDirective{Location: p.loc()}
	}
	return &ast.WatchDirective{
		Location: p.loc(), Var: f.Args[0].Tok, Handler: p.parseHandler(f.Args[1:]),
	}
}

func (p *parser) parseEventDirective(f *form) *ast.EventDirective {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (event KIND handler-body...)")
		return &ast.EventDirective{Location: p.loc()}
	}
	return &ast.EventDirective{
		Location: p.loc(), Kind: f.Args[0].Tok, Handler: p.parseHandler(f.Args[1:]),
	}
}

// parseHandler decides between an inline statement list and a bare
// function-name reference the same way frontend/xmlkry's own parseHandler
// does: a lone identifier is a NamedHandler, anything else is run through
// kry.ParseHandlerBody as an inline statement list.
func (p *parser) parseHandler(args []*atom) ast.HandlerBody {
	if len(args) == 1 && args[0].Form == nil && args[0].Str == nil && isBareIdent(args[0].Tok) {
		return ast.NamedHandler{FunctionName: args[0].Tok}
	}
	h, diags := kry.ParseHandlerBody(p.file, renderArgs(args))
	p.diags.Merge(diags)
	return h
}

// parseFor reads `(for ITEM (in ITERABLE) (index IDX) child...)`.
func (p *parser) parseFor(f *form) *ast.ForDirective {
	if len(f.Args) < 1 || f.Args[0].Form != nil {
		p.errorf(f, "expected (for ITEM (in ITERABLE) ...)")
		return &ast.ForDirective{Location: p.loc()}
	}
	d := &ast.ForDirective{Location: p.loc(), IsConst: f.Head == "const_for", Var: f.Args[0].Tok}
	for _, a := range f.Args[1:] {
		if a.Form == nil {
			p.errorf(f, "unexpected bare value %q in for body", renderAtom(a))
			continue
		}
		switch a.Form.Head {
		case "in":
			d.Iterable = p.valueExpr(a.Form.Args)
		case "index":
			d.Index = renderArgs(a.Form.Args)
		default:
			d.Body = append(d.Body, p.parseNode(a.Form))
		}
	}
	return d
}

// parseIf reads `(if (cond EXPR) then... (elif (cond EXPR) then...) (else
// then...))`.
func (p *parser) parseIf(f *form) *ast.IfDirective {
	if len(f.Args) < 1 || f.Args[0].Form == nil || f.Args[0].Form.Head != "cond" {
		p.errorf(f, "expected (if (cond EXPR) ...)")
		return &ast.IfDirective{Location: p.loc()}
	}
	d := &ast.IfDirective{
		Location: p.loc(), IsConst: f.Head == "const_if",
		Cond: p.valueExpr(f.Args[0].Form.Args),
	}
	for _, a := range f.Args[1:] {
		if a.Form == nil {
			p.errorf(f, "unexpected bare value %q in if body", renderAtom(a))
			continue
		}
		switch a.Form.Head {
		case "elif":
			d.ElifPairs = append(d.ElifPairs, p.parseElif(a.Form))
		case "else":
			d.Else = p.parseBody(a.Form.Args)
		default:
			d.Then = append(d.Then, p.parseNode(a.Form))
		}
	}
	return d
}

func (p *parser) parseElif(f *form) ast.ElifPair {
	if len(f.Args) < 1 || f.Args[0].Form == nil || f.Args[0].Form.Head != "cond" {
		p.errorf(f, "expected (elif (cond EXPR) ...)")
		return ast.ElifPair{}
	}
	return ast.ElifPair{
		Cond: p.valueExpr(f.Args[0].Form.Args),
		Body: p.parseBody(f.Args[1:]),
	}
}

func (p *parser) parseBody(args []*atom) []ast.Node {
	var out []ast.Node
	for _, a := range args {
		if a.Form == nil {
			p.errorf(&form{Head: "body"}, "unexpected bare value %q", renderAtom(a))
			continue
		}
		out = append(out, p.parseNode(a.Form))
	}
	return out
}

// parseElement maps one visible form onto ast.Element: `(id ...)` and
// `(style ...)` sub-forms become Element.ID/StyleRef, `(onXxx ...)`
// sub-forms become Events, everything else becomes a Property; a nested
// form whose head starts uppercase is a child element.
func (p *parser) parseElement(f *form) *ast.Element {
	el := &ast.Element{Location: p.loc(), TypeName: f.Head}
	for _, a := range f.Args {
		if a.Form == nil {
			p.errorf(f, "unexpected bare value %q in element body, expected a (name value) form", renderAtom(a))
			continue
		}
		sub := a.Form
		if isElementHead(sub.Head) {
			el.Children = append(el.Children, p.parseElement(sub))
			continue
		}
		if kind, ok := eventKind(sub.Head); ok {
			el.Events = append(el.Events, &ast.Event{
				Location: p.loc(), Kind: kind, Handler: p.parseHandler(sub.Args),
			})
			continue
		}
		switch sub.Head {
		case "id":
			el.ID = renderArgs(sub.Args)
		case "style":
			el.StyleRef = renderArgs(sub.Args)
		default:
			el.Properties = append(el.Properties, &ast.Property{
				Location: p.loc(), Name: sub.Head, Value: p.valueExpr(sub.Args),
			})
		}
	}
	return el
}

func isElementHead(head string) bool {
	return head != "" && head[0] >= 'A' && head[0] <= 'Z'
}

// eventKind recognizes `onXxx`-shaped form heads, translating to the
// lower-camel event kind frontend/kry's own grammar uses for `onXxx = ...`
// handler properties.
func eventKind(head string) (string, bool) {
	if len(head) < 3 || head[:2] != "on" || head[2] < 'A' || head[2] > 'Z' {
		return "", false
	}
	rest := head[2:]
	return strings.ToLower(rest[:1]) + rest[1:], true
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

func tokStrings(args []*atom) []string {
	var out []string
	for _, a := range args {
		if a.Form == nil {
			out = append(out, renderAtom(a))
		}
	}
	return out
}

func renderAtomUnquoted(a *atom) string {
	if a.Str != nil {
		return unquoteSexpr(*a.Str)
	}
	return renderAtom(a)
}
