// Package kry implements the primary Kryon frontend: a hand-written
// recursive-descent parser over internal/lexer's token stream, producing
// the shared internal/ast vocabulary.
//
// The parser descends recursively through brace-delimited blocks,
// recognizing `component`/`style`/property lines and synchronizing on
// structural boundaries — scanning indented source with a manual block
// stack, generalized onto a real token stream with brace-delimited
// blocks, since a stable
// round-trip target needs explicit block delimiters rather than
// indentation sensitivity. Property separators accept both `:` and `=` —
// both are accepted to stay compatible with either surface convention
// without forcing one on the other frontends sharing this AST.
package kry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/lexer"
	"github.com/kryonlabs/kryon/internal/token"
)

// ParseBareValue parses raw as this frontend's literal grammar would read
// it unquoted — a number, `10px`-style NUMUNIT, `#rrggbbaa` color, bool, or
// null token, tried in that order — falling back to ParseTemplate when raw
// doesn't lex as exactly one such token. Sibling frontends whose own
// surface syntax already supplies value delimiting (an XML attribute, a
// JSX string prop) have no quoted string literal of their own to re-lex,
// so they call this instead of duplicating parsePrimary's literal-kind
// dispatch.
func ParseBareValue(file string, loc ast.Location, raw string) ast.Expression {
	toks, errs := lexer.Lex(file, raw)
	if len(errs) == 0 && len(toks) == 2 && toks[1].Kind == token.EOF {
		switch toks[0].Kind {
		case token.NUMBER, token.NUMUNIT, token.COLOR, token.BOOL, token.NULLLIT:
			p := &Parser{toks: toks, file: file, diags: &diag.List{}}
			return p.parsePrimary()
		}
	}
	return ParseTemplate(loc, raw)
}

// ParseHandlerBody parses raw as a brace-free statement list (one or more
// `;`-separated assignments/expressions) — the shape an attribute-style
// event binding carries (`onClick="count = count + 1"`) where the host
// syntax's own delimiters (quotes) already bound the handler text, so no
// `{ }` wrapper is written in source. It is parsed by wrapping raw in a
// synthetic block and running the normal statement-block parser, keeping
// one statement grammar for every frontend.
func ParseHandlerBody(file, raw string) (ast.HandlerBody, *diag.List) {
	toks, lexErrs := lexer.Lex(file, "{"+raw+"}")
	diags := &diag.List{}
	for _, e := range lexErrs {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindLexical, Severity: diag.Error,
			Pos:     diag.Position{File: file, Line: e.Line, Column: e.Column},
			Message: e.Message,
		})
	}
	p := &Parser{toks: toks, file: file, diags: diags}
	return p.parseHandlerBody(), diags
}

// ParseTemplate detects `${...}` runs inside raw and, if any are found,
// produces an ast.Template; otherwise a plain string ast.Literal. Exported
// for sibling frontends whose raw values arrive already unquoted.
func ParseTemplate(loc ast.Location, raw string) ast.Expression {
	return parseTemplateOrString(loc, raw)
}

// ParseExpression parses raw with the full ternary-down-to-primary
// precedence chain — member/array access, calls, binary and unary
// operators, not just the single-token literal shortcut ParseBareValue
// takes. Sibling frontends whose surface syntax embeds a genuine
// expression slot bounded by its own delimiters (JSX's `{expr}`, where the
// braces are the host grammar's, not kry's) call this directly instead of
// re-deriving operator precedence themselves.
func ParseExpression(file string, raw string) (ast.Expression, *diag.List) {
	toks, lexErrs := lexer.Lex(file, raw)
	diags := &diag.List{}
	for _, e := range lexErrs {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindLexical, Severity: diag.Error,
			Pos:     diag.Position{File: file, Line: e.Line, Column: e.Column},
			Message: e.Message,
		})
	}
	p := &Parser{toks: toks, file: file, diags: diags}
	expr := p.parseExpression()
	return expr, diags
}

// Parse lexes and parses one compilation unit, returning the raw AST and
// any diagnostics (lexical and syntax errors are both folded into the same
// unified diagnostic list).
func Parse(file, source string) (*ast.Root, *diag.List) {
	toks, lexErrs := lexer.Lex(file, source)
	diags := &diag.List{}
	for _, e := range lexErrs {
		diags.Add(diag.Diagnostic{
			Kind: diag.KindLexical, Severity: diag.Error,
			Pos: diag.Position{File: file, Line: e.Line, Column: e.Column},
			Message: e.Message,
		})
	}
	p := &Parser{toks: toks, file: file, diags: diags}
	root := p.parseRoot()
	return root, diags
}

// Parser is a single-pass, backtrack-free (aside from small fixed
// lookahead) recursive-descent parser.
type Parser struct {
	toks []token.Token
	pos  int
	file string

	diags *diag.List
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	i := p.pos + offset
	if i >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[i]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) loc() ast.Location {
	pos := p.cur().Pos
	return ast.Location{File: pos.File, Line: pos.Line, Column: pos.Column}
}

func (p *Parser) errorf(format string, args ...any) {
	pos := p.cur().Pos
	p.diags.Add(diag.Diagnostic{
		Kind: diag.KindSyntax, Severity: diag.Error,
		Pos:     diag.Position{File: pos.File, Line: pos.Line, Column: pos.Column},
		Message: fmt.Sprintf(format, args...),
	})
}

// expect consumes a token of kind k, or records a syntax error and returns
// the zero Token without advancing.
func (p *Parser) expect(k token.Kind) token.Token {
	if p.at(k) {
		return p.advance()
	}
	p.errorf("expected %s, got %s %q", k, p.cur().Kind, p.cur().Literal)
	return token.Token{}
}

// synchronize skips tokens until a top-level boundary: a `}` that would
// close depth-0 nesting, or a recognized directive/keyword start (spec
// §4.2 failure recovery: "synchronize at the next top-level boundary").
func (p *Parser) synchronize() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		}
		if depth == 0 && (p.cur().Kind.IsKeyword() || isDirectiveStart(p.cur().Kind)) {
			return
		}
		p.advance()
	}
}

func isDirectiveStart(k token.Kind) bool {
	switch k {
	case token.AT_WATCH, token.AT_EVENT, token.AT_FOR, token.AT_IF, token.AT_ELIF,
		token.AT_ELSE, token.AT_CONSTFOR, token.AT_CONSTIF, token.AT_THEME, token.AT_VAR:
		return true
	default:
		return false
	}
}

// --- Root / top-level ------------------------------------------------------

func (p *Parser) parseRoot() *ast.Root {
	root := &ast.Root{Location: p.loc()}
	for !p.at(token.EOF) {
		before := p.pos
		node := p.parseTopLevel()
		if node != nil {
			if d, ok := node.(ast.Directive); ok {
				root.Directives = append(root.Directives, d)
			}
			root.Body = append(root.Body, node)
		}
		if p.pos == before {
			// parseTopLevel made no progress; avoid an infinite loop.
			p.errorf("unexpected token %s %q", p.cur().Kind, p.cur().Literal)
			p.advance()
		}
	}
	return root
}

func (p *Parser) parseTopLevel() ast.Node {
	switch p.cur().Kind {
	case token.KW_INCLUDE:
		return p.parseInclude()
	case token.KW_IMPORT:
		return p.parseImport()
	case token.KW_EXPORT:
		return p.parseExport()
	case token.KW_CONST:
		return p.parseConst()
	case token.KW_STYLE:
		return p.parseStyle()
	case token.KW_COMPONENT:
		return p.parseComponent()
	case token.AT_THEME:
		return p.parseTheme()
	case token.AT_VAR:
		return p.parseVariables()
	case token.AT_FOR, token.AT_CONSTFOR:
		return p.parseFor()
	case token.AT_IF, token.AT_CONSTIF:
		return p.parseIf()
	case token.AT_WATCH:
		return p.parseWatch()
	case token.AT_EVENT:
		return p.parseEventDirective()
	case token.IDENT:
		if p.cur().Literal == "function" {
			return p.parseFunctionDef()
		}
		return p.parseElement()
	case token.AT:
		loc := p.loc()
		name := p.advance().Literal
		p.errorf("unknown directive %q", name)
		p.synchronize()
		return &ast.UnknownDirective{Location: loc, Name: name, Diagnostic: "unknown directive"}
	default:
		p.errorf("unexpected token %s %q at top level", p.cur().Kind, p.cur().Literal)
		p.synchronize()
		return nil
	}
}

// parseBody parses the `{ ... }`-delimited sequence of Nodes shared by
// Root, Element, ComponentDef, and directive bodies.
func (p *Parser) parseBody() []ast.Node {
	p.expect(token.LBRACE)
	var body []ast.Node
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		node := p.parseBodyItem()
		if node != nil {
			body = append(body, node)
		}
		if p.pos == before {
			p.errorf("unexpected token %s %q in body", p.cur().Kind, p.cur().Literal)
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return body
}

func (p *Parser) parseBodyItem() ast.Node {
	return p.parseTopLevel()
}

// --- Include / Import / Export / Const -------------------------------------

func (p *Parser) parseInclude() ast.Node {
	loc := p.loc()
	p.advance() // include
	path := p.expect(token.STRING).Literal
	p.consumeOptSemi()
	return &ast.IncludeDirective{Location: loc, Path: path}
}

func (p *Parser) parseImport() ast.Node {
	loc := p.loc()
	p.advance() // import
	var symbols []string
	if p.at(token.LBRACE) {
		p.advance()
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			symbols = append(symbols, p.expect(token.IDENT).Literal)
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RBRACE)
	}
	path := p.expect(token.STRING).Literal
	p.consumeOptSemi()
	return &ast.ImportDirective{Location: loc, Path: path, Symbols: symbols}
}

func (p *Parser) parseExport() ast.Node {
	loc := p.loc()
	p.advance() // export
	var symbols []string
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		symbols = append(symbols, p.expect(token.IDENT).Literal)
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return &ast.ExportDirective{Location: loc, Symbols: symbols}
}

func (p *Parser) parseConst() ast.Node {
	loc := p.loc()
	p.advance() // const
	name := p.expect(token.IDENT).Literal
	p.expectAssignLike()
	value := p.parseExpression()
	p.consumeOptSemi()
	return &ast.ConstDirective{Location: loc, Name: name, Value: value}
}

// expectAssignLike consumes either `:` or `=` as a binding separator.
func (p *Parser) expectAssignLike() {
	if p.at(token.COLON) || p.at(token.ASSIGN) {
		p.advance()
		return
	}
	p.errorf("expected ':' or '=', got %s %q", p.cur().Kind, p.cur().Literal)
}

func (p *Parser) consumeOptSemi() {
	if p.at(token.SEMI) {
		p.advance()
	}
}

// --- Style / Theme / Variables ----------------------------------------------

func (p *Parser) parseStyle() ast.Node {
	loc := p.loc()
	p.advance() // style
	name := p.expect(token.IDENT).Literal
	var parent string
	if p.at(token.KW_EXTENDS) {
		p.advance()
		parent = p.expect(token.IDENT).Literal
	}
	p.expect(token.LBRACE)
	var props []*ast.Property
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		props = append(props, p.parseProperty())
	}
	p.expect(token.RBRACE)
	return &ast.StyleDef{Location: loc, Name: name, Parent: parent, Properties: props}
}

func (p *Parser) parseTheme() ast.Node {
	loc := p.loc()
	p.advance() // @theme
	group := p.expect(token.IDENT).Literal
	p.expect(token.LBRACE)
	var vars []*ast.ThemeVariable
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		vloc := p.loc()
		name := p.expect(token.IDENT).Literal
		var typ string
		if p.at(token.COLON) {
			p.advance()
			typ = p.expect(token.IDENT).Literal
		}
		p.expectAssignLike2()
		val := p.parseExpression()
		p.consumeOptSemi()
		vars = append(vars, &ast.ThemeVariable{Location: vloc, Name: name, Type: typ, Initial: val})
	}
	p.expect(token.RBRACE)
	return &ast.ThemeDef{Location: loc, Group: group, Variables: vars}
}

// expectAssignLike2 allows the value to directly follow a type annotation
// with only '=' (a ':' there would have already been consumed as the type
// separator).
func (p *Parser) expectAssignLike2() {
	if p.at(token.ASSIGN) || p.at(token.COLON) {
		p.advance()
		return
	}
	p.errorf("expected '=', got %s %q", p.cur().Kind, p.cur().Literal)
}

func (p *Parser) parseVariables() ast.Node {
	loc := p.loc()
	p.advance() // @var
	p.expect(token.LBRACE)
	var assigns []*ast.VarAssign
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		aloc := p.loc()
		name := p.expect(token.IDENT).Literal
		p.expectAssignLike()
		val := p.parseExpression()
		p.consumeOptSemi()
		assigns = append(assigns, &ast.VarAssign{Location: aloc, Name: name, Value: val})
	}
	p.expect(token.RBRACE)
	return &ast.VariablesDirective{Location: loc, Assignments: assigns}
}

// --- Component -------------------------------------------------------------

func (p *Parser) parseComponent() ast.Node {
	loc := p.loc()
	p.advance() // component
	name := p.expect(token.IDENT).Literal
	var params []ast.Param
	if p.at(token.LPAREN) {
		p.advance()
		for !p.at(token.RPAREN) && !p.at(token.EOF) {
			ploc := p.loc()
			pname := p.expect(token.IDENT).Literal
			var def ast.Expression
			if p.at(token.ASSIGN) {
				p.advance()
				def = p.parseExpression()
			}
			params = append(params, ast.Param{Location: ploc, Name: pname, Default: def})
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RPAREN)
	}
	var parent string
	if p.at(token.KW_EXTENDS) {
		p.advance()
		parent = p.expect(token.IDENT).Literal
	}

	def := &ast.ComponentDef{Location: loc, Name: name, Params: params, Parent: parent}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		switch p.cur().Kind {
		case token.KW_STATE:
			def.StateVars = append(def.StateVars, p.parseStateDef())
		case token.KW_ON_MOUNT:
			def.OnMount = p.parseLifecycleHook()
		case token.KW_ON_UNMOUNT:
			def.OnUnmount = p.parseLifecycleHook()
		case token.IDENT:
			if p.cur().Literal == "function" {
				if fn, ok := p.parseFunctionDef().(*ast.FunctionDef); ok {
					def.Functions = append(def.Functions, fn)
				}
				continue
			}
			def.Body = append(def.Body, p.parseElement())
		default:
			before := p.pos
			node := p.parseBodyItem()
			if node != nil {
				def.Body = append(def.Body, node)
			}
			if p.pos == before {
				p.errorf("unexpected token %s in component body", p.cur().Kind)
				p.advance()
			}
		}
	}
	p.expect(token.RBRACE)
	return def
}

func (p *Parser) parseStateDef() *ast.StateDef {
	loc := p.loc()
	p.advance() // state
	name := p.expect(token.IDENT).Literal
	var typ string
	if p.at(token.COLON) {
		p.advance()
		typ = p.expect(token.IDENT).Literal
	}
	p.expectAssignLike2()
	val := p.parseExpression()
	p.consumeOptSemi()
	return &ast.StateDef{Location: loc, Name: name, Type: typ, Initial: val}
}

func (p *Parser) parseLifecycleHook() *ast.LifecycleHook {
	loc := p.loc()
	p.advance() // on_mount / on_unmount
	stmts := p.parseStatementBlock()
	return &ast.LifecycleHook{Location: loc, Statements: stmts}
}

// --- Function --------------------------------------------------------------

func (p *Parser) parseFunctionDef() ast.Node {
	loc := p.loc()
	p.advance() // 'function'
	// Optional language tag: `function js foo(...)` vs `function foo(...)`.
	lang := ""
	if p.at(token.IDENT) && p.peekAt(1).Kind == token.IDENT {
		lang = p.advance().Literal
	}
	name := p.expect(token.IDENT).Literal
	var params []string
	p.expect(token.LPAREN)
	for !p.at(token.RPAREN) && !p.at(token.EOF) {
		params = append(params, p.expect(token.IDENT).Literal)
		if p.at(token.COMMA) {
			p.advance()
		}
	}
	p.expect(token.RPAREN)

	fn := &ast.FunctionDef{Location: loc, Language: lang, Name: name, Params: params}
	if lang == "" {
		fn.Body = p.parseStatementBlock()
	} else {
		fn.Code = p.captureRawBlock()
	}
	return fn
}

// captureRawBlock consumes a balanced `{ ... }` and returns its interior
// text reconstructed from token literals — used for non-bytecode host
// function bodies, which this frontend never interprets.
func (p *Parser) captureRawBlock() string {
	p.expect(token.LBRACE)
	var sb strings.Builder
	depth := 1
	for depth > 0 && !p.at(token.EOF) {
		t := p.advance()
		switch t.Kind {
		case token.LBRACE:
			depth++
		case token.RBRACE:
			depth--
			if depth == 0 {
				return sb.String()
			}
		}
		sb.WriteString(t.Literal)
		sb.WriteString(" ")
	}
	return sb.String()
}

// --- Control directives -----------------------------------------------------

func (p *Parser) parseFor() ast.Node {
	loc := p.loc()
	isConst := p.cur().Kind == token.AT_CONSTFOR
	p.advance()
	var index string
	name := p.expect(token.IDENT).Literal
	if p.at(token.COMMA) {
		p.advance()
		index = name
		name = p.expect(token.IDENT).Literal
	}
	p.expectIdentLiteral("in")
	iterable := p.parseExpression()
	body := p.parseBody()
	return &ast.ForDirective{Location: loc, IsConst: isConst, Index: index, Var: name, Iterable: iterable, Body: body}
}

// expectIdentLiteral consumes an identifier token only if its literal
// spelling matches want (for soft keywords like "in").
func (p *Parser) expectIdentLiteral(want string) {
	if p.at(token.IDENT) && p.cur().Literal == want {
		p.advance()
		return
	}
	p.errorf("expected %q, got %s %q", want, p.cur().Kind, p.cur().Literal)
}

func (p *Parser) parseIf() ast.Node {
	loc := p.loc()
	isConst := p.cur().Kind == token.AT_CONSTIF
	p.advance()
	cond := p.parseExpression()
	then := p.parseBody()
	directive := &ast.IfDirective{Location: loc, IsConst: isConst, Cond: cond, Then: then}
	for p.at(token.AT_ELIF) {
		p.advance()
		ec := p.parseExpression()
		eb := p.parseBody()
		directive.ElifPairs = append(directive.ElifPairs, ast.ElifPair{Cond: ec, Body: eb})
	}
	if p.at(token.AT_ELSE) {
		p.advance()
		directive.Else = p.parseBody()
	}
	return directive
}

func (p *Parser) parseWatch() ast.Node {
	loc := p.loc()
	p.advance() // @watch
	name := p.expect(token.IDENT).Literal
	handler := p.parseHandlerBody()
	return &ast.WatchDirective{Location: loc, Var: name, Handler: handler}
}

func (p *Parser) parseEventDirective() ast.Node {
	loc := p.loc()
	p.advance() // @event
	kind := p.expect(token.IDENT).Literal
	handler := p.parseHandlerBody()
	return &ast.EventDirective{Location: loc, Kind: kind, Handler: handler}
}

// --- Element -----------------------------------------------------------------

func (p *Parser) parseElement() *ast.Element {
	loc := p.loc()
	typeName := p.expect(token.IDENT).Literal
	el := &ast.Element{Location: loc, TypeName: typeName}
	p.expect(token.LBRACE)
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		p.parseElementMember(el)
		if p.pos == before {
			p.errorf("unexpected token %s in element body", p.cur().Kind)
			p.advance()
		}
	}
	p.expect(token.RBRACE)
	return el
}

func (p *Parser) parseElementMember(el *ast.Element) {
	switch p.cur().Kind {
	case token.IDENT, token.KW_STYLE:
		name := p.cur().Literal
		if isElementStart(p, 1) {
			el.Children = append(el.Children, p.parseElement())
			return
		}
		if strings.HasPrefix(name, "on") && len(name) > 2 && isUpper(name[2]) {
			p.advance()
			p.expectAssignLike()
			kind := eventKindFromHandlerName(name)
			handler := p.parseHandlerBody()
			el.Events = append(el.Events, &ast.Event{Location: p.loc(), Kind: kind, Handler: handler})
			p.consumeOptSemi()
			return
		}
		prop := p.parseProperty()
		switch prop.Name {
		case "id":
			if lit, ok := prop.Value.(*ast.Literal); ok && lit.Value.Kind == ast.LitString {
				el.ID = lit.Value.Str
			}
		case "style":
			if lit, ok := prop.Value.(*ast.Literal); ok && lit.Value.Kind == ast.LitString {
				el.StyleRef = lit.Value.Str
			} else if ref, ok := prop.Value.(*ast.VarRef); ok {
				el.StyleRef = ref.Name
			}
		default:
			el.Properties = append(el.Properties, prop)
		}
	case token.AT_FOR, token.AT_CONSTFOR, token.AT_IF, token.AT_CONSTIF, token.AT_WATCH:
		el.Children = append(el.Children, p.parseTopLevel())
	default:
		p.errorf("unexpected token %s %q in element body", p.cur().Kind, p.cur().Literal)
	}
}

// isElementStart looks ahead to decide whether an IDENT at offset starts a
// nested element (`Name {`) rather than a `name: value` property.
func isElementStart(p *Parser, offset int) bool {
	return p.peekAt(offset).Kind == token.LBRACE && startsWithUpper(p.cur().Literal)
}

func startsWithUpper(s string) bool {
	if s == "" {
		return false
	}
	return s[0] >= 'A' && s[0] <= 'Z'
}

func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func eventKindFromHandlerName(name string) string {
	rest := name[2:]
	return strings.ToLower(rest[:1]) + rest[1:]
}

func (p *Parser) parseProperty() *ast.Property {
	loc := p.loc()
	name := p.advance().Literal
	p.expectAssignLike()
	val := p.parseExpression()
	p.consumeOptSemi()
	return &ast.Property{Location: loc, Name: name, Value: val}
}

func (p *Parser) parseHandlerBody() ast.HandlerBody {
	if p.at(token.LBRACE) {
		return ast.InlineHandler{Statements: p.parseStatementBlock()}
	}
	name := p.expect(token.IDENT).Literal
	return ast.NamedHandler{FunctionName: name}
}

// --- Statements ---------------------------------------------------------------

func (p *Parser) parseStatementBlock() []ast.Statement {
	p.expect(token.LBRACE)
	var stmts []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		stmts = append(stmts, p.parseStatement())
	}
	p.expect(token.RBRACE)
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	loc := p.loc()
	if p.at(token.IDENT) && (p.peekAt(1).Kind == token.ASSIGN) {
		name := p.advance().Literal
		p.advance() // '='
		val := p.parseExpression()
		p.consumeOptSemi()
		return &ast.AssignStatement{Location: loc, Target: name, Value: val}
	}
	expr := p.parseExpression()
	p.consumeOptSemi()
	return &ast.ExprStatement{Location: loc, Expr: expr}
}

// --- Expressions ---------------------------------------------------------------
//
// Precedence, loosest to tightest: ternary > logical-or > logical-and >
// equality > relational > additive > multiplicative > unary > postfix >
// primary. This mirrors the closed operator enum ast.BinaryOp/UnaryOp define.

func (p *Parser) parseExpression() ast.Expression {
	return p.parseTernary()
}

func (p *Parser) parseTernary() ast.Expression {
	cond := p.parseLogicalOr()
	if p.at(token.QUESTION) {
		loc := p.loc()
		p.advance()
		then := p.parseExpression()
		p.expect(token.COLON)
		els := p.parseExpression()
		return &ast.Ternary{Location: loc, Cond: cond, Then: then, Else: els}
	}
	return cond
}

func (p *Parser) parseLogicalOr() ast.Expression {
	left := p.parseLogicalAnd()
	for p.at(token.OR) {
		loc := p.loc()
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.BinaryOp{Location: loc, Op: "||", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseLogicalAnd() ast.Expression {
	left := p.parseEquality()
	for p.at(token.AND) {
		loc := p.loc()
		p.advance()
		right := p.parseEquality()
		left = &ast.BinaryOp{Location: loc, Op: "&&", Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseEquality() ast.Expression {
	left := p.parseRelational()
	for p.at(token.EQ) || p.at(token.NEQ) {
		op := p.cur().Kind
		loc := p.loc()
		p.advance()
		right := p.parseRelational()
		left = &ast.BinaryOp{Location: loc, Op: opStr(op), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseRelational() ast.Expression {
	left := p.parseAdditive()
	for p.at(token.LT) || p.at(token.GT) || p.at(token.LE) || p.at(token.GE) {
		op := p.cur().Kind
		loc := p.loc()
		p.advance()
		right := p.parseAdditive()
		left = &ast.BinaryOp{Location: loc, Op: opStr(op), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseAdditive() ast.Expression {
	left := p.parseMultiplicative()
	for p.at(token.PLUS) || p.at(token.MINUS) {
		op := p.cur().Kind
		loc := p.loc()
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.BinaryOp{Location: loc, Op: opStr(op), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseMultiplicative() ast.Expression {
	left := p.parseUnary()
	for p.at(token.STAR) || p.at(token.SLASH) || p.at(token.PERCENT) {
		op := p.cur().Kind
		loc := p.loc()
		p.advance()
		right := p.parseUnary()
		left = &ast.BinaryOp{Location: loc, Op: opStr(op), Left: left, Right: right}
	}
	return left
}

func (p *Parser) parseUnary() ast.Expression {
	if p.at(token.MINUS) || p.at(token.NOT) {
		op := p.cur().Kind
		loc := p.loc()
		p.advance()
		operand := p.parseUnary()
		return &ast.UnaryOp{Location: loc, Op: opStr(op), Operand: operand}
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() ast.Expression {
	expr := p.parsePrimary()
	for {
		switch p.cur().Kind {
		case token.DOT:
			p.advance()
			member := p.expect(token.IDENT).Literal
			expr = &ast.MemberAccess{Location: expr.Loc(), Target: expr, Member: member}
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpression()
			p.expect(token.RBRACKET)
			expr = &ast.ArrayAccess{Location: expr.Loc(), Target: expr, Index: idx}
		case token.LPAREN:
			p.advance()
			var args []ast.Expression
			for !p.at(token.RPAREN) && !p.at(token.EOF) {
				args = append(args, p.parseExpression())
				if p.at(token.COMMA) {
					p.advance()
				}
			}
			p.expect(token.RPAREN)
			name := ""
			if ref, ok := expr.(*ast.VarRef); ok {
				name = ref.Name
			}
			expr = &ast.FunctionCall{Location: expr.Loc(), Name: name, Args: args}
		default:
			return expr
		}
	}
}

func (p *Parser) parsePrimary() ast.Expression {
	loc := p.loc()
	switch p.cur().Kind {
	case token.NUMBER:
		lit := p.advance().Literal
		if strings.Contains(lit, ".") {
			f, _ := strconv.ParseFloat(lit, 64)
			return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitFloat, Float: f}}
		}
		i, _ := strconv.ParseInt(lit, 10, 64)
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitInt, Int: i}}
	case token.NUMUNIT:
		t := p.advance()
		f, _ := strconv.ParseFloat(t.Literal, 64)
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitUnit, UnitValue: f, Unit: t.Unit}}
	case token.STRING:
		t := p.advance()
		return parseTemplateOrString(loc, t.Literal)
	case token.COLOR:
		t := p.advance()
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitColor, Color: parseHexColor(t.Literal)}}
	case token.BOOL:
		t := p.advance()
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitBool, Bool: t.Literal == "true"}}
	case token.NULLLIT:
		p.advance()
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitNull}}
	case token.IDENT:
		name := p.advance().Literal
		return &ast.VarRef{Location: loc, Name: name}
	case token.LPAREN:
		p.advance()
		inner := p.parseExpression()
		p.expect(token.RPAREN)
		return inner
	case token.LBRACKET:
		p.advance()
		var elems []ast.Expression
		for !p.at(token.RBRACKET) && !p.at(token.EOF) {
			elems = append(elems, p.parseExpression())
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RBRACKET)
		return &ast.ArrayLit{Location: loc, Elements: elems}
	case token.LBRACE:
		p.advance()
		var entries []ast.ObjectEntry
		for !p.at(token.RBRACE) && !p.at(token.EOF) {
			key := p.advance().Literal
			p.expect(token.COLON)
			val := p.parseExpression()
			entries = append(entries, ast.ObjectEntry{Key: key, Value: val})
			if p.at(token.COMMA) {
				p.advance()
			}
		}
		p.expect(token.RBRACE)
		return &ast.ObjectLit{Location: loc, Entries: entries}
	default:
		p.errorf("unexpected token %s %q in expression", p.cur().Kind, p.cur().Literal)
		p.advance()
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitNull}}
	}
}

func opStr(k token.Kind) string {
	switch k {
	case token.PLUS:
		return "+"
	case token.MINUS:
		return "-"
	case token.STAR:
		return "*"
	case token.SLASH:
		return "/"
	case token.PERCENT:
		return "%"
	case token.EQ:
		return "=="
	case token.NEQ:
		return "!="
	case token.LT:
		return "<"
	case token.GT:
		return ">"
	case token.LE:
		return "<="
	case token.GE:
		return ">="
	case token.NOT:
		return "!"
	default:
		return k.String()
	}
}

// parseTemplateOrString detects `${...}` runs inside a raw (already
// escape-resolved) string literal and, if any are found, recursively
// lexes/parses each one as a full expression, producing an ast.Template;
// otherwise it returns a plain ast.Literal string.
func parseTemplateOrString(loc ast.Location, raw string) ast.Expression {
	if !strings.Contains(raw, "${") {
		return &ast.Literal{Location: loc, Value: ast.LiteralValue{Kind: ast.LitString, Str: raw}}
	}
	var segments []ast.TemplateSegment
	i := 0
	for i < len(raw) {
		start := strings.Index(raw[i:], "${")
		if start < 0 {
			segments = append(segments, ast.TemplateSegment{Literal: raw[i:]})
			break
		}
		start += i
		if start > i {
			segments = append(segments, ast.TemplateSegment{Literal: raw[i:start]})
		}
		depth := 1
		j := start + 2
		for j < len(raw) && depth > 0 {
			switch raw[j] {
			case '{':
				depth++
			case '}':
				depth--
			}
			if depth == 0 {
				break
			}
			j++
		}
		exprSrc := raw[start+2 : j]
		toks, _ := lexer.Lex(loc.File, exprSrc)
		sub := &Parser{toks: toks, file: loc.File, diags: &diag.List{}}
		expr := sub.parseExpression()
		segments = append(segments, ast.TemplateSegment{Expr: expr})
		i = j + 1
	}
	return &ast.Template{Location: loc, Segments: segments}
}

func parseHexColor(hex string) [4]uint8 {
	hex = strings.TrimPrefix(hex, "#")
	doubled := func(s string) string {
		var b strings.Builder
		for _, c := range s {
			b.WriteRune(c)
			b.WriteRune(c)
		}
		return b.String()
	}
	var full string
	switch len(hex) {
	case 3:
		full = doubled(hex) + "ff"
	case 4:
		full = doubled(hex)
	case 6:
		full = hex + "ff"
	case 8:
		full = hex
	default:
		return [4]uint8{0, 0, 0, 255}
	}
	var r, g, b, a uint8
	fmt.Sscanf(full[0:2], "%02x", &r)
	fmt.Sscanf(full[2:4], "%02x", &g)
	fmt.Sscanf(full[4:6], "%02x", &b)
	fmt.Sscanf(full[6:8], "%02x", &a)
	return [4]uint8{r, g, b, a}
}
