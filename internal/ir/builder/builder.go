// Package builder implements the IR builder: raw AST -> the
// canonical internal/ir data model. It runs eight sequenced stages —
// symbol gather, compile-time evaluation, include
// expansion, component instance expansion, style resolution, reference
// checking, property/element compatibility, and deterministic DFS ID
// assignment — as a small number of passes over the AST rather than eight
// fully separate tree walks, since several stages (gather and compile-time
// evaluation in particular) are naturally interleaved in any recursive
// descent over a tree that can itself contain more directives to unroll.
//
// The pipeline shape — variable substitution, parse, style-inheritance
// resolution, component/property resolution, then offset/size
// calculation for the final write — follows a conventional multi-pass
// compiler structure, generalized here from line-based variable
// substitution into full expression-tree lowering and from flat
// style/component resolution into the IR's tagged-union model.
package builder

import (
	"fmt"
	"sort"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// Options configures a Build call.
type Options struct {
	// RecoveryMode is carried for callers that decide whether to stop on
	// errors (cmd/kryonc's pipeline does). Build itself does not read it:
	// it always collects every diagnostic and returns the IR it built,
	// whether or not errors were found.
	RecoveryMode bool

	// IncludeLoader resolves an `include "path"` directive's path to the
	// parsed AST it names. Left nil disables includes (any IncludeDirective
	// becomes an IncludeCycle-adjacent diagnostic: "no include loader
	// configured").
	IncludeLoader func(path string) (*ast.Root, error)
}

// Result bundles the built IR with the raw handler bodies the bytecode
// compiler still needs to lower into instructions. The builder assigns
// every handler a stable Function stub (id, name, param indices) so that
// EventBindings and Element.Events can reference a function_id immediately;
// internal/bytecode fills in Function.Instructions afterward by walking
// HandlerSources.
type Result struct {
	IR             *ir.IR
	HandlerSources map[uint32]ast.HandlerBody
	// ParamNames gives, for each bytecode-language function_id, the
	// parameter names in the same order as the Function's ParamIndices
	// slots — internal/bytecode needs the names to resolve a handler
	// body's VarRefs to GetLocal/SetLocal rather than GetState/SetState.
	// Absent (nil slice) for inline handlers, which take no parameters.
	ParamNames map[uint32][]string
}

// Build runs the full builder pipeline over one parsed compilation unit.
func Build(root *ast.Root, sourceFile string, opts Options) (*Result, *diag.List) {
	b := &builder{
		opts:           opts,
		diags:          &diag.List{},
		ir:             ir.New(sourceFile),
		consts:         map[string]ir.Value{},
		constExprs:     map[string]ast.Expression{},
		styleDefs:      map[string]*ast.StyleDef{},
		componentDefs:  map[string]*ast.ComponentDef{},
		themeDefs:      map[string]*ast.ThemeDef{},
		functionDefs:   map[string]*ast.FunctionDef{},
		stateIndex:     map[string]uint16{},
		includeStack:   map[string]bool{},
		handlerSources: map[uint32]ast.HandlerBody{},
		paramNames:     map[uint32][]string{},
		expansionTags:  map[*ast.Element]expansionTag{},
	}

	// Stage 3: include expansion (done first since includes may themselves
	// introduce styles/components/consts/elements the later stages need to
	// see as if they were written inline).
	body := b.expandIncludes(root.Body, sourceFile)

	// Stage 1: symbol gather + Stage 2: compile-time evaluation. Constants
	// must be folded before const_for/const_if can evaluate their
	// iterables/conditions, and definitions must be gathered before any
	// element referencing them is built, so this runs to a fixed point:
	// gather top-level consts/defs, unroll compile-time control flow (which
	// may reveal more), repeat until the body stops changing.
	for iterations := 0; iterations < 64; iterations++ {
		b.gatherConsts(body)
		newBody, changed := b.unrollCompileTime(body)
		body = newBody
		if !changed {
			break
		}
	}
	b.gatherDefs(body)

	// Build styles, themes, and components from the gathered definitions.
	b.buildStyles()
	b.buildThemes()
	b.buildComponents()

	// Top-level reactive state (`@var` blocks).
	b.buildTopLevelState(body)

	// Build the root element tree (stage 4: component instance expansion
	// happens inline as each Element is visited; stage 8: DFS id
	// assignment falls out of visiting in source order and allocating
	// node_id/component_id only as each node is constructed).
	for _, n := range body {
		if el, ok := n.(*ast.Element); ok {
			b.ir.Root.Children = append(b.ir.Root.Children, b.buildElement(el, nil))
		}
	}

	// Stage 6/7: reference checking and category validation are performed
	// inline while lowering expressions and properties (see lowerExpr and
	// buildElement), so by this point b.diags already carries any
	// UnresolvedSymbol/CategoryViolation diagnostics.

	result := &Result{IR: b.ir, HandlerSources: b.handlerSources, ParamNames: b.paramNames}
	return result, b.diags
}

type builder struct {
	opts  Options
	diags *diag.List
	ir    *ir.IR

	consts     map[string]ir.Value
	constExprs map[string]ast.Expression

	styleDefs     map[string]*ast.StyleDef
	componentDefs map[string]*ast.ComponentDef
	themeDefs     map[string]*ast.ThemeDef
	functionDefs  map[string]*ast.FunctionDef

	stateIndex map[string]uint16 // state var name -> state_id, for VarRef resolution downstream

	includeStack map[string]bool

	nextFunctionID uint32
	handlerSources map[uint32]ast.HandlerBody
	paramNames     map[uint32][]string

	expansionTags map[*ast.Element]expansionTag

	knownNames []string // for "did you mean" suggestions
}

func (b *builder) errorf(kind diag.Kind, loc ast.Location, format string, args ...any) {
	b.diags.Add(diag.Diagnostic{
		Kind: kind, Severity: diag.Error,
		Pos:     diag.Position{File: loc.File, Line: loc.Line, Column: loc.Column},
		Message: fmt.Sprintf(format, args...),
	})
}

// --- Include expansion (stage 3) -------------------------------------------

func (b *builder) expandIncludes(body []ast.Node, file string) []ast.Node {
	var out []ast.Node
	for _, n := range body {
		inc, ok := n.(*ast.IncludeDirective)
		if !ok {
			out = append(out, n)
			continue
		}
		if b.includeStack[inc.Path] {
			b.errorf(diag.KindIncludeCycle, inc.Location, "include cycle detected at %q", inc.Path)
			continue
		}
		if b.opts.IncludeLoader == nil {
			b.errorf(diag.KindIncludeCycle, inc.Location, "no include loader configured for %q", inc.Path)
			continue
		}
		included, err := b.opts.IncludeLoader(inc.Path)
		if err != nil {
			b.errorf(diag.KindIncludeCycle, inc.Location, "failed to include %q: %v", inc.Path, err)
			continue
		}
		b.includeStack[inc.Path] = true
		expanded := b.expandIncludes(included.Body, inc.Path)
		delete(b.includeStack, inc.Path)
		out = append(out, expanded...)
	}
	return out
}

// --- Compile-time evaluation (stages 1/2) ----------------------------------

func (b *builder) gatherConsts(body []ast.Node) {
	for _, n := range body {
		if c, ok := n.(*ast.ConstDirective); ok {
			v, ok := b.evalConst(c.Value)
			if ok {
				b.consts[c.Name] = v
			}
			b.constExprs[c.Name] = c.Value
			b.knownNames = append(b.knownNames, c.Name)
		}
	}
}

// evalConst folds a const-time expression into an ir.Value. Only the
// subset of expressions a compile-time constant plausibly needs is
// supported: literals, references to other already-folded consts, array
// literals, and simple arithmetic/comparison on folded operands. Anything
// else fails to fold (ok=false) and the constant is left textual only
// (still usable via constExprs for non-const_for contexts).
func (b *builder) evalConst(e ast.Expression) (ir.Value, bool) {
	switch v := e.(type) {
	case *ast.Literal:
		return literalToValue(b.ir, v.Value), true
	case *ast.VarRef:
		if val, ok := b.consts[v.Name]; ok {
			return val, true
		}
		return ir.Value{}, false
	case *ast.ArrayLit:
		items := make([]ir.Value, 0, len(v.Elements))
		for _, el := range v.Elements {
			ev, ok := b.evalConst(el)
			if !ok {
				return ir.Value{}, false
			}
			items = append(items, ev)
		}
		return ir.ArrayValue(items), true
	case *ast.BinaryOp:
		l, lok := b.evalConst(v.Left)
		r, rok := b.evalConst(v.Right)
		if !lok || !rok {
			return ir.Value{}, false
		}
		return evalConstBinary(v.Op, l, r)
	default:
		return ir.Value{}, false
	}
}

func evalConstBinary(op string, l, r ir.Value) (ir.Value, bool) {
	asFloat := func(v ir.Value) (float64, bool) {
		switch v.Kind {
		case ir.VInt:
			return float64(v.Int), true
		case ir.VFloat:
			return v.Float, true
		default:
			return 0, false
		}
	}
	if op == "+" && l.Kind == ir.VString && r.Kind == ir.VString {
		return ir.Value{Kind: ir.VString}, false // string concat needs string-table access; left to runtime/bytecode
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return ir.Value{}, false
	}
	bothInt := l.Kind == ir.VInt && r.Kind == ir.VInt
	switch op {
	case "+":
		if bothInt {
			return ir.IntValue(l.Int + r.Int), true
		}
		return ir.FloatValue(lf + rf), true
	case "-":
		if bothInt {
			return ir.IntValue(l.Int - r.Int), true
		}
		return ir.FloatValue(lf - rf), true
	case "*":
		if bothInt {
			return ir.IntValue(l.Int * r.Int), true
		}
		return ir.FloatValue(lf * rf), true
	case "/":
		if rf == 0 {
			return ir.Value{}, false
		}
		if bothInt {
			return ir.IntValue(l.Int / r.Int), true
		}
		return ir.FloatValue(lf / rf), true
	default:
		return ir.Value{}, false
	}
}

// unrollCompileTime replaces every const_for/const_if node at this level
// with its expansion, returning the new body and whether anything changed
// (so the caller can re-gather consts and try again, since an unrolled
// const_for can itself introduce new const directives in principle).
func (b *builder) unrollCompileTime(body []ast.Node) ([]ast.Node, bool) {
	var out []ast.Node
	changed := false
	for _, n := range body {
		switch d := n.(type) {
		case *ast.ForDirective:
			if !d.IsConst {
				out = append(out, n)
				continue
			}
			changed = true
			iterVal, ok := b.evalConst(d.Iterable)
			if !ok || iterVal.Kind != ir.VArray {
				b.errorf(diag.KindCompileTimeEvaluationError, d.Location, "const_for iterable must fold to an array")
				continue
			}
			for i, item := range iterVal.Array {
				sub := substituteConst(b.ir.Strings, d.Body, d.Var, item, d.Index, i)
				expanded, _ := b.unrollCompileTime(sub)
				out = append(out, b.tagExpansion(expanded, "const_for", i)...)
			}
		case *ast.IfDirective:
			if !d.IsConst {
				out = append(out, n)
				continue
			}
			changed = true
			condVal, ok := b.evalConst(d.Cond)
			chosen := d.Else
			iteration := len(d.ElifPairs) + 1
			if ok && isTruthy(condVal) {
				chosen = d.Then
				iteration = 0
			} else {
				for i, ep := range d.ElifPairs {
					ev, ok := b.evalConst(ep.Cond)
					if ok && isTruthy(ev) {
						chosen = ep.Body
						iteration = i + 1
						break
					}
				}
			}
			expanded, _ := b.unrollCompileTime(chosen)
			out = append(out, b.tagExpansion(expanded, "const_if", iteration)...)
		default:
			out = append(out, n)
		}
	}
	return out, changed
}

func isTruthy(v ir.Value) bool {
	switch v.Kind {
	case ir.VBool:
		return v.Bool
	case ir.VInt:
		return v.Int != 0
	case ir.VFloat:
		return v.Float != 0
	case ir.VNull:
		return false
	default:
		return true
	}
}

// substituteConst clones body, replacing every VarRef(varName) with a
// Literal built from item, and VarRef(indexName) (if indexName != "") with
// the loop index — the const_for "substituting the loop variable" step.
func substituteConst(strs *ir.StringTable, body []ast.Node, varName string, item ir.Value, indexName string, index int) []ast.Node {
	repl := map[string]ast.Expression{
		varName: valueToLiteralExpr(strs, item),
	}
	if indexName != "" {
		repl[indexName] = &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitInt, Int: int64(index)}}
	}
	return substituteNodes(body, repl)
}

// tagExpansion stamps expansion metadata onto every Element at the top of
// the given node list: unrolled/picked subtrees carry
// metadata {expansion, iteration}. Metadata is carried in a per-builder
// side table keyed by node pointer since ast.Element has no spare field for
// it at the AST layer; buildElement transfers it onto the ir.Element it
// constructs and deletes the entry once consumed.
func (b *builder) tagExpansion(nodes []ast.Node, kind string, iteration int) []ast.Node {
	for _, n := range nodes {
		if el, ok := n.(*ast.Element); ok {
			b.expansionTags[el] = expansionTag{kind: kind, iteration: iteration}
		}
	}
	return nodes
}

type expansionTag struct {
	kind      string
	iteration int
}

// substituteNodes clones body, rewriting every VarRef(name) found in repl
// into its replacement expression. Elements are deep-copied (their
// Properties/Events/Children are all revisited) since the same body may be
// unrolled multiple times with different replacements (once per const_for
// iteration) and must not share structure across iterations.
func substituteNodes(body []ast.Node, repl map[string]ast.Expression) []ast.Node {
	out := make([]ast.Node, len(body))
	for i, n := range body {
		out[i] = substituteNode(n, repl)
	}
	return out
}

func substituteNode(n ast.Node, repl map[string]ast.Expression) ast.Node {
	switch v := n.(type) {
	case *ast.Element:
		el := &ast.Element{Location: v.Location, TypeName: v.TypeName, ID: v.ID, StyleRef: v.StyleRef}
		for _, p := range v.Properties {
			el.Properties = append(el.Properties, &ast.Property{Location: p.Location, Name: p.Name, Value: substituteExpr(p.Value, repl)})
		}
		for _, ev := range v.Events {
			el.Events = append(el.Events, &ast.Event{Location: ev.Location, Kind: ev.Kind, Handler: substituteHandler(ev.Handler, repl)})
		}
		el.Children = substituteNodes(v.Children, repl)
		return el
	case *ast.ForDirective:
		cp := *v
		cp.Iterable = substituteExpr(v.Iterable, repl)
		cp.Body = substituteNodes(v.Body, repl)
		return &cp
	case *ast.IfDirective:
		cp := *v
		cp.Cond = substituteExpr(v.Cond, repl)
		cp.Then = substituteNodes(v.Then, repl)
		cp.Else = substituteNodes(v.Else, repl)
		if v.ElifPairs != nil {
			cp.ElifPairs = make([]ast.ElifPair, len(v.ElifPairs))
			for i, ep := range v.ElifPairs {
				cp.ElifPairs[i] = ast.ElifPair{Cond: substituteExpr(ep.Cond, repl), Body: substituteNodes(ep.Body, repl)}
			}
		}
		return &cp
	default:
		return n
	}
}

func substituteHandler(h ast.HandlerBody, repl map[string]ast.Expression) ast.HandlerBody {
	inline, ok := h.(ast.InlineHandler)
	if !ok {
		return h
	}
	stmts := make([]ast.Statement, len(inline.Statements))
	for i, s := range inline.Statements {
		switch st := s.(type) {
		case *ast.ExprStatement:
			stmts[i] = &ast.ExprStatement{Location: st.Location, Expr: substituteExpr(st.Expr, repl)}
		case *ast.AssignStatement:
			stmts[i] = &ast.AssignStatement{Location: st.Location, Target: st.Target, Value: substituteExpr(st.Value, repl)}
		default:
			stmts[i] = s
		}
	}
	return ast.InlineHandler{Statements: stmts}
}

// substituteExpr rewrites every VarRef(name) in e found in repl, recursing
// through every expression variant that can contain one.
func substituteExpr(e ast.Expression, repl map[string]ast.Expression) ast.Expression {
	switch v := e.(type) {
	case nil:
		return nil
	case *ast.VarRef:
		if r, ok := repl[v.Name]; ok {
			return r
		}
		return v
	case *ast.MemberAccess:
		return &ast.MemberAccess{Location: v.Location, Target: substituteExpr(v.Target, repl), Member: v.Member}
	case *ast.ArrayAccess:
		return &ast.ArrayAccess{Location: v.Location, Target: substituteExpr(v.Target, repl), Index: substituteExpr(v.Index, repl)}
	case *ast.BinaryOp:
		return &ast.BinaryOp{Location: v.Location, Op: v.Op, Left: substituteExpr(v.Left, repl), Right: substituteExpr(v.Right, repl)}
	case *ast.UnaryOp:
		return &ast.UnaryOp{Location: v.Location, Op: v.Op, Operand: substituteExpr(v.Operand, repl)}
	case *ast.Ternary:
		return &ast.Ternary{Location: v.Location, Cond: substituteExpr(v.Cond, repl), Then: substituteExpr(v.Then, repl), Else: substituteExpr(v.Else, repl)}
	case *ast.FunctionCall:
		args := make([]ast.Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = substituteExpr(a, repl)
		}
		return &ast.FunctionCall{Location: v.Location, Name: v.Name, Args: args}
	case *ast.Template:
		segs := make([]ast.TemplateSegment, len(v.Segments))
		for i, s := range v.Segments {
			segs[i] = ast.TemplateSegment{Literal: s.Literal, Expr: substituteExpr(s.Expr, repl)}
		}
		return &ast.Template{Location: v.Location, Segments: segs}
	case *ast.ArrayLit:
		els := make([]ast.Expression, len(v.Elements))
		for i, el := range v.Elements {
			els[i] = substituteExpr(el, repl)
		}
		return &ast.ArrayLit{Location: v.Location, Elements: els}
	case *ast.ObjectLit:
		entries := make([]ast.ObjectEntry, len(v.Entries))
		for i, en := range v.Entries {
			entries[i] = ast.ObjectEntry{Key: en.Key, Value: substituteExpr(en.Value, repl)}
		}
		return &ast.ObjectLit{Location: v.Location, Entries: entries}
	default:
		return v
	}
}

// valueToLiteralExpr converts a folded const-time ir.Value back into an
// ast.Literal, so substituteConst can splice it into a still-raw AST body
// (the loop variable is substituted before the body is lowered into IR).
func valueToLiteralExpr(strs *ir.StringTable, v ir.Value) ast.Expression {
	switch v.Kind {
	case ir.VString:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitString, Str: strs.Get(v.Str)}}
	case ir.VInt:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitInt, Int: v.Int}}
	case ir.VFloat:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitFloat, Float: v.Float}}
	case ir.VBool:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitBool, Bool: v.Bool}}
	case ir.VColor:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitColor, Color: v.Color}}
	case ir.VUnit:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitUnit, UnitValue: v.UnitValue, Unit: v.Unit}}
	case ir.VNull:
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitNull}}
	default:
		// VArray/VObject/VResource have no single-literal form here; a
		// const_for loop variable bound to one of these is substituted as a
		// null literal, and no diagnostic is raised for it.
		return &ast.Literal{Value: ast.LiteralValue{Kind: ast.LitNull}}
	}
}

// literalToValue interns an ast.LiteralValue's string payload (if any) and
// returns the corresponding ir.Value.
func literalToValue(irInstance *ir.IR, v ast.LiteralValue) ir.Value {
	switch v.Kind {
	case ast.LitString:
		return ir.StringValue(irInstance.Strings.Intern(v.Str))
	case ast.LitInt:
		return ir.IntValue(v.Int)
	case ast.LitFloat:
		return ir.FloatValue(v.Float)
	case ast.LitBool:
		return ir.BoolValue(v.Bool)
	case ast.LitNull:
		return ir.NullValue()
	case ast.LitColor:
		return ir.ColorValue(v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	case ast.LitUnit:
		return ir.UnitValueOf(v.UnitValue, v.Unit)
	default:
		return ir.NullValue()
	}
}

// --- Definition gathering (stage 1, continued) -----------------------------

// gatherDefs collects top-level style/component/theme/function definitions
// by name, after compile-time unrolling has produced the final body (a
// const_for/const_if may have introduced definitions that didn't exist
// before unrolling).
func (b *builder) gatherDefs(body []ast.Node) {
	for _, n := range body {
		switch d := n.(type) {
		case *ast.StyleDef:
			if _, dup := b.styleDefs[d.Name]; dup {
				b.errorf(diag.KindDuplicateDefinition, d.Location, "style %q already defined", d.Name)
				continue
			}
			b.styleDefs[d.Name] = d
			b.knownNames = append(b.knownNames, d.Name)
		case *ast.ComponentDef:
			if _, dup := b.componentDefs[d.Name]; dup {
				b.errorf(diag.KindDuplicateDefinition, d.Location, "component %q already defined", d.Name)
				continue
			}
			b.componentDefs[d.Name] = d
			b.knownNames = append(b.knownNames, d.Name)
		case *ast.ThemeDef:
			if _, dup := b.themeDefs[d.Group]; dup {
				b.errorf(diag.KindDuplicateDefinition, d.Location, "theme %q already defined", d.Group)
				continue
			}
			b.themeDefs[d.Group] = d
		case *ast.FunctionDef:
			if _, dup := b.functionDefs[d.Name]; dup {
				b.errorf(diag.KindDuplicateDefinition, d.Location, "function %q already defined", d.Name)
				continue
			}
			b.functionDefs[d.Name] = d
			b.knownNames = append(b.knownNames, d.Name)
			b.registerFunction(d)
		}
	}
}

// registerFunction assigns a stable function_id/Function stub for a named
// FunctionDef, deferring instruction lowering to internal/bytecode (see
// Result.HandlerSources).
func (b *builder) registerFunction(d *ast.FunctionDef) uint32 {
	id := b.nextFunctionID
	b.nextFunctionID++
	params := make([]uint16, len(d.Params))
	for i := range d.Params {
		params[i] = uint16(i)
	}
	fn := &ir.Function{
		FunctionID:   id,
		Name:         b.ir.Strings.Intern(d.Name),
		LanguageTag:  b.ir.Strings.Intern(d.Language),
		ParamIndices: params,
	}
	if d.Language != "" {
		fn.CodeIndex = b.ir.Strings.Intern(d.Code)
	}
	b.ir.Functions = append(b.ir.Functions, fn)
	if d.Language == "" {
		b.handlerSources[id] = ast.InlineHandler{Statements: d.Body}
		b.paramNames[id] = append([]string(nil), d.Params...)
	}
	return id
}

// registerInlineHandler assigns a fresh synthetic function_id to an inline
// `{ ... }` event handler, so Element.Events can reference a function_id
// the same way a named handler does.
func (b *builder) registerInlineHandler(name string, h ast.HandlerBody) uint32 {
	if named, ok := h.(ast.NamedHandler); ok {
		if def, ok := b.functionDefs[named.FunctionName]; ok {
			return b.findOrRegisterFunctionID(def)
		}
		b.errorf(diag.KindUnresolvedSymbol, ast.Location{}, "handler references unknown function %q%s", named.FunctionName, suggestion(named.FunctionName, b.knownNames))
		return 0
	}
	id := b.nextFunctionID
	b.nextFunctionID++
	fn := &ir.Function{
		FunctionID:  id,
		Name:        b.ir.Strings.Intern(name),
		LanguageTag: b.ir.Strings.Intern(""),
	}
	b.ir.Functions = append(b.ir.Functions, fn)
	b.handlerSources[id] = h
	return id
}

func (b *builder) findOrRegisterFunctionID(def *ast.FunctionDef) uint32 {
	nameIdx := b.ir.Strings.Intern(def.Name)
	for _, fn := range b.ir.Functions {
		if fn.Name == nameIdx {
			return fn.FunctionID
		}
	}
	return b.registerFunction(def)
}

// --- Styles (stage 5: resolution with cycle detection) --------------------

func (b *builder) buildStyles() {
	order := sortedKeys(b.styleDefs)
	resolved := map[string]*ir.Style{}
	var resolve func(name string, path map[string]bool) *ir.Style
	resolve = func(name string, path map[string]bool) *ir.Style {
		if s, ok := resolved[name]; ok {
			return s
		}
		def, ok := b.styleDefs[name]
		if !ok {
			return nil
		}
		if path[name] {
			b.errorf(diag.KindStyleCycle, def.Location, "style cycle detected at %q", name)
			return nil
		}
		path[name] = true
		s := &ir.Style{
			Name:       b.ir.Strings.Intern(name),
			Properties: map[category.PropertyID]ir.Expression{},
		}
		if def.Parent != "" {
			parent := resolve(def.Parent, path)
			if parent == nil {
				if _, exists := b.styleDefs[def.Parent]; !exists {
					b.errorf(diag.KindUnresolvedSymbol, def.Location, "style %q extends unknown style %q%s", name, def.Parent, suggestion(def.Parent, b.knownNames))
				}
			} else {
				s.HasParent = true
				s.Parent = parent.Name
			}
		}
		for _, p := range def.Properties {
			pid, custom := b.resolvePropertyID(p.Name)
			if custom {
				// styles only carry standard properties; unknown names are diagnosed, not silently dropped
				b.diags.Warnf(diag.KindCategoryViolation, diag.Position{File: p.Location.File, Line: p.Location.Line, Column: p.Location.Column},
					"style %q: %q is not a standard property and is dropped", name, p.Name)
				continue
			}
			s.Properties[pid] = b.lowerExpr(p.Value)
		}
		resolved[name] = s
		delete(path, name)
		return s
	}
	for _, name := range order {
		resolve(name, map[string]bool{})
	}
	for _, name := range order {
		if s, ok := resolved[name]; ok {
			b.ir.Styles = append(b.ir.Styles, s)
		}
	}
}

// --- Themes -----------------------------------------------------------------

func (b *builder) buildThemes() {
	for _, group := range sortedKeys(b.themeDefs) {
		def := b.themeDefs[group]
		groupIdx := b.ir.Strings.Intern(group)
		for _, v := range def.Variables {
			st, ok := stateTypeFromName(v.Type)
			if !ok {
				b.errorf(diag.KindTypeMismatch, v.Location, "theme variable %q has unknown type %q", v.Name, v.Type)
				continue
			}
			b.ir.Themes = append(b.ir.Themes, ir.ThemeVariable{
				Group:   groupIdx,
				Name:    b.ir.Strings.Intern(v.Name),
				Type:    st,
				Initial: b.lowerExpr(v.Initial),
			})
		}
	}
}

// --- Components ---------------------------------------------------------

func (b *builder) buildComponents() {
	for _, name := range sortedKeys(b.componentDefs) {
		def := b.componentDefs[name]
		cd := &ir.ComponentDefinition{
			Name: b.ir.Strings.Intern(name),
		}
		if def.Parent != "" {
			if _, ok := b.componentDefs[def.Parent]; !ok {
				b.errorf(diag.KindUnresolvedSymbol, def.Location, "component %q extends unknown component %q%s", name, def.Parent, suggestion(def.Parent, b.knownNames))
			} else {
				cd.HasParent = true
				cd.Parent = b.ir.Strings.Intern(def.Parent)
			}
		}
		for _, p := range def.Params {
			cp := ir.ComponentParam{Name: b.ir.Strings.Intern(p.Name)}
			if p.Default != nil {
				cp.HasDefault = true
				cp.Default = b.lowerExpr(p.Default)
			}
			cd.Parameters = append(cd.Parameters, cp)
		}
		for _, sv := range def.StateVars {
			cd.StateVars = append(cd.StateVars, b.buildStateCell(sv))
		}
		for _, fn := range def.Functions {
			cd.Functions = append(cd.Functions, b.findOrRegisterFunctionID(fn))
		}
		if def.OnMount != nil {
			cd.HasOnMount = true
			cd.OnMountFunc = b.registerInlineHandler(name+"_on_mount", ast.InlineHandler{Statements: def.OnMount.Statements})
		}
		if def.OnUnmount != nil {
			cd.HasOnUnmount = true
			cd.OnUnmountFunc = b.registerInlineHandler(name+"_on_unmount", ast.InlineHandler{Statements: def.OnUnmount.Statements})
		}
		for _, n := range def.Body {
			if el, ok := n.(*ast.Element); ok {
				cd.Body = append(cd.Body, b.buildElement(el, nil))
			}
		}
		b.ir.Components = append(b.ir.Components, cd)
	}
}

func (b *builder) buildStateCell(d *ast.StateDef) ir.StateCell {
	st, ok := stateTypeFromName(d.Type)
	if !ok {
		// no explicit type: infer from the initial value's folded kind
		if val, ok2 := b.evalConst(d.Initial); ok2 {
			st = stateTypeFromValueKind(val.Kind)
		} else {
			st = ir.StateString
		}
	}
	id := uint16(len(b.stateIndex))
	b.stateIndex[d.Name] = id
	initVal, _ := b.evalConst(d.Initial)
	if !initVal.MatchesType(st) {
		b.errorf(diag.KindTypeMismatch, d.Location, "state %q initial value does not match declared type %q", d.Name, st.String())
	}
	return ir.StateCell{
		StateID: id,
		Name:    b.ir.Strings.Intern(d.Name),
		Type:    st,
		Initial: initVal,
	}
}

func stateTypeFromName(s string) (ir.StateType, bool) {
	switch s {
	case "int":
		return ir.StateInt, true
	case "float":
		return ir.StateFloat, true
	case "string":
		return ir.StateString, true
	case "bool":
		return ir.StateBool, true
	default:
		return 0, false
	}
}

func stateTypeFromValueKind(k ir.ValueKind) ir.StateType {
	switch k {
	case ir.VInt:
		return ir.StateInt
	case ir.VFloat:
		return ir.StateFloat
	case ir.VBool:
		return ir.StateBool
	default:
		return ir.StateString
	}
}

// --- Top-level reactive state (`@var` blocks) ------------------------------

func (b *builder) buildTopLevelState(body []ast.Node) {
	for _, n := range body {
		if v, ok := n.(*ast.VariablesDirective); ok {
			for _, a := range v.Assignments {
				val, ok := b.evalConst(a.Value)
				if !ok {
					val = ir.NullValue()
				}
				id := uint16(len(b.stateIndex))
				b.stateIndex[a.Name] = id
				b.ir.States = append(b.ir.States, ir.StateCell{
					StateID: id,
					Name:    b.ir.Strings.Intern(a.Name),
					Type:    stateTypeFromValueKind(val.Kind),
					Initial: val,
				})
			}
		}
	}
}

// --- Elements (stages 4, 6, 7, 8) -------------------------------------------

// buildElement lowers one ast.Element into an *ir.Element, expanding it in
// place if it names a known component (stage 4), checking every property
// name/value reference (stage 6) and element/property compatibility
// (stage 7), and assigning its node_id in DFS order (stage 8, which falls
// out of allocating the id exactly when the node is visited).
func (b *builder) buildElement(el *ast.Element, instanceParams map[string]ast.Expression) *ir.Element {
	if def, ok := b.componentDefs[el.TypeName]; ok && instanceParams == nil {
		return b.expandComponentInstance(el, def)
	}

	out := &ir.Element{NodeID: b.ir.AllocNodeID()}
	kind, known := category.ElementKindByName[el.TypeName]
	if known {
		out.Kind = kind
	} else {
		out.Kind = category.ElemCustom
		out.CustomTypeName = b.ir.Strings.Intern(el.TypeName)
	}
	if el.ID != "" {
		out.HasID = true
		out.IDIndex = b.ir.Strings.Intern(el.ID)
	}
	if el.StyleRef != "" {
		out.HasStyleRef = true
		out.StyleRef = b.ir.Strings.Intern(el.StyleRef)
		if b.ir.FindStyle(out.StyleRef) == nil {
			b.errorf(diag.KindUnresolvedSymbol, el.Location, "unknown style %q%s", el.StyleRef, suggestion(el.StyleRef, b.knownNames))
		}
	}
	out.Properties = map[category.PropertyID]ir.Expression{}
	out.CustomProperties = map[uint32]ir.Expression{}
	for _, p := range el.Properties {
		lowered := b.lowerExpr(p.Value)
		pid, custom := b.resolvePropertyID(p.Name)
		if custom {
			out.CustomProperties[b.ir.Strings.Intern(p.Name)] = lowered
			continue
		}
		if !category.Valid(out.Kind, pid) {
			b.errorf(diag.KindCategoryViolation, p.Location, "property %q is not valid on %s", p.Name, out.Kind.String())
			continue
		}
		out.Properties[pid] = lowered
	}
	if len(el.Events) > 0 {
		out.Events = map[int]ir.EventBinding{}
	}
	for _, ev := range el.Events {
		binding := ir.EventBinding{}
		if kind, ok := ir.EventKindByName[ev.Kind]; ok {
			binding.Kind = kind
		} else {
			binding.Kind = ir.EventCustom
			binding.CustomName = b.ir.Strings.Intern(ev.Kind)
		}
		binding.FunctionID = b.registerInlineHandler(el.TypeName+"_"+ev.Kind, ev.Handler)
		out.Events[ir.EventSlot(binding.Kind, binding.CustomName)] = binding
	}
	for _, c := range el.Children {
		if cel, ok := c.(*ast.Element); ok {
			out.Children = append(out.Children, b.buildElement(cel, nil))
		}
	}
	if tag, ok := b.expansionTags[el]; ok {
		out.ExpansionKind = tag.kind
		out.Iteration = tag.iteration
		delete(b.expansionTags, el)
	}
	return out
}

// expandComponentInstance substitutes an instance's arguments into its
// component definition's body and lowers the result in place — per stage 4,
// the expanded subtree is what lands in IR.Root/parent.Children; no
// COMPONENT_INSTANCE node ever survives (Testable Property 5).
func (b *builder) expandComponentInstance(el *ast.Element, def *ast.ComponentDef) *ir.Element {
	repl := map[string]ast.Expression{}
	provided := map[string]bool{}
	for _, p := range el.Properties {
		repl[p.Name] = p.Value
		provided[p.Name] = true
	}
	for _, param := range def.Params {
		if provided[param.Name] {
			continue
		}
		if param.Default != nil {
			repl[param.Name] = param.Default
		} else {
			b.errorf(diag.KindUnresolvedSymbol, el.Location, "component %q instance missing required parameter %q", def.Name, param.Name)
		}
	}
	componentID := b.ir.AllocComponentID()
	substitutedBody := substituteNodes(def.Body, repl)

	var child *ir.Element
	for _, n := range substitutedBody {
		if cel, ok := n.(*ast.Element); ok {
			child = b.buildElement(cel, repl)
			break
		}
	}
	if child == nil {
		child = &ir.Element{NodeID: b.ir.AllocNodeID(), Kind: category.ElemContainer}
	}
	child.ComponentID = componentID
	child.ExpandedFrom = b.ir.Strings.Intern(def.Name)
	child.HasExpansion = true
	child.InstanceParameters = map[uint32]ir.Expression{}
	for name, expr := range repl {
		child.InstanceParameters[b.ir.Strings.Intern(name)] = b.lowerExpr(expr)
	}
	if el.ID != "" {
		child.HasID = true
		child.IDIndex = b.ir.Strings.Intern(el.ID)
	}
	return child
}

// resolvePropertyID maps a frontend property spelling to its closed
// PropertyID; custom is true when the name isn't in the standard table (the
// supplemented custom-property escape hatch, not an error).
func (b *builder) resolvePropertyID(name string) (category.PropertyID, bool) {
	if pid, ok := category.PropertyIDByName[name]; ok {
		return pid, false
	}
	return category.PropInvalid, true
}

// lowerExpr converts a raw ast.Expression into the IR's interned
// ir.Expression, interning every name/string literal it touches and
// raising UnresolvedSymbol for any VarRef that names neither a known
// constant, state variable, nor component parameter.
func (b *builder) lowerExpr(e ast.Expression) ir.Expression {
	switch v := e.(type) {
	case nil:
		return nil
	case *ast.Literal:
		return ir.LiteralExpr{Value: literalToValue(b.ir, v.Value)}
	case *ast.VarRef:
		if _, ok := b.consts[v.Name]; !ok {
			if _, ok := b.stateIndex[v.Name]; !ok {
				b.errorf(diag.KindUnresolvedSymbol, v.Location, "unresolved reference %q%s", v.Name, suggestion(v.Name, b.knownNames))
			}
		}
		return ir.VarRefExpr{Name: b.ir.Strings.Intern(v.Name)}
	case *ast.MemberAccess:
		return ir.MemberAccessExpr{Target: b.lowerExpr(v.Target), Member: b.ir.Strings.Intern(v.Member)}
	case *ast.ArrayAccess:
		return ir.ArrayAccessExpr{Target: b.lowerExpr(v.Target), Index: b.lowerExpr(v.Index)}
	case *ast.BinaryOp:
		return ir.BinaryOpExpr{Op: binaryOpFromString(v.Op), Left: b.lowerExpr(v.Left), Right: b.lowerExpr(v.Right)}
	case *ast.UnaryOp:
		return ir.UnaryOpExpr{Op: unaryOpFromString(v.Op), Operand: b.lowerExpr(v.Operand)}
	case *ast.Ternary:
		return ir.TernaryExpr{Cond: b.lowerExpr(v.Cond), Then: b.lowerExpr(v.Then), Else: b.lowerExpr(v.Else)}
	case *ast.FunctionCall:
		args := make([]ir.Expression, len(v.Args))
		for i, a := range v.Args {
			args[i] = b.lowerExpr(a)
		}
		return ir.FunctionCallExpr{Name: b.ir.Strings.Intern(v.Name), Args: args}
	case *ast.Template:
		segs := make([]ir.TemplateSegment, len(v.Segments))
		for i, s := range v.Segments {
			if s.Expr != nil {
				segs[i] = ir.TemplateSegment{Expr: b.lowerExpr(s.Expr)}
			} else {
				segs[i] = ir.TemplateSegment{IsLiteral: true, Literal: b.ir.Strings.Intern(s.Literal)}
			}
		}
		return ir.TemplateExpr{Segments: segs}
	case *ast.ArrayLit:
		els := make([]ir.Expression, len(v.Elements))
		for i, el := range v.Elements {
			els[i] = b.lowerExpr(el)
		}
		return ir.ArrayLitExpr{Elements: els}
	case *ast.ObjectLit:
		entries := map[uint32]ir.Expression{}
		for _, en := range v.Entries {
			entries[b.ir.Strings.Intern(en.Key)] = b.lowerExpr(en.Value)
		}
		return ir.ObjectLitExpr{Entries: entries}
	default:
		return nil
	}
}

func binaryOpFromString(op string) ir.BinaryOperator {
	switch op {
	case "+":
		return ir.BinAdd
	case "-":
		return ir.BinSub
	case "*":
		return ir.BinMul
	case "/":
		return ir.BinDiv
	case "%":
		return ir.BinMod
	case "==":
		return ir.BinEq
	case "!=":
		return ir.BinNe
	case "<":
		return ir.BinLt
	case ">":
		return ir.BinGt
	case "<=":
		return ir.BinLe
	case ">=":
		return ir.BinGe
	case "&&":
		return ir.BinAnd
	case "||":
		return ir.BinOr
	default:
		return ir.BinAdd
	}
}

func unaryOpFromString(op string) ir.UnaryOperator {
	if op == "!" {
		return ir.UnaryNot
	}
	return ir.UnaryNeg
}

// suggestion returns a " (did you mean X?)" hint for the closest known name
// within edit distance 2, or "" if none qualifies.
func suggestion(name string, known []string) string {
	best := ""
	bestDist := 3
	for _, k := range known {
		if d := editDistance(name, k); d < bestDist {
			bestDist = d
			best = k
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}

// editDistance is the standard Levenshtein distance, capped implicitly by
// the caller only accepting distances < 3.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			cur[j] = m
		}
		prev, cur = cur, prev
	}
	return prev[lb]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

