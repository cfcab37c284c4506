// Package bytecode implements the handler-body compiler and its
// stack VM. The compiler lowers the raw ast.HandlerBody internal/ir/builder
// stashed per function_id (Result.HandlerSources) into ir.Instruction
// sequences, completing the ir.Function entries the builder only stubbed
// out; the VM then executes those sequences against a live state table and
// host-function registry.
package bytecode

import (
	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// toStringHostName is the interned name under which Compile registers the
// implicit string-coercion helper that template lowering calls for,
// coercing non-strings via an implicit string conversion (a small helper
// CallHost). It is synthesized here rather than declared by any source
// file, since every compilation unit needs it regardless of whether the
// frontend ever writes host declarations of its own.
const toStringHostName = "__kryon_to_string"

// Compile lowers every bytecode-language function in irv (every entry of
// handlerSources, keyed by function_id) into its matching ir.Function's
// Instructions. paramNames gives each function's parameter names in
// ParamIndices order (see builder.Result.ParamNames); functions absent
// from it (inline handlers) take no parameters.
func Compile(irv *ir.IR, handlerSources map[uint32]ast.HandlerBody, paramNames map[uint32][]string) *diag.List {
	c := &compiler{
		ir:       irv,
		diags:    &diag.List{},
		states:   flattenStateIDs(irv),
		funcIDs:  flattenFunctionIDs(irv),
		idToNode: flattenElementIDs(irv),
	}
	for fnID, body := range handlerSources {
		fn := irv.FindFunction(fnID)
		if fn == nil {
			continue
		}
		locals := map[string]int{}
		for i, name := range paramNames[fnID] {
			locals[name] = i
		}
		fn.Instructions = c.compileHandler(body, locals)
	}
	return c.diags
}

func flattenStateIDs(irv *ir.IR) map[string]uint16 {
	out := make(map[string]uint16)
	for _, s := range irv.States {
		out[irv.Strings.Get(s.Name)] = s.StateID
	}
	for _, comp := range irv.Components {
		for _, s := range comp.StateVars {
			out[irv.Strings.Get(s.Name)] = s.StateID
		}
	}
	return out
}

func flattenFunctionIDs(irv *ir.IR) map[string]uint32 {
	out := make(map[string]uint32)
	for _, fn := range irv.Functions {
		out[irv.Strings.Get(fn.Name)] = fn.FunctionID
	}
	return out
}

func flattenElementIDs(irv *ir.IR) map[string]uint32 {
	out := make(map[string]uint32)
	irv.Walk(func(e *ir.Element) {
		if e.HasID {
			out[irv.Strings.Get(e.IDIndex)] = e.NodeID
		}
	})
	return out
}

type compiler struct {
	ir       *ir.IR
	diags    *diag.List
	states   map[string]uint16
	funcIDs  map[string]uint32
	idToNode map[string]uint32

	toStringHostID uint32
	haveToString   bool
}

func (c *compiler) errorf(kind diag.Kind, format string, args ...any) {
	c.diags.Addf(kind, diag.Position{File: c.ir.SourceFile}, format, args...)
}

// ensureToStringHost finds-or-declares the synthetic host function every
// template lowering needs. It is declared lazily so a
// compilation unit with no template strings never pays for an unused host
// declaration.
func (c *compiler) ensureToStringHost() uint32 {
	if c.haveToString {
		return c.toStringHostID
	}
	nameIdx := c.ir.Strings.Intern(toStringHostName)
	for _, h := range c.ir.HostFunctions {
		if h.Name == nameIdx {
			c.toStringHostID = h.ID
			c.haveToString = true
			return h.ID
		}
	}
	id := uint32(len(c.ir.HostFunctions))
	c.ir.HostFunctions = append(c.ir.HostFunctions, &ir.HostFunctionDecl{
		ID:        id,
		Name:      nameIdx,
		Signature: c.ir.Strings.Intern("(any) -> string"),
		Required:  true,
	})
	c.toStringHostID = id
	c.haveToString = true
	return id
}

// instrBuf accumulates one function's instructions with label-style
// backpatching for the ternary's two forward jumps.
type instrBuf struct{ ins []ir.Instruction }

func (b *instrBuf) emit(i ir.Instruction) int {
	b.ins = append(b.ins, i)
	return len(b.ins) - 1
}
func (b *instrBuf) here() int           { return len(b.ins) }
func (b *instrBuf) patch(at int, to int) { b.ins[at].Offset = to }

func (c *compiler) compileHandler(body ast.HandlerBody, locals map[string]int) []ir.Instruction {
	var stmts []ast.Statement
	switch h := body.(type) {
	case ast.InlineHandler:
		stmts = h.Statements
	case ast.NamedHandler:
		// HandlerSources never stores a NamedHandler (internal/ir/builder
		// resolves named handlers to the target function's own entry at
		// registration time); kept only so this switch is exhaustive.
	}
	b := &instrBuf{}
	for i, s := range stmts {
		c.compileStatement(b, s, locals, i == len(stmts)-1)
	}
	b.emit(ir.Instruction{Op: ir.OpReturn})
	return b.ins
}

func (c *compiler) compileStatement(b *instrBuf, s ast.Statement, locals map[string]int, isLast bool) {
	switch st := s.(type) {
	case *ast.ExprStatement:
		c.compileExpr(b, st.Expr, locals)
		if !isLast {
			b.emit(ir.Instruction{Op: ir.OpPop})
		}
		// the last statement's value is left on the stack as the handler's
		// implicit result, consumed by a caller's Call if there is one.
	case *ast.AssignStatement:
		c.compileExpr(b, st.Value, locals)
		if id, ok := locals[st.Target]; ok {
			b.emit(ir.Instruction{Op: ir.OpSetLocal, ID: uint32(id)})
			return
		}
		if id, ok := c.states[st.Target]; ok {
			b.emit(ir.Instruction{Op: ir.OpSetState, ID: uint32(id)})
			return
		}
		c.errorf(diag.KindUnresolvedSymbol, "assignment to unknown state variable %q", st.Target)
		b.emit(ir.Instruction{Op: ir.OpPop}) // drop the value we already pushed
	default:
		c.errorf(diag.KindBytecodeError, "unsupported handler statement")
	}
}

func (c *compiler) compileExpr(b *instrBuf, e ast.Expression, locals map[string]int) {
	switch v := e.(type) {
	case *ast.Literal:
		c.compileLiteral(b, v.Value)

	case *ast.VarRef:
		if id, ok := locals[v.Name]; ok {
			b.emit(ir.Instruction{Op: ir.OpGetLocal, ID: uint32(id)})
			return
		}
		if id, ok := c.states[v.Name]; ok {
			b.emit(ir.Instruction{Op: ir.OpGetState, ID: uint32(id)})
			return
		}
		c.errorf(diag.KindUnresolvedSymbol, "reference to unknown state variable %q", v.Name)
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})

	case *ast.BinaryOp:
		c.compileExpr(b, v.Left, locals)
		c.compileExpr(b, v.Right, locals)
		if op, ok := binOp(v.Op); ok {
			b.emit(ir.Instruction{Op: op})
			return
		}
		c.errorf(diag.KindBytecodeError, "unknown binary operator %q", v.Op)

	case *ast.UnaryOp:
		c.compileExpr(b, v.Operand, locals)
		switch v.Op {
		case "-":
			b.emit(ir.Instruction{Op: ir.OpNeg})
		case "!":
			b.emit(ir.Instruction{Op: ir.OpNot})
		default:
			c.errorf(diag.KindBytecodeError, "unknown unary operator %q", v.Op)
		}

	case *ast.Ternary:
		c.compileExpr(b, v.Cond, locals)
		jf := b.emit(ir.Instruction{Op: ir.OpJumpIfFalse})
		c.compileExpr(b, v.Then, locals)
		j := b.emit(ir.Instruction{Op: ir.OpJump})
		elseStart := b.here()
		c.compileExpr(b, v.Else, locals)
		end := b.here()
		b.patch(jf, elseStart)
		b.patch(j, end)

	case *ast.FunctionCall:
		c.compileCall(b, v, locals)

	case *ast.Template:
		c.compileTemplate(b, v, locals)

	case *ast.MemberAccess:
		c.compileMemberAccess(b, v)

	case *ast.ArrayAccess:
		c.errorf(diag.KindBytecodeError, "array indexing is not supported inside compiled handler bodies")
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})

	case *ast.ArrayLit, *ast.ObjectLit:
		c.errorf(diag.KindBytecodeError, "array/object literals are not supported inside compiled handler bodies")
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})

	default:
		c.errorf(diag.KindBytecodeError, "unsupported expression in compiled handler body")
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
	}
}

func (c *compiler) compileLiteral(b *instrBuf, lv ast.LiteralValue) {
	switch lv.Kind {
	case ast.LitString:
		b.emit(ir.Instruction{Op: ir.OpPushString, Str: c.ir.Strings.Intern(lv.Str)})
	case ast.LitInt:
		b.emit(ir.Instruction{Op: ir.OpPushInt, Int: lv.Int})
	case ast.LitFloat:
		b.emit(ir.Instruction{Op: ir.OpPushFloat, Float: lv.Float})
	case ast.LitBool:
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: lv.Bool})
	case ast.LitUnit:
		// the instruction set has no dedicated unit-value push; a length
		// literal inside a handler body collapses to its raw magnitude
		// (units only matter to styling, never to handler arithmetic).
		b.emit(ir.Instruction{Op: ir.OpPushFloat, Float: lv.UnitValue})
	case ast.LitNull:
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
	case ast.LitColor:
		// same reasoning as LitUnit: colors aren't a VM-arithmetic-kind,
		// so a bare color literal inside a handler body is pushed as its
		// packed RGBA integer rather than traded for a dedicated opcode.
		packed := int64(lv.Color[0])<<24 | int64(lv.Color[1])<<16 | int64(lv.Color[2])<<8 | int64(lv.Color[3])
		b.emit(ir.Instruction{Op: ir.OpPushInt, Int: packed})
	default:
		c.errorf(diag.KindBytecodeError, "unsupported literal kind in handler body")
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
	}
}

func (c *compiler) compileCall(b *instrBuf, v *ast.FunctionCall, locals map[string]int) {
	for _, a := range v.Args {
		c.compileExpr(b, a, locals)
	}
	if fnID, ok := c.funcIDs[v.Name]; ok {
		b.emit(ir.Instruction{Op: ir.OpCall, ID: fnID})
		return
	}
	for _, h := range c.ir.HostFunctions {
		if c.ir.Strings.Get(h.Name) == v.Name {
			b.emit(ir.Instruction{Op: ir.OpCallHost, ID: h.ID, Target: uint32(len(v.Args))})
			return
		}
	}
	c.errorf(diag.KindUnresolvedSymbol, "call to unknown function %q", v.Name)
	b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
}

// compileTemplate lowers a "...${expr}..." interpolation to repeated Concat
// with intermediate Pushes, coercing every embedded expression
// segment through the synthetic to-string host helper — literal runs are
// already strings and never need coercion.
func (c *compiler) compileTemplate(b *instrBuf, v *ast.Template, locals map[string]int) {
	if len(v.Segments) == 0 {
		b.emit(ir.Instruction{Op: ir.OpPushString, Str: 0})
		return
	}
	hostID := c.ensureToStringHost()
	emitSegment := func(seg ast.TemplateSegment) {
		if seg.Expr == nil {
			b.emit(ir.Instruction{Op: ir.OpPushString, Str: c.ir.Strings.Intern(seg.Literal)})
			return
		}
		c.compileExpr(b, seg.Expr, locals)
		b.emit(ir.Instruction{Op: ir.OpCallHost, ID: hostID, Target: 1})
	}
	emitSegment(v.Segments[0])
	for _, seg := range v.Segments[1:] {
		emitSegment(seg)
		b.emit(ir.Instruction{Op: ir.OpConcat})
	}
}

// compileMemberAccess lowers `name.prop` to GetProp when name is a known
// element id and prop a standard property name — the only shape spec
// §4.6's GetProp opcode can address without a runtime "current component"
// register the specification never defines (see DESIGN.md). SetProp is
// never emitted here: ast.AssignStatement.Target is a plain string (the
// grammar never allows `element.prop = expr`), so every assignment in a
// handler body resolves to SetLocal/SetState, not SetProp.
func (c *compiler) compileMemberAccess(b *instrBuf, v *ast.MemberAccess) {
	name, ok := v.Target.(*ast.VarRef)
	if !ok {
		c.errorf(diag.KindBytecodeError, "unsupported member access target")
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
		return
	}
	nodeID, ok := c.idToNode[name.Name]
	if !ok {
		c.errorf(diag.KindUnresolvedSymbol, "member access on unknown element id %q", name.Name)
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
		return
	}
	propID, ok := category.PropertyIDByName[v.Member]
	if !ok {
		c.errorf(diag.KindUnresolvedSymbol, "unknown property %q in member access", v.Member)
		b.emit(ir.Instruction{Op: ir.OpPushBool, Bool: false})
		return
	}
	b.emit(ir.Instruction{Op: ir.OpGetProp, Target: nodeID, Prop: uint32(propID)})
}

func binOp(op string) (ir.OpCode, bool) {
	switch op {
	case "+":
		return ir.OpAdd, true
	case "-":
		return ir.OpSub, true
	case "*":
		return ir.OpMul, true
	case "/":
		return ir.OpDiv, true
	case "%":
		return ir.OpMod, true
	case "==":
		return ir.OpEq, true
	case "!=":
		return ir.OpNe, true
	case "<":
		return ir.OpLt, true
	case ">":
		return ir.OpGt, true
	case "<=":
		return ir.OpLe, true
	case ">=":
		return ir.OpGe, true
	case "&&":
		return ir.OpAnd, true
	case "||":
		return ir.OpOr, true
	default:
		return 0, false
	}
}
