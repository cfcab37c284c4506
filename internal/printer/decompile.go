package printer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// toStringHostName mirrors internal/bytecode's unexported constant of the
// same name (the synthetic string-coercion host every template lowering
// calls through). Decompilation needs to recognize calls to it so a
// Concat/CallHost chain can be folded back into "...${expr}..." syntax
// instead of printing a call to a host function no source file ever
// declared.
const toStringHostName = "__kryon_to_string"

// piece is one fragment of a reconstructed template string: either a raw
// literal run or a rendered expression destined for a `${...}` slot.
type piece struct {
	literal bool
	text    string
}

// dval is one value on the decompiler's simulated operand stack. text is
// its rendering as a standalone kry expression; pieces is non-nil only for
// values built along the PushString/CallHost(toString)/Concat chain
// compileTemplate emits (see internal/bytecode/compiler.go), letting Concat
// merge fragments instead of nesting quoted strings inside quoted strings.
type dval struct {
	text   string
	pieces []piece
}

func exprDval(s string) dval { return dval{text: s} }

func litDval(raw string) dval {
	p := []piece{{literal: true, text: raw}}
	return dval{text: renderTemplate(p), pieces: p}
}

func (v dval) asPieces() []piece {
	if v.pieces != nil {
		return v.pieces
	}
	return []piece{{literal: false, text: v.text}}
}

func renderTemplate(pieces []piece) string {
	if len(pieces) == 1 && pieces[0].literal {
		return quoteString(pieces[0].text)
	}
	var sb strings.Builder
	sb.WriteByte('"')
	for _, p := range pieces {
		if p.literal {
			sb.WriteString(escapeString(p.text))
		} else {
			sb.WriteString("${")
			sb.WriteString(p.text)
			sb.WriteString("}")
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func quoteString(s string) string { return `"` + escapeString(s) + `"` }

func escapeString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\t", `\t`)
	return r.Replace(s)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

var binOpSymbols = map[ir.OpCode]string{
	ir.OpAdd: "+", ir.OpSub: "-", ir.OpMul: "*", ir.OpDiv: "/", ir.OpMod: "%",
	ir.OpEq: "==", ir.OpNe: "!=", ir.OpLt: "<", ir.OpGt: ">", ir.OpLe: "<=", ir.OpGe: ">=",
	ir.OpAnd: "&&", ir.OpOr: "||",
}

// declCtx resolves bytecode operand IDs back to source-level names.
type declCtx struct {
	irv            *ir.IR
	paramNames     []string
	toStringID     uint32
	haveToString   bool
}

func newDeclCtx(irv *ir.IR, paramNames []string) *declCtx {
	ctx := &declCtx{irv: irv, paramNames: paramNames}
	for _, h := range irv.HostFunctions {
		if irv.Strings.Get(h.Name) == toStringHostName {
			ctx.toStringID = h.ID
			ctx.haveToString = true
			break
		}
	}
	return ctx
}

func (c *declCtx) localName(id uint16) string {
	if int(id) < len(c.paramNames) {
		return c.paramNames[id]
	}
	return fmt.Sprintf("_local%d", id)
}

func (c *declCtx) stateName(id uint32) string {
	for _, s := range c.irv.States {
		if uint32(s.StateID) == id {
			return c.irv.Strings.Get(s.Name)
		}
	}
	for _, comp := range c.irv.Components {
		for _, s := range comp.StateVars {
			if uint32(s.StateID) == id {
				return c.irv.Strings.Get(s.Name)
			}
		}
	}
	return fmt.Sprintf("_state%d", id)
}

func (c *declCtx) funcName(id uint32) string {
	if fn := c.irv.FindFunction(id); fn != nil {
		return c.irv.Strings.Get(fn.Name)
	}
	return fmt.Sprintf("_fn%d", id)
}

func (c *declCtx) hostName(id uint32) string {
	if h := c.irv.FindHostFunction(id); h != nil {
		return c.irv.Strings.Get(h.Name)
	}
	return fmt.Sprintf("_host%d", id)
}

func (c *declCtx) elementName(nodeID uint32) string {
	var found string
	c.irv.Walk(func(e *ir.Element) {
		if e.NodeID == nodeID && e.HasID {
			found = c.irv.Strings.Get(e.IDIndex)
		}
	})
	if found == "" {
		return fmt.Sprintf("_node%d", nodeID)
	}
	return found
}

func pop(stack *[]dval) dval {
	n := len(*stack)
	if n == 0 {
		return exprDval("null")
	}
	v := (*stack)[n-1]
	*stack = (*stack)[:n-1]
	return v
}

func popN(stack *[]dval, n int) []string {
	if n <= 0 {
		return nil
	}
	if n > len(*stack) {
		n = len(*stack)
	}
	vals := (*stack)[len(*stack)-n:]
	*stack = (*stack)[:len(*stack)-n]
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.text
	}
	return out
}

// evalStackStmts linearly simulates ins[start:end), pushing rendered values
// onto a stack and appending completed statements (assignments, dropped
// expression-statement values) to *stmts as it encounters the opcodes the
// bytecode compiler uses to close a statement (SetLocal/SetState/Pop).
// JumpIfFalse/Jump — the only control-flow shape the compiler ever emits,
// for `cond ? then : else` — is reconstructed by recursing into evalSingle
// over the absolute sub-ranges the compiler's own offset patching recorded.
func evalStackStmts(ins []ir.Instruction, start, end int, ctx *declCtx, stmts *[]string) []dval {
	var stack []dval
	i := start
	for i < end {
		in := ins[i]
		switch in.Op {
		case ir.OpPushInt:
			stack = append(stack, exprDval(strconv.FormatInt(in.Int, 10)))
		case ir.OpPushFloat:
			stack = append(stack, exprDval(formatFloat(in.Float)))
		case ir.OpPushBool:
			stack = append(stack, exprDval(strconv.FormatBool(in.Bool)))
		case ir.OpPushString:
			stack = append(stack, litDval(ctx.irv.Strings.Get(in.Str)))
		case ir.OpGetLocal:
			stack = append(stack, exprDval(ctx.localName(uint16(in.ID))))
		case ir.OpGetState:
			stack = append(stack, exprDval(ctx.stateName(in.ID)))
		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod,
			ir.OpEq, ir.OpNe, ir.OpLt, ir.OpGt, ir.OpLe, ir.OpGe, ir.OpAnd, ir.OpOr:
			b := pop(&stack)
			a := pop(&stack)
			stack = append(stack, exprDval(fmt.Sprintf("(%s %s %s)", a.text, binOpSymbols[in.Op], b.text)))
		case ir.OpNeg:
			a := pop(&stack)
			stack = append(stack, exprDval("-"+a.text))
		case ir.OpNot:
			a := pop(&stack)
			stack = append(stack, exprDval("!"+a.text))
		case ir.OpConcat:
			b := pop(&stack)
			a := pop(&stack)
			merged := append(append([]piece{}, a.asPieces()...), b.asPieces()...)
			stack = append(stack, dval{text: renderTemplate(merged), pieces: merged})
		case ir.OpGetProp:
			propName := category.PropertyNames[category.PropertyID(in.Prop)]
			stack = append(stack, exprDval(fmt.Sprintf("%s.%s", ctx.elementName(in.Target), propName)))
		case ir.OpCall:
			callee := ctx.irv.FindFunction(in.ID)
			argc := 0
			if callee != nil {
				argc = len(callee.ParamIndices)
			}
			args := popN(&stack, argc)
			stack = append(stack, exprDval(fmt.Sprintf("%s(%s)", ctx.funcName(in.ID), strings.Join(args, ", "))))
		case ir.OpCallHost:
			if ctx.haveToString && in.ID == ctx.toStringID && in.Target == 1 {
				operand := pop(&stack)
				p := []piece{{literal: false, text: operand.text}}
				stack = append(stack, dval{text: renderTemplate(p), pieces: p})
				break
			}
			args := popN(&stack, int(in.Target))
			stack = append(stack, exprDval(fmt.Sprintf("%s(%s)", ctx.hostName(in.ID), strings.Join(args, ", "))))
		case ir.OpJumpIfFalse:
			cond := pop(&stack)
			jumpIdx := in.Offset - 1
			thenVal := evalSingle(ins, i+1, jumpIdx, ctx)
			endPos := ins[jumpIdx].Offset
			elseVal := evalSingle(ins, in.Offset, endPos, ctx)
			stack = append(stack, exprDval(fmt.Sprintf("%s ? %s : %s", cond.text, thenVal.text, elseVal.text)))
			i = endPos
			continue
		case ir.OpSetLocal:
			v := pop(&stack)
			*stmts = append(*stmts, fmt.Sprintf("%s = %s", ctx.localName(uint16(in.ID)), v.text))
		case ir.OpSetState:
			v := pop(&stack)
			*stmts = append(*stmts, fmt.Sprintf("%s = %s", ctx.stateName(in.ID), v.text))
		case ir.OpPop:
			v := pop(&stack)
			*stmts = append(*stmts, v.text)
		}
		i++
	}
	return stack
}

// evalSingle decompiles ins[start:end) — always a pure expression in the
// shapes this compiler emits (a ternary branch) — down to its one
// resulting value.
func evalSingle(ins []ir.Instruction, start, end int, ctx *declCtx) dval {
	var discard []string
	stack := evalStackStmts(ins, start, end, ctx, &discard)
	if len(stack) == 0 {
		return exprDval("null")
	}
	return stack[len(stack)-1]
}

// decompileFunction reconstructs an embedded-bytecode function's body as a
// sequence of source-level statement strings ("count = count + 1"),
// inverting internal/bytecode/compiler.go's compileHandler/compileStatement
// well enough to satisfy the semantic (not textual) round-trip invariant:
// re-parsing and re-compiling the printed statements produces the same
// instruction shapes.
func decompileFunction(irv *ir.IR, fn *ir.Function, paramNames []string) []string {
	ins := fn.Instructions
	if n := len(ins); n > 0 && ins[n-1].Op == ir.OpReturn {
		ins = ins[:n-1]
	}
	ctx := newDeclCtx(irv, paramNames)
	var stmts []string
	stack := evalStackStmts(ins, 0, len(ins), ctx, &stmts)
	for _, v := range stack {
		stmts = append(stmts, v.text)
	}
	return stmts
}
