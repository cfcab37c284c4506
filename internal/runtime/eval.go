// Package runtime implements the embedding backend contract:
// enumerate_elements and dispatch_event over a compiled *ir.IR, plus the
// host-function bridge for non-bytecode handler languages. It is the one
// component no pipeline stage (lexer..writer) already provides — a
// reference embedding, not a rendering engine of its own.
package runtime

import (
	"fmt"
	"math"

	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/ir"
)

// evalScope resolves the free variables an Element's property Expression
// tree may reference: the shared reactive state cells of IR.States, looked
// up by name since property Expressions predate bytecode's name→state_id
// resolution. Component-instance parameters are not in this scope; a
// VarRef that names no state cell fails as an unresolved variable. Unlike internal/bytecode's VM, which only ever sees
// already-lowered instructions, the element tree still carries full
// Expression trees for properties (only handler bodies compile to
// bytecode, not property values), so re-evaluating a bound property on
// every enumeration is what makes it "reactive" rather than a one-shot
// compile-time constant.
type evalScope struct {
	irv    *ir.IR
	byName map[string]ir.Value
}

// newEvalScope seeds byName from state's *current* values, not each
// cell's compile-time Initial — this is what makes a bound property
// "reactive": the same state_id read here is the one SetState just wrote,
// so observers are always notified with the net new values.
func newEvalScope(irv *ir.IR, state *bytecode.StateTable) *evalScope {
	s := &evalScope{irv: irv, byName: map[string]ir.Value{}}
	for _, cell := range irv.States {
		v, ok := state.Get(uint32(cell.StateID))
		if !ok {
			v = cell.Initial
		}
		s.byName[irv.Strings.Get(cell.Name)] = v
	}
	return s
}

// evalExpr reduces an ir.Expression to a concrete ir.Value. It mirrors
// internal/bytecode/vm.go's arith/compare/asFloat rules exactly (same
// Int/Float widening, same IEEE-754 float division, same integer
// DivByZero) because both are realizations of the same arithmetic
// semantics — the VM over compiled bytecode, this over the uncompiled
// property-expression tree.
func evalExpr(s *evalScope, e ir.Expression) (ir.Value, error) {
	switch v := e.(type) {
	case ir.LiteralExpr:
		return v.Value, nil
	case ir.VarRefExpr:
		name := s.irv.Strings.Get(v.Name)
		val, ok := s.byName[name]
		if !ok {
			return ir.Value{}, fmt.Errorf("unresolved variable %q", name)
		}
		return val, nil
	case ir.MemberAccessExpr:
		// No runtime object graph backs member access outside bytecode's
		// element.prop shorthand (internal/bytecode/compiler.go's
		// compileMemberAccess); property expressions never author one.
		return ir.Value{}, fmt.Errorf("member access not supported in property expressions")
	case ir.ArrayAccessExpr:
		target, err := evalExpr(s, v.Target)
		if err != nil {
			return ir.Value{}, err
		}
		idx, err := evalExpr(s, v.Index)
		if err != nil {
			return ir.Value{}, err
		}
		if target.Kind != ir.VArray || idx.Kind != ir.VInt {
			return ir.Value{}, fmt.Errorf("array access requires an array and an int index")
		}
		if idx.Int < 0 || int(idx.Int) >= len(target.Array) {
			return ir.Value{}, fmt.Errorf("array index %d out of range (len %d)", idx.Int, len(target.Array))
		}
		return target.Array[idx.Int], nil
	case ir.BinaryOpExpr:
		return evalBinary(s, v)
	case ir.UnaryOpExpr:
		return evalUnary(s, v)
	case ir.TernaryExpr:
		cond, err := evalExpr(s, v.Cond)
		if err != nil {
			return ir.Value{}, err
		}
		if cond.Kind != ir.VBool {
			return ir.Value{}, fmt.Errorf("ternary condition must be bool")
		}
		if cond.Bool {
			return evalExpr(s, v.Then)
		}
		return evalExpr(s, v.Else)
	case ir.FunctionCallExpr:
		return ir.Value{}, fmt.Errorf("function calls not supported in property expressions")
	case ir.TemplateExpr:
		return evalTemplate(s, v)
	case ir.ArrayLitExpr:
		items := make([]ir.Value, len(v.Elements))
		for i, el := range v.Elements {
			val, err := evalExpr(s, el)
			if err != nil {
				return ir.Value{}, err
			}
			items[i] = val
		}
		return ir.ArrayValue(items), nil
	case ir.ObjectLitExpr:
		obj := make(map[uint32]ir.Value, len(v.Entries))
		for k, el := range v.Entries {
			val, err := evalExpr(s, el)
			if err != nil {
				return ir.Value{}, err
			}
			obj[k] = val
		}
		return ir.ObjectValue(obj), nil
	default:
		return ir.Value{}, fmt.Errorf("unsupported expression kind %T", e)
	}
}

func evalBinary(s *evalScope, v ir.BinaryOpExpr) (ir.Value, error) {
	l, err := evalExpr(s, v.Left)
	if err != nil {
		return ir.Value{}, err
	}
	r, err := evalExpr(s, v.Right)
	if err != nil {
		return ir.Value{}, err
	}
	switch v.Op {
	case ir.BinAnd, ir.BinOr:
		if l.Kind != ir.VBool || r.Kind != ir.VBool {
			return ir.Value{}, fmt.Errorf("logical operator requires bool operands")
		}
		if v.Op == ir.BinAnd {
			return ir.BoolValue(l.Bool && r.Bool), nil
		}
		return ir.BoolValue(l.Bool || r.Bool), nil
	case ir.BinEq, ir.BinNe:
		eq := valuesEqual(l, r)
		if v.Op == ir.BinNe {
			eq = !eq
		}
		return ir.BoolValue(eq), nil
	case ir.BinLt, ir.BinGt, ir.BinLe, ir.BinGe:
		lf, lok := asFloat(l)
		rf, rok := asFloat(r)
		if !lok || !rok {
			return ir.Value{}, fmt.Errorf("ordered comparison requires numeric operands")
		}
		var res bool
		switch v.Op {
		case ir.BinLt:
			res = lf < rf
		case ir.BinGt:
			res = lf > rf
		case ir.BinLe:
			res = lf <= rf
		case ir.BinGe:
			res = lf >= rf
		}
		return ir.BoolValue(res), nil
	default:
		return evalArith(v.Op, l, r)
	}
}

func evalArith(op ir.BinaryOperator, l, r ir.Value) (ir.Value, error) {
	if l.Kind == ir.VInt && r.Kind == ir.VInt {
		switch op {
		case ir.BinAdd:
			return ir.IntValue(l.Int + r.Int), nil
		case ir.BinSub:
			return ir.IntValue(l.Int - r.Int), nil
		case ir.BinMul:
			return ir.IntValue(l.Int * r.Int), nil
		case ir.BinDiv:
			if r.Int == 0 {
				return ir.Value{}, fmt.Errorf("integer division by zero")
			}
			return ir.IntValue(l.Int / r.Int), nil
		case ir.BinMod:
			if r.Int == 0 {
				return ir.Value{}, fmt.Errorf("integer modulo by zero")
			}
			return ir.IntValue(l.Int % r.Int), nil
		}
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		return ir.Value{}, fmt.Errorf("arithmetic requires numeric operands, got %v and %v", l.Kind, r.Kind)
	}
	switch op {
	case ir.BinAdd:
		return ir.FloatValue(lf + rf), nil
	case ir.BinSub:
		return ir.FloatValue(lf - rf), nil
	case ir.BinMul:
		return ir.FloatValue(lf * rf), nil
	case ir.BinDiv:
		return ir.FloatValue(lf / rf), nil
	case ir.BinMod:
		return ir.FloatValue(math.Mod(lf, rf)), nil
	}
	return ir.Value{}, fmt.Errorf("unsupported binary operator")
}

func evalUnary(s *evalScope, v ir.UnaryOpExpr) (ir.Value, error) {
	operand, err := evalExpr(s, v.Operand)
	if err != nil {
		return ir.Value{}, err
	}
	switch v.Op {
	case ir.UnaryNeg:
		switch operand.Kind {
		case ir.VInt:
			return ir.IntValue(-operand.Int), nil
		case ir.VFloat:
			return ir.FloatValue(-operand.Float), nil
		default:
			return ir.Value{}, fmt.Errorf("negation requires a numeric operand")
		}
	case ir.UnaryNot:
		if operand.Kind != ir.VBool {
			return ir.Value{}, fmt.Errorf("not requires a bool operand")
		}
		return ir.BoolValue(!operand.Bool), nil
	}
	return ir.Value{}, fmt.Errorf("unsupported unary operator")
}

func evalTemplate(s *evalScope, v ir.TemplateExpr) (ir.Value, error) {
	out := ""
	for _, seg := range v.Segments {
		if seg.IsLiteral {
			out += s.irv.Strings.Get(seg.Literal)
			continue
		}
		val, err := evalExpr(s, seg.Expr)
		if err != nil {
			return ir.Value{}, err
		}
		out += stringify(s.irv, val)
	}
	return ir.StringValue(s.irv.Strings.Intern(out)), nil
}

// stringify matches internal/bytecode's HostRegistry.stringify exactly —
// both implement the same "${expr}" template-coercion rule.
func stringify(irv *ir.IR, v ir.Value) string {
	switch v.Kind {
	case ir.VString:
		return irv.Strings.Get(v.Str)
	case ir.VInt:
		return fmt.Sprintf("%d", v.Int)
	case ir.VFloat:
		return fmt.Sprintf("%g", v.Float)
	case ir.VBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ir.VNull:
		return ""
	default:
		return fmt.Sprintf("%v", v.Kind)
	}
}

func asFloat(v ir.Value) (float64, bool) {
	switch v.Kind {
	case ir.VInt:
		return float64(v.Int), true
	case ir.VFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func valuesEqual(l, r ir.Value) bool {
	if l.Kind == ir.VInt || l.Kind == ir.VFloat {
		if r.Kind == ir.VInt || r.Kind == ir.VFloat {
			lf, _ := asFloat(l)
			rf, _ := asFloat(r)
			return lf == rf
		}
	}
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ir.VString:
		return l.Str == r.Str
	case ir.VBool:
		return l.Bool == r.Bool
	case ir.VNull:
		return true
	case ir.VColor:
		return l.Color == r.Color
	case ir.VUnit:
		return l.UnitValue == r.UnitValue && l.Unit == r.Unit
	case ir.VResource:
		return l.Resource == r.Resource
	default:
		return false
	}
}
