package kir

import (
	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/token"
)

// valueKindNames/exprKindNames give every Value/Expression variant a
// human-readable `type` tag — unlike internal/krb's numeric wire tags,
// a JSON exchange format is meant to be read by a human or another tool,
// so the tag is the name, not the enum ordinal.
var valueKindNames = map[ir.ValueKind]string{
	ir.VString: "string", ir.VInt: "int", ir.VFloat: "float", ir.VBool: "bool",
	ir.VNull: "null", ir.VColor: "color", ir.VUnit: "unit",
	ir.VArray: "array", ir.VObject: "object", ir.VResource: "resource",
}

var valueKindByName = func() map[string]ir.ValueKind {
	m := make(map[string]ir.ValueKind, len(valueKindNames))
	for k, v := range valueKindNames {
		m[v] = k
	}
	return m
}()

// valueToJSON converts an ir.Value into a plain JSON-marshalable Go value.
// irv resolves string-table indices to their text so the JSON is
// self-contained and readable without a side-channel string table.
func valueToJSON(irv *ir.IR, v ir.Value) map[string]any {
	out := map[string]any{"type": valueKindNames[v.Kind]}
	switch v.Kind {
	case ir.VString:
		out["value"] = irv.Strings.Get(v.Str)
	case ir.VInt:
		out["value"] = v.Int
	case ir.VFloat:
		out["value"] = v.Float
	case ir.VBool:
		out["value"] = v.Bool
	case ir.VNull:
		// no payload
	case ir.VColor:
		out["value"] = []uint8{v.Color[0], v.Color[1], v.Color[2], v.Color[3]}
	case ir.VUnit:
		out["value"] = v.UnitValue
		out["unit"] = v.Unit.String()
	case ir.VArray:
		items := make([]any, len(v.Array))
		for i, e := range v.Array {
			items[i] = valueToJSON(irv, e)
		}
		out["value"] = items
	case ir.VObject:
		obj := make(map[string]any, len(v.Object))
		for k, e := range v.Object {
			obj[irv.Strings.Get(k)] = valueToJSON(irv, e)
		}
		out["value"] = obj
	case ir.VResource:
		out["value"] = v.Resource
	}
	return out
}

func valueFromJSON(irv *ir.IR, r gjson.Result) ir.Value {
	kind, ok := valueKindByName[r.Get("type").String()]
	if !ok {
		return ir.NullValue()
	}
	val := r.Get("value")
	switch kind {
	case ir.VString:
		return ir.StringValue(irv.Strings.Intern(val.String()))
	case ir.VInt:
		return ir.IntValue(val.Int())
	case ir.VFloat:
		return ir.FloatValue(val.Float())
	case ir.VBool:
		return ir.BoolValue(val.Bool())
	case ir.VNull:
		return ir.NullValue()
	case ir.VColor:
		arr := val.Array()
		var c [4]uint8
		for i := 0; i < 4 && i < len(arr); i++ {
			c[i] = uint8(arr[i].Int())
		}
		return ir.ColorValue(c[0], c[1], c[2], c[3])
	case ir.VUnit:
		u, _ := token.ParseUnit(r.Get("unit").String())
		return ir.UnitValueOf(val.Float(), u)
	case ir.VArray:
		arr := val.Array()
		items := make([]ir.Value, len(arr))
		for i, e := range arr {
			items[i] = valueFromJSON(irv, e)
		}
		return ir.ArrayValue(items)
	case ir.VObject:
		obj := make(map[uint32]ir.Value)
		val.ForEach(func(key, value gjson.Result) bool {
			obj[irv.Strings.Intern(key.String())] = valueFromJSON(irv, value)
			return true
		})
		return ir.ObjectValue(obj)
	case ir.VResource:
		return ir.ResourceValue(uint32(val.Int()))
	}
	return ir.NullValue()
}

var binOpNames = map[ir.BinaryOperator]string{
	ir.BinAdd: "+", ir.BinSub: "-", ir.BinMul: "*", ir.BinDiv: "/", ir.BinMod: "%",
	ir.BinEq: "==", ir.BinNe: "!=", ir.BinLt: "<", ir.BinGt: ">", ir.BinLe: "<=", ir.BinGe: ">=",
	ir.BinAnd: "&&", ir.BinOr: "||",
}

var binOpByName = func() map[string]ir.BinaryOperator {
	m := make(map[string]ir.BinaryOperator, len(binOpNames))
	for k, v := range binOpNames {
		m[v] = k
	}
	return m
}()

var unaryOpNames = map[ir.UnaryOperator]string{ir.UnaryNeg: "-", ir.UnaryNot: "!"}
var unaryOpByName = map[string]ir.UnaryOperator{"-": ir.UnaryNeg, "!": ir.UnaryNot}

// exprToJSON converts an ir.Expression into a plain JSON-marshalable Go
// value, tagged by `type`.
func exprToJSON(irv *ir.IR, e ir.Expression) map[string]any {
	switch v := e.(type) {
	case ir.LiteralExpr:
		return map[string]any{"type": "literal", "value": valueToJSON(irv, v.Value)}
	case ir.VarRefExpr:
		return map[string]any{"type": "var_ref", "name": irv.Strings.Get(v.Name)}
	case ir.MemberAccessExpr:
		return map[string]any{"type": "member_access", "target": exprToJSON(irv, v.Target), "member": irv.Strings.Get(v.Member)}
	case ir.ArrayAccessExpr:
		return map[string]any{"type": "array_access", "target": exprToJSON(irv, v.Target), "index": exprToJSON(irv, v.Index)}
	case ir.BinaryOpExpr:
		return map[string]any{"type": "binary_op", "op": binOpNames[v.Op], "left": exprToJSON(irv, v.Left), "right": exprToJSON(irv, v.Right)}
	case ir.UnaryOpExpr:
		return map[string]any{"type": "unary_op", "op": unaryOpNames[v.Op], "operand": exprToJSON(irv, v.Operand)}
	case ir.TernaryExpr:
		return map[string]any{"type": "ternary", "cond": exprToJSON(irv, v.Cond), "then": exprToJSON(irv, v.Then), "else": exprToJSON(irv, v.Else)}
	case ir.FunctionCallExpr:
		args := make([]any, len(v.Args))
		for i, a := range v.Args {
			args[i] = exprToJSON(irv, a)
		}
		return map[string]any{"type": "function_call", "name": irv.Strings.Get(v.Name), "args": args}
	case ir.TemplateExpr:
		segs := make([]any, len(v.Segments))
		for i, s := range v.Segments {
			if s.IsLiteral {
				segs[i] = map[string]any{"literal": irv.Strings.Get(s.Literal)}
			} else {
				segs[i] = map[string]any{"expr": exprToJSON(irv, s.Expr)}
			}
		}
		return map[string]any{"type": "template", "segments": segs}
	case ir.ArrayLitExpr:
		elems := make([]any, len(v.Elements))
		for i, el := range v.Elements {
			elems[i] = exprToJSON(irv, el)
		}
		return map[string]any{"type": "array_lit", "elements": elems}
	case ir.ObjectLitExpr:
		entries := make(map[string]any, len(v.Entries))
		for k, val := range v.Entries {
			entries[irv.Strings.Get(k)] = exprToJSON(irv, val)
		}
		return map[string]any{"type": "object_lit", "entries": entries}
	default:
		return map[string]any{"type": "literal", "value": valueToJSON(irv, ir.NullValue())}
	}
}

// exprFromJSON is the inverse of exprToJSON. An unrecognized `type` value
// is a warn-and-substitute-null case; warnings are appended to warn rather
// than raised as errors, matching the tolerant-reader contract.
func exprFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) ir.Expression {
	switch r.Get("type").String() {
	case "literal":
		return ir.LiteralExpr{Value: valueFromJSON(irv, r.Get("value"))}
	case "var_ref":
		return ir.VarRefExpr{Name: irv.Strings.Intern(r.Get("name").String())}
	case "member_access":
		return ir.MemberAccessExpr{
			Target: exprFromJSON(irv, r.Get("target"), warn),
			Member: irv.Strings.Intern(r.Get("member").String()),
		}
	case "array_access":
		return ir.ArrayAccessExpr{
			Target: exprFromJSON(irv, r.Get("target"), warn),
			Index:  exprFromJSON(irv, r.Get("index"), warn),
		}
	case "binary_op":
		return ir.BinaryOpExpr{
			Op:    binOpByName[r.Get("op").String()],
			Left:  exprFromJSON(irv, r.Get("left"), warn),
			Right: exprFromJSON(irv, r.Get("right"), warn),
		}
	case "unary_op":
		return ir.UnaryOpExpr{
			Op:      unaryOpByName[r.Get("op").String()],
			Operand: exprFromJSON(irv, r.Get("operand"), warn),
		}
	case "ternary":
		return ir.TernaryExpr{
			Cond: exprFromJSON(irv, r.Get("cond"), warn),
			Then: exprFromJSON(irv, r.Get("then"), warn),
			Else: exprFromJSON(irv, r.Get("else"), warn),
		}
	case "function_call":
		var args []ir.Expression
		for _, a := range r.Get("args").Array() {
			args = append(args, exprFromJSON(irv, a, warn))
		}
		return ir.FunctionCallExpr{Name: irv.Strings.Intern(r.Get("name").String()), Args: args}
	case "template":
		var segs []ir.TemplateSegment
		for _, s := range r.Get("segments").Array() {
			if lit := s.Get("literal"); lit.Exists() {
				segs = append(segs, ir.TemplateSegment{IsLiteral: true, Literal: irv.Strings.Intern(lit.String())})
			} else {
				segs = append(segs, ir.TemplateSegment{Expr: exprFromJSON(irv, s.Get("expr"), warn)})
			}
		}
		return ir.TemplateExpr{Segments: segs}
	case "array_lit":
		var elems []ir.Expression
		for _, el := range r.Get("elements").Array() {
			elems = append(elems, exprFromJSON(irv, el, warn))
		}
		return ir.ArrayLitExpr{Elements: elems}
	case "object_lit":
		entries := make(map[uint32]ir.Expression)
		r.Get("entries").ForEach(func(key, value gjson.Result) bool {
			entries[irv.Strings.Intern(key.String())] = exprFromJSON(irv, value, warn)
			return true
		})
		return ir.ObjectLitExpr{Entries: entries}
	default:
		warn("unknown expression node type " + r.Get("type").String())
		return ir.LiteralExpr{Value: ir.NullValue()}
	}
}
