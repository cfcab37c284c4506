package krb

import (
	"sort"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/token"
)

// Value tags. ir.ValueKind is already the closed union for
// Value (String|Int|Float|Bool|Null|Color|Unit|Array|Object) plus the
// supplemented Resource variant, so this package reuses it directly as the
// wire tag instead of inventing a second, parallel encoding for what is
// the same closed set (see DESIGN.md "internal/krb" for why this collapses
// every property-value variant into one tag scheme shared
// by property values, theme initials, and state-cell initials).
func writeValue(w *buf, irv *ir.IR, v ir.Value) {
	w.u8(uint8(v.Kind))
	switch v.Kind {
	case ir.VString:
		w.u32(v.Str)
	case ir.VInt:
		w.i64(v.Int)
	case ir.VFloat:
		w.f64(v.Float)
	case ir.VBool:
		if v.Bool {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case ir.VNull:
		// no payload
	case ir.VColor:
		w.bytes(v.Color[:])
	case ir.VUnit:
		w.f64(v.UnitValue)
		w.u8(uint8(v.Unit))
	case ir.VArray:
		w.u32(uint32(len(v.Array)))
		for _, e := range v.Array {
			writeValue(w, irv, e)
		}
	case ir.VObject:
		keys := make([]uint32, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		w.u32(uint32(len(keys)))
		for _, k := range keys {
			w.u32(k)
			writeValue(w, irv, v.Object[k])
		}
	case ir.VResource:
		w.u32(v.Resource)
	}
}

func readValue(c *cursor) ir.Value {
	kind := ir.ValueKind(c.u8())
	switch kind {
	case ir.VString:
		return ir.StringValue(c.u32())
	case ir.VInt:
		return ir.IntValue(c.i64())
	case ir.VFloat:
		return ir.FloatValue(c.f64())
	case ir.VBool:
		return ir.BoolValue(c.u8() != 0)
	case ir.VNull:
		return ir.NullValue()
	case ir.VColor:
		b := c.take(4)
		return ir.ColorValue(b[0], b[1], b[2], b[3])
	case ir.VUnit:
		mag := c.f64()
		return ir.UnitValueOf(mag, token.Unit(c.u8()))
	case ir.VArray:
		n := c.u32()
		items := make([]ir.Value, n)
		for i := range items {
			items[i] = readValue(c)
		}
		return ir.ArrayValue(items)
	case ir.VObject:
		n := c.u32()
		m := make(map[uint32]ir.Value, n)
		for i := uint32(0); i < n; i++ {
			k := c.u32()
			m[k] = readValue(c)
		}
		return ir.ObjectValue(m)
	case ir.VResource:
		return ir.ResourceValue(c.u32())
	default:
		fail(c.pos-1, "unknown value kind tag %d", kind)
		return ir.Value{}
	}
}

// Expression tags, used for property/theme initializers that are not a
// bare constant — the recursive-AST property-value variant.
const (
	exprLiteral      uint8 = 0
	exprVarRef       uint8 = 1
	exprMemberAccess uint8 = 2
	exprArrayAccess  uint8 = 3
	exprBinaryOp     uint8 = 4
	exprUnaryOp      uint8 = 5
	exprTernary      uint8 = 6
	exprFunctionCall uint8 = 7
	exprTemplate     uint8 = 8
	exprArrayLit     uint8 = 9
	exprObjectLit    uint8 = 10
)

func writeExpr(w *buf, irv *ir.IR, e ir.Expression) {
	switch v := e.(type) {
	case ir.LiteralExpr:
		w.u8(exprLiteral)
		writeValue(w, irv, v.Value)
	case ir.VarRefExpr:
		w.u8(exprVarRef)
		w.u32(v.Name)
	case ir.MemberAccessExpr:
		w.u8(exprMemberAccess)
		writeExpr(w, irv, v.Target)
		w.u32(v.Member)
	case ir.ArrayAccessExpr:
		w.u8(exprArrayAccess)
		writeExpr(w, irv, v.Target)
		writeExpr(w, irv, v.Index)
	case ir.BinaryOpExpr:
		w.u8(exprBinaryOp)
		w.u8(uint8(v.Op))
		writeExpr(w, irv, v.Left)
		writeExpr(w, irv, v.Right)
	case ir.UnaryOpExpr:
		w.u8(exprUnaryOp)
		w.u8(uint8(v.Op))
		writeExpr(w, irv, v.Operand)
	case ir.TernaryExpr:
		w.u8(exprTernary)
		writeExpr(w, irv, v.Cond)
		writeExpr(w, irv, v.Then)
		writeExpr(w, irv, v.Else)
	case ir.FunctionCallExpr:
		w.u8(exprFunctionCall)
		w.u32(v.Name)
		w.u16(uint16(len(v.Args)))
		for _, a := range v.Args {
			writeExpr(w, irv, a)
		}
	case ir.TemplateExpr:
		w.u8(exprTemplate)
		w.u16(uint16(len(v.Segments)))
		for _, seg := range v.Segments {
			if seg.IsLiteral {
				w.u8(1)
				w.u32(seg.Literal)
			} else {
				w.u8(0)
				writeExpr(w, irv, seg.Expr)
			}
		}
	case ir.ArrayLitExpr:
		w.u8(exprArrayLit)
		w.u16(uint16(len(v.Elements)))
		for _, el := range v.Elements {
			writeExpr(w, irv, el)
		}
	case ir.ObjectLitExpr:
		w.u8(exprObjectLit)
		keys := make([]uint32, 0, len(v.Entries))
		for k := range v.Entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		w.u16(uint16(len(keys)))
		for _, k := range keys {
			w.u32(k)
			writeExpr(w, irv, v.Entries[k])
		}
	default:
		fail(-1, "unknown expression type %T", e)
	}
}

func readExpr(c *cursor) ir.Expression {
	tag := c.u8()
	switch tag {
	case exprLiteral:
		return ir.LiteralExpr{Value: readValue(c)}
	case exprVarRef:
		return ir.VarRefExpr{Name: c.u32()}
	case exprMemberAccess:
		target := readExpr(c)
		return ir.MemberAccessExpr{Target: target, Member: c.u32()}
	case exprArrayAccess:
		target := readExpr(c)
		idx := readExpr(c)
		return ir.ArrayAccessExpr{Target: target, Index: idx}
	case exprBinaryOp:
		op := ir.BinaryOperator(c.u8())
		left := readExpr(c)
		right := readExpr(c)
		return ir.BinaryOpExpr{Op: op, Left: left, Right: right}
	case exprUnaryOp:
		op := ir.UnaryOperator(c.u8())
		operand := readExpr(c)
		return ir.UnaryOpExpr{Op: op, Operand: operand}
	case exprTernary:
		cond := readExpr(c)
		then := readExpr(c)
		els := readExpr(c)
		return ir.TernaryExpr{Cond: cond, Then: then, Else: els}
	case exprFunctionCall:
		name := c.u32()
		n := c.u16()
		args := make([]ir.Expression, n)
		for i := range args {
			args[i] = readExpr(c)
		}
		return ir.FunctionCallExpr{Name: name, Args: args}
	case exprTemplate:
		n := c.u16()
		segs := make([]ir.TemplateSegment, n)
		for i := range segs {
			if c.u8() == 1 {
				segs[i] = ir.TemplateSegment{IsLiteral: true, Literal: c.u32()}
			} else {
				segs[i] = ir.TemplateSegment{Expr: readExpr(c)}
			}
		}
		return ir.TemplateExpr{Segments: segs}
	case exprArrayLit:
		n := c.u16()
		elems := make([]ir.Expression, n)
		for i := range elems {
			elems[i] = readExpr(c)
		}
		return ir.ArrayLitExpr{Elements: elems}
	case exprObjectLit:
		n := c.u16()
		m := make(map[uint32]ir.Expression, n)
		for i := uint16(0); i < n; i++ {
			k := c.u32()
			m[k] = readExpr(c)
		}
		return ir.ObjectLitExpr{Entries: m}
	default:
		fail(c.pos-1, "unknown expression tag %d", tag)
		return nil
	}
}
