package printer

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
	"github.com/kryonlabs/kryon/internal/token"
)

// unitSuffix renders a token.Unit the way the lexer's scanNumber accepts it
// back: every unit but percent round-trips through its own name, but percent
// is only ever written "%", never "pct" (lexer/lexer.go's scanNumber tries a
// letter run first, then falls back to a bare '%').
func unitSuffix(u token.Unit) string {
	if u == token.UnitPct {
		return "%"
	}
	return u.String()
}

// valueToSource renders an ir.Value as a kry literal. Numbers always carry
// a decimal point when they're floats and never use exponent notation,
// matching scanNumber's lack of 'e' support; colors always print as the
// fully round-trippable 8-digit #RRGGBBAA form.
func valueToSource(irv *ir.IR, v ir.Value) string {
	switch v.Kind {
	case ir.VString:
		return quoteString(irv.Strings.Get(v.Str))
	case ir.VInt:
		return strconv.FormatInt(v.Int, 10)
	case ir.VFloat:
		return formatFloat(v.Float)
	case ir.VBool:
		return strconv.FormatBool(v.Bool)
	case ir.VNull:
		return "null"
	case ir.VColor:
		return fmt.Sprintf("#%02X%02X%02X%02X", v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	case ir.VUnit:
		return formatFloat(v.UnitValue) + unitSuffix(v.Unit)
	case ir.VArray:
		items := make([]string, len(v.Array))
		for i, item := range v.Array {
			items[i] = valueToSource(irv, item)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case ir.VObject:
		keys := make([]uint32, 0, len(v.Object))
		for k := range v.Object {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		fields := make([]string, len(keys))
		for i, k := range keys {
			fields[i] = fmt.Sprintf("%s: %s", irv.Strings.Get(k), valueToSource(irv, v.Object[k]))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	case ir.VResource:
		// No forward compile path currently produces a VResource (see
		// DESIGN.md); printing its backing path as a plain string literal
		// is the only defensible fallback.
		if int(v.Resource) < len(irv.Resources) {
			return quoteString(irv.Strings.Get(irv.Resources[v.Resource].Path))
		}
		return `""`
	default:
		return "null"
	}
}

var binOpSourceSymbols = map[ir.BinaryOperator]string{
	ir.BinAdd: "+", ir.BinSub: "-", ir.BinMul: "*", ir.BinDiv: "/", ir.BinMod: "%",
	ir.BinEq: "==", ir.BinNe: "!=", ir.BinLt: "<", ir.BinGt: ">", ir.BinLe: "<=", ir.BinGe: ">=",
	ir.BinAnd: "&&", ir.BinOr: "||",
}

var unaryOpSourceSymbols = map[ir.UnaryOperator]string{ir.UnaryNeg: "-", ir.UnaryNot: "!"}

// exprToSource renders any ir.Expression back to kry syntax: a constant
// Value, a name/member/index reference, an operator expression, a call, a
// ternary, a template, or an array/object literal. Property values and
// component-parameter defaults are Expressions at this layer (only handler
// bytecode has already been lowered away from it), so the printer needs the
// full union, not just LiteralExpr.
func exprToSource(irv *ir.IR, e ir.Expression) string {
	switch v := e.(type) {
	case ir.LiteralExpr:
		return valueToSource(irv, v.Value)
	case ir.VarRefExpr:
		return irv.Strings.Get(v.Name)
	case ir.MemberAccessExpr:
		return fmt.Sprintf("%s.%s", exprToSource(irv, v.Target), irv.Strings.Get(v.Member))
	case ir.ArrayAccessExpr:
		return fmt.Sprintf("%s[%s]", exprToSource(irv, v.Target), exprToSource(irv, v.Index))
	case ir.BinaryOpExpr:
		return fmt.Sprintf("(%s %s %s)", exprToSource(irv, v.Left), binOpSourceSymbols[v.Op], exprToSource(irv, v.Right))
	case ir.UnaryOpExpr:
		return unaryOpSourceSymbols[v.Op] + exprToSource(irv, v.Operand)
	case ir.TernaryExpr:
		return fmt.Sprintf("%s ? %s : %s", exprToSource(irv, v.Cond), exprToSource(irv, v.Then), exprToSource(irv, v.Else))
	case ir.FunctionCallExpr:
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = exprToSource(irv, a)
		}
		return fmt.Sprintf("%s(%s)", irv.Strings.Get(v.Name), strings.Join(args, ", "))
	case ir.TemplateExpr:
		var sb strings.Builder
		sb.WriteByte('"')
		for _, seg := range v.Segments {
			if seg.IsLiteral {
				sb.WriteString(escapeString(irv.Strings.Get(seg.Literal)))
			} else {
				sb.WriteString("${")
				sb.WriteString(exprToSource(irv, seg.Expr))
				sb.WriteString("}")
			}
		}
		sb.WriteByte('"')
		return sb.String()
	case ir.ArrayLitExpr:
		items := make([]string, len(v.Elements))
		for i, el := range v.Elements {
			items[i] = exprToSource(irv, el)
		}
		return "[" + strings.Join(items, ", ") + "]"
	case ir.ObjectLitExpr:
		keys := make([]uint32, 0, len(v.Entries))
		for k := range v.Entries {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
		fields := make([]string, len(keys))
		for i, k := range keys {
			fields[i] = fmt.Sprintf("%s: %s", irv.Strings.Get(k), exprToSource(irv, v.Entries[k]))
		}
		return "{" + strings.Join(fields, ", ") + "}"
	default:
		return "null"
	}
}

// propertyName renders a category.PropertyID back to its camelCase kry
// spelling, falling back to the wire numeric form for any supplemented or
// custom id PropertyNames doesn't carry (mirrors category.PropertyNames'
// own "several aliases per ID" caveat: this always picks the canonical
// entry, which is what Write/Read already treat as ground truth).
func propertyName(id category.PropertyID) string {
	if name, ok := category.PropertyNames[id]; ok {
		return name
	}
	return fmt.Sprintf("_prop%d", uint16(id))
}

// elementKindName renders an ir.ElementKind back to its kry tag name,
// substituting the interned custom name for the ElemCustom escape hatch
// (category.ElementKindByName's documented counterpart).
func elementKindName(k category.ElementKind, customName string) string {
	if k == category.ElemCustom && customName != "" {
		return customName
	}
	return k.String()
}
