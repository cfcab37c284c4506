package semantic

import (
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
	"github.com/kryonlabs/kryon/internal/token"
)

// stateTypes flattens every state-cell name (top-level and every
// component's) into one name->StateType table, used by inferValueKind to
// resolve a VarRefExpr without needing scope information the IR no longer
// carries.
func (v *Validator) stateTypes() map[string]ir.StateType {
	out := make(map[string]ir.StateType)
	for _, s := range v.ir.States {
		out[v.ir.Strings.Get(s.Name)] = s.Type
	}
	for _, c := range v.ir.Components {
		for _, s := range c.StateVars {
			out[v.ir.Strings.Get(s.Name)] = s.Type
		}
	}
	return out
}

func stateTypeToValueKind(t ir.StateType) ir.ValueKind {
	switch t {
	case ir.StateInt:
		return ir.VInt
	case ir.StateFloat:
		return ir.VFloat
	case ir.StateString:
		return ir.VString
	case ir.StateBool:
		return ir.VBool
	default:
		return ir.VNull
	}
}

// inferValueKind attempts a shallow static type inference over e, just
// deep enough to say an expression's inferred type disagrees, without
// re-implementing a full type checker: literals resolve directly, VarRefs
// resolve through the state-cell table, and the two expression forms whose
// result kind is fixed regardless of operand type (comparisons, logical
// ops) resolve to bool. Anything else (arithmetic mixing unknown operands,
// calls, member/array access, templates) is left undetermined — ok is
// false — rather than guessed at.
func inferValueKind(e ir.Expression, states map[string]ir.StateType, strings *ir.StringTable) (ir.ValueKind, bool) {
	switch v := e.(type) {
	case ir.LiteralExpr:
		return v.Value.Kind, true
	case ir.VarRefExpr:
		if t, ok := states[strings.Get(v.Name)]; ok {
			return stateTypeToValueKind(t), true
		}
		return 0, false
	case ir.TernaryExpr:
		tk, tok := inferValueKind(v.Then, states, strings)
		ek, eok := inferValueKind(v.Else, states, strings)
		if tok && eok && tk == ek {
			return tk, true
		}
		return 0, false
	case ir.BinaryOpExpr:
		switch v.Op {
		case ir.BinEq, ir.BinNe, ir.BinLt, ir.BinGt, ir.BinLe, ir.BinGe, ir.BinAnd, ir.BinOr:
			return ir.VBool, true
		case ir.BinAdd, ir.BinSub, ir.BinMul, ir.BinDiv, ir.BinMod:
			lk, lok := inferValueKind(v.Left, states, strings)
			rk, rok := inferValueKind(v.Right, states, strings)
			if !lok || !rok {
				return 0, false
			}
			if lk == ir.VInt && rk == ir.VInt {
				return ir.VInt, true
			}
			if (lk == ir.VInt || lk == ir.VFloat) && (rk == ir.VInt || rk == ir.VFloat) {
				return ir.VFloat, true
			}
			// String concatenation is not arithmetic: the VM's Add requires
			// numeric operands (internal/bytecode), only the dedicated
			// Concat opcode (emitted for template interpolation) joins
			// strings, so VString+VString here is left undetermined rather
			// than inferred as VString.
			return 0, false
		}
		return 0, false
	case ir.UnaryOpExpr:
		if v.Op == ir.UnaryNot {
			return ir.VBool, true
		}
		return inferValueKind(v.Operand, states, strings)
	default:
		return 0, false
	}
}

func defaultValueFor(t expectedType) ir.Value {
	switch t {
	case typeString:
		return ir.StringValue(0) // index 0: the string table's reserved empty string
	case typeColor:
		return ir.ColorValue(0, 0, 0, 255)
	case typeBool:
		return ir.BoolValue(false)
	case typeInt:
		return ir.IntValue(0)
	case typeNumber:
		return ir.FloatValue(0)
	case typeLength:
		return ir.UnitValueOf(0, token.UnitPx)
	default:
		return ir.NullValue()
	}
}

func clamp(f, min, max float64) float64 {
	if f < min {
		return min
	}
	if f > max {
		return max
	}
	return f
}

// sanitizeNumeric clamps e's numeric value into r, preserving e's kind
// (Int/Float/Unit). Returns ok=false if e isn't a numeric literal.
func sanitizeNumeric(e ir.Expression, r valueRange) (ir.Expression, bool) {
	lit, ok := e.(ir.LiteralExpr)
	if !ok {
		return e, false
	}
	switch lit.Value.Kind {
	case ir.VInt:
		return ir.LiteralExpr{Value: ir.IntValue(int64(clamp(float64(lit.Value.Int), r.Min, r.Max)))}, true
	case ir.VFloat:
		return ir.LiteralExpr{Value: ir.FloatValue(clamp(lit.Value.Float, r.Min, r.Max))}, true
	case ir.VUnit:
		return ir.LiteralExpr{Value: ir.UnitValueOf(clamp(lit.Value.UnitValue, r.Min, r.Max), lit.Value.Unit)}, true
	default:
		return e, false
	}
}

// checkStyleCycles walks each style's Parent chain looking for a style
// cycle: reachable from a node back to itself via extends.
// internal/ir/builder already guarantees this can't happen for an IR it
// built itself; this is the defense-in-depth re-check for an IR this
// package didn't build (see package doc).
func (v *Validator) checkStyleCycles() {
	for _, s := range v.ir.Styles {
		path := map[uint32]bool{s.Name: true}
		cur := s
		for cur.HasParent {
			if path[cur.Parent] {
				v.diags.Add(diag.Diagnostic{
					Kind: diag.KindStyleCycle, Severity: diag.Error,
					Pos:     v.pos(),
					Message: "style " + v.ir.Strings.Get(s.Name) + " has a cyclic extends chain",
				})
				if v.recoverOrAbort() {
					cur.HasParent = false // drop the back edge: RecoverySkip/Default/Sanitize all degrade to this
				}
				break
			}
			path[cur.Parent] = true
			parent := v.ir.FindStyle(cur.Parent)
			if parent == nil {
				break
			}
			cur = parent
		}
	}
}

// checkDuplicateDefinitions re-derives the "same name at same scope
// level" check over the already-built definition tables. Functions are
// exempt: many synthetic inline-handler Functions legitimately share a
// human-facing name (or none at all), so name identity isn't a scope
// violation for them the way it is for styles/components/themes/state.
func (v *Validator) checkDuplicateDefinitions() {
	seenStyle := map[uint32]bool{}
	kept := make([]*ir.Style, 0, len(v.ir.Styles))
	for _, s := range v.ir.Styles {
		if v.reportIfDuplicate("style", seenStyle, s.Name) {
			continue
		}
		kept = append(kept, s)
	}
	v.ir.Styles = kept

	seenComp := map[uint32]bool{}
	keptComp := make([]*ir.ComponentDefinition, 0, len(v.ir.Components))
	for _, c := range v.ir.Components {
		if v.reportIfDuplicate("component", seenComp, c.Name) {
			continue
		}
		keptComp = append(keptComp, c)
		v.dropDuplicateStateVars(c, "state in component "+v.ir.Strings.Get(c.Name))
	}
	v.ir.Components = keptComp

	v.ir.States = v.filterDuplicateStateVars(v.ir.States, "top-level state")
	v.checkDuplicateThemeVars()
}

// reportIfDuplicate records name's first sighting in seen and reports+
// recovers on every later one. It reports whether name should be dropped
// from its owning collection.
func (v *Validator) reportIfDuplicate(scope string, seen map[uint32]bool, name uint32) bool {
	if !seen[name] {
		seen[name] = true
		return false
	}
	v.diags.Add(diag.Diagnostic{
		Kind: diag.KindDuplicateDefinition, Severity: diag.Error,
		Pos:     v.pos(),
		Message: "duplicate " + scope + " definition: " + v.ir.Strings.Get(name),
	})
	return v.recoverOrAbort()
}

func (v *Validator) filterDuplicateStateVars(cells []ir.StateCell, scope string) []ir.StateCell {
	seen := map[uint32]bool{}
	kept := make([]ir.StateCell, 0, len(cells))
	for _, s := range cells {
		if v.reportIfDuplicate(scope, seen, s.Name) {
			continue
		}
		kept = append(kept, s)
	}
	return kept
}

func (v *Validator) dropDuplicateStateVars(c *ir.ComponentDefinition, scope string) {
	c.StateVars = v.filterDuplicateStateVars(c.StateVars, scope)
}

// checkDuplicateThemeVars checks (group, name) pairs rather than bare
// names: two theme groups may legitimately reuse a variable name, since a
// theme variable is scoped to its group.
func (v *Validator) checkDuplicateThemeVars() {
	type key struct{ group, name uint32 }
	seen := map[key]bool{}
	kept := make([]ir.ThemeVariable, 0, len(v.ir.Themes))
	for _, t := range v.ir.Themes {
		k := key{t.Group, t.Name}
		if seen[k] {
			v.diags.Add(diag.Diagnostic{
				Kind: diag.KindDuplicateDefinition, Severity: diag.Error,
				Pos:     v.pos(),
				Message: "duplicate theme variable " + v.ir.Strings.Get(t.Name) + " in group " + v.ir.Strings.Get(t.Group),
			})
			if v.recoverOrAbort() {
				continue // drop the duplicate entry
			}
		}
		seen[k] = true
		kept = append(kept, t)
	}
	v.ir.Themes = kept
}

// checkInvalidHandlers re-derives the "invalid handler" check: an event
// binds to a function_id with no matching Function entry.
func (v *Validator) checkInvalidHandlers() {
	v.ir.Walk(func(e *ir.Element) {
		for slot, binding := range e.Events {
			if v.ir.FindFunction(binding.FunctionID) == nil {
				v.diags.Add(diag.Diagnostic{
					Kind: diag.KindUnresolvedSymbol, Severity: diag.Error,
					Pos:     v.pos(),
					Message: "event binds to unknown function_id",
				})
				if v.recoverOrAbort() {
					delete(e.Events, slot)
				}
			}
		}
	})
	for _, c := range v.ir.Components {
		if c.HasOnMount && v.ir.FindFunction(c.OnMountFunc) == nil {
			v.diags.Add(diag.Diagnostic{Kind: diag.KindUnresolvedSymbol, Severity: diag.Error, Pos: v.pos(),
				Message: "component " + v.ir.Strings.Get(c.Name) + " on_mount binds to unknown function_id"})
			if v.recoverOrAbort() {
				c.HasOnMount = false
			}
		}
		if c.HasOnUnmount && v.ir.FindFunction(c.OnUnmountFunc) == nil {
			v.diags.Add(diag.Diagnostic{Kind: diag.KindUnresolvedSymbol, Severity: diag.Error, Pos: v.pos(),
				Message: "component " + v.ir.Strings.Get(c.Name) + " on_unmount binds to unknown function_id"})
			if v.recoverOrAbort() {
				c.HasOnUnmount = false
			}
		}
	}
}

// checkCategoryViolations re-derives the category check: a property's
// category root must be in its element's inheritance closure. CustomProperties are
// exempt — they never carry a PropertyID, only an interned name.
func (v *Validator) checkCategoryViolations() {
	v.ir.Walk(func(e *ir.Element) {
		if e.Kind == category.ElemCustom {
			return
		}
		for p := range e.Properties {
			if category.Valid(e.Kind, p) {
				continue
			}
			v.diags.Add(diag.Diagnostic{
				Kind: diag.KindCategoryViolation, Severity: diag.Error,
				Pos:     v.pos(),
				Message: "property not valid for element kind " + e.Kind.String(),
			})
			if v.recoverOrAbort() {
				delete(e.Properties, p)
			}
		}
	})
}

// checkTypeMismatches re-derives the "type mismatch" check: an
// expression whose inferred kind disagrees with its property's expected
// kind. Length properties given a bare Int/Float are not an error — the
// default unit is implicitly px — and are rewritten in place
// rather than diagnosed, for every recovery mode except RecoveryNone.
func (v *Validator) checkTypeMismatches() {
	states := v.stateTypes()
	check := func(props map[category.PropertyID]ir.Expression) {
		for p, e := range props {
			rule, ok := ruleFor(p)
			if !ok {
				continue
			}
			kind, det := inferValueKind(e, states, v.ir.Strings)
			if !det {
				continue
			}
			if rule.Type == typeLength && (kind == ir.VInt || kind == ir.VFloat) {
				if v.opts.Recovery != RecoveryNone {
					if lit, ok := e.(ir.LiteralExpr); ok {
						n := lit.Value.Float
						if kind == ir.VInt {
							n = float64(lit.Value.Int)
						}
						props[p] = ir.LiteralExpr{Value: ir.UnitValueOf(n, token.UnitPx)}
					}
				}
				continue
			}
			if matches(rule.Type, kind) {
				if rule.Range.Has {
					v.checkRange(props, p, e, rule.Range)
				}
				continue
			}
			v.diags.Add(diag.Diagnostic{
				Kind: diag.KindTypeMismatch, Severity: diag.Error,
				Pos:     v.pos(),
				Message: "property value has an incompatible type",
			})
			if !v.recoverOrAbort() {
				continue
			}
			switch v.opts.Recovery {
			case RecoverySanitize:
				if rule.Range.Has {
					if sanitized, ok := sanitizeNumeric(e, rule.Range); ok {
						props[p] = sanitized
						continue
					}
				}
				props[p] = ir.LiteralExpr{Value: defaultValueFor(rule.Type)}
			default: // RecoverySkip, RecoveryDefault
				if v.opts.Recovery == RecoveryDefault {
					props[p] = ir.LiteralExpr{Value: defaultValueFor(rule.Type)}
				} else {
					delete(props, p)
				}
			}
		}
	}
	v.ir.Walk(func(e *ir.Element) { check(e.Properties) })
	for _, s := range v.ir.Styles {
		check(s.Properties)
	}
}

// numericOf extracts e's scalar magnitude regardless of whether it's an
// Int, Float, or Unit literal.
func numericOf(e ir.Expression) (float64, bool) {
	lit, ok := e.(ir.LiteralExpr)
	if !ok {
		return 0, false
	}
	switch lit.Value.Kind {
	case ir.VInt:
		return float64(lit.Value.Int), true
	case ir.VFloat:
		return lit.Value.Float, true
	case ir.VUnit:
		return lit.Value.UnitValue, true
	default:
		return 0, false
	}
}

// checkRange flags (and, under RecoverySanitize, clamps) a property whose
// kind already matches its rule but whose magnitude falls outside the
// rule's valid range — e.g. opacity: 4.5, a correctly-typed float that is
// still not a legal opacity. This is the "otherwise in-range" half of
// the sanitize strategy; the kind-mismatch half lives in the
// caller, checkTypeMismatches.
func (v *Validator) checkRange(props map[category.PropertyID]ir.Expression, p category.PropertyID, e ir.Expression, r valueRange) {
	n, ok := numericOf(e)
	if !ok || (n >= r.Min && n <= r.Max) {
		return
	}
	v.diags.Add(diag.Diagnostic{
		Kind: diag.KindTypeMismatch, Severity: diag.Error,
		Pos:     v.pos(),
		Message: "property value out of its valid range",
	})
	if !v.recoverOrAbort() {
		return
	}
	switch v.opts.Recovery {
	case RecoverySanitize, RecoveryDefault:
		if sanitized, ok := sanitizeNumeric(e, r); ok {
			props[p] = sanitized
		}
	default: // RecoverySkip
		delete(props, p)
	}
}

func matches(t expectedType, k ir.ValueKind) bool {
	switch t {
	case typeString:
		return k == ir.VString
	case typeColor:
		return k == ir.VColor
	case typeBool:
		return k == ir.VBool
	case typeInt:
		return k == ir.VInt
	case typeNumber:
		return k == ir.VInt || k == ir.VFloat
	case typeLength:
		return k == ir.VUnit
	default:
		return true
	}
}
