// Package printer implements the source printer: given an
// *ir.IR, it produces kry source text that, re-parsed and re-built, yields
// a semantically equivalent IR. It is the mirror
// image of internal/frontend/kry + internal/ir/builder + internal/bytecode,
// and leans on internal/bytecode/compiler.go's own statement/expression
// codegen shapes (see decompile.go) to invert embedded-language handler
// bodies back into source the same grammar internal/frontend/kry accepts.
package printer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// srcBuilder accumulates printed source with simple indent tracking, the way
// internal/bytecode/compiler.go accumulates instructions into a single
// growing slice rather than a tree of sub-builders.
type srcBuilder struct {
	sb     strings.Builder
	indent int
}

func (b *srcBuilder) line(format string, args ...any) {
	b.sb.WriteString(strings.Repeat("\t", b.indent))
	fmt.Fprintf(&b.sb, format, args...)
	b.sb.WriteByte('\n')
}

func (b *srcBuilder) open(format string, args ...any) {
	b.line(format+" {", args...)
	b.indent++
}

func (b *srcBuilder) close() {
	b.indent--
	b.line("}")
}

// funcOwner classifies every Function in irv.Functions as owned by a
// component (by its index into irv.Components) or top-level (-1), per
// ComponentDefinition.Functions/OnMountFunc/OnUnmountFunc.
func funcOwner(irv *ir.IR) map[uint32]int {
	owner := make(map[uint32]int)
	for ci, c := range irv.Components {
		for _, fid := range c.Functions {
			owner[fid] = ci
		}
		if c.HasOnMount {
			owner[c.OnMountFunc] = ci
		}
		if c.HasOnUnmount {
			owner[c.OnUnmountFunc] = ci
		}
	}
	return owner
}

// Print renders irv as kry source text. Non-source-bearing tables
// (host_functions, the supplemented resource table) have no surface syntax
// of their own — host functions are supplied by the runtime side of the
// host bridge, and resources are always referenced through a
// plain string path rather than declared — so neither is printed here.
func Print(irv *ir.IR) (string, *diag.List) {
	diags := &diag.List{}
	b := &srcBuilder{}
	owner := funcOwner(irv)

	printStyles(b, irv)
	printThemes(b, irv)
	printTopLevelVars(b, irv)

	for ci, c := range irv.Components {
		printComponent(b, irv, ci, c, owner, diags)
	}

	for _, fid := range topLevelFunctionIDs(irv, owner) {
		fn := irv.FindFunction(fid)
		printFunctionDef(b, irv, fn, owner)
	}

	for _, el := range irv.Root.Children {
		printElement(b, irv, el, diags)
	}

	return b.sb.String(), diags
}

func topLevelFunctionIDs(irv *ir.IR, owner map[uint32]int) []uint32 {
	var ids []uint32
	for _, fn := range irv.Functions {
		if _, owned := owner[fn.FunctionID]; !owned {
			ids = append(ids, fn.FunctionID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func printStyles(b *srcBuilder, irv *ir.IR) {
	for _, s := range irv.Styles {
		if s.HasParent {
			b.open("style %s extends %s", irv.Strings.Get(s.Name), irv.Strings.Get(s.Parent))
		} else {
			b.open("style %s", irv.Strings.Get(s.Name))
		}
		for _, pid := range sortedPropertyIDs(s.Properties) {
			b.line("%s: %s", propertyName(pid), exprToSource(irv, s.Properties[pid]))
		}
		b.close()
	}
}

func printThemes(b *srcBuilder, irv *ir.IR) {
	groups := make(map[uint32][]ir.ThemeVariable)
	var order []uint32
	for _, t := range irv.Themes {
		if _, ok := groups[t.Group]; !ok {
			order = append(order, t.Group)
		}
		groups[t.Group] = append(groups[t.Group], t)
	}
	for _, g := range order {
		b.open("@theme %s", irv.Strings.Get(g))
		for _, v := range groups[g] {
			b.line("%s: %s = %s", irv.Strings.Get(v.Name), v.Type.String(), exprToSource(irv, v.Initial))
		}
		b.close()
	}
}

func printTopLevelVars(b *srcBuilder, irv *ir.IR) {
	if len(irv.States) == 0 {
		return
	}
	b.open("@var")
	for _, s := range irv.States {
		b.line("%s = %s", irv.Strings.Get(s.Name), valueToSource(irv, s.Initial))
	}
	b.close()
}

func printComponent(b *srcBuilder, irv *ir.IR, ci int, c *ir.ComponentDefinition, owner map[uint32]int, diags *diag.List) {
	params := make([]string, len(c.Parameters))
	for i, p := range c.Parameters {
		if p.HasDefault {
			params[i] = fmt.Sprintf("%s = %s", irv.Strings.Get(p.Name), exprToSource(irv, p.Default))
		} else {
			params[i] = irv.Strings.Get(p.Name)
		}
	}
	head := fmt.Sprintf("component %s(%s)", irv.Strings.Get(c.Name), strings.Join(params, ", "))
	if c.HasParent {
		head += " extends " + irv.Strings.Get(c.Parent)
	}
	b.open("%s", head)

	for _, sv := range c.StateVars {
		b.line("state %s: %s = %s", irv.Strings.Get(sv.Name), sv.Type.String(), valueToSource(irv, sv.Initial))
	}
	if c.HasOnMount {
		printLifecycleHook(b, irv, "on_mount", c.OnMountFunc)
	}
	if c.HasOnUnmount {
		printLifecycleHook(b, irv, "on_unmount", c.OnUnmountFunc)
	}
	for _, fid := range c.Functions {
		printFunctionDef(b, irv, irv.FindFunction(fid), owner)
	}
	for _, el := range c.Body {
		printElement(b, irv, el, diags)
	}

	b.close()
}

func printLifecycleHook(b *srcBuilder, irv *ir.IR, keyword string, fnID uint32) {
	fn := irv.FindFunction(fnID)
	b.open("%s", keyword)
	for _, stmt := range decompileBody(irv, fn) {
		b.line("%s", stmt)
	}
	b.close()
}

// printFunctionDef prints a named `function` declaration: verbatim
// passthrough of fn.CodeIndex when LanguageTag names a non-bytecode
// language, otherwise a decompiled statement list.
func printFunctionDef(b *srcBuilder, irv *ir.IR, fn *ir.Function, owner map[uint32]int) {
	if fn == nil {
		return
	}
	params := syntheticParamNames(fn)
	lang := irv.Strings.Get(fn.LanguageTag)
	head := "function "
	if lang != "" {
		head += lang + " "
	}
	head += fmt.Sprintf("%s(%s)", irv.Strings.Get(fn.Name), strings.Join(params, ", "))
	b.open("%s", head)
	if lang != "" {
		b.line("%s", irv.Strings.Get(fn.CodeIndex))
	} else {
		for _, stmt := range decompileFunction(irv, fn, params) {
			b.line("%s", stmt)
		}
	}
	b.close()
}

// decompileBody decompiles fn's instructions without needing a caller-
// synthesized parameter list — lifecycle hooks take no parameters.
func decompileBody(irv *ir.IR, fn *ir.Function) []string {
	if fn == nil {
		return nil
	}
	return decompileFunction(irv, fn, nil)
}

func syntheticParamNames(fn *ir.Function) []string {
	if len(fn.ParamIndices) == 0 {
		return nil
	}
	maxSlot := uint16(0)
	for _, s := range fn.ParamIndices {
		if s > maxSlot {
			maxSlot = s
		}
	}
	names := make([]string, maxSlot+1)
	for i, slot := range fn.ParamIndices {
		names[slot] = fmt.Sprintf("p%d", i)
	}
	return names
}

func printElement(b *srcBuilder, irv *ir.IR, el *ir.Element, diags *diag.List) {
	b.open("%s", elementKindName(el.Kind, irv.Strings.Get(el.CustomTypeName)))

	if el.HasID {
		b.line("id: %s", quoteString(irv.Strings.Get(el.IDIndex)))
	}
	if el.HasStyleRef {
		b.line("style: %s", quoteString(irv.Strings.Get(el.StyleRef)))
	}
	for _, pid := range sortedPropertyIDs(el.Properties) {
		b.line("%s: %s", propertyName(pid), exprToSource(irv, el.Properties[pid]))
	}
	for _, name := range sortedCustomPropertyNames(irv, el.CustomProperties) {
		b.line("%s: %s", irv.Strings.Get(name), exprToSource(irv, el.CustomProperties[name]))
	}
	for _, slot := range sortedEventSlots(el.Events) {
		printEventBinding(b, irv, el.Events[slot], diags)
	}
	for _, child := range el.Children {
		printElement(b, irv, child, diags)
	}

	b.close()
}

func printEventBinding(b *srcBuilder, irv *ir.IR, eb ir.EventBinding, diags *diag.List) {
	kind := eb.Kind.String()
	if eb.Kind == ir.EventCustom {
		kind = irv.Strings.Get(eb.CustomName)
	}
	propName := "on" + strings.ToUpper(kind[:1]) + kind[1:]
	fn := irv.FindFunction(eb.FunctionID)
	if fn == nil {
		diags.Warnf(diag.KindSyntax, diag.Position{}, "event binding %q references unknown function_id %d; omitted from printed source", propName, eb.FunctionID)
		return
	}
	b.line("%s = %s", propName, irv.Strings.Get(fn.Name))
}

func sortedPropertyIDs(m map[category.PropertyID]ir.Expression) []category.PropertyID {
	ids := make([]category.PropertyID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedCustomPropertyNames(irv *ir.IR, m map[uint32]ir.Expression) []uint32 {
	names := make([]uint32, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		return irv.Strings.Get(names[i]) < irv.Strings.Get(names[j])
	})
	return names
}

func sortedEventSlots(m map[int]ir.EventBinding) []int {
	slots := make([]int, 0, len(m))
	for s := range m {
		slots = append(slots, s)
	}
	sort.Ints(slots)
	return slots
}
