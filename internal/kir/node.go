package kir

import (
	"sort"

	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

var propertyIDToName = category.PropertyNames

var propertyNameToID = func() map[string]category.PropertyID {
	m := make(map[string]category.PropertyID, len(propertyIDToName))
	for id, name := range propertyIDToName {
		m[name] = id
	}
	return m
}()

var elementKindToName = category.ElementKindByName

var elementNameToKind = func() map[string]category.ElementKind {
	m := make(map[string]category.ElementKind, len(elementKindToName))
	for name, k := range elementKindToName {
		m[name] = k
	}
	return m
}()

func propertiesToJSON(irv *ir.IR, props map[category.PropertyID]ir.Expression) map[string]any {
	out := make(map[string]any, len(props))
	for id, expr := range props {
		name, ok := propertyIDToName[id]
		if !ok {
			continue
		}
		out[name] = exprToJSON(irv, expr)
	}
	return out
}

func customPropertiesToJSON(irv *ir.IR, props map[uint32]ir.Expression) map[string]any {
	out := make(map[string]any, len(props))
	for k, expr := range props {
		out[irv.Strings.Get(k)] = exprToJSON(irv, expr)
	}
	return out
}

// nodeToJSON converts one ir.Element (every node carries
// {type, node_id, location?, ...}) into a plain JSON-marshalable value.
// location is omitted: internal/ir carries no per-node source positions
// past the builder stage (see internal/ir/builder — positions live only
// in diagnostics), so there is nothing to serialize there.
func nodeToJSON(irv *ir.IR, e *ir.Element) map[string]any {
	typeName := elementKindToName[e.Kind]
	if e.Kind == category.ElemCustom {
		typeName = irv.Strings.Get(e.CustomTypeName)
	}
	out := map[string]any{
		"type":         typeName,
		"node_id":      e.NodeID,
		"component_id": e.ComponentID,
	}
	if e.HasID {
		out["id"] = irv.Strings.Get(e.IDIndex)
	}
	if e.HasStyleRef {
		out["style"] = irv.Strings.Get(e.StyleRef)
	}
	if len(e.Properties) > 0 {
		out["properties"] = propertiesToJSON(irv, e.Properties)
	}
	if len(e.CustomProperties) > 0 {
		out["custom_properties"] = customPropertiesToJSON(irv, e.CustomProperties)
	}
	if len(e.Events) > 0 {
		slots := make([]int, 0, len(e.Events))
		for slot := range e.Events {
			slots = append(slots, slot)
		}
		sort.Ints(slots)
		events := make([]any, 0, len(e.Events))
		for _, slot := range slots {
			b := e.Events[slot]
			ev := map[string]any{"kind": b.Kind.String(), "function_id": b.FunctionID}
			if b.Kind == ir.EventCustom {
				ev["name"] = irv.Strings.Get(b.CustomName)
			}
			events = append(events, ev)
		}
		out["events"] = events
	}
	if e.HasExpansion {
		out["expansion"] = map[string]any{
			"from":       irv.Strings.Get(e.ExpandedFrom),
			"parameters": customPropertiesToJSON(irv, e.InstanceParameters),
		}
	}
	if e.ExpansionKind != "" {
		out["expansion_kind"] = e.ExpansionKind
		out["iteration"] = e.Iteration
	}
	if e.PositionHint != "" {
		out["position_hint"] = e.PositionHint
	}
	children := make([]any, len(e.Children))
	for i, c := range e.Children {
		children[i] = nodeToJSON(irv, c)
	}
	out["children"] = children
	return out
}

func rootToJSON(irv *ir.IR) map[string]any {
	children := make([]any, len(irv.Root.Children))
	for i, c := range irv.Root.Children {
		children[i] = nodeToJSON(irv, c)
	}
	return map[string]any{"type": "ROOT", "children": children}
}

func propertiesFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) map[category.PropertyID]ir.Expression {
	out := map[category.PropertyID]ir.Expression{}
	r.ForEach(func(key, value gjson.Result) bool {
		id, ok := propertyNameToID[key.String()]
		if !ok {
			warn("unknown property name " + key.String())
			return true
		}
		out[id] = exprFromJSON(irv, value, warn)
		return true
	})
	return out
}

func customPropertiesFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) map[uint32]ir.Expression {
	out := map[uint32]ir.Expression{}
	r.ForEach(func(key, value gjson.Result) bool {
		out[irv.Strings.Intern(key.String())] = exprFromJSON(irv, value, warn)
		return true
	})
	return out
}

func nodeFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) *ir.Element {
	e := &ir.Element{
		NodeID:      uint32(r.Get("node_id").Int()),
		ComponentID: uint32(r.Get("component_id").Int()),
	}
	typeName := r.Get("type").String()
	if k, ok := elementNameToKind[typeName]; ok {
		e.Kind = k
	} else {
		e.Kind = category.ElemCustom
		e.CustomTypeName = irv.Strings.Intern(typeName)
	}
	if id := r.Get("id"); id.Exists() {
		e.HasID = true
		e.IDIndex = irv.Strings.Intern(id.String())
	}
	if style := r.Get("style"); style.Exists() {
		e.HasStyleRef = true
		e.StyleRef = irv.Strings.Intern(style.String())
	}
	if props := r.Get("properties"); props.Exists() {
		e.Properties = propertiesFromJSON(irv, props, warn)
	}
	if cp := r.Get("custom_properties"); cp.Exists() {
		e.CustomProperties = customPropertiesFromJSON(irv, cp, warn)
	}
	if events := r.Get("events"); events.Exists() {
		e.Events = map[int]ir.EventBinding{}
		for _, ev := range events.Array() {
			kind, ok := ir.EventKindByName[ev.Get("kind").String()]
			if !ok {
				kind = ir.EventCustom
			}
			var customName uint32
			if kind == ir.EventCustom {
				customName = irv.Strings.Intern(ev.Get("name").String())
			}
			b := ir.EventBinding{Kind: kind, CustomName: customName, FunctionID: uint32(ev.Get("function_id").Int())}
			e.Events[ir.EventSlot(kind, customName)] = b
		}
	}
	if exp := r.Get("expansion"); exp.Exists() {
		e.HasExpansion = true
		e.ExpandedFrom = irv.Strings.Intern(exp.Get("from").String())
		e.InstanceParameters = customPropertiesFromJSON(irv, exp.Get("parameters"), warn)
	}
	if ek := r.Get("expansion_kind"); ek.Exists() {
		e.ExpansionKind = ek.String()
		e.Iteration = int(r.Get("iteration").Int())
	}
	if ph := r.Get("position_hint"); ph.Exists() {
		e.PositionHint = ph.String()
	}
	for _, c := range r.Get("children").Array() {
		e.Children = append(e.Children, nodeFromJSON(irv, c, warn))
	}
	return e
}
