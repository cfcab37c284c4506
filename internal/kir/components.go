package kir

import (
	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/ir"
)

// Component definitions are a supplemented top-level array for the same
// reason styles/themes/resources are (see styles.go): no COMPONENT_INSTANCE
// node ever appears in IR.Root, since component uses are expanded inline
// and only the definitions themselves are preserved verbatim — which has
// nothing to preserve across a `.kir` round trip without an array for them.
func componentToJSON(irv *ir.IR, c *ir.ComponentDefinition) map[string]any {
	params := make([]any, len(c.Parameters))
	for i, p := range c.Parameters {
		pj := map[string]any{"name": irv.Strings.Get(p.Name)}
		if p.HasDefault {
			pj["default"] = exprToJSON(irv, p.Default)
		}
		params[i] = pj
	}
	stateVars := make([]any, len(c.StateVars))
	for i, sv := range c.StateVars {
		stateVars[i] = stateToJSON(irv, sv)
	}
	fns := make([]any, len(c.Functions))
	for i, f := range c.Functions {
		fns[i] = f
	}
	body := make([]any, len(c.Body))
	for i, e := range c.Body {
		body[i] = nodeToJSON(irv, e)
	}
	out := map[string]any{
		"name":       irv.Strings.Get(c.Name),
		"parameters": params,
		"state_vars": stateVars,
		"functions":  fns,
		"body":       body,
	}
	if c.HasParent {
		out["parent"] = irv.Strings.Get(c.Parent)
	}
	if c.HasOnMount {
		out["on_mount"] = c.OnMountFunc
	}
	if c.HasOnUnmount {
		out["on_unmount"] = c.OnUnmountFunc
	}
	return out
}

func componentFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) *ir.ComponentDefinition {
	c := &ir.ComponentDefinition{Name: irv.Strings.Intern(r.Get("name").String())}
	for _, p := range r.Get("parameters").Array() {
		cp := ir.ComponentParam{Name: irv.Strings.Intern(p.Get("name").String())}
		if d := p.Get("default"); d.Exists() {
			cp.HasDefault = true
			cp.Default = exprFromJSON(irv, d, warn)
		}
		c.Parameters = append(c.Parameters, cp)
	}
	if parent := r.Get("parent"); parent.Exists() {
		c.HasParent = true
		c.Parent = irv.Strings.Intern(parent.String())
	}
	for _, sv := range r.Get("state_vars").Array() {
		c.StateVars = append(c.StateVars, stateFromJSON(irv, sv))
	}
	for _, f := range r.Get("functions").Array() {
		c.Functions = append(c.Functions, uint32(f.Int()))
	}
	if om := r.Get("on_mount"); om.Exists() {
		c.HasOnMount = true
		c.OnMountFunc = uint32(om.Int())
	}
	if ou := r.Get("on_unmount"); ou.Exists() {
		c.HasOnUnmount = true
		c.OnUnmountFunc = uint32(ou.Int())
	}
	for _, e := range r.Get("body").Array() {
		c.Body = append(c.Body, nodeFromJSON(irv, e, warn))
	}
	return c
}
