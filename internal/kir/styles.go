package kir

import (
	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/ir"
)

// Styles, themes, and resources are supplemented top-level arrays beyond
// the four named envelope keys (version/format/metadata/root, plus
// functions/states/host_functions for bytecode). Without them a `.kir`
// file could not round-trip a style sheet or theme at all — see
// DESIGN.md "internal/kir" Open Question decision.
func styleToJSON(irv *ir.IR, s *ir.Style) map[string]any {
	out := map[string]any{
		"name":       irv.Strings.Get(s.Name),
		"properties": propertiesToJSON(irv, s.Properties),
	}
	if s.HasParent {
		out["parent"] = irv.Strings.Get(s.Parent)
	}
	return out
}

func styleFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) *ir.Style {
	s := &ir.Style{Name: irv.Strings.Intern(r.Get("name").String())}
	if p := r.Get("parent"); p.Exists() {
		s.HasParent = true
		s.Parent = irv.Strings.Intern(p.String())
	}
	s.Properties = propertiesFromJSON(irv, r.Get("properties"), warn)
	return s
}

func themeToJSON(irv *ir.IR, t ir.ThemeVariable) map[string]any {
	return map[string]any{
		"group":   irv.Strings.Get(t.Group),
		"name":    irv.Strings.Get(t.Name),
		"kind":    t.Type.String(),
		"initial": exprToJSON(irv, t.Initial),
	}
}

func themeFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) ir.ThemeVariable {
	return ir.ThemeVariable{
		Group:   irv.Strings.Intern(r.Get("group").String()),
		Name:    irv.Strings.Intern(r.Get("name").String()),
		Type:    stateKindByName[r.Get("kind").String()],
		Initial: exprFromJSON(irv, r.Get("initial"), warn),
	}
}

var resourceTypeNames = map[ir.ResourceType]string{
	ir.ResourceImage: "image", ir.ResourceFont: "font", ir.ResourceSound: "sound",
	ir.ResourceVideo: "video", ir.ResourceCustom: "custom",
}
var resourceTypeByName = func() map[string]ir.ResourceType {
	m := make(map[string]ir.ResourceType, len(resourceTypeNames))
	for k, v := range resourceTypeNames {
		m[v] = k
	}
	return m
}()

func resourceToJSON(irv *ir.IR, r ir.Resource) map[string]any {
	format := "external"
	if r.Format == ir.ResourceInline {
		format = "inline"
	}
	return map[string]any{
		"kind":   resourceTypeNames[r.Type],
		"format": format,
		"path":   irv.Strings.Get(r.Path),
	}
}

func resourceFromJSON(irv *ir.IR, r gjson.Result) ir.Resource {
	format := ir.ResourceExternal
	if r.Get("format").String() == "inline" {
		format = ir.ResourceInline
	}
	return ir.Resource{
		Type:   resourceTypeByName[r.Get("kind").String()],
		Format: format,
		Path:   irv.Strings.Intern(r.Get("path").String()),
	}
}
