package kir

import (
	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
)

// Read parses a `.kir` document back into an *ir.IR. It inspects the
// envelope with gjson rather than a strict encoding/json.Unmarshal into a
// struct, so an unrecognized top-level key or node `type` becomes a
// Warning diagnostic instead of a hard failure; only a missing required
// key (`format`/`root`) or a major version mismatch is an Error.
func Read(data []byte) (*ir.IR, *diag.List) {
	diags := &diag.List{}
	if !gjson.ValidBytes(data) {
		diags.Addf(diag.KindSyntax, diag.Position{}, "not valid JSON")
		return nil, diags
	}
	doc := gjson.ParseBytes(data)

	format := doc.Get("format")
	if !format.Exists() || format.String() != Format {
		diags.Addf(diag.KindVersionIncompatible, diag.Position{}, "missing or unrecognized format %q, want %q", format.String(), Format)
		return nil, diags
	}
	if v := doc.Get("version"); v.Exists() && len(v.String()) > 0 && v.String()[0] != Version[0] {
		diags.Addf(diag.KindVersionIncompatible, diag.Position{}, "file version %q differs from reader major version %q", v.String(), Version)
		return nil, diags
	}

	root := doc.Get("root")
	if !root.Exists() {
		diags.Addf(diag.KindSyntax, diag.Position{}, "missing required 'root' key")
		return nil, diags
	}

	irv := ir.New("")
	irv.SourceFile = doc.Get("metadata.source_file").String()

	warn := func(msg string) {
		diags.Warnf(diag.KindSyntax, diag.Position{}, "%s", msg)
	}

	irv.Root = &ir.Element{NodeID: 0}
	for _, c := range root.Get("children").Array() {
		irv.Root.Children = append(irv.Root.Children, nodeFromJSON(irv, c, warn))
	}

	for _, s := range doc.Get("styles").Array() {
		irv.Styles = append(irv.Styles, styleFromJSON(irv, s, warn))
	}
	for _, t := range doc.Get("themes").Array() {
		irv.Themes = append(irv.Themes, themeFromJSON(irv, t, warn))
	}
	for _, r := range doc.Get("resources").Array() {
		irv.Resources = append(irv.Resources, resourceFromJSON(irv, r))
	}
	for _, c := range doc.Get("components").Array() {
		irv.Components = append(irv.Components, componentFromJSON(irv, c, warn))
	}
	for _, f := range doc.Get("functions").Array() {
		irv.Functions = append(irv.Functions, functionFromJSON(irv, f, warn))
	}
	for _, s := range doc.Get("states").Array() {
		irv.States = append(irv.States, stateFromJSON(irv, s))
	}
	for _, h := range doc.Get("host_functions").Array() {
		irv.HostFunctions = append(irv.HostFunctions, hostFunctionFromJSON(irv, h))
	}

	const knownTop = "version,format,metadata,root,styles,themes,resources,components,functions,states,host_functions"
	doc.ForEach(func(key, _ gjson.Result) bool {
		if !contains(knownTop, key.String()) {
			warn("unknown top-level key " + key.String())
		}
		return true
	})

	return irv, diags
}

func contains(csv, key string) bool {
	start := 0
	for i := 0; i <= len(csv); i++ {
		if i == len(csv) || csv[i] == ',' {
			if csv[start:i] == key {
				return true
			}
			start = i + 1
		}
	}
	return false
}
