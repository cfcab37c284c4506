package kir

import (
	"encoding/json"

	"github.com/tidwall/sjson"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
)

// Write serializes irv into the canonical `.kir` JSON form.
// The envelope is assembled incrementally with sjson.SetRawBytes — each
// top-level key is set once its subtree has been built, rather than
// constructing one nested map and handing it to encoding/json.Marshal in
// a single shot, matching the DOMAIN STACK rationale for choosing sjson
// over a plain struct marshal.
func Write(irv *ir.IR, meta Metadata) ([]byte, *diag.List) {
	diags := &diag.List{}
	doc := "{}"
	var err error

	doc, err = sjson.Set(doc, "version", Version)
	if err != nil {
		diags.Addf(diag.KindBinaryError, diag.Position{}, "set version: %v", err)
		return nil, diags
	}
	doc, err = sjson.Set(doc, "format", Format)
	if err != nil {
		diags.Addf(diag.KindBinaryError, diag.Position{}, "set format: %v", err)
		return nil, diags
	}

	doc = setRaw(diags, doc, "metadata", meta)
	doc = setRaw(diags, doc, "root", rootToJSON(irv))

	if len(irv.Styles) > 0 {
		styles := make([]any, len(irv.Styles))
		for i, s := range irv.Styles {
			styles[i] = styleToJSON(irv, s)
		}
		doc = setRaw(diags, doc, "styles", styles)
	}
	if len(irv.Themes) > 0 {
		themes := make([]any, len(irv.Themes))
		for i, t := range irv.Themes {
			themes[i] = themeToJSON(irv, t)
		}
		doc = setRaw(diags, doc, "themes", themes)
	}
	if len(irv.Resources) > 0 {
		resources := make([]any, len(irv.Resources))
		for i, r := range irv.Resources {
			resources[i] = resourceToJSON(irv, r)
		}
		doc = setRaw(diags, doc, "resources", resources)
	}
	if len(irv.Components) > 0 {
		comps := make([]any, len(irv.Components))
		for i, c := range irv.Components {
			comps[i] = componentToJSON(irv, c)
		}
		doc = setRaw(diags, doc, "components", comps)
	}

	if len(irv.Functions) > 0 {
		fns := make([]any, len(irv.Functions))
		for i, fn := range irv.Functions {
			fns[i] = functionToJSON(irv, fn)
		}
		doc = setRaw(diags, doc, "functions", fns)
	}
	if len(irv.States) > 0 {
		states := make([]any, len(irv.States))
		for i, s := range irv.States {
			states[i] = stateToJSON(irv, s)
		}
		doc = setRaw(diags, doc, "states", states)
	}
	if len(irv.HostFunctions) > 0 {
		hosts := make([]any, len(irv.HostFunctions))
		for i, h := range irv.HostFunctions {
			hosts[i] = hostFunctionToJSON(irv, h)
		}
		doc = setRaw(diags, doc, "host_functions", hosts)
	}

	return []byte(doc), diags
}

// setRaw marshals value with encoding/json and splices it into doc at
// path via sjson.SetRawBytes, recording a BinaryError diagnostic instead
// of panicking on a marshal failure (none of this package's inputs can
// fail to marshal — Go maps/slices/scalars always do — but the error path
// is kept rather than ignored, consistent with every other fallible call
// in this writer).
func setRaw(diags *diag.List, doc, path string, value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		diags.Addf(diag.KindBinaryError, diag.Position{}, "marshal %s: %v", path, err)
		return doc
	}
	out, err := sjson.SetRawBytes([]byte(doc), path, raw)
	if err != nil {
		diags.Addf(diag.KindBinaryError, diag.Position{}, "set %s: %v", path, err)
		return doc
	}
	return string(out)
}
