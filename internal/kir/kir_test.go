package kir

import (
	"reflect"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/builder"
)

func compile(t *testing.T, src string) *ir.IR {
	t.Helper()
	root, diags := kry.Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("parse errors: %s", diags.Error())
	}
	res, diags := builder.Build(root, "t.kry", builder.Options{})
	if diags.HasErrors() {
		t.Fatalf("build errors: %s", diags.Error())
	}
	diags = bytecode.Compile(res.IR, res.HandlerSources, res.ParamNames)
	if diags.HasErrors() {
		t.Fatalf("bytecode compile errors: %s", diags.Error())
	}
	return res.IR
}

func testMeta() Metadata {
	return Metadata{SourceFile: "t.kry", Compiler: "kryonc", CompilerVersion: "0.1.0", Timestamp: "2026-07-30T00:00:00Z"}
}

func TestWriteReadRoundTripsElementTree(t *testing.T) {
	irv := compile(t, `
Container {
	Button { text: "+" }
	Button { text: "-" }
}
`)
	data, diags := Write(irv, testMeta())
	if diags.HasErrors() {
		t.Fatalf("write errors: %s", diags.Error())
	}
	got, diags := Read(data)
	if diags.HasErrors() {
		t.Fatalf("read errors: %s", diags.Error())
	}
	if len(got.Root.Children) != len(irv.Root.Children) {
		t.Fatalf("expected %d top-level elements, got %d", len(irv.Root.Children), len(got.Root.Children))
	}
	for i, want := range irv.Root.Children {
		gotChild := got.Root.Children[i]
		if want.Kind != gotChild.Kind {
			t.Fatalf("child %d kind mismatch: want %v got %v", i, want.Kind, gotChild.Kind)
		}
		if len(gotChild.Properties) != len(want.Properties) {
			t.Fatalf("child %d property count mismatch: want %d got %d", i, len(want.Properties), len(gotChild.Properties))
		}
	}
}

func TestWriteReadRoundTripsBytecodeFunctions(t *testing.T) {
	irv := compile(t, `
@var { count = 0 }
Button { text: "+" ; onClick = { count = count + 1 } }
`)
	data, diags := Write(irv, testMeta())
	if diags.HasErrors() {
		t.Fatalf("write errors: %s", diags.Error())
	}
	got, diags := Read(data)
	if diags.HasErrors() {
		t.Fatalf("read errors: %s", diags.Error())
	}
	if len(got.States) != len(irv.States) {
		t.Fatalf("expected %d state cells, got %d", len(irv.States), len(got.States))
	}
	if len(got.Functions) != len(irv.Functions) {
		t.Fatalf("expected %d functions, got %d", len(irv.Functions), len(got.Functions))
	}
	for i, want := range irv.Functions {
		gotFn := got.Functions[i]
		if !reflect.DeepEqual(gotFn.Instructions, want.Instructions) {
			t.Fatalf("function %d instructions mismatch:\nwant %+v\ngot  %+v", i, want.Instructions, gotFn.Instructions)
		}
	}
}

func TestWriteReadRoundTripsStyles(t *testing.T) {
	irv := compile(t, `
style base {
	backgroundColor: "#ff0000"
}
Container {
	style: "base"
}
`)
	data, diags := Write(irv, testMeta())
	if diags.HasErrors() {
		t.Fatalf("write errors: %s", diags.Error())
	}
	got, diags := Read(data)
	if diags.HasErrors() {
		t.Fatalf("read errors: %s", diags.Error())
	}
	if len(got.Styles) != len(irv.Styles) {
		t.Fatalf("expected %d styles, got %d", len(irv.Styles), len(got.Styles))
	}
	for i, want := range irv.Styles {
		if irv.Strings.Get(want.Name) != got.Strings.Get(got.Styles[i].Name) {
			t.Fatalf("style %d name mismatch: want %q got %q", i, irv.Strings.Get(want.Name), got.Strings.Get(got.Styles[i].Name))
		}
	}
}

func TestWriteIsDeterministic(t *testing.T) {
	irv := compile(t, `
Container {
	Text { text: "a" }
	Text { text: "b" }
}
`)
	a, diags := Write(irv, testMeta())
	if diags.HasErrors() {
		t.Fatalf("write errors: %s", diags.Error())
	}
	b, diags := Write(irv, testMeta())
	if diags.HasErrors() {
		t.Fatalf("write errors: %s", diags.Error())
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("two writes of the same IR produced different bytes")
	}
}

func TestReadRejectsWrongFormat(t *testing.T) {
	_, diags := Read([]byte(`{"format":"not-kir","version":"1.0","root":{"children":[]}}`))
	if !diags.HasErrors() {
		t.Fatalf("expected an Error diagnostic for an unrecognized format")
	}
}

func TestReadWarnsOnUnknownPropertyName(t *testing.T) {
	_, diags := Read([]byte(`{"format":"kir-json","version":"1.0","root":{"children":[
		{"type":"Container","node_id":0,"component_id":0,"properties":{"made_up_property":{"type":"literal","value":{"type":"int","value":1}}}}
	]}}`))
	foundWarning := false
	for _, d := range diags.Items() {
		if d.Severity.String() == "warning" {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected a warning diagnostic for an unrecognized property name, got: %s", diags.Error())
	}
}

func TestReadWarnsOnUnknownTopLevelKey(t *testing.T) {
	_, diags := Read([]byte(`{"format":"kir-json","version":"1.0","root":{"children":[]},"made_up_section":[]}`))
	foundWarning := false
	for _, d := range diags.Items() {
		if d.Severity.String() == "warning" {
			foundWarning = true
		}
	}
	if !foundWarning {
		t.Fatalf("expected a warning diagnostic for an unrecognized top-level key, got: %s", diags.Error())
	}
}

// TestWriteSnapshotsJSONShape pins the exact JSON shape Write produces for a
// handful of representative sources, using the fixed-timestamp testMeta so
// the snapshot stays stable across runs. A diff here means a field was
// renamed, reordered into a different nesting, or dropped — the kind of
// change a reader on the other end of this format would feel immediately.
func TestWriteSnapshotsJSONShape(t *testing.T) {
	fixtures := []struct {
		name string
		src  string
	}{
		{"empty_container", `Container { }`},
		{"state_and_handler", `
@var { count = 0 }
Button { text: "+" ; onClick = { count = count + 1 } }
`},
		{"style_with_child_text", `
style base {
	backgroundColor: "#ff0000"
}
Container {
	style: "base"
	Text { text: "hi" }
}
`},
	}

	for _, f := range fixtures {
		t.Run(f.name, func(t *testing.T) {
			irv := compile(t, f.src)
			data, diags := Write(irv, testMeta())
			if diags.HasErrors() {
				t.Fatalf("write errors: %s", diags.Error())
			}
			snaps.MatchJSON(t, data)
		})
	}
}
