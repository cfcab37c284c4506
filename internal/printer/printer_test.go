package printer

import (
	"strings"
	"testing"

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

// roundTrip compiles src, prints the resulting IR, then reparses and
// rebuilds the printed text to check the semantic round-trip invariant:
// build(parse(print(IR))) must be semantically equivalent to IR, not
// textually identical to src.
func roundTrip(t *testing.T, src string) (*ir.IR, *ir.IR, string) {
	t.Helper()
	irv := compile(t, src)
	printed, diags := Print(irv)
	if diags.HasErrors() {
		t.Fatalf("print errors: %s", diags.Error())
	}
	reroot, diags := kry.Parse("printed.kry", printed)
	if diags.HasErrors() {
		t.Fatalf("reparse errors on printed source:\n%s\nerrors: %s", printed, diags.Error())
	}
	reres, diags := builder.Build(reroot, "printed.kry", builder.Options{})
	if diags.HasErrors() {
		t.Fatalf("rebuild errors on printed source:\n%s\nerrors: %s", printed, diags.Error())
	}
	diags = bytecode.Compile(reres.IR, reres.HandlerSources, reres.ParamNames)
	if diags.HasErrors() {
		t.Fatalf("rebytecode-compile errors on printed source:\n%s\nerrors: %s", printed, diags.Error())
	}
	return irv, reres.IR, printed
}

func TestPrintReparseRoundTripsElementTree(t *testing.T) {
	want, got, printed := roundTrip(t, `
Container {
	Button { text: "+" }
	Button { text: "-" }
}
`)
	if len(got.Root.Children) != len(want.Root.Children) {
		t.Fatalf("printed source:\n%s\nexpected %d top-level elements, got %d", printed, len(want.Root.Children), len(got.Root.Children))
	}
	for i, w := range want.Root.Children {
		g := got.Root.Children[i]
		if w.Kind != g.Kind {
			t.Fatalf("printed source:\n%s\nchild %d kind mismatch: want %v got %v", printed, i, w.Kind, g.Kind)
		}
		if len(g.Children) != len(w.Children) {
			t.Fatalf("printed source:\n%s\nchild %d child-count mismatch: want %d got %d", printed, i, len(w.Children), len(g.Children))
		}
	}
}

func TestPrintReparseRoundTripsStyles(t *testing.T) {
	want, got, printed := roundTrip(t, `
style base {
	backgroundColor: "#ff0000ff"
}
style derived extends base {
	opacity: 0.5
}
Container {
	style: "derived"
}
`)
	if len(got.Styles) != len(want.Styles) {
		t.Fatalf("printed source:\n%s\nexpected %d styles, got %d", printed, len(want.Styles), len(got.Styles))
	}
	for i, w := range want.Styles {
		g := got.Styles[i]
		if got.Strings.Get(g.Name) != want.Strings.Get(w.Name) {
			t.Fatalf("printed source:\n%s\nstyle %d name mismatch: want %q got %q", printed, i, want.Strings.Get(w.Name), got.Strings.Get(g.Name))
		}
		if g.HasParent != w.HasParent {
			t.Fatalf("printed source:\n%s\nstyle %d HasParent mismatch", printed, i)
		}
	}
}

func TestPrintReparseRoundTripsHandlerArithmetic(t *testing.T) {
	_, got, printed := roundTrip(t, `
@var {
	count = 0
}
Button {
	text: "+"
	onClick = {
		count = count + 1
	}
}
`)
	if len(got.States) != 1 {
		t.Fatalf("printed source:\n%s\nexpected 1 state cell, got %d", printed, len(got.States))
	}
	found := false
	for _, fn := range got.Functions {
		for _, in := range fn.Instructions {
			if in.Op.String() == "SetState" {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("printed source:\n%s\nexpected a SetState instruction to survive the round trip", printed)
	}
}

func TestPrintReparseRoundTripsTernary(t *testing.T) {
	_, got, printed := roundTrip(t, `
@var {
	flag = true
}
Button {
	onClick = {
		flag = flag ? false : true
	}
}
`)
	if len(got.Functions) == 0 {
		t.Fatalf("printed source:\n%s\nexpected at least one function", printed)
	}
	foundJump := false
	for _, fn := range got.Functions {
		for _, in := range fn.Instructions {
			if in.Op.String() == "JumpIfFalse" {
				foundJump = true
			}
		}
	}
	if !foundJump {
		t.Fatalf("printed source:\n%s\nexpected the re-parsed ternary to compile back to a JumpIfFalse", printed)
	}
}

func TestPrintReparseRoundTripsTemplateString(t *testing.T) {
	_, got, printed := roundTrip(t, `
@var {
	count = 0
}
Text {
	text: "count: ${count}"
}
`)
	if !strings.Contains(printed, "${") {
		t.Fatalf("printed source lost its template interpolation:\n%s", printed)
	}
	if len(got.Root.Children) != 1 {
		t.Fatalf("printed source:\n%s\nexpected 1 top-level element, got %d", printed, len(got.Root.Children))
	}
}

func TestPrintReparseRoundTripsComponent(t *testing.T) {
	want, got, printed := roundTrip(t, `
component Counter(start = 0) {
	state count: int = start
	on_mount {
		count = count + 1
	}
	Text { text: "hi" }
}
Counter { start: 5 }
`)
	if len(got.Components) != len(want.Components) {
		t.Fatalf("printed source:\n%s\nexpected %d components, got %d", printed, len(want.Components), len(got.Components))
	}
	if got.Components[0].Name == 0 && want.Components[0].Name != 0 {
		t.Fatalf("printed source:\n%s\ncomponent name lost", printed)
	}
}

func TestPrintIsDeterministic(t *testing.T) {
	irv := compile(t, `
Container {
	Text { text: "a" }
	Text { text: "b" }
}
`)
	a, diags := Print(irv)
	if diags.HasErrors() {
		t.Fatalf("print errors: %s", diags.Error())
	}
	b, diags := Print(irv)
	if diags.HasErrors() {
		t.Fatalf("print errors: %s", diags.Error())
	}
	if a != b {
		t.Fatalf("two prints of the same IR produced different source:\n--- a ---\n%s\n--- b ---\n%s", a, b)
	}
}
