package builder

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/ast"
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

func mustParse(t *testing.T, src string) *ast.Root {
	t.Helper()
	root, diags := kry.Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("parse errors: %s", diags.Error())
	}
	return root
}

func build(t *testing.T, src string) *Result {
	t.Helper()
	res, diags := Build(mustParse(t, src), "t.kry", Options{})
	if diags.HasErrors() {
		t.Fatalf("build errors: %s", diags.Error())
	}
	return res
}

func TestBuildEmptySourceHasZeroChildRoot(t *testing.T) {
	res, diags := Build(mustParse(t, ""), "t.kry", Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected build errors: %s", diags.Error())
	}
	if len(res.IR.Root.Children) != 0 {
		t.Fatalf("expected zero-child root for empty source, got %d", len(res.IR.Root.Children))
	}
}

func TestBuildMinimalButton(t *testing.T) {
	res := build(t, `
const label = "+"
Button { text: label ; onClick = { count = count + 1 } }
`)
	if len(res.IR.Root.Children) != 1 {
		t.Fatalf("expected 1 root child, got %d", len(res.IR.Root.Children))
	}
	btn := res.IR.Root.Children[0]
	if btn.Kind != category.ElemButton {
		t.Fatalf("expected ElemButton, got %v", btn.Kind)
	}
	if _, ok := btn.Properties[category.PropTextContent]; !ok {
		t.Fatalf("expected text property to be set")
	}
	if len(btn.Events) != 1 {
		t.Fatalf("expected one event binding, got %d", len(btn.Events))
	}
}

func TestBuildStyleInheritance(t *testing.T) {
	res := build(t, `
style base { color: "#ffffff" }
style derived extends base { fontSize: 12px }
Text { style: derived ; text: "hi" }
`)
	if len(res.IR.Styles) != 2 {
		t.Fatalf("expected 2 styles, got %d", len(res.IR.Styles))
	}
	var derived *ir.Style
	for _, s := range res.IR.Styles {
		if res.IR.Strings.Get(s.Name) == "derived" {
			derived = s
		}
	}
	if derived == nil {
		t.Fatalf("derived style not found")
	}
	if !derived.HasParent {
		t.Fatalf("expected derived to have a parent")
	}
}

func TestBuildStyleCycleBreaksAtSecondEdge(t *testing.T) {
	res, diags := Build(mustParse(t, `
style a extends b { color: "#ffffff" }
style b extends a { color: "#000000" }
Text { text: "hi" }
`), "t.kry", Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a StyleCycle error for a extends b, b extends a")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Kind == diag.KindStyleCycle {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a StyleCycle diagnostic, got: %s", diags.Error())
	}
	if len(res.IR.Styles) != 2 {
		t.Fatalf("expected the builder to still emit both styles, got %d", len(res.IR.Styles))
	}
	var a, b *ir.Style
	for _, s := range res.IR.Styles {
		switch res.IR.Strings.Get(s.Name) {
		case "a":
			a = s
		case "b":
			b = s
		}
	}
	if a == nil || b == nil {
		t.Fatalf("expected both styles a and b to be present")
	}
	if !a.HasParent || res.IR.Strings.Get(a.Parent) != "b" {
		t.Fatalf("expected a to keep its extends b edge, got HasParent=%v parent=%q", a.HasParent, res.IR.Strings.Get(a.Parent))
	}
	if b.HasParent {
		t.Fatalf("expected the second edge (b extends a) to be broken, but b.HasParent is still true")
	}
}

func TestBuildConstForExpansion(t *testing.T) {
	res := build(t, `
const colors = ["red", "green", "blue"]
@const_for c in colors { Text { text: c } }
`)
	if len(res.IR.Root.Children) != 3 {
		t.Fatalf("expected 3 expanded children, got %d", len(res.IR.Root.Children))
	}
	for i, child := range res.IR.Root.Children {
		if child.ExpansionKind != "const_for" {
			t.Fatalf("expected const_for expansion tag, got %q", child.ExpansionKind)
		}
		if child.Iteration != i {
			t.Fatalf("expected iteration %d, got %d", i, child.Iteration)
		}
	}
}

func TestBuildUnresolvedSymbolReported(t *testing.T) {
	_, diags := Build(mustParse(t, `
const cnt = 0
Text { text: cnt2 }
`), "t.kry", Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected an UnresolvedSymbol diagnostic for cnt2")
	}
}

func TestBuildCategoryViolation(t *testing.T) {
	_, diags := Build(mustParse(t, `
Text { checked: true }
`), "t.kry", Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a CategoryViolation diagnostic for checked on Text")
	}
}
