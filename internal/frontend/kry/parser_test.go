package kry

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/ast"
)

func TestParseMinimalButton(t *testing.T) {
	src := `
const count = 0
Button { text: "+" ; onClick = { count = count + 1 } }
`
	root, diags := Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	if len(root.Body) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(root.Body))
	}
	btn, ok := root.Body[1].(*ast.Element)
	if !ok {
		t.Fatalf("expected Element, got %T", root.Body[1])
	}
	if btn.TypeName != "Button" {
		t.Fatalf("expected Button, got %s", btn.TypeName)
	}
	if len(btn.Events) != 1 || btn.Events[0].Kind != "click" {
		t.Fatalf("expected one click event, got %+v", btn.Events)
	}
}

func TestParseConstFor(t *testing.T) {
	src := `
const colors = ["red","green","blue"]
@const_for c in colors { Button { text: c ; backgroundColor: c } }
`
	root, diags := Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	forDir, ok := root.Body[1].(*ast.ForDirective)
	if !ok {
		t.Fatalf("expected ForDirective, got %T", root.Body[1])
	}
	if !forDir.IsConst || forDir.Var != "c" {
		t.Fatalf("unexpected for directive: %+v", forDir)
	}
}

func TestParseStyleExtends(t *testing.T) {
	src := `
style base { color: "#ffffff" }
style derived extends base { fontSize: 12px }
`
	root, diags := Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	derived, ok := root.Body[1].(*ast.StyleDef)
	if !ok {
		t.Fatalf("expected StyleDef, got %T", root.Body[1])
	}
	if derived.Parent != "base" {
		t.Fatalf("expected parent base, got %s", derived.Parent)
	}
}

func TestParseTemplateString(t *testing.T) {
	src := `Text { text: "hello ${name}!" }`
	root, diags := Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	el := root.Body[0].(*ast.Element)
	tmpl, ok := el.Properties[0].Value.(*ast.Template)
	if !ok {
		t.Fatalf("expected Template, got %T", el.Properties[0].Value)
	}
	if len(tmpl.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(tmpl.Segments))
	}
}
