package sexpr

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/ast"
)

func TestParseMinimalButton(t *testing.T) {
	src := `
(const MAX 10)

(Button (id "btn") (text "+") (onClick count = count + 1))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	if len(root.Body) != 2 {
		t.Fatalf("expected 2 top-level nodes, got %d", len(root.Body))
	}
	if _, ok := root.Body[0].(*ast.ConstDirective); !ok {
		t.Fatalf("expected ConstDirective, got %T", root.Body[0])
	}
	btn, ok := root.Body[1].(*ast.Element)
	if !ok {
		t.Fatalf("expected Element, got %T", root.Body[1])
	}
	if btn.TypeName != "Button" || btn.ID != "btn" {
		t.Fatalf("unexpected button: %+v", btn)
	}
	if len(btn.Events) != 1 || btn.Events[0].Kind != "click" {
		t.Fatalf("expected one click event, got %+v", btn.Events)
	}
	if _, ok := btn.Events[0].Handler.(ast.InlineHandler); !ok {
		t.Fatalf("expected an inline handler, got %T", btn.Events[0].Handler)
	}
}

func TestParseNamedHandler(t *testing.T) {
	src := `
(function bump count = count + 1)

(Button (id "btn") (onClick bump))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	btn := root.Body[1].(*ast.Element)
	named, ok := btn.Events[0].Handler.(ast.NamedHandler)
	if !ok || named.FunctionName != "bump" {
		t.Fatalf("expected NamedHandler bump, got %+v", btn.Events[0].Handler)
	}
}

func TestParseNestedChildren(t *testing.T) {
	src := `
(Row (Button (id "a") (text "a")) (Button (id "b") (text "b")))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	row, ok := root.Body[0].(*ast.Element)
	if !ok {
		t.Fatalf("expected Element, got %T", root.Body[0])
	}
	if len(row.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(row.Children))
	}
}

func TestParseTemplateText(t *testing.T) {
	src := `
(Text (id "label") (text "count: ${count}"))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	label := root.Body[0].(*ast.Element)
	if len(label.Properties) != 1 || label.Properties[0].Name != "text" {
		t.Fatalf("expected one text property, got %+v", label.Properties)
	}
	if _, ok := label.Properties[0].Value.(*ast.Template); !ok {
		t.Fatalf("expected a Template value, got %T", label.Properties[0].Value)
	}
}

func TestParseIfElifElseDirective(t *testing.T) {
	src := `
(if (cond score > 10)
  (const TIER "gold")
  (elif (cond score > 5) (const TIER "silver"))
  (else (const TIER "bronze")))

(Text (id "t"))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	if len(root.Body) != 2 {
		t.Fatalf("expected 2 top-level nodes (if-directive, element), got %d", len(root.Body))
	}
	ifDir, ok := root.Body[0].(*ast.IfDirective)
	if !ok {
		t.Fatalf("expected IfDirective, got %T", root.Body[0])
	}
	if len(ifDir.ElifPairs) != 1 || ifDir.Else == nil {
		t.Fatalf("expected one elif and an else, got %+v", ifDir)
	}
}

func TestParseStyleDef(t *testing.T) {
	src := `
(style primary (extends base) (bg "#ffffff") (padding 10))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	style, ok := root.Body[0].(*ast.StyleDef)
	if !ok {
		t.Fatalf("expected StyleDef, got %T", root.Body[0])
	}
	if style.Name != "primary" || style.Parent != "base" {
		t.Fatalf("unexpected style: %+v", style)
	}
	if len(style.Properties) != 2 {
		t.Fatalf("expected 2 properties, got %d", len(style.Properties))
	}
}

func TestParseComponentDef(t *testing.T) {
	src := `
(component Counter
  (param label)
  (state n (initial 0))
  (function bump n = n + 1)
  (Text (id "t") (text "hi")))
`
	root, diags := Parse("t.sx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	c, ok := root.Body[0].(*ast.ComponentDef)
	if !ok {
		t.Fatalf("expected ComponentDef, got %T", root.Body[0])
	}
	if c.Name != "Counter" || len(c.Params) != 1 || len(c.StateVars) != 1 || len(c.Functions) != 1 {
		t.Fatalf("unexpected component: %+v", c)
	}
	if len(c.Body) != 1 {
		t.Fatalf("expected one body element, got %d", len(c.Body))
	}
}

func TestParseUnknownConstruct(t *testing.T) {
	src := `(bogus (foo 1))`
	root, diags := Parse("t.sx", src)
	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for an unrecognized lowercase construct")
	}
	if _, ok := root.Body[0].(*ast.UnknownDirective); !ok {
		t.Fatalf("expected UnknownDirective, got %T", root.Body[0])
	}
}
