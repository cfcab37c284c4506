package xmlkry

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/ast"
)

func TestParseMinimalButton(t *testing.T) {
	src := `<Kryon>
	<Const MAX="10"/>
	<Button id="btn" text="+" onClick="count = count + 1"/>
</Kryon>`
	root, diags := Parse("t.xml", src)
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
	src := `<Kryon>
	<Function name="bump">count = count + 1</Function>
	<Button id="btn" onClick="bump"/>
</Kryon>`
	root, diags := Parse("t.xml", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	btn := root.Body[1].(*ast.Element)
	named, ok := btn.Events[0].Handler.(ast.NamedHandler)
	if !ok || named.FunctionName != "bump" {
		t.Fatalf("expected NamedHandler bump, got %+v", btn.Events[0].Handler)
	}
}

func TestParseStyleExtends(t *testing.T) {
	src := `<Kryon>
	<Style name="base">color: #ffffffff; opacity: 0.5;</Style>
	<Style name="derived" extends="base">fontSize: 12px;</Style>
</Kryon>`
	root, diags := Parse("t.xml", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	derived, ok := root.Body[1].(*ast.StyleDef)
	if !ok {
		t.Fatalf("expected StyleDef, got %T", root.Body[1])
	}
	if derived.Parent != "base" {
		t.Fatalf("expected parent base, got %q", derived.Parent)
	}
	if len(derived.Properties) != 1 || derived.Properties[0].Name != "fontSize" {
		t.Fatalf("unexpected derived properties: %+v", derived.Properties)
	}
}

func TestParseTextContentBecomesTextProperty(t *testing.T) {
	src := `<Kryon>
	<Var count="0"/>
	<Text id="label">count: ${count}</Text>
</Kryon>`
	root, diags := Parse("t.xml", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	label, ok := root.Body[1].(*ast.Element)
	if !ok {
		t.Fatalf("expected Element, got %T", root.Body[1])
	}
	if len(label.Properties) != 1 || label.Properties[0].Name != "text" {
		t.Fatalf("expected one text property, got %+v", label.Properties)
	}
	tmpl, ok := label.Properties[0].Value.(*ast.Template)
	if !ok {
		t.Fatalf("expected a Template (text contains ${...}), got %T", label.Properties[0].Value)
	}
	if len(tmpl.Segments) != 2 {
		t.Fatalf("expected 2 template segments, got %d", len(tmpl.Segments))
	}
}

func TestParseComponentDefinition(t *testing.T) {
	src := `<Kryon>
	<Component name="Counter">
		<Param name="start" default="0"/>
		<State name="count" type="int" initial="0"/>
		<Button id="btn" text="+"/>
	</Component>
</Kryon>`
	root, diags := Parse("t.xml", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	comp, ok := root.Body[0].(*ast.ComponentDef)
	if !ok {
		t.Fatalf("expected ComponentDef, got %T", root.Body[0])
	}
	if comp.Name != "Counter" || len(comp.Params) != 1 || comp.Params[0].Name != "start" {
		t.Fatalf("unexpected component params: %+v", comp.Params)
	}
	if len(comp.StateVars) != 1 || comp.StateVars[0].Name != "count" {
		t.Fatalf("unexpected component state vars: %+v", comp.StateVars)
	}
	if len(comp.Body) != 1 {
		t.Fatalf("expected one body element, got %d", len(comp.Body))
	}
}

func TestParseMalformedXMLReportsDiagnostic(t *testing.T) {
	_, diags := Parse("t.xml", `<Kryon><Button id="btn"`)
	if !diags.HasErrors() {
		t.Fatalf("expected a diagnostic for malformed XML")
	}
}
