package jsx

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/ast"
)

func TestParseMinimalButton(t *testing.T) {
	src := `
const MAX = 10;

<Button id="btn" text="+" onClick={count = count + 1} />
`
	root, diags := Parse("t.jsx", src)
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
function bump() { count = count + 1 }

<Button id="btn" onClick={bump} />
`
	root, diags := Parse("t.jsx", src)
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
<Row>
	<Button id="a" text="a" />
	<Button id="b" text="b" />
</Row>
`
	root, diags := Parse("t.jsx", src)
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

func TestParseExpressionInterpolation(t *testing.T) {
	src := `
<Text id="label">count: {count}</Text>
`
	root, diags := Parse("t.jsx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	label, ok := root.Body[0].(*ast.Element)
	if !ok {
		t.Fatalf("expected Element, got %T", root.Body[0])
	}
	if len(label.Properties) != 1 || label.Properties[0].Name != "text" {
		t.Fatalf("expected one text property, got %+v", label.Properties)
	}
	tmpl, ok := label.Properties[0].Value.(*ast.Template)
	if !ok {
		t.Fatalf("expected a Template (mixed literal/expr), got %T", label.Properties[0].Value)
	}
	if len(tmpl.Segments) != 2 {
		t.Fatalf("expected 2 template segments, got %d", len(tmpl.Segments))
	}
	if _, ok := tmpl.Segments[1].Expr.(*ast.VarRef); !ok {
		t.Fatalf("expected the second segment to be a VarRef, got %+v", tmpl.Segments[1])
	}
}

func TestParseIfElifElseDirective(t *testing.T) {
	src := `
@if score > 10 {
	const TIER = "gold";
} @elif score > 5 {
	const TIER = "silver";
} @else {
	const TIER = "bronze";
}

<Text id="t" />
`
	root, diags := Parse("t.jsx", src)
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

func TestParseStyleAttribute(t *testing.T) {
	src := `<Button id="btn" style="primary" />`
	root, diags := Parse("t.jsx", src)
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %s", diags.Error())
	}
	btn := root.Body[0].(*ast.Element)
	if btn.StyleRef != "primary" {
		t.Fatalf("expected StyleRef primary, got %q", btn.StyleRef)
	}
}
