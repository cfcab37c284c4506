package semantic

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/builder"
	"github.com/kryonlabs/kryon/internal/ir/category"
	"github.com/kryonlabs/kryon/internal/token"
)

func buildIR(t *testing.T, src string) *ir.IR {
	t.Helper()
	root, diags := kry.Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("parse errors: %s", diags.Error())
	}
	res, diags := builder.Build(root, "t.kry", builder.Options{})
	if diags.HasErrors() {
		t.Fatalf("build errors: %s", diags.Error())
	}
	return res.IR
}

func TestValidateCleanIRHasNoDiagnostics(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" ; color: #ffffff }`)
	diags := Validate(irv, Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %s", diags.Error())
	}
}

func TestValidateCategoryViolationSkipRemovesProperty(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" }`)
	el := irv.Root.Children[0]
	el.Properties[category.PropChecked] = ir.LiteralExpr{Value: ir.BoolValue(true)}

	diags := Validate(irv, Options{Recovery: RecoverySkip})
	if !diags.HasErrors() {
		t.Fatalf("expected a CategoryViolation diagnostic")
	}
	if _, ok := el.Properties[category.PropChecked]; ok {
		t.Fatalf("expected the offending property to be removed")
	}
}

func TestValidateTypeMismatchDefaultSubstitutes(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" }`)
	el := irv.Root.Children[0]
	el.Properties[category.PropOpacity] = ir.LiteralExpr{Value: ir.StringValue(0)}

	diags := Validate(irv, Options{Recovery: RecoveryDefault})
	if !diags.HasErrors() {
		t.Fatalf("expected a TypeMismatch diagnostic")
	}
	got := el.Properties[category.PropOpacity].(ir.LiteralExpr).Value
	if got.Kind != ir.VFloat {
		t.Fatalf("expected opacity to be defaulted to a float, got %v", got.Kind)
	}
}

func TestValidateLengthIntPromotedToUnitPx(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" }`)
	el := irv.Root.Children[0]
	el.Properties[category.PropFontSize] = ir.LiteralExpr{Value: ir.IntValue(12)}

	diags := Validate(irv, Options{Recovery: RecoverySkip})
	if diags.HasErrors() {
		t.Fatalf("bare int on a length property is not an error, got: %s", diags.Error())
	}
	got := el.Properties[category.PropFontSize].(ir.LiteralExpr).Value
	if got.Kind != ir.VUnit || got.Unit != token.UnitPx {
		t.Fatalf("expected font size to be inferred as px, got %+v", got)
	}
}

func TestValidateOpacitySanitizeClamps(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" }`)
	el := irv.Root.Children[0]
	el.Properties[category.PropOpacity] = ir.LiteralExpr{Value: ir.FloatValue(4.5)}

	diags := Validate(irv, Options{Recovery: RecoverySanitize})
	if !diags.HasErrors() {
		t.Fatalf("expected an out-of-range TypeMismatch-class diagnostic")
	}
	got := el.Properties[category.PropOpacity].(ir.LiteralExpr).Value
	if got.Float != 1 {
		t.Fatalf("expected opacity clamped to 1, got %v", got.Float)
	}
}

func TestValidateRecoveryNoneAbortsAtFirstError(t *testing.T) {
	irv := buildIR(t, `Text { text: "hi" }`)
	el := irv.Root.Children[0]
	el.Properties[category.PropChecked] = ir.LiteralExpr{Value: ir.BoolValue(true)}
	el.Properties[category.PropIndeterminate] = ir.LiteralExpr{Value: ir.BoolValue(true)}

	diags := Validate(irv, Options{Recovery: RecoveryNone})
	if len(diags.Items()) != 1 {
		t.Fatalf("expected exactly one diagnostic under RecoveryNone, got %d", len(diags.Items()))
	}
}

func TestValidateDuplicateStyleDropped(t *testing.T) {
	irv := buildIR(t, `style base { color: "#ffffff" }`)
	dup := *irv.Styles[0]
	irv.Styles = append(irv.Styles, &dup)

	diags := Validate(irv, Options{Recovery: RecoverySkip})
	if !diags.HasErrors() {
		t.Fatalf("expected a DuplicateDefinition diagnostic")
	}
	if len(irv.Styles) != 1 {
		t.Fatalf("expected the duplicate style to be dropped, got %d styles", len(irv.Styles))
	}
}

func TestValidateStyleCycleBreaksUnderRecovery(t *testing.T) {
	irv := buildIR(t, `
style a { color: "#ffffff" }
style b { color: "#000000" }
`)
	a, b := irv.Styles[0], irv.Styles[1]
	a.HasParent, a.Parent = true, b.Name
	b.HasParent, b.Parent = true, a.Name

	diags := Validate(irv, Options{Recovery: RecoverySkip})
	if !diags.HasErrors() {
		t.Fatalf("expected a StyleCycle diagnostic")
	}
	foundCycle := false
	for _, d := range diags.Items() {
		if d.Kind == diag.KindStyleCycle {
			foundCycle = true
		}
	}
	if !foundCycle {
		t.Fatalf("expected a StyleCycle diagnostic, got: %s", diags.Error())
	}
	if a.HasParent && b.HasParent {
		t.Fatalf("expected recovery to break the cycle by dropping one extends edge")
	}
}

func TestValidateInvalidHandlerDropsEvent(t *testing.T) {
	irv := buildIR(t, `
const label = "+"
Button { text: label ; onClick = { count = count + 1 } }
`)
	btn := irv.Root.Children[0]
	for slot, binding := range btn.Events {
		binding.FunctionID = 9999
		btn.Events[slot] = binding
	}

	diags := Validate(irv, Options{Recovery: RecoverySkip})
	if !diags.HasErrors() {
		t.Fatalf("expected an UnresolvedSymbol diagnostic for the dangling handler")
	}
	if len(btn.Events) != 0 {
		t.Fatalf("expected the invalid event binding to be dropped")
	}
}
