package runtime

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/builder"
	"github.com/kryonlabs/kryon/internal/ir/category"
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

func findByID(elems []RenderElement, irv *ir.IR, id string) *RenderElement {
	for i, e := range elems {
		if e.Node.HasID && irv.Strings.Get(e.Node.IDIndex) == id {
			return &elems[i]
		}
	}
	return nil
}

func TestEnumerateElementsReevaluatesBoundProperty(t *testing.T) {
	irv := compile(t, `
@var {
	count = 0
}
Text {
	id: "label"
	text: "count: ${count}"
}
Button {
	id: "btn"
	onClick = {
		count = count + 1
	}
}
`)
	b := New(irv, Options{})

	before := findByID(b.EnumerateElements(), irv, "label")
	if before == nil {
		t.Fatalf("label element not found")
	}
	textProp, ok := before.Properties[category.PropertyIDByName["text"]]
	if !ok || irv.Strings.Get(textProp.Str) != "count: 0" {
		t.Fatalf("expected initial text %q, got %+v", "count: 0", textProp)
	}

	btn := findByID(b.EnumerateElements(), irv, "btn")
	if btn == nil {
		t.Fatalf("btn element not found")
	}
	if err := b.DispatchEvent(btn.Node.NodeID, ir.EventClick); err != nil {
		t.Fatalf("dispatch_event: %v", err)
	}

	after := findByID(b.EnumerateElements(), irv, "label")
	textProp = after.Properties[category.PropertyIDByName["text"]]
	if irv.Strings.Get(textProp.Str) != "count: 1" {
		t.Fatalf("expected text to re-evaluate to %q after dispatch, got %q", "count: 1", irv.Strings.Get(textProp.Str))
	}
}

func TestDispatchEventNotifiesStateObserver(t *testing.T) {
	irv := compile(t, `
@var {
	count = 0
}
Button {
	id: "btn"
	onClick = {
		count = count + 1
	}
}
`)
	var notified []ir.Value
	b := New(irv, Options{OnStateChange: func(_ uint32, v ir.Value) {
		notified = append(notified, v)
	}})

	btn := findByID(b.EnumerateElements(), irv, "btn")
	if err := b.DispatchEvent(btn.Node.NodeID, ir.EventClick); err != nil {
		t.Fatalf("dispatch_event: %v", err)
	}
	if len(notified) != 1 || notified[0].Int != 1 {
		t.Fatalf("expected one observer notification with value 1, got %+v", notified)
	}
}

func TestDispatchEventIgnoresUnboundKind(t *testing.T) {
	irv := compile(t, `
Button {
	id: "btn"
	text: "hi"
}
`)
	b := New(irv, Options{})
	btn := findByID(b.EnumerateElements(), irv, "btn")
	if err := b.DispatchEvent(btn.Node.NodeID, ir.EventHover); err != nil {
		t.Fatalf("dispatch_event on unbound kind should be a no-op, got error: %v", err)
	}
}

func TestGetPropReflectsLiveState(t *testing.T) {
	irv := compile(t, `
@var {
	count = 5
}
Text {
	id: "label"
	text: "${count}"
}
`)
	b := New(irv, Options{})
	label := findByID(b.EnumerateElements(), irv, "label")
	v, ok := b.GetProp(label.Node.NodeID, uint32(category.PropertyIDByName["text"]))
	if !ok {
		t.Fatalf("GetProp: expected a value")
	}
	if irv.Strings.Get(v.Str) != "5" {
		t.Fatalf("expected %q, got %q", "5", irv.Strings.Get(v.Str))
	}
}

func TestDispatchEventUnknownFunctionReportsError(t *testing.T) {
	irv := compile(t, `
Button {
	id: "btn"
	text: "hi"
}
`)
	b := New(irv, Options{})
	btn := findByID(b.EnumerateElements(), irv, "btn")
	if btn.Node.Events == nil {
		btn.Node.Events = map[int]ir.EventBinding{}
	}
	btn.Node.Events[int(ir.EventClick)] = ir.EventBinding{Kind: ir.EventClick, FunctionID: 999999}
	if err := b.DispatchEvent(btn.Node.NodeID, ir.EventClick); err == nil {
		t.Fatalf("expected an error dispatching to an unknown function_id")
	}
}

func TestGuestBridgeDispatchesNonBytecodeFunction(t *testing.T) {
	irv := compile(t, `
@var {
	count = 0
}
function lua bump(p0) {
	count = count + 1
}
Button {
	id: "btn"
	onClick = bump
}
`)
	var ran bool
	guests := NewGuestBridge()
	guests.Register("lua", func(params []string, code string, get GuestReader, set GuestWriter) error {
		ran = true
		set("count", ir.IntValue(get("count").Int+1))
		return nil
	})
	b := New(irv, Options{Guests: guests})
	btn := findByID(b.EnumerateElements(), irv, "btn")
	if err := b.DispatchEvent(btn.Node.NodeID, ir.EventClick); err != nil {
		t.Fatalf("dispatch_event: %v", err)
	}
	if !ran {
		t.Fatalf("expected the guest runner to have been invoked")
	}
}
