package runtime

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// RenderElement is what EnumerateElements yields per element: the node
// plus its properties already reduced from Expression trees to concrete
// Values against the current state table — a drawing backend wants
// values, not expressions to re-evaluate itself.
type RenderElement struct {
	Node       *ir.Element
	Properties map[category.PropertyID]ir.Value
	Custom     map[string]ir.Value
}

// Backend is the reference realization of the embedding contract: it
// owns the VM, the shared state table, a node index for GetProp/SetProp
// and event dispatch, and a GuestBridge for non-bytecode handler
// languages, with the same named, leveled logging pipeline stages use
// throughout this module (see DESIGN.md) applied to the one stage beyond
// compile: running the result.
type Backend struct {
	irv   *ir.IR
	vm    *bytecode.VM
	state *bytecode.StateTable
	log   *zap.Logger

	nodes  map[uint32]*ir.Element
	guests *GuestBridge
}

// Options configures a Backend. Logger defaults to zap.NewNop() so the
// core stays usable as a library without forcing an output destination
// (see SPEC_FULL.md's AMBIENT STACK). Hosts and Guests may be nil; a nil
// Hosts yields an empty registry (host functions marked optional no-op,
// required ones trap HostMissing); a nil Guests means every non-bytecode
// function dispatch fails with an unsupported-language error.
type Options struct {
	Logger        *zap.Logger
	Hosts         *bytecode.HostRegistry
	Guests        *GuestBridge
	Budget        int
	OnStateChange func(stateID uint32, v ir.Value)
}

// New builds a Backend over irv: indexes every element by node_id (for
// GetProp/SetProp and event dispatch lookups), seeds the state table from
// irv's declared cells, and wires a VM whose Props resolves back through
// this Backend — the embedding host is where the PropertyAccessor loop
// lives.
func New(irv *ir.IR, opts Options) *Backend {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("runtime")

	b := &Backend{
		irv:    irv,
		log:    log,
		nodes:  map[uint32]*ir.Element{},
		guests: opts.Guests,
	}

	// Component Body elements are a template, never live on their own:
	// every component instance in the tree is already a fully expanded
	// copy spliced into Root's Children (Testable Property 5), so
	// irv.Walk from Root reaches every node_id that can ever appear in an
	// EventBinding or GetProp/SetProp instruction.
	irv.Walk(func(el *ir.Element) {
		b.nodes[el.NodeID] = el
	})

	hosts := opts.Hosts
	if hosts == nil {
		hosts = bytecode.NewHostRegistry(irv)
	}
	state := bytecode.NewStateTable(irv.States)
	state.Observe = opts.OnStateChange
	b.state = state

	b.vm = &bytecode.VM{
		IR:     irv,
		State:  state,
		Hosts:  hosts,
		Props:  b,
		Budget: opts.Budget,
	}

	log.Info("runtime backend ready",
		zap.Int("elements", len(b.nodes)),
		zap.Int("states", len(irv.States)),
		zap.Int("functions", len(irv.Functions)))
	return b
}

// EnumerateElements returns every element in the tree, DFS pre-order (the
// same order internal/ir.IR.Walk and the KRB writer use), with its
// properties reduced to concrete Values against the current state table.
// This is the `enumerate_elements(&IR) → iterator<Element>` contract; Go
// has no lazy iterator protocol as concise as that name implies, so a
// materialized slice stands in (the element counts this module targets
// don't warrant a streaming iterator).
func (b *Backend) EnumerateElements() []RenderElement {
	scope := newEvalScope(b.irv, b.state)
	var out []RenderElement
	b.irv.Walk(func(el *ir.Element) {
		out = append(out, b.render(scope, el))
	})
	b.log.Debug("enumerated elements", zap.Int("count", len(out)))
	return out
}

func (b *Backend) render(scope *evalScope, el *ir.Element) RenderElement {
	props := make(map[category.PropertyID]ir.Value, len(el.Properties))
	for pid, expr := range el.Properties {
		v, err := evalExpr(scope, expr)
		if err != nil {
			b.log.Warn("property expression failed, substituting null",
				zap.Uint32("node_id", el.NodeID),
				zap.String("property", propertyDebugName(pid)),
				zap.Error(err))
			v = ir.NullValue()
		}
		props[pid] = v
	}
	var custom map[string]ir.Value
	if len(el.CustomProperties) > 0 {
		custom = make(map[string]ir.Value, len(el.CustomProperties))
		for name, expr := range el.CustomProperties {
			v, err := evalExpr(scope, expr)
			if err != nil {
				v = ir.NullValue()
			}
			custom[b.irv.Strings.Get(name)] = v
		}
	}
	return RenderElement{Node: el, Properties: props, Custom: custom}
}

func propertyDebugName(pid category.PropertyID) string {
	if name, ok := category.PropertyNames[pid]; ok {
		return name
	}
	return fmt.Sprintf("prop%d", uint16(pid))
}

// DispatchEvent implements `dispatch_event(event_kind, component_id)`:
// it finds the element's EventBinding for kind, loads the bound function,
// and runs it — through the bytecode VM when the function is embedded
// bytecode, or through the GuestBridge when it carries a non-bytecode
// LanguageTag. Events must be delivered in the order the caller's own
// event source observed them; the Backend itself does not queue.
func (b *Backend) DispatchEvent(nodeID uint32, kind ir.EventKindTag) error {
	el, ok := b.nodes[nodeID]
	if !ok {
		return fmt.Errorf("dispatch_event: no element with node_id %d", nodeID)
	}
	eb, ok := el.Events[ir.EventSlot(kind, 0)]
	if !ok {
		b.log.Debug("no event binding, ignoring", zap.Uint32("node_id", nodeID), zap.String("kind", kind.String()))
		return nil
	}
	return b.runFunction(eb.FunctionID, nil)
}

// DispatchCustomEvent is DispatchEvent's counterpart for the supplemented
// custom event-kind escape hatch (ir.EventCustom), addressed by name
// rather than by the closed EventKindTag enum.
func (b *Backend) DispatchCustomEvent(nodeID uint32, name string) error {
	el, ok := b.nodes[nodeID]
	if !ok {
		return fmt.Errorf("dispatch_event: no element with node_id %d", nodeID)
	}
	eb, ok := el.Events[ir.EventSlot(ir.EventCustom, b.irv.Strings.Intern(name))]
	if !ok {
		b.log.Debug("no custom event binding, ignoring", zap.Uint32("node_id", nodeID), zap.String("name", name))
		return nil
	}
	return b.runFunction(eb.FunctionID, nil)
}

func (b *Backend) runFunction(fnID uint32, args []ir.Value) error {
	fn := b.irv.FindFunction(fnID)
	if fn == nil {
		return fmt.Errorf("dispatch_event: event binding references unknown function_id %d", fnID)
	}
	lang := b.irv.Strings.Get(fn.LanguageTag)
	if lang == "" {
		b.log.Debug("dispatching to VM", zap.Uint32("function_id", fnID))
		_, err := b.vm.Run(fnID, args)
		return err
	}
	if b.guests == nil {
		return fmt.Errorf("dispatch_event: function_id %d requires guest language %q, no GuestBridge attached", fnID, lang)
	}
	b.log.Debug("dispatching to guest bridge", zap.Uint32("function_id", fnID), zap.String("language", lang))
	return b.guests.Run(b.irv, b.state, fn)
}

// GetProp implements bytecode.PropertyAccessor by re-evaluating the named
// element's property Expression against the live state table — the same
// reduction EnumerateElements performs, done on demand for a single
// lookup so a handler's `element.prop` read always sees the latest
// reactive value.
func (b *Backend) GetProp(nodeID uint32, propID uint32) (ir.Value, bool) {
	el, ok := b.nodes[nodeID]
	if !ok {
		return ir.Value{}, false
	}
	expr, ok := el.Properties[category.PropertyID(propID)]
	if !ok {
		return ir.Value{}, false
	}
	v, err := evalExpr(newEvalScope(b.irv, b.state), expr)
	if err != nil {
		return ir.Value{}, false
	}
	return v, true
}

// SetProp implements bytecode.PropertyAccessor. No authored handler body
// can currently emit OpSetProp (internal/bytecode/compiler.go never lowers
// `element.prop = expr`; see DESIGN.md), but a backend consuming bytecode
// from another producer may still carry it, so overwriting the element's
// property with a literal is supported rather than left unreachable.
func (b *Backend) SetProp(nodeID uint32, propID uint32, v ir.Value) bool {
	el, ok := b.nodes[nodeID]
	if !ok {
		return false
	}
	if el.Properties == nil {
		el.Properties = map[category.PropertyID]ir.Expression{}
	}
	el.Properties[category.PropertyID(propID)] = ir.LiteralExpr{Value: v}
	return true
}
