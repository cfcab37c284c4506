package ir

import "github.com/kryonlabs/kryon/internal/ir/category"

// Style is `(name, parent?, properties)`. Parent is resolved
// by name at build time; after validation the chain is acyclic and
// topologically sortable (internal/ir/builder's style-resolution stage).
type Style struct {
	Name       uint32
	HasParent  bool
	Parent     uint32 // valid only when HasParent
	Properties map[category.PropertyID]Expression
}

// ThemeVariable is `(group, name, type, initial)`.
type ThemeVariable struct {
	Group   uint32
	Name    uint32
	Type    StateType
	Initial Expression
}

// EventKindTag is the closed set of event kinds an EventBinding may name,
// plus EventCustom for frontend-defined kinds the standard set doesn't
// cover (mirrors the supplemented custom-element/property escape hatch:
// new event names are preserved by name rather than rejected).
type EventKindTag int

const (
	EventClick EventKindTag = iota
	EventChange
	EventHover
	EventMount
	EventUnmount
	EventKeydown
	EventKeyup
	EventFocus
	EventBlur
	EventSubmit
	EventCustom
)

func (k EventKindTag) String() string {
	switch k {
	case EventClick:
		return "click"
	case EventChange:
		return "change"
	case EventHover:
		return "hover"
	case EventMount:
		return "mount"
	case EventUnmount:
		return "unmount"
	case EventKeydown:
		return "keydown"
	case EventKeyup:
		return "keyup"
	case EventFocus:
		return "focus"
	case EventBlur:
		return "blur"
	case EventSubmit:
		return "submit"
	default:
		return "custom"
	}
}

// EventKindByName maps a handler's spelled-out kind to its tag; ok is false
// for anything not in the standard set, in which case the caller should use
// EventCustom with the original name interned separately.
var EventKindByName = map[string]EventKindTag{
	"click": EventClick, "change": EventChange, "hover": EventHover,
	"mount": EventMount, "unmount": EventUnmount, "keydown": EventKeydown,
	"keyup": EventKeyup, "focus": EventFocus, "blur": EventBlur, "submit": EventSubmit,
}

// EventBinding is `{event_kind, function_id}`.
type EventBinding struct {
	Kind       EventKindTag
	CustomName uint32 // valid only when Kind == EventCustom
	FunctionID uint32
}

// StateCell is `{state_id, name, type, initial}`. state_id is
// unique per compilation and type must match Initial (see Value.MatchesType).
type StateCell struct {
	StateID uint16
	Name    uint32
	Type    StateType
	Initial Value
}

// HostFunctionDecl is `{id, name, signature, required}`.
type HostFunctionDecl struct {
	ID        uint32
	Name      uint32
	Signature uint32
	Required  bool
}

// ResourceType is the closed set of external-resource kinds (supplemented
// feature, see SPEC_FULL.md "Resource table").
type ResourceType int

const (
	ResourceImage ResourceType = iota
	ResourceFont
	ResourceSound
	ResourceVideo
	ResourceCustom
)

// ResourceFormat distinguishes an external file reference from inline data.
type ResourceFormat int

const (
	ResourceExternal ResourceFormat = iota
	ResourceInline
)

// Resource is one entry in the supplemented resource table: `Value.
// Resource(index)` properties (e.g. Image.source) point here instead of
// overloading the String value variant for two different index spaces.
type Resource struct {
	Type   ResourceType
	Format ResourceFormat
	Path   uint32 // string-table index: external path, or inline-data tag
}

// ComponentParam is one component parameter with an optional default.
type ComponentParam struct {
	Name       uint32
	HasDefault bool
	Default    Expression
}

// ComponentDefinition is `{name, parameters, parent?, state_vars, functions,
// body}`. Per the builder's expansion stage, definitions are
// preserved verbatim for round-trip/documentation; no COMPONENT_INSTANCE
// node ever appears in IR.Root.
type ComponentDefinition struct {
	Name       uint32
	Parameters []ComponentParam
	HasParent  bool
	Parent     uint32
	StateVars  []StateCell
	Functions  []uint32 // function_id list

	// HasOnMount/HasOnUnmount and their function_ids carry the
	// `on_mount?`/`on_unmount?` ComponentDef fields; 0 is a valid
	// function_id in principle so the Has flags disambiguate "absent" from
	// "bound to function 0".
	HasOnMount    bool
	OnMountFunc   uint32
	HasOnUnmount  bool
	OnUnmountFunc uint32

	Body []*Element
}

// Element is `{node_id, element_type, id?, style_ref?, properties, events,
// children}`, plus the supplemented custom-element-type,
// expansion-metadata, and position-hint fields.
type Element struct {
	NodeID      uint32
	ComponentID uint32 // 0 when the element is not part of an expanded instance

	Kind              category.ElementKind
	CustomTypeName    uint32 // string-table index; valid only when Kind == category.ElemCustom

	HasID    bool
	IDIndex  uint32

	HasStyleRef bool
	StyleRef    uint32

	Properties map[category.PropertyID]Expression
	// CustomProperties preserves properties with no standard category slot
	// (the supplemented custom-property escape hatch), keyed by their
	// interned name rather than a closed PropertyID.
	CustomProperties map[uint32]Expression

	Events map[int]EventBinding // keyed by a synthetic slot: EventKindTag, or EventCustom+1+nameIndex for custom kinds (see EventSlot)

	Children []*Element

	// Expansion metadata: which component definition this element was
	// expanded from, and with what instance parameters.
	ExpandedFrom       uint32 // component-name string index
	HasExpansion       bool
	InstanceParameters map[uint32]Expression

	// Compile-time-loop/conditional expansion metadata.
	ExpansionKind string // "" | "const_for" | "const_if"
	Iteration     int

	// PositionHint is a supplemented, writer-only reordering hint (see
	// SPEC_FULL.md): the builder never reorders Children itself, only the
	// binary writer consults this to produce its own sorted copy.
	PositionHint string
}

// EventSlot packs an EventBinding's kind (and, for custom kinds, its name)
// into a single map key for Element.Events.
func EventSlot(kind EventKindTag, customName uint32) int {
	if kind != EventCustom {
		return int(kind)
	}
	return int(EventCustom) + 1 + int(customName)
}
