package ir

import "github.com/kryonlabs/kryon/internal/token"

// ValueKind tags a Value's active field, the closed Value union.
type ValueKind int

const (
	VString ValueKind = iota
	VInt
	VFloat
	VBool
	VNull
	VColor
	VUnit
	VArray
	VObject
	// VResource is a supplemented variant (see SPEC_FULL.md "Resource
	// table"): a reference into the IR's resource table, used for
	// Image.source-shaped properties that the distilled Value union has no
	// dedicated slot for.
	VResource
)

// Value is the tagged union `String|Int|Float|Bool|Null|Color|Unit|Array|
// Object`, plus the supplemented Resource variant. Only the
// field matching Kind is meaningful.
type Value struct {
	Kind ValueKind

	Str       uint32 // VString: string-table index
	Int       int64  // VInt
	Float     float64 // VFloat
	Bool      bool    // VBool
	Color     [4]uint8 // VColor: r,g,b,a
	UnitValue float64  // VUnit
	Unit      token.Unit // VUnit
	Array     []Value    // VArray
	Object    map[uint32]Value // VObject: property-name index -> Value
	Resource  uint32           // VResource: index into IR.Resources
}

func StringValue(idx uint32) Value  { return Value{Kind: VString, Str: idx} }
func IntValue(i int64) Value        { return Value{Kind: VInt, Int: i} }
func FloatValue(f float64) Value    { return Value{Kind: VFloat, Float: f} }
func BoolValue(b bool) Value        { return Value{Kind: VBool, Bool: b} }
func NullValue() Value              { return Value{Kind: VNull} }
func ColorValue(r, g, b, a uint8) Value {
	return Value{Kind: VColor, Color: [4]uint8{r, g, b, a}}
}
func UnitValueOf(v float64, u token.Unit) Value {
	return Value{Kind: VUnit, UnitValue: v, Unit: u}
}
func ArrayValue(items []Value) Value { return Value{Kind: VArray, Array: items} }
func ObjectValue(m map[uint32]Value) Value {
	return Value{Kind: VObject, Object: m}
}
func ResourceValue(idx uint32) Value { return Value{Kind: VResource, Resource: idx} }

// StateType is the closed set of reactive state-cell types.
type StateType int

const (
	StateInt StateType = iota
	StateFloat
	StateString
	StateBool
)

func (t StateType) String() string {
	switch t {
	case StateInt:
		return "int"
	case StateFloat:
		return "float"
	case StateString:
		return "string"
	case StateBool:
		return "bool"
	default:
		return "unknown"
	}
}

// MatchesType reports whether v is a legal initial value for a state cell
// declared with the given type.
func (v Value) MatchesType(t StateType) bool {
	switch t {
	case StateInt:
		return v.Kind == VInt
	case StateFloat:
		return v.Kind == VFloat || v.Kind == VInt
	case StateString:
		return v.Kind == VString
	case StateBool:
		return v.Kind == VBool
	default:
		return false
	}
}
