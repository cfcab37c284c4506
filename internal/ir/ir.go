// Package ir implements the canonical intermediate representation: the
// durable, language-neutral artifact every frontend converges
// on and every backend (binary writer, JSON serializer, source printer,
// bytecode VM) consumes.
package ir

// IR is one compilation unit's fully-built intermediate representation. It
// is produced by internal/ir/builder, validated by internal/semantic,
// augmented with bytecode by internal/bytecode, and is the sole input to
// internal/krb (binary), internal/kir (JSON), and internal/printer (source).
type IR struct {
	Strings *StringTable

	Resources     []Resource
	Styles        []*Style
	Themes        []ThemeVariable
	Components    []*ComponentDefinition
	States        []StateCell
	Functions     []*Function
	HostFunctions []*HostFunctionDecl

	// Root is a synthetic container element (element type is irrelevant,
	// never written as a standalone element record) whose Children are the
	// top-level elements of the compilation unit.
	Root *Element

	SourceFile  string
	ContentHash [32]byte // compilation-unit identity slot; no package in this module computes it and neither the KRB nor the KIR writer stores it, so it stays zero

	nextNodeID      uint32
	nextComponentID uint32
}

// New returns an empty IR with a fresh string table and a zero-child Root:
// an empty source file builds to an IR with one ROOT and zero children.
func New(sourceFile string) *IR {
	ir := &IR{
		Strings:    NewStringTable(),
		SourceFile: sourceFile,
	}
	ir.Root = &Element{NodeID: ir.AllocNodeID()}
	return ir
}

// AllocNodeID returns the next monotonic node_id: a stable 32-bit
// node_id assigned by the builder, monotonic per compilation.
func (ir *IR) AllocNodeID() uint32 {
	id := ir.nextNodeID
	ir.nextNodeID++
	return id
}

// AllocComponentID returns the next monotonic component_id, a separate
// counter from node_id used to address components from bytecode.
func (ir *IR) AllocComponentID() uint32 {
	id := ir.nextComponentID
	ir.nextComponentID++
	return id
}

// FindStyle returns the style named by the given string-table index, or
// nil if none is defined.
func (ir *IR) FindStyle(nameIdx uint32) *Style {
	for _, s := range ir.Styles {
		if s.Name == nameIdx {
			return s
		}
	}
	return nil
}

// FindComponent returns the component definition named by the given
// string-table index, or nil if none is defined.
func (ir *IR) FindComponent(nameIdx uint32) *ComponentDefinition {
	for _, c := range ir.Components {
		if c.Name == nameIdx {
			return c
		}
	}
	return nil
}

// FindFunction returns the function with the given function_id, or nil.
func (ir *IR) FindFunction(id uint32) *Function {
	for _, f := range ir.Functions {
		if f.FunctionID == id {
			return f
		}
	}
	return nil
}

// FindHostFunction returns the host declaration with the given id, or nil.
func (ir *IR) FindHostFunction(id uint32) *HostFunctionDecl {
	for _, h := range ir.HostFunctions {
		if h.ID == id {
			return h
		}
	}
	return nil
}

// Walk visits every element in the tree rooted at ir.Root, in DFS
// pre-order — both ID assignment and the DFS-flattened element tree the
// binary writer produces depend on this order being deterministic.
func (ir *IR) Walk(fn func(*Element)) {
	var walk func(*Element)
	walk = func(e *Element) {
		fn(e)
		for _, c := range e.Children {
			walk(c)
		}
	}
	for _, c := range ir.Root.Children {
		walk(c)
	}
}
