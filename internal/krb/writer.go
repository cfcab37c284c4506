package krb

import (
	"hash/crc32"
	"sort"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// Write serializes irv into the KRB wire format. It follows a two-pass
// shape: each section is built into its own buffer first (the "size
// calculation" pass — a section's size is simply len(buffer) once built),
// then concatenated behind a header whose offset fields are now known,
// rather than a file-seek-and-verify approach. There is no seekable file
// here, only an in-memory result, so wrong offsets are structurally
// impossible with this approach instead of checked after the fact.
func Write(irv *ir.IR) ([]byte, *diag.List) {
	diags := &diag.List{}

	strings := encodeStringTable(irv)
	styles := encodeStyleTable(irv)
	themes := encodeThemeTable(irv)
	var tree buf
	sortedChildren(irv.Root).forEach(func(e *ir.Element) { encodeElement(&tree, irv, e) })
	var script buf
	hasScript := len(irv.Functions) > 0 || len(irv.HostFunctions) > 0 || len(irv.States) > 0
	if hasScript {
		encodeScriptSection(&script, irv)
	}

	h := header{
		VersionMajor:  VersionMajor,
		VersionMinor:  VersionMinor,
		ElementCount:  uint32(countElements(irv.Root)),
		FunctionCount: uint32(len(irv.Functions)),
	}
	copy(h.Magic[:], Magic)
	if hasScript {
		h.Flags |= FlagHasScript
	}

	h.StringTableOffset = HeaderSize
	h.StyleTableOffset = h.StringTableOffset + uint32(len(strings.b))
	h.ThemeTableOffset = h.StyleTableOffset + uint32(len(styles.b))
	h.ElementTreeOffset = h.ThemeTableOffset + uint32(len(themes.b))
	if hasScript {
		h.ScriptSectionOffset = h.ElementTreeOffset + uint32(len(tree.b))
		h.TotalSize = h.ScriptSectionOffset + uint32(len(script.b))
	} else {
		h.ScriptSectionOffset = 0
		h.TotalSize = h.ElementTreeOffset + uint32(len(tree.b))
	}

	out := make([]byte, 0, h.TotalSize)
	out = append(out, h.encode()...)
	out = append(out, strings.b...)
	out = append(out, styles.b...)
	out = append(out, themes.b...)
	out = append(out, tree.b...)
	if hasScript {
		out = append(out, script.b...)
	}

	crc := crc32.ChecksumIEEE(out)
	// CRC32 (ISO-HDLC); the header's CRC32 field sits inside
	// the already-written prefix rather than at the file's tail, so it is
	// patched in after the fact instead of appended.
	var crcBytes [4]byte
	crcBytes[0] = byte(crc)
	crcBytes[1] = byte(crc >> 8)
	crcBytes[2] = byte(crc >> 16)
	crcBytes[3] = byte(crc >> 24)
	copy(out[44:48], crcBytes[:])

	return out, diags
}

func countElements(root *ir.Element) int {
	n := 0
	var walk func(*ir.Element)
	walk = func(e *ir.Element) {
		n++
		for _, c := range e.Children {
			walk(c)
		}
	}
	for _, c := range root.Children {
		walk(c)
	}
	return n
}

// orderedElements is a PositionHint-reordered copy of a slice of children,
// using the same sort.SliceStable reordering step any writer needs to
// apply before the element tree is serialized (see ir.Element.PositionHint's
// doc comment).
type orderedElements []*ir.Element

func sortedChildren(parent *ir.Element) orderedElements {
	out := make(orderedElements, len(parent.Children))
	copy(out, parent.Children)
	rank := func(hint string) int {
		switch hint {
		case "top", "left":
			return 1
		case "bottom", "right":
			return 2
		default:
			return 0
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return rank(out[i].PositionHint) < rank(out[j].PositionHint) })
	return out
}

func (o orderedElements) forEach(fn func(*ir.Element)) {
	for _, e := range o {
		fn(e)
	}
}

func encodeStringTable(irv *ir.IR) buf {
	var w buf
	all := irv.Strings.All()
	w.u32(uint32(len(all)))
	for _, s := range all {
		w.str(s)
	}
	return w
}

func encodeStyleTable(irv *ir.IR) buf {
	var w buf
	w.u32(uint32(len(irv.Styles)))
	for _, s := range irv.Styles {
		w.u32(s.Name)
		if s.HasParent {
			w.u8(1)
			w.u32(s.Parent)
		} else {
			w.u8(0)
			w.u32(0)
		}
		encodePropertyMap(&w, irv, s.Properties)
	}
	return w
}

func encodeThemeTable(irv *ir.IR) buf {
	var w buf
	w.u32(uint32(len(irv.Themes)))
	for _, t := range irv.Themes {
		w.u32(t.Group)
		w.u32(t.Name)
		w.u8(uint8(t.Type))
		writeExpr(&w, irv, t.Initial)
	}
	// Resource table rides immediately after the theme table rather than
	// getting its own header offset: the header only names five section
	// offsets, and the resource table is this package's supplemented
	// addition (see internal/ir's Resource type), so it is placed where a
	// reader that already knows ThemeTableOffset and ElementTreeOffset can
	// find it by simply continuing to read after the themes.
	w.u32(uint32(len(irv.Resources)))
	for _, r := range irv.Resources {
		w.u8(uint8(r.Type))
		w.u8(uint8(r.Format))
		w.u32(r.Path)
	}
	return w
}

func encodePropertyMap(w *buf, irv *ir.IR, props map[category.PropertyID]ir.Expression) {
	keys := make([]category.PropertyID, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	w.u16(uint16(len(keys)))
	for _, k := range keys {
		w.u16(uint16(k))
		writeExpr(w, irv, props[k])
	}
}

func encodeCustomPropertyMap(w *buf, irv *ir.IR, props map[uint32]ir.Expression) {
	keys := make([]uint32, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	w.u16(uint16(len(keys)))
	for _, k := range keys {
		w.u32(k)
		writeExpr(w, irv, props[k])
	}
}

func encodeElement(w *buf, irv *ir.IR, e *ir.Element) {
	w.u32(e.NodeID)
	w.u32(e.ComponentID)
	w.u8(uint8(e.Kind))
	w.u32(e.CustomTypeName)

	if e.HasID {
		w.u8(1)
		w.u32(e.IDIndex)
	} else {
		w.u8(0)
		w.u32(0)
	}
	if e.HasStyleRef {
		w.u8(1)
		w.u32(e.StyleRef)
	} else {
		w.u8(0)
		w.u32(0)
	}

	encodePropertyMap(w, irv, e.Properties)
	encodeCustomPropertyMap(w, irv, e.CustomProperties)

	slots := make([]int, 0, len(e.Events))
	for k := range e.Events {
		slots = append(slots, k)
	}
	sort.Ints(slots)
	w.u16(uint16(len(slots)))
	for _, slot := range slots {
		b := e.Events[slot]
		w.u8(uint8(b.Kind))
		w.u32(b.CustomName)
		w.u32(b.FunctionID)
	}

	if e.HasExpansion {
		w.u8(1)
		w.u32(e.ExpandedFrom)
		encodeCustomPropertyMap(w, irv, e.InstanceParameters)
	} else {
		w.u8(0)
		w.u32(0)
		w.u16(0)
	}
	w.str(e.ExpansionKind)
	w.i64(int64(e.Iteration))
	w.str(e.PositionHint)

	children := sortedChildren(e)
	w.u16(uint16(len(children)))
	children.forEach(func(c *ir.Element) { encodeElement(w, irv, c) })
}

func encodeScriptSection(w *buf, irv *ir.IR) {
	w.bytes([]byte(ScriptMagic))

	w.u32(uint32(len(irv.States)))
	for _, s := range irv.States {
		w.u16(s.StateID)
		w.u32(s.Name)
		w.u8(uint8(s.Type))
		writeValue(w, irv, s.Initial)
	}

	w.u32(uint32(len(irv.HostFunctions)))
	for _, h := range irv.HostFunctions {
		w.u32(h.ID)
		w.u32(h.Name)
		w.u32(h.Signature)
		if h.Required {
			w.u8(1)
		} else {
			w.u8(0)
		}
	}

	w.u32(uint32(len(irv.Functions)))
	for _, fn := range irv.Functions {
		w.bytes([]byte(FuncMagic))
		w.u32(fn.FunctionID)
		w.u32(fn.Name)
		w.u32(fn.LanguageTag)
		w.u16(uint16(len(fn.ParamIndices)))
		for _, p := range fn.ParamIndices {
			w.u16(p)
		}
		w.u32(fn.CodeIndex)
		w.u32(uint32(len(fn.Instructions)))
		for _, in := range fn.Instructions {
			encodeInstruction(w, in)
		}
	}
}

func encodeInstruction(w *buf, in ir.Instruction) {
	w.u8(uint8(in.Op))
	switch in.Op {
	case ir.OpPushInt:
		w.i64(in.Int)
	case ir.OpPushFloat:
		w.f64(in.Float)
	case ir.OpPushString:
		w.u32(in.Str)
	case ir.OpPushBool:
		if in.Bool {
			w.u8(1)
		} else {
			w.u8(0)
		}
	case ir.OpGetState, ir.OpSetState, ir.OpGetLocal, ir.OpSetLocal, ir.OpCall:
		w.u32(in.ID)
	case ir.OpCallHost:
		w.u32(in.ID)
		w.u32(in.Target)
	case ir.OpGetProp, ir.OpSetProp:
		w.u32(in.Target)
		w.u32(in.Prop)
	case ir.OpJump, ir.OpJumpIfFalse:
		w.i64(int64(in.Offset))
	}
}
