package krb

import (
	"hash/crc32"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
)

// Read parses a KRB file produced by Write back into an *ir.IR (spec
// §4.8). It validates the magic, checks the major version, verifies the
// CRC32 last (spec's stated order: structural checks first, checksum as
// the final gate), and bounds-checks every length via cursor.need before
// using it — a short or truncated file fails with a BinaryError rather
// than a panic escaping to the caller, via the same panic/recover
// trap-unwinding idiom internal/bytecode's VM uses for traps.
func Read(data []byte) (irv *ir.IR, diags *diag.List) {
	diags = &diag.List{}
	defer func() {
		if r := recover(); r != nil {
			be, ok := r.(*binaryError)
			if !ok {
				panic(r)
			}
			diags.Addf(diag.KindBinaryError, diag.Position{File: "<binary>", Column: be.offset}, "%s", be.reason)
			irv = nil
		}
	}()

	if len(data) < HeaderSize {
		fail(0, "file too short for header: %d bytes", len(data))
	}
	h := decodeHeader(data[:HeaderSize])
	if string(h.Magic[:]) != Magic {
		fail(0, "bad magic %q", h.Magic[:])
	}
	if h.VersionMajor != VersionMajor {
		diags.Addf(diag.KindVersionIncompatible, diag.Position{File: "<binary>"},
			"file is format v%d.%d, reader supports major version %d", h.VersionMajor, h.VersionMinor, VersionMajor)
		return nil, diags
	}
	if int(h.TotalSize) != len(data) {
		fail(40, "header total_size %d does not match file length %d", h.TotalSize, len(data))
	}

	check := make([]byte, len(data))
	copy(check, data)
	copy(check[44:48], []byte{0, 0, 0, 0})
	if crc32.ChecksumIEEE(check) != h.CRC32 {
		diags.Addf(diag.KindChecksumMismatch, diag.Position{File: "<binary>"}, "CRC32 mismatch")
		return nil, diags
	}

	irv = ir.New("")
	irv.Root = &ir.Element{NodeID: 0}

	c := &cursor{b: data, pos: int(h.StringTableOffset)}
	readStringTable(c, irv)

	if c.pos != int(h.StyleTableOffset) {
		fail(c.pos, "string table did not end at style table offset %d (at %d)", h.StyleTableOffset, c.pos)
	}
	readStyleTable(c, irv)

	if c.pos != int(h.ThemeTableOffset) {
		fail(c.pos, "style table did not end at theme table offset %d (at %d)", h.ThemeTableOffset, c.pos)
	}
	readThemeTable(c, irv)

	if c.pos != int(h.ElementTreeOffset) {
		fail(c.pos, "theme/resource tables did not end at element tree offset %d (at %d)", h.ElementTreeOffset, c.pos)
	}
	var maxNodeID uint32
	for c.pos < int(h.TotalSize) && (h.ScriptSectionOffset == 0 || c.pos < int(h.ScriptSectionOffset)) {
		child := readElement(c, &maxNodeID)
		irv.Root.Children = append(irv.Root.Children, child)
	}

	if h.Flags&FlagHasScript != 0 {
		if c.pos != int(h.ScriptSectionOffset) {
			fail(c.pos, "element tree did not end at script section offset %d (at %d)", h.ScriptSectionOffset, c.pos)
		}
		readScriptSection(c, irv)
	}

	// maxNodeID is gathered but not written back into IR.nextNodeID: that
	// counter is private to package ir, and a round-tripped file is read
	// for inspection/execution, not handed back to the builder for further
	// node allocation (out of this package's round-trip scope).
	_ = maxNodeID
	irv.Root.NodeID = 0
	return irv, diags
}

func readStringTable(c *cursor, irv *ir.IR) {
	n := c.u32()
	irv.Strings = ir.NewStringTable()
	for i := uint32(0); i < n; i++ {
		s := c.str()
		irv.Strings.Intern(s)
	}
}

func readStyleTable(c *cursor, irv *ir.IR) {
	n := c.u32()
	irv.Styles = make([]*ir.Style, 0, n)
	for i := uint32(0); i < n; i++ {
		s := &ir.Style{Name: c.u32()}
		hasParent := c.u8() != 0
		parent := c.u32()
		if hasParent {
			s.HasParent = true
			s.Parent = parent
		}
		s.Properties = readPropertyMap(c)
		irv.Styles = append(irv.Styles, s)
	}
}

func readThemeTable(c *cursor, irv *ir.IR) {
	n := c.u32()
	irv.Themes = make([]ir.ThemeVariable, 0, n)
	for i := uint32(0); i < n; i++ {
		t := ir.ThemeVariable{Group: c.u32(), Name: c.u32(), Type: ir.StateType(c.u8())}
		t.Initial = readExpr(c)
		irv.Themes = append(irv.Themes, t)
	}
	rn := c.u32()
	irv.Resources = make([]ir.Resource, 0, rn)
	for i := uint32(0); i < rn; i++ {
		irv.Resources = append(irv.Resources, ir.Resource{
			Type:   ir.ResourceType(c.u8()),
			Format: ir.ResourceFormat(c.u8()),
			Path:   c.u32(),
		})
	}
}

func readPropertyMap(c *cursor) map[category.PropertyID]ir.Expression {
	n := c.u16()
	m := make(map[category.PropertyID]ir.Expression, n)
	for i := uint16(0); i < n; i++ {
		id := category.PropertyID(c.u16())
		m[id] = readExpr(c)
	}
	return m
}

func readCustomPropertyMap(c *cursor) map[uint32]ir.Expression {
	n := c.u16()
	m := make(map[uint32]ir.Expression, n)
	for i := uint16(0); i < n; i++ {
		k := c.u32()
		m[k] = readExpr(c)
	}
	return m
}

func readElement(c *cursor, maxNodeID *uint32) *ir.Element {
	e := &ir.Element{}
	e.NodeID = c.u32()
	if e.NodeID > *maxNodeID {
		*maxNodeID = e.NodeID
	}
	e.ComponentID = c.u32()
	e.Kind = category.ElementKind(c.u8())
	e.CustomTypeName = c.u32()

	if c.u8() != 0 {
		e.HasID = true
		e.IDIndex = c.u32()
	} else {
		c.u32()
	}
	if c.u8() != 0 {
		e.HasStyleRef = true
		e.StyleRef = c.u32()
	} else {
		c.u32()
	}

	e.Properties = readPropertyMap(c)
	e.CustomProperties = readCustomPropertyMap(c)

	evCount := c.u16()
	if evCount > 0 {
		e.Events = make(map[int]ir.EventBinding, evCount)
		for i := uint16(0); i < evCount; i++ {
			kind := ir.EventKindTag(c.u8())
			customName := c.u32()
			fnID := c.u32()
			slot := ir.EventSlot(kind, customName)
			e.Events[slot] = ir.EventBinding{Kind: kind, CustomName: customName, FunctionID: fnID}
		}
	}

	if c.u8() != 0 {
		e.HasExpansion = true
		e.ExpandedFrom = c.u32()
		e.InstanceParameters = readCustomPropertyMap(c)
	} else {
		c.u32()
		c.u16()
	}
	e.ExpansionKind = c.str()
	e.Iteration = int(c.i64())
	e.PositionHint = c.str()

	childCount := c.u16()
	for i := uint16(0); i < childCount; i++ {
		e.Children = append(e.Children, readElement(c, maxNodeID))
	}
	return e
}

func readScriptSection(c *cursor, irv *ir.IR) {
	c.expectMagic(ScriptMagic)

	sn := c.u32()
	irv.States = make([]ir.StateCell, 0, sn)
	for i := uint32(0); i < sn; i++ {
		sc := ir.StateCell{StateID: c.u16(), Name: c.u32(), Type: ir.StateType(c.u8())}
		sc.Initial = readValue(c)
		irv.States = append(irv.States, sc)
	}

	hn := c.u32()
	irv.HostFunctions = make([]*ir.HostFunctionDecl, 0, hn)
	for i := uint32(0); i < hn; i++ {
		irv.HostFunctions = append(irv.HostFunctions, &ir.HostFunctionDecl{
			ID:        c.u32(),
			Name:      c.u32(),
			Signature: c.u32(),
			Required:  c.u8() != 0,
		})
	}

	fn := c.u32()
	irv.Functions = make([]*ir.Function, 0, fn)
	for i := uint32(0); i < fn; i++ {
		c.expectMagic(FuncMagic)
		f := &ir.Function{FunctionID: c.u32(), Name: c.u32(), LanguageTag: c.u32()}
		pc := c.u16()
		f.ParamIndices = make([]uint16, pc)
		for j := range f.ParamIndices {
			f.ParamIndices[j] = c.u16()
		}
		f.CodeIndex = c.u32()
		ic := c.u32()
		f.Instructions = make([]ir.Instruction, ic)
		for j := range f.Instructions {
			f.Instructions[j] = readInstruction(c)
		}
		irv.Functions = append(irv.Functions, f)
	}
}

func readInstruction(c *cursor) ir.Instruction {
	in := ir.Instruction{Op: ir.OpCode(c.u8())}
	switch in.Op {
	case ir.OpPushInt:
		in.Int = c.i64()
	case ir.OpPushFloat:
		in.Float = c.f64()
	case ir.OpPushString:
		in.Str = c.u32()
	case ir.OpPushBool:
		in.Bool = c.u8() != 0
	case ir.OpGetState, ir.OpSetState, ir.OpGetLocal, ir.OpSetLocal, ir.OpCall:
		in.ID = c.u32()
	case ir.OpCallHost:
		in.ID = c.u32()
		in.Target = c.u32()
	case ir.OpGetProp, ir.OpSetProp:
		in.Target = c.u32()
		in.Prop = c.u32()
	case ir.OpJump, ir.OpJumpIfFalse:
		in.Offset = int(c.i64())
	}
	return in
}
