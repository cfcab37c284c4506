// Package krb implements the binary writer and reader for the KRB wire
// format. internal/ir.IR is the sole input to Write and the sole output
// of Read; round-tripping through this package byte-for-byte (Write∘Write)
// and semantically (Read∘Write) is a core invariant of the format.
//
// The header layout, the two-pass offset-then-write structure, and the
// little-endian fixed-width field convention follow a compact binary
// container discipline: a fixed header naming section offsets, each
// section self-delimiting, and a reader that never needs to buffer the
// whole file to find a given section. The script section carries
// functions, reactive state, and the host-function registry alongside
// the element tree.
package krb

import "encoding/binary"

// Magic identifies a KRB file. KRBY distinguishes this format's header
// shape — offsets for five sections plus a CRC32 trailer — from any
// similar but incompatible binary layout.
const Magic = "KRBY"

// ScriptMagic and FuncMagic tag the script section and each function
// record within it, the same "magic-per-section" discipline the header
// uses, so a reader can fail fast on a truncated or corrupted script blob
// without first trusting its length fields.
const (
	ScriptMagic = "SCPT"
	FuncMagic   = "FUNC"
)

// VersionMajor/VersionMinor are this package's format version. A reader
// rejects a file whose major version differs (KindVersionIncompatible)
// and accepts any minor version — forward-compatible within a major
// line, the same compatibility rule internal/kir's JSON format follows.
const (
	VersionMajor uint16 = 0
	VersionMinor uint16 = 1
)

// Header flag bits.
const (
	FlagHasScript uint16 = 1 << 0
)

// HeaderSize is the fixed byte length of the file header's 12 fields.
const HeaderSize = 48

// header holds the 12 fixed header fields, in wire order. It is an
// internal staging struct; callers only see *ir.IR.
type header struct {
	Magic               [4]byte
	VersionMajor        uint16
	VersionMinor        uint16
	Flags               uint16
	Reserved            uint16
	ElementCount        uint32
	FunctionCount       uint32
	StringTableOffset   uint32
	StyleTableOffset    uint32
	ThemeTableOffset    uint32
	ElementTreeOffset   uint32
	ScriptSectionOffset uint32
	TotalSize           uint32
	CRC32               uint32
}

func (h *header) encode() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], h.Magic[:])
	binary.LittleEndian.PutUint16(b[4:6], h.VersionMajor)
	binary.LittleEndian.PutUint16(b[6:8], h.VersionMinor)
	binary.LittleEndian.PutUint16(b[8:10], h.Flags)
	binary.LittleEndian.PutUint16(b[10:12], h.Reserved)
	binary.LittleEndian.PutUint32(b[12:16], h.ElementCount)
	binary.LittleEndian.PutUint32(b[16:20], h.FunctionCount)
	binary.LittleEndian.PutUint32(b[20:24], h.StringTableOffset)
	binary.LittleEndian.PutUint32(b[24:28], h.StyleTableOffset)
	binary.LittleEndian.PutUint32(b[28:32], h.ThemeTableOffset)
	binary.LittleEndian.PutUint32(b[32:36], h.ElementTreeOffset)
	binary.LittleEndian.PutUint32(b[36:40], h.ScriptSectionOffset)
	binary.LittleEndian.PutUint32(b[40:44], h.TotalSize)
	binary.LittleEndian.PutUint32(b[44:48], h.CRC32)
	return b
}

func decodeHeader(b []byte) header {
	var h header
	copy(h.Magic[:], b[0:4])
	h.VersionMajor = binary.LittleEndian.Uint16(b[4:6])
	h.VersionMinor = binary.LittleEndian.Uint16(b[6:8])
	h.Flags = binary.LittleEndian.Uint16(b[8:10])
	h.Reserved = binary.LittleEndian.Uint16(b[10:12])
	h.ElementCount = binary.LittleEndian.Uint32(b[12:16])
	h.FunctionCount = binary.LittleEndian.Uint32(b[16:20])
	h.StringTableOffset = binary.LittleEndian.Uint32(b[20:24])
	h.StyleTableOffset = binary.LittleEndian.Uint32(b[24:28])
	h.ThemeTableOffset = binary.LittleEndian.Uint32(b[28:32])
	h.ElementTreeOffset = binary.LittleEndian.Uint32(b[32:36])
	h.ScriptSectionOffset = binary.LittleEndian.Uint32(b[36:40])
	h.TotalSize = binary.LittleEndian.Uint32(b[40:44])
	h.CRC32 = binary.LittleEndian.Uint32(b[44:48])
	return h
}
