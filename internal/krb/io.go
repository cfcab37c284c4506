package krb

import (
	"encoding/binary"
	"fmt"
	"math"
)

// buf is an append-only little-endian byte builder, used to
// build in-memory sections a size-calculation pass can measure before the
// final header is known — each section is built once rather than written
// twice.
type buf struct{ b []byte }

func (w *buf) u8(v uint8)   { w.b = append(w.b, v) }
func (w *buf) bytes(v []byte) { w.b = append(w.b, v...) }

func (w *buf) u16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *buf) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *buf) i64(v int64)     { w.u64(uint64(v)) }
func (w *buf) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	w.b = append(w.b, tmp[:]...)
}

func (w *buf) f64(v float64) { w.u64(math.Float64bits(v)) }

// str writes a length-prefixed (u32) UTF-8 run, used for the string table
// and for the handful of plain (non-interned) Go-string fields like
// Element.ExpansionKind/PositionHint.
func (w *buf) str(s string) {
	w.u32(uint32(len(s)))
	w.b = append(w.b, s...)
}

// binaryError is the reader's trap-unwinding sentinel, the same
// panic/recover idiom internal/bytecode and internal/semantic use for
// aborting deep inside a recursive walk without threading an error return
// through every call site.
type binaryError struct {
	offset int
	reason string
}

func (e *binaryError) Error() string { return e.reason }

func fail(offset int, format string, args ...any) {
	panic(&binaryError{offset: offset, reason: fmt.Sprintf(format, args...)})
}

// cursor reads sequentially from a byte slice, panicking with *binaryError
// on any out-of-bounds access rather than returning an error from every
// read — recovered once at the top of Read.
type cursor struct {
	b   []byte
	pos int
}

func (c *cursor) need(n int) {
	if c.pos+n > len(c.b) {
		fail(c.pos, "unexpected end of file: need %d bytes, have %d", n, len(c.b)-c.pos)
	}
}

func (c *cursor) u8() uint8 {
	c.need(1)
	v := c.b[c.pos]
	c.pos++
	return v
}

func (c *cursor) take(n int) []byte {
	c.need(n)
	v := c.b[c.pos : c.pos+n]
	c.pos += n
	return v
}

func (c *cursor) u16() uint16 {
	return binary.LittleEndian.Uint16(c.take(2))
}

func (c *cursor) u32() uint32 {
	return binary.LittleEndian.Uint32(c.take(4))
}

func (c *cursor) u64() uint64 {
	return binary.LittleEndian.Uint64(c.take(8))
}

func (c *cursor) i64() int64 { return int64(c.u64()) }

func (c *cursor) f64() float64 { return math.Float64frombits(c.u64()) }

func (c *cursor) str() string {
	n := c.u32()
	return string(c.take(int(n)))
}

func (c *cursor) expectMagic(want string) {
	got := c.take(len(want))
	if string(got) != want {
		fail(c.pos-len(want), "expected magic %q, got %q", want, got)
	}
}
