// Package semantic implements the semantic validator: a
// standalone pass over an already-built ir.IR that re-derives the same
// closed set of diagnostics internal/ir/builder raises inline during
// construction, plus the type-mismatch/unit-inference check the builder
// does not attempt (see DESIGN.md for the division of responsibility).
//
// Unlike internal/ir/builder, this package never sees an ast.Root or a
// source position: it operates purely on the IR, so it validates equally
// well an IR that internal/ir/builder produced, one loaded from a .kir
// file by internal/kir, or one a future frontend assembles by hand.
// Diagnostics it raises therefore carry only the compilation unit's
// SourceFile, with Line/Column left at zero.
package semantic

// RecoveryMode selects how Validate reacts to a violation it finds, one
// of four selectable strategies.
type RecoveryMode int

const (
	// RecoveryNone aborts at the first diagnostic of Error severity,
	// leaving every later check unexamined.
	RecoveryNone RecoveryMode = iota
	// RecoverySkip drops the offending node (property, event binding,
	// duplicate definition, cycle-closing parent edge) and continues.
	// kryonc's --recovery flag defaults to it; the zero Options value
	// selects RecoveryNone.
	RecoverySkip
	// RecoveryDefault substitutes a type-appropriate default value in
	// place of the offending one, where one can be constructed.
	RecoveryDefault
	// RecoverySanitize clamps an out-of-range numeric value into its
	// valid range instead of discarding it; a type mismatch it cannot clamp
	// is replaced by the type's default value, as under RecoveryDefault,
	// and violations that carry no value (a style cycle, a duplicate name)
	// fall back to RecoverySkip's behavior.
	RecoverySanitize
)

// Options configures a Validate call.
type Options struct {
	Recovery RecoveryMode
}
