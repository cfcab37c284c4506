// Package kir implements the canonical JSON serializer for `.kir`, the
// format used for tooling and as a cross-frontend exchange format.
// The writer assembles the envelope (`version`/`format`/`metadata`/`root`,
// plus `functions`/`states`/`host_functions` for bytecode-augmented files)
// incrementally with tidwall/sjson rather than building one giant nested
// `map[string]any`, mirroring how a hand-written writer appends fields one
// at a time (see SPEC_FULL.md's DOMAIN STACK entry for gjson/sjson). The
// reader inspects the same envelope with tidwall/gjson, which lets it
// check `format`/`version` and walk the node tree without a strict
// `encoding/json` struct unmarshal: readers ignore unknown fields and warn
// on unknown node types, which a strict struct decode would violate by
// rejecting (or silently dropping) anything it doesn't recognize.
package kir

// Format is the fixed `format` envelope value this package writes and expects.
const Format = "kir-json"

// Version is this package's `version` envelope value. Readers accept any
// version whose major component matches (mirrors internal/krb's major-only
// compatibility rule; number precision is f64 throughout for forward/
// backward compatibility).
const Version = "1.0"

// Metadata is the `metadata` object:
// `{source_file, compiler, compiler_version, timestamp, expansion_info,
// statistics}`. Timestamp is a caller-supplied RFC 3339 string rather than
// generated here — this package never calls time.Now() so that output is
// a pure function of its inputs (the same determinism discipline
// internal/krb's Write holds to).
type Metadata struct {
	SourceFile      string         `json:"source_file"`
	Compiler        string         `json:"compiler"`
	CompilerVersion string         `json:"compiler_version"`
	Timestamp       string         `json:"timestamp"`
	ExpansionInfo   map[string]any `json:"expansion_info,omitempty"`
	Statistics      map[string]int `json:"statistics,omitempty"`
}
