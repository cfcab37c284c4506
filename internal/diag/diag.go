// Package diag implements the diagnostic model shared by every stage of the
// Kryon pipeline: lexer, parsers, IR builder, validator, bytecode compiler,
// and binary reader all report through the same Diagnostic shape so a host
// can render them uniformly regardless of which stage produced them.
package diag

import (
	"fmt"
	"strings"
)

// Severity classifies a Diagnostic. The compiler exits non-zero only when an
// Error-severity diagnostic remains after recovery.
type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	default:
		return "error"
	}
}

// Kind is the closed enum of diagnostic error kinds.
type Kind string

const (
	KindLexical                    Kind = "LexicalError"
	KindSyntax                     Kind = "SyntaxError"
	KindIncludeCycle               Kind = "IncludeCycle"
	KindUnresolvedSymbol           Kind = "UnresolvedSymbol"
	KindStyleCycle                 Kind = "StyleCycle"
	KindTypeMismatch               Kind = "TypeMismatch"
	KindCategoryViolation          Kind = "CategoryViolation"
	KindDuplicateDefinition        Kind = "DuplicateDefinition"
	KindCompileTimeEvaluationError Kind = "CompileTimeEvaluationFailure"
	KindBytecodeError              Kind = "BytecodeError"
	KindBinaryError                Kind = "BinaryError"
	KindChecksumMismatch           Kind = "ChecksumMismatch"
	KindVersionIncompatible        Kind = "VersionIncompatible"
	KindStackOverflow               Kind = "StackOverflow"
	KindDivByZero                   Kind = "DivByZero"
	KindTypeTrap                     Kind = "TypeTrap"
	KindHostMissing                  Kind = "HostMissing"
	KindInstructionBudgetExceeded    Kind = "InstructionBudgetExceeded"
)

// Position pins a diagnostic to a single point in a source file.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File == "" {
		return fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
}

// Diagnostic is one reported problem: `{file, line, column, span, severity,
// message, hint?}`.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Pos      Position
	Span     int // length in runes of the offending token/expression, 0 if unknown
	Message  string
	Hint     string
}

func (d *Diagnostic) Error() string { return d.Format("") }

// Format renders the diagnostic in the canonical form:
//
//	file:line:col: error: message
//	  | <source excerpt>
//	  |     ^^^^^
//	  = hint: did you mean X?
//
// source, when non-empty, is the full text the position indexes into; the
// excerpt line is extracted from it. Passing "" omits the excerpt.
func (d *Diagnostic) Format(source string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Pos.String(), d.Severity.String(), d.Message)
	if source != "" {
		if line, ok := sourceLine(source, d.Pos.Line); ok {
			b.WriteString("\n  | ")
			b.WriteString(line)
			b.WriteString("\n  | ")
			col := d.Pos.Column
			if col < 1 {
				col = 1
			}
			b.WriteString(strings.Repeat(" ", col-1))
			span := d.Span
			if span < 1 {
				span = 1
			}
			b.WriteString(strings.Repeat("^", span))
		}
	}
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  = hint: %s", d.Hint)
	}
	return b.String()
}

func sourceLine(source string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return "", false
	}
	return lines[line-1], true
}

// List is an ordered collection of diagnostics accumulated during recovery.
// It implements error so a List can be returned/wrapped wherever a single
// error is expected; empty lists are nil-equivalent via HasErrors.
type List struct {
	items []Diagnostic
}

// Add appends a diagnostic to the list.
func (l *List) Add(d Diagnostic) { l.items = append(l.items, d) }

// Addf appends an Error-severity diagnostic built from a format string.
func (l *List) Addf(kind Kind, pos Position, format string, args ...any) {
	l.Add(Diagnostic{Kind: kind, Severity: Error, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Warnf appends a Warning-severity diagnostic.
func (l *List) Warnf(kind Kind, pos Position, format string, args ...any) {
	l.Add(Diagnostic{Kind: kind, Severity: Warning, Pos: pos, Message: fmt.Sprintf(format, args...)})
}

// Items returns the accumulated diagnostics in report order.
func (l *List) Items() []Diagnostic { return l.items }

// HasErrors reports whether any Error-severity diagnostic was recorded.
// The compiler exits non-zero exactly when this is true after recovery
// has run.
func (l *List) HasErrors() bool {
	for _, d := range l.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Error renders every diagnostic, one per line, satisfying the error
// interface so a *List can be returned directly from a stage that wants to
// fail terminally with everything it collected.
func (l *List) Error() string {
	parts := make([]string, len(l.items))
	for i := range l.items {
		parts[i] = l.items[i].Format("")
	}
	return strings.Join(parts, "\n")
}

// Merge appends another list's items onto l, preserving order. Used when a
// sub-pass (e.g. resolving one style) is run independently and its
// diagnostics need folding into the overall compilation-unit list — the
// equivalent of go.uber.org/multierr's Combine but order-preserving and
// Diagnostic-typed rather than generic errors.
func (l *List) Merge(other *List) {
	if other == nil {
		return
	}
	l.items = append(l.items, other.items...)
}
