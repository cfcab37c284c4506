package semantic

import (
	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
)

// Validator runs the full set of semantic checks over a built ir.IR.
type Validator struct {
	ir    *ir.IR
	opts  Options
	diags *diag.List
}

// abortValidation is the sentinel RecoveryNone unwinds through: the first
// Error-severity diagnostic must abort every check still to run, including
// ones nested several closures deep inside ir.IR.Walk, so the cleanest way
// to unwind that far without threading an error return through every
// helper is a standard Go idiom for aborting deep call stacks on an
// exceptional condition: recover at the boundary, panic at the point of
// failure, and treat anything else escaping as a genuine bug.
type abortValidation struct{}

// pos returns the only position this package can attribute a diagnostic
// to: the IR carries no per-node source position (see package doc).
func (v *Validator) pos() diag.Position { return diag.Position{File: v.ir.SourceFile} }

// recoverOrAbort reports whether the caller should apply its own recovery
// mutation for the violation just diagnosed. Under RecoveryNone it panics
// with abortValidation instead, unwinding straight to Validate's recover.
func (v *Validator) recoverOrAbort() bool {
	if v.opts.Recovery == RecoveryNone {
		panic(abortValidation{})
	}
	return true
}

// Validate runs every check over irv and returns the
// accumulated diagnostics. Under RecoverySkip/Default/Sanitize, irv is
// mutated in place (offending properties/events/parent-edges dropped,
// defaulted, or clamped) so the IR that follows is valid even when the
// diagnostic list is non-empty; under RecoveryNone, irv is left untouched
// past the first violation and the returned list holds exactly one error.
func Validate(irv *ir.IR, opts Options) *diag.List {
	v := &Validator{ir: irv, opts: opts, diags: &diag.List{}}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if _, ok := r.(abortValidation); !ok {
					panic(r)
				}
			}
		}()
		v.checkDuplicateDefinitions()
		v.checkStyleCycles()
		v.checkCategoryViolations()
		v.checkTypeMismatches()
		v.checkInvalidHandlers()
	}()
	return v.diags
}
