package runtime

import (
	"fmt"

	"github.com/kryonlabs/kryon/internal/bytecode"
	"github.com/kryonlabs/kryon/internal/ir"
)

// GuestReader/GuestWriter are the two primitives the host bridge exposes
// to a non-bytecode guest: `get(name) → value` and `set(name, value)`,
// both bound to the shared state table by name.
type GuestReader func(name string) ir.Value
type GuestWriter func(name string, v ir.Value)

// GuestRunner executes one function's literal source in a specific guest
// language. The contract mirrors the host-function-bridge tuple
// `(function_id, language_tag, parameter_name[], code_string,
// state_readers, state_writers)` almost verbatim — only the bytecode path
// is implemented in this module (internal/bytecode's VM); any other
// language is an embedding concern this interface hands off to, treating
// host-function execution as synchronous from the VM's point of view but
// implemented elsewhere.
type GuestRunner func(paramNames []string, code string, get GuestReader, set GuestWriter) error

// GuestBridge dispatches a Function whose LanguageTag names a
// non-bytecode language to the GuestRunner registered for that tag. A
// language tag with no registered runner is a dispatch-time error (spec
// §7's closed error-kind enum has no dedicated kind for this — it is an
// external-interface configuration error, not one of the compiler/VM
// trap kinds, so it is reported as a plain error rather than a *Trap).
type GuestBridge struct {
	runners map[string]GuestRunner
}

// NewGuestBridge returns an empty bridge; register languages with Register.
func NewGuestBridge() *GuestBridge {
	return &GuestBridge{runners: map[string]GuestRunner{}}
}

// Register binds a language tag (as named in `function <lang> name(...)`,
// spec's frontend grammar) to its GuestRunner.
func (g *GuestBridge) Register(languageTag string, runner GuestRunner) {
	g.runners[languageTag] = runner
}

// Run resolves fn's language tag to a GuestRunner and invokes it with
// synthetic parameter names p0, p1, ... (one per ParamIndices entry), the
// function's literal code string, and get/set
// closures bound to irv's string table and the live state table. fn's own
// parameters are not state cells (they are call arguments — ComponentDef
// params distinguish the two), so get/set here address only
// top-level and component state_ids by name — a guest body has no
// bytecode-compiled GetLocal/SetLocal to fall back on.
func (g *GuestBridge) Run(irv *ir.IR, state *bytecode.StateTable, fn *ir.Function) error {
	lang := irv.Strings.Get(fn.LanguageTag)
	runner, ok := g.runners[lang]
	if !ok {
		return fmt.Errorf("guest bridge: no runner registered for language %q (function_id %d)", lang, fn.FunctionID)
	}

	byName := map[string]uint32{}
	for _, cell := range irv.States {
		byName[irv.Strings.Get(cell.Name)] = uint32(cell.StateID)
	}

	get := func(name string) ir.Value {
		id, ok := byName[name]
		if !ok {
			return ir.NullValue()
		}
		v, ok := state.Get(id)
		if !ok {
			return ir.NullValue()
		}
		return v
	}
	set := func(name string, v ir.Value) {
		id, ok := byName[name]
		if !ok {
			return
		}
		state.Set(id, v)
	}

	paramNames := make([]string, len(fn.ParamIndices))
	for i := range fn.ParamIndices {
		paramNames[i] = fmt.Sprintf("p%d", i)
	}

	return runner(paramNames, irv.Strings.Get(fn.CodeIndex), get, set)
}
