package bytecode

import (
	"fmt"
	"math"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/ir"
)

// HostFunc is the Go-side implementation an embedding host registers for a
// declared host function, receiving already-popped, in-order arguments and
// returning a single result value, per CallHost's calling convention.
type HostFunc func(args []ir.Value) (ir.Value, error)

// HostRegistry binds host_fn_id (ir.HostFunctionDecl.ID) to its Go
// implementation. Register also records an arity, but CallHost pops the
// argument count carried in the instruction's Target, not the registered
// arity.
type HostRegistry struct {
	ir    *ir.IR
	funcs map[uint32]registeredHost
}

type registeredHost struct {
	arity int
	fn    HostFunc
}

// NewHostRegistry returns an empty registry over irv's string table. Pass
// the same *ir.IR the owning VM runs against.
func NewHostRegistry(irv *ir.IR) *HostRegistry {
	return &HostRegistry{ir: irv, funcs: map[uint32]registeredHost{}}
}

// Register binds a host function by id with its fixed arity.
func (r *HostRegistry) Register(id uint32, arity int, fn HostFunc) {
	r.funcs[id] = registeredHost{arity: arity, fn: fn}
}

// RegisterToString wires the synthetic coercion helper Compile lazily
// declares for template-string lowering (compiler.ensureToStringHost).
// Callers whose program compiled no templates need not call this.
func (r *HostRegistry) RegisterToString(id uint32) {
	r.Register(id, 1, func(args []ir.Value) (ir.Value, error) {
		return ir.StringValue(r.ir.Strings.Intern(r.stringify(args[0]))), nil
	})
}

func (r *HostRegistry) stringify(v ir.Value) string {
	switch v.Kind {
	case ir.VString:
		return r.ir.Strings.Get(v.Str)
	case ir.VInt:
		return fmt.Sprintf("%d", v.Int)
	case ir.VFloat:
		return fmt.Sprintf("%g", v.Float)
	case ir.VBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case ir.VNull:
		return ""
	default:
		return fmt.Sprintf("%v", v.Kind)
	}
}

// Trap is a non-recoverable VM fault: StackOverflow, DivByZero,
// TypeTrap, HostMissing, InstructionBudgetExceeded. A Trap always ends
// execution in the Trapped state; there is no resumable re-entry.
type Trap struct {
	Kind    diag.Kind
	Message string
}

func (t *Trap) Error() string { return fmt.Sprintf("%s: %s", t.Kind, t.Message) }

func trap(kind diag.Kind, format string, args ...any) *Trap {
	return &Trap{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// StateTable holds the shared state cells a running function reads and
// writes. Writes via SetState are visible immediately within
// the same execution; Observer notification is deferred until the function
// halts (Run calls flushPending, which calls Observe once per written cell
// with that cell's final value, in the order the cells were first written).
type StateTable struct {
	values  map[uint32]ir.Value
	Observe func(stateID uint32, val ir.Value)
}

// NewStateTable seeds a table from an IR's declared state cells (both
// top-level and per-component) so Get never needs a special not-found case
// for any valid state_id.
func NewStateTable(cells []ir.StateCell) *StateTable {
	t := &StateTable{values: map[uint32]ir.Value{}}
	for _, c := range cells {
		t.values[uint32(c.StateID)] = c.Initial
	}
	return t
}

func (t *StateTable) get(id uint32) (ir.Value, bool) {
	v, ok := t.values[id]
	return v, ok
}

func (t *StateTable) set(id uint32, v ir.Value) {
	t.values[id] = v
}

// Get exposes a state cell's current value to callers outside this
// package (internal/runtime re-evaluates property Expressions against
// the live state table, not just its compile-time Initial).
func (t *StateTable) Get(id uint32) (ir.Value, bool) {
	return t.get(id)
}

// Set writes a state cell and notifies Observe immediately, for callers
// outside the VM's own frame-buffered write path (internal/runtime's
// guest-language bridge has no per-call frame to batch pending
// writes in — a guest function's writes are already synchronous and
// single-shot from the bridge's point of view).
func (t *StateTable) Set(id uint32, v ir.Value) {
	t.set(id, v)
	if t.Observe != nil {
		t.Observe(id, v)
	}
}

const maxStackDepth = 4096
const maxInstructionBudget = 1_000_000

// PropertyAccessor backs the GetProp/SetProp opcodes with a live element
// tree. A bare VM has no element tree of its own (the State table
// covers reactive cells, not element properties), so a runtime backend
// (internal/runtime) attaches one at construction; without it GetProp/
// SetProp trap HostMissing, matching a VM used purely for handler-body
// unit tests.
type PropertyAccessor interface {
	GetProp(nodeID uint32, propID uint32) (ir.Value, bool)
	SetProp(nodeID uint32, propID uint32, v ir.Value) bool
}

// VM executes one function's Instructions to completion: a
// single-threaded, cooperative stack machine with an operand stack,
// per-call locals, the shared State table, and a Host registry. One Run
// call corresponds to one event dispatch.
type VM struct {
	IR     *ir.IR
	State  *StateTable
	Hosts  *HostRegistry
	Props  PropertyAccessor // optional; nil means GetProp/SetProp trap
	Budget int              // instructions this Run may execute before InstructionBudgetExceeded; 0 means maxInstructionBudget
}

// Run executes the function identified by fnID with the given argument
// values (already evaluated by the caller, e.g. the runtime dispatching an
// event) and returns its final stack-top value, or a *Trap.
func (vm *VM) Run(fnID uint32, args []ir.Value) (result ir.Value, err error) {
	fn := vm.IR.FindFunction(fnID)
	if fn == nil {
		return ir.Value{}, trap(diag.KindHostMissing, "no such function_id %d", fnID)
	}
	fr := &frame{
		locals:  append([]ir.Value(nil), args...),
		pending: map[uint32]ir.Value{},
	}
	defer func() {
		if r := recover(); r != nil {
			if tr, ok := r.(*Trap); ok {
				err = tr
				return
			}
			panic(r)
		}
	}()
	val := vm.exec(fn, fr)
	vm.flushPending(fr)
	return val, nil
}

// frame is one function activation: its operand stack, its locals
// (parameters plus any later SetLocal targets addressed by index), and the
// accumulated-but-not-yet-observed state writes from this execution.
type frame struct {
	stack   []ir.Value
	locals  []ir.Value
	pending map[uint32]ir.Value
	order   []uint32 // state_ids in first-write order, for deterministic notify
	depth   int
}

func (f *frame) push(v ir.Value) {
	if len(f.stack) >= maxStackDepth {
		panic(trap(diag.KindStackOverflow, "operand stack exceeded %d entries", maxStackDepth))
	}
	f.stack = append(f.stack, v)
}

func (f *frame) pop() ir.Value {
	n := len(f.stack)
	if n == 0 {
		panic(trap(diag.KindTypeTrap, "operand stack underflow"))
	}
	v := f.stack[n-1]
	f.stack = f.stack[:n-1]
	return v
}

func (f *frame) setLocal(id uint32, v ir.Value) {
	for len(f.locals) <= int(id) {
		f.locals = append(f.locals, ir.Value{})
	}
	f.locals[id] = v
}

func (f *frame) getLocal(id uint32) ir.Value {
	if int(id) >= len(f.locals) {
		return ir.Value{}
	}
	return f.locals[id]
}

func (vm *VM) flushPending(f *frame) {
	if vm.State.Observe == nil {
		return
	}
	for _, id := range f.order {
		vm.State.Observe(id, f.pending[id])
	}
}

// exec runs one function's instructions to its terminal Return (or Halt)
// and returns the value left on the stack top, or the zero Value if the
// stack is empty at exit.
func (vm *VM) exec(fn *ir.Function, f *frame) ir.Value {
	budget := vm.Budget
	if budget <= 0 {
		budget = maxInstructionBudget
	}
	pc := 0
	steps := 0
	for pc < len(fn.Instructions) {
		steps++
		if steps > budget {
			panic(trap(diag.KindInstructionBudgetExceeded, "function %q exceeded %d instructions", vm.IR.Strings.Get(fn.Name), budget))
		}
		in := fn.Instructions[pc]
		switch in.Op {
		case ir.OpPushInt:
			f.push(ir.IntValue(in.Int))
		case ir.OpPushFloat:
			f.push(ir.FloatValue(in.Float))
		case ir.OpPushString:
			f.push(ir.StringValue(in.Str))
		case ir.OpPushBool:
			f.push(ir.BoolValue(in.Bool))
		case ir.OpPop:
			f.pop()
		case ir.OpDup:
			v := f.pop()
			f.push(v)
			f.push(v)

		case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod:
			vm.arith(f, in.Op)
		case ir.OpNeg:
			v := f.pop()
			switch v.Kind {
			case ir.VInt:
				f.push(ir.IntValue(-v.Int))
			case ir.VFloat:
				f.push(ir.FloatValue(-v.Float))
			default:
				panic(trap(diag.KindTypeTrap, "Neg requires a numeric operand, got %v", v.Kind))
			}

		case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpGt, ir.OpLe, ir.OpGe:
			vm.compare(f, in.Op)

		case ir.OpAnd, ir.OpOr:
			r := f.pop()
			l := f.pop()
			lb, lok := asBool(l)
			rb, rok := asBool(r)
			if !lok || !rok {
				panic(trap(diag.KindTypeTrap, "logical operator requires bool operands"))
			}
			if in.Op == ir.OpAnd {
				f.push(ir.BoolValue(lb && rb))
			} else {
				f.push(ir.BoolValue(lb || rb))
			}
		case ir.OpNot:
			v := f.pop()
			b, ok := asBool(v)
			if !ok {
				panic(trap(diag.KindTypeTrap, "Not requires a bool operand, got %v", v.Kind))
			}
			f.push(ir.BoolValue(!b))

		case ir.OpConcat:
			r := f.pop()
			l := f.pop()
			ls, lok := vm.asString(l)
			rs, rok := vm.asString(r)
			if !lok || !rok {
				panic(trap(diag.KindTypeTrap, "Concat requires string operands"))
			}
			f.push(ir.StringValue(vm.IR.Strings.Intern(ls + rs)))

		case ir.OpGetState:
			v, ok := vm.State.get(in.ID)
			if !ok {
				panic(trap(diag.KindTypeTrap, "read of unknown state_id %d", in.ID))
			}
			if pending, ok := f.pending[in.ID]; ok {
				v = pending
			}
			f.push(v)
		case ir.OpSetState:
			v := f.pop()
			vm.State.set(in.ID, v)
			if _, seen := f.pending[in.ID]; !seen {
				f.order = append(f.order, in.ID)
			}
			f.pending[in.ID] = v

		case ir.OpGetLocal:
			f.push(f.getLocal(in.ID))
		case ir.OpSetLocal:
			f.setLocal(in.ID, f.pop())

		case ir.OpJump:
			pc = in.Offset
			continue
		case ir.OpJumpIfFalse:
			v := f.pop()
			b, ok := asBool(v)
			if !ok {
				panic(trap(diag.KindTypeTrap, "JumpIfFalse requires a bool operand, got %v", v.Kind))
			}
			if !b {
				pc = in.Offset
				continue
			}
		case ir.OpCall:
			callee := vm.IR.FindFunction(in.ID)
			if callee == nil {
				panic(trap(diag.KindHostMissing, "call to unknown function_id %d", in.ID))
			}
			if f.depth+1 > maxStackDepth {
				panic(trap(diag.KindStackOverflow, "call depth exceeded %d", maxStackDepth))
			}
			argc := len(callee.ParamIndices)
			args := make([]ir.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = f.pop()
			}
			sub := &frame{locals: args, pending: map[uint32]ir.Value{}, depth: f.depth + 1}
			result := vm.exec(callee, sub)
			// a called function's own SetState writes are visible to the
			// caller immediately (same shared StateTable) but the caller's
			// Observe notification still waits for the caller's own halt,
			// so sub's pending/order merge into f's rather than flushing now.
			for _, id := range sub.order {
				if _, seen := f.pending[id]; !seen {
					f.order = append(f.order, id)
				}
				f.pending[id] = sub.pending[id]
			}
			f.push(result)
		case ir.OpReturn:
			var v ir.Value
			if len(f.stack) > 0 {
				v = f.pop()
			}
			return v

		case ir.OpCallHost:
			// Target carries this call site's argument count (set by the
			// compiler); it is the source of truth for how many stack slots
			// to pop regardless of whether the callee ends up registered.
			argc := int(in.Target)
			h, ok := vm.Hosts.funcs[in.ID]
			if !ok {
				decl := vm.IR.FindHostFunction(in.ID)
				if decl != nil && !decl.Required {
					for i := 0; i < argc; i++ {
						f.pop()
					}
					f.push(ir.NullValue())
					pc++
					continue
				}
				panic(trap(diag.KindHostMissing, "call to unregistered required host function_id %d", in.ID))
			}
			args := make([]ir.Value, argc)
			for i := argc - 1; i >= 0; i-- {
				args[i] = f.pop()
			}
			res, hostErr := h.fn(args)
			if hostErr != nil {
				panic(trap(diag.KindTypeTrap, "host function_id %d: %v", in.ID, hostErr))
			}
			f.push(res)

		case ir.OpGetProp:
			if vm.Props == nil {
				panic(trap(diag.KindHostMissing, "GetProp requires a runtime backend, none attached"))
			}
			v, ok := vm.Props.GetProp(in.Target, in.Prop)
			if !ok {
				panic(trap(diag.KindTypeTrap, "GetProp: no element node_id %d or no value for prop %d", in.Target, in.Prop))
			}
			f.push(v)
		case ir.OpSetProp:
			if vm.Props == nil {
				panic(trap(diag.KindHostMissing, "SetProp requires a runtime backend, none attached"))
			}
			v := f.pop()
			if !vm.Props.SetProp(in.Target, in.Prop, v) {
				panic(trap(diag.KindTypeTrap, "SetProp: no element node_id %d", in.Target))
			}

		case ir.OpHalt:
			var v ir.Value
			if len(f.stack) > 0 {
				v = f.pop()
			}
			return v

		default:
			panic(trap(diag.KindBytecodeError, "unknown opcode %v", in.Op))
		}
		pc++
	}
	var v ir.Value
	if len(f.stack) > 0 {
		v = f.pop()
	}
	return v
}

// arith implements the VM's numeric rules: mixed Int/Float widens to
// Float, integer overflow wraps (Go's native int64 wraparound), integer
// div/mod by zero is DivByZero, float div by zero follows IEEE 754 (+Inf/
// -Inf/NaN, no trap).
func (vm *VM) arith(f *frame, op ir.OpCode) {
	r := f.pop()
	l := f.pop()
	if l.Kind == ir.VInt && r.Kind == ir.VInt {
		switch op {
		case ir.OpAdd:
			f.push(ir.IntValue(l.Int + r.Int))
		case ir.OpSub:
			f.push(ir.IntValue(l.Int - r.Int))
		case ir.OpMul:
			f.push(ir.IntValue(l.Int * r.Int))
		case ir.OpDiv:
			if r.Int == 0 {
				panic(trap(diag.KindDivByZero, "integer division by zero"))
			}
			f.push(ir.IntValue(l.Int / r.Int))
		case ir.OpMod:
			if r.Int == 0 {
				panic(trap(diag.KindDivByZero, "integer modulo by zero"))
			}
			f.push(ir.IntValue(l.Int % r.Int))
		}
		return
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		panic(trap(diag.KindTypeTrap, "arithmetic requires numeric operands, got %v and %v", l.Kind, r.Kind))
	}
	switch op {
	case ir.OpAdd:
		f.push(ir.FloatValue(lf + rf))
	case ir.OpSub:
		f.push(ir.FloatValue(lf - rf))
	case ir.OpMul:
		f.push(ir.FloatValue(lf * rf))
	case ir.OpDiv:
		f.push(ir.FloatValue(lf / rf)) // IEEE 754 handles /0 via Inf/NaN
	case ir.OpMod:
		f.push(ir.FloatValue(math.Mod(lf, rf)))
	}
}

func (vm *VM) compare(f *frame, op ir.OpCode) {
	r := f.pop()
	l := f.pop()
	if op == ir.OpEq || op == ir.OpNe {
		eq := valuesEqual(l, r)
		if op == ir.OpNe {
			eq = !eq
		}
		f.push(ir.BoolValue(eq))
		return
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if !lok || !rok {
		panic(trap(diag.KindTypeTrap, "ordered comparison requires numeric operands, got %v and %v", l.Kind, r.Kind))
	}
	var res bool
	switch op {
	case ir.OpLt:
		res = lf < rf
	case ir.OpGt:
		res = lf > rf
	case ir.OpLe:
		res = lf <= rf
	case ir.OpGe:
		res = lf >= rf
	}
	f.push(ir.BoolValue(res))
}

func valuesEqual(l, r ir.Value) bool {
	if l.Kind == ir.VInt || l.Kind == ir.VFloat {
		if r.Kind == ir.VInt || r.Kind == ir.VFloat {
			lf, _ := asFloat(l)
			rf, _ := asFloat(r)
			return lf == rf
		}
	}
	if l.Kind != r.Kind {
		return false
	}
	switch l.Kind {
	case ir.VString:
		return l.Str == r.Str
	case ir.VBool:
		return l.Bool == r.Bool
	case ir.VNull:
		return true
	case ir.VColor:
		return l.Color == r.Color
	case ir.VUnit:
		return l.UnitValue == r.UnitValue && l.Unit == r.Unit
	case ir.VResource:
		return l.Resource == r.Resource
	default:
		// VArray/VObject equality is not meaningful for == / != in handler
		// bodies (spec's Expression comparison operators only cover
		// scalars); treat as never-equal rather than panic.
		return false
	}
}

func asBool(v ir.Value) (bool, bool) {
	if v.Kind != ir.VBool {
		return false, false
	}
	return v.Bool, true
}

func asFloat(v ir.Value) (float64, bool) {
	switch v.Kind {
	case ir.VInt:
		return float64(v.Int), true
	case ir.VFloat:
		return v.Float, true
	default:
		return 0, false
	}
}

func (vm *VM) asString(v ir.Value) (string, bool) {
	if v.Kind != ir.VString {
		return "", false
	}
	return vm.IR.Strings.Get(v.Str), true
}
