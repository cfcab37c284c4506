package bytecode

import (
	"math"
	"testing"

	"github.com/kryonlabs/kryon/internal/ir"
)

func newTestIR() *ir.IR {
	irv := ir.New("t.kry")
	return irv
}

func addFunction(irv *ir.IR, name string, instrs []ir.Instruction, paramCount int) uint32 {
	id := uint32(len(irv.Functions))
	params := make([]uint16, paramCount)
	for i := range params {
		params[i] = uint16(i)
	}
	irv.Functions = append(irv.Functions, &ir.Function{
		FunctionID:   id,
		Name:         irv.Strings.Intern(name),
		ParamIndices: params,
		Instructions: instrs,
	})
	return id
}

func TestVMMixedIntFloatArithmeticWidens(t *testing.T) {
	irv := newTestIR()
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpPushInt, Int: 3},
		{Op: ir.OpPushFloat, Float: 0.5},
		{Op: ir.OpAdd},
		{Op: ir.OpReturn},
	}, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv)}
	got, err := vm.Run(fnID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VFloat || got.Float != 3.5 {
		t.Fatalf("expected 3.5, got %+v", got)
	}
}

func TestVMIntegerOverflowWraps(t *testing.T) {
	irv := newTestIR()
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpPushInt, Int: 9223372036854775807}, // math.MaxInt64
		{Op: ir.OpPushInt, Int: 1},
		{Op: ir.OpAdd},
		{Op: ir.OpReturn},
	}, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv)}
	got, err := vm.Run(fnID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Int != -9223372036854775808 {
		t.Fatalf("expected wraparound to MinInt64, got %v", got.Int)
	}
}

func TestVMFloatDivByZeroFollowsIEEE754(t *testing.T) {
	irv := newTestIR()
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpPushFloat, Float: 1},
		{Op: ir.OpPushFloat, Float: 0},
		{Op: ir.OpDiv},
		{Op: ir.OpReturn},
	}, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv)}
	got, err := vm.Run(fnID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if !math.IsInf(got.Float, 1) {
		t.Fatalf("expected +Inf, got %v", got.Float)
	}
}

func TestVMHostMissingRequiredTraps(t *testing.T) {
	irv := newTestIR()
	hostID := uint32(len(irv.HostFunctions))
	irv.HostFunctions = append(irv.HostFunctions, &ir.HostFunctionDecl{
		ID:       hostID,
		Name:     irv.Strings.Intern("doSomething"),
		Required: true,
	})
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpCallHost, ID: hostID, Target: 0},
		{Op: ir.OpReturn},
	}, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv)}
	_, err := vm.Run(fnID, nil)
	if err == nil {
		t.Fatalf("expected a HostMissing trap")
	}
}

func TestVMOptionalHostMissingPushesNull(t *testing.T) {
	irv := newTestIR()
	hostID := uint32(len(irv.HostFunctions))
	irv.HostFunctions = append(irv.HostFunctions, &ir.HostFunctionDecl{
		ID:       hostID,
		Name:     irv.Strings.Intern("maybeLog"),
		Required: false,
	})
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpPushInt, Int: 1},
		{Op: ir.OpCallHost, ID: hostID, Target: 1},
		{Op: ir.OpReturn},
	}, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv)}
	got, err := vm.Run(fnID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VNull {
		t.Fatalf("expected a null result for an unregistered optional host call, got %+v", got)
	}
}

func TestVMSetStateDefersObserverNotification(t *testing.T) {
	irv := newTestIR()
	irv.States = []ir.StateCell{{StateID: 0, Name: irv.Strings.Intern("count"), Type: ir.StateInt, Initial: ir.IntValue(0)}}
	fnID := addFunction(irv, "f", []ir.Instruction{
		{Op: ir.OpPushInt, Int: 1},
		{Op: ir.OpSetState, ID: 0},
		{Op: ir.OpGetState, ID: 0},
		{Op: ir.OpPushInt, Int: 1},
		{Op: ir.OpAdd},
		{Op: ir.OpSetState, ID: 0},
		{Op: ir.OpReturn},
	}, 0)
	var notified []int64
	st := NewStateTable(irv.States)
	st.Observe = func(id uint32, v ir.Value) { notified = append(notified, v.Int) }
	vm := &VM{IR: irv, State: st, Hosts: NewHostRegistry(irv)}
	if _, err := vm.Run(fnID, nil); err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if len(notified) != 1 || notified[0] != 2 {
		t.Fatalf("expected exactly one deferred notification with the final value 2, got %v", notified)
	}
}

func TestVMInstructionBudgetExceeded(t *testing.T) {
	irv := newTestIR()
	var instrs []ir.Instruction
	instrs = append(instrs, ir.Instruction{Op: ir.OpPushInt, Int: 0})
	for i := 0; i < 10; i++ {
		instrs = append(instrs, ir.Instruction{Op: ir.OpJump, Offset: 0})
	}
	fnID := addFunction(irv, "f", instrs, 0)
	vm := &VM{IR: irv, State: NewStateTable(nil), Hosts: NewHostRegistry(irv), Budget: 5}
	_, err := vm.Run(fnID, nil)
	if err == nil {
		t.Fatalf("expected an InstructionBudgetExceeded trap")
	}
}
