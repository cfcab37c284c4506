package bytecode

import (
	"testing"

	"github.com/kryonlabs/kryon/internal/diag"
	"github.com/kryonlabs/kryon/internal/frontend/kry"
	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/builder"
)

func compileSource(t *testing.T, src string) *builder.Result {
	t.Helper()
	root, diags := kry.Parse("t.kry", src)
	if diags.HasErrors() {
		t.Fatalf("parse errors: %s", diags.Error())
	}
	res, diags := builder.Build(root, "t.kry", builder.Options{})
	if diags.HasErrors() {
		t.Fatalf("build errors: %s", diags.Error())
	}
	diags = Compile(res.IR, res.HandlerSources, res.ParamNames)
	if diags.HasErrors() {
		t.Fatalf("compile errors: %s", diags.Error())
	}
	return res
}

func findFunctionByName(irv *ir.IR, name string) *ir.Function {
	for _, fn := range irv.Functions {
		if irv.Strings.Get(fn.Name) == name {
			return fn
		}
	}
	return nil
}

func TestCompileIncrementHandlerEndsInReturn(t *testing.T) {
	res := compileSource(t, `
@var { count = 0 }
Button { text: "+" ; onClick = { count = count + 1 } }
`)
	btn := res.IR.Root.Children[0]
	var fnID uint32
	for _, b := range btn.Events {
		fnID = b.FunctionID
	}
	fn := res.IR.FindFunction(fnID)
	if fn == nil || len(fn.Instructions) == 0 {
		t.Fatalf("expected a compiled instruction sequence")
	}
	last := fn.Instructions[len(fn.Instructions)-1]
	if last.Op != ir.OpReturn {
		t.Fatalf("expected the handler body to end in Return, got %v", last.Op)
	}

	st := NewStateTable(res.IR.States)
	vm := &VM{IR: res.IR, State: st, Hosts: NewHostRegistry(res.IR)}
	if _, err := vm.Run(fnID, nil); err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	v, _ := st.get(0)
	if v.Kind != ir.VInt || v.Int != 1 {
		t.Fatalf("expected count to become 1, got %+v", v)
	}
}

func TestCompileTernaryBranches(t *testing.T) {
	res := compileSource(t, `
function pick(flag) { flag ? 1 : 2 }
`)
	fn := findFunctionByName(res.IR, "pick")
	if fn == nil {
		t.Fatalf("expected function pick to be registered")
	}
	vm := &VM{IR: res.IR, State: NewStateTable(nil), Hosts: NewHostRegistry(res.IR)}

	got, err := vm.Run(fn.FunctionID, []ir.Value{ir.BoolValue(true)})
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VInt || got.Int != 1 {
		t.Fatalf("expected 1 for true branch, got %+v", got)
	}

	got, err = vm.Run(fn.FunctionID, []ir.Value{ir.BoolValue(false)})
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VInt || got.Int != 2 {
		t.Fatalf("expected 2 for false branch, got %+v", got)
	}
}

func TestCompileFunctionCallPassesLocals(t *testing.T) {
	res := compileSource(t, `
function add(a, b) { a + b }
function callsAdd() { add(2, 3) }
`)
	caller := findFunctionByName(res.IR, "callsAdd")
	if caller == nil {
		t.Fatalf("expected function callsAdd to be registered")
	}
	vm := &VM{IR: res.IR, State: NewStateTable(nil), Hosts: NewHostRegistry(res.IR)}
	got, err := vm.Run(caller.FunctionID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VInt || got.Int != 5 {
		t.Fatalf("expected add(2,3) == 5, got %+v", got)
	}
}

func TestCompileTemplateStringConcat(t *testing.T) {
	res := compileSource(t, `
@var { count = 3 }
function describe() { "count is ${count}" }
`)
	fn := findFunctionByName(res.IR, "describe")
	if fn == nil {
		t.Fatalf("expected function describe to be registered")
	}
	st := NewStateTable(res.IR.States)
	hosts := NewHostRegistry(res.IR)
	var toStringID uint32
	for _, h := range res.IR.HostFunctions {
		if res.IR.Strings.Get(h.Name) == toStringHostName {
			toStringID = h.ID
		}
	}
	hosts.RegisterToString(toStringID)
	vm := &VM{IR: res.IR, State: st, Hosts: hosts}

	got, err := vm.Run(fn.FunctionID, nil)
	if err != nil {
		t.Fatalf("unexpected trap: %v", err)
	}
	if got.Kind != ir.VString || res.IR.Strings.Get(got.Str) != "count is 3" {
		t.Fatalf("expected %q, got %+v", "count is 3", got)
	}
}

func TestRunDivByZeroTraps(t *testing.T) {
	res := compileSource(t, `
function divZero() { 1 / 0 }
`)
	fn := findFunctionByName(res.IR, "divZero")
	vm := &VM{IR: res.IR, State: NewStateTable(nil), Hosts: NewHostRegistry(res.IR)}
	_, err := vm.Run(fn.FunctionID, nil)
	tr, ok := err.(*Trap)
	if !ok {
		t.Fatalf("expected a *Trap, got %v", err)
	}
	if tr.Kind != diag.KindDivByZero {
		t.Fatalf("expected DivByZero, got %v", tr.Kind)
	}
}
