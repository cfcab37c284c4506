package kir

import (
	"github.com/tidwall/gjson"

	"github.com/kryonlabs/kryon/internal/ir"
)

var opCodeByName = func() map[string]ir.OpCode {
	m := map[string]ir.OpCode{}
	for op := ir.OpPushInt; op <= ir.OpHalt; op++ {
		m[op.String()] = op
	}
	return m
}()

func instructionToJSON(irv *ir.IR, in ir.Instruction) map[string]any {
	out := map[string]any{"op": in.Op.String()}
	switch in.Op {
	case ir.OpPushInt:
		out["int"] = in.Int
	case ir.OpPushFloat:
		out["float"] = in.Float
	case ir.OpPushString:
		out["str"] = irv.Strings.Get(in.Str)
	case ir.OpPushBool:
		out["bool"] = in.Bool
	case ir.OpGetState, ir.OpSetState, ir.OpGetLocal, ir.OpSetLocal, ir.OpCall:
		out["id"] = in.ID
	case ir.OpCallHost:
		out["id"] = in.ID
		out["argc"] = in.Target
	case ir.OpGetProp, ir.OpSetProp:
		out["component_id"] = in.Target
		out["prop"] = in.Prop
	case ir.OpJump, ir.OpJumpIfFalse:
		out["offset"] = in.Offset
	}
	return out
}

func instructionFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) ir.Instruction {
	op, ok := opCodeByName[r.Get("op").String()]
	if !ok {
		warn("unknown opcode " + r.Get("op").String())
		return ir.Instruction{Op: ir.OpPop}
	}
	in := ir.Instruction{Op: op}
	switch op {
	case ir.OpPushInt:
		in.Int = r.Get("int").Int()
	case ir.OpPushFloat:
		in.Float = r.Get("float").Float()
	case ir.OpPushString:
		in.Str = irv.Strings.Intern(r.Get("str").String())
	case ir.OpPushBool:
		in.Bool = r.Get("bool").Bool()
	case ir.OpGetState, ir.OpSetState, ir.OpGetLocal, ir.OpSetLocal, ir.OpCall:
		in.ID = uint32(r.Get("id").Int())
	case ir.OpCallHost:
		in.ID = uint32(r.Get("id").Int())
		in.Target = uint32(r.Get("argc").Int())
	case ir.OpGetProp, ir.OpSetProp:
		in.Target = uint32(r.Get("component_id").Int())
		in.Prop = uint32(r.Get("prop").Int())
	case ir.OpJump, ir.OpJumpIfFalse:
		in.Offset = int(r.Get("offset").Int())
	}
	return in
}

func functionToJSON(irv *ir.IR, fn *ir.Function) map[string]any {
	params := make([]any, len(fn.ParamIndices))
	for i, p := range fn.ParamIndices {
		params[i] = p
	}
	instrs := make([]any, len(fn.Instructions))
	for i, in := range fn.Instructions {
		instrs[i] = instructionToJSON(irv, in)
	}
	return map[string]any{
		"function_id":   fn.FunctionID,
		"name":          irv.Strings.Get(fn.Name),
		"language_tag":  irv.Strings.Get(fn.LanguageTag),
		"param_indices": params,
		"code_index":    fn.CodeIndex,
		"instructions":  instrs,
	}
}

func functionFromJSON(irv *ir.IR, r gjson.Result, warn func(string)) *ir.Function {
	fn := &ir.Function{
		FunctionID:  uint32(r.Get("function_id").Int()),
		Name:        irv.Strings.Intern(r.Get("name").String()),
		LanguageTag: irv.Strings.Intern(r.Get("language_tag").String()),
		CodeIndex:   uint32(r.Get("code_index").Int()),
	}
	for _, p := range r.Get("param_indices").Array() {
		fn.ParamIndices = append(fn.ParamIndices, uint16(p.Int()))
	}
	for _, in := range r.Get("instructions").Array() {
		fn.Instructions = append(fn.Instructions, instructionFromJSON(irv, in, warn))
	}
	return fn
}

func stateToJSON(irv *ir.IR, s ir.StateCell) map[string]any {
	return map[string]any{
		"state_id": s.StateID,
		"name":     irv.Strings.Get(s.Name),
		"kind":     s.Type.String(),
		"initial":  valueToJSON(irv, s.Initial),
	}
}

var stateKindByName = map[string]ir.StateType{"int": ir.StateInt, "float": ir.StateFloat, "string": ir.StateString, "bool": ir.StateBool}

func stateFromJSON(irv *ir.IR, r gjson.Result) ir.StateCell {
	return ir.StateCell{
		StateID: uint16(r.Get("state_id").Int()),
		Name:    irv.Strings.Intern(r.Get("name").String()),
		Type:    stateKindByName[r.Get("kind").String()],
		Initial: valueFromJSON(irv, r.Get("initial")),
	}
}

func hostFunctionToJSON(irv *ir.IR, h *ir.HostFunctionDecl) map[string]any {
	return map[string]any{
		"id":        h.ID,
		"name":      irv.Strings.Get(h.Name),
		"signature": irv.Strings.Get(h.Signature),
		"required":  h.Required,
	}
}

func hostFunctionFromJSON(irv *ir.IR, r gjson.Result) *ir.HostFunctionDecl {
	return &ir.HostFunctionDecl{
		ID:        uint32(r.Get("id").Int()),
		Name:      irv.Strings.Intern(r.Get("name").String()),
		Signature: irv.Strings.Intern(r.Get("signature").String()),
		Required:  r.Get("required").Bool(),
	}
}
