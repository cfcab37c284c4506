package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/semantic"
	"github.com/spf13/cobra"
)

var disasmRecover string

var disasmCmd = &cobra.Command{
	Use:   "disasm [file]",
	Short: "Disassemble a compilation unit's handler bytecode",
	Long: `Disasm prints every Function's instructions in human-readable form.
file may be Kryon source (any frontend extension, in which case it is
compiled in memory first) or an already-compiled .krb/.kir file.

This walks ir.Function.Instructions directly using ir.OpCode's existing
String() method.`,
	Args: cobra.ExactArgs(1),
	RunE: runDisasm,
}

func init() {
	rootCmd.AddCommand(disasmCmd)
	disasmCmd.Flags().StringVar(&disasmRecover, "recovery", "skip", "semantic recovery mode when compiling from source: none, skip, default, sanitize")
}

func runDisasm(_ *cobra.Command, args []string) error {
	path := args[0]
	irv, err := loadIRForPipeline(path, disasmRecover)
	if err != nil {
		return err
	}
	disassemble(os.Stdout, irv)
	return nil
}

// loadIRForPipeline accepts either a source file (compiled in memory, using
// recoverFlag to pick the semantic recovery mode) or an already-compiled
// .krb/.kir file (recoverFlag is irrelevant there).
func loadIRForPipeline(path, recoverFlag string) (*ir.IR, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".krb", ".kir":
		return loadCompiledIR(path)
	default:
		mode, err := recoveryModeFromFlag(recoverFlag)
		if err != nil {
			return nil, err
		}
		br, err := loadAndBuild(path, mode != semantic.RecoveryNone)
		if err != nil {
			return nil, err
		}
		diags := semantic.Validate(br.result.IR, semantic.Options{Recovery: mode})
		printDiags(diags, br.file, br.source)
		if diags.HasErrors() && mode == semantic.RecoveryNone {
			return nil, fmt.Errorf("semantic validation of %s failed", path)
		}
		if err := compileHandlers(br); err != nil {
			return nil, err
		}
		return br.result.IR, nil
	}
}

func disassemble(w io.Writer, irv *ir.IR) {
	for _, fn := range irv.Functions {
		name := irv.Strings.Get(fn.Name)
		if name == "" {
			name = fmt.Sprintf("<fn %d>", fn.FunctionID)
		}
		lang := irv.Strings.Get(fn.LanguageTag)
		if lang != "" {
			fmt.Fprintf(w, "== %s (function_id=%d, language=%s) ==\n", name, fn.FunctionID, lang)
			fmt.Fprintf(w, "  <source at code_index=%d, not bytecode>\n\n", fn.CodeIndex)
			continue
		}
		fmt.Fprintf(w, "== %s (function_id=%d) ==\n", name, fn.FunctionID)
		for i, ins := range fn.Instructions {
			fmt.Fprintf(w, "%4d  %s\n", i, formatInstruction(irv, ins))
		}
		fmt.Fprintln(w)
	}
}

func formatInstruction(irv *ir.IR, ins ir.Instruction) string {
	switch ins.Op {
	case ir.OpPushInt:
		return fmt.Sprintf("%-12s %d", ins.Op, ins.Int)
	case ir.OpPushFloat:
		return fmt.Sprintf("%-12s %g", ins.Op, ins.Float)
	case ir.OpPushString:
		return fmt.Sprintf("%-12s %q", ins.Op, irv.Strings.Get(ins.Str))
	case ir.OpPushBool:
		return fmt.Sprintf("%-12s %t", ins.Op, ins.Bool)
	case ir.OpGetState, ir.OpSetState, ir.OpGetLocal, ir.OpSetLocal:
		return fmt.Sprintf("%-12s id=%d", ins.Op, ins.ID)
	case ir.OpCall:
		return fmt.Sprintf("%-12s fn_id=%d", ins.Op, ins.ID)
	case ir.OpCallHost:
		return fmt.Sprintf("%-12s host_fn_id=%d argc=%d", ins.Op, ins.ID, ins.Target)
	case ir.OpGetProp, ir.OpSetProp:
		return fmt.Sprintf("%-12s component_id=%d prop=%d", ins.Op, ins.Target, ins.Prop)
	case ir.OpJump, ir.OpJumpIfFalse:
		return fmt.Sprintf("%-12s -> %d", ins.Op, ins.Offset)
	default:
		return ins.Op.String()
	}
}
