package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/ir/category"
	"github.com/kryonlabs/kryon/internal/runtime"
	"github.com/kryonlabs/kryon/internal/semantic"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	runBudget   int
	runDispatch []string
	runRecover  string
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Load a compilation unit into the runtime backend and dump its render tree",
	Long: `Run builds an internal/runtime.Backend over file (source or a
compiled .krb/.kir), enumerates every element with its reduced property
values, and prints the resulting tree. --dispatch lets one or more
events fire against the loaded tree before it is (re-)printed, exercising
the bytecode VM the way a host UI's event loop would.

Examples:
  kryonc run app.krb
  kryonc run app.kry --dispatch 3:click
  kryonc run app.kry --dispatch 3:click --dispatch 3:click`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&runBudget, "budget", 0, "instruction budget per handler invocation (0 = the VM default of 1,000,000)")
	runCmd.Flags().StringArrayVar(&runDispatch, "dispatch", nil, "node_id:event_kind to dispatch before printing, repeatable")
	runCmd.Flags().StringVar(&runRecover, "recovery", "skip", "semantic recovery mode when compiling from source: none, skip, default, sanitize")
}

func runRun(_ *cobra.Command, args []string) error {
	path := args[0]
	irv, err := loadIRForPipeline(path, runRecover) // source-or-compiled dispatch already handles both
	if err != nil {
		return err
	}

	backend := runtime.New(irv, runtime.Options{
		Logger: log,
		Budget: runBudget,
	})

	// Every --dispatch is attempted even after one fails, so a single bad
	// node_id doesn't hide problems with the specs after it; the combined
	// error is returned only once the whole batch (and the tree it
	// produced) has been printed.
	var dispatchErr error
	for _, spec := range runDispatch {
		nodeID, kind, err := parseDispatchSpec(spec)
		if err != nil {
			dispatchErr = multierr.Append(dispatchErr, err)
			continue
		}
		if err := backend.DispatchEvent(nodeID, kind); err != nil {
			dispatchErr = multierr.Append(dispatchErr, fmt.Errorf("dispatching %s: %w", spec, err))
		}
	}

	printRenderTree(irv, backend.EnumerateElements())
	return dispatchErr
}

func parseDispatchSpec(spec string) (uint32, ir.EventKindTag, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed --dispatch %q (want node_id:event_kind)", spec)
	}
	id, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed --dispatch %q: %w", spec, err)
	}
	kind, ok := ir.EventKindByName[parts[1]]
	if !ok {
		return 0, 0, fmt.Errorf("malformed --dispatch %q: unknown event kind %q", spec, parts[1])
	}
	return uint32(id), kind, nil
}

func printRenderTree(irv *ir.IR, elements []runtime.RenderElement) {
	for _, el := range elements {
		fmt.Printf("node %d:\n", el.Node.NodeID)
		for prop, v := range el.Properties {
			name := category.PropertyNames[prop]
			if name == "" {
				name = fmt.Sprintf("prop#%d", prop)
			}
			fmt.Printf("  %s = %s\n", name, formatValue(irv, v))
		}
		for name, v := range el.Custom {
			fmt.Printf("  %s = %s\n", name, formatValue(irv, v))
		}
	}
}

// formatValue renders a Value for display, resolving string-table indices
// (VString) and resource-table entries (VResource) back to their text.
func formatValue(irv *ir.IR, v ir.Value) string {
	switch v.Kind {
	case ir.VString:
		return strconv.Quote(irv.Strings.Get(v.Str))
	case ir.VInt:
		return strconv.FormatInt(v.Int, 10)
	case ir.VFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case ir.VBool:
		return strconv.FormatBool(v.Bool)
	case ir.VNull:
		return "null"
	case ir.VColor:
		return fmt.Sprintf("#%02x%02x%02x%02x", v.Color[0], v.Color[1], v.Color[2], v.Color[3])
	case ir.VUnit:
		return fmt.Sprintf("%g%s", v.UnitValue, v.Unit)
	case ir.VArray:
		parts := make([]string, len(v.Array))
		for i, item := range v.Array {
			parts[i] = formatValue(irv, item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ir.VObject:
		parts := make([]string, 0, len(v.Object))
		for k, item := range v.Object {
			parts = append(parts, fmt.Sprintf("%s: %s", irv.Strings.Get(k), formatValue(irv, item)))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case ir.VResource:
		if int(v.Resource) < len(irv.Resources) {
			return irv.Strings.Get(irv.Resources[v.Resource].Path)
		}
		return fmt.Sprintf("resource#%d", v.Resource)
	default:
		return "<unknown>"
	}
}
