package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kryonlabs/kryon/internal/ir"
	"github.com/kryonlabs/kryon/internal/kir"
	"github.com/kryonlabs/kryon/internal/krb"
	"github.com/kryonlabs/kryon/internal/printer"
	"github.com/spf13/cobra"
)

var printOutput string

var printCmd = &cobra.Command{
	Use:   "print [file]",
	Short: "Re-print a compiled KRB/KIR file as Kryon source",
	Long: `Print reads a previously compiled .krb or .kir file and writes it back
out as kry-flavored source text, via internal/printer — useful for
inspecting what a binary actually holds, or round-tripping a KIR file
someone hand-edited back to source.`,
	Args: cobra.ExactArgs(1),
	RunE: runPrint,
}

func init() {
	rootCmd.AddCommand(printCmd)
	printCmd.Flags().StringVarP(&printOutput, "output", "o", "", "output file (default: stdout)")
}

// loadCompiledIR reads a .krb or .kir file back into an ir.IR, dispatching
// on extension the same way parseFile dispatches source frontends.
func loadCompiledIR(path string) (*ir.IR, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".krb":
		irv, diags := krb.Read(data)
		printDiags(diags, path, "")
		if diags.HasErrors() {
			return nil, fmt.Errorf("reading %s failed", path)
		}
		return irv, nil
	case ".kir":
		irv, diags := kir.Read(data)
		printDiags(diags, path, "")
		if diags.HasErrors() {
			return nil, fmt.Errorf("reading %s failed", path)
		}
		return irv, nil
	default:
		return nil, fmt.Errorf("unrecognized compiled-IR extension %q (expected .krb or .kir)", ext)
	}
}

func runPrint(_ *cobra.Command, args []string) error {
	path := args[0]
	irv, err := loadCompiledIR(path)
	if err != nil {
		return err
	}

	src, diags := printer.Print(irv)
	printDiags(diags, path, "")
	if diags.HasErrors() {
		return fmt.Errorf("printing %s failed", path)
	}

	if printOutput == "" || printOutput == "-" {
		fmt.Print(src)
		return nil
	}
	if err := os.WriteFile(printOutput, []byte(src), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", printOutput, err)
	}
	fmt.Printf("Printed %s -> %s\n", path, printOutput)
	return nil
}
