package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kryonlabs/kryon/internal/kir"
	"github.com/kryonlabs/kryon/internal/krb"
	"github.com/spf13/cobra"
)

var (
	decompileOutput string
	decompileTo      string
)

var decompileCmd = &cobra.Command{
	Use:   "decompile [file]",
	Short: "Convert a compiled KRB file to its JSON KIR twin (or back)",
	Long: `Decompile reads a .krb or .kir file and re-serializes it in the other
format, without going through source text — useful for diffing two builds
or hand-editing an IR in JSON before re-packing it to binary.

Examples:
  kryonc decompile app.krb            # -> app.kir
  kryonc decompile app.kir --to krb   # -> app.krb`,
	Args: cobra.ExactArgs(1),
	RunE: runDecompile,
}

func init() {
	rootCmd.AddCommand(decompileCmd)
	decompileCmd.Flags().StringVarP(&decompileOutput, "output", "o", "", "output file (default: <input> with the target extension)")
	decompileCmd.Flags().StringVar(&decompileTo, "to", "kir", "target format: krb or kir")
}

func runDecompile(_ *cobra.Command, args []string) error {
	path := args[0]
	irv, err := loadCompiledIR(path)
	if err != nil {
		return err
	}

	var (
		data []byte
		ext  string
	)
	switch decompileTo {
	case "kir":
		meta := kir.Metadata{
			SourceFile:      irv.SourceFile,
			Compiler:        "kryonc",
			CompilerVersion: Version,
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
		}
		kirData, diags := kir.Write(irv, meta)
		printDiags(diags, path, "")
		if diags.HasErrors() {
			return fmt.Errorf("converting %s to KIR failed", path)
		}
		data, ext = kirData, ".kir"
	case "krb":
		krbData, diags := krb.Write(irv)
		printDiags(diags, path, "")
		if diags.HasErrors() {
			return fmt.Errorf("converting %s to KRB failed", path)
		}
		data, ext = krbData, ".krb"
	default:
		return fmt.Errorf("unknown target format %q (want krb or kir)", decompileTo)
	}

	out := decompileOutput
	if out == "" {
		out = defaultOutputPath(path, ext)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Converted %s -> %s\n", path, out)
	return nil
}
