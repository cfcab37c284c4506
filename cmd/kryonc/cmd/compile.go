package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/kryonlabs/kryon/internal/kir"
	"github.com/kryonlabs/kryon/internal/krb"
	"github.com/kryonlabs/kryon/internal/semantic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	compileOutput   string
	compileFormat   string
	compileRecover  string
	skipValidate    bool
)

var compileCmd = &cobra.Command{
	Use:   "compile [file]",
	Short: "Compile a Kryon source file to KRB or KIR",
	Long: `Compile runs the full pipeline (parse -> build IR -> validate ->
compile handler bytecode -> serialize) and writes the result as a binary
KRB file or its JSON KIR twin.

Examples:
  kryonc compile app.kry
  kryonc compile app.kry -o app.krb
  kryonc compile app.kry --format kir -o app.kir
  kryonc compile app.kjsx --recovery sanitize`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileOutput, "output", "o", "", "output file (default: <input> with .krb/.kir extension)")
	compileCmd.Flags().StringVar(&compileFormat, "format", "krb", "output format: krb or kir")
	compileCmd.Flags().StringVar(&compileRecover, "recovery", "skip", "semantic recovery mode: none, skip, default, sanitize")
	compileCmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "skip the semantic validation pass")
}

func recoveryModeFromFlag(s string) (semantic.RecoveryMode, error) {
	switch s {
	case "none":
		return semantic.RecoveryNone, nil
	case "skip":
		return semantic.RecoverySkip, nil
	case "default":
		return semantic.RecoveryDefault, nil
	case "sanitize":
		return semantic.RecoverySanitize, nil
	default:
		return 0, fmt.Errorf("unknown recovery mode %q (want none, skip, default, or sanitize)", s)
	}
}

func runCompile(_ *cobra.Command, args []string) error {
	path := args[0]
	mode, err := recoveryModeFromFlag(compileRecover)
	if err != nil {
		return err
	}

	log.Debug("compiling", zap.String("file", path))
	br, err := loadAndBuild(path, mode != semantic.RecoveryNone)
	if err != nil {
		return err
	}

	if !skipValidate {
		diags := semantic.Validate(br.result.IR, semantic.Options{Recovery: mode})
		printDiags(diags, br.file, br.source)
		if diags.HasErrors() && mode == semantic.RecoveryNone {
			return fmt.Errorf("semantic validation of %s failed", path)
		}
	}

	if err := compileHandlers(br); err != nil {
		return err
	}

	var (
		data []byte
		ext  string
	)
	switch compileFormat {
	case "krb":
		krbData, diags := krb.Write(br.result.IR)
		printDiags(diags, br.file, br.source)
		if diags.HasErrors() {
			return fmt.Errorf("serializing %s to KRB failed", path)
		}
		data, ext = krbData, ".krb"
	case "kir":
		meta := kir.Metadata{
			SourceFile:      path,
			Compiler:        "kryonc",
			CompilerVersion: Version,
			Timestamp:       time.Now().UTC().Format(time.RFC3339),
		}
		kirData, diags := kir.Write(br.result.IR, meta)
		printDiags(diags, br.file, br.source)
		if diags.HasErrors() {
			return fmt.Errorf("serializing %s to KIR failed", path)
		}
		data, ext = kirData, ".kir"
	default:
		return fmt.Errorf("unknown output format %q (want krb or kir)", compileFormat)
	}

	out := compileOutput
	if out == "" {
		out = defaultOutputPath(path, ext)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("Compiled %s -> %s\n", path, out)
	return nil
}
