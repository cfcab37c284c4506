package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	verbose bool
	log     *zap.Logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "kryonc",
	Short: "Kryon UI description language compiler",
	Long: `kryonc compiles Kryon UI description source (.kry, .kryx, .kjsx, .ksx)
into the Kryon binary IR format (KRB), its JSON twin (KIR), or back into
source text, and can disassemble or run the compiled bytecode directly.`,
	Version:           Version,
	PersistentPreRunE: setupLogger,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")
}

// setupLogger builds the console logger every subcommand logs through: one
// console core whose level the --verbose flag raises from info to debug.
// kryonc has no daemon lifetime, so there's no file-logging or
// panic-capture destination to configure alongside it.
func setupLogger(cmd *cobra.Command, _ []string) error {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder
	ec.TimeKey = zapcore.OmitKey

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(ec),
		zapcore.Lock(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)
	log = zap.New(core)
	return nil
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
