// Command kryonc is the Kryon compiler driver: source (.kry/.kryx/.kjsx/.ksx)
// in, KRB/KIR/re-printed-source out, with disasm and run subcommands built
// on the same pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/kryonlabs/kryon/cmd/kryonc/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
