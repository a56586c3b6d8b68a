// Command qpass transpiles quantum circuits for constrained devices.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/qpass/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "qpass:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
