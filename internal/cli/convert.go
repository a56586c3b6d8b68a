package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/qasm"
)

// NewConvertCommand creates the convert command.
func NewConvertCommand(rootOpts *RootOptions) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <circuit>",
		Short: "Convert a circuit script to OpenQASM 2.0",
		Long: `Parse a circuit (a .py script or a QASM file) and emit it as
OpenQASM 2.0. QASM input is normalized: one statement per line with
canonical parameter formatting.

Examples:
  qpass convert bell.py
  qpass convert bell.py -o bell.qasm`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			c, err := LoadCircuit(args[0], gates.Standard())
			if err != nil {
				return out.Fail(ExitCommandError, "failed to load "+args[0], err)
			}
			src := qasm.Emit(c)
			if output != "" {
				if err := os.WriteFile(output, []byte(src), 0o644); err != nil {
					return out.Fail(ExitCommandError, "failed to write output", &LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
				}
				out.VerboseLog("wrote %s", output)
			}
			if rootOpts.Format == "json" {
				return out.Success(map[string]string{"circuit": c.Name(), "qasm": src})
			}
			if output == "" {
				fmt.Fprint(out.Writer, src)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the QASM to this file")
	return cmd
}
