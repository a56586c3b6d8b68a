package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/script"
)

// NewExplainCommand creates the explain command.
func NewExplainCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "explain <circuit>",
		Short: "Describe a circuit instruction by instruction",
		Long: `Print a Markdown walk-through of a circuit: each instruction with its
operation's description and operand roles.

With --format json the circuit summary (name, qubit count and gate list)
is printed instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := rootOpts.formatter(cmd)
			reg := gates.Standard()
			c, err := LoadCircuit(args[0], reg)
			if err != nil {
				return out.Fail(ExitCommandError, "failed to load "+args[0], err)
			}
			if rootOpts.Format == "json" {
				s, err := script.Summarize(c, reg)
				if err != nil {
					return out.Fail(ExitFailure, "failed to summarize circuit", err)
				}
				return out.Success(s)
			}
			text, err := script.Explain(c, reg)
			if err != nil {
				return out.Fail(ExitFailure, "failed to explain circuit", err)
			}
			fmt.Fprint(out.Writer, text)
			return nil
		},
	}
}
