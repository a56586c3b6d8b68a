package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/draw"
	"github.com/roach88/qpass/internal/gates"
)

// DrawOptions holds flags for the draw command.
type DrawOptions struct {
	*RootOptions
	Plain bool
	Fold  int
}

// NewDrawCommand creates the draw command.
func NewDrawCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DrawOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "draw <circuit>",
		Short: "Draw a circuit as text",
		Long: `Draw a circuit as a wire diagram, one line per bit.

With --format json the circuit view (registers and instructions) is
printed instead of the drawing.

Examples:
  qpass draw bell.qasm
  qpass draw ghz.py --plain --fold 80`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			c, err := LoadCircuit(args[0], gates.Standard())
			if err != nil {
				return out.Fail(ExitCommandError, "failed to load "+args[0], err)
			}
			if opts.Format == "json" {
				return out.Success(c.View())
			}
			var drawOpts []draw.Option
			if opts.Plain {
				drawOpts = append(drawOpts, draw.WithPlain())
			}
			if opts.Fold > 0 {
				drawOpts = append(drawOpts, draw.WithFold(opts.Fold))
			}
			fmt.Fprint(out.Writer, draw.Circuit(c, drawOpts...))
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Plain, "plain", false, "no colour or frame")
	cmd.Flags().IntVar(&opts.Fold, "fold", 0, "wrap the drawing at this width (0 disables)")

	return cmd
}
