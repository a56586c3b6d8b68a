package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/pauli"
)

// ObservableOptions holds flags for the observable command.
type ObservableOptions struct {
	*RootOptions
	Simplify  bool
	Atol      float64
	Layout    string
	Physical  int
	SortTerms bool
}

// ObservableOutput is the JSON form of an observable.
type ObservableOutput struct {
	NumQubits int          `json:"num_qubits"`
	Terms     []pauli.Pair `json:"terms"`
}

// NewObservableCommand creates the observable command.
func NewObservableCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ObservableOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "observable <term>...",
		Short: "Build and transform a Pauli observable",
		Long: `Build a sparse Pauli operator from terms such as XX, 0.5*ZI or (1+2i)*YZ,
optionally simplify it and move it onto physical qubits with a layout.

The layout lists the physical qubit of each virtual qubit, as reported
in the "layout" property of a transpilation.

Examples:
  qpass observable 0.5*XX 0.5*XX -1*ZZ --simplify
  qpass observable XZ --layout 2,0 --physical 3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runObservable(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Simplify, "simplify", false, "combine duplicate terms and drop negligible ones")
	cmd.Flags().Float64Var(&opts.Atol, "atol", 1e-8, "absolute tolerance for --simplify")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "comma-separated physical qubit per virtual qubit")
	cmd.Flags().IntVar(&opts.Physical, "physical", 0, "physical register size for --layout (default: layout maximum + 1)")
	cmd.Flags().BoolVar(&opts.SortTerms, "sort", false, "sort terms by label")

	return cmd
}

func runObservable(cmd *cobra.Command, opts *ObservableOptions, args []string) error {
	out := opts.formatter(cmd)

	terms := make([]pauli.Term, len(args))
	for i, a := range args {
		t, err := pauli.ParseTerm(a)
		if err != nil {
			return out.Fail(ExitCommandError, "invalid term", err)
		}
		terms[i] = t
	}
	op, err := pauli.New(terms...)
	if err != nil {
		return out.Fail(ExitCommandError, "invalid observable", err)
	}

	if opts.Simplify {
		op = op.Simplify(opts.Atol)
	}
	if opts.Layout != "" {
		mapping, err := parseMapping(opts.Layout)
		if err != nil {
			return out.Fail(ExitCommandError, "invalid --layout", err)
		}
		n := opts.Physical
		if n == 0 {
			for _, p := range mapping {
				n = max(n, p+1)
			}
		}
		if op, err = op.ApplyLayout(mapping, n); err != nil {
			return out.Fail(ExitFailure, "failed to apply layout", err)
		}
	}
	if opts.SortTerms {
		op = op.Sorted()
	}

	if opts.Format == "json" {
		return out.Success(ObservableOutput{NumQubits: op.NumQubits(), Terms: op.Pairs()})
	}
	fmt.Fprintln(out.Writer, op.String())
	return nil
}

func parseMapping(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	mapping := make([]int, len(parts))
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("layout entry %d: %w", i, err)
		}
		mapping[i] = v
	}
	return mapping, nil
}
