package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Target   string
	Circuit  string
	Status   string
	Limit    int
	Show     string
	Prune    int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded transpilation runs",
		Long: `List the runs recorded in the history database, newest first, show one
run in full, or prune old runs.

Examples:
  qpass history --target line5 --limit 10
  qpass history --status error
  qpass history --show 01920f3e-...
  qpass history --prune 100`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (default from config)")
	cmd.Flags().StringVar(&opts.Target, "target", "", "only runs for this target")
	cmd.Flags().StringVar(&opts.Circuit, "circuit", "", "only runs of this circuit name")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only runs with this status (success|error)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum number of runs listed (0 for all)")
	cmd.Flags().StringVar(&opts.Show, "show", "", "show the run with this ID")
	cmd.Flags().IntVar(&opts.Prune, "prune", -1, "delete all but the newest N runs")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)

	switch opts.Status {
	case "", store.StatusSuccess, store.StatusError:
	default:
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid --status %q: must be success or error", opts.Status))
	}

	st, err := opts.openHistory(opts.Database)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to open history", err)
	}
	if st == nil {
		return NewExitError(ExitCommandError, "history is disabled: set database in the config or pass --db")
	}
	defer st.Close()

	switch {
	case opts.Show != "":
		return showRun(ctx, out, st, opts.Show)
	case opts.Prune >= 0:
		n, err := st.PruneRuns(ctx, opts.Prune)
		if err != nil {
			return out.Fail(ExitFailure, "failed to prune history", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
		}
		if opts.Format == "json" {
			return out.Success(map[string]int64{"deleted": n})
		}
		fmt.Fprintf(out.Writer, "deleted %d run(s)\n", n)
		return nil
	}

	runs, err := st.ListRuns(ctx, store.ListOptions{
		Target:  opts.Target,
		Circuit: opts.Circuit,
		Status:  opts.Status,
		Limit:   opts.Limit,
	})
	if err != nil {
		return out.Fail(ExitFailure, "failed to list history", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	if opts.Format == "json" {
		return out.Success(runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out.Writer, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out.Writer, "%4d  %s  %-7s  %-12s -> %-10s O%d  %s\n",
			r.Seq, r.ID, r.Status, r.CircuitName, r.TargetName, r.Level, r.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func showRun(ctx context.Context, out *OutputFormatter, st *store.Store, id string) error {
	run, err := st.ReadRun(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return out.Fail(ExitCommandError, "run not found", &LoadError{Code: ErrCodeNotFound, Message: id})
	}
	if err != nil {
		return out.Fail(ExitFailure, "failed to read run", &LoadError{Code: ErrCodeDatabase, Message: err.Error()})
	}
	if out.Format == "json" {
		return out.Success(run)
	}

	w := out.Writer
	fmt.Fprintf(w, "id:       %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "circuit:  %s %s\n", run.CircuitName, run.CircuitHash)
	fmt.Fprintf(w, "target:   %s %s\n", run.TargetName, run.TargetHash)
	fmt.Fprintf(w, "level:    %d (%s layout)\n", run.Level, run.LayoutMethod)
	fmt.Fprintf(w, "status:   %s\n", run.Status)
	if run.Error != "" {
		fmt.Fprintf(w, "error:    %s\n", run.Error)
	}
	fmt.Fprintf(w, "duration: %s\n", run.Duration)
	fmt.Fprintf(w, "created:  %s\n", run.CreatedAt.Format(time.RFC3339))
	fmt.Fprintln(w)
	fmt.Fprint(w, run.InputQASM)
	if run.OutputQASM != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, run.OutputQASM)
	}
	return nil
}
