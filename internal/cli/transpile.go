package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/qasm"
	"github.com/roach88/qpass/internal/runner"
	"github.com/roach88/qpass/internal/script"
	"github.com/roach88/qpass/internal/transpiler"
)

// TranspileOptions holds flags for the transpile command.
type TranspileOptions struct {
	*RootOptions
	Target     string
	Level      int
	Layout     string
	TargetsDir string
	Database   string
	NoHistory  bool
	Output     string
	Metrics    string
}

// TranspileOutput is the JSON form of one transpiled circuit.
type TranspileOutput struct {
	File       string         `json:"file"`
	RunID      string         `json:"run_id"`
	Key        string         `json:"run_key"`
	Target     string         `json:"target"`
	Level      int            `json:"level"`
	Cached     bool           `json:"cached"`
	QASM       string         `json:"qasm"`
	Properties map[string]any `json:"properties"`
}

// NewTranspileCommand creates the transpile command.
func NewTranspileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TranspileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "transpile <circuit>...",
		Short: "Map circuits onto a target",
		Long: `Transpile circuits for a target with a preset pass pipeline.

Circuits are OpenQASM 2.0 files or Python-style scripts (.py). Several
circuits run concurrently. Every fresh run is recorded in the history
database; identical requests are answered from the cache.

Examples:
  qpass transpile bell.qasm --target line5
  qpass transpile ghz.py --target grid3x3 --level 3 --layout trivial
  qpass transpile *.qasm --target tee4 --targets ./devices --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranspile(cmd, opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "target name (built-in or from --targets)")
	cmd.Flags().IntVarP(&opts.Level, "level", "O", 1, "optimization level 0..3 (default from config)")
	cmd.Flags().StringVar(&opts.Layout, "layout", "", "layout method: greedy or trivial (default from config)")
	cmd.Flags().StringVar(&opts.TargetsDir, "targets", "", "directory of CUE target files")
	cmd.Flags().StringVar(&opts.Database, "db", "", "history database path (default from config)")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record runs")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write the transpiled QASM to this file (single circuit only)")
	cmd.Flags().StringVar(&opts.Metrics, "metrics", "", "write pass metrics in Prometheus text format to this file")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runTranspile(cmd *cobra.Command, opts *TranspileOptions, files []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := opts.formatter(cmd)
	cfg := opts.settings()

	level := cfg.OptimizationLevel
	if cmd.Flags().Changed("level") {
		level = opts.Level
	}
	if level < 0 || level > 3 {
		return NewExitError(ExitCommandError, fmt.Sprintf("level must be 0..3, got %d", level))
	}
	method := cfg.Layout()
	if opts.Layout != "" {
		m, err := transpiler.ParseLayoutMethod(opts.Layout)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --layout", err)
		}
		method = m
	}
	if opts.Output != "" && len(files) > 1 {
		return NewExitError(ExitCommandError, "--output requires a single circuit")
	}

	reg := gates.Standard()
	catalog, err := opts.catalog(opts.TargetsDir)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to load targets", err)
	}
	tg, err := catalog.Lookup(opts.Target)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to resolve target", err)
	}

	logger := opts.logger(cmd.ErrOrStderr())
	reqs := make([]runner.Request, len(files))
	for i, f := range files {
		c, err := LoadCircuit(f, reg, script.WithLogger(logger))
		if err != nil {
			return out.Fail(ExitCommandError, "failed to load "+f, err)
		}
		reqs[i] = runner.Request{Circuit: c, Target: tg, Level: level, LayoutMethod: method}
	}

	runOpts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithParallelism(cfg.Parallelism),
		runner.WithPassOptions(transpiler.WithLogger(logger)),
	}
	if len(cfg.KeepProperties) > 0 {
		runOpts = append(runOpts, runner.WithPassOptions(transpiler.WithKeepProperties(cfg.KeepProperties...)))
	}
	if !opts.NoHistory {
		st, err := opts.openHistory(opts.Database)
		if err != nil {
			return out.Fail(ExitCommandError, "failed to open history", err)
		}
		if st != nil {
			defer st.Close()
			runOpts = append(runOpts, runner.WithHistory(st))
		}
	}

	r, err := runner.New(ctx, reg, cfg.CacheSize, runOpts...)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to start runner", err)
	}
	results, err := r.TranspileAll(ctx, reqs)
	if opts.Metrics != "" {
		if werr := prometheus.WriteToTextfile(opts.Metrics, prometheus.DefaultGatherer); werr != nil {
			logger.Warn("failed to write metrics", "path", opts.Metrics, "error", werr)
		}
	}
	if err != nil {
		return out.Fail(ExitFailure, "transpilation failed", err)
	}

	outputs := make([]TranspileOutput, len(results))
	for i, res := range results {
		outputs[i] = TranspileOutput{
			File:       files[i],
			RunID:      res.RunID,
			Key:        res.Key,
			Target:     tg.Name(),
			Level:      level,
			Cached:     res.Cached,
			QASM:       qasm.Emit(res.Circuit),
			Properties: res.Properties,
		}
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(outputs[0].QASM), 0o644); err != nil {
			return out.Fail(ExitCommandError, "failed to write output", &LoadError{Code: ErrCodeWriteFailed, Message: err.Error()})
		}
	}

	if opts.Format == "json" {
		return out.Success(outputs)
	}
	for i, o := range outputs {
		if i > 0 {
			fmt.Fprintln(out.Writer)
		}
		writeTranspileText(out.Writer, o, opts.Output == "")
	}
	return nil
}

func writeTranspileText(w io.Writer, o TranspileOutput, withQASM bool) {
	status := "fresh"
	if o.Cached {
		status = "cached"
	}
	fmt.Fprintf(w, "// %s -> %s (level %d, run %s, %s)\n", o.File, o.Target, o.Level, o.RunID, status)
	if withQASM {
		fmt.Fprint(w, o.QASM)
	}
	keys := make([]string, 0, len(o.Properties))
	for k := range o.Properties {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "// %s: %v\n", k, o.Properties[k])
	}
}
