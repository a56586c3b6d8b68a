package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/config"
	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Config is loaded before any subcommand runs. Commands built
	// directly in tests see nil and fall back to config.Default().
	Config *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the qpass CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "qpass",
		Short: "qpass - quantum circuit transpiler",
		Long: `Build, draw and transpile quantum circuits for constrained devices.

qpass reads OpenQASM 2.0 files and Python-style circuit scripts, maps them
onto a target's coupling graph and native gate set with a preset pass
pipeline, and keeps a SQLite history of every run.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			opts.Config = &cfg
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "qpass.yaml", "path to YAML config file")

	cmd.AddCommand(NewTranspileCommand(opts))
	cmd.AddCommand(NewDrawCommand(opts))
	cmd.AddCommand(NewExplainCommand(opts))
	cmd.AddCommand(NewConvertCommand(opts))
	cmd.AddCommand(NewTargetsCommand(opts))
	cmd.AddCommand(NewObservableCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// settings returns the loaded configuration or the defaults.
func (o *RootOptions) settings() config.Config {
	if o.Config != nil {
		return *o.Config
	}
	return config.Default()
}

// logger builds the configured slog logger writing to w.
func (o *RootOptions) logger(w io.Writer) *slog.Logger {
	return o.settings().NewLogger(w, o.Verbose)
}

// formatter returns an OutputFormatter bound to the command's streams.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// catalog returns the built-in targets plus those in dir, or in the
// configured targets_dir when dir is empty.
func (o *RootOptions) catalog(dir string) (*Catalog, error) {
	if dir == "" {
		dir = o.settings().TargetsDir
	}
	if dir == "" {
		return NewCatalog(nil)
	}
	result, errs := LoadTargets(dir, gates.Standard(), LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return NewCatalog(result.Specs)
}

// openHistory opens the history database named by path, or by the
// configured database when path is empty. It returns nil when history
// is disabled.
func (o *RootOptions) openHistory(path string) (*store.Store, error) {
	if path == "" {
		path = o.settings().Database
	}
	if path == "" {
		return nil, nil
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeDatabase, Message: err.Error()}
	}
	return st, nil
}
