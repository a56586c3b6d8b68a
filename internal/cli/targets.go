package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/target"
)

// TargetSummary is one row of the targets listing.
type TargetSummary struct {
	Name        string   `json:"name"`
	NumQubits   int      `json:"num_qubits"`
	Basis       []string `json:"basis"`
	Edges       int      `json:"edges"`
	Description string   `json:"description,omitempty"`
}

// ValidationResult holds target validation results.
type ValidationResult struct {
	Valid   bool              `json:"valid"`
	Targets []string          `json:"targets,omitempty"`
	Errors  []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a target file.
type ValidationIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
}

// NewTargetsCommand creates the targets command and its subcommands.
func NewTargetsCommand(rootOpts *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "targets",
		Short: "List, show and validate targets",
		Long: `Inspect the targets circuits can be transpiled for: the built-ins plus
any declared in CUE files under --targets (or targets_dir in the config).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargetsList(cmd, rootOpts, dir)
		},
	}
	cmd.PersistentFlags().StringVar(&dir, "targets", "", "directory of CUE target files")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List available targets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargetsList(cmd, rootOpts, dir)
		},
	})

	var dot bool
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Show one target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargetsShow(cmd, rootOpts, dir, args[0], dot)
		},
	}
	show.Flags().BoolVar(&dot, "dot", false, "print the coupling graph in Graphviz DOT format")
	cmd.AddCommand(show)

	cmd.AddCommand(&cobra.Command{
		Use:   "validate <targets-dir>",
		Short: "Validate CUE target files",
		Long: `Validate CUE target declarations without transpiling anything.

Every target under the top-level "target" struct is compiled and checked
against the gate registry; all problems are reported, not just the first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	})

	return cmd
}

func runTargetsList(cmd *cobra.Command, opts *RootOptions, dir string) error {
	out := opts.formatter(cmd)
	catalog, err := opts.catalog(dir)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to load targets", err)
	}

	rows := make([]TargetSummary, 0, len(catalog.Names()))
	for _, name := range catalog.Names() {
		t, _ := catalog.Lookup(name)
		rows = append(rows, TargetSummary{
			Name:        t.Name(),
			NumQubits:   t.NumQubits(),
			Basis:       t.Basis(),
			Edges:       len(t.Coupling().Edges()),
			Description: t.Description(),
		})
	}

	if opts.Format == "json" {
		return out.Success(rows)
	}
	for _, r := range rows {
		fmt.Fprintf(out.Writer, "%-10s %2d qubits  %3d edges  [%s]\n", r.Name, r.NumQubits, r.Edges, strings.Join(r.Basis, " "))
	}
	return nil
}

func runTargetsShow(cmd *cobra.Command, opts *RootOptions, dir, name string, dot bool) error {
	out := opts.formatter(cmd)
	catalog, err := opts.catalog(dir)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to load targets", err)
	}
	t, err := catalog.Lookup(name)
	if err != nil {
		return out.Fail(ExitCommandError, "failed to resolve target", err)
	}

	if dot {
		fmt.Fprint(out.Writer, t.Coupling().ToDot(t.Name()))
		return nil
	}
	if opts.Format == "json" {
		return out.Success(t.Spec())
	}
	writeTargetText(out, t)
	return nil
}

func writeTargetText(out *OutputFormatter, t *target.Target) {
	w := out.Writer
	fmt.Fprintf(w, "name:        %s\n", t.Name())
	if t.Description() != "" {
		fmt.Fprintf(w, "description: %s\n", t.Description())
	}
	fmt.Fprintf(w, "qubits:      %d\n", t.NumQubits())
	fmt.Fprintf(w, "basis:       %s\n", strings.Join(t.Basis(), " "))
	edges := t.Coupling().Edges()
	parts := make([]string, len(edges))
	for i, e := range edges {
		parts[i] = fmt.Sprintf("%d-%d", e.A, e.B)
	}
	fmt.Fprintf(w, "coupling:    %s\n", strings.Join(parts, " "))
	if hash, err := t.Hash(); err == nil {
		fmt.Fprintf(w, "hash:        %s\n", hash)
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	result, errs := LoadTargets(dir, gates.Standard(), LoadModeCollectAll)
	if result == nil && len(errs) > 0 {
		var loadErr *LoadError
		if errors.As(errs[0], &loadErr) {
			return outputValidateError(formatter, loadErr.Code, loadErr.Message)
		}
		return outputValidateError(formatter, ErrCodeGeneric, errs[0].Error())
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", result.FileCount, dir)

	if len(errs) > 0 {
		issues := make([]ValidationIssue, 0, len(errs))
		for _, err := range errs {
			issue := ValidationIssue{Code: ErrorCode(err), Message: err.Error()}
			var loadErr *LoadError
			if errors.As(err, &loadErr) {
				issue.Message = loadErr.Message
				if loadErr.Pos.IsValid() {
					issue.Line = loadErr.Pos.Line()
				}
			}
			issues = append(issues, issue)
		}
		return outputValidationErrors(formatter, issues)
	}

	names := make([]string, len(result.Specs))
	for i, s := range result.Specs {
		names[i] = s.Name
	}
	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, Targets: names})
	}
	fmt.Fprintf(formatter.Writer, "✓ All targets valid (%s)\n", strings.Join(names, ", "))
	return nil
}

// outputValidateError outputs a single load error.
func outputValidateError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputValidationErrors outputs every validation problem.
func outputValidationErrors(formatter *OutputFormatter, issues []ValidationIssue) error {
	if formatter.Format == "json" {
		response := CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: issues},
			Error:  &CLIError{Code: issues[0].Code, Message: issues[0].Message},
		}
		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, issue := range issues {
		if issue.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", issue.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(issues)))
}
