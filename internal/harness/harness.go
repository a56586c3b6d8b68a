package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue/cuecontext"

	"github.com/roach88/qpass/internal/compiler"
	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
	"github.com/roach88/qpass/internal/runner"
	"github.com/roach88/qpass/internal/script"
	"github.com/roach88/qpass/internal/store"
	"github.com/roach88/qpass/internal/target"
	"github.com/roach88/qpass/internal/testutil"
	"github.com/roach88/qpass/internal/transpiler"
)

// Error kinds accepted by expect_error.
const (
	KindUnsatisfiableConnectivity = "unsatisfiable_connectivity"
	KindNoDecompositionPath       = "no_decomposition_path"
	KindInsufficientQubits        = "insufficient_qubits"
	KindUnknownOperation          = "unknown_operation"
	KindOther                     = "other"
)

// StatusRejected marks a request that failed before any pass ran.
const StatusRejected = "rejected"

func validErrorKind(kind string) bool {
	switch kind {
	case KindUnsatisfiableConnectivity, KindNoDecompositionPath, KindInsufficientQubits, KindUnknownOperation:
		return true
	}
	return false
}

// ErrorKind classifies a transpilation error.
func ErrorKind(err error) string {
	switch {
	case transpiler.IsUnsatisfiableConnectivity(err):
		return KindUnsatisfiableConnectivity
	case transpiler.IsNoDecompositionPath(err):
		return KindNoDecompositionPath
	case transpiler.IsInsufficientQubits(err):
		return KindInsufficientQubits
	case gates.IsUnknownOperation(err):
		return KindUnknownOperation
	default:
		return KindOther
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when the run matched expect_error or every assertion.
	Pass bool

	// Errors contains assertion and expectation failures.
	Errors []string

	// Status is the run status recorded in history.
	Status string

	// ErrorKind and FailedPass describe a failed run.
	ErrorKind  string
	FailedPass string

	// Circuit and Properties describe a successful run.
	Circuit    *ir.Circuit
	Properties map[string]any

	// Target is the resolved target.
	Target *target.Target
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{Pass: true, Errors: []string{}}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory history with a fixed run ID and
// a stepping clock. The returned error covers setup problems (unreadable
// circuit, unknown target); transpilation failures are part of the Result.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	reg := gates.Standard()

	c, err := loadCircuit(scenario.Circuit, reg)
	if err != nil {
		return nil, fmt.Errorf("failed to load circuit: %w", err)
	}
	tg, err := resolveTarget(scenario, reg)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := "scenario-" + scenario.Name
	r, err := runner.New(ctx, reg, 1,
		runner.WithHistory(st),
		runner.WithIDGenerator(runner.NewFixedGenerator(runID)),
		runner.WithNow(testutil.NewStepTime(time.Millisecond).Now),
		runner.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	result := NewResult()
	result.Target = tg
	res, runErr := r.Transpile(ctx, runner.Request{
		Circuit:      c,
		Target:       tg,
		Level:        scenario.Level,
		LayoutMethod: transpiler.LayoutMethod(scenario.LayoutMethod),
	})

	// Requests rejected before the pipeline starts leave no history.
	recorded, err := st.ReadRun(ctx, runID)
	switch {
	case err == nil:
		result.Status = recorded.Status
	case errors.Is(err, store.ErrNotFound) && runErr != nil:
		result.Status = StatusRejected
	default:
		return nil, fmt.Errorf("run was not recorded: %w", err)
	}

	if runErr != nil {
		result.ErrorKind = ErrorKind(runErr)
		var pe *transpiler.PassError
		if errors.As(runErr, &pe) {
			result.FailedPass = pe.Pass
		}
		switch scenario.ExpectError {
		case "":
			result.AddError(fmt.Sprintf("unexpected error: %v", runErr))
		case result.ErrorKind:
		default:
			result.AddError(fmt.Sprintf("expected %s error, got %s: %v", scenario.ExpectError, result.ErrorKind, runErr))
		}
		return result, nil
	}

	result.Circuit = res.Circuit
	result.Properties = res.Properties
	if scenario.ExpectError != "" {
		result.AddError(fmt.Sprintf("expected %s error, run succeeded", scenario.ExpectError))
		return result, nil
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// loadCircuit builds the input circuit from its source.
func loadCircuit(src CircuitSource, reg *gates.Registry) (*ir.Circuit, error) {
	switch {
	case src.QASM != "":
		return qasm.Parse(src.QASM, reg)
	case src.Script != "":
		return script.Parse(strings.NewReader(src.Script), reg)
	}

	data, err := os.ReadFile(src.File)
	if err != nil {
		return nil, err
	}
	switch filepath.Ext(src.File) {
	case ".qasm":
		return qasm.Parse(string(data), reg)
	case ".py":
		return script.Parse(strings.NewReader(string(data)), reg)
	default:
		return nil, fmt.Errorf("unsupported circuit file %s: want .qasm or .py", src.File)
	}
}

// resolveTarget looks the scenario target up in its CUE file, then among
// the built-ins.
func resolveTarget(scenario *Scenario, reg *gates.Registry) (*target.Target, error) {
	if scenario.TargetsFile != "" {
		data, err := os.ReadFile(scenario.TargetsFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read targets file: %w", err)
		}
		v := cuecontext.New().CompileBytes(data)
		specs, err := compiler.CompileTargets(v)
		if err != nil {
			return nil, fmt.Errorf("failed to compile targets: %w", err)
		}
		for _, spec := range specs {
			if spec.Name != scenario.Target {
				continue
			}
			if errs := compiler.Validate(spec, reg); len(errs) > 0 {
				return nil, fmt.Errorf("target %s: %w", spec.Name, errs[0])
			}
			return spec.Build()
		}
	}
	if tg, ok := target.Builtin(scenario.Target); ok {
		return tg, nil
	}
	return nil, fmt.Errorf("unknown target %q", scenario.Target)
}
