package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
	"github.com/roach88/qpass/internal/transpiler"
)

// AssertionError is returned when an assertion fails.
// It includes the output circuit to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Output   string // Output circuit as OpenQASM
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Output != "" {
		fmt.Fprintf(&buf, "\nOutput:\n")
		for _, line := range strings.Split(strings.TrimSuffix(e.Output, "\n"), "\n") {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}
	return buf.String()
}

// EvaluateAssertions checks every assertion against a successful result
// and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: a.Type, Expected: expected, Actual: actual, Output: qasm.Emit(result.Circuit)}
	}

	switch a.Type {
	case AssertCountOps:
		counts := result.Circuit.CountOps()
		for _, op := range sortedKeys(a.Ops) {
			if counts[op] != a.Ops[op] {
				return fail(fmt.Sprintf("%d %s", a.Ops[op], op), fmt.Sprintf("%d %s (all: %v)", counts[op], op, counts))
			}
		}
	case AssertSwapCount:
		swaps, _ := result.Properties[transpiler.KeySwapCount].(int)
		if swaps != a.Count {
			return fail(fmt.Sprintf("%d swaps", a.Count), fmt.Sprintf("%d swaps", swaps))
		}
	case AssertMaxDepth:
		if d := result.Circuit.Depth(); d > a.Count {
			return fail(fmt.Sprintf("depth <= %d", a.Count), fmt.Sprintf("depth %d", d))
		}
	case AssertLayout:
		layout, _ := result.Properties[transpiler.KeyLayout].([]int)
		if !slices.Equal(layout, a.Layout) {
			return fail(fmt.Sprintf("layout %v", a.Layout), fmt.Sprintf("layout %v", layout))
		}
	case AssertNative:
		reg := gates.Standard()
		for i, in := range result.Circuit.All() {
			if result.Target.Supports(in.Name()) || isDirective(reg, in.Name()) {
				continue
			}
			return fail(fmt.Sprintf("only %v", result.Target.Basis()), fmt.Sprintf("instruction %d is %s", i, in.Name()))
		}
	case AssertCoupled:
		cm := result.Target.Coupling()
		for i, in := range result.Circuit.All() {
			if len(in.Qubits) != 2 || in.Name() == ir.BarrierName {
				continue
			}
			if !cm.Adjacent(in.Qubits[0], in.Qubits[1]) {
				return fail("two-qubit operations on coupled qubits",
					fmt.Sprintf("instruction %d: %s on %v", i, in.Name(), in.Qubits))
			}
		}
	default:
		return fmt.Errorf("unknown assertion type: %s", a.Type)
	}
	return nil
}

func isDirective(reg *gates.Registry, name string) bool {
	def, err := reg.Lookup(name)
	return err == nil && def.Directive
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
