package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/target"
)

// Validation error codes (E100-E199)
const (
	// Identity and size (E101-E102)
	ErrTargetNameInvalid = "E101" // name empty or not an identifier
	ErrNumQubits         = "E102" // num_qubits must be positive

	// Basis (E103-E105)
	ErrBasisEmpty     = "E103" // at least one native operation required
	ErrBasisUnknownOp = "E104" // basis names an operation the registry lacks
	ErrBasisDuplicate = "E105" // basis lists an operation twice

	// Coupling (E106-E109)
	ErrEdgeOutOfRange = "E106" // edge endpoint outside [0, num_qubits)
	ErrEdgeSelfLoop   = "E107" // edge joins a qubit to itself
	ErrEdgeDuplicate  = "E108" // edge listed twice in either direction
	ErrAllToAllEdges  = "E109" // all_to_all together with explicit edges

	// Properties (E110-E113)
	ErrPropertyNotNative = "E110" // properties for an operation outside the basis
	ErrPropertyQubits    = "E111" // qubit tuple has wrong arity or range
	ErrPropertyError     = "E112" // error rate outside [0, 1]
	ErrPropertyDuration  = "E113" // negative duration
)

var targetNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.-]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled target description against reg.
// Returns all errors found (does not fail-fast).
func Validate(spec target.Spec, reg *gates.Registry) []ValidationError {
	var errs []ValidationError
	add := func(code, field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Code: code})
	}

	if !targetNameRegex.MatchString(spec.Name) {
		add(ErrTargetNameInvalid, "name", "target name %q must start with a letter and contain only letters, digits, '_', '.' or '-'", spec.Name)
	}
	if spec.NumQubits <= 0 {
		add(ErrNumQubits, "num_qubits", "num_qubits must be positive, got %d", spec.NumQubits)
	}

	// Basis
	if len(spec.Basis) == 0 {
		add(ErrBasisEmpty, "basis", "at least one native operation is required")
	}
	native := make(map[string]bool, len(spec.Basis))
	for i, name := range spec.Basis {
		field := fmt.Sprintf("basis[%d]", i)
		name = strings.TrimSpace(name)
		if native[name] {
			add(ErrBasisDuplicate, field, "duplicate operation %q", name)
		}
		native[name] = true
		if !reg.Has(name) {
			add(ErrBasisUnknownOp, field, "unknown operation %q", name)
		}
	}

	// Coupling
	if spec.AllToAll && len(spec.Coupling) > 0 {
		add(ErrAllToAllEdges, "coupling", "all_to_all targets must not list edges")
	}
	seen := make(map[[2]int]bool, len(spec.Coupling))
	for i, e := range spec.Coupling {
		field := fmt.Sprintf("coupling[%d]", i)
		if !inRange(e[0], spec.NumQubits) || !inRange(e[1], spec.NumQubits) {
			add(ErrEdgeOutOfRange, field, "edge [%d, %d] is outside 0..%d", e[0], e[1], spec.NumQubits-1)
			continue
		}
		if e[0] == e[1] {
			add(ErrEdgeSelfLoop, field, "edge [%d, %d] is a self-loop", e[0], e[1])
			continue
		}
		key := [2]int{min(e[0], e[1]), max(e[0], e[1])}
		if seen[key] {
			add(ErrEdgeDuplicate, field, "edge [%d, %d] is listed twice", e[0], e[1])
		}
		seen[key] = true
	}

	// Properties, in sorted operation order for stable output
	for _, op := range sortedOps(spec.Properties) {
		if !native[op] {
			add(ErrPropertyNotNative, "properties."+op, "operation %q is not in the basis", op)
			continue
		}
		arity := -1
		if def, err := reg.Lookup(op); err == nil && !def.Variadic {
			arity = def.NumQubits
		}
		for i, p := range spec.Properties[op] {
			field := fmt.Sprintf("properties.%s[%d]", op, i)
			if arity >= 0 && len(p.Qubits) != arity {
				add(ErrPropertyQubits, field+".qubits", "%s acts on %d qubits, got %d", op, arity, len(p.Qubits))
			}
			for _, q := range p.Qubits {
				if !inRange(q, spec.NumQubits) {
					add(ErrPropertyQubits, field+".qubits", "qubit %d is outside 0..%d", q, spec.NumQubits-1)
				}
			}
			if p.Error < 0 || p.Error > 1 {
				add(ErrPropertyError, field+".error", "error rate %v is outside [0, 1]", p.Error)
			}
			if p.Duration < 0 {
				add(ErrPropertyDuration, field+".duration", "duration %v is negative", p.Duration)
			}
		}
	}

	return errs
}

func inRange(q, n int) bool { return q >= 0 && q < n }

func sortedOps(m map[string][]target.PropertySpec) []string {
	ops := make([]string, 0, len(m))
	for op := range m {
		ops = append(ops, op)
	}
	slices.Sort(ops)
	return ops
}
