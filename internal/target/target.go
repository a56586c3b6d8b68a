package target

import (
	"fmt"
	"slices"

	"github.com/roach88/qpass/internal/ir"
)

// InstructionProperties are the calibration figures of one native
// operation on one qubit tuple. Duration is in nanoseconds.
type InstructionProperties struct {
	Qubits   []int
	Error    float64
	Duration float64
}

// Target is an immutable description of a device: its qubit count, native
// operation names, connectivity and optional per-instruction figures.
type Target struct {
	name        string
	description string
	numQubits   int
	basis       []string
	native      map[string]bool
	coupling    *CouplingMap
	properties  map[string][]InstructionProperties
}

// Option configures a Target under construction.
type Option func(*Target)

// WithProperties attaches calibration figures for a native operation.
func WithProperties(op string, props ...InstructionProperties) Option {
	return func(t *Target) {
		for _, p := range props {
			p.Qubits = slices.Clone(p.Qubits)
			t.properties[op] = append(t.properties[op], p)
		}
	}
}

// WithDescription sets a free-form description.
func WithDescription(d string) Option {
	return func(t *Target) { t.description = d }
}

// New validates and builds a target. The coupling map must cover exactly
// numQubits qubits; barrier is accepted by every target and need not be
// listed in basis.
func New(name string, numQubits int, basis []string, coupling *CouplingMap, opts ...Option) (*Target, error) {
	if name == "" {
		return nil, fmt.Errorf("target: empty name")
	}
	if numQubits <= 0 {
		return nil, fmt.Errorf("target %s: qubit count must be positive, got %d", name, numQubits)
	}
	if coupling == nil {
		return nil, fmt.Errorf("target %s: missing coupling map", name)
	}
	if coupling.NumQubits() != numQubits {
		return nil, fmt.Errorf("target %s: coupling map covers %d qubits, target has %d",
			name, coupling.NumQubits(), numQubits)
	}

	t := &Target{
		name:       name,
		numQubits:  numQubits,
		native:     make(map[string]bool, len(basis)),
		coupling:   coupling,
		properties: make(map[string][]InstructionProperties),
	}
	for _, op := range basis {
		if op == "" {
			return nil, fmt.Errorf("target %s: empty operation name in basis", name)
		}
		if t.native[op] {
			return nil, fmt.Errorf("target %s: operation %q listed twice", name, op)
		}
		t.native[op] = true
		t.basis = append(t.basis, op)
	}
	for _, opt := range opts {
		opt(t)
	}

	for op, props := range t.properties {
		if !t.native[op] {
			return nil, fmt.Errorf("target %s: properties for non-native operation %q", name, op)
		}
		for _, p := range props {
			for _, q := range p.Qubits {
				if q < 0 || q >= numQubits {
					return nil, fmt.Errorf("target %s: %s properties name qubit %d", name, op, q)
				}
			}
		}
	}
	return t, nil
}

// Name returns the target name.
func (t *Target) Name() string { return t.name }

// Description returns the free-form description.
func (t *Target) Description() string { return t.description }

// NumQubits returns the number of physical qubits.
func (t *Target) NumQubits() int { return t.numQubits }

// Basis returns the native operation names in declaration order.
func (t *Target) Basis() []string { return slices.Clone(t.basis) }

// Supports reports whether name is native. Barrier is always supported.
func (t *Target) Supports(name string) bool {
	return name == ir.BarrierName || t.native[name]
}

// Coupling returns the connectivity graph.
func (t *Target) Coupling() *CouplingMap { return t.coupling }

// Properties returns the calibration figures for op.
func (t *Target) Properties(op string) []InstructionProperties {
	props := t.properties[op]
	out := make([]InstructionProperties, len(props))
	for i, p := range props {
		p.Qubits = slices.Clone(p.Qubits)
		out[i] = p
	}
	return out
}

// InstructionError returns the error rate recorded for op on qubits.
func (t *Target) InstructionError(op string, qubits []int) (float64, bool) {
	for _, p := range t.properties[op] {
		if slices.Equal(p.Qubits, qubits) {
			return p.Error, true
		}
	}
	return 0, false
}

// Hash returns the content hash of the target description.
func (t *Target) Hash() (string, error) {
	return ir.ContentHash(ir.DomainTarget, t.Spec().canonicalMap())
}
