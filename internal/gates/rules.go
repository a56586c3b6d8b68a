package gates

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/qpass/internal/ir"
)

// Step is one operation of an expansion, applied to operand positions of
// the operation being expanded (0 is its first qubit).
type Step struct {
	Op     ir.Operation
	Qubits []int
}

// Expansion is the replacement circuit for a single operation.
//
// Phase is the global phase the replacement is missing: the source unitary
// equals e^{i·Phase} times the product of the steps.
type Expansion struct {
	Steps []Step
	Phase float64
}

// Names returns the step operation names in order.
func (e Expansion) Names() []string {
	names := make([]string, len(e.Steps))
	for i, s := range e.Steps {
		names[i] = s.Op.Name()
	}
	return names
}

// Rule is a decomposition of one source operation into other operations.
type Rule interface {
	// Source is the name of the operation this rule expands.
	Source() string
	// Targets lists the distinct operation names the rule expands into.
	Targets() []string
	// Template lists the step names of every expansion, in order.
	Template() []string
	// Expand returns the expansion for the given source parameters.
	Expand(params []float64) (Expansion, error)
}

// ExactRule is a fixed, parameter-free decomposition.
type ExactRule struct {
	From  string
	Steps []Step
	Phase float64
}

// Source implements Rule.
func (r ExactRule) Source() string { return r.From }

// Targets implements Rule.
func (r ExactRule) Targets() []string { return distinct(r.Template()) }

// Template implements Rule.
func (r ExactRule) Template() []string {
	return Expansion{Steps: r.Steps}.Names()
}

// Expand implements Rule.
func (r ExactRule) Expand(params []float64) (Expansion, error) {
	if len(params) != 0 {
		return Expansion{}, &ParameterCountError{Op: r.From, Want: 0, Got: len(params)}
	}
	steps := make([]Step, len(r.Steps))
	for i, s := range r.Steps {
		steps[i] = Step{Op: s.Op, Qubits: slices.Clone(s.Qubits)}
	}
	return Expansion{Steps: steps, Phase: r.Phase}, nil
}

// ParametricRule computes its expansion from the source parameters.
// Uses must equal the step names Build produces for any parameters.
type ParametricRule struct {
	From  string
	Uses  []string
	Arity int // number of source parameters Build expects
	Build func(params []float64) Expansion
}

// Source implements Rule.
func (r ParametricRule) Source() string { return r.From }

// Targets implements Rule.
func (r ParametricRule) Targets() []string { return distinct(r.Uses) }

// Template implements Rule.
func (r ParametricRule) Template() []string { return slices.Clone(r.Uses) }

// Expand implements Rule.
func (r ParametricRule) Expand(params []float64) (Expansion, error) {
	if len(params) != r.Arity {
		return Expansion{}, &ParameterCountError{Op: r.From, Want: r.Arity, Got: len(params)}
	}
	exp := r.Build(params)
	if !slices.Equal(exp.Names(), r.Uses) {
		return Expansion{}, fmt.Errorf("rule for %q produced %v, declared %v", r.From, exp.Names(), r.Uses)
	}
	return exp, nil
}

func distinct(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	return out
}

func step(op ir.Operation, qubits ...int) Step {
	return Step{Op: op, Qubits: qubits}
}

func exact(from string, phase float64, steps ...Step) ExactRule {
	return ExactRule{From: from, Steps: steps, Phase: phase}
}

func parametric(from string, arity int, uses []string, build func(p []float64) Expansion) ParametricRule {
	return ParametricRule{From: from, Uses: uses, Arity: arity, Build: build}
}

// StandardRules returns the built-in decomposition rules. Order matters:
// when two rules reach a basis at equal cost the earlier one wins.
func StandardRules() []Rule {
	const pi = math.Pi
	return []Rule{
		exact("id", 0),

		exact("h", 0, step(U(pi/2, 0, pi), 0)),
		exact("h", pi/4, step(RZ(pi/2), 0), step(SX(), 0), step(RZ(pi/2), 0)),

		exact("x", 0, step(U(pi, 0, pi), 0)),
		exact("x", 0, step(SX(), 0), step(SX(), 0)),

		exact("y", 0, step(U(pi, pi/2, pi/2), 0)),
		exact("y", pi/2, step(Z(), 0), step(X(), 0)),

		exact("z", 0, step(P(pi), 0)),
		exact("z", pi/2, step(RZ(pi), 0)),

		exact("s", 0, step(P(pi/2), 0)),
		exact("sdg", 0, step(P(-pi/2), 0)),
		exact("t", 0, step(P(pi/4), 0)),
		exact("tdg", 0, step(P(-pi/4), 0)),

		exact("sx", 0, step(H(), 0), step(S(), 0), step(H(), 0)),
		exact("sx", pi/4, step(RX(pi/2), 0)),
		exact("sxdg", 0, step(SX(), 0), step(X(), 0)),
		exact("sxdg", 0, step(H(), 0), step(Sdg(), 0), step(H(), 0)),

		parametric("p", 1, []string{"rz"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(RZ(p[0]), 0)}, Phase: p[0] / 2}
		}),
		parametric("p", 1, []string{"u"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(U(0, 0, p[0]), 0)}}
		}),
		parametric("u1", 1, []string{"p"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(P(p[0]), 0)}}
		}),
		parametric("rz", 1, []string{"p"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(P(p[0]), 0)}, Phase: -p[0] / 2}
		}),

		parametric("rx", 1, []string{"u"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(U(p[0], -pi/2, pi/2), 0)}}
		}),
		parametric("rx", 1, []string{"h", "rz", "h"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(H(), 0), step(RZ(p[0]), 0), step(H(), 0)}}
		}),

		parametric("ry", 1, []string{"u"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(U(p[0], 0, 0), 0)}}
		}),
		parametric("ry", 1, []string{"sx", "rz", "sxdg"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(SX(), 0), step(RZ(p[0]), 0), step(SXdg(), 0)}}
		}),
		parametric("ry", 1, []string{"sdg", "rx", "s"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(Sdg(), 0), step(RX(p[0]), 0), step(S(), 0)}}
		}),

		parametric("u", 3, []string{"rz", "ry", "rz"}, func(p []float64) Expansion {
			return Expansion{
				Steps: []Step{step(RZ(p[2]), 0), step(RY(p[0]), 0), step(RZ(p[1]), 0)},
				Phase: (p[1] + p[2]) / 2,
			}
		}),
		parametric("u2", 2, []string{"u"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(U(pi/2, p[0], p[1]), 0)}}
		}),
		parametric("u3", 3, []string{"u"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(U(p[0], p[1], p[2]), 0)}}
		}),

		exact("cx", 0, step(H(), 1), step(CZ(), 0, 1), step(H(), 1)),
		exact("cz", 0, step(H(), 1), step(CX(), 0, 1), step(H(), 1)),
		exact("cy", 0, step(Sdg(), 1), step(CX(), 0, 1), step(S(), 1)),
		exact("ch", 0, step(RY(-pi/4), 1), step(CZ(), 0, 1), step(RY(pi/4), 1)),
		exact("swap", 0, step(CX(), 0, 1), step(CX(), 1, 0), step(CX(), 0, 1)),

		parametric("crz", 1, []string{"rz", "cx", "rz", "cx"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{
				step(RZ(p[0]/2), 1), step(CX(), 0, 1), step(RZ(-p[0]/2), 1), step(CX(), 0, 1),
			}}
		}),
		parametric("cry", 1, []string{"ry", "cx", "ry", "cx"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{
				step(RY(p[0]/2), 1), step(CX(), 0, 1), step(RY(-p[0]/2), 1), step(CX(), 0, 1),
			}}
		}),
		parametric("crx", 1, []string{"h", "crz", "h"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(H(), 1), step(CRZ(p[0]), 0, 1), step(H(), 1)}}
		}),
		parametric("cp", 1, []string{"p", "cx", "p", "cx", "p"}, func(p []float64) Expansion {
			return Expansion{Steps: []Step{
				step(P(p[0]/2), 0), step(CX(), 0, 1), step(P(-p[0]/2), 1), step(CX(), 0, 1), step(P(p[0]/2), 1),
			}}
		}),

		exact("ccx", 0,
			step(H(), 2),
			step(CX(), 1, 2), step(Tdg(), 2),
			step(CX(), 0, 2), step(T(), 2),
			step(CX(), 1, 2), step(Tdg(), 2),
			step(CX(), 0, 2), step(T(), 1), step(T(), 2), step(H(), 2),
			step(CX(), 0, 1), step(T(), 0), step(Tdg(), 1),
			step(CX(), 0, 1),
		),
	}
}

// ExpansionMatrix returns the unitary of an expansion acting on numQubits
// operands, including its phase.
func (r *Registry) ExpansionMatrix(exp Expansion, numQubits int) (Matrix, error) {
	u := Identity(1 << numQubits)
	for _, s := range exp.Steps {
		def, err := r.Lookup(s.Op.Name())
		if err != nil {
			return nil, err
		}
		if !def.Unitary() {
			return nil, fmt.Errorf("operation %q has no matrix", def.Name)
		}
		u = Embed(def.Matrix(s.Op.Params()), s.Qubits, numQubits).Mul(u)
	}
	return u.Scale(expi(exp.Phase)), nil
}
