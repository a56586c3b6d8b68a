package gates

import (
	"fmt"
	"slices"

	"github.com/roach88/qpass/internal/ir"
)

// Registry is an immutable instruction set: operation definitions plus the
// decomposition rules between them. A built Registry is safe for
// concurrent use.
type Registry struct {
	defs  map[string]Definition
	order []string
	rules map[string][]Rule
}

// Builder accumulates definitions and rules. Build validates and freezes
// them into a Registry.
type Builder struct {
	defs  []Definition
	rules []Rule
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// StandardBuilder returns a builder preloaded with the standard
// definitions and rules, ready to be extended.
func StandardBuilder() *Builder {
	return NewBuilder().Define(StandardDefinitions()...).Decompose(StandardRules()...)
}

// Define adds operation definitions.
func (b *Builder) Define(defs ...Definition) *Builder {
	b.defs = append(b.defs, defs...)
	return b
}

// Decompose adds decomposition rules.
func (b *Builder) Decompose(rules ...Rule) *Builder {
	b.rules = append(b.rules, rules...)
	return b
}

// Build validates the accumulated definitions and rules.
//
// Every rule must expand a defined, parameter-compatible source into
// defined operations whose arity matches and whose operands stay within
// the source's qubits. Parametric rules are checked by expanding them once
// with zero parameters.
func (b *Builder) Build() (*Registry, error) {
	r := &Registry{
		defs:  make(map[string]Definition, len(b.defs)),
		rules: make(map[string][]Rule),
	}
	for _, d := range b.defs {
		if d.Name == "" {
			return nil, fmt.Errorf("definition with empty name")
		}
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("operation %q defined twice", d.Name)
		}
		if !d.Variadic && d.NumQubits <= 0 {
			return nil, fmt.Errorf("operation %q: qubit count must be positive", d.Name)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}

	for i, rule := range b.rules {
		if err := r.checkRule(i, rule); err != nil {
			return nil, err
		}
		r.rules[rule.Source()] = append(r.rules[rule.Source()], rule)
	}
	return r, nil
}

func (r *Registry) checkRule(index int, rule Rule) error {
	fail := func(format string, args ...any) error {
		return &RuleError{Source: rule.Source(), Index: index, Message: fmt.Sprintf(format, args...)}
	}

	src, ok := r.defs[rule.Source()]
	if !ok {
		return fail("source is not defined")
	}
	if src.Variadic || src.Directive || !src.Unitary() {
		return fail("source must be a fixed-width unitary")
	}
	exp, err := rule.Expand(make([]float64, src.NumParams))
	if err != nil {
		return fail("%v", err)
	}
	if !slices.Equal(exp.Names(), rule.Template()) {
		return fail("expansion %v does not match template %v", exp.Names(), rule.Template())
	}
	for _, s := range exp.Steps {
		def, ok := r.defs[s.Op.Name()]
		if !ok {
			return fail("step %q is not defined", s.Op.Name())
		}
		if err := def.check(s.Op); err != nil {
			return fail("%v", err)
		}
		if len(s.Qubits) != s.Op.NumQubits() {
			return fail("step %q names %d operand(s), wants %d", s.Op.Name(), len(s.Qubits), s.Op.NumQubits())
		}
		seen := make(map[int]bool, len(s.Qubits))
		for _, q := range s.Qubits {
			if q < 0 || q >= src.NumQubits || seen[q] {
				return fail("step %q has invalid operand %d", s.Op.Name(), q)
			}
			seen[q] = true
		}
	}
	return nil
}

// check validates an operation instance against its definition.
func (d Definition) check(op ir.Operation) error {
	if !d.Variadic && op.NumQubits() != d.NumQubits {
		return &ir.ArityMismatchError{Op: d.Name, Kind: ir.QubitKind, Want: d.NumQubits, Got: op.NumQubits()}
	}
	if d.Variadic && op.NumQubits() <= 0 {
		return &ir.ArityMismatchError{Op: d.Name, Kind: ir.QubitKind, Want: 1, Got: op.NumQubits()}
	}
	if op.NumClbits() != d.NumClbits {
		return &ir.ArityMismatchError{Op: d.Name, Kind: ir.ClbitKind, Want: d.NumClbits, Got: op.NumClbits()}
	}
	if op.NumParams() != d.NumParams {
		return &ParameterCountError{Op: d.Name, Want: d.NumParams, Got: op.NumParams()}
	}
	return nil
}

// Standard builds a fresh registry holding the standard definitions and
// rules.
func Standard() *Registry {
	reg, err := StandardBuilder().Build()
	if err != nil {
		panic(fmt.Sprintf("standard registry: %v", err))
	}
	return reg
}

// Lookup returns the definition for name.
func (r *Registry) Lookup(name string) (Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return Definition{}, &UnknownOperationError{Name: name}
	}
	return d, nil
}

// Has reports whether name is defined.
func (r *Registry) Has(name string) bool {
	_, ok := r.defs[name]
	return ok
}

// Names returns the defined operation names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Rules returns the rules expanding name, in registration order.
func (r *Registry) Rules(name string) []Rule {
	return slices.Clone(r.rules[name])
}

// Operation builds a fixed-width operation by name.
func (r *Registry) Operation(name string, params ...float64) (ir.Operation, error) {
	d, err := r.Lookup(name)
	if err != nil {
		return ir.Operation{}, err
	}
	return d.Operation(params...)
}

// Validate checks that op is defined and matches its definition.
func (r *Registry) Validate(op ir.Operation) error {
	d, err := r.Lookup(op.Name())
	if err != nil {
		return err
	}
	return d.check(op)
}

// Unitary returns the matrix of a single instruction operation.
func (r *Registry) Unitary(op ir.Operation) (Matrix, error) {
	d, err := r.Lookup(op.Name())
	if err != nil {
		return nil, err
	}
	if !d.Unitary() {
		return nil, fmt.Errorf("operation %q has no matrix", op.Name())
	}
	return d.Matrix(op.Params()), nil
}

// CircuitUnitary returns the full unitary of c, including its global
// phase. Barriers are skipped; any other non-unitary operation is an error.
func (r *Registry) CircuitUnitary(c *ir.Circuit) (Matrix, error) {
	n := c.NumQubits()
	u := Identity(1 << n)
	for i, in := range c.All() {
		d, err := r.Lookup(in.Name())
		if err != nil {
			return nil, err
		}
		if d.Directive {
			continue
		}
		if !d.Unitary() || in.Condition != nil {
			return nil, fmt.Errorf("instruction %d (%s) is not unitary", i, in.Name())
		}
		u = Embed(d.Matrix(in.Op.Params()), in.Qubits, n).Mul(u)
	}
	return u.Scale(expi(c.GlobalPhase())), nil
}
