package transpiler

import (
	"fmt"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
)

// maxExpansionDepth bounds recursive rule expansion.
const maxExpansionDepth = 64

// planner picks, for every registered operation, the cheapest rule path
// into a set of accepted operations. The cost of a path is the number of
// accepted operations it finally emits.
//
// Costs are settled in increasing order (Knuth's generalisation of
// Dijkstra): an operation is settled only through rules whose steps are all
// settled already, so the chosen rules never form a cycle. Among rules of
// equal cost the first registered wins.
type planner struct {
	reg    *gates.Registry
	accept func(gates.Definition) bool
	cost   map[string]int
	chosen map[string]gates.Rule
}

func newPlanner(reg *gates.Registry, accept func(gates.Definition) bool) *planner {
	p := &planner{
		reg:    reg,
		accept: accept,
		cost:   make(map[string]int),
		chosen: make(map[string]gates.Rule),
	}

	names := reg.Names()
	for _, name := range names {
		def, _ := reg.Lookup(name)
		if accept(def) {
			p.cost[name] = 1
		}
	}

	type candidate struct {
		name string
		rule gates.Rule
	}
	for {
		best := -1
		var batch []candidate
		for _, name := range names {
			if _, settled := p.cost[name]; settled {
				continue
			}
			ruleCost, rule := p.cheapest(name)
			if rule == nil {
				continue
			}
			switch {
			case best < 0 || ruleCost < best:
				best = ruleCost
				batch = []candidate{{name, rule}}
			case ruleCost == best:
				batch = append(batch, candidate{name, rule})
			}
		}
		if len(batch) == 0 {
			return p
		}
		for _, c := range batch {
			p.cost[c.name] = best
			p.chosen[c.name] = c.rule
		}
	}
}

// cheapest returns the lowest-cost rule for name using settled operations
// only, or a nil rule when none applies yet.
func (p *planner) cheapest(name string) (int, gates.Rule) {
	bestCost := -1
	var bestRule gates.Rule
	for _, rule := range p.reg.Rules(name) {
		total := 0
		usable := true
		for _, step := range rule.Template() {
			c, ok := p.cost[step]
			if !ok {
				usable = false
				break
			}
			total += c
		}
		if usable && (bestCost < 0 || total < bestCost) {
			bestCost, bestRule = total, rule
		}
	}
	return bestCost, bestRule
}

// expand appends in to out, recursively replacing operations that are not
// accepted. Steps inherit the instruction's condition; the phase of a
// conditional expansion is dropped because it is global within its branch.
func (p *planner) expand(in ir.Instruction, out *ir.Circuit, depth int, missing func(ir.Instruction, *ir.Circuit) error) error {
	def, err := p.reg.Lookup(in.Name())
	if err != nil {
		return err
	}
	if p.accept(def) {
		return out.AppendInstruction(in)
	}
	rule, ok := p.chosen[in.Name()]
	if !ok {
		return missing(in, out)
	}
	if depth >= maxExpansionDepth {
		return fmt.Errorf("expansion of %s exceeds depth %d", in.Name(), maxExpansionDepth)
	}

	exp, err := rule.Expand(in.Op.Params())
	if err != nil {
		return fmt.Errorf("expand %s: %w", in.Name(), err)
	}
	if in.Condition == nil {
		out.AddGlobalPhase(exp.Phase)
	}
	for _, s := range exp.Steps {
		qubits := make([]int, len(s.Qubits))
		for i, pos := range s.Qubits {
			qubits[i] = in.Qubits[pos]
		}
		child := ir.Instruction{Op: s.Op, Qubits: qubits, Condition: in.Condition}
		if err := p.expand(child, out, depth+1, missing); err != nil {
			return err
		}
	}
	return nil
}

// rewrite runs expand over every instruction of c. It returns c itself
// when every instruction is already accepted.
func (p *planner) rewrite(c *ir.Circuit, missing func(ir.Instruction, *ir.Circuit) error) (*ir.Circuit, error) {
	compliant := true
	for _, in := range c.All() {
		def, err := p.reg.Lookup(in.Name())
		if err != nil {
			return nil, err
		}
		if !p.accept(def) {
			compliant = false
			break
		}
	}
	if compliant {
		return c, nil
	}

	out := c.CopyEmpty()
	for _, in := range c.Instructions() {
		if err := p.expand(in, out, 0, missing); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// BasisTranslatorPass rewrites every instruction into the target's native
// operations using the registry's decomposition rules.
type BasisTranslatorPass struct{}

// Name implements Pass.
func (BasisTranslatorPass) Name() string { return "BasisTranslator" }

// Run implements Pass.
func (BasisTranslatorPass) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	p := newPlanner(env.Registry, func(def gates.Definition) bool {
		return def.Directive || env.Target.Supports(def.Name)
	})
	return p.rewrite(c, func(in ir.Instruction, _ *ir.Circuit) error {
		return &NoDecompositionPathError{Op: in.Name(), Qubits: in.Qubits, Target: env.Target.Name()}
	})
}

// UnrollMultiQubitPass expands operations on three or more qubits into
// operations on at most two, so layout and routing only see pairs.
// Operations without such an expansion are left for routing to reject.
type UnrollMultiQubitPass struct{}

// Name implements Pass.
func (UnrollMultiQubitPass) Name() string { return "UnrollMultiQubit" }

// Run implements Pass.
func (UnrollMultiQubitPass) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	p := newPlanner(env.Registry, func(def gates.Definition) bool {
		return def.Directive || def.Variadic || def.NumQubits <= 2
	})
	return p.rewrite(c, func(in ir.Instruction, out *ir.Circuit) error {
		return out.AppendInstruction(in)
	})
}
