package transpiler

import (
	"fmt"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/target"
)

// RoutingPass inserts swap instructions so every two-qubit instruction acts
// on adjacent physical qubits.
//
// Instructions are processed in order. When the current positions of an
// instruction's operands are not adjacent, the first operand is swapped
// along the shortest path toward the second until they touch. The final
// virtual-to-physical mapping is stored under KeyFinalLayout.
type RoutingPass struct{}

// Name implements Pass.
func (RoutingPass) Name() string { return "Routing" }

// Run implements Pass.
func (RoutingPass) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	tg := env.Target
	if c.NumQubits() != tg.NumQubits() {
		if c.NumQubits() > tg.NumQubits() {
			return nil, &InsufficientQubitsError{Target: tg.Name(), Need: c.NumQubits(), Have: tg.NumQubits()}
		}
		return nil, fmt.Errorf("routing needs a circuit laid out on all %d target qubits, got %d", tg.NumQubits(), c.NumQubits())
	}

	initial, ok := env.Props.Layout()
	if !ok {
		initial = TrivialLayout(tg.NumQubits(), tg.NumQubits())
	}

	if err := checkMapped(c, tg, env.Registry); err == nil {
		if !env.Props.Has(KeyFinalLayout) {
			env.Props.Set(KeyFinalLayout, initial.Copy())
			env.Props.Set(KeySwapCount, 0)
		}
		env.Props.Set(KeyIsSwapMapped, true)
		return c, nil
	}

	r := newRouter(tg.NumQubits())
	out := c.CopyEmpty()
	for _, in := range c.Instructions() {
		if err := r.route(in, out, tg.Coupling(), env.Registry); err != nil {
			return nil, err
		}
	}

	final := NewLayout(initial.NumVirtual(), tg.NumQubits())
	for v := 0; v < initial.NumVirtual(); v++ {
		if err := final.Assign(v, r.pos[initial.Physical(v)]); err != nil {
			return nil, err
		}
	}
	env.Props.Set(KeyFinalLayout, final)
	env.Props.Set(KeySwapCount, r.swaps)
	env.Props.Set(KeyIsSwapMapped, true)
	swapsInserted.Add(float64(r.swaps))
	return out, nil
}

// router tracks where the content of each input wire currently lives.
type router struct {
	pos   []int // input wire -> current physical qubit
	occ   []int // physical qubit -> input wire
	swaps int
}

func newRouter(n int) *router {
	r := &router{pos: make([]int, n), occ: make([]int, n)}
	for i := range r.pos {
		r.pos[i] = i
		r.occ[i] = i
	}
	return r
}

func (r *router) swap(a, b int, out *ir.Circuit) error {
	if err := out.AppendAt(gates.Swap(), []int{a, b}); err != nil {
		return err
	}
	wa, wb := r.occ[a], r.occ[b]
	r.occ[a], r.occ[b] = wb, wa
	r.pos[wa], r.pos[wb] = b, a
	r.swaps++
	return nil
}

func (r *router) route(in ir.Instruction, out *ir.Circuit, cm *target.CouplingMap, reg *gates.Registry) error {
	directive := isDirective(reg, in.Name())
	if !directive && len(in.Qubits) > 2 {
		phys := make([]int, len(in.Qubits))
		for i, q := range in.Qubits {
			phys[i] = r.pos[q]
		}
		return &UnsatisfiableConnectivityError{
			Op: in.Name(), Qubits: phys,
			Reason: "operations on three or more qubits must be unrolled before routing",
		}
	}

	if !directive && len(in.Qubits) == 2 {
		a, b := r.pos[in.Qubits[0]], r.pos[in.Qubits[1]]
		if !cm.Adjacent(a, b) {
			path := cm.ShortestPath(a, b)
			if path == nil {
				return &UnsatisfiableConnectivityError{
					Op: in.Name(), Qubits: []int{a, b},
					Reason: "qubits lie in different connected components of the coupling map",
				}
			}
			for i := 0; i+2 < len(path); i++ {
				if err := r.swap(path[i], path[i+1], out); err != nil {
					return err
				}
			}
		}
	}

	for i, q := range in.Qubits {
		in.Qubits[i] = r.pos[q]
	}
	return out.AppendInstruction(in)
}

// checkMapped returns nil when every non-directive instruction acts on one
// qubit or on an adjacent pair.
func checkMapped(c *ir.Circuit, tg *target.Target, reg *gates.Registry) error {
	cm := tg.Coupling()
	for _, in := range c.All() {
		if isDirective(reg, in.Name()) || len(in.Qubits) < 2 {
			continue
		}
		if len(in.Qubits) > 2 || !cm.Adjacent(in.Qubits[0], in.Qubits[1]) {
			return &UnsatisfiableConnectivityError{Op: in.Name(), Qubits: in.Qubits, Reason: "operands are not adjacent"}
		}
	}
	return nil
}

// CheckMapPass records under KeyIsSwapMapped whether the circuit already
// respects the target's connectivity.
func CheckMapPass() Pass {
	return AnalysisFunc{Label: "CheckMap", Fn: func(c *ir.Circuit, env *Env) error {
		if c.NumQubits() > env.Target.NumQubits() {
			env.Props.Set(KeyIsSwapMapped, false)
			return nil
		}
		env.Props.Set(KeyIsSwapMapped, checkMapped(c, env.Target, env.Registry) == nil)
		return nil
	}}
}
