package transpiler

import (
	"fmt"
	"slices"

	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/target"
)

// LayoutMethod selects how LayoutPass chooses the initial layout.
type LayoutMethod string

const (
	// LayoutGreedy places strongly interacting qubits close together.
	LayoutGreedy LayoutMethod = "greedy"
	// LayoutTrivial maps virtual qubit i to physical qubit i.
	LayoutTrivial LayoutMethod = "trivial"
)

// ParseLayoutMethod validates a method name. The empty string selects
// LayoutGreedy.
func ParseLayoutMethod(s string) (LayoutMethod, error) {
	switch LayoutMethod(s) {
	case "", LayoutGreedy:
		return LayoutGreedy, nil
	case LayoutTrivial:
		return LayoutTrivial, nil
	}
	return "", fmt.Errorf("unknown layout method %q (want greedy or trivial)", s)
}

// PhysicalRegister names the quantum register of a laid-out circuit.
const PhysicalRegister = "q"

// LayoutPass picks an initial layout and rewrites the circuit onto the
// target's physical qubits. The chosen layout is stored under KeyLayout.
type LayoutPass struct {
	Method LayoutMethod
}

// Name implements Pass.
func (LayoutPass) Name() string { return "Layout" }

// Run implements Pass.
func (p LayoutPass) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	tg := env.Target
	if c.NumQubits() > tg.NumQubits() {
		return nil, &InsufficientQubitsError{Target: tg.Name(), Need: c.NumQubits(), Have: tg.NumQubits()}
	}
	if l, ok := env.Props.Layout(); ok && l.NumPhysical() == tg.NumQubits() && c.NumQubits() == tg.NumQubits() {
		return c, nil
	}

	var (
		layout *Layout
		err    error
	)
	switch p.Method {
	case LayoutTrivial:
		layout = TrivialLayout(c.NumQubits(), tg.NumQubits())
	case LayoutGreedy, "":
		layout, err = greedyLayout(c, tg.Coupling())
	default:
		err = fmt.Errorf("unknown layout method %q", p.Method)
	}
	if err != nil {
		return nil, err
	}

	out, err := applyLayout(c, layout)
	if err != nil {
		return nil, err
	}
	env.Props.Set(KeyLayout, layout)
	return out, nil
}

// applyLayout rewrites c onto layout.NumPhysical() physical qubits.
func applyLayout(c *ir.Circuit, layout *Layout) (*ir.Circuit, error) {
	name := PhysicalRegister
	if reg, taken := c.Register(name); taken && reg.Kind == ir.ClbitKind {
		name = PhysicalRegister + "_phys"
	}
	out, err := c.CopyEmptyWithQubits(name, layout.NumPhysical())
	if err != nil {
		return nil, fmt.Errorf("apply layout: %w", err)
	}
	for _, in := range c.Instructions() {
		for i, v := range in.Qubits {
			in.Qubits[i] = layout.Physical(v)
		}
		if err := out.AppendInstruction(in); err != nil {
			return nil, fmt.Errorf("apply layout: %w", err)
		}
	}
	return out, nil
}

// interactions counts two-qubit instructions per unordered virtual pair.
type interactions struct {
	n       int
	weight  map[[2]int]int
	degree  []int // total interaction count per virtual qubit
	partner [][]int
}

func countInteractions(c *ir.Circuit) *interactions {
	it := &interactions{
		n:       c.NumQubits(),
		weight:  make(map[[2]int]int),
		degree:  make([]int, c.NumQubits()),
		partner: make([][]int, c.NumQubits()),
	}
	for _, in := range c.All() {
		if len(in.Qubits) != 2 || in.Name() == ir.BarrierName {
			continue
		}
		a, b := min(in.Qubits[0], in.Qubits[1]), max(in.Qubits[0], in.Qubits[1])
		key := [2]int{a, b}
		if it.weight[key] == 0 {
			it.partner[a] = append(it.partner[a], b)
			it.partner[b] = append(it.partner[b], a)
		}
		it.weight[key]++
		it.degree[a]++
		it.degree[b]++
	}
	return it
}

func (it *interactions) pairWeight(a, b int) int {
	return it.weight[[2]int{min(a, b), max(a, b)}]
}

// components returns the virtual interaction components, largest first,
// ties broken by lowest member.
func (it *interactions) components() [][]int {
	seen := make([]bool, it.n)
	var comps [][]int
	for start := 0; start < it.n; start++ {
		if seen[start] {
			continue
		}
		comp := []int{start}
		seen[start] = true
		for i := 0; i < len(comp); i++ {
			for _, nb := range it.partner[comp[i]] {
				if !seen[nb] {
					seen[nb] = true
					comp = append(comp, nb)
				}
			}
		}
		slices.Sort(comp)
		comps = append(comps, comp)
	}
	slices.SortStableFunc(comps, func(a, b []int) int { return len(b) - len(a) })
	return comps
}

// maxHostSearchSteps bounds the backtracking search in assignHosts.
const maxHostSearchSteps = 1 << 16

// greedyLayout places virtual interaction components onto physical
// connected components, then places qubits one at a time near the
// partners already placed.
func greedyLayout(c *ir.Circuit, cm *target.CouplingMap) (*Layout, error) {
	it := countInteractions(c)
	layout := NewLayout(c.NumQubits(), cm.NumQubits())

	physComps := cm.Components()
	vcs := it.components()
	hosts, err := assignHosts(vcs, physComps)
	if err != nil {
		return nil, err
	}
	for i, vc := range vcs {
		placeComponent(vc, physComps[hosts[i]], it, cm, layout)
	}
	return layout, nil
}

// assignHosts picks a physical component for every virtual component.
// vcs is ordered largest first; each one takes the tightest host with
// room left (ties by lowest index), and the search backtracks when a
// later component no longer fits. Hosts with equal free capacity are
// interchangeable, so only the first of them is tried.
func assignHosts(vcs, physComps [][]int) ([]int, error) {
	free := make([]int, len(physComps))
	largest := 0
	for i, pc := range physComps {
		free[i] = len(pc)
		largest = max(largest, len(pc))
	}
	if len(vcs) > 0 && len(vcs[0]) > largest {
		return nil, &UnsatisfiableConnectivityError{
			Qubits: vcs[0],
			Reason: fmt.Sprintf("%d interacting qubits exceed every connected component of the coupling map", len(vcs[0])),
		}
	}

	hosts := make([]int, len(vcs))
	steps := 0
	var search func(k int) bool
	search = func(k int) bool {
		if k == len(vcs) {
			return true
		}
		if steps++; steps > maxHostSearchSteps {
			return false
		}
		need := len(vcs[k])
		order := make([]int, len(free))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int { return free[a] - free[b] })
		tried := make(map[int]bool)
		for _, h := range order {
			if free[h] < need || tried[free[h]] {
				continue
			}
			tried[free[h]] = true
			free[h] -= need
			hosts[k] = h
			if search(k + 1) {
				return true
			}
			free[h] += need
		}
		return false
	}
	if search(0) {
		return hosts, nil
	}

	var qubits, groups []int
	for _, vc := range vcs {
		if len(vc) > 1 {
			qubits = append(qubits, vc...)
			groups = append(groups, len(vc))
		}
	}
	slices.Sort(qubits)
	sizes := make([]int, len(physComps))
	for i, pc := range physComps {
		sizes[i] = len(pc)
	}
	reason := fmt.Sprintf("interacting groups of sizes %v cannot be packed into connected components of sizes %v", groups, sizes)
	if steps > maxHostSearchSteps {
		reason = fmt.Sprintf("no packing of interacting groups of sizes %v into connected components of sizes %v found within %d search steps", groups, sizes, maxHostSearchSteps)
	}
	return nil, &UnsatisfiableConnectivityError{Qubits: qubits, Reason: reason}
}

func placeComponent(vc, pc []int, it *interactions, cm *target.CouplingMap, layout *Layout) {
	order := slices.Clone(vc)
	slices.SortStableFunc(order, func(a, b int) int {
		if it.degree[a] != it.degree[b] {
			return it.degree[b] - it.degree[a]
		}
		return a - b
	})

	for _, v := range order {
		best, bestScore := -1, 0
		for _, p := range pc {
			if !layout.Free(p) {
				continue
			}
			score := 0
			for _, partner := range it.partner[v] {
				if pp := layout.Physical(partner); pp >= 0 {
					score += it.pairWeight(v, partner) * cm.Distance(p, pp)
				}
			}
			if best < 0 || score < bestScore || (score == bestScore && cm.Degree(p) > cm.Degree(best)) {
				best, bestScore = p, score
			}
		}
		// pc is ascending, so equal score and degree keep the lowest index.
		_ = layout.Assign(v, best)
	}
}
