package transpiler

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/qpass/internal/ir"
)

// angleTolerance is the tolerance for treating an angle as a multiple of 2π.
const angleTolerance = 1e-12

// inversePairs maps each operation to the operation that undoes it exactly.
var inversePairs = map[string]string{
	"id": "id", "h": "h", "x": "x", "y": "y", "z": "z",
	"cx": "cx", "cy": "cy", "cz": "cz", "swap": "swap", "ccx": "ccx",
	"s": "sdg", "sdg": "s", "t": "tdg", "tdg": "t", "sx": "sxdg", "sxdg": "sx",
}

// symmetric operations act the same whatever the order of their operands.
var symmetric = map[string]bool{"cz": true, "swap": true}

// mergeable rotations compose by adding their single angle.
var mergeable = map[string]bool{"rx": true, "ry": true, "rz": true, "p": true, "u1": true, "crz": true, "cp": true}

// spinor rotations equal -I at 2π; the others are periodic in 2π.
var spinor = map[string]bool{"rx": true, "ry": true, "rz": true, "crz": true}

// peephole is a single forward scan keeping, per qubit, the stack of kept
// instructions touching it. A candidate interacts only with the instruction
// on top of every one of its qubit stacks.
type peephole struct {
	kept    []*ir.Instruction
	stacks  [][]int
	changed bool
}

func newPeephole(numQubits int) *peephole {
	return &peephole{stacks: make([][]int, numQubits)}
}

// top returns the kept instruction index directly preceding in on all of
// its qubits, or -1.
func (p *peephole) top(in ir.Instruction) int {
	idx := -1
	for i, q := range in.Qubits {
		st := p.stacks[q]
		if len(st) == 0 {
			return -1
		}
		t := st[len(st)-1]
		if i == 0 {
			idx = t
		} else if t != idx {
			return -1
		}
	}
	if idx < 0 || len(p.kept[idx].Qubits) != len(in.Qubits) {
		return -1
	}
	return idx
}

func (p *peephole) push(in ir.Instruction) {
	p.kept = append(p.kept, &in)
	idx := len(p.kept) - 1
	for _, q := range in.Qubits {
		p.stacks[q] = append(p.stacks[q], idx)
	}
}

func (p *peephole) pop(idx int) {
	for _, q := range p.kept[idx].Qubits {
		p.stacks[q] = p.stacks[q][:len(p.stacks[q])-1]
	}
	p.kept[idx] = nil
	p.changed = true
}

func (p *peephole) result(c *ir.Circuit, phase float64) (*ir.Circuit, error) {
	if !p.changed {
		return c, nil
	}
	out := c.CopyEmpty()
	out.AddGlobalPhase(phase)
	for _, in := range p.kept {
		if in == nil {
			continue
		}
		if err := out.AppendInstruction(*in); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// plain reports whether in is an unconditional gate without clbits.
func plain(in ir.Instruction) bool {
	return in.Condition == nil && len(in.Clbits) == 0 && in.Name() != ir.BarrierName
}

// CancelInversesPass removes adjacent pairs of mutually inverse gates on
// the same qubits. Cancellation cascades: h x x h vanishes entirely.
type CancelInversesPass struct{}

// Name implements Pass.
func (CancelInversesPass) Name() string { return "CancelInverses" }

// Run implements Pass.
func (CancelInversesPass) Run(c *ir.Circuit, _ *Env) (*ir.Circuit, error) {
	p := newPeephole(c.NumQubits())
	for _, in := range c.Instructions() {
		if plain(in) {
			if idx := p.top(in); idx >= 0 && cancels(*p.kept[idx], in) {
				p.pop(idx)
				continue
			}
		}
		p.push(in)
	}
	return p.result(c, 0)
}

func cancels(prev, in ir.Instruction) bool {
	if !plain(prev) || inversePairs[prev.Name()] != in.Name() {
		return false
	}
	if prev.Op.NumParams() != 0 || in.Op.NumParams() != 0 {
		return false
	}
	if slices.Equal(prev.Qubits, in.Qubits) {
		return true
	}
	return symmetric[in.Name()] && len(in.Qubits) == 2 &&
		prev.Qubits[0] == in.Qubits[1] && prev.Qubits[1] == in.Qubits[0]
}

// MergeRotationsPass fuses adjacent rotations of the same kind on the same
// qubits by adding their angles.
type MergeRotationsPass struct{}

// Name implements Pass.
func (MergeRotationsPass) Name() string { return "MergeRotations" }

// Run implements Pass.
func (MergeRotationsPass) Run(c *ir.Circuit, _ *Env) (*ir.Circuit, error) {
	p := newPeephole(c.NumQubits())
	for _, in := range c.Instructions() {
		if plain(in) && mergeable[in.Name()] && in.Op.NumParams() == 1 {
			if idx := p.top(in); idx >= 0 {
				prev := p.kept[idx]
				if plain(*prev) && prev.Name() == in.Name() && slices.Equal(prev.Qubits, in.Qubits) {
					prev.Op = prev.Op.WithParams(prev.Op.Param(0) + in.Op.Param(0))
					p.changed = true
					continue
				}
			}
		}
		p.push(in)
	}
	return p.result(c, 0)
}

// RemoveIdentitiesPass drops id gates and rotations whose angle is a
// multiple of 2π, moving any resulting sign into the global phase.
type RemoveIdentitiesPass struct{}

// Name implements Pass.
func (RemoveIdentitiesPass) Name() string { return "RemoveIdentities" }

// Run implements Pass.
func (RemoveIdentitiesPass) Run(c *ir.Circuit, _ *Env) (*ir.Circuit, error) {
	p := newPeephole(c.NumQubits())
	phase := 0.0
	for _, in := range c.Instructions() {
		if plain(in) {
			if in.Name() == "id" {
				p.changed = true
				continue
			}
			if mergeable[in.Name()] && in.Op.NumParams() == 1 {
				if turns, ok := fullTurns(in.Op.Param(0)); ok && removable(in, turns) {
					if spinor[in.Name()] && len(in.Qubits) == 1 && turns%2 != 0 {
						phase += math.Pi
					}
					p.changed = true
					continue
				}
			}
		}
		p.push(in)
	}
	return p.result(c, phase)
}

// removable reports whether a rotation by 2π·turns is an identity up to a
// global phase. A controlled spinor rotation by an odd number of turns is
// a controlled -I, which is not.
func removable(in ir.Instruction, turns int64) bool {
	if !spinor[in.Name()] || len(in.Qubits) == 1 {
		return true
	}
	return turns%2 == 0
}

// fullTurns returns k when theta is within tolerance of 2πk.
func fullTurns(theta float64) (int64, bool) {
	k := math.Round(theta / (2 * math.Pi))
	if math.Abs(theta-k*2*math.Pi) > angleTolerance*math.Max(1, math.Abs(theta)) {
		return 0, false
	}
	return int64(k), true
}

// FixedPoint repeats its passes until the circuit stops changing or the
// iteration limit is reached.
type FixedPoint struct {
	Passes        []Pass
	MaxIterations int
}

// DefaultFixedPointIterations bounds FixedPoint when MaxIterations is zero.
const DefaultFixedPointIterations = 16

// Name implements Pass.
func (f FixedPoint) Name() string {
	names := make([]string, len(f.Passes))
	for i, p := range f.Passes {
		names[i] = p.Name()
	}
	return fmt.Sprintf("FixedPoint%v", names)
}

// Run implements Pass.
func (f FixedPoint) Run(c *ir.Circuit, env *Env) (*ir.Circuit, error) {
	limit := f.MaxIterations
	if limit <= 0 {
		limit = DefaultFixedPointIterations
	}
	cur := c
	for iter := 1; iter <= limit; iter++ {
		next := cur
		for _, p := range f.Passes {
			var err error
			if next, err = p.Run(next, env); err != nil {
				return nil, fmt.Errorf("%s: %w", p.Name(), err)
			}
		}
		env.Props.Set(KeyFixedPoint, iter)
		if next == cur || next.Equal(cur) {
			return next, nil
		}
		cur = next
	}
	return cur, nil
}
