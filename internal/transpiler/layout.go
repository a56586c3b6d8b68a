package transpiler

import (
	"fmt"
	"slices"
)

// Layout is an injective mapping from virtual qubits onto physical qubits.
type Layout struct {
	v2p []int
	p2v []int // -1 marks a free physical qubit
}

// NewLayout returns an empty layout for numVirtual virtual qubits on a
// device with numPhysical qubits.
func NewLayout(numVirtual, numPhysical int) *Layout {
	l := &Layout{v2p: make([]int, numVirtual), p2v: make([]int, numPhysical)}
	for i := range l.v2p {
		l.v2p[i] = -1
	}
	for i := range l.p2v {
		l.p2v[i] = -1
	}
	return l
}

// TrivialLayout maps virtual qubit i to physical qubit i.
func TrivialLayout(numVirtual, numPhysical int) *Layout {
	l := NewLayout(numVirtual, numPhysical)
	for v := 0; v < numVirtual; v++ {
		l.v2p[v] = v
		l.p2v[v] = v
	}
	return l
}

// LayoutFromMapping builds a layout from a virtual-to-physical slice.
func LayoutFromMapping(mapping []int, numPhysical int) (*Layout, error) {
	l := NewLayout(len(mapping), numPhysical)
	for v, p := range mapping {
		if err := l.Assign(v, p); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Assign places virtual qubit v on physical qubit p.
func (l *Layout) Assign(v, p int) error {
	if v < 0 || v >= len(l.v2p) || p < 0 || p >= len(l.p2v) {
		return fmt.Errorf("layout: assignment %d -> %d out of range", v, p)
	}
	if l.v2p[v] >= 0 {
		return fmt.Errorf("layout: virtual qubit %d already placed on %d", v, l.v2p[v])
	}
	if l.p2v[p] >= 0 {
		return fmt.Errorf("layout: physical qubit %d already holds virtual %d", p, l.p2v[p])
	}
	l.v2p[v] = p
	l.p2v[p] = v
	return nil
}

// NumVirtual returns the number of virtual qubits.
func (l *Layout) NumVirtual() int { return len(l.v2p) }

// NumPhysical returns the number of physical qubits.
func (l *Layout) NumPhysical() int { return len(l.p2v) }

// Complete reports whether every virtual qubit is placed.
func (l *Layout) Complete() bool {
	return !slices.Contains(l.v2p, -1)
}

// Physical returns the physical qubit holding v.
func (l *Layout) Physical(v int) int { return l.v2p[v] }

// Virtual returns the virtual qubit on p, if any.
func (l *Layout) Virtual(p int) (int, bool) {
	v := l.p2v[p]
	return v, v >= 0
}

// Free reports whether physical qubit p holds no virtual qubit.
func (l *Layout) Free(p int) bool { return l.p2v[p] < 0 }

// SwapPhysical exchanges whatever virtual qubits sit on a and b.
func (l *Layout) SwapPhysical(a, b int) {
	va, vb := l.p2v[a], l.p2v[b]
	l.p2v[a], l.p2v[b] = vb, va
	if va >= 0 {
		l.v2p[va] = b
	}
	if vb >= 0 {
		l.v2p[vb] = a
	}
}

// Mapping returns the virtual-to-physical slice.
func (l *Layout) Mapping() []int { return slices.Clone(l.v2p) }

// Copy returns an independent copy.
func (l *Layout) Copy() *Layout {
	return &Layout{v2p: slices.Clone(l.v2p), p2v: slices.Clone(l.p2v)}
}

// Equal reports whether two layouts map identically.
func (l *Layout) Equal(o *Layout) bool {
	return slices.Equal(l.v2p, o.v2p) && slices.Equal(l.p2v, o.p2v)
}

// String renders the layout as "0->2 1->0".
func (l *Layout) String() string {
	s := ""
	for v, p := range l.v2p {
		if v > 0 {
			s += " "
		}
		s += fmt.Sprintf("%d->%d", v, p)
	}
	return s
}
