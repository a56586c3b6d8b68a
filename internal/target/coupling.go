package target

import (
	"fmt"
	"slices"
	"strings"
)

// Edge is an undirected link between two physical qubits.
type Edge struct {
	A, B int
}

// normalized returns the edge with A < B.
func (e Edge) normalized() Edge {
	if e.A > e.B {
		return Edge{A: e.B, B: e.A}
	}
	return e
}

// CouplingMap is the undirected connectivity graph of a target.
// Neighbour lists are kept sorted so every traversal is deterministic.
type CouplingMap struct {
	n         int
	adj       [][]int
	edges     []Edge
	distances [][]int
}

// NewCouplingMap builds a coupling map over n physical qubits. Duplicate
// edges and both directions of the same edge collapse into one.
func NewCouplingMap(n int, edges []Edge) (*CouplingMap, error) {
	if n < 0 {
		return nil, fmt.Errorf("coupling map: negative qubit count %d", n)
	}
	cm := &CouplingMap{n: n, adj: make([][]int, n)}
	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if e.A < 0 || e.A >= n || e.B < 0 || e.B >= n {
			return nil, fmt.Errorf("coupling map: edge (%d, %d) outside 0..%d", e.A, e.B, n-1)
		}
		if e.A == e.B {
			return nil, fmt.Errorf("coupling map: self-loop on qubit %d", e.A)
		}
		ne := e.normalized()
		if seen[ne] {
			continue
		}
		seen[ne] = true
		cm.edges = append(cm.edges, ne)
		cm.adj[ne.A] = append(cm.adj[ne.A], ne.B)
		cm.adj[ne.B] = append(cm.adj[ne.B], ne.A)
	}
	for _, nb := range cm.adj {
		slices.Sort(nb)
	}
	slices.SortFunc(cm.edges, func(a, b Edge) int {
		if a.A != b.A {
			return a.A - b.A
		}
		return a.B - b.B
	})
	cm.distances = cm.allDistances()
	return cm, nil
}

// FullyConnected links every pair of n qubits.
func FullyConnected(n int) *CouplingMap {
	var edges []Edge
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			edges = append(edges, Edge{a, b})
		}
	}
	return mustCoupling(n, edges)
}

// Line links qubit i to i+1.
func Line(n int) *CouplingMap {
	var edges []Edge
	for i := 0; i+1 < n; i++ {
		edges = append(edges, Edge{i, i + 1})
	}
	return mustCoupling(n, edges)
}

// Ring is a line whose ends are linked.
func Ring(n int) *CouplingMap {
	var edges []Edge
	for i := 0; i+1 < n; i++ {
		edges = append(edges, Edge{i, i + 1})
	}
	if n > 2 {
		edges = append(edges, Edge{n - 1, 0})
	}
	return mustCoupling(n, edges)
}

// Grid is a rows×cols lattice numbered row-major.
func Grid(rows, cols int) *CouplingMap {
	var edges []Edge
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			q := r*cols + c
			if c+1 < cols {
				edges = append(edges, Edge{q, q + 1})
			}
			if r+1 < rows {
				edges = append(edges, Edge{q, q + cols})
			}
		}
	}
	return mustCoupling(rows*cols, edges)
}

func mustCoupling(n int, edges []Edge) *CouplingMap {
	cm, err := NewCouplingMap(n, edges)
	if err != nil {
		panic(err)
	}
	return cm
}

// NumQubits returns the number of physical qubits.
func (cm *CouplingMap) NumQubits() int { return cm.n }

// Edges returns the normalized edges sorted by (A, B).
func (cm *CouplingMap) Edges() []Edge { return slices.Clone(cm.edges) }

// Adjacent reports whether a and b share an edge.
func (cm *CouplingMap) Adjacent(a, b int) bool {
	if a < 0 || a >= cm.n {
		return false
	}
	_, found := slices.BinarySearch(cm.adj[a], b)
	return found
}

// Neighbors returns the sorted neighbours of q.
func (cm *CouplingMap) Neighbors(q int) []int { return slices.Clone(cm.adj[q]) }

// Degree returns the number of neighbours of q.
func (cm *CouplingMap) Degree(q int) int { return len(cm.adj[q]) }

// Distance returns the number of edges on a shortest path between a and b,
// or -1 when they are disconnected.
func (cm *CouplingMap) Distance(a, b int) int { return cm.distances[a][b] }

// ShortestPath returns a shortest path from a to b, endpoints included.
// Among equal-length paths it returns the one whose qubit sequence is
// lexicographically smallest. It returns nil when b is unreachable.
func (cm *CouplingMap) ShortestPath(a, b int) []int {
	if cm.distances[a][b] < 0 {
		return nil
	}
	path := []int{a}
	for cur := a; cur != b; {
		next := -1
		for _, nb := range cm.adj[cur] {
			if cm.distances[nb][b] == cm.distances[cur][b]-1 {
				next = nb
				break
			}
		}
		path = append(path, next)
		cur = next
	}
	return path
}

// DistanceMatrix returns a copy of the all-pairs distance table.
func (cm *CouplingMap) DistanceMatrix() [][]int {
	out := make([][]int, cm.n)
	for i := range cm.distances {
		out[i] = slices.Clone(cm.distances[i])
	}
	return out
}

func (cm *CouplingMap) allDistances() [][]int {
	dist := make([][]int, cm.n)
	for src := 0; src < cm.n; src++ {
		d := make([]int, cm.n)
		for i := range d {
			d[i] = -1
		}
		d[src] = 0
		queue := []int{src}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range cm.adj[cur] {
				if d[nb] < 0 {
					d[nb] = d[cur] + 1
					queue = append(queue, nb)
				}
			}
		}
		dist[src] = d
	}
	return dist
}

// Components returns the connected components, each sorted ascending,
// ordered by their lowest qubit.
func (cm *CouplingMap) Components() [][]int {
	var comps [][]int
	assigned := make([]bool, cm.n)
	for q := 0; q < cm.n; q++ {
		if assigned[q] {
			continue
		}
		var comp []int
		for other := q; other < cm.n; other++ {
			if cm.distances[q][other] >= 0 {
				assigned[other] = true
				comp = append(comp, other)
			}
		}
		comps = append(comps, comp)
	}
	return comps
}

// IsConnected reports whether every qubit can reach every other.
func (cm *CouplingMap) IsConnected() bool {
	return len(cm.Components()) <= 1
}

// ToDot renders the graph in Graphviz DOT format.
func (cm *CouplingMap) ToDot(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "graph %q {\n", name)
	sb.WriteString("  node [shape=circle];\n")
	for q := 0; q < cm.n; q++ {
		fmt.Fprintf(&sb, "  q%d [label=\"%d\"];\n", q, q)
	}
	for _, e := range cm.edges {
		fmt.Fprintf(&sb, "  q%d -- q%d;\n", e.A, e.B)
	}
	sb.WriteString("}\n")
	return sb.String()
}
