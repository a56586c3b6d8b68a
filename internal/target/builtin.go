package target

import "sort"

// builtinSpecs are the targets available without any target files.
var builtinSpecs = []Spec{
	{
		Name:        "bell2",
		Description: "Two fully connected qubits with native h and cx.",
		NumQubits:   2,
		Basis:       []string{"h", "cx", "measure"},
		AllToAll:    true,
	},
	{
		Name:        "line5",
		Description: "Five qubits in a line with an rz/sx/x/cx basis.",
		NumQubits:   5,
		Basis:       []string{"rz", "sx", "x", "cx", "measure", "reset"},
		Coupling:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}},
	},
	{
		Name:        "ring6",
		Description: "Six qubits in a ring with a u/cx basis.",
		NumQubits:   6,
		Basis:       []string{"u", "cx", "measure"},
		Coupling:    [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {4, 5}, {5, 0}},
	},
	{
		Name:        "grid3x3",
		Description: "Nine qubits on a 3x3 lattice with an rz/sx/x/cz basis.",
		NumQubits:   9,
		Basis:       []string{"rz", "sx", "x", "cz", "measure"},
		Coupling: [][2]int{
			{0, 1}, {1, 2}, {3, 4}, {4, 5}, {6, 7}, {7, 8},
			{0, 3}, {3, 6}, {1, 4}, {4, 7}, {2, 5}, {5, 8},
		},
	},
	{
		Name:        "split4",
		Description: "Two disconnected pairs of qubits.",
		NumQubits:   4,
		Basis:       []string{"h", "cx", "rz", "measure"},
		Coupling:    [][2]int{{0, 1}, {2, 3}},
	},
}

// Builtin returns the named built-in target.
func Builtin(name string) (*Target, bool) {
	for _, s := range builtinSpecs {
		if s.Name == name {
			t, err := s.Build()
			if err != nil {
				panic(err)
			}
			return t, true
		}
	}
	return nil, false
}

// Builtins returns every built-in target sorted by name.
func Builtins() []*Target {
	out := make([]*Target, 0, len(builtinSpecs))
	for _, s := range builtinSpecs {
		t, err := s.Build()
		if err != nil {
			panic(err)
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}
