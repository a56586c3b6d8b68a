package target

import (
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/qpass/internal/ir"
)

// Spec is the portable description of a target, as written in target
// files and command output.
type Spec struct {
	Name        string                    `json:"name" yaml:"name"`
	Description string                    `json:"description,omitempty" yaml:"description,omitempty"`
	NumQubits   int                       `json:"num_qubits" yaml:"num_qubits"`
	Basis       []string                  `json:"basis" yaml:"basis"`
	AllToAll    bool                      `json:"all_to_all,omitempty" yaml:"all_to_all,omitempty"`
	Coupling    [][2]int                  `json:"coupling" yaml:"coupling"`
	Properties  map[string][]PropertySpec `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// PropertySpec is the portable form of InstructionProperties.
type PropertySpec struct {
	Qubits   []int   `json:"qubits" yaml:"qubits"`
	Error    float64 `json:"error,omitempty" yaml:"error,omitempty"`
	Duration float64 `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// Build validates s and constructs the Target. AllToAll overrides the
// coupling list with a fully connected graph.
func (s Spec) Build() (*Target, error) {
	var cm *CouplingMap
	if s.AllToAll {
		if s.NumQubits < 0 {
			return nil, fmt.Errorf("target %s: qubit count must be positive, got %d", s.Name, s.NumQubits)
		}
		cm = FullyConnected(s.NumQubits)
	} else {
		edges := make([]Edge, len(s.Coupling))
		for i, e := range s.Coupling {
			edges[i] = Edge{A: e[0], B: e[1]}
		}
		var err error
		if cm, err = NewCouplingMap(s.NumQubits, edges); err != nil {
			return nil, fmt.Errorf("target %s: %w", s.Name, err)
		}
	}

	opts := []Option{WithDescription(s.Description)}
	for _, op := range sortedKeys(s.Properties) {
		props := make([]InstructionProperties, len(s.Properties[op]))
		for i, p := range s.Properties[op] {
			props[i] = InstructionProperties{Qubits: p.Qubits, Error: p.Error, Duration: p.Duration}
		}
		opts = append(opts, WithProperties(op, props...))
	}
	return New(s.Name, s.NumQubits, s.Basis, cm, opts...)
}

// Spec returns the portable description of t with explicit edges.
func (t *Target) Spec() Spec {
	s := Spec{
		Name:        t.name,
		Description: t.description,
		NumQubits:   t.numQubits,
		Basis:       t.Basis(),
		Coupling:    make([][2]int, 0, len(t.coupling.edges)),
	}
	for _, e := range t.coupling.edges {
		s.Coupling = append(s.Coupling, [2]int{e.A, e.B})
	}
	if len(t.properties) > 0 {
		s.Properties = make(map[string][]PropertySpec, len(t.properties))
		for op, props := range t.properties {
			for _, p := range props {
				s.Properties[op] = append(s.Properties[op], PropertySpec{
					Qubits: slices.Clone(p.Qubits), Error: p.Error, Duration: p.Duration,
				})
			}
		}
	}
	return s
}

func (s Spec) canonicalMap() map[string]any {
	coupling := make([]any, len(s.Coupling))
	for i, e := range s.Coupling {
		coupling[i] = []int{e[0], e[1]}
	}
	props := make(map[string]any, len(s.Properties))
	for op, list := range s.Properties {
		items := make([]any, len(list))
		for i, p := range list {
			items[i] = map[string]any{
				"qubits":   p.Qubits,
				"error":    ir.FormatFloat(p.Error),
				"duration": ir.FormatFloat(p.Duration),
			}
		}
		props[op] = items
	}
	return map[string]any{
		"name":       s.Name,
		"num_qubits": s.NumQubits,
		"basis":      slices.Clone(s.Basis),
		"coupling":   coupling,
		"properties": props,
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
