package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/gates"
)

func compileString(t *testing.T, src string) cue.Value {
	t.Helper()
	v := cuecontext.New().CompileString(src, cue.Filename("targets.cue"))
	require.NoError(t, v.Err())
	return v
}

// =============================================================================
// CompileTarget
// =============================================================================

func TestCompileTargetBasic(t *testing.T) {
	v := compileString(t, `
		target: line5: {
			description: "five in a row"
			num_qubits: 5
			basis: ["rz", "sx", "x", "cx", "measure"]
			coupling: [[0, 1], [1, 2], [2, 3], [3, 4]]
			properties: cx: [{qubits: [0, 1], error: 0.01, duration: 300}]
		}
	`)

	spec, err := CompileTarget(v.LookupPath(cue.ParsePath("target.line5")))
	require.NoError(t, err)

	assert.Equal(t, "line5", spec.Name)
	assert.Equal(t, "five in a row", spec.Description)
	assert.Equal(t, 5, spec.NumQubits)
	assert.Equal(t, []string{"rz", "sx", "x", "cx", "measure"}, spec.Basis)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}}, spec.Coupling)
	require.Len(t, spec.Properties["cx"], 1)
	assert.Equal(t, []int{0, 1}, spec.Properties["cx"][0].Qubits)
	assert.InDelta(t, 0.01, spec.Properties["cx"][0].Error, 1e-12)
	assert.InDelta(t, 300.0, spec.Properties["cx"][0].Duration, 1e-12)

	tg, err := spec.Build()
	require.NoError(t, err)
	assert.True(t, tg.Coupling().Adjacent(3, 4))
}

func TestCompileTargetAllToAll(t *testing.T) {
	v := compileString(t, `
		target: pair: {
			name: "bell-pair"
			num_qubits: 2
			basis: ["h", "cx"]
			all_to_all: true
		}
	`)

	spec, err := CompileTarget(v.LookupPath(cue.ParsePath("target.pair")))
	require.NoError(t, err)
	assert.Equal(t, "bell-pair", spec.Name)
	assert.True(t, spec.AllToAll)
	assert.Empty(t, spec.Coupling)
}

func TestCompileTargetErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing num_qubits", `target: t: {basis: ["h"], coupling: []}`, "num_qubits"},
		{"float num_qubits", `target: t: {num_qubits: 2.5, basis: ["h"], coupling: []}`, "num_qubits"},
		{"missing basis", `target: t: {num_qubits: 1, coupling: []}`, "basis"},
		{"basis not strings", `target: t: {num_qubits: 1, basis: [1], coupling: []}`, "basis"},
		{"missing coupling", `target: t: {num_qubits: 2, basis: ["h"]}`, "coupling"},
		{"edge arity", `target: t: {num_qubits: 3, basis: ["h"], coupling: [[0, 1, 2]]}`, "coupling"},
		{"property qubits", `target: t: {num_qubits: 1, basis: ["h"], coupling: [], properties: h: [{error: 0.1}]}`, "properties.h.qubits"},
		{"property error", `target: t: {num_qubits: 1, basis: ["h"], coupling: [], properties: h: [{qubits: [0], error: "x"}]}`, "properties.h.error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := compileString(t, tt.src)
			_, err := CompileTarget(v.LookupPath(cue.ParsePath("target.t")))
			var ce *CompileError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestCompileTargetErrorCarriesPosition(t *testing.T) {
	v := compileString(t, "target: t: {\n\tnum_qubits: \"two\"\n\tbasis: [\"h\"]\n\tcoupling: []\n}\n")
	_, err := CompileTarget(v.LookupPath(cue.ParsePath("target.t")))
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	require.True(t, ce.Pos.IsValid())
	assert.Equal(t, 2, ce.Pos.Line())
	assert.Contains(t, err.Error(), "targets.cue:2:")
}

func TestCompileTargetsInSourceOrder(t *testing.T) {
	v := compileString(t, `
		target: b: {num_qubits: 1, basis: ["x"], coupling: []}
		target: a: {num_qubits: 2, basis: ["cx"], coupling: [[0, 1]]}
	`)
	specs, err := CompileTargets(v)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "b", specs[0].Name)
	assert.Equal(t, "a", specs[1].Name)
}

func TestCompileTargetsWrapsName(t *testing.T) {
	v := compileString(t, `target: broken: {basis: ["x"], coupling: []}`)
	_, err := CompileTargets(v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "target.broken")
}

func TestCompileTargetsNone(t *testing.T) {
	specs, err := CompileTargets(compileString(t, `other: 1`))
	require.NoError(t, err)
	assert.Empty(t, specs)
}

// =============================================================================
// Compile then validate
// =============================================================================

func TestCompiledTargetValidates(t *testing.T) {
	v := compileString(t, `
		target: grid: {
			num_qubits: 4
			basis: ["rz", "sx", "cz"]
			coupling: [[0, 1], [1, 3], [3, 2], [2, 0]]
		}
	`)
	specs, err := CompileTargets(v)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Empty(t, Validate(specs[0], gates.Standard()))
}
