package gates

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

var sampleParams = [][]float64{
	{0.3, -1.1, 2.4},
	{math.Pi / 3, math.Pi / 7, -math.Pi / 5},
}

func TestStandardRules_PreserveUnitaryAndPhase(t *testing.T) {
	reg := Standard()

	for _, name := range reg.Names() {
		for i, rule := range reg.Rules(name) {
			def, err := reg.Lookup(name)
			require.NoError(t, err)

			for _, sample := range sampleParams {
				params := sample[:def.NumParams]
				t.Run(fmt.Sprintf("%s/%d/%v", name, i, params), func(t *testing.T) {
					exp, err := rule.Expand(params)
					require.NoError(t, err)

					got, err := reg.ExpansionMatrix(exp, def.NumQubits)
					require.NoError(t, err)
					want := def.Matrix(params)

					assert.True(t, want.ApproxEqual(got, tol), "expansion %v differs from %s", exp.Names(), name)
				})
			}
		}
	}
}

func TestStandardDefinitions_AreUnitary(t *testing.T) {
	for _, def := range StandardDefinitions() {
		if !def.Unitary() {
			continue
		}
		m := def.Matrix(sampleParams[0][:def.NumParams])
		assert.True(t, m.IsUnitary(tol), def.Name)
		assert.Equal(t, 1<<def.NumQubits, m.Dim(), def.Name)
	}
}

func TestParametricRule_RejectsWrongParamCount(t *testing.T) {
	rules := Standard().Rules("rz")
	require.NotEmpty(t, rules)

	_, err := rules[0].Expand(nil)
	assert.True(t, IsParameterCount(err))
}

func TestParametricRule_TemplateMismatch(t *testing.T) {
	rule := ParametricRule{
		From:  "rz",
		Uses:  []string{"p", "p"},
		Arity: 1,
		Build: func(p []float64) Expansion {
			return Expansion{Steps: []Step{step(P(p[0]), 0)}}
		},
	}
	_, err := rule.Expand([]float64{1})
	assert.Error(t, err)
}

func TestExactRule_ExpandReturnsPrivateSteps(t *testing.T) {
	rule := exact("swap", 0, step(CX(), 0, 1))
	exp, err := rule.Expand(nil)
	require.NoError(t, err)

	exp.Steps[0].Qubits[0] = 7
	again, err := rule.Expand(nil)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, again.Steps[0].Qubits)
}

func TestEmbed_OperandOrder(t *testing.T) {
	reg := Standard()
	cx, err := reg.Unitary(CX())
	require.NoError(t, err)

	// cx(1, 0) on two qubits: control is the least significant bit.
	m := Embed(cx, []int{1, 0}, 2)
	// |01> -> |11>
	assert.Equal(t, complex(1, 0), m[3][1])
	assert.Equal(t, complex(0, 0), m[1][1])
	// |10> is unchanged
	assert.Equal(t, complex(1, 0), m[2][2])
}

func TestEquivalentUpToPhase(t *testing.T) {
	h := hMatrix()
	assert.True(t, EquivalentUpToPhase(h, h.Scale(expi(0.7)), tol))
	assert.False(t, EquivalentUpToPhase(h, xMatrix(), tol))
	assert.False(t, EquivalentUpToPhase(h, h.Scale(2), tol))
	assert.False(t, EquivalentUpToPhase(h, Identity(4), tol))
}

func TestRule_Targets(t *testing.T) {
	rules := Standard().Rules("ccx")
	require.Len(t, rules, 1)
	assert.Equal(t, []string{"h", "cx", "tdg", "t"}, rules[0].Targets())
	assert.Len(t, rules[0].Template(), 15)
}
