package gates

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/ir"
)

func TestStandard_ReturnsIndependentRegistries(t *testing.T) {
	a, b := Standard(), Standard()
	assert.NotSame(t, a, b)
	assert.Equal(t, a.Names(), b.Names())
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Standard().Lookup("frobnicate")
	require.Error(t, err)
	assert.True(t, IsUnknownOperation(err))
	assert.Contains(t, err.Error(), "frobnicate")
}

func TestNames_RegistrationOrder(t *testing.T) {
	names := Standard().Names()
	require.NotEmpty(t, names)
	assert.Equal(t, "id", names[0])
	assert.Equal(t, ir.BarrierName, names[len(names)-1])
}

func TestOperation_ChecksParams(t *testing.T) {
	reg := Standard()

	op, err := reg.Operation("rz", 0.5)
	require.NoError(t, err)
	assert.True(t, op.Equal(RZ(0.5)))

	_, err = reg.Operation("rz")
	assert.True(t, IsParameterCount(err))

	_, err = reg.Operation(ir.BarrierName)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	reg := Standard()
	tests := []struct {
		name    string
		op      ir.Operation
		wantErr bool
	}{
		{"cx", CX(), false},
		{"barrier 3", Barrier(3), false},
		{"barrier 0", Barrier(0), true},
		{"cx wrong width", ir.NewOperation("cx", 3, 0), true},
		{"measure no clbit", ir.NewOperation("measure", 1, 0), true},
		{"rz missing param", ir.NewOperation("rz", 1, 0), true},
		{"unknown", ir.NewOperation("nope", 1, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := reg.Validate(tt.op)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ============================================================================
// Builder validation
// ============================================================================

func TestBuild_DuplicateDefinition(t *testing.T) {
	_, err := NewBuilder().
		Define(Definition{Name: "g", NumQubits: 1, Matrix: fixed(Identity(2))}).
		Define(Definition{Name: "g", NumQubits: 1, Matrix: fixed(Identity(2))}).
		Build()
	assert.Error(t, err)
}

func TestBuild_RejectsRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"undefined source", exact("nope", 0, step(H(), 0))},
		{"undefined step", exact("h", 0, step(ir.NewOperation("nope", 1, 0), 0))},
		{"operand out of range", exact("h", 0, step(X(), 1))},
		{"repeated operand", exact("cx", 0, step(CZ(), 0, 0))},
		{"step arity", exact("h", 0, step(ir.NewOperation("x", 2, 0), 0, 1))},
		{"non-unitary source", exact("measure", 0)},
		{"param-count mismatch", exact("rz", 0, step(P(0), 0))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StandardBuilder().Decompose(tt.rule).Build()
			require.Error(t, err)
			var re *RuleError
			assert.ErrorAs(t, err, &re)
		})
	}
}

func TestBuild_ExtendsStandardSet(t *testing.T) {
	rxx := Definition{
		Name: "rxx", NumQubits: 2, NumParams: 1, Label: "RXX",
		Matrix: func(p []float64) Matrix {
			c := complex(math.Cos(p[0]/2), 0)
			s := complex(0, -math.Sin(p[0]/2))
			return Matrix{{c, 0, 0, s}, {0, c, s, 0}, {0, s, c, 0}, {s, 0, 0, c}}
		},
	}
	rule := parametric("rxx", 1, []string{"h", "h", "cx", "rz", "cx", "h", "h"}, func(p []float64) Expansion {
		return Expansion{Steps: []Step{
			step(H(), 0), step(H(), 1),
			step(CX(), 0, 1), step(RZ(p[0]), 1), step(CX(), 0, 1),
			step(H(), 0), step(H(), 1),
		}}
	})

	reg, err := StandardBuilder().Define(rxx).Decompose(rule).Build()
	require.NoError(t, err)
	require.Len(t, reg.Rules("rxx"), 1)

	exp, err := reg.Rules("rxx")[0].Expand([]float64{0.8})
	require.NoError(t, err)
	got, err := reg.ExpansionMatrix(exp, 2)
	require.NoError(t, err)
	assert.True(t, rxx.Matrix([]float64{0.8}).ApproxEqual(got, tol))

	// The standard set itself is untouched.
	assert.False(t, Standard().Has("rxx"))
}

func TestCircuitUnitary_Bell(t *testing.T) {
	reg := Standard()
	c := ir.NewWithQubits("bell", 2, 0)
	require.NoError(t, c.AppendAt(H(), []int{0}))
	require.NoError(t, c.AppendAt(Barrier(2), []int{0, 1}))
	require.NoError(t, c.AppendAt(CX(), []int{0, 1}))

	u, err := reg.CircuitUnitary(c)
	require.NoError(t, err)

	// Column 0 is the Bell state (|00> + |11>)/sqrt(2).
	r := 1 / math.Sqrt2
	assert.InDelta(t, r, real(u[0][0]), tol)
	assert.InDelta(t, 0, real(u[1][0]), tol)
	assert.InDelta(t, 0, real(u[2][0]), tol)
	assert.InDelta(t, r, real(u[3][0]), tol)
}

func TestCircuitUnitary_RejectsMeasure(t *testing.T) {
	c := ir.NewWithQubits("m", 1, 1)
	require.NoError(t, c.AppendAt(Measure(), []int{0}, 0))
	_, err := Standard().CircuitUnitary(c)
	assert.Error(t, err)
}
