package pauli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Pauli strings
// ============================================================================

func TestParsePauliString_RightmostIsQubitZero(t *testing.T) {
	s, err := ParsePauliString("XYZ")
	require.NoError(t, err)
	assert.Equal(t, 3, s.NumQubits())
	assert.Equal(t, Z, s.At(0))
	assert.Equal(t, Y, s.At(1))
	assert.Equal(t, X, s.At(2))
	assert.Equal(t, "XYZ", s.Label())
	assert.Equal(t, 3, s.Weight())
}

func TestParsePauliString_Invalid(t *testing.T) {
	for _, label := range []string{"", "XA", "xz"} {
		_, err := ParsePauliString(label)
		var le *LabelError
		assert.ErrorAs(t, err, &le, "label %q", label)
	}
}

func TestStringDot_PhaseRules(t *testing.T) {
	tests := []struct {
		a, b  string
		phase complex128
		want  string
	}{
		{"X", "Y", 1i, "Z"},
		{"Y", "X", -1i, "Z"},
		{"Y", "Z", 1i, "X"},
		{"Z", "X", 1i, "Y"},
		{"X", "Z", -1i, "Y"},
		{"Z", "Z", 1, "I"},
		{"XI", "YZ", 1i, "ZZ"},
		{"XX", "YY", -1, "ZZ"},
	}
	for _, tt := range tests {
		t.Run(tt.a+"."+tt.b, func(t *testing.T) {
			phase, s := MustParse(tt.a).Dot(MustParse(tt.b))
			assert.Equal(t, tt.phase, phase)
			assert.Equal(t, tt.want, s.Label())
		})
	}
}

func TestString_Commutes(t *testing.T) {
	assert.True(t, MustParse("XX").Commutes(MustParse("ZZ")))
	assert.False(t, MustParse("XI").Commutes(MustParse("ZI")))
	assert.True(t, MustParse("XI").Commutes(MustParse("IZ")))
}

func TestString_Tensor(t *testing.T) {
	assert.Equal(t, "XIZ", MustParse("XI").Tensor(MustParse("Z")).Label())
}

// ============================================================================
// SparsePauliOp
// ============================================================================

func TestNew_LengthMismatch(t *testing.T) {
	_, err := FromLabels("XX", "Z")
	require.Error(t, err)
	assert.True(t, IsLengthMismatch(err))

	_, err = New()
	assert.ErrorIs(t, err, ErrNoTerms)
}

func TestAdd_EqualStringsCombine(t *testing.T) {
	a, err := FromList(Pair{Label: "XZ", Re: 0.5})
	require.NoError(t, err)
	b, err := FromList(Pair{Label: "XZ", Re: 0.25, Im: 1})
	require.NoError(t, err)

	sum, err := a.Add(b)
	require.NoError(t, err)
	require.Equal(t, 1, sum.Len())
	assert.Equal(t, complex(0.75, 1), sum.Terms()[0].Coeff)
	assert.Equal(t, "XZ", sum.Terms()[0].Pauli.Label())
}

func TestAdd_KeepsFirstOccurrenceOrder(t *testing.T) {
	a, _ := FromLabels("ZZ", "XX")
	b, _ := FromLabels("YY", "ZZ")
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, []Pair{
		{Label: "ZZ", Re: 2},
		{Label: "XX", Re: 1},
		{Label: "YY", Re: 1},
	}, sum.Pairs())
}

func TestAdd_SizeMismatch(t *testing.T) {
	a, _ := FromLabels("ZZ")
	b, _ := FromLabels("Z")
	_, err := a.Add(b)
	assert.True(t, IsLengthMismatch(err))
}

func TestDotAndCompose(t *testing.T) {
	x, _ := FromLabels("X")
	y, _ := FromLabels("Y")

	xy, err := x.Dot(y)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Label: "Z", Im: 1}}, xy.Pairs())

	yx, err := x.Compose(y)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Label: "Z", Im: -1}}, yx.Pairs())
}

func TestDot_CombinesDuplicates(t *testing.T) {
	// (X + Z)(X + Z) = 2I + XZ + ZX = 2I
	op, _ := FromLabels("X", "Z")
	sq, err := op.Dot(op)
	require.NoError(t, err)
	simplified := sq.Simplify(1e-12)
	assert.Equal(t, []Pair{{Label: "I", Re: 2}}, simplified.Pairs())
}

func TestTensor(t *testing.T) {
	a, _ := FromList(Pair{Label: "X", Re: 2})
	b, _ := FromLabels("Z", "Y")
	got := a.Tensor(b)
	assert.Equal(t, 2, got.NumQubits())
	assert.Equal(t, []Pair{{Label: "XZ", Re: 2}, {Label: "XY", Re: 2}}, got.Pairs())
}

func TestScaleAndAdjoint(t *testing.T) {
	op, _ := FromList(Pair{Label: "ZI", Re: 1, Im: 2})
	assert.Equal(t, complex(2, 4), op.Scale(2).Terms()[0].Coeff)
	assert.Equal(t, complex(1, -2), op.Adjoint().Terms()[0].Coeff)
	assert.Equal(t, complex(1, 2), op.Terms()[0].Coeff, "original untouched")
}

func TestSimplify(t *testing.T) {
	op, err := FromList(
		Pair{Label: "XX", Re: 1},
		Pair{Label: "ZZ", Re: 1e-15},
		Pair{Label: "XX", Re: -0.5},
	)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Label: "XX", Re: 0.5}}, op.Simplify(1e-12).Pairs())

	zero, _ := FromList(Pair{Label: "XY", Re: 1}, Pair{Label: "XY", Re: -1})
	assert.Equal(t, []Pair{{Label: "II"}}, zero.Simplify(1e-12).Pairs())
}

func TestApplyLayout(t *testing.T) {
	op, _ := FromList(Pair{Label: "XZ", Re: 0.5})
	// virtual 0 (Z) -> physical 2, virtual 1 (X) -> physical 0
	got, err := op.ApplyLayout([]int{2, 0}, 4)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Label: "IZIX", Re: 0.5}}, got.Pairs())

	_, err = op.ApplyLayout([]int{0}, 4)
	assert.True(t, IsLengthMismatch(err))
	_, err = op.ApplyLayout([]int{1, 1}, 4)
	assert.Error(t, err)
	_, err = op.ApplyLayout([]int{0, 4}, 4)
	assert.Error(t, err)
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		in    string
		label string
		coeff complex128
	}{
		{"XX", "XX", 1},
		{"0.5*ZI", "ZI", 0.5},
		{"-2i * YY", "YY", -2i},
		{"(1+0.5i)*XZ", "XZ", complex(1, 0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			term, err := ParseTerm(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.label, term.Pauli.Label())
			assert.Equal(t, tt.coeff, term.Coeff)
		})
	}

	_, err := ParseTerm("abc*XX")
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	op, _ := FromList(Pair{Label: "XX", Re: 1}, Pair{Label: "ZI", Re: 0.5})
	assert.Equal(t, "(1+0i)*XX + (0.5+0i)*ZI", op.String())
}

func TestSorted(t *testing.T) {
	op, _ := FromLabels("ZZ", "XX", "IY")
	var labels []string
	for _, p := range op.Sorted().Pairs() {
		labels = append(labels, p.Label)
	}
	assert.Equal(t, []string{"IY", "XX", "ZZ"}, labels)
}
