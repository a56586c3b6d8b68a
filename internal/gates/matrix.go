package gates

import (
	"math"
	"math/cmplx"
)

// Matrix is a dense square complex matrix.
//
// Multi-qubit matrices use operand order with the first operand as the most
// significant bit: for cx(control, target) the basis order is
// |control target> = 00, 01, 10, 11.
type Matrix [][]complex128

// NewMatrix returns an n×n zero matrix.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]complex128, n)
	}
	return m
}

// Identity returns the n×n identity.
func Identity(n int) Matrix {
	m := NewMatrix(n)
	for i := range m {
		m[i][i] = 1
	}
	return m
}

// Dim returns the matrix dimension.
func (m Matrix) Dim() int { return len(m) }

// Mul returns m·o.
func (m Matrix) Mul(o Matrix) Matrix {
	n := len(m)
	out := NewMatrix(n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			if m[i][k] == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return out
}

// Scale returns c·m.
func (m Matrix) Scale(c complex128) Matrix {
	out := NewMatrix(len(m))
	for i := range m {
		for j := range m[i] {
			out[i][j] = c * m[i][j]
		}
	}
	return out
}

// Dagger returns the conjugate transpose.
func (m Matrix) Dagger() Matrix {
	out := NewMatrix(len(m))
	for i := range m {
		for j := range m[i] {
			out[j][i] = cmplx.Conj(m[i][j])
		}
	}
	return out
}

// ApproxEqual reports element-wise equality within tol.
func (m Matrix) ApproxEqual(o Matrix, tol float64) bool {
	if len(m) != len(o) {
		return false
	}
	for i := range m {
		for j := range m[i] {
			if cmplx.Abs(m[i][j]-o[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

// IsUnitary reports whether m·m† is the identity within tol.
func (m Matrix) IsUnitary(tol float64) bool {
	return m.Mul(m.Dagger()).ApproxEqual(Identity(len(m)), tol)
}

// EquivalentUpToPhase reports whether o = e^{iφ}·m for some real φ.
func EquivalentUpToPhase(m, o Matrix, tol float64) bool {
	if len(m) != len(o) {
		return false
	}
	var phase complex128
	found := false
	for i := range m {
		for j := range m[i] {
			if cmplx.Abs(m[i][j]) > tol {
				phase = o[i][j] / m[i][j]
				found = true
				break
			}
		}
		if found {
			break
		}
	}
	if !found {
		return o.ApproxEqual(m, tol)
	}
	if math.Abs(cmplx.Abs(phase)-1) > tol {
		return false
	}
	return o.ApproxEqual(m.Scale(phase), tol)
}

// Embed lifts a k-qubit matrix acting on the given operands into the full
// 2^numQubits space. Qubit 0 is the most significant bit of a basis index.
func Embed(m Matrix, operands []int, numQubits int) Matrix {
	dim := 1 << numQubits
	mask := 0
	for _, q := range operands {
		mask |= 1 << (numQubits - 1 - q)
	}
	sub := func(x int) int {
		s := 0
		for _, q := range operands {
			s = s<<1 | (x>>(numQubits-1-q))&1
		}
		return s
	}

	out := NewMatrix(dim)
	for r := 0; r < dim; r++ {
		sr := sub(r)
		for c := 0; c < dim; c++ {
			if r&^mask != c&^mask {
				continue
			}
			out[r][c] = m[sr][sub(c)]
		}
	}
	return out
}

// controlled returns the matrix of u controlled on one extra leading qubit.
func controlled(u Matrix) Matrix {
	n := len(u)
	out := Identity(2 * n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[n+i][n+j] = u[i][j]
		}
	}
	return out
}

func diag(entries ...complex128) Matrix {
	m := NewMatrix(len(entries))
	for i, e := range entries {
		m[i][i] = e
	}
	return m
}

func expi(theta float64) complex128 {
	return cmplx.Exp(complex(0, theta))
}
