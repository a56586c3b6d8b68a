package gates

import (
	"fmt"
	"math"

	"github.com/roach88/qpass/internal/ir"
)

// Definition describes one named operation in a registry.
type Definition struct {
	Name      string
	NumQubits int // ignored when Variadic
	NumClbits int
	NumParams int

	// Variadic operations accept any positive number of qubits.
	Variadic bool

	// Directive operations carry no unitary and are accepted by every
	// target regardless of its basis.
	Directive bool

	// Label and Description feed the human-readable explanation output.
	Label       string
	Description string

	// Matrix returns the unitary for the given parameters, or nil for
	// non-unitary operations such as measure and reset.
	Matrix func(params []float64) Matrix
}

// Unitary reports whether the definition has a matrix.
func (d Definition) Unitary() bool { return d.Matrix != nil }

// Operation builds an operation instance from this definition.
func (d Definition) Operation(params ...float64) (ir.Operation, error) {
	if d.Variadic {
		return ir.Operation{}, fmt.Errorf("operation %q is variadic; build it with an explicit width", d.Name)
	}
	if len(params) != d.NumParams {
		return ir.Operation{}, &ParameterCountError{Op: d.Name, Want: d.NumParams, Got: len(params)}
	}
	return ir.NewOperation(d.Name, d.NumQubits, d.NumClbits, params...), nil
}

func fixed(m Matrix) func([]float64) Matrix {
	return func([]float64) Matrix { return m }
}

var invSqrt2 = complex(1/math.Sqrt2, 0)

func hMatrix() Matrix {
	return Matrix{{invSqrt2, invSqrt2}, {invSqrt2, -invSqrt2}}
}

func xMatrix() Matrix { return Matrix{{0, 1}, {1, 0}} }

func yMatrix() Matrix { return Matrix{{0, -1i}, {1i, 0}} }

func zMatrix() Matrix { return diag(1, -1) }

func sxMatrix() Matrix {
	return Matrix{{complex(0.5, 0.5), complex(0.5, -0.5)}, {complex(0.5, -0.5), complex(0.5, 0.5)}}
}

func rxMatrix(theta float64) Matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(0, -math.Sin(theta/2))
	return Matrix{{c, s}, {s, c}}
}

func ryMatrix(theta float64) Matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return Matrix{{c, -s}, {s, c}}
}

func rzMatrix(theta float64) Matrix {
	return diag(expi(-theta/2), expi(theta/2))
}

func pMatrix(lambda float64) Matrix {
	return diag(1, expi(lambda))
}

func uMatrix(theta, phi, lambda float64) Matrix {
	c := complex(math.Cos(theta/2), 0)
	s := complex(math.Sin(theta/2), 0)
	return Matrix{
		{c, -expi(lambda) * s},
		{expi(phi) * s, expi(phi+lambda) * c},
	}
}

func swapMatrix() Matrix {
	return Matrix{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	}
}

// StandardDefinitions returns the built-in operation catalogue.
func StandardDefinitions() []Definition {
	return []Definition{
		{Name: "id", NumQubits: 1, Label: "Identity", Description: "Leaves the qubit unchanged.",
			Matrix: fixed(Identity(2))},
		{Name: "h", NumQubits: 1, Label: "Hadamard", Description: "Maps |0> and |1> to equal superpositions.",
			Matrix: fixed(hMatrix())},
		{Name: "x", NumQubits: 1, Label: "Pauli-X", Description: "Bit flip.",
			Matrix: fixed(xMatrix())},
		{Name: "y", NumQubits: 1, Label: "Pauli-Y", Description: "Bit and phase flip.",
			Matrix: fixed(yMatrix())},
		{Name: "z", NumQubits: 1, Label: "Pauli-Z", Description: "Phase flip.",
			Matrix: fixed(zMatrix())},
		{Name: "s", NumQubits: 1, Label: "S", Description: "Quarter-turn phase, sqrt(Z).",
			Matrix: fixed(diag(1, 1i))},
		{Name: "sdg", NumQubits: 1, Label: "S-dagger", Description: "Inverse of S.",
			Matrix: fixed(diag(1, -1i))},
		{Name: "t", NumQubits: 1, Label: "T", Description: "Eighth-turn phase, sqrt(S).",
			Matrix: fixed(pMatrix(math.Pi / 4))},
		{Name: "tdg", NumQubits: 1, Label: "T-dagger", Description: "Inverse of T.",
			Matrix: fixed(pMatrix(-math.Pi / 4))},
		{Name: "sx", NumQubits: 1, Label: "Sqrt-X", Description: "Square root of X.",
			Matrix: fixed(sxMatrix())},
		{Name: "sxdg", NumQubits: 1, Label: "Sqrt-X-dagger", Description: "Inverse of sqrt(X).",
			Matrix: fixed(sxMatrix().Dagger())},
		{Name: "rx", NumQubits: 1, NumParams: 1, Label: "RX", Description: "Rotation about the X axis.",
			Matrix: func(p []float64) Matrix { return rxMatrix(p[0]) }},
		{Name: "ry", NumQubits: 1, NumParams: 1, Label: "RY", Description: "Rotation about the Y axis.",
			Matrix: func(p []float64) Matrix { return ryMatrix(p[0]) }},
		{Name: "rz", NumQubits: 1, NumParams: 1, Label: "RZ", Description: "Rotation about the Z axis.",
			Matrix: func(p []float64) Matrix { return rzMatrix(p[0]) }},
		{Name: "p", NumQubits: 1, NumParams: 1, Label: "Phase", Description: "Applies a relative phase to |1>.",
			Matrix: func(p []float64) Matrix { return pMatrix(p[0]) }},
		{Name: "u1", NumQubits: 1, NumParams: 1, Label: "U1", Description: "Legacy alias of the phase gate.",
			Matrix: func(p []float64) Matrix { return pMatrix(p[0]) }},
		{Name: "u2", NumQubits: 1, NumParams: 2, Label: "U2", Description: "Single-qubit gate u(pi/2, phi, lambda).",
			Matrix: func(p []float64) Matrix { return uMatrix(math.Pi/2, p[0], p[1]) }},
		{Name: "u3", NumQubits: 1, NumParams: 3, Label: "U3", Description: "Legacy alias of u.",
			Matrix: func(p []float64) Matrix { return uMatrix(p[0], p[1], p[2]) }},
		{Name: "u", NumQubits: 1, NumParams: 3, Label: "U", Description: "Generic single-qubit rotation.",
			Matrix: func(p []float64) Matrix { return uMatrix(p[0], p[1], p[2]) }},
		{Name: "cx", NumQubits: 2, Label: "CNOT", Description: "Flips the target when the control is |1>.",
			Matrix: fixed(controlled(xMatrix()))},
		{Name: "cy", NumQubits: 2, Label: "Controlled-Y", Description: "Applies Y to the target when the control is |1>.",
			Matrix: fixed(controlled(yMatrix()))},
		{Name: "cz", NumQubits: 2, Label: "Controlled-Z", Description: "Flips the phase of |11>.",
			Matrix: fixed(controlled(zMatrix()))},
		{Name: "ch", NumQubits: 2, Label: "Controlled-Hadamard", Description: "Applies H to the target when the control is |1>.",
			Matrix: fixed(controlled(hMatrix()))},
		{Name: "swap", NumQubits: 2, Label: "SWAP", Description: "Exchanges the states of two qubits.",
			Matrix: fixed(swapMatrix())},
		{Name: "crx", NumQubits: 2, NumParams: 1, Label: "Controlled-RX", Description: "Controlled rotation about X.",
			Matrix: func(p []float64) Matrix { return controlled(rxMatrix(p[0])) }},
		{Name: "cry", NumQubits: 2, NumParams: 1, Label: "Controlled-RY", Description: "Controlled rotation about Y.",
			Matrix: func(p []float64) Matrix { return controlled(ryMatrix(p[0])) }},
		{Name: "crz", NumQubits: 2, NumParams: 1, Label: "Controlled-RZ", Description: "Controlled rotation about Z.",
			Matrix: func(p []float64) Matrix { return controlled(rzMatrix(p[0])) }},
		{Name: "cp", NumQubits: 2, NumParams: 1, Label: "Controlled-Phase", Description: "Applies a phase to |11>.",
			Matrix: func(p []float64) Matrix { return controlled(pMatrix(p[0])) }},
		{Name: "ccx", NumQubits: 3, Label: "Toffoli", Description: "Flips the target when both controls are |1>.",
			Matrix: fixed(controlled(controlled(xMatrix())))},
		{Name: "measure", NumQubits: 1, NumClbits: 1, Label: "Measure", Description: "Measures a qubit into a classical bit."},
		{Name: "reset", NumQubits: 1, Label: "Reset", Description: "Returns a qubit to |0>."},
		{Name: ir.BarrierName, Variadic: true, Directive: true, Label: "Barrier", Description: "Blocks optimization across its qubits."},
	}
}

// Convenience constructors for the standard operations.

func H() ir.Operation { return ir.NewOperation("h", 1, 0) }
func X() ir.Operation { return ir.NewOperation("x", 1, 0) }
func Y() ir.Operation { return ir.NewOperation("y", 1, 0) }
func Z() ir.Operation { return ir.NewOperation("z", 1, 0) }
func S() ir.Operation { return ir.NewOperation("s", 1, 0) }
func Sdg() ir.Operation { return ir.NewOperation("sdg", 1, 0) }
func T() ir.Operation { return ir.NewOperation("t", 1, 0) }
func Tdg() ir.Operation { return ir.NewOperation("tdg", 1, 0) }
func SX() ir.Operation { return ir.NewOperation("sx", 1, 0) }
func SXdg() ir.Operation { return ir.NewOperation("sxdg", 1, 0) }
func ID() ir.Operation { return ir.NewOperation("id", 1, 0) }
func RX(theta float64) ir.Operation { return ir.NewOperation("rx", 1, 0, theta) }
func RY(theta float64) ir.Operation { return ir.NewOperation("ry", 1, 0, theta) }
func RZ(theta float64) ir.Operation { return ir.NewOperation("rz", 1, 0, theta) }
func P(lambda float64) ir.Operation { return ir.NewOperation("p", 1, 0, lambda) }
func U(theta, phi, lambda float64) ir.Operation {
	return ir.NewOperation("u", 1, 0, theta, phi, lambda)
}
func CX() ir.Operation { return ir.NewOperation("cx", 2, 0) }
func CY() ir.Operation { return ir.NewOperation("cy", 2, 0) }
func CZ() ir.Operation { return ir.NewOperation("cz", 2, 0) }
func CH() ir.Operation { return ir.NewOperation("ch", 2, 0) }
func Swap() ir.Operation { return ir.NewOperation("swap", 2, 0) }
func CRX(theta float64) ir.Operation { return ir.NewOperation("crx", 2, 0, theta) }
func CRY(theta float64) ir.Operation { return ir.NewOperation("cry", 2, 0, theta) }
func CRZ(theta float64) ir.Operation { return ir.NewOperation("crz", 2, 0, theta) }
func CP(lambda float64) ir.Operation { return ir.NewOperation("cp", 2, 0, lambda) }
func CCX() ir.Operation { return ir.NewOperation("ccx", 3, 0) }
func Measure() ir.Operation { return ir.NewOperation("measure", 1, 1) }
func Reset() ir.Operation { return ir.NewOperation("reset", 1, 0) }

// Barrier returns a barrier spanning n qubits.
func Barrier(n int) ir.Operation { return ir.NewOperation(ir.BarrierName, n, 0) }
