package testutil

import (
	"testing"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
)

// Bell returns the two-qubit Bell circuit: h on 0, cx 0->1.
func Bell(t testing.TB) *ir.Circuit {
	t.Helper()
	c := ir.NewWithQubits("bell", 2, 0)
	mustAppend(t, c, gates.H(), 0)
	mustAppend(t, c, gates.CX(), 0, 1)
	return c
}

// GHZ returns an n-qubit GHZ preparation with a cx chain and final
// measurements into register "c".
func GHZ(t testing.TB, n int) *ir.Circuit {
	t.Helper()
	c := ir.NewWithQubits("ghz", n, n)
	mustAppend(t, c, gates.H(), 0)
	for q := 1; q < n; q++ {
		mustAppend(t, c, gates.CX(), q-1, q)
	}
	for q := 0; q < n; q++ {
		if err := c.AppendAt(gates.Measure(), []int{q}, q); err != nil {
			t.Fatalf("append measure: %v", err)
		}
	}
	return c
}

func mustAppend(t testing.TB, c *ir.Circuit, op ir.Operation, qubits ...int) {
	t.Helper()
	if err := c.AppendAt(op, qubits); err != nil {
		t.Fatalf("append %s: %v", op.Name(), err)
	}
}
