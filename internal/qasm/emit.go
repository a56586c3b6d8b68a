package qasm

import (
	"fmt"
	"strings"

	"github.com/roach88/qpass/internal/ir"
)

// Emit renders c as OpenQASM 2.0.
//
// Registers are declared in circuit order. The circuit name and a non-zero
// global phase, which OpenQASM 2.0 cannot express, are written as
// "// circuit:" and "// global_phase:" comments that Parse reads back.
// A condition on a one-bit register is written as if(reg==v); on a wider
// register it names the bit, as in if(c[1]==1).
func Emit(c *ir.Circuit) string {
	var sb strings.Builder
	sb.WriteString("OPENQASM 2.0;\n")
	sb.WriteString("include \"qelib1.inc\";\n")
	if c.Name() != "" {
		fmt.Fprintf(&sb, "// circuit: %s\n", c.Name())
	}
	if phase := c.GlobalPhase(); phase != 0 {
		fmt.Fprintf(&sb, "// global_phase: %s\n", ir.FormatFloat(phase))
	}
	for _, reg := range c.Registers() {
		kw := "qreg"
		if reg.Kind == ir.ClbitKind {
			kw = "creg"
		}
		fmt.Fprintf(&sb, "%s %s[%d];\n", kw, reg.Name, reg.Size)
	}

	qubits, clbits := c.Qubits(), c.Clbits()
	sizes := make(map[string]int)
	for _, reg := range c.Registers() {
		sizes[reg.Name] = reg.Size
	}

	for _, in := range c.All() {
		if in.Condition != nil {
			bit := clbits[in.Condition.Clbit]
			if sizes[bit.Register] == 1 {
				fmt.Fprintf(&sb, "if(%s==%d) ", bit.Register, in.Condition.Value)
			} else {
				fmt.Fprintf(&sb, "if(%s==%d) ", bit, in.Condition.Value)
			}
		}

		sb.WriteString(in.Name())
		if params := in.Op.Params(); len(params) > 0 {
			parts := make([]string, len(params))
			for i, p := range params {
				parts[i] = FormatParam(p)
			}
			fmt.Fprintf(&sb, "(%s)", strings.Join(parts, ","))
		}

		args := make([]string, len(in.Qubits))
		for i, q := range in.Qubits {
			args[i] = qubits[q].String()
		}
		sb.WriteString(" " + strings.Join(args, ","))

		if in.Name() == "measure" && len(in.Clbits) == 1 {
			fmt.Fprintf(&sb, " -> %s", clbits[in.Clbits[0]])
		}
		sb.WriteString(";\n")
	}
	return sb.String()
}
