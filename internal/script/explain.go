package script

import (
	"fmt"
	"strings"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
)

// Summary is the JSON form of an imported circuit.
type Summary struct {
	CircuitName string        `json:"circuitName"`
	QubitNum    int           `json:"qubitNum"`
	Gates       []GateSummary `json:"gates"`
}

// GateSummary names one instruction by its display label.
type GateSummary struct {
	Name   string    `json:"name"`
	Qubits []int     `json:"qubits"`
	Params []float64 `json:"params,omitempty"`
}

// Summarize lists every instruction of c by label.
func Summarize(c *ir.Circuit, reg *gates.Registry) (Summary, error) {
	s := Summary{CircuitName: c.Name(), QubitNum: c.NumQubits(), Gates: []GateSummary{}}
	for _, in := range c.All() {
		def, err := reg.Lookup(in.Name())
		if err != nil {
			return Summary{}, err
		}
		s.Gates = append(s.Gates, GateSummary{Name: label(def), Qubits: in.Qubits, Params: in.Op.Params()})
	}
	return s, nil
}

// controlCount is the number of leading control operands per operation.
var controlCount = map[string]int{
	"cx": 1, "cy": 1, "cz": 1, "ch": 1, "crx": 1, "cry": 1, "crz": 1, "cp": 1, "ccx": 2,
}

// Explain renders a Markdown walk-through of c: a heading per instruction
// followed by the operation's description and its operand roles.
func Explain(c *ir.Circuit, reg *gates.Registry) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Circuit %s\n\n", c.Name())
	fmt.Fprintf(&sb, "%d qubits, %d classical bits, %d instructions.\n", c.NumQubits(), c.NumClbits(), c.Len())

	for _, in := range c.All() {
		def, err := reg.Lookup(in.Name())
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&sb, "\n### %s gate on %s\n", label(def), qubitList(in.Qubits))
		sb.WriteString(def.Description)

		if n := controlCount[in.Name()]; n > 0 && n < len(in.Qubits) {
			fmt.Fprintf(&sb, " Control: %s. Target: %s.", qubitList(in.Qubits[:n]), qubitList(in.Qubits[n:]))
		}
		if params := in.Op.Params(); len(params) > 0 {
			parts := make([]string, len(params))
			for i, p := range params {
				parts[i] = qasm.FormatParam(p)
			}
			fmt.Fprintf(&sb, " Parameters: %s.", strings.Join(parts, ", "))
		}
		if len(in.Clbits) > 0 {
			fmt.Fprintf(&sb, " Result stored in %s.", bitList("clbit", in.Clbits))
		}
		if in.Condition != nil {
			fmt.Fprintf(&sb, " Runs only when clbit %d is %d.", in.Condition.Clbit, in.Condition.Value)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

func label(def gates.Definition) string {
	if def.Label != "" {
		return def.Label
	}
	return def.Name
}

func qubitList(qubits []int) string { return bitList("qubit", qubits) }

func bitList(noun string, bits []int) string {
	parts := make([]string, len(bits))
	for i, b := range bits {
		parts[i] = fmt.Sprint(b)
	}
	if len(bits) == 1 {
		return noun + " " + parts[0]
	}
	return noun + "s " + strings.Join(parts, ", ")
}
