package ir

// View is a read-only snapshot of a circuit for rendering and export.
// Drawers and JSON output consume a View instead of the live circuit.
type View struct {
	Name         string            `json:"name"`
	GlobalPhase  float64           `json:"global_phase"`
	Qubits       []Qubit           `json:"qubits"`
	Clbits       []Clbit           `json:"clbits"`
	Instructions []ViewInstruction `json:"instructions"`
}

// ViewInstruction is one instruction of a View.
type ViewInstruction struct {
	Name      string     `json:"name"`
	Params    []float64  `json:"params,omitempty"`
	Qubits    []int      `json:"qubits"`
	Clbits    []int      `json:"clbits,omitempty"`
	Condition *Condition `json:"condition,omitempty"`
}

// View returns a snapshot of the circuit.
func (c *Circuit) View() View {
	v := View{
		Name:         c.name,
		GlobalPhase:  c.globalPhase,
		Qubits:       c.Qubits(),
		Clbits:       c.Clbits(),
		Instructions: make([]ViewInstruction, len(c.data)),
	}
	for i, in := range c.data {
		in = in.Clone()
		v.Instructions[i] = ViewInstruction{
			Name:      in.Op.Name(),
			Params:    in.Op.Params(),
			Qubits:    in.Qubits,
			Clbits:    in.Clbits,
			Condition: in.Condition,
		}
	}
	return v
}
