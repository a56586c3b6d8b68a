package script

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
)

var (
	circuitRegex = regexp.MustCompile(`^([A-Za-z_]\w*)\s*=\s*(?:\w+\.)?QuantumCircuit\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)$`)
	callRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\.([A-Za-z_]\w*)\((.*)\)$`)
	modulePrefix = regexp.MustCompile(`\b(?:np|numpy|math)\.`)
)

// aliases maps circuit method names onto registry operation names.
var aliases = map[string]string{
	"cnot":    "cx",
	"toffoli": "ccx",
	"i":       "id",
}

// ignored methods do not change the circuit.
var ignored = map[string]bool{
	"draw": true, "depth": true, "size": true, "width": true,
	"count_ops": true, "copy": true, "qasm": true, "num_qubits": true,
}

// ScriptError reports a line that declares or modifies the circuit but
// cannot be interpreted.
type ScriptError struct {
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ScriptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("script line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("script line %d: %s", e.Line, e.Message)
}

// Unwrap returns the underlying error.
func (e *ScriptError) Unwrap() error { return e.Err }

// IsScriptError reports whether err is or wraps a ScriptError.
func IsScriptError(err error) bool {
	var e *ScriptError
	return errors.As(err, &e)
}

// ErrNoCircuit is returned when a script never declares a circuit.
var ErrNoCircuit = errors.New("script: no QuantumCircuit declaration found")

// Option configures Parse.
type Option func(*scriptParser)

// WithLogger sets the logger that records skipped circuit methods.
func WithLogger(l *slog.Logger) Option {
	return func(p *scriptParser) { p.logger = l }
}

// Parse reads a Python circuit script such as
//
//	qc = QuantumCircuit(2)
//	qc.h(0)
//	qc.cx(0, 1)
//
// The circuit is named after the variable it is assigned to. Calls on
// other variables, imports and any other line are skipped, and so are
// circuit methods the registry does not define (save_statevector,
// initialize). Known methods with bad arguments are errors.
func Parse(r io.Reader, reg *gates.Registry, opts ...Option) (*ir.Circuit, error) {
	p := &scriptParser{reg: reg, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(p)
	}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if err := p.line(line, text); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	if p.c == nil {
		return nil, ErrNoCircuit
	}
	return p.c, nil
}

type scriptParser struct {
	reg    *gates.Registry
	name   string
	c      *ir.Circuit
	logger *slog.Logger
}

func (p *scriptParser) fail(line int, err error, format string, args ...any) error {
	return &ScriptError{Line: line, Message: fmt.Sprintf(format, args...), Err: err}
}

func (p *scriptParser) line(line int, text string) error {
	if m := circuitRegex.FindStringSubmatch(text); m != nil {
		if p.c != nil {
			return p.fail(line, nil, "second circuit declaration %q", m[1])
		}
		nq, _ := strconv.Atoi(m[2])
		nc := 0
		if m[3] != "" {
			nc, _ = strconv.Atoi(m[3])
		}
		p.name = m[1]
		p.c = ir.NewWithQubits(m[1], nq, nc)
		return nil
	}

	m := callRegex.FindStringSubmatch(text)
	if m == nil || p.c == nil || m[1] != p.name {
		return nil
	}
	method, rawArgs := m[2], splitArgs(m[3])
	switch {
	case ignored[method]:
		return nil
	case method == "measure_all":
		return p.measureAll(line)
	case method == ir.BarrierName:
		return p.barrier(line, rawArgs)
	}

	name := method
	if alias, ok := aliases[method]; ok {
		name = alias
	}
	def, err := p.reg.Lookup(name)
	if gates.IsUnknownOperation(err) {
		p.logger.Debug("skipping unknown circuit method", "line", line, "method", method)
		return nil
	}
	if err != nil {
		return p.fail(line, err, "%s.%s", p.name, method)
	}
	want := def.NumParams + def.NumQubits + def.NumClbits
	if len(rawArgs) != want {
		return p.fail(line, nil, "%s takes %d arguments, got %d", method, want, len(rawArgs))
	}

	params := make([]float64, def.NumParams)
	for i := range params {
		v, ok := ParseParam(rawArgs[i])
		if !ok {
			return p.fail(line, nil, "invalid parameter %q", rawArgs[i])
		}
		params[i] = v
	}
	qubits, err := p.indices(line, rawArgs[def.NumParams:def.NumParams+def.NumQubits])
	if err != nil {
		return err
	}
	clbits, err := p.indices(line, rawArgs[def.NumParams+def.NumQubits:])
	if err != nil {
		return err
	}

	op, err := def.Operation(params...)
	if err != nil {
		return p.fail(line, err, "%s", method)
	}
	if err := p.c.AppendAt(op, qubits, clbits...); err != nil {
		return p.fail(line, err, "%s", method)
	}
	return nil
}

func (p *scriptParser) indices(line int, args []string) ([]int, error) {
	out := make([]int, len(args))
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, p.fail(line, nil, "bit index %q is not an integer", a)
		}
		out[i] = n
	}
	return out, nil
}

// barrier with no arguments spans every qubit.
func (p *scriptParser) barrier(line int, args []string) error {
	qubits, err := p.indices(line, args)
	if err != nil {
		return err
	}
	if len(qubits) == 0 {
		for i := 0; i < p.c.NumQubits(); i++ {
			qubits = append(qubits, i)
		}
	}
	if err := p.c.AppendAt(gates.Barrier(len(qubits)), qubits); err != nil {
		return p.fail(line, err, "barrier")
	}
	return nil
}

// measureAll adds a "meas" register, a barrier and one measurement per
// qubit.
func (p *scriptParser) measureAll(line int) error {
	n := p.c.NumQubits()
	reg, err := p.c.AddClbits(n, "meas")
	if err != nil {
		return p.fail(line, err, "measure_all")
	}
	if err := p.barrier(line, nil); err != nil {
		return err
	}
	for q := 0; q < n; q++ {
		if err := p.c.AppendAt(gates.Measure(), []int{q}, reg.Offset+q); err != nil {
			return p.fail(line, err, "measure_all")
		}
	}
	return nil
}

// ParseParam accepts anything qasm.ParseParam does, plus pi written as
// np.pi, numpy.pi or math.pi.
func ParseParam(s string) (float64, bool) {
	return qasm.ParseParam(modulePrefix.ReplaceAllString(s, ""))
}

func splitArgs(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
