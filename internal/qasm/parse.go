package qasm

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
)

// DefaultName names parsed circuits without a "// circuit:" comment.
const DefaultName = "qasm"

// Pre-compiled statement patterns.
var (
	headerRegex  = regexp.MustCompile(`^OPENQASM\s+(\d+\.\d+)$`)
	includeRegex = regexp.MustCompile(`^include\s+"([^"]+)"$`)
	regRegex     = regexp.MustCompile(`^(qreg|creg)\s+([A-Za-z_]\w*)\s*\[\s*(\d+)\s*\]$`)
	measureRegex = regexp.MustCompile(`^measure\s+(.+?)\s*->\s*(.+)$`)
	ifRegex      = regexp.MustCompile(`^if\s*\(\s*([A-Za-z_]\w*)(?:\s*\[\s*(\d+)\s*\])?\s*==\s*(\d+)\s*\)\s*(.+)$`)
	gateRegex    = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?:\(([^)]*)\))?\s+(.+)$`)
	argRegex     = regexp.MustCompile(`^([A-Za-z_]\w*)(?:\s*\[\s*(\d+)\s*\])?$`)
	nameComment  = regexp.MustCompile(`^//\s*circuit:\s*(.+)$`)
	phaseComment = regexp.MustCompile(`^//\s*global_phase:\s*(\S+)$`)
)

// ParseError reports an invalid statement and the line it starts on.
type ParseError struct {
	Line    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("qasm line %d: %s: %v", e.Line, e.Message, e.Err)
	}
	return fmt.Sprintf("qasm line %d: %s", e.Line, e.Message)
}

// Unwrap returns the underlying circuit or registry error, if any.
func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var e *ParseError
	return errors.As(err, &e)
}

type statement struct {
	line int
	text string
}

// Parse reads an OpenQASM 2.0 program into a circuit. Operation names are
// resolved against reg. Custom gate definitions are not supported.
func Parse(src string, reg *gates.Registry) (*ir.Circuit, error) {
	name := DefaultName
	phase := 0.0
	var stmts []statement

	var buf strings.Builder
	start := 0
	for i, raw := range strings.Split(src, "\n") {
		line := strings.TrimSpace(raw)
		if m := nameComment.FindStringSubmatch(line); m != nil {
			name = strings.TrimSpace(m[1])
		}
		if m := phaseComment.FindStringSubmatch(line); m != nil {
			if v, err := strconv.ParseFloat(m[1], 64); err == nil {
				phase = v
			}
		}
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		for _, r := range line {
			if buf.Len() == 0 && (r == ' ' || r == '\t') {
				continue
			}
			if buf.Len() == 0 {
				start = i + 1
			}
			if r == ';' {
				stmts = append(stmts, statement{line: start, text: strings.TrimSpace(buf.String())})
				buf.Reset()
				continue
			}
			buf.WriteRune(r)
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
	}
	if rest := strings.TrimSpace(buf.String()); rest != "" {
		return nil, &ParseError{Line: start, Message: fmt.Sprintf("missing ';' after %q", rest)}
	}

	p := &parser{reg: reg, c: ir.New(name)}
	p.c.SetGlobalPhase(phase)
	for i, st := range stmts {
		if err := p.statement(st, i == 0); err != nil {
			return nil, err
		}
	}
	return p.c, nil
}

type parser struct {
	reg *gates.Registry
	c   *ir.Circuit
}

func (p *parser) fail(st statement, err error, format string, args ...any) error {
	return &ParseError{Line: st.line, Message: fmt.Sprintf(format, args...), Err: err}
}

func (p *parser) statement(st statement, first bool) error {
	text := st.text
	if m := headerRegex.FindStringSubmatch(text); m != nil {
		if !first {
			return p.fail(st, nil, "OPENQASM header must come first")
		}
		if m[1] != "2.0" {
			return p.fail(st, nil, "unsupported OpenQASM version %s", m[1])
		}
		return nil
	}
	if includeRegex.MatchString(text) {
		return nil
	}
	if m := regRegex.FindStringSubmatch(text); m != nil {
		size, _ := strconv.Atoi(m[3])
		kind := ir.QubitKind
		if m[1] == "creg" {
			kind = ir.ClbitKind
		}
		if _, err := p.c.AddRegister(kind, size, m[2]); err != nil {
			return p.fail(st, err, "declare %s", m[2])
		}
		return nil
	}
	if strings.HasPrefix(text, "gate ") || strings.HasPrefix(text, "opaque ") {
		return p.fail(st, nil, "custom gate definitions are not supported")
	}

	var cond *ir.Condition
	if m := ifRegex.FindStringSubmatch(text); m != nil {
		c, err := p.condition(st, m[1], m[2], m[3])
		if err != nil {
			return err
		}
		cond = c
		text = strings.TrimSpace(m[4])
	}

	if m := measureRegex.FindStringSubmatch(text); m != nil {
		return p.measure(st, m[1], m[2], cond)
	}
	if m := gateRegex.FindStringSubmatch(text); m != nil {
		return p.gate(st, m[1], m[2], m[3], cond)
	}
	return p.fail(st, nil, "unrecognized statement %q", text)
}

func (p *parser) condition(st statement, regName, index, value string) (*ir.Condition, error) {
	reg, ok := p.c.Register(regName)
	if !ok || reg.Kind != ir.ClbitKind {
		return nil, p.fail(st, nil, "condition on unknown classical register %q", regName)
	}
	v, _ := strconv.Atoi(value)
	if v > 1 {
		return nil, p.fail(st, nil, "condition value %d is not a single bit", v)
	}
	bit := 0
	switch {
	case index != "":
		bit, _ = strconv.Atoi(index)
		if bit >= reg.Size {
			return nil, p.fail(st, nil, "condition bit %s[%d] out of range", regName, bit)
		}
	case reg.Size != 1:
		return nil, p.fail(st, nil, "conditions on multi-bit register %q need a bit index", regName)
	}
	return &ir.Condition{Clbit: reg.Offset + bit, Value: v}, nil
}

// args resolves a comma-separated operand list. A bare register name
// expands to every bit of the register.
func (p *parser) args(st statement, list string, kind ir.BitKind) ([]int, error) {
	var out []int
	for _, a := range strings.Split(list, ",") {
		a = strings.TrimSpace(a)
		m := argRegex.FindStringSubmatch(a)
		if m == nil {
			return nil, p.fail(st, nil, "invalid operand %q", a)
		}
		reg, ok := p.c.Register(m[1])
		if !ok || reg.Kind != kind {
			return nil, p.fail(st, nil, "unknown %s register %q", kind, m[1])
		}
		if m[2] == "" {
			for i := 0; i < reg.Size; i++ {
				out = append(out, reg.Offset+i)
			}
			continue
		}
		idx, _ := strconv.Atoi(m[2])
		if idx >= reg.Size {
			return nil, p.fail(st, &ir.UnknownBitError{Kind: kind, Index: idx}, "operand %s", a)
		}
		out = append(out, reg.Offset+idx)
	}
	return out, nil
}

func (p *parser) measure(st statement, src, dst string, cond *ir.Condition) error {
	qubits, err := p.args(st, src, ir.QubitKind)
	if err != nil {
		return err
	}
	clbits, err := p.args(st, dst, ir.ClbitKind)
	if err != nil {
		return err
	}
	if len(qubits) != len(clbits) {
		return p.fail(st, nil, "measure of %d qubits into %d bits", len(qubits), len(clbits))
	}
	op, err := p.reg.Operation("measure")
	if err != nil {
		return p.fail(st, err, "measure")
	}
	for i := range qubits {
		in := ir.Instruction{Op: op, Qubits: []int{qubits[i]}, Clbits: []int{clbits[i]}, Condition: cond}
		if err := p.c.AppendInstruction(in); err != nil {
			return p.fail(st, err, "measure")
		}
	}
	return nil
}

func (p *parser) gate(st statement, name, paramList, argList string, cond *ir.Condition) error {
	def, err := p.reg.Lookup(name)
	if err != nil {
		return p.fail(st, err, "gate %s", name)
	}
	params, ok := parseParamList(paramList)
	if !ok {
		return p.fail(st, nil, "invalid parameters %q", paramList)
	}
	qubits, err := p.args(st, argList, ir.QubitKind)
	if err != nil {
		return err
	}

	var op ir.Operation
	if def.Variadic {
		op = ir.NewOperation(name, len(qubits), 0)
	} else if op, err = def.Operation(params...); err != nil {
		return p.fail(st, err, "gate %s", name)
	}
	in := ir.Instruction{Op: op, Qubits: qubits, Condition: cond}
	if err := p.c.AppendInstruction(in); err != nil {
		return p.fail(st, err, "gate %s", name)
	}
	return nil
}
