package ir

import (
	"fmt"
	"iter"
	"maps"
	"math"
	"slices"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"
)

// BarrierName is the directive name excluded from depth calculations.
const BarrierName = "barrier"

// Condition gates an instruction on the value of one classical bit.
type Condition struct {
	Clbit int `json:"clbit"`
	Value int `json:"value"`
}

// Instruction is one application of an operation to flat bit indices.
// Qubit order is significant: for "cx" the first operand is the control.
type Instruction struct {
	Op        Operation
	Qubits    []int
	Clbits    []int
	Condition *Condition
}

// Name returns the operation name.
func (in Instruction) Name() string { return in.Op.Name() }

// Equal reports whether two instructions are identical.
func (in Instruction) Equal(other Instruction) bool {
	if !in.Op.Equal(other.Op) || !slices.Equal(in.Qubits, other.Qubits) || !slices.Equal(in.Clbits, other.Clbits) {
		return false
	}
	switch {
	case in.Condition == nil && other.Condition == nil:
		return true
	case in.Condition == nil || other.Condition == nil:
		return false
	default:
		return *in.Condition == *other.Condition
	}
}

// Clone returns a deep copy.
func (in Instruction) Clone() Instruction {
	out := Instruction{
		Op:     in.Op,
		Qubits: slices.Clone(in.Qubits),
		Clbits: slices.Clone(in.Clbits),
	}
	if in.Condition != nil {
		cond := *in.Condition
		out.Condition = &cond
	}
	return out
}

// Circuit is an ordered sequence of instructions over declared registers.
//
// Concurrent readers (All, At, Instructions, View) are safe; mutation is
// not safe for concurrent use. Transpiler passes never modify their input;
// they build a new circuit with CopyEmpty and AppendInstruction.
type Circuit struct {
	name        string
	globalPhase float64
	registers   []Register
	names       map[string]struct{}
	numQubits   int
	numClbits   int
	data        []Instruction
	metadata    map[string]string

	// live counts running iterations; mutation is refused while > 0.
	live atomic.Int32
}

// New creates an empty circuit with no registers.
func New(name string) *Circuit {
	return &Circuit{
		name:     norm.NFC.String(name),
		names:    make(map[string]struct{}),
		metadata: make(map[string]string),
	}
}

// NewWithQubits creates a circuit with a quantum register "q" and, when
// numClbits > 0, a classical register "c". It panics on negative sizes.
func NewWithQubits(name string, numQubits, numClbits int) *Circuit {
	if numQubits < 0 || numClbits < 0 {
		panic(fmt.Sprintf("ir.NewWithQubits: negative size (%d qubits, %d clbits)", numQubits, numClbits))
	}
	c := New(name)
	if numQubits > 0 {
		_, _ = c.AddRegister(QubitKind, numQubits, "q")
	}
	if numClbits > 0 {
		_, _ = c.AddRegister(ClbitKind, numClbits, "c")
	}
	return c
}

// Name returns the circuit name.
func (c *Circuit) Name() string { return c.name }

// NumQubits returns the total number of qubits across all quantum registers.
func (c *Circuit) NumQubits() int { return c.numQubits }

// NumClbits returns the total number of classical bits.
func (c *Circuit) NumClbits() int { return c.numClbits }

// Len returns the number of instructions.
func (c *Circuit) Len() int { return len(c.data) }

// GlobalPhase returns the global phase in [0, 2π).
func (c *Circuit) GlobalPhase() float64 { return c.globalPhase }

// SetGlobalPhase replaces the global phase.
func (c *Circuit) SetGlobalPhase(phase float64) {
	c.globalPhase = normalizePhase(phase)
}

// AddGlobalPhase adds to the global phase.
func (c *Circuit) AddGlobalPhase(phase float64) {
	c.globalPhase = normalizePhase(c.globalPhase + phase)
}

// Metadata returns a metadata value.
func (c *Circuit) Metadata(key string) (string, bool) {
	v, ok := c.metadata[key]
	return v, ok
}

// SetMetadata stores a metadata value. Metadata is carried through copies
// and transpilation but takes no part in equality or hashing.
func (c *Circuit) SetMetadata(key, value string) {
	c.metadata[key] = value
}

// AddRegister declares a register of the given kind and size.
// Returns DuplicateNameError if the name is already declared.
func (c *Circuit) AddRegister(kind BitKind, size int, name string) (Register, error) {
	if c.live.Load() > 0 {
		return Register{}, ErrMutationDuringIteration
	}
	if kind != QubitKind && kind != ClbitKind {
		return Register{}, fmt.Errorf("add register %q: unknown bit kind %v", name, kind)
	}
	if size < 0 {
		return Register{}, fmt.Errorf("add register %q: size must be non-negative, got %d", name, size)
	}
	name = norm.NFC.String(name)
	if name == "" {
		return Register{}, fmt.Errorf("add register: name is required")
	}
	if _, exists := c.names[name]; exists {
		return Register{}, &DuplicateNameError{Name: name}
	}

	reg := Register{Kind: kind, Name: name, Size: size}
	if kind == QubitKind {
		reg.Offset = c.numQubits
		c.numQubits += size
	} else {
		reg.Offset = c.numClbits
		c.numClbits += size
	}
	c.registers = append(c.registers, reg)
	c.names[name] = struct{}{}
	return reg, nil
}

// AddQubits declares a quantum register.
func (c *Circuit) AddQubits(size int, name string) (Register, error) {
	return c.AddRegister(QubitKind, size, name)
}

// AddClbits declares a classical register.
func (c *Circuit) AddClbits(size int, name string) (Register, error) {
	return c.AddRegister(ClbitKind, size, name)
}

// Registers returns the declared registers in declaration order.
func (c *Circuit) Registers() []Register {
	return slices.Clone(c.registers)
}

// Register looks up a register by name.
func (c *Circuit) Register(name string) (Register, bool) {
	name = norm.NFC.String(name)
	for _, reg := range c.registers {
		if reg.Name == name {
			return reg, true
		}
	}
	return Register{}, false
}

// Qubits returns every qubit in flat-index order.
func (c *Circuit) Qubits() []Qubit {
	out := make([]Qubit, 0, c.numQubits)
	for _, reg := range c.registers {
		if reg.Kind == QubitKind {
			out = append(out, reg.Qubits()...)
		}
	}
	return out
}

// Clbits returns every classical bit in flat-index order.
func (c *Circuit) Clbits() []Clbit {
	out := make([]Clbit, 0, c.numClbits)
	for _, reg := range c.registers {
		if reg.Kind == ClbitKind {
			out = append(out, reg.Clbits()...)
		}
	}
	return out
}

// QubitIndex resolves a qubit to its flat index.
func (c *Circuit) QubitIndex(q Qubit) (int, error) {
	return c.bitIndex(QubitKind, q.Register, q.Index)
}

// ClbitIndex resolves a classical bit to its flat index.
func (c *Circuit) ClbitIndex(b Clbit) (int, error) {
	return c.bitIndex(ClbitKind, b.Register, b.Index)
}

func (c *Circuit) bitIndex(kind BitKind, register string, index int) (int, error) {
	reg, ok := c.Register(register)
	if !ok || reg.Kind != kind || index < 0 || index >= reg.Size {
		return 0, &UnknownBitError{Kind: kind, Register: register, Index: index}
	}
	return reg.Offset + index, nil
}

// Append adds one instruction applying op to the given bits.
//
// Returns ArityMismatchError when the operand counts differ from the
// operation's arity and UnknownBitError when a bit is not part of the
// circuit. On success the instruction count grows by exactly one.
func (c *Circuit) Append(op Operation, qubits []Qubit, clbits ...Clbit) error {
	if len(qubits) != op.NumQubits() {
		return &ArityMismatchError{Op: op.Name(), Kind: QubitKind, Want: op.NumQubits(), Got: len(qubits)}
	}
	if len(clbits) != op.NumClbits() {
		return &ArityMismatchError{Op: op.Name(), Kind: ClbitKind, Want: op.NumClbits(), Got: len(clbits)}
	}

	in := Instruction{Op: op, Qubits: make([]int, len(qubits)), Clbits: make([]int, len(clbits))}
	for i, q := range qubits {
		idx, err := c.QubitIndex(q)
		if err != nil {
			return err
		}
		in.Qubits[i] = idx
	}
	for i, b := range clbits {
		idx, err := c.ClbitIndex(b)
		if err != nil {
			return err
		}
		in.Clbits[i] = idx
	}
	return c.AppendInstruction(in)
}

// AppendAt adds one instruction addressing bits by flat index.
func (c *Circuit) AppendAt(op Operation, qubits []int, clbits ...int) error {
	return c.AppendInstruction(Instruction{Op: op, Qubits: qubits, Clbits: clbits})
}

// AppendConditional adds an instruction that only runs when the classical
// bit at flat index clbit holds value.
func (c *Circuit) AppendConditional(op Operation, qubits []int, clbit, value int) error {
	return c.AppendInstruction(Instruction{Op: op, Qubits: qubits, Condition: &Condition{Clbit: clbit, Value: value}})
}

// AppendInstruction validates and appends a copy of in.
func (c *Circuit) AppendInstruction(in Instruction) error {
	if c.live.Load() > 0 {
		return ErrMutationDuringIteration
	}
	if err := c.check(in); err != nil {
		return err
	}
	c.data = append(c.data, in.Clone())
	return nil
}

func (c *Circuit) check(in Instruction) error {
	op := in.Op
	if len(in.Qubits) != op.NumQubits() {
		return &ArityMismatchError{Op: op.Name(), Kind: QubitKind, Want: op.NumQubits(), Got: len(in.Qubits)}
	}
	if len(in.Clbits) != op.NumClbits() {
		return &ArityMismatchError{Op: op.Name(), Kind: ClbitKind, Want: op.NumClbits(), Got: len(in.Clbits)}
	}
	for i, q := range in.Qubits {
		if q < 0 || q >= c.numQubits {
			return &UnknownBitError{Kind: QubitKind, Index: q}
		}
		for _, prev := range in.Qubits[:i] {
			if prev == q {
				return &DuplicateOperandError{Op: op.Name(), Index: q}
			}
		}
	}
	for _, b := range in.Clbits {
		if b < 0 || b >= c.numClbits {
			return &UnknownBitError{Kind: ClbitKind, Index: b}
		}
	}
	if in.Condition != nil && (in.Condition.Clbit < 0 || in.Condition.Clbit >= c.numClbits) {
		return &UnknownBitError{Kind: ClbitKind, Index: in.Condition.Clbit}
	}
	return nil
}

// Compose appends every instruction of other, relabelling its qubits through
// qubitMap and its clbits through clbitMap. A nil map means identity.
//
// Each map must be a bijection between the two circuits' bits of that kind;
// anything else returns RegisterSizeMismatchError and leaves c untouched.
// Clbit mapping is skipped when other has no classical bits.
func (c *Circuit) Compose(other *Circuit, qubitMap, clbitMap []int) error {
	if c.live.Load() > 0 {
		return ErrMutationDuringIteration
	}
	qmap, err := bijection(QubitKind, qubitMap, other.numQubits, c.numQubits)
	if err != nil {
		return err
	}
	var cmap []int
	if other.numClbits > 0 || len(clbitMap) > 0 {
		cmap, err = bijection(ClbitKind, clbitMap, other.numClbits, c.numClbits)
		if err != nil {
			return err
		}
	}

	mapped := make([]Instruction, 0, len(other.data))
	for _, in := range other.data {
		out := in.Clone()
		for i, q := range out.Qubits {
			out.Qubits[i] = qmap[q]
		}
		for i, b := range out.Clbits {
			out.Clbits[i] = cmap[b]
		}
		if out.Condition != nil {
			out.Condition.Clbit = cmap[out.Condition.Clbit]
		}
		if err := c.check(out); err != nil {
			return err
		}
		mapped = append(mapped, out)
	}

	c.data = append(c.data, mapped...)
	c.AddGlobalPhase(other.globalPhase)
	return nil
}

func bijection(kind BitKind, mapping []int, from, to int) ([]int, error) {
	if from != to {
		return nil, &RegisterSizeMismatchError{
			Kind:   kind,
			Want:   to,
			Got:    from,
			Reason: fmt.Sprintf("composed circuit has %d %s(s), receiving circuit has %d", from, kind, to),
		}
	}
	if mapping == nil {
		identity := make([]int, from)
		for i := range identity {
			identity[i] = i
		}
		return identity, nil
	}
	if len(mapping) != from {
		return nil, &RegisterSizeMismatchError{
			Kind:   kind,
			Want:   from,
			Got:    len(mapping),
			Reason: fmt.Sprintf("mapping has %d entries for %d %s(s)", len(mapping), from, kind),
		}
	}
	seen := make([]bool, to)
	for i, m := range mapping {
		if m < 0 || m >= to {
			return nil, &RegisterSizeMismatchError{
				Kind: kind, Want: to, Got: from,
				Reason: fmt.Sprintf("entry %d maps to %d, outside [0, %d)", i, m, to),
			}
		}
		if seen[m] {
			return nil, &RegisterSizeMismatchError{
				Kind: kind, Want: to, Got: from,
				Reason: fmt.Sprintf("%s %d is the image of more than one bit", kind, m),
			}
		}
		seen[m] = true
	}
	return slices.Clone(mapping), nil
}

// All iterates the instructions in append order. The sequence is lazy and
// restartable; each yielded instruction is a private copy. Any mutation of
// the circuit while the loop body runs returns ErrMutationDuringIteration.
func (c *Circuit) All() iter.Seq2[int, Instruction] {
	return func(yield func(int, Instruction) bool) {
		c.live.Add(1)
		defer c.live.Add(-1)
		for i := range c.data {
			if !yield(i, c.data[i].Clone()) {
				return
			}
		}
	}
}

// At returns a copy of the i-th instruction.
func (c *Circuit) At(i int) Instruction {
	return c.data[i].Clone()
}

// Instructions returns a copy of every instruction.
func (c *Circuit) Instructions() []Instruction {
	out := make([]Instruction, len(c.data))
	for i, in := range c.data {
		out[i] = in.Clone()
	}
	return out
}

// CopyEmpty returns a circuit with the same name, registers, phase and
// metadata but no instructions.
func (c *Circuit) CopyEmpty() *Circuit {
	return &Circuit{
		name:        c.name,
		globalPhase: c.globalPhase,
		registers:   slices.Clone(c.registers),
		names:       maps.Clone(c.names),
		numQubits:   c.numQubits,
		numClbits:   c.numClbits,
		metadata:    maps.Clone(c.metadata),
	}
}

// CopyEmptyWithQubits is like CopyEmpty but replaces every quantum register
// with a single register of the given name and size. Classical registers
// keep their names and order.
func (c *Circuit) CopyEmptyWithQubits(name string, numQubits int) (*Circuit, error) {
	out := New(c.name)
	out.globalPhase = c.globalPhase
	out.metadata = maps.Clone(c.metadata)
	if _, err := out.AddRegister(QubitKind, numQubits, name); err != nil {
		return nil, err
	}
	for _, reg := range c.registers {
		if reg.Kind != ClbitKind {
			continue
		}
		if _, err := out.AddRegister(ClbitKind, reg.Size, reg.Name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Copy returns a deep copy of the circuit.
func (c *Circuit) Copy() *Circuit {
	out := c.CopyEmpty()
	out.data = c.Instructions()
	return out
}

// Equal reports whether two circuits have the same registers, global phase
// and instruction sequence. Names and metadata are ignored.
func (c *Circuit) Equal(other *Circuit) bool {
	if c.globalPhase != other.globalPhase || !slices.Equal(c.registers, other.registers) || len(c.data) != len(other.data) {
		return false
	}
	for i := range c.data {
		if !c.data[i].Equal(other.data[i]) {
			return false
		}
	}
	return true
}

// CountOps returns how many instructions use each operation name.
func (c *Circuit) CountOps() map[string]int {
	counts := make(map[string]int)
	for _, in := range c.data {
		counts[in.Op.Name()]++
	}
	return counts
}

// Depth returns the length of the critical path through the circuit.
// Barriers do not add depth; conditions count as a use of their clbit.
func (c *Circuit) Depth() int {
	qlevel := make([]int, c.numQubits)
	clevel := make([]int, c.numClbits)
	depth := 0
	for _, in := range c.data {
		if in.Op.Name() == BarrierName {
			continue
		}
		level := 0
		for _, q := range in.Qubits {
			level = max(level, qlevel[q])
		}
		for _, b := range in.Clbits {
			level = max(level, clevel[b])
		}
		if in.Condition != nil {
			level = max(level, clevel[in.Condition.Clbit])
		}
		level++
		for _, q := range in.Qubits {
			qlevel[q] = level
		}
		for _, b := range in.Clbits {
			clevel[b] = level
		}
		if in.Condition != nil {
			clevel[in.Condition.Clbit] = level
		}
		depth = max(depth, level)
	}
	return depth
}

func normalizePhase(p float64) float64 {
	const twoPi = 2 * math.Pi
	p = math.Mod(p, twoPi)
	if p < 0 {
		p += twoPi
	}
	if p >= twoPi {
		p -= twoPi
	}
	return p
}
