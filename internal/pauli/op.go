package pauli

import (
	"cmp"
	"fmt"
	"math/cmplx"
	"slices"
	"strconv"
	"strings"
)

// Term is one weighted Pauli string.
type Term struct {
	Pauli String
	Coeff complex128
}

// Pair is the plain-data form of a term, used for export.
type Pair struct {
	Label string  `json:"label" yaml:"label"`
	Re    float64 `json:"re" yaml:"re"`
	Im    float64 `json:"im" yaml:"im"`
}

// Coeff returns the pair's coefficient.
func (p Pair) Coeff() complex128 { return complex(p.Re, p.Im) }

// SparsePauliOp is an immutable weighted sum of equal-length Pauli strings.
type SparsePauliOp struct {
	n     int
	terms []Term
}

// New builds an operator from terms, in the order given. Duplicate strings
// are kept; use Simplify to combine them.
func New(terms ...Term) (*SparsePauliOp, error) {
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	n := terms[0].Pauli.NumQubits()
	for _, t := range terms[1:] {
		if got := t.Pauli.NumQubits(); got != n {
			return nil, &LengthMismatchError{Label: t.Pauli.Label(), Want: n, Got: got}
		}
	}
	return &SparsePauliOp{n: n, terms: slices.Clone(terms)}, nil
}

// FromList builds an operator from label/coefficient pairs.
func FromList(pairs ...Pair) (*SparsePauliOp, error) {
	terms := make([]Term, len(pairs))
	for i, p := range pairs {
		s, err := ParsePauliString(p.Label)
		if err != nil {
			return nil, err
		}
		terms[i] = Term{Pauli: s, Coeff: p.Coeff()}
	}
	return New(terms...)
}

// FromLabels builds an operator with coefficient 1 on every label.
func FromLabels(labels ...string) (*SparsePauliOp, error) {
	pairs := make([]Pair, len(labels))
	for i, l := range labels {
		pairs[i] = Pair{Label: l, Re: 1}
	}
	return FromList(pairs...)
}

// ParseTerm parses "LABEL" or "COEFF*LABEL", where COEFF is a real or
// complex literal such as 0.5, -2i or (1+0.5i).
func ParseTerm(s string) (Term, error) {
	s = strings.TrimSpace(s)
	coeff := complex(1, 0)
	label := s
	if i := strings.LastIndexByte(s, '*'); i >= 0 {
		c, err := strconv.ParseComplex(strings.TrimSpace(s[:i]), 128)
		if err != nil {
			return Term{}, fmt.Errorf("pauli: coefficient of %q: %w", s, err)
		}
		coeff = c
		label = strings.TrimSpace(s[i+1:])
	}
	p, err := ParsePauliString(label)
	if err != nil {
		return Term{}, err
	}
	return Term{Pauli: p, Coeff: coeff}, nil
}

// NumQubits returns the length of every string in the operator.
func (op *SparsePauliOp) NumQubits() int { return op.n }

// Len returns the number of terms.
func (op *SparsePauliOp) Len() int { return len(op.terms) }

// Terms returns a copy of the terms in order.
func (op *SparsePauliOp) Terms() []Term { return slices.Clone(op.terms) }

// Pairs exports the terms as plain data.
func (op *SparsePauliOp) Pairs() []Pair {
	out := make([]Pair, len(op.terms))
	for i, t := range op.terms {
		out[i] = Pair{Label: t.Pauli.Label(), Re: real(t.Coeff), Im: imag(t.Coeff)}
	}
	return out
}

// Coeff returns the summed coefficient of label and whether it occurs.
func (op *SparsePauliOp) Coeff(label string) (complex128, bool) {
	var sum complex128
	found := false
	for _, t := range op.terms {
		if t.Pauli.Label() == label {
			sum += t.Coeff
			found = true
		}
	}
	return sum, found
}

func (op *SparsePauliOp) checkSize(o *SparsePauliOp) error {
	if o.n != op.n {
		return &LengthMismatchError{Want: op.n, Got: o.n}
	}
	return nil
}

// Add returns op + o. Equal strings are combined into one term whose
// coefficient is the sum, placed where the string first occurs.
func (op *SparsePauliOp) Add(o *SparsePauliOp) (*SparsePauliOp, error) {
	if err := op.checkSize(o); err != nil {
		return nil, err
	}
	return &SparsePauliOp{n: op.n, terms: combine(slices.Concat(op.terms, o.terms))}, nil
}

// Scale returns c·op.
func (op *SparsePauliOp) Scale(c complex128) *SparsePauliOp {
	terms := op.Terms()
	for i := range terms {
		terms[i].Coeff *= c
	}
	return &SparsePauliOp{n: op.n, terms: terms}
}

// Adjoint returns the Hermitian conjugate. Pauli strings are Hermitian, so
// only the coefficients are conjugated.
func (op *SparsePauliOp) Adjoint() *SparsePauliOp {
	terms := op.Terms()
	for i := range terms {
		terms[i].Coeff = cmplx.Conj(terms[i].Coeff)
	}
	return &SparsePauliOp{n: op.n, terms: terms}
}

// Dot returns the matrix product op·o with duplicate strings combined.
func (op *SparsePauliOp) Dot(o *SparsePauliOp) (*SparsePauliOp, error) {
	if err := op.checkSize(o); err != nil {
		return nil, err
	}
	terms := make([]Term, 0, len(op.terms)*len(o.terms))
	for _, a := range op.terms {
		for _, b := range o.terms {
			phase, s := a.Pauli.Dot(b.Pauli)
			terms = append(terms, Term{Pauli: s, Coeff: phase * a.Coeff * b.Coeff})
		}
	}
	return &SparsePauliOp{n: op.n, terms: combine(terms)}, nil
}

// Compose returns the operator applying op first and then o, that is o·op.
func (op *SparsePauliOp) Compose(o *SparsePauliOp) (*SparsePauliOp, error) {
	return o.Dot(op)
}

// Tensor returns op ⊗ o; o acts on the low qubits of the result.
func (op *SparsePauliOp) Tensor(o *SparsePauliOp) *SparsePauliOp {
	terms := make([]Term, 0, len(op.terms)*len(o.terms))
	for _, a := range op.terms {
		for _, b := range o.terms {
			terms = append(terms, Term{Pauli: a.Pauli.Tensor(b.Pauli), Coeff: a.Coeff * b.Coeff})
		}
	}
	return &SparsePauliOp{n: op.n + o.n, terms: terms}
}

// Simplify combines duplicate strings and drops terms with |c| <= atol.
// An operator that simplifies to nothing becomes 0·I.
func (op *SparsePauliOp) Simplify(atol float64) *SparsePauliOp {
	var kept []Term
	for _, t := range combine(op.terms) {
		if cmplx.Abs(t.Coeff) > atol {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		kept = []Term{{Pauli: Identity(op.n)}}
	}
	return &SparsePauliOp{n: op.n, terms: kept}
}

// Sorted returns the terms ordered by label, for stable output.
func (op *SparsePauliOp) Sorted() *SparsePauliOp {
	terms := op.Terms()
	slices.SortStableFunc(terms, func(a, b Term) int {
		return cmp.Compare(a.Pauli.Label(), b.Pauli.Label())
	})
	return &SparsePauliOp{n: op.n, terms: terms}
}

// ApplyLayout re-indexes the operator onto physical qubits: the label of
// virtual qubit v moves to mapping[v] on a register of numPhysical qubits,
// with I everywhere else.
func (op *SparsePauliOp) ApplyLayout(mapping []int, numPhysical int) (*SparsePauliOp, error) {
	if len(mapping) != op.n {
		return nil, &LengthMismatchError{Want: op.n, Got: len(mapping)}
	}
	used := make([]bool, numPhysical)
	for v, p := range mapping {
		if p < 0 || p >= numPhysical {
			return nil, fmt.Errorf("pauli: layout maps qubit %d to %d, outside 0..%d", v, p, numPhysical-1)
		}
		if used[p] {
			return nil, fmt.Errorf("pauli: layout maps two qubits to %d", p)
		}
		used[p] = true
	}

	terms := make([]Term, len(op.terms))
	for i, t := range op.terms {
		s := Identity(numPhysical)
		for v, p := range mapping {
			s.ops[p] = t.Pauli.ops[v]
		}
		terms[i] = Term{Pauli: s, Coeff: t.Coeff}
	}
	return &SparsePauliOp{n: numPhysical, terms: terms}, nil
}

// Equal reports whether both operators have identical term lists.
func (op *SparsePauliOp) Equal(o *SparsePauliOp) bool {
	return op.n == o.n && slices.EqualFunc(op.terms, o.terms, func(a, b Term) bool {
		return a.Coeff == b.Coeff && a.Pauli.Equal(b.Pauli)
	})
}

// String renders the operator as "(1+0i)*XX + (0.5+0i)*ZI".
func (op *SparsePauliOp) String() string {
	parts := make([]string, len(op.terms))
	for i, t := range op.terms {
		parts[i] = fmt.Sprintf("%v*%s", t.Coeff, t.Pauli.Label())
	}
	return strings.Join(parts, " + ")
}

// combine merges equal strings, keeping first-occurrence order.
func combine(terms []Term) []Term {
	index := make(map[string]int, len(terms))
	out := make([]Term, 0, len(terms))
	for _, t := range terms {
		key := t.Pauli.Label()
		if i, ok := index[key]; ok {
			out[i].Coeff += t.Coeff
			continue
		}
		index[key] = len(out)
		out = append(out, t)
	}
	return out
}
