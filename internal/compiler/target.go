package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/qpass/internal/target"
)

// CompileTarget parses a CUE value into a target.Spec.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the target struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`target: line5: { num_qubits: 5, ... }`)
//	spec, err := CompileTarget(v.LookupPath(cue.ParsePath("target.line5")))
//
// CompileTarget checks shapes only. Semantic checks such as unknown basis
// operations or out-of-range edges belong to Validate.
func CompileTarget(v cue.Value) (*target.Spec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &target.Spec{}

	// Name defaults to the struct label; an explicit name field wins.
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = selectorName(labels[len(labels)-1])
	}
	if nameVal := v.LookupPath(cue.ParsePath("name")); nameVal.Exists() {
		name, err := nameVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Name = name
	}

	if descVal := v.LookupPath(cue.ParsePath("description")); descVal.Exists() {
		desc, err := descVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.Description = desc
	}

	nqVal := v.LookupPath(cue.ParsePath("num_qubits"))
	if !nqVal.Exists() {
		return nil, &CompileError{Field: "num_qubits", Message: "num_qubits is required", Pos: v.Pos()}
	}
	nq, err := nqVal.Int64()
	if err != nil {
		return nil, &CompileError{Field: "num_qubits", Message: "num_qubits must be an integer", Pos: nqVal.Pos()}
	}
	spec.NumQubits = int(nq)

	basisVal := v.LookupPath(cue.ParsePath("basis"))
	if !basisVal.Exists() {
		return nil, &CompileError{Field: "basis", Message: "basis is required", Pos: v.Pos()}
	}
	spec.Basis, err = parseStrings(basisVal, "basis")
	if err != nil {
		return nil, err
	}

	if allVal := v.LookupPath(cue.ParsePath("all_to_all")); allVal.Exists() {
		all, err := allVal.Bool()
		if err != nil {
			return nil, &CompileError{Field: "all_to_all", Message: "all_to_all must be a bool", Pos: allVal.Pos()}
		}
		spec.AllToAll = all
	}

	if cVal := v.LookupPath(cue.ParsePath("coupling")); cVal.Exists() {
		spec.Coupling, err = parseCoupling(cVal)
		if err != nil {
			return nil, err
		}
	} else if !spec.AllToAll {
		return nil, &CompileError{Field: "coupling", Message: "coupling is required unless all_to_all is set", Pos: v.Pos()}
	}

	if pVal := v.LookupPath(cue.ParsePath("properties")); pVal.Exists() {
		spec.Properties, err = parseProperties(pVal)
		if err != nil {
			return nil, err
		}
	}

	return spec, nil
}

// CompileTargets compiles every field of the "target" struct in v, in
// source order. The first failure stops compilation.
func CompileTargets(v cue.Value) ([]target.Spec, error) {
	targetsVal := v.LookupPath(cue.ParsePath("target"))
	if !targetsVal.Exists() {
		return nil, nil
	}
	iter, err := targetsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var specs []target.Spec
	for iter.Next() {
		spec, err := CompileTarget(iter.Value())
		if err != nil {
			return nil, fmt.Errorf("target.%s: %w", selectorName(iter.Selector()), err)
		}
		specs = append(specs, *spec)
	}
	return specs, nil
}

func selectorName(sel cue.Selector) string {
	if sel.LabelType() == cue.StringLabel {
		return sel.Unquoted()
	}
	return sel.String()
}

func parseStrings(v cue.Value, field string) ([]string, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: v.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of strings", Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}

func parseInts(v cue.Value, field string) ([]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of integers", Pos: v.Pos()}
	}
	var out []int
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: "must be a list of integers", Pos: iter.Value().Pos()}
		}
		out = append(out, int(n))
	}
	return out, nil
}

// parseCoupling reads a list of [a, b] pairs.
func parseCoupling(v cue.Value) ([][2]int, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: "coupling", Message: "must be a list of [a, b] pairs", Pos: v.Pos()}
	}
	edges := [][2]int{}
	for iter.Next() {
		pair, err := parseInts(iter.Value(), "coupling")
		if err != nil {
			return nil, err
		}
		if len(pair) != 2 {
			return nil, &CompileError{
				Field:   "coupling",
				Message: fmt.Sprintf("edge must have exactly 2 qubits, got %d", len(pair)),
				Pos:     iter.Value().Pos(),
			}
		}
		edges = append(edges, [2]int{pair[0], pair[1]})
	}
	return edges, nil
}

// parseProperties reads op: [{qubits, error, duration}, ...].
func parseProperties(v cue.Value) (map[string][]target.PropertySpec, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, &CompileError{Field: "properties", Message: "must be a struct keyed by operation", Pos: v.Pos()}
	}
	out := make(map[string][]target.PropertySpec)
	for iter.Next() {
		op := selectorName(iter.Selector())
		list, err := iter.Value().List()
		if err != nil {
			return nil, &CompileError{Field: "properties." + op, Message: "must be a list", Pos: iter.Value().Pos()}
		}
		for list.Next() {
			p, err := parseProperty(list.Value(), op)
			if err != nil {
				return nil, err
			}
			out[op] = append(out[op], p)
		}
	}
	return out, nil
}

func parseProperty(v cue.Value, op string) (target.PropertySpec, error) {
	var p target.PropertySpec
	field := "properties." + op

	qVal := v.LookupPath(cue.ParsePath("qubits"))
	if !qVal.Exists() {
		return p, &CompileError{Field: field + ".qubits", Message: "qubits is required", Pos: v.Pos()}
	}
	qubits, err := parseInts(qVal, field+".qubits")
	if err != nil {
		return p, err
	}
	p.Qubits = qubits

	if eVal := v.LookupPath(cue.ParsePath("error")); eVal.Exists() {
		if p.Error, err = eVal.Float64(); err != nil {
			return p, &CompileError{Field: field + ".error", Message: "error must be a number", Pos: eVal.Pos()}
		}
	}
	if dVal := v.LookupPath(cue.ParsePath("duration")); dVal.Exists() {
		if p.Duration, err = dVal.Float64(); err != nil {
			return p, &CompileError{Field: field + ".duration", Message: "duration must be a number", Pos: dVal.Pos()}
		}
	}
	return p, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
