package cli

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/compiler"
	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/pauli"
	"github.com/roach88/qpass/internal/target"
	"github.com/roach88/qpass/internal/transpiler"
)

// =============================================================================
// LoadTargets
// =============================================================================

func TestLoadTargets(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tee.cue", teeCUE)
	writeFile(t, dir, "pair.cue", `target: pair: {
	num_qubits: 2
	basis: ["h", "cx"]
	all_to_all: true
}
`)

	result, errs := LoadTargets(dir, gates.Standard(), LoadModeFailFast)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Specs, 2)

	names := []string{result.Specs[0].Name, result.Specs[1].Name}
	assert.ElementsMatch(t, []string{"tee4", "pair"}, names)
}

func TestLoadTargets_Errors(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		wantCode string
	}{
		{
			name:     "no files",
			files:    map[string]string{"notes.txt": "nothing"},
			wantCode: ErrCodeNoFiles,
		},
		{
			name:     "syntax error",
			files:    map[string]string{"bad.cue": "target: {"},
			wantCode: ErrCodeLoadFailed,
		},
		{
			name:     "no target struct",
			files:    map[string]string{"other.cue": "device: x: 1\n"},
			wantCode: ErrCodeGeneric,
		},
		{
			name:     "missing num_qubits",
			files:    map[string]string{"t.cue": "target: t1: basis: [\"cx\"]\n"},
			wantCode: compiler.ErrNumQubits,
		},
		{
			name:     "unknown basis operation",
			files:    map[string]string{"t.cue": "target: t1: {num_qubits: 2, basis: [\"warp\"], coupling: [[0, 1]]}\n"},
			wantCode: compiler.ErrBasisUnknownOp,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				writeFile(t, dir, name, content)
			}
			_, errs := LoadTargets(dir, gates.Standard(), LoadModeFailFast)
			require.NotEmpty(t, errs)
			assert.Equal(t, tt.wantCode, ErrorCode(errs[0]))
		})
	}
}

func TestLoadTargets_MissingDir(t *testing.T) {
	result, errs := LoadTargets(filepath.Join(t.TempDir(), "missing"), gates.Standard(), LoadModeFailFast)
	assert.Nil(t, result)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrCodeNotFound, ErrorCode(errs[0]))
}

func TestLoadTargets_CollectAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "t.cue", `target: {
	a: {num_qubits: 2, basis: ["warp"], coupling: [[0, 1]]}
	b: {num_qubits: 2, basis: ["cx"], coupling: [[0, 0]]}
	c: {num_qubits: 2, basis: ["cx"], coupling: [[0, 1]]}
}
`)

	failFast, errs := LoadTargets(dir, gates.Standard(), LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Empty(t, failFast.Specs)

	all, errs := LoadTargets(dir, gates.Standard(), LoadModeCollectAll)
	require.Len(t, errs, 2)
	assert.Equal(t, compiler.ErrBasisUnknownOp, ErrorCode(errs[0]))
	assert.Equal(t, compiler.ErrEdgeSelfLoop, ErrorCode(errs[1]))
	require.Len(t, all.Specs, 1)
	assert.Equal(t, "c", all.Specs[0].Name)
}

// =============================================================================
// Catalog
// =============================================================================

func TestCatalog_LoadedShadowsBuiltin(t *testing.T) {
	catalog, err := NewCatalog([]target.Spec{{
		Name:      "bell2",
		NumQubits: 3,
		Basis:     []string{"cx"},
		Coupling:  [][2]int{{0, 1}, {1, 2}},
	}})
	require.NoError(t, err)

	tg, err := catalog.Lookup("bell2")
	require.NoError(t, err)
	assert.Equal(t, 3, tg.NumQubits())
	assert.Contains(t, catalog.Names(), "line5")
}

func TestCatalog_Unknown(t *testing.T) {
	catalog, err := NewCatalog(nil)
	require.NoError(t, err)

	_, err = catalog.Lookup("nowhere")
	var unknown *UnknownTargetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, catalog.Names(), unknown.Known)
	assert.IsNonDecreasing(t, unknown.Known)
}

// =============================================================================
// LoadCircuit and ErrorCode
// =============================================================================

func TestLoadCircuit_ByExtension(t *testing.T) {
	dir := t.TempDir()
	reg := gates.Standard()

	c, err := LoadCircuit(writeFile(t, dir, "bell.qasm", bellQASM), reg)
	require.NoError(t, err)
	assert.Equal(t, "bell", c.Name())
	assert.Equal(t, 4, c.Len())

	c, err = LoadCircuit(writeFile(t, dir, "ghz.py", ghzScript), reg)
	require.NoError(t, err)
	assert.Equal(t, "ghz", c.Name())
	assert.Equal(t, 3, c.NumQubits())
}

func TestErrorCode(t *testing.T) {
	reg := gates.Standard()
	_, unknownOp := reg.Lookup("warp")
	_, mismatch := pauli.FromLabels("XX", "Z")
	c := ir.NewWithQubits("c", 1, 0)
	arity := c.AppendAt(gates.CX(), []int{0})

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"load error", &LoadError{Code: ErrCodeNoFiles, Message: "x"}, ErrCodeNoFiles},
		{"validation", compiler.ValidationError{Code: compiler.ErrEdgeDuplicate}, compiler.ErrEdgeDuplicate},
		{"unknown target", &UnknownTargetError{Name: "x"}, ErrCodeUnknownTarget},
		{"unsatisfiable", &transpiler.PassError{Pass: "Layout", Err: &transpiler.UnsatisfiableConnectivityError{}}, ErrCodeUnsatisfiableConnectivity},
		{"insufficient", &transpiler.InsufficientQubitsError{}, ErrCodeInsufficientQubits},
		{"other pass error", &transpiler.PassError{Pass: "Routing", Err: errors.New("boom")}, ErrCodeTranspile},
		{"unknown operation", unknownOp, ErrCodeUnknownOperation},
		{"arity", arity, ErrCodeArity},
		{"observable", mismatch, ErrCodeObservable},
		{"generic", errors.New("boom"), ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
		})
	}
}

func TestMapFieldToErrorCode(t *testing.T) {
	assert.Equal(t, compiler.ErrNumQubits, MapFieldToErrorCode("num_qubits"))
	assert.Equal(t, compiler.ErrBasisEmpty, MapFieldToErrorCode("basis[2]"))
	assert.Equal(t, compiler.ErrEdgeOutOfRange, MapFieldToErrorCode("coupling[0]"))
	assert.Equal(t, compiler.ErrPropertyQubits, MapFieldToErrorCode("properties.cx"))
	assert.Equal(t, ErrCodeTargetSchema, MapFieldToErrorCode("all_to_all"))
}
