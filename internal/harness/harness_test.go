package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/store"
)

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// ============================================================================
// Scenario execution
// ============================================================================

func TestRun_AllScenariosPass(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			s, err := LoadScenario(file)
			require.NoError(t, err)
			result, err := Run(s)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_BellGolden(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "bell_pair"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusSuccess, result.Status)
}

func TestRun_SplitChainGolden(t *testing.T) {
	result, err := RunWithGolden(t, loadScenario(t, "split_chain"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusError, result.Status)
	assert.Equal(t, "Layout", result.FailedPass)
	assert.Nil(t, result.Circuit)
}

func TestRun_IslandsPackScenario(t *testing.T) {
	result, err := Run(loadScenario(t, "islands_pack"))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, store.StatusSuccess, result.Status)
	require.NotNil(t, result.Circuit)
	assert.Equal(t, 7, result.Circuit.NumQubits())
}

func TestRun_WrongExpectedError(t *testing.T) {
	s := loadScenario(t, "split_chain")
	s.ExpectError = KindNoDecompositionPath
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected no_decomposition_path error, got unsatisfiable_connectivity")
}

func TestRun_ExpectedErrorButSucceeded(t *testing.T) {
	s := loadScenario(t, "bell_pair")
	s.Assertions = nil
	s.ExpectError = KindInsufficientQubits
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "run succeeded")
}

func TestRun_FailingAssertions(t *testing.T) {
	s := loadScenario(t, "bell_pair")
	s.Assertions = []Assertion{
		{Type: AssertCountOps, Ops: map[string]int{"cx": 2}},
		{Type: AssertLayout, Layout: []int{1, 0}},
		{Type: AssertSwapCount, Count: 3},
		{Type: AssertMaxDepth, Count: 1},
	}
	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 4)
	assert.Contains(t, result.Errors[0], "Assertion failed: count_ops")
	assert.Contains(t, result.Errors[0], "cx q[0],q[1];")
	assert.Contains(t, result.Errors[1], "layout [1 0]")
	assert.Contains(t, result.Errors[2], "3 swaps")
	assert.Contains(t, result.Errors[3], "depth 2")
}

func TestRun_UnknownTarget(t *testing.T) {
	s := loadScenario(t, "bell_pair")
	s.Target = "nowhere"
	_, err := Run(s)
	assert.ErrorContains(t, err, `unknown target "nowhere"`)
}

func TestRun_BadCircuit(t *testing.T) {
	s := loadScenario(t, "bell_pair")
	s.Circuit.QASM = "OPENQASM 2.0;\nqreg q[1];\nfoo q[0];\n"
	_, err := Run(s)
	assert.ErrorContains(t, err, "failed to load circuit")
}

// ============================================================================
// Scenario loading
// ============================================================================

func TestLoadScenario_ResolvesPaths(t *testing.T) {
	s := loadScenario(t, "ghz_tee")
	assert.Equal(t, filepath.Join("testdata", "circuits", "ghz4.qasm"), s.Circuit.File)
	assert.Equal(t, filepath.Join("testdata", "devices.cue"), s.TargetsFile)
}

func TestParseScenario_Errors(t *testing.T) {
	base := `name: x
description: d
target: bell2
circuit: {qasm: "qreg q[1];"}
`
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown field", base + "assertion: []\n", "field assertion not found"},
		{"no assertions", base, "assertions list is required"},
		{"no name", "description: d\n", "name is required"},
		{"two sources", "name: x\ndescription: d\ntarget: t\ncircuit: {qasm: a, script: b}\n", "exactly one of"},
		{"missing file", "name: x\ndescription: d\ntarget: t\ncircuit: {file: nope.qasm}\n", "circuit file not found"},
		{"level", base + "level: 5\nassertions: [{type: native}]\n", "level must be 0..3"},
		{"layout method", base + "layout_method: dense\nassertions: [{type: native}]\n", "layout_method"},
		{"error kind", base + "expect_error: boom\n", "unknown error kind"},
		{"error with assertions", base + "expect_error: insufficient_qubits\nassertions: [{type: native}]\n", "cannot be combined"},
		{"assertion type", base + "assertions: [{type: trace_order}]\n", "unknown assertion type"},
		{"count_ops empty", base + "assertions: [{type: count_ops}]\n", "ops is required"},
		{"layout empty", base + "assertions: [{type: layout}]\n", "layout is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml), t.TempDir())
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

// ============================================================================
// Golden files on disk
// ============================================================================

func TestWriteAndCompareGolden(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bell_pair.yaml")
	data, err := os.ReadFile(filepath.Join("testdata", "scenarios", "bell_pair.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	s, err := LoadScenario(file)
	require.NoError(t, err)
	result, err := Run(s)
	require.NoError(t, err)

	_, err = CompareGolden(file, s, result)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, WriteGolden(file, s, result))
	assert.FileExists(t, filepath.Join(dir, "golden", "bell_pair.golden"))

	match, err := CompareGolden(file, s, result)
	require.NoError(t, err)
	assert.True(t, match)

	s.Level = 2
	match, err = CompareGolden(file, s, result)
	require.NoError(t, err)
	assert.False(t, match)
}

func TestErrorKind_Other(t *testing.T) {
	assert.Equal(t, KindOther, ErrorKind(os.ErrClosed))
}
