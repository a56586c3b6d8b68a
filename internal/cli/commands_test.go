package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/store"
)

const bellQASM = `OPENQASM 2.0;
include "qelib1.inc";
// circuit: bell
qreg q[2];
creg c[2];
h q[0];
cx q[0],q[1];
measure q[0] -> c[0];
measure q[1] -> c[1];
`

const ghzScript = `from qiskit import QuantumCircuit

ghz = QuantumCircuit(3)
ghz.h(0)
ghz.cx(0, 1)
ghz.cx(1, 2)
`

const teeCUE = `target: tee4: {
	num_qubits: 4
	basis: ["u", "cx", "measure"]
	coupling: [[0, 1], [1, 2], [1, 3]]
}
`

// =============================================================================
// Helpers
// =============================================================================

// execute runs the root command with a per-test config whose history
// database lives in a temporary directory. Flags in args override it.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeIn(t, t.TempDir(), args...)
}

func executeIn(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	cfg := filepath.Join(dir, "qpass.yaml")
	if _, err := os.Stat(cfg); os.IsNotExist(err) {
		writeFile(t, dir, "qpass.yaml", "database: "+filepath.Join(dir, "history.db")+"\n")
	}

	cmd := NewRootCommand()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--config", cfg}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

type transpileResponse struct {
	Status string            `json:"status"`
	Data   []TranspileOutput `json:"data"`
	Error  *CLIError         `json:"error"`
}

// =============================================================================
// transpile
// =============================================================================

func TestTranspile_Text(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	out, err := executeIn(t, dir, "transpile", bell, "--target", "bell2")
	require.NoError(t, err)
	assert.Contains(t, out, "-> bell2 (level 1")
	assert.Contains(t, out, "cx q[0],q[1];")
	assert.Contains(t, out, "// swap_count: 0")
}

func TestTranspile_JSONAndCache(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	out, err := executeIn(t, dir, "transpile", bell, "--target", "line5", "--level", "2", "--format", "json")
	require.NoError(t, err)

	var first transpileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &first))
	assert.Equal(t, "ok", first.Status)
	require.Len(t, first.Data, 1)
	assert.Equal(t, "line5", first.Data[0].Target)
	assert.Equal(t, 2, first.Data[0].Level)
	assert.False(t, first.Data[0].Cached)
	assert.NotContains(t, first.Data[0].QASM, "h q[")

	// A new process answers the same request from history.
	out, err = executeIn(t, dir, "transpile", bell, "--target", "line5", "--level", "2", "--format", "json")
	require.NoError(t, err)
	var second transpileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &second))
	require.Len(t, second.Data, 1)
	assert.True(t, second.Data[0].Cached)
	assert.Equal(t, first.Data[0].QASM, second.Data[0].QASM)
	assert.Equal(t, first.Data[0].RunID, second.Data[0].RunID)
}

func TestTranspile_Batch(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "transpile", bell, ghz, "--target", "ring6", "--no-history", "--format", "json")
	require.NoError(t, err)

	var resp transpileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, bell, resp.Data[0].File)
	assert.Equal(t, ghz, resp.Data[1].File)
	assert.Contains(t, resp.Data[1].QASM, "// circuit: ghz")
	_, err = os.Stat(filepath.Join(dir, "history.db"))
	assert.True(t, os.IsNotExist(err), "--no-history must not create the database")
}

func TestTranspile_OutputFile(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)
	dest := filepath.Join(dir, "out.qasm")

	out, err := executeIn(t, dir, "transpile", bell, "--target", "bell2", "-o", dest)
	require.NoError(t, err)
	assert.NotContains(t, out, "OPENQASM")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "OPENQASM 2.0;\n"))
}

func TestTranspile_OutputNeedsSingleCircuit(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	_, err := executeIn(t, dir, "transpile", bell, bell, "--target", "bell2", "-o", filepath.Join(dir, "x.qasm"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTranspile_UnsatisfiableConnectivity(t *testing.T) {
	dir := t.TempDir()
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "transpile", ghz, "--target", "split4", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeUnsatisfiableConnectivity, resp.Error.Code)

	// The failure is recorded.
	st, err := store.Open(filepath.Join(dir, "history.db"))
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(t.Context(), store.ListOptions{Status: store.StatusError})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "split4", runs[0].TargetName)
}

func TestTranspile_UnknownTarget(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	out, err := executeIn(t, dir, "transpile", bell, "--target", "nowhere", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ErrCodeUnknownTarget, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "bell2")
}

func TestTranspile_CUETarget(t *testing.T) {
	dir := t.TempDir()
	targets := filepath.Join(dir, "targets")
	require.NoError(t, os.Mkdir(targets, 0o755))
	writeFile(t, targets, "tee.cue", teeCUE)
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "transpile", ghz, "--target", "tee4", "--targets", targets)
	require.NoError(t, err)
	assert.Contains(t, out, "-> tee4")
	assert.Contains(t, out, "qreg q[4];")
}

func TestTranspile_BadCircuit(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.qasm", "OPENQASM 2.0;\nqreg q[1];\nfoo q[0];\n")

	out, err := executeIn(t, dir, "transpile", bad, "--target", "bell2", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Contains(t, []string{ErrCodeCircuitParse, ErrCodeUnknownOperation}, resp.Error.Code)
}

func TestTranspile_MetricsFile(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)
	metrics := filepath.Join(dir, "qpass.prom")

	_, err := executeIn(t, dir, "transpile", bell, "--target", "line5", "--no-history", "--metrics", metrics)
	require.NoError(t, err)

	data, err := os.ReadFile(metrics)
	require.NoError(t, err)
	assert.Contains(t, string(data), "qpass_transpiler_runs_total")
	assert.Contains(t, string(data), `qpass_transpiler_pass_duration_seconds_bucket{pass="Routing"`)
}

// =============================================================================
// draw, explain, convert
// =============================================================================

func TestDraw_Plain(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	out, err := executeIn(t, dir, "draw", bell, "--plain")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "bell\n"))
	assert.Contains(t, out, "q[0]")
	assert.Contains(t, out, "⊕")
	assert.Contains(t, out, "╩")
}

func TestDraw_JSON(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)

	out, err := executeIn(t, dir, "draw", bell, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data struct {
			Name         string            `json:"name"`
			Instructions []json.RawMessage `json:"instructions"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "bell", resp.Data.Name)
	assert.Len(t, resp.Data.Instructions, 4)
}

func TestExplain(t *testing.T) {
	dir := t.TempDir()
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "explain", ghz)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# Circuit ghz\n"))

	out, err = executeIn(t, dir, "explain", ghz, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data struct {
			CircuitName string `json:"circuitName"`
			QubitNum    int    `json:"qubitNum"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ghz", resp.Data.CircuitName)
	assert.Equal(t, 3, resp.Data.QubitNum)
}

func TestConvert(t *testing.T) {
	dir := t.TempDir()
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "convert", ghz)
	require.NoError(t, err)
	assert.Contains(t, out, "// circuit: ghz\n")
	assert.Contains(t, out, "qreg q[3];\n")
	assert.Contains(t, out, "cx q[1],q[2];\n")

	dest := filepath.Join(dir, "ghz.qasm")
	_, err = executeIn(t, dir, "convert", ghz, "-o", dest)
	require.NoError(t, err)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestConvert_MissingFile(t *testing.T) {
	_, err := execute(t, "convert", filepath.Join(t.TempDir(), "nope.qasm"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// =============================================================================
// targets
// =============================================================================

func TestTargets_List(t *testing.T) {
	out, err := execute(t, "targets")
	require.NoError(t, err)
	for _, name := range []string{"bell2", "line5", "ring6", "grid3x3", "split4"} {
		assert.Contains(t, out, name)
	}
}

func TestTargets_ListIncludesCUE(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tee.cue", teeCUE)

	out, err := execute(t, "targets", "list", "--targets", dir, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data []TargetSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	var names []string
	for _, r := range resp.Data {
		names = append(names, r.Name)
	}
	assert.Contains(t, names, "tee4")
	assert.Contains(t, names, "bell2")
}

func TestTargets_ShowDot(t *testing.T) {
	out, err := execute(t, "targets", "show", "split4", "--dot")
	require.NoError(t, err)
	assert.Contains(t, out, `graph "split4" {`)
	assert.Contains(t, out, "q0 -- q1;")
	assert.Contains(t, out, "q2 -- q3;")
}

func TestTargets_Show(t *testing.T) {
	out, err := execute(t, "targets", "show", "line5")
	require.NoError(t, err)
	assert.Contains(t, out, "qubits:      5")
	assert.Contains(t, out, "coupling:    0-1 1-2 2-3 3-4")
}

func TestTargets_ValidateOK(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "tee.cue", teeCUE)

	out, err := execute(t, "targets", "validate", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All targets valid (tee4)")
}

func TestTargets_ValidateCollectsAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.cue", `target: bad1: {
	num_qubits: 2
	basis: ["cx", "warp"]
	coupling: [[0, 5]]
}
`)

	out, err := execute(t, "targets", "validate", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	var codes []string
	for _, e := range resp.Data.Errors {
		codes = append(codes, e.Code)
	}
	assert.Contains(t, codes, "E104")
	assert.Contains(t, codes, "E106")
}

func TestTargets_ValidateMissingDir(t *testing.T) {
	_, err := execute(t, "targets", "validate", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// =============================================================================
// observable
// =============================================================================

func TestObservable_Simplify(t *testing.T) {
	out, err := execute(t, "observable", "0.5*XX", "0.5*XX", "-1*ZZ", "--simplify", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data ObservableOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 2, resp.Data.NumQubits)
	require.Len(t, resp.Data.Terms, 2)
	assert.Equal(t, "XX", resp.Data.Terms[0].Label)
	assert.InDelta(t, 1.0, resp.Data.Terms[0].Re, 1e-12)
	assert.Equal(t, "ZZ", resp.Data.Terms[1].Label)
	assert.InDelta(t, -1.0, resp.Data.Terms[1].Re, 1e-12)
}

func TestObservable_Layout(t *testing.T) {
	out, err := execute(t, "observable", "XY", "--layout", "2,0", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data ObservableOutput `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.NumQubits)
	require.Len(t, resp.Data.Terms, 1)
}

func TestObservable_LengthMismatch(t *testing.T) {
	out, err := execute(t, "observable", "XX", "Z", "--format", "json")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, ErrCodeObservable, resp.Error.Code)
}

// =============================================================================
// history
// =============================================================================

func TestHistory_ListShowPrune(t *testing.T) {
	dir := t.TempDir()
	bell := writeFile(t, dir, "bell.qasm", bellQASM)
	ghz := writeFile(t, dir, "ghz.py", ghzScript)

	out, err := executeIn(t, dir, "transpile", bell, "--target", "bell2", "--format", "json")
	require.NoError(t, err)
	var resp transpileResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	runID := resp.Data[0].RunID
	_, err = executeIn(t, dir, "transpile", ghz, "--target", "line5")
	require.NoError(t, err)

	out, err = executeIn(t, dir, "history")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "line5", "newest first")
	assert.Contains(t, lines[1], "bell2")

	out, err = executeIn(t, dir, "history", "--target", "bell2", "--format", "json")
	require.NoError(t, err)
	var listed struct {
		Data []store.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, runID, listed.Data[0].ID)

	out, err = executeIn(t, dir, "history", "--show", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "status:   success")
	assert.Contains(t, out, "h q[0];")

	out, err = executeIn(t, dir, "history", "--prune", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "deleted 1 run(s)")

	_, err = executeIn(t, dir, "history", "--show", runID)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestHistory_BadStatus(t *testing.T) {
	_, err := execute(t, "history", "--status", "pending")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

// =============================================================================
// test
// =============================================================================

func TestTestCommand_HarnessScenarios(t *testing.T) {
	out, err := execute(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ bell_pair")
	assert.Contains(t, out, "✓ All scenarios passed")
}

func TestTestCommand_Filter(t *testing.T) {
	out, err := execute(t, "test", filepath.Join("..", "harness", "testdata", "scenarios"), "--filter", "bell*", "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Total)
	assert.Equal(t, 1, resp.Data.Passed)
}

func TestTestCommand_UpdateAndMismatch(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pair.yaml", `name: pair
circuit:
  qasm: |
    OPENQASM 2.0;
    qreg q[2];
    h q[0];
    cx q[0],q[1];
target: bell2
level: 0
assertions:
  - type: swap_count
    count: 0
`)

	out, err := execute(t, "test", dir, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "(golden updated)")
	golden := filepath.Join(dir, "golden", "pair.golden")
	require.FileExists(t, golden)

	_, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err = execute(t, "test", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "golden file mismatch")
}

func TestTestCommand_FailingScenario(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "wrong.yaml", `name: wrong
circuit:
  qasm: |
    OPENQASM 2.0;
    qreg q[2];
    cx q[0],q[1];
target: bell2
level: 0
assertions:
  - type: count_ops
    ops: { cx: 2 }
`)

	out, err := execute(t, "test", dir, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Data TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommand_MissingDir(t *testing.T) {
	_, err := execute(t, "test", filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
