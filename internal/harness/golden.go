package harness

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/qpass/internal/qasm"
)

// Snapshot captures the observable outcome of a scenario for golden
// comparison. Run IDs and timings are excluded.
type Snapshot struct {
	Scenario   string         `json:"scenario"`
	Target     string         `json:"target"`
	Level      int            `json:"level"`
	Status     string         `json:"status"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	FailedPass string         `json:"failed_pass,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
	Output     []string       `json:"output,omitempty"`
}

// NewSnapshot builds the snapshot of a scenario result.
func NewSnapshot(scenario *Scenario, result *Result) Snapshot {
	snap := Snapshot{
		Scenario:   scenario.Name,
		Target:     scenario.Target,
		Level:      scenario.Level,
		Status:     result.Status,
		ErrorKind:  result.ErrorKind,
		FailedPass: result.FailedPass,
		Properties: result.Properties,
	}
	if result.Circuit != nil {
		snap.Output = strings.Split(strings.TrimSuffix(qasm.Emit(result.Circuit), "\n"), "\n")
	}
	return snap
}

// Marshal renders the snapshot as indented JSON with sorted map keys.
func (s Snapshot) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return nil, err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, data)
	return result, nil
}

// GoldenPath returns the golden file next to a scenario file:
// <dir>/golden/<base>.golden.
func GoldenPath(scenarioFile string) string {
	dir := filepath.Dir(scenarioFile)
	base := filepath.Base(scenarioFile)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, "golden", name+".golden")
}

// WriteGolden stores the snapshot of result as the golden file for
// scenarioFile.
func WriteGolden(scenarioFile string, scenario *Scenario, result *Result) error {
	data, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return err
	}
	path := GoldenPath(scenarioFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}
	return nil
}

// CompareGolden reports whether the snapshot of result matches the golden
// file for scenarioFile. A missing golden file returns an error wrapping
// os.ErrNotExist.
func CompareGolden(scenarioFile string, scenario *Scenario, result *Result) (bool, error) {
	want, err := os.ReadFile(GoldenPath(scenarioFile))
	if err != nil {
		return false, fmt.Errorf("failed to read golden file: %w", err)
	}
	got, err := NewSnapshot(scenario, result).Marshal()
	if err != nil {
		return false, err
	}
	return bytes.Equal(want, got), nil
}
