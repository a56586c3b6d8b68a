package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qpass/internal/transpiler"
)

// Scenario defines one transpilation conformance test.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Circuit is the input circuit.
	Circuit CircuitSource `yaml:"circuit"`

	// Target is a built-in target name or a name declared in TargetsFile.
	Target string `yaml:"target"`

	// TargetsFile is a CUE file with extra target declarations.
	// Relative paths are resolved from the scenario file.
	TargetsFile string `yaml:"targets_file,omitempty"`

	// Level is the preset optimization level, 0..3.
	Level int `yaml:"level"`

	// LayoutMethod is "greedy" (default) or "trivial".
	LayoutMethod string `yaml:"layout_method,omitempty"`

	// ExpectError names the error kind the run must fail with.
	// See ErrorKind for the accepted values.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the output of a successful run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// CircuitSource holds exactly one way of obtaining the input circuit.
type CircuitSource struct {
	QASM   string `yaml:"qasm,omitempty"`
	Script string `yaml:"script,omitempty"`
	File   string `yaml:"file,omitempty"`
}

// Assertion validates the transpiled circuit or its properties.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Ops are expected operation counts (count_ops). Operations not named
	// are not checked.
	Ops map[string]int `yaml:"ops,omitempty"`

	// Count is the expected swap count (swap_count) or depth bound
	// (max_depth).
	Count int `yaml:"count,omitempty"`

	// Layout is the expected initial layout (layout).
	Layout []int `yaml:"layout,omitempty"`
}

// Assertion type constants.
const (
	AssertCountOps  = "count_ops"
	AssertSwapCount = "swap_count"
	AssertMaxDepth  = "max_depth"
	AssertLayout    = "layout"
	AssertNative    = "native"
	AssertCoupled   = "coupled"
)

// LoadScenario reads and parses a scenario YAML file. Relative circuit and
// targets paths are resolved from the file's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving relative paths from
// baseDir. Unknown fields are rejected.
func ParseScenario(data []byte, baseDir string) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Circuit.File != "" && !filepath.IsAbs(scenario.Circuit.File) && baseDir != "" {
		scenario.Circuit.File = filepath.Join(baseDir, scenario.Circuit.File)
	}
	if scenario.TargetsFile != "" && !filepath.IsAbs(scenario.TargetsFile) && baseDir != "" {
		scenario.TargetsFile = filepath.Join(baseDir, scenario.TargetsFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Target == "" {
		return fmt.Errorf("target is required")
	}

	sources := 0
	for _, src := range []string{s.Circuit.QASM, s.Circuit.Script, s.Circuit.File} {
		if strings.TrimSpace(src) != "" {
			sources++
		}
	}
	if sources != 1 {
		return fmt.Errorf("circuit needs exactly one of qasm, script or file, got %d", sources)
	}
	if s.Circuit.File != "" {
		if _, err := os.Stat(s.Circuit.File); os.IsNotExist(err) {
			return fmt.Errorf("circuit file not found: %s", s.Circuit.File)
		}
	}
	if s.TargetsFile != "" {
		if _, err := os.Stat(s.TargetsFile); os.IsNotExist(err) {
			return fmt.Errorf("targets file not found: %s", s.TargetsFile)
		}
	}

	if s.Level < 0 || s.Level > 3 {
		return fmt.Errorf("level must be 0..3, got %d", s.Level)
	}
	if _, err := transpiler.ParseLayoutMethod(s.LayoutMethod); err != nil {
		return fmt.Errorf("layout_method: %w", err)
	}

	if s.ExpectError != "" {
		if !validErrorKind(s.ExpectError) {
			return fmt.Errorf("expect_error: unknown error kind %q", s.ExpectError)
		}
		if len(s.Assertions) > 0 {
			return fmt.Errorf("assertions cannot be combined with expect_error")
		}
		return nil
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCountOps:
		if len(a.Ops) == 0 {
			return fmt.Errorf("assertions[%d]: ops is required for count_ops", index)
		}
		for op, n := range a.Ops {
			if n < 0 {
				return fmt.Errorf("assertions[%d]: count for %s must be non-negative", index, op)
			}
		}
	case AssertSwapCount, AssertMaxDepth:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertLayout:
		if len(a.Layout) == 0 {
			return fmt.Errorf("assertions[%d]: layout is required for layout", index)
		}
	case AssertNative, AssertCoupled:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
