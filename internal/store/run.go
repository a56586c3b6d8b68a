package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/qpass/internal/ir"
)

// Run status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrNotFound is returned when a run ID does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one recorded pipeline execution.
type Run struct {
	ID           string         `json:"id"`
	Seq          int64          `json:"seq"`
	Key          string         `json:"run_key"`
	CircuitName  string         `json:"circuit_name"`
	CircuitHash  string         `json:"circuit_hash"`
	TargetName   string         `json:"target_name"`
	TargetHash   string         `json:"target_hash"`
	Level        int            `json:"level"`
	LayoutMethod string         `json:"layout_method"`
	Status       string         `json:"status"`
	Error        string         `json:"error,omitempty"`
	InputQASM    string         `json:"input_qasm"`
	OutputQASM   string         `json:"output_qasm,omitempty"`
	Properties   map[string]any `json:"properties,omitempty"`
	Duration     time.Duration  `json:"duration_ns"`
	ToolVersion  string         `json:"tool_version"`
	IRVersion    string         `json:"ir_version"`
	CreatedAt    time.Time      `json:"created_at"`
}

// RunKey is the content hash identifying a transpilation request. Two
// requests with the same key produce the same output. options is the
// pass option fingerprint, empty for the preset defaults.
func RunKey(circuitHash, targetHash string, level int, layoutMethod, options string) string {
	key, err := ir.ContentHash(ir.DomainRun, map[string]any{
		"circuit":       circuitHash,
		"target":        targetHash,
		"level":         level,
		"layout_method": layoutMethod,
		"options":       options,
	})
	if err != nil {
		// Strings and ints always marshal.
		panic(err)
	}
	return key
}

// marshalProperties converts exported properties to JSON TEXT.
// Uses json.Encoder with HTML escaping disabled; map keys come out sorted.
func marshalProperties(props map[string]any) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(props); err != nil {
		return "", fmt.Errorf("marshal properties: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalProperties parses JSON TEXT. Numbers stay json.Number so
// integers survive exactly.
func unmarshalProperties(data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var props map[string]any
	if err := dec.Decode(&props); err != nil {
		return nil, fmt.Errorf("unmarshal properties: %w", err)
	}
	return props, nil
}
