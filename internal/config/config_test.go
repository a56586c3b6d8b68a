package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qpass/internal/transpiler"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "qpass.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
optimization_level: 3
layout_method: trivial
database: ""
keep_properties: [layout, swap_count]
log:
  level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.OptimizationLevel)
	assert.Equal(t, transpiler.LayoutTrivial, cfg.Layout())
	assert.Empty(t, cfg.Database)
	assert.Equal(t, []string{"layout", "swap_count"}, cfg.KeepProperties)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset nested keys keep defaults")
	assert.Equal(t, 128, cfg.CacheSize)
}

func TestParse_EmptyDocument(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown key", "optimisation_level: 2"},
		{"level range", "optimization_level: 4"},
		{"layout method", "layout_method: dense"},
		{"cache size", "cache_size: -1"},
		{"parallelism", "parallelism: -2"},
		{"empty keep key", "keep_properties: ['']"},
		{"log level", "log: {level: loud}"},
		{"log format", "log: {format: xml}"},
		{"malformed", "optimization_level: [1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	logger := cfg.NewLogger(&buf, false)
	logger.Debug("hidden")
	logger.Info("shown", "k", "v")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "k=v")

	buf.Reset()
	cfg.NewLogger(&buf, true).Debug("verbose")
	assert.Contains(t, buf.String(), "verbose")

	buf.Reset()
	cfg.Log.Format = "json"
	cfg.NewLogger(&buf, false).Info("structured", "k", "v")
	assert.Contains(t, buf.String(), `"k":"v"`)
}
