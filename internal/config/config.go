// Package config loads qpass settings from YAML.
//
// A missing file is not an error: Default() applies. Unknown keys are,
// so a typo like "optimisation_level" fails loudly instead of being
// ignored.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/qpass/internal/transpiler"
)

// Config holds every tunable setting.
type Config struct {
	// OptimizationLevel selects the preset pipeline, 0..3.
	OptimizationLevel int `yaml:"optimization_level"`

	// LayoutMethod is "greedy" or "trivial".
	LayoutMethod string `yaml:"layout_method"`

	// Database is the SQLite history path. Empty disables history.
	Database string `yaml:"database"`

	// CacheSize is the number of in-memory results kept by the runner.
	CacheSize int `yaml:"cache_size"`

	// Parallelism bounds concurrent runs in batch mode; 0 means unbounded.
	Parallelism int `yaml:"parallelism"`

	// TargetsDir holds CUE target files loaded next to the built-ins.
	TargetsDir string `yaml:"targets_dir"`

	// KeepProperties restricts the properties reported after a run.
	KeepProperties []string `yaml:"keep_properties"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		OptimizationLevel: 1,
		LayoutMethod:      string(transpiler.LayoutGreedy),
		Database:          "qpass.db",
		CacheSize:         128,
		Parallelism:       4,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over Default(). A missing file yields the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c Config) Validate() error {
	if c.OptimizationLevel < 0 || c.OptimizationLevel > 3 {
		return fmt.Errorf("optimization_level must be 0..3, got %d", c.OptimizationLevel)
	}
	if _, err := transpiler.ParseLayoutMethod(c.LayoutMethod); err != nil {
		return fmt.Errorf("layout_method: %w", err)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache_size must be non-negative, got %d", c.CacheSize)
	}
	if c.Parallelism < 0 {
		return fmt.Errorf("parallelism must be non-negative, got %d", c.Parallelism)
	}
	for _, key := range c.KeepProperties {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("keep_properties: empty key")
		}
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Layout returns the validated layout method.
func (c Config) Layout() transpiler.LayoutMethod {
	m, _ := transpiler.ParseLayoutMethod(c.LayoutMethod)
	return m
}

// NewLogger builds the slog logger described by c.Log, writing to w.
// verbose forces debug level.
func (c Config) NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log.level must be debug, info, warn or error, got %q", s)
	}
}
