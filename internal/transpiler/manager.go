package transpiler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/target"
)

// Stage names an insertion point of the preset pipeline.
type Stage string

const (
	StageInit         Stage = "init"
	StageLayout       Stage = "layout"
	StageRouting      Stage = "routing"
	StageTranslation  Stage = "translation"
	StageOptimization Stage = "optimization"
)

// Stages lists the preset stages in execution order.
var Stages = []Stage{StageInit, StageLayout, StageRouting, StageTranslation, StageOptimization}

type options struct {
	logger        *slog.Logger
	keep          []string
	stagePasses   map[Stage][]Pass
	layoutMethod  LayoutMethod
	maxIterations int
}

// Option configures a PassManager or the preset generator.
type Option func(*options)

// WithLogger sets the logger receiving one debug record per pass.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithKeepProperties limits the returned PropertySet to the given keys.
// By default every property is returned.
func WithKeepProperties(keys ...string) Option {
	return func(o *options) { o.keep = slices.Clone(keys) }
}

// WithStagePasses appends caller passes after the built-in passes of a
// preset stage.
func WithStagePasses(stage Stage, passes ...Pass) Option {
	return func(o *options) {
		o.stagePasses[stage] = append(o.stagePasses[stage], passes...)
	}
}

// WithLayoutMethod selects the preset layout method.
func WithLayoutMethod(m LayoutMethod) Option {
	return func(o *options) { o.layoutMethod = m }
}

// WithMaxIterations bounds the level 3 fixed-point loop.
func WithMaxIterations(n int) Option {
	return func(o *options) { o.maxIterations = n }
}

func buildOptions(opts []Option) *options {
	o := &options{
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		stagePasses:  make(map[Stage][]Pass),
		layoutMethod: LayoutGreedy,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Fingerprint renders the options that change pipeline output as a
// stable string: kept property keys, stage passes (by Name), layout method
// and iteration bound. Loggers are ignored. No such options give "".
func Fingerprint(opts ...Option) string {
	o := &options{stagePasses: make(map[Stage][]Pass)}
	for _, opt := range opts {
		opt(o)
	}

	var parts []string
	if o.keep != nil {
		keep := slices.Clone(o.keep)
		slices.Sort(keep)
		parts = append(parts, "keep="+strings.Join(keep, ","))
	}
	for _, st := range Stages {
		passes := o.stagePasses[st]
		if len(passes) == 0 {
			continue
		}
		names := make([]string, len(passes))
		for i, p := range passes {
			names[i] = p.Name()
		}
		parts = append(parts, fmt.Sprintf("stage.%s=%s", st, strings.Join(names, ",")))
	}
	if o.layoutMethod != "" {
		parts = append(parts, "layout="+string(o.layoutMethod))
	}
	if o.maxIterations != 0 {
		parts = append(parts, fmt.Sprintf("max_iterations=%d", o.maxIterations))
	}
	return strings.Join(parts, ";")
}

// PassManager runs an ordered list of passes against a target.
//
// A PassManager holds no per-run state and may run concurrently on
// different circuits: each Run owns its circuit copy and PropertySet.
type PassManager struct {
	registry *gates.Registry
	passes   []Pass
	logger   *slog.Logger
	keep     []string
}

// NewPassManager builds a manager over an explicit pass list.
func NewPassManager(reg *gates.Registry, passes []Pass, opts ...Option) *PassManager {
	o := buildOptions(opts)
	return &PassManager{
		registry: reg,
		passes:   slices.Clone(passes),
		logger:   o.logger,
		keep:     o.keep,
	}
}

// Passes returns the pass list in execution order.
func (pm *PassManager) Passes() []Pass { return slices.Clone(pm.passes) }

// Registry returns the instruction set the manager validates against.
func (pm *PassManager) Registry() *gates.Registry { return pm.registry }

// Run transpiles c for t. The input circuit is never modified.
//
// Every instruction is first checked against the registry. Passes then run
// strictly in order; the first failure aborts the run and is returned as a
// *PassError with no circuit and no properties.
func (pm *PassManager) Run(c *ir.Circuit, t *target.Target) (*ir.Circuit, *PropertySet, error) {
	if t == nil {
		return nil, nil, errors.New("pass manager: nil target")
	}
	for i, in := range c.All() {
		if err := pm.registry.Validate(in.Op); err != nil {
			runsTotal.WithLabelValues("error").Inc()
			return nil, nil, fmt.Errorf("instruction %d: %w", i, err)
		}
	}

	props := NewPropertySet()
	env := &Env{Target: t, Registry: pm.registry, Props: props, Logger: pm.logger}
	cur := c.Copy()

	for i, p := range pm.passes {
		start := time.Now()
		next, err := p.Run(cur, env)
		elapsed := time.Since(start)
		passDuration.WithLabelValues(p.Name()).Observe(elapsed.Seconds())
		if err == nil && next == nil {
			err = errors.New("pass returned no circuit")
		}
		if err != nil {
			runsTotal.WithLabelValues("error").Inc()
			pm.logger.Debug("pass failed", "pass", p.Name(), "index", i, "error", err)
			return nil, nil, &PassError{Pass: p.Name(), Index: i, Err: err}
		}
		pm.logger.Debug("pass", "pass", p.Name(), "instructions", next.Len(), "duration", elapsed)
		cur = next
	}

	runsTotal.WithLabelValues("success").Inc()
	if pm.keep != nil {
		props = props.Select(pm.keep...)
	}
	return cur, props, nil
}

// GeneratePresetPassManager returns the standard pipeline for an
// optimization level.
//
//   - 0: unroll, layout, routing, basis translation
//   - 1: adds RemoveIdentities and CancelInverses
//   - 2: adds MergeRotations
//   - 3: runs the level 2 optimizations to a fixed point
//
// Caller passes given with WithStagePasses run after the built-in passes
// of their stage. Every pipeline ends with CountOps.
func GeneratePresetPassManager(t *target.Target, reg *gates.Registry, level int, opts ...Option) (*PassManager, error) {
	if level < 0 || level > 3 {
		return nil, fmt.Errorf("optimization level %d out of range 0..3", level)
	}
	if t == nil {
		return nil, errors.New("preset pass manager: nil target")
	}
	for _, name := range t.Basis() {
		if !reg.Has(name) {
			return nil, fmt.Errorf("target %s basis: %w", t.Name(), &gates.UnknownOperationError{Name: name})
		}
	}
	o := buildOptions(opts)
	if _, err := ParseLayoutMethod(string(o.layoutMethod)); err != nil {
		return nil, err
	}

	builtin := map[Stage][]Pass{
		StageInit:        {UnrollMultiQubitPass{}},
		StageLayout:      {LayoutPass{Method: o.layoutMethod}},
		StageRouting:     {RoutingPass{}},
		StageTranslation: {BasisTranslatorPass{}},
	}
	switch level {
	case 1:
		builtin[StageOptimization] = []Pass{RemoveIdentitiesPass{}, CancelInversesPass{}}
	case 2:
		builtin[StageOptimization] = []Pass{CancelInversesPass{}, MergeRotationsPass{}, RemoveIdentitiesPass{}}
	case 3:
		builtin[StageOptimization] = []Pass{FixedPoint{
			Passes:        []Pass{CancelInversesPass{}, MergeRotationsPass{}, RemoveIdentitiesPass{}},
			MaxIterations: o.maxIterations,
		}}
	}

	var passes []Pass
	for _, stage := range Stages {
		passes = append(passes, builtin[stage]...)
		passes = append(passes, o.stagePasses[stage]...)
	}
	passes = append(passes, CountOpsPass())

	return &PassManager{registry: reg, passes: passes, logger: o.logger, keep: o.keep}, nil
}
