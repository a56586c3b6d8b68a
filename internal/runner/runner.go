package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/qpass/internal/gates"
	"github.com/roach88/qpass/internal/ir"
	"github.com/roach88/qpass/internal/qasm"
	"github.com/roach88/qpass/internal/store"
	"github.com/roach88/qpass/internal/target"
	"github.com/roach88/qpass/internal/transpiler"
)

// DefaultCacheSize is the number of results kept in memory.
const DefaultCacheSize = 128

// Request is one transpilation job. Requests may share a Circuit: runs
// only read it.
type Request struct {
	Circuit      *ir.Circuit
	Target       *target.Target
	Level        int
	LayoutMethod transpiler.LayoutMethod
}

// Result is the outcome of one successful job.
type Result struct {
	RunID      string
	Key        string
	Circuit    *ir.Circuit
	Properties map[string]any

	// Cached is true when the result came from memory or history rather
	// than a fresh pipeline run.
	Cached   bool
	Duration time.Duration
}

type cacheEntry struct {
	runID      string
	circuit    *ir.Circuit
	properties map[string]any
}

// Runner executes transpilation requests against a shared registry,
// caching results by content and recording every fresh run in history.
//
// Thread-safety: Transpile and TranspileAll are safe for concurrent use.
// Each run owns its circuit copy and property set; the registry and
// targets are only read.
type Runner struct {
	registry    *gates.Registry
	history     *store.Store
	cache       *lru.Cache[string, cacheEntry]
	ids         IDGenerator
	seq         Sequencer
	now         func() time.Time
	logger      *slog.Logger
	parallelism int
	passOpts    []transpiler.Option
	optionsKey  string
}

// Option configures a Runner.
type Option func(*Runner)

// WithHistory records runs in s and answers repeated requests from it.
func WithHistory(s *store.Store) Option {
	return func(r *Runner) { r.history = s }
}

// WithLogger sets the logger for run records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithIDGenerator replaces the UUIDv7 run ID generator.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithSequencer replaces the logical clock.
func WithSequencer(s Sequencer) Option {
	return func(r *Runner) { r.seq = s }
}

// WithNow replaces the wall clock used for created_at and durations.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithParallelism bounds the number of concurrent runs in TranspileAll.
// Values below 1 mean unbounded.
func WithParallelism(n int) Option {
	return func(r *Runner) { r.parallelism = n }
}

// WithPassOptions forwards options to every generated pass manager.
func WithPassOptions(opts ...transpiler.Option) Option {
	return func(r *Runner) { r.passOpts = append(r.passOpts, opts...) }
}

// New creates a runner. cacheSize <= 0 selects DefaultCacheSize.
// With history attached and no sequencer given, the logical clock resumes
// after the highest stored seq.
func New(ctx context.Context, reg *gates.Registry, cacheSize int, opts ...Option) (*Runner, error) {
	if reg == nil {
		return nil, errors.New("runner: nil registry")
	}
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cacheEntry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("runner: create cache: %w", err)
	}

	r := &Runner{
		registry: reg,
		cache:    cache,
		ids:      UUIDv7Generator{},
		now:      time.Now,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.seq == nil {
		start := int64(0)
		if r.history != nil {
			if start, err = r.history.MaxSeq(ctx); err != nil {
				return nil, fmt.Errorf("runner: %w", err)
			}
		}
		r.seq = NewClockAt(start)
	}
	r.optionsKey = transpiler.Fingerprint(r.passOpts...)
	return r, nil
}

// Registry returns the registry every run uses.
func (r *Runner) Registry() *gates.Registry { return r.registry }

// Transpile runs the preset pipeline for req, or returns a cached result
// for an identical earlier request. Failed runs are recorded in history
// and returned as errors wrapping the pipeline error.
func (r *Runner) Transpile(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.Circuit == nil {
		return nil, errors.New("transpile: nil circuit")
	}
	if req.Target == nil {
		return nil, errors.New("transpile: nil target")
	}
	method, err := transpiler.ParseLayoutMethod(string(req.LayoutMethod))
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}

	circuitHash, err := ir.CircuitHash(req.Circuit)
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}
	targetHash, err := req.Target.Hash()
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}
	key := store.RunKey(circuitHash, targetHash, req.Level, string(method), r.optionsKey)

	if res, ok := r.lookup(ctx, key); ok {
		r.logger.Debug("cache hit", "run_id", res.RunID, "circuit", req.Circuit.Name(), "target", req.Target.Name())
		return res, nil
	}

	opts := append([]transpiler.Option{
		transpiler.WithLogger(r.logger),
		transpiler.WithLayoutMethod(method),
	}, r.passOpts...)
	pm, err := transpiler.GeneratePresetPassManager(req.Target, r.registry, req.Level, opts...)
	if err != nil {
		return nil, fmt.Errorf("transpile: %w", err)
	}

	start := r.now()
	out, props, runErr := pm.Run(req.Circuit, req.Target)
	duration := r.now().Sub(start)

	run := store.Run{
		ID:           r.ids.Generate(),
		Seq:          r.seq.Next(),
		Key:          key,
		CircuitName:  req.Circuit.Name(),
		CircuitHash:  circuitHash,
		TargetName:   req.Target.Name(),
		TargetHash:   targetHash,
		Level:        req.Level,
		LayoutMethod: string(method),
		Status:       store.StatusSuccess,
		InputQASM:    qasm.Emit(req.Circuit),
		Duration:     duration,
		ToolVersion:  ir.ToolVersion,
		IRVersion:    ir.IRVersion,
		CreatedAt:    start,
	}
	if runErr != nil {
		run.Status = store.StatusError
		run.Error = runErr.Error()
	} else {
		run.OutputQASM = qasm.Emit(out)
		run.Properties = props.Export()
	}

	if err := r.record(ctx, run); err != nil {
		return nil, err
	}
	r.logger.Info("run",
		"run_id", run.ID,
		"circuit", run.CircuitName,
		"target", run.TargetName,
		"level", run.Level,
		"status", run.Status,
		"duration", duration,
	)
	if runErr != nil {
		return nil, fmt.Errorf("run %s: %w", run.ID, runErr)
	}

	r.cache.Add(key, cacheEntry{runID: run.ID, circuit: out.Copy(), properties: maps.Clone(run.Properties)})
	return &Result{
		RunID:      run.ID,
		Key:        key,
		Circuit:    out,
		Properties: run.Properties,
		Duration:   duration,
	}, nil
}

// TranspileAll runs independent requests concurrently, bounded by the
// configured parallelism. Results keep the order of reqs. The first
// failure cancels runs that have not started yet and is returned.
func (r *Runner) TranspileAll(ctx context.Context, reqs []Request) ([]*Result, error) {
	results := make([]*Result, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	if r.parallelism > 0 {
		g.SetLimit(r.parallelism)
	}
	for i, req := range reqs {
		g.Go(func() error {
			res, err := r.Transpile(gctx, req)
			if err != nil {
				return fmt.Errorf("request %d: %w", i, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// lookup checks memory first, then history. A history hit is parsed back
// into a circuit and promoted into memory.
func (r *Runner) lookup(ctx context.Context, key string) (*Result, bool) {
	if e, ok := r.cache.Get(key); ok {
		return &Result{
			RunID:      e.runID,
			Key:        key,
			Circuit:    e.circuit.Copy(),
			Properties: maps.Clone(e.properties),
			Cached:     true,
		}, true
	}
	if r.history == nil {
		return nil, false
	}

	run, ok, err := r.history.FindByKey(ctx, key)
	if err != nil {
		r.logger.Warn("history lookup failed", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	c, err := qasm.Parse(run.OutputQASM, r.registry)
	if err != nil {
		r.logger.Warn("stored output does not parse", "run_id", run.ID, "error", err)
		return nil, false
	}
	r.cache.Add(key, cacheEntry{runID: run.ID, circuit: c.Copy(), properties: maps.Clone(run.Properties)})
	return &Result{
		RunID:      run.ID,
		Key:        key,
		Circuit:    c,
		Properties: run.Properties,
		Cached:     true,
		Duration:   run.Duration,
	}, true
}

func (r *Runner) record(ctx context.Context, run store.Run) error {
	if r.history == nil {
		return nil
	}
	if err := r.history.WriteRun(ctx, run); err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}
