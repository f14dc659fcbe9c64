// Package engine runs algorithms from a registry, memoises the resulting
// documents and records telemetry for every run.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracecache"
)

// ErrUnknownAlgorithm is returned for ids missing from the registry.
var ErrUnknownAlgorithm = algorithm.ErrUnknownAlgorithm

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry replaces the default algorithm registry.
func WithRegistry(reg *algorithm.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithCacheSize bounds the document cache. Zero disables caching.
func WithCacheSize(n int) Option {
	return func(e *Engine) {
		e.cacheSize = n
	}
}

// WithTracer sets the OTel tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) {
		e.tracer = tracer
	}
}

// WithMetrics sets the trace metrics sink.
func WithMetrics(metrics *observability.TraceMetrics) Option {
	return func(e *Engine) {
		e.metrics = metrics
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine produces trace documents.
type Engine struct {
	registry  *algorithm.Registry
	cache     *tracecache.Cache[tracecache.Key, algorithm.Document]
	cacheSize int
	tracer    trace.Tracer
	metrics   *observability.TraceMetrics
	logger    *slog.Logger
}

// DefaultCacheSize is used when WithCacheSize is not given.
const DefaultCacheSize = 128

// New creates an engine over the default registry.
func New(opts ...Option) *Engine {
	eng := &Engine{
		registry:  algorithm.Default(),
		cacheSize: DefaultCacheSize,
		tracer:    nooptrace.NewTracerProvider().Tracer("sorttrace"),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.cacheSize > 0 {
		eng.cache = tracecache.New(
			tracecache.WithMaxEntries[tracecache.Key, algorithm.Document](eng.cacheSize),
			tracecache.WithCloneFunc[tracecache.Key](cloneDocument),
		)
	}

	return eng
}

// Registry returns the algorithm registry.
func (e *Engine) Registry() *algorithm.Registry {
	return e.registry
}

// Algorithms lists the metadata of every registered algorithm keyed by id.
func (e *Engine) Algorithms() map[string]algorithm.Metadata {
	ids := e.registry.IDs()
	out := make(map[string]algorithm.Metadata, len(ids))

	for _, id := range ids {
		alg, err := e.registry.Get(id)
		if err != nil {
			continue
		}

		out[id] = alg.Metadata()
	}

	return out
}

// Trace validates input and returns the complete document for the algorithm.
// Validation failures are returned as data with a nil error.
func (e *Engine) Trace(ctx context.Context, algorithmID string, input algorithm.Input) (algorithm.Document, []algorithm.ValidationError, error) {
	id := algorithm.NormalizeID(algorithmID)
	ctx = observability.WithAlgorithm(ctx, id)

	ctx, span := e.tracer.Start(ctx, "sorttrace.trace",
		trace.WithAttributes(
			attribute.String("algorithm", id),
			attribute.Int("input.length", len(input.Array)),
		),
	)
	defer span.End()

	alg, err := e.registry.Get(id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown algorithm")

		return algorithm.Document{}, nil, fmt.Errorf("trace: %w", err)
	}

	errs := alg.Validate(input)
	if len(errs) > 0 {
		span.SetAttributes(attribute.Int("validation.errors", len(errs)))
		e.logger.DebugContext(ctx, "trace: input rejected", "errors", len(errs))

		return algorithm.Document{}, errs, nil
	}

	key := tracecache.KeyFor(id, input.Array)

	if e.cache != nil {
		doc, hit := e.cache.Get(key)
		e.metrics.RecordCache(ctx, id, hit)

		if hit {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			e.logger.DebugContext(ctx, "trace: cache hit", "key", key.String())

			return cloneDocument(doc), nil, nil
		}
	}

	start := time.Now()
	doc, _ := algorithm.Run(id, alg, input)
	elapsed := time.Since(start)

	e.metrics.RecordTrace(ctx, observability.TraceStats{
		Algorithm:  id,
		Operations: countByType(doc.Operations),
		Duration:   elapsed,
	})

	span.SetAttributes(attribute.Int("operations", len(doc.Operations)))
	e.logger.DebugContext(ctx, "trace: generated",
		"length", len(input.Array),
		"operations", len(doc.Operations),
		"elapsed", elapsed,
	)

	if e.cache != nil {
		e.cache.Put(key, doc)
	}

	return doc, nil, nil
}

// CacheStats reports cache counters. Zero when caching is disabled.
func (e *Engine) CacheStats() tracecache.Stats {
	if e.cache == nil {
		return tracecache.Stats{}
	}

	return e.cache.Stats()
}

// NewPlayer returns a player loaded with doc's input and trace.
func NewPlayer(doc algorithm.Document, opts ...player.Option) *player.Player {
	p := player.New(opts...)
	p.Load(doc.Input.Array)
	p.SetOperations(doc.Operations)

	return p
}

func countByType(ops operation.Trace) map[string]int {
	counts := make(map[string]int, len(operation.Types))
	for _, op := range ops {
		counts[string(op.Type)]++
	}

	return counts
}

// cloneDocument copies the arrays a caller could modify. Operations are
// immutable and shared.
func cloneDocument(doc algorithm.Document) algorithm.Document {
	doc.Input.Array = slices.Clone(doc.Input.Array)
	doc.FinalArray = slices.Clone(doc.FinalArray)

	return doc
}
