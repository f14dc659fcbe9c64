package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricTracesTotal      = "sorttrace.traces.total"
	metricOperationsTotal  = "sorttrace.operations.total"
	metricTraceDuration    = "sorttrace.trace.duration.seconds"
	metricCacheHitsTotal   = "sorttrace.cache.hits.total"
	metricCacheMissesTotal = "sorttrace.cache.misses.total"
	metricPlayerStepsTotal = "sorttrace.player.steps.total"

	attrAlgorithm = "algorithm"
	attrOpType    = "type"
	attrCommand   = "command"
)

// TraceMetrics holds OTel instruments for trace generation and playback.
type TraceMetrics struct {
	tracesTotal     metric.Int64Counter
	operationsTotal metric.Int64Counter
	traceDuration   metric.Float64Histogram
	cacheHits       metric.Int64Counter
	cacheMisses     metric.Int64Counter
	playerSteps     metric.Int64Counter
}

// TraceStats describes one completed trace generation.
type TraceStats struct {
	Algorithm string
	// Operations counts emitted operations by type.
	Operations map[string]int
	Duration   time.Duration
}

// NewTraceMetrics creates trace metric instruments from the given meter.
func NewTraceMetrics(mt metric.Meter) (*TraceMetrics, error) {
	traces, err := mt.Int64Counter(metricTracesTotal,
		metric.WithDescription("Total traces generated"),
		metric.WithUnit("{trace}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTracesTotal, err)
	}

	ops, err := mt.Int64Counter(metricOperationsTotal,
		metric.WithDescription("Total operations emitted by type"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricOperationsTotal, err)
	}

	dur, err := mt.Float64Histogram(metricTraceDuration,
		metric.WithDescription("Trace generation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(durationBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricTraceDuration, err)
	}

	hits, err := mt.Int64Counter(metricCacheHitsTotal,
		metric.WithDescription("Trace cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheHitsTotal, err)
	}

	misses, err := mt.Int64Counter(metricCacheMissesTotal,
		metric.WithDescription("Trace cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricCacheMissesTotal, err)
	}

	steps, err := mt.Int64Counter(metricPlayerStepsTotal,
		metric.WithDescription("Player commands handled"),
		metric.WithUnit("{command}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricPlayerStepsTotal, err)
	}

	return &TraceMetrics{
		tracesTotal:     traces,
		operationsTotal: ops,
		traceDuration:   dur,
		cacheHits:       hits,
		cacheMisses:     misses,
		playerSteps:     steps,
	}, nil
}

// RecordTrace records a freshly generated trace.
// Safe to call on a nil receiver (no-op).
func (tm *TraceMetrics) RecordTrace(ctx context.Context, stats TraceStats) {
	if tm == nil {
		return
	}

	algAttr := attribute.String(attrAlgorithm, stats.Algorithm)

	tm.tracesTotal.Add(ctx, 1, metric.WithAttributes(algAttr))
	tm.traceDuration.Record(ctx, stats.Duration.Seconds(), metric.WithAttributes(algAttr))

	for typ, count := range stats.Operations {
		tm.operationsTotal.Add(ctx, int64(count), metric.WithAttributes(
			algAttr,
			attribute.String(attrOpType, typ),
		))
	}
}

// RecordCache records a cache lookup outcome.
// Safe to call on a nil receiver (no-op).
func (tm *TraceMetrics) RecordCache(ctx context.Context, algorithm string, hit bool) {
	if tm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrAlgorithm, algorithm))

	if hit {
		tm.cacheHits.Add(ctx, 1, attrs)

		return
	}

	tm.cacheMisses.Add(ctx, 1, attrs)
}

// RecordPlayerCommand counts one player command such as "step_forward".
// Safe to call on a nil receiver (no-op).
func (tm *TraceMetrics) RecordPlayerCommand(ctx context.Context, command string) {
	if tm == nil {
		return
	}

	tm.playerSteps.Add(ctx, 1, metric.WithAttributes(attribute.String(attrCommand, command)))
}
