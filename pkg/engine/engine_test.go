package engine_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/engine"
	"github.com/Sumatoshi-tech/sorttrace/pkg/observability"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
)

func TestEngine_Trace(t *testing.T) {
	t.Parallel()

	eng := engine.New()

	doc, errs, err := eng.Trace(context.Background(), "mergeSort", algorithm.Input{Array: []float64{2, 1}})
	require.NoError(t, err)
	require.Empty(t, errs)

	assert.Equal(t, algorithm.MergeSortID, doc.Algorithm)
	assert.Equal(t, []float64{1, 2}, doc.FinalArray)
	assert.Equal(t, "Merge Sort", doc.Metadata.Name)
}

func TestEngine_UnknownAlgorithm(t *testing.T) {
	t.Parallel()

	_, _, err := engine.New().Trace(context.Background(), "bogo-sort", algorithm.Input{Array: []float64{1}})
	require.ErrorIs(t, err, engine.ErrUnknownAlgorithm)
}

func TestEngine_ValidationErrorsAreData(t *testing.T) {
	t.Parallel()

	doc, errs, err := engine.New().Trace(context.Background(), algorithm.MergeSortID, algorithm.Input{Array: nil})
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, algorithm.FieldArray, errs[0].Field)
	assert.Empty(t, doc.Operations)
}

func TestEngine_CacheHit(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	metrics, err := observability.NewTraceMetrics(mp.Meter("test"))
	require.NoError(t, err)

	eng := engine.New(engine.WithMetrics(metrics), engine.WithCacheSize(4))
	input := algorithm.Input{Array: []float64{5, 3, 1}}

	first, _, err := eng.Trace(context.Background(), algorithm.InsertionSortID, input)
	require.NoError(t, err)

	first.FinalArray[0] = 42

	second, _, err := eng.Trace(context.Background(), algorithm.InsertionSortID, input)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 3, 5}, second.FinalArray)
	assert.Equal(t, first.Operations, second.Operations)

	stats := eng.CacheStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	names := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}

	assert.True(t, names["sorttrace.traces.total"])
	assert.True(t, names["sorttrace.cache.hits.total"])
}

func TestEngine_CacheDisabled(t *testing.T) {
	t.Parallel()

	eng := engine.New(engine.WithCacheSize(0))

	_, _, err := eng.Trace(context.Background(), algorithm.MergeSortID, algorithm.Input{Array: []float64{1}})
	require.NoError(t, err)

	assert.Equal(t, int64(0), eng.CacheStats().Hits+eng.CacheStats().Misses)
}

func TestEngine_Algorithms(t *testing.T) {
	t.Parallel()

	algs := engine.New().Algorithms()

	require.Contains(t, algs, algorithm.MergeSortID)
	require.Contains(t, algs, algorithm.InsertionSortID)
	assert.True(t, algs[algorithm.InsertionSortID].InPlace)
}

func TestNewPlayer(t *testing.T) {
	t.Parallel()

	doc, _, err := engine.New().Trace(context.Background(), algorithm.MergeSortID, algorithm.Input{Array: []float64{3, 1, 2}})
	require.NoError(t, err)

	p := engine.NewPlayer(doc)
	defer p.Close()

	assert.Equal(t, player.StatusReady, p.Status())

	p.Seek(len(doc.Operations))
	assert.Equal(t, doc.FinalArray, p.Snapshot().CurrentArray)
}

func TestEngine_LogsCarryAlgorithm(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	handler := observability.NewContextHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}),
		observability.Config{ServiceName: "sorttrace", Mode: observability.ModeCLI},
	)
	eng := engine.New(engine.WithLogger(slog.New(handler)))

	_, _, err := eng.Trace(context.Background(), "insertionSort", algorithm.Input{Array: []float64{2, 1}})
	require.NoError(t, err)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))

	assert.Equal(t, "trace: generated", record["msg"])
	assert.Equal(t, algorithm.InsertionSortID, record[observability.LogKeyAlgorithm])
}
