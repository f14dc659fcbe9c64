package algorithm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

func TestInsertionSort_Metadata(t *testing.T) {
	t.Parallel()

	meta := algorithm.NewInsertionSort().Metadata()

	assert.Equal(t, "Insertion Sort", meta.Name)
	assert.True(t, meta.Stable)
	assert.True(t, meta.InPlace)
	assert.Equal(t, "O(n)", meta.TimeComplexity.Best)
}

func TestInsertionSort_Singleton(t *testing.T) {
	t.Parallel()

	trace := traceOf(algorithm.NewInsertionSort(), 7)

	require.Len(t, trace, 1)
	assert.Equal(t, operation.Mark(operation.StateSorted, 0), trace[0])
}

func TestInsertionSort_TwoDescending(t *testing.T) {
	t.Parallel()

	trace := traceOf(algorithm.NewInsertionSort(), 2, 1)

	want := operation.Trace{
		operation.Mark(operation.StateSorted, 0),
		operation.Mark(operation.StateActive, 1),
		operation.Compare(1, 0, 1, 2),
		operation.Write(1, 2),
		operation.Write(0, 1),
		operation.MarkRange(operation.StateSorted, 0, 1),
	}

	assert.Equal(t, want, trace)
	assert.Equal(t, []float64{1, 2}, operation.Replay([]float64{2, 1}, trace, len(trace)))
}

func TestInsertionSort_SortedInputIsLinear(t *testing.T) {
	t.Parallel()

	input := []float64{1, 2, 3, 4, 5, 6}
	trace := traceOf(algorithm.NewInsertionSort(), input...)

	assert.Equal(t, len(input)-1, trace.Count(operation.TypeCompare))
	assert.Equal(t, input, operation.Replay(input, trace, len(trace)))
}

func TestInsertionSort_EightMixed(t *testing.T) {
	t.Parallel()

	input := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	trace := traceOf(algorithm.NewInsertionSort(), input...)

	require.NoError(t, trace.Check(len(input)))
	assert.Equal(t, []float64{1, 1, 2, 3, 4, 5, 6, 9}, operation.Replay(input, trace, len(trace)))
	assert.Equal(t, len(input), trace.Indices().Cardinality())
}
