package generate_test

import (
	"math"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/sorttrace/pkg/generate"
)

func TestGenerate_Deterministic(t *testing.T) {
	t.Parallel()

	for _, pattern := range generate.Patterns {
		opts := generate.Options{Pattern: pattern, Size: 25, Min: 1, Max: 100, Seed: 7}

		first, err := generate.Generate(opts)
		require.NoError(t, err)

		second, err := generate.Generate(opts)
		require.NoError(t, err)

		assert.Equal(t, first, second, pattern)
		assert.Len(t, first, 25, pattern)
	}
}

func TestGenerate_Range(t *testing.T) {
	t.Parallel()

	for _, pattern := range generate.Patterns {
		values, err := generate.Generate(generate.Options{Pattern: pattern, Size: 200, Min: -5, Max: 5, Seed: 1})
		require.NoError(t, err)

		for _, v := range values {
			assert.GreaterOrEqual(t, v, -5.0, pattern)
			assert.LessOrEqual(t, v, 5.0, pattern)
		}
	}
}

func TestGenerate_Shapes(t *testing.T) {
	t.Parallel()

	sorted, err := generate.Generate(generate.Options{Pattern: generate.PatternSorted, Size: 30, Min: 1, Max: 100, Seed: 3})
	require.NoError(t, err)
	assert.True(t, slices.IsSorted(sorted))

	reversed, err := generate.Generate(generate.Options{Pattern: generate.PatternReversed, Size: 30, Min: 1, Max: 100, Seed: 3})
	require.NoError(t, err)
	slices.Reverse(reversed)
	assert.True(t, slices.IsSorted(reversed))

	dups, err := generate.Generate(generate.Options{Pattern: generate.PatternDuplicates, Size: 10, Min: 1, Max: 100, Seed: 3})
	require.NoError(t, err)

	distinct := slices.Compact(slices.Sorted(slices.Values(dups)))
	assert.LessOrEqual(t, len(distinct), 5)
}

func TestGenerate_DuplicatesSingleton(t *testing.T) {
	t.Parallel()

	values, err := generate.Generate(generate.Options{Pattern: generate.PatternDuplicates, Size: 1, Min: 1, Max: 9})
	require.NoError(t, err)
	assert.Len(t, values, 1)
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts generate.Options
		err  error
	}{
		{name: "zero size", opts: generate.Options{Size: 0, Max: 10}, err: generate.ErrInvalidSize},
		{name: "too large", opts: generate.Options{Size: generate.MaxSize + 1, Max: 10}, err: generate.ErrInvalidSize},
		{name: "huge size", opts: generate.Options{Size: 1 << 40, Max: 10}, err: generate.ErrInvalidSize},
		{name: "full int range", opts: generate.Options{Size: 3, Min: math.MinInt, Max: math.MaxInt}, err: generate.ErrInvalidRange},
		{name: "zero to max int", opts: generate.Options{Size: 3, Min: 0, Max: math.MaxInt}, err: generate.ErrInvalidRange},
		{name: "inverted range", opts: generate.Options{Size: 3, Min: 10, Max: 1}, err: generate.ErrInvalidRange},
		{name: "negative swaps", opts: generate.Options{Size: 3, Max: 10, Swaps: -1}, err: generate.ErrInvalidSwaps},
		{name: "unknown pattern", opts: generate.Options{Pattern: "zigzag", Size: 3, Max: 10}, err: generate.ErrUnknownPattern},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := generate.Generate(tt.opts)
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	tests := map[string]generate.Pattern{
		"random":        generate.PatternRandom,
		"":              generate.PatternRandom,
		"nearly_sorted": generate.PatternNearlySorted,
		"nearlySorted":  generate.PatternNearlySorted,
		" Reversed ":    generate.PatternReversed,
		"duplicates":    generate.PatternDuplicates,
	}

	for in, want := range tests {
		got, err := generate.ParsePattern(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := generate.ParsePattern("zigzag")
	require.ErrorIs(t, err, generate.ErrUnknownPattern)
}
