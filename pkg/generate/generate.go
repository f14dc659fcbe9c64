// Package generate builds input arrays with well-known shapes for tracing.
package generate

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
)

// Pattern names an input shape.
type Pattern string

// Supported patterns.
const (
	PatternRandom       Pattern = "random"
	PatternSorted       Pattern = "sorted"
	PatternReversed     Pattern = "reversed"
	PatternNearlySorted Pattern = "nearly-sorted"
	PatternDuplicates   Pattern = "duplicates"
)

// Patterns lists every supported pattern.
var Patterns = []Pattern{
	PatternRandom,
	PatternSorted,
	PatternReversed,
	PatternNearlySorted,
	PatternDuplicates,
}

// Defaults.
const (
	DefaultSize  = 20
	DefaultMin   = 1
	DefaultMax   = 100
	DefaultSwaps = 3

	// MaxSize matches the longest array the algorithms accept.
	MaxSize = algorithm.MaxArrayLen
)

// Sentinel errors.
var (
	ErrUnknownPattern = errors.New("unknown pattern")
	ErrInvalidSize    = errors.New("size out of range")
	ErrInvalidRange   = errors.New("invalid value range")
	ErrInvalidSwaps   = errors.New("swaps must not be negative")
)

// Options configures Generate.
type Options struct {
	Pattern Pattern
	Size    int
	Min     int
	Max     int
	// Swaps is the number of random transpositions applied by the
	// nearly-sorted pattern. Zero selects DefaultSwaps.
	Swaps int
	// Seed makes the output reproducible. Equal options give equal arrays.
	Seed uint64
}

// ParsePattern resolves a pattern name, accepting snake_case and camelCase.
func ParsePattern(name string) (Pattern, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")

	switch normalized {
	case "nearlysorted":
		normalized = string(PatternNearlySorted)
	case "", "rand":
		normalized = string(PatternRandom)
	}

	p := Pattern(normalized)
	if !slices.Contains(Patterns, p) {
		return "", fmt.Errorf("%w: %q", ErrUnknownPattern, name)
	}

	return p, nil
}

// Generate returns a new array shaped by opts.
func Generate(opts Options) ([]float64, error) {
	if opts.Size < 1 || opts.Size > MaxSize {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrInvalidSize, opts.Size, MaxSize)
	}

	if opts.Min > opts.Max {
		return nil, fmt.Errorf("%w: min %d > max %d", ErrInvalidRange, opts.Min, opts.Max)
	}

	// Max-Min+1 must fit in an int.
	if opts.Min <= 0 && opts.Max >= math.MaxInt+opts.Min {
		return nil, fmt.Errorf("%w: [%d, %d] is too wide", ErrInvalidRange, opts.Min, opts.Max)
	}

	if opts.Swaps < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidSwaps, opts.Swaps)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	switch opts.Pattern {
	case PatternRandom, "":
		return random(rng, opts.Size, opts.Min, opts.Max), nil
	case PatternSorted:
		return sorted(rng, opts.Size, opts.Min, opts.Max), nil
	case PatternReversed:
		values := sorted(rng, opts.Size, opts.Min, opts.Max)
		slices.Reverse(values)

		return values, nil
	case PatternNearlySorted:
		swaps := opts.Swaps
		if swaps == 0 {
			swaps = DefaultSwaps
		}

		return nearlySorted(rng, opts.Size, opts.Min, opts.Max, swaps), nil
	case PatternDuplicates:
		return duplicates(rng, opts.Size, opts.Min, opts.Max), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPattern, opts.Pattern)
	}
}

func random(rng *rand.Rand, size, lo, hi int) []float64 {
	values := make([]float64, size)
	for i := range values {
		values[i] = float64(lo + rng.IntN(hi-lo+1))
	}

	return values
}

func sorted(rng *rand.Rand, size, lo, hi int) []float64 {
	values := random(rng, size, lo, hi)
	slices.Sort(values)

	return values
}

func nearlySorted(rng *rand.Rand, size, lo, hi, swaps int) []float64 {
	values := sorted(rng, size, lo, hi)

	for range swaps {
		a, b := rng.IntN(size), rng.IntN(size)
		values[a], values[b] = values[b], values[a]
	}

	return values
}

// duplicates draws at most size/2 distinct values and repeats them, so every
// array of two or more elements holds at least one repeated value.
func duplicates(rng *rand.Rand, size, lo, hi int) []float64 {
	unique := max(1, min(hi-lo+1, size/2))
	base := random(rng, unique, lo, hi)

	values := make([]float64, size)
	for i := range values {
		values[i] = base[i%unique]
	}

	rng.Shuffle(len(values), func(i, j int) {
		values[i], values[j] = values[j], values[i]
	})

	return values
}
