package algorithm

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/Sumatoshi-tech/sorttrace/pkg/levenshtein"
)

// ErrUnknownAlgorithm is returned when an id is not registered.
var ErrUnknownAlgorithm = errors.New("unknown algorithm")

// ErrDuplicateAlgorithm is returned when an id is registered twice.
var ErrDuplicateAlgorithm = errors.New("algorithm already registered")

const normalizeExtraCapacity = 4

// maxSuggestDistance bounds how far a misspelt id may be from a suggestion.
const maxSuggestDistance = 3

// Registry maps algorithm ids to engines.
type Registry struct {
	mu         sync.RWMutex
	algorithms map[string]Algorithm
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{algorithms: make(map[string]Algorithm)}
}

// Default returns a registry holding every bundled algorithm.
func Default() *Registry {
	reg := NewRegistry()

	// Ids are constants, so registration cannot collide.
	_ = reg.Register(MergeSortID, NewMergeSort())
	_ = reg.Register(InsertionSortID, NewInsertionSort())

	return reg
}

// Register adds alg under id. The id is normalised to kebab-case.
func (r *Registry) Register(id string, alg Algorithm) error {
	key := NormalizeID(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.algorithms[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAlgorithm, key)
	}

	r.algorithms[key] = alg

	return nil
}

// Get looks up an algorithm. Lookups accept the same spellings as Register,
// so "mergeSort", "merge_sort" and "merge-sort" all resolve.
func (r *Registry) Get(id string) (Algorithm, error) {
	key := NormalizeID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	alg, ok := r.algorithms[key]
	if !ok {
		ids := r.idsLocked()

		var lev levenshtein.Context
		if near, found := lev.Closest(key, ids, maxSuggestDistance); found {
			return nil, fmt.Errorf("%w: %q (did you mean %q?)", ErrUnknownAlgorithm, id, near)
		}

		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownAlgorithm, id, strings.Join(ids, ", "))
	}

	return alg, nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.idsLocked()
}

func (r *Registry) idsLocked() []string {
	ids := make([]string, 0, len(r.algorithms))
	for id := range r.algorithms {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}

// NormalizeID converts camelCase, snake_case and spaced names to kebab-case.
func NormalizeID(name string) string {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return ""
	}

	builder := strings.Builder{}
	builder.Grow(len(normalized) + normalizeExtraCapacity)

	previousLower := false

	for _, current := range normalized {
		if current == '_' || current == ' ' {
			builder.WriteRune('-')

			previousLower = false

			continue
		}

		if unicode.IsUpper(current) {
			if previousLower {
				builder.WriteRune('-')
			}

			builder.WriteRune(unicode.ToLower(current))

			previousLower = false

			continue
		}

		builder.WriteRune(current)
		previousLower = unicode.IsLetter(current) && unicode.IsLower(current)
	}

	return strings.Trim(builder.String(), "-")
}
