package algorithm

import (
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// InsertionSortID is the registry id of the insertion sort engine.
const InsertionSortID = "insertion-sort"

var insertionSortMetadata = Metadata{
	Name: "Insertion Sort",
	Description: "Builds the sorted prefix one element at a time, shifting larger " +
		"elements right until the current element fits.",
	TimeComplexity: Complexity{
		Best:    "O(n)",
		Average: "O(n^2)",
		Worst:   "O(n^2)",
	},
	SpaceComplexity: "O(1)",
	Stable:          true,
	InPlace:         true,
}

// InsertionSort traces a straight insertion sort.
type InsertionSort struct{}

// NewInsertionSort creates an insertion sort engine.
func NewInsertionSort() *InsertionSort {
	return &InsertionSort{}
}

// Metadata implements Algorithm.
func (*InsertionSort) Metadata() Metadata {
	return insertionSortMetadata
}

// Validate implements Algorithm.
func (*InsertionSort) Validate(input Input) []ValidationError {
	return ValidateArray(input.Array)
}

// Trace implements Algorithm.
func (*InsertionSort) Trace(input Input) iter.Seq[operation.Operation] {
	return func(yield func(operation.Operation) bool) {
		array := slices.Clone(input.Array)
		if len(array) == 0 {
			return
		}

		if !yield(operation.Mark(operation.StateSorted, 0)) {
			return
		}

		for i := 1; i < len(array); i++ {
			current := array[i]

			if !yield(operation.Mark(operation.StateActive, i)) {
				return
			}

			j := i - 1

			for j >= 0 {
				if !yield(operation.Compare(i, j, current, array[j])) {
					return
				}

				if array[j] <= current {
					break
				}

				array[j+1] = array[j]
				if !yield(operation.Write(j+1, array[j])) {
					return
				}

				j--
			}

			array[j+1] = current
			if !yield(operation.Write(j+1, current)) {
				return
			}

			if !yield(operation.MarkRange(operation.StateSorted, 0, i)) {
				return
			}
		}
	}
}
