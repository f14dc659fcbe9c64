package algorithm

import (
	"iter"
	"slices"

	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// MergeSortID is the registry id of the merge sort engine.
const MergeSortID = "merge-sort"

var mergeSortMetadata = Metadata{
	Name: "Merge Sort",
	Description: "A divide-and-conquer algorithm that recursively splits the array, " +
		"sorts the subarrays, and merges them back together.",
	TimeComplexity: Complexity{
		Best:    "O(n log n)",
		Average: "O(n log n)",
		Worst:   "O(n log n)",
	},
	SpaceComplexity: "O(n)",
	Stable:          true,
	InPlace:         false,
}

// MergeSort is the reference top-down merge sort engine.
type MergeSort struct{}

// NewMergeSort creates a merge sort engine.
func NewMergeSort() *MergeSort {
	return &MergeSort{}
}

// Metadata implements Algorithm.
func (*MergeSort) Metadata() Metadata {
	return mergeSortMetadata
}

// Validate implements Algorithm.
func (*MergeSort) Validate(input Input) []ValidationError {
	return ValidateArray(input.Array)
}

type frameKind int

const (
	frameSort frameKind = iota
	frameMerge
)

// frame is one pending unit of work on the explicit recursion stack.
type frame struct {
	kind             frameKind
	left, mid, right int
}

// Trace implements Algorithm. Recursion is unrolled onto an explicit stack so
// the sequence can stop at any yield without leaking goroutines.
func (*MergeSort) Trace(input Input) iter.Seq[operation.Operation] {
	return func(yield func(operation.Operation) bool) {
		array := slices.Clone(input.Array)
		n := len(array)

		if n == 0 {
			return
		}

		if n == 1 {
			yield(operation.Mark(operation.StateSorted, 0))

			return
		}

		stack := []frame{{kind: frameSort, left: 0, right: n - 1}}

		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			switch top.kind {
			case frameSort:
				if top.left == top.right {
					if !yield(operation.Mark(operation.StateSorted, top.left)) {
						return
					}

					continue
				}

				mid := (top.left + top.right) / 2
				if !yield(operation.Split(top.left, mid, top.right)) {
					return
				}

				// Pushed in reverse: left half runs first, merge last.
				stack = append(stack,
					frame{kind: frameMerge, left: top.left, mid: mid, right: top.right},
					frame{kind: frameSort, left: mid + 1, right: top.right},
					frame{kind: frameSort, left: top.left, right: mid},
				)
			case frameMerge:
				if !mergeRuns(array, top.left, top.mid, top.right, yield) {
					return
				}
			}
		}
	}
}

// mergeRuns merges array[left..mid] and array[mid+1..right], emitting every
// comparison and write. It returns false when the consumer stopped.
func mergeRuns(array []float64, left, mid, right int, yield func(operation.Operation) bool) bool {
	leftRun := slices.Clone(array[left : mid+1])
	rightRun := slices.Clone(array[mid+1 : right+1])

	if !yield(operation.MarkRange(operation.StateActive, left, right)) {
		return false
	}

	i, j, k := 0, 0, left

	for i < len(leftRun) && j < len(rightRun) {
		if !yield(operation.Compare(left+i, mid+1+j, leftRun[i], rightRun[j])) {
			return false
		}

		var winner float64
		if leftRun[i] <= rightRun[j] {
			winner = leftRun[i]
			i++
		} else {
			winner = rightRun[j]
			j++
		}

		array[k] = winner
		if !yield(operation.Write(k, winner)) {
			return false
		}

		k++
	}

	for ; i < len(leftRun); i++ {
		array[k] = leftRun[i]
		if !yield(operation.Write(k, leftRun[i])) {
			return false
		}

		k++
	}

	for ; j < len(rightRun); j++ {
		array[k] = rightRun[j]
		if !yield(operation.Write(k, rightRun[j])) {
			return false
		}

		k++
	}

	return yield(operation.MarkRange(operation.StateSorted, left, right))
}
