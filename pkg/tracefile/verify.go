package tracefile

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// Verification errors.
var (
	ErrInvalidOperation = errors.New("invalid operation")
	ErrFinalMismatch    = errors.New("replayed array differs from final array")
	ErrNotSorted        = errors.New("final array is not sorted")
)

// Verify checks that every operation fits the input and that replaying the
// whole trace reproduces the recorded, sorted final array.
func Verify(doc algorithm.Document) error {
	err := doc.Operations.Check(doc.Len())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOperation, err)
	}

	replayed := operation.Replay(doc.Input.Array, doc.Operations, len(doc.Operations))
	if !slices.Equal(replayed, doc.FinalArray) {
		return fmt.Errorf("%w: got %v, recorded %v", ErrFinalMismatch, replayed, doc.FinalArray)
	}

	if !slices.IsSorted(doc.FinalArray) {
		return fmt.Errorf("%w: %v", ErrNotSorted, doc.FinalArray)
	}

	return nil
}
