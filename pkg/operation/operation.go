// Package operation defines the recordable events of a traced sorting run and
// the replay rule that turns an ordered list of them back into array state.
package operation

import (
	"errors"
	"fmt"
)

// Type tags an Operation. The set is closed.
type Type string

// Operation types.
const (
	TypeCompare Type = "compare"
	TypeSwap    Type = "swap"
	TypeMark    Type = "mark"
	TypeMerge   Type = "merge"
	TypeSplit   Type = "split"
)

// Types lists every operation type in canonical order.
var Types = []Type{TypeCompare, TypeSwap, TypeMark, TypeMerge, TypeSplit}

// Valid reports whether t is one of the known operation types.
func (t Type) Valid() bool {
	switch t {
	case TypeCompare, TypeSwap, TypeMark, TypeMerge, TypeSplit:
		return true
	default:
		return false
	}
}

// Mutates reports whether operations of this type write to the array.
func (t Type) Mutates() bool {
	return t == TypeSwap || t == TypeMerge
}

// State explains why a mark highlights its indices.
type State string

// Mark states.
const (
	StateActive State = "active"
	StateSorted State = "sorted"
	StatePivot  State = "pivot"
	StateMerged State = "merged"
)

// Valid reports whether s is a known mark state.
func (s State) Valid() bool {
	switch s {
	case StateActive, StateSorted, StatePivot, StateMerged:
		return true
	default:
		return false
	}
}

// Metadata keys used by split operations.
const (
	MetaLeft  = "left"
	MetaRight = "right"
	MetaMid   = "mid"
)

// Operation is one recorded algorithmic event.
// For swap and merge, Values[k] is the value written to Indices[k].
type Operation struct {
	Type     Type           `json:"type"               yaml:"type"`
	Indices  []int          `json:"indices"            yaml:"indices"`
	Values   []float64      `json:"values,omitempty"   yaml:"values,omitempty"`
	State    State          `json:"state,omitempty"    yaml:"state,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Sentinel errors reported by Check.
var (
	ErrUnknownType      = errors.New("unknown operation type")
	ErrNoIndices        = errors.New("operation has no indices")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrValuesMismatch   = errors.New("values do not match indices")
	ErrUnexpectedState  = errors.New("state is only allowed on mark operations")
	ErrUnknownMarkState = errors.New("unknown mark state")
)

// Compare records a comparison of the elements at i and j.
func Compare(i, j int, vi, vj float64) Operation {
	return Operation{Type: TypeCompare, Indices: []int{i, j}, Values: []float64{vi, vj}}
}

// Write records a single positional write, tagged as a swap.
func Write(index int, value float64) Operation {
	return Operation{Type: TypeSwap, Indices: []int{index}, Values: []float64{value}}
}

// MergeWrite records a block write of values into indices.
func MergeWrite(indices []int, values []float64) Operation {
	return Operation{Type: TypeMerge, Indices: indices, Values: values}
}

// Mark highlights indices with the given state.
func Mark(state State, indices ...int) Operation {
	return Operation{Type: TypeMark, Indices: indices, State: state}
}

// MarkRange highlights every index in [lo, hi].
func MarkRange(state State, lo, hi int) Operation {
	indices := make([]int, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		indices = append(indices, i)
	}

	return Mark(state, indices...)
}

// Split records the division of [left, right] at mid.
func Split(left, mid, right int) Operation {
	return Operation{
		Type:    TypeSplit,
		Indices: []int{mid},
		Metadata: map[string]any{
			MetaLeft:  left,
			MetaRight: right,
			MetaMid:   mid,
		},
	}
}

// Check verifies the operation against an array of length n.
func (op Operation) Check(n int) error {
	if !op.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, op.Type)
	}

	if len(op.Indices) == 0 {
		return fmt.Errorf("%w: %s", ErrNoIndices, op.Type)
	}

	for _, idx := range op.Indices {
		if idx < 0 || idx >= n {
			return fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, idx, n)
		}
	}

	if op.Type.Mutates() && len(op.Values) != len(op.Indices) {
		return fmt.Errorf("%w: %d indices, %d values", ErrValuesMismatch, len(op.Indices), len(op.Values))
	}

	if op.State != "" {
		if op.Type != TypeMark {
			return fmt.Errorf("%w: %s has state %q", ErrUnexpectedState, op.Type, op.State)
		}

		if !op.State.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownMarkState, op.State)
		}
	}

	return nil
}

// Apply executes op against array in place. Only swap and merge touch the
// array; out-of-range writes and missing values are skipped.
func Apply(array []float64, op Operation) {
	if !op.Type.Mutates() {
		return
	}

	for k, idx := range op.Indices {
		if k >= len(op.Values) || idx < 0 || idx >= len(array) {
			continue
		}

		array[idx] = op.Values[k]
	}
}
