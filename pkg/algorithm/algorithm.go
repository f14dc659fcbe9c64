// Package algorithm defines the traced sorting algorithm contract and its
// reference implementations.
package algorithm

import (
	"iter"
	"math"
	"slices"

	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// FieldArray is the field name reported for array precondition failures.
const FieldArray = "array"

// MaxArrayLen is the longest array any entry point accepts.
const MaxArrayLen = 4096

// Validation messages.
const (
	MsgEmptyArray   = "Array must not be empty"
	MsgNonFiniteArr = "Array must contain only finite numbers"
	MsgArrayTooLong = "Array must not hold more than 4096 values"
)

// Input is the request handed to an algorithm.
// Size and Settings are accepted for forward compatibility and ignored by the
// bundled algorithms.
type Input struct {
	Array    []float64      `json:"array"              yaml:"array"`
	Size     int            `json:"size,omitempty"     yaml:"size,omitempty"`
	Settings map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// ValidationError describes one violated precondition.
type ValidationError struct {
	Field   string `json:"field"   yaml:"field"`
	Message string `json:"message" yaml:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Complexity holds asymptotic time labels.
type Complexity struct {
	Best    string `json:"best"    yaml:"best"`
	Average string `json:"average" yaml:"average"`
	Worst   string `json:"worst"   yaml:"worst"`
}

// Metadata is the static description of an algorithm.
type Metadata struct {
	Name            string     `json:"name"             yaml:"name"`
	Description     string     `json:"description"      yaml:"description"`
	TimeComplexity  Complexity `json:"time_complexity"  yaml:"time_complexity"`
	SpaceComplexity string     `json:"space_complexity" yaml:"space_complexity"`
	Stable          bool       `json:"stable"           yaml:"stable"`
	InPlace         bool       `json:"in_place"         yaml:"in_place"`
}

// Algorithm produces a replayable trace of a sort.
//
// Validate never mutates its input and returns every violated precondition.
// Trace is only meaningful for input that passed Validate. It works on a
// private copy of the array and yields operations lazily, in execution order;
// a new call re-runs the sort from scratch.
type Algorithm interface {
	Metadata() Metadata
	Validate(input Input) []ValidationError
	Trace(input Input) iter.Seq[operation.Operation]
}

// ValidateArray checks the preconditions shared by the bundled algorithms.
func ValidateArray(values []float64) []ValidationError {
	var errs []ValidationError

	if len(values) == 0 {
		errs = append(errs, ValidationError{Field: FieldArray, Message: MsgEmptyArray})
	}

	if len(values) > MaxArrayLen {
		errs = append(errs, ValidationError{Field: FieldArray, Message: MsgArrayTooLong})
	}

	if slices.ContainsFunc(values, func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }) {
		errs = append(errs, ValidationError{Field: FieldArray, Message: MsgNonFiniteArr})
	}

	return errs
}

// Collect materialises a lazy operation sequence.
func Collect(seq iter.Seq[operation.Operation]) operation.Trace {
	return operation.Trace(slices.Collect(seq))
}
