package operation

import (
	"fmt"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// Trace is the ordered record of one algorithm run. Treat it as immutable.
type Trace []Operation

// TraceError locates the first invalid operation of a trace.
type TraceError struct {
	Step int
	Err  error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("operation %d: %v", e.Step, e.Err)
}

func (e *TraceError) Unwrap() error {
	return e.Err
}

// Check verifies every operation against an array of length n.
func (t Trace) Check(n int) error {
	for step, op := range t {
		err := op.Check(n)
		if err != nil {
			return &TraceError{Step: step, Err: err}
		}
	}

	return nil
}

// Count returns how many operations of type typ occur in t.
func (t Trace) Count(typ Type) int {
	return Count(t, typ)
}

// Indices returns every array position touched by the trace.
func (t Trace) Indices() mapset.Set[int] {
	set := mapset.NewThreadUnsafeSet[int]()

	for _, op := range t {
		set.Append(op.Indices...)
	}

	return set
}

// Count returns how many operations of type typ occur in ops.
func Count(ops []Operation, typ Type) int {
	total := 0

	for _, op := range ops {
		if op.Type == typ {
			total++
		}
	}

	return total
}

// Replay returns a copy of original with ops[0:step) applied in order.
// The step is clamped to [0, len(ops)].
func Replay(original []float64, ops []Operation, step int) []float64 {
	step = max(0, min(step, len(ops)))
	array := slices.Clone(original)

	for _, op := range ops[:step] {
		Apply(array, op)
	}

	return array
}
