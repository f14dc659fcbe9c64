package algorithm

import (
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// Document is a materialised run: the input, its full trace, the sorted
// result and the engine's metadata. It is the unit that is saved, loaded,
// replayed and reported on.
type Document struct {
	Algorithm  string          `json:"algorithm"   yaml:"algorithm"`
	Input      Input           `json:"input"       yaml:"input"`
	Operations operation.Trace `json:"operations"  yaml:"operations"`
	FinalArray []float64       `json:"final_array" yaml:"final_array"`
	Metadata   Metadata        `json:"metadata"    yaml:"metadata"`
}

// Run validates input and, when it is acceptable, traces it to completion.
// Validation problems are returned as data and the document is left empty.
func Run(id string, alg Algorithm, input Input) (Document, []ValidationError) {
	errs := alg.Validate(input)
	if len(errs) > 0 {
		return Document{}, errs
	}

	trace := Collect(alg.Trace(input))

	return Document{
		Algorithm:  id,
		Input:      input,
		Operations: trace,
		FinalArray: operation.Replay(input.Array, trace, len(trace)),
		Metadata:   alg.Metadata(),
	}, nil
}

// Len returns the array length the document was traced against.
func (d Document) Len() int {
	return len(d.Input.Array)
}
