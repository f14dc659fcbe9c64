// Package report renders derived views of a trace document: summaries,
// tables, encoded dumps, statistics charts and trace diffs.
package report

import (
	"slices"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/tracefile"
)

// EndStep selects the last step of a trace.
const EndStep = -1

// Summary describes a document with the cursor at Step.
type Summary struct {
	Algorithm    string                 `json:"algorithm"              yaml:"algorithm"`
	Name         string                 `json:"name"                   yaml:"name"`
	Length       int                    `json:"length"                 yaml:"length"`
	Step         int                    `json:"step"                   yaml:"step"`
	Counts       map[operation.Type]int `json:"counts"                 yaml:"counts"`
	Metrics      player.Metrics         `json:"metrics"                yaml:"metrics"`
	Touched      int                    `json:"touched"                yaml:"touched"`
	Untouched    []int                  `json:"untouched,omitempty"    yaml:"untouched,omitempty"`
	Array        []float64              `json:"array"                  yaml:"array"`
	Verified     bool                   `json:"verified"               yaml:"verified"`
	VerifyError  string                 `json:"verify_error,omitempty" yaml:"verify_error,omitempty"`
	InputArray   []float64              `json:"input_array"            yaml:"input_array"`
	FinalArray   []float64              `json:"final_array"            yaml:"final_array"`
	Stable       bool                   `json:"stable"                 yaml:"stable"`
	InPlace      bool                   `json:"in_place"               yaml:"in_place"`
	Complexity   string                 `json:"average_complexity"     yaml:"average_complexity"`
	Space        string                 `json:"space_complexity"       yaml:"space_complexity"`
	Operations   int                    `json:"operations"             yaml:"operations"`
}

// Summarize builds the summary of doc at step. EndStep and any step past the
// end select the final state; negative steps other than EndStep clamp to 0.
func Summarize(doc algorithm.Document, step int) Summary {
	total := len(doc.Operations)

	switch {
	case step == EndStep || step > total:
		step = total
	case step < 0:
		step = 0
	}

	counts := make(map[operation.Type]int, len(operation.Types))
	for _, typ := range operation.Types {
		counts[typ] = doc.Operations[:step].Count(typ)
	}

	touched := doc.Operations.Indices()

	var untouched []int

	for i := range doc.Len() {
		if !touched.Contains(i) {
			untouched = append(untouched, i)
		}
	}

	summary := Summary{
		Algorithm:    doc.Algorithm,
		Name:         doc.Metadata.Name,
		Length:       doc.Len(),
		Step:         step,
		Counts:       counts,
		Metrics:      player.ComputeMetrics(doc.Operations, step),
		Touched:      touched.Cardinality(),
		Untouched:    untouched,
		Array:        operation.Replay(doc.Input.Array, doc.Operations, step),
		InputArray:   slices.Clone(doc.Input.Array),
		FinalArray:   slices.Clone(doc.FinalArray),
		Stable:       doc.Metadata.Stable,
		InPlace:      doc.Metadata.InPlace,
		Complexity:   doc.Metadata.TimeComplexity.Average,
		Space:        doc.Metadata.SpaceComplexity,
		Operations:   total,
	}

	err := tracefile.Verify(doc)
	if err != nil {
		summary.VerifyError = err.Error()
	} else {
		summary.Verified = true
	}

	return summary
}
