package player

import (
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// Metrics are counters derived from the operations before the cursor.
// ElapsedTime is measured in steps.
type Metrics struct {
	Comparisons int `json:"comparisons"  yaml:"comparisons"`
	Swaps       int `json:"swaps"        yaml:"swaps"`
	ElapsedTime int `json:"elapsed_time" yaml:"elapsed_time"`
	CurrentStep int `json:"current_step" yaml:"current_step"`
	TotalSteps  int `json:"total_steps"  yaml:"total_steps"`
}

// ComputeMetrics derives Metrics for ops with the cursor at step.
// The step is clamped to [0, len(ops)].
func ComputeMetrics(ops operation.Trace, step int) Metrics {
	step = clamp(step, 0, len(ops))
	done := ops[:step]

	return Metrics{
		Comparisons: done.Count(operation.TypeCompare),
		Swaps:       done.Count(operation.TypeSwap),
		ElapsedTime: step,
		CurrentStep: step,
		TotalSteps:  len(ops),
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
