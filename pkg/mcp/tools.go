package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
	"github.com/Sumatoshi-tech/sorttrace/pkg/player"
	"github.com/Sumatoshi-tech/sorttrace/pkg/report"
)

// Tool name constants.
const (
	ToolNameAlgorithms = "sort_algorithms"
	ToolNameTrace      = "sort_trace"
	ToolNameReplay     = "sort_replay"
)

// MaxArrayLen bounds the arrays accepted by the tools.
const MaxArrayLen = algorithm.MaxArrayLen

// Sentinel errors for tool input validation.
var (
	// ErrEmptyAlgorithm indicates the algorithm parameter is empty.
	ErrEmptyAlgorithm = errors.New("algorithm parameter is required and must not be empty")
	// ErrArrayTooLarge indicates the array exceeds MaxArrayLen.
	ErrArrayTooLarge = errors.New("array exceeds maximum length")
	// ErrInvalidInput indicates the algorithm rejected the array.
	ErrInvalidInput = errors.New("invalid input")
)

// AlgorithmsInput is the input schema for the sort_algorithms tool.
type AlgorithmsInput struct{}

// TraceInput is the input schema for the sort_trace tool.
type TraceInput struct {
	Algorithm string    `json:"algorithm"                  jsonschema:"algorithm id (e.g. merge-sort insertion-sort)"`
	Array     []float64 `json:"array"                      jsonschema:"finite numbers to sort"`
	SkipOps   bool      `json:"skip_operations,omitempty"  jsonschema:"return only the summary"`
}

// ReplayInput is the input schema for the sort_replay tool.
type ReplayInput struct {
	Algorithm string    `json:"algorithm"      jsonschema:"algorithm id (e.g. merge-sort insertion-sort)"`
	Array     []float64 `json:"array"          jsonschema:"finite numbers to sort"`
	Step      int       `json:"step,omitempty" jsonschema:"number of operations to apply; negative selects the end"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// AlgorithmInfo is one entry of the sort_algorithms result.
type AlgorithmInfo struct {
	ID string `json:"id"`
	algorithm.Metadata
}

// TraceResult is the sort_trace result.
type TraceResult struct {
	Summary    report.Summary  `json:"summary"`
	Operations operation.Trace `json:"operations,omitempty"`
}

// ReplayResult is the sort_replay result.
type ReplayResult struct {
	Array     []float64            `json:"array"`
	Metrics   player.Metrics       `json:"metrics"`
	Operation *operation.Operation `json:"operation,omitempty"`
}

func (s *Server) handleAlgorithms(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ AlgorithmsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	algs := s.engine.Algorithms()

	out := make([]AlgorithmInfo, 0, len(algs))
	for id, meta := range algs {
		out = append(out, AlgorithmInfo{ID: id, Metadata: meta})
	}

	slices.SortFunc(out, func(a, b AlgorithmInfo) int { return strings.Compare(a.ID, b.ID) })

	return jsonResult(out)
}

func (s *Server) handleTrace(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input TraceInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	doc, err := s.trace(ctx, input.Algorithm, input.Array)
	if err != nil {
		return errorResult(err)
	}

	result := TraceResult{Summary: report.Summarize(doc, report.EndStep)}
	if !input.SkipOps {
		result.Operations = doc.Operations
	}

	return jsonResult(result)
}

func (s *Server) handleReplay(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input ReplayInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	doc, err := s.trace(ctx, input.Algorithm, input.Array)
	if err != nil {
		return errorResult(err)
	}

	step := input.Step
	if step < 0 || step > len(doc.Operations) {
		step = len(doc.Operations)
	}

	result := ReplayResult{
		Array:   operation.Replay(doc.Input.Array, doc.Operations, step),
		Metrics: player.ComputeMetrics(doc.Operations, step),
	}

	if step > 0 {
		op := doc.Operations[step-1]
		result.Operation = &op
	}

	return jsonResult(result)
}

// trace validates the tool arguments and runs the engine.
func (s *Server) trace(ctx context.Context, id string, values []float64) (algorithm.Document, error) {
	if strings.TrimSpace(id) == "" {
		return algorithm.Document{}, ErrEmptyAlgorithm
	}

	if len(values) > MaxArrayLen {
		return algorithm.Document{}, fmt.Errorf("%w: %d values (max %d)", ErrArrayTooLarge, len(values), MaxArrayLen)
	}

	doc, verrs, err := s.engine.Trace(ctx, id, algorithm.Input{Array: values})
	if err != nil {
		return algorithm.Document{}, err
	}

	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i, verr := range verrs {
			msgs[i] = verr.Error()
		}

		return algorithm.Document{}, fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}

	return doc, nil
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
