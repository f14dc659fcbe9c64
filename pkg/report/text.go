package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/sorttrace/pkg/operation"
)

// maxInlineValues caps how many array values a table cell prints.
const maxInlineValues = 32

// WriteText writes s as a human-readable table. Colour follows color.NoColor.
func WriteText(w io.Writer, s Summary) error {
	title := s.Name
	if title == "" {
		title = s.Algorithm
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle(title)
	tbl.Style().Options.SeparateRows = false

	tbl.AppendRows([]table.Row{
		{"algorithm", s.Algorithm},
		{"length", humanize.Comma(int64(s.Length))},
		{"step", fmt.Sprintf("%s / %s", humanize.Comma(int64(s.Step)), humanize.Comma(int64(s.Operations)))},
		{"complexity", fmt.Sprintf("%s time, %s space", s.Complexity, s.Space)},
		{"stable", s.Stable},
		{"in place", s.InPlace},
	})
	tbl.AppendSeparator()

	for _, typ := range operation.Types {
		tbl.AppendRow(table.Row{string(typ), humanize.Comma(int64(s.Counts[typ]))})
	}

	tbl.AppendSeparator()
	tbl.AppendRows([]table.Row{
		{"touched", fmt.Sprintf("%d of %d", s.Touched, s.Length)},
		{"input", formatValues(s.InputArray)},
		{"array", formatValues(s.Array)},
		{"final", formatValues(s.FinalArray)},
	})
	tbl.AppendFooter(table.Row{"verified", verdict(s)})

	_, err := fmt.Fprintln(w, tbl.Render())
	if err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	return nil
}

func verdict(s Summary) string {
	if s.Verified {
		return color.New(color.FgGreen).Sprint("ok")
	}

	return color.New(color.FgRed).Sprint(s.VerifyError)
}

func formatValues(values []float64) string {
	shown := values
	if len(shown) > maxInlineValues {
		shown = shown[:maxInlineValues]
	}

	out := joinValues(shown)
	if len(values) > maxInlineValues {
		out += fmt.Sprintf(" +%d more", len(values)-maxInlineValues)
	}

	return out
}

func joinValues(values []float64) string {
	return "[" + JoinValues(values, " ") + "]"
}

// JoinValues formats values in their shortest form, separated by sep.
func JoinValues(values []float64, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}

	return strings.Join(parts, sep)
}

// FormatOperation renders op on a single line, e.g. "swap [3]=7".
func FormatOperation(op operation.Operation) string {
	var b strings.Builder

	b.WriteString(string(op.Type))

	switch op.Type {
	case operation.TypeSwap, operation.TypeMerge:
		for k, idx := range op.Indices {
			if k >= len(op.Values) {
				fmt.Fprintf(&b, " [%d]=?", idx)

				continue
			}

			fmt.Fprintf(&b, " [%d]=%s", idx, strconv.FormatFloat(op.Values[k], 'g', -1, 64))
		}
	case operation.TypeMark:
		fmt.Fprintf(&b, " %s %v", op.State, op.Indices)
	default:
		fmt.Fprintf(&b, " %v", op.Indices)
	}

	return b.String()
}

// FormatTrace renders ops one per line, prefixed by their step number.
func FormatTrace(ops operation.Trace) string {
	var b strings.Builder

	for i, op := range ops {
		fmt.Fprintf(&b, "%d %s\n", i+1, FormatOperation(op))
	}

	return b.String()
}
