package report

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/Sumatoshi-tech/sorttrace/pkg/algorithm"
)

// DiffResult is a line diff between the textual traces of two documents.
type DiffResult struct {
	Equal    bool   `json:"equal"            yaml:"equal"`
	Added    int    `json:"added"            yaml:"added"`
	Removed  int    `json:"removed"          yaml:"removed"`
	Unified  string `json:"unified"          yaml:"unified"`
	LeftLen  int    `json:"left_operations"  yaml:"left_operations"`
	RightLen int    `json:"right_operations" yaml:"right_operations"`
}

// Diff compares the traces of a and b line by line. Unified holds every line
// prefixed with "+", "-" or " ".
func Diff(a, b algorithm.Document) DiffResult {
	left := describe(a)
	right := describe(b)

	dmp := diffmatchpatch.New()
	leftChars, rightChars, lines := dmp.DiffLinesToChars(left, right)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(leftChars, rightChars, false), lines)

	result := DiffResult{
		Equal:    left == right,
		LeftLen:  len(a.Operations),
		RightLen: len(b.Operations),
	}

	var out strings.Builder

	for _, d := range diffs {
		prefix, counter := " ", (*int)(nil)

		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix, counter = "+", &result.Added
		case diffmatchpatch.DiffDelete:
			prefix, counter = "-", &result.Removed
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}

			if counter != nil {
				*counter++
			}

			out.WriteString(prefix + line)
		}
	}

	result.Unified = out.String()

	return result
}

// describe renders doc one operation per line, without step numbers.
func describe(doc algorithm.Document) string {
	var b strings.Builder

	b.WriteString("input " + joinValues(doc.Input.Array) + "\n")

	for _, op := range doc.Operations {
		b.WriteString(FormatOperation(op) + "\n")
	}

	b.WriteString("final " + joinValues(doc.FinalArray) + "\n")

	return b.String()
}
