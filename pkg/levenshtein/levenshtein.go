// Package levenshtein computes edit distances and picks the closest of a set
// of names, for "did you mean" suggestions.
package levenshtein

// Context reuses its row buffer between calls. It is not safe for concurrent use.
type Context struct {
	row []int
}

// Distance returns the number of single-rune insertions, deletions and
// substitutions that turn a into b.
func (ctx *Context) Distance(a, b string) int {
	s1, s2 := []rune(a), []rune(b)

	if len(s1) > len(s2) {
		s1, s2 = s2, s1
	}

	if len(s1) == 0 {
		return len(s2)
	}

	if cap(ctx.row) < len(s1)+1 {
		ctx.row = make([]int, len(s1)+1)
	}

	row := ctx.row[:len(s1)+1]
	for i := range row {
		row[i] = i
	}

	for j := 1; j <= len(s2); j++ {
		diag := row[0]
		row[0] = j

		for i := 1; i <= len(s1); i++ {
			above := row[i]

			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}

			row[i] = min(row[i]+1, row[i-1]+1, diag+cost)
			diag = above
		}
	}

	return row[len(s1)]
}

// Closest returns the candidate nearest to target. Candidates further than
// maxDistance edits away are ignored; ties keep the earlier candidate.
func (ctx *Context) Closest(target string, candidates []string, maxDistance int) (string, bool) {
	best, bestDistance := "", maxDistance+1

	for _, candidate := range candidates {
		d := ctx.Distance(target, candidate)
		if d < bestDistance {
			best, bestDistance = candidate, d
		}
	}

	return best, best != ""
}
