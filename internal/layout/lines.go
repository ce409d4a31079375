package layout

import (
	"sort"
	"strings"

	"github.com/dvloznov/redot2koinly/internal/ocr"
)

// DefaultYTolerance is the vertical band, in pixels, within which tokens are
// considered part of the same line.
const DefaultYTolerance = 30

// Line is an ordered run of tokens sharing an inferred row, left to right.
// Lines exist only for the duration of one screenshot parse.
type Line struct {
	// Y is the mean vertical center of the member tokens.
	Y      float64
	Tokens []ocr.Token
}

// Text joins the member token texts with single spaces.
func (l Line) Text() string {
	parts := make([]string, 0, len(l.Tokens))
	for _, t := range l.Tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}

// GroupLines clusters tokens into lines by vertical center. Tokens are sorted
// top to bottom and greedily attached to the current line while they stay
// within yTol of the last attached token; ties keep the original scan order.
// An empty token set yields an empty line list.
func GroupLines(tokens []ocr.Token, yTol float64) []Line {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]ocr.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Y < sorted[j].Y })

	var groups [][]ocr.Token
	for _, t := range sorted {
		if len(groups) == 0 {
			groups = append(groups, []ocr.Token{t})
			continue
		}
		last := groups[len(groups)-1]
		if abs(t.Y-last[len(last)-1].Y) <= yTol {
			groups[len(groups)-1] = append(last, t)
		} else {
			groups = append(groups, []ocr.Token{t})
		}
	}

	lines := make([]Line, 0, len(groups))
	for _, grp := range groups {
		sort.SliceStable(grp, func(i, j int) bool { return grp[i].X < grp[j].X })
		var sum float64
		for _, t := range grp {
			sum += t.Y
		}
		lines = append(lines, Line{Y: sum / float64(len(grp)), Tokens: grp})
	}
	return lines
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
