package pdfparser

import (
	"math"
	"sort"
	"strings"

	"dbkr/kontoauszug-reader/internal/textutils"
)

// fragment is one piece of shown text in page coordinates.
type fragment struct {
	X, Y     float64 // origin of the first glyph
	Advance  float64 // estimated length along the baseline
	Size     float64 // effective font size
	Vertical bool    // baseline runs along the Y axis
	Text     string
}

// Minimum gap, as a fraction of the font size, that separates two words.
const wordGapRatio = 0.15

// assembleLines orders a page's fragments into text lines. Horizontal text
// comes first, top to bottom; vertical runs such as the margin small print
// follow, left to right.
func assembleLines(fragments []fragment) []string {
	var horizontal, vertical []fragment
	for _, f := range fragments {
		if strings.TrimSpace(f.Text) == "" {
			continue
		}
		if f.Vertical {
			vertical = append(vertical, f)
		} else {
			horizontal = append(horizontal, f)
		}
	}

	lines := joinRows(horizontal, false)
	return append(lines, joinRows(vertical, true)...)
}

// joinRows groups fragments sharing a baseline and joins each group. For
// horizontal text the baseline is Y (descending) and fragments run along X;
// vertical text swaps the axes.
func joinRows(fragments []fragment, vertical bool) []string {
	if len(fragments) == 0 {
		return nil
	}

	base := func(f fragment) float64 { return f.Y }
	along := func(f fragment) float64 { return f.X }
	if vertical {
		base = func(f fragment) float64 { return -f.X }
		along = func(f fragment) float64 { return f.Y }
	}

	sort.SliceStable(fragments, func(i, j int) bool {
		return base(fragments[i]) > base(fragments[j])
	})

	var lines []string
	row := []fragment{fragments[0]}
	rowBase := base(fragments[0])
	for _, f := range fragments[1:] {
		tolerance := math.Max(f.Size, row[0].Size) * 0.5
		if tolerance < 1 {
			tolerance = 1
		}
		if math.Abs(base(f)-rowBase) <= tolerance {
			row = append(row, f)
			continue
		}
		lines = appendLine(lines, joinRow(row, along))
		row = []fragment{f}
		rowBase = base(f)
	}
	return appendLine(lines, joinRow(row, along))
}

func joinRow(row []fragment, along func(fragment) float64) string {
	sort.SliceStable(row, func(i, j int) bool {
		return along(row[i]) < along(row[j])
	})

	var b strings.Builder
	prevEnd := math.Inf(-1)
	for _, f := range row {
		start := along(f)
		if b.Len() > 0 && start-prevEnd > f.Size*wordGapRatio {
			b.WriteByte(' ')
		}
		b.WriteString(f.Text)
		prevEnd = math.Max(prevEnd, start+f.Advance)
	}
	return textutils.NormalizeSpaces(b.String())
}

func appendLine(lines []string, line string) []string {
	if line == "" {
		return lines
	}
	return append(lines, line)
}

