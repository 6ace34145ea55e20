// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// wordGap is the horizontal gap, as a fraction of the font size, above
// which two glyphs on one line are treated as separate words. TeX encodes
// inter-word space as kerning, not as a space glyph.
const wordGap = 0.2

type textRow struct {
	y      float64
	size   float64
	glyphs []pdf.Text
}

// layoutText rebuilds reading-order text from positioned glyphs: glyphs are
// grouped into rows by baseline, rows run top to bottom, and glyphs within
// a row run left to right. Rows are joined with newlines.
func layoutText(glyphs []pdf.Text) string {
	var rows []*textRow
	for _, g := range glyphs {
		if g.S == "\n" || g.S == "\r" || g.S == "" {
			continue
		}
		row := findRow(rows, g)
		if row == nil {
			row = &textRow{y: g.Y, size: g.FontSize}
			rows = append(rows, row)
		}
		row.glyphs = append(row.glyphs, g)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := strings.TrimSpace(row.text()); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// findRow returns the row whose baseline is within half a line of g.
func findRow(rows []*textRow, g pdf.Text) *textRow {
	for _, row := range rows {
		tol := 1.0
		if size := math.Min(row.size, g.FontSize); size > 2 {
			tol = size / 2
		}
		if math.Abs(row.y-g.Y) < tol {
			return row
		}
	}
	return nil
}

func (r *textRow) text() string {
	sort.SliceStable(r.glyphs, func(i, j int) bool { return r.glyphs[i].X < r.glyphs[j].X })

	var b strings.Builder
	for i, g := range r.glyphs {
		if i > 0 {
			prev := r.glyphs[i-1]
			gap := g.X - (prev.X + prev.W)
			if gap > wordGap*g.FontSize && prev.S != " " && g.S != " " {
				b.WriteByte(' ')
			}
		}
		b.WriteString(g.S)
	}
	return b.String()
}
