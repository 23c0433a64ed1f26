// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"math"
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/elastic/sensorchart/internal/chart"
)

// Braille cells hold a 2x4 dot matrix.
const (
	dotsPerCol  = 2
	dotsPerRow  = 4
	brailleBase = 0x2800
)

// brailleBits[y][x] is the bit of the dot at column x, row y of a cell.
var brailleBits = [dotsPerRow][dotsPerCol]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// canvas is a grid of braille cells addressed in dot coordinates.
type canvas struct {
	cols, rows int
	cells      []rune
}

func newCanvas(cols, rows int) *canvas {
	return &canvas{cols: cols, rows: rows, cells: make([]rune, cols*rows)}
}

func (c *canvas) width() int  { return c.cols * dotsPerCol }
func (c *canvas) height() int { return c.rows * dotsPerRow }

func (c *canvas) set(x, y int) {
	if x < 0 || y < 0 || x >= c.width() || y >= c.height() {
		return
	}
	c.cells[(y/dotsPerRow)*c.cols+x/dotsPerCol] |= brailleBits[y%dotsPerRow][x%dotsPerCol]
}

// line draws with Bresenham's algorithm.
func (c *canvas) line(x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		c.set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func (c *canvas) row(r int) string {
	var b strings.Builder
	for _, cell := range c.cells[r*c.cols : (r+1)*c.cols] {
		if cell == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(brailleBase + cell)
	}
	return b.String()
}

// Rasterize draws out into a block of cols x rows terminal cells: value
// labels on the left, the line in braille dots, the time axis underneath.
// Returned lines carry no styling.
func Rasterize(out *chart.RenderOutput, cols, rows int) []string {
	if out == nil || cols < 1 || rows < 1 {
		return nil
	}

	labelWidth := 0
	for _, tk := range out.YTicks {
		if w := ansi.StringWidth(tk.Label); w > labelWidth {
			labelWidth = w
		}
	}
	plotCols := cols - labelWidth - 1
	plotRows := rows - 2
	if plotCols < 2 || plotRows < 1 {
		return []string{ansi.Truncate("terminal too small", cols, "")}
	}

	g := out.Geometry
	pw, ph := float64(g.PlotWidth()), float64(g.PlotHeight())
	cv := newCanvas(plotCols, plotRows)
	toDot := func(p chart.PixelPoint) (int, int) {
		x := (p.X - float64(g.Margins.Left)) / pw * float64(cv.width()-1)
		y := p.Y / ph * float64(cv.height()-1)
		return int(math.Round(x)), int(math.Round(y))
	}

	for _, seg := range out.Segments {
		if len(seg) == 0 {
			continue
		}
		x0, y0 := toDot(seg[0])
		cv.set(x0, y0)
		for _, p := range seg[1:] {
			x1, y1 := toDot(p)
			cv.line(x0, y0, x1, y1)
			x0, y0 = x1, y1
		}
	}

	yLabels := make(map[int]string)
	for _, tk := range out.YTicks {
		if tk.Position < 0 || tk.Position > ph {
			continue
		}
		r := int(math.Round(tk.Position / ph * float64(plotRows-1)))
		yLabels[r] = tk.Label
	}

	lines := make([]string, 0, rows)
	for r := 0; r < plotRows; r++ {
		axis := "│"
		label, ok := yLabels[r]
		if ok {
			axis = "┤"
		}
		lines = append(lines, padLeft(label, labelWidth)+axis+cv.row(r))
	}

	axis := []rune(strings.Repeat("─", plotCols))
	labels := []rune(strings.Repeat(" ", plotCols))
	for _, tk := range out.XTicks {
		rel := tk.Position - float64(g.Margins.Left)
		if rel < 0 || rel > pw {
			continue
		}
		c := int(math.Round(rel / pw * float64(plotCols-1)))
		axis[c] = '┬'
		placeLabel(labels, c, tk.Label)
	}
	lines = append(lines,
		strings.Repeat(" ", labelWidth)+"└"+string(axis),
		strings.Repeat(" ", labelWidth+1)+strings.TrimRight(string(labels), " "),
	)
	return lines
}

// placeLabel centers label on column c unless it would overlap an earlier label.
func placeLabel(row []rune, c int, label string) {
	lr := []rune(label)
	start := c - len(lr)/2
	if start < 0 {
		start = 0
	}
	if start+len(lr) > len(row) {
		start = len(row) - len(lr)
	}
	if start < 0 {
		return
	}
	lo, hi := start-1, start+len(lr)
	if lo < 0 {
		lo = 0
	}
	if hi >= len(row) {
		hi = len(row) - 1
	}
	for i := lo; i <= hi; i++ {
		if row[i] != ' ' {
			return
		}
	}
	copy(row[start:], lr)
}

func padLeft(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return strings.Repeat(" ", width-w) + s
	}
	return s
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
