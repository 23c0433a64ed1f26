// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package surface draws a chart.RenderOutput onto an SVG or PNG canvas.
package surface

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/elastic/sensorchart/internal/chart"
)

// Format is an output image format.
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatSVG:
		return FormatSVG, nil
	case FormatPNG:
		return FormatPNG, nil
	default:
		return "", fmt.Errorf("invalid chart format %q (must be svg or png)", s)
	}
}

// ContentType returns the MIME type of images in format f.
func (f Format) ContentType() string {
	if f == FormatPNG {
		return "image/png"
	}
	return "image/svg+xml"
}

const (
	tickLength = 6
	labelGap   = 3
	fontSize   = 10
)

// Options controls how a chart is drawn.
type Options struct {
	Format      Format
	Title       string
	LineColor   string  // hex, without '#'
	StrokeWidth float64 // line width in pixels
	DotRadius   float64 // radius of isolated readings
}

// DefaultOptions returns a steel-blue 1.5px line on a white canvas.
func DefaultOptions() Options {
	return Options{
		Format:      FormatSVG,
		LineColor:   "4682b4",
		StrokeWidth: 1.5,
		DotRadius:   2,
	}
}

var (
	backgroundColor = drawing.ColorWhite
	axisColor       = drawing.ColorFromHex("333333")
)

// Draw renders out to w. Axes are drawn along the bottom and left edges of
// the plot area; ticks that fall outside the plot area are skipped.
func Draw(w io.Writer, out *chart.RenderOutput, opts Options) error {
	if out == nil {
		return fmt.Errorf("nothing to draw")
	}
	if opts.LineColor == "" {
		opts.LineColor = DefaultOptions().LineColor
	}
	if opts.StrokeWidth <= 0 {
		opts.StrokeWidth = DefaultOptions().StrokeWidth
	}
	if opts.DotRadius <= 0 {
		opts.DotRadius = DefaultOptions().DotRadius
	}

	provider := gochart.SVG
	if opts.Format == FormatPNG {
		provider = gochart.PNG
	}

	g := out.Geometry
	r, err := provider(g.Width, g.Height)
	if err != nil {
		return fmt.Errorf("failed to create %s canvas: %w", opts.Format, err)
	}
	font, err := gochart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetFont(font)

	fillRect(r, 0, 0, g.Width, g.Height, backgroundColor)
	drawAxes(r, out)
	drawSeries(r, out, opts)
	if opts.Title != "" {
		drawTitle(r, g, opts.Title)
	}

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.Format, err)
	}
	return nil
}

func fillRect(r gochart.Renderer, x0, y0, x1, y1 int, c drawing.Color) {
	r.ResetStyle()
	r.SetFillColor(c)
	r.SetStrokeColor(drawing.ColorTransparent)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
	r.Fill()
}

func drawAxes(r gochart.Renderer, out *chart.RenderOutput) {
	g := out.Geometry
	left, top := g.Margins.Left, g.Margins.Top
	right, bottom := left+g.PlotWidth(), top+g.PlotHeight()

	r.ResetStyle()
	r.SetStrokeColor(axisColor)
	r.SetStrokeWidth(1)
	r.MoveTo(left, bottom)
	r.LineTo(right, bottom)
	r.Stroke()
	r.MoveTo(left, top)
	r.LineTo(left, bottom)
	r.Stroke()

	r.SetFontColor(axisColor)
	r.SetFontSize(fontSize)

	for _, tk := range out.XTicks {
		x := px(tk.Position)
		if x < left || x > right {
			continue
		}
		r.MoveTo(x, bottom)
		r.LineTo(x, bottom+tickLength)
		r.Stroke()

		box := r.MeasureText(tk.Label)
		r.Text(tk.Label, x-box.Width()/2, bottom+tickLength+labelGap+box.Height())
	}

	for _, tk := range out.YTicks {
		y := top + px(tk.Position)
		if y < top || y > bottom {
			continue
		}
		r.MoveTo(left-tickLength, y)
		r.LineTo(left, y)
		r.Stroke()

		box := r.MeasureText(tk.Label)
		r.Text(tk.Label, left-tickLength-labelGap-box.Width(), y+box.Height()/2)
	}
}

func drawSeries(r gochart.Renderer, out *chart.RenderOutput, opts Options) {
	top := out.Geometry.Margins.Top
	color := drawing.ColorFromHex(opts.LineColor)

	r.ResetStyle()
	r.SetStrokeColor(color)
	r.SetStrokeWidth(opts.StrokeWidth)

	for _, seg := range out.Segments {
		if len(seg) == 1 {
			r.SetFillColor(color)
			r.Circle(opts.DotRadius, px(seg[0].X), top+px(seg[0].Y))
			r.FillStroke()
			continue
		}
		r.MoveTo(px(seg[0].X), top+px(seg[0].Y))
		for _, p := range seg[1:] {
			r.LineTo(px(p.X), top+px(p.Y))
		}
		r.Stroke()
	}
}

func drawTitle(r gochart.Renderer, g chart.Geometry, title string) {
	r.ResetStyle()
	r.SetFontColor(axisColor)
	r.SetFontSize(fontSize + 2)
	box := r.MeasureText(title)
	y := g.Margins.Top/2 + box.Height()/2
	if y < box.Height() {
		y = box.Height()
	}
	r.Text(title, g.Width/2-box.Width()/2, y)
}

// PathData returns the SVG path "d" attribute of the line in canvas
// coordinates: one subpath per segment, a closed zero-length subpath for an
// isolated reading.
func PathData(out *chart.RenderOutput) string {
	if out == nil {
		return ""
	}
	top := float64(out.Geometry.Margins.Top)

	var b strings.Builder
	for _, seg := range out.Segments {
		for i, p := range seg {
			if i == 0 {
				b.WriteByte('M')
			} else {
				b.WriteByte('L')
			}
			b.WriteString(coord(p.X))
			b.WriteByte(',')
			b.WriteString(coord(p.Y + top))
		}
		if len(seg) == 1 {
			b.WriteByte('Z')
		}
	}
	return b.String()
}

func px(v float64) int {
	return int(math.Round(v))
}

func coord(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
