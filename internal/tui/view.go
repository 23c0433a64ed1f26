// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	width := m.width - AppStyle.GetHorizontalPadding()
	header := m.renderHeader(width)
	status := m.renderStatusBar(width)
	help := ansi.Truncate(m.renderHelpBar(), width, "…")

	used := lipgloss.Height(header) + lipgloss.Height(status) + lipgloss.Height(help)
	body := m.renderChart(width, m.height-used)
	if m.showHelp {
		overlay := HelpOverlayStyle.Render(m.helpPanel.View())
		body = lipgloss.Place(width, lipgloss.Height(body), lipgloss.Center, lipgloss.Center, overlay)
	}

	return AppStyle.Render(lipgloss.JoinVertical(lipgloss.Left, header, body, status, help))
}

func (m Model) renderHeader(width int) string {
	title := m.opts.Title
	if title == "" {
		title = "Sensor readings"
	}
	line := TitleStyle.Render(title)
	if m.opts.Source != "" {
		line += "  " + MutedStyle.Render(m.opts.Source)
	}
	return ansi.Truncate(line, width, "…")
}

func (m Model) renderChart(width, height int) string {
	if height < 1 {
		return ""
	}
	if m.output == nil {
		msg := "Waiting for readings…"
		if m.err != nil {
			msg = "No chart: " + m.err.Error()
		}
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, MutedStyle.Render(msg))
	}

	lines := Rasterize(m.output, width, height)
	plotRows := len(lines) - 2
	for i, l := range lines {
		lines[i] = styleChartLine(l, i < plotRows)
	}
	return strings.Join(lines, "\n")
}

// styleChartLine colors braille dots with the line color and the rest with
// the axis color.
func styleChartLine(line string, plot bool) string {
	if !plot {
		return AxisStyle.Render(line)
	}
	var b, run strings.Builder
	inDots := false
	flush := func() {
		if run.Len() == 0 {
			return
		}
		if inDots {
			b.WriteString(LineStyle.Render(run.String()))
		} else {
			b.WriteString(AxisStyle.Render(run.String()))
		}
		run.Reset()
	}
	for _, r := range line {
		dot := r >= brailleBase && r <= brailleBase+0xFF
		if dot != inDots {
			flush()
			inDots = dot
		}
		run.WriteRune(r)
	}
	flush()
	return b.String()
}

func (m Model) renderStatusBar(width int) string {
	var parts []string
	switch {
	case m.pending != 0:
		parts = append(parts, m.spinner.View()+" rendering")
	case m.err != nil:
		parts = append(parts, ErrorStyle.Render("error: "+m.err.Error()))
	case m.output != nil:
		parts = append(parts, StatusOKStyle.Render("ok"))
	}

	if m.output != nil {
		parts = append(parts, fmt.Sprintf("%d readings", m.output.SampleCount))
		if m.output.GapCount > 0 {
			parts = append(parts, fmt.Sprintf("%d missing", m.output.GapCount))
		}
	}
	if m.latest.Generation != 0 {
		parts = append(parts, fmt.Sprintf("rendered %s in %s",
			m.latest.RenderedAt.Format("15:04:05"),
			m.latest.Duration.Round(time.Millisecond)))
	}
	if m.status != "" && time.Since(m.statusAt) < statusTTL {
		parts = append(parts, m.status)
	}

	line := strings.Join(parts, " │ ")
	return StatusBarStyle.Width(width).Render(ansi.Truncate(line, width-StatusBarStyle.GetHorizontalPadding(), "…"))
}

func padRight(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
