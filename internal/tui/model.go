// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package tui previews a sensor chart in the terminal.
package tui

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"golang.design/x/clipboard"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/surface"
)

// statusTTL is how long a status message stays visible.
const statusTTL = 3 * time.Second

// Options configures the preview.
type Options struct {
	Title    string
	Source   string        // Shown under the title
	Interval time.Duration // Auto refresh period, 0 refreshes on demand only
	Surface  surface.Options
	Copy     func(text string) error // nil uses the system clipboard
}

// Model is the preview state. Renders run under the chart's generation
// token: a result that arrives after a newer refresh started is dropped.
type Model struct {
	ctx   context.Context
	chart *chart.Chart
	opts  Options

	width, height int

	pending   uint64              // Generation in flight, 0 when idle
	output    *chart.RenderOutput // Last successful render
	latest    chart.Result        // Last current result, successful or not
	err       error
	showHelp  bool
	quitting  bool
	status    string
	statusAt  time.Time
	spinner   spinner.Model
	helpPanel viewport.Model
	start     tea.Cmd
}

type renderDoneMsg struct {
	Result  chart.Result
	Current bool
}

type tickMsg time.Time

// New returns a Model rendering c.
func New(ctx context.Context, c *chart.Chart, opts Options) Model {
	if opts.Copy == nil {
		opts.Copy = copyToClipboard
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = TitleStyle

	hp := viewport.New(60, 12)
	hp.SetContent(helpContent())

	m := Model{
		ctx:       ctx,
		chart:     c,
		opts:      opts,
		width:     80,
		height:    24,
		spinner:   sp,
		helpPanel: hp,
	}
	// Init has a value receiver, so the first generation is claimed here.
	m.start = m.refresh()
	return m
}

// Init runs the first render.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, m.start}
	if m.opts.Interval > 0 {
		cmds = append(cmds, m.tickCmd())
	}
	return tea.Batch(cmds...)
}

// refresh starts a new generation. The chart cancels the previous one, and
// its result will no longer match m.pending.
func (m *Model) refresh() tea.Cmd {
	ctx, gen := m.chart.Begin(m.ctx)
	m.pending = gen
	c := m.chart
	return func() tea.Msg {
		res, ok := c.Run(ctx, gen)
		return renderDoneMsg{Result: res, Current: ok}
	}
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.helpPanel.Width = max(10, min(60, msg.Width-6))
		m.helpPanel.Height = max(3, min(12, msg.Height-6))
		return m, nil

	case renderDoneMsg:
		return m.handleRenderDone(msg), nil

	case tickMsg:
		var cmd tea.Cmd
		if m.pending == 0 {
			cmd = m.refresh()
		}
		return m, tea.Batch(cmd, m.tickCmd())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleRenderDone(msg renderDoneMsg) Model {
	if !msg.Current || msg.Result.Generation != m.pending {
		return m
	}
	m.pending = 0
	m.latest = msg.Result
	if msg.Result.Err != nil {
		if errors.Is(msg.Result.Err, context.Canceled) {
			return m
		}
		m.err = msg.Result.Err
		return m
	}
	m.err = nil
	m.output = msg.Result.Output
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
			return m, nil
		case "q", "ctrl+c":
		default:
			var cmd tea.Cmd
			m.helpPanel, cmd = m.helpPanel.Update(msg)
			return m, cmd
		}
	}

	switch actionFor(msg.String()) {
	case ActionRefresh:
		return m, m.refresh()
	case ActionCopySVG:
		m.copySVG()
		return m, nil
	case ActionHelp:
		m.showHelp = true
		m.helpPanel.GotoTop()
		return m, nil
	case ActionQuit:
		m.quitting = true
		m.chart.Abandon()
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) copySVG() {
	if m.output == nil {
		m.setStatus("Nothing to copy yet")
		return
	}
	opts := m.opts.Surface
	opts.Format = surface.FormatSVG
	if opts.Title == "" {
		opts.Title = m.opts.Title
	}
	var buf bytes.Buffer
	if err := surface.Draw(&buf, m.output, opts); err != nil {
		m.setStatus("Draw error: " + err.Error())
		return
	}
	if err := m.opts.Copy(buf.String()); err != nil {
		m.setStatus("Clipboard error: " + err.Error())
		return
	}
	m.setStatus("SVG copied to clipboard!")
}

func (m *Model) setStatus(s string) {
	m.status = s
	m.statusAt = time.Now()
}

func copyToClipboard(text string) error {
	if err := clipboard.Init(); err != nil {
		return err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}
