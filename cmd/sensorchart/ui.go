// Copyright 2026 Elasticsearch B.V. and contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/elastic/sensorchart/internal/config"
	"github.com/elastic/sensorchart/internal/tui"
)

var uiInterval time.Duration

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Preview the chart in the terminal",
	Long: `Opens a terminal preview of the chart drawn with braille dots.

Press r to refresh, y to copy the chart as SVG, ? for help and q to quit.
With --interval the chart refreshes on its own.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	uiCmd.Flags().DurationVar(&uiInterval, "interval", 0, "Refresh automatically at this interval, e.g. 30s")
	rootCmd.AddCommand(uiCmd)
}

func runTUI(parentCtx context.Context) error {
	cfg, ok := config.FromContext(parentCtx)
	if !ok {
		return fmt.Errorf("configuration not loaded")
	}
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("ui needs a terminal; use 'sensorchart render' instead")
	}
	if uiInterval < 0 {
		return fmt.Errorf("--interval must be >= 0")
	}

	notifyCtx, stop := osSignal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := newChart(cfg)
	if err != nil {
		return err
	}
	opts, err := surfaceOptions(cfg)
	if err != nil {
		return err
	}

	model := tui.New(notifyCtx, c, tui.Options{
		Title:    cfg.Chart.Title,
		Source:   cfg.Source.URL,
		Interval: uiInterval,
		Surface:  opts,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(notifyCtx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}
