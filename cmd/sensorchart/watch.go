// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/config"
	"github.com/elastic/sensorchart/internal/source"
	"github.com/elastic/sensorchart/internal/surface"
	"github.com/elastic/sensorchart/internal/telemetry"
	"github.com/elastic/sensorchart/internal/watch"
)

var (
	watchOutput   string
	watchFollow   bool
	watchWindow   int
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-render the chart whenever a readings file changes",
	Long: `Watches a readings file and rewrites the chart after every change.

By default the whole file is re-read after each write. With --follow the file
is tailed as NDJSON instead, and only the last --window readings are charted;
rotated files are picked up again.

Examples:
  sensorchart watch --url readings.json -o chart.svg
  sensorchart watch --url readings.ndjson --follow --window 1000 -o chart.png`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd.Context())
		if err != nil {
			return err
		}
		if watchOutput == "" {
			return fmt.Errorf("--output is required")
		}

		ctx, stop := osSignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return runWatch(ctx, cfg, watchOutput, telemetry.FromContext(ctx))
	},
}

func runWatch(ctx context.Context, cfg config.Config, output string, log logrus.FieldLogger) error {
	opts, err := surfaceOptions(cfg)
	if err != nil {
		return err
	}
	if f, ok := formatFromOutput(output); ok {
		opts.Format = f
	}

	f, err := openSource(cfg)
	if err != nil {
		return err
	}
	file, ok := f.(*source.File)
	if !ok {
		return fmt.Errorf("watch needs a file source, got %q", cfg.Source.URL)
	}
	r, err := chart.NewRenderer(chartConfig(cfg))
	if err != nil {
		return err
	}

	log = log.WithFields(logrus.Fields{"source": file.Path(), "output": output})
	notify := watch.NotifyOptions{
		Debounce: cfg.Watch.Debounce,
		OnResult: writeResult(output, opts, log),
		Logger:   log,
	}

	if cfg.Watch.Follow {
		follower, err := watch.NewFollower(file.Path(), cfg.Watch.Window, log)
		if err != nil {
			return err
		}
		log.WithField("window", cfg.Watch.Window).Info("following readings")
		return follower.Render(ctx, chart.NewChart(r, follower, cfg.Source.Timeout), notify)
	}

	n, err := watch.NewNotifier(file.Path(), chart.NewChart(r, file, cfg.Source.Timeout), notify)
	if err != nil {
		return err
	}
	log.Info("watching readings")
	return n.Run(ctx)
}

// writeResult returns a callback writing each successful render to output.
// Failed renders leave the previous image in place.
func writeResult(output string, opts surface.Options, log logrus.FieldLogger) func(chart.Result) {
	return func(res chart.Result) {
		entry := log.WithField("generation", res.Generation)
		if res.Err != nil {
			entry.WithError(res.Err).Warn("render failed")
			return
		}
		err := writeAtomic(output, func(w io.Writer) error {
			return surface.Draw(w, res.Output, opts)
		})
		if err != nil {
			entry.WithError(err).Error("failed to write chart")
			return
		}
		entry.WithFields(logrus.Fields{
			"samples":  res.Output.SampleCount,
			"gaps":     res.Output.GapCount,
			"duration": res.Duration.Round(time.Millisecond),
		}).Info("chart updated")
	}
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "", "Chart file to keep up to date (required)")
	watchCmd.Flags().BoolVar(&watchFollow, "follow", false, "Tail the file as NDJSON instead of re-reading it (env: SENSORCHART_WATCH_FOLLOW)")
	watchCmd.Flags().IntVar(&watchWindow, "window", config.DefaultWindow, "Readings kept while following (env: SENSORCHART_WATCH_WINDOW)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", config.DefaultDebounce, "Quiet period before re-rendering (env: SENSORCHART_WATCH_DEBOUNCE)")

	rootCmd.AddCommand(watchCmd)
}
