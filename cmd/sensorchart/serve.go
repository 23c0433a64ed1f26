// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/config"
	"github.com/elastic/sensorchart/internal/server"
	"github.com/elastic/sensorchart/internal/source"
	"github.com/elastic/sensorchart/internal/telemetry"
)

var (
	serveAddr        string
	serveReadTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve charts over HTTP",
	Long: `Starts an HTTP server that fetches readings and renders a fresh chart on
every request.

Endpoints:
  /            HTML page embedding the chart
  /chart.svg   SVG image
  /chart.png   PNG image
  /chart.json  computed chart as JSON
  /healthz     liveness check
  /metrics     Prometheus metrics

Every chart endpoint accepts ?since=24h or ?since=<RFC3339> to override the
configured lookback.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := configFrom(cmd.Context())
		if err != nil {
			return err
		}

		ctx, stop := osSignal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := newServer(cfg, telemetry.FromContext(ctx))
		if err != nil {
			return err
		}
		return srv.ListenAndServe(ctx)
	},
}

// newServer builds a server whose requests each open the configured source.
// Requests without ?since use the configured lookback.
func newServer(cfg config.Config, log logrus.FieldLogger) (*server.Server, error) {
	r, err := chart.NewRenderer(chartConfig(cfg))
	if err != nil {
		return nil, err
	}
	opts, err := surfaceOptions(cfg)
	if err != nil {
		return nil, err
	}
	return server.New(server.Options{
		Addr:        cfg.Serve.Addr,
		ReadTimeout: cfg.Serve.ReadTimeout,
		Open: func(since time.Time) (chart.Fetcher, error) {
			if since.IsZero() {
				since = cfg.SinceTime(time.Now())
			}
			so, err := sourceOptions(cfg, since)
			if err != nil {
				return nil, err
			}
			return source.Open(so)
		},
		Renderer: r,
		Surface:  opts,
		Timeout:  cfg.Source.Timeout,
		Logger:   log,
	})
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", config.DefaultServeAddr, "Listen address (env: SENSORCHART_SERVE_ADDR)")
	serveCmd.Flags().DurationVar(&serveReadTimeout, "read-timeout", config.DefaultReadTimeout, "HTTP read timeout (env: SENSORCHART_SERVE_READ_TIMEOUT)")

	rootCmd.AddCommand(serveCmd)
}
