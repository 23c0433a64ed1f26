// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elastic/sensorchart/internal/config"
	"github.com/elastic/sensorchart/internal/telemetry"
)

// Global flags shared across commands.
// Values are bound via Viper; variables keep Cobra compatibility.
var (
	profileFlag  string
	sourceURL    string
	sourceKind   string
	timeoutFlag  time.Duration
	sinceFlag    time.Duration
	apiKeyFlag   string
	usernameFlag string
	passwordFlag string

	esIndex      string
	esTimeField  string
	esValueField string
	esSize       int

	chartWidth, chartHeight int
	marginTop, marginRight  int
	marginBottom            int
	marginLeft              int
	ticksX, ticksY          int
	missingValue            float64
	formatFlag              string
	titleFlag               string

	logLevel     string
	otlpEndpoint string
	otlpInsecure bool
)

// shutdownTelemetry flushes exported logs. It is replaced once an OTLP
// endpoint is configured.
var shutdownTelemetry = func(context.Context) error { return nil }

var rootCmd = &cobra.Command{
	Use:   "sensorchart",
	Short: "Render sensor readings as a line chart",
	Long: `sensorchart turns a time series of sensor readings into a line chart.

Readings come from a JSON HTTP endpoint, a local .json/.ndjson/.parquet file,
or an Elasticsearch index (es+http://...). Readings equal to the missing value
(-100 by default) break the line, so outages show up as gaps.

Render once with 'sensorchart render', serve charts over HTTP with
'sensorchart serve', or preview in the terminal with 'sensorchart ui'.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd)
		if err != nil {
			return err
		}

		logger, err := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log.Level)
		if err != nil {
			return err
		}
		if cfg.OTLP.Endpoint != "" {
			provider, err := telemetry.NewLoggerProvider(cmd.Context(), telemetry.OTLPConfig{
				Endpoint: cfg.OTLP.Endpoint,
				Insecure: cfg.OTLP.Insecure,
				Version:  version,
			})
			if err != nil {
				return fmt.Errorf("otlp: %w", err)
			}
			logger.AddHook(telemetry.NewHook(provider))
			shutdownTelemetry = provider.Shutdown
		}

		ctx := config.WithContext(cmd.Context(), cfg)
		ctx = telemetry.WithLogger(ctx, logger.WithField("profile", cfg.Profile))
		cmd.SetContext(ctx)
		return nil
	},
}

func init() {
	// Global flags (Viper precedence: flags > env > profile > defaults)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&profileFlag, "profile", "", "Configuration profile to use (env: SENSORCHART_PROFILE)")
	pf.StringVarP(&sourceURL, "url", "u", config.DefaultSourceURL, "Readings source: http(s) URL, es+http(s) URL or file path (env: SENSORCHART_SOURCE_URL)")
	pf.StringVar(&sourceKind, "kind", config.DefaultSourceKind, "Source kind: auto, http, file or elasticsearch (env: SENSORCHART_SOURCE_KIND)")
	pf.DurationVar(&timeoutFlag, "timeout", config.DefaultTimeout, "Fetch timeout (env: SENSORCHART_SOURCE_TIMEOUT)")
	pf.DurationVar(&sinceFlag, "since", 0, "Only chart readings newer than this lookback, e.g. 24h (env: SENSORCHART_SOURCE_SINCE)")
	pf.StringVar(&apiKeyFlag, "api-key", "", "API key for the source (env: SENSORCHART_SOURCE_API_KEY)")
	pf.StringVar(&usernameFlag, "username", "", "Username for basic auth (env: SENSORCHART_SOURCE_USERNAME)")
	pf.StringVar(&passwordFlag, "password", "", "Password for basic auth (env: SENSORCHART_SOURCE_PASSWORD)")

	pf.StringVarP(&esIndex, "index", "i", config.DefaultIndex, "Elasticsearch index pattern (env: SENSORCHART_ES_INDEX)")
	pf.StringVar(&esTimeField, "time-field", config.DefaultTimeField, "Elasticsearch timestamp field (env: SENSORCHART_ES_TIME_FIELD)")
	pf.StringVar(&esValueField, "value-field", config.DefaultValueField, "Elasticsearch reading field (env: SENSORCHART_ES_VALUE_FIELD)")
	pf.IntVar(&esSize, "size", config.DefaultSize, "Maximum readings fetched from Elasticsearch (env: SENSORCHART_ES_SIZE)")

	pf.IntVar(&chartWidth, "width", config.DefaultWidth, "Canvas width in pixels (env: SENSORCHART_CHART_WIDTH)")
	pf.IntVar(&chartHeight, "height", config.DefaultHeight, "Canvas height in pixels (env: SENSORCHART_CHART_HEIGHT)")
	pf.IntVar(&marginTop, "margin-top", config.DefaultMarginTop, "Top margin in pixels")
	pf.IntVar(&marginRight, "margin-right", config.DefaultMarginRight, "Right margin in pixels")
	pf.IntVar(&marginBottom, "margin-bottom", config.DefaultMarginBottom, "Bottom margin in pixels")
	pf.IntVar(&marginLeft, "margin-left", config.DefaultMarginLeft, "Left margin in pixels")
	pf.IntVar(&ticksX, "ticks-x", config.DefaultTicks, "Approximate number of time axis ticks")
	pf.IntVar(&ticksY, "ticks-y", config.DefaultTicks, "Approximate number of value axis ticks")
	pf.Float64Var(&missingValue, "missing-value", config.DefaultMissingValue, "Reading that marks a missing value (env: SENSORCHART_CHART_MISSING_VALUE)")
	pf.StringVarP(&formatFlag, "format", "f", config.DefaultFormat, "Image format: svg or png (env: SENSORCHART_CHART_FORMAT)")
	pf.StringVar(&titleFlag, "title", "", "Chart title (env: SENSORCHART_CHART_TITLE)")

	pf.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "Log level: trace, debug, info, warn, error (env: SENSORCHART_LOG_LEVEL)")
	pf.StringVar(&otlpEndpoint, "otlp", "", "Export logs to this OTLP/HTTP endpoint, host:port (env: SENSORCHART_OTLP_ENDPOINT)")
	pf.BoolVar(&otlpInsecure, "otlp-insecure", true, "Use plain HTTP for OTLP export (env: SENSORCHART_OTLP_INSECURE)")
}
