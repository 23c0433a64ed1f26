// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package config provides centralized configuration management for sensorchart.
// It supports deterministic precedence (flags > env > profile > defaults) using
// Viper, and fail-fast validation to prevent silent misconfiguration.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "SENSORCHART"

// Config holds all application configuration.
type Config struct {
	Profile string       `mapstructure:"profile"`
	Source  SourceConfig `mapstructure:"source"`
	ES      ESConfig     `mapstructure:"es"`
	Chart   ChartConfig  `mapstructure:"chart"`
	Serve   ServeConfig  `mapstructure:"serve"`
	Watch   WatchConfig  `mapstructure:"watch"`
	Log     LogConfig    `mapstructure:"log"`
	OTLP    OTLPConfig   `mapstructure:"otlp"`
}

// SourceConfig selects where readings come from.
type SourceConfig struct {
	URL      string        `mapstructure:"url"`      // endpoint URL, es+http(s) URL or file path
	Kind     string        `mapstructure:"kind"`     // auto, http, file, elasticsearch
	Timeout  time.Duration `mapstructure:"timeout"`  // Fetch timeout
	Since    time.Duration `mapstructure:"since"`    // Lookback window, 0 = everything
	APIKey   string        `mapstructure:"api_key"`  // API key for authentication
	Username string        `mapstructure:"username"` // Username for basic auth
	Password string        `mapstructure:"password"` // Password for basic auth
}

// ESConfig holds Elasticsearch search settings.
type ESConfig struct {
	Index      string `mapstructure:"index"`       // Index pattern
	TimeField  string `mapstructure:"time_field"`  // Date field of a reading
	ValueField string `mapstructure:"value_field"` // Numeric field of a reading
	Size       int    `mapstructure:"size"`        // Maximum number of readings
}

// ChartConfig holds canvas and axis settings.
type ChartConfig struct {
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	MarginTop    int     `mapstructure:"margin_top"`
	MarginRight  int     `mapstructure:"margin_right"`
	MarginBottom int     `mapstructure:"margin_bottom"`
	MarginLeft   int     `mapstructure:"margin_left"`
	TicksX       int     `mapstructure:"ticks_x"`
	TicksY       int     `mapstructure:"ticks_y"`
	MissingValue float64 `mapstructure:"missing_value"` // Reading that marks a gap
	Format       string  `mapstructure:"format"`        // svg or png
	Title        string  `mapstructure:"title"`
}

// ServeConfig holds HTTP server settings.
type ServeConfig struct {
	Addr        string        `mapstructure:"addr"`
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
}

// WatchConfig holds file watching settings.
type WatchConfig struct {
	Follow   bool          `mapstructure:"follow"`   // Tail an NDJSON file instead of re-reading it
	Window   int           `mapstructure:"window"`   // Readings kept while following
	Debounce time.Duration `mapstructure:"debounce"` // Quiet period before re-rendering
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// OTLPConfig holds OpenTelemetry Protocol settings.
type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"` // OTLP HTTP endpoint, empty disables export
	Insecure bool   `mapstructure:"insecure"` // Use insecure connection
}

// Default configuration values.
const (
	DefaultSourceURL    = "http://localhost:8000/api/device_parameter/1/measurements"
	DefaultSourceKind   = "auto"
	DefaultTimeout      = 10 * time.Second
	DefaultIndex        = "sensors-*"
	DefaultTimeField    = "@timestamp"
	DefaultValueField   = "value"
	DefaultSize         = 1000
	DefaultWidth        = 600
	DefaultHeight       = 270
	DefaultMarginTop    = 30
	DefaultMarginRight  = 20
	DefaultMarginBottom = 30
	DefaultMarginLeft   = 50
	DefaultTicks        = 5
	DefaultMissingValue = -100
	DefaultFormat       = "svg"
	DefaultServeAddr    = "localhost:8080"
	DefaultReadTimeout  = 15 * time.Second
	DefaultWindow       = 500
	DefaultDebounce     = 200 * time.Millisecond
	DefaultLogLevel     = "info"
)

var (
	validKinds     = []string{"auto", "http", "file", "elasticsearch", "es"}
	validFormats   = []string{"svg", "png"}
	validLogLevels = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"}
)

// ContextKey is used to store config in context.
type ContextKey struct{}

// FromContext retrieves Config from context.
func FromContext(ctx context.Context) (Config, bool) {
	cfg, ok := ctx.Value(ContextKey{}).(Config)
	return cfg, ok
}

// WithContext stores Config in context.
func WithContext(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, ContextKey{}, cfg)
}

// Load builds a Config using Viper with precedence: flags > env > profile > defaults.
// It binds flags from the command (and its parents) and fails fast on invalid values.
func Load(cmd *cobra.Command) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindFlagsRecursive(v, cmd); err != nil {
		return Config{}, fmt.Errorf("bind flags: %w", err)
	}

	profiles, err := LoadProfiles()
	if err != nil {
		return Config{}, fmt.Errorf("load profiles: %w", err)
	}
	active, name, err := profiles.Active(v.GetString("profile"))
	if err != nil {
		return Config{}, err
	}
	if name != "" {
		resolved, err := active.Resolve()
		if err != nil {
			return Config{}, fmt.Errorf("profile %q: %w", name, err)
		}
		applyProfile(v, resolved)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Profile = name

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// setDefaults registers default values with Viper.
func setDefaults(v *viper.Viper) {
	v.SetDefault("profile", "")

	v.SetDefault("source.url", DefaultSourceURL)
	v.SetDefault("source.kind", DefaultSourceKind)
	v.SetDefault("source.timeout", DefaultTimeout)
	v.SetDefault("source.since", time.Duration(0))
	v.SetDefault("source.api_key", "")
	v.SetDefault("source.username", "")
	v.SetDefault("source.password", "")

	v.SetDefault("es.index", DefaultIndex)
	v.SetDefault("es.time_field", DefaultTimeField)
	v.SetDefault("es.value_field", DefaultValueField)
	v.SetDefault("es.size", DefaultSize)

	v.SetDefault("chart.width", DefaultWidth)
	v.SetDefault("chart.height", DefaultHeight)
	v.SetDefault("chart.margin_top", DefaultMarginTop)
	v.SetDefault("chart.margin_right", DefaultMarginRight)
	v.SetDefault("chart.margin_bottom", DefaultMarginBottom)
	v.SetDefault("chart.margin_left", DefaultMarginLeft)
	v.SetDefault("chart.ticks_x", DefaultTicks)
	v.SetDefault("chart.ticks_y", DefaultTicks)
	v.SetDefault("chart.missing_value", float64(DefaultMissingValue))
	v.SetDefault("chart.format", DefaultFormat)
	v.SetDefault("chart.title", "")

	v.SetDefault("serve.addr", DefaultServeAddr)
	v.SetDefault("serve.read_timeout", DefaultReadTimeout)

	v.SetDefault("watch.follow", false)
	v.SetDefault("watch.window", DefaultWindow)
	v.SetDefault("watch.debounce", DefaultDebounce)

	v.SetDefault("log.level", DefaultLogLevel)

	v.SetDefault("otlp.endpoint", "")
	v.SetDefault("otlp.insecure", true)
}

// applyProfile layers profile values over the built-in defaults. Flags and
// environment variables still win because Viper checks them first.
func applyProfile(v *viper.Viper, p Profile) {
	set := func(key, val string) {
		if val != "" {
			v.SetDefault(key, val)
		}
	}
	set("source.url", p.Source.URL)
	set("source.kind", p.Source.Kind)
	set("source.api_key", p.Source.APIKey)
	set("source.username", p.Source.Username)
	set("source.password", p.Source.Password)
	set("es.index", p.Elasticsearch.Index)
	set("es.time_field", p.Elasticsearch.TimeField)
	set("es.value_field", p.Elasticsearch.ValueField)
	set("chart.title", p.Chart.Title)
	if p.Chart.MissingValue != nil {
		v.SetDefault("chart.missing_value", *p.Chart.MissingValue)
	}
	set("otlp.endpoint", p.OTLP.Endpoint)
	if p.OTLP.Insecure != nil {
		v.SetDefault("otlp.insecure", *p.OTLP.Insecure)
	}
}

// bindFlagsRecursive binds flags from cmd and all parents so Viper sees them.
func bindFlagsRecursive(v *viper.Viper, cmd *cobra.Command) error {
	if cmd == nil {
		return nil
	}
	if err := bindFlagSet(v, cmd.Flags()); err != nil {
		return err
	}
	if err := bindFlagSet(v, cmd.PersistentFlags()); err != nil {
		return err
	}
	return bindFlagsRecursive(v, cmd.Parent())
}

// bindFlagSet binds flags to Viper keys using explicit mappings to nested keys.
func bindFlagSet(v *viper.Viper, fs *pflag.FlagSet) error {
	if fs == nil {
		return nil
	}
	flagToKey := map[string]string{
		"profile":       "profile",
		"url":           "source.url",
		"kind":          "source.kind",
		"timeout":       "source.timeout",
		"since":         "source.since",
		"api-key":       "source.api_key",
		"username":      "source.username",
		"password":      "source.password",
		"index":         "es.index",
		"time-field":    "es.time_field",
		"value-field":   "es.value_field",
		"size":          "es.size",
		"width":         "chart.width",
		"height":        "chart.height",
		"margin-top":    "chart.margin_top",
		"margin-right":  "chart.margin_right",
		"margin-bottom": "chart.margin_bottom",
		"margin-left":   "chart.margin_left",
		"ticks-x":       "chart.ticks_x",
		"ticks-y":       "chart.ticks_y",
		"missing-value": "chart.missing_value",
		"format":        "chart.format",
		"title":         "chart.title",
		"addr":          "serve.addr",
		"read-timeout":  "serve.read_timeout",
		"follow":        "watch.follow",
		"window":        "watch.window",
		"debounce":      "watch.debounce",
		"log-level":     "log.level",
		"otlp":          "otlp.endpoint",
		"otlp-insecure": "otlp.insecure",
	}

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToKey[f.Name]
		if !ok {
			// Fallback: replace "-" with "." to allow nested binding if names align
			key = strings.ReplaceAll(f.Name, "-", ".")
		}
		if err := v.BindPFlag(key, f); err != nil && bindErr == nil {
			bindErr = fmt.Errorf("flag --%s: %w", f.Name, err)
		}
	})
	return bindErr
}

// Validate enforces correctness and fails fast on invalid configuration.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.URL) == "" {
		return fmt.Errorf("source.url is required")
	}
	if !oneOf(c.Source.Kind, validKinds) {
		return fmt.Errorf("source.kind must be one of %s, got %q", strings.Join(validKinds[:4], ", "), c.Source.Kind)
	}
	if c.Source.Timeout <= 0 {
		return fmt.Errorf("source.timeout must be > 0")
	}
	if c.Source.Since < 0 {
		return fmt.Errorf("source.since must be >= 0")
	}
	if c.ES.Size <= 0 {
		return fmt.Errorf("es.size must be > 0")
	}
	if c.Chart.Width <= 0 || c.Chart.Height <= 0 {
		return fmt.Errorf("chart.width and chart.height must be > 0")
	}
	if c.Chart.MarginTop < 0 || c.Chart.MarginRight < 0 || c.Chart.MarginBottom < 0 || c.Chart.MarginLeft < 0 {
		return fmt.Errorf("chart margins must be >= 0")
	}
	if c.Chart.Width-c.Chart.MarginLeft-c.Chart.MarginRight <= 0 {
		return fmt.Errorf("chart.width must exceed margin_left + margin_right")
	}
	if c.Chart.Height-c.Chart.MarginTop-c.Chart.MarginBottom <= 0 {
		return fmt.Errorf("chart.height must exceed margin_top + margin_bottom")
	}
	if c.Chart.TicksX < 1 || c.Chart.TicksY < 1 {
		return fmt.Errorf("chart.ticks_x and chart.ticks_y must be >= 1")
	}
	if !oneOf(c.Chart.Format, validFormats) {
		return fmt.Errorf("chart.format must be svg or png, got %q", c.Chart.Format)
	}
	if strings.TrimSpace(c.Serve.Addr) == "" {
		return fmt.Errorf("serve.addr is required")
	}
	if c.Serve.ReadTimeout <= 0 {
		return fmt.Errorf("serve.read_timeout must be > 0")
	}
	if c.Watch.Window < 1 {
		return fmt.Errorf("watch.window must be >= 1")
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must be >= 0")
	}
	if !oneOf(c.Log.Level, validLogLevels) {
		return fmt.Errorf("log.level must be one of trace, debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}

// SinceTime returns the lower bound for readings, or the zero time when
// source.since is unset.
func (c Config) SinceTime(now time.Time) time.Time {
	if c.Source.Since <= 0 {
		return time.Time{}
	}
	return now.Add(-c.Source.Since)
}

func oneOf(s string, allowed []string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
