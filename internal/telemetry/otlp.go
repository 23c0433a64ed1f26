// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ServiceName identifies this process in exported log records.
const ServiceName = "sensorchart"

// OTLPConfig holds OTLP log export configuration
type OTLPConfig struct {
	Endpoint string // OTLP HTTP endpoint, host:port
	Insecure bool   // Use HTTP instead of HTTPS
	Version  string // service.version resource attribute
}

// NewLoggerProvider creates a provider exporting over OTLP/HTTP in batches.
func NewLoggerProvider(ctx context.Context, cfg OTLPConfig) (*sdklog.LoggerProvider, error) {
	opts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlploghttp.WithInsecure())
	}

	exporter, err := otlploghttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(ServiceName)}
	if cfg.Version != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.Version))
	}
	res := resource.NewWithAttributes(semconv.SchemaURL, attrs...)

	return sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	), nil
}

// Hook mirrors logrus entries as OpenTelemetry log records.
type Hook struct {
	logger log.Logger
}

// NewHook returns a hook emitting through the given provider.
func NewHook(provider *sdklog.LoggerProvider) *Hook {
	return &Hook{logger: provider.Logger(ServiceName)}
}

// Levels implements logrus.Hook.
func (h *Hook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook.
func (h *Hook) Fire(entry *logrus.Entry) error {
	var record log.Record
	record.SetTimestamp(entry.Time)
	record.SetObservedTimestamp(entry.Time)
	record.SetSeverity(levelToSeverity(entry.Level))
	record.SetSeverityText(entry.Level.String())
	record.SetBody(log.StringValue(entry.Message))

	for k, v := range entry.Data {
		switch val := v.(type) {
		case string:
			record.AddAttributes(log.String(k, val))
		case float64:
			record.AddAttributes(log.Float64(k, val))
		case bool:
			record.AddAttributes(log.Bool(k, val))
		case int:
			record.AddAttributes(log.Int(k, val))
		case int64:
			record.AddAttributes(log.Int64(k, val))
		case error:
			record.AddAttributes(log.String(k, val.Error()))
		default:
			record.AddAttributes(log.String(k, fmt.Sprint(val)))
		}
	}

	ctx := entry.Context
	if ctx == nil {
		ctx = context.Background()
	}
	h.logger.Emit(ctx, record)
	return nil
}

func levelToSeverity(level logrus.Level) log.Severity {
	switch level {
	case logrus.TraceLevel:
		return log.SeverityTrace
	case logrus.DebugLevel:
		return log.SeverityDebug
	case logrus.InfoLevel:
		return log.SeverityInfo
	case logrus.WarnLevel:
		return log.SeverityWarn
	case logrus.ErrorLevel:
		return log.SeverityError
	case logrus.FatalLevel, logrus.PanicLevel:
		return log.SeverityFatal
	default:
		return log.SeverityInfo
	}
}
