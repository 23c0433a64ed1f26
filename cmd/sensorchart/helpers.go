// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/config"
	"github.com/elastic/sensorchart/internal/source"
	"github.com/elastic/sensorchart/internal/surface"
)

func configFrom(ctx context.Context) (config.Config, error) {
	cfg, ok := config.FromContext(ctx)
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return cfg, nil
}

func chartConfig(cfg config.Config) chart.Config {
	return chart.Config{
		Geometry: chart.Geometry{
			Width:  cfg.Chart.Width,
			Height: cfg.Chart.Height,
			Margins: chart.Margins{
				Top:    cfg.Chart.MarginTop,
				Right:  cfg.Chart.MarginRight,
				Bottom: cfg.Chart.MarginBottom,
				Left:   cfg.Chart.MarginLeft,
			},
		},
		TickCountX:   cfg.Chart.TicksX,
		TickCountY:   cfg.Chart.TicksY,
		MissingValue: cfg.Chart.MissingValue,
	}
}

// sourceOptions describes the configured source. A zero since means
// everything the source has.
func sourceOptions(cfg config.Config, since time.Time) (source.Options, error) {
	kind, err := source.ParseKind(cfg.Source.Kind)
	if err != nil {
		return source.Options{}, err
	}
	return source.Options{
		Kind:       kind,
		URL:        cfg.Source.URL,
		APIKey:     cfg.Source.APIKey,
		Username:   cfg.Source.Username,
		Password:   cfg.Source.Password,
		Since:      since,
		Timeout:    cfg.Source.Timeout,
		Index:      cfg.ES.Index,
		TimeField:  cfg.ES.TimeField,
		ValueField: cfg.ES.ValueField,
		Size:       cfg.ES.Size,
	}, nil
}

func openSource(cfg config.Config) (chart.Fetcher, error) {
	opts, err := sourceOptions(cfg, cfg.SinceTime(time.Now()))
	if err != nil {
		return nil, err
	}
	return source.Open(opts)
}

func surfaceOptions(cfg config.Config) (surface.Options, error) {
	format, err := surface.ParseFormat(cfg.Chart.Format)
	if err != nil {
		return surface.Options{}, err
	}
	opts := surface.DefaultOptions()
	opts.Format = format
	opts.Title = cfg.Chart.Title
	return opts, nil
}

// newChart wires the configured source into a renderer.
func newChart(cfg config.Config) (*chart.Chart, error) {
	r, err := chart.NewRenderer(chartConfig(cfg))
	if err != nil {
		return nil, err
	}
	f, err := openSource(cfg)
	if err != nil {
		return nil, err
	}
	return chart.NewChart(r, f, cfg.Source.Timeout), nil
}

// writeAtomic writes path through a temporary file in the same directory,
// so readers never see a partial image.
func writeAtomic(path string, write func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename to %s: %w", path, err)
	}
	return nil
}

// recordingFetcher keeps a copy of the last fetched readings.
type recordingFetcher struct {
	chart.Fetcher

	mu      sync.Mutex
	records []chart.RawRecord
}

func (r *recordingFetcher) Fetch(ctx context.Context) ([]chart.RawRecord, error) {
	records, err := r.Fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.records = append([]chart.RawRecord(nil), records...)
	r.mu.Unlock()
	return records, nil
}

func (r *recordingFetcher) Records() []chart.RawRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.records
}
