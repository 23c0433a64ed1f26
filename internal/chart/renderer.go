// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import "fmt"

// Config holds the render settings of one chart.
type Config struct {
	Geometry     Geometry
	TickCountX   int
	TickCountY   int
	MissingValue float64 // reading that marks "no value"
}

// DefaultConfig returns the settings of the sensor dashboards.
func DefaultConfig() Config {
	return Config{
		Geometry:     DefaultGeometry(),
		TickCountX:   DefaultTickCount,
		TickCountY:   DefaultTickCount,
		MissingValue: DefaultMissingValue,
	}
}

// Validate fails fast on settings that cannot produce a chart.
func (c Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return fmt.Errorf("geometry: %w", err)
	}
	if c.TickCountX < 1 {
		return fmt.Errorf("tick count x must be >= 1")
	}
	if c.TickCountY < 1 {
		return fmt.Errorf("tick count y must be >= 1")
	}
	return nil
}

// Renderer runs the records-to-output pipeline. It holds no per-render state
// and can be shared by concurrent renders.
type Renderer struct {
	cfg Config
}

// NewRenderer validates cfg and returns a Renderer.
func NewRenderer(cfg Config) (*Renderer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{cfg: cfg}, nil
}

// Config returns the renderer settings.
func (r *Renderer) Config() Config { return r.cfg }

// Render parses records and builds the chart. Errors from parsing and domain
// computation are returned as-is; no partial output is ever returned.
func (r *Renderer) Render(records []RawRecord) (*RenderOutput, error) {
	samples, err := ParseRecords(records, r.cfg.MissingValue)
	if err != nil {
		return nil, err
	}
	domain, err := ComputeDomain(samples)
	if err != nil {
		return nil, err
	}
	scales := NewScales(domain, r.cfg.Geometry)

	return &RenderOutput{
		Geometry:    r.cfg.Geometry,
		Domain:      domain,
		Segments:    BuildSegments(samples, scales),
		XTicks:      TimeTicks(domain, scales, r.cfg.TickCountX),
		YTicks:      ValueTicks(domain, scales, r.cfg.TickCountY),
		SampleCount: len(samples),
		GapCount:    countGaps(samples),
	}, nil
}
