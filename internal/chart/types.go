// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package chart turns timestamped sensor readings into a drawable line chart:
// pixel-space path segments that break at missing readings, plus the ticks of
// both axes. Drawing the result is left to a surface (see internal/surface).
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultMissingValue is the reading that sensors report when no value is available.
const DefaultMissingValue = -100

// RawRecord is a single reading as delivered by a data source.
type RawRecord struct {
	TS    string   `json:"ts"`
	Value RawValue `json:"value"`
}

// UnmarshalJSON decodes both fields leniently: whatever JSON a source puts in
// "ts" or "value" is kept as text, so a wrong type is reported by
// ParseRecords together with the record index.
func (r *RawRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		TS    RawValue `json:"ts"`
		Value RawValue `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.TS, r.Value = string(raw.TS), raw.Value
	return nil
}

// RawValue holds the textual form of a reading. Sources deliver values either
// as JSON numbers or as JSON strings; both are kept verbatim and only
// converted to float64 by ParseRecords.
type RawValue string

// UnmarshalJSON unquotes JSON strings and maps null to the empty value. Any
// other token (numbers, but also bools, objects and arrays) is kept as its
// compact JSON text.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = RawValue(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*v = RawValue(buf.String())
	}
	return nil
}

// MarshalJSON writes the value back as a JSON string.
func (v RawValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(v))
}

// Sample is a parsed reading. Invalid samples keep their timestamp so that
// gaps still occupy their slot on the time axis.
type Sample struct {
	Timestamp time.Time
	Value     float64
	Valid     bool
}

// Domain holds the bounds mapped onto the pixel ranges.
// ValueMin is always 0: the value axis starts at a zero baseline.
type Domain struct {
	TimeMin  time.Time `json:"time_min"`
	TimeMax  time.Time `json:"time_max"`
	ValueMin float64   `json:"value_min"`
	ValueMax float64   `json:"value_max"`
}

// Margins around the plot area, in pixels.
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// Geometry describes the canvas. Width and Height are the total canvas size;
// the plot area is what remains after subtracting the margins.
type Geometry struct {
	Width   int     `json:"width"`
	Height  int     `json:"height"`
	Margins Margins `json:"margins"`
}

// DefaultGeometry returns the 600x270 canvas used by the sensor dashboards.
func DefaultGeometry() Geometry {
	return Geometry{
		Width:   600,
		Height:  270,
		Margins: Margins{Top: 30, Right: 20, Bottom: 30, Left: 50},
	}
}

// PlotWidth is the canvas width minus the left and right margins.
func (g Geometry) PlotWidth() int {
	return g.Width - g.Margins.Left - g.Margins.Right
}

// PlotHeight is the canvas height minus the top and bottom margins.
func (g Geometry) PlotHeight() int {
	return g.Height - g.Margins.Top - g.Margins.Bottom
}

// Validate ensures the plot area is not empty.
func (g Geometry) Validate() error {
	if g.Margins.Top < 0 || g.Margins.Right < 0 || g.Margins.Bottom < 0 || g.Margins.Left < 0 {
		return fmt.Errorf("margins must be >= 0")
	}
	if g.PlotWidth() <= 0 {
		return fmt.Errorf("plot width must be > 0 (width %d, margins %d+%d)", g.Width, g.Margins.Left, g.Margins.Right)
	}
	if g.PlotHeight() <= 0 {
		return fmt.Errorf("plot height must be > 0 (height %d, margins %d+%d)", g.Height, g.Margins.Top, g.Margins.Bottom)
	}
	return nil
}

// PixelPoint is a sample mapped into pixel space. X includes the left margin,
// Y is measured from the top of the plot area.
type PixelPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Segment is a maximal run of consecutive valid samples, drawn as one stroke.
type Segment []PixelPoint

// Tick is a labeled mark on an axis.
type Tick struct {
	Position float64 `json:"position"`
	Value    float64 `json:"value"`
	Label    string  `json:"label"`
}

// RenderOutput is everything a surface needs to draw the chart.
// It is built fresh for every render and never modified afterwards.
type RenderOutput struct {
	Geometry    Geometry  `json:"geometry"`
	Domain      Domain    `json:"domain"`
	Segments    []Segment `json:"segments"`
	XTicks      []Tick    `json:"x_ticks"`
	YTicks      []Tick    `json:"y_ticks"`
	SampleCount int       `json:"sample_count"`
	GapCount    int       `json:"gap_count"`
}
