// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import "time"

// Scales maps domain values to pixel coordinates. The zero value is not
// usable; build one with NewScales.
type Scales struct {
	domain     Domain
	left       float64
	plotWidth  float64
	plotHeight float64
}

// NewScales binds a domain to the plot area of g.
func NewScales(d Domain, g Geometry) Scales {
	return Scales{
		domain:     d,
		left:       float64(g.Margins.Left),
		plotWidth:  float64(g.PlotWidth()),
		plotHeight: float64(g.PlotHeight()),
	}
}

// Domain returns the domain the scales were built from.
func (s Scales) Domain() Domain { return s.domain }

// TimeToX maps t onto [marginLeft, marginLeft+plotWidth]. A zero-width time
// domain maps every instant to the middle of the range.
func (s Scales) TimeToX(t time.Time) float64 {
	span := s.domain.TimeMax.Sub(s.domain.TimeMin)
	if span <= 0 {
		return s.left + s.plotWidth/2
	}
	ratio := float64(t.Sub(s.domain.TimeMin)) / float64(span)
	return s.left + ratio*s.plotWidth
}

// ValueToY maps v onto [plotHeight, 0], top of the plot area being 0.
// A zero-height value domain maps every value to the middle of the range.
func (s Scales) ValueToY(v float64) float64 {
	span := s.domain.ValueMax - s.domain.ValueMin
	if span == 0 {
		return s.plotHeight / 2
	}
	return s.plotHeight - (v-s.domain.ValueMin)/span*s.plotHeight
}

// Point maps a sample to pixel space.
func (s Scales) Point(sample Sample) PixelPoint {
	return PixelPoint{X: s.TimeToX(sample.Timestamp), Y: s.ValueToY(sample.Value)}
}
