// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

// BuildSegments splits samples into strokes. The line breaks at every invalid
// sample instead of interpolating across it, and invalid samples are never
// mapped to a coordinate. Single-point segments are kept; surfaces draw them
// as dots.
func BuildSegments(samples []Sample, s Scales) []Segment {
	var (
		segments []Segment
		current  Segment
	)
	for _, sample := range samples {
		if !sample.Valid {
			if len(current) > 0 {
				segments = append(segments, current)
				current = nil
			}
			continue
		}
		current = append(current, s.Point(sample))
	}
	if len(current) > 0 {
		segments = append(segments, current)
	}
	return segments
}

// countGaps returns the number of invalid samples.
func countGaps(samples []Sample) int {
	n := 0
	for _, s := range samples {
		if !s.Valid {
			n++
		}
	}
	return n
}
