// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

// ComputeDomain derives the scale bounds of a render.
//
// The time bounds cover every sample, valid or not, so gaps keep their place
// on the axis. The value axis is pinned to a zero baseline and extends to the
// largest valid reading; it is [0, 0] when no reading is valid or the largest
// one is negative.
func ComputeDomain(samples []Sample) (Domain, error) {
	if len(samples) == 0 {
		return Domain{}, ErrEmptyDataset
	}

	d := Domain{
		TimeMin: samples[0].Timestamp,
		TimeMax: samples[0].Timestamp,
	}
	for _, s := range samples[1:] {
		if s.Timestamp.Before(d.TimeMin) {
			d.TimeMin = s.Timestamp
		}
		if s.Timestamp.After(d.TimeMax) {
			d.TimeMax = s.Timestamp
		}
	}

	for _, s := range samples {
		if s.Valid && s.Value > d.ValueMax {
			d.ValueMax = s.Value
		}
	}
	return d, nil
}
