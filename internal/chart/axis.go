// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"math"
	"strconv"
	"time"
)

// DefaultTickCount is the target number of ticks per axis.
const DefaultTickCount = 5

const day = 24 * time.Hour

// eps absorbs float noise when snapping domain bounds to a tick step.
const eps = 1e-9

type timeInterval struct {
	step   time.Duration
	layout string
}

// calendarIntervals are the steps the time axis snaps to.
var calendarIntervals = []timeInterval{
	{time.Second, "15:04:05"},
	{5 * time.Second, "15:04:05"},
	{15 * time.Second, "15:04:05"},
	{30 * time.Second, "15:04:05"},
	{time.Minute, "15:04"},
	{5 * time.Minute, "15:04"},
	{15 * time.Minute, "15:04"},
	{30 * time.Minute, "15:04"},
	{time.Hour, "15:04"},
	{3 * time.Hour, "Jan 02 15:04"},
	{6 * time.Hour, "Jan 02 15:04"},
	{12 * time.Hour, "Jan 02 15:04"},
	{day, "Jan 02"},
	{2 * day, "Jan 02"},
	{7 * day, "Jan 02"},
}

// ValueTicks returns ticks for the value axis, ordered bottom to top. The step
// is 1, 2 or 5 times a power of ten, picked to land closest to target ticks;
// the first tick is at or below ValueMin and the last at or above ValueMax.
func ValueTicks(d Domain, s Scales, target int) []Tick {
	lo, hi := d.ValueMin, d.ValueMax
	if hi <= lo {
		return []Tick{{Position: s.ValueToY(lo), Value: lo, Label: formatValue(lo, 1)}}
	}

	step := niceStep(hi-lo, target)
	start := math.Floor(lo/step+eps) * step
	end := math.Ceil(hi/step-eps) * step
	n := int(math.Round((end - start) / step))

	ticks := make([]Tick, 0, n+1)
	for i := 0; i <= n; i++ {
		v := start + float64(i)*step
		if v == 0 {
			v = 0 // drop the sign of -0
		}
		ticks = append(ticks, Tick{Position: s.ValueToY(v), Value: v, Label: formatValue(v, step)})
	}
	return ticks
}

// TimeTicks returns ticks for the time axis, ordered left to right. Steps are
// calendar units (seconds, minutes, hours, days) aligned in UTC; the first
// tick is at or before TimeMin and the last at or after TimeMax.
func TimeTicks(d Domain, s Scales, target int) []Tick {
	span := d.TimeMax.Sub(d.TimeMin)
	if span <= 0 {
		t := d.TimeMin.UTC()
		return []Tick{{Position: s.TimeToX(t), Value: unixSeconds(t), Label: t.Format("2006-01-02 15:04:05")}}
	}

	iv := pickTimeInterval(span, target)
	start := d.TimeMin.UTC().Truncate(iv.step)
	end := d.TimeMax.UTC().Truncate(iv.step)
	if end.Before(d.TimeMax) {
		end = end.Add(iv.step)
	}

	var ticks []Tick
	for t := start; !t.After(end); t = t.Add(iv.step) {
		ticks = append(ticks, Tick{Position: s.TimeToX(t), Value: unixSeconds(t), Label: t.Format(iv.layout)})
	}
	return ticks
}

// pickTimeInterval chooses the calendar step whose tick count is closest to target.
func pickTimeInterval(span time.Duration, target int) timeInterval {
	if target < 1 {
		target = 1
	}
	raw := span / time.Duration(target)

	if raw < time.Second {
		ms := niceStep(float64(span)/float64(time.Millisecond), target)
		step := time.Duration(ms * float64(time.Millisecond))
		if step < time.Millisecond {
			step = time.Millisecond
		}
		return timeInterval{step, "15:04:05.000"}
	}
	if raw > 7*day {
		days := niceStep(float64(span)/float64(day), target)
		return timeInterval{time.Duration(days) * day, "2006-01-02"}
	}

	best := calendarIntervals[0]
	bestDiff := math.Inf(1)
	for _, iv := range calendarIntervals {
		diff := math.Abs(float64(span)/float64(iv.step) - float64(target))
		if diff < bestDiff {
			best, bestDiff = iv, diff
		}
	}
	return best
}

// niceStep picks 1, 2, 5 or 10 times a power of ten so that span/step is
// as close as possible to target.
func niceStep(span float64, target int) float64 {
	if target < 1 {
		target = 1
	}
	raw := span / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))

	best := mag
	bestDiff := math.Inf(1)
	for _, m := range []float64{1, 2, 5, 10} {
		step := m * mag
		diff := math.Abs(span/step - float64(target))
		if diff < bestDiff {
			best, bestDiff = step, diff
		}
	}
	return best
}

// formatValue prints v with as many decimals as step needs.
func formatValue(v, step float64) string {
	decimals := 0
	if step > 0 && step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - eps))
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
