// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// timestampLayouts are tried in order. Readings come from several gateways,
// some of which emit a space instead of "T" or omit the zone (UTC).
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses an ISO-8601 timestamp. Zone-less values are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseValue converts a raw reading to a finite float64.
func ParseValue(v RawValue) (float64, error) {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return 0, errors.New("empty value")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errors.New("value is not finite")
	}
	return f, nil
}

// ParseRecords converts records into samples, one for one and in order.
// A reading equal to missing is kept as an invalid sample rather than
// dropped. The first malformed record aborts parsing with a *ParseError.
func ParseRecords(records []RawRecord, missing float64) ([]Sample, error) {
	samples := make([]Sample, len(records))
	for i, rec := range records {
		ts, err := ParseTimestamp(rec.TS)
		if err != nil {
			return nil, &ParseError{Index: i, Field: "ts", Value: rec.TS, Err: err}
		}
		val, err := ParseValue(rec.Value)
		if err != nil {
			return nil, &ParseError{Index: i, Field: "value", Value: string(rec.Value), Err: err}
		}
		samples[i] = Sample{
			Timestamp: ts,
			Value:     val,
			Valid:     val != missing,
		}
	}
	return samples, nil
}
