// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyDataset is returned when a source delivers zero records.
// An empty chart is never drawn.
var ErrEmptyDataset = errors.New("empty dataset: no readings to chart")

// ParseError reports a record that could not be converted into a Sample.
type ParseError struct {
	Index int    // position of the record in the fetched sequence
	Field string // "ts", "value", or "record" for a reading that could not be decoded
	Value string // offending raw text
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d: invalid %s %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// NetworkError reports a failed fetch: transport failure, a non-success
// status, or a body that is not a list of readings.
type NetworkError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// TimeoutError reports a fetch that did not complete within the configured timeout.
type TimeoutError struct {
	After time.Duration
	Err   error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch timed out after %s", e.After)
}

func (e *TimeoutError) Unwrap() error { return e.Err }
