// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestRawValue_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    RawValue
		wantErr bool
	}{
		{name: "string", input: `"10.5"`, want: "10.5"},
		{name: "number", input: `20`, want: "20"},
		{name: "negative number", input: `-100`, want: "-100"},
		{name: "exponent", input: `1e3`, want: "1e3"},
		{name: "null", input: `null`, want: ""},
		{name: "non numeric string kept", input: `"not-a-number"`, want: "not-a-number"},
		{name: "bool kept as text", input: `true`, want: "true"},
		{name: "object kept compact", input: `{ "a": 1 }`, want: `{"a":1}`},
		{name: "array kept compact", input: `[1, 2]`, want: "[1,2]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var v RawValue
			err := json.Unmarshal([]byte(tt.input), &v)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if v != tt.want {
				t.Errorf("value = %q, want %q", v, tt.want)
			}
		})
	}
}

func TestRawRecord_DecodeArray(t *testing.T) {
	t.Parallel()

	body := `[{"ts":"2020-01-01T00:00:00Z","value":"10"},{"ts":"2020-01-01T01:00:00Z","value":-100}]`
	var records []RawRecord
	if err := json.Unmarshal([]byte(body), &records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len = %d, want 2", len(records))
	}
	if records[1].Value != "-100" {
		t.Errorf("records[1].Value = %q, want -100", records[1].Value)
	}
}

func TestParseRecords_WrongJSONTypes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "bool value",
			body:      `[{"ts":"2020-01-01T00:00:00Z","value":"10"},{"ts":"2020-01-01T01:00:00Z","value":true}]`,
			wantField: "value",
		},
		{
			name:      "object value",
			body:      `[{"ts":"2020-01-01T00:00:00Z","value":"10"},{"ts":"2020-01-01T01:00:00Z","value":{"v":1}}]`,
			wantField: "value",
		},
		{
			name:      "numeric timestamp",
			body:      `[{"ts":"2020-01-01T00:00:00Z","value":"10"},{"ts":1577840400,"value":"20"}]`,
			wantField: "ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var records []RawRecord
			if err := json.Unmarshal([]byte(tt.body), &records); err != nil {
				t.Fatalf("decode error = %v, want records", err)
			}
			_, err := ParseRecords(records, DefaultMissingValue)
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Index != 1 || pe.Field != tt.wantField {
				t.Errorf("ParseError = {Index: %d, Field: %q}, want {Index: 1, Field: %q}", pe.Index, pe.Field, tt.wantField)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	want := time.Date(2015, 10, 5, 22, 59, 5, 0, time.UTC)
	inputs := []string{
		"2015-10-05T22:59:05Z",
		"2015-10-05T22:59:05.000Z",
		"2015-10-05 22:59:05+00:00",
		"2015-10-05T23:59:05+01:00",
		"2015-10-05T22:59:05",
		"2015-10-05 22:59:05",
		"  2015-10-05T22:59:05Z  ",
	}
	for _, in := range inputs {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Errorf("ParseTimestamp(%q) error: %v", in, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}

	for _, bad := range []string{"", "yesterday", "2015-13-05T22:59:05Z", "1444085945"} {
		if _, err := ParseTimestamp(bad); err == nil {
			t.Errorf("ParseTimestamp(%q) expected error", bad)
		}
	}
}

func TestParseRecords(t *testing.T) {
	t.Parallel()

	records := []RawRecord{
		{TS: "2020-01-01T00:00:00Z", Value: "10"},
		{TS: "2020-01-01T01:00:00Z", Value: "-100"},
		{TS: "2020-01-01T02:00:00Z", Value: "20.25"},
		{TS: "2020-01-01T03:00:00Z", Value: "-100.0"},
	}

	samples, err := ParseRecords(records, DefaultMissingValue)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(samples) != len(records) {
		t.Fatalf("len = %d, want %d", len(samples), len(records))
	}

	wantValid := []bool{true, false, true, false}
	for i, s := range samples {
		if s.Valid != wantValid[i] {
			t.Errorf("samples[%d].Valid = %v, want %v", i, s.Valid, wantValid[i])
		}
	}
	if samples[2].Value != 20.25 {
		t.Errorf("samples[2].Value = %v, want 20.25", samples[2].Value)
	}
	if !samples[1].Timestamp.Equal(time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC)) {
		t.Errorf("invalid sample lost its timestamp: %v", samples[1].Timestamp)
	}
}

func TestParseRecords_CustomSentinel(t *testing.T) {
	t.Parallel()

	records := []RawRecord{
		{TS: "2020-01-01T00:00:00Z", Value: "-100"},
		{TS: "2020-01-01T01:00:00Z", Value: "-999"},
	}
	samples, err := ParseRecords(records, -999)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !samples[0].Valid {
		t.Error("-100 should be valid when the sentinel is -999")
	}
	if samples[1].Valid {
		t.Error("-999 should be invalid when the sentinel is -999")
	}
}

func TestParseRecords_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		records   []RawRecord
		wantIndex int
		wantField string
	}{
		{
			name: "non numeric value",
			records: []RawRecord{
				{TS: "2020-01-01T00:00:00Z", Value: "1"},
				{TS: "2020-01-01T01:00:00Z", Value: "not-a-number"},
			},
			wantIndex: 1,
			wantField: "value",
		},
		{
			name:      "empty value",
			records:   []RawRecord{{TS: "2020-01-01T00:00:00Z", Value: ""}},
			wantIndex: 0,
			wantField: "value",
		},
		{
			name:      "NaN value",
			records:   []RawRecord{{TS: "2020-01-01T00:00:00Z", Value: "NaN"}},
			wantIndex: 0,
			wantField: "value",
		},
		{
			name: "malformed timestamp",
			records: []RawRecord{
				{TS: "2020-01-01T00:00:00Z", Value: "1"},
				{TS: "2020-01-01T00:00:00Z", Value: "2"},
				{TS: "01/01/2020", Value: "3"},
			},
			wantIndex: 2,
			wantField: "ts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			samples, err := ParseRecords(tt.records, DefaultMissingValue)
			if samples != nil {
				t.Errorf("expected no samples on error, got %d", len(samples))
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %v", err)
			}
			if pe.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", pe.Index, tt.wantIndex)
			}
			if pe.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", pe.Field, tt.wantField)
			}
		})
	}
}
