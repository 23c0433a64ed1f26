// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elastic/sensorchart/internal/chart"
)

var fileRecords = []chart.RawRecord{
	{TS: "2020-01-01T00:00:00Z", Value: "10"},
	{TS: "2020-01-01T01:00:00Z", Value: "-100"},
	{TS: "2020-01-01T02:00:00Z", Value: "20"},
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{path: "readings.json", want: FormatJSON},
		{path: "/var/data/READINGS.JSON", want: FormatJSON},
		{path: "readings.ndjson", want: FormatNDJSON},
		{path: "readings.jsonl", want: FormatNDJSON},
		{path: "readings.parquet", want: FormatParquet},
		{path: "readings.csv", wantErr: true},
		{path: "readings", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			got, err := FormatFromPath(tt.path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FormatFromPath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("FormatFromPath(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestFile_WriteAndFetch(t *testing.T) {
	t.Parallel()

	for _, ext := range []string{".json", ".ndjson", ".parquet"} {
		t.Run(ext, func(t *testing.T) {
			t.Parallel()
			path := filepath.Join(t.TempDir(), "readings"+ext)
			if err := WriteFile(path, fileRecords); err != nil {
				t.Fatalf("WriteFile() error = %v", err)
			}

			src, err := NewFile(path)
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			got, err := src.Fetch(context.Background())
			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if len(got) != len(fileRecords) {
				t.Fatalf("records = %d, want %d", len(got), len(fileRecords))
			}
			for i := range fileRecords {
				if got[i] != fileRecords[i] {
					t.Errorf("record %d = %+v, want %+v", i, got[i], fileRecords[i])
				}
			}
		})
	}
}

func TestFile_FetchRendersGaps(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readings.json")
	if err := WriteFile(path, fileRecords); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	src, _ := NewFile(path)
	r, _ := chart.NewRenderer(chart.DefaultConfig())
	out, err := chart.NewChart(r, src, 0).Render(context.Background())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if len(out.Segments) != 2 {
		t.Errorf("segments = %d, want 2", len(out.Segments))
	}
}

func TestDecode_NDJSON(t *testing.T) {
	t.Parallel()

	input := `{"ts":"2020-01-01T00:00:00Z","value":1}

{"ts":"2020-01-01T00:01:00Z","value":"2"}
`
	records, err := Decode(strings.NewReader(input), FormatNDJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2 (blank lines skipped)", len(records))
	}

	// Wrong JSON types still decode; ParseRecords reports them by index.
	records, err = Decode(strings.NewReader(`{"ts":1577836800,"value":true}`+"\n"), FormatNDJSON)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 || records[0].TS != "1577836800" || records[0].Value != "true" {
		t.Errorf("records = %+v, want the raw text kept", records)
	}

	_, err = Decode(strings.NewReader("{\"ts\":\"a\",\"value\":1}\nnot json\n"), FormatNDJSON)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error = %v, want it to name line 2", err)
	}
}

func TestFile_FetchErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	missing, _ := NewFile(filepath.Join(dir, "missing.json"))
	if _, err := missing.Fetch(context.Background()); err == nil {
		t.Error("expected error for a missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`{"not":"an array"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	src, _ := NewFile(bad)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected error for a malformed file")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Fetch(ctx); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}
