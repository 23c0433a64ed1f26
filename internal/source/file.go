// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/elastic/sensorchart/internal/chart"
)

// Format identifies the encoding of a readings file.
type Format string

const (
	FormatJSON    Format = "json"    // one JSON array
	FormatNDJSON  Format = "ndjson"  // one JSON object per line
	FormatParquet Format = "parquet" // rows of {ts, value} strings
)

// FormatFromPath derives the file format from its extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".ndjson", ".jsonl":
		return FormatNDJSON, nil
	case ".parquet":
		return FormatParquet, nil
	default:
		return "", fmt.Errorf("unsupported readings file %q (want .json, .ndjson, .jsonl or .parquet)", path)
	}
}

// parquetRow is the on-disk layout of a reading in parquet files.
type parquetRow struct {
	TS    string `parquet:"ts"`
	Value string `parquet:"value"`
}

// File reads readings from a local file. The file is re-read on every
// Fetch, so it always reflects the current contents.
type File struct {
	path   string
	format Format
}

// NewFile returns a File source, picking the format from the extension.
func NewFile(path string) (*File, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, format: format}, nil
}

// Path returns the file being read.
func (f *File) Path() string { return f.path }

// Fetch reads and decodes the whole file.
func (f *File) Fetch(ctx context.Context) ([]chart.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if f.format == FormatParquet {
		rows, err := parquet.ReadFile[parquetRow](f.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
		}
		records := make([]chart.RawRecord, len(rows))
		for i, r := range rows {
			records[i] = chart.RawRecord{TS: r.TS, Value: chart.RawValue(r.Value)}
		}
		return records, nil
	}

	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open readings: %w", err)
	}
	defer fh.Close()

	records, err := Decode(fh, f.format)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	return records, nil
}

// Decode reads JSON or NDJSON readings from r.
func Decode(r io.Reader, format Format) ([]chart.RawRecord, error) {
	switch format {
	case FormatJSON:
		var records []chart.RawRecord
		if err := json.NewDecoder(r).Decode(&records); err != nil {
			return nil, fmt.Errorf("failed to decode readings: %w", err)
		}
		return records, nil
	case FormatNDJSON:
		var records []chart.RawRecord
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			rec, ok, err := DecodeLine(scanner.Bytes())
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			if ok {
				records = append(records, rec)
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan readings: %w", err)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("format %q cannot be streamed", format)
	}
}

// DecodeLine decodes one NDJSON line. Blank lines report ok=false.
func DecodeLine(line []byte) (rec chart.RawRecord, ok bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return chart.RawRecord{}, false, nil
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return chart.RawRecord{}, false, fmt.Errorf("failed to decode reading: %w", err)
	}
	return rec, true, nil
}

// WriteFile stores records at path in the format given by its extension.
// It is the inverse of File.Fetch.
func WriteFile(path string, records []chart.RawRecord) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	switch format {
	case FormatParquet:
		rows := make([]parquetRow, len(records))
		for i, r := range records {
			rows[i] = parquetRow{TS: r.TS, Value: string(r.Value)}
		}
		if err := parquet.WriteFile(path, rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	case FormatJSON:
		if records == nil {
			records = []chart.RawRecord{}
		}
		data, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode readings: %w", err)
		}
		return os.WriteFile(path, append(data, '\n'), 0o644)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		for _, r := range records {
			if err := enc.Encode(r); err != nil {
				return fmt.Errorf("failed to encode reading: %w", err)
			}
		}
		return os.WriteFile(path, buf.Bytes(), 0o644)
	}
}
