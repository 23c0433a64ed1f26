// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/sensorchart/internal/chart"
)

// mockSearcher records the query and replies with a canned body.
type mockSearcher struct {
	status  int
	body    string
	err     error
	index   string
	query   []byte
	size    int
	callCnt int
}

func (m *mockSearcher) Search(_ context.Context, index string, body []byte, size int) (*SearchResponse, error) {
	m.callCnt++
	m.index, m.query, m.size = index, body, size
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return &SearchResponse{
		Body:       io.NopCloser(strings.NewReader(m.body)),
		StatusCode: status,
		Status:     http.StatusText(status),
		IsError:    status > 299,
	}, nil
}

const hitsBody = `{"hits":{"hits":[
	{"_source":{"@timestamp":"2020-01-01T00:00:00Z","value":10}},
	{"_source":{"@timestamp":1577840400000,"value":"-100"}},
	{"_source":{"@timestamp":"2020-01-01T02:00:00Z","sensor":{"temp":3},"value":20.5}}
]}}`

func TestElasticsearch_Fetch(t *testing.T) {
	t.Parallel()

	m := &mockSearcher{body: hitsBody}
	src := NewElasticsearchWithSearcher(m, ElasticsearchOptions{Addresses: []string{"http://es:9200/"}})

	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if m.index != DefaultIndex || m.size != DefaultSize {
		t.Errorf("search target = %s/%d, want %s/%d", m.index, m.size, DefaultIndex, DefaultSize)
	}

	want := []chart.RawRecord{
		{TS: "2020-01-01T00:00:00Z", Value: "10"},
		{TS: "2020-01-01T01:00:00Z", Value: "-100"},
		{TS: "2020-01-01T02:00:00Z", Value: "20.5"},
	}
	if len(records) != len(want) {
		t.Fatalf("records = %d, want %d", len(records), len(want))
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("record %d = %+v, want %+v", i, records[i], want[i])
		}
	}
}

func TestElasticsearch_Query(t *testing.T) {
	t.Parallel()

	since := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	m := &mockSearcher{body: `{"hits":{"hits":[]}}`}
	src := NewElasticsearchWithSearcher(m, ElasticsearchOptions{
		Index:      "greenhouse",
		TimeField:  "ts",
		ValueField: "sensor.temp",
		Size:       50,
		Since:      since,
	})
	if _, err := src.Fetch(context.Background()); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	var q struct {
		Query struct {
			Range map[string]map[string]string `json:"range"`
		} `json:"query"`
		Sort   []map[string]map[string]string `json:"sort"`
		Source []string                       `json:"_source"`
	}
	if err := json.Unmarshal(m.query, &q); err != nil {
		t.Fatalf("query is not valid JSON: %v", err)
	}
	if got := q.Query.Range["ts"]["gte"]; got != "2020-01-01T00:00:00Z" {
		t.Errorf("range gte = %q", got)
	}
	if len(q.Sort) != 1 || q.Sort[0]["ts"]["order"] != "asc" {
		t.Errorf("sort = %v, want ts asc", q.Sort)
	}
	if strings.Join(q.Source, ",") != "ts,sensor.temp" {
		t.Errorf("_source = %v", q.Source)
	}
	if m.index != "greenhouse" || m.size != 50 {
		t.Errorf("search target = %s/%d", m.index, m.size)
	}
}

func TestElasticsearch_NestedField(t *testing.T) {
	t.Parallel()

	m := &mockSearcher{body: hitsBody}
	src := NewElasticsearchWithSearcher(m, ElasticsearchOptions{ValueField: "sensor.temp"})
	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if records[2].Value != "3" {
		t.Errorf("nested value = %q, want 3", records[2].Value)
	}
	if records[0].Value != "" {
		t.Errorf("missing nested value = %q, want empty", records[0].Value)
	}
}

func TestElasticsearch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		searcher   *mockSearcher
		wantStatus int
		wantInErr  string
	}{
		{
			name:       "index missing",
			searcher:   &mockSearcher{status: 404, body: `{"error":{"type":"index_not_found_exception"}}`},
			wantStatus: 404,
			wantInErr:  "index_not_found_exception",
		},
		{
			name:      "transport failure",
			searcher:  &mockSearcher{err: errors.New("connection refused")},
			wantInErr: "connection refused",
		},
		{
			name:       "malformed response",
			searcher:   &mockSearcher{body: `{"hits":`},
			wantStatus: 200,
			wantInErr:  "decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			src := NewElasticsearchWithSearcher(tt.searcher, ElasticsearchOptions{})
			_, err := src.Fetch(context.Background())
			var ne *chart.NetworkError
			if !errors.As(err, &ne) {
				t.Fatalf("expected *chart.NetworkError, got %v", err)
			}
			if ne.StatusCode != tt.wantStatus {
				t.Errorf("StatusCode = %d, want %d", ne.StatusCode, tt.wantStatus)
			}
			if !strings.Contains(err.Error(), tt.wantInErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantInErr)
			}
		})
	}
}

func TestFormatQueryError(t *testing.T) {
	t.Parallel()

	err := formatQueryError("400 Bad Request", []byte("boom"), []byte(`{"query":{"match_all":{}}}`))
	msg := err.Error()
	for _, want := range []string{"400 Bad Request", "boom", "\"match_all\""} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}

	raw := formatQueryError("500", nil, []byte("not json"))
	if !strings.Contains(raw.Error(), "not json") {
		t.Errorf("raw query not kept: %q", raw.Error())
	}
}

// The real client against a fake cluster.
func TestElasticsearch_Client(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/_search") {
			t.Errorf("path = %s, want a _search request", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "ApiKey abc" {
			t.Errorf("Authorization = %q, want ApiKey abc", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !bytes.Contains(body, []byte(`"@timestamp"`)) {
			t.Errorf("query does not sort on @timestamp: %s", body)
		}
		_, _ = w.Write([]byte(hitsBody))
	}))
	defer server.Close()

	src, err := NewElasticsearch(ElasticsearchOptions{Addresses: []string{server.URL}, APIKey: "abc", Index: "sensors"})
	if err != nil {
		t.Fatalf("NewElasticsearch() error = %v", err)
	}
	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(records) != 3 {
		t.Errorf("records = %d, want 3", len(records))
	}
}
