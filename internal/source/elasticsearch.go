// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/elastic/sensorchart/internal/chart"
)

// Elasticsearch defaults.
const (
	DefaultIndex      = "sensors-*"
	DefaultTimeField  = "@timestamp"
	DefaultValueField = "value"
	DefaultSize       = 1000
)

// SearchResponse represents a raw search response body
type SearchResponse struct {
	Body       io.ReadCloser
	StatusCode int
	Status     string
	IsError    bool
}

// Searcher defines the Elasticsearch operation needed to read readings.
type Searcher interface {
	Search(ctx context.Context, index string, body []byte, size int) (*SearchResponse, error)
}

// ElasticsearchOptions holds configuration for an Elasticsearch source.
type ElasticsearchOptions struct {
	Addresses  []string
	APIKey     string
	Username   string
	Password   string
	Index      string
	TimeField  string
	ValueField string
	Size       int
	Since      time.Time
}

func (o *ElasticsearchOptions) applyDefaults() {
	if o.Index == "" {
		o.Index = DefaultIndex
	}
	if o.TimeField == "" {
		o.TimeField = DefaultTimeField
	}
	if o.ValueField == "" {
		o.ValueField = DefaultValueField
	}
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
}

// Elasticsearch reads readings from documents in an index, oldest first.
type Elasticsearch struct {
	searcher Searcher
	address  string
	opts     ElasticsearchOptions
}

// NewElasticsearch creates a source backed by a go-elasticsearch client.
func NewElasticsearch(opts ElasticsearchOptions) (*Elasticsearch, error) {
	if len(opts.Addresses) == 0 {
		opts.Addresses = []string{"http://localhost:9200"}
	}
	cfg := elasticsearch.Config{
		Addresses: opts.Addresses,
		APIKey:    opts.APIKey,
		Username:  opts.Username,
		Password:  opts.Password,
	}
	es, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create ES client: %w", err)
	}
	return NewElasticsearchWithSearcher(&esSearcher{es: es}, opts), nil
}

// NewElasticsearchWithSearcher creates a source on top of any Searcher.
func NewElasticsearchWithSearcher(s Searcher, opts ElasticsearchOptions) *Elasticsearch {
	opts.applyDefaults()
	address := ""
	if len(opts.Addresses) > 0 {
		address = strings.TrimSuffix(opts.Addresses[0], "/")
	}
	return &Elasticsearch{searcher: s, address: address, opts: opts}
}

// Index returns the index pattern being searched.
func (e *Elasticsearch) Index() string { return e.opts.Index }

// Query returns the search body sent on every Fetch.
func (e *Elasticsearch) Query() map[string]interface{} {
	query := map[string]interface{}{
		"match_all": map[string]interface{}{},
	}
	if !e.opts.Since.IsZero() {
		query = map[string]interface{}{
			"range": map[string]interface{}{
				e.opts.TimeField: map[string]interface{}{
					"gte": e.opts.Since.UTC().Format(time.RFC3339),
				},
			},
		}
	}
	return map[string]interface{}{
		"query": query,
		"sort": []map[string]interface{}{
			{e.opts.TimeField: map[string]interface{}{"order": "asc"}},
		},
		"_source": []string{e.opts.TimeField, e.opts.ValueField},
	}
}

// Fetch runs the search and converts hits into records.
func (e *Elasticsearch) Fetch(ctx context.Context) ([]chart.RawRecord, error) {
	target := e.address + "/" + e.opts.Index + "/_search"

	queryJSON, err := json.Marshal(e.Query())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	res, err := e.searcher.Search(ctx, e.opts.Index, queryJSON, e.opts.Size)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &chart.NetworkError{URL: target, Err: err}
	}
	defer res.Body.Close()

	if res.IsError {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return nil, &chart.NetworkError{
			URL:        target,
			StatusCode: res.StatusCode,
			Err:        formatQueryError(res.Status, body, queryJSON),
		}
	}

	var response struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, &chart.NetworkError{
			URL:        target,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("failed to decode search response: %w", err),
		}
	}

	records := make([]chart.RawRecord, 0, len(response.Hits.Hits))
	for _, hit := range response.Hits.Hits {
		doc, err := decodeSource(hit.Source)
		if err != nil {
			return nil, &chart.NetworkError{URL: target, StatusCode: res.StatusCode, Err: err}
		}
		records = append(records, chart.RawRecord{
			TS:    timestampText(lookupField(doc, e.opts.TimeField)),
			Value: valueText(lookupField(doc, e.opts.ValueField)),
		})
	}
	return records, nil
}

func decodeSource(raw json.RawMessage) (map[string]interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc map[string]interface{}
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode _source: %w", err)
	}
	return doc, nil
}

// lookupField resolves a field by its full name first, then by walking
// dotted path segments into nested objects.
func lookupField(doc map[string]interface{}, field string) interface{} {
	if v, ok := doc[field]; ok {
		return v
	}
	parts := strings.SplitN(field, ".", 2)
	if len(parts) < 2 {
		return nil
	}
	nested, ok := doc[parts[0]].(map[string]interface{})
	if !ok {
		return nil
	}
	return lookupField(nested, parts[1])
}

// timestampText renders a date field as text. Numbers are epoch millis.
func timestampText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		if ms, err := t.Int64(); err == nil {
			return time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
		}
		if f, err := t.Float64(); err == nil {
			return time.Unix(0, int64(f*float64(time.Millisecond))).UTC().Format(time.RFC3339Nano)
		}
		return t.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

func valueText(v interface{}) chart.RawValue {
	switch t := v.(type) {
	case string:
		return chart.RawValue(t)
	case json.Number:
		return chart.RawValue(t.String())
	case nil:
		return ""
	default:
		return chart.RawValue(fmt.Sprint(t))
	}
}

// formatQueryError builds a detailed error including response status, body, and pretty query.
func formatQueryError(status string, body []byte, queryJSON []byte) error {
	var prettyQuery bytes.Buffer
	_ = json.Indent(&prettyQuery, queryJSON, "", "  ")
	if prettyQuery.Len() == 0 {
		prettyQuery.Write(queryJSON)
	}
	return fmt.Errorf("search failed: %s\nError: %s\n\nQuery:\n%s", status, strings.TrimSpace(string(body)), prettyQuery.String())
}

// esSearcher adapts the go-elasticsearch client to Searcher.
type esSearcher struct {
	es *elasticsearch.Client
}

func (s *esSearcher) Search(ctx context.Context, index string, body []byte, size int) (*SearchResponse, error) {
	res, err := s.es.Search(
		s.es.Search.WithContext(ctx),
		s.es.Search.WithIndex(index),
		s.es.Search.WithBody(bytes.NewReader(body)),
		s.es.Search.WithSize(size),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search: %w", err)
	}
	return &SearchResponse{
		Body:       res.Body,
		StatusCode: res.StatusCode,
		Status:     res.Status(),
		IsError:    res.IsError(),
	}, nil
}
