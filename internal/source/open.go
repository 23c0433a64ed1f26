// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package source provides the data sources a chart can be fetched from: a
// JSON HTTP endpoint, a local readings file, or an Elasticsearch index.
package source

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/elastic/sensorchart/internal/chart"
)

// Kind selects a source implementation.
type Kind string

const (
	KindAuto          Kind = "auto"
	KindHTTP          Kind = "http"
	KindFile          Kind = "file"
	KindElasticsearch Kind = "elasticsearch"
)

// ParseKind validates a kind name. An empty name means KindAuto.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return KindAuto, nil
	case KindAuto, KindHTTP, KindFile, KindElasticsearch:
		return k, nil
	case "es":
		return KindElasticsearch, nil
	default:
		return "", fmt.Errorf("invalid source kind %q (must be auto, http, file or elasticsearch)", s)
	}
}

// Options configures Open.
type Options struct {
	Kind     Kind
	URL      string
	APIKey   string
	Username string
	Password string
	Since    time.Time
	Timeout  time.Duration

	// Elasticsearch only.
	Index      string
	TimeField  string
	ValueField string
	Size       int
}

// Open returns the Fetcher described by opts.
//
// With KindAuto, the URL decides: http(s) URLs are JSON endpoints,
// es+http(s) URLs are Elasticsearch clusters, and file URLs or bare paths
// are readings files.
func Open(opts Options) (chart.Fetcher, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("source url is required")
	}

	kind, target := opts.Kind, opts.URL
	if kind == "" || kind == KindAuto {
		kind, target = detect(opts.URL)
	} else if kind == KindElasticsearch {
		target = strings.TrimPrefix(target, "es+")
	}

	var (
		f   chart.Fetcher
		err error
	)
	switch kind {
	case KindHTTP:
		f, err = NewHTTP(HTTPOptions{
			URL:      target,
			APIKey:   opts.APIKey,
			Username: opts.Username,
			Password: opts.Password,
			Since:    opts.Since,
			Timeout:  opts.Timeout,
		})
	case KindFile:
		f, err = NewFile(strings.TrimPrefix(target, "file://"))
	case KindElasticsearch:
		f, err = NewElasticsearch(ElasticsearchOptions{
			Addresses:  []string{target},
			APIKey:     opts.APIKey,
			Username:   opts.Username,
			Password:   opts.Password,
			Index:      opts.Index,
			TimeField:  opts.TimeField,
			ValueField: opts.ValueField,
			Size:       opts.Size,
			Since:      opts.Since,
		})
	default:
		return nil, fmt.Errorf("invalid source kind %q", kind)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func detect(raw string) (Kind, string) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// Bare paths, including Windows drive letters.
		return KindFile, raw
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return KindHTTP, raw
	case "es+http", "es+https":
		return KindElasticsearch, strings.TrimPrefix(raw, "es+")
	case "file":
		return KindFile, u.Path
	default:
		return KindFile, raw
	}
}
