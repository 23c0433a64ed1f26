// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package server serves rendered sensor charts over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/surface"
)

// OpenFunc returns the fetcher for one request. A zero since means all readings.
type OpenFunc func(since time.Time) (chart.Fetcher, error)

// Options configures a Server.
type Options struct {
	Addr        string
	ReadTimeout time.Duration
	Open        OpenFunc
	Renderer    *chart.Renderer
	Surface     surface.Options
	Timeout     time.Duration // Fetch timeout per render
	Logger      logrus.FieldLogger
	Registry    *prometheus.Registry // nil creates a private registry
}

// Server renders a chart per request. Requests share the renderer but no
// render state.
type Server struct {
	opts     Options
	log      logrus.FieldLogger
	registry *prometheus.Registry
	metrics  *Metrics
	now      func() time.Time
	handler  http.Handler
}

// New returns a Server.
func New(opts Options) (*Server, error) {
	if opts.Open == nil {
		return nil, errors.New("server: Open is required")
	}
	if opts.Renderer == nil {
		return nil, errors.New("server: Renderer is required")
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	s := &Server{
		opts:     opts,
		log:      opts.Logger,
		registry: reg,
		metrics:  NewMetrics(reg),
		now:      time.Now,
	}
	s.handler = s.routes()
	return s, nil
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(logging(s.log))
	r.Use(s.metrics.instrument)

	r.Get("/", s.handleIndex)
	r.Get("/chart.svg", s.handleImage(surface.FormatSVG))
	r.Get("/chart.png", s.handleImage(surface.FormatPNG))
	r.Get("/chart.json", s.handleJSON)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return otelhttp.NewHandler(r, "sensorchart")
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.opts.Addr).Info("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) render(r *http.Request) (*chart.RenderOutput, error) {
	since, err := parseSince(r.URL.Query().Get("since"), s.now())
	if err != nil {
		return nil, &requestError{err: err}
	}
	f, err := s.opts.Open(since)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}

	start := time.Now()
	out, err := chart.NewChart(s.opts.Renderer, f, s.opts.Timeout).Render(r.Context())
	s.metrics.observeRender(out, err, time.Since(start))
	return out, err
}

func (s *Server) handleImage(format surface.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := s.render(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		opts := s.opts.Surface
		opts.Format = format
		var buf bytes.Buffer
		if err := surface.Draw(&buf, out, opts); err != nil {
			s.writeError(w, r, fmt.Errorf("draw chart: %w", err))
			return
		}
		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Cache-Control", "no-store")
		_, _ = buf.WriteTo(w)
	}
}

// chartDocument is the JSON form of a render.
type chartDocument struct {
	*chart.RenderOutput
	Path string `json:"path"`
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	out, err := s.render(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	if err := enc.Encode(chartDocument{RenderOutput: out, Path: surface.PathData(out)}); err != nil {
		s.log.WithError(err).Warn("failed to write chart document")
	}
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<img src="/chart.svg{{.Query}}" width="{{.Width}}" height="{{.Height}}" alt="{{.Title}}">
<p><a href="/chart.png{{.Query}}">PNG</a> · <a href="/chart.json{{.Query}}">JSON</a></p>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if _, err := parseSince(r.URL.Query().Get("since"), s.now()); err != nil {
		s.writeError(w, r, &requestError{err: err})
		return
	}

	title := s.opts.Surface.Title
	if title == "" {
		title = "Sensor readings"
	}
	query := ""
	if since := r.URL.Query().Get("since"); since != "" {
		query = "?" + url.Values{"since": {since}}.Encode()
	}
	g := s.opts.Renderer.Config().Geometry

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Title         string
		Query         string
		Width, Height int
	}{title, query, g.Width, g.Height})
	if err != nil {
		s.log.WithError(err).Warn("failed to write index page")
	}
}

// parseSince accepts a lookback duration ("24h") or an RFC3339 timestamp.
func parseSince(v string, now time.Time) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if d, err := time.ParseDuration(v); err == nil {
		if d < 0 {
			return time.Time{}, fmt.Errorf("since must not be negative, got %q", v)
		}
		return now.Add(-d), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("since must be a duration or an RFC3339 time, got %q", v)
	}
	return t, nil
}
