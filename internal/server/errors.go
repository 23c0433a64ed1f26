// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/elastic/sensorchart/internal/chart"
)

// requestError marks a malformed request.
type requestError struct {
	err error
}

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

// statusFor maps a render error to an HTTP status code.
func statusFor(err error) int {
	var (
		reqErr     *requestError
		timeoutErr *chart.TimeoutError
		netErr     *chart.NetworkError
		parseErr   *chart.ParseError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest
	case errors.As(err, &timeoutErr), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &netErr), errors.As(err, &parseErr):
		return http.StatusBadGateway
	case errors.Is(err, chart.ErrEmptyDataset):
		return http.StatusNotFound
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// outcome names a render result for metrics.
func outcome(err error) string {
	var (
		timeoutErr *chart.TimeoutError
		netErr     *chart.NetworkError
		parseErr   *chart.ParseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &timeoutErr):
		return "timeout"
	case errors.As(err, &netErr):
		return "network"
	case errors.As(err, &parseErr):
		return "parse"
	case errors.Is(err, chart.ErrEmptyDataset):
		return "empty"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	entry := requestLogger(r, s.log).WithError(err).WithField("status", status)
	if status >= http.StatusInternalServerError {
		entry.Error("render failed")
	} else {
		entry.Warn("render failed")
	}
	http.Error(w, err.Error(), status)
}
