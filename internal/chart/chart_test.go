// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func staticFetcher(records ...RawRecord) Fetcher {
	return FetcherFunc(func(context.Context) ([]RawRecord, error) {
		return records, nil
	})
}

func newTestChart(t *testing.T, f Fetcher, timeout time.Duration) *Chart {
	t.Helper()
	return NewChart(newTestRenderer(t), f, timeout)
}

func TestChart_Render(t *testing.T) {
	t.Parallel()

	c := newTestChart(t, staticFetcher(
		RawRecord{TS: "2020-01-01T00:00:00Z", Value: "1"},
		RawRecord{TS: "2020-01-01T00:01:00Z", Value: "2"},
	), 0)

	out, err := c.Render(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Segments) != 1 || len(out.Segments[0]) != 2 {
		t.Errorf("segments = %v, want one segment of 2 points", out.Segments)
	}

	latest := c.Latest()
	if latest.Generation != c.Generation() {
		t.Errorf("Latest().Generation = %d, want %d", latest.Generation, c.Generation())
	}
	if latest.Output != out {
		t.Error("Latest() does not hold the committed output")
	}
}

func TestChart_FetchError(t *testing.T) {
	t.Parallel()

	netErr := &NetworkError{URL: "http://sensor", StatusCode: 500, Err: errors.New("boom")}
	c := newTestChart(t, FetcherFunc(func(context.Context) ([]RawRecord, error) {
		return nil, netErr
	}), 0)

	out, err := c.Render(context.Background())
	if out != nil {
		t.Error("expected nil output")
	}
	var ne *NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if c.Latest().Err == nil {
		t.Error("failed render should still be recorded as the latest result")
	}
}

func TestChart_Timeout(t *testing.T) {
	t.Parallel()

	c := newTestChart(t, FetcherFunc(func(ctx context.Context) ([]RawRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), 20*time.Millisecond)

	_, err := c.Render(context.Background())
	var te *TimeoutError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TimeoutError, got %v", err)
	}
	if te.After != 20*time.Millisecond {
		t.Errorf("After = %v, want 20ms", te.After)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("TimeoutError should wrap context.DeadlineExceeded")
	}
}

func TestChart_ParentCancelIsNotTimeout(t *testing.T) {
	t.Parallel()

	c := newTestChart(t, FetcherFunc(func(ctx context.Context) ([]RawRecord, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}), time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Render(ctx)
	var te *TimeoutError
	if errors.As(err, &te) {
		t.Fatalf("parent cancel reported as timeout: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestChart_StaleResultIsDropped(t *testing.T) {
	t.Parallel()

	c := newTestChart(t, staticFetcher(RawRecord{TS: "2020-01-01T00:00:00Z", Value: "1"}), 0)

	oldCtx, oldGen := c.Begin(context.Background())
	_, newGen := c.Begin(context.Background())
	if newGen <= oldGen {
		t.Fatalf("generation did not advance: %d -> %d", oldGen, newGen)
	}
	if oldCtx.Err() == nil {
		t.Error("starting a new generation should cancel the previous one")
	}

	if _, ok := c.Run(context.Background(), oldGen); ok {
		t.Error("stale generation was committed")
	}
	if c.Latest().Generation != 0 {
		t.Errorf("Latest().Generation = %d, want 0", c.Latest().Generation)
	}

	res, ok := c.Run(context.Background(), newGen)
	if !ok {
		t.Fatal("current generation was not committed")
	}
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if c.Latest().Generation != newGen {
		t.Errorf("Latest().Generation = %d, want %d", c.Latest().Generation, newGen)
	}
}

func TestChart_Abandon(t *testing.T) {
	t.Parallel()

	c := newTestChart(t, staticFetcher(RawRecord{TS: "2020-01-01T00:00:00Z", Value: "1"}), 0)

	ctx, gen := c.Begin(context.Background())
	c.Abandon()
	if ctx.Err() == nil {
		t.Error("Abandon should cancel the pending render")
	}
	if _, ok := c.Run(context.Background(), gen); ok {
		t.Error("abandoned generation was committed")
	}
}

func TestChart_Refresh(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	var calls atomic.Int32
	c := newTestChart(t, FetcherFunc(func(ctx context.Context) ([]RawRecord, error) {
		if calls.Add(1) == 1 {
			// First fetch stays in flight until the second refresh has completed.
			<-release
		}
		return []RawRecord{{TS: "2020-01-01T00:00:00Z", Value: "1"}}, nil
	}), time.Minute)

	var delivered atomic.Int32
	results := make(chan Result, 2)
	onDone := func(r Result) {
		delivered.Add(1)
		results <- r
	}

	c.Refresh(context.Background(), onDone)
	// Wait for the first fetch to be in flight.
	for calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	second := c.Refresh(context.Background(), onDone)

	select {
	case r := <-results:
		if r.Generation != second {
			t.Errorf("delivered generation = %d, want %d", r.Generation, second)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("second refresh never completed")
	}

	close(release)
	time.Sleep(50 * time.Millisecond)
	if n := delivered.Load(); n != 1 {
		t.Errorf("onDone called %d times, want 1", n)
	}
	if c.Latest().Generation != second {
		t.Errorf("Latest().Generation = %d, want %d", c.Latest().Generation, second)
	}
}
