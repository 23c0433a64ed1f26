// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"io"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/source"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func readings(n int) []chart.RawRecord {
	t0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	records := make([]chart.RawRecord, n)
	for i := range records {
		records[i] = chart.RawRecord{
			TS:    t0.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
			Value: chart.RawValue("21.5"),
		}
	}
	return records
}

func waitResult(t *testing.T, results <-chan chart.Result, want int) chart.Result {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-results:
			if res.Err == nil && res.Output.SampleCount == want {
				return res
			}
		case <-deadline:
			t.Fatalf("no result with %d samples before deadline", want)
			return chart.Result{}
		}
	}
}

func TestNotifier_RerendersOnChange(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readings.json")
	if err := source.WriteFile(path, readings(2)); err != nil {
		t.Fatal(err)
	}

	r, err := chart.NewRenderer(chart.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	f, err := source.NewFile(path)
	if err != nil {
		t.Fatal(err)
	}
	c := chart.NewChart(r, f, time.Second)

	results := make(chan chart.Result, 16)
	n, err := NewNotifier(path, c, NotifyOptions{
		Debounce: 10 * time.Millisecond,
		OnResult: func(res chart.Result) { results <- res },
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()

	first := waitResult(t, results, 2)

	if err := source.WriteFile(path, readings(5)); err != nil {
		t.Fatal(err)
	}
	second := waitResult(t, results, 5)
	if second.Generation <= first.Generation {
		t.Errorf("Generation = %d, want > %d", second.Generation, first.Generation)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNotifier_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "readings.ndjson")
	if err := source.WriteFile(path, readings(1)); err != nil {
		t.Fatal(err)
	}

	var fetches atomic.Int32
	r, err := chart.NewRenderer(chart.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	c := chart.NewChart(r, chart.FetcherFunc(func(context.Context) ([]chart.RawRecord, error) {
		fetches.Add(1)
		return readings(1), nil
	}), time.Second)

	n, err := NewNotifier(path, c, NotifyOptions{Logger: quietLogger()})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = n.Run(ctx) }()

	deadline := time.Now().Add(5 * time.Second)
	for fetches.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := fetches.Load(); got != 1 {
		t.Fatalf("initial fetches = %d, want 1", got)
	}

	if err := source.WriteFile(filepath.Join(dir, "other.ndjson"), readings(3)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetches after unrelated write = %d, want 1", got)
	}
}

func TestDebouncer(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	d := newDebouncer(30*time.Millisecond, func() { calls.Add(1) })
	defer d.stop()

	for i := 0; i < 5; i++ {
		d.trigger()
		time.Sleep(time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}

	immediate := newDebouncer(0, func() { calls.Add(1) })
	immediate.trigger()
	if got := calls.Load(); got != 2 {
		t.Errorf("calls after immediate trigger = %d, want 2", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		delay time.Duration
	}{
		{name: "delayed", delay: 20 * time.Millisecond},
		{name: "immediate", delay: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			d := newDebouncer(tt.delay, func() { calls.Add(1) })
			if tt.delay > 0 {
				d.trigger()
			}
			d.stop()
			d.trigger()
			time.Sleep(100 * time.Millisecond)
			if got := calls.Load(); got != 0 {
				t.Errorf("calls after stop = %d, want 0", got)
			}
		})
	}
}

func TestNotifier_NoRenderAfterCancel(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "readings.json")
	if err := source.WriteFile(path, readings(2)); err != nil {
		t.Fatal(err)
	}

	var fetches atomic.Int32
	r, err := chart.NewRenderer(chart.DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	c := chart.NewChart(r, chart.FetcherFunc(func(context.Context) ([]chart.RawRecord, error) {
		fetches.Add(1)
		return readings(2), nil
	}), time.Second)

	results := make(chan chart.Result, 16)
	n, err := NewNotifier(path, c, NotifyOptions{
		Debounce: 100 * time.Millisecond,
		OnResult: func(res chart.Result) { results <- res },
		Logger:   quietLogger(),
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Run(ctx) }()
	waitResult(t, results, 2)

	// Queue a debounced refresh, then shut down before it fires.
	if err := source.WriteFile(path, readings(2)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	before := fetches.Load()
	time.Sleep(300 * time.Millisecond)
	if got := fetches.Load(); got != before {
		t.Errorf("fetches after Run returned = %d, want %d", got, before)
	}
	select {
	case res := <-results:
		t.Errorf("result after Run returned: generation %d, err %v", res.Generation, res.Err)
	default:
	}
}
