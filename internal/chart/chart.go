// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package chart

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DefaultFetchTimeout bounds a single fetch when no timeout is configured.
const DefaultFetchTimeout = 10 * time.Second

// ErrSuperseded is returned by Chart.Render when a newer render started
// before this one completed.
var ErrSuperseded = errors.New("render superseded by a newer render")

// Fetcher retrieves the raw readings of one chart.
type Fetcher interface {
	Fetch(ctx context.Context) ([]RawRecord, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context) ([]RawRecord, error)

// Fetch calls f(ctx).
func (f FetcherFunc) Fetch(ctx context.Context) ([]RawRecord, error) { return f(ctx) }

// Result is the outcome of one render generation.
type Result struct {
	Generation uint64
	Output     *RenderOutput // nil when Err is set
	Err        error
	RenderedAt time.Time
	Duration   time.Duration
}

// Chart binds a Renderer to a Fetcher. Every render runs under a generation
// token: starting a new render cancels the previous one, and a completion
// that belongs to an older generation is dropped instead of replacing the
// newer result. Charts share no state with each other.
type Chart struct {
	renderer *Renderer
	fetcher  Fetcher
	timeout  time.Duration

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	latest Result
}

// NewChart returns a Chart. A timeout <= 0 selects DefaultFetchTimeout.
func NewChart(r *Renderer, f Fetcher, timeout time.Duration) *Chart {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Chart{renderer: r, fetcher: f, timeout: timeout}
}

// Begin starts a new generation and cancels the pending one, if any.
// The returned context is canceled when the generation is superseded.
func (c *Chart) Begin(parent context.Context) (context.Context, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	ctx, cancel := context.WithCancel(parent)
	c.cancel = cancel
	return ctx, c.gen
}

// Run fetches and renders for generation gen. The boolean reports whether gen
// was still current on completion; stale results are not recorded.
func (c *Chart) Run(ctx context.Context, gen uint64) (Result, bool) {
	start := time.Now()
	out, err := c.render(ctx)
	res := Result{
		Generation: gen,
		Output:     out,
		Err:        err,
		RenderedAt: time.Now(),
		Duration:   time.Since(start),
	}
	return res, c.commit(res)
}

// Refresh renders asynchronously. onDone runs on the render goroutine and
// only for a result that is still current when it completes.
func (c *Chart) Refresh(parent context.Context, onDone func(Result)) uint64 {
	ctx, gen := c.Begin(parent)
	go func() {
		res, ok := c.Run(ctx, gen)
		if ok && onDone != nil {
			onDone(res)
		}
	}()
	return gen
}

// Render fetches and renders synchronously.
func (c *Chart) Render(ctx context.Context) (*RenderOutput, error) {
	ctx, gen := c.Begin(ctx)
	res, ok := c.Run(ctx, gen)
	if !ok {
		return nil, ErrSuperseded
	}
	return res.Output, res.Err
}

// Abandon invalidates the pending render, if any.
func (c *Chart) Abandon() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Generation returns the current generation token.
func (c *Chart) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Latest returns the most recent current result. Its Generation is 0 before
// the first render completes.
func (c *Chart) Latest() Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

func (c *Chart) commit(res Result) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if res.Generation != c.gen {
		return false
	}
	c.latest = res
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return true
}

func (c *Chart) render(ctx context.Context) (*RenderOutput, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	records, err := c.fetcher.Fetch(fetchCtx)
	if err != nil {
		// Only the fetch deadline is a timeout; a canceled or expired parent is passed through.
		if ctx.Err() == nil && errors.Is(fetchCtx.Err(), context.DeadlineExceeded) {
			return nil, &TimeoutError{After: c.timeout, Err: err}
		}
		return nil, err
	}
	return c.renderer.Render(records)
}
