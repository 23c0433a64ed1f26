// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

// Package watch keeps a chart current while its readings change on disk:
// Notifier re-renders when a readings file is rewritten, Follower tails an
// NDJSON file and serves a rolling window of the latest readings.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/elastic/sensorchart/internal/chart"
)

// Notifier re-renders a chart whenever its readings file changes.
type Notifier struct {
	path     string
	chart    *chart.Chart
	debounce time.Duration
	onResult func(chart.Result)
	log      logrus.FieldLogger
}

// NotifyOptions configures a Notifier.
type NotifyOptions struct {
	Debounce time.Duration      // Quiet period after the last event, 0 renders immediately
	OnResult func(chart.Result) // Called for every result that is still current
	Logger   logrus.FieldLogger
}

// NewNotifier returns a Notifier for the file at path.
func NewNotifier(path string, c *chart.Chart, opts NotifyOptions) (*Notifier, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path %q: %w", path, err)
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Notifier{
		path:     abs,
		chart:    c,
		debounce: opts.Debounce,
		onResult: opts.OnResult,
		log:      log.WithField("path", abs),
	}, nil
}

// Run renders once, then again after every change to the file, until ctx is
// done. Renders triggered in quick succession supersede each other.
func (n *Notifier) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so the directory is watched instead.
	if err := watcher.Add(filepath.Dir(n.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(n.path), err)
	}

	d := newDebouncer(n.debounce, func() { n.refresh(ctx) })
	defer d.stop()

	n.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			// A pending refresh must not start after the chart is abandoned.
			d.stop()
			n.chart.Abandon()
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			if filepath.Clean(event.Name) != n.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			n.log.WithField("op", event.Op.String()).Debug("readings changed")
			d.trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher closed")
			}
			n.log.WithError(err).Warn("watch error")
		}
	}
}

func (n *Notifier) refresh(ctx context.Context) {
	gen := n.chart.Refresh(ctx, n.onResult)
	n.log.WithField("generation", gen).Debug("render started")
}

// debouncer runs fn once per burst of triggers, after the burst has been
// quiet for the configured delay. Once stop returns, fn is neither running
// nor scheduled.
type debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(delay time.Duration, fn func()) *debouncer {
	return &debouncer{delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	if d.delay <= 0 {
		d.fire()
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

func (d *debouncer) fire() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.fn()
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
