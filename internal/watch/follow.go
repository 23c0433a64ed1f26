// Copyright 2026 Elasticsearch B.V.
// SPDX-License-Identifier: Apache-2.0

package watch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nxadm/tail"
	"github.com/sirupsen/logrus"

	"github.com/elastic/sensorchart/internal/chart"
	"github.com/elastic/sensorchart/internal/source"
)

// Follower tails an NDJSON readings file and keeps the last Window readings.
// It implements chart.Fetcher, so a Chart can render the window directly.
// Lines that cannot be decoded take a slot in the window, and the window
// fails to render until they have scrolled out of it.
type Follower struct {
	path   string
	window int
	log    logrus.FieldLogger

	mu      sync.Mutex
	entries []entry
}

// entry is one non-blank line of the followed file.
type entry struct {
	rec  chart.RawRecord
	line string
	err  error
}

// NewFollower returns a Follower for path keeping at most window readings.
func NewFollower(path string, window int, log logrus.FieldLogger) (*Follower, error) {
	if window < 1 {
		return nil, fmt.Errorf("window must be >= 1, got %d", window)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Follower{
		path:   path,
		window: window,
		log:    log.WithField("path", path),
	}, nil
}

// Run reads the file from the beginning and keeps following it, including
// across rotation, until ctx is done. onUpdate is called after every reading
// added to the window.
func (f *Follower) Run(ctx context.Context, onUpdate func()) error {
	t, err := tail.TailFile(f.path, tail.Config{
		Follow:    true,
		ReOpen:    true,  // Handle file rotation
		MustExist: false, // Allow following files that don't exist yet
		Poll:      true,  // Use polling (more reliable across filesystems)
		Location:  &tail.SeekInfo{Offset: 0, Whence: io.SeekStart},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to tail %s: %w", f.path, err)
	}
	defer t.Cleanup()

	for {
		select {
		case <-ctx.Done():
			_ = t.Stop()
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return t.Err()
			}
			if line.Err != nil {
				f.log.WithError(line.Err).Warn("read error")
				continue
			}
			if f.Add(line.Text) && onUpdate != nil {
				onUpdate()
			}
		}
	}
}

// Render keeps c rendering the window until ctx is done. Each burst of new
// readings starts a new render generation once it has been quiet for
// opts.Debounce.
func (f *Follower) Render(ctx context.Context, c *chart.Chart, opts NotifyOptions) error {
	d := newDebouncer(opts.Debounce, func() { c.Refresh(ctx, opts.OnResult) })
	err := f.Run(ctx, d.trigger)
	d.stop()
	c.Abandon()
	return err
}

// Add decodes one NDJSON line into the window. It reports whether the window
// changed; only blank lines leave it untouched. An undecodable line is kept
// so that Fetch can report it.
func (f *Follower) Add(line string) bool {
	rec, ok, err := source.DecodeLine([]byte(line))
	if err != nil {
		f.log.WithError(err).Warn("undecodable reading")
		f.push(entry{line: strings.TrimSpace(line), err: err})
		return true
	}
	if !ok {
		return false
	}
	f.push(entry{rec: rec})
	return true
}

func (f *Follower) push(e entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
	if over := len(f.entries) - f.window; over > 0 {
		// Copy so the dropped prefix is released.
		f.entries = append([]entry(nil), f.entries[over:]...)
	}
}

// Fetch returns a copy of the current window. If the window holds a line
// that could not be decoded, it returns a *chart.ParseError for the first one.
func (f *Follower) Fetch(ctx context.Context) ([]chart.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	records := make([]chart.RawRecord, len(f.entries))
	for i, e := range f.entries {
		if e.err != nil {
			return nil, &chart.ParseError{Index: i, Field: "record", Value: e.line, Err: e.err}
		}
		records[i] = e.rec
	}
	return records, nil
}

// Len returns the number of entries in the window, undecodable lines included.
func (f *Follower) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}
