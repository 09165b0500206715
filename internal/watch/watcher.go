// Package watch turns image files dropped into a directory into sends.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler is called once per settled file. Calls never overlap.
type Handler func(ctx context.Context, path string)

// Watcher watches a directory for new or rewritten image files.
type Watcher struct {
	dir     string
	exts    map[string]bool
	settle  time.Duration
	logger  *slog.Logger
	handler Handler
}

// New creates a Watcher on dir for files with one of exts. A file is handed
// to the handler once it has not changed for settle.
func New(dir string, exts []string, settle time.Duration, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = true
	}
	return &Watcher{
		dir:    dir,
		exts:   m,
		settle: settle,
		logger: logger,
	}
}

// SetHandler sets the function called for each settled file.
func (w *Watcher) SetHandler(h Handler) {
	w.handler = h
}

// Matches reports whether path has one of the watched extensions.
func (w *Watcher) Matches(path string) bool {
	return w.exts[strings.ToLower(filepath.Ext(path))]
}

// Run watches until ctx is cancelled. Settled files are handed to the handler
// one at a time, oldest deadline first.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = fw.Close() }()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.logger.Debug("watching directory", "dir", w.dir, "settle", w.settle)

	deb := newDebouncer(w.settle)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	var timerC <-chan time.Time

	schedule := func() {
		next, ok := deb.next()
		if !ok {
			timerC = nil
			return
		}
		timer.Reset(max(time.Until(next), 0))
		timerC = timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.Matches(event.Name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
				deb.touch(event.Name, time.Now())
			case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
				deb.drop(event.Name)
			}
			schedule()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)

		case <-timerC:
			for _, path := range deb.due(time.Now()) {
				if ctx.Err() != nil {
					return nil
				}
				w.logger.Debug("file settled", "path", path)
				if w.handler != nil {
					w.handler(ctx, path)
				}
			}
			schedule()
		}
	}
}

// debouncer tracks per-path deadlines.
type debouncer struct {
	settle  time.Duration
	pending map[string]time.Time
}

func newDebouncer(settle time.Duration) *debouncer {
	return &debouncer{settle: settle, pending: make(map[string]time.Time)}
}

func (d *debouncer) touch(path string, now time.Time) {
	d.pending[path] = now.Add(d.settle)
}

func (d *debouncer) drop(path string) {
	delete(d.pending, path)
}

// next returns the earliest pending deadline.
func (d *debouncer) next() (time.Time, bool) {
	var earliest time.Time
	found := false
	for _, t := range d.pending {
		if !found || t.Before(earliest) {
			earliest, found = t, true
		}
	}
	return earliest, found
}

// due removes and returns the paths whose deadline is at or before now,
// ordered by deadline then name.
func (d *debouncer) due(now time.Time) []string {
	var out []string
	for p, t := range d.pending {
		if !t.After(now) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := d.pending[out[i]], d.pending[out[j]]
		if !ti.Equal(tj) {
			return ti.Before(tj)
		}
		return out[i] < out[j]
	})
	for _, p := range out {
		delete(d.pending, p)
	}
	return out
}
