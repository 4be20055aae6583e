// Package watch reruns generation when the Go sources of watched package
// directories change.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Handler regenerates one package directory.
type Handler func(ctx context.Context, dir string) error

// Watcher debounces file events per directory and calls the handler once
// per burst.
type Watcher struct {
	dirs     []string
	handler  Handler
	debounce time.Duration
	ignore   []string // file name suffixes that never trigger
	log      *zap.Logger
	ready    chan struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period after the last event. Default 300ms.
func WithDebounce(d time.Duration) Option { return func(w *Watcher) { w.debounce = d } }

// WithLogger sets the logger. Default zap.NewNop().
func WithLogger(l *zap.Logger) Option { return func(w *Watcher) { w.log = l } }

// WithIgnoredSuffix adds a file name suffix to ignore, typically the
// generator's output suffix.
func WithIgnoredSuffix(s string) Option { return func(w *Watcher) { w.ignore = append(w.ignore, s) } }

// New returns a watcher for dirs.
func New(dirs []string, h Handler, opts ...Option) *Watcher {
	w := &Watcher{
		dirs:     dirs,
		handler:  h,
		debounce: 300 * time.Millisecond,
		ignore:   []string{"_test.go"},
		log:      zap.NewNop(),
		ready:    make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Ready is closed once every directory is being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run watches until ctx is done. Handler failures are logged and watching
// continues.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer fw.Close()
	for _, d := range w.dirs {
		if err := fw.Add(d); err != nil {
			return fmt.Errorf("watch: %s: %w", d, err)
		}
		w.log.Info("watching", zap.String("dir", d))
	}
	close(w.ready)

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()
	pending := map[string]struct{}{}

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("watch stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
			pending[filepath.Dir(ev.Name)] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", zap.Error(err))

		case <-timer.C:
			w.flush(ctx, pending)
			pending = map[string]struct{}{}
		}
	}
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasPrefix(name, ".") {
		return false
	}
	for _, s := range w.ignore {
		if strings.HasSuffix(name, s) {
			return false
		}
	}
	return true
}

func (w *Watcher) flush(ctx context.Context, pending map[string]struct{}) {
	dirs := make([]string, 0, len(pending))
	for d := range pending {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		if ctx.Err() != nil {
			return
		}
		if err := w.handler(ctx, d); err != nil {
			w.log.Error("regeneration failed", zap.String("dir", d), zap.Error(err))
			continue
		}
		w.log.Info("regenerated", zap.String("dir", d))
	}
}
