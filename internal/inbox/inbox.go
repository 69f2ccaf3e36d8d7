// Package inbox imports project files dropped into a watched directory.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sadopc/ctfpad/internal/project"
	"go.uber.org/zap"
)

const (
	ImportedDir = "imported"
	RejectedDir = "rejected"
)

// Importer accepts exported project JSON.
type Importer interface {
	Import(data []byte) (*project.Project, error)
}

// Stats counts watcher activity.
type Stats struct {
	Imported int
	Rejected int
	Errors   int
}

// Watcher imports *.json files as they appear in a directory, then files them
// under imported/ or rejected/.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	importer    Importer
	logger      *zap.Logger
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	closed      bool
	stats       Stats
}

type Option func(*Watcher)

// WithDebounce sets how long a file must stay quiet before it is imported.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounceDur = d }
}

func New(dir string, importer Importer, logger *zap.Logger, opts ...Option) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:     fw,
		importer:    importer,
		logger:      logger.Named("inbox"),
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: 300 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start imports files already waiting in the directory, then watches it for
// new ones. It does not block.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running || w.closed {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.prepare(); err != nil {
		// run never started, so Stop must not wait for it.
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	w.logger.Info("watching", zap.String("dir", w.dir))

	pending, err := w.pending()
	if err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	for _, path := range pending {
		w.process(path)
	}

	go w.run(ctx)
	return nil
}

func (w *Watcher) prepare() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create inbox dir: %w", err)
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch inbox dir: %w", err)
	}
	return nil
}

// Stop ends the watch loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	wasRunning := w.running
	w.running = false
	w.closed = true
	w.mu.Unlock()

	if wasRunning {
		close(w.stopCh)
		<-w.doneCh
	}
	if err := w.watcher.Close(); err != nil {
		w.logger.Error("close watcher", zap.Error(err))
	}
	w.logger.Info("stopped")
}

// Stats returns a snapshot of the activity counters.
func (w *Watcher) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch", zap.Error(err))
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.processDebounced()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !isProjectFile(event.Name) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	w.logger.Debug("event", zap.String("path", event.Name), zap.Stringer("op", event.Op))

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	var ready []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			ready = append(ready, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	sort.Strings(ready)
	for _, path := range ready {
		w.process(path)
	}
}

// process imports one file and moves it out of the inbox.
func (w *Watcher) process(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		w.logger.Error("read file", zap.String("path", path), zap.Error(err))
		w.count(func(s *Stats) { s.Errors++ })
		return
	}

	p, err := w.importer.Import(data)
	if err != nil {
		w.logger.Warn("file rejected", zap.String("path", path), zap.Error(err))
		w.count(func(s *Stats) { s.Rejected++ })
		w.move(path, RejectedDir)
		return
	}

	w.logger.Info("file imported", zap.String("path", path), zap.String("id", p.ID), zap.String("name", p.Name))
	w.count(func(s *Stats) { s.Imported++ })
	w.move(path, ImportedDir)
}

func (w *Watcher) move(path, sub string) {
	dest := filepath.Join(w.dir, sub)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		w.logger.Error("create dir", zap.String("dir", dest), zap.Error(err))
		return
	}
	if err := os.Rename(path, filepath.Join(dest, filepath.Base(path))); err != nil {
		w.logger.Error("move file", zap.String("path", path), zap.Error(err))
	}
}

func (w *Watcher) count(fn func(*Stats)) {
	w.mu.Lock()
	fn(&w.stats)
	w.mu.Unlock()
}

func (w *Watcher) pending() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read inbox dir: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.Type().IsRegular() && isProjectFile(e.Name()) {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	return paths, nil
}

func isProjectFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json")
}
