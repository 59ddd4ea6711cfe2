package handler

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/hitfake/packages/fake"
	"github.com/abdul-hamid-achik/hitfake/packages/message"
)

// WatchDebounceDelay is the debounce delay for file watch events
const WatchDebounceDelay = 300 * time.Millisecond

// Reloadable forwards to a handler that can be swapped at runtime.
type Reloadable struct {
	current atomic.Pointer[handlerBox]
}

type handlerBox struct {
	handler fake.Handler
}

func NewReloadable(h fake.Handler) *Reloadable {
	r := &Reloadable{}
	r.Swap(h)
	return r
}

// Swap installs h for subsequent requests.
func (r *Reloadable) Swap(h fake.Handler) {
	r.current.Store(&handlerBox{handler: h})
}

func (r *Reloadable) Current() fake.Handler {
	return r.current.Load().handler
}

func (r *Reloadable) Handle(req *message.ServerRequest) (*http.Response, error) {
	return r.Current().Handle(req)
}

// LoadFunc builds the handler for a routes file.
type LoadFunc func(path string) (fake.Handler, error)

// Watcher reloads a routes file into a Reloadable whenever it is written.
type Watcher struct {
	path     string
	target   *Reloadable
	load     LoadFunc
	debounce time.Duration
	logger   *zap.Logger
	wrap     func(fake.Handler) fake.Handler

	mu      sync.Mutex
	reloads int
}

type WatcherOption func(*Watcher)

// WithDebounce overrides WatchDebounceDelay.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

func WithWatcherLogger(l *zap.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithLoader replaces LoadRoutesFile as the file loader.
func WithLoader(load LoadFunc) WatcherOption {
	return func(w *Watcher) {
		w.load = load
	}
}

// WithWrap decorates every loaded handler, e.g. with Throttle.
func WithWrap(wrap func(fake.Handler) fake.Handler) WatcherOption {
	return func(w *Watcher) {
		w.wrap = wrap
	}
}

// NewWatcher loads path once and returns a watcher serving it through
// Handler.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{
		path:     path,
		debounce: WatchDebounceDelay,
		logger:   fake.Logger(),
		load: func(path string) (fake.Handler, error) {
			return LoadRoutesFile(path)
		},
	}
	for _, opt := range opts {
		opt(w)
	}

	h, err := w.loadHandler()
	if err != nil {
		return nil, err
	}
	w.target = NewReloadable(h)
	return w, nil
}

// Handler returns the reloadable handler kept up to date by Run.
func (w *Watcher) Handler() *Reloadable {
	return w.target
}

// Reloads returns the number of successful reloads.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Reload loads the file now. On failure the current handler stays in place.
func (w *Watcher) Reload() error {
	h, err := w.loadHandler()
	if err != nil {
		w.logger.Warn("routes reload failed, keeping previous routes", zap.String("path", w.path), zap.Error(err))
		return err
	}
	w.target.Swap(h)
	w.mu.Lock()
	w.reloads++
	w.mu.Unlock()
	w.logger.Info("routes reloaded", zap.String("path", w.path))
	return nil
}

func (w *Watcher) loadHandler() (fake.Handler, error) {
	h, err := w.load(w.path)
	if err != nil {
		return nil, err
	}
	if w.wrap != nil {
		h = w.wrap(h)
	}
	return h, nil
}

// Run watches the file's directory until ctx is done. Editors that replace
// the file instead of writing it in place are handled by also reacting to
// create events.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", w.path, err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(target), err)
	}

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				_ = w.Reload()
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}
