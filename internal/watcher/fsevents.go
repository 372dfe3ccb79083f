package watcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// DefaultDebounce is how long the watcher waits after the last change
// before rescanning.
const DefaultDebounce = 2 * time.Second

// ErrNothingToWatch is returned by Start when none of the directories exist.
var ErrNothingToWatch = errors.New("no desktop entry directory to watch")

// Cache is what the watcher refreshes.
type Cache interface {
	Invalidate()
	Get(ctx context.Context, forceRefresh bool) *catalog.Result
}

// Options configures a Watcher. Zero values select defaults.
type Options struct {
	Debounce time.Duration
	Logger   *log.Logger
	// OnRescan, if set, is called with the result of every rescan.
	OnRescan func(*catalog.Result)
}

// Watcher rescans applications when desktop entries are added, changed or
// removed. Bursts of changes within the debounce window cause one rescan.
type Watcher struct {
	cache    Cache
	dirs     []string
	debounce time.Duration
	logger   *log.Logger
	onRescan func(*catalog.Result)

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	rescans  atomic.Int64
}

// New creates a watcher over dirs that refreshes c.
func New(c Cache, dirs []string, opts Options) (*Watcher, error) {
	if c == nil {
		return nil, fmt.Errorf("cache cannot be nil")
	}
	w := &Watcher{
		cache:    c,
		dirs:     dirs,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		onRescan: opts.OnRescan,
		stopCh:   make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.Default()
	}
	return w, nil
}

// Start watches every existing directory and returns. Directories that
// cannot be watched are skipped with a warning.
func (w *Watcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	watched := 0
	for _, dir := range watchDirs(w.dirs) {
		if err := fsw.Add(dir); err != nil {
			w.logger.Warn("cannot watch directory", "dir", dir, "err", err)
			continue
		}
		w.logger.Debug("watching", "dir", dir)
		watched++
	}
	if watched == 0 {
		fsw.Close()
		return ErrNothingToWatch
	}

	w.fsw = fsw
	w.wg.Add(1)
	go w.run(ctx)
	return nil
}

// Rescans returns how many rescans the watcher has triggered.
func (w *Watcher) Rescans() int64 {
	return w.rescans.Load()
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !relevant(ev) {
				continue
			}
			w.logger.Debug("desktop entry changed", "path", ev.Name, "op", ev.Op.String())
			w.cache.Invalidate()
			timer.Reset(w.debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "err", err)
		case <-timer.C:
			w.rescan(ctx)
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) rescan(ctx context.Context) {
	start := time.Now()
	res := w.cache.Get(ctx, true)
	w.rescans.Add(1)
	w.logger.Info("applications rescanned", "count", res.Count(), "elapsed", time.Since(start))
	if w.onRescan != nil {
		w.onRescan(res)
	}
}

// Stop halts the watcher and waits for an in-progress rescan to finish.
// It is safe to call more than once, and before Start.
func (w *Watcher) Stop() error {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()

	if w.fsw != nil {
		if err := w.fsw.Close(); err != nil {
			return fmt.Errorf("failed to close file watcher: %w", err)
		}
		w.fsw = nil
	}
	return nil
}
