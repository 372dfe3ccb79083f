package watcher

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
)

// fakeCache counts invalidations and forced refreshes.
type fakeCache struct {
	mu          sync.Mutex
	invalidated int
	refreshes   int
}

func (c *fakeCache) Invalidate() {
	c.mu.Lock()
	c.invalidated++
	c.mu.Unlock()
}

func (c *fakeCache) Get(ctx context.Context, forceRefresh bool) *catalog.Result {
	c.mu.Lock()
	if forceRefresh {
		c.refreshes++
	}
	c.mu.Unlock()
	return catalog.Empty(time.Now())
}

func (c *fakeCache) counts() (invalidated, refreshes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated, c.refreshes
}

// newTestWatcher creates a started watcher over dir with a short debounce
// and registers cleanup with t.Cleanup.
func newTestWatcher(t *testing.T, c *fakeCache, dir string, onRescan func(*catalog.Result)) *Watcher {
	t.Helper()
	w, err := New(c, []string{dir}, Options{
		Debounce: 200 * time.Millisecond,
		Logger:   log.New(io.Discard),
		OnRescan: onRescan,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { w.Stop() })
	return w
}
