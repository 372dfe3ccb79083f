// Package cache serves categorized discovery results without rescanning
// while they are younger than a TTL. Lookups go to an in-memory snapshot
// first, then to the persisted store, and only then trigger a scan.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
)

// DefaultTTL is how long a scan result stays fresh.
const DefaultTTL = 5 * time.Minute

// Refresher performs a full discovery pass.
type Refresher interface {
	Run(ctx context.Context) *catalog.Result
}

// rescanner is implemented by refreshers that can refuse to share a pass
// which started before the request.
type rescanner interface {
	Rescan(ctx context.Context) *catalog.Result
}

// flusher is implemented by refreshers that persist in the background.
type flusher interface {
	Flush()
}

// Store is the persisted side of the cache.
type Store interface {
	LastScanTime(ctx context.Context) (time.Time, error)
	ListApplications(ctx context.Context) ([]catalog.Record, error)
	UpsertApplications(ctx context.Context, records []catalog.Record, scanTime time.Time) error
	IncrementUsage(ctx context.Context, name string) error
}

// Options configures a Cache. Zero values select defaults.
type Options struct {
	TTL    time.Duration
	Logger *log.Logger
	Now    func() time.Time
}

// Cache is safe for concurrent use.
type Cache struct {
	store     Store
	refresher Refresher
	ttl       time.Duration
	logger    *log.Logger
	now       func() time.Time

	mu          sync.Mutex
	snapshot    *catalog.Result
	invalidated bool
}

// New returns a cache over st (which may be nil for a session-only cache)
// refreshed by r.
func New(st Store, r Refresher, opts Options) *Cache {
	c := &Cache{
		store:     st,
		refresher: r,
		ttl:       opts.TTL,
		logger:    opts.Logger,
		now:       opts.Now,
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.logger == nil {
		c.logger = log.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// TTL returns the freshness window.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns a categorized result. Unless forceRefresh is set, a fresh
// snapshot or fresh persisted data is returned without scanning. Get never
// returns nil.
func (c *Cache) Get(ctx context.Context, forceRefresh bool) *catalog.Result {
	now := c.now()

	c.mu.Lock()
	snap := c.snapshot
	invalidated := c.invalidated
	c.mu.Unlock()

	if !forceRefresh {
		if snap.Fresh(now, c.ttl) {
			return snap
		}
		if !invalidated {
			if res, ok := c.loadFresh(ctx, now); ok {
				c.setSnapshot(res)
				return res
			}
		}
	}

	res := c.refresh(ctx, forceRefresh || invalidated)
	if !res.ScanTime.IsZero() {
		c.setSnapshot(res)
	}
	return res
}

// refresh runs a pass. A forced or invalidated refresh must reflect changes
// made before it was requested, so it does not reuse an older pass.
func (c *Cache) refresh(ctx context.Context, fresh bool) *catalog.Result {
	if r, ok := c.refresher.(rescanner); ok && fresh {
		return r.Rescan(ctx)
	}
	return c.refresher.Run(ctx)
}

// loadFresh rebuilds a result from the store when its newest scan is within
// the TTL.
func (c *Cache) loadFresh(ctx context.Context, now time.Time) (*catalog.Result, bool) {
	if c.store == nil {
		return nil, false
	}

	last, err := c.store.LastScanTime(ctx)
	if err != nil {
		c.logger.Debug("persisted cache unavailable", "err", err)
		return nil, false
	}
	if last.IsZero() || now.Sub(last) >= c.ttl {
		return nil, false
	}

	records, err := c.store.ListApplications(ctx)
	if err != nil {
		c.logger.Debug("failed to load persisted cache", "err", err)
		return nil, false
	}

	byName := make(map[string]catalog.Record, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}
	c.logger.Debug("serving persisted cache", "count", len(records), "age", now.Sub(last))
	return catalog.NewResult(byName, last), true
}

// Put persists res and makes it the current snapshot. Writing the same
// result twice leaves the cache unchanged.
func (c *Cache) Put(ctx context.Context, res *catalog.Result) error {
	if res == nil {
		return fmt.Errorf("cannot cache a nil result")
	}
	if c.store != nil {
		if err := c.store.UpsertApplications(ctx, res.Records(), res.ScanTime); err != nil {
			return fmt.Errorf("failed to persist result: %w", err)
		}
	}
	c.setSnapshot(res)
	return nil
}

// Invalidate drops the in-memory snapshot and bypasses persisted data until
// the next successful scan.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.invalidated = true
	c.mu.Unlock()
}

// Freshness returns the scan time of the data Get would serve without
// scanning, or the zero time when nothing is cached.
func (c *Cache) Freshness(ctx context.Context) (time.Time, error) {
	c.mu.Lock()
	snap := c.snapshot
	c.mu.Unlock()
	if snap != nil {
		return snap.ScanTime, nil
	}
	if c.store == nil {
		return time.Time{}, nil
	}
	return c.store.LastScanTime(ctx)
}

// RecordLaunch bumps the usage count of name in the store and in the
// current snapshot. Pending writes of the refresher land first so a record
// discovered by the latest pass can be counted.
func (c *Cache) RecordLaunch(ctx context.Context, name string) error {
	if f, ok := c.refresher.(flusher); ok {
		f.Flush()
	}
	if c.store != nil {
		if err := c.store.IncrementUsage(ctx, name); err != nil {
			return err
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	snap := c.snapshot
	if snap == nil {
		return nil
	}

	// Results handed out earlier are never mutated; the snapshot is replaced.
	next := &catalog.Result{
		ID:       snap.ID,
		ScanTime: snap.ScanTime,
		Report:   snap.Report,
		Groups:   make(map[category.Category][]catalog.Record, len(snap.Groups)),
	}
	for cat, recs := range snap.Groups {
		next.Groups[cat] = recs
		for i := range recs {
			if recs[i].Name != name {
				continue
			}
			updated := append([]catalog.Record(nil), recs...)
			updated[i].UsageCount++
			catalog.SortRecords(updated)
			next.Groups[cat] = updated
		}
	}
	c.snapshot = next
	return nil
}

func (c *Cache) setSnapshot(res *catalog.Result) {
	c.mu.Lock()
	c.snapshot = res
	c.invalidated = false
	c.mu.Unlock()
}
