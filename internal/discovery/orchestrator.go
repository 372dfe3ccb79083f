// Package discovery runs a complete discovery pass: every scanner on a
// bounded worker pool under its own timeout, then merge, categorize and
// persist. Concurrent requests share the pass in flight.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
	"github.com/reza-ygb/apex-launcher/internal/scanner"
)

const (
	// DefaultWorkers is the number of scanners run at once.
	DefaultWorkers = 3
	// DefaultScannerTimeout bounds a single scanner.
	DefaultScannerTimeout = 15 * time.Second
	// persistTimeout bounds the background write of one pass.
	persistTimeout = 30 * time.Second
)

// Persister stores the records of a completed pass. Rows of origins listed
// in completed that are absent from records may be removed.
type Persister interface {
	ReplaceApplications(ctx context.Context, records []catalog.Record, scanTime time.Time, completed []catalog.Origin) error
}

// usageReader is implemented by persisters that track launch counts.
type usageReader interface {
	UsageCounts(ctx context.Context) (map[string]int, error)
}

// Options configures an Orchestrator. Zero values select defaults.
type Options struct {
	Workers     int
	Timeout     time.Duration
	Categorizer *category.Categorizer
	Persister   Persister
	PoolFactory PoolFactory
	Logger      *log.Logger
	Now         func() time.Time
}

// call is one pass, shared by every caller that arrives while it runs.
// done is closed once result is set; finished once the pass has persisted.
type call struct {
	seq      uint64
	done     chan struct{}
	finished chan struct{}
	result   *catalog.Result
}

// Orchestrator coordinates scan passes.
type Orchestrator struct {
	scanners    []scanner.Scanner
	workers     int
	timeout     time.Duration
	categorizer *category.Categorizer
	persister   Persister
	newPool     PoolFactory
	logger      *log.Logger
	now         func() time.Time

	mu       sync.Mutex
	state    State
	seq      uint64
	inflight *call
	last     *call
}

// New returns an orchestrator over scanners. Scanner order is significant:
// it is the order sets are handed to the merge.
func New(scanners []scanner.Scanner, opts Options) *Orchestrator {
	o := &Orchestrator{
		scanners:    scanners,
		workers:     opts.Workers,
		timeout:     opts.Timeout,
		categorizer: opts.Categorizer,
		persister:   opts.Persister,
		newPool:     opts.PoolFactory,
		logger:      opts.Logger,
		now:         opts.Now,
	}
	if o.workers <= 0 {
		o.workers = DefaultWorkers
	}
	if o.timeout <= 0 {
		o.timeout = DefaultScannerTimeout
	}
	if o.categorizer == nil {
		o.categorizer = category.New()
	}
	if o.newPool == nil {
		o.newPool = NewWorkerPool
	}
	if o.logger == nil {
		o.logger = log.Default()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// State returns the current phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator) setState(s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
}

// Run performs a discovery pass and returns its result. If a pass is already
// in flight, Run waits for it and returns the same result instead of
// starting another. Run never returns nil.
//
// Persistence happens in the background after the result is returned; use
// Flush to wait for it. A pass whose context is cancelled is not persisted
// and its result carries a zero ScanTime.
func (o *Orchestrator) Run(ctx context.Context) *catalog.Result {
	return o.run(ctx, false)
}

// Rescan is like Run but only shares a pass that started after the call.
// A pass that began earlier is allowed to finish first, then a new one runs.
func (o *Orchestrator) Rescan(ctx context.Context) *catalog.Result {
	return o.run(ctx, true)
}

func (o *Orchestrator) run(ctx context.Context, fresh bool) *catalog.Result {
	o.mu.Lock()
	before := o.seq
	for o.inflight != nil {
		c := o.inflight
		o.mu.Unlock()

		if !fresh || c.seq > before {
			select {
			case <-c.done:
				return c.result
			case <-ctx.Done():
				return catalog.Empty(time.Time{})
			}
		}

		select {
		case <-c.finished:
		case <-ctx.Done():
			return catalog.Empty(time.Time{})
		}
		o.mu.Lock()
	}
	o.seq++
	c := &call{seq: o.seq, done: make(chan struct{}), finished: make(chan struct{})}
	o.inflight = c
	o.last = c
	o.state = Scanning
	o.mu.Unlock()

	id := uuid.NewString()
	start := o.now()
	o.logger.Debug("scan started", "scan", id, "scanners", len(o.scanners))

	sets, report := o.scanAll(ctx)

	o.setState(Merging)
	merged := catalog.Merge(sets...)

	o.setState(Categorizing)
	scanTime := o.now()
	records := o.categorize(ctx, merged, scanTime)

	byName := make(map[string]catalog.Record, len(records))
	for _, rec := range records {
		byName[rec.Name] = rec
	}
	cancelled := ctx.Err() != nil
	if cancelled {
		scanTime = time.Time{}
	}
	result := catalog.NewResult(byName, scanTime)
	result.ID = id
	result.Report = report

	o.logger.Debug("scan finished", "scan", id, "count", len(records), "elapsed", o.now().Sub(start))

	// Callers waiting on this pass, and any that arrive while it persists,
	// get the result now.
	o.mu.Lock()
	c.result = result
	o.state = Persisting
	o.mu.Unlock()
	close(c.done)

	if o.persister == nil || cancelled {
		o.finish(c)
		return result
	}

	completed := completedOrigins(report)
	go func() {
		defer o.finish(c)

		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
		defer cancel()
		if err := o.persister.ReplaceApplications(pctx, records, scanTime, completed); err != nil {
			o.logger.Warn("failed to persist scan, results kept in memory only", "scan", id, "err", err)
		}
	}()

	return result
}

func (o *Orchestrator) finish(c *call) {
	o.mu.Lock()
	if o.inflight == c {
		o.inflight = nil
	}
	o.state = Idle
	o.mu.Unlock()
	close(c.finished)
}

// Flush waits for background persistence of earlier passes to finish.
// Passes never overlap, so waiting on the latest one is enough.
func (o *Orchestrator) Flush() {
	o.mu.Lock()
	c := o.last
	o.mu.Unlock()
	if c != nil {
		<-c.finished
	}
}

// scanAll runs every scanner and returns their sets in scanner order.
func (o *Orchestrator) scanAll(ctx context.Context) ([]catalog.Set, []catalog.Outcome) {
	n := len(o.scanners)
	sets := make([]catalog.Set, n)
	report := make([]catalog.Outcome, n)
	if n == 0 {
		return sets, report
	}

	pool := o.newPool(o.workers, n)
	var wg sync.WaitGroup

	next := n
	for i, s := range o.scanners {
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			sets[i], report[i] = o.runOne(ctx, s)
		})
		if err != nil {
			wg.Done()
			o.logger.Warn("worker pool unavailable, running remaining scanners sequentially", "scanner", s.Name(), "err", err)
			next = i
			break
		}
	}

	for i := next; i < n; i++ {
		sets[i], report[i] = o.runOne(ctx, o.scanners[i])
	}

	wg.Wait()
	pool.Close()
	return sets, report
}

// runOne runs a single scanner under the per-scanner timeout. A scanner that
// overruns is abandoned: its context is cancelled and its late result
// discarded. A panicking scanner is recovered. Both yield an empty set.
func (o *Orchestrator) runOne(parent context.Context, s scanner.Scanner) (catalog.Set, catalog.Outcome) {
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	defer cancel()

	outcome := catalog.Outcome{Scanner: s.Name(), Origin: s.Origin()}
	start := o.now()

	type scanResult struct {
		set catalog.Set
		err error
	}
	ch := make(chan scanResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- scanResult{err: fmt.Errorf("scanner panicked: %v", r)}
			}
		}()
		ch <- scanResult{set: s.Scan(ctx)}
	}()

	var r scanResult
	select {
	case r = <-ch:
	case <-ctx.Done():
	}
	outcome.Elapsed = o.now().Sub(start)

	// A result delivered after the deadline is as late as one never delivered.
	if err := ctx.Err(); err != nil {
		outcome.Err = err.Error()
		if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil {
			outcome.Status = catalog.StatusTimeout
			o.logger.Warn("scanner timed out", "scanner", s.Name(), "timeout", o.timeout)
		} else {
			outcome.Status = catalog.StatusSkipped
		}
		return catalog.NewSet(s.Origin()), outcome
	}

	if r.err != nil {
		outcome.Status = catalog.StatusFailed
		outcome.Err = r.err.Error()
		o.logger.Warn("scanner failed", "scanner", s.Name(), "err", r.err)
		return catalog.NewSet(s.Origin()), outcome
	}

	set := r.set
	if set.Records == nil {
		set = catalog.NewSet(s.Origin())
	}
	outcome.Status = catalog.StatusOK
	outcome.Count = set.Len()
	o.logger.Debug("scanner finished", "scanner", s.Name(), "count", outcome.Count, "elapsed", outcome.Elapsed)
	return set, outcome
}

// categorize assigns a category, scan time and stored usage count to every
// merged record and returns them sorted by name.
func (o *Orchestrator) categorize(ctx context.Context, merged map[string]catalog.Record, scanTime time.Time) []catalog.Record {
	var usage map[string]int
	if ur, ok := o.persister.(usageReader); ok && ctx.Err() == nil {
		counts, err := ur.UsageCounts(ctx)
		if err != nil {
			o.logger.Debug("usage counts unavailable", "err", err)
		}
		usage = counts
	}

	records := make([]catalog.Record, 0, len(merged))
	for _, rec := range merged {
		rec.Category = o.categorizer.Categorize(rec.Name, rec.Description, rec.Command)
		rec.ScanTime = scanTime
		if n, ok := usage[rec.Name]; ok {
			rec.UsageCount = n
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })
	return records
}

// completedOrigins lists the origins whose scanner finished normally.
func completedOrigins(report []catalog.Outcome) []catalog.Origin {
	var out []catalog.Origin
	seen := make(map[catalog.Origin]bool)
	for _, o := range report {
		if o.Status == catalog.StatusOK && !seen[o.Origin] {
			seen[o.Origin] = true
			out = append(out, o.Origin)
		}
	}
	return out
}
