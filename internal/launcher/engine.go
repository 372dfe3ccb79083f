// Package launcher is the entry point consumers use: scanning with a status
// stream, searching, category metadata and launching applications.
package launcher

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/reza-ygb/apex-launcher/internal/cache"
	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
)

// Options configures an Engine. Zero values select defaults.
type Options struct {
	Logger  *log.Logger
	Starter Starter
	Now     func() time.Time
}

// Engine serves discovery results from a cache and launches applications.
type Engine struct {
	cache  *cache.Cache
	logger *log.Logger
	start  Starter
	now    func() time.Time
}

// New returns an engine reading through c.
func New(c *cache.Cache, opts Options) *Engine {
	e := &Engine{
		cache:  c,
		logger: opts.Logger,
		start:  opts.Starter,
		now:    opts.Now,
	}
	if e.logger == nil {
		e.logger = log.Default()
	}
	if e.start == nil {
		e.start = startDetached
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Scan returns the categorized applications, scanning only when the cache
// is stale or forceRefresh is set. It never returns nil.
func (e *Engine) Scan(ctx context.Context, forceRefresh bool) *catalog.Result {
	return e.cache.Get(ctx, forceRefresh)
}

// ScanAsync starts Scan in the background. Started is on the task's status
// stream before ScanAsync returns.
func (e *Engine) ScanAsync(ctx context.Context, forceRefresh bool) *Task {
	t := newTask()
	start := e.now()
	t.status <- Status{Kind: Started, At: start}

	go func() {
		res := e.Scan(ctx, forceRefresh)
		end := e.now()
		t.result = res
		t.status <- Status{
			Kind:    Completed,
			At:      end,
			Elapsed: end.Sub(start),
			Count:   res.Count(),
			Cached:  !res.ScanTime.IsZero() && res.ScanTime.Before(start),
		}
		close(t.status)
		close(t.done)
	}()

	return t
}

// Categories returns the fixed category set with display metadata.
func (e *Engine) Categories() []category.Info {
	return category.Infos()
}

// Search matches query against the cached applications.
func (e *Engine) Search(ctx context.Context, query string) []catalog.Record {
	return catalog.Search(e.Scan(ctx, false).Records(), query)
}

// Launch starts command as appropriate for origin and returns once the
// process has been started. Failures are returned as *LaunchError.
func (e *Engine) Launch(ctx context.Context, command string, origin catalog.Origin) error {
	if err := ctx.Err(); err != nil {
		return launchError(command, err)
	}

	argv, err := Argv(command, origin)
	if err != nil {
		return launchError(command, err)
	}

	cmd, err := prepare(argv)
	if err != nil {
		return launchError(command, err)
	}

	if err := e.start(cmd); err != nil {
		return launchError(command, err)
	}
	e.logger.Debug("launched", "command", command, "origin", origin, "argv", argv)
	return nil
}

// LaunchRecord launches rec and counts the launch towards its usage.
// Failing to record usage does not fail the launch.
func (e *Engine) LaunchRecord(ctx context.Context, rec catalog.Record) error {
	if err := e.Launch(ctx, rec.Command, rec.Origin); err != nil {
		return err
	}
	if err := e.cache.RecordLaunch(ctx, rec.Name); err != nil {
		e.logger.Warn("failed to record launch", "name", rec.Name, "err", err)
	}
	return nil
}
