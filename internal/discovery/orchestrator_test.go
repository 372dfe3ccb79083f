package discovery

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"github.com/reza-ygb/apex-launcher/internal/catalog"
	"github.com/reza-ygb/apex-launcher/internal/category"
	"github.com/reza-ygb/apex-launcher/internal/scanner"
)

type staticScanner struct {
	name   string
	origin catalog.Origin
	recs   []catalog.Record
	calls  atomic.Int32
	gate   chan struct{} // when non-nil, Scan blocks until it is closed
}

func (s *staticScanner) Name() string           { return s.name }
func (s *staticScanner) Origin() catalog.Origin { return s.origin }
func (s *staticScanner) Scan(ctx context.Context) catalog.Set {
	s.calls.Add(1)
	if s.gate != nil {
		<-s.gate
	}
	set := catalog.NewSet(s.origin)
	for _, r := range s.recs {
		set.Add(r)
	}
	return set
}

// hangingScanner blocks until its context ends, like a scanner stuck on
// slow I/O.
type hangingScanner struct{ name string }

func (s *hangingScanner) Name() string           { return s.name }
func (s *hangingScanner) Origin() catalog.Origin { return catalog.OriginSnap }
func (s *hangingScanner) Scan(ctx context.Context) catalog.Set {
	<-ctx.Done()
	set := catalog.NewSet(catalog.OriginSnap)
	set.Add(catalog.Record{Name: "late", Command: "late"})
	return set
}

type panicScanner struct{}

func (panicScanner) Name() string           { return "broken" }
func (panicScanner) Origin() catalog.Origin { return catalog.OriginFlatpak }
func (panicScanner) Scan(ctx context.Context) catalog.Set {
	panic("malformed input")
}

type fakePersister struct {
	mu        sync.Mutex
	calls     int
	records   []catalog.Record
	completed []catalog.Origin
	err       error
	usage     map[string]int
	release   chan struct{} // when non-nil, ReplaceApplications blocks until closed
}

func (p *fakePersister) ReplaceApplications(ctx context.Context, records []catalog.Record, scanTime time.Time, completed []catalog.Origin) error {
	if p.release != nil {
		<-p.release
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.records = records
	p.completed = completed
	return p.err
}

func (p *fakePersister) UsageCounts(ctx context.Context) (map[string]int, error) {
	return p.usage, nil
}

type rejectingPool struct{}

func (rejectingPool) Submit(task func()) error { return ErrPoolExhausted }
func (rejectingPool) Close()                   {}

func quietLogger() *log.Logger {
	return log.New(io.Discard)
}

func desktopScanner() *staticScanner {
	return &staticScanner{name: "desktop", origin: catalog.OriginDesktop, recs: []catalog.Record{
		{Name: "Firefox", Command: "firefox", Description: "Web Browser"},
		{Name: "htop", Command: "htop", Description: "Process viewer"},
	}}
}

func pathScanner() *staticScanner {
	return &staticScanner{name: "path", origin: catalog.OriginPath, recs: []catalog.Record{
		{Name: "htop", Command: "htop", Description: "CLI tool"},
		{Name: "curl", Command: "curl", Description: "CLI tool"},
	}}
}

func TestRun_MergesAndCategorizes(t *testing.T) {
	o := New([]scanner.Scanner{pathScanner(), desktopScanner()}, Options{Logger: quietLogger()})
	res := o.Run(context.Background())

	for _, c := range category.All() {
		if _, ok := res.Groups[c]; !ok {
			t.Errorf("result missing category %v", c)
		}
	}
	if res.Count() != 3 {
		t.Errorf("Count() = %d, want 3", res.Count())
	}

	htop, ok := res.Find("htop")
	if !ok {
		t.Fatal("htop missing from result")
	}
	if htop.Origin != catalog.OriginDesktop {
		t.Errorf("htop origin = %s, want desktop", htop.Origin)
	}
	if htop.Category != category.System {
		t.Errorf("htop category = %s, want System", htop.Category)
	}

	firefox, _ := res.Find("Firefox")
	if firefox.Category != category.Internet {
		t.Errorf("Firefox category = %s, want Internet", firefox.Category)
	}
	if res.ID == "" {
		t.Error("result should carry a scan ID")
	}
	if res.ScanTime.IsZero() {
		t.Error("result should carry a scan time")
	}
	if o.State() != Idle {
		t.Errorf("State() = %v after Run without persister, want idle", o.State())
	}
}

func TestRun_ScannerTimeout(t *testing.T) {
	o := New([]scanner.Scanner{desktopScanner(), &hangingScanner{name: "snap"}}, Options{
		Timeout: 50 * time.Millisecond,
		Logger:  quietLogger(),
	})

	start := time.Now()
	res := o.Run(context.Background())
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Run took %v, timed-out scanner was not abandoned", elapsed)
	}

	if _, ok := res.Find("late"); ok {
		t.Error("result of a timed-out scanner must be discarded")
	}
	if res.Count() != 2 {
		t.Errorf("Count() = %d, want 2", res.Count())
	}

	want := []catalog.Status{catalog.StatusOK, catalog.StatusTimeout}
	var got []catalog.Status
	for _, o := range res.Report {
		got = append(got, o.Status)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("report statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_ScannerPanic(t *testing.T) {
	o := New([]scanner.Scanner{panicScanner{}, desktopScanner()}, Options{Logger: quietLogger()})
	res := o.Run(context.Background())

	if res.Count() != 2 {
		t.Errorf("Count() = %d, want 2", res.Count())
	}
	if res.Report[0].Status != catalog.StatusFailed {
		t.Errorf("panicking scanner status = %s, want failed", res.Report[0].Status)
	}
	if res.Report[0].Err == "" {
		t.Error("panicking scanner outcome should carry an error")
	}
}

func TestRun_AllScannersFail(t *testing.T) {
	o := New([]scanner.Scanner{panicScanner{}}, Options{Logger: quietLogger()})
	res := o.Run(context.Background())

	if res.Count() != 0 {
		t.Errorf("Count() = %d, want 0", res.Count())
	}
	if len(res.Groups) != len(category.All()) {
		t.Errorf("len(Groups) = %d, want %d", len(res.Groups), len(category.All()))
	}
	if !res.Failed() {
		t.Error("Failed() should report a pass with no successful scanner")
	}
}

func TestRun_SequentialFallback(t *testing.T) {
	desktop, path := desktopScanner(), pathScanner()
	o := New([]scanner.Scanner{desktop, path}, Options{
		Logger:      quietLogger(),
		PoolFactory: func(workers, queue int) Pool { return rejectingPool{} },
	})

	res := o.Run(context.Background())
	if res.Count() != 3 {
		t.Errorf("Count() = %d, want 3", res.Count())
	}
	if desktop.calls.Load() != 1 || path.calls.Load() != 1 {
		t.Errorf("scanner calls = %d, %d; want 1, 1", desktop.calls.Load(), path.calls.Load())
	}
}

func TestRun_PartialPoolFailure(t *testing.T) {
	desktop, path := desktopScanner(), pathScanner()
	o := New([]scanner.Scanner{desktop, path}, Options{
		Logger: quietLogger(),
		PoolFactory: func(workers, queue int) Pool {
			// Unbuffered: a submission fails whenever the worker is busy.
			return NewWorkerPool(1, 0)
		},
	})

	res := o.Run(context.Background())
	if res.Count() != 3 {
		t.Errorf("Count() = %d, want 3", res.Count())
	}
}

func TestRun_CoalescesConcurrentRequests(t *testing.T) {
	gated := &staticScanner{name: "desktop", origin: catalog.OriginDesktop, gate: make(chan struct{}),
		recs: []catalog.Record{{Name: "Firefox", Command: "firefox"}}}
	p := &fakePersister{release: make(chan struct{})}
	o := New([]scanner.Scanner{gated}, Options{Logger: quietLogger(), Persister: p})

	results := make(chan *catalog.Result, 2)
	go func() { results <- o.Run(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for o.State() != Scanning {
		if time.Now().After(deadline) {
			t.Fatal("orchestrator never entered scanning state")
		}
		time.Sleep(time.Millisecond)
	}
	go func() { results <- o.Run(context.Background()) }()

	close(gated.gate)
	first, second := <-results, <-results

	// Persistence is still blocked, so the pass is still in flight for any
	// late caller as well.
	third := o.Run(context.Background())

	close(p.release)
	o.Flush()

	if first != second || first != third {
		t.Error("concurrent callers should share one result")
	}
	if n := gated.calls.Load(); n != 1 {
		t.Errorf("scanner ran %d times, want 1", n)
	}
	if o.State() != Idle {
		t.Errorf("State() = %v after Flush, want idle", o.State())
	}
}

func TestRescan_DoesNotReuseFinishedPass(t *testing.T) {
	scan := desktopScanner()
	p := &fakePersister{release: make(chan struct{})}
	o := New([]scanner.Scanner{scan}, Options{Logger: quietLogger(), Persister: p})

	first := o.Run(context.Background())
	if o.State() != Persisting {
		t.Fatalf("State() = %v, want persisting", o.State())
	}

	// A plain request during persistence shares the pass.
	if got := o.Run(context.Background()); got != first {
		t.Error("Run during persistence should return the pass result")
	}

	rescanned := make(chan *catalog.Result, 1)
	go func() { rescanned <- o.Rescan(context.Background()) }()

	select {
	case <-rescanned:
		t.Fatal("Rescan returned before the earlier pass finished persisting")
	case <-time.After(20 * time.Millisecond):
	}

	close(p.release)
	second := <-rescanned
	o.Flush()

	if second == first {
		t.Error("Rescan should not return a pass that started before it")
	}
	if n := scan.calls.Load(); n != 2 {
		t.Errorf("scanner ran %d times, want 2", n)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls != 2 {
		t.Errorf("persister called %d times, want 2", p.calls)
	}
}

func TestRescan_SharesPassStartedAfterIt(t *testing.T) {
	gated := &staticScanner{name: "desktop", origin: catalog.OriginDesktop, gate: make(chan struct{}),
		recs: []catalog.Record{{Name: "Firefox", Command: "firefox"}}}
	o := New([]scanner.Scanner{gated}, Options{Logger: quietLogger()})

	results := make(chan *catalog.Result, 2)
	go func() { results <- o.Rescan(context.Background()) }()

	deadline := time.Now().Add(5 * time.Second)
	for o.State() != Scanning {
		if time.Now().After(deadline) {
			t.Fatal("orchestrator never entered scanning state")
		}
		time.Sleep(time.Millisecond)
	}
	go func() { results <- o.Run(context.Background()) }()

	close(gated.gate)
	if first, second := <-results, <-results; first != second {
		t.Error("a request arriving during the pass should share its result")
	}
	if n := gated.calls.Load(); n != 1 {
		t.Errorf("scanner ran %d times, want 1", n)
	}
}

func TestFlush_ConcurrentWithRun(t *testing.T) {
	p := &fakePersister{}
	o := New([]scanner.Scanner{desktopScanner()}, Options{Logger: quietLogger(), Persister: p})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			o.Rescan(context.Background())
		}()
		go func() {
			defer wg.Done()
			o.Flush()
		}()
	}
	wg.Wait()
	o.Flush()

	if o.State() != Idle {
		t.Errorf("State() = %v after Flush, want idle", o.State())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == 0 {
		t.Error("expected at least one pass to persist")
	}
}

func TestRun_Persists(t *testing.T) {
	p := &fakePersister{usage: map[string]int{"htop": 7}}
	o := New([]scanner.Scanner{desktopScanner(), pathScanner(), panicScanner{}}, Options{
		Logger:    quietLogger(),
		Persister: p,
	})

	res := o.Run(context.Background())
	o.Flush()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls != 1 {
		t.Fatalf("persister called %d times, want 1", p.calls)
	}
	if len(p.records) != 3 {
		t.Errorf("persisted %d records, want 3", len(p.records))
	}
	want := []catalog.Origin{catalog.OriginDesktop, catalog.OriginPath}
	if diff := cmp.Diff(want, p.completed); diff != "" {
		t.Errorf("completed origins mismatch (-want +got):\n%s", diff)
	}

	htop, _ := res.Find("htop")
	if htop.UsageCount != 7 {
		t.Errorf("htop UsageCount = %d, want 7 from stored usage", htop.UsageCount)
	}
}

func TestRun_PersistFailureIsNotFatal(t *testing.T) {
	p := &fakePersister{err: errors.New("disk full")}
	o := New([]scanner.Scanner{desktopScanner()}, Options{Logger: quietLogger(), Persister: p})

	res := o.Run(context.Background())
	o.Flush()

	if res.Count() != 2 {
		t.Errorf("Count() = %d, want 2", res.Count())
	}
	if o.State() != Idle {
		t.Errorf("State() = %v, want idle", o.State())
	}
}

func TestRun_CancelledContext(t *testing.T) {
	p := &fakePersister{}
	o := New([]scanner.Scanner{&hangingScanner{name: "snap"}}, Options{Logger: quietLogger(), Persister: p})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := o.Run(ctx)
	o.Flush()

	if !res.ScanTime.IsZero() {
		t.Errorf("cancelled pass ScanTime = %v, want zero", res.ScanTime)
	}
	if res.Report[0].Status != catalog.StatusSkipped {
		t.Errorf("status = %s, want skipped", res.Report[0].Status)
	}
	if p.calls != 0 {
		t.Errorf("persister called %d times for a cancelled pass, want 0", p.calls)
	}
}

func TestRun_NoScanners(t *testing.T) {
	res := New(nil, Options{Logger: quietLogger()}).Run(context.Background())
	if res == nil || res.Count() != 0 {
		t.Errorf("Run with no scanners = %+v, want empty result", res)
	}
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		Idle:         "idle",
		Scanning:     "scanning",
		Merging:      "merging",
		Categorizing: "categorizing",
		Persisting:   "persisting",
		State(42):    "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
