package catalog

import (
	"sort"
	"strings"
	"time"

	"github.com/reza-ygb/apex-launcher/internal/category"
)

// Status describes how a single scanner finished within a pass.
type Status string

const (
	StatusOK      Status = "ok"
	StatusTimeout Status = "timeout"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// Outcome records what one scanner contributed to a pass.
type Outcome struct {
	Scanner string
	Origin  Origin
	Status  Status
	Count   int
	Elapsed time.Duration
	Err     string
}

// Result is a categorized snapshot of every discovered application.
// Every category key is present in Groups, possibly with an empty slice.
type Result struct {
	ID       string // scan pass identifier; empty for results loaded from the store
	Groups   map[category.Category][]Record
	ScanTime time.Time
	Report   []Outcome
}

// NewResult groups records by category and sorts each group by usage count
// (descending) then lowercase name. Records carrying a category outside the
// fixed set are filed under Other.
func NewResult(records map[string]Record, scanTime time.Time) *Result {
	groups := make(map[category.Category][]Record, len(category.All()))
	for _, c := range category.All() {
		groups[c] = []Record{}
	}

	for _, rec := range records {
		if !category.Valid(rec.Category) {
			rec.Category = category.Other
		}
		groups[rec.Category] = append(groups[rec.Category], rec)
	}

	for _, recs := range groups {
		SortRecords(recs)
	}

	return &Result{Groups: groups, ScanTime: scanTime}
}

// Empty returns a well-formed result with no records.
func Empty(scanTime time.Time) *Result {
	return NewResult(nil, scanTime)
}

// SortRecords orders records by usage count descending, then lowercase name,
// then name, so names differing only in case keep a fixed order.
func SortRecords(recs []Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].UsageCount != recs[j].UsageCount {
			return recs[i].UsageCount > recs[j].UsageCount
		}
		a, b := strings.ToLower(recs[i].Name), strings.ToLower(recs[j].Name)
		if a != b {
			return a < b
		}
		return recs[i].Name < recs[j].Name
	})
}

// Count returns the total number of records across all groups.
func (r *Result) Count() int {
	n := 0
	for _, recs := range r.Groups {
		n += len(recs)
	}
	return n
}

// Records returns every record, groups in category order.
func (r *Result) Records() []Record {
	out := make([]Record, 0, r.Count())
	for _, c := range category.All() {
		out = append(out, r.Groups[c]...)
	}
	return out
}

// Find returns the record named name. Lookup is exact first, then
// case-insensitive.
func (r *Result) Find(name string) (Record, bool) {
	name = NormalizeName(name)
	var fold *Record
	for _, c := range category.All() {
		for i, rec := range r.Groups[c] {
			if rec.Name == name {
				return rec, true
			}
			if fold == nil && strings.EqualFold(rec.Name, name) {
				fold = &r.Groups[c][i]
			}
		}
	}
	if fold != nil {
		return *fold, true
	}
	return Record{}, false
}

// Fresh reports whether the result is younger than ttl at now.
func (r *Result) Fresh(now time.Time, ttl time.Duration) bool {
	if r == nil || r.ScanTime.IsZero() {
		return false
	}
	return now.Sub(r.ScanTime) < ttl
}

// Failed reports whether the pass produced no successful scanner outcome.
// A result with an empty report (for example, one loaded from the store)
// is not considered failed.
func (r *Result) Failed() bool {
	if len(r.Report) == 0 {
		return false
	}
	for _, o := range r.Report {
		if o.Status == StatusOK {
			return false
		}
	}
	return true
}
