// Package catalog holds the application data model: discovered records,
// the per-origin sets scanners produce, the merge that reconciles them and
// the categorized result consumers read.
package catalog

import (
	"strings"
	"time"

	"github.com/reza-ygb/apex-launcher/internal/category"
)

// DefaultDescription is used for records whose source carries no description.
const DefaultDescription = "Application"

// Origin identifies the discovery source of a record.
type Origin string

const (
	OriginDesktop  Origin = "desktop"
	OriginFlatpak  Origin = "flatpak"
	OriginSnap     Origin = "snap"
	OriginBrew     Origin = "brew"
	OriginAppImage Origin = "appimage"
	OriginPath     Origin = "path"
)

// priority lists origins from most to least trusted. The index is the rank.
var priority = []Origin{
	OriginDesktop,
	OriginFlatpak,
	OriginSnap,
	OriginBrew,
	OriginAppImage,
	OriginPath,
}

// Rank returns the merge priority of o; lower wins. Unknown origins rank
// below every known one.
func (o Origin) Rank() int {
	for i, p := range priority {
		if p == o {
			return i
		}
	}
	return len(priority)
}

// Origins returns every known origin in priority order.
func Origins() []Origin {
	return append([]Origin(nil), priority...)
}

// ParseOrigin maps a stored origin string back to an Origin.
func ParseOrigin(s string) (Origin, bool) {
	for _, p := range priority {
		if string(p) == strings.ToLower(strings.TrimSpace(s)) {
			return p, true
		}
	}
	return "", false
}

// Record is one discovered launchable application.
type Record struct {
	Name        string
	Command     string
	Description string
	Origin      Origin
	Category    category.Category
	IconHint    string
	UsageCount  int
	ScanTime    time.Time
}

// NormalizeName trims surrounding whitespace from a display name.
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// Set is the output of one scanner pass: records keyed by normalized name,
// all sharing Origin.
type Set struct {
	Origin  Origin
	Records map[string]Record
}

// NewSet returns an empty set for origin.
func NewSet(origin Origin) Set {
	return Set{Origin: origin, Records: make(map[string]Record)}
}

// Add inserts r keyed by its normalized name unless a record with that name
// is already present. Records with an empty name are dropped. It reports
// whether r was added.
func (s Set) Add(r Record) bool {
	r.Name = NormalizeName(r.Name)
	if r.Name == "" {
		return false
	}
	if _, exists := s.Records[r.Name]; exists {
		return false
	}
	if r.Origin == "" {
		r.Origin = s.Origin
	}
	if r.Description == "" {
		r.Description = DefaultDescription
	}
	s.Records[r.Name] = r
	return true
}

// Len returns the number of records in s.
func (s Set) Len() int {
	return len(s.Records)
}
