// Package category assigns discovered applications to a fixed set of
// topical categories using weighted keyword scoring.
package category

import "strings"

// Category is one member of the fixed category set.
type Category string

const (
	Programming Category = "Programming"
	Security    Category = "Security"
	System      Category = "System"
	Internet    Category = "Internet"
	Media       Category = "Media"
	Office      Category = "Office"
	Graphics    Category = "Graphics"
	Development Category = "Development"
	Games       Category = "Games"
	Education   Category = "Education"
	Other       Category = "Other"
)

// order is the tie-break order used when two categories score the same.
// Other is the catch-all and always comes last.
var order = []Category{
	Programming,
	Security,
	System,
	Internet,
	Media,
	Office,
	Graphics,
	Development,
	Games,
	Education,
	Other,
}

// Info is the static display metadata for a category.
type Info struct {
	Category Category
	Label    string
	IconHint string
}

var infos = map[Category]Info{
	Programming: {Programming, "Programming", "applications-development"},
	Security:    {Security, "Security", "security-high"},
	System:      {System, "System Tools", "applications-system"},
	Internet:    {Internet, "Internet", "applications-internet"},
	Media:       {Media, "Multimedia", "applications-multimedia"},
	Office:      {Office, "Office", "applications-office"},
	Graphics:    {Graphics, "Graphics", "applications-graphics"},
	Development: {Development, "Terminal & Shell", "utilities-terminal"},
	Games:       {Games, "Games", "applications-games"},
	Education:   {Education, "Education", "applications-science"},
	Other:       {Other, "Other", "applications-other"},
}

// All returns every category in tie-break order, Other last.
func All() []Category {
	out := make([]Category, len(order))
	copy(out, order)
	return out
}

// Infos returns display metadata for every category in tie-break order.
func Infos() []Info {
	out := make([]Info, 0, len(order))
	for _, c := range order {
		out = append(out, infos[c])
	}
	return out
}

// Lookup returns the display metadata for c.
func Lookup(c Category) (Info, bool) {
	info, ok := infos[c]
	return info, ok
}

// Parse maps a stored or user-supplied category name back onto the fixed
// set. Matching is case-insensitive; unknown names map to Other.
func Parse(s string) Category {
	s = strings.TrimSpace(s)
	for _, c := range order {
		if strings.EqualFold(string(c), s) {
			return c
		}
	}
	return Other
}

// Valid reports whether c is a member of the fixed set.
func Valid(c Category) bool {
	_, ok := infos[c]
	return ok
}
