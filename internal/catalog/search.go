package catalog

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// recordNames adapts a record slice to fuzzy.Source.
type recordNames []Record

func (r recordNames) String(i int) string { return r[i].Name }
func (r recordNames) Len() int            { return len(r) }

// Search returns the records matching query. Fuzzy name matches come first,
// best score first; records whose description or command contain query as a
// substring follow, sorted by name. An empty query returns every record.
func Search(records []Record, query string) []Record {
	query = strings.TrimSpace(query)
	if query == "" {
		return append([]Record(nil), records...)
	}

	var out []Record
	seen := make(map[int]bool)

	for _, m := range fuzzy.FindFrom(query, recordNames(records)) {
		out = append(out, records[m.Index])
		seen[m.Index] = true
	}

	q := strings.ToLower(query)
	var rest []Record
	for i, rec := range records {
		if seen[i] {
			continue
		}
		if strings.Contains(strings.ToLower(rec.Description), q) ||
			strings.Contains(strings.ToLower(rec.Command), q) {
			rest = append(rest, rec)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return strings.ToLower(rest[i].Name) < strings.ToLower(rest[j].Name)
	})

	return append(out, rest...)
}
