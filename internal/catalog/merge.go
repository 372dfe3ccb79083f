package catalog

import "sort"

// Merge combines per-origin sets into a single name-keyed map. When two sets
// hold the same name, the record whose origin ranks better is kept; on equal
// rank the first one seen wins. Sets are visited in argument order and names
// within a set in sorted order, so the outcome depends only on the inputs.
func Merge(sets ...Set) map[string]Record {
	merged := make(map[string]Record)

	for _, set := range sets {
		names := make([]string, 0, len(set.Records))
		for name := range set.Records {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			rec := set.Records[name]
			key := NormalizeName(name)
			if key == "" {
				continue
			}
			rec.Name = key
			if rec.Origin == "" {
				rec.Origin = set.Origin
			}

			existing, ok := merged[key]
			if !ok || rec.Origin.Rank() < existing.Origin.Rank() {
				merged[key] = rec
			}
		}
	}

	return merged
}
