package entity

import "sort"

// ChangeType classifies a service item against the confirmed snapshot
type ChangeType string

// Change types produced by the snapshot differ
const (
	ChangeNew       ChangeType = "new"
	ChangeConfirmed ChangeType = "confirmed"
	ChangeCancelled ChangeType = "cancelled"
)

// ChangeRecord is one classified item
type ChangeRecord struct {
	Type ChangeType  `json:"type"`
	Item ServiceItem `json:"item"`
}

// ChangeSet groups change records by category. Within a category records are
// ordered by service date ascending, undated first.
type ChangeSet map[Category][]ChangeRecord

// ChangeCounts summarizes a change set
type ChangeCounts struct {
	New       int `json:"new"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
}

// Counts tallies records by type
func (cs ChangeSet) Counts() ChangeCounts {
	var c ChangeCounts
	for _, records := range cs {
		for _, r := range records {
			switch r.Type {
			case ChangeNew:
				c.New++
			case ChangeConfirmed:
				c.Confirmed++
			case ChangeCancelled:
				c.Cancelled++
			}
		}
	}
	return c
}

// Flatten returns every record, categories in canonical order
func (cs ChangeSet) Flatten() []ChangeRecord {
	var out []ChangeRecord
	for _, cat := range cs.OrderedCategories() {
		out = append(out, cs[cat]...)
	}
	return out
}

// OrderedCategories returns the categories present in the set in canonical
// order; unknown categories follow, sorted by name
func (cs ChangeSet) OrderedCategories() []Category {
	var known, unknown []Category
	for _, cat := range Categories {
		if _, ok := cs[cat]; ok {
			known = append(known, cat)
		}
	}
	for cat := range cs {
		if !cat.IsValid() {
			unknown = append(unknown, cat)
		}
	}
	sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
	return append(known, unknown...)
}

// OfType returns the records of the given type in flattened order
func (cs ChangeSet) OfType(t ChangeType) []ChangeRecord {
	var out []ChangeRecord
	for _, r := range cs.Flatten() {
		if r.Type == t {
			out = append(out, r)
		}
	}
	return out
}
