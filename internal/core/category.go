package core

import "strings"

// Category labels an expense. Values outside the known set may come back
// from storage and are kept verbatim.
type Category string

const (
	Food           Category = "Food"
	Transportation Category = "Transportation"
	Housing        Category = "Housing"
	Utilities      Category = "Utilities"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Education      Category = "Education"
	Shopping       Category = "Shopping"
	Travel         Category = "Travel"
	Other          Category = "Other"
)

// Unrecognized is the display label for a record with no category at all.
const Unrecognized = "Unrecognized"

var categories = []Category{
	Food, Transportation, Housing, Utilities, Entertainment,
	Healthcare, Education, Shopping, Travel, Other,
}

// Categories returns the known categories in display order.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// ParseCategory matches s case-insensitively against the known set and
// returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Known reports whether c is one of the enumerated categories.
func (c Category) Known() bool {
	for _, k := range categories {
		if c == k {
			return true
		}
	}
	return false
}

// Label returns the grouping label used by reports.
func (c Category) Label() string {
	if strings.TrimSpace(string(c)) == "" {
		return Unrecognized
	}
	return string(c)
}
