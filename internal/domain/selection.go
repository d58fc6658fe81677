package domain

import (
	"strconv"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
)

// PriceDefaults are the catalog-wide price bounds that count as "unset".
type PriceDefaults struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultPriceDefaults returns the stock 500/5000 bounds.
func DefaultPriceDefaults() PriceDefaults {
	return PriceDefaults{Min: 500, Max: 5000}
}

// IsDefaultMin reports whether raw parses to the default lower bound.
func (p PriceDefaults) IsDefaultMin(raw string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	return err == nil && v == p.Min
}

// IsDefaultMax reports whether raw parses to the default upper bound.
func (p PriceDefaults) IsDefaultMax(raw string) bool {
	v, err := strconv.ParseFloat(raw, 64)
	return err == nil && v == p.Max
}

// FormatPrice renders a price bound the way it travels in the URL.
func FormatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// SelectionState is the user's current filter selection plus term and paging.
// Every registered category is present in Filters, possibly with an empty slice.
type SelectionState struct {
	Filters map[FilterCategory][]string `json:"filters"`
	Term    string                      `json:"term,omitempty"`
	Page    int                         `json:"page"`
	Limit   int                         `json:"limit"`
}

// NewSelectionState returns an empty selection on page 1.
func NewSelectionState(limit int) SelectionState {
	if limit < 1 {
		limit = DefaultLimit
	}
	filters := make(map[FilterCategory][]string, len(FilterCategories))
	for _, c := range FilterCategories {
		filters[c] = []string{}
	}
	return SelectionState{
		Filters: filters,
		Page:    DefaultPage,
		Limit:   limit,
	}
}

// Values returns the selected values of c, never nil.
func (s SelectionState) Values(c FilterCategory) []string {
	if v, ok := s.Filters[c]; ok && v != nil {
		return v
	}
	return []string{}
}

// Has reports whether value is selected in c.
func (s SelectionState) Has(c FilterCategory, value string) bool {
	for _, v := range s.Filters[c] {
		if v == value {
			return true
		}
	}
	return false
}

// IsEmpty reports whether no category holds a value and no term is set.
func (s SelectionState) IsEmpty() bool {
	if s.Term != "" {
		return false
	}
	for _, v := range s.Filters {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// Clone copies the map; value slices are shared because they are never mutated in place.
func (s SelectionState) Clone() SelectionState {
	filters := make(map[FilterCategory][]string, len(s.Filters))
	for c, v := range s.Filters {
		filters[c] = v
	}
	s.Filters = filters
	return s
}
