package domain

// FilterOption is one candidate value for a category as reported by the facet service.
type FilterOption struct {
	Value    string `json:"value"`
	Disabled bool   `json:"disabled"`
}

// PriceRange is the absolute price extent of the unfiltered catalog.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FacetOptions is the parsed /laptops/filters response.
type FacetOptions struct {
	Options    map[FilterCategory][]FilterOption `json:"options"`
	PriceRange PriceRange                        `json:"priceRange"`
}

// OptionsFor returns the options for c, never nil.
func (f *FacetOptions) OptionsFor(c FilterCategory) []FilterOption {
	if f == nil {
		return []FilterOption{}
	}
	if opts, ok := f.Options[c]; ok && opts != nil {
		return opts
	}
	return []FilterOption{}
}

// EnabledCount counts options of c that would still yield results.
func (f *FacetOptions) EnabledCount(c FilterCategory) int {
	n := 0
	for _, o := range f.OptionsFor(c) {
		if !o.Disabled {
			n++
		}
	}
	return n
}
