package orchestrator

import "laptops/facetsync/internal/domain"

// ReadModel is what the UI renders: facet options, the current result page,
// and per-query loading and error flags.
type ReadModel struct {
	FilterOptions map[domain.FilterCategory][]domain.FilterOption
	PriceRange    domain.PriceRange

	Laptops   []domain.Laptop
	Total     int
	Page      int
	Limit     int
	PageCount int

	IsLoadingFilters bool
	IsLoadingResults bool
	// ResultsStale is set once the shown page is older than the cache stale time.
	ResultsStale bool
	FiltersError     error
	ResultsError     error

	FiltersKey string
	ResultsKey string
}

func (r ReadModel) IsLoading() bool {
	return r.IsLoadingFilters || r.IsLoadingResults
}

func (r ReadModel) HasError() bool {
	return r.FiltersError != nil || r.ResultsError != nil
}

func (r ReadModel) facets() *domain.FacetOptions {
	return &domain.FacetOptions{Options: r.FilterOptions, PriceRange: r.PriceRange}
}

// Options returns the options of c, never nil.
func (r ReadModel) Options(c domain.FilterCategory) []domain.FilterOption {
	return r.facets().OptionsFor(c)
}

// EnabledCount is the number of options of c that still match results.
func (r ReadModel) EnabledCount(c domain.FilterCategory) int {
	return r.facets().EnabledCount(c)
}
