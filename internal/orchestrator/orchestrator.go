package orchestrator

import (
	"context"
	"net/url"
	"sync"
	"time"

	"laptops/facetsync/internal/cache"
	"laptops/facetsync/internal/cachekey"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/metrics"
	"laptops/facetsync/internal/urlstate"

	log "github.com/sirupsen/logrus"
)

// Fetcher executes the two remote catalog queries.
type Fetcher interface {
	FetchFilters(ctx context.Context, query url.Values) (*domain.FacetOptions, error)
	SearchLaptops(ctx context.Context, query url.Values) (*domain.PaginatedResult, error)
}

// ResultHook observes every result page applied to the read model.
type ResultHook func(ctx context.Context, key cachekey.QueryKey, state domain.SelectionState, result *domain.PaginatedResult)

type slot[T any] struct {
	key     cachekey.QueryKey
	data    T
	hasData bool
	loading bool
	err     error
}

// activate makes key current and reports whether a fetch is needed. An
// unchanged key with data or a request in flight needs none.
func (s *slot[T]) activate(key cachekey.QueryKey) bool {
	if s.key == key && (s.loading || (s.hasData && s.err == nil)) {
		return false
	}
	s.key = key
	s.loading = true
	s.err = nil
	return true
}

// Orchestrator keeps the facet-options and result-page queries in step with
// the selection. Each query is cached and fails independently; a response is
// applied only while its key is still the active one.
type Orchestrator struct {
	fetcher Fetcher
	codec   *urlstate.Codec
	cache   *cache.QueryCache
	metrics *metrics.Metrics
	scope   string
	hooks   []ResultHook

	mu      sync.Mutex
	filters slot[*domain.FacetOptions]
	results slot[*domain.PaginatedResult]
}

type Option func(*Orchestrator)

// WithScope restricts both queries to one user's listings.
func WithScope(userID string) Option {
	return func(o *Orchestrator) { o.scope = userID }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithResultHook(h ResultHook) Option {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, h) }
}

func New(fetcher Fetcher, codec *urlstate.Codec, queryCache *cache.QueryCache, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		fetcher: fetcher,
		codec:   codec,
		cache:   queryCache,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Scope() string {
	return o.scope
}

// Refresh points both queries at state and issues whatever fetches are needed.
// It does not block; the returned channel closes once the started fetches settle.
func (o *Orchestrator) Refresh(ctx context.Context, state domain.SelectionState) <-chan struct{} {
	derived := cachekey.Derive(state)
	filtersKey := cachekey.ForFilters(o.scope, state, derived)
	resultsKey := cachekey.ForSearch(o.scope, state, derived)

	o.mu.Lock()
	fetchFilters := o.filters.activate(filtersKey)
	fetchResults := o.results.activate(resultsKey)
	o.mu.Unlock()

	var wg sync.WaitGroup
	query := o.codec.EncodeOutbound(state, o.scope)

	if fetchFilters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.loadFilters(ctx, filtersKey, query)
		}()
	}

	if fetchResults {
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.loadResults(ctx, resultsKey, state, query)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// Sync refreshes and waits for the fetches, or for ctx, before returning the read model.
func (o *Orchestrator) Sync(ctx context.Context, state domain.SelectionState) ReadModel {
	done := o.Refresh(ctx, state)
	select {
	case <-done:
	case <-ctx.Done():
	}
	return o.Snapshot()
}

// Retry re-issues whichever query is in error for the active keys. Cached
// copies of the failed keys are dropped first so the retry goes to the catalog.
func (o *Orchestrator) Retry(ctx context.Context, state domain.SelectionState) <-chan struct{} {
	o.mu.Lock()
	var failed []cachekey.QueryKey
	if o.filters.err != nil {
		failed = append(failed, o.filters.key)
	}
	if o.results.err != nil {
		failed = append(failed, o.results.key)
	}
	o.mu.Unlock()

	if len(failed) > 0 {
		if err := o.cache.Invalidate(ctx, failed...); err != nil {
			log.Warnf("⚠️ Failed to invalidate %d cached queries: %v", len(failed), err)
		}
	}
	return o.Refresh(ctx, state)
}

func (o *Orchestrator) loadFilters(ctx context.Context, key cachekey.QueryKey, query url.Values) {
	data, err := cache.Fetch(ctx, o.cache, key, func(ctx context.Context) (*domain.FacetOptions, error) {
		defer o.metrics.ObserveFetch(string(key.Kind), time.Now())
		return o.fetcher.FetchFilters(ctx, query)
	})

	o.mu.Lock()
	defer o.mu.Unlock()

	if o.filters.key != key {
		o.metrics.StaleDiscard(string(key.Kind))
		log.Debugf("Discarding stale filter options for %s", key)
		return
	}

	o.filters.loading = false
	if err != nil {
		o.filters.err = err
		log.Warnf("⚠️ Filter options query failed: %v", err)
		return
	}
	o.filters.data = data
	o.filters.hasData = true
	o.filters.err = nil
}

func (o *Orchestrator) loadResults(ctx context.Context, key cachekey.QueryKey, state domain.SelectionState, query url.Values) {
	data, err := cache.Fetch(ctx, o.cache, key, func(ctx context.Context) (*domain.PaginatedResult, error) {
		defer o.metrics.ObserveFetch(string(key.Kind), time.Now())
		return o.fetcher.SearchLaptops(ctx, query)
	})

	o.mu.Lock()
	if o.results.key != key {
		o.mu.Unlock()
		o.metrics.StaleDiscard(string(key.Kind))
		log.Debugf("Discarding stale results for %s", key)
		return
	}

	o.results.loading = false
	if err != nil {
		o.results.err = err
		o.mu.Unlock()
		log.Warnf("⚠️ Search results query failed: %v", err)
		return
	}
	o.results.data = data
	o.results.hasData = true
	o.results.err = nil
	o.mu.Unlock()

	for _, hook := range o.hooks {
		hook(ctx, key, state, data)
	}
}

// Snapshot returns the current read model. Previous data stays visible while a
// new key is loading.
func (o *Orchestrator) Snapshot() ReadModel {
	o.mu.Lock()
	defer o.mu.Unlock()

	rm := ReadModel{
		FilterOptions:    map[domain.FilterCategory][]domain.FilterOption{},
		Laptops:          []domain.Laptop{},
		Page:             o.results.key.Page,
		Limit:            o.results.key.Limit,
		IsLoadingFilters: o.filters.loading,
		IsLoadingResults: o.results.loading,
		FiltersError:     o.filters.err,
		ResultsError:     o.results.err,
	}
	if !o.filters.key.IsZero() {
		rm.FiltersKey = o.filters.key.String()
	}
	if !o.results.key.IsZero() {
		rm.ResultsKey = o.results.key.String()
	}

	if f := o.filters.data; f != nil {
		for c, opts := range f.Options {
			rm.FilterOptions[c] = opts
		}
		rm.PriceRange = f.PriceRange
	}

	if r := o.results.data; r != nil {
		rm.Laptops = r.Data
		rm.ResultsStale = !o.cache.IsFresh(o.results.key)
		rm.Total = r.Total
		rm.PageCount = r.PageCount
		if r.PageCount == 0 {
			rm.PageCount = domain.ComputePageCount(r.Total, rm.Limit)
		}
	}

	return rm
}
