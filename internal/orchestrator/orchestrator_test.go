package orchestrator

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"laptops/facetsync/internal/cache"
	"laptops/facetsync/internal/cachekey"
	"laptops/facetsync/internal/clock"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/metrics"
	"laptops/facetsync/internal/urlstate"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher answers with data derived from the processorBrand selection so
// tests can tell which key a response belongs to. Requests for a gated
// selection block until the gate is closed.
type fakeFetcher struct {
	mu          sync.Mutex
	filterCalls int
	searchCalls int
	gates       map[string]chan struct{}
	filterErr   error
	searchErr   error
	queries     []url.Values
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{gates: map[string]chan struct{}{}}
}

func selectionID(query url.Values) string {
	return strings.Join(query[domain.FilterProcessorBrand.String()], ",")
}

func (f *fakeFetcher) gate(id string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()

	ch := make(chan struct{})
	f.gates[id] = ch
	return ch
}

func (f *fakeFetcher) wait(query url.Values) {
	f.mu.Lock()
	ch, ok := f.gates[selectionID(query)]
	f.mu.Unlock()
	if ok {
		<-ch
	}
}

func (f *fakeFetcher) FetchFilters(ctx context.Context, query url.Values) (*domain.FacetOptions, error) {
	f.mu.Lock()
	f.filterCalls++
	f.queries = append(f.queries, query)
	err := f.filterErr
	f.mu.Unlock()

	f.wait(query)
	if err != nil {
		return nil, err
	}

	opts := []domain.FilterOption{}
	for _, v := range query[domain.FilterProcessorBrand.String()] {
		opts = append(opts, domain.FilterOption{Value: v})
	}
	return &domain.FacetOptions{
		Options:    map[domain.FilterCategory][]domain.FilterOption{domain.FilterProcessorBrand: opts},
		PriceRange: domain.PriceRange{Min: 400, Max: 6000},
	}, nil
}

func (f *fakeFetcher) SearchLaptops(ctx context.Context, query url.Values) (*domain.PaginatedResult, error) {
	f.mu.Lock()
	f.searchCalls++
	f.queries = append(f.queries, query)
	err := f.searchErr
	f.mu.Unlock()

	f.wait(query)
	if err != nil {
		return nil, err
	}

	page, _ := strconv.Atoi(query.Get("page"))
	limit, _ := strconv.Atoi(query.Get("limit"))
	return &domain.PaginatedResult{
		Data:      []domain.Laptop{{ID: selectionID(query) + "-p" + query.Get("page")}},
		Total:     30,
		Page:      page,
		Limit:     limit,
		PageCount: domain.ComputePageCount(30, limit),
	}, nil
}

func (f *fakeFetcher) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.filterCalls, f.searchCalls
}

func (f *fakeFetcher) setErrors(filterErr, searchErr error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.filterErr = filterErr
	f.searchErr = searchErr
}

func newTestOrchestrator(t *testing.T, fetcher Fetcher, opts ...Option) (*Orchestrator, *metrics.Metrics) {
	t.Helper()
	m := metrics.New(prometheus.NewRegistry())
	codec := urlstate.NewCodec(12, domain.DefaultPriceDefaults())
	qc := cache.NewQueryCache(5*time.Second, cache.WithMetrics(m))
	opts = append([]Option{WithMetrics(m)}, opts...)
	return New(fetcher, codec, qc, opts...), m
}

func stateWith(brands ...string) domain.SelectionState {
	s := domain.NewSelectionState(12)
	s.Filters[domain.FilterProcessorBrand] = brands
	return s
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("fetches did not settle")
	}
}

func TestOrchestrator_SyncLoadsBothQueries(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _ := newTestOrchestrator(t, fetcher)

	rm := o.Sync(context.Background(), stateWith("Intel"))

	assert.False(t, rm.IsLoading())
	assert.False(t, rm.HasError())
	assert.Equal(t, []domain.FilterOption{{Value: "Intel"}}, rm.Options(domain.FilterProcessorBrand))
	assert.Equal(t, domain.PriceRange{Min: 400, Max: 6000}, rm.PriceRange)
	require.Len(t, rm.Laptops, 1)
	assert.Equal(t, "Intel-p1", rm.Laptops[0].ID)
	assert.Equal(t, 30, rm.Total)
	assert.Equal(t, 3, rm.PageCount)
	assert.Equal(t, 1, rm.Page)
	assert.Equal(t, 12, rm.Limit)
}

func TestOrchestrator_StaleResponsesAreDiscarded(t *testing.T) {
	fetcher := newFakeFetcher()
	o, m := newTestOrchestrator(t, fetcher)

	gateA := fetcher.gate("Intel")
	gateB := fetcher.gate("Intel,AMD")

	doneA := o.Refresh(context.Background(), stateWith("Intel"))
	doneB := o.Refresh(context.Background(), stateWith("Intel", "AMD"))

	close(gateB)
	waitDone(t, doneB)

	rm := o.Snapshot()
	require.Len(t, rm.Laptops, 1)
	assert.Equal(t, "Intel,AMD-p1", rm.Laptops[0].ID)

	close(gateA)
	waitDone(t, doneA)

	rm = o.Snapshot()
	require.Len(t, rm.Laptops, 1)
	assert.Equal(t, "Intel,AMD-p1", rm.Laptops[0].ID)
	assert.Equal(t, []domain.FilterOption{{Value: "Intel"}, {Value: "AMD"}}, rm.Options(domain.FilterProcessorBrand))
	assert.False(t, rm.IsLoading())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleDiscards.WithLabelValues(string(cachekey.KindFilters))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StaleDiscards.WithLabelValues(string(cachekey.KindSearch))))
}

func TestOrchestrator_PageChangeReusesFacetQuery(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _ := newTestOrchestrator(t, fetcher)

	state := stateWith("AMD")
	o.Sync(context.Background(), state)

	state.Page = 2
	rm := o.Sync(context.Background(), state)

	filterCalls, searchCalls := fetcher.calls()
	assert.Equal(t, 1, filterCalls)
	assert.Equal(t, 2, searchCalls)
	assert.Equal(t, "AMD-p2", rm.Laptops[0].ID)
	assert.Equal(t, 2, rm.Page)
}

func TestOrchestrator_UnchangedKeyIssuesNoRequests(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _ := newTestOrchestrator(t, fetcher)

	o.Sync(context.Background(), stateWith("Intel"))
	o.Sync(context.Background(), stateWith("Intel"))

	filterCalls, searchCalls := fetcher.calls()
	assert.Equal(t, 1, filterCalls)
	assert.Equal(t, 1, searchCalls)
}

func TestOrchestrator_ReturningToCachedKeyWithinStaleTime(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _ := newTestOrchestrator(t, fetcher)

	o.Sync(context.Background(), stateWith("Intel"))
	o.Sync(context.Background(), stateWith("Intel", "AMD"))
	rm := o.Sync(context.Background(), stateWith("Intel"))

	filterCalls, searchCalls := fetcher.calls()
	assert.Equal(t, 2, filterCalls)
	assert.Equal(t, 2, searchCalls)
	assert.Equal(t, "Intel-p1", rm.Laptops[0].ID)
}

func TestOrchestrator_KeepsPreviousDataWhileLoading(t *testing.T) {
	fetcher := newFakeFetcher()
	o, _ := newTestOrchestrator(t, fetcher)

	o.Sync(context.Background(), stateWith("Intel"))

	gate := fetcher.gate("AMD")
	done := o.Refresh(context.Background(), stateWith("AMD"))

	rm := o.Snapshot()
	assert.True(t, rm.IsLoadingFilters)
	assert.True(t, rm.IsLoadingResults)
	assert.Equal(t, "Intel-p1", rm.Laptops[0].ID)

	close(gate)
	waitDone(t, done)
	assert.Equal(t, "AMD-p1", o.Snapshot().Laptops[0].ID)
}

func TestOrchestrator_QueryFailuresAreIndependent(t *testing.T) {
	tests := []struct {
		name       string
		filterErr  error
		searchErr  error
		validateRM func(t *testing.T, rm ReadModel)
	}{
		{
			name:      "facet failure still renders results",
			filterErr: errors.New("filters down"),
			validateRM: func(t *testing.T, rm ReadModel) {
				assert.Error(t, rm.FiltersError)
				assert.NoError(t, rm.ResultsError)
				assert.Len(t, rm.Laptops, 1)
			},
		},
		{
			name:      "result failure still renders facets",
			searchErr: errors.New("search down"),
			validateRM: func(t *testing.T, rm ReadModel) {
				assert.NoError(t, rm.FiltersError)
				assert.Error(t, rm.ResultsError)
				assert.NotEmpty(t, rm.Options(domain.FilterProcessorBrand))
				assert.Empty(t, rm.Laptops)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := newFakeFetcher()
			fetcher.setErrors(tt.filterErr, tt.searchErr)
			o, _ := newTestOrchestrator(t, fetcher)

			rm := o.Sync(context.Background(), stateWith("Intel"))
			assert.False(t, rm.IsLoading())
			tt.validateRM(t, rm)

			fetcher.setErrors(nil, nil)
			waitDone(t, o.Retry(context.Background(), stateWith("Intel")))

			rm = o.Snapshot()
			assert.False(t, rm.HasError())
			assert.Len(t, rm.Laptops, 1)
			assert.NotEmpty(t, rm.Options(domain.FilterProcessorBrand))
		})
	}
}

func TestOrchestrator_ScopeAndHook(t *testing.T) {
	fetcher := newFakeFetcher()

	var mu sync.Mutex
	var hooked []cachekey.QueryKey
	hook := func(ctx context.Context, key cachekey.QueryKey, state domain.SelectionState, result *domain.PaginatedResult) {
		mu.Lock()
		defer mu.Unlock()
		hooked = append(hooked, key)
	}

	o, _ := newTestOrchestrator(t, fetcher, WithScope("seller-9"), WithResultHook(hook))
	o.Sync(context.Background(), stateWith("Intel"))

	fetcher.mu.Lock()
	for _, q := range fetcher.queries {
		assert.Equal(t, "seller-9", q.Get(urlstate.ParamUserID))
		assert.Equal(t, "1", q.Get(urlstate.ParamPage))
		assert.Equal(t, "12", q.Get(urlstate.ParamLimit))
	}
	fetcher.mu.Unlock()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hooked, 1)
	assert.Equal(t, "seller-9", hooked[0].Scope)
	assert.Equal(t, cachekey.KindSearch, hooked[0].Kind)
}

func TestOrchestrator_RetryDropsCachedCopyOfFailedKey(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	fetcher := newFakeFetcher()
	fetcher.setErrors(nil, errors.New("search down"))

	codec := urlstate.NewCodec(12, domain.DefaultPriceDefaults())
	qc := cache.NewQueryCache(5*time.Second, cache.WithStore(cache.NewRedisStore(rdb)))
	o := New(fetcher, codec, qc)

	state := stateWith("Intel")
	rm := o.Sync(context.Background(), state)
	require.Error(t, rm.ResultsError)

	// another instance filled the shared cache in the meantime
	storageKey := cachekey.ForSearch("", state, cachekey.Derive(state)).StorageKey(cache.DefaultPrefix)
	require.NoError(t, mr.Set(storageKey, `{"data":[{"id":"seeded"}],"total":1,"page":1,"limit":12}`))

	fetcher.setErrors(nil, nil)
	waitDone(t, o.Retry(context.Background(), state))

	rm = o.Snapshot()
	require.NoError(t, rm.ResultsError)
	assert.Equal(t, "Intel-p1", rm.Laptops[0].ID)

	_, searchCalls := fetcher.calls()
	assert.Equal(t, 2, searchCalls)

	stored, err := mr.Get(storageKey)
	require.NoError(t, err)
	assert.Contains(t, stored, "Intel-p1")
}

func TestOrchestrator_ResultsGoStale(t *testing.T) {
	clk := clock.NewMockClock(time.Unix(1_700_000_000, 0))
	codec := urlstate.NewCodec(12, domain.DefaultPriceDefaults())
	qc := cache.NewQueryCache(5*time.Second, cache.WithClock(clk))
	o := New(newFakeFetcher(), codec, qc)

	rm := o.Sync(context.Background(), stateWith("AMD"))
	assert.False(t, rm.ResultsStale)
	assert.NotEmpty(t, rm.ResultsKey)

	clk.Advance(6 * time.Second)
	assert.True(t, o.Snapshot().ResultsStale)
}

func TestOrchestrator_SnapshotBeforeFirstRefresh(t *testing.T) {
	o, _ := newTestOrchestrator(t, newFakeFetcher())

	rm := o.Snapshot()
	assert.Empty(t, rm.FiltersKey)
	assert.Empty(t, rm.ResultsKey)
	assert.NotNil(t, rm.Laptops)
	assert.False(t, rm.ResultsStale)
}
