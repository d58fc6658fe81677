package selection

import (
	"net/url"
	"slices"
	"strings"
	"sync"

	"laptops/facetsync/internal/cachekey"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/pagination"
	"laptops/facetsync/internal/urlstate"

	log "github.com/sirupsen/logrus"
)

// Router is the persistent store of the selection: the URL query.
// Push adds a history entry, Replace overwrites the current one.
type Router interface {
	Query() url.Values
	Push(values url.Values)
	Replace(values url.Values)
}

var emptyValues = []string{}

// Model holds the current selection and writes every change back to the Router.
//
// Value slices in the state are never modified in place: a mutation swaps in a
// new slice, so GetArrayParam keeps returning the same slice until its category
// actually changes.
type Model struct {
	mu     sync.Mutex
	router Router
	codec  *urlstate.Codec
	pager  *pagination.Controller
	state  domain.SelectionState

	version    uint64
	keyVersion uint64
	key        string
}

func NewModel(router Router, codec *urlstate.Codec) *Model {
	m := &Model{
		router: router,
		codec:  codec,
		pager:  pagination.NewController(codec.DefaultLimit()),
	}
	m.Reload()
	return m
}

// Reload re-reads the selection from the router, e.g. after back/forward.
func (m *Model) Reload() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = m.codec.Decode(m.router.Query())
	m.pager.Restore(m.state.Page, m.state.Limit)
	m.version++
}

// ToggleFilter removes value from category when present and appends it otherwise.
func (m *Model) ToggleFilter(category domain.FilterCategory, value string) {
	if !category.IsValid() {
		log.Warnf("Ignoring toggle for unknown category %q", category)
		return
	}
	if value == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.state.Filters[category]

	if category.IsPriceBound() {
		next := m.priceValue(category, value)
		if len(current) > 0 && len(next) > 0 && current[0] == next[0] {
			next = []string{}
		}
		m.state.Filters[category] = next
	} else {
		m.state.Filters[category] = toggled(current, value)
	}

	m.pager.FirstPage()
	m.commit(false)
}

// SetSearchTerm replaces the free-text term. Rapid typing must not flood the
// history, so this replaces the current entry.
func (m *Model) SetSearchTerm(term string) {
	term = strings.TrimSpace(term)

	m.mu.Lock()
	defer m.mu.Unlock()

	if term != m.state.Term {
		m.pager.FirstPage()
	}
	m.state.Term = term
	m.commit(true)
}

// SetPriceRange stores the bounds, leaving out any bound equal to its default.
func (m *Model) SetPriceRange(min, max float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for category, v := range map[domain.FilterCategory]float64{
		domain.FilterMinPrice: min,
		domain.FilterMaxPrice: max,
	} {
		next := m.priceValue(category, domain.FormatPrice(v))
		if !slices.Equal(m.state.Filters[category], next) {
			m.state.Filters[category] = next
		}
	}

	m.pager.FirstPage()
	m.commit(false)
}

// ResetFilters clears every category, the term and the price bounds with a
// single navigation.
func (m *Model) ResetFilters() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, c := range domain.FilterCategories {
		if len(m.state.Filters[c]) > 0 {
			m.state.Filters[c] = []string{}
		}
	}
	m.state.Term = ""
	m.pager.FirstPage()
	m.commit(false)
}

// SetPage moves to another result page. Filters are untouched.
func (m *Model) SetPage(page int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pager.SetPage(page)
	m.commit(false)
}

// SetLimit changes the page size and returns to page 1.
func (m *Model) SetLimit(limit int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pager.SetLimit(limit)
	m.commit(false)
}

// GetArrayParam returns the stored values of category. Callers must not modify it.
func (m *Model) GetArrayParam(category domain.FilterCategory) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if v, ok := m.state.Filters[category]; ok {
		return v
	}
	return emptyValues
}

// State returns a snapshot. The map is copied; value slices are shared and read-only.
func (m *Model) State() domain.SelectionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Clone()
}

// Term returns the current search term, empty when absent.
func (m *Model) Term() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state.Term
}

// DerivedKey returns the cache key of the current filters, recomputed only
// after the state changed.
func (m *Model) DerivedKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keyVersion != m.version {
		m.key = cachekey.Derive(m.state)
		m.keyVersion = m.version
	}
	return m.key
}

// Query is the encoded browser query of the current state.
func (m *Model) Query() url.Values {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.codec.Encode(m.state)
}

// PageCount is the number of pages for total at the current page size.
func (m *Model) PageCount(total int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pager.PageCount(total)
}

// Offset is the index of the first result on the current page.
func (m *Model) Offset() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pager.Offset()
}

func (m *Model) HasNext(total int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pager.HasNext(total)
}

func (m *Model) HasPrev() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pager.HasPrev()
}

func (m *Model) commit(replace bool) {
	m.state.Page = m.pager.Page()
	m.state.Limit = m.pager.Limit()
	m.version++

	values := m.codec.Encode(m.state)
	if replace {
		m.router.Replace(values)
	} else {
		m.router.Push(values)
	}
	log.Debugf("Selection updated: %s", values.Encode())
}

// priceValue normalizes a raw bound through the codec: unparseable or default
// bounds come back empty.
func (m *Model) priceValue(category domain.FilterCategory, value string) []string {
	decoded := m.codec.Decode(url.Values{category.String(): {value}})
	return decoded.Filters[category]
}

func toggled(current []string, value string) []string {
	for i, v := range current {
		if v == value {
			next := make([]string, 0, len(current)-1)
			next = append(next, current[:i]...)
			return append(next, current[i+1:]...)
		}
	}
	next := make([]string, len(current), len(current)+1)
	copy(next, current)
	return append(next, value)
}
