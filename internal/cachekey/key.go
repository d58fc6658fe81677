package cachekey

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"laptops/facetsync/internal/domain"

	"github.com/cespare/xxhash/v2"
)

// Derive builds the order-independent key of a selection's filters.
// Categories are sorted by name; values keep their stored order.
func Derive(state domain.SelectionState) string {
	names := make([]string, 0, len(state.Filters))
	for category, values := range state.Filters {
		if len(values) == 0 {
			continue
		}
		names = append(names, category.String())
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		for j, v := range state.Filters[domain.FilterCategory(name)] {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}

type Kind string

const (
	KindFilters Kind = "filters"
	KindSearch  Kind = "search"
)

// QueryKey identifies one cache slot of the two remote queries.
type QueryKey struct {
	Kind    Kind
	Scope   string
	Term    string
	Derived string
	Page    int
	Limit   int
}

// ForFilters keys the facet-options query. Paging is deliberately absent.
func ForFilters(scope string, state domain.SelectionState, derived string) QueryKey {
	return QueryKey{
		Kind:    KindFilters,
		Scope:   scope,
		Term:    state.Term,
		Derived: derived,
	}
}

// ForSearch keys the result-page query.
func ForSearch(scope string, state domain.SelectionState, derived string) QueryKey {
	return QueryKey{
		Kind:    KindSearch,
		Scope:   scope,
		Term:    state.Term,
		Derived: derived,
		Page:    state.Page,
		Limit:   state.Limit,
	}
}

func (k QueryKey) String() string {
	parts := []string{
		string(k.Kind),
		"scope=" + url.QueryEscape(k.Scope),
		"term=" + url.QueryEscape(k.Term),
		"filters=" + url.QueryEscape(k.Derived),
	}
	if k.Kind == KindSearch {
		parts = append(parts,
			"page="+strconv.Itoa(k.Page),
			"limit="+strconv.Itoa(k.Limit),
		)
	}
	return strings.Join(parts, "|")
}

func (k QueryKey) IsZero() bool {
	return k == QueryKey{}
}

// Hash is a compact fingerprint of the key, used for shared storage.
func (k QueryKey) Hash() string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(k.String()))
}

// StorageKey namespaces the fingerprint under prefix and kind.
func (k QueryKey) StorageKey(prefix string) string {
	return prefix + string(k.Kind) + ":" + k.Hash()
}
