package cachekey

import (
	"testing"

	"laptops/facetsync/internal/domain"

	"github.com/stretchr/testify/assert"
)

func stateWith(pairs ...[2]string) domain.SelectionState {
	s := domain.NewSelectionState(12)
	for _, p := range pairs {
		c := domain.FilterCategory(p[0])
		s.Filters[c] = append(s.Filters[c], p[1])
	}
	return s
}

func TestDerive_OrderIndependentAcrossCategories(t *testing.T) {
	s1 := stateWith([2]string{"brand", "ASUS"}, [2]string{"ram", "16GB"})
	s2 := stateWith([2]string{"ram", "16GB"}, [2]string{"brand", "ASUS"})

	assert.Equal(t, Derive(s1), Derive(s2))
	assert.Equal(t, "brand=ASUS&ram=16GB", Derive(s1))
}

func TestDerive_WithinCategoryOrderIsLiteral(t *testing.T) {
	s1 := stateWith([2]string{"brand", "ASUS"}, [2]string{"brand", "Dell"})
	s2 := stateWith([2]string{"brand", "Dell"}, [2]string{"brand", "ASUS"})

	assert.NotEqual(t, Derive(s1), Derive(s2))
}

func TestDerive_EmptySelection(t *testing.T) {
	assert.Equal(t, "", Derive(domain.NewSelectionState(12)))
}

func TestDerive_EscapesSeparators(t *testing.T) {
	a := stateWith([2]string{"tags", "a,b"})
	b := stateWith([2]string{"tags", "a"}, [2]string{"tags", "b"})

	assert.NotEqual(t, Derive(a), Derive(b))
}

func TestDerive_IgnoresTermAndPaging(t *testing.T) {
	s1 := stateWith([2]string{"brand", "HP"})
	s2 := s1.Clone()
	s2.Page = 4
	s2.Term = "envy"

	assert.Equal(t, Derive(s1), Derive(s2))
}

func TestQueryKey(t *testing.T) {
	s := stateWith([2]string{"brand", "HP"})
	derived := Derive(s)

	page1 := ForSearch("", s, derived)
	s.Page = 2
	page2 := ForSearch("", s, derived)

	t.Run("facet key ignores paging", func(t *testing.T) {
		assert.Equal(t, ForFilters("", s, derived), ForFilters("", stateWith([2]string{"brand", "HP"}), derived))
	})

	t.Run("search key tracks paging", func(t *testing.T) {
		assert.NotEqual(t, page1.String(), page2.String())
		assert.NotEqual(t, page1.Hash(), page2.Hash())
	})

	t.Run("scope separates users", func(t *testing.T) {
		assert.NotEqual(t, ForFilters("u1", s, derived).String(), ForFilters("u2", s, derived).String())
	})

	t.Run("storage key is namespaced", func(t *testing.T) {
		k := ForFilters("", s, derived)
		assert.Equal(t, "facetsync:filters:"+k.Hash(), k.StorageKey("facetsync:"))
		assert.Len(t, k.Hash(), 16)
	})
}
