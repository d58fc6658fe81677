package urlstate

import (
	"net/url"
	"testing"

	"laptops/facetsync/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec() *Codec {
	return NewCodec(12, domain.DefaultPriceDefaults())
}

func mustParse(t *testing.T, raw string) url.Values {
	t.Helper()
	v, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return v
}

func TestCodec_Decode(t *testing.T) {
	codec := newTestCodec()

	tests := []struct {
		name     string
		query    string
		validate func(t *testing.T, s domain.SelectionState)
	}{
		{
			name:  "empty query yields every category empty",
			query: "",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Len(t, s.Filters, len(domain.FilterCategories))
				for _, c := range domain.FilterCategories {
					assert.NotNil(t, s.Filters[c], c.String())
					assert.Empty(t, s.Filters[c], c.String())
				}
				assert.Equal(t, "", s.Term)
				assert.Equal(t, 1, s.Page)
				assert.Equal(t, 12, s.Limit)
			},
		},
		{
			name:  "scalar becomes single element, repeated keys keep order",
			query: "brand=ASUS&brand=Dell&ram=16GB",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, []string{"ASUS", "Dell"}, s.Filters[domain.FilterBrand])
				assert.Equal(t, []string{"16GB"}, s.Filters[domain.FilterRAM])
			},
		},
		{
			name:  "unknown keys are dropped",
			query: "color=red&utm_source=mail&brand=Lenovo",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Len(t, s.Filters, len(domain.FilterCategories))
				assert.Equal(t, []string{"Lenovo"}, s.Filters[domain.FilterBrand])
			},
		},
		{
			name:  "duplicates and empty values are removed",
			query: "brand=ASUS&brand=&brand=ASUS&brand=HP",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, []string{"ASUS", "HP"}, s.Filters[domain.FilterBrand])
			},
		},
		{
			name:  "term page and limit are coerced",
			query: "term=rog+strix&page=3&limit=24",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, "rog strix", s.Term)
				assert.Equal(t, 3, s.Page)
				assert.Equal(t, 24, s.Limit)
			},
		},
		{
			name:  "malformed page and limit fall back to defaults",
			query: "page=abc&limit=-4&term=x",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, 1, s.Page)
				assert.Equal(t, 12, s.Limit)
				assert.Equal(t, "x", s.Term)
			},
		},
		{
			name:  "term is trimmed and blank term is absent",
			query: "term=%20%20&brand=HP",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, "", s.Term)
				assert.Equal(t, "", newTestCodec().Encode(s).Get(ParamTerm))
			},
		},
		{
			name:  "surrounding whitespace is dropped from the term",
			query: "term=+rog+",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, "rog", s.Term)
			},
		},
		{
			name:  "default price bounds are elided",
			query: "minPrice=500&maxPrice=5000",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Empty(t, s.Filters[domain.FilterMinPrice])
				assert.Empty(t, s.Filters[domain.FilterMaxPrice])
			},
		},
		{
			name:  "price keeps first parseable value in canonical form",
			query: "minPrice=600.0&minPrice=700&maxPrice=oops",
			validate: func(t *testing.T, s domain.SelectionState) {
				assert.Equal(t, []string{"600"}, s.Filters[domain.FilterMinPrice])
				assert.Empty(t, s.Filters[domain.FilterMaxPrice])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.validate(t, codec.Decode(mustParse(t, tt.query)))
		})
	}
}

func TestCodec_Encode_OmitsEmptyAndDefaults(t *testing.T) {
	codec := newTestCodec()
	state := domain.NewSelectionState(12)
	state.Filters[domain.FilterBrand] = []string{"ASUS", "Dell"}
	state.Filters[domain.FilterMinPrice] = []string{"600"}
	state.Filters[domain.FilterMaxPrice] = []string{"5000"}

	values := codec.Encode(state)

	assert.Equal(t, "brand=ASUS&brand=Dell&minPrice=600", values.Encode())
	assert.NotContains(t, values, ParamTerm)
	assert.NotContains(t, values, ParamPage)
	assert.NotContains(t, values, ParamLimit)
}

func TestCodec_Encode_PagingAndTerm(t *testing.T) {
	codec := newTestCodec()
	state := domain.NewSelectionState(12)
	state.Term = "zenbook"
	state.Page = 2
	state.Limit = 24

	assert.Equal(t, "limit=24&page=2&term=zenbook", codec.Encode(state).Encode())
}

func TestCodec_RoundTripIsIdempotent(t *testing.T) {
	codec := newTestCodec()
	queries := []string{
		"",
		"brand=ASUS&brand=Dell&ram=16GB&term=gaming",
		"minPrice=500&maxPrice=4000&page=2",
		"gpuModel=RTX+4060&gpuModel=RTX+4070&limit=48&unknown=1",
		"brand=HP&brand=HP&minPrice=700.50&page=0",
	}

	for _, q := range queries {
		t.Run(q, func(t *testing.T) {
			first := codec.Encode(codec.Decode(mustParse(t, q)))
			second := codec.Encode(codec.Decode(first))
			assert.Equal(t, first.Encode(), second.Encode())

			decoded := codec.Decode(first)
			again := codec.Decode(second)
			assert.Equal(t, decoded, again)
		})
	}
}

func TestCodec_EncodeOutbound(t *testing.T) {
	codec := newTestCodec()
	state := domain.NewSelectionState(12)
	state.Filters[domain.FilterBrand] = []string{"ASUS", "Dell"}
	state.Term = "oled"

	t.Run("unscoped", func(t *testing.T) {
		values := codec.EncodeOutbound(state, "")
		assert.Equal(t, "brand=ASUS&brand=Dell&limit=12&page=1&term=oled", values.Encode())
	})

	t.Run("scoped to user", func(t *testing.T) {
		values := codec.EncodeOutbound(state, "user-42")
		assert.Equal(t, "user-42", values.Get(ParamUserID))
		assert.Equal(t, "1", values.Get(ParamPage))
	})
}
