package urlstate

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"laptops/facetsync/internal/domain"

	"github.com/gorilla/schema"
	log "github.com/sirupsen/logrus"
)

const (
	ParamTerm   = "term"
	ParamPage   = "page"
	ParamLimit  = "limit"
	ParamUserID = "userId"
)

// scalarParams are the non-category query parameters.
type scalarParams struct {
	Term  string `schema:"term,omitempty"`
	Page  int    `schema:"page,omitempty"`
	Limit int    `schema:"limit,omitempty"`
}

// Codec converts between URL query values and a normalized SelectionState.
type Codec struct {
	defaultLimit int
	prices       domain.PriceDefaults
	decoder      *schema.Decoder
	encoder      *schema.Encoder
}

func NewCodec(defaultLimit int, prices domain.PriceDefaults) *Codec {
	if defaultLimit < 1 {
		defaultLimit = domain.DefaultLimit
	}

	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)

	return &Codec{
		defaultLimit: defaultLimit,
		prices:       prices,
		decoder:      decoder,
		encoder:      schema.NewEncoder(),
	}
}

func (c *Codec) DefaultLimit() int {
	return c.defaultLimit
}

func (c *Codec) PriceDefaults() domain.PriceDefaults {
	return c.prices
}

// Decode never fails: unknown keys are dropped and malformed entries read as absent.
func (c *Codec) Decode(query url.Values) domain.SelectionState {
	state := domain.NewSelectionState(c.defaultLimit)

	for _, category := range domain.FilterCategories {
		raw, ok := query[category.String()]
		if !ok || len(raw) == 0 {
			continue
		}

		if category.IsPriceBound() {
			if v, ok := c.decodePrice(category, raw); ok {
				state.Filters[category] = []string{v}
			}
			continue
		}

		state.Filters[category] = uniqueNonEmpty(raw)
	}

	var scalars scalarParams
	if err := c.decoder.Decode(&scalars, scalarSubset(query)); err != nil {
		// Fields that failed conversion stay zero and fall back to defaults below.
		log.Debugf("Ignoring malformed scalar params: %v", err)
	}

	state.Term = strings.TrimSpace(scalars.Term)
	if scalars.Page >= 1 {
		state.Page = scalars.Page
	}
	if scalars.Limit >= 1 {
		state.Limit = scalars.Limit
	}

	return state
}

// Encode renders the minimal browser query for state.
func (c *Codec) Encode(state domain.SelectionState) url.Values {
	values := c.encodeFilters(state)

	scalars := scalarParams{Term: state.Term}
	if state.Page > domain.DefaultPage {
		scalars.Page = state.Page
	}
	if state.Limit >= 1 && state.Limit != c.defaultLimit {
		scalars.Limit = state.Limit
	}
	c.encodeScalars(scalars, values)

	return values
}

// EncodeOutbound renders the query sent to the catalog service.
// Page and limit are always present; userId is added when the search is scoped.
func (c *Codec) EncodeOutbound(state domain.SelectionState, userID string) url.Values {
	values := c.encodeFilters(state)
	c.encodeScalars(scalarParams{Term: state.Term}, values)

	page := state.Page
	if page < 1 {
		page = domain.DefaultPage
	}
	limit := state.Limit
	if limit < 1 {
		limit = c.defaultLimit
	}
	values.Set(ParamPage, strconv.Itoa(page))
	values.Set(ParamLimit, strconv.Itoa(limit))

	if userID != "" {
		values.Set(ParamUserID, userID)
	}

	return values
}

func (c *Codec) encodeFilters(state domain.SelectionState) url.Values {
	values := url.Values{}
	for _, category := range domain.FilterCategories {
		selected := state.Filters[category]
		if len(selected) == 0 {
			continue
		}

		if category.IsPriceBound() {
			if v, ok := c.decodePrice(category, selected); ok {
				values.Set(category.String(), v)
			}
			continue
		}

		values[category.String()] = append([]string(nil), selected...)
	}
	return values
}

func (c *Codec) encodeScalars(scalars scalarParams, dst url.Values) {
	if err := c.encoder.Encode(scalars, dst); err != nil {
		log.Warnf("Failed to encode scalar params: %v", err)
	}
}

// decodePrice returns the canonical price for the first value, or false when it
// is unparseable or equal to the default bound.
func (c *Codec) decodePrice(category domain.FilterCategory, raw []string) (string, bool) {
	v, err := strconv.ParseFloat(raw[0], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return "", false
	}

	switch category {
	case domain.FilterMinPrice:
		if v == c.prices.Min {
			return "", false
		}
	case domain.FilterMaxPrice:
		if v == c.prices.Max {
			return "", false
		}
	}

	return domain.FormatPrice(v), true
}

func scalarSubset(query url.Values) map[string][]string {
	subset := make(map[string][]string, 3)
	for _, key := range []string{ParamTerm, ParamPage, ParamLimit} {
		if v, ok := query[key]; ok && len(v) > 0 {
			// Only the first occurrence counts.
			subset[key] = v[:1]
		}
	}
	return subset
}

func uniqueNonEmpty(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
