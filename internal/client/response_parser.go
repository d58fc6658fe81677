package client

import (
	"encoding/json"
	"fmt"
	"strings"

	"laptops/facetsync/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const priceRangeKey = "priceRange"

type responseParser struct{}

func newResponseParser() *responseParser {
	return &responseParser{}
}

// ParseFilters decodes the facet response: one array per category plus priceRange.
// Unknown categories are skipped; options may arrive as objects or bare strings.
func (p *responseParser) ParseFilters(body string) (*domain.FacetOptions, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &raw); err != nil {
		return nil, fmt.Errorf("failed to decode filters body: %w", err)
	}

	options := &domain.FacetOptions{
		Options: make(map[domain.FilterCategory][]domain.FilterOption, len(domain.FilterCategories)),
	}

	for key, msg := range raw {
		if key == priceRangeKey {
			if err := json.Unmarshal(msg, &options.PriceRange); err != nil {
				return nil, fmt.Errorf("failed to decode priceRange: %w", err)
			}
			continue
		}

		category, ok := domain.ParseFilterCategory(key)
		if !ok {
			log.Debugf("Skipping unknown facet %q", key)
			continue
		}

		opts, err := p.parseOptions(msg)
		if err != nil {
			log.Warnf("Skipping malformed facet %q: %v", key, err)
			continue
		}
		options.Options[category] = opts
	}

	for _, c := range domain.FilterCategories {
		if _, ok := options.Options[c]; !ok && !c.IsPriceBound() {
			options.Options[c] = []domain.FilterOption{}
		}
	}

	return options, nil
}

func (p *responseParser) parseOptions(msg json.RawMessage) ([]domain.FilterOption, error) {
	var opts []domain.FilterOption
	if err := json.Unmarshal(msg, &opts); err == nil {
		return dropBlankOptions(opts), nil
	}

	var values []json.RawMessage
	if err := json.Unmarshal(msg, &values); err != nil {
		return nil, err
	}

	opts = make([]domain.FilterOption, 0, len(values))
	for _, v := range values {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			opts = append(opts, domain.FilterOption{Value: s})
			continue
		}
		// numeric facets such as year or refresh rate
		opts = append(opts, domain.FilterOption{Value: strings.TrimSpace(string(v))})
	}
	return dropBlankOptions(opts), nil
}

// ParseSearch decodes one result page and flattens HTML descriptions.
func (p *responseParser) ParseSearch(body string) (*domain.PaginatedResult, error) {
	var result domain.PaginatedResult
	if err := json.Unmarshal([]byte(body), &result); err != nil {
		return nil, fmt.Errorf("failed to decode search body: %w", err)
	}

	result.Normalize()
	for i := range result.Data {
		result.Data[i].Summary = p.plainText(result.Data[i].ShortDesc)
	}

	return &result, nil
}

func (p *responseParser) plainText(html string) string {
	if !strings.ContainsAny(html, "<&") {
		return strings.TrimSpace(html)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Debugf("Failed to parse description HTML: %v", err)
		return strings.TrimSpace(html)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func dropBlankOptions(opts []domain.FilterOption) []domain.FilterOption {
	out := make([]domain.FilterOption, 0, len(opts))
	for _, o := range opts {
		if o.Value != "" && o.Value != "null" {
			out = append(out, o)
		}
	}
	return out
}
