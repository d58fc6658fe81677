package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"laptops/facetsync/internal/config"
	"laptops/facetsync/internal/domain"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	filtersPath = "/laptops/filters"
	searchPath  = "/laptops/search"
)

// ErrCircuitOpen is returned while the catalog is cooling down after throttling us.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CatalogClient talks to the remote laptop catalog service.
type CatalogClient interface {
	FetchFilters(ctx context.Context, query url.Values) (*domain.FacetOptions, error)
	SearchLaptops(ctx context.Context, query url.Values) (*domain.PaginatedResult, error)
	Close() error
}

type catalogClient struct {
	rl         ratelimit.Limiter
	baseURL    string
	httpClient *resty.Client
	parser     *responseParser

	// Circuit breaker for throttling responses
	circuitBreakerMutex sync.RWMutex
	throttledUntil      time.Time
	circuitBreakerDelay time.Duration
}

func NewCatalogClient(cfg config.CatalogConfig) CatalogClient {
	client := resty.New().
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Accept", "application/json")

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	delay := cfg.CooldownDuration()
	if delay <= 0 {
		delay = 30 * time.Second
	}

	return &catalogClient{
		rl:                  rl,
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:          client,
		parser:              newResponseParser(),
		circuitBreakerDelay: delay,
	}
}

func (c *catalogClient) FetchFilters(ctx context.Context, query url.Values) (*domain.FacetOptions, error) {
	body, err := c.fetchJSON(ctx, filtersPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch filter options: %w", err)
	}

	options, err := c.parser.ParseFilters(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse filter options: %w", err)
	}

	log.Debugf("Fetched filter options for %d categories", len(options.Options))
	return options, nil
}

func (c *catalogClient) SearchLaptops(ctx context.Context, query url.Values) (*domain.PaginatedResult, error) {
	body, err := c.fetchJSON(ctx, searchPath, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch search results: %w", err)
	}

	result, err := c.parser.ParseSearch(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	log.Debugf("Fetched page %d/%d with %d laptops", result.Page, result.PageCount, len(result.Data))
	return result, nil
}

func (c *catalogClient) Close() error {
	return c.httpClient.Close()
}

func (c *catalogClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.throttledUntil)
	wasTriggered := !c.throttledUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		// Double-check after acquiring write lock
		if !c.throttledUntil.IsZero() && now.After(c.throttledUntil) {
			c.throttledUntil = time.Time{}
			log.Infof("✅ Circuit breaker re-enabled - catalog requests are allowed again")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *catalogClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.throttledUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! Catalog requests disabled until %v",
		c.throttledUntil.Format("15:04:05"))
}

func (c *catalogClient) getRemainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.throttledUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *catalogClient) fetchJSON(ctx context.Context, path string, query url.Values) (string, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.getRemainingCircuitBreakerTime()
		return "", fmt.Errorf("%w - requests disabled for %v more", ErrCircuitOpen, remaining.Round(time.Second))
	}

	c.rl.Take()

	target := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(target)

	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", fmt.Errorf("failed to fetch %s: %w", path, err)
	}

	switch resp.StatusCode() {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		log.Warnf("🚫 Catalog throttled request to %s (%d)", path, resp.StatusCode())
		c.triggerCircuitBreaker()
		return "", fmt.Errorf("catalog throttled: %s", resp.Status())
	}

	if resp.IsError() {
		return "", &HTTPError{StatusCode: resp.StatusCode(), Status: resp.Status(), Path: path}
	}

	return resp.String(), nil
}

// HTTPError is a non-2xx response from the catalog.
type HTTPError struct {
	StatusCode int
	Status     string
	Path       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error on %s: %d %s", e.Path, e.StatusCode, e.Status)
}
