package service

import (
	"context"

	"laptops/facetsync/internal/cache"
	"laptops/facetsync/internal/cachekey"
	"laptops/facetsync/internal/domain"
	"laptops/facetsync/internal/orchestrator"
	"laptops/facetsync/internal/repository"
	"laptops/facetsync/internal/router"
	"laptops/facetsync/internal/selection"
	"laptops/facetsync/internal/urlstate"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SearchRecorder stores the result pages a session was shown.
type SearchRecorder interface {
	Record(ctx context.Context, entry repository.SearchLogEntry) error
}

// Service is one search session: the selection kept in a browser-like history
// and the two catalog queries that follow it. Every mutation re-syncs the
// queries before returning the read model.
type Service struct {
	id           uuid.UUID
	codec        *urlstate.Codec
	history      *router.History
	model        *selection.Model
	orchestrator *orchestrator.Orchestrator
}

// NewService opens a session on rawQuery. recorder may be nil.
func NewService(
	rawQuery string,
	codec *urlstate.Codec,
	fetcher orchestrator.Fetcher,
	queryCache *cache.QueryCache,
	recorder SearchRecorder,
	opts ...orchestrator.Option,
) *Service {
	s := &Service{
		id:      uuid.New(),
		codec:   codec,
		history: router.ParseHistory(rawQuery),
	}
	s.model = selection.NewModel(s.history, codec)

	if recorder != nil {
		opts = append(opts, orchestrator.WithResultHook(s.recordHook(recorder)))
	}
	s.orchestrator = orchestrator.New(fetcher, codec, queryCache, opts...)

	return s
}

func (s *Service) ID() uuid.UUID {
	return s.id
}

func (s *Service) History() *router.History {
	return s.history
}

// Open loads both queries for the initial URL.
func (s *Service) Open(ctx context.Context) orchestrator.ReadModel {
	log.Infof("🔄 Opening search session %s on %q", s.id, s.URL())
	return s.sync(ctx)
}

func (s *Service) ToggleFilter(ctx context.Context, category domain.FilterCategory, value string) orchestrator.ReadModel {
	s.model.ToggleFilter(category, value)
	return s.sync(ctx)
}

func (s *Service) SetSearchTerm(ctx context.Context, term string) orchestrator.ReadModel {
	s.model.SetSearchTerm(term)
	return s.sync(ctx)
}

func (s *Service) SetPriceRange(ctx context.Context, min, max float64) orchestrator.ReadModel {
	s.model.SetPriceRange(min, max)
	return s.sync(ctx)
}

func (s *Service) ResetFilters(ctx context.Context) orchestrator.ReadModel {
	s.model.ResetFilters()
	return s.sync(ctx)
}

func (s *Service) SetPage(ctx context.Context, page int) orchestrator.ReadModel {
	s.model.SetPage(page)
	return s.sync(ctx)
}

func (s *Service) SetLimit(ctx context.Context, limit int) orchestrator.ReadModel {
	s.model.SetLimit(limit)
	return s.sync(ctx)
}

// Back steps to the previous history entry. It reports false at the start of history.
func (s *Service) Back(ctx context.Context) (orchestrator.ReadModel, bool) {
	if !s.history.Back() {
		return s.orchestrator.Snapshot(), false
	}
	s.model.Reload()
	return s.sync(ctx), true
}

// Forward steps to the next history entry. It reports false at the end of history.
func (s *Service) Forward(ctx context.Context) (orchestrator.ReadModel, bool) {
	if !s.history.Forward() {
		return s.orchestrator.Snapshot(), false
	}
	s.model.Reload()
	return s.sync(ctx), true
}

// Retry re-issues whichever query failed for the current selection.
func (s *Service) Retry(ctx context.Context) orchestrator.ReadModel {
	select {
	case <-s.orchestrator.Retry(ctx, s.model.State()):
	case <-ctx.Done():
	}
	return s.orchestrator.Snapshot()
}

func (s *Service) ReadModel() orchestrator.ReadModel {
	return s.orchestrator.Snapshot()
}

// URL is the canonical query string of the current selection.
func (s *Service) URL() string {
	return s.model.Query().Encode()
}

func (s *Service) DerivedKey() string {
	return s.model.DerivedKey()
}

func (s *Service) Selected(category domain.FilterCategory) []string {
	return s.model.GetArrayParam(category)
}

func (s *Service) State() domain.SelectionState {
	return s.model.State()
}

// PageCount is the page count for total at the current page size.
func (s *Service) PageCount(total int) int {
	return s.model.PageCount(total)
}

func (s *Service) Term() string {
	return s.model.Term()
}

// Scope is the user the session's queries are restricted to, empty for all.
func (s *Service) Scope() string {
	return s.orchestrator.Scope()
}

func (s *Service) Offset() int {
	return s.model.Offset()
}

func (s *Service) HasNext(total int) bool {
	return s.model.HasNext(total)
}

func (s *Service) HasPrev() bool {
	return s.model.HasPrev()
}

func (s *Service) sync(ctx context.Context) orchestrator.ReadModel {
	return s.orchestrator.Sync(ctx, s.model.State())
}

func (s *Service) recordHook(recorder SearchRecorder) orchestrator.ResultHook {
	return func(ctx context.Context, key cachekey.QueryKey, state domain.SelectionState, result *domain.PaginatedResult) {
		entry := repository.SearchLogEntry{
			SessionID:  s.id,
			Scope:      key.Scope,
			DerivedKey: key.Derived,
			Term:       state.Term,
			Page:       key.Page,
			Limit:      key.Limit,
			Total:      result.Total,
		}
		if err := recorder.Record(ctx, entry); err != nil {
			log.Warnf("⚠️ Failed to record search for session %s: %v", s.id, err)
		}
	}
}
