package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const searchLogSchema = `
	CREATE TABLE IF NOT EXISTS search_log (
		id          UUID PRIMARY KEY,
		session_id  UUID NOT NULL,
		scope       TEXT NOT NULL DEFAULT '',
		derived_key TEXT NOT NULL,
		term        TEXT NOT NULL DEFAULT '',
		page        INTEGER NOT NULL,
		page_size   INTEGER NOT NULL,
		total       INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`

// SearchLogEntry is one result page shown to a session.
type SearchLogEntry struct {
	ID         uuid.UUID
	SessionID  uuid.UUID
	Scope      string
	DerivedKey string
	Term       string
	Page       int
	Limit      int
	Total      int
	CreatedAt  time.Time
}

// Executor is the part of pgxpool.Pool the repository needs.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type SearchLogRepository interface {
	EnsureSchema(ctx context.Context) error
	Record(ctx context.Context, entry SearchLogEntry) error
}

type searchLogRepository struct {
	db Executor
}

func NewSearchLogRepository(db Executor) SearchLogRepository {
	return &searchLogRepository{
		db: db,
	}
}

func (r *searchLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, searchLogSchema); err != nil {
		return fmt.Errorf("failed to create search_log table: %w", err)
	}
	return nil
}

func (r *searchLogRepository) Record(ctx context.Context, entry SearchLogEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	query := `
	INSERT INTO search_log (id, session_id, scope, derived_key, term, page, page_size, total, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO NOTHING`
	_, err := r.db.Exec(ctx, query,
		entry.ID, entry.SessionID, entry.Scope, entry.DerivedKey, entry.Term,
		entry.Page, entry.Limit, entry.Total, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	return nil
}
