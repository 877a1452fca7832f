package repository

import (
	"context"
	"database/sql"
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

// LedgerRepository is the append-only run ledger. Appends are
// fire-and-forget: a failed append is logged, never retried, and never
// fails the ingestion that produced it.
type LedgerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewLedgerRepository(sqlDB *sql.DB, logger zerolog.Logger) *LedgerRepository {
	return &LedgerRepository{db: sqlDB, logger: logger}
}

func (r *LedgerRepository) Append(ctx context.Context, entry domain.RunLogEntry) {
	if entry.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to generate run log id")
			return
		}
		entry.ID = id
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO run_log (id, source, endpoint, status, record_count, error, metadata, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Source, entry.Endpoint, entry.Status, entry.RecordCount,
		entry.Error, entry.Metadata, entry.StartedAt, entry.FinishedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("source", entry.Source).
			Str("endpoint", entry.Endpoint).
			Msg("failed to append run log entry")
	}
}

// Recent returns the latest ledger entries, newest first.
func (r *LedgerRepository) Recent(ctx context.Context, limit int) ([]domain.RunLogEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, source, endpoint, status, record_count, error, metadata, started_at, finished_at
		FROM run_log ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query run log: %w", err)
	}
	defer rows.Close()

	var entries []domain.RunLogEntry
	for rows.Next() {
		var e domain.RunLogEntry
		if err := rows.Scan(&e.ID, &e.Source, &e.Endpoint, &e.Status, &e.RecordCount, &e.Error, &e.Metadata, &e.StartedAt, &e.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run log entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate run log: %w", err)
	}
	return entries, nil
}
