package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type MatchRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMatchRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchRepository {
	return &MatchRepository{db: sqlDB, logger: logger}
}

const matchColumns = `id, external_id, team1_id, team2_id, team1_score, team2_score, event_id, played_at, created_at, updated_at`

func scanMatch(row *sql.Row) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(&m.ID, &m.ExternalID, &m.Team1ID, &m.Team2ID, &m.Team1Score, &m.Team2Score, &m.EventID, &m.PlayedAt, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return &m, nil
}

// FindByExternalID looks a match up by the source's numeric identifier.
// Absence is (nil, nil).
func (r *MatchRepository) FindByExternalID(ctx context.Context, externalID int64) (*domain.Match, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+matchColumns+` FROM matches WHERE external_id = ?`, externalID)
	return scanMatch(row)
}

func (r *MatchRepository) Insert(ctx context.Context, m *domain.Match) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO matches (external_id, team1_id, team2_id, team1_score, team2_score, event_id, played_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ExternalID, m.Team1ID, m.Team2ID, m.Team1Score, m.Team2Score, m.EventID, m.PlayedAt, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert match %d: %w", m.ExternalID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read match insert id: %w", err)
	}
	return id, nil
}

// RecentExternalIDs returns the external ids of the most recently ingested
// matches, newest first.
func (r *MatchRepository) RecentExternalIDs(ctx context.Context, limit int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT external_id FROM matches ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent matches: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

// UnscrapedExternalIDs returns external ids of matches that have no Map
// rows yet, oldest first. These are the ones the detail scraper still owes.
func (r *MatchRepository) UnscrapedExternalIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.external_id FROM matches m
		WHERE NOT EXISTS (SELECT 1 FROM maps mp WHERE mp.match_id = m.id)
		ORDER BY m.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unscraped matches: %w", err)
	}
	defer rows.Close()
	return collectIDs(rows)
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan match id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate match ids: %w", err)
	}
	return ids, nil
}
