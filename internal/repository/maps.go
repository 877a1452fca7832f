package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type MapRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewMapRepository(sqlDB *sql.DB, logger zerolog.Logger) *MapRepository {
	return &MapRepository{db: sqlDB, logger: logger}
}

// FindByMatchAndNumber is the identity lookup for maps: map names are not
// globally unique, the (match, map number) composite is.
func (r *MapRepository) FindByMatchAndNumber(ctx context.Context, matchID int64, mapNumber int) (*domain.Map, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, match_id, map_number, name, team1_rounds, team2_rounds, winner_id, created_at
		FROM maps WHERE match_id = ? AND map_number = ?`, matchID, mapNumber)

	var m domain.Map
	err := row.Scan(&m.ID, &m.MatchID, &m.MapNumber, &m.Name, &m.Team1Rounds, &m.Team2Rounds, &m.WinnerID, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find map: %w", err)
	}
	return &m, nil
}

func (r *MapRepository) Insert(ctx context.Context, m *domain.Map) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO maps (match_id, map_number, name, team1_rounds, team2_rounds, winner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.MatchID, m.MapNumber, m.Name, m.Team1Rounds, m.Team2Rounds, m.WinnerID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to insert map %d/%d: %w", m.MatchID, m.MapNumber, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read map insert id: %w", err)
	}
	return id, nil
}
