package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type PlayerRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewPlayerRepository(sqlDB *sql.DB, logger zerolog.Logger) *PlayerRepository {
	return &PlayerRepository{db: sqlDB, logger: logger}
}

func (r *PlayerRepository) FindByIGN(ctx context.Context, ign string) (*domain.Player, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, ign, display_name, team_id, created_at, updated_at
		FROM players WHERE ign = ? COLLATE NOCASE`, ign)

	var p domain.Player
	err := row.Scan(&p.ID, &p.IGN, &p.DisplayName, &p.TeamID, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find player by ign: %w", err)
	}
	return &p, nil
}

func (r *PlayerRepository) Insert(ctx context.Context, p *domain.Player) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO players (ign, display_name, team_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		p.IGN, p.DisplayName, p.TeamID, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert player %q: %w", p.IGN, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read player insert id: %w", err)
	}
	return id, nil
}

// UpdateTeam reassigns a player's current team, last write wins.
func (r *PlayerRepository) UpdateTeam(ctx context.Context, id, teamID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE players SET team_id = ?, updated_at = ? WHERE id = ?`,
		teamID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update player team: %w", err)
	}
	return nil
}
