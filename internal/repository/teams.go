package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type TeamRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewTeamRepository(sqlDB *sql.DB, logger zerolog.Logger) *TeamRepository {
	return &TeamRepository{db: sqlDB, logger: logger}
}

// FindByName looks a team up by its canonical name, case-insensitively.
// Absence is (nil, nil), not an error.
func (r *TeamRepository) FindByName(ctx context.Context, name string) (*domain.Team, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, abbreviation, region, logo_url, created_at, updated_at
		FROM teams WHERE name = ? COLLATE NOCASE`, name)

	var t domain.Team
	err := row.Scan(&t.ID, &t.Name, &t.Abbreviation, &t.Region, &t.LogoURL, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find team by name: %w", err)
	}
	return &t, nil
}

func (r *TeamRepository) Insert(ctx context.Context, t *domain.Team) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO teams (name, abbreviation, region, logo_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.Name, t.Abbreviation, t.Region, t.LogoURL, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert team %q: %w", t.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read team insert id: %w", err)
	}
	return id, nil
}
