package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type EventRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewEventRepository(sqlDB *sql.DB, logger zerolog.Logger) *EventRepository {
	return &EventRepository{db: sqlDB, logger: logger}
}

func (r *EventRepository) FindByName(ctx context.Context, name string) (*domain.Event, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, tier, region, year, start_date, end_date, created_at, updated_at
		FROM events WHERE name = ? COLLATE NOCASE`, name)

	var e domain.Event
	err := row.Scan(&e.ID, &e.Name, &e.Tier, &e.Region, &e.Year, &e.StartDate, &e.EndDate, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find event by name: %w", err)
	}
	return &e, nil
}

func (r *EventRepository) Insert(ctx context.Context, e *domain.Event) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO events (name, tier, region, year, start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Tier, e.Region, e.Year, e.StartDate, e.EndDate, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event %q: %w", e.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read event insert id: %w", err)
	}
	return id, nil
}
