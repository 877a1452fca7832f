package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type AgentRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewAgentRepository(sqlDB *sql.DB, logger zerolog.Logger) *AgentRepository {
	return &AgentRepository{db: sqlDB, logger: logger}
}

func (r *AgentRepository) FindByName(ctx context.Context, name string) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, role, created_at, updated_at
		FROM agents WHERE name = ? COLLATE NOCASE`, name)

	var a domain.Agent
	err := row.Scan(&a.ID, &a.Name, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find agent by name: %w", err)
	}
	return &a, nil
}

func (r *AgentRepository) Insert(ctx context.Context, a *domain.Agent) (int64, error) {
	now := time.Now()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO agents (name, role, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		a.Name, a.Role, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to insert agent %q: %w", a.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read agent insert id: %w", err)
	}
	return id, nil
}
