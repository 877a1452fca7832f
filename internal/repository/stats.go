package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
)

type StatRepository struct {
	db     *sql.DB
	logger zerolog.Logger
}

func NewStatRepository(sqlDB *sql.DB, logger zerolog.Logger) *StatRepository {
	return &StatRepository{db: sqlDB, logger: logger}
}

// HasPlayerMapStat reports whether a box score already exists for
// (map, player). This is the idempotence check for re-scraped matches.
func (r *StatRepository) HasPlayerMapStat(ctx context.Context, mapID, playerID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM player_map_stats WHERE map_id = ? AND player_id = ?`,
		mapID, playerID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check player map stat: %w", err)
	}
	return n > 0, nil
}

func (r *StatRepository) InsertPlayerMapStat(ctx context.Context, s *domain.PlayerMapStat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_map_stats (
			map_id, player_id, team_id, agent_id,
			kills, deaths, assists, combat_score, damage_per_round,
			kast_percent, first_kills, first_deaths, hs_percent,
			rounds_played, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.MapID, s.PlayerID, s.TeamID, s.AgentID,
		s.Kills, s.Deaths, s.Assists, s.CombatScore, s.DamagePerRnd,
		s.KASTPercent, s.FirstKills, s.FirstDeaths, s.HSPercent,
		s.RoundsPlayed, s.Rating, time.Now())
	if err != nil {
		return fmt.Errorf("failed to insert player map stat: %w", err)
	}
	return nil
}

// UpsertAggregate writes a stats-feed snapshot row; the natural key
// (player, region, snapshot date) makes same-day re-runs overwrite.
func (r *StatRepository) UpsertAggregate(ctx context.Context, s *domain.PlayerAggregateStat) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO player_stats_aggregate (
			player_id, team_id, region, timespan, snapshot_date, agents,
			rounds_played, rating, acs, kd_ratio, kast_percent, adr,
			kills_per_round, assists_per_round, first_kills_per_round,
			first_deaths_per_round, hs_percent, clutch_percent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, region, snapshot_date) DO UPDATE SET
			team_id = excluded.team_id,
			timespan = excluded.timespan,
			agents = excluded.agents,
			rounds_played = excluded.rounds_played,
			rating = excluded.rating,
			acs = excluded.acs,
			kd_ratio = excluded.kd_ratio,
			kast_percent = excluded.kast_percent,
			adr = excluded.adr,
			kills_per_round = excluded.kills_per_round,
			assists_per_round = excluded.assists_per_round,
			first_kills_per_round = excluded.first_kills_per_round,
			first_deaths_per_round = excluded.first_deaths_per_round,
			hs_percent = excluded.hs_percent,
			clutch_percent = excluded.clutch_percent`,
		s.PlayerID, s.TeamID, s.Region, s.Timespan, s.SnapshotDate, s.Agents,
		s.RoundsPlayed, s.Rating, s.ACS, s.KDRatio, s.KASTPercent, s.ADR,
		s.KillsPerRound, s.AssistsPerRound, s.FirstKillsPerRnd,
		s.FirstDeathsPerRnd, s.HSPercent, s.ClutchPercent)
	if err != nil {
		return fmt.Errorf("failed to upsert aggregate stat: %w", err)
	}
	return nil
}

// UpsertRanking writes a ranking snapshot keyed (team, region, snapshot date).
func (r *StatRepository) UpsertRanking(ctx context.Context, tr *domain.TeamRanking) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_rankings (team_id, region, rank, record, earnings, snapshot_date)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (team_id, region, snapshot_date) DO UPDATE SET
			rank = excluded.rank,
			record = excluded.record,
			earnings = excluded.earnings`,
		tr.TeamID, tr.Region, tr.Rank, tr.Record, tr.Earnings, tr.SnapshotDate)
	if err != nil {
		return fmt.Errorf("failed to upsert ranking: %w", err)
	}
	return nil
}
