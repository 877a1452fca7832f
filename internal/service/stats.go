package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/normalize"
	"vlr-pipeline/internal/reconcile"
)

// StatsService ingests the aggregate player stats feed for one region.
// Rows are keyed (player, region, snapshot date): same-day re-runs
// overwrite instead of duplicating.
type StatsService struct {
	feed   FeedClient
	rec    *reconcile.Reconciler
	stats  StatStore
	ledger RunLedger
	logger zerolog.Logger
	now    func() time.Time
}

func NewStatsService(feed FeedClient, rec *reconcile.Reconciler, stats StatStore, ledger RunLedger, logger zerolog.Logger) *StatsService {
	return &StatsService{feed: feed, rec: rec, stats: stats, ledger: ledger, logger: logger, now: time.Now}
}

func (s *StatsService) Ingest(ctx context.Context, region, timespan string) Summary {
	started := s.now()
	endpoint := fmt.Sprintf("/stats?region=%s&timespan=%s", region, timespan)

	resp, err := s.feed.GetStats(ctx, region, timespan)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("stats fetch failed: %w", err))
	}
	if resp.Data.Segments == nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("stats response has no segments"))
	}

	snapshot := started.Format("2006-01-02")
	count := 0
	for _, seg := range resp.Data.Segments {
		if err := s.ingestSegment(ctx, region, timespan, snapshot, seg); err != nil {
			s.logger.Warn().Err(err).Str("player", seg.Player).Str("region", region).Msg("skipping stats segment")
			continue
		}
		count++
	}

	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:      sourceFeed,
		Endpoint:    endpoint,
		Status:      domain.RunSuccess,
		RecordCount: count,
		StartedAt:   started,
		FinishedAt:  s.now(),
	})
	s.logger.Info().Str("region", region).Int("records", count).Msg("stats feed ingested")
	return Summary{Mode: ModeStats, RecordCount: count}
}

func (s *StatsService) ingestSegment(ctx context.Context, region, timespan, snapshot string, seg api.StatsSegment) error {
	teamID, err := s.rec.EnsureTeam(ctx, seg.Org, reconcile.TeamAttrs{Region: region})
	if err != nil {
		return fmt.Errorf("team reconcile failed: %w", err)
	}

	playerID, err := s.rec.EnsurePlayer(ctx, seg.Player, teamID)
	if err != nil {
		return fmt.Errorf("player reconcile failed: %w", err)
	}
	if playerID == 0 {
		return fmt.Errorf("segment has no player name")
	}

	agg := &domain.PlayerAggregateStat{
		PlayerID:          playerID,
		Region:            region,
		Timespan:          timespan,
		SnapshotDate:      snapshot,
		Agents:            strings.Join(seg.Agents, ","),
		RoundsPlayed:      normalize.ParseNumber(seg.RoundsPlayed),
		Rating:            normalize.ParseNumber(seg.Rating),
		ACS:               normalize.ParseNumber(seg.AverageCombatScore),
		KDRatio:           normalize.ParseNumber(seg.KillDeaths),
		KASTPercent:       normalize.ParseNumber(seg.KillAssistsSurvivedTraded),
		ADR:               normalize.ParseNumber(seg.AverageDamagePerRound),
		KillsPerRound:     normalize.ParseNumber(seg.KillsPerRound),
		AssistsPerRound:   normalize.ParseNumber(seg.AssistsPerRound),
		FirstKillsPerRnd:  normalize.ParseNumber(seg.FirstKillsPerRound),
		FirstDeathsPerRnd: normalize.ParseNumber(seg.FirstDeathsPerRound),
		HSPercent:         normalize.ParseNumber(seg.HeadshotPercentage),
		ClutchPercent:     normalize.ParseNumber(seg.ClutchSuccessPercentage),
	}
	if teamID != 0 {
		agg.TeamID = &teamID
	}

	if err := s.stats.UpsertAggregate(ctx, agg); err != nil {
		return fmt.Errorf("aggregate upsert failed: %w", err)
	}
	return nil
}

func (s *StatsService) fail(ctx context.Context, started time.Time, endpoint string, err error) Summary {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("stats ingestion failed")
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:     sourceFeed,
		Endpoint:   endpoint,
		Status:     domain.RunError,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	return Summary{Mode: ModeStats, Error: err.Error()}
}
