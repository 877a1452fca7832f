package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/normalize"
	"vlr-pipeline/internal/reconcile"
)

// RankingsService ingests the regional team rankings feed. Snapshot rows
// are keyed (team, region, snapshot date), so same-day re-runs overwrite.
type RankingsService struct {
	feed   FeedClient
	rec    *reconcile.Reconciler
	stats  StatStore
	ledger RunLedger
	logger zerolog.Logger
	now    func() time.Time
}

func NewRankingsService(feed FeedClient, rec *reconcile.Reconciler, stats StatStore, ledger RunLedger, logger zerolog.Logger) *RankingsService {
	return &RankingsService{feed: feed, rec: rec, stats: stats, ledger: ledger, logger: logger, now: time.Now}
}

func (s *RankingsService) Ingest(ctx context.Context, region string) Summary {
	started := s.now()
	endpoint := fmt.Sprintf("/rankings?region=%s", region)

	resp, err := s.feed.GetRankings(ctx, region)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("rankings fetch failed: %w", err))
	}
	if resp.Data == nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("rankings response has no data"))
	}

	snapshot := started.Format("2006-01-02")
	count := 0
	for _, seg := range resp.Data {
		teamID, err := s.rec.EnsureTeam(ctx, seg.Team, reconcile.TeamAttrs{
			Region:  region,
			LogoURL: seg.LogoURL,
		})
		if err != nil || teamID == 0 {
			s.logger.Warn().Err(err).Str("team", seg.Team).Msg("skipping ranking segment")
			continue
		}

		err = s.stats.UpsertRanking(ctx, &domain.TeamRanking{
			TeamID:       teamID,
			Region:       region,
			Rank:         normalize.ParseInt(seg.Rank),
			Record:       seg.Record,
			Earnings:     seg.Earnings,
			SnapshotDate: snapshot,
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("team", seg.Team).Msg("ranking upsert failed")
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
	s.logger.Info().Str("region", region).Int("records", count).Msg("rankings feed ingested")
	return Summary{Mode: ModeRankings, RecordCount: count}
}

func (s *RankingsService) fail(ctx context.Context, started time.Time, endpoint string, err error) Summary {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("rankings ingestion failed")
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:     sourceFeed,
		Endpoint:   endpoint,
		Status:     domain.RunError,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	return Summary{Mode: ModeRankings, Error: err.Error()}
}
