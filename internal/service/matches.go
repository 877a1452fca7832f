package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/normalize"
	"vlr-pipeline/internal/reconcile"
)

// MatchResultsService ingests the completed-match results feed. The
// source's numeric match identifier, embedded in the match-page path, is
// the idempotence boundary: a match already present by that identifier is
// counted but never re-inserted.
type MatchResultsService struct {
	feed    FeedClient
	rec     *reconcile.Reconciler
	matches MatchStore
	ledger  RunLedger
	logger  zerolog.Logger
	now     func() time.Time
}

func NewMatchResultsService(feed FeedClient, rec *reconcile.Reconciler, matches MatchStore, ledger RunLedger, logger zerolog.Logger) *MatchResultsService {
	return &MatchResultsService{feed: feed, rec: rec, matches: matches, ledger: ledger, logger: logger, now: time.Now}
}

func (s *MatchResultsService) Ingest(ctx context.Context) Summary {
	started := s.now()
	endpoint := "/match?q=results"

	resp, err := s.feed.GetMatchResults(ctx)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("match results fetch failed: %w", err))
	}
	if resp.Data.Segments == nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("match results response has no segments"))
	}

	count := 0
	for _, seg := range resp.Data.Segments {
		if err := s.ingestSegment(ctx, seg); err != nil {
			s.logger.Warn().Err(err).Str("match_page", seg.MatchPage).Msg("skipping match segment")
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
	s.logger.Info().Int("records", count).Msg("match results ingested")
	return Summary{Mode: ModeMatches, RecordCount: count}
}

func (s *MatchResultsService) ingestSegment(ctx context.Context, seg api.MatchResultSegment) error {
	externalID, err := ExtractMatchID(seg.MatchPage)
	if err != nil {
		return err
	}

	existing, err := s.matches.FindByExternalID(ctx, externalID)
	if err != nil {
		return fmt.Errorf("match lookup failed: %w", err)
	}
	if existing != nil {
		// already ingested on a previous run
		return nil
	}

	// the segment only carries country flag urls, which are not team logos;
	// logos come from the rankings feed
	team1ID, err := s.rec.EnsureTeam(ctx, seg.Team1, reconcile.TeamAttrs{})
	if err != nil {
		return fmt.Errorf("team1 reconcile failed: %w", err)
	}
	team2ID, err := s.rec.EnsureTeam(ctx, seg.Team2, reconcile.TeamAttrs{})
	if err != nil {
		return fmt.Errorf("team2 reconcile failed: %w", err)
	}
	eventID, err := s.rec.EnsureEvent(ctx, seg.TournamentName, reconcile.EventAttrs{})
	if err != nil {
		return fmt.Errorf("event reconcile failed: %w", err)
	}

	m := &domain.Match{
		ExternalID: externalID,
		Team1Score: normalize.ParseInt(seg.Score1),
		Team2Score: normalize.ParseInt(seg.Score2),
		PlayedAt:   normalize.ParseTimeAgo(seg.TimeCompleted, s.now()),
	}
	if team1ID != 0 {
		m.Team1ID = &team1ID
	}
	if team2ID != 0 {
		m.Team2ID = &team2ID
	}
	if eventID != 0 {
		m.EventID = &eventID
	}

	if _, err := s.matches.Insert(ctx, m); err != nil {
		return fmt.Errorf("match insert failed: %w", err)
	}
	return nil
}

func (s *MatchResultsService) fail(ctx context.Context, started time.Time, endpoint string, err error) Summary {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("match results ingestion failed")
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:     sourceFeed,
		Endpoint:   endpoint,
		Status:     domain.RunError,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	return Summary{Mode: ModeMatches, Error: err.Error()}
}

// ExtractMatchID pulls the source's numeric match identifier out of a
// path-like field such as "/353177/sentinels-vs-fnatic-champions".
func ExtractMatchID(matchPage string) (int64, error) {
	for _, part := range strings.Split(matchPage, "/") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("match page path %q has no leading numeric id", matchPage)
		}
		return id, nil
	}
	return 0, fmt.Errorf("match page path %q is empty", matchPage)
}
