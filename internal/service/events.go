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

// EventsService ingests the events feed for one completion status
// ("completed" or "upcoming"); events reconcile by name, so re-runs are
// no-ops for known events.
type EventsService struct {
	feed   FeedClient
	rec    *reconcile.Reconciler
	ledger RunLedger
	logger zerolog.Logger
	now    func() time.Time
}

func NewEventsService(feed FeedClient, rec *reconcile.Reconciler, ledger RunLedger, logger zerolog.Logger) *EventsService {
	return &EventsService{feed: feed, rec: rec, ledger: ledger, logger: logger, now: time.Now}
}

func (s *EventsService) Ingest(ctx context.Context, status string) Summary {
	started := s.now()
	endpoint := fmt.Sprintf("/events?q=%s", status)

	resp, err := s.feed.GetEvents(ctx, status)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("events fetch failed: %w", err))
	}
	if resp.Data.Segments == nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("events response has no segments"))
	}

	count := 0
	for _, seg := range resp.Data.Segments {
		eventID, err := s.rec.EnsureEvent(ctx, seg.Title, reconcile.EventAttrs{
			Region: seg.Country,
			Dates:  normalize.ParseDateRange(seg.Dates),
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("event", seg.Title).Msg("skipping event segment")
			continue
		}
		if eventID == 0 {
			s.logger.Warn().Msg("skipping event segment with empty title")
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
	s.logger.Info().Str("status", status).Int("records", count).Msg("events feed ingested")
	return Summary{Mode: ModeEvents, RecordCount: count}
}

func (s *EventsService) fail(ctx context.Context, started time.Time, endpoint string, err error) Summary {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("events ingestion failed")
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:     sourceFeed,
		Endpoint:   endpoint,
		Status:     domain.RunError,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	return Summary{Mode: ModeEvents, Error: err.Error()}
}
