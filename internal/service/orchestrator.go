package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/config"
	"vlr-pipeline/internal/domain"
)

// Orchestrator sequences the adapters and the scraper across regions and
// matches. Stages run strictly sequentially with fixed delays between
// regions and between match pages: the pacing is politeness toward the
// source, not a correctness requirement. A failed stage never stops the
// ones after it.
type Orchestrator struct {
	events   *EventsService
	matches  *MatchResultsService
	stats    *StatsService
	rankings *RankingsService
	detail   *MatchDetailService
	store    MatchStore
	ledger   RunLedger
	cfg      *config.Config
	logger   zerolog.Logger

	sleep func(time.Duration)
	now   func() time.Time

	// a scheduled run and a manual run must not overlap
	mu sync.Mutex
}

func NewOrchestrator(
	events *EventsService,
	matches *MatchResultsService,
	stats *StatsService,
	rankings *RankingsService,
	detail *MatchDetailService,
	store MatchStore,
	ledger RunLedger,
	cfg *config.Config,
	logger zerolog.Logger,
) *Orchestrator {
	return &Orchestrator{
		events:   events,
		matches:  matches,
		stats:    stats,
		rankings: rankings,
		detail:   detail,
		store:    store,
		ledger:   ledger,
		cfg:      cfg,
		logger:   logger,
		sleep:    time.Sleep,
		now:      time.Now,
	}
}

// FullRun executes every stage in order: completed events, upcoming
// events, match results, per-region stats and rankings, then the most
// recent matches' detail pages.
func (o *Orchestrator) FullRun(ctx context.Context) Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	started := o.now()
	o.logger.Info().Msg("full ingestion run starting")

	var stages []Summary
	stages = append(stages, o.events.Ingest(ctx, "completed"))
	stages = append(stages, o.events.Ingest(ctx, "upcoming"))
	stages = append(stages, o.matches.Ingest(ctx))

	for i, region := range o.cfg.Regions {
		if i > 0 {
			o.sleep(o.cfg.RegionDelay)
		}
		stages = append(stages, o.stats.Ingest(ctx, region, o.cfg.StatsTimespan))
		stages = append(stages, o.rankings.Ingest(ctx, region))
	}

	ids, err := o.store.RecentExternalIDs(ctx, o.cfg.RecentMatchLimit)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to list recent matches for detail scraping")
	}
	for i, id := range ids {
		if i > 0 {
			o.sleep(o.cfg.MatchPageDelay)
		}
		stages = append(stages, o.detail.Ingest(ctx, id, ""))
	}

	total := 0
	for _, st := range stages {
		total += st.RecordCount
	}

	o.ledger.Append(ctx, domain.RunLogEntry{
		Source:      sourceRunner,
		Endpoint:    ModeFull,
		Status:      domain.RunSuccess,
		RecordCount: total,
		StartedAt:   started,
		FinishedAt:  o.now(),
	})
	o.logger.Info().Int("records", total).Int("stages", len(stages)).Msg("full ingestion run finished")

	return Summary{Mode: ModeFull, RecordCount: total, Stages: stages}
}

// CatchUp scrapes matches the results feed knows about but the scraper has
// not visited yet (no Map rows), up to limit pages.
func (o *Orchestrator) CatchUp(ctx context.Context, limit int) Summary {
	o.mu.Lock()
	defer o.mu.Unlock()

	backlog, err := o.store.UnscrapedExternalIDs(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("failed to list unscraped matches")
		return Summary{Mode: ModeCatchUp, Error: err.Error()}
	}

	if limit <= 0 || limit > len(backlog) {
		limit = len(backlog)
	}

	var processed []int64
	total := 0
	for i, id := range backlog[:limit] {
		if i > 0 {
			o.sleep(o.cfg.MatchPageDelay)
		}
		st := o.detail.Ingest(ctx, id, "")
		processed = append(processed, id)
		total += st.RecordCount
	}

	remaining := len(backlog) - len(processed)
	o.logger.Info().
		Int("processed", len(processed)).
		Int("backlog", remaining).
		Msg("catch-up run finished")

	return Summary{
		Mode:        ModeCatchUp,
		RecordCount: total,
		ProcessedID: processed,
		Backlog:     remaining,
	}
}
