package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/reconcile"
	"vlr-pipeline/internal/scraper"
)

// MatchDetailService scrapes one match detail page and persists its maps
// and per-player box scores. Re-scraping an already-ingested match inserts
// nothing: maps resolve by (match, map number) and stat rows by
// (map, player).
type MatchDetailService struct {
	feed    FeedClient
	rec     *reconcile.Reconciler
	matches MatchStore
	stats   StatStore
	ledger  RunLedger
	logger  zerolog.Logger
	now     func() time.Time
}

func NewMatchDetailService(feed FeedClient, rec *reconcile.Reconciler, matches MatchStore, stats StatStore, ledger RunLedger, logger zerolog.Logger) *MatchDetailService {
	return &MatchDetailService{feed: feed, rec: rec, matches: matches, stats: stats, ledger: ledger, logger: logger, now: time.Now}
}

type detailCounts struct {
	Maps     int      `json:"maps"`
	Players  int      `json:"players"`
	Existing int      `json:"existing"`
	Warnings []string `json:"warnings,omitempty"`
}

func (s *MatchDetailService) Ingest(ctx context.Context, externalID int64, slug string) Summary {
	started := s.now()
	endpoint := fmt.Sprintf("/%d", externalID)

	html, err := s.feed.GetMatchPage(ctx, externalID, slug)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("match page fetch failed: %w", err))
	}

	page, err := scraper.ScrapeMatchPage(html)
	if err != nil {
		return s.fail(ctx, started, endpoint, fmt.Errorf("match page scrape failed: %w", err))
	}
	if len(page.Maps) == 0 {
		return s.fail(ctx, started, endpoint, fmt.Errorf("no maps extracted from match page"))
	}

	matchID, team1ID, team2ID, err := s.ensureMatch(ctx, externalID, page)
	if err != nil {
		return s.fail(ctx, started, endpoint, err)
	}

	counts := detailCounts{Warnings: page.Warnings}
	for _, sm := range page.Maps {
		mapID, err := s.ingestMap(ctx, matchID, team1ID, team2ID, sm)
		if err != nil {
			s.logger.Warn().Err(err).Int64("external_id", externalID).Int("map_number", sm.Number).Msg("skipping map")
			continue
		}
		counts.Maps++
		s.ingestMapPlayers(ctx, mapID, team1ID, team2ID, sm, &counts)
	}

	meta, _ := json.Marshal(counts)
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:      sourceScraper,
		Endpoint:    endpoint,
		Status:      domain.RunSuccess,
		RecordCount: counts.Players,
		Metadata:    string(meta),
		StartedAt:   started,
		FinishedAt:  s.now(),
	})
	s.logger.Info().
		Int64("external_id", externalID).
		Int("maps", counts.Maps).
		Int("players", counts.Players).
		Int("existing", counts.Existing).
		Msg("match detail ingested")

	return Summary{Mode: ModeMatchDetail, RecordCount: counts.Players}
}

// ensureMatch resolves the Match row for the page, creating it (with
// reconciled team references) when the results feed has not seen it yet.
func (s *MatchDetailService) ensureMatch(ctx context.Context, externalID int64, page *scraper.MatchPage) (matchID int64, team1ID, team2ID int64, err error) {
	team1ID, err = s.rec.EnsureTeam(ctx, page.Team1, reconcile.TeamAttrs{})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("team1 reconcile failed: %w", err)
	}
	team2ID, err = s.rec.EnsureTeam(ctx, page.Team2, reconcile.TeamAttrs{})
	if err != nil {
		return 0, 0, 0, fmt.Errorf("team2 reconcile failed: %w", err)
	}

	existing, err := s.matches.FindByExternalID(ctx, externalID)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("match lookup failed: %w", err)
	}
	if existing != nil {
		// enrichment path: the results feed created the row earlier
		return existing.ID, team1ID, team2ID, nil
	}

	m := &domain.Match{ExternalID: externalID}
	if team1ID != 0 {
		m.Team1ID = &team1ID
	}
	if team2ID != 0 {
		m.Team2ID = &team2ID
	}
	matchID, err = s.matches.Insert(ctx, m)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("match insert failed: %w", err)
	}
	return matchID, team1ID, team2ID, nil
}

func (s *MatchDetailService) ingestMap(ctx context.Context, matchID, team1ID, team2ID int64, sm scraper.ScrapedMap) (int64, error) {
	winner := mapWinner(team1ID, team2ID, sm.Team1Rounds, sm.Team2Rounds)
	mapID, err := s.rec.EnsureMap(ctx, sm.Name, matchID, sm.Number, reconcile.MapAttrs{
		Team1Rounds: sm.Team1Rounds,
		Team2Rounds: sm.Team2Rounds,
		WinnerID:    winner,
	})
	if err != nil {
		return 0, err
	}
	if mapID == 0 {
		return 0, fmt.Errorf("map %d not reconciled", sm.Number)
	}
	return mapID, nil
}

func (s *MatchDetailService) ingestMapPlayers(ctx context.Context, mapID, team1ID, team2ID int64, sm scraper.ScrapedMap, counts *detailCounts) {
	roundsPlayed := sumRounds(sm.Team1Rounds, sm.Team2Rounds)

	for _, row := range sm.Players {
		teamID := team1ID
		if row.TeamNum == 2 {
			teamID = team2ID
		}

		playerID, err := s.rec.EnsurePlayer(ctx, row.Name, teamID)
		if err != nil || playerID == 0 {
			s.logger.Warn().Err(err).Str("player", row.Name).Msg("skipping player row")
			continue
		}

		var agentID int64
		if row.Agent != "" {
			agentID, err = s.rec.EnsureAgent(ctx, row.Agent)
			if err != nil {
				s.logger.Warn().Err(err).Str("agent", row.Agent).Msg("agent reconcile failed, keeping row without agent")
				agentID = 0
			}
		}

		exists, err := s.stats.HasPlayerMapStat(ctx, mapID, playerID)
		if err != nil {
			s.logger.Warn().Err(err).Str("player", row.Name).Msg("stat existence check failed, skipping row")
			continue
		}
		if exists {
			counts.Existing++
			continue
		}

		stat := &domain.PlayerMapStat{
			MapID:        mapID,
			PlayerID:     playerID,
			Kills:        roundToInt(row.Stats.Kills),
			Deaths:       roundToInt(row.Stats.Deaths),
			Assists:      roundToInt(row.Stats.Assists),
			CombatScore:  roundToInt(row.Stats.ACS),
			DamagePerRnd: row.Stats.ADR,
			KASTPercent:  row.Stats.KAST,
			FirstKills:   roundToInt(row.Stats.FirstKills),
			FirstDeaths:  roundToInt(row.Stats.FirstDeaths),
			HSPercent:    row.Stats.HSPercent,
			RoundsPlayed: roundsPlayed,
			Rating:       row.Stats.Rating,
		}
		if teamID != 0 {
			stat.TeamID = &teamID
		}
		if agentID != 0 {
			stat.AgentID = &agentID
		}

		if err := s.stats.InsertPlayerMapStat(ctx, stat); err != nil {
			s.logger.Warn().Err(err).Str("player", row.Name).Msg("stat insert failed, skipping row")
			continue
		}
		counts.Players++
	}
}

func (s *MatchDetailService) fail(ctx context.Context, started time.Time, endpoint string, err error) Summary {
	s.logger.Error().Err(err).Str("endpoint", endpoint).Msg("match detail ingestion failed")
	s.ledger.Append(ctx, domain.RunLogEntry{
		Source:     sourceScraper,
		Endpoint:   endpoint,
		Status:     domain.RunError,
		Error:      err.Error(),
		StartedAt:  started,
		FinishedAt: s.now(),
	})
	return Summary{Mode: ModeMatchDetail, Error: err.Error()}
}

// mapWinner is the team with strictly more rounds; nil on a tie or when
// either count is missing.
func mapWinner(team1ID, team2ID int64, t1, t2 *int) *int64 {
	if t1 == nil || t2 == nil {
		return nil
	}
	switch {
	case *t1 > *t2 && team1ID != 0:
		return &team1ID
	case *t2 > *t1 && team2ID != 0:
		return &team2ID
	default:
		return nil
	}
}

func sumRounds(t1, t2 *int) *int {
	if t1 == nil || t2 == nil {
		return nil
	}
	total := *t1 + *t2
	return &total
}

func roundToInt(v *float64) *int {
	if v == nil {
		return nil
	}
	n := int(math.Round(*v))
	return &n
}
