package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/config"
	"vlr-pipeline/internal/domain"
)

func newOrchestrator(w *world, cfg *config.Config) (*Orchestrator, *[]time.Duration) {
	events := NewEventsService(w.feed, w.rec, w.ledger, zerolog.Nop())
	events.now = fixedNow
	matches := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	matches.now = fixedNow
	stats := NewStatsService(w.feed, w.rec, w.stats, w.ledger, zerolog.Nop())
	stats.now = fixedNow
	rankings := NewRankingsService(w.feed, w.rec, w.stats, w.ledger, zerolog.Nop())
	rankings.now = fixedNow
	detail := NewMatchDetailService(w.feed, w.rec, w.matches, w.stats, w.ledger, zerolog.Nop())
	detail.now = fixedNow

	o := NewOrchestrator(events, matches, stats, rankings, detail, w.matches, w.ledger, cfg, zerolog.Nop())
	o.now = fixedNow
	var slept []time.Duration
	o.sleep = func(d time.Duration) { slept = append(slept, d) }
	return o, &slept
}

func fullRunConfig() *config.Config {
	return &config.Config{
		Regions:          []string{"na", "eu"},
		StatsTimespan:    "30",
		RegionDelay:      3 * time.Second,
		MatchPageDelay:   8 * time.Second,
		RecentMatchLimit: 10,
	}
}

func TestFullRunSequencesStages(t *testing.T) {
	w := newWorld()
	w.feed.events["completed"] = &api.EventsResponse{Data: api.EventsData{
		Segments: []api.EventSegment{{Title: "VALORANT Champions 2023", Dates: "Aug 6 - Aug 26, 2023"}},
	}}
	w.feed.events["upcoming"] = &api.EventsResponse{Data: api.EventsData{
		Segments: []api.EventSegment{},
	}}
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{Team1: "Sentinels", Team2: "Fnatic", Score1: "2", Score2: "0",
			TournamentName: "VALORANT Champions 2023", MatchPage: "/777/sen-vs-fnc"},
	})
	w.feed.stats["na"] = &api.StatsResponse{Data: api.StatsData{
		Segments: []api.StatsSegment{{Player: "TenZ", Org: "SEN", Rating: "1.2"}},
	}}
	w.feed.stats["eu"] = &api.StatsResponse{Data: api.StatsData{
		Segments: []api.StatsSegment{{Player: "Boaster", Org: "FNC", Rating: "0.98"}},
	}}
	w.feed.rankings["na"] = &api.RankingsResponse{Data: []api.RankingSegment{{Rank: "1", Team: "Sentinels"}}}
	w.feed.rankings["eu"] = &api.RankingsResponse{Data: []api.RankingSegment{{Rank: "1", Team: "Fnatic"}}}
	w.feed.pages[777] = detailPage()

	o, slept := newOrchestrator(w, fullRunConfig())
	sum := o.FullRun(context.Background())

	assert.Equal(t, ModeFull, sum.Mode)
	// events x2, matches, (stats+rankings) x2 regions, one detail scrape
	require.Len(t, sum.Stages, 8)
	assert.Equal(t, ModeEvents, sum.Stages[0].Mode)
	assert.Equal(t, ModeMatches, sum.Stages[2].Mode)
	assert.Equal(t, ModeStats, sum.Stages[3].Mode)
	assert.Equal(t, ModeRankings, sum.Stages[4].Mode)
	assert.Equal(t, ModeMatchDetail, sum.Stages[7].Mode)

	// one inter-region pause; the single detail scrape needs none
	assert.Equal(t, []time.Duration{3 * time.Second}, *slept)

	// the run-level ledger entry sits on top of the per-stage ones
	last := w.ledger.entries[len(w.ledger.entries)-1]
	assert.Equal(t, "orchestrator", last.Source)
	assert.Equal(t, domain.RunSuccess, last.Status)
	assert.Equal(t, sum.RecordCount, last.RecordCount)
}

func TestFullRunStageFailureIsolated(t *testing.T) {
	w := newWorld()
	// every feed endpoint down except rankings for one region
	w.feed.rankings["na"] = &api.RankingsResponse{Data: []api.RankingSegment{{Rank: "1", Team: "Sentinels"}}}

	cfg := fullRunConfig()
	cfg.Regions = []string{"na"}
	o, _ := newOrchestrator(w, cfg)

	sum := o.FullRun(context.Background())
	require.Len(t, sum.Stages, 5)
	assert.NotEmpty(t, sum.Stages[0].Error)
	assert.NotEmpty(t, sum.Stages[2].Error)
	// the rankings stage still ran and succeeded
	assert.Empty(t, sum.Stages[4].Error)
	assert.Equal(t, 1, sum.Stages[4].RecordCount)
	assert.Equal(t, 1, sum.RecordCount)
}

func TestFullRunDelaysBetweenDetailPages(t *testing.T) {
	w := newWorld()
	w.feed.events["completed"] = &api.EventsResponse{Data: api.EventsData{Segments: []api.EventSegment{}}}
	w.feed.events["upcoming"] = &api.EventsResponse{Data: api.EventsData{Segments: []api.EventSegment{}}}
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{Team1: "A", Team2: "B", MatchPage: "/1/a-vs-b", TournamentName: "Cup"},
		{Team1: "C", Team2: "D", MatchPage: "/2/c-vs-d", TournamentName: "Cup"},
		{Team1: "E", Team2: "F", MatchPage: "/3/e-vs-f", TournamentName: "Cup"},
	})

	cfg := fullRunConfig()
	cfg.Regions = []string{"na"}
	o, slept := newOrchestrator(w, cfg)

	o.FullRun(context.Background())

	// three detail scrapes, two pauses between them
	assert.Equal(t, []int64{3, 2, 1}, w.feed.pageCalls)
	assert.Equal(t, []time.Duration{8 * time.Second, 8 * time.Second}, *slept)
}

func TestCatchUpProcessesBacklogUpToLimit(t *testing.T) {
	w := newWorld()
	for _, id := range []int64{10, 20, 30} {
		_, err := w.matches.Insert(context.Background(), &domain.Match{ExternalID: id})
		require.NoError(t, err)
	}
	w.feed.pages[10] = detailPage()
	w.feed.pages[20] = detailPage()
	w.feed.pages[30] = detailPage()

	o, slept := newOrchestrator(w, fullRunConfig())
	sum := o.CatchUp(context.Background(), 2)

	assert.Equal(t, ModeCatchUp, sum.Mode)
	assert.Equal(t, []int64{10, 20}, sum.ProcessedID)
	assert.Equal(t, 1, sum.Backlog)
	assert.Equal(t, []time.Duration{8 * time.Second}, *slept)

	// the already-scraped matches drop out of the next backlog
	next := o.CatchUp(context.Background(), 0)
	assert.Equal(t, []int64{30}, next.ProcessedID)
	assert.Equal(t, 0, next.Backlog)
}

func TestCatchUpEmptyBacklog(t *testing.T) {
	w := newWorld()
	o, slept := newOrchestrator(w, fullRunConfig())

	sum := o.CatchUp(context.Background(), 5)
	assert.Empty(t, sum.ProcessedID)
	assert.Equal(t, 0, sum.Backlog)
	assert.Equal(t, 0, sum.RecordCount)
	assert.Empty(t, *slept)
}
