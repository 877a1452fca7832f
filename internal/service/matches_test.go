package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/domain"
)

func resultsResponse(segments []api.MatchResultSegment) *api.MatchResultsResponse {
	return &api.MatchResultsResponse{Data: api.MatchResultsData{Status: 200, Segments: segments}}
}

func TestExtractMatchID(t *testing.T) {
	id, err := ExtractMatchID("/353177/sentinels-vs-fnatic-champions")
	require.NoError(t, err)
	assert.EqualValues(t, 353177, id)

	id, err = ExtractMatchID("353177/slug")
	require.NoError(t, err)
	assert.EqualValues(t, 353177, id)

	_, err = ExtractMatchID("/not-a-number/slug")
	assert.Error(t, err)

	_, err = ExtractMatchID("")
	assert.Error(t, err)
}

func TestMatchResultsIngestIdempotent(t *testing.T) {
	w := newWorld()
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{
			Team1:          "Sentinels",
			Team2:          "Fnatic",
			Score1:         "2",
			Score2:         "1",
			TimeCompleted:  "3h 27m ago",
			TournamentName: "VALORANT Champions 2023",
			MatchPage:      "/353177/sentinels-vs-fnatic",
		},
		{
			Team1:          "DRX",
			Team2:          "Paper Rex",
			Score1:         "0",
			Score2:         "2",
			TournamentName: "VALORANT Champions 2023",
			MatchPage:      "/353178/drx-vs-prx",
		},
	})

	svc := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	first := svc.Ingest(context.Background())
	assert.Equal(t, 2, first.RecordCount)
	assert.Len(t, w.matches.rows, 2)
	assert.Len(t, w.teams.rows, 4)
	assert.Len(t, w.events.rows, 1)

	// unchanged feed: same count, zero duplicate rows
	second := svc.Ingest(context.Background())
	assert.Equal(t, 2, second.RecordCount)
	assert.Len(t, w.matches.rows, 2)

	m, err := w.matches.FindByExternalID(context.Background(), 353177)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.Team1Score)
	assert.Equal(t, 2, *m.Team1Score)
	require.NotNil(t, m.PlayedAt)
	assert.Equal(t, fixedNow().Add(-(3*time.Hour+27*time.Minute)), *m.PlayedAt)

	require.Len(t, w.ledger.entries, 2)
	for _, e := range w.ledger.entries {
		assert.Equal(t, domain.RunSuccess, e.Status)
		assert.Equal(t, 2, e.RecordCount)
	}
}

func TestMatchResultsPlayedAtDegrades(t *testing.T) {
	w := newWorld()
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{Team1: "Sentinels", Team2: "Fnatic", TimeCompleted: "Ongoing",
			TournamentName: "Random Cup", MatchPage: "/42/sen-vs-fnc"},
	})

	svc := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background())
	assert.Equal(t, 1, sum.RecordCount)

	m, err := w.matches.FindByExternalID(context.Background(), 42)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Nil(t, m.PlayedAt)
}

func TestMatchResultsLeavesTeamLogoEmpty(t *testing.T) {
	w := newWorld()
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{Team1: "Sentinels", Team2: "Fnatic",
			FlagURL1: "/img/flags/us.png", FlagURL2: "/img/flags/eu.png",
			TournamentName: "Random Cup", MatchPage: "/42/sen-vs-fnc"},
	})

	svc := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background())
	assert.Equal(t, 1, sum.RecordCount)

	// country flags are not team logos; the rankings feed supplies those
	require.Len(t, w.teams.rows, 2)
	for _, team := range w.teams.rows {
		assert.Empty(t, team.LogoURL)
	}
}

func TestMatchResultsSkipsBadSegment(t *testing.T) {
	w := newWorld()
	w.feed.results = resultsResponse([]api.MatchResultSegment{
		{Team1: "A", Team2: "B", MatchPage: "/broken-path/x"},
		{Team1: "C", Team2: "D", MatchPage: "/42/c-vs-d", TournamentName: "Random Cup"},
	})

	svc := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background())
	assert.Equal(t, 1, sum.RecordCount)
	assert.Len(t, w.matches.rows, 1)
}

func TestMatchResultsMissingSegments(t *testing.T) {
	w := newWorld()
	w.feed.results = &api.MatchResultsResponse{}

	svc := NewMatchResultsService(w.feed, w.rec, w.matches, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background())
	assert.NotEmpty(t, sum.Error)
	require.Len(t, w.ledger.entries, 1)
	assert.Equal(t, domain.RunError, w.ledger.entries[0].Status)
}

func TestEventsIngest(t *testing.T) {
	w := newWorld()
	w.feed.events["completed"] = &api.EventsResponse{Data: api.EventsData{
		Status: 200,
		Segments: []api.EventSegment{
			{Title: "VALORANT Champions 2023", Dates: "Aug 6 - Aug 26, 2023", Country: "us"},
			{Title: "VCT Challengers NA", Dates: "Mar 2023", Country: "us"},
		},
	}}

	svc := NewEventsService(w.feed, w.rec, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background(), "completed")
	assert.Equal(t, 2, sum.RecordCount)
	require.Len(t, w.events.rows, 2)

	for _, e := range w.events.rows {
		switch e.Name {
		case "VALORANT Champions 2023":
			assert.Equal(t, domain.TierS, e.Tier)
			assert.Equal(t, 2023, e.Year)
			require.NotNil(t, e.StartDate)
			assert.Equal(t, 6, e.StartDate.Day())
		case "VCT Challengers NA":
			assert.Equal(t, domain.TierB, e.Tier)
			assert.Equal(t, 2023, e.Year)
		default:
			t.Fatalf("unexpected event %q", e.Name)
		}
	}
}

func TestRankingsIngest(t *testing.T) {
	w := newWorld()
	w.feed.rankings["na"] = &api.RankingsResponse{
		Status: 200,
		Data: []api.RankingSegment{
			{Rank: "1", Team: "Sentinels", Record: "15-3", Earnings: "$500,000"},
			{Rank: "2", Team: "NRG", Record: "12-6"},
		},
	}

	svc := NewRankingsService(w.feed, w.rec, w.stats, w.ledger, zerolog.Nop())
	svc.now = fixedNow

	sum := svc.Ingest(context.Background(), "na")
	assert.Equal(t, 2, sum.RecordCount)
	assert.Len(t, w.teams.rows, 2)
	assert.Len(t, w.stats.rankings, 2)

	r := w.stats.rankings[rankKey{teamID: 1, region: "na", date: "2024-06-10"}]
	require.NotNil(t, r)
	require.NotNil(t, r.Rank)
	assert.Equal(t, 1, *r.Rank)
	assert.Equal(t, "15-3", r.Record)
}
