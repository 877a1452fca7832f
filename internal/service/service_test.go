package service

// In-memory collaborators shared by the adapter, scraper-pipeline, and
// orchestrator tests.

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/reconcile"
)

type memTeams struct {
	rows   map[int64]*domain.Team
	nextID int64
}

func (f *memTeams) FindByName(_ context.Context, name string) (*domain.Team, error) {
	for _, t := range f.rows {
		if strings.EqualFold(t.Name, name) {
			return t, nil
		}
	}
	return nil, nil
}

func (f *memTeams) Insert(_ context.Context, t *domain.Team) (int64, error) {
	f.nextID++
	cp := *t
	cp.ID = f.nextID
	f.rows[f.nextID] = &cp
	return f.nextID, nil
}

type memPlayers struct {
	rows   map[int64]*domain.Player
	nextID int64
}

func (f *memPlayers) FindByIGN(_ context.Context, ign string) (*domain.Player, error) {
	for _, p := range f.rows {
		if strings.EqualFold(p.IGN, ign) {
			return p, nil
		}
	}
	return nil, nil
}

func (f *memPlayers) Insert(_ context.Context, p *domain.Player) (int64, error) {
	f.nextID++
	cp := *p
	cp.ID = f.nextID
	f.rows[f.nextID] = &cp
	return f.nextID, nil
}

func (f *memPlayers) UpdateTeam(_ context.Context, id, teamID int64) error {
	p, ok := f.rows[id]
	if !ok {
		return errors.New("no such player")
	}
	p.TeamID = &teamID
	return nil
}

type memEvents struct {
	rows   map[int64]*domain.Event
	nextID int64
}

func (f *memEvents) FindByName(_ context.Context, name string) (*domain.Event, error) {
	for _, e := range f.rows {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, nil
}

func (f *memEvents) Insert(_ context.Context, e *domain.Event) (int64, error) {
	f.nextID++
	cp := *e
	cp.ID = f.nextID
	f.rows[f.nextID] = &cp
	return f.nextID, nil
}

type memAgents struct {
	rows   map[int64]*domain.Agent
	nextID int64
}

func (f *memAgents) FindByName(_ context.Context, name string) (*domain.Agent, error) {
	for _, a := range f.rows {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return nil, nil
}

func (f *memAgents) Insert(_ context.Context, a *domain.Agent) (int64, error) {
	f.nextID++
	cp := *a
	cp.ID = f.nextID
	f.rows[f.nextID] = &cp
	return f.nextID, nil
}

type mapKey struct {
	matchID int64
	number  int
}

type memMaps struct {
	rows   map[mapKey]*domain.Map
	nextID int64
}

func (f *memMaps) FindByMatchAndNumber(_ context.Context, matchID int64, mapNumber int) (*domain.Map, error) {
	return f.rows[mapKey{matchID, mapNumber}], nil
}

func (f *memMaps) Insert(_ context.Context, m *domain.Map) (int64, error) {
	f.nextID++
	cp := *m
	cp.ID = f.nextID
	f.rows[mapKey{m.MatchID, m.MapNumber}] = &cp
	return f.nextID, nil
}

type memMatches struct {
	rows   map[int64]*domain.Match // keyed by row id
	order  []int64
	maps   *memMaps
	nextID int64
}

func (f *memMatches) FindByExternalID(_ context.Context, externalID int64) (*domain.Match, error) {
	for _, m := range f.rows {
		if m.ExternalID == externalID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *memMatches) Insert(_ context.Context, m *domain.Match) (int64, error) {
	f.nextID++
	cp := *m
	cp.ID = f.nextID
	f.rows[f.nextID] = &cp
	f.order = append(f.order, f.nextID)
	return f.nextID, nil
}

func (f *memMatches) RecentExternalIDs(_ context.Context, limit int) ([]int64, error) {
	var ids []int64
	for i := len(f.order) - 1; i >= 0 && len(ids) < limit; i-- {
		ids = append(ids, f.rows[f.order[i]].ExternalID)
	}
	return ids, nil
}

func (f *memMatches) UnscrapedExternalIDs(_ context.Context) ([]int64, error) {
	var ids []int64
	for _, rowID := range f.order {
		m := f.rows[rowID]
		scraped := false
		for k := range f.maps.rows {
			if k.matchID == m.ID {
				scraped = true
				break
			}
		}
		if !scraped {
			ids = append(ids, m.ExternalID)
		}
	}
	return ids, nil
}

type statKey struct {
	mapID    int64
	playerID int64
}

type aggKey struct {
	playerID int64
	region   string
	date     string
}

type rankKey struct {
	teamID int64
	region string
	date   string
}

type memStats struct {
	perMap   map[statKey]*domain.PlayerMapStat
	aggs     map[aggKey]*domain.PlayerAggregateStat
	rankings map[rankKey]*domain.TeamRanking
}

func (f *memStats) HasPlayerMapStat(_ context.Context, mapID, playerID int64) (bool, error) {
	_, ok := f.perMap[statKey{mapID, playerID}]
	return ok, nil
}

func (f *memStats) InsertPlayerMapStat(_ context.Context, s *domain.PlayerMapStat) error {
	cp := *s
	f.perMap[statKey{s.MapID, s.PlayerID}] = &cp
	return nil
}

func (f *memStats) UpsertAggregate(_ context.Context, s *domain.PlayerAggregateStat) error {
	cp := *s
	f.aggs[aggKey{s.PlayerID, s.Region, s.SnapshotDate}] = &cp
	return nil
}

func (f *memStats) UpsertRanking(_ context.Context, r *domain.TeamRanking) error {
	cp := *r
	f.rankings[rankKey{r.TeamID, r.Region, r.SnapshotDate}] = &cp
	return nil
}

type memLedger struct {
	entries []domain.RunLogEntry
}

func (f *memLedger) Append(_ context.Context, entry domain.RunLogEntry) {
	f.entries = append(f.entries, entry)
}

// fakeFeed serves canned responses; a nil response simulates a fetch error.
type fakeFeed struct {
	stats    map[string]*api.StatsResponse // by region
	results  *api.MatchResultsResponse
	events   map[string]*api.EventsResponse // by status
	rankings map[string]*api.RankingsResponse
	pages    map[int64][]byte

	statsCalls int
	pageCalls  []int64
}

var errFeedDown = errors.New("feed unavailable")

func (f *fakeFeed) GetStats(_ context.Context, region, _ string) (*api.StatsResponse, error) {
	f.statsCalls++
	if r, ok := f.stats[region]; ok {
		return r, nil
	}
	return nil, errFeedDown
}

func (f *fakeFeed) GetMatchResults(_ context.Context) (*api.MatchResultsResponse, error) {
	if f.results == nil {
		return nil, errFeedDown
	}
	return f.results, nil
}

func (f *fakeFeed) GetEvents(_ context.Context, status string) (*api.EventsResponse, error) {
	if r, ok := f.events[status]; ok {
		return r, nil
	}
	return nil, errFeedDown
}

func (f *fakeFeed) GetRankings(_ context.Context, region string) (*api.RankingsResponse, error) {
	if r, ok := f.rankings[region]; ok {
		return r, nil
	}
	return nil, errFeedDown
}

func (f *fakeFeed) GetMatchPage(_ context.Context, externalID int64, _ string) ([]byte, error) {
	f.pageCalls = append(f.pageCalls, externalID)
	if p, ok := f.pages[externalID]; ok {
		return p, nil
	}
	return nil, errFeedDown
}

// world bundles everything a pipeline test needs.
type world struct {
	feed    *fakeFeed
	teams   *memTeams
	players *memPlayers
	events  *memEvents
	agents  *memAgents
	maps    *memMaps
	matches *memMatches
	stats   *memStats
	ledger  *memLedger
	rec     *reconcile.Reconciler
}

func newWorld() *world {
	w := &world{
		feed: &fakeFeed{
			stats:    map[string]*api.StatsResponse{},
			events:   map[string]*api.EventsResponse{},
			rankings: map[string]*api.RankingsResponse{},
			pages:    map[int64][]byte{},
		},
		teams:   &memTeams{rows: map[int64]*domain.Team{}},
		players: &memPlayers{rows: map[int64]*domain.Player{}},
		events:  &memEvents{rows: map[int64]*domain.Event{}},
		agents:  &memAgents{rows: map[int64]*domain.Agent{}},
		maps:    &memMaps{rows: map[mapKey]*domain.Map{}},
		stats: &memStats{
			perMap:   map[statKey]*domain.PlayerMapStat{},
			aggs:     map[aggKey]*domain.PlayerAggregateStat{},
			rankings: map[rankKey]*domain.TeamRanking{},
		},
		ledger: &memLedger{},
	}
	w.matches = &memMatches{rows: map[int64]*domain.Match{}, maps: w.maps}
	w.rec = reconcile.New(w.teams, w.players, w.events, w.agents, w.maps, zerolog.Nop())
	return w
}

func fixedNow() time.Time {
	return time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)
}
