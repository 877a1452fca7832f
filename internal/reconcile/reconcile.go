// Package reconcile maps names scraped or fed from the source onto
// canonical entity rows. Lookups are case-insensitive exact matches;
// misses create the row lazily with computed defaults. The check-then-create
// sequence is not transactional: overlapping runs could in principle
// duplicate an entity, which is accepted under the one-run-at-a-time model.
package reconcile

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"vlr-pipeline/internal/domain"
	"vlr-pipeline/internal/normalize"
)

type TeamStore interface {
	FindByName(ctx context.Context, name string) (*domain.Team, error)
	Insert(ctx context.Context, t *domain.Team) (int64, error)
}

type PlayerStore interface {
	FindByIGN(ctx context.Context, ign string) (*domain.Player, error)
	Insert(ctx context.Context, p *domain.Player) (int64, error)
	UpdateTeam(ctx context.Context, id, teamID int64) error
}

type EventStore interface {
	FindByName(ctx context.Context, name string) (*domain.Event, error)
	Insert(ctx context.Context, e *domain.Event) (int64, error)
}

type AgentStore interface {
	FindByName(ctx context.Context, name string) (*domain.Agent, error)
	Insert(ctx context.Context, a *domain.Agent) (int64, error)
}

type MapStore interface {
	FindByMatchAndNumber(ctx context.Context, matchID int64, mapNumber int) (*domain.Map, error)
	Insert(ctx context.Context, m *domain.Map) (int64, error)
}

type Reconciler struct {
	teams   TeamStore
	players PlayerStore
	events  EventStore
	agents  AgentStore
	maps    MapStore
	logger  zerolog.Logger
}

func New(teams TeamStore, players PlayerStore, events EventStore, agents AgentStore, maps MapStore, logger zerolog.Logger) *Reconciler {
	return &Reconciler{
		teams:   teams,
		players: players,
		events:  events,
		agents:  agents,
		maps:    maps,
		logger:  logger,
	}
}

type TeamAttrs struct {
	Abbreviation string
	Region       string
	LogoURL      string
}

// EnsureTeam resolves a team name to its canonical row id, inserting on
// first reference. Empty names resolve to no identity (0, nil); a storage
// failure is logged and returned so the caller skips the record.
func (r *Reconciler) EnsureTeam(ctx context.Context, name string, attrs TeamAttrs) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}

	existing, err := r.teams.FindByName(ctx, name)
	if err != nil {
		r.logger.Error().Err(err).Str("team", name).Msg("team lookup failed")
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	abbrev := attrs.Abbreviation
	if abbrev == "" {
		abbrev = defaultAbbreviation(name)
	}
	id, err := r.teams.Insert(ctx, &domain.Team{
		Name:         name,
		Abbreviation: abbrev,
		Region:       attrs.Region,
		LogoURL:      attrs.LogoURL,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("team", name).Msg("team insert failed")
		return 0, err
	}
	r.logger.Debug().Str("team", name).Int64("id", id).Msg("team created")
	return id, nil
}

// EnsurePlayer resolves an in-game name to a player id. When the player
// already exists and a team id is supplied, the current-team reference is
// reassigned (last write wins).
func (r *Reconciler) EnsurePlayer(ctx context.Context, ign string, teamID int64) (int64, error) {
	ign = strings.TrimSpace(ign)
	if ign == "" {
		return 0, nil
	}

	existing, err := r.players.FindByIGN(ctx, ign)
	if err != nil {
		r.logger.Error().Err(err).Str("ign", ign).Msg("player lookup failed")
		return 0, err
	}
	if existing != nil {
		if teamID != 0 && (existing.TeamID == nil || *existing.TeamID != teamID) {
			if err := r.players.UpdateTeam(ctx, existing.ID, teamID); err != nil {
				r.logger.Warn().Err(err).Str("ign", ign).Msg("player team update failed")
			}
		}
		return existing.ID, nil
	}

	p := &domain.Player{IGN: ign, DisplayName: ign}
	if teamID != 0 {
		p.TeamID = &teamID
	}
	id, err := r.players.Insert(ctx, p)
	if err != nil {
		r.logger.Error().Err(err).Str("ign", ign).Msg("player insert failed")
		return 0, err
	}
	r.logger.Debug().Str("ign", ign).Int64("id", id).Msg("player created")
	return id, nil
}

type EventAttrs struct {
	Tier   domain.Tier
	Region string
	Dates  normalize.DateRange
}

// EnsureEvent resolves an event name to its row id. Tier defaults to the
// keyword-inferred classification when not supplied.
func (r *Reconciler) EnsureEvent(ctx context.Context, name string, attrs EventAttrs) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}

	existing, err := r.events.FindByName(ctx, name)
	if err != nil {
		r.logger.Error().Err(err).Str("event", name).Msg("event lookup failed")
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	tier := attrs.Tier
	if tier == "" {
		tier = normalize.InferTier(name)
	}
	id, err := r.events.Insert(ctx, &domain.Event{
		Name:      name,
		Tier:      tier,
		Region:    attrs.Region,
		Year:      attrs.Dates.Year,
		StartDate: attrs.Dates.Start,
		EndDate:   attrs.Dates.End,
	})
	if err != nil {
		r.logger.Error().Err(err).Str("event", name).Msg("event insert failed")
		return 0, err
	}
	r.logger.Debug().Str("event", name).Int64("id", id).Str("tier", string(tier)).Msg("event created")
	return id, nil
}

// EnsureAgent resolves an agent name, inferring the role from the fixed
// rosters on first insert.
func (r *Reconciler) EnsureAgent(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}

	existing, err := r.agents.FindByName(ctx, name)
	if err != nil {
		r.logger.Error().Err(err).Str("agent", name).Msg("agent lookup failed")
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.agents.Insert(ctx, &domain.Agent{
		Name: name,
		Role: normalize.InferAgentRole(name),
	})
	if err != nil {
		r.logger.Error().Err(err).Str("agent", name).Msg("agent insert failed")
		return 0, err
	}
	r.logger.Debug().Str("agent", name).Int64("id", id).Msg("agent created")
	return id, nil
}

type MapAttrs struct {
	Team1Rounds *int
	Team2Rounds *int
	WinnerID    *int64
}

// EnsureMap resolves a map by its (match, map number) composite key, not
// by name: map names repeat across matches. Re-ingesting an already-known
// map is a no-op returning the existing id.
func (r *Reconciler) EnsureMap(ctx context.Context, mapName string, matchID int64, mapNumber int, attrs MapAttrs) (int64, error) {
	if matchID == 0 {
		return 0, nil
	}

	existing, err := r.maps.FindByMatchAndNumber(ctx, matchID, mapNumber)
	if err != nil {
		r.logger.Error().Err(err).Int64("match_id", matchID).Int("map_number", mapNumber).Msg("map lookup failed")
		return 0, err
	}
	if existing != nil {
		return existing.ID, nil
	}

	id, err := r.maps.Insert(ctx, &domain.Map{
		MatchID:     matchID,
		MapNumber:   mapNumber,
		Name:        mapName,
		Team1Rounds: attrs.Team1Rounds,
		Team2Rounds: attrs.Team2Rounds,
		WinnerID:    attrs.WinnerID,
	})
	if err != nil {
		r.logger.Error().Err(err).Int64("match_id", matchID).Int("map_number", mapNumber).Msg("map insert failed")
		return 0, err
	}
	return id, nil
}

// defaultAbbreviation is the first four characters of the name, uppercased.
func defaultAbbreviation(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return strings.ToUpper(string(runes))
}
