// Package service holds the ingestion pipelines: one adapter per feed
// shape, the match-detail scrape pipeline, and the orchestrator that
// sequences them. Every pipeline writes entities through the
// reconciliation layer and records exactly one run-ledger entry per
// invocation, success or failure.
package service

import (
	"context"

	"vlr-pipeline/internal/api"
	"vlr-pipeline/internal/domain"
)

// FeedClient is the upstream surface: four JSON feed endpoints plus the
// raw HTML match pages.
type FeedClient interface {
	GetStats(ctx context.Context, region, timespan string) (*api.StatsResponse, error)
	GetMatchResults(ctx context.Context) (*api.MatchResultsResponse, error)
	GetEvents(ctx context.Context, status string) (*api.EventsResponse, error)
	GetRankings(ctx context.Context, region string) (*api.RankingsResponse, error)
	GetMatchPage(ctx context.Context, externalID int64, slug string) ([]byte, error)
}

type MatchStore interface {
	FindByExternalID(ctx context.Context, externalID int64) (*domain.Match, error)
	Insert(ctx context.Context, m *domain.Match) (int64, error)
	RecentExternalIDs(ctx context.Context, limit int) ([]int64, error)
	UnscrapedExternalIDs(ctx context.Context) ([]int64, error)
}

type StatStore interface {
	HasPlayerMapStat(ctx context.Context, mapID, playerID int64) (bool, error)
	InsertPlayerMapStat(ctx context.Context, s *domain.PlayerMapStat) error
	UpsertAggregate(ctx context.Context, s *domain.PlayerAggregateStat) error
	UpsertRanking(ctx context.Context, r *domain.TeamRanking) error
}

// RunLedger appends are fire-and-forget; implementations must not fail
// the calling pipeline.
type RunLedger interface {
	Append(ctx context.Context, entry domain.RunLogEntry)
}

// Summary is the structured outcome every mode returns to the boundary.
// Raw errors never cross it, only their text.
type Summary struct {
	Mode        string    `json:"mode"`
	RecordCount int       `json:"record_count"`
	Error       string    `json:"error,omitempty"`
	ProcessedID []int64   `json:"processed_ids,omitempty"`
	Backlog     int       `json:"backlog,omitempty"`
	Stages      []Summary `json:"stages,omitempty"`
}

const (
	ModeStats       = "stats"
	ModeMatches     = "matches"
	ModeEvents      = "events"
	ModeRankings    = "rankings"
	ModeMatchDetail = "match_detail"
	ModeCatchUp     = "catchup"
	ModeFull        = "full"
)

const (
	sourceFeed    = "feed"
	sourceScraper = "scraper"
	sourceRunner  = "orchestrator"
)
