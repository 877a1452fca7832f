package domain

import (
	"time"
)

// Tier classifies the competitive importance of an event.
type Tier string

const (
	TierS Tier = "S" // international championships
	TierA Tier = "A" // masters-level internationals
	TierB Tier = "B" // challengers / ascension qualifiers
	TierC Tier = "C" // everything else
)

// Role is an agent's gameplay role.
type Role string

const (
	RoleDuelist    Role = "duelist"
	RoleInitiator  Role = "initiator"
	RoleController Role = "controller"
	RoleSentinel   Role = "sentinel"
)

type Team struct {
	ID           int64
	Name         string
	Abbreviation string
	Region       string
	LogoURL      string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Player struct {
	ID          int64
	IGN         string
	DisplayName string
	TeamID      *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Event struct {
	ID        int64
	Name      string
	Tier      Tier
	Region    string
	Year      int
	StartDate *time.Time
	EndDate   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Agent struct {
	ID        int64
	Name      string
	Role      Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Match struct {
	ID         int64
	ExternalID int64
	Team1ID    *int64
	Team2ID    *int64
	Team1Score *int
	Team2Score *int
	EventID    *int64
	PlayedAt   *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Map struct {
	ID          int64
	MatchID     int64
	MapNumber   int
	Name        string
	Team1Rounds *int
	Team2Rounds *int
	WinnerID    *int64
	CreatedAt   time.Time
}

// PlayerMapStat is one player's box score for one map. Created at most
// once per (map, player); re-scrapes skip rows that already exist.
type PlayerMapStat struct {
	ID           int64
	MapID        int64
	PlayerID     int64
	TeamID       *int64
	AgentID      *int64
	Kills        *int
	Deaths       *int
	Assists      *int
	CombatScore  *int
	DamagePerRnd *float64
	KASTPercent  *float64
	FirstKills   *int
	FirstDeaths  *int
	HSPercent    *float64
	RoundsPlayed *int
	Rating       *float64
	CreatedAt    time.Time
}

// PlayerAggregateStat is a periodic per-player measurement from the stats
// feed, keyed (player, region, snapshot date) so same-day re-runs overwrite.
type PlayerAggregateStat struct {
	PlayerID          int64
	TeamID            *int64
	Region            string
	Timespan          string
	SnapshotDate      string // YYYY-MM-DD
	Agents            string
	RoundsPlayed      *float64
	Rating            *float64
	ACS               *float64
	KDRatio           *float64
	KASTPercent       *float64
	ADR               *float64
	KillsPerRound     *float64
	AssistsPerRound   *float64
	FirstKillsPerRnd  *float64
	FirstDeathsPerRnd *float64
	HSPercent         *float64
	ClutchPercent     *float64
}

// TeamRanking is a regional ranking snapshot, keyed (team, region, snapshot date).
type TeamRanking struct {
	TeamID       int64
	Region       string
	Rank         *int
	Record       string
	Earnings     string
	SnapshotDate string // YYYY-MM-DD
}

// RunStatus is the outcome of one ingestion attempt.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunError   RunStatus = "error"
)

// RunLogEntry is one row of the append-only ingestion ledger. It is
// served as-is by the recent-runs endpoint.
type RunLogEntry struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Endpoint    string    `json:"endpoint"`
	Status      RunStatus `json:"status"`
	RecordCount int       `json:"record_count"`
	Error       string    `json:"error,omitempty"`
	Metadata    string    `json:"metadata,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}
