package constants

import "time"

const (
	FeedTimeout     = 15 * time.Second
	PageTimeout     = 20 * time.Second
	DatabaseTimeout = 5 * time.Second
	RequestTimeout  = 10 * time.Minute
)

const (
	FetchMaxAttempts = 3
	FetchBackoffBase = 2 * time.Second
)

const (
	RegionDelay    = 3 * time.Second
	MatchPageDelay = 8 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	RecentMatchScrapeLimit = 10
	CatchUpDefaultLimit    = 25
	RosterSize             = 5
)

const (
	ShutdownTimeout = 5 * time.Second
)
