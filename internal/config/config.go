package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"vlr-pipeline/internal/constants"
)

type Config struct {
	DBPath     string
	ServerPort string
	LogLevel   string

	// FeedBaseURL is the JSON feed root (stats/match/events/rankings).
	FeedBaseURL string
	// SiteBaseURL is the root of the HTML match pages.
	SiteBaseURL string
	UserAgent   string

	Regions []string
	// StatsTimespan is the lookback window, in days, the stats feed is
	// asked for.
	StatsTimespan    string
	RegionDelay      time.Duration
	MatchPageDelay   time.Duration
	RecentMatchLimit int

	// IngestCronSpec schedules full runs; empty disables the scheduler.
	IngestCronSpec string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBPath:           getEnv("DB_PATH", "vlr.db"),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		FeedBaseURL:      getEnv("FEED_BASE_URL", "https://vlrggapi.vercel.app"),
		SiteBaseURL:      getEnv("SITE_BASE_URL", "https://www.vlr.gg"),
		UserAgent:        getEnv("USER_AGENT", "Mozilla/5.0 (X11; Linux x86_64) vlr-pipeline/1.0"),
		Regions:          splitList(getEnv("REGIONS", "na,eu,ap,kr,br,la-s")),
		StatsTimespan:    getEnv("STATS_TIMESPAN", "30"),
		RegionDelay:      getEnvDuration("REGION_DELAY", constants.RegionDelay),
		MatchPageDelay:   getEnvDuration("MATCH_PAGE_DELAY", constants.MatchPageDelay),
		RecentMatchLimit: getEnvInt("RECENT_MATCH_LIMIT", constants.RecentMatchScrapeLimit),
		IngestCronSpec:   getEnv("INGEST_CRON_SPEC", ""),
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("feed_base_url", cfg.FeedBaseURL).
		Str("site_base_url", cfg.SiteBaseURL).
		Strs("regions", cfg.Regions).
		Dur("region_delay", cfg.RegionDelay).
		Dur("match_page_delay", cfg.MatchPageDelay).
		Str("ingest_cron", cfg.IngestCronSpec).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var Module = fx.Provide(Load)
