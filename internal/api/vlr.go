// Package api fetches the two upstream surfaces: the JSON feed endpoints
// and the raw HTML match pages. All fetches go through the injected retry
// policy; a rate-limit response or transport error is transient, anything
// else fails the call permanently.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"vlr-pipeline/internal/config"
	"vlr-pipeline/internal/constants"
)

type VLRClient struct {
	feedBaseURL string
	siteBaseURL string
	userAgent   string
	client      *fasthttp.Client
	retry       RetryPolicy
}

func NewVLRClient(cfg *config.Config) *VLRClient {
	return &VLRClient{
		feedBaseURL: cfg.FeedBaseURL,
		siteBaseURL: cfg.SiteBaseURL,
		userAgent:   cfg.UserAgent,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         constants.PageTimeout,
			WriteTimeout:        constants.PageTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		retry: DefaultRetryPolicy(),
	}
}

// SetRetryPolicy swaps the retry policy, used by tests to avoid real sleeps.
func (c *VLRClient) SetRetryPolicy(p RetryPolicy) { c.retry = p }

// GetStats fetches the aggregate player stats feed for one region/timespan.
func (c *VLRClient) GetStats(ctx context.Context, region, timespan string) (*StatsResponse, error) {
	url := fmt.Sprintf("%s/stats?region=%s&timespan=%s", c.feedBaseURL, region, timespan)
	return doJSON[StatsResponse](ctx, c, url)
}

// GetMatchResults fetches the completed-match results feed.
func (c *VLRClient) GetMatchResults(ctx context.Context) (*MatchResultsResponse, error) {
	url := fmt.Sprintf("%s/match?q=results", c.feedBaseURL)
	return doJSON[MatchResultsResponse](ctx, c, url)
}

// GetEvents fetches the events feed filtered by completion status.
func (c *VLRClient) GetEvents(ctx context.Context, status string) (*EventsResponse, error) {
	url := fmt.Sprintf("%s/events?q=%s", c.feedBaseURL, status)
	return doJSON[EventsResponse](ctx, c, url)
}

// GetRankings fetches the regional team rankings feed.
func (c *VLRClient) GetRankings(ctx context.Context, region string) (*RankingsResponse, error) {
	url := fmt.Sprintf("%s/rankings?region=%s", c.feedBaseURL, region)
	return doJSON[RankingsResponse](ctx, c, url)
}

// GetMatchPage fetches the raw HTML of one match detail page. The slug is
// optional; the site resolves the page from the numeric id alone.
func (c *VLRClient) GetMatchPage(ctx context.Context, externalID int64, slug string) ([]byte, error) {
	url := fmt.Sprintf("%s/%d", c.siteBaseURL, externalID)
	if slug != "" {
		url = fmt.Sprintf("%s/%s", url, slug)
	}

	var body []byte
	err := c.retry.Do(ctx, func() error {
		b, err := c.fetch(ctx, url, constants.PageTimeout)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func doJSON[T any](ctx context.Context, c *VLRClient, url string) (*T, error) {
	var result T
	err := c.retry.Do(ctx, func() error {
		body, err := c.fetch(ctx, url, constants.FeedTimeout)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to decode feed response: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// fetch performs one GET attempt with a per-attempt deadline; the caller's
// context deadline wins when it is tighter.
func (c *VLRClient) fetch(ctx context.Context, url string, timeout time.Duration) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetUserAgent(c.userAgent)

	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return nil, Transient(fmt.Errorf("fetch %s: %w", url, err))
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusTooManyRequests:
		return nil, Transient(fmt.Errorf("fetch %s: rate limited (%d)", url, status))
	case status != fasthttp.StatusOK:
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, status)
	}

	// the response body is pooled, copy it out
	body := make([]byte, len(resp.Body()))
	copy(body, resp.Body())
	return body, nil
}

type StatsResponse struct {
	Data StatsData `json:"data"`
}

type StatsData struct {
	Status   int            `json:"status"`
	Segments []StatsSegment `json:"segments"`
}

// StatsSegment carries string-typed numbers as the feed emits them;
// normalization happens at the adapter boundary.
type StatsSegment struct {
	Player                    string   `json:"player"`
	Org                       string   `json:"org"`
	Agents                    []string `json:"agents"`
	RoundsPlayed              string   `json:"rounds_played"`
	Rating                    string   `json:"rating"`
	AverageCombatScore        string   `json:"average_combat_score"`
	KillDeaths                string   `json:"kill_deaths"`
	KillAssistsSurvivedTraded string   `json:"kill_assists_survived_traded"`
	AverageDamagePerRound     string   `json:"average_damage_per_round"`
	KillsPerRound             string   `json:"kills_per_round"`
	AssistsPerRound           string   `json:"assists_per_round"`
	FirstKillsPerRound        string   `json:"first_kills_per_round"`
	FirstDeathsPerRound       string   `json:"first_deaths_per_round"`
	HeadshotPercentage        string   `json:"headshot_percentage"`
	ClutchSuccessPercentage   string   `json:"clutch_success_percentage"`
}

type MatchResultsResponse struct {
	Data MatchResultsData `json:"data"`
}

type MatchResultsData struct {
	Status   int                  `json:"status"`
	Segments []MatchResultSegment `json:"segments"`
}

type MatchResultSegment struct {
	Team1          string `json:"team1"`
	Team2          string `json:"team2"`
	Score1         string `json:"score1"`
	Score2         string `json:"score2"`
	FlagURL1       string `json:"flag1"`
	FlagURL2       string `json:"flag2"`
	TimeCompleted  string `json:"time_completed"`
	RoundInfo      string `json:"round_info"`
	TournamentName string `json:"tournament_name"`
	// MatchPage is a path like "/353177/team-a-vs-team-b-event"; the
	// leading numeric component is the source's match identifier.
	MatchPage      string `json:"match_page"`
	TournamentIcon string `json:"tournament_icon"`
}

type EventsResponse struct {
	Data EventsData `json:"data"`
}

type EventsData struct {
	Status   int            `json:"status"`
	Segments []EventSegment `json:"segments"`
}

type EventSegment struct {
	Title     string `json:"title"`
	Status    string `json:"status"`
	Prizepool string `json:"prizepool"`
	Dates     string `json:"dates"`
	Country   string `json:"country"`
	ImgURL    string `json:"img"`
}

type RankingsResponse struct {
	Status int              `json:"status"`
	Data   []RankingSegment `json:"data"`
}

type RankingSegment struct {
	Rank           string `json:"rank"`
	Team           string `json:"team"`
	Country        string `json:"country"`
	LastPlayed     string `json:"last_played"`
	LastPlayedTeam string `json:"last_played_team"`
	Record         string `json:"record"`
	Earnings       string `json:"earnings"`
	LogoURL        string `json:"logo"`
}
