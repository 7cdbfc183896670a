// Package statsfeed loads season game populations from ESPN's public site
// API. Each game's feature stats are the averages of that team's earlier
// games in the same season, so a row describes what was knowable before
// tip-off, not the final box score.
package statsfeed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultBaseURL       = "https://site.api.espn.com"
	defaultTimeout       = 30 * time.Second
	defaultMaxConcurrent = 8
	maxResponseBytes     = 4 << 20
)

var sportPaths = map[string]string{
	game.SportNBA: "basketball/nba",
	game.SportNFL: "football/nfl",
}

// metric is one per-game statistic extracted from a completed game's box
// score. Season averages of these become the home_/away_ feature fields.
type metric struct {
	suffix  string
	extract func(team summaryTeam, score float64) (float64, bool)
}

var sportMetrics = map[string][]metric{
	game.SportNBA: {
		{suffix: "avg_pts", extract: func(_ summaryTeam, score float64) (float64, bool) {
			return score, score > 0
		}},
		{suffix: "fg_pct", extract: func(t summaryTeam, _ float64) (float64, bool) {
			pct, ok := t.statValue("fieldGoalPct")
			return pct / 100, ok
		}},
		{suffix: "avg_reb", extract: func(t summaryTeam, _ float64) (float64, bool) {
			return t.statValue("totalRebounds")
		}},
		{suffix: "avg_ast", extract: func(t summaryTeam, _ float64) (float64, bool) {
			return t.statValue("assists")
		}},
	},
	game.SportNFL: {
		{suffix: "yards_per_play", extract: func(t summaryTeam, _ float64) (float64, bool) {
			yards, okYards := t.statValue("totalYards")
			plays, okPlays := t.statValue("totalPlays")
			if !okYards || !okPlays || plays == 0 {
				return 0, false
			}
			return yards / plays, true
		}},
		{suffix: "third_down_eff", extract: func(t summaryTeam, _ float64) (float64, bool) {
			return t.statRatio("thirdDownEff")
		}},
		{suffix: "first_downs", extract: func(t summaryTeam, _ float64) (float64, bool) {
			return t.statValue("firstDowns")
		}},
	},
}

type ClientConfig struct {
	HTTPClient    *http.Client
	BaseURL       string
	Timeout       time.Duration
	MaxConcurrent int
	Logger        *logging.Logger
}

type Client struct {
	httpClient    *http.Client
	baseURL       string
	maxConcurrent int
	logger        *logging.Logger
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	maxConcurrent := cfg.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Client{
		httpClient:    httpClient,
		baseURL:       baseURL,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

// completedGame is one finished game with both sides' extracted box totals.
type completedGame struct {
	eventID  string
	date     time.Time
	homeTeam string
	awayTeam string
	home     map[string]float64
	away     map[string]float64
}

// FetchSeasonGames loads the schedule for one (sport, season), pulls the box
// score of every completed game, and emits rows whose stats are each side's
// season-to-date averages before that game.
func (c *Client) FetchSeasonGames(ctx context.Context, sport, season string) ([]game.Game, error) {
	sport = game.NormalizeSport(sport)
	path, ok := sportPaths[sport]
	if !ok {
		return nil, crerr.Newf("no stats feed for sport %q", sport)
	}
	metrics := sportMetrics[sport]

	startDate, endDate, err := seasonWindow(sport, season)
	if err != nil {
		return nil, err
	}

	events, err := c.fetchScoreboard(ctx, path, startDate, endDate)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	completed := make([]completedGame, 0, len(events))

	tasks := pool.New().WithMaxGoroutines(c.maxConcurrent).WithContext(ctx)
	for _, event := range events {
		event := event
		tasks.Go(func(ctx context.Context) error {
			row, ok, err := c.fetchGameTotals(ctx, path, event, metrics)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			mu.Lock()
			completed = append(completed, row)
			mu.Unlock()
			return nil
		})
	}
	if err := tasks.Wait(); err != nil {
		return nil, fmt.Errorf("fetch season box scores sport=%s season=%s: %w", sport, season, err)
	}

	sort.Slice(completed, func(i, j int) bool {
		if completed[i].date.Equal(completed[j].date) {
			return completed[i].eventID < completed[j].eventID
		}
		return completed[i].date.Before(completed[j].date)
	})

	rows := assembleSeasonRows(sport, season, metrics, completed)
	c.logger.InfoContext(ctx, "season stats feed loaded",
		"sport", sport, "season", season,
		"scheduled", len(events), "completed", len(completed), "rows", len(rows),
	)
	return rows, nil
}

// assembleSeasonRows walks games in date order keeping running sums per team,
// so each emitted row sees only averages of games played before it. Games
// where either side has no prior games are dropped; their totals still feed
// later games' averages.
func assembleSeasonRows(sport, season string, metrics []metric, completed []completedGame) []game.Game {
	type teamAccumulator struct {
		sums  map[string]float64
		count int
	}
	accumulators := map[string]*teamAccumulator{}

	accumulate := func(name string, totals map[string]float64) {
		acc := accumulators[name]
		if acc == nil {
			acc = &teamAccumulator{sums: map[string]float64{}}
			accumulators[name] = acc
		}
		for key, value := range totals {
			acc.sums[key] += value
		}
		acc.count++
	}

	rows := make([]game.Game, 0, len(completed))
	for _, item := range completed {
		homeAcc := accumulators[item.homeTeam]
		awayAcc := accumulators[item.awayTeam]

		if homeAcc != nil && awayAcc != nil && homeAcc.count > 0 && awayAcc.count > 0 {
			stats := make(map[string]float64, len(metrics)*2)
			for _, m := range metrics {
				stats["home_"+m.suffix] = homeAcc.sums[m.suffix] / float64(homeAcc.count)
				stats["away_"+m.suffix] = awayAcc.sums[m.suffix] / float64(awayAcc.count)
			}
			rows = append(rows, game.Game{
				Sport:    sport,
				ID:       strings.ToLower(sport) + "-" + season + "-" + item.eventID,
				Season:   season,
				Date:     item.date,
				HomeTeam: item.homeTeam,
				AwayTeam: item.awayTeam,
				Stats:    stats,
			})
		}

		accumulate(item.homeTeam, item.home)
		accumulate(item.awayTeam, item.away)
	}
	return rows
}

func (c *Client) fetchScoreboard(ctx context.Context, path string, startDate, endDate string) ([]scoreboardEvent, error) {
	values := url.Values{}
	values.Set("limit", "1000")
	values.Set("dates", startDate+"-"+endDate)
	fullURL := c.baseURL + "/apis/site/v2/sports/" + path + "/scoreboard?" + values.Encode()

	raw, err := c.getJSON(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch scoreboard: %w", err)
	}

	var payload scoreboardEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode scoreboard payload: %w", err)
	}
	return payload.Events, nil
}

// fetchGameTotals returns ok=false for games that are not finished yet or
// whose box score is missing any required metric.
func (c *Client) fetchGameTotals(ctx context.Context, path string, event scoreboardEvent, metrics []metric) (completedGame, bool, error) {
	if !event.Status.Type.Completed || len(event.Competitions) == 0 {
		return completedGame{}, false, nil
	}

	date, err := time.Parse("2006-01-02T15:04Z", event.Date)
	if err != nil {
		date, err = time.Parse(time.RFC3339, event.Date)
		if err != nil {
			return completedGame{}, false, nil
		}
	}

	var homeName, awayName string
	scores := map[string]float64{}
	for _, competitor := range event.Competitions[0].Competitors {
		score, _ := strconv.ParseFloat(competitor.Score, 64)
		switch competitor.HomeAway {
		case "home":
			homeName = competitor.Team.DisplayName
			scores["home"] = score
		case "away":
			awayName = competitor.Team.DisplayName
			scores["away"] = score
		}
	}
	if homeName == "" || awayName == "" {
		return completedGame{}, false, nil
	}

	fullURL := c.baseURL + "/apis/site/v2/sports/" + path + "/summary?event=" + url.QueryEscape(event.ID)
	raw, err := c.getJSON(ctx, fullURL)
	if err != nil {
		return completedGame{}, false, fmt.Errorf("fetch summary event=%s: %w", event.ID, err)
	}

	var payload summaryEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return completedGame{}, false, fmt.Errorf("decode summary payload event=%s: %w", event.ID, err)
	}

	totals := map[string]map[string]float64{}
	for _, side := range payload.Boxscore.Teams {
		sideKey := side.HomeAway
		if sideKey == "" {
			// Older payloads omit homeAway on the boxscore side; match by name.
			switch side.Team.DisplayName {
			case homeName:
				sideKey = "home"
			case awayName:
				sideKey = "away"
			}
		}
		if sideKey != "home" && sideKey != "away" {
			continue
		}

		values := map[string]float64{}
		for _, m := range metrics {
			value, ok := m.extract(side, scores[sideKey])
			if !ok {
				c.logger.DebugContext(ctx, "box score missing metric",
					"event_id", event.ID, "side", sideKey, "metric", m.suffix)
				return completedGame{}, false, nil
			}
			values[m.suffix] = value
		}
		totals[sideKey] = values
	}
	if totals["home"] == nil || totals["away"] == nil {
		return completedGame{}, false, nil
	}

	return completedGame{
		eventID:  event.ID,
		date:     date.UTC(),
		homeTeam: homeName,
		awayTeam: awayName,
		home:     totals["home"],
		away:     totals["away"],
	}, true, nil
}

func (c *Client) getJSON(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, crerr.Newf("stats feed status=%d url=%s", resp.StatusCode, fullURL)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	return raw, nil
}

// seasonWindow maps a season label to the scoreboard date range query.
func seasonWindow(sport, season string) (string, string, error) {
	year, err := strconv.Atoi(strings.TrimSpace(season))
	if err != nil || year < 1990 || year > 2100 {
		return "", "", crerr.Newf("invalid season %q", season)
	}

	switch sport {
	case game.SportNBA:
		return fmt.Sprintf("%d1001", year), fmt.Sprintf("%d0630", year+1), nil
	case game.SportNFL:
		return fmt.Sprintf("%d0901", year), fmt.Sprintf("%d0215", year+1), nil
	default:
		return "", "", crerr.Newf("no season window for sport %q", sport)
	}
}
