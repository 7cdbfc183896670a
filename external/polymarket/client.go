package polymarket

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchup-markets/internal/domain/game"
	"github.com/riskibarqy/matchup-markets/internal/domain/market"
	"github.com/riskibarqy/matchup-markets/internal/platform/logging"
	"github.com/riskibarqy/matchup-markets/internal/platform/ratelimit"
	"github.com/riskibarqy/matchup-markets/internal/platform/resilience"
	"github.com/riskibarqy/matchup-markets/internal/usecase"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"
)

const (
	defaultGammaBaseURL  = "https://gamma-api.polymarket.com"
	defaultClobBaseURL   = "https://clob.polymarket.com"
	defaultTimeout       = 20 * time.Second
	defaultThrottleDelay = time.Second

	// The venue lists game markets one minute before the scheduled start.
	gameStartLead = 60
)

var errPolymarketTransient = crerr.New("polymarket transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	GammaBaseURL   string
	ClobBaseURL    string
	Timeout        time.Duration
	ThrottleDelay  time.Duration
	Logger         *logging.Logger
	Budget         *ratelimit.Budget
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the venue's two read APIs: gamma for market metadata and
// clob for price history. Metadata lookups go through net/http with the
// breaker and request coalescing; the price-history path is many small GETs
// issued in bursts, so it rides fasthttp instead.
type Client struct {
	httpClient     *http.Client
	fastClient     *fasthttp.Client
	gammaBaseURL   string
	clobBaseURL    string
	timeout        time.Duration
	throttleDelay  time.Duration
	logger         *logging.Logger
	budget         *ratelimit.Budget
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight
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
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	gammaBaseURL := strings.TrimRight(strings.TrimSpace(cfg.GammaBaseURL), "/")
	if gammaBaseURL == "" {
		gammaBaseURL = defaultGammaBaseURL
	}
	clobBaseURL := strings.TrimRight(strings.TrimSpace(cfg.ClobBaseURL), "/")
	if clobBaseURL == "" {
		clobBaseURL = defaultClobBaseURL
	}

	throttleDelay := cfg.ThrottleDelay
	if throttleDelay <= 0 {
		throttleDelay = defaultThrottleDelay
	}

	budget := cfg.Budget
	if budget == nil {
		budget = ratelimit.NewBudget(20)
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		fastClient:     &fasthttp.Client{ReadTimeout: timeout, WriteTimeout: timeout},
		gammaBaseURL:   gammaBaseURL,
		clobBaseURL:    clobBaseURL,
		timeout:        timeout,
		throttleDelay:  throttleDelay,
		logger:         logger,
		budget:         budget,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// BuildSlug assembles the venue's market identifier. Team tokens are listed
// away first by convention, but the venue does not guarantee that ordering.
func BuildSlug(sport, first, second string, date time.Time) string {
	return strings.ToLower(strings.TrimSpace(sport)) + "-" +
		strings.ToLower(strings.TrimSpace(first)) + "-" +
		strings.ToLower(strings.TrimSpace(second)) + "-" +
		date.Format("2006-01-02")
}

// ResolveMarket finds the venue market for a matchup, trying the natural
// (away, home) slug order first and the swapped order on terminal failure.
// The returned token list is always away-first regardless of which order
// matched. found=false covers both "no market listed" and terminal venue
// failure; only context cancellation surfaces as an error.
func (c *Client) ResolveMarket(ctx context.Context, d market.Descriptor) (game.MarketInfo, bool, bool, error) {
	naturalSlug := BuildSlug(d.Sport, d.AwayTeam, d.HomeTeam, d.Date)
	meta, found, err := c.marketBySlug(ctx, naturalSlug)
	if err == nil && found {
		return metaToMarketInfo(meta, naturalSlug, false), false, true, nil
	}
	if ctx.Err() != nil {
		return game.MarketInfo{}, false, false, ctx.Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "venue market lookup failed, retrying with swapped team order",
			"slug", naturalSlug, "error", err)
	}

	swappedSlug := BuildSlug(d.Sport, d.HomeTeam, d.AwayTeam, d.Date)
	meta, found, err = c.marketBySlug(ctx, swappedSlug)
	if err == nil && found {
		return metaToMarketInfo(meta, swappedSlug, true), true, true, nil
	}
	if ctx.Err() != nil {
		return game.MarketInfo{}, false, false, ctx.Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "venue market lookup failed on both team orders",
			"slug", swappedSlug, "error", err)
	}
	return game.MarketInfo{}, false, false, nil
}

// FetchGamePrices resolves the matchup's market and pulls its full price
// history. ResolveMarket already restored away-first token order, so the
// series of TokenIDs[0] is the away side's implied probability no matter
// which slug order matched.
func (c *Client) FetchGamePrices(ctx context.Context, d market.Descriptor) (market.PriceHistory, error) {
	info, swapped, found, err := c.ResolveMarket(ctx, d)
	if err != nil {
		return market.PriceHistory{}, err
	}
	if !found {
		return market.PriceHistory{}, nil
	}
	if len(info.TokenIDs) == 0 {
		c.logger.WarnContext(ctx, "venue market has no outcome tokens", "slug", info.Slug)
		return market.PriceHistory{}, nil
	}

	endTS := info.MarketCloseTS
	if endTS == 0 {
		endTS = time.Now().Unix()
	}
	series, err := c.PriceSeries(ctx, info.TokenIDs[0], info.MarketOpenTS, endTS)
	if err != nil {
		if ctx.Err() != nil {
			return market.PriceHistory{}, ctx.Err()
		}
		c.logger.WarnContext(ctx, "venue price history fetch failed", "slug", info.Slug, "error", err)
		return market.PriceHistory{}, nil
	}

	return market.PriceHistory{
		Found:         true,
		History:       series,
		MarketOpenTS:  info.MarketOpenTS,
		MarketCloseTS: info.MarketCloseTS,
		GameStartTS:   info.GameStartTS,
		SwappedOrder:  swapped,
	}, nil
}

// PriceSeries fetches one token's (t, p) series from the clob API. The token
// must be the away-side token; each point's home probability is 1-p.
func (c *Client) PriceSeries(ctx context.Context, tokenID string, startTS, endTS int64) ([]market.PriceObservation, error) {
	values := url.Values{}
	values.Set("market", tokenID)
	if startTS > 0 {
		values.Set("startTs", strconv.FormatInt(startTS, 10))
	}
	if endTS > 0 {
		values.Set("endTs", strconv.FormatInt(endTS, 10))
	}
	fullURL := c.clobBaseURL + "/prices-history?" + values.Encode()

	raw, err := c.executeFastRequest(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	var payload priceHistoryEnvelope
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("decode price history payload: %w", err)
	}

	series := make([]market.PriceObservation, 0, len(payload.History))
	for _, point := range payload.History {
		series = append(series, market.PriceObservation{
			Timestamp: point.Timestamp,
			AwayProb:  point.Price,
			HomeProb:  1 - point.Price,
		})
	}
	return series, nil
}

func (c *Client) marketBySlug(ctx context.Context, slug string) (gammaMarket, bool, error) {
	path := "/markets/slug/" + url.PathEscape(slug)
	fullURL := c.gammaBaseURL + path

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "polymarket circuit breaker rejected request", "state", c.breaker.State())
			return gammaMarket{}, false, fmt.Errorf("%w: price venue is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	out, err, _ := c.flight.Do(path, func() (any, error) {
		raw, found, reqErr := c.executeGammaRequest(ctx, fullURL)
		if c.circuitEnabled {
			if reqErr != nil && stderrors.Is(reqErr, errPolymarketTransient) {
				c.breaker.RecordFailure()
			} else {
				c.breaker.RecordSuccess()
			}
		}
		if reqErr != nil {
			return nil, reqErr
		}
		if !found {
			return []byte(nil), nil
		}
		return raw, nil
	})
	if err != nil {
		return gammaMarket{}, false, err
	}

	raw, ok := out.([]byte)
	if !ok {
		return gammaMarket{}, false, fmt.Errorf("unexpected response payload type %T", out)
	}
	if len(raw) == 0 {
		return gammaMarket{}, false, nil
	}

	var meta gammaMarket
	if err := sonic.Unmarshal(raw, &meta); err != nil {
		return gammaMarket{}, false, fmt.Errorf("decode market payload: %w", err)
	}
	return meta, true, nil
}

// executeGammaRequest issues one metadata GET. Throttle responses sleep a
// fixed second and retry without an attempt cap; the shared budget already
// caps the steady-state rate, so this is backpressure, not backoff. Every
// other failure is terminal for the attempt.
func (c *Client) executeGammaRequest(ctx context.Context, fullURL string) ([]byte, bool, error) {
	for {
		if err := c.budget.Admit(ctx); err != nil {
			return nil, false, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, false, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, false, fmt.Errorf("%w: send request: %v", errPolymarketTransient, err)
		}
		raw, readErr := readLimitedBody(resp)
		if readErr != nil {
			return nil, false, fmt.Errorf("%w: read response body: %v", errPolymarketTransient, readErr)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			if err := c.sleepThrottle(ctx); err != nil {
				return nil, false, err
			}
		case resp.StatusCode == http.StatusNotFound:
			return nil, false, nil
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return raw, true, nil
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, false, fmt.Errorf("%w: venue status=%d body=%s", errPolymarketTransient, resp.StatusCode, abbreviateBody(raw))
		default:
			return nil, false, fmt.Errorf("venue status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
		}
	}
}

// executeFastRequest is the clob-side twin of executeGammaRequest.
func (c *Client) executeFastRequest(ctx context.Context, fullURL string) ([]byte, error) {
	for {
		if err := c.budget.Admit(ctx); err != nil {
			return nil, err
		}

		req := fasthttp.AcquireRequest()
		resp := fasthttp.AcquireResponse()
		req.SetRequestURI(fullURL)
		req.Header.SetMethod(fasthttp.MethodGet)
		req.Header.Set("accept", "application/json")

		err := c.fastClient.DoTimeout(req, resp, c.timeout)
		status := resp.StatusCode()

		buf := bytebufferpool.Get()
		_, _ = buf.Write(resp.Body())
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)

		if err != nil {
			bytebufferpool.Put(buf)
			return nil, fmt.Errorf("%w: send request: %v", errPolymarketTransient, err)
		}

		switch {
		case status == http.StatusTooManyRequests:
			bytebufferpool.Put(buf)
			if err := c.sleepThrottle(ctx); err != nil {
				return nil, err
			}
		case status >= 200 && status < 300:
			raw := append([]byte(nil), buf.B...)
			bytebufferpool.Put(buf)
			return raw, nil
		case status >= http.StatusInternalServerError:
			body := abbreviateBody(buf.B)
			bytebufferpool.Put(buf)
			return nil, fmt.Errorf("%w: venue status=%d body=%s", errPolymarketTransient, status, body)
		default:
			body := abbreviateBody(buf.B)
			bytebufferpool.Put(buf)
			return nil, fmt.Errorf("venue status=%d body=%s", status, body)
		}
	}
}

func (c *Client) sleepThrottle(ctx context.Context) error {
	timer := time.NewTimer(c.throttleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func metaToMarketInfo(meta gammaMarket, slug string, swapped bool) game.MarketInfo {
	tokens := meta.tokenIDs()
	if swapped && len(tokens) == 2 {
		tokens[0], tokens[1] = tokens[1], tokens[0]
	}

	info := game.MarketInfo{
		Slug:     slug,
		TokenIDs: tokens,
		Closed:   meta.Closed,
	}
	if ts, ok := parseVenueTime(meta.StartDate); ok {
		info.MarketOpenTS = ts
	}
	if ts, ok := parseVenueTime(meta.EndDate); ok {
		info.MarketCloseTS = ts
	}
	if ts, ok := parseVenueTime(meta.GameStartTime); ok {
		info.GameStartTS = ts - gameStartLead
	}
	return info
}
