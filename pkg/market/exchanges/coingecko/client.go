// Package coingecko implements the market.Provider contract against the
// public CoinGecko REST API. The unauthenticated tier enforces strict rate
// limits, so every request flows through a single-flight limiter and HTTP 429
// responses are retried with capped exponential backoff.
package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"hindsight-api/pkg/market"
	"hindsight-api/pkg/throttle"
)

const (
	defaultBaseURL     = "https://api.coingecko.com/api/v3"
	defaultHTTPTimeout = 15 * time.Second
	defaultMaxRetries  = 3
	defaultVsCurrency  = "usd"
	defaultPerPage     = 100

	// The listing endpoint is hit once per session and tolerates tighter
	// spacing than the per-coin endpoints.
	defaultDataInterval    = 6 * time.Second
	defaultMarketsInterval = 1500 * time.Millisecond
)

// Client wraps access to the CoinGecko REST API.
type Client struct {
	baseURL    string
	vsCurrency string
	perPage    int
	httpClient *http.Client
	maxRetries int

	// dataLimiter paces per-coin history/range requests; marketsLimiter
	// paces the top-coins listing, which may overlap with per-coin fetches.
	dataLimiter    *throttle.Limiter
	marketsLimiter *throttle.Limiter
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithVsCurrency overrides the quote currency (default "usd").
func WithVsCurrency(currency string) Option {
	return func(c *Client) {
		if currency != "" {
			c.vsCurrency = currency
		}
	}
}

// WithPerPage overrides the listing page size.
func WithPerPage(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithMaxRetries adjusts the 429 retry budget.
func WithMaxRetries(max int) Option {
	return func(c *Client) {
		if max >= 0 {
			c.maxRetries = max
		}
	}
}

// WithDataLimiter injects the limiter used for per-coin requests.
func WithDataLimiter(l *throttle.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.dataLimiter = l
		}
	}
}

// WithMarketsLimiter injects the limiter used for the listing endpoint.
func WithMarketsLimiter(l *throttle.Limiter) Option {
	return func(c *Client) {
		if l != nil {
			c.marketsLimiter = l
		}
	}
}

// NewClient constructs a CoinGecko API client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		vsCurrency: defaultVsCurrency,
		perPage:    defaultPerPage,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		maxRetries: defaultMaxRetries,
	}
	for _, opt := range opts {
		opt(client)
	}
	if c := client.httpClient; c == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	if client.dataLimiter == nil {
		client.dataLimiter = throttle.NewLimiter(defaultDataInterval)
	}
	if client.marketsLimiter == nil {
		client.marketsLimiter = throttle.NewLimiter(defaultMarketsInterval)
	}
	return client
}

// Markets returns the top coins by market cap.
func (c *Client) Markets(ctx context.Context) ([]market.Coin, error) {
	query := url.Values{
		"vs_currency": {c.vsCurrency},
		"order":       {"market_cap_desc"},
		"per_page":    {strconv.Itoa(c.perPage)},
		"page":        {"1"},
		"sparkline":   {"false"},
	}
	var payload []marketCoin
	if err := c.doGet(ctx, c.marketsLimiter, "/coins/markets", query, &payload); err != nil {
		return nil, err
	}
	coins := make([]market.Coin, 0, len(payload))
	for _, raw := range payload {
		coins = append(coins, market.Coin{
			ID:            raw.ID,
			Symbol:        raw.Symbol,
			Name:          raw.Name,
			Image:         raw.Image,
			CurrentPrice:  raw.CurrentPrice,
			MarketCap:     raw.MarketCap,
			MarketCapRank: raw.MarketCapRank,
		})
	}
	return coins, nil
}

// History returns the coin's quote-currency price on the given calendar date.
// Both a 404 and a payload without market_data mean the coin has no record
// for that date; callers receive market.ErrNoData.
func (c *Client) History(ctx context.Context, coinID string, date time.Time) (float64, error) {
	query := url.Values{
		"date":         {date.Format("02-01-2006")},
		"localization": {"false"},
	}
	var payload historyResponse
	err := c.doGet(ctx, c.dataLimiter, "/coins/"+url.PathEscape(coinID)+"/history", query, &payload)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return 0, fmt.Errorf("coingecko: history %s on %s: %w", coinID, date.Format("02-01-2006"), market.ErrNoData)
		}
		return 0, err
	}
	if payload.MarketData == nil {
		return 0, fmt.Errorf("coingecko: history %s on %s: %w", coinID, date.Format("02-01-2006"), market.ErrNoData)
	}
	price, ok := payload.MarketData.CurrentPrice[c.vsCurrency]
	if !ok {
		return 0, fmt.Errorf("coingecko: history %s: no %s quote: %w", coinID, c.vsCurrency, market.ErrNoData)
	}
	return price, nil
}

// MarketChartRange returns price and market-cap series covering [from, to].
func (c *Client) MarketChartRange(ctx context.Context, coinID string, from, to time.Time) (*market.RangeSeries, error) {
	query := url.Values{
		"vs_currency": {c.vsCurrency},
		"from":        {strconv.FormatInt(from.Unix(), 10)},
		"to":          {strconv.FormatInt(to.Unix(), 10)},
	}
	var payload rangeResponse
	err := c.doGet(ctx, c.dataLimiter, "/coins/"+url.PathEscape(coinID)+"/market_chart/range", query, &payload)
	if err != nil {
		if isStatus(err, http.StatusNotFound) {
			return nil, fmt.Errorf("coingecko: range %s: %w", coinID, market.ErrCoinNotFound)
		}
		return nil, err
	}
	return &market.RangeSeries{
		Prices:     toPoints(payload.Prices),
		MarketCaps: toPoints(payload.MarketCaps),
	}, nil
}

// statusError carries a non-2xx HTTP status for sentinel mapping upstream.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("coingecko: http status %d: %s", e.status, e.body)
}

func isStatus(err error, status int) bool {
	var se *statusError
	return errors.As(err, &se) && se.status == status
}

// doGet issues a paced GET and decodes the JSON response into result.
// HTTP 429 is retried with capped exponential backoff up to the retry budget,
// after which market.ErrRateLimited is returned. Other non-2xx statuses fail
// immediately with a statusError.
func (c *Client) doGet(ctx context.Context, limiter *throttle.Limiter, path string, query url.Values, result interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return fmt.Errorf("coingecko: build request: %w", err)
		}
		httpReq.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("coingecko: %s: %w", path, err)
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("coingecko: read response: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt >= c.maxRetries {
				return fmt.Errorf("coingecko: %s after %d retries: %w", path, c.maxRetries, market.ErrRateLimited)
			}
			if err := throttle.Sleep(ctx, throttle.Backoff(attempt)); err != nil {
				return err
			}
			continue
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &statusError{status: resp.StatusCode, body: truncate(string(body), 256)}
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("coingecko: decode response: %w", err)
			}
		}
		return nil
	}
}

func toPoints(raw []rangePoint) []market.PricePoint {
	points := make([]market.PricePoint, 0, len(raw))
	for _, p := range raw {
		points = append(points, market.PricePoint{Timestamp: p.TimestampMS, Value: p.Value})
	}
	return points
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
