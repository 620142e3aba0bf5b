package coingecko

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"hindsight-api/pkg/market"
	"hindsight-api/pkg/throttle"
)

const (
	defaultProviderTimeout = 30 * time.Second
	defaultCoinsCacheTTL   = 5 * time.Minute
)

// Provider wraps CoinGecko client calls behind the generic market.Provider
// contract, adding per-call timeouts, a short-lived listing cache and
// best-effort persistence hooks.
type Provider struct {
	client      *Client
	timeout     time.Duration
	persistence market.Persistence
	store       market.Store
	providerID  string

	cacheMu       sync.RWMutex
	cachedCoins   []market.Coin
	coinsFetched  time.Time
	coinsCacheTTL time.Duration
}

type providerConfig struct {
	timeout       time.Duration
	coinsCacheTTL time.Duration
	clientOptions []Option
}

// ProviderOption customises the CoinGecko provider.
type ProviderOption func(*providerConfig)

// WithTimeout overrides the default per-call timeout.
func WithTimeout(timeout time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if timeout > 0 {
			cfg.timeout = timeout
		}
	}
}

// WithCoinsCacheTTL overrides how long the top-coins listing is served from memory.
func WithCoinsCacheTTL(ttl time.Duration) ProviderOption {
	return func(cfg *providerConfig) {
		if ttl > 0 {
			cfg.coinsCacheTTL = ttl
		}
	}
}

// WithClientOptions passes options to the underlying CoinGecko client.
func WithClientOptions(options ...Option) ProviderOption {
	return func(cfg *providerConfig) {
		cfg.clientOptions = append(cfg.clientOptions, options...)
	}
}

// NewProvider constructs a CoinGecko market provider.
func NewProvider(opts ...ProviderOption) *Provider {
	cfg := &providerConfig{
		timeout:       defaultProviderTimeout,
		coinsCacheTTL: defaultCoinsCacheTTL,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Provider{
		client:        NewClient(cfg.clientOptions...),
		timeout:       cfg.timeout,
		coinsCacheTTL: cfg.coinsCacheTTL,
	}
}

func init() {
	market.RegisterProvider("coingecko", func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		opts := []ProviderOption{}
		clientOptions := []Option{}
		if cfg.Timeout > 0 {
			opts = append(opts, WithTimeout(cfg.Timeout))
		}
		if cfg.HTTPTimeout > 0 {
			clientOptions = append(clientOptions, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		if cfg.BaseURL != "" {
			clientOptions = append(clientOptions, WithBaseURL(cfg.BaseURL))
		}
		if cfg.VsCurrency != "" {
			clientOptions = append(clientOptions, WithVsCurrency(cfg.VsCurrency))
		}
		if cfg.PerPage > 0 {
			clientOptions = append(clientOptions, WithPerPage(cfg.PerPage))
		}
		if cfg.MaxRetries > 0 {
			clientOptions = append(clientOptions, WithMaxRetries(cfg.MaxRetries))
		}
		if cfg.MinInterval > 0 {
			clientOptions = append(clientOptions, WithDataLimiter(throttle.NewLimiter(cfg.MinInterval)))
		}
		if cfg.MarketsMinInterval > 0 {
			clientOptions = append(clientOptions, WithMarketsLimiter(throttle.NewLimiter(cfg.MarketsMinInterval)))
		}
		if len(clientOptions) > 0 {
			opts = append(opts, WithClientOptions(clientOptions...))
		}
		provider := NewProvider(opts...)
		provider.providerID = name
		return provider, nil
	})
}

// AttachPersistence wires optional persistence hooks. Safe to call with nil.
// An implementation that is also a market.Store additionally serves reads, so
// recorded data answers repeat lookups without an API call.
func (p *Provider) AttachPersistence(persistence market.Persistence) {
	p.persistence = persistence
	p.store, _ = persistence.(market.Store)
}

// TopCoins implements market.Provider, serving the listing from a short-lived
// in-memory cache between refreshes.
func (p *Provider) TopCoins(ctx context.Context) ([]market.Coin, error) {
	if coins, ok := p.loadCoins(); ok {
		return coins, nil
	}

	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	coins, err := p.client.Markets(ctx)
	if err != nil {
		// The listing is fatal to the view, so a recorded snapshot is
		// better than nothing when the API is down.
		if cached, ok := p.loadStoredCoins(ctx, err); ok {
			return cached, nil
		}
		return nil, err
	}
	p.persistCoins(ctx, coins)
	p.storeCoins(coins)
	return coins, nil
}

// HistoricalPrice implements market.Provider. Recorded prices answer first;
// calendar-date prices never change, so a store hit costs no freshness.
func (p *Provider) HistoricalPrice(ctx context.Context, coinID string, date time.Time) (float64, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if price, err := p.loadStoredHistoricalPrice(ctx, coinID, date); !errors.Is(err, market.ErrStoreMiss) {
		return price, err
	}
	price, err := p.client.History(ctx, coinID, date)
	if err != nil {
		return 0, err
	}
	p.persistHistoricalPrice(ctx, coinID, date, price)
	return price, nil
}

// Range implements market.Provider. A recorded series covering the window is
// served as-is; the store bounds how stale its right edge may be.
func (p *Provider) Range(ctx context.Context, coinID string, from, to time.Time) (*market.RangeSeries, error) {
	ctx, cancel := p.withTimeout(ctx)
	defer cancel()
	if series, ok := p.loadStoredRangeSeries(ctx, coinID, from, to); ok {
		return series, nil
	}
	series, err := p.client.MarketChartRange(ctx, coinID, from, to)
	if err != nil {
		return nil, err
	}
	p.persistRangeSeries(ctx, coinID, series)
	return series, nil
}

func (p *Provider) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *Provider) loadCoins() ([]market.Coin, bool) {
	p.cacheMu.RLock()
	defer p.cacheMu.RUnlock()
	if len(p.cachedCoins) == 0 || time.Since(p.coinsFetched) > p.coinsCacheTTL {
		return nil, false
	}
	coins := make([]market.Coin, len(p.cachedCoins))
	copy(coins, p.cachedCoins)
	return coins, true
}

func (p *Provider) storeCoins(coins []market.Coin) {
	p.cacheMu.Lock()
	defer p.cacheMu.Unlock()
	p.cachedCoins = make([]market.Coin, len(coins))
	copy(p.cachedCoins, coins)
	p.coinsFetched = time.Now()
}

func (p *Provider) providerName() string {
	if p.providerID != "" {
		return p.providerID
	}
	return "coingecko"
}
