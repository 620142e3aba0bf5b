package market

import (
	"context"
	"errors"
	"time"
)

// ErrNoData reports that the provider has no price for the requested date,
// typically because the coin did not exist yet. Callers treat this as
// "unknown", not as a failure.
var ErrNoData = errors.New("market: no data for requested date")

// ErrRateLimited reports that the provider kept returning HTTP 429 after the
// retry budget was exhausted.
var ErrRateLimited = errors.New("market: rate limit exceeded")

// ErrCoinNotFound reports that the requested coin id is unknown to the provider.
var ErrCoinNotFound = errors.New("market: coin not found")

// Provider exposes provider-agnostic historical price data.
type Provider interface {
	// TopCoins returns the provider's coin universe ordered by market cap
	// descending, capped at the configured page size.
	TopCoins(ctx context.Context) ([]Coin, error)
	// HistoricalPrice returns the coin's USD price on the given calendar
	// date. Returns ErrNoData when the provider has no record for that date.
	HistoricalPrice(ctx context.Context, coinID string, date time.Time) (float64, error)
	// Range returns price and market-cap series covering [from, to].
	Range(ctx context.Context, coinID string, from, to time.Time) (*RangeSeries, error)
}

// Coin is an immutable market snapshot of a single asset, fetched once per
// session from the top-by-market-cap listing.
type Coin struct {
	ID            string  // Provider-native id, e.g. "bitcoin"
	Symbol        string  // Ticker symbol, e.g. "btc"
	Name          string  // Display name, e.g. "Bitcoin"
	Image         string  // Display image URL
	CurrentPrice  float64 // Latest USD price at listing time
	MarketCap     float64 // USD market capitalisation
	MarketCapRank int     // 1-based rank by market cap
}

// PricePoint is a single (timestamp, value) sample.
type PricePoint struct {
	Timestamp int64   // Unix milliseconds
	Value     float64 // USD
}

// RangeSeries bundles the two series returned by a single range request.
// Timestamps within each series are non-decreasing.
type RangeSeries struct {
	Prices     []PricePoint
	MarketCaps []PricePoint
}
