package market

import (
	"context"
	"errors"
	"time"
)

// Persistence hooks allow providers and orchestrators to persist fetched
// market data to external stores. Implementations are best-effort: failures
// are logged by the caller and never interrupt the data path.
type Persistence interface {
	// RecordHistoricalPrice persists a resolved point-in-time price.
	RecordHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time, price float64) error
	// RecordRangeSeries persists a fetched price/market-cap range.
	RecordRangeSeries(ctx context.Context, provider, coinID string, series *RangeSeries) error
	// RecordCoins persists the top-coin listing snapshot.
	RecordCoins(ctx context.Context, provider string, coins []Coin) error
}

// ErrStoreMiss reports that a Store holds nothing usable for a lookup.
var ErrStoreMiss = errors.New("market: store miss")

// Store extends Persistence with read-back of previously recorded data, so a
// restarted process can serve recent results without burning provider quota.
type Store interface {
	Persistence
	// LoadCoins returns the most recent recorded listing for the provider,
	// or ErrStoreMiss.
	LoadCoins(ctx context.Context, provider string) ([]Coin, error)
	// LoadHistoricalPrice returns a recorded price for the coin on the
	// given calendar date. A recorded "provider had nothing" verdict
	// surfaces as ErrNoData; an absent record as ErrStoreMiss.
	LoadHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time) (float64, error)
	// LoadRangeSeries returns a recorded series covering [from, to],
	// tolerating bounded staleness at the right edge, or ErrStoreMiss.
	LoadRangeSeries(ctx context.Context, provider, coinID string, from, to time.Time) (*RangeSeries, error)
}
