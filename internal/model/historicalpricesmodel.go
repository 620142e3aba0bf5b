package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ HistoricalPricesModel = (*defaultHistoricalPricesModel)(nil)

// HistoricalPrices mirrors a row of public.historical_prices. A NULL price
// records that the provider had no data for that date, so repeat lookups can
// skip the remote call.
type HistoricalPrices struct {
	Id        int64           `db:"id"`
	Provider  string          `db:"provider"`
	CoinId    string          `db:"coin_id"`
	PriceDate string          `db:"price_date"` // DD-MM-YYYY, provider convention
	Price     sql.NullFloat64 `db:"price"`
}

type (
	// HistoricalPricesModel persists reference-date point prices.
	HistoricalPricesModel interface {
		Upsert(ctx context.Context, row *HistoricalPrices) error
		FindOne(ctx context.Context, provider, coinID, priceDate string) (*HistoricalPrices, error)
	}

	defaultHistoricalPricesModel struct {
		conn sqlx.SqlConn
	}
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = sqlx.ErrNotFound

// NewHistoricalPricesModel returns a model for the historical_prices table.
func NewHistoricalPricesModel(conn sqlx.SqlConn) HistoricalPricesModel {
	return &defaultHistoricalPricesModel{conn: conn}
}

// Upsert inserts or refreshes a price keyed by (provider, coin_id, price_date).
func (m *defaultHistoricalPricesModel) Upsert(ctx context.Context, row *HistoricalPrices) error {
	const stmt = `
INSERT INTO public.historical_prices (
    provider, coin_id, price_date, price, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, NOW(), NOW()
)
ON CONFLICT (provider, coin_id, price_date) DO UPDATE SET
    price = EXCLUDED.price,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt, row.Provider, row.CoinId, row.PriceDate, row.Price); err != nil {
		return fmt.Errorf("historicalprices.Upsert %s/%s@%s: %w", row.Provider, row.CoinId, row.PriceDate, err)
	}
	return nil
}

// FindOne returns the stored price for a coin on a date, or ErrNotFound.
func (m *defaultHistoricalPricesModel) FindOne(ctx context.Context, provider, coinID, priceDate string) (*HistoricalPrices, error) {
	const query = `
SELECT id, provider, coin_id, price_date, price
FROM public.historical_prices
WHERE provider = $1 AND coin_id = $2 AND price_date = $3
LIMIT 1`
	var row HistoricalPrices
	err := m.conn.QueryRowCtx(ctx, &row, query, provider, coinID, priceDate)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("historicalprices.FindOne %s/%s@%s: %w", provider, coinID, priceDate, err)
	}
}
