package model

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ CoinsModel = (*defaultCoinsModel)(nil)

// Coins mirrors a row of public.coins: the latest known snapshot of a coin
// as reported by a market data provider.
type Coins struct {
	Id            int64           `db:"id"`
	Provider      string          `db:"provider"`
	CoinId        string          `db:"coin_id"`
	Symbol        string          `db:"symbol"`
	Name          string          `db:"name"`
	Image         sql.NullString  `db:"image"`
	CurrentPrice  sql.NullFloat64 `db:"current_price"`
	MarketCap     sql.NullFloat64 `db:"market_cap"`
	MarketCapRank sql.NullInt64   `db:"market_cap_rank"`
}

type (
	// CoinsModel persists provider coin listings.
	CoinsModel interface {
		Upsert(ctx context.Context, row *Coins) error
		FindByProvider(ctx context.Context, provider string) ([]Coins, error)
	}

	defaultCoinsModel struct {
		conn sqlx.SqlConn
	}
)

// NewCoinsModel returns a model for the coins table.
func NewCoinsModel(conn sqlx.SqlConn) CoinsModel {
	return &defaultCoinsModel{conn: conn}
}

// Upsert inserts or refreshes a coin snapshot keyed by (provider, coin_id).
func (m *defaultCoinsModel) Upsert(ctx context.Context, row *Coins) error {
	const stmt = `
INSERT INTO public.coins (
    provider, coin_id, symbol, name, image, current_price, market_cap, market_cap_rank, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW()
)
ON CONFLICT (provider, coin_id) DO UPDATE SET
    symbol = EXCLUDED.symbol,
    name = EXCLUDED.name,
    image = EXCLUDED.image,
    current_price = EXCLUDED.current_price,
    market_cap = EXCLUDED.market_cap,
    market_cap_rank = EXCLUDED.market_cap_rank,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		row.Provider,
		row.CoinId,
		row.Symbol,
		row.Name,
		row.Image,
		row.CurrentPrice,
		row.MarketCap,
		row.MarketCapRank,
	); err != nil {
		return fmt.Errorf("coins.Upsert %s/%s: %w", row.Provider, row.CoinId, err)
	}
	return nil
}

// FindByProvider returns all coin snapshots for the given provider ordered by
// market cap rank ascending (unranked coins last).
func (m *defaultCoinsModel) FindByProvider(ctx context.Context, provider string) ([]Coins, error) {
	const query = `
SELECT id, provider, coin_id, symbol, name, image, current_price, market_cap, market_cap_rank
FROM public.coins
WHERE provider = $1
ORDER BY market_cap_rank ASC NULLS LAST`
	var rows []Coins
	if err := m.conn.QueryRowsCtx(ctx, &rows, query, provider); err != nil {
		return nil, fmt.Errorf("coins.FindByProvider %s: %w", provider, err)
	}
	return rows, nil
}
