package model

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

var _ RangeSeriesModel = (*defaultRangeSeriesModel)(nil)

// Series modes stored in public.range_series.
const (
	SeriesModePrice     = "price"
	SeriesModeMarketCap = "marketcap"
)

// RangeSeries mirrors a row of public.range_series: one sampled time series
// for a coin over a [from_ts, to_ts] unix-second window. Timestamps are in
// milliseconds and parallel to Values. The column is sample_values because
// VALUES is a reserved word in Postgres.
type RangeSeries struct {
	Id         int64           `db:"id"`
	Provider   string          `db:"provider"`
	CoinId     string          `db:"coin_id"`
	Mode       string          `db:"mode"`
	FromTs     int64           `db:"from_ts"`
	ToTs       int64           `db:"to_ts"`
	Timestamps pq.Int64Array   `db:"timestamps"`
	Values     pq.Float64Array `db:"sample_values"`
}

type (
	// RangeSeriesModel persists fetched chart series.
	RangeSeriesModel interface {
		Upsert(ctx context.Context, row *RangeSeries) error
		FindWindow(ctx context.Context, provider, coinID, mode string, fromTs, toTs int64) (*RangeSeries, error)
		FindCovering(ctx context.Context, provider, coinID, mode string, fromTs, minToTs int64) (*RangeSeries, error)
	}

	defaultRangeSeriesModel struct {
		conn sqlx.SqlConn
	}
)

// NewRangeSeriesModel returns a model for the range_series table.
func NewRangeSeriesModel(conn sqlx.SqlConn) RangeSeriesModel {
	return &defaultRangeSeriesModel{conn: conn}
}

// Upsert inserts or refreshes a series keyed by (provider, coin_id, mode, from_ts, to_ts).
func (m *defaultRangeSeriesModel) Upsert(ctx context.Context, row *RangeSeries) error {
	const stmt = `
INSERT INTO public.range_series (
    provider, coin_id, mode, from_ts, to_ts, timestamps, sample_values, created_at, updated_at
) VALUES (
    $1, $2, $3, $4, $5, $6, $7, NOW(), NOW()
)
ON CONFLICT (provider, coin_id, mode, from_ts, to_ts) DO UPDATE SET
    timestamps = EXCLUDED.timestamps,
    sample_values = EXCLUDED.sample_values,
    updated_at = NOW();`
	if _, err := m.conn.ExecCtx(ctx, stmt,
		row.Provider,
		row.CoinId,
		row.Mode,
		row.FromTs,
		row.ToTs,
		row.Timestamps,
		row.Values,
	); err != nil {
		return fmt.Errorf("rangeseries.Upsert %s/%s/%s: %w", row.Provider, row.CoinId, row.Mode, err)
	}
	return nil
}

// FindWindow returns the stored series for an exact window, or ErrNotFound.
func (m *defaultRangeSeriesModel) FindWindow(ctx context.Context, provider, coinID, mode string, fromTs, toTs int64) (*RangeSeries, error) {
	const query = `
SELECT id, provider, coin_id, mode, from_ts, to_ts, timestamps, sample_values
FROM public.range_series
WHERE provider = $1 AND coin_id = $2 AND mode = $3 AND from_ts = $4 AND to_ts = $5
LIMIT 1`
	var row RangeSeries
	err := m.conn.QueryRowCtx(ctx, &row, query, provider, coinID, mode, fromTs, toTs)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("rangeseries.FindWindow %s/%s/%s: %w", provider, coinID, mode, err)
	}
}

// FindCovering returns the freshest stored series whose window starts at or
// before fromTs and ends at or after minToTs, or ErrNotFound.
func (m *defaultRangeSeriesModel) FindCovering(ctx context.Context, provider, coinID, mode string, fromTs, minToTs int64) (*RangeSeries, error) {
	const query = `
SELECT id, provider, coin_id, mode, from_ts, to_ts, timestamps, sample_values
FROM public.range_series
WHERE provider = $1 AND coin_id = $2 AND mode = $3 AND from_ts <= $4 AND to_ts >= $5
ORDER BY to_ts DESC
LIMIT 1`
	var row RangeSeries
	err := m.conn.QueryRowCtx(ctx, &row, query, provider, coinID, mode, fromTs, minToTs)
	switch err {
	case nil:
		return &row, nil
	case sqlx.ErrNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("rangeseries.FindCovering %s/%s/%s: %w", provider, coinID, mode, err)
	}
}
