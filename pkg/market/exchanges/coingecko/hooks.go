package coingecko

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"hindsight-api/pkg/market"
)

// Persistence hooks run inline on the fetch path but never interrupt it:
// failures are logged and the fetched data is still returned to the caller.

func (p *Provider) persistCoins(ctx context.Context, coins []market.Coin) {
	if p.persistence == nil || len(coins) == 0 {
		return
	}
	if err := p.persistence.RecordCoins(ctx, p.providerName(), coins); err != nil {
		logx.WithContext(ctx).Errorf("coingecko: persist coins provider=%s err=%v", p.providerName(), err)
	}
}

func (p *Provider) persistHistoricalPrice(ctx context.Context, coinID string, date time.Time, price float64) {
	if p.persistence == nil {
		return
	}
	if err := p.persistence.RecordHistoricalPrice(ctx, p.providerName(), coinID, date, price); err != nil {
		logx.WithContext(ctx).Errorf("coingecko: persist history provider=%s coin=%s err=%v", p.providerName(), coinID, err)
	}
}

func (p *Provider) persistRangeSeries(ctx context.Context, coinID string, series *market.RangeSeries) {
	if p.persistence == nil || series == nil {
		return
	}
	if err := p.persistence.RecordRangeSeries(ctx, p.providerName(), coinID, series); err != nil {
		logx.WithContext(ctx).Errorf("coingecko: persist range provider=%s coin=%s err=%v", p.providerName(), coinID, err)
	}
}

// Store reads mirror the hooks: best-effort, and any store failure other than
// a plain miss is logged and treated as a miss.

func (p *Provider) loadStoredCoins(ctx context.Context, fetchErr error) ([]market.Coin, bool) {
	if p.store == nil {
		return nil, false
	}
	coins, err := p.store.LoadCoins(ctx, p.providerName())
	if err != nil || len(coins) == 0 {
		if err != nil && !errors.Is(err, market.ErrStoreMiss) {
			logx.WithContext(ctx).Errorf("coingecko: load coins provider=%s err=%v", p.providerName(), err)
		}
		return nil, false
	}
	logx.WithContext(ctx).Infof("coingecko: serving %d recorded coins, listing fetch failed: %v", len(coins), fetchErr)
	return coins, true
}

// loadStoredHistoricalPrice answers from the store, returning ErrStoreMiss
// when the caller must fetch. A remembered empty date surfaces as ErrNoData.
func (p *Provider) loadStoredHistoricalPrice(ctx context.Context, coinID string, date time.Time) (float64, error) {
	if p.store == nil {
		return 0, market.ErrStoreMiss
	}
	price, err := p.store.LoadHistoricalPrice(ctx, p.providerName(), coinID, date)
	switch {
	case err == nil:
		return price, nil
	case errors.Is(err, market.ErrNoData):
		return 0, market.ErrNoData
	case errors.Is(err, market.ErrStoreMiss):
		return 0, market.ErrStoreMiss
	default:
		logx.WithContext(ctx).Errorf("coingecko: load history provider=%s coin=%s err=%v", p.providerName(), coinID, err)
		return 0, market.ErrStoreMiss
	}
}

func (p *Provider) loadStoredRangeSeries(ctx context.Context, coinID string, from, to time.Time) (*market.RangeSeries, bool) {
	if p.store == nil {
		return nil, false
	}
	series, err := p.store.LoadRangeSeries(ctx, p.providerName(), coinID, from, to)
	if err != nil || series == nil || len(series.Prices) == 0 {
		if err != nil && !errors.Is(err, market.ErrStoreMiss) {
			logx.WithContext(ctx).Errorf("coingecko: load range provider=%s coin=%s err=%v", p.providerName(), coinID, err)
		}
		return nil, false
	}
	return series, true
}
