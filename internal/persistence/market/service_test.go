package marketpersist

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	"hindsight-api/internal/model"
	"hindsight-api/pkg/market"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

type fakeCoinsModel struct {
	rows    []model.Coins
	err     error
	upserts []model.Coins
}

func (f *fakeCoinsModel) Upsert(ctx context.Context, row *model.Coins) error {
	f.upserts = append(f.upserts, *row)
	return f.err
}

func (f *fakeCoinsModel) FindByProvider(ctx context.Context, provider string) ([]model.Coins, error) {
	return f.rows, f.err
}

type fakePricesModel struct {
	row     *model.HistoricalPrices
	err     error
	upserts []model.HistoricalPrices
}

func (f *fakePricesModel) Upsert(ctx context.Context, row *model.HistoricalPrices) error {
	f.upserts = append(f.upserts, *row)
	return nil
}

func (f *fakePricesModel) FindOne(ctx context.Context, provider, coinID, priceDate string) (*model.HistoricalPrices, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.row, nil
}

type fakeSeriesModel struct {
	covering    *model.RangeSeries
	coveringErr error
	window      *model.RangeSeries
	windowErr   error
	windowCalls [][2]int64
	upserts     []model.RangeSeries
}

func (f *fakeSeriesModel) Upsert(ctx context.Context, row *model.RangeSeries) error {
	f.upserts = append(f.upserts, *row)
	return nil
}

func (f *fakeSeriesModel) FindWindow(ctx context.Context, provider, coinID, mode string, fromTs, toTs int64) (*model.RangeSeries, error) {
	f.windowCalls = append(f.windowCalls, [2]int64{fromTs, toTs})
	if f.windowErr != nil {
		return nil, f.windowErr
	}
	return f.window, nil
}

func (f *fakeSeriesModel) FindCovering(ctx context.Context, provider, coinID, mode string, fromTs, minToTs int64) (*model.RangeSeries, error) {
	if f.coveringErr != nil {
		return nil, f.coveringErr
	}
	return f.covering, nil
}

func newTestService(coins *fakeCoinsModel, prices *fakePricesModel, series *fakeSeriesModel) *Service {
	svc := NewService(Config{
		SQLConn:     sqlx.NewSqlConnFromDB(nil),
		CoinsModel:  coins,
		PricesModel: prices,
		SeriesModel: series,
	})
	return svc.(*Service)
}

func TestLoadHistoricalPriceFromPostgres(t *testing.T) {
	prices := &fakePricesModel{row: &model.HistoricalPrices{
		Provider:  "coingecko",
		CoinId:    "bitcoin",
		PriceDate: "15-03-2024",
		Price:     sql.NullFloat64{Float64: 61234.56, Valid: true},
	}}
	s := newTestService(&fakeCoinsModel{}, prices, &fakeSeriesModel{})

	price, err := s.LoadHistoricalPrice(context.Background(), "coingecko", "bitcoin", mustDate(t, "2024-03-15"))
	require.NoError(t, err)
	assert.Equal(t, 61234.56, price)
}

func TestLoadHistoricalPriceRememberedNoData(t *testing.T) {
	prices := &fakePricesModel{row: &model.HistoricalPrices{
		Provider:  "coingecko",
		CoinId:    "newcoin",
		PriceDate: "15-03-2019",
		Price:     sql.NullFloat64{}, // recorded "provider had nothing"
	}}
	s := newTestService(&fakeCoinsModel{}, prices, &fakeSeriesModel{})

	_, err := s.LoadHistoricalPrice(context.Background(), "coingecko", "newcoin", mustDate(t, "2019-03-15"))
	assert.ErrorIs(t, err, market.ErrNoData)
}

func TestLoadHistoricalPriceAbsentIsStoreMiss(t *testing.T) {
	prices := &fakePricesModel{err: model.ErrNotFound}
	s := newTestService(&fakeCoinsModel{}, prices, &fakeSeriesModel{})

	_, err := s.LoadHistoricalPrice(context.Background(), "coingecko", "bitcoin", mustDate(t, "2024-03-15"))
	assert.ErrorIs(t, err, market.ErrStoreMiss)
}

func TestLoadCoinsMapsRows(t *testing.T) {
	coins := &fakeCoinsModel{rows: []model.Coins{
		{
			Provider:      "coingecko",
			CoinId:        "bitcoin",
			Symbol:        "btc",
			Name:          "Bitcoin",
			Image:         sql.NullString{String: "https://img/btc.png", Valid: true},
			CurrentPrice:  sql.NullFloat64{Float64: 65000, Valid: true},
			MarketCap:     sql.NullFloat64{Float64: 1.28e12, Valid: true},
			MarketCapRank: sql.NullInt64{Int64: 1, Valid: true},
		},
		{Provider: "coingecko", CoinId: "ethereum", Symbol: "eth", Name: "Ethereum"},
	}}
	s := newTestService(coins, &fakePricesModel{}, &fakeSeriesModel{})

	got, err := s.LoadCoins(context.Background(), "coingecko")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, market.Coin{
		ID:            "bitcoin",
		Symbol:        "btc",
		Name:          "Bitcoin",
		Image:         "https://img/btc.png",
		CurrentPrice:  65000,
		MarketCap:     1.28e12,
		MarketCapRank: 1,
	}, got[0])
	assert.Equal(t, "ethereum", got[1].ID)
}

func TestLoadCoinsEmptyIsStoreMiss(t *testing.T) {
	s := newTestService(&fakeCoinsModel{}, &fakePricesModel{}, &fakeSeriesModel{})

	_, err := s.LoadCoins(context.Background(), "coingecko")
	assert.ErrorIs(t, err, market.ErrStoreMiss)
}

func TestLoadRangeSeriesAssemblesBothModes(t *testing.T) {
	series := &fakeSeriesModel{
		covering: &model.RangeSeries{
			Mode:       model.SeriesModePrice,
			FromTs:     1700000000,
			ToTs:       1700003600,
			Timestamps: pq.Int64Array{1700000000000, 1700003600000},
			Values:     pq.Float64Array{2000.5, 2010.25},
		},
		window: &model.RangeSeries{
			Mode:       model.SeriesModeMarketCap,
			FromTs:     1700000000,
			ToTs:       1700003600,
			Timestamps: pq.Int64Array{1700000000000, 1700003600000},
			Values:     pq.Float64Array{2.4e11, 2.41e11},
		},
	}
	s := newTestService(&fakeCoinsModel{}, &fakePricesModel{}, series)

	from := mustDate(t, "2023-11-14")
	got, err := s.LoadRangeSeries(context.Background(), "coingecko", "ethereum", from, from.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, got.Prices, 2)
	require.Len(t, got.MarketCaps, 2)
	assert.Equal(t, market.PricePoint{Timestamp: 1700000000000, Value: 2000.5}, got.Prices[0])
	assert.Equal(t, 2.41e11, got.MarketCaps[1].Value)

	// The market-cap lookup uses the exact window the price row covers.
	require.Len(t, series.windowCalls, 1)
	assert.Equal(t, [2]int64{1700000000, 1700003600}, series.windowCalls[0])
}

func TestLoadRangeSeriesAbsentIsStoreMiss(t *testing.T) {
	series := &fakeSeriesModel{coveringErr: model.ErrNotFound}
	s := newTestService(&fakeCoinsModel{}, &fakePricesModel{}, series)

	from := mustDate(t, "2023-11-14")
	_, err := s.LoadRangeSeries(context.Background(), "coingecko", "ethereum", from, from.AddDate(0, 0, 1))
	assert.ErrorIs(t, err, market.ErrStoreMiss)
}

func TestRecordRangeSeriesSplitsModes(t *testing.T) {
	series := &fakeSeriesModel{}
	s := newTestService(&fakeCoinsModel{}, &fakePricesModel{}, series)

	err := s.RecordRangeSeries(context.Background(), "coingecko", "bitcoin", &market.RangeSeries{
		Prices:     []market.PricePoint{{Timestamp: 1700000000000, Value: 2000.5}, {Timestamp: 1700003600000, Value: 2010.25}},
		MarketCaps: []market.PricePoint{{Timestamp: 1700000000000, Value: 2.4e11}, {Timestamp: 1700003600000, Value: 2.41e11}},
	})
	require.NoError(t, err)

	require.Len(t, series.upserts, 2)
	price, caps := series.upserts[0], series.upserts[1]
	assert.Equal(t, model.SeriesModePrice, price.Mode)
	assert.Equal(t, model.SeriesModeMarketCap, caps.Mode)
	assert.Equal(t, int64(1700000000), price.FromTs, "window bounds are unix seconds")
	assert.Equal(t, int64(1700003600), price.ToTs)
	assert.Equal(t, pq.Float64Array{2000.5, 2010.25}, price.Values)
}
