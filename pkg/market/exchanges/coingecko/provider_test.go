package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hindsight-api/pkg/market"
	"hindsight-api/pkg/throttle"
)

// fakeStore is a scriptable market.Store for read-through tests.
type fakeStore struct {
	coins     []market.Coin
	coinsErr  error
	price     float64
	priceErr  error
	series    *market.RangeSeries
	seriesErr error

	recordedPrices int32
	recordedSeries int32
	recordedCoins  int32
}

func (f *fakeStore) RecordHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time, price float64) error {
	atomic.AddInt32(&f.recordedPrices, 1)
	return nil
}

func (f *fakeStore) RecordRangeSeries(ctx context.Context, provider, coinID string, series *market.RangeSeries) error {
	atomic.AddInt32(&f.recordedSeries, 1)
	return nil
}

func (f *fakeStore) RecordCoins(ctx context.Context, provider string, coins []market.Coin) error {
	atomic.AddInt32(&f.recordedCoins, 1)
	return nil
}

func (f *fakeStore) LoadCoins(ctx context.Context, provider string) ([]market.Coin, error) {
	return f.coins, f.coinsErr
}

func (f *fakeStore) LoadHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time) (float64, error) {
	return f.price, f.priceErr
}

func (f *fakeStore) LoadRangeSeries(ctx context.Context, provider, coinID string, from, to time.Time) (*market.RangeSeries, error) {
	return f.series, f.seriesErr
}

func fastProvider(baseURL string, store market.Store) *Provider {
	p := NewProvider(WithClientOptions(
		WithBaseURL(baseURL),
		WithDataLimiter(throttle.NewLimiter(time.Millisecond)),
		WithMarketsLimiter(throttle.NewLimiter(time.Millisecond)),
	))
	p.AttachPersistence(store)
	return p
}

func countingServer(t *testing.T, hits *int32, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		handler(w, r)
	}))
}

func TestHistoricalPriceServedFromStore(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unexpected call", http.StatusInternalServerError)
	})
	defer srv.Close()

	p := fastProvider(srv.URL, &fakeStore{price: 61000.5})

	price, err := p.HistoricalPrice(context.Background(), "bitcoin", time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 61000.5, price)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "a store hit must not reach the API")
}

func TestHistoricalPriceStoreNoDataSkipsAPI(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unexpected call", http.StatusInternalServerError)
	})
	defer srv.Close()

	p := fastProvider(srv.URL, &fakeStore{priceErr: market.ErrNoData})

	_, err := p.HistoricalPrice(context.Background(), "bitcoin", time.Now().AddDate(0, 0, -30))
	assert.ErrorIs(t, err, market.ErrNoData)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits), "a remembered empty date must not be refetched")
}

func TestHistoricalPriceStoreMissFallsThroughAndRecords(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"bitcoin","market_data":{"current_price":{"usd":59000}}}`))
	})
	defer srv.Close()

	store := &fakeStore{priceErr: market.ErrStoreMiss}
	p := fastProvider(srv.URL, store)

	price, err := p.HistoricalPrice(context.Background(), "bitcoin", time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, 59000.0, price)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.recordedPrices), "a fresh fetch is recorded")
}

func TestRangeServedFromStore(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unexpected call", http.StatusInternalServerError)
	})
	defer srv.Close()

	stored := &market.RangeSeries{
		Prices:     []market.PricePoint{{Timestamp: 1700000000000, Value: 2000.5}},
		MarketCaps: []market.PricePoint{{Timestamp: 1700000000000, Value: 240000000000}},
	}
	p := fastProvider(srv.URL, &fakeStore{series: stored})

	from := time.Unix(1_700_000_000, 0)
	series, err := p.Range(context.Background(), "ethereum", from, from.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, stored, series)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestRangeStoreMissFallsThroughAndRecords(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"prices":[[1700000000000, 2000.5]],"market_caps":[[1700000000000, 240000000000]]}`))
	})
	defer srv.Close()

	store := &fakeStore{seriesErr: market.ErrStoreMiss}
	p := fastProvider(srv.URL, store)

	from := time.Unix(1_700_000_000, 0)
	series, err := p.Range(context.Background(), "ethereum", from, from.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, series.Prices, 1)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, int32(1), atomic.LoadInt32(&store.recordedSeries))
}

func TestTopCoinsFallsBackToStoreWhenListingFails(t *testing.T) {
	var hits int32
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusInternalServerError)
	})
	defer srv.Close()

	recorded := []market.Coin{{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 65000, MarketCapRank: 1}}
	p := fastProvider(srv.URL, &fakeStore{coins: recorded})

	coins, err := p.TopCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, recorded, coins)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "the API is still tried first")

	// Without a recorded listing the fetch error surfaces.
	empty := fastProvider(srv.URL, &fakeStore{coinsErr: market.ErrStoreMiss})
	_, err = empty.TopCoins(context.Background())
	assert.Error(t, err)
}
