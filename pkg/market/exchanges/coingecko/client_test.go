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

func fastClient(baseURL string, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(baseURL),
		WithDataLimiter(throttle.NewLimiter(time.Millisecond)),
		WithMarketsLimiter(throttle.NewLimiter(time.Millisecond)),
	}
	return NewClient(append(base, opts...)...)
}

func TestMarketsDecodesListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
		assert.Equal(t, "market_cap_desc", r.URL.Query().Get("order"))
		assert.Equal(t, "100", r.URL.Query().Get("per_page"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","current_price":65000.12,"market_cap":1280000000000,"market_cap_rank":1},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"https://img/eth.png","current_price":3400.5,"market_cap":410000000000,"market_cap_rank":2}
		]`))
	}))
	defer srv.Close()

	coins, err := fastClient(srv.URL).Markets(context.Background())
	require.NoError(t, err)
	require.Len(t, coins, 2)
	assert.Equal(t, "bitcoin", coins[0].ID)
	assert.Equal(t, "Bitcoin", coins[0].Name)
	assert.Equal(t, 1, coins[0].MarketCapRank)
	assert.Equal(t, 3400.5, coins[1].CurrentPrice)
}

func TestHistoryFormatsDateAndParsesPrice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/bitcoin/history", r.URL.Path)
		assert.Equal(t, "15-03-2024", r.URL.Query().Get("date"))
		_, _ = w.Write([]byte(`{"id":"bitcoin","market_data":{"current_price":{"usd":61234.56,"eur":56000.1}}}`))
	}))
	defer srv.Close()

	date := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	price, err := fastClient(srv.URL).History(context.Background(), "bitcoin", date)
	require.NoError(t, err)
	assert.Equal(t, 61234.56, price)
}

func TestHistoryNoDataVariants(t *testing.T) {
	t.Run("404 means no data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"coin not found"}`, http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := fastClient(srv.URL).History(context.Background(), "bitcoin", time.Now())
		assert.ErrorIs(t, err, market.ErrNoData)
	})

	t.Run("missing market_data means no data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"id":"bitcoin","symbol":"btc"}`))
		}))
		defer srv.Close()

		_, err := fastClient(srv.URL).History(context.Background(), "bitcoin", time.Now())
		assert.ErrorIs(t, err, market.ErrNoData)
	})
}

func TestMarketChartRangeDecodesPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/ethereum/market_chart/range", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`{
			"prices":[[1700000000000, 2000.5],[1700003600000, 2010.25]],
			"market_caps":[[1700000000000, 240000000000],[1700003600000, 241000000000]]
		}`))
	}))
	defer srv.Close()

	from := time.Unix(1_700_000_000, 0)
	series, err := fastClient(srv.URL).MarketChartRange(context.Background(), "ethereum", from, from.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, series.Prices, 2)
	require.Len(t, series.MarketCaps, 2)
	assert.Equal(t, int64(1700000000000), series.Prices[0].Timestamp)
	assert.Equal(t, 2010.25, series.Prices[1].Value)
	assert.Equal(t, 241000000000.0, series.MarketCaps[1].Value)
}

func TestDoGetRetriesAfter429(t *testing.T) {
	if testing.Short() {
		t.Skip("retry backoff sleeps for seconds")
	}
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "throttled", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"bitcoin","market_data":{"current_price":{"usd":100}}}`))
	}))
	defer srv.Close()

	price, err := fastClient(srv.URL, WithMaxRetries(1)).History(context.Background(), "bitcoin", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDoGetRateLimitBudgetExhausted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "throttled", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	// Zero retry budget keeps this test free of backoff sleeps.
	_, err := fastClient(srv.URL, WithMaxRetries(0)).History(context.Background(), "bitcoin", time.Now())
	assert.ErrorIs(t, err, market.ErrRateLimited)
}

func TestDoGetOtherStatusFailsImmediately(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := fastClient(srv.URL).Markets(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, market.ErrRateLimited)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "5xx must not be retried")
}

func TestDoGetHonoursCancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fastClient(srv.URL).Markets(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
