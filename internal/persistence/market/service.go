package marketpersist

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	gocache "github.com/zeromicro/go-zero/core/stores/cache"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/stores/sqlx"

	cachekeys "hindsight-api/internal/cache"
	"hindsight-api/internal/model"
	"hindsight-api/pkg/market"
)

const priceDateLayout = "02-01-2006"

// seriesReuseSlack bounds how stale a stored series may be at its right edge
// and still satisfy a warm-start read.
const seriesReuseSlack = time.Hour

var _ market.Store = (*Service)(nil)

// Service implements market data persistence and caching hooks. Postgres is
// the durable store; Redis holds short-lived copies so a restarted process
// can warm up without hitting the provider.
type Service struct {
	sqlConn     sqlx.SqlConn
	coinsModel  model.CoinsModel
	pricesModel model.HistoricalPricesModel
	seriesModel model.RangeSeriesModel
	cache       gocache.Cache
	redis       *redis.Redis
	ttl         cachekeys.TTLSet
}

// Config enumerates dependencies required to persist market data.
type Config struct {
	SQLConn     sqlx.SqlConn
	CoinsModel  model.CoinsModel
	PricesModel model.HistoricalPricesModel
	SeriesModel model.RangeSeriesModel
	Cache       gocache.Cache
	Redis       *redis.Redis
	TTL         cachekeys.TTLSet
}

// NewService wires a market persistence service. Returns nil when dependencies missing.
func NewService(cfg Config) market.Persistence {
	if cfg.SQLConn == nil {
		return nil
	}
	return &Service{
		sqlConn:     cfg.SQLConn,
		coinsModel:  cfg.CoinsModel,
		pricesModel: cfg.PricesModel,
		seriesModel: cfg.SeriesModel,
		cache:       cfg.Cache,
		redis:       cfg.Redis,
		ttl:         cfg.TTL,
	}
}

// RecordCoins persists the top-coin listing snapshot and refreshes the Redis copy.
func (s *Service) RecordCoins(ctx context.Context, provider string, coins []market.Coin) error {
	if s == nil || s.sqlConn == nil || len(coins) == 0 {
		return nil
	}
	for i := range coins {
		coin := &coins[i]
		if strings.TrimSpace(coin.ID) == "" {
			continue
		}
		row := &model.Coins{
			Provider: provider,
			CoinId:   coin.ID,
			Symbol:   coin.Symbol,
			Name:     coin.Name,
		}
		if coin.Image != "" {
			row.Image = sql.NullString{String: coin.Image, Valid: true}
		}
		if coin.CurrentPrice != 0 {
			row.CurrentPrice = sql.NullFloat64{Float64: coin.CurrentPrice, Valid: true}
		}
		if coin.MarketCap != 0 {
			row.MarketCap = sql.NullFloat64{Float64: coin.MarketCap, Valid: true}
		}
		if coin.MarketCapRank != 0 {
			row.MarketCapRank = sql.NullInt64{Int64: int64(coin.MarketCapRank), Valid: true}
		}
		if err := s.coinsModel.Upsert(ctx, row); err != nil {
			return err
		}
	}
	s.cacheCoins(ctx, provider, coins)
	return nil
}

// RecordHistoricalPrice persists a resolved reference-date price.
func (s *Service) RecordHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time, price float64) error {
	if s == nil || s.sqlConn == nil || strings.TrimSpace(coinID) == "" {
		return nil
	}
	priceDate := date.UTC().Format(priceDateLayout)
	row := &model.HistoricalPrices{
		Provider:  provider,
		CoinId:    coinID,
		PriceDate: priceDate,
		Price:     sql.NullFloat64{Float64: price, Valid: true},
	}
	if err := s.pricesModel.Upsert(ctx, row); err != nil {
		return err
	}
	s.cacheHistoricalPrice(ctx, provider, coinID, priceDate, price)
	return nil
}

// RecordRangeSeries persists a fetched price/market-cap range.
func (s *Service) RecordRangeSeries(ctx context.Context, provider, coinID string, series *market.RangeSeries) error {
	if s == nil || s.sqlConn == nil || series == nil || strings.TrimSpace(coinID) == "" {
		return nil
	}
	if err := s.persistSeries(ctx, provider, coinID, model.SeriesModePrice, series.Prices); err != nil {
		return err
	}
	if err := s.persistSeries(ctx, provider, coinID, model.SeriesModeMarketCap, series.MarketCaps); err != nil {
		return err
	}
	s.cacheSeries(ctx, provider, coinID, series)
	return nil
}

func (s *Service) persistSeries(ctx context.Context, provider, coinID, mode string, points []market.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	row := &model.RangeSeries{
		Provider:   provider,
		CoinId:     coinID,
		Mode:       mode,
		FromTs:     points[0].Timestamp / 1000,
		ToTs:       points[len(points)-1].Timestamp / 1000,
		Timestamps: make(pq.Int64Array, 0, len(points)),
		Values:     make(pq.Float64Array, 0, len(points)),
	}
	for _, p := range points {
		row.Timestamps = append(row.Timestamps, p.Timestamp)
		row.Values = append(row.Values, p.Value)
	}
	return s.seriesModel.Upsert(ctx, row)
}

func (s *Service) cacheCoins(ctx context.Context, provider string, coins []market.Coin) {
	if s.cache == nil {
		return
	}
	key := cachekeys.TopCoinsKey(provider)
	ttl := cachekeys.TopCoinsTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	if err := s.cache.SetWithExpireCtx(ctx, key, coins, ttl); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: cache coins key=%s err=%v", key, err)
	}
}

func (s *Service) cacheHistoricalPrice(ctx context.Context, provider, coinID, priceDate string, price float64) {
	if s.cache == nil {
		return
	}
	key := cachekeys.HistoricalPriceKey(provider, coinID, priceDate)
	ttl := cachekeys.HistoricalPriceTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	payload := pricePayload{Price: price, Ts: time.Now().UTC().UnixMilli()}
	if err := s.cache.SetWithExpireCtx(ctx, key, payload, ttl); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: cache historical price key=%s err=%v", key, err)
	}
}

// pricePayload is the JSON shape cached for a single reference-date price.
type pricePayload struct {
	Price float64 `json:"price"`
	Ts    int64   `json:"ts"`
}

// seriesPayload is the msgpack shape cached in Redis. Series blobs are large
// enough that msgpack beats the generic JSON cache noticeably.
type seriesPayload struct {
	Prices     []seriesPoint `msgpack:"p"`
	MarketCaps []seriesPoint `msgpack:"m"`
}

type seriesPoint struct {
	Ts    int64   `msgpack:"t"`
	Value float64 `msgpack:"v"`
}

func (s *Service) cacheSeries(ctx context.Context, provider, coinID string, series *market.RangeSeries) {
	if s.redis == nil || len(series.Prices) == 0 {
		return
	}
	ttl := cachekeys.RangeSeriesTTL(s.ttl)
	if ttl <= 0 {
		return
	}
	from := series.Prices[0].Timestamp / 1000
	to := series.Prices[len(series.Prices)-1].Timestamp / 1000
	key := cachekeys.RangeSeriesKey(provider, coinID, from, to)

	payload := seriesPayload{
		Prices:     toSeriesPoints(series.Prices),
		MarketCaps: toSeriesPoints(series.MarketCaps),
	}
	blob, err := msgpack.Marshal(&payload)
	if err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: encode series key=%s err=%v", key, err)
		return
	}
	if err := s.redis.SetexCtx(ctx, key, string(blob), int(ttl.Seconds())); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: cache series key=%s err=%v", key, err)
	}
}

// LoadCoins returns the most recent recorded listing for the provider. The
// Redis copy wins while fresh; Postgres answers after a restart.
func (s *Service) LoadCoins(ctx context.Context, provider string) ([]market.Coin, error) {
	if s == nil || s.sqlConn == nil {
		return nil, market.ErrStoreMiss
	}
	if s.cache != nil {
		var coins []market.Coin
		if err := s.cache.GetCtx(ctx, cachekeys.TopCoinsKey(provider), &coins); err == nil && len(coins) > 0 {
			return coins, nil
		}
	}
	rows, err := s.coinsModel.FindByProvider(ctx, provider)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, market.ErrStoreMiss
	}
	coins := make([]market.Coin, 0, len(rows))
	for _, row := range rows {
		coins = append(coins, market.Coin{
			ID:            row.CoinId,
			Symbol:        row.Symbol,
			Name:          row.Name,
			Image:         row.Image.String,
			CurrentPrice:  row.CurrentPrice.Float64,
			MarketCap:     row.MarketCap.Float64,
			MarketCapRank: int(row.MarketCapRank.Int64),
		})
	}
	return coins, nil
}

// LoadHistoricalPrice returns a recorded reference-date price. A stored NULL
// price is a remembered "provider had nothing" verdict and surfaces as
// market.ErrNoData.
func (s *Service) LoadHistoricalPrice(ctx context.Context, provider, coinID string, date time.Time) (float64, error) {
	if s == nil || s.sqlConn == nil {
		return 0, market.ErrStoreMiss
	}
	priceDate := date.UTC().Format(priceDateLayout)
	if s.cache != nil {
		var payload pricePayload
		key := cachekeys.HistoricalPriceKey(provider, coinID, priceDate)
		if err := s.cache.GetCtx(ctx, key, &payload); err == nil {
			return payload.Price, nil
		}
	}
	row, err := s.pricesModel.FindOne(ctx, provider, coinID, priceDate)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return 0, market.ErrStoreMiss
	case err != nil:
		return 0, err
	case !row.Price.Valid:
		return 0, market.ErrNoData
	}
	s.cacheHistoricalPrice(ctx, provider, coinID, priceDate, row.Price.Float64)
	return row.Price.Float64, nil
}

// LoadRangeSeries returns a recorded series covering [from, to]. The exact
// Redis window is tried first; otherwise Postgres may answer with any window
// that covers the request up to seriesReuseSlack behind the right edge.
func (s *Service) LoadRangeSeries(ctx context.Context, provider, coinID string, from, to time.Time) (*market.RangeSeries, error) {
	if s == nil || s.sqlConn == nil {
		return nil, market.ErrStoreMiss
	}
	fromTs, toTs := from.Unix(), to.Unix()
	if series := s.loadCachedSeries(ctx, provider, coinID, fromTs, toTs); series != nil {
		return series, nil
	}

	minToTs := toTs - int64(seriesReuseSlack.Seconds())
	priceRow, err := s.seriesModel.FindCovering(ctx, provider, coinID, model.SeriesModePrice, fromTs, minToTs)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return nil, market.ErrStoreMiss
	case err != nil:
		return nil, err
	}
	series := &market.RangeSeries{Prices: pointsFromRow(priceRow)}
	capRow, err := s.seriesModel.FindWindow(ctx, provider, coinID, model.SeriesModeMarketCap, priceRow.FromTs, priceRow.ToTs)
	if err == nil {
		series.MarketCaps = pointsFromRow(capRow)
	} else if !errors.Is(err, model.ErrNotFound) {
		logx.WithContext(ctx).Errorf("marketpersist: load marketcap series coin=%s err=%v", coinID, err)
	}
	return series, nil
}

// loadCachedSeries returns the Redis copy for the exact window, or nil.
func (s *Service) loadCachedSeries(ctx context.Context, provider, coinID string, from, to int64) *market.RangeSeries {
	if s.redis == nil {
		return nil
	}
	key := cachekeys.RangeSeriesKey(provider, coinID, from, to)
	blob, err := s.redis.GetCtx(ctx, key)
	if err != nil || blob == "" {
		return nil
	}
	var payload seriesPayload
	if err := msgpack.Unmarshal([]byte(blob), &payload); err != nil {
		logx.WithContext(ctx).Errorf("marketpersist: decode series key=%s err=%v", key, err)
		return nil
	}
	return &market.RangeSeries{
		Prices:     fromSeriesPoints(payload.Prices),
		MarketCaps: fromSeriesPoints(payload.MarketCaps),
	}
}

func pointsFromRow(row *model.RangeSeries) []market.PricePoint {
	n := len(row.Timestamps)
	if len(row.Values) < n {
		n = len(row.Values)
	}
	out := make([]market.PricePoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, market.PricePoint{Timestamp: row.Timestamps[i], Value: row.Values[i]})
	}
	return out
}

func toSeriesPoints(points []market.PricePoint) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{Ts: p.Timestamp, Value: p.Value})
	}
	return out
}

func fromSeriesPoints(points []seriesPoint) []market.PricePoint {
	out := make([]market.PricePoint, 0, len(points))
	for _, p := range points {
		out = append(out, market.PricePoint{Timestamp: p.Ts, Value: p.Value})
	}
	return out
}
