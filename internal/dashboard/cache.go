package dashboard

import "hindsight-api/pkg/market"

// priceCache holds everything fetched for the current reference-date epoch.
// All access happens under the owning Dashboard's mutex.
type priceCache struct {
	// historical maps coin id to its resolved reference-date price. A nil
	// entry records a permanent "no data" outcome so the coin is not
	// refetched within the epoch.
	historical map[string]*float64
	prices     map[string][]market.PricePoint
	marketCaps map[string][]market.PricePoint
}

func newPriceCache() *priceCache {
	return &priceCache{
		historical: make(map[string]*float64),
		prices:     make(map[string][]market.PricePoint),
		marketCaps: make(map[string][]market.PricePoint),
	}
}

// clear drops every cached value. Called on epoch invalidation.
func (c *priceCache) clear() {
	c.historical = make(map[string]*float64)
	c.prices = make(map[string][]market.PricePoint)
	c.marketCaps = make(map[string][]market.PricePoint)
}

// remove purges one coin, used when an asset is deselected.
func (c *priceCache) remove(coinID string) {
	delete(c.historical, coinID)
	delete(c.prices, coinID)
	delete(c.marketCaps, coinID)
}

func (c *priceCache) setHistorical(coinID string, price *float64) {
	c.historical[coinID] = price
}

func (c *priceCache) setSeries(coinID string, series *market.RangeSeries) {
	if series == nil {
		return
	}
	c.prices[coinID] = series.Prices
	c.marketCaps[coinID] = series.MarketCaps
}

// seriesFor returns the per-asset series for the requested chart mode,
// restricted to the provided coin ids.
func (c *priceCache) seriesFor(mode ChartMode, coinIDs map[string]struct{}) map[string][]market.PricePoint {
	source := c.prices
	if mode == ChartModeMarketCap {
		source = c.marketCaps
	}
	out := make(map[string][]market.PricePoint, len(coinIDs))
	for id := range coinIDs {
		if series, ok := source[id]; ok && len(series) > 0 {
			out[id] = series
		}
	}
	return out
}
