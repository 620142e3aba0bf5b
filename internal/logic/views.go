package logic

import (
	"hindsight-api/internal/dashboard"
	"hindsight-api/internal/types"
	"hindsight-api/pkg/market"
)

func coinView(c market.Coin) types.CoinView {
	return types.CoinView{
		Id:            c.ID,
		Symbol:        c.Symbol,
		Name:          c.Name,
		Image:         c.Image,
		CurrentPrice:  c.CurrentPrice,
		MarketCap:     c.MarketCap,
		MarketCapRank: c.MarketCapRank,
	}
}

func coinViews(coins []market.Coin) []types.CoinView {
	out := make([]types.CoinView, 0, len(coins))
	for _, c := range coins {
		out = append(out, coinView(c))
	}
	return out
}

func assetView(a dashboard.SelectedAsset) types.AssetView {
	return types.AssetView{
		Coin:            coinView(a.Coin),
		Pinned:          a.Pinned,
		Color:           a.Color,
		Visible:         a.Visible,
		HistoricalPrice: a.HistoricalPrice,
	}
}
