package coingecko

import (
	"encoding/json"
	"fmt"
)

// marketCoin mirrors one element of the /coins/markets response.
type marketCoin struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Image         string  `json:"image"`
	CurrentPrice  float64 `json:"current_price"`
	MarketCap     float64 `json:"market_cap"`
	MarketCapRank int     `json:"market_cap_rank"`
}

// historyResponse mirrors the /coins/{id}/history payload. Coins that did not
// exist on the requested date return the envelope without market_data.
type historyResponse struct {
	ID         string `json:"id"`
	MarketData *struct {
		CurrentPrice map[string]float64 `json:"current_price"`
	} `json:"market_data"`
}

// rangeResponse mirrors the /coins/{id}/market_chart/range payload:
// arrays of [timestamp_ms, value] pairs.
type rangeResponse struct {
	Prices     []rangePoint `json:"prices"`
	MarketCaps []rangePoint `json:"market_caps"`
}

// rangePoint decodes a two-element JSON array of timestamp and value.
type rangePoint struct {
	TimestampMS int64
	Value       float64
}

func (p *rangePoint) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("coingecko: expected [ts, value] pair, got %d elements", len(pair))
	}
	p.TimestampMS = int64(pair[0])
	p.Value = pair[1]
	return nil
}
