package types

// CoinView is the wire shape of a coin from the session universe.
type CoinView struct {
	Id            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	Image         string  `json:"image,omitempty"`
	CurrentPrice  float64 `json:"currentPrice"`
	MarketCap     float64 `json:"marketCap"`
	MarketCapRank int     `json:"marketCapRank"`
}

type TopCoinsResp struct {
	Coins []CoinView `json:"coins"`
}

type SearchCoinsReq struct {
	Query string `form:"q,optional"`
}

type SearchCoinsResp struct {
	Coins []CoinView `json:"coins"`
}

type AddAssetReq struct {
	CoinId string `json:"coinId"`
	Pinned bool   `json:"pinned,optional"`
}

// AssetView is the wire shape of a selected asset.
type AssetView struct {
	Coin            CoinView `json:"coin"`
	Pinned          bool     `json:"pinned"`
	Color           string   `json:"color"`
	Visible         bool     `json:"visible"`
	HistoricalPrice *float64 `json:"historicalPrice,omitempty"`
}

type AddAssetResp struct {
	Asset AssetView `json:"asset"`
}

type RemoveAssetReq struct {
	Id string `path:"id"`
}

type SetVisibilityReq struct {
	Id      string `path:"id"`
	Visible bool   `json:"visible"`
}

type SetReferenceDateReq struct {
	// Date in YYYY-MM-DD form, interpreted as midnight UTC.
	Date string `json:"date"`
}

type SetReferenceDateResp struct {
	ReferenceDate string `json:"referenceDate"`
	Epoch         uint64 `json:"epoch"`
}

type TableReq struct {
	// Field, when present, is treated as a column header click: same field
	// toggles direction, a new field resets to ascending.
	Field string `form:"field,optional"`
	// Order forces a direction (asc|desc) regardless of toggle state.
	Order string `form:"order,optional"`
}

// TableRow is one rendered comparison row.
type TableRow struct {
	CoinId          string   `json:"coinId"`
	Name            string   `json:"name"`
	Symbol          string   `json:"symbol"`
	Image           string   `json:"image,omitempty"`
	Color           string   `json:"color"`
	Pinned          bool     `json:"pinned"`
	Visible         bool     `json:"visible"`
	HistoricalPrice string   `json:"historicalPrice"`
	CurrentPrice    string   `json:"currentPrice"`
	ChangePct       *float64 `json:"changePct,omitempty"`
}

type TableResp struct {
	Rows      []TableRow `json:"rows"`
	SortField string     `json:"sortField"`
	Ascending bool       `json:"ascending"`
}

type ChartReq struct {
	Mode    string `form:"mode,optional"`    // price | marketcap
	Display string `form:"display,optional"` // raw | normalized
}

// ChartRecordView is one chart sample across all visible assets.
type ChartRecordView struct {
	Timestamp   int64              `json:"timestamp"`
	DisplayDate string             `json:"displayDate"`
	Values      map[string]float64 `json:"values"`
}

type ChartResp struct {
	Mode    string            `json:"mode"`
	Display string            `json:"display"`
	Records []ChartRecordView `json:"records"`
}

type StatusResp struct {
	State         string            `json:"state"`
	Epoch         uint64            `json:"epoch"`
	ReferenceDate string            `json:"referenceDate"`
	Fetched       int               `json:"fetched"`
	Pending       int               `json:"pending"`
	Outcomes      map[string]string `json:"outcomes"`
}

type SelectionResp struct {
	Assets []AssetView `json:"assets"`
}

// ErrorResp is the uniform error body.
type ErrorResp struct {
	Error string `json:"error"`
}
