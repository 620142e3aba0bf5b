package dashboard

import (
	"sort"
	"strings"
)

// SortField enumerates the sortable table columns.
type SortField string

const (
	SortByName       SortField = "name"
	SortBySymbol     SortField = "symbol"
	SortByHistorical SortField = "historical"
	SortByCurrent    SortField = "current"
	SortByChange     SortField = "change"
)

// ParseSortField maps a request parameter onto a SortField, defaulting to name.
func ParseSortField(raw string) SortField {
	switch SortField(strings.ToLower(strings.TrimSpace(raw))) {
	case SortBySymbol:
		return SortBySymbol
	case SortByHistorical:
		return SortByHistorical
	case SortByCurrent:
		return SortByCurrent
	case SortByChange:
		return SortByChange
	default:
		return SortByName
	}
}

// SortState tracks the active column and direction. Clicking the active
// column toggles direction; clicking a different column resets to ascending.
type SortState struct {
	Field     SortField
	Ascending bool
}

// Click applies a column header click and returns the resulting state.
func (s SortState) Click(field SortField) SortState {
	if s.Field == field {
		return SortState{Field: field, Ascending: !s.Ascending}
	}
	return SortState{Field: field, Ascending: true}
}

// SortAssets returns a sorted copy of the asset list. The input is never
// mutated. Assets with an undefined value for the active column (missing
// historical price, undefined change) sort after all defined values in
// either direction, so placeholders stay at the bottom of the table.
func SortAssets(assets []*SelectedAsset, state SortState) []*SelectedAsset {
	sorted := make([]*SelectedAsset, len(assets))
	copy(sorted, assets)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		switch state.Field {
		case SortBySymbol:
			return orderStrings(a.Coin.Symbol, b.Coin.Symbol, state.Ascending)
		case SortByHistorical:
			return orderFloats(a.HistoricalPrice, b.HistoricalPrice, state.Ascending)
		case SortByCurrent:
			if state.Ascending {
				return a.Coin.CurrentPrice < b.Coin.CurrentPrice
			}
			return a.Coin.CurrentPrice > b.Coin.CurrentPrice
		case SortByChange:
			return orderFloats(
				CalculateChange(a.HistoricalPrice, a.Coin.CurrentPrice),
				CalculateChange(b.HistoricalPrice, b.Coin.CurrentPrice),
				state.Ascending,
			)
		default:
			return orderStrings(a.Coin.Name, b.Coin.Name, state.Ascending)
		}
	})
	return sorted
}

func orderStrings(a, b string, ascending bool) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if ascending {
		return a < b
	}
	return a > b
}

func orderFloats(a, b *float64, ascending bool) bool {
	switch {
	case a == nil && b == nil:
		return false
	case a == nil:
		return false // undefined sorts last
	case b == nil:
		return true
	}
	if ascending {
		return *a < *b
	}
	return *a > *b
}
