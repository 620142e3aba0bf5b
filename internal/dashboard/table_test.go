package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hindsight-api/pkg/market"
)

func testAssets() []*SelectedAsset {
	return []*SelectedAsset{
		{
			Coin:            market.Coin{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", CurrentPrice: 65000},
			HistoricalPrice: fptr(50000),
		},
		{
			Coin:            market.Coin{ID: "ethereum", Symbol: "eth", Name: "Ethereum", CurrentPrice: 3400},
			HistoricalPrice: fptr(3500),
		},
		{
			Coin: market.Coin{ID: "dogecoin", Symbol: "doge", Name: "Dogecoin", CurrentPrice: 0.1},
			// Historical price unresolved.
		},
	}
}

func TestSortStateClick(t *testing.T) {
	state := SortState{Field: SortByName, Ascending: true}

	state = state.Click(SortByName)
	assert.Equal(t, SortState{Field: SortByName, Ascending: false}, state, "same field toggles direction")

	state = state.Click(SortByName)
	assert.True(t, state.Ascending, "second click toggles back")

	state = state.Click(SortByCurrent)
	assert.Equal(t, SortState{Field: SortByCurrent, Ascending: true}, state, "new field resets ascending")
}

func TestSortAssetsByName(t *testing.T) {
	sorted := SortAssets(testAssets(), SortState{Field: SortByName, Ascending: true})
	require.Len(t, sorted, 3)
	assert.Equal(t, "bitcoin", sorted[0].Coin.ID)
	assert.Equal(t, "dogecoin", sorted[1].Coin.ID)
	assert.Equal(t, "ethereum", sorted[2].Coin.ID)

	sorted = SortAssets(testAssets(), SortState{Field: SortByName, Ascending: false})
	assert.Equal(t, "ethereum", sorted[0].Coin.ID)
}

func TestSortAssetsByCurrentPrice(t *testing.T) {
	sorted := SortAssets(testAssets(), SortState{Field: SortByCurrent, Ascending: true})
	assert.Equal(t, "dogecoin", sorted[0].Coin.ID)
	assert.Equal(t, "bitcoin", sorted[2].Coin.ID)
}

func TestSortAssetsUndefinedValuesLast(t *testing.T) {
	for _, ascending := range []bool{true, false} {
		sorted := SortAssets(testAssets(), SortState{Field: SortByHistorical, Ascending: ascending})
		assert.Equalf(t, "dogecoin", sorted[2].Coin.ID,
			"missing historical price sorts last (ascending=%v)", ascending)

		sorted = SortAssets(testAssets(), SortState{Field: SortByChange, Ascending: ascending})
		assert.Equalf(t, "dogecoin", sorted[2].Coin.ID,
			"undefined change sorts last (ascending=%v)", ascending)
	}
}

func TestSortAssetsByChange(t *testing.T) {
	sorted := SortAssets(testAssets(), SortState{Field: SortByChange, Ascending: true})
	// eth is ~-2.9%, btc is +30%.
	assert.Equal(t, "ethereum", sorted[0].Coin.ID)
	assert.Equal(t, "bitcoin", sorted[1].Coin.ID)
}

func TestSortAssetsDoesNotMutateInput(t *testing.T) {
	assets := testAssets()
	_ = SortAssets(assets, SortState{Field: SortByName, Ascending: false})
	assert.Equal(t, "bitcoin", assets[0].Coin.ID)
}

func TestParseSortField(t *testing.T) {
	assert.Equal(t, SortBySymbol, ParseSortField(" Symbol "))
	assert.Equal(t, SortByChange, ParseSortField("change"))
	assert.Equal(t, SortByName, ParseSortField("bogus"))
	assert.Equal(t, SortByName, ParseSortField(""))
}
