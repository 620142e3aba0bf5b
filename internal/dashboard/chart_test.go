package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hindsight-api/pkg/market"
)

func TestBuildChartRecordsMergesOntoSharedAxis(t *testing.T) {
	series := map[string][]market.PricePoint{
		"btc": points([2]float64{1000, 10}, [2]float64{3000, 30}),
		"eth": points([2]float64{2000, 200}),
	}

	records := BuildChartRecords(series)
	require.Len(t, records, 3)

	// Axis is the sorted union of all timestamps.
	assert.Equal(t, int64(1000), records[0].Timestamp)
	assert.Equal(t, int64(2000), records[1].Timestamp)
	assert.Equal(t, int64(3000), records[2].Timestamp)

	// Each record attaches each asset's nearest sample.
	assert.Equal(t, 10.0, records[0].Values["btc"])
	assert.Equal(t, 200.0, records[0].Values["eth"])
	assert.Equal(t, 30.0, records[2].Values["btc"])
	assert.Equal(t, 200.0, records[2].Values["eth"])
}

func TestBuildChartRecordsNoEmptyRecords(t *testing.T) {
	series := map[string][]market.PricePoint{
		"btc": points([2]float64{1000, 10}, [2]float64{2000, 20}),
		"eth": nil,
	}

	for _, record := range BuildChartRecords(series) {
		assert.NotEmpty(t, record.Values)
	}
}

func TestBuildChartRecordsDownsamplesToBudget(t *testing.T) {
	big := make([]market.PricePoint, 1600)
	for i := range big {
		big[i] = market.PricePoint{Timestamp: int64(i * 1000), Value: float64(i)}
	}
	series := map[string][]market.PricePoint{"btc": big}

	records := BuildChartRecords(series)
	assert.LessOrEqual(t, len(records), maxChartPoints+1)
	// The first timestamp always survives downsampling.
	assert.Equal(t, int64(0), records[0].Timestamp)
}

func TestBuildChartRecordsUnderBudgetKeepsEverything(t *testing.T) {
	series := map[string][]market.PricePoint{
		"btc": points([2]float64{1000, 1}, [2]float64{2000, 2}, [2]float64{3000, 3}),
	}
	assert.Len(t, BuildChartRecords(series), 3)
}

func TestBuildChartRecordsEmptyInput(t *testing.T) {
	assert.Nil(t, BuildChartRecords(nil))
	assert.Nil(t, BuildChartRecords(map[string][]market.PricePoint{}))
}

func TestBuildChartRecordsDisplayDate(t *testing.T) {
	series := map[string][]market.PricePoint{
		// 2021-01-01T00:00:00Z in milliseconds.
		"btc": points([2]float64{1609459200000, 29000}),
	}
	records := BuildChartRecords(series)
	require.Len(t, records, 1)
	assert.Equal(t, "Jan 01, 2021", records[0].DisplayDate)
}

func TestDownsampleStride(t *testing.T) {
	axis := make([]int64, 1001)
	for i := range axis {
		axis[i] = int64(i)
	}
	kept := downsample(axis, 500)
	// stride = ceil(1001/500) = 3 -> 334 points, first preserved.
	assert.Equal(t, int64(0), kept[0])
	assert.LessOrEqual(t, len(kept), 501)
	for i := 1; i < len(kept); i++ {
		assert.Equal(t, kept[i-1]+3, kept[i])
	}
}
