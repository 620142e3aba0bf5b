package dashboard

import (
	"sort"
	"time"

	"hindsight-api/pkg/market"
)

// maxChartPoints bounds the number of records handed to the chart renderer.
const maxChartPoints = 500

// ChartRecord is one point on the shared chart axis. Values carries the
// per-asset sample for that timestamp; assets without a usable sample are
// simply absent, the renderer bridges the gap.
type ChartRecord struct {
	Timestamp   int64              `json:"timestamp"`
	DisplayDate string             `json:"displayDate"`
	Values      map[string]float64 `json:"values"`
}

// BuildChartRecords merges per-asset series onto a shared, down-sampled
// timestamp axis:
//
//  1. Union all timestamps across the contributing series, sorted ascending.
//  2. When the axis exceeds maxChartPoints, keep every Nth timestamp with
//     N = ceil(len/maxChartPoints); index 0 is always preserved.
//  3. For each retained timestamp, attach each asset's nearest sample.
//  4. Drop records that end up with no values at all.
func BuildChartRecords(seriesByAsset map[string][]market.PricePoint) []ChartRecord {
	axis := unionTimestamps(seriesByAsset)
	if len(axis) == 0 {
		return nil
	}
	axis = downsample(axis, maxChartPoints)

	records := make([]ChartRecord, 0, len(axis))
	for _, ts := range axis {
		values := make(map[string]float64, len(seriesByAsset))
		for assetID, series := range seriesByAsset {
			// Linear nearest lookup is O(points x samples); fine at
			// the bounded scale this chart operates on.
			if v, ok := nearestValue(series, ts); ok {
				values[assetID] = v
			}
		}
		if len(values) == 0 {
			continue
		}
		records = append(records, ChartRecord{
			Timestamp:   ts,
			DisplayDate: time.UnixMilli(ts).UTC().Format("Jan 02, 2006"),
			Values:      values,
		})
	}
	return records
}

func unionTimestamps(seriesByAsset map[string][]market.PricePoint) []int64 {
	seen := make(map[int64]struct{})
	for _, series := range seriesByAsset {
		for _, point := range series {
			seen[point.Timestamp] = struct{}{}
		}
	}
	axis := make([]int64, 0, len(seen))
	for ts := range seen {
		axis = append(axis, ts)
	}
	sort.Slice(axis, func(i, j int) bool { return axis[i] < axis[j] })
	return axis
}

// downsample keeps every Nth element with N = ceil(len/budget). The first
// element always survives; spacing at the tail is not exactly even.
func downsample(axis []int64, budget int) []int64 {
	if len(axis) <= budget {
		return axis
	}
	stride := (len(axis) + budget - 1) / budget
	kept := make([]int64, 0, budget+1)
	for i := 0; i < len(axis); i += stride {
		kept = append(kept, axis[i])
	}
	return kept
}
