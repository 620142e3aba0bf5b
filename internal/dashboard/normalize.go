package dashboard

import "hindsight-api/pkg/market"

// Normalize rescales each series so the point nearest the reference timestamp
// reads as index 100. Series whose reference value is missing or not positive
// are dropped from the output entirely: an unnormalizable series must not be
// silently shown in raw units under a normalized chart.
func Normalize(seriesByAsset map[string][]market.PricePoint, referenceTS int64) map[string][]market.PricePoint {
	normalized := make(map[string][]market.PricePoint, len(seriesByAsset))
	for assetID, series := range seriesByAsset {
		ref, ok := nearestValue(series, referenceTS)
		if !ok || ref <= 0 {
			continue
		}
		scaled := make([]market.PricePoint, len(series))
		for i, point := range series {
			scaled[i] = market.PricePoint{
				Timestamp: point.Timestamp,
				Value:     point.Value / ref * 100,
			}
		}
		normalized[assetID] = scaled
	}
	return normalized
}

// nearestValue finds the value whose timestamp has minimum absolute distance
// from ts. Linear scan; ties are broken by the first point encountered.
func nearestValue(series []market.PricePoint, ts int64) (float64, bool) {
	if len(series) == 0 {
		return 0, false
	}
	best := series[0]
	bestDist := absDelta(series[0].Timestamp, ts)
	for _, point := range series[1:] {
		if d := absDelta(point.Timestamp, ts); d < bestDist {
			best = point
			bestDist = d
		}
	}
	return best.Value, true
}

func absDelta(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
