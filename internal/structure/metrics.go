// Package structure computes pure shape descriptors for a market's price
// ladder: probability concentration at the front, flatness across the leading
// band, and the largest visible price jump. No thresholds are applied here;
// labeling a market good or bad is the rules package's job.
package structure

import "market-scout/internal/model"

// Metrics summarises the shape of one market's active, priced runners.
// Computed once per inspection; immutable.
type Metrics struct {
	// ActiveRunnerCount counts ACTIVE runners, priced or not.
	ActiveRunnerCount int `json:"active_runner_count"`
	// PricedRunnerCount counts active runners with a back price; only these
	// contribute to the shape descriptors below.
	PricedRunnerCount int `json:"priced_runner_count"`
	// TopNImpliedSum is the sum of 1/best_back over the shortest-priced
	// anchor.top_n runners.
	TopNImpliedSum float64 `json:"top_n_implied_sum"`
	// SoupBandRatio is max/min best back within the shortest soup.top_k
	// runners. A ratio near 1 means a flat, many-winner "soup" market.
	SoupBandRatio float64 `json:"soup_band_ratio"`
	// TierMaxAdjacentRatio is the largest price[i+1]/price[i] over adjacent
	// pairs within the first tier.top_region runners.
	TierMaxAdjacentRatio float64 `json:"tier_max_adjacent_ratio"`
}

// Dims fixes how many leading runners each descriptor looks at.
type Dims struct {
	AnchorTopN    int
	SoupTopK      int
	TierTopRegion int
}

// flatSentinel stands in for SoupBandRatio when fewer than two priced runners
// exist; it always clears any sane max_band_ratio cap, leaving the verdict to
// the field-size gate.
const flatSentinel = 999.0

// Compute derives the shape metrics from a market's active ladders. Fewer
// priced runners than a window asks for shrinks the window; it never fails.
func Compute(active []model.RunnerLadder, dims Dims) Metrics {
	m := Metrics{ActiveRunnerCount: len(active)}

	// Unpriced runners cannot anchor or tier; drop them before sorting.
	priced := make([]model.RunnerLadder, 0, len(active))
	for _, l := range active {
		if l.BestBack != nil && *l.BestBack > 0 {
			priced = append(priced, l)
		}
	}
	priced = model.SortByBestBack(priced)
	m.PricedRunnerCount = len(priced)

	for _, l := range head(priced, dims.AnchorTopN) {
		m.TopNImpliedSum += 1.0 / *l.BestBack
	}

	soup := head(priced, dims.SoupTopK)
	if len(soup) >= 2 {
		lo, hi := *soup[0].BestBack, *soup[0].BestBack
		for _, l := range soup[1:] {
			p := *l.BestBack
			if p < lo {
				lo = p
			}
			if p > hi {
				hi = p
			}
		}
		m.SoupBandRatio = hi / lo
	} else {
		m.SoupBandRatio = flatSentinel
	}

	tier := head(priced, dims.TierTopRegion)
	for i := 0; i+1 < len(tier); i++ {
		r := *tier[i+1].BestBack / *tier[i].BestBack
		if r > m.TierMaxAdjacentRatio {
			m.TierMaxAdjacentRatio = r
		}
	}

	return m
}

func head(ls []model.RunnerLadder, n int) []model.RunnerLadder {
	if n < 0 {
		n = 0
	}
	if n > len(ls) {
		n = len(ls)
	}
	return ls[:n]
}
