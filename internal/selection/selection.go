// Package selection picks at most one runner from an accepted market. Each
// runner passes through a fixed gate sequence; the first failure becomes its
// reason, and the surviving candidates are ordered by execution quality first
// (spread), band centrality second (ticks from the band midpoint), price last.
// "No selection" is a normal outcome, not an error.
package selection

import (
	"fmt"
	"sort"

	"market-scout/internal/config"
	"market-scout/internal/model"
	"market-scout/internal/structure"
	"market-scout/internal/ticks"
)

// Band classifies where an eligible runner's back price sits.
type Band string

const (
	BandPrimary   Band = "PRIMARY"
	BandSecondary Band = "SECONDARY"
	BandNone      Band = "NONE"
)

// Per-runner rejection reasons, in gate order.
const (
	ReasonMissingPrice    = "missing price"
	ReasonOutsideHardBand = "outside hard band"
	ReasonSpreadTooWide   = "spread too wide"
	ReasonRankExcluded    = "rank excluded"
	ReasonOutsideBands    = "outside configured bands"
)

// Row is the audit record for one considered runner. Rank is assigned from
// the price-ascending order before any exclusion and never changes.
// RankExcluded is annotated even when an earlier gate already rejected the
// runner, so the trail shows both facts.
type Row struct {
	SelectionID   int64    `json:"selection_id"`
	Name          string   `json:"name"`
	Rank          int      `json:"rank"`
	BestBack      *float64 `json:"best_back,omitempty"`
	SpreadTicks   *int     `json:"spread_ticks,omitempty"`
	Band          Band     `json:"band"`
	DistanceTicks *int     `json:"distance_ticks,omitempty"`
	Eligible      bool     `json:"eligible"`
	Reason        string   `json:"reason,omitempty"`
	RankExcluded  bool     `json:"rank_excluded"`
}

// Result is the selection outcome plus the full per-runner trail, ordered by
// rank. Selected is nil when no runner survived.
type Result struct {
	Selected *model.RunnerLadder `json:"selected,omitempty"`
	Rows     []Row               `json:"rows"`
	// RankRule is the display form of the resolved exclusion rule,
	// e.g. "Top 2 / Bottom 1 (dynamic)".
	RankRule string `json:"rank_rule"`
}

// Select runs the per-runner pipeline over an accepted market's active
// ladders. rank holds the already-resolved exclusion counts (static or
// dynamic, the pipeline neither knows nor cares which) and rankRule their
// display label.
func Select(active []model.RunnerLadder, metrics structure.Metrics, sel config.SelectionConfig, rank config.RankCounts, rankRule string) (Result, error) {
	sorted := model.SortByBestBack(active)
	n := len(sorted)

	res := Result{Rows: make([]Row, 0, n), RankRule: rankRule}
	type candidate struct {
		ladder   model.RunnerLadder
		band     Band
		spread   int
		distance int
		back     float64
	}
	var candidates []candidate

	for i, l := range sorted {
		row := Row{
			SelectionID: l.SelectionID,
			Name:        l.Name,
			Rank:        i + 1,
			BestBack:    l.BestBack,
			SpreadTicks: l.SpreadTicks,
			Band:        BandNone,
		}
		// Rank exclusion is annotated unconditionally; it must survive even
		// when an earlier gate already rejected the runner.
		row.RankExcluded = row.Rank <= rank.TopN || row.Rank > n-rank.BottomN

		switch {
		case l.BestBack == nil || l.BestLay == nil:
			row.Reason = ReasonMissingPrice

		case !sel.HardBand.Contains(*l.BestBack):
			row.Reason = ReasonOutsideHardBand

		case l.SpreadTicks != nil && *l.SpreadTicks > sel.MaxSpreadTicks:
			row.Reason = ReasonSpreadTooWide

		case row.RankExcluded:
			row.Reason = fmt.Sprintf("%s (%s)", ReasonRankExcluded, rankRule)

		default:
			band, midpoint := classify(*l.BestBack, metrics, sel)
			row.Band = band
			if band == BandNone {
				row.Reason = ReasonOutsideBands
				break
			}
			d, err := ticks.DistanceTicks(*l.BestBack, midpoint)
			if err != nil {
				return Result{}, err
			}
			row.DistanceTicks = &d
			row.Eligible = true
			candidates = append(candidates, candidate{
				ladder:   l,
				band:     band,
				spread:   *l.SpreadTicks,
				distance: d,
				back:     *l.BestBack,
			})
		}

		res.Rows = append(res.Rows, row)
	}

	// Primary always precedes secondary; within a band the sort key is
	// (spread, distance, price). A pure ordering device, never reused as a
	// score anywhere else.
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.band != b.band {
			return a.band == BandPrimary
		}
		if a.spread != b.spread {
			return a.spread < b.spread
		}
		if a.distance != b.distance {
			return a.distance < b.distance
		}
		return a.back < b.back
	})

	if len(candidates) > 0 {
		picked := candidates[0].ladder
		res.Selected = &picked
	}
	return res, nil
}

// classify assigns the band and returns its midpoint. The secondary band only
// admits a runner when the market's anchor concentration clears the
// configured floor.
func classify(back float64, metrics structure.Metrics, sel config.SelectionConfig) (Band, float64) {
	if sel.PrimaryBand.Contains(back) {
		return BandPrimary, sel.PrimaryBand.Midpoint()
	}
	if sel.SecondaryBand.Contains(back) && metrics.TopNImpliedSum >= sel.SecondaryBand.MinTopImplied {
		return BandSecondary, sel.SecondaryBand.Midpoint()
	}
	return BandNone, 0
}
