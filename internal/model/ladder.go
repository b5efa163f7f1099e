package model

import "sort"

// RunnerLadder is one runner's normalized price snapshot: identity from the
// catalogue, best prices from the book, spread measured in exchange ticks.
// Built once per inspection and immutable afterwards.
//
// BestBack/BestLay are nil when the corresponding side has no money on it;
// SpreadTicks is nil unless both sides are present.
type RunnerLadder struct {
	SelectionID int64        `json:"selection_id"`
	Name        string       `json:"name"`
	ClothNumber *int         `json:"cloth_number,omitempty"`
	Status      RunnerStatus `json:"status"`
	BestBack    *float64     `json:"best_back,omitempty"`
	BestLay     *float64     `json:"best_lay,omitempty"`
	SpreadTicks *int         `json:"spread_ticks,omitempty"`
}

// SortByBestBack returns a copy ordered by ascending best back price (shortest
// price first); runners without a back price sort last, by selection id. Both
// metrics and selection rank off this ordering.
func SortByBestBack(ladders []RunnerLadder) []RunnerLadder {
	out := make([]RunnerLadder, len(ladders))
	copy(out, ladders)
	sortLadders(out)
	return out
}

// Priced reports whether both sides of the book are present.
func (r RunnerLadder) Priced() bool {
	return r.BestBack != nil && r.BestLay != nil
}

// ImpliedProb returns 1/best_back, or nil when there is no back price.
func (r RunnerLadder) ImpliedProb() *float64 {
	if r.BestBack == nil || *r.BestBack <= 0 {
		return nil
	}
	p := 1.0 / *r.BestBack
	return &p
}

func sortLadders(ls []RunnerLadder) {
	sort.SliceStable(ls, func(i, j int) bool {
		a, b := ls[i].BestBack, ls[j].BestBack
		switch {
		case a == nil && b == nil:
			return ls[i].SelectionID < ls[j].SelectionID
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// ActiveLadders filters to ACTIVE runners, preserving order. Withdrawn runners
// stay in the full slice for display; every metrics/selection consumer works
// on this subset instead.
func ActiveLadders(ladders []RunnerLadder) []RunnerLadder {
	out := make([]RunnerLadder, 0, len(ladders))
	for _, l := range ladders {
		if l.Status.IsActive() {
			out = append(out, l)
		}
	}
	return out
}
