// Package ticks models the exchange's non-uniform price-increment ladder.
// Everything here is pure price arithmetic; no config, no state.
package ticks

import (
	"errors"
	"fmt"
	"math"
)

// MinPrice/MaxPrice bound the tradable price range. Anything outside is a
// domain error, never a silent clamp.
const (
	MinPrice = 1.01
	MaxPrice = 1000.0
)

var ErrPriceOutOfRange = errors.New("price outside tradable range")

// band is one row of the exchange ladder: prices in [Low, High) move in steps
// of Increment. Finer near 1.0, coarser above 100.
type band struct {
	Low       float64
	High      float64
	Increment float64
}

var bands = []band{
	{1.01, 2.0, 0.01},
	{2.0, 3.0, 0.02},
	{3.0, 4.0, 0.05},
	{4.0, 6.0, 0.1},
	{6.0, 10.0, 0.2},
	{10.0, 20.0, 0.5},
	{20.0, 30.0, 1.0},
	{30.0, 50.0, 2.0},
	{50.0, 100.0, 5.0},
	{100.0, 1000.0, 10.0},
}

// epsilon absorbs float noise when a price sits exactly on a band boundary.
const epsilon = 1e-9

// TickSize returns the ladder increment at the given price.
func TickSize(price float64) (float64, error) {
	if price < MinPrice-epsilon || price > MaxPrice+epsilon {
		return 0, fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrPriceOutOfRange, price, MinPrice, MaxPrice)
	}
	if price >= MaxPrice-epsilon {
		// MaxPrice itself belongs to the top band.
		return bands[len(bands)-1].Increment, nil
	}
	for _, b := range bands {
		if price >= b.Low-epsilon && price < b.High-epsilon {
			return b.Increment, nil
		}
	}
	// Unreachable given the range check above.
	return 0, fmt.Errorf("%w: %.2f", ErrPriceOutOfRange, price)
}

// TicksBetween counts discrete ladder steps from the lower price to the higher
// one. Increments change across bands, so this is a stepwise walk using the
// increment at each intermediate price, not a single division.
func TicksBetween(a, b float64) (int, error) {
	lo, hi := a, b
	if lo > hi {
		lo, hi = hi, lo
	}
	if _, err := TickSize(lo); err != nil {
		return 0, err
	}
	if _, err := TickSize(hi); err != nil {
		return 0, err
	}

	count := 0
	cur := lo
	for cur < hi-epsilon {
		inc, err := TickSize(cur)
		if err != nil {
			return 0, err
		}
		// Round each step to kill accumulated float drift (0.01 steps walk a
		// long way between 1.01 and 2.00).
		cur = math.Round((cur+inc)*1e6) / 1e6
		count++
	}
	return count, nil
}

// DistanceTicks is the simplified distance measure used for band centrality:
// |price - reference| divided by the increment at price, rounded to the
// nearest whole tick. Unlike TicksBetween it never walks the ladder, so the
// number stays explainable as "about N ticks away from the zone centre".
func DistanceTicks(price, reference float64) (int, error) {
	inc, err := TickSize(price)
	if err != nil {
		return 0, err
	}
	return int(math.Round(math.Abs(price-reference) / inc)), nil
}
