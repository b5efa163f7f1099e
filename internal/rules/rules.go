// Package rules applies the market-level gates: region mapping, field size,
// liquidity, then the three structure gates. Every gate is evaluated and
// recorded with no short-circuiting; the headline reason is derived afterwards
// by scanning for the first failure, so the audit trail is always complete.
package rules

import (
	"fmt"

	"market-scout/internal/config"
	"market-scout/internal/structure"
)

// GateStatus is the recorded outcome of one gate.
type GateStatus string

const (
	GatePass GateStatus = "PASS"
	GateFail GateStatus = "FAIL"
	// GateSkipped marks gates that could not be evaluated because region
	// resolution failed; they are recorded as not-applicable, not as failures.
	GateSkipped GateStatus = "SKIPPED"
)

// Gate names, in evaluation order.
const (
	GateRegion    = "region"
	GateFieldSize = "field_size"
	GateLiquidity = "liquidity"
	GateAnchor    = "anchor"
	GateSoup      = "soup"
	GateTier      = "tier"
)

// GateResult is one row of the audit trail: which gate, what it measured,
// and a human-readable detail line.
type GateResult struct {
	Name   string     `json:"name"`
	Status GateStatus `json:"status"`
	Value  float64    `json:"value"`
	Detail string     `json:"detail"`
}

// Result is the market verdict plus the full ordered gate trail. A rejection
// is a first-class outcome, never an error.
type Result struct {
	MarketID string `json:"market_id"`
	Accepted bool   `json:"accepted"`
	// Region is the resolved region code, empty when unmapped.
	Region     string `json:"region,omitempty"`
	RegionName string `json:"region_name,omitempty"`
	// Reason is the first failing gate's detail; empty on acceptance.
	Reason string       `json:"reason,omitempty"`
	Gates  []GateResult `json:"gates"`
}

// Meta is the market-level metadata the gates need beyond the ladders.
type Meta struct {
	MarketID     string
	CountryCode  string
	TotalMatched float64
}

// Evaluate runs the six gates in fixed order against already-resolved
// thresholds. When the country maps to no region and out-of-scope markets are
// rejected, the remaining gates are recorded as SKIPPED: their thresholds
// have no defined value.
func Evaluate(meta Meta, metrics structure.Metrics, res config.Resolved) Result {
	out := Result{
		MarketID:   meta.MarketID,
		Region:     res.Region,
		RegionName: res.RegionName,
	}

	regionOK := res.RegionMapped || res.OutOfScopeAllowed
	switch {
	case res.RegionMapped:
		out.Gates = append(out.Gates, GateResult{
			Name:   GateRegion,
			Status: GatePass,
			Detail: fmt.Sprintf("%s -> %s (%s)", meta.CountryCode, res.Region, res.RegionName),
		})
	case res.OutOfScopeAllowed:
		out.Gates = append(out.Gates, GateResult{
			Name:   GateRegion,
			Status: GatePass,
			Detail: fmt.Sprintf("%q out of scope; using global defaults", meta.CountryCode),
		})
	default:
		out.Gates = append(out.Gates, GateResult{
			Name:   GateRegion,
			Status: GateFail,
			Detail: fmt.Sprintf("unmapped region: country %q not in any configured region", meta.CountryCode),
		})
	}

	if !regionOK {
		// Thresholds below are region-dependent and unresolved; record the
		// rest of the trail as not-applicable.
		for _, name := range []string{GateFieldSize, GateLiquidity, GateAnchor, GateSoup, GateTier} {
			out.Gates = append(out.Gates, GateResult{
				Name:   name,
				Status: GateSkipped,
				Detail: "skipped (no region resolved)",
			})
		}
		out.finish()
		return out
	}

	count := metrics.ActiveRunnerCount
	out.Gates = append(out.Gates, GateResult{
		Name:   GateFieldSize,
		Status: status(count >= res.Runners.Min && count <= res.Runners.Max),
		Value:  float64(count),
		Detail: fmt.Sprintf("%d runners in [%d, %d]", count, res.Runners.Min, res.Runners.Max),
	})

	out.Gates = append(out.Gates, GateResult{
		Name:   GateLiquidity,
		Status: status(meta.TotalMatched >= res.LiquidityMin),
		Value:  meta.TotalMatched,
		Detail: fmt.Sprintf("matched %.0f >= %.0f", meta.TotalMatched, res.LiquidityMin),
	})

	anchor := res.Gates.Anchor
	out.Gates = append(out.Gates, GateResult{
		Name:   GateAnchor,
		Status: status(metrics.TopNImpliedSum >= anchor.MinTopImplied),
		Value:  metrics.TopNImpliedSum,
		Detail: fmt.Sprintf("top%d implied %.3f >= %.3f", anchor.TopN, metrics.TopNImpliedSum, anchor.MinTopImplied),
	})

	// Soup is inverted: a band ratio at or below the cap means the front of
	// the market is flat (too many plausible winners), so the gate passes
	// only when the ratio exceeds it.
	soup := res.Gates.Soup
	out.Gates = append(out.Gates, GateResult{
		Name:   GateSoup,
		Status: status(metrics.SoupBandRatio > soup.MaxBandRatio),
		Value:  metrics.SoupBandRatio,
		Detail: fmt.Sprintf("top%d band ratio %.3f > %.3f", soup.TopK, metrics.SoupBandRatio, soup.MaxBandRatio),
	})

	tier := res.Gates.Tier
	out.Gates = append(out.Gates, GateResult{
		Name:   GateTier,
		Status: status(metrics.TierMaxAdjacentRatio >= tier.MinJumpRatio),
		Value:  metrics.TierMaxAdjacentRatio,
		Detail: fmt.Sprintf("max adjacent jump in top%d %.3f >= %.3f", tier.TopRegion, metrics.TierMaxAdjacentRatio, tier.MinJumpRatio),
	})

	out.finish()
	return out
}

// finish derives the verdict and headline reason from the recorded trail.
func (r *Result) finish() {
	r.Accepted = true
	for _, g := range r.Gates {
		if g.Status != GatePass {
			r.Accepted = false
		}
		if g.Status == GateFail && r.Reason == "" {
			r.Reason = g.Detail
		}
	}
}

func status(ok bool) GateStatus {
	if ok {
		return GatePass
	}
	return GateFail
}
