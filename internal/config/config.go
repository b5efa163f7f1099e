// Package config loads and validates filters.yaml and resolves it, once per
// market, into the flat threshold values the decision pipeline consumes. Gates
// never look at raw config; they only ever see resolved numbers.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"market-scout/internal/ticks"
)

// ErrConfig marks any validation failure. Bad config is fatal, never defaulted.
var ErrConfig = errors.New("invalid config")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfig, fmt.Sprintf(format, args...))
}

// Config is the on-disk configuration shape (YAML).
type Config struct {
	Version        string               `yaml:"version"`
	Scope          ScopeConfig          `yaml:"scope"`
	Market         MarketConfig         `yaml:"market"`
	StructureGates StructureGatesConfig `yaml:"structure_gates"`
	Selection      SelectionConfig      `yaml:"selection"`
}

// ScopeConfig maps event country codes onto regions. RejectOutOfScope controls
// what happens to a country no region claims: reject the market outright
// (default) or let it through on the global defaults.
type ScopeConfig struct {
	Regions          map[string]RegionConfig `yaml:"regions"`
	RejectOutOfScope *bool                   `yaml:"reject_out_of_scope"`
}

type RegionConfig struct {
	Name         string       `yaml:"name"`
	CountryCodes []string     `yaml:"country_codes"`
	Runners      *RunnerRange `yaml:"runners"`       // override, else market.runners
	LiquidityMin *float64     `yaml:"liquidity_min"` // override, else market.liquidity_min
}

type RunnerRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// MarketConfig holds the global defaults the region overrides fall back to.
type MarketConfig struct {
	Runners      RunnerRange `yaml:"runners"`
	LiquidityMin float64     `yaml:"liquidity_min"`
}

// StructureGatesConfig parameterises the three shape gates.
type StructureGatesConfig struct {
	Anchor AnchorGate `yaml:"anchor"`
	Soup   SoupGate   `yaml:"soup"`
	Tier   TierGate   `yaml:"tier"`
}

type AnchorGate struct {
	TopN          int     `yaml:"top_n"`
	MinTopImplied float64 `yaml:"min_top_implied"`
}

type SoupGate struct {
	TopK         int     `yaml:"top_k"`
	MaxBandRatio float64 `yaml:"max_band_ratio"`
}

type TierGate struct {
	TopRegion    int     `yaml:"top_region"`
	MinJumpRatio float64 `yaml:"min_jump_ratio"`
}

// Band is an inclusive price range.
type Band struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

func (b Band) Contains(p float64) bool { return p >= b.Min && p <= b.Max }

// Midpoint is the band's centre, the reference for distance measurement.
func (b Band) Midpoint() float64 { return (b.Min + b.Max) / 2 }

// SelectionConfig parameterises runner eligibility and ordering.
type SelectionConfig struct {
	HardBand       Band                `yaml:"hard_band"`
	PrimaryBand    Band                `yaml:"primary_band"`
	SecondaryBand  SecondaryBand       `yaml:"secondary_band"`
	MaxSpreadTicks int                 `yaml:"max_spread_ticks"`
	RankExclusion  RankExclusionConfig `yaml:"rank_exclusion"`
}

// SecondaryBand is conditionally allowed: it only admits runners when the
// market's anchor concentration clears MinTopImplied.
type SecondaryBand struct {
	Band          `yaml:",inline"`
	MinTopImplied float64 `yaml:"min_top_implied"`
}

// RankExclusionConfig is a tagged choice: fixed counts, or a table keyed on
// active runner count. Exactly one side must be set. The mapping from field
// size to counts is config data; there is no built-in formula.
type RankExclusionConfig struct {
	Static  *RankCounts       `yaml:"static"`
	Dynamic []DynamicRankRule `yaml:"dynamic"`
}

type RankCounts struct {
	TopN    int `yaml:"top_n"`
	BottomN int `yaml:"bottom_n"`
}

// DynamicRankRule applies when the active count is at least MinRunners; the
// highest matching row wins.
type DynamicRankRule struct {
	MinRunners int `yaml:"min_runners"`
	TopN       int `yaml:"top_n"`
	BottomN    int `yaml:"bottom_n"`
}

// Load reads, parses and validates a filters file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, invalid("parse %s: %v", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return invalid("config is nil")
	}
	if len(c.Scope.Regions) == 0 {
		return invalid("scope.regions must not be empty")
	}
	for code, r := range c.Scope.Regions {
		if len(r.CountryCodes) == 0 {
			return invalid("scope.regions.%s.country_codes must not be empty", code)
		}
		if r.Runners != nil {
			if err := validateRunnerRange(*r.Runners, "scope.regions."+code+".runners"); err != nil {
				return err
			}
		}
		if r.LiquidityMin != nil && *r.LiquidityMin < 0 {
			return invalid("scope.regions.%s.liquidity_min must be >= 0", code)
		}
	}
	if err := validateRunnerRange(c.Market.Runners, "market.runners"); err != nil {
		return err
	}
	if c.Market.LiquidityMin < 0 {
		return invalid("market.liquidity_min must be >= 0")
	}

	g := c.StructureGates
	if g.Anchor.TopN <= 0 {
		return invalid("structure_gates.anchor.top_n must be > 0")
	}
	if g.Anchor.MinTopImplied <= 0 || g.Anchor.MinTopImplied > 1.5 {
		return invalid("structure_gates.anchor.min_top_implied must be in (0, 1.5]")
	}
	if g.Soup.TopK < 2 {
		return invalid("structure_gates.soup.top_k must be >= 2")
	}
	if g.Soup.MaxBandRatio < 1.0 {
		return invalid("structure_gates.soup.max_band_ratio must be >= 1.0")
	}
	if g.Tier.TopRegion < 2 {
		return invalid("structure_gates.tier.top_region must be >= 2")
	}
	if g.Tier.MinJumpRatio < 1.0 {
		return invalid("structure_gates.tier.min_jump_ratio must be >= 1.0")
	}

	s := c.Selection
	if err := validateBand(s.HardBand, "selection.hard_band"); err != nil {
		return err
	}
	if err := validateBand(s.PrimaryBand, "selection.primary_band"); err != nil {
		return err
	}
	if err := validateBand(s.SecondaryBand.Band, "selection.secondary_band"); err != nil {
		return err
	}
	if !bandWithin(s.PrimaryBand, s.HardBand) {
		return invalid("selection.primary_band must lie within selection.hard_band")
	}
	if !bandWithin(s.SecondaryBand.Band, s.HardBand) {
		return invalid("selection.secondary_band must lie within selection.hard_band")
	}
	if s.SecondaryBand.MinTopImplied < 0 {
		return invalid("selection.secondary_band.min_top_implied must be >= 0")
	}
	if s.MaxSpreadTicks < 0 {
		return invalid("selection.max_spread_ticks must be >= 0")
	}
	return c.Selection.RankExclusion.validate()
}

func validateRunnerRange(r RunnerRange, ctx string) error {
	if r.Min <= 0 || r.Max < r.Min {
		return invalid("%s must satisfy 0 < min <= max (got %d..%d)", ctx, r.Min, r.Max)
	}
	return nil
}

func validateBand(b Band, ctx string) error {
	if b.Min >= b.Max {
		return invalid("%s must satisfy min < max (got %v..%v)", ctx, b.Min, b.Max)
	}
	if b.Min < ticks.MinPrice || b.Max > ticks.MaxPrice {
		return invalid("%s must lie within the tradable range [%v, %v]", ctx, ticks.MinPrice, ticks.MaxPrice)
	}
	return nil
}

func bandWithin(inner, outer Band) bool {
	return inner.Min >= outer.Min && inner.Max <= outer.Max
}

func (r RankExclusionConfig) validate() error {
	switch {
	case r.Static == nil && len(r.Dynamic) == 0:
		return invalid("selection.rank_exclusion needs either static or dynamic")
	case r.Static != nil && len(r.Dynamic) > 0:
		return invalid("selection.rank_exclusion must be static or dynamic, not both")
	case r.Static != nil:
		if r.Static.TopN < 0 || r.Static.BottomN < 0 {
			return invalid("selection.rank_exclusion.static counts must be >= 0")
		}
	default:
		prev := -1
		for i, row := range r.Dynamic {
			if row.MinRunners <= prev {
				return invalid("selection.rank_exclusion.dynamic rows must have strictly increasing min_runners (row %d)", i)
			}
			if row.TopN < 0 || row.BottomN < 0 {
				return invalid("selection.rank_exclusion.dynamic counts must be >= 0 (row %d)", i)
			}
			prev = row.MinRunners
		}
	}
	return nil
}

// rejectOutOfScope defaults to true when the YAML omits it.
func (s ScopeConfig) rejectOutOfScope() bool {
	if s.RejectOutOfScope == nil {
		return true
	}
	return *s.RejectOutOfScope
}

// Resolved is the immutable, region-resolved view the gates run on. Resolution
// happens here, once per market, never inside gate logic.
type Resolved struct {
	Region            string `json:"region"` // region code, "" when unmapped
	RegionName        string `json:"region_name,omitempty"`
	RegionMapped      bool   `json:"region_mapped"`
	OutOfScopeAllowed bool   `json:"out_of_scope_allowed"`

	Runners      RunnerRange `json:"runners"`
	LiquidityMin float64     `json:"liquidity_min"`

	Gates     StructureGatesConfig `json:"-"`
	Selection SelectionConfig      `json:"-"`
}

// Resolve maps a country code to its region and flattens every threshold to
// its effective value (region override else global default).
func (c *Config) Resolve(countryCode string) Resolved {
	res := Resolved{
		OutOfScopeAllowed: !c.Scope.rejectOutOfScope(),
		Runners:           c.Market.Runners,
		LiquidityMin:      c.Market.LiquidityMin,
		Gates:             c.StructureGates,
		Selection:         c.Selection,
	}

	cc := strings.ToUpper(strings.TrimSpace(countryCode))
	if cc == "" {
		return res
	}
	// Deterministic lookup order in case region tables ever overlap.
	codes := make([]string, 0, len(c.Scope.Regions))
	for code := range c.Scope.Regions {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		region := c.Scope.Regions[code]
		for _, rc := range region.CountryCodes {
			if strings.EqualFold(rc, cc) {
				res.Region = code
				res.RegionName = region.Name
				res.RegionMapped = true
				if region.Runners != nil {
					res.Runners = *region.Runners
				}
				if region.LiquidityMin != nil {
					res.LiquidityMin = *region.LiquidityMin
				}
				return res
			}
		}
	}
	return res
}

// CountryCodes returns every country code any region claims, sorted and
// deduplicated; discovery uses it as the market-country filter.
func (c *Config) CountryCodes() []string {
	seen := map[string]bool{}
	var out []string
	for _, region := range c.Scope.Regions {
		for _, cc := range region.CountryCodes {
			cc = strings.ToUpper(strings.TrimSpace(cc))
			if cc != "" && !seen[cc] {
				seen[cc] = true
				out = append(out, cc)
			}
		}
	}
	sort.Strings(out)
	return out
}

// Resolve turns the configured rule into concrete counts for the given active
// runner count, plus a display label; the selection pipeline only ever sees
// the resolved integers.
func (r RankExclusionConfig) Resolve(activeCount int) (RankCounts, string) {
	if r.Static != nil {
		c := *r.Static
		return c, fmt.Sprintf("Top %d / Bottom %d (static)", c.TopN, c.BottomN)
	}
	var counts RankCounts
	for _, row := range r.Dynamic {
		if activeCount >= row.MinRunners {
			counts = RankCounts{TopN: row.TopN, BottomN: row.BottomN}
		}
	}
	return counts, fmt.Sprintf("Top %d / Bottom %d (dynamic)", counts.TopN, counts.BottomN)
}
