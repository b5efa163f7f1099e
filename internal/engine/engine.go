// Package engine orchestrates one market inspection end to end: normalize the
// snapshot into ladders, compute structure metrics, run the market gates, and
// only when the market is accepted run runner selection. The result carries
// the complete audit trail either way.
package engine

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/config"
	"market-scout/internal/ladder"
	"market-scout/internal/model"
	"market-scout/internal/rules"
	"market-scout/internal/selection"
	"market-scout/internal/structure"
)

// Inspection is the full serializable outcome of inspecting one market.
// Selection is nil when the market was rejected; a nil Selected inside a
// non-nil Selection means the market passed but no runner qualified.
type Inspection struct {
	MarketID        string    `json:"market_id"`
	MarketName      string    `json:"market_name"`
	MarketStartTime time.Time `json:"market_start_time"`
	CountryCode     string    `json:"country_code"`

	Ladders   []model.RunnerLadder `json:"ladders"`
	Metrics   structure.Metrics    `json:"metrics"`
	Rules     rules.Result         `json:"rules"`
	Selection *selection.Result    `json:"selection,omitempty"`
}

// Engine is the reusable pipeline: one loaded config, many inspections.
type Engine struct {
	cfg *config.Config
	log zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) *Engine {
	return &Engine{cfg: cfg, log: log}
}

// Inspect runs the decision pipeline over one catalogue + book pair. The only
// errors are malformed inputs (mismatched market ids, unrepresentable prices);
// rejection and no-selection are ordinary results.
func (e *Engine) Inspect(snap model.MarketSnapshot) (*Inspection, error) {
	cat, book := snap.Catalogue, snap.Book
	if cat.MarketID == "" {
		return nil, fmt.Errorf("snapshot missing market id")
	}
	if book.MarketID != "" && book.MarketID != cat.MarketID {
		return nil, fmt.Errorf("snapshot mismatch: catalogue %s vs book %s", cat.MarketID, book.MarketID)
	}

	ladders, err := ladder.Build(cat, book)
	if err != nil {
		return nil, fmt.Errorf("build ladders for %s: %w", cat.MarketID, err)
	}
	active := model.ActiveLadders(ladders)

	res := e.cfg.Resolve(cat.Event.CountryCode)
	metrics := structure.Compute(active, structure.Dims{
		AnchorTopN:    res.Gates.Anchor.TopN,
		SoupTopK:      res.Gates.Soup.TopK,
		TierTopRegion: res.Gates.Tier.TopRegion,
	})

	// Book totalMatched is the live figure; the catalogue copy can lag.
	matched := book.TotalMatched
	if matched == 0 {
		matched = cat.TotalMatched
	}

	verdict := rules.Evaluate(rules.Meta{
		MarketID:     cat.MarketID,
		CountryCode:  cat.Event.CountryCode,
		TotalMatched: matched,
	}, metrics, res)

	out := &Inspection{
		MarketID:        cat.MarketID,
		MarketName:      cat.MarketName,
		MarketStartTime: cat.MarketStartTime,
		CountryCode:     cat.Event.CountryCode,
		Ladders:         ladders,
		Metrics:         metrics,
		Rules:           verdict,
	}

	if !verdict.Accepted {
		e.log.Info().
			Str("market_id", cat.MarketID).
			Str("reason", verdict.Reason).
			Msg("market rejected")
		return out, nil
	}

	counts, label := res.Selection.RankExclusion.Resolve(metrics.ActiveRunnerCount)
	sel, err := selection.Select(active, metrics, res.Selection, counts, label)
	if err != nil {
		return nil, fmt.Errorf("select for %s: %w", cat.MarketID, err)
	}
	out.Selection = &sel

	evt := e.log.Info().Str("market_id", cat.MarketID).Str("rank_rule", label)
	if sel.Selected != nil {
		evt.Int64("selection_id", sel.Selected.SelectionID).Str("runner", sel.Selected.Name)
	}
	evt.Bool("selected", sel.Selected != nil).Msg("market accepted")
	return out, nil
}
