// Package discovery finds the next WIN markets worth inspecting: horse racing
// markets in the configured countries starting within the horizon, soonest
// first. It only narrows the candidate list; the verdict on each market
// belongs to the engine.
package discovery

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/exchange"
	"market-scout/internal/model"
)

// horseRacingFallbackID is used only when the taxonomy lookup cannot find the
// sport by name.
const horseRacingFallbackID = "7"

// Gateway is the slice of the exchange client discovery needs; tests supply a
// fake.
type Gateway interface {
	ListEventTypes(ctx context.Context) ([]exchange.EventTypeResult, error)
	ListMarketCatalogue(ctx context.Context, filter exchange.MarketFilter, maxResults int) ([]model.MarketCatalogue, error)
}

// Options bound one discovery pass.
type Options struct {
	Countries []string
	Horizon   time.Duration
	Take      int
}

// Finder runs discovery passes against a gateway.
type Finder struct {
	gw  Gateway
	log zerolog.Logger
	now func() time.Time
}

func New(gw Gateway, log zerolog.Logger) *Finder {
	return &Finder{gw: gw, log: log, now: time.Now}
}

// Next returns up to opts.Take catalogue rows for WIN markets starting within
// the horizon, sorted by start time. Markets without an id or start time are
// dropped.
func (f *Finder) Next(ctx context.Context, opts Options) ([]model.MarketCatalogue, error) {
	if opts.Take <= 0 {
		return nil, fmt.Errorf("discovery take must be > 0")
	}

	eventTypeID, err := f.horseRacingID(ctx)
	if err != nil {
		return nil, err
	}

	now := f.now().UTC()
	filter := exchange.MarketFilter{
		EventTypeIDs:    []string{eventTypeID},
		MarketTypeCodes: []string{"WIN"},
		MarketCountries: opts.Countries,
		MarketStartTime: &exchange.TimeRange{From: now, To: now.Add(opts.Horizon)},
	}

	// Fetch more than asked for, then apply our own ordering and cut.
	rows, err := f.gw.ListMarketCatalogue(ctx, filter, 50)
	if err != nil {
		return nil, err
	}

	candidates := make([]model.MarketCatalogue, 0, len(rows))
	for _, r := range rows {
		if r.MarketID == "" || r.MarketStartTime.IsZero() {
			continue
		}
		candidates = append(candidates, r)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MarketStartTime.Before(candidates[j].MarketStartTime)
	})
	if len(candidates) > opts.Take {
		candidates = candidates[:opts.Take]
	}

	f.log.Info().
		Int("found", len(rows)).
		Int("taken", len(candidates)).
		Strs("countries", opts.Countries).
		Msg("discovery pass complete")
	return candidates, nil
}

// horseRacingID resolves the sport id by name from the taxonomy, falling back
// to the well-known id when the lookup fails to match.
func (f *Finder) horseRacingID(ctx context.Context) (string, error) {
	types, err := f.gw.ListEventTypes(ctx)
	if err != nil {
		return "", err
	}
	for _, t := range types {
		if t.EventType.Name == "Horse Racing" {
			return t.EventType.ID, nil
		}
	}
	f.log.Warn().Msg("horse racing not found in event types, using fallback id")
	return horseRacingFallbackID, nil
}
