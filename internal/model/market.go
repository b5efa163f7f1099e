package model

import "time"

// RunnerStatus is the exchange's lifecycle state for a runner within a market.
// Only ACTIVE runners participate in metrics and selection; the others are kept
// for display.
type RunnerStatus string

const (
	RunnerActive  RunnerStatus = "ACTIVE"
	RunnerRemoved RunnerStatus = "REMOVED"
	RunnerWinner  RunnerStatus = "WINNER"
	RunnerLoser   RunnerStatus = "LOSER"
)

func (s RunnerStatus) IsActive() bool { return s == RunnerActive }

// MarketCatalogue matches the exchange's listMarketCatalogue row for one market.
//
// Example:
//
//	{
//	  "marketId": "1.254188322",
//	  "marketName": "2m Hcap Chs",
//	  "marketStartTime": "2026-02-19T14:30:00.000Z",
//	  "event": {"countryCode": "GB", ...},
//	  "runners": [ ... ]
//	}
type MarketCatalogue struct {
	MarketID        string            `json:"marketId"`
	MarketName      string            `json:"marketName"`
	MarketStartTime time.Time         `json:"marketStartTime"`
	TotalMatched    float64           `json:"totalMatched"`
	Event           Event             `json:"event"`
	Runners         []CatalogueRunner `json:"runners"`
}

// Event carries the venue-level metadata; CountryCode drives region mapping.
type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"countryCode"`
	Venue       string `json:"venue,omitempty"`
}

// CatalogueRunner is the identity side of a runner: names and cloth numbers
// come from the catalogue, prices from the book.
type CatalogueRunner struct {
	SelectionID  int64             `json:"selectionId"`
	RunnerName   string            `json:"runnerName"`
	SortPriority int               `json:"sortPriority"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// MarketBook matches the exchange's listMarketBook row: best available prices
// per runner plus market-level matched volume.
type MarketBook struct {
	MarketID     string       `json:"marketId"`
	Status       string       `json:"status"`
	TotalMatched float64      `json:"totalMatched"`
	Runners      []BookRunner `json:"runners"`
}

// BookRunner is the price side of a runner.
type BookRunner struct {
	SelectionID     int64          `json:"selectionId"`
	Status          RunnerStatus   `json:"status"`
	LastPriceTraded *float64       `json:"lastPriceTraded,omitempty"`
	Ex              ExchangePrices `json:"ex"`
}

// ExchangePrices holds the visible best-offer ladders. We only ever request
// depth 1, but the contract is a list either way.
type ExchangePrices struct {
	AvailableToBack []PriceSize `json:"availableToBack"`
	AvailableToLay  []PriceSize `json:"availableToLay"`
}

type PriceSize struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// BestBack returns the best available back price, or nil when the ladder side
// is empty. Absence is meaningful and must never be flattened to zero.
func (e ExchangePrices) BestBack() *float64 {
	if len(e.AvailableToBack) == 0 {
		return nil
	}
	p := e.AvailableToBack[0].Price
	return &p
}

// BestLay returns the best available lay price, or nil when the side is empty.
func (e ExchangePrices) BestLay() *float64 {
	if len(e.AvailableToLay) == 0 {
		return nil
	}
	p := e.AvailableToLay[0].Price
	return &p
}

// MarketSnapshot bundles the catalogue + book pair one inspection consumes.
// Both halves describe the same marketId; the engine validates that.
type MarketSnapshot struct {
	Catalogue MarketCatalogue `json:"catalogue"`
	Book      MarketBook      `json:"book"`
}
