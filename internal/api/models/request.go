package models

import "market-scout/internal/model"

// InspectRequest asks for one market inspection. Exactly one input mode:
// an inline snapshot, or a market id to fetch live through the gateway.
type InspectRequest struct {
	MarketID string                `json:"market_id,omitempty"`
	Snapshot *model.MarketSnapshot `json:"snapshot,omitempty"`
}

// DiscoverRequest bounds one discovery pass.
type DiscoverRequest struct {
	HorizonHours float64 `json:"horizon_hours"`
	Take         int     `json:"take"`
}
