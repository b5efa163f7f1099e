package models

import (
	"time"

	"market-scout/internal/engine"
)

// InspectResponse wraps one finished inspection.
type InspectResponse struct {
	Status     string             `json:"status"`
	Inspection *engine.Inspection `json:"inspection"`
}

// DiscoverResponse lists the markets a discovery pass returned, soonest first.
type DiscoverResponse struct {
	Markets []DiscoveredMarket `json:"markets"`
}

type DiscoveredMarket struct {
	MarketID    string    `json:"market_id"`
	MarketName  string    `json:"market_name"`
	StartTime   time.Time `json:"start_time"`
	CountryCode string    `json:"country_code"`
	Venue       string    `json:"venue,omitempty"`
	RunnerCount int       `json:"runner_count"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
