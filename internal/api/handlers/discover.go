package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"market-scout/internal/api/models"
	"market-scout/internal/discovery"
	"market-scout/internal/model"
)

const (
	defaultHorizonHours = 6.0
	defaultTake         = 10
)

// Finder is the slice of the discovery service the handler needs.
type Finder interface {
	Next(ctx context.Context, opts discovery.Options) ([]model.MarketCatalogue, error)
}

// DiscoverHandler handles market discovery requests
type DiscoverHandler struct {
	finder    Finder
	countries []string
}

func NewDiscoverHandler(finder Finder, countries []string) *DiscoverHandler {
	return &DiscoverHandler{finder: finder, countries: countries}
}

// Discover handles POST /api/v1/discover
func (h *DiscoverHandler) Discover(c *gin.Context) {
	if h.finder == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "GATEWAY_UNAVAILABLE",
				Message: "server is running without exchange credentials",
			},
		})
		return
	}

	var req models.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}
	if req.HorizonHours <= 0 {
		req.HorizonHours = defaultHorizonHours
	}
	if req.Take <= 0 {
		req.Take = defaultTake
	}

	markets, err := h.finder.Next(c.Request.Context(), discovery.Options{
		Countries: h.countries,
		Horizon:   time.Duration(req.HorizonHours * float64(time.Hour)),
		Take:      req.Take,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "DISCOVERY_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	resp := models.DiscoverResponse{Markets: make([]models.DiscoveredMarket, 0, len(markets))}
	for _, m := range markets {
		resp.Markets = append(resp.Markets, models.DiscoveredMarket{
			MarketID:    m.MarketID,
			MarketName:  m.MarketName,
			StartTime:   m.MarketStartTime,
			CountryCode: m.Event.CountryCode,
			Venue:       m.Event.Venue,
			RunnerCount: len(m.Runners),
		})
	}
	c.JSON(http.StatusOK, resp)
}
