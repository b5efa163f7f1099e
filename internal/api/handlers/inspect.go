package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"market-scout/internal/api/models"
	"market-scout/internal/engine"
	"market-scout/internal/exchange"
	"market-scout/internal/model"
)

// SnapshotFetcher is the slice of the exchange client the inspect handler
// needs; nil means the server runs offline-only.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, marketID string) (model.MarketSnapshot, error)
}

// InspectHandler handles market inspection requests
type InspectHandler struct {
	engine  *engine.Engine
	fetcher SnapshotFetcher
}

func NewInspectHandler(e *engine.Engine, fetcher SnapshotFetcher) *InspectHandler {
	return &InspectHandler{engine: e, fetcher: fetcher}
}

// Inspect handles POST /api/v1/inspect
func (h *InspectHandler) Inspect(c *gin.Context) {
	var req models.InspectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: err.Error(),
			},
		})
		return
	}

	snap, ok := h.resolveSnapshot(c, req)
	if !ok {
		return
	}

	insp, err := h.engine.Inspect(snap)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_SNAPSHOT",
				Message: err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.InspectResponse{Status: "ok", Inspection: insp})
}

func (h *InspectHandler) resolveSnapshot(c *gin.Context, req models.InspectRequest) (model.MarketSnapshot, bool) {
	switch {
	case req.Snapshot != nil && req.MarketID != "":
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "provide either snapshot or market_id, not both",
			},
		})
		return model.MarketSnapshot{}, false

	case req.Snapshot != nil:
		return *req.Snapshot, true

	case req.MarketID != "":
		if h.fetcher == nil {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: models.ErrorDetail{
					Code:    "GATEWAY_UNAVAILABLE",
					Message: "server is running without exchange credentials; send an inline snapshot",
				},
			})
			return model.MarketSnapshot{}, false
		}
		snap, err := h.fetcher.FetchSnapshot(c.Request.Context(), req.MarketID)
		if err != nil {
			status := http.StatusBadGateway
			detail := models.ErrorDetail{Code: "FETCH_ERROR", Message: err.Error()}
			var rpcErr *exchange.RPCError
			if errors.As(err, &rpcErr) {
				detail.Code = rpcErr.Code
				detail.Details = map[string]interface{}{"request_uuid": rpcErr.RequestUUID}
			}
			c.JSON(status, models.ErrorResponse{Error: detail})
			return model.MarketSnapshot{}, false
		}
		return snap, true

	default:
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "INVALID_REQUEST",
				Message: "provide snapshot or market_id",
			},
		})
		return model.MarketSnapshot{}, false
	}
}
