package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"market-scout/internal/api/models"
	"market-scout/internal/config"
	"market-scout/internal/engine"
	"market-scout/internal/model"
)

func testEngine() *engine.Engine {
	cfg := &config.Config{
		Scope: config.ScopeConfig{
			Regions: map[string]config.RegionConfig{
				"UK": {Name: "United Kingdom", CountryCodes: []string{"GB"}},
			},
		},
		Market: config.MarketConfig{
			Runners:      config.RunnerRange{Min: 2, Max: 14},
			LiquidityMin: 10000,
		},
		StructureGates: config.StructureGatesConfig{
			Anchor: config.AnchorGate{TopN: 2, MinTopImplied: 0.5},
			Soup:   config.SoupGate{TopK: 3, MaxBandRatio: 3.0},
			Tier:   config.TierGate{TopRegion: 3, MinJumpRatio: 1.5},
		},
		Selection: config.SelectionConfig{
			HardBand:       config.Band{Min: 2.0, Max: 50.0},
			PrimaryBand:    config.Band{Min: 14.0, Max: 17.0},
			SecondaryBand:  config.SecondaryBand{Band: config.Band{Min: 10.0, Max: 22.0}, MinTopImplied: 0.55},
			MaxSpreadTicks: 3,
			RankExclusion:  config.RankExclusionConfig{Static: &config.RankCounts{}},
		},
	}
	return engine.New(cfg, zerolog.Nop())
}

func testRouter(h *InspectHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/v1/inspect", h.Inspect)
	return r
}

func inlineSnapshot() *model.MarketSnapshot {
	back := func(p float64) []model.PriceSize { return []model.PriceSize{{Price: p, Size: 100}} }
	return &model.MarketSnapshot{
		Catalogue: model.MarketCatalogue{
			MarketID: "1.234",
			Event:    model.Event{CountryCode: "GB"},
			Runners: []model.CatalogueRunner{
				{SelectionID: 1, RunnerName: "Alpha"},
				{SelectionID: 2, RunnerName: "Bravo"},
				{SelectionID: 3, RunnerName: "Charlie"},
			},
		},
		Book: model.MarketBook{
			MarketID:     "1.234",
			TotalMatched: 25000,
			Runners: []model.BookRunner{
				{SelectionID: 1, Status: model.RunnerActive, Ex: model.ExchangePrices{AvailableToBack: back(2.5), AvailableToLay: back(2.54)}},
				{SelectionID: 2, Status: model.RunnerActive, Ex: model.ExchangePrices{AvailableToBack: back(3.2), AvailableToLay: back(3.3)}},
				{SelectionID: 3, Status: model.RunnerActive, Ex: model.ExchangePrices{AvailableToBack: back(15.0), AvailableToLay: back(16.0)}},
			},
		},
	}
}

func TestInspectInlineSnapshot(t *testing.T) {
	router := testRouter(NewInspectHandler(testEngine(), nil))

	body, _ := json.Marshal(models.InspectRequest{Snapshot: inlineSnapshot()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp models.InspectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Inspection == nil || resp.Inspection.MarketID != "1.234" {
		t.Errorf("inspection = %+v", resp.Inspection)
	}
	if len(resp.Inspection.Rules.Gates) != 6 {
		t.Errorf("gate trail incomplete: %+v", resp.Inspection.Rules.Gates)
	}
}

func TestInspectRequiresInput(t *testing.T) {
	router := testRouter(NewInspectHandler(testEngine(), nil))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "INVALID_REQUEST" {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestInspectMarketIDWithoutGateway(t *testing.T) {
	router := testRouter(NewInspectHandler(testEngine(), nil))

	body := []byte(`{"market_id": "1.234"}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", w.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Code != "GATEWAY_UNAVAILABLE" {
		t.Errorf("code = %q", resp.Error.Code)
	}
}

func TestInspectRejectsBothInputs(t *testing.T) {
	router := testRouter(NewInspectHandler(testEngine(), nil))

	body, _ := json.Marshal(models.InspectRequest{MarketID: "1.234", Snapshot: inlineSnapshot()})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/inspect", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
