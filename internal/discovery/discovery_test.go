package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/exchange"
	"market-scout/internal/model"
)

type fakeGateway struct {
	types      []exchange.EventTypeResult
	typesErr   error
	rows       []model.MarketCatalogue
	gotFilter  exchange.MarketFilter
	gotMaxRows int
}

func (f *fakeGateway) ListEventTypes(ctx context.Context) ([]exchange.EventTypeResult, error) {
	return f.types, f.typesErr
}

func (f *fakeGateway) ListMarketCatalogue(ctx context.Context, filter exchange.MarketFilter, maxResults int) ([]model.MarketCatalogue, error) {
	f.gotFilter = filter
	f.gotMaxRows = maxResults
	return f.rows, nil
}

func eventType(id, name string) exchange.EventTypeResult {
	var t exchange.EventTypeResult
	t.EventType.ID = id
	t.EventType.Name = name
	return t
}

func cat(id string, start time.Time) model.MarketCatalogue {
	return model.MarketCatalogue{MarketID: id, MarketStartTime: start}
}

func TestNextSortsAndTakes(t *testing.T) {
	base := time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC)
	gw := &fakeGateway{
		types: []exchange.EventTypeResult{eventType("2", "Tennis"), eventType("7", "Horse Racing")},
		rows: []model.MarketCatalogue{
			cat("1.3", base.Add(3*time.Hour)),
			cat("1.1", base.Add(1*time.Hour)),
			cat("1.2", base.Add(2*time.Hour)),
			{MarketID: "", MarketStartTime: base}, // dropped: no id
		},
	}

	f := New(gw, zerolog.Nop())
	f.now = func() time.Time { return base }

	got, err := f.Next(context.Background(), Options{
		Countries: []string{"GB", "IE"},
		Horizon:   6 * time.Hour,
		Take:      2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("took %d markets, want 2", len(got))
	}
	if got[0].MarketID != "1.1" || got[1].MarketID != "1.2" {
		t.Errorf("order = %s, %s", got[0].MarketID, got[1].MarketID)
	}

	if gw.gotFilter.EventTypeIDs[0] != "7" {
		t.Errorf("event type = %v", gw.gotFilter.EventTypeIDs)
	}
	if len(gw.gotFilter.MarketTypeCodes) != 1 || gw.gotFilter.MarketTypeCodes[0] != "WIN" {
		t.Errorf("market types = %v", gw.gotFilter.MarketTypeCodes)
	}
	if gw.gotFilter.MarketStartTime == nil || !gw.gotFilter.MarketStartTime.To.Equal(base.Add(6*time.Hour)) {
		t.Errorf("time window = %+v", gw.gotFilter.MarketStartTime)
	}
}

func TestNextFallsBackToKnownSportID(t *testing.T) {
	gw := &fakeGateway{types: []exchange.EventTypeResult{eventType("2", "Tennis")}}
	f := New(gw, zerolog.Nop())

	if _, err := f.Next(context.Background(), Options{Take: 1, Horizon: time.Hour}); err != nil {
		t.Fatal(err)
	}
	if gw.gotFilter.EventTypeIDs[0] != "7" {
		t.Errorf("fallback id = %v", gw.gotFilter.EventTypeIDs)
	}
}

func TestNextRejectsZeroTake(t *testing.T) {
	f := New(&fakeGateway{}, zerolog.Nop())
	if _, err := f.Next(context.Background(), Options{Take: 0}); err == nil {
		t.Fatal("want error for take <= 0")
	}
}
