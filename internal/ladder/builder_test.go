package ladder

import (
	"testing"

	"market-scout/internal/model"
)

func fptr(v float64) *float64 { return &v }

func bookRunner(id int64, status model.RunnerStatus, back, lay *float64) model.BookRunner {
	r := model.BookRunner{SelectionID: id, Status: status}
	if back != nil {
		r.Ex.AvailableToBack = []model.PriceSize{{Price: *back, Size: 100}}
	}
	if lay != nil {
		r.Ex.AvailableToLay = []model.PriceSize{{Price: *lay, Size: 100}}
	}
	return r
}

func TestBuildMergesCatalogueAndBook(t *testing.T) {
	cat := model.MarketCatalogue{
		MarketID: "1.1",
		Runners: []model.CatalogueRunner{
			{SelectionID: 101, RunnerName: "Alpha", Metadata: map[string]string{"CLOTH_NUMBER": "4"}},
			{SelectionID: 102, RunnerName: "Beta", SortPriority: 2},
		},
	}
	book := model.MarketBook{
		MarketID: "1.1",
		Runners: []model.BookRunner{
			bookRunner(101, model.RunnerActive, fptr(3.2), fptr(3.35)),
			bookRunner(102, model.RunnerActive, fptr(2.5), fptr(2.54)),
		},
	}

	rows, err := Build(cat, book)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	// Book order preserved; sorting is the consumer's job.
	if rows[0].SelectionID != 101 || rows[1].SelectionID != 102 {
		t.Errorf("book order not preserved: %d, %d", rows[0].SelectionID, rows[1].SelectionID)
	}
	if rows[0].Name != "Alpha" {
		t.Errorf("name not merged: %q", rows[0].Name)
	}
	if rows[0].ClothNumber == nil || *rows[0].ClothNumber != 4 {
		t.Errorf("cloth number not parsed from metadata: %v", rows[0].ClothNumber)
	}
	if rows[1].ClothNumber == nil || *rows[1].ClothNumber != 2 {
		t.Errorf("cloth number fallback to sort priority failed: %v", rows[1].ClothNumber)
	}

	// 3.2 -> 3.35 is three 0.05 steps.
	if rows[0].SpreadTicks == nil || *rows[0].SpreadTicks != 3 {
		t.Errorf("spread ticks = %v, want 3", rows[0].SpreadTicks)
	}
	// 2.5 -> 2.54 is two 0.02 steps.
	if rows[1].SpreadTicks == nil || *rows[1].SpreadTicks != 2 {
		t.Errorf("spread ticks = %v, want 2", rows[1].SpreadTicks)
	}
}

func TestBuildMissingSidesStayAbsent(t *testing.T) {
	cat := model.MarketCatalogue{Runners: []model.CatalogueRunner{{SelectionID: 201, RunnerName: "Gamma"}}}
	book := model.MarketBook{Runners: []model.BookRunner{
		bookRunner(201, model.RunnerActive, fptr(6.0), nil),
	}}

	rows, err := Build(cat, book)
	if err != nil {
		t.Fatal(err)
	}
	r := rows[0]
	if r.BestBack == nil || *r.BestBack != 6.0 {
		t.Errorf("best back = %v, want 6.0", r.BestBack)
	}
	if r.BestLay != nil {
		t.Errorf("best lay should be absent, got %v", *r.BestLay)
	}
	if r.SpreadTicks != nil {
		t.Errorf("spread should be absent on a one-sided book, got %v", *r.SpreadTicks)
	}
}

func TestBuildKeepsWithdrawnRunners(t *testing.T) {
	cat := model.MarketCatalogue{Runners: []model.CatalogueRunner{
		{SelectionID: 301, RunnerName: "Delta"},
		{SelectionID: 302, RunnerName: "Scratched"},
	}}
	book := model.MarketBook{Runners: []model.BookRunner{
		bookRunner(301, model.RunnerActive, fptr(4.5), fptr(4.7)),
		bookRunner(302, model.RunnerRemoved, nil, nil),
	}}

	rows, err := Build(cat, book)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("withdrawn runner dropped by builder: got %d rows", len(rows))
	}
	active := model.ActiveLadders(rows)
	if len(active) != 1 || active[0].SelectionID != 301 {
		t.Errorf("active filter wrong: %+v", active)
	}
}

func TestSortByBestBack(t *testing.T) {
	rows := []model.RunnerLadder{
		{SelectionID: 3, BestBack: nil},
		{SelectionID: 1, BestBack: fptr(15.0)},
		{SelectionID: 2, BestBack: fptr(2.5)},
	}
	sorted := model.SortByBestBack(rows)
	if sorted[0].SelectionID != 2 || sorted[1].SelectionID != 1 || sorted[2].SelectionID != 3 {
		t.Errorf("sort order wrong: %d, %d, %d", sorted[0].SelectionID, sorted[1].SelectionID, sorted[2].SelectionID)
	}
	// Input untouched.
	if rows[0].SelectionID != 3 {
		t.Errorf("SortByBestBack mutated its input")
	}
}
