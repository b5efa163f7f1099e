// Package ladder turns raw catalogue + book snapshots into normalized
// RunnerLadder rows for one market.
package ladder

import (
	"strconv"

	"market-scout/internal/model"
	"market-scout/internal/ticks"
)

// Build merges catalogue identity with book prices into one RunnerLadder per
// book runner, preserving the book's runner order. Price-ascending ordering
// and rank assignment belong to the consumers (model.SortByBestBack).
//
// Withdrawn runners are built like any other so callers can display them; the
// active-only filtering happens where metrics and selection consume the rows.
func Build(cat model.MarketCatalogue, book model.MarketBook) ([]model.RunnerLadder, error) {
	names := make(map[int64]string, len(cat.Runners))
	numbers := make(map[int64]*int, len(cat.Runners))
	for _, r := range cat.Runners {
		names[r.SelectionID] = r.RunnerName
		numbers[r.SelectionID] = clothNumber(r)
	}

	out := make([]model.RunnerLadder, 0, len(book.Runners))
	for _, rb := range book.Runners {
		row := model.RunnerLadder{
			SelectionID: rb.SelectionID,
			Name:        names[rb.SelectionID],
			ClothNumber: numbers[rb.SelectionID],
			Status:      rb.Status,
			BestBack:    rb.Ex.BestBack(),
			BestLay:     rb.Ex.BestLay(),
		}
		if row.Name == "" {
			row.Name = "sel:" + strconv.FormatInt(rb.SelectionID, 10)
		}

		// Spread only exists when both sides are priced; a one-sided book is
		// not a zero-tick spread.
		if row.BestBack != nil && row.BestLay != nil {
			n, err := ticks.TicksBetween(*row.BestBack, *row.BestLay)
			if err != nil {
				return nil, err
			}
			row.SpreadTicks = &n
		}

		out = append(out, row)
	}
	return out, nil
}

// clothNumber digs the saddle-cloth number out of catalogue metadata, falling
// back to sort priority when the metadata is absent.
func clothNumber(r model.CatalogueRunner) *int {
	for _, key := range []string{"CLOTH_NUMBER", "CLOTH_NUMBER_ALPHA"} {
		if v, ok := r.Metadata[key]; ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return &n
			}
		}
	}
	if r.SortPriority > 0 {
		n := r.SortPriority
		return &n
	}
	return nil
}
