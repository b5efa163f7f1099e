package exchange

import (
	"encoding/json"
	"fmt"
	"os"

	"market-scout/internal/model"
)

// LoadSnapshot reads a catalogue + book pair from a JSON file, the offline
// substitute for FetchSnapshot. The file holds a single object with
// "catalogue" and "book" keys in exchange wire format.
func LoadSnapshot(path string) (model.MarketSnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.MarketSnapshot{}, err
	}
	var snap model.MarketSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return model.MarketSnapshot{}, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	if snap.Catalogue.MarketID == "" {
		return model.MarketSnapshot{}, fmt.Errorf("snapshot %s missing catalogue.marketId", path)
	}
	return snap, nil
}
