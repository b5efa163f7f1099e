package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/config"
	"market-scout/internal/engine"
	"market-scout/internal/exchange"
	"market-scout/internal/model"
)

// Demo:
// - Build (or load) a market snapshot
// - Run the full inspection pipeline against a canned config
// - Dump the inspection as JSON to show how the pieces fit together
func main() {
	snapPath := flag.String("snapshot", "", "Optional path to a snapshot JSON (defaults to a canned market)")
	cfgPath := flag.String("config", "", "Optional path to a YAML filters config")
	flag.Parse()

	cfg := demoConfig()
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}

	snap := demoSnapshot()
	if *snapPath != "" {
		loaded, err := exchange.LoadSnapshot(*snapPath)
		if err != nil {
			panic(err)
		}
		snap = loaded
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	insp, err := engine.New(cfg, log).Inspect(snap)
	if err != nil {
		panic(err)
	}

	out, err := json.MarshalIndent(insp, "", "  ")
	if err != nil {
		panic(err)
	}
	fmt.Println(string(out))
}

func demoConfig() *config.Config {
	return &config.Config{
		Version: "1.0",
		Scope: config.ScopeConfig{
			Regions: map[string]config.RegionConfig{
				"UK": {Name: "United Kingdom", CountryCodes: []string{"GB"}},
				"IE": {Name: "Ireland", CountryCodes: []string{"IE"}},
			},
		},
		Market: config.MarketConfig{
			Runners:      config.RunnerRange{Min: 4, Max: 14},
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
			RankExclusion:  config.RankExclusionConfig{Static: &config.RankCounts{TopN: 1, BottomN: 0}},
		},
	}
}

func demoSnapshot() model.MarketSnapshot {
	back := func(p float64) []model.PriceSize { return []model.PriceSize{{Price: p, Size: 250}} }
	run := func(id int64, b, l float64) model.BookRunner {
		return model.BookRunner{
			SelectionID: id,
			Status:      model.RunnerActive,
			Ex:          model.ExchangePrices{AvailableToBack: back(b), AvailableToLay: back(l)},
		}
	}
	return model.MarketSnapshot{
		Catalogue: model.MarketCatalogue{
			MarketID:        "1.254188322",
			MarketName:      "2m Hcap Chs",
			MarketStartTime: time.Now().Add(45 * time.Minute).UTC(),
			Event:           model.Event{Name: "Kempton 19th Feb", CountryCode: "GB", Venue: "Kempton"},
			Runners: []model.CatalogueRunner{
				{SelectionID: 101, RunnerName: "Stormy Harbour", SortPriority: 1},
				{SelectionID: 102, RunnerName: "Midnight Ledger", SortPriority: 2},
				{SelectionID: 103, RunnerName: "Copper Beech", SortPriority: 3},
				{SelectionID: 104, RunnerName: "Galway Drift", SortPriority: 4},
				{SelectionID: 105, RunnerName: "Last Orders", SortPriority: 5},
			},
		},
		Book: model.MarketBook{
			MarketID:     "1.254188322",
			Status:       "OPEN",
			TotalMatched: 25000,
			Runners: []model.BookRunner{
				run(101, 2.5, 2.54),
				run(102, 3.2, 3.3),
				run(103, 15.0, 16.0),
				run(104, 16.5, 17.0),
				run(105, 40.0, 44.0),
			},
		},
	}
}
