package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"market-scout/internal/config"
	"market-scout/internal/discovery"
	"market-scout/internal/engine"
	"market-scout/internal/exchange"
	"market-scout/internal/model"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "inspect":
		cmdInspect(os.Args[2:])
	case "discover":
		cmdDiscover(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli inspect --config config/filters.yaml --snapshot snapshot.json")
	fmt.Println("  cli inspect --config config/filters.yaml --market 1.234567890")
	fmt.Println("  cli discover --config config/filters.yaml --horizon 6 --take 10")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - inspect prints the gate trail and, for accepted markets, the runner table")
	fmt.Println("  - --market and discover need BETFAIR_* credentials in the environment")
}

func logger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func cmdInspect(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	cfgPath := fs.String("config", "config/filters.yaml", "Path to YAML filters config")
	snapPath := fs.String("snapshot", "", "Path to an offline snapshot JSON (catalogue + book)")
	marketID := fs.String("market", "", "Market id to fetch live from the exchange")
	_ = fs.Parse(args)

	if (*snapPath == "") == (*marketID == "") {
		fmt.Println("exactly one of --snapshot or --market is required")
		os.Exit(2)
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	log := logger()

	var snap model.MarketSnapshot
	if *snapPath != "" {
		snap, err = exchange.LoadSnapshot(*snapPath)
	} else {
		var client *exchange.Client
		client, err = liveClient(log)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()
			snap, err = client.FetchSnapshot(ctx, *marketID)
		}
	}
	if err != nil {
		fatal(err)
	}

	insp, err := engine.New(cfg, log).Inspect(snap)
	if err != nil {
		fatal(err)
	}
	render(insp)
}

func cmdDiscover(args []string) {
	fs := flag.NewFlagSet("discover", flag.ExitOnError)
	cfgPath := fs.String("config", "config/filters.yaml", "Path to YAML filters config")
	horizon := fs.Float64("horizon", 6, "Hours ahead to search")
	take := fs.Int("take", 10, "Number of markets to return")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fatal(err)
	}
	log := logger()
	client, err := liveClient(log)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	markets, err := discovery.New(client, log).Next(ctx, discovery.Options{
		Countries: cfg.CountryCodes(),
		Horizon:   time.Duration(*horizon * float64(time.Hour)),
		Take:      *take,
	})
	if err != nil {
		fatal(err)
	}

	fmt.Printf("%-14s %-20s %-8s %-6s %s\n", "MARKET", "START", "COUNTRY", "FIELD", "NAME")
	for _, m := range markets {
		fmt.Printf("%-14s %-20s %-8s %-6d %s\n",
			m.MarketID,
			m.MarketStartTime.Format("2006-01-02 15:04"),
			m.Event.CountryCode,
			len(m.Runners),
			m.MarketName,
		)
	}
}

func liveClient(log zerolog.Logger) (*exchange.Client, error) {
	creds, err := exchange.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}
	return exchange.NewClient(creds, log)
}

func render(insp *engine.Inspection) {
	fmt.Printf("Market %s  %s  (%s, starts %s)\n",
		insp.MarketID, insp.MarketName, insp.CountryCode,
		insp.MarketStartTime.Format("2006-01-02 15:04"))
	fmt.Println()

	fmt.Printf("%-12s %-8s %10s  %s\n", "GATE", "STATUS", "VALUE", "DETAIL")
	for _, g := range insp.Rules.Gates {
		fmt.Printf("%-12s %-8s %10.3f  %s\n", g.Name, g.Status, g.Value, g.Detail)
	}
	fmt.Println()

	if !insp.Rules.Accepted {
		fmt.Printf("REJECTED: %s\n", insp.Rules.Reason)
		return
	}
	fmt.Println("ACCEPTED")

	sel := insp.Selection
	if sel == nil {
		return
	}
	fmt.Printf("Rank exclusion: %s\n\n", sel.RankRule)
	fmt.Printf("%-4s %-20s %8s %7s %-10s %5s  %s\n", "RANK", "RUNNER", "BACK", "SPREAD", "BAND", "DIST", "REASON")
	for _, row := range sel.Rows {
		fmt.Printf("%-4d %-20s %8s %7s %-10s %5s  %s\n",
			row.Rank, row.Name,
			fmtFloat(row.BestBack), fmtInt(row.SpreadTicks),
			row.Band, fmtInt(row.DistanceTicks), row.Reason)
	}
	fmt.Println()
	if sel.Selected != nil {
		fmt.Printf("SELECTED: %s (selection %d)\n", sel.Selected.Name, sel.Selected.SelectionID)
	} else {
		fmt.Println("NO SELECTION: no runner qualified")
	}
}

func fmtFloat(p *float64) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *p)
}

func fmtInt(n *int) string {
	if n == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *n)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
