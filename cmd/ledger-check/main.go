package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/wiredpart/parts_backend/config"
	"github.com/wiredpart/parts_backend/models"
)

// ledger-check scans the configured database for quantities and statuses the
// ledger operations should never produce, prints them, and exits 1 when any
// are found.
//
// Example:
//
//	DB_PATH=wired_part.db go run ./cmd/ledger-check/ -stale-days=3
//	go run ./cmd/ledger-check/ -record
func main() {
	staleDays := flag.Int("stale-days", 7, "Report pending transfers older than this many days (0 = skip)")
	record := flag.Bool("record", false, "Also store the findings in ledger_violations")
	flag.Parse()

	if *staleDays < 0 {
		fmt.Fprintln(os.Stderr, "--stale-days must not be negative")
		os.Exit(2)
	}

	settings := config.LoadSettings()
	logger := config.NewLogger(settings.LogLevel)
	config.ReportSettingsWarnings(logger, settings)

	db, err := config.ConnectDatabase(settings, logger, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect database: %v\n", err)
		os.Exit(2)
	}
	defer func() { _ = config.CloseDatabase(db) }()

	ctx := context.Background()
	store := models.NewStore(db, settings, nil, logger)
	violations, err := store.CheckLedger(ctx, time.Duration(*staleDays)*24*time.Hour)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ledger check failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) == 0 {
		fmt.Println("ledger OK")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHECK\tENTITY\tID\tDETAILS")
	for _, v := range violations {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", v.CheckType, v.EntityType, v.EntityId, v.Details)
	}
	_ = w.Flush()
	fmt.Printf("%d violation(s), correlation id %s\n", len(violations), violations[0].CorrelationId)

	if *record {
		if err := store.RecordLedgerViolations(ctx, violations); err != nil {
			fmt.Fprintf(os.Stderr, "record violations: %v\n", err)
			os.Exit(2)
		}
	}
	// the deferred close does not run past os.Exit
	_ = config.CloseDatabase(db)
	os.Exit(1)
}
