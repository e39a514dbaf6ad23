// Command legacy-backfill reclassifies bookings stuck in the retired "failed"
// status as payment_failed when failed-payment evidence exists. Run with
// -dry-run first to see what a live run would change.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"cleanops_backend/internal/bookings"
	"cleanops_backend/internal/events"
	"cleanops_backend/platform/config"
	"cleanops_backend/platform/db"
	"cleanops_backend/platform/logger"
	"cleanops_backend/platform/validator"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report what would change without writing")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting legacy failed-status backfill", "dryRun", *dryRun)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)
	bookingsModule := bookings.NewModule(pool, eventBus, nil, validator.New(), cfg, log)

	report, err := bookingsModule.Service().BackfillLegacyFailed(ctx, *dryRun)
	if err != nil {
		log.Error("backfill failed", "error", err)
		panic("backfill failed: " + err.Error())
	}

	mode := "live"
	if report.DryRun {
		mode = "dry-run"
	}
	fmt.Printf("backfill (%s): scanned=%d converted=%d missing_evidence=%d failures=%d\n",
		mode, report.Scanned, report.Converted, report.MissingEvidence, len(report.Failures))
	for _, f := range report.Failures {
		fmt.Printf("  failed: booking=%s error=%s\n", f.BookingID, f.Error)
	}

	if len(report.Failures) > 0 {
		os.Exit(1)
	}
}
