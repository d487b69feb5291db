// One-off completeness check against the device API. Intended for cron or
// manual invocation; the long-running service schedules the same run daily.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/watersync"
)

func main() {
	daysBack := flag.Int("days-back", 0, "Optional: override the number of past days to check (default from COMPLETENESS_DAYS_TO_CHECK, 30)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	cfg := watersync.DefaultConfig()
	if *daysBack > 0 {
		cfg.DaysToCheck = *daysBack
	}

	checker := watersync.NewChecker(watersync.NewClient(), watersync.NewStore(), cfg)
	report := checker.Run(ctx, "cli")

	fmt.Println(report.Summary())
	if !report.Success {
		os.Exit(1)
	}
}
