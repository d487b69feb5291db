// Backfills collection records for an explicit date range, ignoring the
// has-data skip the completeness check applies. Deduplication still holds, so
// re-running over an already-filled range is a no-op.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
	"github.com/aquastream/collections_backend/watersync"
)

func main() {
	from := flag.String("from", "", "Start date (YYYY-MM-DD), required")
	to := flag.String("to", "", "End date (YYYY-MM-DD), inclusive. Defaults to the start date.")
	deviceID := flag.String("device-id", "", "Optional: backfill only one device")
	flag.Parse()

	loc := utils.FleetLocation()
	start, err := utils.ParseDate(*from, loc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -from date: %v\n", err)
		os.Exit(1)
	}
	end := start
	if strings.TrimSpace(*to) != "" {
		end, err = utils.ParseDate(*to, loc)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -to date: %v\n", err)
			os.Exit(1)
		}
	}
	if end.Before(start) {
		fmt.Fprintln(os.Stderr, "-to date is before -from date")
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()

	api := watersync.NewClient()
	checker := watersync.NewChecker(api, watersync.NewStore(), watersync.DefaultConfig())

	devices, err := api.Devices(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to fetch device list: %v\n", err)
		os.Exit(1)
	}
	if strings.TrimSpace(*deviceID) != "" {
		var filtered []watersync.Device
		for _, dev := range devices {
			if dev.ExternalId() == strings.TrimSpace(*deviceID) {
				filtered = append(filtered, dev)
			}
		}
		if len(filtered) == 0 {
			fmt.Fprintf(os.Stderr, "device %s not found in device list\n", *deviceID)
			os.Exit(1)
		}
		devices = filtered
	}

	totalSaved := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(utils.DateLayout)
		for _, dev := range devices {
			saved, err := checker.FetchAndStore(ctx, dev, date)
			if err != nil {
				fmt.Fprintf(os.Stderr, "device %s date %s: %v\n", dev.ExternalId(), date, err)
				continue
			}
			if saved > 0 {
				fmt.Printf("device %s date %s: saved %d\n", dev.ExternalId(), date, saved)
			}
			totalSaved += saved
			time.Sleep(200 * time.Millisecond)
		}
	}

	fmt.Printf("backfill finished, saved %d records\n", totalSaved)
}
