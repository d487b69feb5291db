package models_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/shopspring/decimal"
)

// Integration coverage for the dedup and day-window queries against a real
// MySQL. Run with: INTEGRATION_TESTS=1 go test ./models -run Collection -v
func requireIntegrationDB(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION_TESTS") == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run database tests")
	}
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		t.Fatal("database not initialized")
	}
	models.MigrateTable()
}

func testDeviceId() string {
	return fmt.Sprintf("it-%d", time.Now().UnixNano())
}

func TestCollectionDedupTuple(t *testing.T) {
	requireIntegrationDB(t)
	ctx := context.Background()

	deviceId := testDeviceId()
	ts := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	rec := models.Collection{
		DeviceId:     deviceId,
		Date:         ts,
		SumBanknotes: decimal.RequireFromString("100.50"),
		SumCoins:     decimal.RequireFromString("2.25"),
		TotalSum:     decimal.RequireFromString("102.75"),
	}

	inserted, err := models.InsertCollectionIfNew(ctx, &rec)
	if err != nil {
		t.Fatalf("first insert: %v", err)
	}
	if !inserted {
		t.Fatal("first insert reported duplicate")
	}

	dup := rec
	dup.ID = 0
	inserted, err = models.InsertCollectionIfNew(ctx, &dup)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if inserted {
		t.Error("identical tuple inserted twice")
	}

	// Same device and date with a different amount is a distinct record.
	other := rec
	other.ID = 0
	other.SumBanknotes = decimal.RequireFromString("50")
	inserted, err = models.InsertCollectionIfNew(ctx, &other)
	if err != nil {
		t.Fatalf("third insert: %v", err)
	}
	if !inserted {
		t.Error("distinct tuple rejected as duplicate")
	}
}

func TestHasAnyDataForDateWindow(t *testing.T) {
	requireIntegrationDB(t)
	ctx := context.Background()

	dayStart := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	rec := models.Collection{
		DeviceId:     testDeviceId(),
		Date:         dayStart.Add(23*time.Hour + 59*time.Minute),
		SumBanknotes: decimal.RequireFromString("10"),
	}
	if _, err := models.InsertCollectionIfNew(ctx, &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	has, err := models.HasAnyDataForDate(ctx, dayStart)
	if err != nil {
		t.Fatalf("HasAnyDataForDate: %v", err)
	}
	if !has {
		t.Error("record at 23:59 not found inside its calendar day")
	}

	has, err = models.HasAnyDataForDate(ctx, dayStart.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("HasAnyDataForDate next day: %v", err)
	}
	if has {
		t.Error("record leaked into the next calendar day")
	}
}
