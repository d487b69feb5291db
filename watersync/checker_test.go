package watersync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
)

type memStore struct {
	mu       sync.Mutex
	existing map[string]bool
	inserted []models.Collection
	runs     int
	finished map[int]map[string]interface{}
}

func newMemStore() *memStore {
	return &memStore{
		existing: map[string]bool{},
		finished: map[int]map[string]interface{}{},
	}
}

func (s *memStore) Ping(ctx context.Context) error { return nil }

func (s *memStore) HasAnyDataForDate(ctx context.Context, dayStart time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existing[dayStart.Format(utils.DateLayout)] {
		return true, nil
	}
	dayEnd := dayStart.Add(24 * time.Hour)
	for _, rec := range s.inserted {
		if !rec.Date.Before(dayStart) && rec.Date.Before(dayEnd) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) InsertCollectionIfNew(ctx context.Context, rec *models.Collection) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.inserted {
		if existing.DeviceId == rec.DeviceId &&
			existing.Date.Equal(rec.Date) &&
			existing.SumBanknotes.Equal(rec.SumBanknotes) &&
			existing.SumCoins.Equal(rec.SumCoins) {
			return false, nil
		}
	}
	s.inserted = append(s.inserted, *rec)
	return true, nil
}

func (s *memStore) CreateRun(ctx context.Context, triggeredBy string, correlationId string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	return s.runs, nil
}

func (s *memStore) FinishRun(ctx context.Context, id int, updates map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished[id] = updates
	return nil
}

type memAPI struct {
	mu           sync.Mutex
	devices      []Device
	devicesErr   error
	entries      map[string][]CollectionEntry // keyed by deviceId
	collectCalls map[string]int               // keyed by date
	gate         chan struct{}
}

func (a *memAPI) Devices(ctx context.Context) ([]Device, error) {
	if a.gate != nil {
		<-a.gate
	}
	return a.devices, a.devicesErr
}

func (a *memAPI) DeviceCollections(ctx context.Context, deviceId string, ds string, de string) ([]CollectionEntry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.collectCalls == nil {
		a.collectCalls = map[string]int{}
	}
	a.collectCalls[ds]++
	return a.entries[deviceId], nil
}

func testConfig(days int) Config {
	return Config{
		DaysToCheck: days,
		MaxRetries:  1,
		BatchSize:   2,
	}
}

func yesterday() string {
	return time.Now().In(utils.FleetLocation()).AddDate(0, 0, -1).Format(utils.DateLayout)
}

func TestCheckerRunFillsMissingDates(t *testing.T) {
	store := newMemStore()
	api := &memAPI{
		devices: []Device{{ID: "1"}, {ID: "2"}, {ID: "3"}},
		entries: map[string][]CollectionEntry{
			"1": {{Date: yesterday() + " 10:30:00", Banknotes: "100.50", Coins: "2.25", Descr: "Оксана - "}},
			"2": {{Date: yesterday() + " 11:00:00", Banknotes: "0", Coins: "0"}},
		},
	}

	checker := NewChecker(api, store, testConfig(2))
	report := checker.Run(context.Background(), "test")

	if !report.Success {
		t.Fatalf("run failed: %s", report.Error)
	}
	if report.DatesChecked != 2 {
		t.Errorf("DatesChecked = %d, want 2", report.DatesChecked)
	}
	if report.DatesProcessed != 2 {
		t.Errorf("DatesProcessed = %d, want 2", report.DatesProcessed)
	}

	// Device 2's zero-total entry must not be persisted; device 3 has none.
	if report.TotalSaved != 1 {
		t.Errorf("TotalSaved = %d, want 1", report.TotalSaved)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}

	rec := store.inserted[0]
	if rec.DeviceId != "1" {
		t.Errorf("DeviceId = %s, want 1", rec.DeviceId)
	}
	if rec.CollectorNik == nil || *rec.CollectorNik != "Оксана" {
		t.Errorf("CollectorNik = %v, want Оксана", rec.CollectorNik)
	}
	if rec.TotalSum.String() != "102.75" {
		t.Errorf("TotalSum = %s, want 102.75", rec.TotalSum.String())
	}
}

func TestCheckerRunSkipsDatesWithData(t *testing.T) {
	store := newMemStore()
	store.existing[yesterday()] = true
	api := &memAPI{devices: []Device{{ID: "1"}}}

	checker := NewChecker(api, store, testConfig(1))
	report := checker.Run(context.Background(), "test")

	if !report.Success {
		t.Fatalf("run failed: %s", report.Error)
	}
	if report.DatesSkipped != 1 {
		t.Errorf("DatesSkipped = %d, want 1", report.DatesSkipped)
	}
	if report.DatesProcessed != 0 {
		t.Errorf("DatesProcessed = %d, want 0", report.DatesProcessed)
	}
	if api.collectCalls[yesterday()] != 0 {
		t.Errorf("API called %d times for a date that already has data", api.collectCalls[yesterday()])
	}
}

func TestCheckerRunIsIdempotent(t *testing.T) {
	store := newMemStore()
	api := &memAPI{
		devices: []Device{{ID: "1"}},
		entries: map[string][]CollectionEntry{
			"1": {{Date: yesterday() + " 10:30:00", Banknotes: "50", Coins: "1"}},
		},
	}

	checker := NewChecker(api, store, testConfig(1))
	first := checker.Run(context.Background(), "test")
	second := checker.Run(context.Background(), "test")

	if first.TotalSaved != 1 {
		t.Errorf("first TotalSaved = %d, want 1", first.TotalSaved)
	}
	if second.TotalSaved != 0 {
		t.Errorf("second TotalSaved = %d, want 0", second.TotalSaved)
	}
	if second.DatesSkipped != 1 {
		t.Errorf("second DatesSkipped = %d, want 1 (date now has data)", second.DatesSkipped)
	}
	if len(store.inserted) != 1 {
		t.Errorf("inserted = %d, want 1 (no duplicates)", len(store.inserted))
	}
}

func TestCheckerRunDeviceListFailureIsFatal(t *testing.T) {
	store := newMemStore()
	api := &memAPI{devicesErr: errors.New("api down")}

	checker := NewChecker(api, store, testConfig(1))
	report := checker.Run(context.Background(), "test")

	if report.Success {
		t.Fatal("expected failed run when device list cannot be fetched")
	}
	if report.Error != "api down" {
		t.Errorf("Error = %q, want api down", report.Error)
	}
	if got := store.finished[report.RunId]["status"]; got != models.CompletenessRunStatusFailed {
		t.Errorf("run status = %v, want failed", got)
	}
}

func TestCheckerRejectsOverlappingRuns(t *testing.T) {
	store := newMemStore()
	api := &memAPI{devices: []Device{{ID: "1"}}, gate: make(chan struct{})}

	checker := NewChecker(api, store, testConfig(1))

	done := make(chan RunReport, 1)
	go func() { done <- checker.Run(context.Background(), "first") }()

	// Wait until the first run is inside the API call.
	for i := 0; i < 100 && !checker.InFlight(); i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if !checker.InFlight() {
		t.Fatal("first run never started")
	}

	second := checker.Run(context.Background(), "second")
	if second.Success {
		t.Error("expected the overlapping run to be refused")
	}
	if second.Error != utils.ErrorRunInProgress.Error() {
		t.Errorf("Error = %q, want %q", second.Error, utils.ErrorRunInProgress.Error())
	}

	close(api.gate)
	first := <-done
	if !first.Success {
		t.Errorf("first run failed: %s", first.Error)
	}
}

func TestCheckerDropsEntriesWithUnparseableTimestamps(t *testing.T) {
	store := newMemStore()
	api := &memAPI{
		devices: []Device{{ID: "1"}},
		entries: map[string][]CollectionEntry{
			"1": {{Date: "not-a-date", Banknotes: "50", Coins: "1"}},
		},
	}

	checker := NewChecker(api, store, testConfig(1))
	first := checker.Run(context.Background(), "test")
	second := checker.Run(context.Background(), "test")

	// A fallback timestamp would make every run insert a fresh copy of the
	// same entry. The entry must be dropped instead.
	if first.TotalSaved != 0 {
		t.Errorf("first TotalSaved = %d, want 0", first.TotalSaved)
	}
	if second.TotalSaved != 0 {
		t.Errorf("second TotalSaved = %d, want 0", second.TotalSaved)
	}
	if len(store.inserted) != 0 {
		t.Errorf("inserted = %d, want 0", len(store.inserted))
	}
}

func TestCheckerTimestampsStoredInUTC(t *testing.T) {
	store := newMemStore()
	api := &memAPI{
		devices: []Device{{ID: "1"}},
		entries: map[string][]CollectionEntry{
			"1": {{Date: yesterday() + " 12:00:00", Banknotes: "10", Coins: "0"}},
		},
	}

	checker := NewChecker(api, store, testConfig(1))
	report := checker.Run(context.Background(), "test")
	if !report.Success {
		t.Fatalf("run failed: %s", report.Error)
	}
	if len(store.inserted) != 1 {
		t.Fatalf("inserted = %d, want 1", len(store.inserted))
	}
	if loc := store.inserted[0].Date.Location(); loc != time.UTC {
		t.Errorf("stored timestamp location = %v, want UTC", loc)
	}
}
