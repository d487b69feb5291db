package watersync

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aquastream/collections_backend/appctx"
	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Config holds the tunables of the completeness check.
type Config struct {
	DaysToCheck         int
	MaxRetries          int
	RetryDelay          time.Duration
	BatchSize           int
	DelayBetweenDevices time.Duration
	DelayBetweenBatches time.Duration
}

// DefaultConfig reads the checker tunables from the environment.
func DefaultConfig() Config {
	return Config{
		DaysToCheck:         utils.IntFromEnv("COMPLETENESS_DAYS_TO_CHECK", 30),
		MaxRetries:          utils.IntFromEnv("COMPLETENESS_MAX_RETRIES", 3),
		RetryDelay:          utils.DurationFromEnvMs("COMPLETENESS_RETRY_DELAY_MS", 2000*time.Millisecond),
		BatchSize:           utils.IntFromEnv("COMPLETENESS_BATCH_SIZE", 5),
		DelayBetweenDevices: utils.DurationFromEnvMs("COMPLETENESS_DEVICE_DELAY_MS", 500*time.Millisecond),
		DelayBetweenBatches: utils.DurationFromEnvMs("COMPLETENESS_BATCH_DELAY_MS", 1000*time.Millisecond),
	}
}

const runLockKey = "collections:completeness-check"

// Checker reconciles the remote device API against the local store across a
// rolling window of calendar dates.
type Checker struct {
	api      DeviceAPI
	store    Store
	cfg      Config
	loc      *time.Location
	inFlight atomic.Bool
}

func NewChecker(api DeviceAPI, store Store, cfg Config) *Checker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	return &Checker{
		api:   api,
		store: store,
		cfg:   cfg,
		loc:   utils.FleetLocation(),
	}
}

// InFlight reports whether a run is currently executing in this process.
func (c *Checker) InFlight() bool {
	return c.inFlight.Load()
}

// Run executes one full completeness check. Per-device and per-date failures
// degrade to skips; only storage connectivity and device-list failures are
// fatal and produce Success=false. Overlapping runs are refused, both within
// the process and across replicas via a redis lock.
func (c *Checker) Run(ctx context.Context, triggeredBy string) RunReport {
	logger := config.GetLogger()

	if !c.inFlight.CompareAndSwap(false, true) {
		return RunReport{Success: false, Error: utils.ErrorRunInProgress.Error()}
	}
	defer c.inFlight.Store(false)

	release, err := c.acquireRunLock(ctx)
	if err != nil {
		return RunReport{Success: false, Error: utils.ErrorRunInProgress.Error()}
	}
	defer release()

	correlationId, ok := appctx.GetString(ctx, appctx.ContextKeyCorrelationId)
	if !ok || correlationId == "" {
		correlationId = uuid.NewString()
		ctx = appctx.Set(ctx, appctx.ContextKeyCorrelationId, correlationId)
	}

	startTime := time.Now()
	logger.WithFields(logrus.Fields{
		"module":         "watersync",
		"correlation_id": correlationId,
		"triggered_by":   triggeredBy,
	}).Info("starting database completeness check")

	if err := c.store.Ping(ctx); err != nil {
		config.LogError(logger, "watersync", "Run", "storage unavailable", nil, err)
		return RunReport{Success: false, Error: err.Error(), Duration: time.Since(startTime)}
	}

	runId, err := c.store.CreateRun(ctx, triggeredBy, correlationId)
	if err != nil {
		config.LogError(logger, "watersync", "Run", "create run record", nil, err)
		return RunReport{Success: false, Error: err.Error(), Duration: time.Since(startTime)}
	}

	devices, err := c.api.Devices(ctx)
	if err != nil {
		config.LogError(logger, "watersync", "Run", "device list", nil, err)
		report := RunReport{Success: false, Error: err.Error(), Duration: time.Since(startTime), RunId: runId}
		c.finishRun(ctx, runId, report)
		return report
	}
	logger.WithFields(logrus.Fields{"module": "watersync", "devices": len(devices)}).Info("fetched device list")

	dates := DatesToCheck(time.Now().In(c.loc), c.cfg.DaysToCheck)

	report := RunReport{Success: true, RunId: runId, DatesChecked: len(dates)}
	for _, date := range dates {
		if ctx.Err() != nil {
			logger.WithFields(logrus.Fields{"module": "watersync"}).Warn("run cancelled; stopping before next date")
			break
		}

		result := c.processDate(ctx, date, devices)
		report.Results = append(report.Results, result)

		switch result.Status {
		case DateStatusCompleted:
			report.DatesProcessed++
			report.TotalSaved += result.TotalSaved
		case DateStatusSkipped:
			report.DatesSkipped++
		}
	}

	report.Duration = time.Since(startTime)
	c.finishRun(ctx, runId, report)

	logger.WithFields(logrus.Fields{
		"module":          "watersync",
		"correlation_id":  correlationId,
		"dates_checked":   report.DatesChecked,
		"dates_processed": report.DatesProcessed,
		"dates_skipped":   report.DatesSkipped,
		"total_saved":     report.TotalSaved,
		"duration":        report.Duration.String(),
	}).Info("completeness check finished")

	return report
}

// processDate decides the fate of one calendar date: skip when the store
// already has data for it, otherwise fetch-and-fill from every device.
func (c *Checker) processDate(ctx context.Context, date string, devices []Device) DateResult {
	logger := config.GetLogger()

	dayStart, err := utils.ParseDate(date, c.loc)
	if err != nil {
		config.LogError(logger, "watersync", "processDate", "bad date", date, err)
		return DateResult{Date: date, Status: DateStatusCompleted}
	}

	hasData, err := c.store.HasAnyDataForDate(ctx, dayStart)
	if err != nil {
		config.LogError(logger, "watersync", "processDate", "existence check", date, err)
		hasData = false
	}
	if hasData {
		logger.WithFields(logrus.Fields{"module": "watersync", "date": date}).Info("date already has collection data, skipping")
		return DateResult{Date: date, Status: DateStatusSkipped, Reason: "has_data"}
	}

	logger.WithFields(logrus.Fields{"module": "watersync", "date": date}).Info("date has no data, fetching from API")

	result := DateResult{Date: date, Status: DateStatusCompleted}
	var mu sync.Mutex

	for i := 0; i < len(devices); i += c.cfg.BatchSize {
		end := i + c.cfg.BatchSize
		if end > len(devices) {
			end = len(devices)
		}
		batch := devices[i:end]

		var wg sync.WaitGroup
		for _, dev := range batch {
			wg.Add(1)
			go func(dev Device) {
				defer wg.Done()

				saved, err := c.FetchAndStore(ctx, dev, date)
				if err != nil {
					logger.WithFields(logrus.Fields{
						"module": "watersync",
						"device": dev.ExternalId(),
						"date":   date,
					}).Warnf("error fetching data: %v", err)
					return
				}

				mu.Lock()
				result.ProcessedDevices++
				result.TotalSaved += saved
				if saved > 0 {
					result.DevicesWithData++
				}
				mu.Unlock()

				if saved > 0 {
					logger.WithFields(logrus.Fields{
						"module": "watersync",
						"device": dev.ExternalId(),
						"date":   date,
						"saved":  saved,
					}).Info("saved entries")
				}

				c.sleep(ctx, c.cfg.DelayBetweenDevices)
			}(dev)
		}
		wg.Wait()

		if end < len(devices) {
			c.sleep(ctx, c.cfg.DelayBetweenBatches)
		}
	}

	logger.WithFields(logrus.Fields{
		"module":            "watersync",
		"date":              date,
		"processed_devices": result.ProcessedDevices,
		"devices_with_data": result.DevicesWithData,
		"total_saved":       result.TotalSaved,
	}).Info("date completed")

	return result
}

// FetchAndStore fetches one device's entries for one date, sanitizes them
// and persists whatever is new. The saved count excludes zero-total entries
// and duplicates. Also used by the backfill job for explicit ranges.
func (c *Checker) FetchAndStore(ctx context.Context, dev Device, date string) (int, error) {
	entries, err := FetchWithRetry(ctx, c.api, dev.ExternalId(), date, c.cfg.MaxRetries, c.cfg.RetryDelay)
	if err != nil {
		return 0, err
	}
	return c.saveEntries(ctx, dev, entries), nil
}

func (c *Checker) saveEntries(ctx context.Context, dev Device, entries []CollectionEntry) int {
	logger := config.GetLogger()
	saved := 0

	for _, entry := range entries {
		sanitized := SanitizeEntry(entry)
		if sanitized.IsZero() {
			continue
		}

		collector := ResolveCollector(entry.Descr)
		timestamp, ok := c.parseEntryTimestamp(entry.Date)
		if !ok {
			logger.WithFields(logrus.Fields{
				"module": "watersync",
				"device": dev.ExternalId(),
				"date":   entry.Date,
			}).Warn("unparseable entry timestamp, dropping entry")
			continue
		}

		rec := models.Collection{
			DeviceId:     dev.ExternalId(),
			Date:         timestamp,
			SumBanknotes: sanitized.Banknotes,
			SumCoins:     sanitized.Coins,
			TotalSum:     sanitized.TotalSum,
			Note:         entry.Descr,
			Machine:      dev.DisplayName(),
			CollectorId:  collector.Id,
			CollectorNik: collector.Nik,
		}

		inserted, err := c.store.InsertCollectionIfNew(ctx, &rec)
		if err != nil {
			config.LogError(logger, "watersync", "saveEntries", "insert failed", dev.ExternalId(), err)
			continue
		}
		if inserted {
			saved++
		}
	}

	return saved
}

// parseEntryTimestamp reads an upstream timestamp as fleet civil time and
// converts it to UTC through the timezone database; a fixed -3h offset would
// mislabel records around DST transitions. Returns false when no layout
// matches: the timestamp is part of the dedup tuple, so stamping a fallback
// time would make the record unrecognizable as a duplicate on the next run.
func (c *Checker) parseEntryTimestamp(raw string) (time.Time, bool) {
	layouts := []string{
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05",
		utils.DateLayout,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, c.loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (c *Checker) finishRun(ctx context.Context, runId int, report RunReport) {
	if runId == 0 {
		return
	}
	now := time.Now().UTC()
	status := models.CompletenessRunStatusSuccess
	if !report.Success {
		status = models.CompletenessRunStatusFailed
	}
	err := c.store.FinishRun(ctx, runId, map[string]interface{}{
		"status":          status,
		"finished_at":     &now,
		"duration_ms":     report.Duration.Milliseconds(),
		"dates_checked":   report.DatesChecked,
		"dates_processed": report.DatesProcessed,
		"dates_skipped":   report.DatesSkipped,
		"total_saved":     report.TotalSaved,
		"error_message":   report.Error,
	})
	if err != nil {
		config.LogError(config.GetLogger(), "watersync", "finishRun", "update run record", runId, err)
	}
}

// acquireRunLock takes the cross-replica run lock. When Redis is not
// configured the in-process flag is the only guard.
func (c *Checker) acquireRunLock(ctx context.Context) (func(), error) {
	locker := config.GetRedisLock()
	if locker == nil {
		return func() {}, nil
	}

	ttl := 2 * time.Hour
	lock, err := locker.Obtain(ctx, runLockKey, ttl, nil)
	if err != nil {
		if err == redislock.ErrNotObtained {
			return nil, utils.ErrorRunInProgress
		}
		// Redis being down must not stop the scheduled run.
		config.LogError(config.GetLogger(), "watersync", "acquireRunLock", "redis lock", nil, err)
		return func() {}, nil
	}
	return func() { _ = lock.Release(context.Background()) }, nil
}

func (c *Checker) sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
