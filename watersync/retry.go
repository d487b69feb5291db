package watersync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/sirupsen/logrus"
)

// FetchWithRetry fetches one device's collections for a single date with
// bounded retry. Transport failures are retried up to maxRetries with a
// fixed delay between attempts; an upstream non-success status (APIError) is
// returned immediately since the API has answered. Exhausting all attempts
// yields an "All attempts failed" error that callers must treat as a
// skippable per-device failure, never a fatal one.
func FetchWithRetry(ctx context.Context, api DeviceAPI, deviceId string, date string, maxRetries int, retryDelay time.Duration) ([]CollectionEntry, error) {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	logger := config.GetLogger()

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		entries, err := api.DeviceCollections(ctx, deviceId, date, date)
		if err == nil {
			return entries, nil
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			logger.WithFields(logrus.Fields{
				"module": "watersync",
				"device": deviceId,
				"date":   date,
			}).Warnf("API error: %s", apiErr.Descr)
			return nil, err
		}

		lastErr = err
		logger.WithFields(logrus.Fields{
			"module":  "watersync",
			"device":  deviceId,
			"date":    date,
			"attempt": attempt,
		}).Warnf("attempt failed: %v", err)

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	logger.WithFields(logrus.Fields{
		"module": "watersync",
		"device": deviceId,
		"date":   date,
	}).Errorf("all %d attempts failed", maxRetries)
	return nil, fmt.Errorf("All attempts failed: %v", lastErr)
}
