package reports

import (
	"context"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
)

// Sender delivers a report message to one chat.
type Sender interface {
	SendTo(chatID int64, message string) error
}

// BroadcastDailySummary renders yesterday's report and sends it to every
// active subscriber. A failed send is logged and does not stop the fan-out.
func BroadcastDailySummary(ctx context.Context, sender Sender) error {
	logger := config.GetLogger()

	loc := utils.FleetLocation()
	date := time.Now().In(loc).AddDate(0, 0, -1).Format(utils.DateLayout)

	summary, err := DailySummary(ctx, date)
	if err != nil {
		config.LogError(logger, "reports", "BroadcastDailySummary", "build summary", map[string]interface{}{"date": date}, err)
		return err
	}

	workers, err := models.GetActiveWorkers(ctx)
	if err != nil {
		config.LogError(logger, "reports", "BroadcastDailySummary", "load subscribers", nil, err)
		return err
	}
	if len(workers) == 0 {
		logger.Infof("daily summary for %s built, no active subscribers", date)
		return nil
	}

	sent := 0
	for _, worker := range workers {
		if err := sender.SendTo(worker.ChatId, summary.Message); err != nil {
			config.LogError(logger, "reports", "BroadcastDailySummary", "send",
				map[string]interface{}{"chat_id": worker.ChatId}, err)
			continue
		}
		sent++
		time.Sleep(300 * time.Millisecond)
	}

	logger.Infof("daily summary for %s sent to %d/%d subscribers", date, sent, len(workers))
	return nil
}
