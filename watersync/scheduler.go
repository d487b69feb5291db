package watersync

import (
	"context"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/utils"
	"github.com/sirupsen/logrus"
)

// NextRunTime computes the next occurrence of the given civil time in loc.
// Recomputing from wall-clock civil time each cycle keeps the schedule
// anchored across DST shifts.
func NextRunTime(now time.Time, hour int, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	target := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !target.After(local) {
		target = target.AddDate(0, 0, 1)
	}
	return target
}

// ScheduleDailyAt runs fn once per day at the given civil time in loc,
// re-arming after every invocation regardless of outcome. It returns
// immediately; the loop stops when ctx is cancelled.
func ScheduleDailyAt(ctx context.Context, name string, hour int, minute int, loc *time.Location, fn func(context.Context)) {
	logger := config.GetLogger()

	go func() {
		for {
			next := NextRunTime(time.Now(), hour, minute, loc)
			delay := time.Until(next)
			logger.WithFields(logrus.Fields{
				"module": "watersync",
				"job":    name,
				"next":   next.Format(time.RFC3339),
				"in":     delay.Round(time.Minute).String(),
			}).Info("scheduled next run")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}

			logger.WithFields(logrus.Fields{"module": "watersync", "job": name}).Info("running scheduled job")
			fn(ctx)
		}
	}()
}

// Scheduler triggers the completeness check once per day at a fixed civil
// time and reports every outcome to the notification sink. A failed run
// never stops future runs.
type Scheduler struct {
	checker *Checker
	sink    NotificationSink
	hour    int
	loc     *time.Location
}

func NewScheduler(checker *Checker, sink NotificationSink) *Scheduler {
	return &Scheduler{
		checker: checker,
		sink:    sink,
		hour:    utils.IntFromEnv("COMPLETENESS_CHECK_HOUR", 13),
		loc:     utils.FleetLocation(),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	ScheduleDailyAt(ctx, "completeness-check", s.hour, 0, s.loc, func(runCtx context.Context) {
		report := s.checker.Run(runCtx, "schedule")
		if s.sink != nil {
			s.sink.Notify(report.Summary())
		}
	})
}
