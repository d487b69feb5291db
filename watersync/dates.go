package watersync

import (
	"time"

	"github.com/aquastream/collections_backend/utils"
)

// DatesToCheck enumerates daysBack consecutive calendar dates ending
// yesterday (now-1 through now-daysBack), formatted YYYY-MM-DD in now's
// location. Each date is visited exactly once per run.
func DatesToCheck(now time.Time, daysBack int) []string {
	if daysBack <= 0 {
		return nil
	}
	dates := make([]string, 0, daysBack)
	for i := 1; i <= daysBack; i++ {
		dates = append(dates, now.AddDate(0, 0, -i).Format(utils.DateLayout))
	}
	return dates
}
