package watersync

import (
	"testing"
	"time"
)

func TestNextRunTime(t *testing.T) {
	loc := time.UTC

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			"before target today",
			time.Date(2025, 3, 10, 9, 0, 0, 0, loc), 13,
			time.Date(2025, 3, 10, 13, 0, 0, 0, loc),
		},
		{
			"after target rolls to tomorrow",
			time.Date(2025, 3, 10, 14, 30, 0, 0, loc), 13,
			time.Date(2025, 3, 11, 13, 0, 0, 0, loc),
		},
		{
			"exactly at target rolls to tomorrow",
			time.Date(2025, 3, 10, 13, 0, 0, 0, loc), 13,
			time.Date(2025, 3, 11, 13, 0, 0, 0, loc),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NextRunTime(tc.now, tc.hour, 0, loc)
			if !got.Equal(tc.want) {
				t.Errorf("NextRunTime = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestNextRunTimeAlwaysFuture(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Kyiv")
	if err != nil {
		t.Skip("tzdata not available")
	}

	now := time.Now()
	for hour := 0; hour < 24; hour++ {
		next := NextRunTime(now, hour, 0, loc)
		if !next.After(now.In(loc)) {
			t.Errorf("NextRunTime(hour=%d) = %v is not in the future", hour, next)
		}
	}
}
