package watersync

import (
	"testing"
	"time"
)

func TestDatesToCheck(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)

	dates := DatesToCheck(now, 5)
	if len(dates) != 5 {
		t.Fatalf("len = %d, want 5", len(dates))
	}
	if dates[0] != "2025-03-09" {
		t.Errorf("first = %s, want 2025-03-09 (yesterday)", dates[0])
	}
	if dates[4] != "2025-03-05" {
		t.Errorf("last = %s, want 2025-03-05", dates[4])
	}

	seen := map[string]bool{}
	for _, d := range dates {
		if seen[d] {
			t.Errorf("duplicate date %s", d)
		}
		seen[d] = true
	}
}

func TestDatesToCheckCrossesMonthBoundary(t *testing.T) {
	now := time.Date(2025, 3, 2, 1, 0, 0, 0, time.UTC)
	dates := DatesToCheck(now, 3)
	want := []string{"2025-03-01", "2025-02-28", "2025-02-27"}
	for i, w := range want {
		if dates[i] != w {
			t.Errorf("dates[%d] = %s, want %s", i, dates[i], w)
		}
	}
}

func TestDatesToCheckZeroDays(t *testing.T) {
	if got := DatesToCheck(time.Now(), 0); got != nil {
		t.Errorf("DatesToCheck(0) = %v, want nil", got)
	}
}
