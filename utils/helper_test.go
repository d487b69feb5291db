package utils

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2025-01-15", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseDate = %v, want %v", got, want)
	}

	if _, err := ParseDate("", time.UTC); err == nil {
		t.Error("expected error for empty date")
	}
	if _, err := ParseDate("15/01/2025", time.UTC); err == nil {
		t.Error("expected error for wrong layout")
	}
}

func TestConvertToDate(t *testing.T) {
	input := time.Date(2025, 1, 15, 23, 30, 0, 0, time.UTC)
	got, err := ConvertToDate(input, "Europe/Kyiv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 23:30 UTC is already Jan 16 in Kyiv.
	if got.Format(DateLayout) != "2025-01-16" {
		t.Errorf("ConvertToDate = %s, want 2025-01-16", got.Format(DateLayout))
	}
	if got.Hour() != 0 || got.Minute() != 0 {
		t.Errorf("ConvertToDate did not truncate to midnight: %v", got)
	}
}

func TestParseDecimal(t *testing.T) {
	got, err := ParseDecimal(" 123.45 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "123.45" {
		t.Errorf("ParseDecimal = %s, want 123.45", got.String())
	}

	if _, err := ParseDecimal(""); err == nil {
		t.Error("expected error for empty string")
	}
	if _, err := ParseDecimal("abc"); err == nil {
		t.Error("expected error for garbage")
	}
}

func TestIntFromEnv(t *testing.T) {
	t.Setenv("TEST_INT_ENV", "42")
	if got := IntFromEnv("TEST_INT_ENV", 7); got != 42 {
		t.Errorf("IntFromEnv = %d, want 42", got)
	}
	t.Setenv("TEST_INT_ENV", "not a number")
	if got := IntFromEnv("TEST_INT_ENV", 7); got != 7 {
		t.Errorf("IntFromEnv = %d, want default 7", got)
	}
	if got := IntFromEnv("TEST_INT_ENV_UNSET", 7); got != 7 {
		t.Errorf("IntFromEnv = %d, want default 7", got)
	}
}

func TestDurationFromEnvMs(t *testing.T) {
	t.Setenv("TEST_DURATION_ENV", "1500")
	if got := DurationFromEnvMs("TEST_DURATION_ENV", time.Second); got != 1500*time.Millisecond {
		t.Errorf("DurationFromEnvMs = %v, want 1.5s", got)
	}
	t.Setenv("TEST_DURATION_ENV", "-5")
	if got := DurationFromEnvMs("TEST_DURATION_ENV", time.Second); got != time.Second {
		t.Errorf("DurationFromEnvMs = %v, want default", got)
	}
}
