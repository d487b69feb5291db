package watersync

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Device is a vending machine as reported by the upstream device API. It is
// not owned by this system and is never persisted.
type Device struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
	Lat  RawAmount   `json:"lat"`
	Lon  RawAmount   `json:"lon"`
}

func (d Device) ExternalId() string {
	return strings.TrimSpace(d.ID.String())
}

// IsActive reports whether the device carries coordinates. Devices without
// both lat and lon are considered decommissioned.
func (d Device) IsActive() bool {
	return strings.TrimSpace(string(d.Lat)) != "" && strings.TrimSpace(string(d.Lon)) != ""
}

func (d Device) DisplayName() string {
	name := strings.TrimSpace(d.Name)
	if name != "" {
		return name
	}
	return fmt.Sprintf("Device %s", d.ExternalId())
}

// RawAmount tolerates upstream fields that arrive either as JSON numbers or
// as strings, including malformed strings like "2291.000.00" that a stricter
// numeric type would reject.
type RawAmount string

func (r *RawAmount) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = RawAmount(s)
		return nil
	}
	*r = RawAmount(string(data))
	return nil
}

func (r RawAmount) String() string {
	return string(r)
}

// CollectionEntry is one raw row from the per-device collections endpoint.
type CollectionEntry struct {
	Date      string    `json:"date"`
	Banknotes RawAmount `json:"banknotes"`
	Coins     RawAmount `json:"coins"`
	TotalSum  RawAmount `json:"total_sum"`
	Descr     string    `json:"descr"`
}

// DateStatus is the terminal state of one date inside a run.
type DateStatus string

const (
	DateStatusSkipped   DateStatus = "skipped"
	DateStatusCompleted DateStatus = "completed"
)

// DateResult is the outcome of examining one calendar date.
type DateResult struct {
	Date             string     `json:"date"`
	Status           DateStatus `json:"status"`
	Reason           string     `json:"reason,omitempty"`
	ProcessedDevices int        `json:"processed_devices"`
	DevicesWithData  int        `json:"devices_with_data"`
	TotalSaved       int        `json:"total_saved"`
}

// RunReport is the ephemeral result of one full reconciliation run.
type RunReport struct {
	Success        bool          `json:"success"`
	Error          string        `json:"error,omitempty"`
	Duration       time.Duration `json:"duration"`
	DatesChecked   int           `json:"dates_checked"`
	DatesProcessed int           `json:"dates_processed"`
	DatesSkipped   int           `json:"dates_skipped"`
	TotalSaved     int           `json:"total_saved"`
	Results        []DateResult  `json:"results"`
	RunId          int           `json:"run_id,omitempty"`
}

// Summary renders the report as an operator-facing message.
func (r RunReport) Summary() string {
	var b strings.Builder
	b.WriteString("📊 Database Completeness Check\n")
	if !r.Success {
		fmt.Fprintf(&b, "❌ Failed: %s\n", r.Error)
		return b.String()
	}
	fmt.Fprintf(&b, "⏱ Duration: %ds\n", int(r.Duration.Seconds()))
	fmt.Fprintf(&b, "📅 Dates checked: %d\n", r.DatesChecked)
	fmt.Fprintf(&b, "✅ Dates processed: %d\n", r.DatesProcessed)
	fmt.Fprintf(&b, "⏭ Dates skipped: %d\n", r.DatesSkipped)
	fmt.Fprintf(&b, "📦 Entries saved: %d\n", r.TotalSaved)

	var withData []DateResult
	for _, res := range r.Results {
		if res.Status == DateStatusCompleted && res.TotalSaved > 0 {
			withData = append(withData, res)
		}
	}
	if len(withData) > 0 {
		b.WriteString("\nDates with new data:\n")
		for _, res := range withData {
			fmt.Fprintf(&b, "  %s: %d entries from %d devices\n", res.Date, res.TotalSaved, res.DevicesWithData)
		}
	}
	return b.String()
}

// NotificationSink is where run outcomes are reported. The Telegram notifier
// implements it; tests substitute their own.
type NotificationSink interface {
	Notify(message string)
}
