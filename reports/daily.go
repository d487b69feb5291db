// Package reports builds the operator-facing summaries of stored collection
// data: daily, weekly and monthly text reports plus XLSX export.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aquastream/collections_backend/models"
	"github.com/aquastream/collections_backend/utils"
	"github.com/shopspring/decimal"
)

// Summary is a rendered report plus the aggregates it was built from.
type Summary struct {
	Date           string
	Message        string
	TotalSum       decimal.Decimal
	TotalBanknotes decimal.Decimal
	TotalCoins     decimal.Decimal
	EntryCount     int
}

type collectorGroup struct {
	nik       string
	banknotes decimal.Decimal
	coins     decimal.Decimal
	total     decimal.Decimal
	entries   []models.Collection
}

// DailySummary builds the per-collector daily report for one calendar date
// (YYYY-MM-DD, fleet timezone).
func DailySummary(ctx context.Context, date string) (*Summary, error) {
	loc := utils.FleetLocation()
	dayStart, err := utils.ParseDate(date, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	records, err := models.CollectionsByDateRange(ctx, dayStart, dayStart)
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return &Summary{
			Date:    date,
			Message: fmt.Sprintf("📊 *Звіт інкасації за %s*\n\nДаних за цю дату немає.", date),
		}, nil
	}

	groups := map[string]*collectorGroup{}
	totalBanknotes := decimal.Zero
	totalCoins := decimal.Zero
	totalSum := decimal.Zero

	for _, rec := range records {
		nik := "Unknown"
		if rec.CollectorNik != nil && *rec.CollectorNik != "" {
			nik = *rec.CollectorNik
		}
		g, ok := groups[nik]
		if !ok {
			g = &collectorGroup{nik: nik}
			groups[nik] = g
		}
		g.banknotes = g.banknotes.Add(rec.SumBanknotes)
		g.coins = g.coins.Add(rec.SumCoins)
		g.total = g.total.Add(rec.TotalSum)
		g.entries = append(g.entries, rec)

		totalBanknotes = totalBanknotes.Add(rec.SumBanknotes)
		totalCoins = totalCoins.Add(rec.SumCoins)
		totalSum = totalSum.Add(rec.TotalSum)
	}

	ordered := make([]*collectorGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].total.GreaterThan(ordered[j].total)
	})

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Звіт інкасації за %s*\n\n", date)

	for _, g := range ordered {
		fmt.Fprintf(&b, "👤 *%s*\n", g.nik)
		for _, rec := range g.entries {
			fmt.Fprintf(&b, "  🚰 %s (%s): %s грн\n",
				rec.DeviceId, rec.Date.In(loc).Format("15:04"), rec.TotalSum.StringFixed(2))
		}
		fmt.Fprintf(&b, "  💵 Купюри: %s грн\n", g.banknotes.StringFixed(2))
		fmt.Fprintf(&b, "  🪙 Монети: %s грн\n", g.coins.StringFixed(2))
		fmt.Fprintf(&b, "  💰 Разом: %s грн\n\n", g.total.StringFixed(2))
	}

	fmt.Fprintf(&b, "━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "📦 Інкасацій: %d\n", len(records))
	fmt.Fprintf(&b, "💵 Купюри: %s грн\n", totalBanknotes.StringFixed(2))
	fmt.Fprintf(&b, "🪙 Монети: %s грн\n", totalCoins.StringFixed(2))
	fmt.Fprintf(&b, "💰 *Всього: %s грн*", totalSum.StringFixed(2))

	return &Summary{
		Date:           date,
		Message:        b.String(),
		TotalSum:       totalSum,
		TotalBanknotes: totalBanknotes,
		TotalCoins:     totalCoins,
		EntryCount:     len(records),
	}, nil
}

// RangeSummary builds a per-collector report over an inclusive date range.
// Weekly and monthly reports are this with different windows.
func RangeSummary(ctx context.Context, title string, from time.Time, to time.Time) (*Summary, error) {
	totals, err := models.CollectionTotalsByCollector(ctx, from, to)
	if err != nil {
		return nil, err
	}

	rangeLabel := fmt.Sprintf("%s — %s", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
	if len(totals) == 0 {
		return &Summary{
			Date:    rangeLabel,
			Message: fmt.Sprintf("📊 *%s (%s)*\n\nДаних за цей період немає.", title, rangeLabel),
		}, nil
	}

	totalBanknotes := decimal.Zero
	totalCoins := decimal.Zero
	totalSum := decimal.Zero
	entryCount := 0

	var b strings.Builder
	fmt.Fprintf(&b, "📊 *%s (%s)*\n\n", title, rangeLabel)
	for _, row := range totals {
		fmt.Fprintf(&b, "👤 *%s*: %s грн (%d інкасацій)\n", row.CollectorNik, row.TotalSum.StringFixed(2), row.EntryCount)
		totalBanknotes = totalBanknotes.Add(row.TotalBanknotes)
		totalCoins = totalCoins.Add(row.TotalCoins)
		totalSum = totalSum.Add(row.TotalSum)
		entryCount += row.EntryCount
	}

	fmt.Fprintf(&b, "\n━━━━━━━━━━━━━━━\n")
	fmt.Fprintf(&b, "📦 Інкасацій: %d\n", entryCount)
	fmt.Fprintf(&b, "💵 Купюри: %s грн\n", totalBanknotes.StringFixed(2))
	fmt.Fprintf(&b, "🪙 Монети: %s грн\n", totalCoins.StringFixed(2))
	fmt.Fprintf(&b, "💰 *Всього: %s грн*", totalSum.StringFixed(2))

	return &Summary{
		Date:           rangeLabel,
		Message:        b.String(),
		TotalSum:       totalSum,
		TotalBanknotes: totalBanknotes,
		TotalCoins:     totalCoins,
		EntryCount:     entryCount,
	}, nil
}

// WeeklySummary covers the 7 days ending yesterday in the fleet timezone.
func WeeklySummary(ctx context.Context, now time.Time) (*Summary, error) {
	loc := utils.FleetLocation()
	local := now.In(loc)
	to := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -1)
	from := to.AddDate(0, 0, -6)
	return RangeSummary(ctx, "Тижневий звіт інкасації", from, to)
}

// MonthlySummary covers the previous calendar month in the fleet timezone.
func MonthlySummary(ctx context.Context, now time.Time) (*Summary, error) {
	loc := utils.FleetLocation()
	local := now.In(loc)
	firstOfThisMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	from := firstOfThisMonth.AddDate(0, -1, 0)
	to := firstOfThisMonth.AddDate(0, 0, -1)
	return RangeSummary(ctx, "Місячний звіт інкасації", from, to)
}
