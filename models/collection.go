package models

import (
	"context"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/shopspring/decimal"
)

// Collection is one cash-collection event for one device. The upstream API
// provides no stable record id, so uniqueness is defined by the tuple
// (device_id, date, sum_banknotes, sum_coins).
type Collection struct {
	ID           int             `gorm:"primary_key" json:"id"`
	DeviceId     string          `gorm:"size:64;index;not null" json:"device_id"`
	Date         time.Time       `gorm:"index;not null" json:"date"`
	SumBanknotes decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sum_banknotes"`
	SumCoins     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"sum_coins"`
	TotalSum     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_sum"`
	Note         string          `gorm:"type:text" json:"note"`
	Machine      string          `gorm:"size:255" json:"machine"`
	CollectorId  *string         `gorm:"size:255" json:"collector_id"`
	CollectorNik *string         `gorm:"size:255" json:"collector_nik"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Collection) GetId() int {
	return c.ID
}

// CollectionExists reports whether the device has at least one record whose
// timestamp falls within the calendar day starting at dayStart.
func CollectionExists(ctx context.Context, deviceId string, dayStart time.Time) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Collection{}).
		Where("device_id = ? AND date >= ? AND date < ?", deviceId, dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasAnyDataForDate reports whether any device has a record on the calendar
// day starting at dayStart. Used for the whole-date skip decision.
func HasAnyDataForDate(ctx context.Context, dayStart time.Time) (bool, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(&Collection{}).
		Where("date >= ? AND date < ?", dayStart, dayStart.Add(24*time.Hour)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertCollectionIfNew inserts the record unless one with the identical
// dedup tuple already exists. Returns false for the duplicate no-op.
func InsertCollectionIfNew(ctx context.Context, rec *Collection) (bool, error) {
	db := config.GetDB()

	var count int64
	err := db.WithContext(ctx).Model(&Collection{}).
		Where("device_id = ? AND date = ? AND sum_banknotes = ? AND sum_coins = ?",
			rec.DeviceId, rec.Date, rec.SumBanknotes, rec.SumCoins).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		return false, err
	}
	return true, nil
}

// CollectionsByDateRange returns all records with timestamps in
// [from, to+24h), ordered for reporting.
func CollectionsByDateRange(ctx context.Context, from time.Time, to time.Time) ([]Collection, error) {
	db := config.GetDB()
	var records []Collection
	err := db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to.Add(24*time.Hour)).
		Order("date ASC, device_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteCollectionsByDateRange removes all records in [from, to+24h) and
// returns the deleted rows. Administrative use only.
func DeleteCollectionsByDateRange(ctx context.Context, from time.Time, to time.Time) ([]Collection, error) {
	db := config.GetDB()

	records, err := CollectionsByDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return records, nil
	}

	err = db.WithContext(ctx).
		Where("date >= ? AND date < ?", from, to.Add(24*time.Hour)).
		Delete(&Collection{}).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeviceDailySummary is the per-device aggregate for one calendar day.
type DeviceDailySummary struct {
	DeviceId        string          `json:"device_id"`
	TotalBanknotes  decimal.Decimal `json:"total_banknotes"`
	TotalCoins      decimal.Decimal `json:"total_coins"`
	CollectionCount int             `json:"collection_count"`
}

func CollectionSummaryByDate(ctx context.Context, dayStart time.Time) ([]DeviceDailySummary, error) {
	db := config.GetDB()
	var rows []DeviceDailySummary
	err := db.WithContext(ctx).Model(&Collection{}).
		Select("device_id, SUM(sum_banknotes) AS total_banknotes, SUM(sum_coins) AS total_coins, COUNT(*) AS collection_count").
		Where("date >= ? AND date < ?", dayStart, dayStart.Add(24*time.Hour)).
		Group("device_id").
		Order("device_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// CollectorTotal is the per-collector aggregate over a date range.
type CollectorTotal struct {
	CollectorNik   string          `json:"collector_nik"`
	TotalBanknotes decimal.Decimal `json:"total_banknotes"`
	TotalCoins     decimal.Decimal `json:"total_coins"`
	TotalSum       decimal.Decimal `json:"total_sum"`
	EntryCount     int             `json:"entry_count"`
}

func CollectionTotalsByCollector(ctx context.Context, from time.Time, to time.Time) ([]CollectorTotal, error) {
	db := config.GetDB()
	var rows []CollectorTotal
	err := db.WithContext(ctx).Model(&Collection{}).
		Select("COALESCE(collector_nik, 'Unknown') AS collector_nik, SUM(sum_banknotes) AS total_banknotes, SUM(sum_coins) AS total_coins, SUM(total_sum) AS total_sum, COUNT(*) AS entry_count").
		Where("date >= ? AND date < ?", from, to.Add(24*time.Hour)).
		Group("COALESCE(collector_nik, 'Unknown')").
		Order("total_sum DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
