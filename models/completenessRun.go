package models

import (
	"context"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/utils"
	"gorm.io/gorm"
)

type CompletenessRunStatus string

const (
	CompletenessRunStatusRunning CompletenessRunStatus = "RUNNING"
	CompletenessRunStatusSuccess CompletenessRunStatus = "SUCCESS"
	CompletenessRunStatusFailed  CompletenessRunStatus = "FAILED"
)

// CompletenessRun mirrors one reconciliation run for the ops API. The run
// report itself is ephemeral; this row is its durable trace.
type CompletenessRun struct {
	ID             int                   `gorm:"primary_key" json:"id"`
	Status         CompletenessRunStatus `gorm:"size:32;not null;default:'RUNNING'" json:"status"`
	TriggeredBy    string                `gorm:"size:64" json:"triggered_by"`
	CorrelationId  string                `gorm:"size:64;index" json:"correlation_id"`
	StartedAt      *time.Time            `json:"started_at"`
	FinishedAt     *time.Time            `json:"finished_at"`
	DurationMs     int64                 `gorm:"default:0" json:"duration_ms"`
	DatesChecked   int                   `gorm:"default:0" json:"dates_checked"`
	DatesProcessed int                   `gorm:"default:0" json:"dates_processed"`
	DatesSkipped   int                   `gorm:"default:0" json:"dates_skipped"`
	TotalSaved     int                   `gorm:"default:0" json:"total_saved"`
	ErrorMessage   string                `gorm:"type:text" json:"error_message"`
	CreatedAt      time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r CompletenessRun) GetId() int {
	return r.ID
}

func CreateCompletenessRun(ctx context.Context, triggeredBy string, correlationId string) (*CompletenessRun, error) {
	db := config.GetDB()
	now := time.Now().UTC()
	run := CompletenessRun{
		Status:        CompletenessRunStatusRunning,
		TriggeredBy:   triggeredBy,
		CorrelationId: correlationId,
		StartedAt:     &now,
	}
	if err := db.WithContext(ctx).Create(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func FinishCompletenessRun(ctx context.Context, id int, updates map[string]interface{}) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&CompletenessRun{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func GetCompletenessRunById(ctx context.Context, id int) (*CompletenessRun, error) {
	db := config.GetDB()
	var run CompletenessRun
	err := db.WithContext(ctx).Where("id = ?", id).Take(&run).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &run, nil
}

func ListCompletenessRuns(ctx context.Context, limit int) ([]CompletenessRun, error) {
	db := config.GetDB()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var runs []CompletenessRun
	err := db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
