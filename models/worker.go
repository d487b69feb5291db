package models

import (
	"context"
	"errors"
	"time"

	"github.com/aquastream/collections_backend/config"
	"gorm.io/gorm"
)

// Worker is an operator subscribed to report broadcasts over the chat bot.
type Worker struct {
	ID        int       `gorm:"primary_key" json:"id"`
	ChatId    int64     `gorm:"uniqueIndex;not null" json:"chat_id"`
	Name      string    `gorm:"size:255" json:"name"`
	IsActive  bool      `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// SubscribeWorker creates the worker row for the chat id, or re-activates an
// existing one.
func SubscribeWorker(ctx context.Context, chatId int64, name string) (*Worker, error) {
	db := config.GetDB()

	var existing Worker
	err := db.WithContext(ctx).Where("chat_id = ?", chatId).Take(&existing).Error
	if err == nil {
		updates := map[string]interface{}{"is_active": true}
		if name != "" {
			updates["name"] = name
		}
		if err := db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
			return nil, err
		}
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	worker := Worker{ChatId: chatId, Name: name, IsActive: true}
	if err := db.WithContext(ctx).Create(&worker).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

func UnsubscribeWorker(ctx context.Context, chatId int64) error {
	db := config.GetDB()
	return db.WithContext(ctx).Model(&Worker{}).
		Where("chat_id = ?", chatId).
		Update("is_active", false).Error
}

func GetActiveWorkers(ctx context.Context) ([]Worker, error) {
	db := config.GetDB()
	var workers []Worker
	err := db.WithContext(ctx).Where("is_active = ?", true).Find(&workers).Error
	if err != nil {
		return nil, err
	}
	return workers, nil
}
