package watersync

import (
	"context"
	"errors"
	"time"

	"github.com/aquastream/collections_backend/config"
	"github.com/aquastream/collections_backend/models"
)

// Store is the persistence surface the reconciliation engine consumes. The
// production implementation sits on gorm; tests substitute an in-memory one.
type Store interface {
	Ping(ctx context.Context) error
	HasAnyDataForDate(ctx context.Context, dayStart time.Time) (bool, error)
	InsertCollectionIfNew(ctx context.Context, rec *models.Collection) (bool, error)
	CreateRun(ctx context.Context, triggeredBy string, correlationId string) (int, error)
	FinishRun(ctx context.Context, id int, updates map[string]interface{}) error
}

type dbStore struct{}

// NewStore returns the gorm-backed Store.
func NewStore() Store {
	return dbStore{}
}

func (dbStore) Ping(ctx context.Context) error {
	db := config.GetDB()
	if db == nil {
		return errors.New("database not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (dbStore) HasAnyDataForDate(ctx context.Context, dayStart time.Time) (bool, error) {
	return models.HasAnyDataForDate(ctx, dayStart)
}

func (dbStore) InsertCollectionIfNew(ctx context.Context, rec *models.Collection) (bool, error) {
	return models.InsertCollectionIfNew(ctx, rec)
}

func (dbStore) CreateRun(ctx context.Context, triggeredBy string, correlationId string) (int, error) {
	run, err := models.CreateCompletenessRun(ctx, triggeredBy, correlationId)
	if err != nil {
		return 0, err
	}
	return run.ID, nil
}

func (dbStore) FinishRun(ctx context.Context, id int, updates map[string]interface{}) error {
	return models.FinishCompletenessRun(ctx, id, updates)
}
