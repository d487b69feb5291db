package models

import (
	"log"

	"github.com/aquastream/collections_backend/config"
)

// MigrateTable runs gorm AutoMigrate for every table this service owns.
func MigrateTable() {
	db := config.GetDB()
	err := db.AutoMigrate(
		&Collection{},
		&Worker{},
		&CompletenessRun{},
	)
	if err != nil {
		log.Printf("auto-migrate failed: %v", err)
	}
}
