package db

import (
	"freeagency/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.PlayerSeason{},
		&models.TeamSeason{},
		&models.TeamManager{},
		&models.Contract{},
		&models.RosterAssignment{},
		&models.ReconcileRun{},
	)
}
