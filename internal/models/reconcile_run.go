package models

import (
	"time"

	"gorm.io/datatypes"
)

// ReconcileRun records one reconciler pass for operational visibility.
type ReconcileRun struct {
	ID     uint64         `gorm:"primaryKey;autoIncrement"`
	Mode   string         `gorm:"type:varchar(20);not null"`
	Report datatypes.JSON `gorm:"type:jsonb;not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (ReconcileRun) TableName() string {
	return "reconcile_runs"
}
