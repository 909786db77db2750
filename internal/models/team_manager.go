package models

import (
	"time"
)

// TeamManager links a user to the team they manage. Owned by the external
// league service; read here only for bid authorization when no directory
// client is configured.
type TeamManager struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	TeamID   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_manager"`
	LeagueID string `gorm:"type:varchar(100);not null;uniqueIndex:idx_manager"`
	UserID   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_manager"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (TeamManager) TableName() string {
	return "team_managers"
}
