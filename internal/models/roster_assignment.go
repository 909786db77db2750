package models

import (
	"time"
)

// RosterAssignment puts a player-season on a team. Existence of the row is the
// durable "on a team" fact; the unique index on player_season_id guarantees at
// most one team per player.
type RosterAssignment struct {
	ID             uint64 `gorm:"primaryKey;autoIncrement"`
	PlayerSeasonID uint64 `gorm:"not null;uniqueIndex"`
	TeamID         string `gorm:"type:varchar(100);not null;index"`
	LeagueID       string `gorm:"type:varchar(100);not null;index"`

	PositionClass string `gorm:"type:varchar(20);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (RosterAssignment) TableName() string {
	return "roster_assignments"
}
