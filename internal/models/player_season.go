package models

import (
	"time"
)

// PlayerSeason is one player's row for one league season. InAuction marks the
// player as currently biddable; it is mutually exclusive with having a roster
// assignment.
type PlayerSeason struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	PlayerID string `gorm:"type:varchar(100);not null;uniqueIndex:idx_player_league"`
	LeagueID string `gorm:"type:varchar(100);not null;uniqueIndex:idx_player_league"`

	Name     string `gorm:"type:varchar(200);not null"`
	Position string `gorm:"type:varchar(20);not null"`

	InAuction bool `gorm:"not null;index;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (PlayerSeason) TableName() string {
	return "player_seasons"
}
