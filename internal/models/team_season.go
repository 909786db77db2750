package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TeamSeason struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	TeamID   string `gorm:"type:varchar(100);not null;uniqueIndex:idx_team_league"`
	LeagueID string `gorm:"type:varchar(100);not null;uniqueIndex:idx_team_league"`

	Name string `gorm:"type:varchar(200);not null"`

	// SalaryCap bounds the sum of contract amounts plus leading bids.
	SalaryCap decimal.Decimal `gorm:"type:numeric(30,2);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (TeamSeason) TableName() string {
	return "team_seasons"
}
