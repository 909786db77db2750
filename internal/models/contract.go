package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Contract struct {
	ID             string `gorm:"type:varchar(100);primaryKey"`
	PlayerSeasonID uint64 `gorm:"not null;uniqueIndex"`
	TeamID         string `gorm:"type:varchar(100);index"`
	LeagueID       string `gorm:"type:varchar(100);not null;index"`

	Amount decimal.Decimal `gorm:"type:numeric(30,2);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Contract) TableName() string {
	return "contracts"
}
