package models

import (
	"time"

	"gorm.io/gorm"
)

// Ledger entry categories.
const (
	CategoryEco      = "eco"
	CategoryDonation = "donation"
	CategoryLearning = "learning"
	CategoryDeplete  = "deplete"
)

// WaterLedgerEntry is one immutable record of a level-affecting action.
// Liters is the raw signed magnitude of the action; Points is the signed
// percentage delta applied to the user's water level.
type WaterLedgerEntry struct {
	gorm.Model
	UserID     uint      `gorm:"index;not null"`
	User       User      `gorm:"constraint:OnDelete:CASCADE"`
	Category   string    `gorm:"not null"`
	Label      string    `gorm:"not null"`
	Liters     float64
	Points     int
	RecordedAt time.Time `gorm:"index;not null"`
}
