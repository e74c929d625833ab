package models

import (
    "gorm.io/gorm"
)

// DefaultWaterLevel is the level every account starts at.
const DefaultWaterLevel = 50

type User struct {
    gorm.Model
    Email      string `gorm:"uniqueIndex;not null"`
    Username   string `gorm:"uniqueIndex;not null"`
    Password   string `gorm:"not null"`
    FullName   string
    WaterLevel int `gorm:"not null;default:50"`
}
