package models

import (
	"gorm.io/gorm"
)

// DailyStats is one record per (user, local calendar date). Goal values are
// snapshotted from the target calculator when the record is first created and
// are not recomputed when the profile changes later.
type DailyStats struct {
	gorm.Model
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_date"`
	Date   string `gorm:"not null;uniqueIndex:idx_user_date"` // civil date "2006-01-02" in the user's zone

	CaloriesConsumed float64
	ProteinG         float64
	CarbsG           float64
	FatG             float64
	WaterMl          float64
	Steps            float64

	CaloriesGoal float64
	ProteinGoalG float64
	CarbsGoalG   float64
	FatGoalG     float64
}
