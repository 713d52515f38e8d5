package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	Email    string `gorm:"uniqueIndex;not null"`
	Password string `gorm:"not null"`
	FullName string

	// biometrics
	Gender   string    // "male" | "female" | "other"
	HeightCm float64
	WeightKg float64
	Birthday time.Time

	Goal          string // "lose" | "maintain" | "gain"
	ActivityLevel string // "sedentary" | "light" | "moderate" | "active" | "very_active"

	Locale   string // e.g. "tr", "en"
	Timezone string // IANA zone, e.g. "Europe/Istanbul"

	Onboarded bool
}
