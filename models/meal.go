package models

import (
	"gorm.io/gorm"
)

const (
	MealSourceCamera = "camera"
	MealSourceManual = "manual"

	MealStatusDraft     = "draft"
	MealStatusConfirmed = "confirmed"
)

// One Meal per eating event. Analysis results attach to it but the record
// itself is only mutated at confirmation.
type Meal struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Source string // camera | manual
	Status string // draft | confirmed
	Name   string

	// Either a fetchable URL, or an inline base64 payload when object storage
	// was unavailable at upload time.
	ImageURL    string
	ImageInline string `gorm:"type:text"`
	ImageMime   string

	LocalDate string `gorm:"index"` // civil date in the user's zone

	// confirmed totals; zero until Status == confirmed
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64

	Items []MealItem
}

// MealItem is a line item materialized at confirmation from the selected
// analysis result. Insertion-ordered, immutable once written.
type MealItem struct {
	gorm.Model
	MealID uint `gorm:"index;not null"`

	Name     string
	Amount   float64
	Unit     string // defaults to "g"
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
}
