package models

import (
	"gorm.io/gorm"
)

// AnalysisResult is one model invocation's raw structured output for a meal.
// Re-analysis appends new rows; exactly one is authoritative at confirmation
// (explicitly chosen, or else the most recently created).
type AnalysisResult struct {
	gorm.Model
	MealID uint `gorm:"index;not null"`

	ModelName  string
	Confidence float64
	IsSelected bool

	// full structured model output, as returned (post fence-stripping)
	RawJSON string `gorm:"type:text"`

	// best-effort vision labels, comma separated
	Labels string
}
