package models

import (
	"gorm.io/gorm"
)

// MemorySummary is a rolling digest of a user's conversation history, at most
// one per user, regenerated (not appended) once a session grows long.
type MemorySummary struct {
	gorm.Model
	UserID  uint   `gorm:"uniqueIndex;not null"`
	Summary string `gorm:"type:text"`

	// message count observed at the last refresh
	MessageCount int
}
