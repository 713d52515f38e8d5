package models

import (
	"gorm.io/gorm"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"

	ChatSessionOpen = "open"
)

// ChatSession is one conversation thread per user. UpdatedAt is touched on
// every turn.
type ChatSession struct {
	gorm.Model
	UserID uint   `gorm:"index;not null"`
	Status string // "open"
}

// ChatMessage is immutable once written; ordered by CreatedAt within a session.
type ChatMessage struct {
	gorm.Model
	SessionID uint `gorm:"index;not null"`
	UserID    uint `gorm:"index"`

	Role    string // user | assistant
	Content string `gorm:"type:text"`

	// optional attached-image metadata
	ImageURL  string
	ImageMime string

	// optional free-form context tag (e.g. "refused", "partial")
	ContextTag string
}
