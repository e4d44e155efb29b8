package model

import (
	"time"

	"github.com/google/uuid"
)

// ChangeType describes what happened to a user.
type ChangeType string

// Change types published on the change feed.
const (
	ChangeUserCreated ChangeType = "user_created"
	ChangeUserUpdated ChangeType = "user_updated"
	ChangeUserDeleted ChangeType = "user_deleted"
)

// ChangeEvent is sent over the WebSocket change feed after a mutation.
type ChangeEvent struct {
	ID        string     `json:"id"`
	Type      ChangeType `json:"type"`
	UserID    int64      `json:"userId"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewChangeEvent creates a change event stamped with a fresh ID and the current time.
func NewChangeEvent(changeType ChangeType, userID int64) ChangeEvent {
	return ChangeEvent{
		ID:        uuid.New().String(),
		Type:      changeType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}
