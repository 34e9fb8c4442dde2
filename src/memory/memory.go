// Package memory keeps the append-only audit trail of verification
// submissions, scoped by conversation room.
package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind tags an audit entry.
type Kind string

const (
	KindContentVerification Kind = "contentVerification"
	KindContentAutoApproved Kind = "contentAutoApproved"
	KindDataVerification    Kind = "dataVerification"
)

const displayLimit = 100

// Entry is one audit record.
type Entry struct {
	ID        uuid.UUID `gorm:"type:char(36);primaryKey" json:"id"`
	RoomID    string    `gorm:"size:128;index:idx_room_created,priority:1;not null" json:"roomId"`
	AgentID   string    `gorm:"size:128" json:"agentId"`
	Kind      Kind      `gorm:"size:32;not null" json:"kind"`
	TaskID    string    `gorm:"size:128;index" json:"taskId,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Text      string    `gorm:"type:text" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_room_created,priority:2" json:"createdAt"`
}

// TableName pins the gorm table name.
func (Entry) TableName() string { return "verification_memories" }

// NewEntry builds an entry with a fresh id and a truncated display text.
func NewEntry(roomID, agentID string, kind Kind, taskID, content string, now time.Time) *Entry {
	return &Entry{
		ID:        uuid.New(),
		RoomID:    roomID,
		AgentID:   agentID,
		Kind:      kind,
		TaskID:    taskID,
		Content:   content,
		Text:      DisplayText(kind, content),
		CreatedAt: now,
	}
}

// DisplayText is the short form shown in memory listings.
func DisplayText(kind Kind, content string) string {
	runes := []rune(content)
	excerpt := content
	if len(runes) > displayLimit {
		excerpt = string(runes[:displayLimit]) + "..."
	}
	switch kind {
	case KindContentAutoApproved:
		return "Auto-approved content: " + excerpt
	case KindDataVerification:
		return "Data verification: " + excerpt
	default:
		return "Submitted content for verification: " + excerpt
	}
}

// Store persists audit entries.
type Store interface {
	Create(ctx context.Context, e *Entry) error
	// Recent returns up to limit entries of a room, newest first.
	Recent(ctx context.Context, roomID string, limit int) ([]Entry, error)
}

// LatestTaskID returns the task id of the newest submission entry.
func LatestTaskID(entries []Entry) (string, bool) {
	for _, e := range entries {
		if e.TaskID == "" {
			continue
		}
		if e.Kind == KindContentVerification || e.Kind == KindContentAutoApproved {
			return e.TaskID, true
		}
	}
	return "", false
}
