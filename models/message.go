package models

import (
	"time"
)

// Message is immutable once created except for ReadStatus, which only grows.
type Message struct {
	ID             string            `gorm:"primaryKey;size:64" json:"id"`
	ConversationID string            `gorm:"size:64;not null;uniqueIndex:idx_messages_conversation_order,priority:1" json:"conversation"`
	SenderID       string            `gorm:"size:64;not null;index" json:"sender"`
	ReplyTo        *string           `gorm:"size:64" json:"reply,omitempty"`
	Content        string            `gorm:"type:text;not null" json:"content"`
	Order          int64             `gorm:"column:msg_order;not null;uniqueIndex:idx_messages_conversation_order,priority:2" json:"order"`
	ReadStatus     []ReadStatusEntry `gorm:"foreignKey:MessageID;constraint:OnDelete:CASCADE" json:"readStatus"`
	CreatedAt      time.Time         `json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// ReadAt returns when userID read the message, if they have.
func (m *Message) ReadAt(userID string) (time.Time, bool) {
	for _, r := range m.ReadStatus {
		if r.UserID == userID {
			return r.ReadAt, true
		}
	}
	return time.Time{}, false
}

// ReadStatusEntry records that UserID saw the message at or after ReadAt.
type ReadStatusEntry struct {
	MessageID string    `gorm:"primaryKey;size:64" json:"-"`
	UserID    string    `gorm:"primaryKey;size:64;index" json:"userId"`
	ReadAt    time.Time `gorm:"not null" json:"readAt"`
}

func (ReadStatusEntry) TableName() string {
	return "message_reads"
}

// ReadUpdateResult reports a bulk read-state update.
type ReadUpdateResult struct {
	MatchedCount  int64 `json:"matchedCount"`
	ModifiedCount int64 `json:"modifiedCount"`
}
