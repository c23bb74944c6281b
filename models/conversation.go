package models

import "time"

type Conversation struct {
	ID            string               `gorm:"primaryKey;size:64" json:"id"`
	Members       []ConversationMember `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"members"`
	LastMessageID *string              `gorm:"size:64" json:"lastMessage,omitempty"`
	MessageSeq    int64                `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time            `json:"createdAt"`
	UpdatedAt     time.Time            `json:"updatedAt"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// MemberIDs returns the member user ids in membership order.
func (c *Conversation) MemberIDs() []string {
	ids := make([]string, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func (c *Conversation) HasMember(userID string) bool {
	for _, m := range c.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

type ConversationMember struct {
	ConversationID string    `gorm:"primaryKey;size:64" json:"-"`
	UserID         string    `gorm:"primaryKey;size:64;index" json:"user"`
	Position       int       `gorm:"not null" json:"-"`
	JoinedAt       time.Time `json:"joinedAt"`
}

func (ConversationMember) TableName() string {
	return "conversation_members"
}
