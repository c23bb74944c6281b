package repository

import (
	"context"
	"time"

	"github.com/huyvu-developer/chat-app-BE/models"
)

type MessageRepository interface {
	// Insert persists the message together with its initial read status.
	Insert(ctx context.Context, msg *models.Message) error
	Get(ctx context.Context, id string) (*models.Message, error)
	// ListByConversation returns the conversation's messages in ascending order.
	ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error)
	// Latest returns the highest-order message of the conversation.
	Latest(ctx context.Context, conversationID string) (*models.Message, error)
	MaxOrder(ctx context.Context, conversationID string) (int64, error)
	// CountUnread counts messages not sent by userID that carry no read entry for userID.
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
	// MarkRead appends (userID, at) to every message of the conversation without an entry for userID.
	MarkRead(ctx context.Context, conversationID, userID string, at time.Time) (models.ReadUpdateResult, error)
}
