package repository

import (
	"context"

	"github.com/huyvu-developer/chat-app-BE/models"
)

type ConversationRepository interface {
	Create(ctx context.Context, conv *models.Conversation) error
	Get(ctx context.Context, id string) (*models.Conversation, error)
	// ListByMember returns every conversation userID belongs to, oldest first.
	ListByMember(ctx context.Context, userID string) ([]models.Conversation, error)
	// UpdateLastMessage overwrites the conversation pointer unconditionally.
	UpdateLastMessage(ctx context.Context, conversationID, messageID string) error
}

// Sequencer hands out per-conversation message orders. Values returned for
// one conversation are strictly increasing.
type Sequencer interface {
	Next(ctx context.Context, conversationID string) (int64, error)
}
