package services

import (
	"context"
	"time"

	"github.com/huyvu-developer/chat-app-BE/metrics"

	"go.uber.org/zap"
)

const (
	RoutingFriendshipPrefix = "friendship."
	RoutingMessageCreated   = "message.created"
	RoutingConversationRead = "conversation.read"
)

// EventPublisher delivers domain events to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, any) error { return nil }

type FriendshipEvent struct {
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

type MessageCreatedEvent struct {
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Order          int64     `json:"order"`
	CreatedAt      time.Time `json:"created_at"`
}

type ConversationReadEvent struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Modified       int64     `json:"modified"`
	ReadAt         time.Time `json:"read_at"`
}

// publish never fails the caller: the state change is already durable.
func publish(ctx context.Context, p EventPublisher, log *zap.Logger, routingKey string, event any) {
	if err := p.Publish(ctx, routingKey, event); err != nil {
		metrics.RecordPublishFailure(routingKey)
		log.Warn("failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}

func orNopPublisher(p EventPublisher) EventPublisher {
	if p == nil {
		return NopPublisher{}
	}
	return p
}
