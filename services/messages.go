package services

import (
	"context"
	"strings"
	"time"

	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/metrics"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CreateMessageInput struct {
	ConversationID string
	SenderID       string
	Content        string
	ReplyTo        *string
}

// MessageLedger appends messages to conversations in per-conversation order.
type MessageLedger struct {
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	sequencer     repository.Sequencer
	events        EventPublisher
	repairs       Repairer
	log           *zap.Logger
	now           func() time.Time
}

func NewMessageLedger(
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	sequencer repository.Sequencer,
	events EventPublisher,
	repairs Repairer,
	log *zap.Logger,
) *MessageLedger {
	return &MessageLedger{
		messages:      messages,
		conversations: conversations,
		sequencer:     sequencer,
		events:        orNopPublisher(events),
		repairs:       repairs,
		log:           logger.OrNop(log),
		now:           time.Now,
	}
}

// Create persists the message with the sender as its only reader, then
// points the conversation at it. The pointer update is best effort: once the
// message is stored it is returned even if the pointer stays stale.
func (l *MessageLedger) Create(ctx context.Context, in CreateMessageInput) (*models.Message, error) {
	if strings.TrimSpace(in.ConversationID) == "" || strings.TrimSpace(in.SenderID) == "" {
		return nil, invalidOperation("conversation and sender are required")
	}
	if in.ReplyTo != nil && *in.ReplyTo == "" {
		in.ReplyTo = nil
	}

	if _, err := l.conversations.Get(ctx, in.ConversationID); err != nil {
		return nil, err
	}
	order, err := l.sequencer.Next(ctx, in.ConversationID)
	if err != nil {
		return nil, err
	}

	now := l.now().UTC()
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		ReplyTo:        in.ReplyTo,
		Content:        in.Content,
		Order:          order,
		ReadStatus:     []models.ReadStatusEntry{{UserID: in.SenderID, ReadAt: now}},
		CreatedAt:      now,
	}
	if err := l.messages.Insert(ctx, msg); err != nil {
		return nil, err
	}
	metrics.RecordMessageCreated()

	log := l.log.With(
		zap.String("conversation_id", msg.ConversationID),
		zap.String("message_id", msg.ID),
		zap.Int64("order", msg.Order),
	)
	if err := l.conversations.UpdateLastMessage(ctx, msg.ConversationID, msg.ID); err != nil {
		metrics.RecordLastMessageFailure()
		log.Warn("conversation last message not updated", zap.Error(err))
		l.enqueuePointerRepair(ctx, log, msg.ConversationID)
	}

	publish(ctx, l.events, log, RoutingMessageCreated, MessageCreatedEvent{
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Order:          msg.Order,
		CreatedAt:      msg.CreatedAt,
	})
	return msg, nil
}

func (l *MessageLedger) enqueuePointerRepair(ctx context.Context, log *zap.Logger, conversationID string) {
	if l.repairs == nil {
		return
	}
	task := RepairTask{Kind: RepairKindLastMessage, ConversationID: conversationID}
	if err := l.repairs.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		log.Error("failed to enqueue last message repair", zap.Error(err))
	}
}

func (l *MessageLedger) Get(ctx context.Context, id string) (*models.Message, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidOperation("message id is required")
	}
	return l.messages.Get(ctx, id)
}

// ListByConversation returns the conversation's messages in ascending order.
func (l *MessageLedger) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	if strings.TrimSpace(conversationID) == "" {
		return nil, invalidOperation("conversation id is required")
	}
	return l.messages.ListByConversation(ctx, conversationID)
}
