package services

import (
	"context"
	"strings"
	"time"

	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/metrics"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"go.uber.org/zap"
)

type ReadReceiptService struct {
	messages repository.MessageRepository
	events   EventPublisher
	log      *zap.Logger
	now      func() time.Time
}

func NewReadReceiptService(messages repository.MessageRepository, events EventPublisher, log *zap.Logger) *ReadReceiptService {
	return &ReadReceiptService{
		messages: messages,
		events:   orNopPublisher(events),
		log:      logger.OrNop(log),
		now:      time.Now,
	}
}

func checkReader(conversationID, userID string) error {
	if strings.TrimSpace(conversationID) == "" || strings.TrimSpace(userID) == "" {
		return invalidOperation("conversation and user are required")
	}
	return nil
}

// CountUnread counts messages from other senders that userID has no read entry for.
func (s *ReadReceiptService) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	if err := checkReader(conversationID, userID); err != nil {
		return 0, err
	}
	return s.messages.CountUnread(ctx, conversationID, userID)
}

// MarkRead stamps every message userID has not read yet. Calling it again is a no-op.
func (s *ReadReceiptService) MarkRead(ctx context.Context, conversationID, userID string) (models.ReadUpdateResult, error) {
	if err := checkReader(conversationID, userID); err != nil {
		return models.ReadUpdateResult{}, err
	}

	at := s.now().UTC()
	res, err := s.messages.MarkRead(ctx, conversationID, userID, at)
	if err != nil {
		return models.ReadUpdateResult{}, err
	}
	if res.ModifiedCount == 0 {
		return res, nil
	}

	metrics.RecordMarkedRead(res.ModifiedCount)
	log := s.log.With(zap.String("conversation_id", conversationID), zap.String("user_id", userID))
	if res.ModifiedCount < res.MatchedCount {
		log.Debug("concurrent reader stamped some messages first",
			zap.Int64("matched", res.MatchedCount), zap.Int64("modified", res.ModifiedCount))
	}
	publish(ctx, s.events, log, RoutingConversationRead, ConversationReadEvent{
		ConversationID: conversationID,
		UserID:         userID,
		Modified:       res.ModifiedCount,
		ReadAt:         at,
	})
	return res, nil
}
