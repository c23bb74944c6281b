package repository

import (
	"context"

	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/models"

	"gorm.io/gorm"
)

type GormConversationRepository struct {
	orm *gorm.DB
}

func NewGormConversationRepository(orm *gorm.DB) *GormConversationRepository {
	return &GormConversationRepository{orm: orm}
}

func preloadMembers(q *gorm.DB) *gorm.DB {
	return q.Preload("Members", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("position ASC")
	})
}

func (r *GormConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	if err := db.GetWriteDB(ctx, r.orm).Create(conv).Error; err != nil {
		return storeErr("create conversation", err)
	}
	return nil
}

func (r *GormConversationRepository) Get(ctx context.Context, id string) (*models.Conversation, error) {
	var conv models.Conversation
	err := preloadMembers(db.GetReadOnlyDB(ctx, r.orm)).
		Where("id = ?", id).
		First(&conv).Error
	if err != nil {
		return nil, storeErr("get conversation "+id, err)
	}
	return &conv, nil
}

func (r *GormConversationRepository) ListByMember(ctx context.Context, userID string) ([]models.Conversation, error) {
	convs := []models.Conversation{}
	membership := r.orm.Model(&models.ConversationMember{}).
		Select("conversation_id").
		Where("user_id = ?", userID)
	err := preloadMembers(db.GetReadOnlyDB(ctx, r.orm)).
		Where("id IN (?)", membership).
		Order("created_at ASC, id ASC").
		Find(&convs).Error
	if err != nil {
		return nil, storeErr("list conversations", err)
	}
	return convs, nil
}

func (r *GormConversationRepository) UpdateLastMessage(ctx context.Context, conversationID, messageID string) error {
	res := db.GetWriteDB(ctx, r.orm).
		Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_id", messageID)
	if res.Error != nil {
		return storeErr("update last message", res.Error)
	}
	if res.RowsAffected == 0 {
		return storeErr("update last message", gorm.ErrRecordNotFound)
	}
	return nil
}

// GormSequencer keeps the counter on the conversation row. The UPDATE holds
// the row lock until commit, so concurrent callers are serialized.
type GormSequencer struct {
	orm *gorm.DB
}

func NewGormSequencer(orm *gorm.DB) *GormSequencer {
	return &GormSequencer{orm: orm}
}

func (s *GormSequencer) Next(ctx context.Context, conversationID string) (int64, error) {
	var seq int64
	err := db.GetWriteDB(ctx, s.orm).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			UpdateColumn("message_seq", gorm.Expr("message_seq + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", conversationID).
			Select("message_seq").
			Scan(&seq).Error
	})
	if err != nil {
		return 0, storeErr("next order for "+conversationID, err)
	}
	return seq, nil
}
