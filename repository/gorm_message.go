package repository

import (
	"context"
	"time"

	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const markReadBatchSize = 500

type GormMessageRepository struct {
	orm *gorm.DB
}

func NewGormMessageRepository(orm *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{orm: orm}
}

func preloadReadStatus(q *gorm.DB) *gorm.DB {
	return q.Preload("ReadStatus", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("read_at ASC, user_id ASC")
	})
}

// unreadFor selects the read entries userID holds on the outer messages row.
func (r *GormMessageRepository) unreadFor(userID string) *gorm.DB {
	return r.orm.Table("message_reads").
		Select("1").
		Where("message_reads.message_id = messages.id AND message_reads.user_id = ?", userID)
}

func (r *GormMessageRepository) Insert(ctx context.Context, msg *models.Message) error {
	err := db.GetWriteDB(ctx, r.orm).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(msg).Error; err != nil {
			return err
		}
		if len(msg.ReadStatus) == 0 {
			return nil
		}
		for i := range msg.ReadStatus {
			msg.ReadStatus[i].MessageID = msg.ID
		}
		return tx.Create(&msg.ReadStatus).Error
	})
	if err != nil {
		return storeErr("insert message", err)
	}
	return nil
}

func (r *GormMessageRepository) Get(ctx context.Context, id string) (*models.Message, error) {
	var msg models.Message
	err := preloadReadStatus(db.GetReadOnlyDB(ctx, r.orm)).
		Where("id = ?", id).
		First(&msg).Error
	if err != nil {
		return nil, storeErr("get message "+id, err)
	}
	return &msg, nil
}

func (r *GormMessageRepository) ListByConversation(ctx context.Context, conversationID string) ([]models.Message, error) {
	messages := []models.Message{}
	err := preloadReadStatus(db.GetReadOnlyDB(ctx, r.orm)).
		Where("conversation_id = ?", conversationID).
		Order("msg_order ASC").
		Find(&messages).Error
	if err != nil {
		return nil, storeErr("list messages", err)
	}
	return messages, nil
}

func (r *GormMessageRepository) Latest(ctx context.Context, conversationID string) (*models.Message, error) {
	var msg models.Message
	err := db.GetWriteDB(ctx, r.orm).
		Where("conversation_id = ?", conversationID).
		Order("msg_order DESC").
		First(&msg).Error
	if err != nil {
		return nil, storeErr("latest message", err)
	}
	return &msg, nil
}

func (r *GormMessageRepository) MaxOrder(ctx context.Context, conversationID string) (int64, error) {
	var max int64
	err := db.GetWriteDB(ctx, r.orm).
		Model(&models.Message{}).
		Where("conversation_id = ?", conversationID).
		Select("COALESCE(MAX(msg_order), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, storeErr("max order", err)
	}
	return max, nil
}

func (r *GormMessageRepository) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	var n int64
	err := db.GetReadOnlyDB(ctx, r.orm).
		Model(&models.Message{}).
		Where("conversation_id = ? AND sender_id <> ?", conversationID, userID).
		Where("NOT EXISTS (?)", r.unreadFor(userID)).
		Count(&n).Error
	if err != nil {
		return 0, storeErr("count unread", err)
	}
	return n, nil
}

func (r *GormMessageRepository) MarkRead(ctx context.Context, conversationID, userID string, at time.Time) (models.ReadUpdateResult, error) {
	var result models.ReadUpdateResult
	err := db.GetWriteDB(ctx, r.orm).Transaction(func(tx *gorm.DB) error {
		var ids []string
		err := tx.Model(&models.Message{}).
			Where("conversation_id = ?", conversationID).
			Where("NOT EXISTS (?)", r.unreadFor(userID)).
			Order("msg_order ASC").
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		result.MatchedCount = int64(len(ids))
		if len(ids) == 0 {
			return nil
		}

		entries := make([]models.ReadStatusEntry, 0, len(ids))
		for _, id := range ids {
			entries = append(entries, models.ReadStatusEntry{MessageID: id, UserID: userID, ReadAt: at})
		}
		// A concurrent reader may have inserted some entries already; those rows are skipped.
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).CreateInBatches(&entries, markReadBatchSize)
		if res.Error != nil {
			return res.Error
		}
		result.ModifiedCount = res.RowsAffected
		return nil
	})
	if err != nil {
		return models.ReadUpdateResult{}, storeErr("mark read", err)
	}
	return result, nil
}
