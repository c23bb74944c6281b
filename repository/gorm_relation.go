package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GormRelationRepository struct {
	orm *gorm.DB
}

func NewGormRelationRepository(orm *gorm.DB) *GormRelationRepository {
	return &GormRelationRepository{orm: orm}
}

func (r *GormRelationRepository) AddToSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown relation field %q", field)
	}
	rel := models.UserRelation{UserID: userID, Field: field, TargetID: value, CreatedAt: time.Now().UTC()}
	err := db.GetWriteDB(ctx, r.orm).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rel).Error
	if err != nil {
		return storeErr("add to "+string(field), err)
	}
	return nil
}

func (r *GormRelationRepository) RemoveFromSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	err := db.GetWriteDB(ctx, r.orm).
		Where("user_id = ? AND field = ? AND target_id = ?", userID, field, value).
		Delete(&models.UserRelation{}).Error
	if err != nil {
		return storeErr("remove from "+string(field), err)
	}
	return nil
}

// Contains and Fields read from the master: they guard state transitions and
// must not see replica lag.
func (r *GormRelationRepository) Contains(ctx context.Context, userID string, field models.RelationField, value string) (bool, error) {
	var n int64
	err := db.GetWriteDB(ctx, r.orm).
		Model(&models.UserRelation{}).
		Where("user_id = ? AND field = ? AND target_id = ?", userID, field, value).
		Count(&n).Error
	if err != nil {
		return false, storeErr("check "+string(field), err)
	}
	return n > 0, nil
}

func (r *GormRelationRepository) Fields(ctx context.Context, userID, value string) ([]models.RelationField, error) {
	var fields []models.RelationField
	err := db.GetWriteDB(ctx, r.orm).
		Model(&models.UserRelation{}).
		Where("user_id = ? AND target_id = ?", userID, value).
		Pluck("field", &fields).Error
	if err != nil {
		return nil, storeErr("load relation fields", err)
	}
	return fields, nil
}

func (r *GormRelationRepository) Members(ctx context.Context, userID string, field models.RelationField) ([]string, error) {
	members := []string{}
	err := db.GetReadOnlyDB(ctx, r.orm).
		Model(&models.UserRelation{}).
		Where("user_id = ? AND field = ?", userID, field).
		Order("created_at ASC, target_id ASC").
		Pluck("target_id", &members).Error
	if err != nil {
		return nil, storeErr("list "+string(field), err)
	}
	return members, nil
}
