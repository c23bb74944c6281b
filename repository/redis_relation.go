package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/huyvu-developer/chat-app-BE/models"

	"github.com/go-redis/redis/v8"
)

const relationKeyPrefix = "relations:"

// RedisRelationRepository keeps each relationship set as a Redis set, so
// SADD/SREM give the same field-scoped set semantics as the SQL rows.
type RedisRelationRepository struct {
	client redis.Cmdable
}

func NewRedisRelationRepository(client redis.Cmdable) *RedisRelationRepository {
	return &RedisRelationRepository{client: client}
}

func relationKey(userID string, field models.RelationField) string {
	return fmt.Sprintf("%s%s:%s", relationKeyPrefix, userID, field)
}

func (r *RedisRelationRepository) AddToSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("unknown relation field %q", field)
	}
	if err := r.client.SAdd(ctx, relationKey(userID, field), value).Err(); err != nil {
		return storeErr("add to "+string(field), err)
	}
	return nil
}

func (r *RedisRelationRepository) RemoveFromSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	if err := r.client.SRem(ctx, relationKey(userID, field), value).Err(); err != nil {
		return storeErr("remove from "+string(field), err)
	}
	return nil
}

func (r *RedisRelationRepository) Contains(ctx context.Context, userID string, field models.RelationField, value string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, relationKey(userID, field), value).Result()
	if err != nil {
		return false, storeErr("check "+string(field), err)
	}
	return ok, nil
}

func (r *RedisRelationRepository) Fields(ctx context.Context, userID, value string) ([]models.RelationField, error) {
	pipe := r.client.Pipeline()
	cmds := make(map[models.RelationField]*redis.BoolCmd, len(models.RelationFields))
	for _, f := range models.RelationFields {
		cmds[f] = pipe.SIsMember(ctx, relationKey(userID, f), value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, storeErr("load relation fields", err)
	}

	var fields []models.RelationField
	for _, f := range models.RelationFields {
		if cmds[f].Val() {
			fields = append(fields, f)
		}
	}
	return fields, nil
}

func (r *RedisRelationRepository) Members(ctx context.Context, userID string, field models.RelationField) ([]string, error) {
	members, err := r.client.SMembers(ctx, relationKey(userID, field)).Result()
	if err != nil {
		return nil, storeErr("list "+string(field), err)
	}
	// Redis sets are unordered.
	sort.Strings(members)
	return members, nil
}
