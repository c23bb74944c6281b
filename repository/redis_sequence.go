package repository

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const sequenceKeyPrefix = "conversation_seq:"

// Returns -1 when the counter is missing and no floor was supplied, so the
// caller can look the floor up and retry.
var nextSequenceScript = redis.NewScript(`
	local key = KEYS[1]
	local floor = tonumber(ARGV[1])

	if redis.call('EXISTS', key) == 0 then
		if floor < 0 then
			return -1
		end
		redis.call('SET', key, floor)
	end

	return redis.call('INCR', key)
`)

// FloorFunc returns the highest order already persisted for a conversation.
type FloorFunc func(ctx context.Context, conversationID string) (int64, error)

// RedisSequencer hands out orders with INCR. A missing counter (new
// conversation or flushed Redis) is seeded from the persisted maximum so
// orders never go backwards.
type RedisSequencer struct {
	client redis.Cmdable
	floor  FloorFunc
}

func NewRedisSequencer(client redis.Cmdable, floor FloorFunc) *RedisSequencer {
	return &RedisSequencer{client: client, floor: floor}
}

func (s *RedisSequencer) Next(ctx context.Context, conversationID string) (int64, error) {
	key := sequenceKeyPrefix + conversationID

	seq, err := nextSequenceScript.Run(ctx, s.client, []string{key}, -1).Int64()
	if err != nil {
		return 0, storeErr("next order for "+conversationID, err)
	}
	if seq >= 0 {
		return seq, nil
	}

	floor, err := s.floor(ctx, conversationID)
	if err != nil {
		return 0, fmt.Errorf("seed order for %s: %w", conversationID, err)
	}
	seq, err = nextSequenceScript.Run(ctx, s.client, []string{key}, floor).Int64()
	if err != nil {
		return 0, storeErr("next order for "+conversationID, err)
	}
	return seq, nil
}
