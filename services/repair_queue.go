package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/metrics"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	RepairQueueName       = "relation_repair_queue"
	RepairKindRelation    = "relation"
	RepairKindLastMessage = "last_message"

	repairPopTimeout = 5 * time.Second
	repairBackoff    = time.Second
)

// ErrRepairSuperseded means a later transition changed the pair, so the
// owed write no longer belongs to the current state.
var ErrRepairSuperseded = errors.New("repair superseded")

// RepairTask is a write owed after a partial failure. Guards are the writes
// of the same transition that did land; the owed write is replayed only
// while all of them still hold.
type RepairTask struct {
	Kind           string             `json:"kind"`
	Mutation       *RelationMutation  `json:"mutation,omitempty"`
	Guards         []RelationMutation `json:"guards,omitempty"`
	ConversationID string            `json:"conversation_id,omitempty"`
	Attempts       int               `json:"attempts"`
}

type Repairer interface {
	Enqueue(ctx context.Context, task RepairTask) error
}

// RepairQueue keeps repair tasks in a Redis list drained by a worker pool.
type RepairQueue struct {
	client        redis.Cmdable
	relations     repository.RelationRepository
	messages      repository.MessageRepository
	conversations repository.ConversationRepository
	workers       int
	maxAttempts   int
	log           *zap.Logger
	wg            sync.WaitGroup
}

func NewRepairQueue(
	client redis.Cmdable,
	relations repository.RelationRepository,
	messages repository.MessageRepository,
	conversations repository.ConversationRepository,
	workers, maxAttempts int,
	log *zap.Logger,
) *RepairQueue {
	return &RepairQueue{
		client:        client,
		relations:     relations,
		messages:      messages,
		conversations: conversations,
		workers:       workers,
		maxAttempts:   maxAttempts,
		log:           logger.OrNop(log),
	}
}

func (q *RepairQueue) Enqueue(ctx context.Context, task RepairTask) error {
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal repair task: %w", err)
	}
	if err := q.client.RPush(ctx, RepairQueueName, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue repair task: %w", err)
	}
	metrics.RecordRepairTask(task.Kind, "enqueued")
	return nil
}

// StartWorkers launches the pool; workers stop when ctx is done. Use Wait to join them.
func (q *RepairQueue) StartWorkers(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
}

func (q *RepairQueue) Wait() {
	q.wg.Wait()
}

func (q *RepairQueue) worker(ctx context.Context, workerID int) {
	defer q.wg.Done()
	log := q.log.With(zap.Int("worker", workerID))
	log.Info("repair worker started")

	for {
		if ctx.Err() != nil {
			log.Info("repair worker stopping")
			return
		}

		result, err := q.client.BLPop(ctx, repairPopTimeout, RepairQueueName).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			log.Warn("failed to pop repair task", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(repairBackoff):
			}
			continue
		}
		if len(result) < 2 {
			continue
		}

		var task RepairTask
		if err := json.Unmarshal([]byte(result[1]), &task); err != nil {
			log.Error("dropping malformed repair task", zap.Error(err))
			continue
		}
		q.handle(ctx, log, task)
	}
}

func (q *RepairQueue) handle(ctx context.Context, log *zap.Logger, task RepairTask) {
	err := q.Process(ctx, task)
	if err == nil {
		metrics.RecordRepairTask(task.Kind, "applied")
		return
	}
	if errors.Is(err, ErrRepairSuperseded) {
		metrics.RecordRepairTask(task.Kind, "superseded")
		log.Info("repair task superseded", zap.Stringer("mutation", task.Mutation))
		return
	}

	task.Attempts++
	if task.Attempts >= q.maxAttempts {
		metrics.RecordRepairTask(task.Kind, "dropped")
		log.Error("repair task dropped", zap.String("kind", task.Kind), zap.Int("attempts", task.Attempts), zap.Error(err))
		return
	}
	metrics.RecordRepairTask(task.Kind, "retried")
	if err := q.Enqueue(context.WithoutCancel(ctx), task); err != nil {
		log.Error("failed to requeue repair task", zap.Error(err))
	}
}

// Process applies one task.
func (q *RepairQueue) Process(ctx context.Context, task RepairTask) error {
	switch task.Kind {
	case RepairKindRelation:
		if task.Mutation == nil {
			return fmt.Errorf("relation repair without mutation")
		}
		for _, guard := range task.Guards {
			ok, err := guard.Holds(ctx, q.relations)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s no longer holds", ErrRepairSuperseded, guard)
			}
		}
		return task.Mutation.Apply(ctx, q.relations)
	case RepairKindLastMessage:
		latest, err := q.messages.Latest(ctx, task.ConversationID)
		if err != nil {
			return err
		}
		return q.conversations.UpdateLastMessage(ctx, task.ConversationID, latest.ID)
	}
	return fmt.Errorf("unknown repair kind %q", task.Kind)
}

// Length reports how many tasks are waiting.
func (q *RepairQueue) Length(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, RepairQueueName).Result()
}
