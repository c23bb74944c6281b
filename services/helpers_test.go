package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	orm           *gorm.DB
	relations     *repository.GormRelationRepository
	messages      *repository.GormMessageRepository
	conversations *repository.GormConversationRepository
	sequencer     *repository.GormSequencer
	events        *recordingPublisher
	repairs       *recordingRepairer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	orm, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(orm))
	t.Cleanup(func() {
		if sqlDB, err := orm.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return &testEnv{
		orm:           orm,
		relations:     repository.NewGormRelationRepository(orm),
		messages:      repository.NewGormMessageRepository(orm),
		conversations: repository.NewGormConversationRepository(orm),
		sequencer:     repository.NewGormSequencer(orm),
		events:        &recordingPublisher{},
		repairs:       &recordingRepairer{},
	}
}

// repairQueue returns a queue usable for Process only; it has no Redis client.
func (e *testEnv) repairQueue() *RepairQueue {
	return NewRepairQueue(nil, e.relations, e.messages, e.conversations, 1, 3, zap.NewNop())
}

type publishedEvent struct {
	routingKey string
	event      any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{routingKey: routingKey, event: event})
	return p.err
}

func (p *recordingPublisher) keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.events))
	for _, e := range p.events {
		keys = append(keys, e.routingKey)
	}
	return keys
}

type recordingRepairer struct {
	mu    sync.Mutex
	tasks []RepairTask
}

func (r *recordingRepairer) Enqueue(_ context.Context, task RepairTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, task)
	return nil
}

func (r *recordingRepairer) all() []RepairTask {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RepairTask(nil), r.tasks...)
}

var errInjected = fmt.Errorf("%w: injected failure", repository.ErrStoreUnavailable)

// flakyRelations fails every write to the records of the listed users.
type flakyRelations struct {
	repository.RelationRepository
	failFor map[string]bool
}

func (f *flakyRelations) AddToSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	if f.failFor[userID] {
		return errInjected
	}
	return f.RelationRepository.AddToSet(ctx, userID, field, value)
}

func (f *flakyRelations) RemoveFromSet(ctx context.Context, userID string, field models.RelationField, value string) error {
	if f.failFor[userID] {
		return errInjected
	}
	return f.RelationRepository.RemoveFromSet(ctx, userID, field, value)
}

// brokenPointer fails every last-message update.
type brokenPointer struct {
	repository.ConversationRepository
}

func (brokenPointer) UpdateLastMessage(context.Context, string, string) error {
	return errInjected
}

func fakeContent() string {
	return gofakeit.FirstName() + " is in " + gofakeit.City()
}
