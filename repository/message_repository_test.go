package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/huyvu-developer/chat-app-BE/models"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	orm           *gorm.DB
	messages      *GormMessageRepository
	conversations *GormConversationRepository
	sequencer     *GormSequencer
}

func newFixture(t *testing.T) *fixture {
	orm := newTestDB(t)
	return &fixture{
		orm:           orm,
		messages:      NewGormMessageRepository(orm),
		conversations: NewGormConversationRepository(orm),
		sequencer:     NewGormSequencer(orm),
	}
}

func (f *fixture) conversation(t *testing.T, members ...string) *models.Conversation {
	conv := &models.Conversation{ID: uuid.NewString()}
	for i, m := range members {
		conv.Members = append(conv.Members, models.ConversationMember{UserID: m, Position: i, JoinedAt: time.Now()})
	}
	require.NoError(t, f.conversations.Create(context.Background(), conv))
	return conv
}

func fakeContent() string {
	return gofakeit.FirstName() + " wrote from " + gofakeit.City()
}

func (f *fixture) send(t *testing.T, convID, sender string) *models.Message {
	ctx := context.Background()
	order, err := f.sequencer.Next(ctx, convID)
	require.NoError(t, err)
	msg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		SenderID:       sender,
		Content:        fakeContent(),
		Order:          order,
		ReadStatus:     []models.ReadStatusEntry{{UserID: sender, ReadAt: time.Now().UTC()}},
	}
	require.NoError(t, f.messages.Insert(ctx, msg))
	return msg
}

func TestMessageInsertAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t, "u1", "u2")

	m1 := f.send(t, conv.ID, "u1")
	m2 := f.send(t, conv.ID, "u2")

	got, err := f.messages.Get(ctx, m1.ID)
	require.NoError(t, err)
	require.Len(t, got.ReadStatus, 1)
	assert.Equal(t, "u1", got.ReadStatus[0].UserID)

	list, err := f.messages.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{m1.ID, m2.ID}, []string{list[0].ID, list[1].ID})
	assert.Equal(t, []int64{1, 2}, []int64{list[0].Order, list[1].Order})

	latest, err := f.messages.Latest(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, m2.ID, latest.ID)

	max, err := f.messages.MaxOrder(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), max)

	_, err = f.messages.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMessageDuplicateOrderRejected(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t, "u1")
	m := f.send(t, conv.ID, "u1")

	dup := &models.Message{ID: uuid.NewString(), ConversationID: conv.ID, SenderID: "u1", Content: "x", Order: m.Order}
	assert.ErrorIs(t, f.messages.Insert(context.Background(), dup), ErrStoreUnavailable)
}

func TestCountUnreadAndMarkRead(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	conv := f.conversation(t, "u1", "u2")

	f.send(t, conv.ID, "u1")
	f.send(t, conv.ID, "u2")
	f.send(t, conv.ID, "u1")

	n, err := f.messages.CountUnread(ctx, conv.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = f.messages.CountUnread(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	res, err := f.messages.MarkRead(ctx, conv.ID, "u2", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.ReadUpdateResult{MatchedCount: 2, ModifiedCount: 2}, res)

	n, err = f.messages.CountUnread(ctx, conv.ID, "u2")
	require.NoError(t, err)
	assert.Zero(t, n)

	res, err = f.messages.MarkRead(ctx, conv.ID, "u2", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, models.ReadUpdateResult{}, res)

	// an outsider has read nothing, including everybody's messages
	n, err = f.messages.CountUnread(ctx, conv.ID, "u3")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestGormSequencerConcurrent(t *testing.T) {
	f := newFixture(t)
	conv := f.conversation(t, "u1")

	const workers = 20
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = map[int64]bool{}
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq, err := f.sequencer.Next(context.Background(), conv.ID)
			assert.NoError(t, err)
			mu.Lock()
			seen[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.Len(t, seen, workers)
	for i := int64(1); i <= workers; i++ {
		assert.True(t, seen[i], "missing order %d", i)
	}

	_, err := f.sequencer.Next(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisSequencerSeedsFromFloor(t *testing.T) {
	client := newTestRedis(t)
	ctx := context.Background()
	convID := uuid.NewString()
	t.Cleanup(func() { client.Del(ctx, sequenceKeyPrefix+convID) })

	calls := 0
	seq := NewRedisSequencer(client, func(context.Context, string) (int64, error) {
		calls++
		return 41, nil
	})

	n, err := seq.Next(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), n)

	n, err = seq.Next(ctx, convID)
	require.NoError(t, err)
	assert.Equal(t, int64(43), n)
	assert.Equal(t, 1, calls)
}
