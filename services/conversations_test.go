package services

import (
	"context"
	"testing"

	"github.com/huyvu-developer/chat-app-BE/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestListForUser(t *testing.T) {
	env := newTestEnv(t)
	ledger := newLedger(env)
	receipts := NewReadReceiptService(env.messages, nil, nil)
	ctx := context.Background()

	c1 := newConversation(t, env, "u1", "u2")
	c2 := newConversation(t, env, "u2", "u3")
	c3 := newConversation(t, env, "u1", "u3")

	send(t, ledger, c1.ID, "u1")
	send(t, ledger, c1.ID, "u1")
	send(t, ledger, c2.ID, "u2")
	send(t, ledger, c2.ID, "u3")
	send(t, ledger, c3.ID, "u1")

	for _, limit := range []int{0, 1} {
		dir := NewConversationDirectory(env.conversations, receipts, limit, zap.NewNop())
		list, err := dir.ListForUser(ctx, "u2")
		require.NoError(t, err)
		require.Len(t, list, 2)

		counts := map[string]int64{}
		for _, c := range list {
			assert.True(t, c.HasMember("u2"))
			assert.GreaterOrEqual(t, c.UnreadCount, int64(0))
			want, err := receipts.CountUnread(ctx, c.ID, "u2")
			require.NoError(t, err)
			assert.Equal(t, want, c.UnreadCount)
			counts[c.ID] = c.UnreadCount
		}
		assert.Equal(t, map[string]int64{c1.ID: 2, c2.ID: 1}, counts)
	}

	dir := NewConversationDirectory(env.conversations, receipts, 0, nil)
	list, err := dir.ListForUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreateConversation(t *testing.T) {
	env := newTestEnv(t)
	dir := NewConversationDirectory(env.conversations, nil, 0, nil)
	ctx := context.Background()

	conv, err := dir.Create(ctx, []string{"u2", "u1", "u2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1"}, conv.MemberIDs())

	got, err := dir.Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2", "u1"}, got.MemberIDs())

	_, err = dir.Create(ctx, nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)
	_, err = dir.Create(ctx, []string{"u1", " "})
	assert.ErrorIs(t, err, ErrInvalidOperation)

	_, err = dir.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
