package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/huyvu-developer/chat-app-BE/api/handlers"
	"github.com/huyvu-developer/chat-app-BE/db"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"
	"github.com/huyvu-developer/chat-app-BE/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupRouter(t *testing.T) *gin.Engine {
	t.Helper()
	orm, err := db.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(orm))
	t.Cleanup(func() {
		if sqlDB, err := orm.DB(); err == nil {
			sqlDB.Close()
		}
	})

	log := zap.NewNop()
	relations := repository.NewGormRelationRepository(orm)
	messages := repository.NewGormMessageRepository(orm)
	conversations := repository.NewGormConversationRepository(orm)
	receipts := services.NewReadReceiptService(messages, nil, log)

	h := handlers.New(
		services.NewFriendService(relations, nil, nil, log),
		services.NewMessageLedger(messages, conversations, repository.NewGormSequencer(orm), nil, nil, log),
		receipts,
		services.NewConversationDirectory(conversations, receipts, 4, log),
		log,
	)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	PublicApi(r, h)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, userID string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
	}
	return w.Code
}

func TestFriendshipEndpoints(t *testing.T) {
	r := setupRouter(t)

	var failed models.FailedResult
	code := doJSON(t, r, http.MethodPost, "/api/v1/friends/accept", "bob", gin.H{"senderId": "alice"}, &failed)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.FailedResult{Status: "Failed", Message: "No pending request found"}, failed)

	var result models.FriendshipResult
	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/request", "alice", gin.H{"receiverId": "bob"}, &result)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.FriendshipResult{SenderID: "alice", ReceiverID: "bob", Action: "Send friend request"}, result)

	var view services.RelationshipView
	code = doJSON(t, r, http.MethodGet, "/api/v1/friends/alice/state", "bob", nil, &view)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, services.StateRequested, view.State)
	assert.Equal(t, "alice", view.RequestedBy)

	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/accept", "bob", gin.H{"senderId": "alice"}, &result)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Accept friend request", result.Action)

	var relations models.UserRelations
	code = doJSON(t, r, http.MethodGet, "/api/v1/friends", "alice", nil, &relations)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"bob"}, relations.Friends)
	assert.Empty(t, relations.SentRequests)

	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/unfriend", "alice", gin.H{"receiverId": "bob"}, &result)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Unfriend", result.Action)

	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/unfriend", "alice", gin.H{"receiverId": "bob"}, &failed)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Not friends yet", failed.Message)
}

func TestFriendshipEndpointErrors(t *testing.T) {
	r := setupRouter(t)

	code := doJSON(t, r, http.MethodPost, "/api/v1/friends/request", "alice", gin.H{"receiverId": "alice"}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/request", "alice", gin.H{}, nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code = doJSON(t, r, http.MethodPost, "/api/v1/friends/request", "", gin.H{"receiverId": "bob"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestConversationEndpoints(t *testing.T) {
	r := setupRouter(t)

	var conv models.Conversation
	code := doJSON(t, r, http.MethodPost, "/api/v1/conversations", "u1", gin.H{"members": []string{"u2"}}, &conv)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, []string{"u1", "u2"}, conv.MemberIDs())

	base := "/api/v1/conversations/" + conv.ID
	for _, sender := range []string{"u1", "u2", "u1"} {
		var msg models.Message
		code = doJSON(t, r, http.MethodPost, base+"/messages", sender, gin.H{"content": "hi from " + sender}, &msg)
		require.Equal(t, http.StatusCreated, code)
		require.Len(t, msg.ReadStatus, 1)
		assert.Equal(t, sender, msg.ReadStatus[0].UserID)
	}

	var unread struct {
		UnreadCount int64 `json:"unreadCount"`
	}
	code = doJSON(t, r, http.MethodGet, base+"/unread", "u2", nil, &unread)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, int64(2), unread.UnreadCount)

	var listing struct {
		Conversations []services.ConversationWithUnread `json:"conversations"`
	}
	code = doJSON(t, r, http.MethodGet, "/api/v1/conversations", "u2", nil, &listing)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, listing.Conversations, 1)
	assert.Equal(t, conv.ID, listing.Conversations[0].ID)
	assert.Equal(t, int64(2), listing.Conversations[0].UnreadCount)
	require.NotNil(t, listing.Conversations[0].LastMessageID)

	var res models.ReadUpdateResult
	code = doJSON(t, r, http.MethodPost, base+"/read", "u2", nil, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, models.ReadUpdateResult{MatchedCount: 2, ModifiedCount: 2}, res)

	code = doJSON(t, r, http.MethodPost, base+"/read", "u2", nil, &res)
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, res.ModifiedCount)

	var page struct {
		Messages []models.Message `json:"messages"`
	}
	code = doJSON(t, r, http.MethodGet, base+"/messages", "u2", nil, &page)
	assert.Equal(t, http.StatusOK, code)
	require.Len(t, page.Messages, 3)
	for i, m := range page.Messages {
		assert.Equal(t, int64(i+1), m.Order)
	}

	code = doJSON(t, r, http.MethodGet, "/api/v1/conversations/missing", "u2", nil, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code = doJSON(t, r, http.MethodPost, "/api/v1/conversations/missing/messages", "u2", gin.H{"content": "x"}, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
