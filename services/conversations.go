package services

import (
	"context"
	"strings"
	"time"

	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/metrics"
	"github.com/huyvu-developer/chat-app-BE/models"
	"github.com/huyvu-developer/chat-app-BE/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// UnreadCounter is satisfied by ReadReceiptService.
type UnreadCounter interface {
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
}

// ConversationWithUnread is a conversation annotated with the caller's unread count.
type ConversationWithUnread struct {
	models.Conversation
	UnreadCount int64 `json:"unreadCount"`
}

type ConversationDirectory struct {
	conversations repository.ConversationRepository
	unread        UnreadCounter
	concurrency   int
	log           *zap.Logger
	now           func() time.Time
}

// NewConversationDirectory builds the directory. concurrency bounds the
// parallel unread counts of one listing; 0 means unbounded.
func NewConversationDirectory(conversations repository.ConversationRepository, unread UnreadCounter, concurrency int, log *zap.Logger) *ConversationDirectory {
	return &ConversationDirectory{
		conversations: conversations,
		unread:        unread,
		concurrency:   concurrency,
		log:           logger.OrNop(log),
		now:           time.Now,
	}
}

// ListForUser returns the user's conversations in repository order with
// unread counts computed concurrently.
func (d *ConversationDirectory) ListForUser(ctx context.Context, userID string) ([]ConversationWithUnread, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, invalidOperation("user is required")
	}
	start := d.now()

	convs, err := d.conversations.ListByMember(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ConversationWithUnread, len(convs))
	g, gctx := errgroup.WithContext(ctx)
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i := range convs {
		g.Go(func() error {
			n, err := d.unread.CountUnread(gctx, convs[i].ID, userID)
			if err != nil {
				return err
			}
			out[i] = ConversationWithUnread{Conversation: convs[i], UnreadCount: n}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RecordUnreadListing(d.now().Sub(start))
	return out, nil
}

// Create opens a conversation between members, in the given order with duplicates dropped.
func (d *ConversationDirectory) Create(ctx context.Context, members []string) (*models.Conversation, error) {
	now := d.now().UTC()
	conv := &models.Conversation{ID: uuid.NewString()}

	seen := make(map[string]bool, len(members))
	for _, m := range members {
		m = strings.TrimSpace(m)
		if m == "" {
			return nil, invalidOperation("member id must not be empty")
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		conv.Members = append(conv.Members, models.ConversationMember{
			UserID:   m,
			Position: len(conv.Members),
			JoinedAt: now,
		})
	}
	if len(conv.Members) == 0 {
		return nil, invalidOperation("a conversation needs at least one member")
	}

	if err := d.conversations.Create(ctx, conv); err != nil {
		return nil, err
	}
	d.log.Info("conversation created",
		zap.String("conversation_id", conv.ID),
		zap.Strings("members", conv.MemberIDs()),
	)
	return conv, nil
}

func (d *ConversationDirectory) Get(ctx context.Context, id string) (*models.Conversation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, invalidOperation("conversation id is required")
	}
	return d.conversations.Get(ctx, id)
}
