package handlers

import (
	"errors"
	"net/http"

	"github.com/huyvu-developer/chat-app-BE/api/middleware"
	"github.com/huyvu-developer/chat-app-BE/logger"
	"github.com/huyvu-developer/chat-app-BE/repository"
	"github.com/huyvu-developer/chat-app-BE/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	friends       *services.FriendService
	messages      *services.MessageLedger
	receipts      *services.ReadReceiptService
	conversations *services.ConversationDirectory
	log           *zap.Logger
}

func New(
	friends *services.FriendService,
	messages *services.MessageLedger,
	receipts *services.ReadReceiptService,
	conversations *services.ConversationDirectory,
	log *zap.Logger,
) *Handlers {
	return &Handlers{
		friends:       friends,
		messages:      messages,
		receipts:      receipts,
		conversations: conversations,
		log:           logger.OrNop(log),
	}
}

func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	}
	return userID, ok
}

// respondError maps service errors to status codes. Partial mutations are
// checked before store errors because they wrap one.
func (h *Handlers) respondError(c *gin.Context, err error) {
	var perr *services.PartialMutationError
	switch {
	case errors.Is(err, services.ErrInvalidOperation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &perr):
		failed := make([]string, 0, len(perr.Failed))
		for _, m := range perr.Failed {
			failed = append(failed, m.String())
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":     "operation partially applied",
			"operation": perr.Operation,
			"pending":   failed,
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrStoreUnavailable):
		h.log.Error("store unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
	default:
		h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
