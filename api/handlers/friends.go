package handlers

import (
	"context"
	"net/http"

	"github.com/huyvu-developer/chat-app-BE/services"

	"github.com/gin-gonic/gin"
)

type friendTransition func(ctx context.Context, senderID, receiverID string) (*services.FriendOutcome, error)

func (h *Handlers) renderOutcome(c *gin.Context, out *services.FriendOutcome, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	if out.Applied() {
		c.JSON(http.StatusOK, out.Result)
		return
	}
	c.JSON(http.StatusOK, out.Failed)
}

// asSender runs a transition where the caller is the sender and the body names the receiver.
func (h *Handlers) asSender(c *gin.Context, transition friendTransition) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		ReceiverID string `json:"receiverId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := transition(c.Request.Context(), userID, req.ReceiverID)
	h.renderOutcome(c, out, err)
}

// RequestFriend sends a friend request, or cancels the caller's open one.
func (h *Handlers) RequestFriend(c *gin.Context) {
	h.asSender(c, h.friends.RequestFriend)
}

func (h *Handlers) Unfriend(c *gin.Context) {
	h.asSender(c, h.friends.Unfriend)
}

// AcceptFriend accepts the request the body's sender sent to the caller.
func (h *Handlers) AcceptFriend(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		SenderID string `json:"senderId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	out, err := h.friends.AcceptFriend(c.Request.Context(), req.SenderID, userID)
	h.renderOutcome(c, out, err)
}

func (h *Handlers) GetRelations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	relations, err := h.friends.Relations(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, relations)
}

func (h *Handlers) GetRelationship(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	rel, err := h.friends.Relationship(c.Request.Context(), userID, c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rel.View())
}
