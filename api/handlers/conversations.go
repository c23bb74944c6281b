package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CreateConversation opens a conversation between the caller and the listed members.
func (h *Handlers) CreateConversation(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req struct {
		Members []string `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	conv, err := h.conversations.Create(c.Request.Context(), append([]string{userID}, req.Members...))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, conv)
}

// ListConversations returns the caller's conversations with unread counts.
func (h *Handlers) ListConversations(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	convs, err := h.conversations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": convs})
}

func (h *Handlers) GetConversation(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}
	conv, err := h.conversations.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}
