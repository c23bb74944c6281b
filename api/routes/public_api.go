package routes

import (
	"github.com/huyvu-developer/chat-app-BE/api/handlers"
	"github.com/huyvu-developer/chat-app-BE/api/middleware"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine, h *handlers.Handlers) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/v1/")
	publicEndpoints.Use(middleware.AuthMiddleware())
	{
		// friends
		publicEndpoints.POST("friends/request", h.RequestFriend)
		publicEndpoints.POST("friends/accept", h.AcceptFriend)
		publicEndpoints.POST("friends/unfriend", h.Unfriend)
		publicEndpoints.GET("friends", h.GetRelations)
		publicEndpoints.GET("friends/:user_id/state", h.GetRelationship)

		// conversations
		publicEndpoints.POST("conversations", h.CreateConversation)
		publicEndpoints.GET("conversations", h.ListConversations)
		publicEndpoints.GET("conversations/:id", h.GetConversation)
		publicEndpoints.POST("conversations/:id/messages", h.SendMessage)
		publicEndpoints.GET("conversations/:id/messages", h.ListMessages)
		publicEndpoints.GET("conversations/:id/unread", h.CountUnread)
		publicEndpoints.POST("conversations/:id/read", h.MarkRead)
	}
	return publicEndpoints
}
