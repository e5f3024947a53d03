package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/chat"
)

// MessageHandler serves conversations and messages.
type MessageHandler struct {
	chat *chat.Service
}

// NewMessageHandler constructs the handler.
func NewMessageHandler(chatService *chat.Service) *MessageHandler {
	return &MessageHandler{chat: chatService}
}

// ListConversations returns the caller's active conversations.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	conversations, err := h.chat.ListForUser(c.Request.Context(), userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, conversations)
}

type openConversationRequest struct {
	UserID uint  `json:"user_id" binding:"required"`
	JobID  *uint `json:"job_id"`
}

// OpenConversation returns the conversation with another user, creating
// it on first contact.
func (h *MessageHandler) OpenConversation(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req openConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.UserID == userID {
		BadRequest(c, "cannot open a conversation with yourself")
		return
	}

	conversation, err := h.chat.GetOrCreate(c.Request.Context(), userID, req.UserID, req.JobID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, conversation)
}

// Messages returns a conversation's messages in order.
func (h *MessageHandler) Messages(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid conversation id")
		return
	}

	messages, err := h.chat.Messages(c.Request.Context(), id, userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

type sendMessageRequest struct {
	Text string `json:"text" binding:"required,max=4000"`
}

// Send appends a message to a conversation.
func (h *MessageHandler) Send(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid conversation id")
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	message, err := h.chat.Send(c.Request.Context(), id, userID, req.Text)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// MarkRead marks the other participant's messages as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), id, userID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// Deactivate soft-deletes a conversation.
func (h *MessageHandler) Deactivate(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid conversation id")
		return
	}

	if err := h.chat.Deactivate(c.Request.Context(), id, userID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
