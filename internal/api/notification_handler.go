package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/notify"
)

// NotificationHandler serves the stored notification feed.
type NotificationHandler struct {
	notifications *notify.Service
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(notifications *notify.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List returns the caller's notifications, newest first.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	notifications, err := h.notifications.ListForUser(c.Request.Context(), userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// UnreadCount returns the caller's unread notification count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// MarkAllRead marks every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusOK)
}

// Delete removes one notification.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid notification id")
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), userID, id); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Clear removes all of the caller's notifications.
func (h *NotificationHandler) Clear(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	if err := h.notifications.Clear(c.Request.Context(), userID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
