package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

// Notification types used across the platform.
const (
	TypeApplication = "application"
	TypeInterview   = "interview"
	TypeMessage     = "message"
)

// Creator is the side-effecting primitive other services call when a
// workflow transition or chat message should notify a user. Callers must
// treat it as best-effort: a failure here never fails the primary
// operation.
type Creator interface {
	Create(ctx context.Context, userID uint, title, message, ntype string, data map[string]any) (*database.Notification, error)
}

// Service persists notifications and pushes them to connected websocket
// clients over redis pub/sub.
type Service struct {
	db          *gorm.DB
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewService constructs the notification service. redisClient may be nil,
// in which case realtime push is skipped.
func NewService(db *gorm.DB, redisClient *redis.Client, logger *slog.Logger) *Service {
	return &Service{db: db, redisClient: redisClient, logger: logger}
}

// Channel returns the redis pub/sub channel for a user's realtime stream.
func Channel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// Create persists a notification and publishes it for realtime delivery.
// A publish failure is logged only; the stored notification is the source
// of truth.
func (s *Service) Create(ctx context.Context, userID uint, title, message, ntype string, data map[string]any) (*database.Notification, error) {
	var dataJSON datatypes.JSON
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal notification data: %w", err)
		}
		dataJSON = datatypes.JSON(raw)
	}

	notification := &database.Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
		Data:    dataJSON,
		IsRead:  false,
	}

	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	s.publish(ctx, notification)

	return notification, nil
}

func (s *Service) publish(ctx context.Context, n *database.Notification) {
	if s.redisClient == nil {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"id":      n.ID,
		"title":   n.Title,
		"message": n.Message,
		"type":    n.Type,
	})
	if err != nil {
		return
	}

	if err := s.redisClient.Publish(ctx, Channel(n.UserID), payload).Err(); err != nil {
		s.logger.Warn("publish notification failed",
			slog.Uint64("user_id", uint64(n.UserID)),
			slog.Any("error", err),
		)
	}
}

// ListForUser returns a user's notifications, newest first, capped at 100.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]database.Notification, error) {
	var notifications []database.Notification
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount returns the number of unread notifications for a user.
func (s *Service) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID uint) error {
	res := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %d", errcode.ErrNotFound, notificationID)
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *Service) MarkAllRead(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Model(&database.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// Delete removes one of the user's notifications.
func (s *Service) Delete(ctx context.Context, userID, notificationID uint) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Delete(&database.Notification{})
	if res.Error != nil {
		return fmt.Errorf("delete notification: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification %d", errcode.ErrNotFound, notificationID)
	}
	return nil
}

// Clear removes all notifications of the user.
func (s *Service) Clear(ctx context.Context, userID uint) error {
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&database.Notification{}).Error
	if err != nil {
		return fmt.Errorf("clear notifications: %w", err)
	}
	return nil
}
