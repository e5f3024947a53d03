package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
)

const previewLimit = 50

// Service manages conversations and their append-only message logs. A
// conversation is unique per unordered participant pair plus optional
// job context; the pair is stored smaller id first to make the pair
// lookup deterministic.
type Service struct {
	db       *gorm.DB
	notifier notify.Creator
	logger   *slog.Logger
}

// NewService constructs the chat service.
func NewService(db *gorm.DB, notifier notify.Creator, logger *slog.Logger) *Service {
	return &Service{db: db, notifier: notifier, logger: logger}
}

func normalizePair(a, b uint) (uint, uint) {
	if a <= b {
		return a, b
	}
	return b, a
}

// GetOrCreate returns the conversation for the unordered user pair and
// optional job, creating it on first contact.
func (s *Service) GetOrCreate(ctx context.Context, userID, otherID uint, jobID *uint) (*database.Conversation, error) {
	smaller, larger := normalizePair(userID, otherID)

	query := s.db.WithContext(ctx).
		Where("user_a_id = ? AND user_b_id = ?", smaller, larger)
	if jobID != nil {
		query = query.Where("job_id = ?", *jobID)
	} else {
		query = query.Where("job_id IS NULL")
	}

	var conversation database.Conversation
	err := query.First(&conversation).Error
	switch {
	case err == nil:
		return &conversation, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		conversation = database.Conversation{
			UserAID:      smaller,
			UserBID:      larger,
			JobID:        jobID,
			LastActivity: time.Now(),
			IsActive:     true,
		}
		if err := s.db.WithContext(ctx).Create(&conversation).Error; err != nil {
			return nil, fmt.Errorf("create conversation: %w", err)
		}
		return &conversation, nil
	default:
		return nil, fmt.Errorf("query conversation: %w", err)
	}
}

// ListForUser returns the user's active conversations, most recently
// active first.
func (s *Service) ListForUser(ctx context.Context, userID uint) ([]database.Conversation, error) {
	var conversations []database.Conversation
	err := s.db.WithContext(ctx).
		Where("(user_a_id = ? OR user_b_id = ?) AND is_active = ?", userID, userID, true).
		Order("last_activity DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	return conversations, nil
}

// memberConversation loads a conversation and verifies the user is a
// participant.
func (s *Service) memberConversation(ctx context.Context, conversationID, userID uint) (*database.Conversation, error) {
	var conversation database.Conversation
	err := s.db.WithContext(ctx).
		Where("id = ? AND (user_a_id = ? OR user_b_id = ?)", conversationID, userID, userID).
		First(&conversation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: conversation not found or access denied", errcode.ErrNotFound)
		}
		return nil, fmt.Errorf("query conversation: %w", err)
	}
	return &conversation, nil
}

// Messages returns a conversation's messages in chronological order.
// The caller must be a participant.
func (s *Service) Messages(ctx context.Context, conversationID, userID uint) ([]database.Message, error) {
	if _, err := s.memberConversation(ctx, conversationID, userID); err != nil {
		return nil, err
	}

	var messages []database.Message
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Send appends a message, bumps the conversation's activity marker and
// notifies the recipient with a truncated preview. The notification is
// best-effort: its failure never loses the message.
func (s *Service) Send(ctx context.Context, conversationID, senderID uint, text string) (*database.Message, error) {
	conversation, err := s.memberConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	message := &database.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Text:           text,
		IsRead:         false,
	}
	if err := s.db.WithContext(ctx).Create(message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	if err := s.db.WithContext(ctx).Model(conversation).Updates(map[string]any{
		"last_activity":   time.Now(),
		"last_message_id": message.ID,
	}).Error; err != nil {
		s.logger.Warn("update conversation activity failed",
			slog.Uint64("conversation_id", uint64(conversationID)),
			slog.Any("error", err),
		)
	}

	recipientID := conversation.UserAID
	if recipientID == senderID {
		recipientID = conversation.UserBID
	}

	s.notifyBestEffort(ctx, recipientID, senderID, conversationID, message)

	return message, nil
}

func (s *Service) notifyBestEffort(ctx context.Context, recipientID, senderID, conversationID uint, message *database.Message) {
	if s.notifier == nil {
		return
	}

	senderName := "Someone"
	var sender database.User
	if err := s.db.WithContext(ctx).Select("id", "name", "company_name").First(&sender, senderID).Error; err == nil {
		if sender.CompanyName != "" {
			senderName = sender.CompanyName
		} else if sender.Name != "" {
			senderName = sender.Name
		}
	}

	_, err := s.notifier.Create(ctx, recipientID,
		"New Message",
		fmt.Sprintf("%s: %s", senderName, previewText(message.Text)),
		notify.TypeMessage,
		map[string]any{
			"conversationId": conversationID,
			"messageId":      message.ID,
			"senderId":       senderID,
		},
	)
	if err != nil {
		s.logger.Warn("create message notification failed",
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.Any("error", err),
		)
	}
}

// previewText truncates message text for the notification preview,
// appending an ellipsis when anything was cut.
func previewText(text string) string {
	runes := []rune(text)
	if len(runes) <= previewLimit {
		return text
	}
	return string(runes[:previewLimit]) + "..."
}

// MarkRead marks every message from the other participant as read.
func (s *Service) MarkRead(ctx context.Context, conversationID, userID uint) error {
	if _, err := s.memberConversation(ctx, conversationID, userID); err != nil {
		return err
	}

	now := time.Now()
	err := s.db.WithContext(ctx).
		Model(&database.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error
	if err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a conversation for both participants.
func (s *Service) Deactivate(ctx context.Context, conversationID, userID uint) error {
	conversation, err := s.memberConversation(ctx, conversationID, userID)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(conversation).Update("is_active", false).Error; err != nil {
		return fmt.Errorf("deactivate conversation: %w", err)
	}
	return nil
}
