package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

type recordedNotification struct {
	UserID  uint
	Title   string
	Message string
	Type    string
}

type fakeNotifier struct {
	created []recordedNotification
	err     error
}

func (f *fakeNotifier) Create(_ context.Context, userID uint, title, message, ntype string, _ map[string]any) (*database.Notification, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, recordedNotification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Type:    ntype,
	})
	return &database.Notification{UserID: userID, Title: title}, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(
		&database.User{},
		&database.Conversation{},
		&database.Message{},
		&database.Notification{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestGetOrCreateNormalizesPairOrder(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeNotifier{}, slog.Default())

	first, err := svc.GetOrCreate(context.Background(), 5, 3, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}
	if first.UserAID != 3 || first.UserBID != 5 {
		t.Errorf("pair = (%d, %d), want (3, 5)", first.UserAID, first.UserBID)
	}

	second, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create reversed: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("reversed pair created a new conversation: %d vs %d", second.ID, first.ID)
	}
}

func TestJobScopedConversationsAreDistinct(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeNotifier{}, slog.Default())

	plain, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("plain: %v", err)
	}

	jobID := uint(7)
	scoped, err := svc.GetOrCreate(context.Background(), 3, 5, &jobID)
	if err != nil {
		t.Fatalf("scoped: %v", err)
	}

	if plain.ID == scoped.ID {
		t.Error("job-scoped conversation reused the unscoped one")
	}
}

func TestSendNotifiesRecipientWithPreview(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	svc := NewService(db, notifier, slog.Default())

	conversation, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	long := strings.Repeat("a", 80)
	if _, err := svc.Send(context.Background(), conversation.ID, 3, long); err != nil {
		t.Fatalf("send: %v", err)
	}

	if len(notifier.created) != 1 {
		t.Fatalf("notifications = %d, want 1", len(notifier.created))
	}
	got := notifier.created[0]
	if got.UserID != 5 {
		t.Errorf("recipient = %d, want 5", got.UserID)
	}
	if !strings.HasSuffix(got.Message, "...") {
		t.Errorf("preview %q not truncated", got.Message)
	}
	if strings.Contains(got.Message, long) {
		t.Error("preview contains the full message text")
	}
}

func TestSendSurvivesNotifierFailure(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{err: errors.New("redis down")}
	svc := NewService(db, notifier, slog.Default())

	conversation, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	message, err := svc.Send(context.Background(), conversation.ID, 3, "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if message.ID == 0 {
		t.Fatal("message was not persisted")
	}

	messages, err := svc.Messages(context.Background(), conversation.ID, 5)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if len(messages) != 1 || messages[0].Text != "hello" {
		t.Errorf("messages = %+v, want the sent message", messages)
	}
}

func TestSendRequiresMembership(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeNotifier{}, slog.Default())

	conversation, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	_, err = svc.Send(context.Background(), conversation.ID, 99, "intruding")
	if !errors.Is(err, errcode.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMarkReadOnlyTouchesOtherSendersMessages(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeNotifier{}, slog.Default())

	conversation, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	if _, err := svc.Send(context.Background(), conversation.ID, 3, "from 3"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if _, err := svc.Send(context.Background(), conversation.ID, 5, "from 5"); err != nil {
		t.Fatalf("send: %v", err)
	}

	if err := svc.MarkRead(context.Background(), conversation.ID, 5); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	messages, err := svc.Messages(context.Background(), conversation.ID, 5)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	for _, message := range messages {
		read := message.IsRead
		fromOther := message.SenderID != 5
		if fromOther && !read {
			t.Errorf("message from %d still unread", message.SenderID)
		}
		if !fromOther && read {
			t.Errorf("own message was marked read")
		}
	}
}

func TestDeactivateHidesConversation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, &fakeNotifier{}, slog.Default())

	conversation, err := svc.GetOrCreate(context.Background(), 3, 5, nil)
	if err != nil {
		t.Fatalf("get or create: %v", err)
	}

	if err := svc.Deactivate(context.Background(), conversation.ID, 3); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	conversations, err := svc.ListForUser(context.Background(), 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(conversations) != 0 {
		t.Errorf("conversations = %+v, want none", conversations)
	}
}
