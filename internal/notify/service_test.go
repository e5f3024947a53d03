package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Notification{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(db, nil, slog.Default()), db
}

func TestCreatePersistsWithoutRedis(t *testing.T) {
	svc, db := newTestService(t)

	created, err := svc.Create(context.Background(), 7, "Interview Scheduled!", "tomorrow at 10", TypeInterview,
		map[string]any{"interviewId": 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var reloaded database.Notification
	if err := db.First(&reloaded, created.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.UserID != 7 || reloaded.Type != TypeInterview || reloaded.IsRead {
		t.Errorf("notification = %+v", reloaded)
	}
}

func TestUnreadCountAndMarkRead(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, 7, "a", "a", TypeApplication, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, 7, "b", "b", TypeApplication, nil); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := svc.UnreadCount(ctx, 7)
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if count != 2 {
		t.Errorf("unread = %d, want 2", count)
	}

	if err := svc.MarkRead(ctx, 7, first.ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, 7)
	if count != 1 {
		t.Errorf("unread after mark = %d, want 1", count)
	}

	if err := svc.MarkAllRead(ctx, 7); err != nil {
		t.Fatalf("mark all read: %v", err)
	}
	count, _ = svc.UnreadCount(ctx, 7)
	if count != 0 {
		t.Errorf("unread after mark all = %d, want 0", count)
	}
}

func TestMarkReadIsScopedToOwner(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, 7, "a", "a", TypeMessage, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	err = svc.MarkRead(ctx, 8, created.ID)
	if !errors.Is(err, errcode.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, 7, "a", "a", TypeMessage, nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Clear(ctx, 7); err != nil {
		t.Fatalf("clear: %v", err)
	}

	list, err := svc.ListForUser(ctx, 7)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("list = %+v, want empty", list)
	}
}
