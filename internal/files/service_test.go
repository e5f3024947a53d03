package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/tasks"
)

type fakeStore struct {
	uploaded map[string][]byte
	deleted  []string
	delErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploaded: map[string][]byte{}}
}

func (s *fakeStore) UploadFile(_ context.Context, objectName string, reader io.Reader, _ int64, _ string) (*minio.UploadInfo, error) {
	content, _ := io.ReadAll(reader)
	s.uploaded[objectName] = content
	return &minio.UploadInfo{Key: objectName}, nil
}

func (s *fakeStore) DeleteObject(_ context.Context, objectKey string) error {
	s.deleted = append(s.deleted, objectKey)
	if s.delErr != nil {
		return s.delErr
	}
	delete(s.uploaded, objectKey)
	return nil
}

type fakeQueue struct {
	enqueued []*asynq.Task
	err      error
}

func (q *fakeQueue) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.enqueued = append(q.enqueued, task)
	return &asynq.TaskInfo{}, nil
}

type fakeLetterWriter struct {
	letter string
	calls  int
}

func (w *fakeLetterWriter) GenerateCoverLetter(context.Context, *ai.StructuredCV, ai.JobInfo) (string, error) {
	w.calls++
	return w.letter, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.CVRecord{}, &database.Job{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newFixture(t *testing.T) (*Service, *fakeStore, *fakeQueue, *fakeLetterWriter, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	store := newFakeStore()
	queue := &fakeQueue{}
	letters := &fakeLetterWriter{letter: "Dear hiring manager, ..."}
	svc := NewService(db, store, queue, letters, slog.Default())
	return svc, store, queue, letters, db
}

func TestSubmitQueuesParse(t *testing.T) {
	svc, store, queue, _, _ := newFixture(t)

	record, err := svc.Submit(context.Background(), 1, "resume.pdf", "application/pdf",
		bytes.NewReader([]byte("%PDF-stub")), 9, "corr-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if record.Status != database.CVPending {
		t.Errorf("status = %q, want pending", record.Status)
	}
	if !strings.HasPrefix(record.ObjectKey, "cv/1/") || !strings.HasSuffix(record.ObjectKey, ".pdf") {
		t.Errorf("object key = %q", record.ObjectKey)
	}
	if _, ok := store.uploaded[record.ObjectKey]; !ok {
		t.Error("binary was not uploaded")
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued = %d, want 1", len(queue.enqueued))
	}
	var payload tasks.CVParsePayload
	if err := json.Unmarshal(queue.enqueued[0].Payload(), &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.CVRecordID != record.ID || payload.CorrelationID != "corr-1" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestSubmitRejectsUnsupportedMedia(t *testing.T) {
	svc, store, queue, _, _ := newFixture(t)

	_, err := svc.Submit(context.Background(), 1, "resume.txt", "text/plain",
		bytes.NewReader([]byte("plain")), 5, "corr-1")
	if !errors.Is(err, errcode.ErrUnsupportedMedia) {
		t.Fatalf("err = %v, want ErrUnsupportedMedia", err)
	}
	if len(store.uploaded) != 0 {
		t.Error("rejected upload was stored")
	}
	if len(queue.enqueued) != 0 {
		t.Error("rejected upload was queued")
	}
}

func TestSubmitMarksFailedWhenQueueUnavailable(t *testing.T) {
	svc, _, queue, _, db := newFixture(t)
	queue.err = errors.New("redis down")

	record, err := svc.Submit(context.Background(), 1, "resume.pdf", "application/pdf",
		bytes.NewReader([]byte("%PDF-stub")), 9, "corr-1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	var reloaded database.CVRecord
	if err := db.First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != database.CVFailed {
		t.Errorf("status = %q, want failed", reloaded.Status)
	}
	if reloaded.ParseError == "" {
		t.Error("parse error not recorded")
	}
}

func TestReadsAreOwnerOnly(t *testing.T) {
	svc, _, _, _, db := newFixture(t)

	record := &database.CVRecord{OwnerID: 1, Status: database.CVCompleted}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := svc.Get(context.Background(), 2, record.ID); !errors.Is(err, errcode.ErrNotFound) {
		t.Fatalf("foreign get = %v, want ErrNotFound", err)
	}
}

func TestParsedRequiresCompletedRecord(t *testing.T) {
	svc, _, _, _, db := newFixture(t)

	record := &database.CVRecord{OwnerID: 1, Status: database.CVParsing}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	_, err := svc.Parsed(context.Background(), 1, record.ID)
	if !errors.Is(err, errcode.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
}

func TestDeleteRemovesRecordDespiteStorageFailure(t *testing.T) {
	svc, store, _, _, db := newFixture(t)
	store.delErr = errors.New("storage down")

	record := &database.CVRecord{OwnerID: 1, ObjectKey: "cv/1/x.pdf", Status: database.CVCompleted}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := svc.Delete(context.Background(), 1, record.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(store.deleted) != 1 || store.deleted[0] != "cv/1/x.pdf" {
		t.Errorf("deleted objects = %v", store.deleted)
	}
	if _, err := svc.Get(context.Background(), 1, record.ID); !errors.Is(err, errcode.ErrNotFound) {
		t.Errorf("get after delete = %v, want ErrNotFound", err)
	}
}

func TestGenerateCoverLetter(t *testing.T) {
	svc, _, _, letters, db := newFixture(t)

	parsed, _ := json.Marshal(ai.StructuredCV{Name: "Jordan", Skills: []string{"go"}})
	record := &database.CVRecord{OwnerID: 1, Status: database.CVCompleted, ParsedData: parsed}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed cv: %v", err)
	}
	job := &database.Job{EmployerID: 2, Title: "Backend Engineer", CompanyName: "Acme"}
	if err := db.Create(job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}

	letter, err := svc.GenerateCoverLetter(context.Background(), 1, record.ID, job.ID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if letter != letters.letter {
		t.Errorf("letter = %q", letter)
	}
	if letters.calls != 1 {
		t.Errorf("generator calls = %d, want 1", letters.calls)
	}
}

func TestGenerateCoverLetterRequiresCompletedCV(t *testing.T) {
	svc, _, _, letters, db := newFixture(t)

	record := &database.CVRecord{OwnerID: 1, Status: database.CVPending}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed cv: %v", err)
	}

	_, err := svc.GenerateCoverLetter(context.Background(), 1, record.ID, 1)
	if !errors.Is(err, errcode.ErrPreconditionFailed) {
		t.Fatalf("err = %v, want ErrPreconditionFailed", err)
	}
	if letters.calls != 0 {
		t.Errorf("generator calls = %d, want 0", letters.calls)
	}
}
