package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/database"
	"jobboard/internal/extract"
	"jobboard/internal/tasks"
)

type fakeStore struct {
	objects map[string][]byte
}

func (s *fakeStore) GetObject(_ context.Context, objectKey string) (io.ReadCloser, error) {
	content, ok := s.objects[objectKey]
	if !ok {
		return nil, fmt.Errorf("no such object %q", objectKey)
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

type fakeParser struct {
	cv    *ai.StructuredCV
	err   error
	calls int
}

func (p *fakeParser) ParseCV(context.Context, string) (*ai.StructuredCV, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.cv, nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.CVRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRecord(t *testing.T, db *gorm.DB, fileName string) *database.CVRecord {
	t.Helper()
	record := &database.CVRecord{
		OwnerID:   1,
		FileName:  fileName,
		ObjectKey: "cv/1/" + fileName,
		Status:    database.CVPending,
	}
	if err := db.Create(record).Error; err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return record
}

func TestUnsupportedMediaFailsWithoutAICall(t *testing.T) {
	db := newTestDB(t)
	record := seedRecord(t, db, "resume.txt")
	store := &fakeStore{objects: map[string][]byte{record.ObjectKey: []byte("plain text resume")}}
	parser := &fakeParser{}

	handler := NewCVHandler(db, store, extract.Text, parser, time.Minute, slog.Default())

	task, err := tasks.NewCVParseTask(record.ID, "test-correlation")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
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
	if parser.calls != 0 {
		t.Errorf("parser calls = %d, want 0", parser.calls)
	}
}

func TestSuccessfulParsePersistsStructuredData(t *testing.T) {
	db := newTestDB(t)
	record := seedRecord(t, db, "resume.pdf")
	store := &fakeStore{objects: map[string][]byte{record.ObjectKey: []byte("%PDF-stub")}}
	structured := &ai.StructuredCV{
		Name:   "Jordan",
		Email:  "jordan@example.com",
		Skills: []string{"go", "postgres"},
	}
	parser := &fakeParser{cv: structured}

	extractor := func(path, fileName, mediaType string) (string, error) {
		return "Jordan. Backend engineer. Go, Postgres.", nil
	}

	handler := NewCVHandler(db, store, extractor, parser, time.Minute, slog.Default())

	task, err := tasks.NewCVParseTask(record.ID, "test-correlation")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}

	var reloaded database.CVRecord
	if err := db.First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != database.CVCompleted {
		t.Fatalf("status = %q, want completed", reloaded.Status)
	}
	if reloaded.ParseError != "" {
		t.Errorf("parse error = %q, want empty", reloaded.ParseError)
	}

	var persisted ai.StructuredCV
	if err := json.Unmarshal(reloaded.ParsedData, &persisted); err != nil {
		t.Fatalf("unmarshal parsed data: %v", err)
	}
	if persisted.Name != structured.Name || len(persisted.Skills) != 2 {
		t.Errorf("persisted cv = %+v, want %+v", persisted, structured)
	}
	if parser.calls != 1 {
		t.Errorf("parser calls = %d, want 1", parser.calls)
	}
}

func TestAIFailureMarksRecordFailed(t *testing.T) {
	db := newTestDB(t)
	record := seedRecord(t, db, "resume.pdf")
	store := &fakeStore{objects: map[string][]byte{record.ObjectKey: []byte("%PDF-stub")}}
	parser := &fakeParser{err: errors.New("model overloaded")}

	extractor := func(path, fileName, mediaType string) (string, error) {
		return "some resume text", nil
	}

	handler := NewCVHandler(db, store, extractor, parser, time.Minute, slog.Default())

	task, err := tasks.NewCVParseTask(record.ID, "test-correlation")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}

	var reloaded database.CVRecord
	if err := db.First(&reloaded, record.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Status != database.CVFailed {
		t.Errorf("status = %q, want failed", reloaded.Status)
	}
	if reloaded.ParsedData != nil {
		t.Errorf("parsed data = %s, want none", reloaded.ParsedData)
	}
}

func TestMissingRecordIsSkipped(t *testing.T) {
	db := newTestDB(t)
	store := &fakeStore{objects: map[string][]byte{}}
	parser := &fakeParser{}

	handler := NewCVHandler(db, store, extract.Text, parser, time.Minute, slog.Default())

	task, err := tasks.NewCVParseTask(9999, "test-correlation")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := handler.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if parser.calls != 0 {
		t.Errorf("parser calls = %d, want 0", parser.calls)
	}
}
