package files

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/extract"
	"jobboard/internal/tasks"
)

// ObjectStore is the slice of object storage the CV service needs.
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// Enqueuer submits background tasks. *asynq.Client satisfies it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// CoverLetterGenerator produces a cover letter from a parsed CV and a
// target job.
type CoverLetterGenerator interface {
	GenerateCoverLetter(ctx context.Context, cv *ai.StructuredCV, job ai.JobInfo) (string, error)
}

// Service owns the CV ingestion pipeline's front half: accept an upload,
// persist the binary and the tracking record, and queue the parse. The
// back half lives in the worker.
type Service struct {
	db      *gorm.DB
	store   ObjectStore
	queue   Enqueuer
	letters CoverLetterGenerator
	logger  *slog.Logger
}

// NewService constructs the CV file service.
func NewService(db *gorm.DB, store ObjectStore, queue Enqueuer, letters CoverLetterGenerator, logger *slog.Logger) *Service {
	return &Service{db: db, store: store, queue: queue, letters: letters, logger: logger}
}

// Submit accepts an uploaded CV: the binary goes to object storage, a
// pending record is created, and a parse task is queued. If the queue is
// unreachable the record is marked failed immediately so the owner never
// sees a pending record that nothing will ever advance.
func (s *Service) Submit(ctx context.Context, ownerID uint, fileName, mediaType string, reader io.Reader, size int64, correlationID string) (*database.CVRecord, error) {
	if !extract.Supported(fileName, mediaType) {
		return nil, fmt.Errorf("%w: %s, only PDF and Word documents are supported", errcode.ErrUnsupportedMedia, mediaType)
	}

	objectKey := fmt.Sprintf("cv/%d/%s%s", ownerID, uuid.NewString(), filepath.Ext(fileName))
	if _, err := s.store.UploadFile(ctx, objectKey, reader, size, mediaType); err != nil {
		return nil, fmt.Errorf("upload cv: %w", err)
	}

	record := &database.CVRecord{
		OwnerID:   ownerID,
		FileName:  fileName,
		ObjectKey: objectKey,
		SizeBytes: size,
		Status:    database.CVPending,
	}
	if err := s.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, fmt.Errorf("create cv record: %w", err)
	}

	task, err := tasks.NewCVParseTask(record.ID, correlationID)
	if err == nil {
		_, err = s.queue.EnqueueContext(ctx, task)
	}
	if err != nil {
		s.logger.Error("enqueue cv parse failed",
			slog.Uint64("cv_record_id", uint64(record.ID)),
			slog.Any("error", err),
		)
		s.markFailed(ctx, record, "could not queue parsing, please resubmit")
		return record, nil
	}

	return record, nil
}

func (s *Service) markFailed(ctx context.Context, record *database.CVRecord, reason string) {
	err := s.db.WithContext(ctx).Model(record).Updates(map[string]any{
		"status":      database.CVFailed,
		"parse_error": reason,
	}).Error
	if err != nil {
		s.logger.Error("mark cv record failed",
			slog.Uint64("cv_record_id", uint64(record.ID)),
			slog.Any("error", err),
		)
	}
}

// Get loads one of the owner's CV records. A record belonging to someone
// else is indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, ownerID, id uint) (*database.CVRecord, error) {
	var record database.CVRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: cv record %d", errcode.ErrNotFound, id)
		}
		return nil, fmt.Errorf("query cv record: %w", err)
	}
	return &record, nil
}

// Parsed returns the structured data of a completed record.
func (s *Service) Parsed(ctx context.Context, ownerID, id uint) (*ai.StructuredCV, error) {
	record, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if record.Status != database.CVCompleted {
		return nil, fmt.Errorf("%w: cv record %d is %s", errcode.ErrPreconditionFailed, id, record.Status)
	}

	var cv ai.StructuredCV
	if err := json.Unmarshal(record.ParsedData, &cv); err != nil {
		return nil, fmt.Errorf("decode parsed cv: %w", err)
	}
	return &cv, nil
}

// ListMine returns the owner's CV records, newest first.
func (s *Service) ListMine(ctx context.Context, ownerID uint) ([]database.CVRecord, error) {
	var records []database.CVRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list cv records: %w", err)
	}
	return records, nil
}

// Delete removes a CV record and its stored binary. The binary goes
// first; a storage failure is logged and the record is removed anyway so
// a stuck object never blocks the owner.
func (s *Service) Delete(ctx context.Context, ownerID, id uint) error {
	record, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteObject(ctx, record.ObjectKey); err != nil {
		s.logger.Warn("delete cv object failed",
			slog.String("object_key", record.ObjectKey),
			slog.Any("error", err),
		)
	}

	if err := s.db.WithContext(ctx).Delete(record).Error; err != nil {
		return fmt.Errorf("delete cv record: %w", err)
	}
	return nil
}

// GenerateCoverLetter writes a cover letter from a completed CV targeted
// at a job posting.
func (s *Service) GenerateCoverLetter(ctx context.Context, ownerID, cvID, jobID uint) (string, error) {
	cv, err := s.Parsed(ctx, ownerID, cvID)
	if err != nil {
		return "", err
	}

	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: job %d", errcode.ErrNotFound, jobID)
		}
		return "", fmt.Errorf("query job: %w", err)
	}

	return s.letters.GenerateCoverLetter(ctx, cv, ai.JobInfo{
		Title:        job.Title,
		CompanyName:  job.CompanyName,
		Description:  job.Description,
		Requirements: job.Requirements,
	})
}
