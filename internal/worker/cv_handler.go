package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/hibiken/asynq"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/database"
	"jobboard/internal/tasks"
)

// ObjectGetter fetches a stored CV binary.
type ObjectGetter interface {
	GetObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
}

// TextExtractor pulls plain text out of a document on disk.
// extract.Text satisfies it.
type TextExtractor func(path, fileName, mediaType string) (string, error)

// CVParser turns resume text into structured data.
type CVParser interface {
	ParseCV(ctx context.Context, cvText string) (*ai.StructuredCV, error)
}

// CVHandler consumes cv:parse tasks. Each attempt is terminal: the
// record ends up completed or failed, never stuck in parsing.
type CVHandler struct {
	db           *gorm.DB
	store        ObjectGetter
	extractText  TextExtractor
	parser       CVParser
	parseTimeout time.Duration
	logger       *slog.Logger
}

// NewCVHandler constructs the handler.
func NewCVHandler(db *gorm.DB, store ObjectGetter, extractText TextExtractor, parser CVParser, parseTimeout time.Duration, logger *slog.Logger) *CVHandler {
	return &CVHandler{
		db:           db,
		store:        store,
		extractText:  extractText,
		parser:       parser,
		parseTimeout: parseTimeout,
		logger:       logger,
	}
}

// ProcessTask handles one cv:parse task. It returns nil even when the
// parse fails: the failure is recorded on the CVRecord and a retry would
// only repeat it.
func (h *CVHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.CVParsePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal cv parse payload: %w", err)
	}

	logger := h.logger.With(
		slog.Uint64("cv_record_id", uint64(payload.CVRecordID)),
		slog.String("correlation_id", payload.CorrelationID),
	)

	var record database.CVRecord
	if err := h.db.WithContext(ctx).First(&record, payload.CVRecordID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Deleted before the worker got to it. Nothing to do.
			logger.Info("cv record gone, skipping")
			return nil
		}
		return fmt.Errorf("load cv record: %w", err)
	}

	if err := h.setStatus(ctx, &record, database.CVParsing, nil, ""); err != nil {
		return fmt.Errorf("mark cv record parsing: %w", err)
	}

	parsed, err := h.parse(ctx, &record)
	if err != nil {
		logger.Warn("cv parse failed", slog.Any("error", err))
		if err := h.setStatus(ctx, &record, database.CVFailed, nil, err.Error()); err != nil {
			return fmt.Errorf("mark cv record failed: %w", err)
		}
		return nil
	}

	raw, err := json.Marshal(parsed)
	if err != nil {
		return fmt.Errorf("marshal parsed cv: %w", err)
	}
	if err := h.setStatus(ctx, &record, database.CVCompleted, datatypes.JSON(raw), ""); err != nil {
		return fmt.Errorf("mark cv record completed: %w", err)
	}

	logger.Info("cv parsed")
	return nil
}

func (h *CVHandler) parse(ctx context.Context, record *database.CVRecord) (*ai.StructuredCV, error) {
	path, cleanup, err := h.download(ctx, record)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	mediaType := mediaTypeFor(record.FileName)
	text, err := h.extractText(path, record.FileName, mediaType)
	if err != nil {
		return nil, err
	}

	parseCtx, cancel := context.WithTimeout(ctx, h.parseTimeout)
	defer cancel()

	return h.parser.ParseCV(parseCtx, text)
}

// download copies the stored binary to a temp file. The extractors work
// on paths, not readers.
func (h *CVHandler) download(ctx context.Context, record *database.CVRecord) (string, func(), error) {
	obj, err := h.store.GetObject(ctx, record.ObjectKey)
	if err != nil {
		return "", nil, fmt.Errorf("fetch cv binary: %w", err)
	}
	defer obj.Close()

	tmp, err := os.CreateTemp("", "cv-*"+filepath.Ext(record.FileName))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(tmp, obj); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func (h *CVHandler) setStatus(ctx context.Context, record *database.CVRecord, status string, parsedData datatypes.JSON, parseError string) error {
	updates := map[string]any{
		"status":      status,
		"parse_error": parseError,
	}
	if parsedData != nil {
		updates["parsed_data"] = parsedData
	}
	return h.db.WithContext(ctx).Model(record).Updates(updates).Error
}

func mediaTypeFor(fileName string) string {
	switch filepath.Ext(fileName) {
	case ".pdf":
		return "application/pdf"
	case ".doc":
		return "application/msword"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
