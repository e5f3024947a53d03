package api

import (
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/files"
)

// FileHandler serves CV upload and the parsing pipeline's read side.
type FileHandler struct {
	files     *files.Service
	logger    *slog.Logger
	clamdAddr string
}

// NewFileHandler constructs the handler. An empty clamdAddr disables
// upload scanning.
func NewFileHandler(filesService *files.Service, logger *slog.Logger, clamdAddr string) *FileHandler {
	return &FileHandler{
		files:     filesService,
		logger:    logger,
		clamdAddr: clamdAddr,
	}
}

// Upload accepts a multipart CV upload, optionally scans it with clamd,
// and hands it to the ingestion pipeline.
func (h *FileHandler) Upload(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}

	logger := middleware.LoggerFromContext(c)

	if h.clamdAddr != "" {
		if ok := h.scanClean(c, file); !ok {
			return
		}
	}

	fileReader, err := file.Open()
	if err != nil {
		logger.Error("open upload failed", slog.Any("error", err))
		Internal(c, "failed to open file")
		return
	}
	defer fileReader.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	record, err := h.files.Submit(c.Request.Context(), userID, file.Filename, contentType,
		fileReader, file.Size, middleware.GetCorrelationID(c))
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// scanClean streams the upload through clamd. Returns false after writing
// the error response when the file is infected or the scan fails.
func (h *FileHandler) scanClean(c *gin.Context, file *multipart.FileHeader) bool {
	fileReader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return false
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(fileReader, abortChan)
	fileReader.Close()
	if err != nil {
		middleware.LoggerFromContext(c).Error("scan file failed", slog.Any("error", err))
		Internal(c, "failed to scan file")
		return false
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			BadRequest(c, "malicious file detected")
			return false
		}
	}
	return true
}

// ListMine returns the caller's CV records.
func (h *FileHandler) ListMine(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	records, err := h.files.ListMine(c.Request.Context(), userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// Status returns a CV record's parsing state.
func (h *FileHandler) Status(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid cv id")
		return
	}

	record, err := h.files.Get(c.Request.Context(), userID, id)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          record.ID,
		"status":      record.Status,
		"parse_error": record.ParseError,
	})
}

// Parsed returns the structured data of a completed CV.
func (h *FileHandler) Parsed(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid cv id")
		return
	}

	cv, err := h.files.Parsed(c.Request.Context(), userID, id)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, cv)
}

// Delete removes a CV record and its stored binary.
func (h *FileHandler) Delete(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid cv id")
		return
	}

	if err := h.files.Delete(c.Request.Context(), userID, id); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

type coverLetterRequest struct {
	CVID  uint `json:"cvId" binding:"required"`
	JobID uint `json:"jobId" binding:"required"`
}

// GenerateCoverLetter writes a cover letter from a completed CV for a job.
func (h *FileHandler) GenerateCoverLetter(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req coverLetterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	letter, err := h.files.GenerateCoverLetter(c.Request.Context(), userID, req.CVID, req.JobID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"coverLetter": letter})
}
