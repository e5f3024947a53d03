package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
	"jobboard/internal/files"
)

// Advisor is the slice of the AI client the passthrough endpoints use.
type Advisor interface {
	CVSuggestions(ctx context.Context, cv *ai.StructuredCV) ([]string, error)
	InterviewQuestions(ctx context.Context, job ai.JobInfo) ([]string, error)
	JobTrends(ctx context.Context, jobs []ai.JobInfo) (*ai.TrendsReport, error)
}

// AIHandler serves advisory endpoints backed directly by the AI client.
type AIHandler struct {
	db      *gorm.DB
	advisor Advisor
	files   *files.Service
	logger  *slog.Logger
}

// NewAIHandler constructs the handler.
func NewAIHandler(db *gorm.DB, advisor Advisor, filesService *files.Service, logger *slog.Logger) *AIHandler {
	return &AIHandler{db: db, advisor: advisor, files: filesService, logger: logger}
}

// CVSuggestions returns improvement suggestions for one of the caller's
// completed CVs.
func (h *AIHandler) CVSuggestions(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	cvID, err := strconv.ParseUint(c.Query("cvId"), 10, 64)
	if err != nil || cvID == 0 {
		BadRequest(c, "cvId query parameter is required")
		return
	}

	cv, err := h.files.Parsed(c.Request.Context(), userID, uint(cvID))
	if err != nil {
		FromError(c, err)
		return
	}

	suggestions, err := h.advisor.CVSuggestions(c.Request.Context(), cv)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// InterviewQuestions generates interview questions for a job posting.
func (h *AIHandler) InterviewQuestions(c *gin.Context) {
	jobID, err := strconv.ParseUint(c.Query("jobId"), 10, 64)
	if err != nil || jobID == 0 {
		BadRequest(c, "jobId query parameter is required")
		return
	}

	ctx := c.Request.Context()

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	questions, err := h.advisor.InterviewQuestions(ctx, jobInfoFrom(&job))
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"questions": questions})
}

const trendsSampleSize = 50

// JobTrends analyzes the most recent active postings into a market report.
func (h *AIHandler) JobTrends(c *gin.Context) {
	ctx := c.Request.Context()

	var jobs []database.Job
	err := h.db.WithContext(ctx).
		Where("status = ?", database.JobStatusActive).
		Order("created_at DESC").
		Limit(trendsSampleSize).
		Find(&jobs).Error
	if err != nil {
		middleware.LoggerFromContext(c).Error("load jobs for trends failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}
	if len(jobs) == 0 {
		NotFound(c, "no active jobs to analyze")
		return
	}

	infos := make([]ai.JobInfo, 0, len(jobs))
	for i := range jobs {
		infos = append(infos, jobInfoFrom(&jobs[i]))
	}

	report, err := h.advisor.JobTrends(ctx, infos)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func jobInfoFrom(job *database.Job) ai.JobInfo {
	var techStack []string
	if len(job.TechStack) > 0 {
		_ = json.Unmarshal(job.TechStack, &techStack)
	}
	return ai.JobInfo{
		Title:           job.Title,
		CompanyName:     job.CompanyName,
		Description:     job.Description,
		Requirements:    job.Requirements,
		TechStack:       techStack,
		ExperienceLevel: job.ExperienceLevel,
	}
}
