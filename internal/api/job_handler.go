package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
)

// JobHandler serves job posting CRUD and search.
type JobHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewJobHandler constructs the handler.
func NewJobHandler(db *gorm.DB, logger *slog.Logger) *JobHandler {
	return &JobHandler{db: db, logger: logger}
}

type jobRequest struct {
	Title           string   `json:"title" binding:"required,max=255"`
	Description     string   `json:"description" binding:"required"`
	Requirements    string   `json:"requirements"`
	Location        string   `json:"location" binding:"max=255"`
	JobType         string   `json:"job_type" binding:"max=64"`
	ExperienceLevel string   `json:"experience_level" binding:"max=64"`
	TechStack       []string `json:"tech_stack"`
	SalaryMin       int      `json:"salary_min"`
	SalaryMax       int      `json:"salary_max"`
}

// Create posts a new job. The company name comes from the employer's
// profile, not the request.
func (h *JobHandler) Create(c *gin.Context) {
	employerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	logger := middleware.LoggerFromContext(c)

	var employer database.User
	if err := h.db.WithContext(ctx).First(&employer, employerID).Error; err != nil {
		logger.Error("load employer failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	techStack, err := json.Marshal(req.TechStack)
	if err != nil {
		BadRequest(c, "invalid tech stack")
		return
	}

	job := database.Job{
		EmployerID:      employerID,
		Title:           req.Title,
		CompanyName:     employer.CompanyName,
		Description:     req.Description,
		Requirements:    req.Requirements,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		TechStack:       datatypes.JSON(techStack),
		SalaryMin:       req.SalaryMin,
		SalaryMax:       req.SalaryMax,
		Status:          database.JobStatusActive,
	}

	if err := h.db.WithContext(ctx).Create(&job).Error; err != nil {
		logger.Error("create job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, job)
}

// List returns active jobs, optionally filtered by skill, location, job
// type and experience level.
func (h *JobHandler) List(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).
		Where("status = ?", database.JobStatusActive).
		Order("created_at DESC")

	if location := c.Query("location"); location != "" {
		query = query.Where("location ILIKE ?", "%"+location+"%")
	}
	if jobType := c.Query("job_type"); jobType != "" {
		query = query.Where("job_type = ?", jobType)
	}
	if level := c.Query("experience_level"); level != "" {
		query = query.Where("experience_level = ?", level)
	}
	if skills := c.Query("skills"); skills != "" {
		for _, skill := range strings.Split(skills, ",") {
			skill = strings.TrimSpace(skill)
			if skill != "" {
				query = query.Where("tech_stack::text ILIKE ?", "%"+skill+"%")
			}
		}
	}

	var jobs []database.Job
	if err := query.Find(&jobs).Error; err != nil {
		middleware.LoggerFromContext(c).Error("list jobs failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// ListMine returns the employer's own jobs, including closed ones.
func (h *JobHandler) ListMine(c *gin.Context) {
	employerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var jobs []database.Job
	err := h.db.WithContext(c.Request.Context()).
		Where("employer_id = ?", employerID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		middleware.LoggerFromContext(c).Error("list own jobs failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, jobs)
}

// Get returns one job and bumps its view counter.
func (h *JobHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid job id")
		return
	}

	ctx := c.Request.Context()

	var job database.Job
	if err := h.db.WithContext(ctx).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if err := h.db.WithContext(ctx).Model(&job).
		UpdateColumn("views_count", gorm.Expr("views_count + 1")).Error; err != nil {
		middleware.LoggerFromContext(c).Warn("bump view counter failed", slog.Any("error", err))
	}
	job.ViewsCount++

	c.JSON(http.StatusOK, job)
}

// Update modifies one of the employer's jobs.
func (h *JobHandler) Update(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	techStack, err := json.Marshal(req.TechStack)
	if err != nil {
		BadRequest(c, "invalid tech stack")
		return
	}

	updates := map[string]any{
		"title":            req.Title,
		"description":      req.Description,
		"requirements":     req.Requirements,
		"location":         req.Location,
		"job_type":         req.JobType,
		"experience_level": req.ExperienceLevel,
		"tech_stack":       datatypes.JSON(techStack),
		"salary_min":       req.SalaryMin,
		"salary_max":       req.SalaryMax,
	}
	if status := c.Query("status"); status == database.JobStatusActive || status == database.JobStatusClosed {
		updates["status"] = status
	}

	if err := h.db.WithContext(c.Request.Context()).Model(job).Updates(updates).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, job)
}

// Delete removes one of the employer's jobs.
func (h *JobHandler) Delete(c *gin.Context) {
	job, ok := h.ownedJob(c)
	if !ok {
		return
	}

	if err := h.db.WithContext(c.Request.Context()).Delete(job).Error; err != nil {
		middleware.LoggerFromContext(c).Error("delete job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.Status(http.StatusNoContent)
}

// ownedJob loads the job from the path and verifies the caller owns it.
// Writes the error response itself when the check fails.
func (h *JobHandler) ownedJob(c *gin.Context) (*database.Job, bool) {
	employerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid job id")
		return nil, false
	}

	var job database.Job
	if err := h.db.WithContext(c.Request.Context()).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "job not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("load job failed", slog.Any("error", err))
		Internal(c, "internal error")
		return nil, false
	}

	if job.EmployerID != employerID {
		Forbidden(c, "not your job posting")
		return nil, false
	}

	return &job, true
}
