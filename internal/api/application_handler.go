package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
	"jobboard/internal/workflow"
)

// ApplicationHandler serves the application workflow endpoints.
type ApplicationHandler struct {
	apps   *workflow.ApplicationService
	logger *slog.Logger
}

// NewApplicationHandler constructs the handler.
func NewApplicationHandler(apps *workflow.ApplicationService, logger *slog.Logger) *ApplicationHandler {
	return &ApplicationHandler{apps: apps, logger: logger}
}

type createApplicationRequest struct {
	JobID       uint   `json:"job_id" binding:"required"`
	CoverLetter string `json:"cover_letter"`
	ResumeURL   string `json:"resume_url" binding:"max=512"`
}

// Create submits an application for the authenticated candidate.
func (h *ApplicationHandler) Create(c *gin.Context) {
	candidateID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	application, err := h.apps.Create(c.Request.Context(), candidateID, workflow.CreateParams{
		JobID:       req.JobID,
		CoverLetter: req.CoverLetter,
		ResumeURL:   req.ResumeURL,
	})
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, application)
}

// List returns the caller's applications: own submissions for candidates,
// received ones for employers.
func (h *ApplicationHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	role, _ := roleFromContext(c)

	applications, err := h.apps.ListForUser(c.Request.Context(), userID, role)
	if err != nil {
		middleware.LoggerFromContext(c).Error("list applications failed", slog.Any("error", err))
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, applications)
}

// Get returns one application the caller participates in.
func (h *ApplicationHandler) Get(c *gin.Context) {
	application, ok := h.participantApplication(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, application)
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateStatus moves an application to a new status. Employer-side only;
// the employer must own the application.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid application id")
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	application, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}
	if application.EmployerID != userID {
		Forbidden(c, "not your application to manage")
		return
	}

	updated, err := h.apps.UpdateStatus(c.Request.Context(), id, req.Status, req.Note)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Withdraw lets the candidate retract their own application.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid application id")
		return
	}

	application, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}
	if application.CandidateID != userID {
		Forbidden(c, "not your application")
		return
	}

	updated, err := h.apps.Withdraw(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes an application. Either participant may delete it.
func (h *ApplicationHandler) Delete(c *gin.Context) {
	application, ok := h.participantApplication(c)
	if !ok {
		return
	}

	if err := h.apps.Delete(c.Request.Context(), application.ID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// participantApplication loads the application from the path and verifies
// the caller is its candidate or employer. Writes the error response
// itself when the check fails.
func (h *ApplicationHandler) participantApplication(c *gin.Context) (*database.Application, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid application id")
		return nil, false
	}

	application, err := h.apps.Get(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return nil, false
	}
	if application.CandidateID != userID && application.EmployerID != userID {
		Forbidden(c, "not your application")
		return nil, false
	}

	return application, true
}
