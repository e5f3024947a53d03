package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"jobboard/internal/database"
	"jobboard/internal/workflow"
)

// InterviewHandler serves the interview scheduling endpoints.
type InterviewHandler struct {
	interviews *workflow.InterviewService
}

// NewInterviewHandler constructs the handler.
func NewInterviewHandler(interviews *workflow.InterviewService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews}
}

type createInterviewRequest struct {
	JobID         uint      `json:"job_id"`
	CandidateID   uint      `json:"candidate_id"`
	ApplicationID *uint     `json:"application_id"`
	ScheduledAt   time.Time `json:"scheduled_at" binding:"required"`
	DurationMin   int       `json:"duration_min" binding:"required,min=5,max=480"`
	Type          string    `json:"type" binding:"max=64"`
	Location      string    `json:"location" binding:"max=255"`
	MeetingLink   string    `json:"meeting_link" binding:"max=512"`
	Notes         string    `json:"notes"`
}

// Create schedules an interview for the authenticated employer.
func (h *InterviewHandler) Create(c *gin.Context) {
	employerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.ApplicationID == nil && (req.JobID == 0 || req.CandidateID == 0) {
		BadRequest(c, "job_id and candidate_id are required without application_id")
		return
	}

	interview, err := h.interviews.Create(c.Request.Context(), workflow.InterviewParams{
		JobID:         req.JobID,
		CandidateID:   req.CandidateID,
		ApplicationID: req.ApplicationID,
		ScheduledAt:   req.ScheduledAt,
		DurationMin:   req.DurationMin,
		Type:          req.Type,
		Location:      req.Location,
		MeetingLink:   req.MeetingLink,
		Notes:         req.Notes,
	}, employerID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusCreated, interview)
}

// List returns the caller's interviews on either side of the table.
func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	interviews, err := h.interviews.ListForUser(c.Request.Context(), userID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, interviews)
}

type updateInterviewRequest struct {
	ScheduledAt *time.Time `json:"scheduled_at"`
	DurationMin *int       `json:"duration_min"`
	Type        *string    `json:"type"`
	Location    *string    `json:"location"`
	MeetingLink *string    `json:"meeting_link"`
	Status      *string    `json:"status"`
	Notes       *string    `json:"notes"`
}

// Update applies a partial update to an interview owned by the employer.
func (h *InterviewHandler) Update(c *gin.Context) {
	interview, ok := h.employerInterview(c)
	if !ok {
		return
	}

	var req updateInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.interviews.Update(c.Request.Context(), interview.ID, workflow.UpdateParams{
		ScheduledAt: req.ScheduledAt,
		DurationMin: req.DurationMin,
		Type:        req.Type,
		Location:    req.Location,
		MeetingLink: req.MeetingLink,
		Status:      req.Status,
		Notes:       req.Notes,
	})
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

type rescheduleRequest struct {
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

// Reschedule moves an interview to a new time.
func (h *InterviewHandler) Reschedule(c *gin.Context) {
	interview, ok := h.employerInterview(c)
	if !ok {
		return
	}

	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}

	updated, err := h.interviews.Reschedule(c.Request.Context(), interview.ID, req.ScheduledAt)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Cancel marks an interview cancelled.
func (h *InterviewHandler) Cancel(c *gin.Context) {
	interview, ok := h.employerInterview(c)
	if !ok {
		return
	}

	updated, err := h.interviews.Cancel(c.Request.Context(), interview.ID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Complete marks an interview completed.
func (h *InterviewHandler) Complete(c *gin.Context) {
	interview, ok := h.employerInterview(c)
	if !ok {
		return
	}

	updated, err := h.interviews.Complete(c.Request.Context(), interview.ID)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Confirm records the candidate's attendance confirmation.
func (h *InterviewHandler) Confirm(c *gin.Context) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid interview id")
		return
	}

	interview, err := h.interviews.Get(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}
	if interview.CandidateID != userID {
		Forbidden(c, "not your interview")
		return
	}

	updated, err := h.interviews.Confirm(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes an interview owned by the employer.
func (h *InterviewHandler) Delete(c *gin.Context) {
	interview, ok := h.employerInterview(c)
	if !ok {
		return
	}

	if err := h.interviews.Remove(c.Request.Context(), interview.ID); err != nil {
		FromError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// employerInterview loads the interview from the path and verifies the
// caller is its employer. Writes the error response itself when the
// check fails.
func (h *InterviewHandler) employerInterview(c *gin.Context) (*database.Interview, bool) {
	userID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid interview id")
		return nil, false
	}

	interview, err := h.interviews.Get(c.Request.Context(), id)
	if err != nil {
		FromError(c, err)
		return nil, false
	}
	if interview.EmployerID != userID {
		Forbidden(c, "not your interview")
		return nil, false
	}

	return interview, true
}
