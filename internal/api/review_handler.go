package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"jobboard/internal/api/middleware"
	"jobboard/internal/database"
)

// ReviewHandler serves user-to-user reviews.
type ReviewHandler struct {
	db     *gorm.DB
	logger *slog.Logger
}

// NewReviewHandler constructs the handler.
func NewReviewHandler(db *gorm.DB, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{db: db, logger: logger}
}

type createReviewRequest struct {
	TargetID uint   `json:"target_id" binding:"required"`
	JobID    *uint  `json:"job_id"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Comment  string `json:"comment" binding:"max=2000"`
}

// Create leaves a review about another user.
func (h *ReviewHandler) Create(c *gin.Context) {
	reviewerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.TargetID == reviewerID {
		BadRequest(c, "cannot review yourself")
		return
	}

	ctx := c.Request.Context()

	var target database.User
	if err := h.db.WithContext(ctx).First(&target, req.TargetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "target user not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load review target failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	review := database.Review{
		ReviewerID: reviewerID,
		TargetID:   req.TargetID,
		JobID:      req.JobID,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}

	if err := h.db.WithContext(ctx).Create(&review).Error; err != nil {
		middleware.LoggerFromContext(c).Error("create review failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusCreated, review)
}

// ListForUser returns reviews left about a user, newest first.
func (h *ReviewHandler) ListForUser(c *gin.Context) {
	targetID, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid user id")
		return
	}

	var reviews []database.Review
	err := h.db.WithContext(c.Request.Context()).
		Where("target_id = ?", targetID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		middleware.LoggerFromContext(c).Error("list reviews failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.JSON(http.StatusOK, reviews)
}

// Delete removes one of the caller's own reviews.
func (h *ReviewHandler) Delete(c *gin.Context) {
	reviewerID, ok := userIDFromContext(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}

	id, ok := idParam(c, "id")
	if !ok {
		BadRequest(c, "invalid review id")
		return
	}

	ctx := c.Request.Context()

	var review database.Review
	if err := h.db.WithContext(ctx).First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "review not found")
			return
		}
		middleware.LoggerFromContext(c).Error("load review failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	if review.ReviewerID != reviewerID {
		Forbidden(c, "not your review")
		return
	}

	if err := h.db.WithContext(ctx).Delete(&review).Error; err != nil {
		middleware.LoggerFromContext(c).Error("delete review failed", slog.Any("error", err))
		Internal(c, "internal error")
		return
	}

	c.Status(http.StatusNoContent)
}
