package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
)

// InterviewService manages the interview lifecycle and keeps a linked
// application's status in sync. At most one open (scheduled or
// rescheduled) interview may exist per application; a partial unique
// index backs the service-level pre-check on postgres.
type InterviewService struct {
	db       *gorm.DB
	apps     *ApplicationService
	notifier notify.Creator
	logger   *slog.Logger
}

// NewInterviewService constructs the service.
func NewInterviewService(db *gorm.DB, apps *ApplicationService, notifier notify.Creator, logger *slog.Logger) *InterviewService {
	return &InterviewService{db: db, apps: apps, notifier: notifier, logger: logger}
}

// InterviewParams are the employer-supplied fields of an interview.
type InterviewParams struct {
	JobID         uint
	CandidateID   uint
	ApplicationID *uint
	ScheduledAt   time.Time
	DurationMin   int
	Type          string
	Location      string
	MeetingLink   string
	Notes         string
}

// Create schedules an interview. When linked to an application it
// rejects a second open interview for the same application, drives the
// application to interview_scheduled and notifies the candidate
// (best-effort).
func (s *InterviewService) Create(ctx context.Context, params InterviewParams, employerID uint) (*database.Interview, error) {
	if params.ApplicationID != nil {
		var open int64
		err := s.db.WithContext(ctx).
			Model(&database.Interview{}).
			Where("application_id = ? AND status IN ?", *params.ApplicationID,
				[]string{database.InterviewScheduled, database.InterviewRescheduled}).
			Count(&open).Error
		if err != nil {
			return nil, fmt.Errorf("check open interviews: %w", err)
		}
		if open > 0 {
			return nil, fmt.Errorf("%w: an interview is already scheduled for this application", errcode.ErrConflict)
		}

		// Fail before inserting if the linked application can no longer move.
		application, err := s.apps.Get(ctx, *params.ApplicationID)
		if err != nil {
			return nil, err
		}
		if isTerminalApplicationStatus(application.Status) {
			return nil, fmt.Errorf("%w: application is closed", errcode.ErrInvalidTransition)
		}
		params.CandidateID = application.CandidateID
		params.JobID = application.JobID
	}

	interview := &database.Interview{
		JobID:         params.JobID,
		CandidateID:   params.CandidateID,
		EmployerID:    employerID,
		ApplicationID: params.ApplicationID,
		ScheduledAt:   params.ScheduledAt,
		DurationMin:   params.DurationMin,
		Type:          params.Type,
		Location:      params.Location,
		MeetingLink:   params.MeetingLink,
		Status:        database.InterviewScheduled,
		Notes:         params.Notes,
	}

	if err := s.db.WithContext(ctx).Create(interview).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: an interview is already scheduled for this application", errcode.ErrConflict)
		}
		return nil, fmt.Errorf("create interview: %w", err)
	}

	if params.ApplicationID != nil {
		note := fmt.Sprintf("Interview scheduled for %s", params.ScheduledAt.Format("2006-01-02"))
		if _, err := s.apps.applyTransition(ctx, *params.ApplicationID, database.ApplicationInterviewScheduled, note); err != nil {
			s.logger.Warn("sync application to interview_scheduled failed",
				slog.Uint64("application_id", uint64(*params.ApplicationID)),
				slog.Any("error", err),
			)
		}

		jobTitle := s.apps.jobTitle(ctx, params.JobID)
		s.notifyBestEffort(ctx, params.CandidateID,
			"Interview Scheduled!",
			fmt.Sprintf("You have an interview scheduled for %s on %s", jobTitle, params.ScheduledAt.Format(time.RFC1123)),
			map[string]any{
				"jobId":       params.JobID,
				"jobTitle":    jobTitle,
				"interviewId": interview.ID,
				"scheduledAt": params.ScheduledAt,
			},
		)
	}

	return interview, nil
}

// Get loads one interview by id.
func (s *InterviewService) Get(ctx context.Context, id uint) (*database.Interview, error) {
	var interview database.Interview
	if err := s.db.WithContext(ctx).First(&interview, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: interview %d", errcode.ErrNotFound, id)
		}
		return nil, fmt.Errorf("query interview: %w", err)
	}
	return &interview, nil
}

// ListForUser returns interviews where the user is either side, newest
// scheduled first.
func (s *InterviewService) ListForUser(ctx context.Context, userID uint) ([]database.Interview, error) {
	var interviews []database.Interview
	err := s.db.WithContext(ctx).
		Where("candidate_id = ? OR employer_id = ?", userID, userID).
		Order("scheduled_at DESC").
		Find(&interviews).Error
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	return interviews, nil
}

// UpdateParams are the mutable interview fields for a generic update.
type UpdateParams struct {
	ScheduledAt *time.Time
	DurationMin *int
	Type        *string
	Location    *string
	MeetingLink *string
	Status      *string
	Notes       *string
}

// Update applies a partial field update. Interview mutations are plain
// last-writer-wins field writes; there is no audit log here.
func (s *InterviewService) Update(ctx context.Context, id uint, params UpdateParams) (*database.Interview, error) {
	interview, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if params.ScheduledAt != nil {
		updates["scheduled_at"] = *params.ScheduledAt
	}
	if params.DurationMin != nil {
		updates["duration_min"] = *params.DurationMin
	}
	if params.Type != nil {
		updates["type"] = *params.Type
	}
	if params.Location != nil {
		updates["location"] = *params.Location
	}
	if params.MeetingLink != nil {
		updates["meeting_link"] = *params.MeetingLink
	}
	if params.Status != nil {
		updates["status"] = *params.Status
	}
	if params.Notes != nil {
		updates["notes"] = *params.Notes
	}
	if len(updates) == 0 {
		return interview, nil
	}

	if err := s.db.WithContext(ctx).Model(interview).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update interview: %w", err)
	}
	return s.Get(ctx, id)
}

// Reschedule moves the interview to a new time.
func (s *InterviewService) Reschedule(ctx context.Context, id uint, scheduledAt time.Time) (*database.Interview, error) {
	status := database.InterviewRescheduled
	return s.Update(ctx, id, UpdateParams{ScheduledAt: &scheduledAt, Status: &status})
}

// Cancel marks the interview cancelled. The linked application is left
// untouched.
func (s *InterviewService) Cancel(ctx context.Context, id uint) (*database.Interview, error) {
	status := database.InterviewCancelled
	return s.Update(ctx, id, UpdateParams{Status: &status})
}

// Complete marks the interview completed, drives the linked application
// to interview_completed and notifies the candidate (best-effort).
func (s *InterviewService) Complete(ctx context.Context, id uint) (*database.Interview, error) {
	status := database.InterviewCompleted
	interview, err := s.Update(ctx, id, UpdateParams{Status: &status})
	if err != nil {
		return nil, err
	}

	if interview.ApplicationID != nil {
		if _, err := s.apps.applyTransition(ctx, *interview.ApplicationID, database.ApplicationInterviewCompleted, "Interview completed"); err != nil {
			s.logger.Warn("sync application to interview_completed failed",
				slog.Uint64("application_id", uint64(*interview.ApplicationID)),
				slog.Any("error", err),
			)
		}

		jobTitle := s.apps.jobTitle(ctx, interview.JobID)
		s.notifyBestEffort(ctx, interview.CandidateID,
			"Interview Completed",
			fmt.Sprintf("Your interview for %s has been completed. Waiting for final decision.", jobTitle),
			map[string]any{
				"jobId":         interview.JobID,
				"jobTitle":      jobTitle,
				"interviewId":   interview.ID,
				"applicationId": *interview.ApplicationID,
			},
		)
	}

	return interview, nil
}

// Confirm records the candidate's confirmation, independent of status,
// and notifies the employer (best-effort).
func (s *InterviewService) Confirm(ctx context.Context, id uint) (*database.Interview, error) {
	interview, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(interview).Update("confirmed", true).Error; err != nil {
		return nil, fmt.Errorf("confirm interview: %w", err)
	}
	interview.Confirmed = true

	jobTitle := s.apps.jobTitle(ctx, interview.JobID)
	candidateName := s.apps.userName(ctx, interview.CandidateID)
	s.notifyBestEffort(ctx, interview.EmployerID,
		"Interview Confirmed!",
		fmt.Sprintf("%s confirmed the interview for %s", candidateName, jobTitle),
		map[string]any{
			"jobId":         interview.JobID,
			"jobTitle":      jobTitle,
			"interviewId":   interview.ID,
			"candidateId":   interview.CandidateID,
			"candidateName": candidateName,
		},
	)

	return interview, nil
}

// Remove hard-deletes an interview.
func (s *InterviewService) Remove(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&database.Interview{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete interview: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: interview %d", errcode.ErrNotFound, id)
	}
	return nil
}

func (s *InterviewService) notifyBestEffort(ctx context.Context, userID uint, title, message string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, userID, title, message, notify.TypeInterview, data); err != nil {
		s.logger.Warn("create notification failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("title", title),
			slog.Any("error", err),
		)
	}
}
