package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"jobboard/internal/ai"
	"jobboard/internal/database"
	"jobboard/internal/errcode"
	"jobboard/internal/notify"
)

// MatchScorer estimates how well a candidate fits a job. The AI client
// implements it; the score is advisory and failures fall back to a
// neutral default.
type MatchScorer interface {
	MatchPercentage(ctx context.Context, skills []string, experience []ai.Experience, job ai.JobInfo) (int, error)
}

const defaultMatchPercentage = 75

var validApplicationStatuses = map[string]bool{
	database.ApplicationPending:            true,
	database.ApplicationReviewing:          true,
	database.ApplicationInterviewScheduled: true,
	database.ApplicationInterviewCompleted: true,
	database.ApplicationApproved:           true,
	database.ApplicationRejected:           true,
	database.ApplicationWithdrawn:          true,
}

func isTerminalApplicationStatus(status string) bool {
	return status == database.ApplicationRejected || status == database.ApplicationWithdrawn
}

// ApplicationService manages the application state machine: creation,
// status transitions with an append-only timeline, and the notification
// side effects of each transition.
type ApplicationService struct {
	db       *gorm.DB
	notifier notify.Creator
	matcher  MatchScorer
	logger   *slog.Logger
}

// NewApplicationService constructs the service. matcher may be nil; the
// match percentage then stays at its default.
func NewApplicationService(db *gorm.DB, notifier notify.Creator, matcher MatchScorer, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{db: db, notifier: notifier, matcher: matcher, logger: logger}
}

// CreateParams are the candidate-supplied fields of a new application.
type CreateParams struct {
	JobID       uint
	CoverLetter string
	ResumeURL   string
}

// Create submits an application for a job. The employer is copied from
// the job, the timeline starts with a "submitted" entry, the job's
// applicant counter is incremented and the employer is notified
// (best-effort).
func (s *ApplicationService) Create(ctx context.Context, candidateID uint, params CreateParams) (*database.Application, error) {
	var job database.Job
	if err := s.db.WithContext(ctx).First(&job, params.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: job %d", errcode.ErrNotFound, params.JobID)
		}
		return nil, fmt.Errorf("query job: %w", err)
	}

	var existing int64
	err := s.db.WithContext(ctx).
		Model(&database.Application{}).
		Where("job_id = ? AND candidate_id = ?", params.JobID, candidateID).
		Count(&existing).Error
	if err != nil {
		return nil, fmt.Errorf("check existing application: %w", err)
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: you have already applied for this job", errcode.ErrConflict)
	}

	timeline, err := marshalTimeline([]database.TimelineEntry{{
		Status:    database.ApplicationPending,
		Timestamp: time.Now(),
		Note:      "Application submitted",
	}})
	if err != nil {
		return nil, err
	}

	application := &database.Application{
		JobID:           params.JobID,
		CandidateID:     candidateID,
		EmployerID:      job.EmployerID,
		Status:          database.ApplicationPending,
		CoverLetter:     params.CoverLetter,
		ResumeURL:       params.ResumeURL,
		MatchPercentage: s.matchScore(ctx, candidateID, job),
		Timeline:        timeline,
	}

	if err := s.db.WithContext(ctx).Create(application).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: you have already applied for this job", errcode.ErrConflict)
		}
		return nil, fmt.Errorf("create application: %w", err)
	}

	if err := s.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("id = ?", params.JobID).
		UpdateColumn("applicants_count", gorm.Expr("applicants_count + 1")).Error; err != nil {
		s.logger.Warn("increment applicants count failed",
			slog.Uint64("job_id", uint64(params.JobID)),
			slog.Any("error", err),
		)
	}

	candidateName := s.userName(ctx, candidateID)
	s.notifyBestEffort(ctx, job.EmployerID,
		"New Job Application",
		fmt.Sprintf("%s has applied for %s", candidateName, job.Title),
		map[string]any{
			"jobId":         job.ID,
			"jobTitle":      job.Title,
			"candidateId":   candidateID,
			"candidateName": candidateName,
			"applicationId": application.ID,
		},
	)

	return application, nil
}

// Get loads one application by id.
func (s *ApplicationService) Get(ctx context.Context, id uint) (*database.Application, error) {
	var application database.Application
	if err := s.db.WithContext(ctx).First(&application, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: application %d", errcode.ErrNotFound, id)
		}
		return nil, fmt.Errorf("query application: %w", err)
	}
	return &application, nil
}

// ListForUser returns applications visible to a user: their own for
// candidates, received ones for employers.
func (s *ApplicationService) ListForUser(ctx context.Context, userID uint, role string) ([]database.Application, error) {
	column := "employer_id"
	if role == database.RoleCandidate {
		column = "candidate_id"
	}

	var applications []database.Application
	err := s.db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("created_at DESC").
		Find(&applications).Error
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return applications, nil
}

// UpdateStatus moves the application to a new status, appending to the
// timeline. Terminal applications (rejected, withdrawn) cannot move
// again. The candidate is notified only for approved and rejected;
// interview-linked transitions notify through the interview engine
// instead.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id uint, status, note string) (*database.Application, error) {
	if !validApplicationStatuses[status] {
		return nil, fmt.Errorf("%w: unknown application status %q", errcode.ErrInvalidTransition, status)
	}

	application, err := s.applyTransition(ctx, id, status, note)
	if err != nil {
		return nil, err
	}

	jobTitle := s.jobTitle(ctx, application.JobID)

	switch status {
	case database.ApplicationApproved:
		s.notifyBestEffort(ctx, application.CandidateID,
			"Application Approved!",
			fmt.Sprintf("Your application for %s has been approved. The employer may contact you for an interview.", jobTitle),
			map[string]any{"jobId": application.JobID, "jobTitle": jobTitle, "applicationId": application.ID},
		)
	case database.ApplicationRejected:
		s.notifyBestEffort(ctx, application.CandidateID,
			"Application Status Update",
			fmt.Sprintf("Your application for %s has been reviewed.", jobTitle),
			map[string]any{"jobId": application.JobID, "jobTitle": jobTitle, "applicationId": application.ID},
		)
	}

	return application, nil
}

// Withdraw is the candidate-initiated terminal transition.
func (s *ApplicationService) Withdraw(ctx context.Context, id uint) (*database.Application, error) {
	return s.UpdateStatus(ctx, id, database.ApplicationWithdrawn, "Withdrawn by candidate")
}

// Delete removes an application and releases its slot in the job's
// applicant counter.
func (s *ApplicationService) Delete(ctx context.Context, id uint) error {
	application, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).
		Model(&database.Job{}).
		Where("id = ?", application.JobID).
		UpdateColumn("applicants_count", gorm.Expr("applicants_count - 1")).Error; err != nil {
		s.logger.Warn("decrement applicants count failed",
			slog.Uint64("job_id", uint64(application.JobID)),
			slog.Any("error", err),
		)
	}

	if err := s.db.WithContext(ctx).Delete(&database.Application{}, id).Error; err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}

// applyTransition performs the raw state change: terminal check, status
// update and timeline append. It emits no notifications; callers decide
// which transitions are worth announcing.
func (s *ApplicationService) applyTransition(ctx context.Context, id uint, status, note string) (*database.Application, error) {
	application, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if isTerminalApplicationStatus(application.Status) {
		return nil, fmt.Errorf("%w: cannot change status of closed application", errcode.ErrInvalidTransition)
	}

	if note == "" {
		note = fmt.Sprintf("Status changed to %s", status)
	}

	timeline, err := unmarshalTimeline(application.Timeline)
	if err != nil {
		return nil, err
	}
	timeline = append(timeline, database.TimelineEntry{
		Status:    status,
		Timestamp: time.Now(),
		Note:      note,
	})
	timelineJSON, err := marshalTimeline(timeline)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{
		"status":   status,
		"timeline": timelineJSON,
	}
	if err := s.db.WithContext(ctx).Model(application).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update application status: %w", err)
	}

	application.Status = status
	application.Timeline = timelineJSON
	return application, nil
}

func (s *ApplicationService) matchScore(ctx context.Context, candidateID uint, job database.Job) int {
	if s.matcher == nil {
		return defaultMatchPercentage
	}

	var record database.CVRecord
	err := s.db.WithContext(ctx).
		Where("owner_id = ? AND status = ?", candidateID, database.CVCompleted).
		Order("created_at DESC").
		First(&record).Error
	if err != nil {
		return defaultMatchPercentage
	}

	var cv ai.StructuredCV
	if err := json.Unmarshal(record.ParsedData, &cv); err != nil {
		return defaultMatchPercentage
	}

	var techStack []string
	_ = json.Unmarshal(job.TechStack, &techStack)

	score, err := s.matcher.MatchPercentage(ctx, cv.Skills, cv.Experience, ai.JobInfo{
		Title:        job.Title,
		Requirements: job.Requirements,
		TechStack:    techStack,
	})
	if err != nil {
		s.logger.Warn("match scoring failed",
			slog.Uint64("candidate_id", uint64(candidateID)),
			slog.Any("error", err),
		)
		return defaultMatchPercentage
	}
	return score
}

func (s *ApplicationService) notifyBestEffort(ctx context.Context, userID uint, title, message string, data map[string]any) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Create(ctx, userID, title, message, notify.TypeApplication, data); err != nil {
		s.logger.Warn("create notification failed",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("title", title),
			slog.Any("error", err),
		)
	}
}

func (s *ApplicationService) jobTitle(ctx context.Context, jobID uint) string {
	var job database.Job
	if err := s.db.WithContext(ctx).Select("id", "title").First(&job, jobID).Error; err != nil {
		return "the position"
	}
	return job.Title
}

func (s *ApplicationService) userName(ctx context.Context, userID uint) string {
	var user database.User
	if err := s.db.WithContext(ctx).Select("id", "name").First(&user, userID).Error; err != nil {
		return "A candidate"
	}
	return user.Name
}

func unmarshalTimeline(raw datatypes.JSON) ([]database.TimelineEntry, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var timeline []database.TimelineEntry
	if err := json.Unmarshal(raw, &timeline); err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	return timeline, nil
}

func marshalTimeline(timeline []database.TimelineEntry) (datatypes.JSON, error) {
	raw, err := json.Marshal(timeline)
	if err != nil {
		return nil, fmt.Errorf("encode timeline: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// isDuplicateKeyError detects unique constraint violations across the
// dialects we run on (postgres in production, sqlite in tests).
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
