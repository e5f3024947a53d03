package database

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User roles.
const (
	RoleCandidate = "candidate"
	RoleEmployer  = "employer"
)

// User represents an account on the platform.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string `gorm:"size:255"`
	Name         string `gorm:"size:128"`
	Role         string `gorm:"size:32;index"`
	CompanyName  string `gorm:"size:255"`
}

// Job statuses.
const (
	JobStatusActive = "active"
	JobStatusClosed = "closed"
)

// Job is a posting created by an employer.
type Job struct {
	gorm.Model
	EmployerID      uint           `gorm:"index"`
	Title           string         `gorm:"size:255"`
	CompanyName     string         `gorm:"size:255"`
	Description     string         `gorm:"type:text"`
	Requirements    string         `gorm:"type:text"`
	Location        string         `gorm:"size:255"`
	JobType         string         `gorm:"size:64"`
	ExperienceLevel string         `gorm:"size:64"`
	TechStack       datatypes.JSON `gorm:"type:jsonb"`
	SalaryMin       int
	SalaryMax       int
	Status          string `gorm:"size:32;index;default:active"`
	ApplicantsCount int
	ViewsCount      int
}

// Application statuses. Rejected and withdrawn are terminal: once an
// application reaches either, no further transition is permitted.
const (
	ApplicationPending            = "pending"
	ApplicationReviewing          = "reviewing"
	ApplicationInterviewScheduled = "interview_scheduled"
	ApplicationInterviewCompleted = "interview_completed"
	ApplicationApproved           = "approved"
	ApplicationRejected           = "rejected"
	ApplicationWithdrawn          = "withdrawn"
)

// TimelineEntry is one record in an application's append-only audit log.
type TimelineEntry struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Note      string    `json:"note"`
}

// Application is a candidate's submission for a job. At most one
// application may exist per (job, candidate) pair.
type Application struct {
	gorm.Model
	JobID           uint `gorm:"uniqueIndex:idx_applications_job_candidate"`
	CandidateID     uint `gorm:"uniqueIndex:idx_applications_job_candidate;index"`
	EmployerID      uint `gorm:"index"`
	Status          string `gorm:"size:32;index;default:pending"`
	CoverLetter     string `gorm:"type:text"`
	ResumeURL       string `gorm:"size:512"`
	MatchPercentage int
	Timeline        datatypes.JSON `gorm:"type:jsonb"`
}

// Interview statuses. Scheduled and rescheduled count as "open": an
// application may have at most one open interview at a time.
const (
	InterviewScheduled   = "scheduled"
	InterviewRescheduled = "rescheduled"
	InterviewCompleted   = "completed"
	InterviewCancelled   = "cancelled"
	InterviewNoShow      = "no-show"
)

// Interview is a scheduled meeting, optionally linked to an application.
type Interview struct {
	gorm.Model
	JobID         uint  `gorm:"index"`
	CandidateID   uint  `gorm:"index"`
	EmployerID    uint  `gorm:"index"`
	ApplicationID *uint `gorm:"index"`
	ScheduledAt   time.Time
	DurationMin   int
	Type          string `gorm:"size:64"`
	Location      string `gorm:"size:255"`
	MeetingLink   string `gorm:"size:512"`
	Status        string `gorm:"size:32;index;default:scheduled"`
	Confirmed     bool
	Notes         string `gorm:"type:text"`
}

// CV parse statuses. A record is mutated only by the pipeline and is
// immutable once completed or failed, except for deletion.
const (
	CVPending   = "pending"
	CVParsing   = "parsing"
	CVCompleted = "completed"
	CVFailed    = "failed"
)

// CVRecord tracks one uploaded resume and its parsing lifecycle. The
// binary lives in object storage under ObjectKey.
type CVRecord struct {
	gorm.Model
	OwnerID    uint   `gorm:"index"`
	FileName   string `gorm:"size:255"`
	ObjectKey  string `gorm:"size:512"`
	SizeBytes  int64
	Status     string         `gorm:"size:32;index;default:pending"`
	ParsedData datatypes.JSON `gorm:"type:jsonb"`
	ParseError string         `gorm:"type:text"`
}

// Conversation is a chat thread between two users, optionally scoped to a
// job. UserAID is always the smaller of the pair so an unordered pair
// (plus job context) maps to exactly one conversation.
type Conversation struct {
	gorm.Model
	UserAID       uint  `gorm:"index;uniqueIndex:idx_conversations_pair_job"`
	UserBID       uint  `gorm:"index;uniqueIndex:idx_conversations_pair_job"`
	JobID         *uint `gorm:"uniqueIndex:idx_conversations_pair_job"`
	LastMessageID *uint
	LastActivity  time.Time
	IsActive      bool `gorm:"default:true"`
}

// Message is one entry in a conversation's append-only log.
type Message struct {
	gorm.Model
	ConversationID uint `gorm:"index"`
	SenderID       uint `gorm:"index"`
	Text           string `gorm:"type:text"`
	IsRead         bool
	ReadAt         *time.Time
}

// Notification is an append-only record delivered to a single user.
type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"index"`
	Title   string `gorm:"size:255"`
	Message string `gorm:"type:text"`
	Type    string `gorm:"size:64"`
	Data    datatypes.JSON `gorm:"type:jsonb"`
	IsRead  bool   `gorm:"index"`
}

// Review is feedback left by one user about another, optionally tied to a job.
type Review struct {
	gorm.Model
	ReviewerID uint  `gorm:"index"`
	TargetID   uint  `gorm:"index"`
	JobID      *uint `gorm:"index"`
	Rating     int
	Comment    string `gorm:"type:text"`
}
