package workflow

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobboard/internal/database"
	"jobboard/internal/errcode"
)

func newInterviewFixture(t *testing.T) (*InterviewService, *ApplicationService, *fakeNotifier, *database.Application) {
	t.Helper()
	db := newTestDB(t)
	notifier := &fakeNotifier{}
	apps := NewApplicationService(db, notifier, nil, testLogger())
	interviews := NewInterviewService(db, apps, notifier, testLogger())

	job := seedJob(t, db, 10)
	application, err := apps.Create(context.Background(), 20, CreateParams{JobID: job.ID})
	if err != nil {
		t.Fatalf("create application: %v", err)
	}
	notifier.created = nil

	return interviews, apps, notifier, application
}

func scheduleParams(application *database.Application) InterviewParams {
	return InterviewParams{
		ApplicationID: &application.ID,
		ScheduledAt:   time.Now().Add(48 * time.Hour),
		DurationMin:   60,
		Type:          "video",
	}
}

func TestCreateInterviewDrivesApplication(t *testing.T) {
	interviews, apps, notifier, application := newInterviewFixture(t)

	interview, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create interview: %v", err)
	}
	if interview.Status != database.InterviewScheduled {
		t.Errorf("status = %q, want scheduled", interview.Status)
	}
	if interview.CandidateID != application.CandidateID || interview.JobID != application.JobID {
		t.Errorf("interview did not inherit application fields: %+v", interview)
	}

	reloaded, err := apps.Get(context.Background(), application.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloaded.Status != database.ApplicationInterviewScheduled {
		t.Errorf("application status = %q, want interview_scheduled", reloaded.Status)
	}

	if len(notifier.created) != 1 || notifier.created[0].UserID != 20 || notifier.created[0].Title != "Interview Scheduled!" {
		t.Errorf("notifications = %+v, want scheduling notice to candidate", notifier.created)
	}
}

func TestSecondOpenInterviewConflicts(t *testing.T) {
	interviews, _, _, application := newInterviewFixture(t)

	if _, err := interviews.Create(context.Background(), scheduleParams(application), 10); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if !errors.Is(err, errcode.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestRescheduledInterviewStillBlocksNewOne(t *testing.T) {
	interviews, _, _, application := newInterviewFixture(t)

	first, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := interviews.Reschedule(context.Background(), first.ID, time.Now().Add(72*time.Hour)); err != nil {
		t.Fatalf("reschedule: %v", err)
	}

	_, err = interviews.Create(context.Background(), scheduleParams(application), 10)
	if !errors.Is(err, errcode.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestCompletedInterviewReleasesSlot(t *testing.T) {
	interviews, apps, _, application := newInterviewFixture(t)

	first, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := interviews.Complete(context.Background(), first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	reloaded, err := apps.Get(context.Background(), application.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if reloaded.Status != database.ApplicationInterviewCompleted {
		t.Errorf("application status = %q, want interview_completed", reloaded.Status)
	}

	if _, err := interviews.Create(context.Background(), scheduleParams(application), 10); err != nil {
		t.Fatalf("create after completion: %v", err)
	}
}

func TestCancelledInterviewReleasesSlotAndLeavesApplicationAlone(t *testing.T) {
	interviews, apps, _, application := newInterviewFixture(t)

	first, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	before, err := apps.Get(context.Background(), application.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}

	if _, err := interviews.Cancel(context.Background(), first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	after, err := apps.Get(context.Background(), application.ID)
	if err != nil {
		t.Fatalf("reload application: %v", err)
	}
	if after.Status != before.Status {
		t.Errorf("cancel changed application status from %q to %q", before.Status, after.Status)
	}

	if _, err := interviews.Create(context.Background(), scheduleParams(application), 10); err != nil {
		t.Fatalf("create after cancellation: %v", err)
	}
}

func TestCreateInterviewForClosedApplication(t *testing.T) {
	interviews, apps, _, application := newInterviewFixture(t)

	if _, err := apps.Withdraw(context.Background(), application.ID); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	_, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if !errors.Is(err, errcode.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestConfirmNotifiesEmployer(t *testing.T) {
	interviews, _, notifier, application := newInterviewFixture(t)

	interview, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	notifier.created = nil

	confirmed, err := interviews.Confirm(context.Background(), interview.ID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !confirmed.Confirmed {
		t.Error("interview not marked confirmed")
	}

	if len(notifier.created) != 1 || notifier.created[0].UserID != 10 || notifier.created[0].Title != "Interview Confirmed!" {
		t.Errorf("notifications = %+v, want confirmation to employer", notifier.created)
	}
}

func TestCreateInterviewSurvivesNotifierFailure(t *testing.T) {
	interviews, _, notifier, application := newInterviewFixture(t)
	notifier.err = errors.New("redis down")

	interview, err := interviews.Create(context.Background(), scheduleParams(application), 10)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if interview.ID == 0 {
		t.Fatal("interview was not persisted")
	}
}

func TestRemoveMissingInterview(t *testing.T) {
	interviews, _, _, _ := newInterviewFixture(t)

	err := interviews.Remove(context.Background(), 12345)
	if !errors.Is(err, errcode.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
