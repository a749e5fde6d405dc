package notification

import (
	"context"
	"errors"
	"testing"

	"trialbridge/internal/email"
	"trialbridge/internal/events"
	"trialbridge/internal/scheduler"
	"trialbridge/platform/logger"

	"github.com/google/uuid"
)

type fakeEnqueuer struct {
	intake      []scheduler.IntakeSubmittedPayload
	coordinator []scheduler.CoordinatorNotifyPayload
	err         error
}

func (f *fakeEnqueuer) EnqueueIntakeSubmitted(_ context.Context, payload scheduler.IntakeSubmittedPayload) error {
	f.intake = append(f.intake, payload)
	return f.err
}

func (f *fakeEnqueuer) EnqueueCoordinatorNotify(_ context.Context, payload scheduler.CoordinatorNotifyPayload) error {
	f.coordinator = append(f.coordinator, payload)
	return f.err
}

type countingSender struct {
	applications int
}

func (s *countingSender) SendCoordinatorApplication(context.Context, string, email.CoordinatorApplication) error {
	s.applications++
	return nil
}

func (s *countingSender) SendIntakeSummary(context.Context, string, email.IntakeSummary) error {
	return nil
}

func TestTrialAppliedSchedulesCoordinatorNotification(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	bus := events.NewInMemoryBus(logger.Discard())
	New(enqueuer, logger.Discard()).RegisterHandlers(bus)

	sessionID := uuid.New()
	err := bus.PublishSync(context.Background(), events.TrialApplied{
		BaseEvent:        events.NewBaseEvent(),
		SessionID:        sessionID,
		TrialID:          "NCT05123456",
		TrialTitle:       "Immunotherapy Study",
		CoordinatorEmail: "coordinator@example.org",
		Applicant:        events.Applicant{Name: "Jane Doe", Phone: "+16177262000"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(enqueuer.coordinator) != 1 {
		t.Fatalf("expected one coordinator task, got %d", len(enqueuer.coordinator))
	}
	got := enqueuer.coordinator[0]
	if got.SessionID != sessionID.String() || got.TrialID != "NCT05123456" || got.ApplicantName != "Jane Doe" {
		t.Fatalf("unexpected payload: %+v", got)
	}
}

func TestIntakeSubmittedSchedulesSummary(t *testing.T) {
	enqueuer := &fakeEnqueuer{}
	bus := events.NewInMemoryBus(logger.Discard())
	New(enqueuer, logger.Discard()).RegisterHandlers(bus)

	err := bus.PublishSync(context.Background(), events.IntakeSubmitted{
		BaseEvent:           events.NewBaseEvent(),
		SessionID:           uuid.New(),
		Answers:             map[string]map[string]string{"demographics": {"age": "42"}},
		CompletedCategories: []string{"demographics"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(enqueuer.intake) != 1 {
		t.Fatalf("expected one intake task, got %d", len(enqueuer.intake))
	}
	if enqueuer.intake[0].Answers["demographics"]["age"] != "42" {
		t.Fatalf("answers not carried: %+v", enqueuer.intake[0].Answers)
	}
}

func TestEnqueueFailureIsSwallowed(t *testing.T) {
	m := New(&fakeEnqueuer{err: errors.New("redis down")}, logger.Discard())

	err := m.Handle(context.Background(), events.TrialApplied{TrialID: "NCT05123456", CoordinatorEmail: "c@example.org"})
	if err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestNilEnqueuerOnlyLogs(t *testing.T) {
	m := New(nil, logger.Discard())

	if err := m.Handle(context.Background(), events.IntakeSubmitted{SessionID: uuid.New()}); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestInlineEnqueuerDeliversThroughHandlers(t *testing.T) {
	sender := &countingSender{}
	handlers := scheduler.NewHandlers(sender, nil, "", logger.Discard())
	m := New(scheduler.NewInline(handlers), logger.Discard())

	err := m.Handle(context.Background(), events.TrialApplied{
		SessionID:        uuid.New(),
		TrialID:          "NCT05123456",
		CoordinatorEmail: "coordinator@example.org",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if sender.applications != 1 {
		t.Fatalf("expected one email, got %d", sender.applications)
	}
}
