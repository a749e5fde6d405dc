// Package notification turns submission events into background work.
// Domain modules publish events; this module decides what follows up on them
// so intake and trials never know about email or queues.
package notification

import (
	"context"

	"trialbridge/internal/events"
	"trialbridge/internal/scheduler"
	"trialbridge/platform/logger"
)

// Module handles submission events by scheduling follow-up tasks.
type Module struct {
	enqueuer scheduler.Enqueuer
	log      *logger.Logger
}

// New creates the notification module. A nil enqueuer only logs events.
func New(enqueuer scheduler.Enqueuer, log *logger.Logger) *Module {
	return &Module{enqueuer: enqueuer, log: log}
}

// RegisterHandlers subscribes the module to the events it handles.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.IntakeSubmitted{}.EventName(), m)
	bus.Subscribe(events.TrialApplied{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
// Failures are logged and swallowed; the HTTP response has already been sent.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	var err error
	switch e := event.(type) {
	case events.IntakeSubmitted:
		err = m.handleIntakeSubmitted(ctx, e)
	case events.TrialApplied:
		err = m.handleTrialApplied(ctx, e)
	default:
		m.log.Debug("notification module ignoring event", "event", event.EventName())
		return nil
	}

	if err != nil {
		m.log.WithContext(ctx).Error("notification follow-up failed", "event", event.EventName(), "error", err)
	}
	return nil
}

func (m *Module) handleIntakeSubmitted(ctx context.Context, e events.IntakeSubmitted) error {
	if m.enqueuer == nil {
		m.log.Info("intake submitted", "session", e.SessionID.String(), "categories", len(e.CompletedCategories))
		return nil
	}

	return m.enqueuer.EnqueueIntakeSubmitted(ctx, scheduler.IntakeSubmittedPayload{
		SessionID:           e.SessionID.String(),
		Answers:             e.Answers,
		CompletedCategories: e.CompletedCategories,
	})
}

func (m *Module) handleTrialApplied(ctx context.Context, e events.TrialApplied) error {
	if m.enqueuer == nil {
		m.log.Info("trial application received", "session", e.SessionID.String(), "trialId", e.TrialID)
		return nil
	}

	return m.enqueuer.EnqueueCoordinatorNotify(ctx, scheduler.CoordinatorNotifyPayload{
		SessionID:        e.SessionID.String(),
		TrialID:          e.TrialID,
		TrialTitle:       e.TrialTitle,
		CoordinatorEmail: e.CoordinatorEmail,
		ApplicantName:    e.Applicant.Name,
		ApplicantEmail:   e.Applicant.Email,
		ApplicantPhone:   e.Applicant.Phone,
		Note:             e.Applicant.Note,
	})
}

var _ events.Handler = (*Module)(nil)
