package scheduler

import "context"

// Inline runs tasks in the calling goroutine. It backs the Enqueuer when no
// Redis is configured.
type Inline struct {
	handlers *Handlers
}

func NewInline(handlers *Handlers) *Inline {
	return &Inline{handlers: handlers}
}

func (i *Inline) EnqueueIntakeSubmitted(ctx context.Context, payload IntakeSubmittedPayload) error {
	task, err := NewIntakeSubmittedTask(payload)
	if err != nil {
		return err
	}
	return i.handlers.HandleIntakeSubmitted(ctx, task)
}

func (i *Inline) EnqueueCoordinatorNotify(ctx context.Context, payload CoordinatorNotifyPayload) error {
	task, err := NewCoordinatorNotifyTask(payload)
	if err != nil {
		return err
	}
	return i.handlers.HandleCoordinatorNotify(ctx, task)
}

var _ Enqueuer = (*Inline)(nil)
