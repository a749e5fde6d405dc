package scheduler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"trialbridge/internal/email"
	"trialbridge/internal/intake/domain"
	"trialbridge/platform/config"
	"trialbridge/platform/logger"

	"github.com/hibiken/asynq"
)

const defaultConcurrency = 10

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	handlers *Handlers
	log      *logger.Logger
}

// Handlers processes the task types the worker consumes. It holds no queue
// state, so it can run outside an asynq server.
type Handlers struct {
	sender          email.Sender
	catalog         *domain.Catalog
	intakeRecipient string
	log             *logger.Logger
}

func NewHandlers(sender email.Sender, catalog *domain.Catalog, intakeRecipient string, log *logger.Logger) *Handlers {
	if sender == nil {
		sender = email.NoopSender{}
	}
	return &Handlers{
		sender:          sender,
		catalog:         catalog,
		intakeRecipient: strings.TrimSpace(intakeRecipient),
		log:             log,
	}
}

func NewWorker(cfg config.SchedulerConfig, handlers *Handlers, log *logger.Logger) (*Worker, error) {
	opt, err := redisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = defaultConcurrency
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskIntakeSubmitted, handlers.HandleIntakeSubmitted)
	mux.HandleFunc(TaskCoordinatorNotify, handlers.HandleCoordinatorNotify)

	return &Worker{
		server:   server,
		mux:      mux,
		handlers: handlers,
		log:      log,
	}, nil
}

// Run blocks until ctx is cancelled or the server fails.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil || w.server == nil {
		return nil
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
		return err
	}
	return nil
}

func (h *Handlers) HandleCoordinatorNotify(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseCoordinatorNotifyPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	if payload.CoordinatorEmail == "" {
		h.log.Warn("coordinator notification without recipient", "trialId", payload.TrialID)
		return nil
	}

	return h.sender.SendCoordinatorApplication(ctx, payload.CoordinatorEmail, email.CoordinatorApplication{
		TrialID:        payload.TrialID,
		TrialTitle:     payload.TrialTitle,
		ApplicantName:  payload.ApplicantName,
		ApplicantEmail: payload.ApplicantEmail,
		ApplicantPhone: payload.ApplicantPhone,
		Note:           payload.Note,
		SessionRef:     sessionRef(payload.SessionID),
	})
}

func (h *Handlers) HandleIntakeSubmitted(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIntakeSubmittedPayload(task)
	if err != nil {
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	summary := h.intakeSummary(payload)
	if h.intakeRecipient == "" {
		h.log.Info("intake submission received",
			"session", summary.SessionRef,
			"categories", len(payload.CompletedCategories),
			"answered", countAnswers(summary))
		return nil
	}

	return h.sender.SendIntakeSummary(ctx, h.intakeRecipient, summary)
}

// intakeSummary orders answers by the catalog, labelling fields where the
// catalog knows them. Unknown categories keep their raw ids at the end.
func (h *Handlers) intakeSummary(payload IntakeSubmittedPayload) email.IntakeSummary {
	summary := email.IntakeSummary{SessionRef: sessionRef(payload.SessionID)}
	seen := make(map[string]struct{}, len(payload.Answers))

	if h.catalog != nil {
		for _, category := range h.catalog.Categories() {
			values, ok := payload.Answers[string(category.ID)]
			if !ok {
				continue
			}
			seen[string(category.ID)] = struct{}{}

			section := email.IntakeCategory{Label: category.Label}
			for _, field := range category.Fields {
				value := strings.TrimSpace(values[field.Name])
				if value == "" {
					continue
				}
				section.Answers = append(section.Answers, email.IntakeAnswer{Field: field.Label, Value: value})
			}
			if len(section.Answers) > 0 {
				summary.Categories = append(summary.Categories, section)
			}
		}
	}

	for _, id := range slices.Sorted(maps.Keys(payload.Answers)) {
		if _, ok := seen[id]; ok {
			continue
		}
		values := payload.Answers[id]
		section := email.IntakeCategory{Label: id}
		for _, field := range slices.Sorted(maps.Keys(values)) {
			value := strings.TrimSpace(values[field])
			if value == "" {
				continue
			}
			section.Answers = append(section.Answers, email.IntakeAnswer{Field: field, Value: value})
		}
		if len(section.Answers) > 0 {
			summary.Categories = append(summary.Categories, section)
		}
	}

	return summary
}

func countAnswers(summary email.IntakeSummary) int {
	n := 0
	for _, category := range summary.Categories {
		n += len(category.Answers)
	}
	return n
}

// sessionRef shortens a session id for display.
func sessionRef(sessionID string) string {
	if len(sessionID) > 8 {
		return sessionID[:8]
	}
	return sessionID
}
