// Package service implements the intake wizard use cases on top of the
// session state store.
package service

import (
	"context"
	"errors"
	"fmt"

	"trialbridge/internal/events"
	"trialbridge/internal/intake/domain"
	"trialbridge/internal/intake/transport"
	"trialbridge/internal/session"
	"trialbridge/platform/apperr"
	"trialbridge/platform/logger"

	"github.com/google/uuid"
)

// SubmitMessage is the confirmation shown after a successful submit.
const SubmitMessage = "Trial eligibility form submitted successfully!"

// Service provides intake wizard operations for a session.
type Service struct {
	catalog *domain.Catalog
	store   session.Store
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new intake service.
func New(catalog *domain.Catalog, store session.Store, bus events.Bus, log *logger.Logger) *Service {
	return &Service{catalog: catalog, store: store, bus: bus, log: log}
}

// Catalog returns the form catalog the service walks.
func (s *Service) Catalog() *domain.Catalog {
	return s.catalog
}

// Form returns every category with its fields.
func (s *Service) Form() transport.FormResponse {
	categories := s.catalog.Categories()
	out := make([]transport.CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, toCategoryResponse(category))
	}
	return transport.FormResponse{Categories: out, TotalSteps: len(out)}
}

// State returns the session's wizard state.
func (s *Service) State(ctx context.Context, sessionID uuid.UUID) (transport.StateResponse, error) {
	state, err := session.Load(ctx, s.store, sessionID, session.KindIntake, domain.NewState)
	if err != nil {
		return transport.StateResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load intake state", err)
	}
	return s.toStateResponse(state), nil
}

// SelectStep jumps to any category.
func (s *Service) SelectStep(ctx context.Context, sessionID uuid.UUID, index int) (transport.StateResponse, error) {
	return s.mutate(ctx, sessionID, func(state domain.State) (domain.State, error) {
		return state.SelectCategory(s.catalog, index)
	})
}

// SetAnswer records a field value.
func (s *Service) SetAnswer(ctx context.Context, sessionID uuid.UUID, req transport.SetAnswerRequest) (transport.StateResponse, error) {
	return s.mutate(ctx, sessionID, func(state domain.State) (domain.State, error) {
		return state.SetAnswer(s.catalog, domain.CategoryID(req.Category), req.Field, req.Value)
	})
}

// Advance completes the current category and moves forward.
func (s *Service) Advance(ctx context.Context, sessionID uuid.UUID) (transport.StateResponse, error) {
	return s.mutate(ctx, sessionID, func(state domain.State) (domain.State, error) {
		return state.Advance(s.catalog), nil
	})
}

// Retreat moves back one category.
func (s *Service) Retreat(ctx context.Context, sessionID uuid.UUID) (transport.StateResponse, error) {
	return s.mutate(ctx, sessionID, func(state domain.State) (domain.State, error) {
		return state.Retreat(s.catalog), nil
	})
}

// Submit completes the final category and hands the answers to the
// submission subscribers.
func (s *Service) Submit(ctx context.Context, sessionID uuid.UUID) (transport.SubmitResponse, error) {
	var submitted domain.State
	resp, err := s.mutate(ctx, sessionID, func(state domain.State) (domain.State, error) {
		next, err := state.Submit(s.catalog)
		submitted = next
		return next, err
	})
	if err != nil {
		return transport.SubmitResponse{}, err
	}

	s.bus.Publish(ctx, events.IntakeSubmitted{
		BaseEvent:           events.NewBaseEvent(),
		SessionID:           sessionID,
		Answers:             toAnswerMap(submitted.Answers),
		CompletedCategories: toIDs(submitted.Completed.InOrder(s.catalog)),
	})
	s.log.WithContext(ctx).Info("intake submitted", "completed", len(submitted.Completed))

	return transport.SubmitResponse{Message: SubmitMessage, State: resp}, nil
}

// Review reports advisory findings about the session's answers.
func (s *Service) Review(ctx context.Context, sessionID uuid.UUID) (transport.ReviewResponse, error) {
	state, err := session.Load(ctx, s.store, sessionID, session.KindIntake, domain.NewState)
	if err != nil {
		return transport.ReviewResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load intake state", err)
	}

	issues := domain.Review(s.catalog, state.Answers)
	out := make([]transport.IssueResponse, 0, len(issues))
	for _, issue := range issues {
		out = append(out, transport.IssueResponse{
			Category: string(issue.Category),
			Field:    issue.Field,
			Kind:     string(issue.Kind),
			Message:  issue.Message,
		})
	}
	return transport.ReviewResponse{Issues: out, Complete: len(out) == 0}, nil
}

// Reset discards the session's wizard state.
func (s *Service) Reset(ctx context.Context, sessionID uuid.UUID) (transport.StateResponse, error) {
	if err := s.store.Delete(ctx, sessionID, session.KindIntake); err != nil {
		return transport.StateResponse{}, apperr.Wrap(apperr.KindInternal, "failed to reset intake state", err)
	}
	return s.toStateResponse(domain.NewState()), nil
}

func (s *Service) mutate(ctx context.Context, sessionID uuid.UUID, fn func(domain.State) (domain.State, error)) (transport.StateResponse, error) {
	state, err := session.Mutate(ctx, s.store, sessionID, session.KindIntake, domain.NewState, fn)
	if err != nil {
		return transport.StateResponse{}, mapError(err)
	}
	return s.toStateResponse(state), nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return apperr.Validation("category index out of range")
	case errors.Is(err, domain.ErrUnknownCategory):
		return apperr.Validation("unknown category")
	case errors.Is(err, domain.ErrUnknownField):
		return apperr.Validation("unknown field for category")
	case errors.Is(err, domain.ErrNotFinalStep):
		return apperr.Conflict("submit is only available on the final category")
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to update intake state", err)
	}
}

func (s *Service) toStateResponse(state domain.State) transport.StateResponse {
	current := state.CurrentCategory(s.catalog)
	index, _ := s.catalog.IndexOf(current.ID)

	categories := s.catalog.Categories()
	summaries := make([]transport.CategorySummary, 0, len(categories))
	for i, category := range categories {
		summaries = append(summaries, transport.CategorySummary{
			ID:        string(category.ID),
			Label:     category.Label,
			Completed: state.Completed.Has(category.ID),
			Current:   i == index,
		})
	}

	return transport.StateResponse{
		CurrentIndex:    index,
		CurrentCategory: toCategoryResponse(current),
		StepLabel:       fmt.Sprintf("Step %d of %d", index+1, s.catalog.Len()),
		ProgressPercent: state.ProgressPercent(s.catalog),
		Categories:      summaries,
		Answers:         toAnswerMap(state.Answers),
		Completed:       toIDs(state.Completed.InOrder(s.catalog)),
		CanPrevious:     index > 0,
		CanSubmit:       state.CanSubmit(s.catalog),
	}
}

func toCategoryResponse(category domain.Category) transport.CategoryResponse {
	fields := make([]transport.FieldResponse, 0, len(category.Fields))
	for _, field := range category.Fields {
		fields = append(fields, transport.FieldResponse{
			Name:        field.Name,
			Label:       field.Label,
			InputKind:   string(field.Kind),
			Placeholder: field.Placeholder,
			Required:    field.Required,
			Options:     field.Options,
			NumericStep: field.Step,
		})
	}
	return transport.CategoryResponse{ID: string(category.ID), Label: category.Label, Fields: fields}
}

func toAnswerMap(answers domain.Answers) map[string]map[string]string {
	out := make(map[string]map[string]string, len(answers))
	for category, fields := range answers {
		copied := make(map[string]string, len(fields))
		for k, v := range fields {
			copied[k] = v
		}
		out[string(category)] = copied
	}
	return out
}

func toIDs(ids []domain.CategoryID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
