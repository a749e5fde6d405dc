// Package service implements the trial browser use cases on top of the
// session state store.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trialbridge/internal/events"
	intakedomain "trialbridge/internal/intake/domain"
	"trialbridge/internal/session"
	"trialbridge/internal/trials/domain"
	"trialbridge/internal/trials/transport"
	"trialbridge/platform/apperr"
	"trialbridge/platform/config"
	"trialbridge/platform/logger"
	"trialbridge/platform/phone"
	"trialbridge/platform/sanitize"

	"github.com/google/uuid"
)

// ApplyMessage is the confirmation shown after an application.
const ApplyMessage = "Application submitted! The study coordinator will contact you within 2-3 business days."

const msgTrialNotFound = "trial not found"

// Service provides trial browser operations for a session.
type Service struct {
	catalog *domain.Catalog
	store   session.Store
	bus     events.Bus
	region  string
	log     *logger.Logger
}

// New creates a new trials service. A nil contact config falls back to the
// default phone region.
func New(catalog *domain.Catalog, store session.Store, bus events.Bus, cfg config.ContactConfig, log *logger.Logger) *Service {
	region := phone.DefaultRegion
	if cfg != nil && strings.TrimSpace(cfg.GetPhoneDefaultRegion()) != "" {
		region = strings.ToUpper(strings.TrimSpace(cfg.GetPhoneDefaultRegion()))
	}
	return &Service{catalog: catalog, store: store, bus: bus, region: region, log: log}
}

// Catalog returns the trial catalog.
func (s *Service) Catalog() *domain.Catalog {
	return s.catalog
}

// List returns every trial in display order with the session's marks.
func (s *Service) List(ctx context.Context, sessionID uuid.UUID) (transport.ListResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return transport.ListResponse{}, err
	}

	trials := s.catalog.Trials()
	out := make([]transport.TrialResponse, 0, len(trials))
	for _, trial := range trials {
		out = append(out, toTrialResponse(trial, state))
	}

	return transport.ListResponse{
		Trials:            out,
		Summary:           fmt.Sprintf("%d trials match your profile", len(out)),
		Total:             len(out),
		SavedCount:        len(state.Saved),
		ApplicationsCount: len(state.Applied),
	}, nil
}

// Get returns one trial.
func (s *Service) Get(ctx context.Context, sessionID uuid.UUID, trialID string) (transport.TrialResponse, error) {
	trial, ok := s.catalog.Lookup(trialID)
	if !ok {
		return transport.TrialResponse{}, apperr.NotFound(msgTrialNotFound)
	}
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return transport.TrialResponse{}, err
	}
	return toTrialResponse(trial, state), nil
}

// Browser returns the session's browser state.
func (s *Service) Browser(ctx context.Context, sessionID uuid.UUID) (transport.BrowserResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return transport.BrowserResponse{}, err
	}
	return s.toBrowserResponse(state), nil
}

// SelectTrial jumps to the trial at index.
func (s *Service) SelectTrial(ctx context.Context, sessionID uuid.UUID, index int) (transport.BrowserResponse, error) {
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		return state.SelectTrial(s.catalog, index)
	})
	if err != nil {
		return transport.BrowserResponse{}, err
	}
	return s.toBrowserResponse(state), nil
}

// Next moves to the following trial.
func (s *Service) Next(ctx context.Context, sessionID uuid.UUID) (transport.BrowserResponse, error) {
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		return state.Next(s.catalog), nil
	})
	if err != nil {
		return transport.BrowserResponse{}, err
	}
	return s.toBrowserResponse(state), nil
}

// Previous moves to the preceding trial.
func (s *Service) Previous(ctx context.Context, sessionID uuid.UUID) (transport.BrowserResponse, error) {
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		return state.Previous(s.catalog), nil
	})
	if err != nil {
		return transport.BrowserResponse{}, err
	}
	return s.toBrowserResponse(state), nil
}

// SelectTab switches the detail tab.
func (s *Service) SelectTab(ctx context.Context, sessionID uuid.UUID, tab string) (transport.BrowserResponse, error) {
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		return state.SelectTab(domain.Tab(tab))
	})
	if err != nil {
		return transport.BrowserResponse{}, err
	}
	return s.toBrowserResponse(state), nil
}

// ToggleSave flips the saved mark of a trial.
func (s *Service) ToggleSave(ctx context.Context, sessionID uuid.UUID, trialID string) (transport.SaveResponse, error) {
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		return state.ToggleSave(s.catalog, trialID)
	})
	if err != nil {
		return transport.SaveResponse{}, err
	}
	return transport.SaveResponse{
		TrialID: trialID,
		Saved:   state.Saved.Has(trialID),
		Browser: s.toBrowserResponse(state),
	}, nil
}

// Apply records an application. Only the first application for a trial
// notifies the coordinator.
func (s *Service) Apply(ctx context.Context, sessionID uuid.UUID, trialID string, req transport.ApplyRequest) (transport.ApplyResponse, error) {
	trial, ok := s.catalog.Lookup(trialID)
	if !ok {
		return transport.ApplyResponse{}, apperr.NotFound(msgTrialNotFound)
	}

	applicant, err := s.normalizeApplicant(req)
	if err != nil {
		return transport.ApplyResponse{}, err
	}

	var first bool
	state, err := s.mutate(ctx, sessionID, func(state domain.BrowserState) (domain.BrowserState, error) {
		next, isFirst, err := state.Apply(s.catalog, trialID)
		first = isFirst
		return next, err
	})
	if err != nil {
		return transport.ApplyResponse{}, err
	}

	if first {
		s.bus.Publish(ctx, events.TrialApplied{
			BaseEvent:        events.NewBaseEvent(),
			SessionID:        sessionID,
			TrialID:          trial.ID,
			TrialTitle:       trial.Title,
			CoordinatorEmail: trial.ContactEmail,
			Applicant:        applicant,
		})
		s.log.WithContext(ctx).Info("trial application submitted", "trialId", trial.ID)
	}

	return transport.ApplyResponse{
		TrialID:        trialID,
		Message:        ApplyMessage,
		AlreadyApplied: !first,
		Browser:        s.toBrowserResponse(state),
	}, nil
}

// Saved returns the saved trials in catalog order.
func (s *Service) Saved(ctx context.Context, sessionID uuid.UUID) (transport.TrialListResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return transport.TrialListResponse{}, err
	}
	return s.toTrialList(state.Saved.InOrder(s.catalog), state), nil
}

// Applications returns the applied trials in catalog order.
func (s *Service) Applications(ctx context.Context, sessionID uuid.UUID) (transport.TrialListResponse, error) {
	state, err := s.load(ctx, sessionID)
	if err != nil {
		return transport.TrialListResponse{}, err
	}
	return s.toTrialList(state.Applied.InOrder(s.catalog), state), nil
}

// Eligibility checks the session's intake answers against a trial's
// criteria. It reads state only.
func (s *Service) Eligibility(ctx context.Context, sessionID uuid.UUID, trialID string) (transport.EligibilityResponse, error) {
	trial, ok := s.catalog.Lookup(trialID)
	if !ok {
		return transport.EligibilityResponse{}, apperr.NotFound(msgTrialNotFound)
	}

	intake, err := session.Load(ctx, s.store, sessionID, session.KindIntake, intakedomain.NewState)
	if err != nil {
		return transport.EligibilityResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load intake answers", err)
	}

	answers := make(map[string]map[string]string, len(intake.Answers))
	for category, fields := range intake.Answers {
		answers[string(category)] = fields
	}

	result := domain.CheckEligibility(domain.ProfileFromAnswers(answers), trial.Criteria)
	s.log.WithContext(ctx).Debug("eligibility checked", "trialId", trial.ID, "eligible", result.Eligible)

	return transport.EligibilityResponse{
		TrialID:     trial.ID,
		Criteria:    trial.Criteria,
		Eligibility: result,
		CheckedAt:   time.Now().UTC(),
	}, nil
}

func (s *Service) normalizeApplicant(req transport.ApplyRequest) (events.Applicant, error) {
	applicant := events.Applicant{
		Name:  sanitize.Text(req.Name),
		Email: strings.ToLower(strings.TrimSpace(req.Email)),
		Note:  sanitize.Multiline(req.Note),
	}
	if raw := strings.TrimSpace(req.Phone); raw != "" {
		normalized, ok := phone.NormalizeE164(raw, s.region)
		if !ok {
			return events.Applicant{}, apperr.Validation("invalid phone number")
		}
		applicant.Phone = normalized
	}
	return applicant, nil
}

func (s *Service) load(ctx context.Context, sessionID uuid.UUID) (domain.BrowserState, error) {
	state, err := session.Load(ctx, s.store, sessionID, session.KindBrowser, domain.NewBrowserState)
	if err != nil {
		return domain.BrowserState{}, apperr.Wrap(apperr.KindInternal, "failed to load browser state", err)
	}
	return state, nil
}

func (s *Service) mutate(ctx context.Context, sessionID uuid.UUID, fn func(domain.BrowserState) (domain.BrowserState, error)) (domain.BrowserState, error) {
	state, err := session.Mutate(ctx, s.store, sessionID, session.KindBrowser, domain.NewBrowserState, fn)
	if err != nil {
		return domain.BrowserState{}, mapError(err)
	}
	return state, nil
}

func mapError(err error) error {
	switch {
	case errors.Is(err, domain.ErrIndexOutOfRange):
		return apperr.Validation("trial index out of range")
	case errors.Is(err, domain.ErrUnknownTab):
		return apperr.Validation("unknown tab")
	case errors.Is(err, domain.ErrUnknownTrial):
		return apperr.NotFound(msgTrialNotFound)
	default:
		return apperr.Wrap(apperr.KindInternal, "failed to update browser state", err)
	}
}

func (s *Service) toBrowserResponse(state domain.BrowserState) transport.BrowserResponse {
	state = state.Normalize(s.catalog)
	current := state.Current(s.catalog)
	last := s.catalog.Len() - 1
	return transport.BrowserResponse{
		CurrentIndex: state.CurrentIndex,
		CurrentTrial: toTrialResponse(current, state),
		SelectedTab:  string(state.Tab),
		SavedIDs:     state.Saved.InOrder(s.catalog),
		AppliedIDs:   state.Applied.InOrder(s.catalog),
		Position:     fmt.Sprintf("%d of %d", state.CurrentIndex+1, s.catalog.Len()),
		CanPrevious:  state.CurrentIndex > 0,
		CanNext:      state.CurrentIndex < last,
		CanApply:     state.CanApply(current.ID),
	}
}

func (s *Service) toTrialList(ids []string, state domain.BrowserState) transport.TrialListResponse {
	out := make([]transport.TrialResponse, 0, len(ids))
	for _, id := range ids {
		if trial, ok := s.catalog.Lookup(id); ok {
			out = append(out, toTrialResponse(trial, state))
		}
	}
	return transport.TrialListResponse{Trials: out, Count: len(out)}
}

func toTrialResponse(trial domain.Trial, state domain.BrowserState) transport.TrialResponse {
	return transport.TrialResponse{
		Trial:   trial,
		Tier:    string(trial.Tier()),
		Saved:   state.Saved.Has(trial.ID),
		Applied: state.Applied.Has(trial.ID),
	}
}
