// Package events defines what the intake, trials and document modules announce
// after a state change. The bus itself lives in platform/events.
package events

import (
	"trialbridge/platform/events"
	"trialbridge/platform/logger"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

var NewBaseEvent = events.NewBaseEvent

// NewInMemoryBus creates the process-local bus the API and CLIs share.
func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return events.NewInMemoryBus(log)
}

// =============================================================================
// Intake Domain Events
// =============================================================================

// IntakeSubmitted is published when a session submits the eligibility form.
type IntakeSubmitted struct {
	BaseEvent
	SessionID           uuid.UUID                    `json:"sessionId"`
	Answers             map[string]map[string]string `json:"answers"`
	CompletedCategories []string                     `json:"completedCategories"`
}

func (e IntakeSubmitted) EventName() string { return "intake.submitted" }

// =============================================================================
// Trials Domain Events
// =============================================================================

// Applicant is the optional contact a session leaves when applying.
type Applicant struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Note  string `json:"note,omitempty"`
}

// TrialApplied is published once per session and trial, on the first apply.
type TrialApplied struct {
	BaseEvent
	SessionID        uuid.UUID `json:"sessionId"`
	TrialID          string    `json:"trialId"`
	TrialTitle       string    `json:"trialTitle"`
	CoordinatorEmail string    `json:"coordinatorEmail"`
	Applicant        Applicant `json:"applicant"`
}

func (e TrialApplied) EventName() string { return "trials.applied" }

// =============================================================================
// Document Parser Events
// =============================================================================

// DocumentParsed is published after a successful parse.
type DocumentParsed struct {
	BaseEvent
	SessionID    uuid.UUID `json:"sessionId"`
	Provider     string    `json:"provider"`
	DocumentType string    `json:"documentType"`
	ArchiveKey   string    `json:"archiveKey,omitempty"`
}

func (e DocumentParsed) EventName() string { return "documents.parsed" }
