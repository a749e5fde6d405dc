package transport

import (
	"time"

	"trialbridge/internal/trials/domain"
)

// SelectTrialRequest jumps the browser to a trial index.
type SelectTrialRequest struct {
	Index *int `json:"index" validate:"required,min=0"`
}

// SelectTabRequest switches the detail tab.
type SelectTabRequest struct {
	Tab string `json:"tab" validate:"required,browsertab"`
}

// ApplyRequest carries optional applicant contact details.
type ApplyRequest struct {
	Name  string `json:"name" validate:"omitempty,max=200"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
	Note  string `json:"note" validate:"omitempty,max=2000"`
}

// TrialResponse is a trial with its tier and the session's marks.
type TrialResponse struct {
	domain.Trial
	Tier    string `json:"tier"`
	Saved   bool   `json:"saved"`
	Applied bool   `json:"applied"`
}

// ListResponse is the catalog in display order with header counts.
type ListResponse struct {
	Trials            []TrialResponse `json:"trials"`
	Summary           string          `json:"summary"`
	Total             int             `json:"total"`
	SavedCount        int             `json:"savedCount"`
	ApplicationsCount int             `json:"applicationsCount"`
}

// BrowserResponse is the browser state with the current trial.
type BrowserResponse struct {
	CurrentIndex int           `json:"currentTrialIndex"`
	CurrentTrial TrialResponse `json:"currentTrial"`
	SelectedTab  string        `json:"selectedTab"`
	SavedIDs     []string      `json:"savedTrialIds"`
	AppliedIDs   []string      `json:"appliedTrialIds"`
	Position     string        `json:"position"`
	CanPrevious  bool          `json:"canPrevious"`
	CanNext      bool          `json:"canNext"`
	CanApply     bool          `json:"canApply"`
}

// SaveResponse reports the saved mark after a toggle.
type SaveResponse struct {
	TrialID string          `json:"trialId"`
	Saved   bool            `json:"saved"`
	Browser BrowserResponse `json:"browser"`
}

// ApplyResponse confirms an application.
type ApplyResponse struct {
	TrialID        string          `json:"trialId"`
	Message        string          `json:"message"`
	AlreadyApplied bool            `json:"alreadyApplied"`
	Browser        BrowserResponse `json:"browser"`
}

// TrialListResponse lists a subset of trials in catalog order.
type TrialListResponse struct {
	Trials []TrialResponse `json:"trials"`
	Count  int             `json:"count"`
}

// EligibilityResponse is the advisory check of the session's intake answers
// against one trial's structured criteria.
type EligibilityResponse struct {
	TrialID  string          `json:"trialId"`
	Criteria domain.Criteria `json:"criteria"`
	domain.Eligibility
	CheckedAt time.Time `json:"checkedAt"`
}
