package domain

import (
	"encoding/json"
	"errors"
	"sort"
)

// Tab is a detail pane tab.
type Tab string

const (
	TabOverview    Tab = "overview"
	TabEligibility Tab = "eligibility"
	TabDetails     Tab = "details"
)

// Valid reports whether t is a known tab.
func (t Tab) Valid() bool {
	switch t {
	case TabOverview, TabEligibility, TabDetails:
		return true
	}
	return false
}

var (
	// ErrIndexOutOfRange is returned when a trial index is outside the catalog.
	ErrIndexOutOfRange = errors.New("trial index out of range")
	// ErrUnknownTrial is returned for a trial id the catalog does not contain.
	ErrUnknownTrial = errors.New("unknown trial")
	// ErrUnknownTab is returned for a tab outside overview, eligibility, details.
	ErrUnknownTab = errors.New("unknown tab")
)

// IDSet is an immutable set of trial ids. Operations return new sets.
type IDSet map[string]struct{}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy that contains id.
func (s IDSet) With(id string) IDSet {
	out := s.copy()
	out[id] = struct{}{}
	return out
}

// Without returns a copy that lacks id.
func (s IDSet) Without(id string) IDSet {
	out := s.copy()
	delete(out, id)
	return out
}

// InOrder lists members in catalog order, skipping ids the catalog no longer has.
func (s IDSet) InOrder(c *Catalog) []string {
	out := make([]string, 0, len(s))
	for _, trial := range c.trials {
		if s.Has(trial.ID) {
			out = append(out, trial.ID)
		}
	}
	return out
}

func (s IDSet) copy() IDSet {
	out := make(IDSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s IDSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

// UnmarshalJSON decodes a list into the set.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	out := make(IDSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	*s = out
	return nil
}

// BrowserState is one session's trial browser state. Transitions never
// mutate the receiver.
type BrowserState struct {
	CurrentIndex int   `json:"currentIndex"`
	Saved        IDSet `json:"saved"`
	Applied      IDSet `json:"applied"`
	Tab          Tab   `json:"tab"`
}

// NewBrowserState returns the initial state: first trial, overview tab.
func NewBrowserState() BrowserState {
	return BrowserState{CurrentIndex: 0, Saved: IDSet{}, Applied: IDSet{}, Tab: TabOverview}
}

// SelectTrial shows the trial at index on the overview tab.
func (s BrowserState) SelectTrial(c *Catalog, index int) (BrowserState, error) {
	if index < 0 || index >= c.Len() {
		return s, ErrIndexOutOfRange
	}
	s = s.Normalize(c)
	s.CurrentIndex = index
	s.Tab = TabOverview
	return s, nil
}

// ToggleSave adds id to the saved set or removes it.
func (s BrowserState) ToggleSave(c *Catalog, id string) (BrowserState, error) {
	if !c.Contains(id) {
		return s, ErrUnknownTrial
	}
	s = s.Normalize(c)
	if s.Saved.Has(id) {
		s.Saved = s.Saved.Without(id)
	} else {
		s.Saved = s.Saved.With(id)
	}
	return s, nil
}

// Apply records an application. first is false when the session had
// already applied, in which case the state is unchanged.
func (s BrowserState) Apply(c *Catalog, id string) (next BrowserState, first bool, err error) {
	if !c.Contains(id) {
		return s, false, ErrUnknownTrial
	}
	s = s.Normalize(c)
	if s.Applied.Has(id) {
		return s, false, nil
	}
	s.Applied = s.Applied.With(id)
	return s, true, nil
}

// Next moves to the following trial on the overview tab. On the last
// trial it changes nothing.
func (s BrowserState) Next(c *Catalog) BrowserState {
	s = s.Normalize(c)
	if s.CurrentIndex < c.Len()-1 {
		s.CurrentIndex++
		s.Tab = TabOverview
	}
	return s
}

// Previous moves to the preceding trial on the overview tab. On the first
// trial it changes nothing.
func (s BrowserState) Previous(c *Catalog) BrowserState {
	s = s.Normalize(c)
	if s.CurrentIndex > 0 {
		s.CurrentIndex--
		s.Tab = TabOverview
	}
	return s
}

// SelectTab switches the detail tab only.
func (s BrowserState) SelectTab(tab Tab) (BrowserState, error) {
	if !tab.Valid() {
		return s, ErrUnknownTab
	}
	s.Tab = tab
	return s, nil
}

// Current returns the trial being shown.
func (s BrowserState) Current(c *Catalog) Trial {
	trial, _ := c.At(s.Normalize(c).CurrentIndex)
	return trial
}

// CanApply reports whether apply is still offered for id.
func (s BrowserState) CanApply(id string) bool {
	return !s.Applied.Has(id)
}

// Normalize keeps a decoded state valid for c, for example after the
// catalog shrank between requests.
func (s BrowserState) Normalize(c *Catalog) BrowserState {
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}
	if s.CurrentIndex > c.Len()-1 {
		s.CurrentIndex = c.Len() - 1
	}
	if !s.Tab.Valid() {
		s.Tab = TabOverview
	}
	if s.Saved == nil {
		s.Saved = IDSet{}
	}
	if s.Applied == nil {
		s.Applied = IDSet{}
	}
	return s
}
