package domain

import (
	"encoding/json"
	"errors"
	"sort"
)

var (
	// ErrIndexOutOfRange is returned when a step index is outside the catalog.
	ErrIndexOutOfRange = errors.New("category index out of range")
	// ErrUnknownCategory is returned for a category id the catalog does not define.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownField is returned for a field name the category does not define.
	ErrUnknownField = errors.New("unknown field")
	// ErrNotFinalStep is returned when submit is requested before the last category.
	ErrNotFinalStep = errors.New("submit is only available on the final category")
)

// CompletionSet is the set of categories the user advanced past or submitted from.
// Operations return new sets; a set is never modified in place.
type CompletionSet map[CategoryID]struct{}

// Has reports membership.
func (s CompletionSet) Has(id CategoryID) bool {
	_, ok := s[id]
	return ok
}

// With returns a copy of s that also contains id.
func (s CompletionSet) With(id CategoryID) CompletionSet {
	out := make(CompletionSet, len(s)+1)
	for k := range s {
		out[k] = struct{}{}
	}
	out[id] = struct{}{}
	return out
}

// InOrder lists the members in catalog order.
func (s CompletionSet) InOrder(c *Catalog) []CategoryID {
	out := make([]CategoryID, 0, len(s))
	for _, category := range c.categories {
		if s.Has(category.ID) {
			out = append(out, category.ID)
		}
	}
	return out
}

// MarshalJSON encodes the set as a sorted list.
func (s CompletionSet) MarshalJSON() ([]byte, error) {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)
	return json.Marshal(ids)
}

// UnmarshalJSON decodes a list into the set.
func (s *CompletionSet) UnmarshalJSON(data []byte) error {
	var ids []CategoryID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	out := make(CompletionSet, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	*s = out
	return nil
}

// Answers maps category to field name to the raw entered value.
type Answers map[CategoryID]map[string]string

// Value returns the answer for (category, field); "" when unanswered.
func (a Answers) Value(category CategoryID, field string) string {
	return a[category][field]
}

// With returns a copy of a with (category, field) set to value. Only the
// touched category map is copied. An empty value removes the entry, since
// "" and absent both mean unanswered.
func (a Answers) With(category CategoryID, field, value string) Answers {
	out := make(Answers, len(a)+1)
	for k, v := range a {
		out[k] = v
	}

	fields := make(map[string]string, len(a[category])+1)
	for k, v := range a[category] {
		fields[k] = v
	}
	if value == "" {
		delete(fields, field)
	} else {
		fields[field] = value
	}

	if len(fields) == 0 {
		delete(out, category)
	} else {
		out[category] = fields
	}
	return out
}

// State is one session's wizard state. Transitions never mutate the receiver.
type State struct {
	Current   int           `json:"current"`
	Answers   Answers       `json:"answers"`
	Completed CompletionSet `json:"completed"`
}

// NewState returns the initial state: first category, nothing answered.
func NewState() State {
	return State{Current: 0, Answers: Answers{}, Completed: CompletionSet{}}
}

// SelectCategory jumps to any valid index. Earlier categories need not be completed.
func (s State) SelectCategory(c *Catalog, index int) (State, error) {
	if index < 0 || index >= c.Len() {
		return s, ErrIndexOutOfRange
	}
	s.Current = index
	return s, nil
}

// SetAnswer records value for a field of any category, last write wins.
func (s State) SetAnswer(c *Catalog, category CategoryID, field, value string) (State, error) {
	cat, ok := c.Lookup(category)
	if !ok {
		return s, ErrUnknownCategory
	}
	if _, ok := cat.Field(field); !ok {
		return s, ErrUnknownField
	}
	s.Answers = s.Answers.With(category, field, value)
	return s, nil
}

// Advance marks the current category completed, without checking its
// answers, then moves forward unless already on the last category.
func (s State) Advance(c *Catalog) State {
	s = s.clamp(c)
	current, _ := c.At(s.Current)
	s.Completed = s.Completed.With(current.ID)
	if s.Current < c.LastIndex() {
		s.Current++
	}
	return s
}

// Retreat moves back one category when not on the first. Completion is unchanged.
func (s State) Retreat(c *Catalog) State {
	s = s.clamp(c)
	if s.Current > 0 {
		s.Current--
	}
	return s
}

// Submit marks the final category completed. It is only offered on the
// final category.
func (s State) Submit(c *Catalog) (State, error) {
	s = s.clamp(c)
	if s.Current != c.LastIndex() {
		return s, ErrNotFinalStep
	}
	current, _ := c.At(s.Current)
	s.Completed = s.Completed.With(current.ID)
	return s, nil
}

// CurrentCategory returns the category the wizard is on.
func (s State) CurrentCategory(c *Catalog) Category {
	category, _ := c.At(s.clamp(c).Current)
	return category
}

// CanSubmit reports whether the current step offers submit.
func (s State) CanSubmit(c *Catalog) bool {
	return s.clamp(c).Current == c.LastIndex()
}

// ProgressPercent is the share of steps reached, counting the current one.
func (s State) ProgressPercent(c *Catalog) float64 {
	return float64(s.clamp(c).Current+1) / float64(c.Len()) * 100
}

// clamp keeps a decoded state inside the catalog when the catalog shrank.
func (s State) clamp(c *Catalog) State {
	if s.Current < 0 {
		s.Current = 0
	}
	if s.Current > c.LastIndex() {
		s.Current = c.LastIndex()
	}
	if s.Answers == nil {
		s.Answers = Answers{}
	}
	if s.Completed == nil {
		s.Completed = CompletionSet{}
	}
	return s
}
