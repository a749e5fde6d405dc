// Package domain holds the trial browser: immutable trial records, the
// match tier rule, the pure browser state transitions and the advisory
// eligibility checker.
package domain

import (
	_ "embed"
	"errors"
	"fmt"

	"trialbridge/platform/validator"

	"gopkg.in/yaml.v3"
)

//go:embed trials.yaml
var defaultTrialsYAML []byte

// Trial is an immutable trial record.
type Trial struct {
	ID                  string   `yaml:"id" json:"id"`
	Title               string   `yaml:"title" json:"title"`
	Condition           string   `yaml:"condition" json:"condition"`
	Phase               string   `yaml:"phase" json:"phase"`
	Sponsor             string   `yaml:"sponsor" json:"sponsor"`
	Location            string   `yaml:"location" json:"location"`
	Distance            string   `yaml:"distance" json:"distance"`
	MatchScore          int      `yaml:"matchScore" json:"matchScore"`
	Description         string   `yaml:"description" json:"description"`
	EligibilityCriteria []string `yaml:"eligibilityCriteria" json:"eligibilityCriteria"`
	Duration            string   `yaml:"duration" json:"duration"`
	Compensation        string   `yaml:"compensation" json:"compensation"`
	Requirements        []string `yaml:"requirements" json:"requirements"`
	NextSteps           []string `yaml:"nextSteps" json:"nextSteps"`
	ContactEmail        string   `yaml:"contactEmail" json:"contactEmail"`
	EnrollmentStatus    string   `yaml:"enrollmentStatus" json:"enrollmentStatus"`
	SpotsRemaining      int      `yaml:"spotsRemaining" json:"spotsRemaining"`
	Criteria            Criteria `yaml:"criteria" json:"-"`
}

// Tier is the display band of a match score.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
)

// ClassifyTier maps a match score to its tier: 90 and above is high,
// 75 to 89 medium, anything lower low.
func ClassifyTier(score int) Tier {
	switch {
	case score >= 90:
		return TierHigh
	case score >= 75:
		return TierMedium
	default:
		return TierLow
	}
}

// Tier returns the trial's tier.
func (t Trial) Tier() Tier {
	return ClassifyTier(t.MatchScore)
}

// ErrEmptyCatalog is returned for a catalog without trials.
var ErrEmptyCatalog = errors.New("trial catalog is empty")

// Catalog is the ordered, immutable list the browser pages through.
type Catalog struct {
	trials []Trial
	index  map[string]int
}

// NewCatalog validates trials and keeps them in the given order.
func NewCatalog(trials []Trial) (*Catalog, error) {
	if len(trials) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		trials: make([]Trial, len(trials)),
		index:  make(map[string]int, len(trials)),
	}
	for i, trial := range trials {
		if !validator.IsTrialID(trial.ID) {
			return nil, fmt.Errorf("trial %d: invalid id %q", i, trial.ID)
		}
		if _, dup := c.index[trial.ID]; dup {
			return nil, fmt.Errorf("trial %s: duplicate id", trial.ID)
		}
		if trial.MatchScore < 0 || trial.MatchScore > 100 {
			return nil, fmt.Errorf("trial %s: match score %d outside 0-100", trial.ID, trial.MatchScore)
		}
		c.trials[i] = trial.clone()
		c.index[trial.ID] = i
	}
	return c, nil
}

// ParseTrials reads trial records from YAML.
func ParseTrials(data []byte) ([]Trial, error) {
	var doc struct {
		Trials []Trial `yaml:"trials"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse trial catalog: %w", err)
	}
	return doc.Trials, nil
}

// DefaultTrials returns the built-in trial records.
func DefaultTrials() ([]Trial, error) {
	return ParseTrials(defaultTrialsYAML)
}

// Len returns the number of trials.
func (c *Catalog) Len() int {
	return len(c.trials)
}

// Trials returns the trials in display order.
func (c *Catalog) Trials() []Trial {
	out := make([]Trial, len(c.trials))
	for i, trial := range c.trials {
		out[i] = trial.clone()
	}
	return out
}

// At returns the trial at index.
func (c *Catalog) At(index int) (Trial, bool) {
	if index < 0 || index >= len(c.trials) {
		return Trial{}, false
	}
	return c.trials[index].clone(), true
}

// Lookup returns the trial with id.
func (c *Catalog) Lookup(id string) (Trial, bool) {
	i, ok := c.index[id]
	if !ok {
		return Trial{}, false
	}
	return c.trials[i].clone(), true
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.index[id]
	return ok
}

func (t Trial) clone() Trial {
	t.EligibilityCriteria = append([]string(nil), t.EligibilityCriteria...)
	t.Requirements = append([]string(nil), t.Requirements...)
	t.NextSteps = append([]string(nil), t.NextSteps...)
	t.Criteria = t.Criteria.clone()
	return t
}
