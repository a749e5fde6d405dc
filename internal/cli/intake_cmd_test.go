package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"trialbridge/internal/intake/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter answers the first category form from answers and replays
// actions in order.
type scriptedPrompter struct {
	answers map[domain.CategoryID]map[string]string
	actions []Action
	jumps   []int
	forms   []domain.CategoryID
}

func (s *scriptedPrompter) Category(category domain.Category, current map[string]string) (map[string]string, error) {
	s.forms = append(s.forms, category.ID)
	if values, ok := s.answers[category.ID]; ok {
		return values, nil
	}
	return current, nil
}

func (s *scriptedPrompter) Navigate(domain.State, *domain.Catalog, bool) (Action, error) {
	if len(s.actions) == 0 {
		return "", errors.New("script exhausted")
	}
	action := s.actions[0]
	s.actions = s.actions[1:]
	return action, nil
}

func (s *scriptedPrompter) Jump(_ *domain.Catalog, current int) (int, error) {
	if len(s.jumps) == 0 {
		return current, nil
	}
	index := s.jumps[0]
	s.jumps = s.jumps[1:]
	return index, nil
}

func defaultCatalog(t *testing.T) *domain.Catalog {
	t.Helper()
	catalog, err := domain.DefaultCatalog()
	require.NoError(t, err)
	return catalog
}

func TestIntakeRefusesWithoutTTY(t *testing.T) {
	app := &App{IsInteractive: func() bool { return false }, Prompter: &scriptedPrompter{}}
	cmd := NewIntakeCmd(app)
	cmd.SetArgs([]string{})

	assert.ErrorIs(t, cmd.Execute(), errNoTTY)
}

func TestIntakeJumpToLastThenSubmitPrintsAnswers(t *testing.T) {
	catalog := defaultCatalog(t)
	prompter := &scriptedPrompter{
		answers: map[domain.CategoryID]map[string]string{
			"demographics": {"age": "42", "location": "Boston, MA"},
		},
		actions: []Action{ActionJump, ActionSubmit},
		jumps:   []int{catalog.LastIndex()},
	}
	var out, status bytes.Buffer
	app := &App{Out: &out, Err: &status, Catalog: catalog, Prompter: prompter}

	cmd := NewIntakeCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var answers map[string]map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &answers))
	assert.Equal(t, "42", answers["demographics"]["age"])
	assert.Contains(t, status.String(), "submitted successfully")
	assert.Len(t, prompter.forms, 2)
}

func TestIntakeSubmitBeforeFinalStepIsRefused(t *testing.T) {
	catalog := defaultCatalog(t)
	prompter := &scriptedPrompter{actions: []Action{ActionSubmit, ActionQuit}}
	var out, status bytes.Buffer
	app := &App{Out: &out, Err: &status, Catalog: catalog, Prompter: prompter}

	cmd := NewIntakeCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Empty(t, out.String())
	assert.Contains(t, status.String(), domain.ErrNotFinalStep.Error())
	assert.Contains(t, status.String(), "intake abandoned")
}

func TestIntakeReviewListsMissingAnswers(t *testing.T) {
	catalog := defaultCatalog(t)
	prompter := &scriptedPrompter{actions: []Action{ActionReview, ActionQuit}}
	var status bytes.Buffer
	app := &App{Out: &bytes.Buffer{}, Err: &status, Catalog: catalog, Prompter: prompter}

	cmd := NewIntakeCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, status.String(), "Age is required")
}

func TestIntakeNextAndPreviousWalkTheCatalog(t *testing.T) {
	catalog := defaultCatalog(t)
	prompter := &scriptedPrompter{actions: []Action{ActionNext, ActionNext, ActionPrevious, ActionQuit}}
	app := &App{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}, Catalog: catalog, Prompter: prompter}

	cmd := NewIntakeCmd(app)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	categories := catalog.Categories()
	assert.Equal(t, []domain.CategoryID{
		categories[0].ID, categories[1].ID, categories[2].ID, categories[1].ID,
	}, prompter.forms)
}

func TestOptionalValidators(t *testing.T) {
	assert.NoError(t, validateOptionalNumber(""))
	assert.NoError(t, validateOptionalNumber("42.5"))
	assert.Error(t, validateOptionalNumber("forty"))
	assert.NoError(t, validateOptionalDate(" "))
	assert.NoError(t, validateOptionalDate("2024-03-01"))
	assert.Error(t, validateOptionalDate("03/01/2024"))
}
