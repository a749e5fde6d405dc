package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"trialbridge/internal/intake/domain"

	"github.com/spf13/cobra"
)

// Action is a navigation choice made after a category form.
type Action string

const (
	ActionNext     Action = "next"
	ActionPrevious Action = "previous"
	ActionJump     Action = "jump"
	ActionReview   Action = "review"
	ActionSubmit   Action = "submit"
	ActionQuit     Action = "quit"
)

// Prompter collects input for the terminal wizard.
type Prompter interface {
	// Category asks for every field of category, prefilled from current.
	Category(category domain.Category, current map[string]string) (map[string]string, error)
	// Navigate asks what to do next. Submit is only offered when canSubmit.
	Navigate(state domain.State, catalog *domain.Catalog, canSubmit bool) (Action, error)
	// Jump asks for the category index to go to.
	Jump(catalog *domain.Catalog, current int) (int, error)
}

var errNoTTY = errors.New("the intake wizard needs an interactive terminal")

// NewIntakeCmd returns the root command of the intake binary.
func NewIntakeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:           "intake",
		Short:         "Fill in the clinical trial eligibility form in the terminal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive != nil && !app.IsInteractive() {
				return errNoTTY
			}
			return runIntake(cmd.Context(), app)
		},
	}
}

func runIntake(ctx context.Context, app *App) error {
	catalog := app.Catalog
	if catalog == nil {
		var err error
		if catalog, err = domain.DefaultCatalog(); err != nil {
			return err
		}
	}
	prompter := app.Prompter
	if prompter == nil {
		prompter = NewHuhPrompter()
	}

	state, submitted, err := walkWizard(ctx, catalog, prompter, app.errOut())
	if err != nil {
		return err
	}
	if !submitted {
		fmt.Fprintln(app.errOut(), "intake abandoned")
		return nil
	}

	fmt.Fprintln(app.errOut(), "Trial eligibility form submitted successfully!")
	return writeJSON(app.out(), state.Answers)
}

// walkWizard drives the same state machine the HTTP wizard uses until the
// user submits or quits.
func walkWizard(ctx context.Context, catalog *domain.Catalog, prompter Prompter, status io.Writer) (domain.State, bool, error) {
	state := domain.NewState()

	for {
		if ctx != nil && ctx.Err() != nil {
			return state, false, ctx.Err()
		}

		category := state.CurrentCategory(catalog)
		fmt.Fprintf(status, "\nStep %d of %d: %s (%.0f%%)\n",
			state.Current+1, catalog.Len(), category.Label, state.ProgressPercent(catalog))

		values, err := prompter.Category(category, state.Answers[category.ID])
		if err != nil {
			return state, false, err
		}
		for _, field := range category.Fields {
			value, ok := values[field.Name]
			if !ok {
				continue
			}
			if state, err = state.SetAnswer(catalog, category.ID, field.Name, value); err != nil {
				return state, false, err
			}
		}

		next, final, err := navigate(catalog, prompter, state, status)
		if err != nil {
			return state, false, err
		}
		switch final {
		case ActionSubmit:
			return next, true, nil
		case ActionQuit:
			return next, false, nil
		}
		state = next
	}
}

// navigate asks for actions until one moves the wizard or ends it. The
// returned action is ActionSubmit or ActionQuit when the wizard ended.
func navigate(catalog *domain.Catalog, prompter Prompter, state domain.State, status io.Writer) (domain.State, Action, error) {
	for {
		action, err := prompter.Navigate(state, catalog, state.CanSubmit(catalog))
		if err != nil {
			return state, "", err
		}

		switch action {
		case ActionNext:
			return state.Advance(catalog), "", nil
		case ActionPrevious:
			return state.Retreat(catalog), "", nil
		case ActionJump:
			index, err := prompter.Jump(catalog, state.Current)
			if err != nil {
				return state, "", err
			}
			next, err := state.SelectCategory(catalog, index)
			if err != nil {
				fmt.Fprintln(status, err)
				continue
			}
			return next, "", nil
		case ActionReview:
			printReview(status, catalog, state)
		case ActionSubmit:
			next, err := state.Submit(catalog)
			if err != nil {
				fmt.Fprintln(status, err)
				continue
			}
			return next, ActionSubmit, nil
		case ActionQuit:
			return state, ActionQuit, nil
		default:
			return state, "", fmt.Errorf("unknown action %q", action)
		}
	}
}

func printReview(w io.Writer, catalog *domain.Catalog, state domain.State) {
	issues := domain.Review(catalog, state.Answers)
	if len(issues) == 0 {
		fmt.Fprintln(w, "No issues found.")
		return
	}
	fmt.Fprintf(w, "%d item(s) to check:\n", len(issues))
	for _, issue := range issues {
		label := string(issue.Category)
		if category, ok := catalog.Lookup(issue.Category); ok {
			label = category.Label
		}
		fmt.Fprintf(w, "  - %s: %s\n", label, issue.Message)
	}
}
