package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"trialbridge/internal/intake/domain"

	"github.com/charmbracelet/huh"
)

// HuhPrompter renders the wizard with charmbracelet/huh forms.
type HuhPrompter struct {
	theme *huh.Theme
}

func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{theme: huh.ThemeBase()}
}

func (p *HuhPrompter) Category(category domain.Category, current map[string]string) (map[string]string, error) {
	values := make(map[string]*string, len(category.Fields))
	fields := make([]huh.Field, 0, len(category.Fields))

	for _, field := range category.Fields {
		value := current[field.Name]
		values[field.Name] = &value
		fields = append(fields, fieldInput(field, &value))
	}

	form := huh.NewForm(huh.NewGroup(fields...).Title(category.Label)).
		WithTheme(p.theme).
		WithShowHelp(false)
	if err := form.Run(); err != nil {
		return nil, abortErr(err)
	}

	out := make(map[string]string, len(values))
	for name, value := range values {
		out[name] = strings.TrimSpace(*value)
	}
	return out, nil
}

func (p *HuhPrompter) Navigate(state domain.State, catalog *domain.Catalog, canSubmit bool) (Action, error) {
	options := []huh.Option[Action]{}
	if canSubmit {
		options = append(options, huh.NewOption("Submit", ActionSubmit))
	} else {
		options = append(options, huh.NewOption("Next", ActionNext))
	}
	if state.Current > 0 {
		options = append(options, huh.NewOption("Previous", ActionPrevious))
	}
	options = append(options,
		huh.NewOption("Jump to category", ActionJump),
		huh.NewOption("Review answers", ActionReview),
		huh.NewOption("Quit", ActionQuit),
	)

	action := options[0].Value
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[Action]().
			Title(fmt.Sprintf("Step %d of %d", state.Current+1, catalog.Len())).
			Options(options...).
			Value(&action),
	)).WithTheme(p.theme).WithShowHelp(false).Run()
	if err != nil {
		return "", abortErr(err)
	}
	return action, nil
}

func (p *HuhPrompter) Jump(catalog *domain.Catalog, current int) (int, error) {
	options := make([]huh.Option[int], 0, catalog.Len())
	for i, category := range catalog.Categories() {
		options = append(options, huh.NewOption(fmt.Sprintf("%d. %s", i+1, category.Label), i))
	}

	index := current
	err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[int]().Title("Go to category").Options(options...).Value(&index),
	)).WithTheme(p.theme).WithShowHelp(false).Run()
	if err != nil {
		return current, abortErr(err)
	}
	return index, nil
}

func fieldInput(field domain.FormField, value *string) huh.Field {
	title := field.Label
	if field.Required {
		title += " *"
	}

	switch field.Kind {
	case domain.InputSelect, domain.InputRadio:
		options := make([]huh.Option[string], 0, len(field.Options)+1)
		options = append(options, huh.NewOption("(no answer)", ""))
		for _, option := range field.Options {
			options = append(options, huh.NewOption(option, option))
		}
		return huh.NewSelect[string]().Title(title).Options(options...).Value(value)
	case domain.InputTextarea:
		return huh.NewText().Title(title).Placeholder(field.Placeholder).Value(value)
	case domain.InputNumber:
		return huh.NewInput().Title(title).Placeholder(field.Placeholder).Value(value).Validate(validateOptionalNumber)
	case domain.InputDate:
		return huh.NewInput().Title(title).Placeholder("YYYY-MM-DD").Value(value).Validate(validateOptionalDate)
	default:
		return huh.NewInput().Title(title).Placeholder(field.Placeholder).Value(value)
	}
}

func validateOptionalNumber(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return errors.New("enter a number")
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// abortErr turns ctrl-c into a plain message.
func abortErr(err error) error {
	if errors.Is(err, huh.ErrUserAborted) {
		return errors.New("intake cancelled")
	}
	return err
}
