package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IssueKind classifies a review finding.
type IssueKind string

const (
	IssueMissing     IssueKind = "missing"
	IssueNotNumber   IssueKind = "not_a_number"
	IssueNotOption   IssueKind = "not_an_option"
	IssueInvalidDate IssueKind = "invalid_date"
)

const dateLayout = "2006-01-02"

// Issue is one advisory finding about the answers.
type Issue struct {
	Category CategoryID `json:"category"`
	Field    string     `json:"field"`
	Kind     IssueKind  `json:"kind"`
	Message  string     `json:"message"`
}

// Review reports missing required answers and values that do not fit their
// field. It is advisory: no transition consults it.
func Review(c *Catalog, answers Answers) []Issue {
	issues := make([]Issue, 0)
	for _, category := range c.categories {
		for _, field := range category.Fields {
			value := strings.TrimSpace(answers.Value(category.ID, field.Name))
			if issue, ok := checkField(field, value); ok {
				issue.Category = category.ID
				issue.Field = field.Name
				issues = append(issues, issue)
			}
		}
	}
	return issues
}

func checkField(field FormField, value string) (Issue, bool) {
	if value == "" {
		if field.Required {
			return Issue{Kind: IssueMissing, Message: fmt.Sprintf("%s is required", field.Label)}, true
		}
		return Issue{}, false
	}

	switch {
	case field.Kind == InputNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return Issue{Kind: IssueNotNumber, Message: fmt.Sprintf("%s must be a number", field.Label)}, true
		}
	case field.Kind == InputDate:
		if _, err := time.Parse(dateLayout, value); err != nil {
			return Issue{Kind: IssueInvalidDate, Message: fmt.Sprintf("%s must be a date (YYYY-MM-DD)", field.Label)}, true
		}
	case field.Kind.HasOptions():
		if !field.HasOption(value) {
			return Issue{Kind: IssueNotOption, Message: fmt.Sprintf("%s must be one of: %s", field.Label, strings.Join(field.Options, ", "))}, true
		}
	}
	return Issue{}, false
}
