// Package email renders and delivers outgoing notification emails.
package email

import "context"

// CoordinatorApplication is the content of the email a study coordinator
// receives for a new application.
type CoordinatorApplication struct {
	TrialID        string
	TrialTitle     string
	ApplicantName  string
	ApplicantEmail string
	ApplicantPhone string
	Note           string
	SessionRef     string
}

// IntakeSummary is the content of an intake submission digest.
type IntakeSummary struct {
	SessionRef string
	Categories []IntakeCategory
}

// IntakeCategory lists the answered fields of one category.
type IntakeCategory struct {
	Label   string
	Answers []IntakeAnswer
}

// IntakeAnswer is one field value.
type IntakeAnswer struct {
	Field string
	Value string
}

// Sender delivers notification emails.
type Sender interface {
	SendCoordinatorApplication(ctx context.Context, toEmail string, data CoordinatorApplication) error
	SendIntakeSummary(ctx context.Context, toEmail string, data IntakeSummary) error
}

// NoopSender drops every email. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendCoordinatorApplication(context.Context, string, CoordinatorApplication) error {
	return nil
}

func (NoopSender) SendIntakeSummary(context.Context, string, IntakeSummary) error {
	return nil
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
