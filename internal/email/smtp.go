package email

import (
	"context"
	"fmt"
	"net"
	"time"

	"trialbridge/platform/config"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// NewSender returns an SMTP sender when email is configured and a NoopSender otherwise.
func NewSender(cfg config.SMTPConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(), cfg.GetSMTPUsername(), cfg.GetSMTPPassword(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
}

func (s *SMTPSender) buildMessage(toEmail, subject, htmlContent string) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return nil, fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return nil, fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)
	return msg, nil
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg, err := s.buildMessage(toEmail, subject, htmlContent)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15 * time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	}
	if s.username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.username),
			gomail.WithPassword(s.password),
		)
	}

	client, err := gomail.NewClient(s.host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendCoordinatorApplication(ctx context.Context, toEmail string, data CoordinatorApplication) error {
	subject := fmt.Sprintf(subjectCoordinatorApplicationFmt, data.TrialID)
	content, err := renderCoordinatorApplication(data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendIntakeSummary(ctx context.Context, toEmail string, data IntakeSummary) error {
	content, err := renderIntakeSummary(data)
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, subjectIntakeSummary, content)
}

func renderCoordinatorApplication(data CoordinatorApplication) (string, error) {
	return renderEmailTemplate("coordinator_application.html", coordinatorApplicationEmailData{
		baseEmailData: baseEmailData{
			Title:      "New trial application",
			Heading:    "New trial application",
			Subheading: data.TrialTitle,
		},
		CoordinatorApplication: data,
	})
}

func renderIntakeSummary(data IntakeSummary) (string, error) {
	return renderEmailTemplate("intake_summary.html", intakeSummaryEmailData{
		baseEmailData: baseEmailData{
			Title:   "Eligibility intake",
			Heading: "Eligibility intake submitted",
		},
		IntakeSummary: data,
	})
}
