// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Email is a single outbound message.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers email. The outbox dispatcher retries on error, so
// implementations must return a non-nil error for any delivery failure.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers email through the SendGrid v3 API.
type SendGridSender struct {
	key      string
	from     *sgmail.Email
	subjPref string
}

// NewSendGrid creates a SendGrid-backed Sender.
func NewSendGrid(apiKey, fromName, fromAddr, subjectPrefix string) *SendGridSender {
	return &SendGridSender{
		key:      apiKey,
		from:     sgmail.NewEmail(fromName, fromAddr),
		subjPref: subjectPrefix,
	}
}

func (s *SendGridSender) Send(ctx context.Context, e Email) error {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPref + e.Subject
	p.AddTos(sgmail.NewEmail(e.ToName, e.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", e.TextBody),
		sgmail.NewContent("text/html", e.HTMLBody),
	)

	req := sendgrid.GetRequest(s.key, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}

// LogSender writes messages to the structured log instead of sending
// them. Used in development when no SendGrid key is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.Logger.Info("email (log sender)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text_body", e.TextBody),
	)
	return nil
}
