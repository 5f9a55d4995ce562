// Package email mirrors selected inbox notifications to email.
package email

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/resend/resend-go/v2"
)

// Sender delivers one message to a set of recipients.
type Sender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// ResendSender sends emails via the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender for apiKey using from as the sender address.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send sends body as a plain paragraph to every address in to.
func (s *ResendSender) Send(ctx context.Context, to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      to,
		Subject: subject,
		Text:    body,
		Html:    "<p>" + html.EscapeString(body) + "</p>",
	}

	sent, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		log.Printf("ERROR: Resend send failed for subject %q: %v", subject, err)
		return fmt.Errorf("resend send failed: %w", err)
	}
	log.Printf("INFO: Email %s sent to %d recipient(s)", sent.Id, len(to))
	return nil
}

// NopSender drops every message. Used when no API key is configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, to []string, subject, body string) error { return nil }
