// Package inbox reads the inbox document and keeps it fed from an upstream
// mailbox (IMAP or the Gmail API) on a cron schedule.
package inbox

import (
	"context"
	"strings"
	"time"

	"email-agent-go/internal/model"
)

// Message is an email as fetched from an upstream mailbox
type Message struct {
	ID       string
	Subject  string
	From     string
	Date     time.Time
	Body     string
	HTMLBody string
}

// Source fetches messages that arrived since the previous call
type Source interface {
	Name() string
	FetchNewEmails(ctx context.Context) ([]Message, error)
	Close() error
}

// toEmail converts an upstream message into an inbox entry with id
func toEmail(msg Message, id int) model.Email {
	body := msg.Body
	if strings.TrimSpace(body) == "" && msg.HTMLBody != "" {
		body = htmlToPlainText(msg.HTMLBody)
	}

	timestamp := ""
	if !msg.Date.IsZero() {
		timestamp = msg.Date.UTC().Format(time.RFC3339)
	}

	return model.Email{
		ID:        id,
		Subject:   msg.Subject,
		Sender:    msg.From,
		Timestamp: timestamp,
		Body:      strings.TrimSpace(body),
		MessageID: msg.ID,
	}
}
