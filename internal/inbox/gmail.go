package inbox

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"email-agent-go/internal/config"
)

// GmailSource fetches messages through the Gmail API
type GmailSource struct {
	service   *gmail.Service
	userEmail string
	lastCheck time.Time
}

// NewGmailSource builds a read-only Gmail client from a refresh token
func NewGmailSource(ctx context.Context, cfg config.GmailConfig, opts ...option.ClientOption) (*GmailSource, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailReadonlyScope},
		Endpoint:     google.Endpoint,
	}
	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	opts = append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSource{
		service:   service,
		userEmail: cfg.UserEmail,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// Name identifies the source in logs and status
func (s *GmailSource) Name() string {
	return config.InboxGmail
}

// FetchNewEmails returns inbox messages received since the previous call
func (s *GmailSource) FetchNewEmails(ctx context.Context) ([]Message, error) {
	checkedAt := time.Now()
	query := fmt.Sprintf("in:inbox after:%d", s.lastCheck.Unix())

	var out []Message
	err := s.service.Users.Messages.List(s.userEmail).Q(query).Pages(ctx, func(resp *gmail.ListMessagesResponse) error {
		for _, ref := range resp.Messages {
			msg, err := s.service.Users.Messages.Get(s.userEmail, ref.Id).Format("full").Context(ctx).Do()
			if err != nil {
				logrus.WithField("message_id", ref.Id).Warnf("Failed to get Gmail message: %v", err)
				continue
			}
			parsed, err := parseGmailMessage(msg)
			if err != nil {
				logrus.WithField("message_id", ref.Id).Warnf("Failed to parse Gmail message: %v", err)
				continue
			}
			out = append(out, parsed)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	s.lastCheck = checkedAt
	return out, nil
}

// parseGmailMessage converts a full-format Gmail API message
func parseGmailMessage(msg *gmail.Message) (Message, error) {
	out := Message{ID: msg.Id}
	if msg.InternalDate > 0 {
		out.Date = time.UnixMilli(msg.InternalDate)
	}
	if msg.Payload == nil {
		return out, nil
	}

	for _, header := range msg.Payload.Headers {
		switch strings.ToLower(header.Name) {
		case "subject":
			out.Subject = header.Value
		case "from":
			out.From = headerAddress(header.Value)
		}
	}

	if err := parseGmailBody(msg.Payload, &out); err != nil {
		return out, err
	}
	return out, nil
}

// parseGmailBody walks the MIME tree keeping the first text and HTML parts
func parseGmailBody(part *gmail.MessagePart, out *Message) error {
	if part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			data, err = base64.RawURLEncoding.DecodeString(part.Body.Data)
		}
		if err != nil {
			return fmt.Errorf("failed to decode body data: %w", err)
		}

		switch part.MimeType {
		case "text/plain":
			if out.Body == "" {
				out.Body = string(data)
			}
		case "text/html":
			if out.HTMLBody == "" {
				out.HTMLBody = string(data)
			}
		}
	}

	for _, sub := range part.Parts {
		if err := parseGmailBody(sub, out); err != nil {
			return err
		}
	}
	return nil
}

// headerAddress returns the bare address of a From header value
func headerAddress(value string) string {
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	return addr.Address
}

// Close is a no-op for the Gmail API
func (s *GmailSource) Close() error {
	return nil
}
