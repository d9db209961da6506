// Package sender delivers reply drafts through the Gmail API.
package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"email-agent-go/internal/config"
	"email-agent-go/internal/model"
)

// ErrNoRecipient is returned when a draft has no email to reply to
var ErrNoRecipient = errors.New("draft has no recipient")

const maxSendAttempts = 3

// GmailSender sends drafts as replies from the configured account
type GmailSender struct {
	service   *gmail.Service
	userEmail string
	now       func() time.Time
	backoff   func(attempt int) time.Duration
}

// NewGmailSender builds a send-scoped Gmail client from a refresh token
func NewGmailSender(ctx context.Context, cfg config.GmailConfig, opts ...option.ClientOption) (*GmailSender, error) {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}
	tokenSource := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	opts = append([]option.ClientOption{option.WithTokenSource(tokenSource)}, opts...)
	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailSender{
		service:   service,
		userEmail: cfg.UserEmail,
		now:       time.Now,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}, nil
}

// SendReply sends draft to the sender of original and returns the Gmail
// message id
func (s *GmailSender) SendReply(ctx context.Context, draft model.Draft, original model.Email) (string, error) {
	if strings.TrimSpace(original.Sender) == "" {
		return "", ErrNoRecipient
	}

	raw, err := BuildReply(s.userEmail, draft, original, s.now())
	if err != nil {
		return "", err
	}
	message := &gmail.Message{Raw: base64.URLEncoding.EncodeToString(raw)}

	var lastErr error
	for attempt := 1; attempt <= maxSendAttempts; attempt++ {
		sent, err := s.service.Users.Messages.Send(s.userEmail, message).Context(ctx).Do()
		if err == nil {
			logrus.WithFields(logrus.Fields{
				"draft_id": draft.ID,
				"to":       original.Sender,
			}).Info("Draft sent")
			return sent.Id, nil
		}

		lastErr = err
		logrus.Warnf("Failed to send draft %s (attempt %d/%d): %v", draft.ID, attempt, maxSendAttempts, err)

		if !isRateLimited(err) {
			break
		}

		wait := s.backoff(attempt)
		logrus.Infof("Rate limited, waiting %v before retry", wait)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}

	return "", fmt.Errorf("failed to send draft: %w", lastErr)
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate")
}

// BuildReply renders an RFC 822 plain-text reply. Header values are
// encoded by go-message, so control characters in a subject never start
// a new header line.
func BuildReply(from string, draft model.Draft, original model.Email, at time.Time) ([]byte, error) {
	to, err := mail.ParseAddress(original.Sender)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid sender address %q", ErrNoRecipient, original.Sender)
	}

	subject := draft.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "Re: " + original.Subject
	}

	var h mail.Header
	if from != "" {
		fromAddr, err := mail.ParseAddress(from)
		if err != nil {
			return nil, fmt.Errorf("invalid from address %q: %w", from, err)
		}
		h.SetAddressList("From", []*mail.Address{fromAddr})
	}
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	h.SetDate(at)
	if id, ok := replyMsgID(original.MessageID); ok {
		h.SetMsgIDList("In-Reply-To", []string{id})
		h.SetMsgIDList("References", []string{id})
	}
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.SetText("X-Draft-Id", draft.ID)

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("failed to write reply header: %w", err)
	}
	body := strings.ReplaceAll(draft.Body, "\r\n", "\n")
	if _, err := io.WriteString(w, strings.ReplaceAll(body, "\n", "\r\n")+"\r\n"); err != nil {
		return nil, fmt.Errorf("failed to write reply body: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to write reply body: %w", err)
	}

	return buf.Bytes(), nil
}

// replyMsgID strips the angle brackets of a synced Message-ID. Ids that
// were not taken from a message header are not threaded.
func replyMsgID(messageID string) (string, bool) {
	if !strings.HasPrefix(messageID, "<") || !strings.HasSuffix(messageID, ">") {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(messageID, "<"), ">")
	if id == "" || strings.ContainsAny(id, "<> \t\r\n") {
		return "", false
	}
	return id, true
}

// Close is a no-op for the Gmail API
func (s *GmailSender) Close() error {
	return nil
}
