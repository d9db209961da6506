package inbox

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"email-agent-go/internal/config"
)

// IMAPSource fetches messages from the INBOX folder of an IMAP server
type IMAPSource struct {
	client    *client.Client
	lastCheck time.Time
}

// NewIMAPSource connects and logs in to the configured IMAP server
func NewIMAPSource(cfg config.GmailConfig) (*IMAPSource, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPSource{
		client:    c,
		lastCheck: time.Now().Add(-24 * time.Hour),
	}, nil
}

// Name identifies the source in logs and status
func (s *IMAPSource) Name() string {
	return config.InboxIMAP
}

// FetchNewEmails returns messages received since the previous call
func (s *IMAPSource) FetchNewEmails(ctx context.Context) ([]Message, error) {
	if _, err := s.client.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = s.lastCheck

	seqNums, err := s.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	checkedAt := time.Now()
	if len(seqNums) == 0 {
		s.lastCheck = checkedAt
		return []Message{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(seqNums...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, len(seqNums))
	done := make(chan error, 1)
	go func() {
		done <- s.client.Fetch(seqset, items, messages)
	}()

	var out []Message
	for msg := range messages {
		if ctx.Err() != nil {
			continue
		}
		parsed, err := parseIMAPMessage(msg, section)
		if err != nil {
			logrus.WithField("uid", msg.Uid).Warnf("Failed to parse IMAP message: %v", err)
			continue
		}
		out = append(out, parsed)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.lastCheck = checkedAt
	return out, nil
}

// parseIMAPMessage converts a fetched IMAP message
func parseIMAPMessage(msg *imap.Message, section *imap.BodySectionName) (Message, error) {
	out := Message{ID: fmt.Sprintf("imap:%d", msg.Uid)}

	if msg.Envelope != nil {
		out.Subject = msg.Envelope.Subject
		out.Date = msg.Envelope.Date
		if msg.Envelope.MessageId != "" {
			out.ID = msg.Envelope.MessageId
		}
		if len(msg.Envelope.From) > 0 {
			out.From = msg.Envelope.From[0].Address()
		}
	}

	r := msg.GetBody(section)
	if r == nil {
		return out, nil
	}

	if err := readMessageBody(r, &out); err != nil {
		return out, err
	}
	return out, nil
}

// readMessageBody fills the text and HTML bodies of out from an RFC 822 stream
func readMessageBody(r io.Reader, out *Message) error {
	mr, err := mail.CreateReader(r)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	if out.Subject == "" {
		out.Subject, _ = mr.Header.Subject()
	}
	if out.From == "" {
		if from, err := mr.Header.AddressList("From"); err == nil && len(from) > 0 {
			out.From = from[0].Address
		}
	}
	if out.Date.IsZero() {
		out.Date, _ = mr.Header.Date()
	}

	for {
		p, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read part: %w", err)
		}

		h, ok := p.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		content, err := io.ReadAll(p.Body)
		if err != nil {
			return fmt.Errorf("failed to read part body: %w", err)
		}

		contentType, _, _ := h.ContentType()
		switch {
		case strings.HasPrefix(contentType, "text/plain") && out.Body == "":
			out.Body = string(content)
		case strings.HasPrefix(contentType, "text/html") && out.HTMLBody == "":
			out.HTMLBody = string(content)
		}
	}

	return nil
}

// Close logs out of the IMAP server
func (s *IMAPSource) Close() error {
	return s.client.Logout()
}
