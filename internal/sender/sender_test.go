package sender

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"email-agent-go/internal/config"
	"email-agent-go/internal/model"
)

func newTestSender(t *testing.T, handler http.HandlerFunc) *GmailSender {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewGmailSender(context.Background(), config.GmailConfig{UserEmail: "me@example.com"},
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }
	s.backoff = func(int) time.Duration { return time.Millisecond }
	return s
}

func readReply(t *testing.T, raw []byte) (mail.Header, string) {
	t.Helper()
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	require.NoError(t, err)
	part, err := mr.NextPart()
	require.NoError(t, err)
	body, err := io.ReadAll(part.Body)
	require.NoError(t, err)
	return mr.Header, string(body)
}

func headerBlock(raw []byte) string {
	head, _, _ := strings.Cut(string(raw), "\r\n\r\n")
	return head
}

func TestBuildReply(t *testing.T) {
	draft := model.Draft{ID: "d-1", Subject: "Re: Invoice", Body: "Thanks.\nWill pay today."}
	original := model.Email{ID: 1, Subject: "Invoice", Sender: "Billing <billing@example.com>", MessageID: "<abc@example.com>"}
	at := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	raw, err := BuildReply("me@example.com", draft, original, at)
	require.NoError(t, err)

	h, body := readReply(t, raw)
	from, err := h.AddressList("From")
	require.NoError(t, err)
	require.Len(t, from, 1)
	assert.Equal(t, "me@example.com", from[0].Address)

	to, err := h.AddressList("To")
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "billing@example.com", to[0].Address)
	assert.Equal(t, "Billing", to[0].Name)

	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Invoice", subject)

	date, err := h.Date()
	require.NoError(t, err)
	assert.True(t, at.Equal(date))

	inReplyTo, err := h.MsgIDList("In-Reply-To")
	require.NoError(t, err)
	assert.Equal(t, []string{"abc@example.com"}, inReplyTo)
	assert.Equal(t, "d-1", h.Get("X-Draft-Id"))
	assert.Equal(t, "Thanks.\r\nWill pay today.\r\n", body)
}

func TestBuildReplyDefaultsSubject(t *testing.T) {
	raw, err := BuildReply("me@example.com", model.Draft{ID: "d"}, model.Email{Subject: "Lunch", Sender: "a@example.com"}, time.Now())
	require.NoError(t, err)

	h, _ := readReply(t, raw)
	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Re: Lunch", subject)
	assert.False(t, h.Has("In-Reply-To"))
}

func TestBuildReplyEncodesLineBreaksInSubject(t *testing.T) {
	draft := model.Draft{ID: "d", Subject: "Hello\r\nBcc: attacker@evil.test"}

	raw, err := BuildReply("me@example.com", draft, model.Email{Sender: "amy@example.com"}, time.Now())
	require.NoError(t, err)

	for _, line := range strings.Split(headerBlock(raw), "\r\n") {
		assert.False(t, strings.HasPrefix(strings.ToLower(line), "bcc:"), "unexpected header line %q", line)
	}

	h, _ := readReply(t, raw)
	assert.False(t, h.Has("Bcc"))
	subject, err := h.Subject()
	require.NoError(t, err)
	assert.Equal(t, "Hello\r\nBcc: attacker@evil.test", subject)
}

func TestBuildReplyRejectsMalformedSender(t *testing.T) {
	original := model.Email{Sender: "amy@example.com\r\nBcc: attacker@evil.test"}

	_, err := BuildReply("me@example.com", model.Draft{ID: "d"}, original, time.Now())
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestBuildReplySkipsUnthreadableMessageID(t *testing.T) {
	original := model.Email{Sender: "amy@example.com", MessageID: "<a@b>\r\nBcc: x@y>"}

	raw, err := BuildReply("me@example.com", model.Draft{ID: "d"}, original, time.Now())
	require.NoError(t, err)

	h, _ := readReply(t, raw)
	assert.False(t, h.Has("In-Reply-To"))
	assert.False(t, h.Has("Bcc"))
}

func TestSendReplyRequiresRecipient(t *testing.T) {
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request")
	})

	_, err := s.SendReply(context.Background(), model.Draft{ID: "d"}, model.Email{ID: 1})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSendReply(t *testing.T) {
	var decoded string
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, "/users/me@example.com/messages/send")

		var msg gmail.Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		data, err := base64.URLEncoding.DecodeString(msg.Raw)
		require.NoError(t, err)
		decoded = string(data)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"sent-123"}`))
	})

	id, err := s.SendReply(context.Background(),
		model.Draft{ID: "d-9", Subject: "Re: hi", Body: "hello"},
		model.Email{ID: 4, Sender: "friend@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "sent-123", id)
	assert.Contains(t, decoded, "To: <friend@example.com>")
}

func TestSendReplyRetriesWhenRateLimited(t *testing.T) {
	var calls int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"User-rate limit exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"sent-after-retry"}`))
	})

	id, err := s.SendReply(context.Background(), model.Draft{ID: "d"}, model.Email{Sender: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "sent-after-retry", id)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSendReplyDoesNotRetryOtherErrors(t *testing.T) {
	var calls int32
	s := newTestSender(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"Invalid To header"}}`))
	})

	_, err := s.SendReply(context.Background(), model.Draft{ID: "d"}, model.Email{Sender: "a@example.com"})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}
