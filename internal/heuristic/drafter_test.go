package heuristic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDraftReplyMeeting(t *testing.T) {
	reply := DraftReply("Can we schedule a meeting next week?", nil)

	assert.Equal(t, "Re: Can we schedule a meeting next week?", reply.Subject)
	assert.Contains(t, reply.Body, "30-minute meeting")
	assert.Contains(t, reply.Body, "Tue 10:00 or Wed 14:00")
	assert.NotContains(t, reply.Body, "Tone requested")
}

func TestDraftReplyInvoice(t *testing.T) {
	reply := DraftReply("The invoice is attached", nil)

	assert.Equal(t, strings.Join(invoiceReply, " "), reply.Body)
}

func TestDraftReplyFallback(t *testing.T) {
	reply := DraftReply("Hello", nil)

	assert.Equal(t, "Re: Hello", reply.Subject)
	assert.Equal(t, fallbackReply[0], reply.Body)
}

func TestDraftReplyMeetingBeatsInvoice(t *testing.T) {
	reply := DraftReply("Let's meet to discuss the invoice", nil)
	assert.Contains(t, reply.Body, "30-minute meeting")
}

func TestDraftReplySubjectTruncation(t *testing.T) {
	text := strings.Repeat("a", 50)
	reply := DraftReply(text, nil)

	assert.Equal(t, "Re: "+strings.Repeat("a", 40)+"...", reply.Subject)

	exact := strings.Repeat("b", 40)
	assert.Equal(t, "Re: "+exact, DraftReply(exact, nil).Subject)
}

func TestDraftReplySubjectCollapsesWhitespace(t *testing.T) {
	reply := DraftReply("Quick\n\nquestion   about  lunch", nil)
	assert.Equal(t, "Re: Quick question about lunch", reply.Subject)
}

func TestDraftReplyTone(t *testing.T) {
	tone := "friendly"
	reply := DraftReply("Hello", &tone)

	assert.True(t, strings.HasSuffix(reply.Body, "Tone requested: friendly"))
	assert.NotContains(t, reply.Body, "\n")
}
