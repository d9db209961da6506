package heuristic

import (
	"regexp"
	"strings"

	"email-agent-go/internal/model"
)

const subjectPreviewRunes = 40

var (
	replyMeetingTerms = regexp.MustCompile(`(?i)(meeting|meet|schedule)`)
	replyInvoiceTerms = regexp.MustCompile(`(?i)(invoice|payment|due)`)
)

var (
	meetingReply = []string{
		"Thanks for the invite, I'm available for a 30-minute meeting. Could you share the agenda?",
		"Proposed times: Tue 10:00 or Wed 14:00. Do either work for you?",
	}
	invoiceReply = []string{
		"Thanks, I see the invoice. We'll process payment within the stated terms.",
		"If you need anything else, let me know.",
	}
	fallbackReply = []string{
		"Thanks for the message. Could you provide a bit more detail so I can help?",
	}
)

// DraftReply builds a reply for text. A non-nil tone is echoed back as the
// last body line. Body lines are joined with single spaces, not newlines.
func DraftReply(text string, tone *string) model.DraftReply {
	var lines []string
	switch {
	case replyMeetingTerms.MatchString(text):
		lines = append(lines, meetingReply...)
	case replyInvoiceTerms.MatchString(text):
		lines = append(lines, invoiceReply...)
	default:
		lines = append(lines, fallbackReply...)
	}
	if tone != nil {
		lines = append(lines, "Tone requested: "+*tone)
	}

	return model.DraftReply{
		Subject: "Re: " + subjectPreview(text),
		Body:    strings.Join(lines, " "),
	}
}

func subjectPreview(text string) string {
	collapsed := []rune(collapseWhitespace(text))
	if len(collapsed) > subjectPreviewRunes {
		return string(collapsed[:subjectPreviewRunes]) + "..."
	}
	return string(collapsed)
}
