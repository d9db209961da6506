package heuristic

import (
	"regexp"

	"email-agent-go/internal/model"
)

var (
	requestTrigger = regexp.MustCompile(`(?i)(please|kindly|could you|can you|need you to|we need)`)
	requestClause  = regexp.MustCompile(`(?i)(?:please|kindly|could you|can you|we need to|we need)\s+([^.!?\n]+)`)
	meetingTrigger = regexp.MustCompile(`(?i)(meet|meeting|schedule|proposed agenda|proposed time|availability)`)
	invoiceTrigger = regexp.MustCompile(`(?i)(invoice|payment|due)`)
)

const (
	meetingTask = "Schedule meeting / confirm time"
	invoiceTask = "Review invoice / arrange payment"
)

// ExtractActions returns the action items found in text, in the order
// request, meeting, invoice. The checks are independent of each other.
func ExtractActions(text string) []model.ActionItem {
	fullText := collapseWhitespace(text)
	items := make([]model.ActionItem, 0, 3)

	if requestTrigger.MatchString(text) {
		// The clause runs to the next sentence boundary; a trigger without
		// a capturable clause emits nothing.
		if m := requestClause.FindStringSubmatch(text); m != nil {
			if task := collapseWhitespace(m[1]); task != "" {
				items = append(items, model.ActionItem{Task: task, Context: fullText})
			}
		}
	}
	if meetingTrigger.MatchString(text) {
		items = append(items, model.ActionItem{Task: meetingTask, Context: fullText})
	}
	if invoiceTrigger.MatchString(text) {
		items = append(items, model.ActionItem{Task: invoiceTask, Context: fullText})
	}

	return items
}
