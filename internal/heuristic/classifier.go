package heuristic

import (
	"strings"

	"email-agent-go/internal/model"
)

type categoryRule struct {
	terms    []string
	category string
	reason   string
}

// categoryRules are evaluated in order and the first match wins
var categoryRules = []categoryRule{
	{
		terms:    []string{"invoice", "payment", "due", "bill"},
		category: model.CategoryImportant,
		reason:   "Contains payment/invoice information.",
	},
	{
		terms:    []string{"prize", "winner", "click here", "claim"},
		category: model.CategorySpam,
		reason:   "Typical spam phrases detected.",
	},
	{
		terms:    []string{"newsletter", "digest", "weekly", "unsubscribe"},
		category: model.CategoryNewsletter,
		reason:   "Likely a newsletter or digest.",
	},
	{
		terms:    []string{"meet", "meeting", "schedule", "agenda", "availability"},
		category: model.CategoryMeeting,
		reason:   "Requests scheduling a meeting.",
	},
	{
		terms:    []string{"please", "can you", "could you", "action"},
		category: model.CategoryTodo,
		reason:   "Contains a direct request for action.",
	},
}

var defaultCategory = model.ClassificationResult{
	Category: model.CategoryPersonal,
	Reason:   "No clear request detected; treat as personal/info.",
}

// Classify maps raw email text to a single category
func Classify(text string) model.ClassificationResult {
	lowered := strings.ToLower(text)
	for _, rule := range categoryRules {
		if containsAny(lowered, rule.terms) {
			return model.ClassificationResult{Category: rule.category, Reason: rule.reason}
		}
	}
	return defaultCategory
}
