// Package heuristic implements the rule-based email analysis used whenever
// no generative backend output is available: categorization, action item
// extraction and reply drafting. Every rule set is ordered and evaluated
// against the raw email text without tokenization or stemming.
package heuristic

import "strings"

// collapseWhitespace joins the whitespace-separated fields of s with single spaces
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// containsAny reports whether any of terms is a substring of lowered
func containsAny(lowered string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(lowered, term) {
			return true
		}
	}
	return false
}
