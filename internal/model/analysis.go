package model

// Category labels produced by the classifier
const (
	CategoryImportant  = "Important"
	CategorySpam       = "Spam"
	CategoryNewsletter = "Newsletter"
	CategoryMeeting    = "Meeting"
	CategoryTodo       = "To-Do"
	CategoryPersonal   = "Personal"
)

// ClassificationResult is a single category label with its reason
type ClassificationResult struct {
	Category string `json:"category"`
	Reason   string `json:"reason"`
}

// ActionItem is one extracted task. Deadline and Assignee are never
// populated by the heuristic path.
type ActionItem struct {
	Task     string  `json:"task"`
	Deadline *string `json:"deadline"`
	Assignee *string `json:"assignee"`
	Context  string  `json:"context"`
}

// DraftReply is a generated reply subject and body
type DraftReply struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
