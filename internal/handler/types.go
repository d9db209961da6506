package handler

import "time"

// AgentQueryRequest is the body of POST /agent/query
type AgentQueryRequest struct {
	EmailID         *int    `json:"email_id" binding:"required"`
	PromptType      string  `json:"prompt_type" binding:"required"`
	UserInstruction *string `json:"user_instruction"`
}

// ProcessResponse acknowledges a processed email
type ProcessResponse struct {
	Status  string `json:"status"`
	EmailID int    `json:"email_id"`
}

// DraftResponse wraps a created or updated draft
type DraftResponse struct {
	Status string `json:"status"`
	Draft  any    `json:"draft"`
}

// DeleteResponse acknowledges a deleted draft
type DeleteResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// SendResponse acknowledges a sent draft
type SendResponse struct {
	Status    string `json:"status"`
	DraftID   string `json:"draft_id"`
	MessageID string `json:"message_id"`
	To        string `json:"to"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Backend   string            `json:"backend"`
	Storage   string            `json:"storage"`
	Sending   string            `json:"sending"`
	Details   map[string]string `json:"details,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
