package model

// Email is a single inbox message. The core never mutates it.
type Email struct {
	ID        int    `json:"id"`
	Subject   string `json:"subject"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
	Body      string `json:"body"`
	// MessageID is the upstream identifier of a synced email
	MessageID string `json:"message_id,omitempty"`
}
