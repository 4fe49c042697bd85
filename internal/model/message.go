package model

import "time"

// SenderAgentBot marks system-generated auto-replies. Every other sender
// value is a human (customer or agent).
const SenderAgentBot = "AgentBot"

// Priority values assigned to auto-generated replies. Human messages
// carry no priority.
const (
	PriorityHigh   = "high"
	PriorityNormal = "normal"
)

// Message represents one support message
type Message struct {
	ID           string    `json:"id"`
	Sender       string    `json:"sender"`
	Text         string    `json:"text"`
	Subject      string    `json:"subject,omitempty"`
	CustomerName string    `json:"customer_name,omitempty"`
	CustomerID   string    `json:"customer_id,omitempty"`
	Priority     string    `json:"priority,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	// Urgent is recomputed by the classifier at read/broadcast time.
	// It is never persisted.
	Urgent bool `json:"urgent"`
}

// IsReply reports whether the message was generated by the auto-reply engine.
func (m Message) IsReply() bool {
	return m.Sender == SenderAgentBot
}

// EventNewMessage is the single broadcast event type.
const EventNewMessage = "new_message"

// NewMessageEvent is used for WebSocket new-message notifications
type NewMessageEvent struct {
	Type    string  `json:"type"`
	Message Message `json:"message"`
}
