package domain

import (
	"strings"
	"time"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Valid reports whether r is a known role
func (r MessageRole) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is one turn in a session. Messages are append-only.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewMessage builds a message with trimmed content stamped at now
func NewMessage(role MessageRole, content string, now time.Time) Message {
	return Message{
		Role:      role,
		Content:   strings.TrimSpace(content),
		CreatedAt: now,
	}
}

// MessageCreate represents a raw message append request
type MessageCreate struct {
	Role    MessageRole `json:"role" validate:"required,oneof=user assistant"`
	Content string      `json:"content" validate:"required,max=20000"`
}

// SendRequest represents a user turn to be answered by the responder
type SendRequest struct {
	Message string `json:"message" validate:"required,max=20000"`
}

// Exchange is the pair of messages appended by one send
type Exchange struct {
	UserMessage      Message `json:"userMessage"`
	AssistantMessage Message `json:"assistantMessage"`
}
