package qaeval

import (
	"strings"

	"github.com/google/uuid"
)

// Role indicates the author type of a message.
type Role string

const (
	// RoleUser indicates the message is from the user.
	RoleUser Role = "user"
	// RoleSystem indicates the message is a system instruction.
	RoleSystem Role = "system"
	// RoleAssistant indicates the message is from the model.
	RoleAssistant Role = "assistant"
)

// Status indicates the state of a message.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Part is a piece of message content.
type Part interface {
	isPart()
}

// TextPart is plain text content.
type TextPart struct {
	Text string `json:"text"`
}

func (TextPart) isPart() {}

// Message represents a single message in a conversation.
type Message struct {
	ID           string            `json:"id"`
	Role         Role              `json:"role"`
	Parts        []Part            `json:"parts"`
	Author       string            `json:"author,omitempty"`
	InvocationID string            `json:"invocation_id,omitempty"`
	Status       Status            `json:"status"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Text returns the concatenated text of all text parts.
func (m *Message) Text() string {
	if m == nil {
		return ""
	}
	var buf strings.Builder
	for _, part := range m.Parts {
		if v, ok := part.(TextPart); ok {
			buf.WriteString(v.Text)
		}
	}
	return buf.String()
}

// NewMessageID generates a unique message id.
func NewMessageID() string {
	return uuid.NewString()
}

func newTextMessage(role Role, text string) *Message {
	return &Message{
		ID:     NewMessageID(),
		Role:   role,
		Parts:  []Part{TextPart{Text: text}},
		Status: StatusCompleted,
	}
}

// UserMessage creates a user message with the given text.
func UserMessage(text string) *Message {
	return newTextMessage(RoleUser, text)
}

// SystemMessage creates a system message with the given text.
func SystemMessage(text string) *Message {
	return newTextMessage(RoleSystem, text)
}

// AssistantMessage creates an assistant message with the given text.
func AssistantMessage(text string) *Message {
	return newTextMessage(RoleAssistant, text)
}
