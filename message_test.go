package qaeval

import (
	"testing"
)

func TestRole(t *testing.T) {
	tests := []struct {
		name     string
		role     Role
		expected string
	}{
		{"User role", RoleUser, "user"},
		{"System role", RoleSystem, "system"},
		{"Assistant role", RoleAssistant, "assistant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if string(tt.role) != tt.expected {
				t.Errorf("Role = %v, want %v", tt.role, tt.expected)
			}
		})
	}
}

func TestMessageText(t *testing.T) {
	msg := &Message{Parts: []Part{TextPart{Text: "Hello, "}, TextPart{Text: "world!"}}}
	if got := msg.Text(); got != "Hello, world!" {
		t.Errorf("Message.Text() = %v, want Hello, world!", got)
	}

	var empty *Message
	if got := empty.Text(); got != "" {
		t.Errorf("nil Message.Text() = %v, want empty", got)
	}
}

func TestMessageConstructors(t *testing.T) {
	tests := []struct {
		name string
		msg  *Message
		role Role
	}{
		{"user", UserMessage("hi"), RoleUser},
		{"system", SystemMessage("hi"), RoleSystem},
		{"assistant", AssistantMessage("hi"), RoleAssistant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.msg.Role != tt.role {
				t.Errorf("Role = %v, want %v", tt.msg.Role, tt.role)
			}
			if tt.msg.Status != StatusCompleted {
				t.Errorf("Status = %v, want completed", tt.msg.Status)
			}
			if tt.msg.ID == "" {
				t.Errorf("ID should not be empty")
			}
			if tt.msg.Text() != "hi" {
				t.Errorf("Text() = %v, want hi", tt.msg.Text())
			}
		})
	}
}

func TestNewMessageID(t *testing.T) {
	id1 := NewMessageID()
	id2 := NewMessageID()
	if id1 == "" || id1 == id2 {
		t.Errorf("NewMessageID() should return unique ids, got %q and %q", id1, id2)
	}
}
