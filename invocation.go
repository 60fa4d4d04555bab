package qaeval

import (
	"github.com/google/uuid"
)

// Invocation holds information about the current invocation.
type Invocation struct {
	ID           string
	Session      *Session
	Stream       bool
	Message      *Message
	ModelOptions []ModelOption
}

// NewInvocationID generates a new unique invocation ID.
func NewInvocationID() string {
	return uuid.NewString()
}
