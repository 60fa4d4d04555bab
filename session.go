package qaeval

import (
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// State is the key-value state shared by agents in a session.
type State map[string]any

// Session holds the message history and state of one flow execution.
type Session struct {
	ID string

	mu      sync.RWMutex
	state   State
	history []*Message
}

// NewSession creates a new Session instance with a unique ID.
func NewSession(state ...State) *Session {
	s := &Session{ID: uuid.NewString(), state: State{}}
	for _, st := range state {
		maps.Copy(s.state, st)
	}
	return s
}

// State returns a copy of the session state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.state)
}

// PutState stores a value in the session state.
func (s *Session) PutState(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// Append appends messages to the session history.
func (s *Session) Append(messages ...*Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, messages...)
}

// History returns a copy of the session history.
func (s *Session) History() []*Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.history)
}
