package qaeval

import "errors"

var (
	// ErrNoFinalResponse is returned when a provider stream ends without a completed message.
	ErrNoFinalResponse = errors.New("no final response from model provider")
	// ErrNoProvider is returned when an agent runs without a model provider.
	ErrNoProvider = errors.New("agent has no model provider")
	// ErrNoOutput is returned when an agent produced no message.
	ErrNoOutput = errors.New("agent produced no output")
)
