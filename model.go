package qaeval

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
)

// ModelOptions holds generation parameters passed to a provider.
type ModelOptions struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int64
}

// ModelOption configures ModelOptions.
type ModelOption func(*ModelOptions)

// Temperature sets the sampling temperature.
func Temperature(t float64) ModelOption {
	return func(o *ModelOptions) {
		o.Temperature = t
	}
}

// TopP sets the nucleus sampling probability.
func TopP(p float64) ModelOption {
	return func(o *ModelOptions) {
		o.TopP = p
	}
}

// MaxOutputTokens limits the number of generated tokens.
func MaxOutputTokens(n int64) ModelOption {
	return func(o *ModelOptions) {
		o.MaxOutputTokens = n
	}
}

// ApplyModelOptions folds opts into a ModelOptions value.
func ApplyModelOptions(opts ...ModelOption) ModelOptions {
	var o ModelOptions
	for _, apply := range opts {
		apply(&o)
	}
	return o
}

// ModelRequest is a provider-agnostic generation request.
type ModelRequest struct {
	Model        string
	Messages     []*Message
	OutputSchema *jsonschema.Schema
}

// ModelResponse is a provider-agnostic generation response.
type ModelResponse struct {
	Message *Message
}

// ModelProvider is implemented by the language model backends.
type ModelProvider interface {
	Name() string
	Generate(context.Context, *ModelRequest, ...ModelOption) (*ModelResponse, error)
	NewStreaming(context.Context, *ModelRequest, ...ModelOption) Sequence[*ModelResponse, error]
}
