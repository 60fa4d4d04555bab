// Package flow defines the question-answering flow evaluated by the pipeline.
package flow

import (
	"context"
	"errors"
)

var (
	// ErrMissingInput is returned when a required flow input is absent.
	ErrMissingInput = errors.New("flow: missing required input")
	// ErrInvalidDefinition is returned for an incomplete flow.yaml.
	ErrInvalidDefinition = errors.New("flow: invalid definition")
)

// Inputs are the named inputs of one flow execution.
type Inputs map[string]any

// Outputs are the named outputs of one flow execution.
type Outputs map[string]any

// Flow executes a single line of a dataset.
type Flow interface {
	Name() string
	Run(context.Context, Inputs) (Outputs, error)
}

// Func adapts a function to the Flow interface.
type Func struct {
	FlowName string
	Handler  func(context.Context, Inputs) (Outputs, error)
}

// Name returns the flow name.
func (f Func) Name() string {
	return f.FlowName
}

// Run calls the handler.
func (f Func) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
	return f.Handler(ctx, inputs)
}
