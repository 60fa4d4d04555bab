package qaeval

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

var (
	_ Agent        = (*LLMAgent)(nil)
	_ AgentContext = (*LLMAgent)(nil)
)

// AgentOption is an option for configuring the Agent.
type AgentOption func(*LLMAgent)

// WithModel sets the model for the Agent.
func WithModel(model string) AgentOption {
	return func(a *LLMAgent) {
		a.model = model
	}
}

// WithDescription sets the description for the Agent.
func WithDescription(description string) AgentOption {
	return func(a *LLMAgent) {
		a.description = description
	}
}

// WithInstructions sets the instructions for the Agent.
// Instructions are rendered as a template against the session state.
func WithInstructions(instructions string) AgentOption {
	return func(a *LLMAgent) {
		a.instructions = instructions
	}
}

// WithOutputSchema sets the output schema for the Agent.
func WithOutputSchema(schema *jsonschema.Schema) AgentOption {
	return func(a *LLMAgent) {
		a.outputSchema = schema
	}
}

// WithOutputKey sets the output key for storing the Agent's output in the session state.
func WithOutputKey(key string) AgentOption {
	return func(a *LLMAgent) {
		a.outputKey = key
	}
}

// WithProvider sets the model provider for the Agent.
func WithProvider(provider ModelProvider) AgentOption {
	return func(a *LLMAgent) {
		a.provider = provider
	}
}

// WithMiddleware sets the middleware for the Agent.
func WithMiddleware(ms ...Middleware) AgentOption {
	return func(a *LLMAgent) {
		a.middlewares = ms
	}
}

// LLMAgent is an agent backed by a single model provider call.
type LLMAgent struct {
	name         string
	model        string
	description  string
	instructions string
	outputKey    string
	outputSchema *jsonschema.Schema
	middlewares  []Middleware
	provider     ModelProvider
}

// NewAgent creates a new Agent with the given name and options.
func NewAgent(name string, opts ...AgentOption) *LLMAgent {
	a := &LLMAgent{name: name}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the name of the Agent.
func (a *LLMAgent) Name() string {
	return a.name
}

// Model returns the model of the Agent.
func (a *LLMAgent) Model() string {
	return a.model
}

// Description returns the description of the Agent.
func (a *LLMAgent) Description() string {
	return a.description
}

// Instructions returns the instructions of the Agent.
func (a *LLMAgent) Instructions() string {
	return a.instructions
}

// buildRequest builds the request for the Agent by combining system instructions and the user message.
func (a *LLMAgent) buildRequest(invocation *Invocation) (*ModelRequest, error) {
	req := ModelRequest{
		Model:        a.model,
		OutputSchema: a.outputSchema,
	}
	if a.instructions != "" {
		var vars map[string]any
		if invocation.Session != nil {
			vars = invocation.Session.State()
		}
		systemMessage, err := NewTemplateMessage(RoleSystem, a.instructions, vars)
		if err != nil {
			return nil, fmt.Errorf("render instructions: %w", err)
		}
		req.Messages = append(req.Messages, systemMessage)
	}
	if invocation.Message != nil {
		req.Messages = append(req.Messages, invocation.Message)
	}
	return &req, nil
}

// Run runs the agent with the given invocation, returning a streamable response.
func (a *LLMAgent) Run(ctx context.Context, invocation *Invocation) Sequence[*Message, error] {
	var handler Handler = HandleFunc(a.handle)
	if len(a.middlewares) > 0 {
		handler = ChainMiddlewares(a.middlewares...)(handler)
	}
	return handler.Handle(NewAgentContext(ctx, a), invocation)
}

// storeSession stores the agent's output to session state (if outputKey is defined) and appends messages to session history.
func (a *LLMAgent) storeSession(invocation *Invocation, message *Message) error {
	session := invocation.Session
	if session == nil {
		return nil
	}
	if a.outputKey != "" {
		if a.outputSchema != nil {
			var value any
			if err := json.Unmarshal([]byte(message.Text()), &value); err != nil {
				return fmt.Errorf("parse %s output: %w", a.name, err)
			}
			session.PutState(a.outputKey, value)
		} else {
			session.PutState(a.outputKey, message.Text())
		}
	}
	if invocation.Message != nil {
		session.Append(invocation.Message)
	}
	session.Append(message)
	return nil
}

func (a *LLMAgent) handle(ctx context.Context, invocation *Invocation) Sequence[*Message, error] {
	return func(yield func(*Message, error) bool) {
		if a.provider == nil {
			yield(nil, ErrNoProvider)
			return
		}
		req, err := a.buildRequest(invocation)
		if err != nil {
			yield(nil, err)
			return
		}
		var final *ModelResponse
		if invocation.Stream {
			for res, err := range a.provider.NewStreaming(ctx, req, invocation.ModelOptions...) {
				if err != nil {
					yield(nil, err)
					return
				}
				if res.Message.Status == StatusCompleted {
					final = res
					continue
				}
				if !yield(res.Message, nil) {
					return // early termination
				}
			}
		} else {
			final, err = a.provider.Generate(ctx, req, invocation.ModelOptions...)
			if err != nil {
				yield(nil, err)
				return
			}
		}
		if final == nil || final.Message == nil {
			yield(nil, ErrNoFinalResponse)
			return
		}
		final.Message.Author = a.name
		final.Message.InvocationID = invocation.ID
		if err := a.storeSession(invocation, final.Message); err != nil {
			yield(nil, err)
			return
		}
		yield(final.Message, nil)
	}
}
