package qaeval

import (
	"context"
)

// RunOption defines options for configuring the Runner.
type RunOption func(*Runner)

// WithSession sets a custom session for the Runner.
func WithSession(session *Session) RunOption {
	return func(r *Runner) {
		r.session = session
	}
}

// WithInvocationID sets a custom invocation ID for the Runner.
func WithInvocationID(invocationID string) RunOption {
	return func(r *Runner) {
		r.invocationID = invocationID
	}
}

// Runner is responsible for executing an agent within a session context.
type Runner struct {
	Agent
	session      *Session
	invocationID string
}

// NewRunner creates a new Runner with the given agent and options.
func NewRunner(agent Agent, opts ...RunOption) *Runner {
	runner := &Runner{
		Agent:        agent,
		session:      NewSession(),
		invocationID: NewInvocationID(),
	}
	for _, opt := range opts {
		opt(runner)
	}
	return runner
}

// Session returns the session used by the runner.
func (r *Runner) Session() *Session {
	return r.session
}

func (r *Runner) invocation(message *Message, stream bool, opts []ModelOption) *Invocation {
	return &Invocation{
		ID:           r.invocationID,
		Session:      r.session,
		Stream:       stream,
		Message:      message,
		ModelOptions: opts,
	}
}

// Run executes the agent and returns its final message.
func (r *Runner) Run(ctx context.Context, message *Message, opts ...ModelOption) (*Message, error) {
	var output *Message
	for m, err := range r.Agent.Run(ctx, r.invocation(message, false, opts)) {
		if err != nil {
			return nil, err
		}
		output = m
	}
	if output == nil {
		return nil, ErrNoOutput
	}
	return output, nil
}

// RunStream executes the agent in streaming mode, yielding partial messages followed by the final one.
func (r *Runner) RunStream(ctx context.Context, message *Message, opts ...ModelOption) Sequence[*Message, error] {
	return r.Agent.Run(ctx, r.invocation(message, true, opts))
}
