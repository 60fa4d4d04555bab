package qaeval

import "context"

// Handler processes an invocation and yields the resulting messages.
type Handler interface {
	Handle(context.Context, *Invocation) Sequence[*Message, error]
}

// HandleFunc is an adapter to allow the use of ordinary functions as Handlers.
type HandleFunc func(context.Context, *Invocation) Sequence[*Message, error]

// Handle calls f(ctx, invocation).
func (f HandleFunc) Handle(ctx context.Context, invocation *Invocation) Sequence[*Message, error] {
	return f(ctx, invocation)
}

// Middleware wraps a Handler with additional behavior.
type Middleware func(next Handler) Handler

// ChainMiddlewares composes middlewares so that the first one is the outermost.
func ChainMiddlewares(ms ...Middleware) Middleware {
	return func(next Handler) Handler {
		for i := len(ms) - 1; i >= 0; i-- { // reverse
			next = ms[i](next)
		}
		return next
	}
}
