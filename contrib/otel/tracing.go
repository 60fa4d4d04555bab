// Package otel provides OpenTelemetry tracing for agent invocations.
package otel

import (
	"context"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/go-kratos/qaeval"
)

const scope = "github.com/go-kratos/qaeval/contrib/otel"

type Option func(*tracingOptions)

// tracingOptions holds configuration for the agent tracing middleware
type tracingOptions struct {
	system string // e.g., "azure", "gemini"
	tracer trace.Tracer
}

// WithSystem sets the AI system name for tracing, e.g., "azure", "gemini"
func WithSystem(system string) Option {
	return func(t *tracingOptions) {
		t.system = system
	}
}

// WithTracerProvider sets a custom TracerProvider for the tracing middleware
func WithTracerProvider(tr trace.TracerProvider) Option {
	return func(t *tracingOptions) {
		t.tracer = tr.Tracer(scope)
	}
}

// Tracing returns a middleware that records one span per agent invocation.
// The span ends with the final message or the first error.
func Tracing(opts ...Option) qaeval.Middleware {
	t := tracingOptions{
		system: "unknown",
		tracer: otel.GetTracerProvider().Tracer(scope),
	}
	for _, o := range opts {
		o(&t)
	}
	return func(next qaeval.Handler) qaeval.Handler {
		return qaeval.HandleFunc(func(ctx context.Context, invocation *qaeval.Invocation) qaeval.Sequence[*qaeval.Message, error] {
			ac, ok := qaeval.FromAgentContext(ctx)
			if !ok {
				return next.Handle(ctx, invocation)
			}
			return func(yield func(*qaeval.Message, error) bool) {
				ctx, span := t.start(ctx, ac, invocation)
				var last *qaeval.Message
				for msg, err := range next.Handle(ctx, invocation) {
					if err != nil {
						t.end(span, nil, err)
						yield(nil, err)
						return
					}
					last = msg
					if !yield(msg, nil) {
						break
					}
				}
				t.end(span, last, nil)
			}
		})
	}
}

func (t *tracingOptions) start(ctx context.Context, ac qaeval.AgentContext, invocation *qaeval.Invocation) (context.Context, trace.Span) {
	ctx, span := t.tracer.Start(ctx, fmt.Sprintf("invoke_agent %s", ac.Name()))

	mo := qaeval.ApplyModelOptions(invocation.ModelOptions...)
	span.SetAttributes(
		semconv.GenAIOperationNameInvokeAgent,
		semconv.GenAISystemKey.String(t.system),
		semconv.GenAIAgentName(ac.Name()),
		semconv.GenAIAgentDescription(ac.Description()),
		semconv.GenAIRequestModel(ac.Model()),
		semconv.GenAIRequestTemperature(mo.Temperature),
		semconv.GenAIRequestTopP(mo.TopP),
	)
	if invocation.Session != nil {
		span.SetAttributes(semconv.GenAIConversationID(invocation.Session.ID))
	}
	return ctx, span
}

func (t *tracingOptions) end(span trace.Span, msg *qaeval.Message, err error) {
	defer span.End()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "OK")
	}

	if msg == nil {
		return
	}

	extractMessageAttributes(span, msg)
}

func extractMessageAttributes(span trace.Span, msg *qaeval.Message) {
	if v, ok := msg.Metadata["finish_reason"]; ok && v != "" {
		span.SetAttributes(semconv.GenAIResponseFinishReasons(v))
	}
	if v, ok := msg.Metadata["input_tokens"]; ok {
		if num, err := strconv.ParseInt(v, 10, 64); err == nil {
			span.SetAttributes(semconv.GenAIUsageInputTokens(int(num)))
		}
	}
	if v, ok := msg.Metadata["output_tokens"]; ok {
		if num, err := strconv.ParseInt(v, 10, 64); err == nil {
			span.SetAttributes(semconv.GenAIUsageOutputTokens(int(num)))
		}
	}
}
