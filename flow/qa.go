package flow

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-kratos/qaeval"
	"github.com/go-kratos/qaeval/memory"
	"github.com/google/jsonschema-go/jsonschema"
)

var _ Flow = (*QA)(nil)

// answer is the structured output requested from the model.
type answer struct {
	Answer string `json:"answer" jsonschema:"The answer to the user's question, grounded in the provided context."`
}

// Option configures a QA flow.
type Option func(*QA)

// WithModel sets the model or deployment name used to answer.
func WithModel(model string) Option {
	return func(q *QA) {
		q.model = model
	}
}

// WithStore overrides the knowledge store declared in the definition.
func WithStore(store memory.Store) Option {
	return func(q *QA) {
		q.store = store
	}
}

// WithMiddleware sets middleware applied to the answering agent.
func WithMiddleware(ms ...qaeval.Middleware) Option {
	return func(q *QA) {
		q.middlewares = ms
	}
}

// QA answers a question with context retrieved from a knowledge store.
type QA struct {
	def         *Definition
	model       string
	store       memory.Store
	middlewares []qaeval.Middleware
	agent       *qaeval.LLMAgent
}

// NewQA builds the QA flow described by def.
func NewQA(ctx context.Context, def *Definition, provider qaeval.ModelProvider, opts ...Option) (*QA, error) {
	q := &QA{def: def}
	for _, opt := range opts {
		opt(q)
	}
	if q.store == nil && def.Knowledge != "" {
		store, err := memory.LoadFile(ctx, def.KnowledgePath())
		if err != nil {
			return nil, err
		}
		q.store = store
	}
	schema, err := jsonschema.For[answer](nil)
	if err != nil {
		return nil, err
	}
	q.agent = qaeval.NewAgent(def.Name,
		qaeval.WithModel(q.model),
		qaeval.WithDescription(def.Description),
		qaeval.WithInstructions(def.Instructions),
		qaeval.WithOutputSchema(schema),
		qaeval.WithProvider(provider),
		qaeval.WithMiddleware(q.middlewares...),
	)
	return q, nil
}

// Load reads the flow definition from dir and builds the QA flow.
func Load(ctx context.Context, dir string, provider qaeval.ModelProvider, opts ...Option) (*QA, error) {
	def, err := LoadDefinition(dir)
	if err != nil {
		return nil, err
	}
	return NewQA(ctx, def, provider, opts...)
}

// Name returns the flow name.
func (q *QA) Name() string {
	return q.def.Name
}

// Run answers inputs["question"] and returns the answer with the context used.
func (q *QA) Run(ctx context.Context, inputs Inputs) (Outputs, error) {
	inputs, err := q.def.Resolve(inputs)
	if err != nil {
		return nil, err
	}
	question, _ := inputs["question"].(string)
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("%w: question", ErrMissingInput)
	}
	retrieved, err := q.retrieve(ctx, question)
	if err != nil {
		return nil, err
	}
	state := qaeval.State{"context": retrieved}
	for k, v := range inputs {
		state[k] = v
	}
	runner := qaeval.NewRunner(q.agent, qaeval.WithSession(qaeval.NewSession(state)))
	var opts []qaeval.ModelOption
	if q.def.Temperature > 0 {
		opts = append(opts, qaeval.Temperature(q.def.Temperature))
	}
	output, err := runner.Run(ctx, qaeval.UserMessage(question), opts...)
	if err != nil {
		return nil, err
	}
	return Outputs{
		"answer":  parseAnswer(output.Text()),
		"context": retrieved,
	}, nil
}

func (q *QA) retrieve(ctx context.Context, question string) (string, error) {
	if q.store == nil {
		return "", nil
	}
	docs, err := q.store.Search(ctx, question, q.def.TopK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	contents := make([]string, 0, len(docs))
	for _, doc := range docs {
		contents = append(contents, doc.Content)
	}
	return strings.Join(contents, "\n\n"), nil
}

// parseAnswer extracts the answer field, falling back to the raw text
// for models that ignore the response format.
func parseAnswer(text string) string {
	var a answer
	if err := json.Unmarshal([]byte(text), &a); err == nil && a.Answer != "" {
		return a.Answer
	}
	return strings.TrimSpace(text)
}
