package evaluate

import (
	"github.com/go-kratos/qaeval"
)

// Evaluator names used as keys in reports.
const (
	Fluency      = "Fluency"
	Groundedness = "Groundedness"
	Relevance    = "Relevance"
	Coherence    = "Coherence"
)

// ModelConfig is the judge model shared by the quality evaluators.
type ModelConfig struct {
	Provider   qaeval.ModelProvider
	Deployment string
	Middleware []qaeval.Middleware
}

func (c ModelConfig) agentOptions(instructions string) []qaeval.AgentOption {
	return []qaeval.AgentOption{
		qaeval.WithProvider(c.Provider),
		qaeval.WithModel(c.Deployment),
		qaeval.WithInstructions(instructions),
		qaeval.WithMiddleware(c.Middleware...),
	}
}

// NewFluency rates the grammar and readability of the answer.
func NewFluency(c ModelConfig) (*Criteria, error) {
	return NewCriteria(Fluency, "gpt_fluency", fluencyPrompt,
		[]Field{FieldQuestion, FieldAnswer},
		c.agentOptions(judgeInstructions)...)
}

// NewGroundedness rates how well the answer is supported by the context.
func NewGroundedness(c ModelConfig) (*Criteria, error) {
	return NewCriteria(Groundedness, "gpt_groundedness", groundednessPrompt,
		[]Field{FieldAnswer, FieldContext},
		c.agentOptions(judgeInstructions)...)
}

// NewRelevance rates how well the answer addresses the question given the context.
func NewRelevance(c ModelConfig) (*Criteria, error) {
	return NewCriteria(Relevance, "gpt_relevance", relevancePrompt,
		[]Field{FieldQuestion, FieldAnswer, FieldContext},
		c.agentOptions(judgeInstructions)...)
}

// NewCoherence rates how logically the answer's sentences fit together.
func NewCoherence(c ModelConfig) (*Criteria, error) {
	return NewCriteria(Coherence, "gpt_coherence", coherencePrompt,
		[]Field{FieldQuestion, FieldAnswer},
		c.agentOptions(judgeInstructions)...)
}

// NewQualityEvaluators returns the fluency, groundedness, relevance and
// coherence evaluators keyed by name, all bound to c.
func NewQualityEvaluators(c ModelConfig) (map[string]Evaluator, error) {
	constructors := []struct {
		name string
		new  func(ModelConfig) (*Criteria, error)
	}{
		{Fluency, NewFluency},
		{Groundedness, NewGroundedness},
		{Relevance, NewRelevance},
		{Coherence, NewCoherence},
	}
	evaluators := make(map[string]Evaluator, len(constructors))
	for _, ctor := range constructors {
		e, err := ctor.new(c)
		if err != nil {
			return nil, err
		}
		evaluators[ctor.name] = e
	}
	return evaluators, nil
}
