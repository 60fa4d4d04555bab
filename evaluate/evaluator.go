// Package evaluate scores question-answering responses with language-model
// judges and aggregates the scores over a dataset.
package evaluate

import (
	"context"
	"errors"

	"github.com/go-kratos/qaeval/dataset"
)

var (
	// ErrMissingField is returned when a row lacks a field an evaluator needs.
	ErrMissingField = errors.New("evaluate: missing field")
	// ErrScoreOutOfRange is returned when the judge replies with a score outside 1..5.
	ErrScoreOutOfRange = errors.New("evaluate: score out of range")
	// ErrUnparsableJudgement is returned when no score can be read from the judge reply.
	ErrUnparsableJudgement = errors.New("evaluate: unparsable judgement")
	// ErrNoEvaluators is returned when Evaluate is called without evaluators.
	ErrNoEvaluators = errors.New("evaluate: no evaluators")
	// ErrNoTracker is returned when a project is given without a tracker.
	ErrNoTracker = errors.New("evaluate: project given without tracker")
	// ErrEmptyData is returned when the data file has no rows.
	ErrEmptyData = errors.New("evaluate: data is empty")
	// ErrAllFailed is returned when every evaluator failed on every row.
	ErrAllFailed = errors.New("evaluate: all evaluations failed")
)

// Field names a row field an evaluator reads.
type Field string

const (
	FieldQuestion Field = "question"
	FieldAnswer   Field = "answer"
	FieldContext  Field = "context"
)

// Evaluation represents a single evaluation case.
type Evaluation struct {
	ID          string             `json:"id"`
	Question    string             `json:"question"`
	Answer      string             `json:"answer"`
	Context     string             `json:"context"`
	ChatHistory []dataset.ChatTurn `json:"chat_history,omitempty"`
}

// NewEvaluation creates an Evaluation from a persisted response.
func NewEvaluation(id string, r dataset.Response) *Evaluation {
	return &Evaluation{
		ID:          id,
		Question:    r.Question,
		Answer:      dataset.Text(r.Answer),
		Context:     dataset.Text(r.Context),
		ChatHistory: r.ChatHistory,
	}
}

func (e *Evaluation) field(f Field) string {
	switch f {
	case FieldQuestion:
		return e.Question
	case FieldAnswer:
		return e.Answer
	case FieldContext:
		return e.Context
	default:
		return ""
	}
}

// Result represents the outcome of an evaluation.
type Result struct {
	Metric string  `json:"metric"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason,omitempty"`
}

// Evaluator defines the interface for evaluating LLM responses.
type Evaluator interface {
	Evaluate(context.Context, *Evaluation) (*Result, error)
}

// EvaluatorFunc adapts a function to the Evaluator interface.
type EvaluatorFunc func(context.Context, *Evaluation) (*Result, error)

// Evaluate calls f(ctx, e).
func (f EvaluatorFunc) Evaluate(ctx context.Context, e *Evaluation) (*Result, error) {
	return f(ctx, e)
}
