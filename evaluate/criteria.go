package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-kratos/qaeval"
	"github.com/google/jsonschema-go/jsonschema"
)

const (
	minScore = 1
	maxScore = 5
)

var _ Evaluator = (*Criteria)(nil)

var scorePattern = regexp.MustCompile(`\b([1-5](?:\.\d+)?)\b`)

// judgement is the verdict requested from the judge model.
type judgement struct {
	Score  float64 `json:"score" jsonschema:"Integer rating from 1 (worst) to 5 (best)."`
	Reason string  `json:"reason" jsonschema:"One or two sentences explaining the rating."`
}

// Criteria is an LLM-as-judge evaluator for one quality metric.
type Criteria struct {
	metric   string
	prompt   string
	required []Field
	agent    *qaeval.LLMAgent
	opts     []qaeval.ModelOption
}

// NewCriteria creates a judge named name that reports metric. The prompt is a
// template over the Evaluation fields and required lists the fields that must
// be non-empty.
func NewCriteria(name, metric, prompt string, required []Field, opts ...qaeval.AgentOption) (*Criteria, error) {
	schema, err := jsonschema.For[judgement](nil)
	if err != nil {
		return nil, err
	}
	agent := qaeval.NewAgent(
		name,
		append(opts, qaeval.WithOutputSchema(schema))...,
	)
	return &Criteria{
		metric:   metric,
		prompt:   prompt,
		required: required,
		agent:    agent,
		opts:     []qaeval.ModelOption{qaeval.MaxOutputTokens(800)},
	}, nil
}

// Name returns the evaluator name.
func (c *Criteria) Name() string {
	return c.agent.Name()
}

// Metric returns the metric key the evaluator reports.
func (c *Criteria) Metric() string {
	return c.metric
}

// Evaluate asks the judge to rate e and returns the parsed score.
func (c *Criteria) Evaluate(ctx context.Context, e *Evaluation) (*Result, error) {
	for _, f := range c.required {
		if strings.TrimSpace(e.field(f)) == "" {
			return nil, fmt.Errorf("%w: %s requires %s", ErrMissingField, c.Name(), f)
		}
	}
	message, err := qaeval.NewTemplateMessage(qaeval.RoleUser, c.prompt, map[string]any{
		"question": e.Question,
		"answer":   e.Answer,
		"context":  e.Context,
	})
	if err != nil {
		return nil, err
	}
	output, err := qaeval.NewRunner(c.agent).Run(ctx, message, c.opts...)
	if err != nil {
		return nil, err
	}
	j, err := parseJudgement(output.Text())
	if err != nil {
		return nil, err
	}
	return &Result{Metric: c.metric, Score: j.Score, Reason: j.Reason}, nil
}

// parseJudgement reads the JSON verdict. Replies that are not JSON fall back
// to the first 1..5 rating in the text.
func parseJudgement(text string) (*judgement, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	var j judgement
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &j); err != nil {
		match := scorePattern.FindStringSubmatch(text)
		if match == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnparsableJudgement, text)
		}
		score, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnparsableJudgement, err)
		}
		j = judgement{Score: score}
	}
	if j.Score < minScore || j.Score > maxScore {
		return nil, fmt.Errorf("%w: %v", ErrScoreOutOfRange, j.Score)
	}
	return &j, nil
}
