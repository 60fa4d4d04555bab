// Package pipeline runs the two stages of a quality evaluation: a batch run
// of the flow over a question dataset, then a judged evaluation of the
// flow's responses.
package pipeline

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/go-logr/logr"

	"github.com/go-kratos/qaeval/batch"
	"github.com/go-kratos/qaeval/dataset"
	"github.com/go-kratos/qaeval/evaluate"
	"github.com/go-kratos/qaeval/flow"
	"github.com/go-kratos/qaeval/tracking"
)

const previewRows = 10

// Mapping feeds each dataset row to the flow.
var Mapping = batch.ColumnMapping{
	"question":     "${data.question}",
	"chat_history": []any{},
}

// Columns are the details columns persisted as responses, in order.
var Columns = []batch.Column{
	{Name: "inputs.question", Rename: "question"},
	{Name: "inputs.chat_history", Rename: "chat_history"},
	{Name: "outputs.answer", Rename: "answer"},
	{Name: "outputs.context", Rename: "context"},
}

// FlowFactory loads the flow under test.
type FlowFactory func(context.Context) (flow.Flow, error)

// EvaluatorFactory builds the evaluators, keyed by display name.
type EvaluatorFactory func() (map[string]evaluate.Evaluator, error)

// EvaluateFunc runs a batch evaluation. evaluate.Evaluate is the default.
type EvaluateFunc func(context.Context, evaluate.Options) (*evaluate.Report, error)

// Config holds the inputs of both stages.
type Config struct {
	Flow       FlowFactory
	Evaluators EvaluatorFactory
	// Data is the question dataset, Responses the hand-off file and Output
	// the evaluation report.
	Data      string
	Responses string
	Output    string
	// Prefix labels the evaluation run. Empty uses the current time.
	Prefix string
	// Project, when set, is attached to the first evaluation attempt.
	Project     *tracking.Project
	Tracker     tracking.Tracker
	Concurrency int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithOutput sets where console lines and progress are written.
func WithOutput(w io.Writer) Option {
	return func(p *Pipeline) {
		p.console = console{w: w}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithClock sets the time source used for run names.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		p.now = now
	}
}

// WithEvaluateFunc replaces the evaluation engine.
func WithEvaluateFunc(fn EvaluateFunc) Option {
	return func(p *Pipeline) {
		p.evaluate = fn
	}
}

// Pipeline executes the run and evaluation stages.
type Pipeline struct {
	cfg      Config
	console  console
	logger   logr.Logger
	now      func() time.Time
	evaluate EvaluateFunc
}

// New creates a Pipeline.
func New(cfg Config, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      cfg,
		console:  console{w: os.Stdout},
		logger:   logr.Discard(),
		now:      time.Now,
		evaluate: evaluate.Evaluate,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the run stage and, when it succeeds, the evaluation stage.
func (p *Pipeline) Run(ctx context.Context) Result {
	if err := p.RunStage(ctx); err != nil {
		return resultOf(StageRun, err)
	}
	report, err := p.EvaluateStage(ctx)
	if err != nil {
		return resultOf(StageEvaluate, err)
	}
	return Result{Outcome: OutcomeSucceeded, State: StateDone, Report: report}
}

// RunStage runs the flow over the dataset and writes the responses file.
// Nothing is written unless every line succeeds.
func (p *Pipeline) RunStage(ctx context.Context) error {
	if !dataset.Exists(p.cfg.Data) {
		p.console.errorf("Data file not found: %s", p.cfg.Data)
		return preconditionError(StageRun, p.cfg.Data)
	}
	n, err := p.baseRun(ctx)
	if err != nil {
		p.console.errorf("Error during base run or processing responses: %v", err)
		return failureError(StageRun, err)
	}
	p.logger.Info("responses written", "path", p.cfg.Responses, "lines", n)
	return nil
}

func (p *Pipeline) baseRun(ctx context.Context) (int, error) {
	if p.cfg.Flow == nil {
		return 0, ErrNoFlow
	}
	f, err := p.cfg.Flow(ctx)
	if err != nil {
		return 0, err
	}
	run, err := batch.Submit(ctx, f, p.cfg.Data, Mapping,
		batch.WithConcurrency(p.cfg.Concurrency),
		batch.WithProgress(p.console.w),
		batch.WithLogger(p.logger.WithName("batch")),
	)
	if err != nil {
		return 0, err
	}
	details := run.Details()
	p.console.println(details.Preview(previewRows))

	rows, err := details.Select(Columns...)
	if err != nil {
		return 0, err
	}
	if err := dataset.Write(p.cfg.Responses, rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// EvaluateStage scores the responses file with the configured evaluators.
// The first attempt carries the project; if it fails, one more attempt is
// made without it.
func (p *Pipeline) EvaluateStage(ctx context.Context) (*evaluate.Report, error) {
	if !dataset.Exists(p.cfg.Responses) {
		p.console.errorf("Response data file not found: %s", p.cfg.Responses)
		return nil, preconditionError(StageEvaluate, p.cfg.Responses)
	}
	if p.cfg.Evaluators == nil {
		return nil, failureError(StageEvaluate, evaluate.ErrNoEvaluators)
	}
	evaluators, err := p.cfg.Evaluators()
	if err != nil {
		return nil, failureError(StageEvaluate, err)
	}
	name := EvaluationName(p.cfg.Prefix, p.now())
	p.console.infof("Executing evaluation: %s", name)

	opts := evaluate.Options{
		Name:        name,
		Data:        p.cfg.Responses,
		Evaluators:  evaluators,
		Project:     p.cfg.Project,
		Tracker:     p.cfg.Tracker,
		OutputPath:  p.cfg.Output,
		Concurrency: p.cfg.Concurrency,
		Logger:      p.logger.WithName("evaluate"),
	}
	report, err := p.evaluate(ctx, opts)
	if err != nil && opts.Project != nil {
		p.console.warnf("Evaluation failed with project. Retrying without project: %v", err)
		opts.Project = nil
		report, err = p.evaluate(ctx, opts)
	}
	if err != nil {
		return nil, failureError(StageEvaluate, err)
	}
	var project string
	if p.cfg.Project != nil {
		project = p.cfg.Project.ProjectName
	}
	p.console.successf("Check QA evaluation result %s in the 'Evaluation' section of your project: %s", name, project)
	if report != nil && report.StudioURL != "" {
		p.logger.Info("evaluation tracked", "url", report.StudioURL)
	}
	return report, nil
}
