package evaluate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/go-kratos/qaeval/dataset"
	"github.com/go-kratos/qaeval/tracking"
)

// Options configures a batch evaluation.
type Options struct {
	// Name labels the run for display and tracking.
	Name string
	// Data is the JSON-lines file of responses to score.
	Data string
	// Evaluators are keyed by the name used in metric keys.
	Evaluators map[string]Evaluator
	// Project, when set, records the run with Tracker.
	Project *tracking.Project
	Tracker tracking.Tracker
	// OutputPath receives the report as JSON. Empty skips writing.
	OutputPath  string
	Concurrency int
	Logger      logr.Logger
}

// Report is the outcome of a batch evaluation.
type Report struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Created   time.Time          `json:"created"`
	Rows      []map[string]any   `json:"rows"`
	Metrics   map[string]float64 `json:"metrics"`
	StudioURL string             `json:"studio_url,omitempty"`
}

type outcome struct {
	result *Result
	err    error
}

// Evaluate scores every row of opts.Data with every evaluator. Evaluator
// failures on single rows are recorded in the row and left out of the
// metrics; tracking failures and setup errors are returned.
func Evaluate(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Evaluators) == 0 {
		return nil, ErrNoEvaluators
	}
	// the zero logr.Logger discards
	logger := opts.Logger.WithValues("evaluation", opts.Name)
	if opts.Project != nil {
		if opts.Tracker == nil {
			return nil, ErrNoTracker
		}
		if err := opts.Project.Validate(); err != nil {
			return nil, err
		}
		if err := opts.Tracker.Check(ctx, *opts.Project); err != nil {
			return nil, err
		}
	}
	responses, err := dataset.Read[dataset.Response](opts.Data)
	if err != nil {
		return nil, err
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, opts.Data)
	}
	names := make([]string, 0, len(opts.Evaluators))
	for name := range opts.Evaluators {
		names = append(names, name)
	}
	slices.Sort(names)

	logger.Info("starting evaluation", "rows", len(responses), "evaluators", names)
	outcomes, err := score(ctx, responses, names, opts)
	if err != nil {
		return nil, err
	}
	report := &Report{
		ID:      uuid.NewString(),
		Name:    opts.Name,
		Created: time.Now().UTC(),
		Rows:    make([]map[string]any, len(responses)),
		Metrics: make(map[string]float64, len(names)),
	}
	var (
		succeeded int
		firstErr  error
	)
	for i, r := range responses {
		row := map[string]any{
			"inputs.question":     r.Question,
			"inputs.chat_history": r.ChatHistory,
			"inputs.answer":       r.Answer,
			"inputs.context":      r.Context,
			"line_number":         i,
		}
		for j, name := range names {
			o := outcomes[i][j]
			if o.err != nil {
				row["outputs."+name+".error"] = o.err.Error()
				if firstErr == nil {
					firstErr = o.err
				}
				logger.Error(o.err, "evaluator failed", "evaluator", name, "line", i)
				continue
			}
			succeeded++
			row["outputs."+name+"."+o.result.Metric] = o.result.Score
			row["outputs."+name+"."+o.result.Metric+"_reason"] = o.result.Reason
		}
		report.Rows[i] = row
	}
	if succeeded == 0 {
		return nil, fmt.Errorf("%w: %w", ErrAllFailed, firstErr)
	}
	for j, name := range names {
		var (
			sum    float64
			n      int
			metric string
		)
		for i := range responses {
			if o := outcomes[i][j]; o.err == nil {
				sum += o.result.Score
				n++
				metric = o.result.Metric
			}
		}
		if n > 0 {
			report.Metrics[name+"."+metric] = round(sum / float64(n))
		}
	}
	if opts.Project != nil {
		data, err := json.Marshal(report)
		if err != nil {
			return nil, err
		}
		link, err := opts.Tracker.LogRun(ctx, *opts.Project, tracking.Run{
			ID:      report.ID,
			Name:    report.Name,
			Created: report.Created,
			Metrics: report.Metrics,
			Report:  data,
		})
		if err != nil {
			return nil, err
		}
		report.StudioURL = link
	}
	if opts.OutputPath != "" {
		if err := writeReport(opts.OutputPath, report); err != nil {
			return nil, err
		}
	}
	logger.Info("evaluation finished", "metrics", report.Metrics)
	return report, nil
}

// score runs every evaluator on every row, bounded by opts.Concurrency.
// outcomes[i][j] holds the result of evaluator names[j] on row i.
func score(ctx context.Context, responses []dataset.Response, names []string, opts Options) ([][]outcome, error) {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	outcomes := make([][]outcome, len(responses))
	for i := range outcomes {
		outcomes[i] = make([]outcome, len(names))
	}
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(concurrency)
	for i, r := range responses {
		e := NewEvaluation(strconv.Itoa(i), r)
		for j, name := range names {
			evaluator := opts.Evaluators[name]
			eg.Go(func() error {
				result, err := evaluator.Evaluate(ctx, e)
				if err != nil && ctx.Err() != nil {
					return ctx.Err()
				}
				if err == nil && result == nil {
					err = fmt.Errorf("evaluate: %s returned no result", name)
				}
				outcomes[i][j] = outcome{result: result, err: err}
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func writeReport(path string, report *Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func round(v float64) float64 {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	r, _ := strconv.ParseFloat(s, 64)
	return r
}
