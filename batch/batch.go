// Package batch submits every line of a dataset to a flow and collects the
// per-line inputs and outputs.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/go-kratos/qaeval/dataset"
	"github.com/go-kratos/qaeval/flow"
	"github.com/go-logr/logr"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrEmptyData is returned when the dataset has no lines.
	ErrEmptyData = errors.New("batch: dataset is empty")
	// ErrMissingColumn is returned when a mapping references an absent data column.
	ErrMissingColumn = errors.New("batch: missing data column")
)

var dataRef = regexp.MustCompile(`^\$\{data\.([^}]+)\}$`)

// ColumnMapping maps flow input names to a data column reference of the form
// ${data.<column>} or to a literal value.
type ColumnMapping map[string]any

// Apply builds the flow inputs for one dataset row. Without a mapping the row
// is passed through unchanged.
func (m ColumnMapping) Apply(row dataset.Row) (flow.Inputs, error) {
	inputs := make(flow.Inputs, len(m))
	if len(m) == 0 {
		for k, v := range row {
			inputs[k] = v
		}
		return inputs, nil
	}
	for name, value := range m {
		ref, ok := value.(string)
		if !ok {
			inputs[name] = value
			continue
		}
		match := dataRef.FindStringSubmatch(ref)
		if match == nil {
			inputs[name] = value
			continue
		}
		v, ok := row[match[1]]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, match[1])
		}
		inputs[name] = v
	}
	return inputs, nil
}

// Status is the execution status of a line.
type Status string

const (
	StatusCompleted Status = "Completed"
	StatusFailed    Status = "Failed"
)

// Line is the result of running the flow on one dataset row.
type Line struct {
	Index   int
	Inputs  flow.Inputs
	Outputs flow.Outputs
	Status  Status
	Err     error
}

// Run is a completed batch run.
type Run struct {
	Name     string
	Flow     string
	Data     string
	Lines    []Line
	Started  time.Time
	Finished time.Time
}

// Failed returns the number of failed lines.
func (r *Run) Failed() int {
	n := 0
	for _, line := range r.Lines {
		if line.Status == StatusFailed {
			n++
		}
	}
	return n
}

// Details returns the per-line table of the run.
func (r *Run) Details() Details {
	return Details(r.Lines)
}

// Option configures a batch run.
type Option func(*options)

type options struct {
	name        string
	concurrency int
	progress    io.Writer
	logger      logr.Logger
	now         func() time.Time
}

// WithName sets the run name. Defaults to the flow name plus a timestamp.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithConcurrency sets how many lines run at the same time.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithProgress streams a progress bar to w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Submit runs f over every row of the JSON-lines file at data and blocks until
// all lines finish. A failing line is recorded in its Line and does not stop
// the others; cancellation of ctx does.
func Submit(ctx context.Context, f flow.Flow, data string, mapping ColumnMapping, opts ...Option) (*Run, error) {
	o := options{
		concurrency: 4,
		logger:      logr.Discard(),
		now:         time.Now,
	}
	for _, apply := range opts {
		apply(&o)
	}
	if o.concurrency <= 0 {
		o.concurrency = 1
	}
	rows, err := dataset.Read[dataset.Row](data)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyData, data)
	}
	run := &Run{
		Name:    o.name,
		Flow:    f.Name(),
		Data:    data,
		Lines:   make([]Line, len(rows)),
		Started: o.now(),
	}
	if run.Name == "" {
		run.Name = fmt.Sprintf("%s_%s", f.Name(), run.Started.Format("20060102_150405"))
	}
	logger := o.logger.WithValues("run", run.Name)
	logger.Info("submitting batch run", "flow", run.Flow, "data", data, "lines", len(rows))

	var bar *progressbar.ProgressBar
	if o.progress != nil {
		bar = progressbar.NewOptions(len(rows),
			progressbar.OptionSetWriter(o.progress),
			progressbar.OptionSetDescription(run.Name),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() { fmt.Fprintln(o.progress) }),
		)
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(o.concurrency)
	for i, row := range rows {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			line := Line{Index: i, Status: StatusCompleted}
			line.Inputs, line.Err = mapping.Apply(row)
			if line.Err == nil {
				line.Outputs, line.Err = f.Run(ctx, line.Inputs)
			}
			if line.Err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				line.Status = StatusFailed
				logger.Error(line.Err, "line failed", "line", i)
			} else {
				logger.V(1).Info("line completed", "line", i)
			}
			run.Lines[i] = line
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	run.Finished = o.now()
	logger.Info("batch run finished",
		"completed", len(rows)-run.Failed(),
		"failed", run.Failed(),
		"duration", run.Finished.Sub(run.Started).String(),
	)
	return run, nil
}
