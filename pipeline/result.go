package pipeline

import "github.com/go-kratos/qaeval/evaluate"

// State is the position of a pipeline execution.
type State string

const (
	StateAwaitingRun        State = "AwaitingRun"
	StateAwaitingEvaluation State = "AwaitingEvaluation"
	StateDone               State = "Done"
	StateFailed             State = "Failed"
)

// Outcome summarizes how a pipeline execution ended.
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeAborted means a precondition failed before any work started.
	OutcomeAborted Outcome = "aborted"
	OutcomeFailed  Outcome = "failed"
)

// Result is returned by Pipeline.Run.
type Result struct {
	Outcome Outcome
	State   State
	// Stage is the stage that stopped the pipeline, empty on success.
	Stage  Stage
	Err    error
	Report *evaluate.Report
}

// OK reports whether both stages completed.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSucceeded
}

func resultOf(stage Stage, err error) Result {
	outcome := OutcomeFailed
	if KindOf(err) == KindPrecondition {
		outcome = OutcomeAborted
	}
	return Result{Outcome: outcome, State: StateFailed, Stage: stage, Err: err}
}
