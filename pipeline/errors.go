package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by precondition errors for missing input files.
	ErrNotFound = errors.New("pipeline: file not found")
	// ErrNoFlow is returned when the run stage has no flow to run.
	ErrNoFlow = errors.New("pipeline: no flow configured")
)

// Stage names a pipeline stage.
type Stage string

const (
	StageRun      Stage = "run"
	StageEvaluate Stage = "evaluate"
)

// Kind classifies why a stage stopped.
type Kind int

const (
	// KindPrecondition means a required input was missing and nothing was attempted.
	KindPrecondition Kind = iota + 1
	// KindFailure means the stage started and failed.
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindPrecondition:
		return "precondition"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// StageError reports a stage that did not complete.
type StageError struct {
	Stage Stage
	Kind  Kind
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage %s: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func preconditionError(stage Stage, path string) error {
	return &StageError{Stage: stage, Kind: KindPrecondition, Err: fmt.Errorf("%w: %s", ErrNotFound, path)}
}

func failureError(stage Stage, err error) error {
	return &StageError{Stage: stage, Kind: KindFailure, Err: err}
}

// KindOf returns the kind of a StageError in err's chain, or zero.
func KindOf(err error) Kind {
	var se *StageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}
