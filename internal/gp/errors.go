package gp

import (
	"errors"
	"fmt"
)

// Error kinds. Test with errors.Is; ErrChannelClosedPrematurely is also an
// ErrLengthMismatch.
var (
	ErrDimensionMismatch        = errors.New("dimension mismatch")
	ErrLengthMismatch           = errors.New("length mismatch")
	ErrChannelClosedPrematurely = fmt.Errorf("%w: channel closed prematurely", ErrLengthMismatch)
	ErrAlreadyRun               = errors.New("pipeline already run")
)

// StageError names the stage and operation that failed.
type StageError struct {
	Stage   string // distance, kernel, reducer, mean or validate
	Op      string // operation within the stage
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gp: %s stage %s: %s: %v", e.Stage, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("gp: %s stage %s: %s", e.Stage, e.Op, e.Message)
}

func (e *StageError) Unwrap() error { return e.Err }

func stageErr(stage, op string, err error, format string, args ...any) error {
	return &StageError{Stage: stage, Op: op, Message: fmt.Sprintf(format, args...), Err: err}
}
