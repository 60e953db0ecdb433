package extensions

import (
	"errors"
	"fmt"
)

// Outcome is the numeric result of a run as reported to the scheduler.
// Misconfiguration shares 0 with success; the returned error tells them apart.
type Outcome int

const (
	OutcomeSuccess           Outcome = 0
	OutcomeConfigMissing     Outcome = 0
	OutcomeConnectionFailure Outcome = 1
	OutcomeQueryFailure      Outcome = 4
)

var (
	ErrConfigMissing     = errors.New("required configuration missing")
	ErrConnectionFailure = errors.New("cannot connect to external database")
	ErrQueryFailure      = errors.New("external database query failed")
)

// RunError aborts a run. It wraps one of the sentinel errors above.
type RunError struct {
	Outcome Outcome
	Op      string
	Err     error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

func configMissing(what string) *RunError {
	return &RunError{
		Outcome: OutcomeConfigMissing,
		Op:      "config",
		Err:     fmt.Errorf("%w: %s not defined", ErrConfigMissing, what),
	}
}

func connectionFailure(err error) *RunError {
	return &RunError{
		Outcome: OutcomeConnectionFailure,
		Op:      "connect",
		Err:     fmt.Errorf("%w: %v", ErrConnectionFailure, err),
	}
}

func queryFailure(op string, err error) *RunError {
	return &RunError{
		Outcome: OutcomeQueryFailure,
		Op:      op,
		Err:     fmt.Errorf("%w: %v", ErrQueryFailure, err),
	}
}

// OutcomeOf maps a run error to its outcome code. nil is success.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return OutcomeSuccess
	}
	var runErr *RunError
	if errors.As(err, &runErr) {
		return runErr.Outcome
	}
	return OutcomeQueryFailure
}
