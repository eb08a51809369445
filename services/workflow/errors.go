package workflow

import (
	"errors"
	"fmt"
)

// ErrDraftIncomplete is returned when the booking workflow is invoked before
// the draft carries a resolvable start time.
var ErrDraftIncomplete = errors.New("meeting draft is missing a start time")

// TransientError marks an oracle or provider failure (timeout, network) that
// is retryable at the turn boundary. Session state is left as it was before
// the failing step, so the caller may simply repeat the turn.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s temporarily unavailable: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

func transient(op string, err error) error {
	return &TransientError{Op: op, Err: err}
}
