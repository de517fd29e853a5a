package todo

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every *NotFoundError via errors.Is.
var ErrNotFound = errors.New("task not found")

// ValidationError reports a rejected field. Nothing is mutated when a
// ValidationError is returned.
type ValidationError struct {
	Field string // field path, e.g. "summary" or "tasks[2].due_time"
	Err   error  // underlying error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NotFoundError reports an unknown task id.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %q not found", e.ID)
}

// Is makes errors.Is(err, ErrNotFound) hold.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// InvalidRecurrenceError reports an attempt to advance a task that does
// not recur, or whose rule is malformed. Err wraps recurrence.ErrInvalid.
type InvalidRecurrenceError struct {
	ID  string
	Err error
}

func (e *InvalidRecurrenceError) Error() string {
	return fmt.Sprintf("task %q: %s", e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidRecurrenceError) Unwrap() error {
	return e.Err
}

// PersistenceError reports a failed flush. The in-memory mutation named
// by Op has already been applied.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: applied in memory but not persisted: %s", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err is a *PersistenceError, meaning the
// mutation succeeded in memory but is not durable.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
