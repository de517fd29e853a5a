package todo

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/taskid"
)

// Task represents a single scheduled task.
type Task struct {
	ID           string
	Summary      string
	Details      string
	Recurrence   recurrence.Rule
	Due          time.Time
	AlertOffsets []time.Duration // durations before Due; never empty
	CreatedAt    time.Time
}

// IsZero returns true if the task is empty (has no ID).
func (t *Task) IsZero() bool {
	return t.ID == ""
}

// AlertTimes returns the absolute alert instants, in offset order.
func (t *Task) AlertTimes() []time.Time {
	out := make([]time.Time, len(t.AlertOffsets))
	for i, off := range t.AlertOffsets {
		out[i] = t.Due.Add(-off)
	}
	return out
}

func (t Task) clone() Task {
	t.AlertOffsets = slices.Clone(t.AlertOffsets)
	return t
}

// NewTask carries the caller-supplied fields of a task to create.
type NewTask struct {
	Summary    string
	Details    string
	Recurrence recurrence.Rule
	Due        time.Time
	// AlertOffsets defaults to a single zero offset when empty.
	AlertOffsets []time.Duration
}

// Patch lists the fields to change on update. Nil fields are left as is.
type Patch struct {
	Summary    *string
	Details    *string
	Recurrence *recurrence.Rule
	Due        *time.Time
	// AlertOffsets replaces the offsets when non-nil. An empty non-nil
	// slice resets them to the default single zero offset.
	AlertOffsets []time.Duration
}

// IsEmpty reports whether p changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Summary == nil && p.Details == nil && p.Recurrence == nil &&
		p.Due == nil && p.AlertOffsets == nil
}

// DefaultAlertOffsets is used when a task is created without offsets:
// one alert exactly at the due time.
func DefaultAlertOffsets() []time.Duration {
	return []time.Duration{0}
}

var (
	errEmpty      = errors.New("must not be empty")
	errNotFuture  = errors.New("must be in the future")
	errZeroTime   = errors.New("missing required field")
	errNegative   = errors.New("alert offset must not be negative")
	errDuplicate  = errors.New("duplicate alert offset")
	errIDMismatch = errors.New("id timestamp does not match due time")
)

// normalizeDue drops sub-second precision so the id suffix is exact.
func normalizeDue(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

func normalizeOffsets(offsets []time.Duration) []time.Duration {
	if len(offsets) == 0 {
		return DefaultAlertOffsets()
	}
	return slices.Clone(offsets)
}

// ValidateAlertOffsets rejects negative and duplicate offsets.
func ValidateAlertOffsets(offsets []time.Duration) error {
	seen := make(map[time.Duration]struct{}, len(offsets))
	for i, off := range offsets {
		if off < 0 {
			return &ValidationError{Field: fmt.Sprintf("alert_offsets[%d]", i), Err: errNegative}
		}
		if _, ok := seen[off]; ok {
			return &ValidationError{Field: fmt.Sprintf("alert_offsets[%d]", i), Err: fmt.Errorf("%w %s", errDuplicate, off)}
		}
		seen[off] = struct{}{}
	}
	return nil
}

// Validate checks the invariants every stored task must satisfy. It does
// not require the due time to be in the future.
func (t *Task) Validate() error {
	if t.ID == "" {
		return &ValidationError{Field: "id", Err: errEmpty}
	}
	if strings.TrimSpace(t.Summary) == "" {
		return &ValidationError{Field: "summary", Err: errEmpty}
	}
	if strings.TrimSpace(t.Details) == "" {
		return &ValidationError{Field: "details", Err: errEmpty}
	}
	if t.Due.IsZero() {
		return &ValidationError{Field: "due_time", Err: errZeroTime}
	}
	if !taskid.Matches(t.ID, t.Due) {
		return &ValidationError{Field: "id", Err: errIDMismatch}
	}
	if err := t.Recurrence.Validate(); err != nil {
		return &ValidationError{Field: "recurrence", Err: err}
	}
	if len(t.AlertOffsets) == 0 {
		return &ValidationError{Field: "alert_offsets", Err: errEmpty}
	}
	return ValidateAlertOffsets(t.AlertOffsets)
}

// build validates a create request against now and returns the task to
// insert, with a fresh id.
func (in NewTask) build(now time.Time) (Task, error) {
	summary := strings.TrimSpace(in.Summary)
	if summary == "" {
		return Task{}, &ValidationError{Field: "summary", Err: errEmpty}
	}
	details := strings.TrimSpace(in.Details)
	if details == "" {
		return Task{}, &ValidationError{Field: "details", Err: errEmpty}
	}
	if in.Due.IsZero() {
		return Task{}, &ValidationError{Field: "due_time", Err: errZeroTime}
	}
	due := normalizeDue(in.Due)
	if !due.After(now) {
		return Task{}, &ValidationError{Field: "due_time", Err: errNotFuture}
	}
	if err := in.Recurrence.Validate(); err != nil {
		return Task{}, &ValidationError{Field: "recurrence", Err: err}
	}
	offsets := normalizeOffsets(in.AlertOffsets)
	if err := ValidateAlertOffsets(offsets); err != nil {
		return Task{}, err
	}

	return Task{
		ID:           taskid.New(due),
		Summary:      summary,
		Details:      details,
		Recurrence:   in.Recurrence,
		Due:          due,
		AlertOffsets: offsets,
		CreatedAt:    now.Truncate(time.Second),
	}, nil
}

// apply returns a copy of t with p applied and re-validated. The id is
// reissued when the due time moves.
func (p Patch) apply(t Task) (Task, error) {
	out := t.clone()
	if p.Summary != nil {
		s := strings.TrimSpace(*p.Summary)
		if s == "" {
			return Task{}, &ValidationError{Field: "summary", Err: errEmpty}
		}
		out.Summary = s
	}
	if p.Details != nil {
		d := strings.TrimSpace(*p.Details)
		if d == "" {
			return Task{}, &ValidationError{Field: "details", Err: errEmpty}
		}
		out.Details = d
	}
	if p.Recurrence != nil {
		out.Recurrence = *p.Recurrence
	}
	if p.AlertOffsets != nil {
		out.AlertOffsets = normalizeOffsets(p.AlertOffsets)
	}
	if p.Due != nil {
		if p.Due.IsZero() {
			return Task{}, &ValidationError{Field: "due_time", Err: errZeroTime}
		}
		due := normalizeDue(*p.Due)
		if !due.Equal(t.Due) {
			out.Due = due
			out.ID = taskid.New(due)
		}
	}
	if err := out.Validate(); err != nil {
		return Task{}, err
	}
	return out, nil
}
