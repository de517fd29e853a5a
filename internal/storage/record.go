package storage

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/todo"
)

// Columns is the persisted field order, one task per record.
var Columns = []string{
	"id",
	"summary",
	"details",
	"is_recurring",
	"recurrence_unit",
	"recurrence_interval",
	"due_time",
	"alert_offsets",
	"created_at",
}

// Record is the flat persisted form of a task. Timestamps are RFC 3339
// with an explicit offset; alert offsets are semicolon-joined durations.
type Record struct {
	ID                 string `json:"id" yaml:"id"`
	Summary            string `json:"summary" yaml:"summary"`
	Details            string `json:"details" yaml:"details"`
	IsRecurring        bool   `json:"is_recurring" yaml:"is_recurring"`
	RecurrenceUnit     string `json:"recurrence_unit" yaml:"recurrence_unit"`
	RecurrenceInterval int    `json:"recurrence_interval" yaml:"recurrence_interval"`
	DueTime            string `json:"due_time" yaml:"due_time"`
	AlertOffsets       string `json:"alert_offsets" yaml:"alert_offsets"`
	CreatedAt          string `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// CorruptRecordError reports a persisted record that cannot be turned
// back into a valid task.
type CorruptRecordError struct {
	Pos   int    // 1-based record position; for CSV the line number
	Field string // offending field, if known
	Err   error
}

func (e *CorruptRecordError) Error() string {
	switch {
	case e.Pos > 0 && e.Field != "":
		return fmt.Sprintf("corrupt record %d: %s: %s", e.Pos, e.Field, e.Err)
	case e.Pos > 0:
		return fmt.Sprintf("corrupt record %d: %s", e.Pos, e.Err)
	default:
		return fmt.Sprintf("corrupt task file: %s", e.Err)
	}
}

// Unwrap returns the underlying error.
func (e *CorruptRecordError) Unwrap() error {
	return e.Err
}

// FromTask flattens t into a Record.
func FromTask(t todo.Task) Record {
	r := Record{
		ID:           t.ID,
		Summary:      t.Summary,
		Details:      t.Details,
		IsRecurring:  t.Recurrence.IsRecurring(),
		DueTime:      t.Due.Format(todo.TimeLayout),
		AlertOffsets: todo.FormatAlertOffsets(t.AlertOffsets),
	}
	if r.IsRecurring {
		r.RecurrenceUnit = string(t.Recurrence.Unit)
		r.RecurrenceInterval = t.Recurrence.Interval
	}
	if !t.CreatedAt.IsZero() {
		r.CreatedAt = t.CreatedAt.Format(todo.TimeLayout)
	}
	return r
}

// FromTasks flattens tasks in order.
func FromTasks(tasks []todo.Task) []Record {
	out := make([]Record, len(tasks))
	for i, t := range tasks {
		out[i] = FromTask(t)
	}
	return out
}

// Task rebuilds and validates the task described by r. Errors are
// *CorruptRecordError without a position.
func (r Record) Task() (todo.Task, error) {
	due, err := parseStamp(r.DueTime)
	if err != nil {
		return todo.Task{}, &CorruptRecordError{Field: "due_time", Err: err}
	}
	rule, err := r.rule()
	if err != nil {
		return todo.Task{}, &CorruptRecordError{Field: "recurrence_unit", Err: err}
	}
	offsets, err := todo.ParseAlertOffsets(r.AlertOffsets)
	if err != nil {
		return todo.Task{}, &CorruptRecordError{Field: "alert_offsets", Err: err}
	}
	if len(offsets) == 0 {
		offsets = todo.DefaultAlertOffsets()
	}
	var created time.Time
	if strings.TrimSpace(r.CreatedAt) != "" {
		created, err = parseStamp(r.CreatedAt)
		if err != nil {
			return todo.Task{}, &CorruptRecordError{Field: "created_at", Err: err}
		}
	}

	t := todo.Task{
		ID:           r.ID,
		Summary:      r.Summary,
		Details:      r.Details,
		Recurrence:   rule,
		Due:          due,
		AlertOffsets: offsets,
		CreatedAt:    created,
	}
	if err := t.Validate(); err != nil {
		var ve *todo.ValidationError
		if errors.As(err, &ve) {
			return todo.Task{}, &CorruptRecordError{Field: ve.Field, Err: ve.Err}
		}
		return todo.Task{}, &CorruptRecordError{Err: err}
	}
	return t, nil
}

// parseStamp only accepts RFC 3339; a stored time without an offset is
// ambiguous and is not read as local time.
func parseStamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: want RFC 3339 with an offset", s)
	}
	return t, nil
}

func (r Record) rule() (recurrence.Rule, error) {
	return recurrence.FromFields(r.IsRecurring, r.RecurrenceUnit, r.RecurrenceInterval)
}

func parseBool(field, s string) (bool, error) {
	if strings.TrimSpace(s) == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, &CorruptRecordError{Field: field, Err: err}
	}
	return b, nil
}

func parseInt(field, s string) (int, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &CorruptRecordError{Field: field, Err: err}
	}
	return n, nil
}
