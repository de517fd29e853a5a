package server

import (
	"time"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/todo"
)

// taskRequest is the body of POST /tasks. Field names follow the
// persisted record layout; alert_offsets is a semicolon separated list
// of durations such as "0s;15m".
type taskRequest struct {
	Summary            string `json:"summary"`
	Details            string `json:"details"`
	IsRecurring        bool   `json:"is_recurring"`
	RecurrenceUnit     string `json:"recurrence_unit"`
	RecurrenceInterval int    `json:"recurrence_interval"`
	DueTime            string `json:"due_time"`
	AlertOffsets       string `json:"alert_offsets"`
}

func (r taskRequest) newTask() (todo.NewTask, error) {
	due, err := todo.ParseTime(r.DueTime, time.Local)
	if err != nil {
		return todo.NewTask{}, &todo.ValidationError{Field: "due_time", Err: err}
	}
	rule, err := recurrence.FromFields(r.IsRecurring, r.RecurrenceUnit, r.RecurrenceInterval)
	if err != nil {
		return todo.NewTask{}, &todo.ValidationError{Field: "recurrence_unit", Err: err}
	}
	offsets, err := todo.ParseAlertOffsets(r.AlertOffsets)
	if err != nil {
		return todo.NewTask{}, &todo.ValidationError{Field: "alert_offsets", Err: err}
	}
	return todo.NewTask{
		Summary:      r.Summary,
		Details:      r.Details,
		Recurrence:   rule,
		Due:          due,
		AlertOffsets: offsets,
	}, nil
}

// patchRequest is the body of PATCH /tasks/:id. Absent fields are kept.
type patchRequest struct {
	Summary            *string `json:"summary"`
	Details            *string `json:"details"`
	IsRecurring        *bool   `json:"is_recurring"`
	RecurrenceUnit     *string `json:"recurrence_unit"`
	RecurrenceInterval *int    `json:"recurrence_interval"`
	DueTime            *string `json:"due_time"`
	AlertOffsets       *string `json:"alert_offsets"`
}

// patch converts r against the current task, which supplies any
// recurrence fields the request leaves out.
func (r patchRequest) patch(current todo.Task) (todo.Patch, error) {
	p := todo.Patch{Summary: r.Summary, Details: r.Details}

	if r.IsRecurring != nil || r.RecurrenceUnit != nil || r.RecurrenceInterval != nil {
		recurring := current.Recurrence.IsRecurring()
		unit := string(current.Recurrence.Unit)
		interval := current.Recurrence.Interval
		if r.IsRecurring != nil {
			recurring = *r.IsRecurring
		}
		if r.RecurrenceUnit != nil {
			unit = *r.RecurrenceUnit
		}
		if r.RecurrenceInterval != nil {
			interval = *r.RecurrenceInterval
		}
		rule, err := recurrence.FromFields(recurring, unit, interval)
		if err != nil {
			return todo.Patch{}, &todo.ValidationError{Field: "recurrence_unit", Err: err}
		}
		p.Recurrence = &rule
	}

	if r.DueTime != nil {
		due, err := todo.ParseTime(*r.DueTime, time.Local)
		if err != nil {
			return todo.Patch{}, &todo.ValidationError{Field: "due_time", Err: err}
		}
		p.Due = &due
	}

	if r.AlertOffsets != nil {
		offsets, err := todo.ParseAlertOffsets(*r.AlertOffsets)
		if err != nil {
			return todo.Patch{}, &todo.ValidationError{Field: "alert_offsets", Err: err}
		}
		if offsets == nil {
			offsets = []time.Duration{}
		}
		p.AlertOffsets = offsets
	}
	return p, nil
}
