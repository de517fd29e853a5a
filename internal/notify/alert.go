package notify

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nibzard/tasklist/internal/todo"
)

// Alert is one reminder for a task.
type Alert struct {
	Task   todo.Task
	Offset time.Duration
	At     time.Time
}

// Due lists the alerts of tasks with after < At <= upTo, ordered by At.
// Alerts at the same instant keep task order, then offset order.
func Due(tasks []todo.Task, after, upTo time.Time) []Alert {
	var out []Alert
	for _, t := range tasks {
		for i, at := range t.AlertTimes() {
			if at.After(after) && !at.After(upTo) {
				out = append(out, Alert{Task: t, Offset: t.AlertOffsets[i], At: at})
			}
		}
	}
	slices.SortStableFunc(out, func(a, b Alert) int {
		return a.At.Compare(b.At)
	})
	return out
}

// Subject is a one-line summary of the alert.
func (a Alert) Subject() string {
	return fmt.Sprintf("Reminder: %s is due %s", a.Task.Summary, humanize.RelTime(a.Task.Due, a.At, "ago", "from now"))
}

// Text renders the alert as plain text.
func (a Alert) Text() string {
	var b strings.Builder
	b.WriteString(a.Subject())
	b.WriteString("\n")
	fmt.Fprintf(&b, "Due: %s\n", a.Task.Due.Format(time.RFC1123))
	if a.Task.Recurrence.IsRecurring() {
		fmt.Fprintf(&b, "Repeats: %s\n", a.Task.Recurrence)
	}
	if a.Task.Details != "" {
		b.WriteString("\n")
		b.WriteString(a.Task.Details)
		b.WriteString("\n")
	}
	return b.String()
}
