package cmd

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/ui"
)

// clock is swapped in tests.
var clock = time.Now

// parseWhen parses an absolute time or a "+duration" offset from now.
func parseWhen(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if rel, ok := strings.CutPrefix(s, "+"); ok {
		d, err := time.ParseDuration(rel)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid relative time %q: %w", s, err)
		}
		return clock().Add(d), nil
	}
	return todo.ParseTime(s, time.Local)
}

// finish reports the outcome of a mutation. A persistence error leaves the
// change applied in memory only, so the result is still printed.
func finish(err error, print func()) error {
	if err != nil && !todo.IsPersistence(err) {
		return err
	}
	print()
	if err != nil {
		return fmt.Errorf("change applied but not saved: %w", err)
	}
	return nil
}

func addCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist add", flag.ContinueOnError)
	due := fs.String("due", "", "Due time (required)")
	details := fs.String("details", "", "Task details (required)")
	repeat := fs.String("repeat", "", "Recurrence unit or preset (day|week|month|year|daily|weekly|monthly|yearly)")
	every := fs.Int("every", 1, "Recurrence interval, used with -repeat")
	alerts := fs.String("alerts", "", "Alert offsets before due, e.g. 0s;15m (default: at due time)")
	asJSON := fs.Bool("json", false, "Print the task as JSON")
	rest, err := parseArgs(fs, args, "tasklist add -due TIME -details TEXT [options] <summary>", 1, -1)
	if err != nil {
		return err
	}

	if *due == "" {
		return &todo.ValidationError{Field: "due_time", Err: errors.New("missing required -due")}
	}
	dueAt, err := parseWhen(*due)
	if err != nil {
		return &todo.ValidationError{Field: "due_time", Err: err}
	}
	rule, err := recurrence.FromFields(*repeat != "", *repeat, *every)
	if err != nil {
		return &todo.ValidationError{Field: "recurrence", Err: err}
	}
	offsets, err := todo.ParseAlertOffsets(*alerts)
	if err != nil {
		return &todo.ValidationError{Field: "alert_offsets", Err: err}
	}

	store, err := e.openStore()
	if err != nil {
		return err
	}
	task, err := store.Create(todo.NewTask{
		Summary:      strings.Join(rest, " "),
		Details:      *details,
		Recurrence:   rule,
		Due:          dueAt,
		AlertOffsets: offsets,
	})
	return finish(err, func() {
		if *asJSON {
			printJSON(storage.FromTask(task))
			return
		}
		fmt.Fprintf(stdout, "Created %s\n", task.ID)
		printTask(task, true)
	})
}

func getCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist get", flag.ContinueOnError)
	asJSON := fs.Bool("json", false, "Print the task as JSON")
	rest, err := parseArgs(fs, args, "tasklist get [-json] <id>", 1, 1)
	if err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	task, err := store.Get(rest[0])
	if err != nil {
		return err
	}
	if *asJSON {
		printJSON(storage.FromTask(task))
		return nil
	}
	printTask(task, true)
	return nil
}

func updateCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist update", flag.ContinueOnError)
	summary := fs.String("summary", "", "New summary")
	details := fs.String("details", "", "New details")
	due := fs.String("due", "", "New due time; issues a new id")
	repeat := fs.String("repeat", "", "Recurrence unit or preset, or none")
	every := fs.Int("every", 0, "Recurrence interval")
	alerts := fs.String("alerts", "", "Alert offsets; empty resets to the default")
	rest, err := parseArgs(fs, args, "tasklist update [options] <id>", 1, 1)
	if err != nil {
		return err
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return errors.New("nothing to update: pass at least one of -summary, -details, -due, -repeat, -every, -alerts")
	}

	store, err := e.openStore()
	if err != nil {
		return err
	}
	id := rest[0]
	current, err := store.Get(id)
	if err != nil {
		return err
	}

	var p todo.Patch
	if set["summary"] {
		p.Summary = summary
	}
	if set["details"] {
		p.Details = details
	}
	if set["due"] {
		t, err := parseWhen(*due)
		if err != nil {
			return &todo.ValidationError{Field: "due_time", Err: err}
		}
		p.Due = &t
	}
	if set["repeat"] || set["every"] {
		rule, err := mergeRule(current.Recurrence, set["repeat"], *repeat, set["every"], *every)
		if err != nil {
			return &todo.ValidationError{Field: "recurrence", Err: err}
		}
		p.Recurrence = &rule
	}
	if set["alerts"] {
		offsets, err := todo.ParseAlertOffsets(*alerts)
		if err != nil {
			return &todo.ValidationError{Field: "alert_offsets", Err: err}
		}
		if offsets == nil {
			offsets = []time.Duration{}
		}
		p.AlertOffsets = offsets
	}

	task, err := store.Update(id, p)
	return finish(err, func() {
		if task.ID != id {
			fmt.Fprintf(stdout, "Updated %s (new id %s)\n", id, task.ID)
		} else {
			fmt.Fprintf(stdout, "Updated %s\n", id)
		}
		printTask(task, true)
	})
}

// mergeRule combines the flags given to update with the current rule.
func mergeRule(current recurrence.Rule, repeatSet bool, repeat string, everySet bool, every int) (recurrence.Rule, error) {
	unit := string(current.Unit)
	interval := current.Interval
	recurring := current.IsRecurring()
	if repeatSet {
		unit = repeat
		recurring = !strings.EqualFold(strings.TrimSpace(repeat), "none") && repeat != ""
		if interval < 1 {
			interval = 1
		}
	}
	if everySet {
		if !recurring {
			return recurrence.OneOff, errors.New("-every needs a recurring task; pass -repeat as well")
		}
		interval = every
	}
	return recurrence.FromFields(recurring, unit, interval)
}

func rmCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist rm", flag.ContinueOnError)
	rest, err := parseArgs(fs, args, "tasklist rm <id>", 1, 1)
	if err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	deleted, err := store.Delete(rest[0])
	if err == nil && !deleted {
		return &todo.NotFoundError{ID: rest[0]}
	}
	return finish(err, func() {
		fmt.Fprintf(stdout, "Deleted %s\n", rest[0])
	})
}

func lsCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist ls", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Show details and alerts")
	asJSON := fs.Bool("json", false, "Print tasks as JSON")
	if _, err := parseArgs(fs, args, "tasklist ls [-v] [-json]", 0, 0); err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	printTaskList(store.All(), *verbose, *asJSON)
	return nil
}

func windowCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist window", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "Show details and alerts")
	asJSON := fs.Bool("json", false, "Print tasks as JSON")
	rest, err := parseArgs(fs, args, "tasklist window [-v] [-json] <start> <end>", 2, 2)
	if err != nil {
		return err
	}
	start, err := parseWhen(rest[0])
	if err != nil {
		return &todo.ValidationError{Field: "start_time", Err: err}
	}
	end, err := parseWhen(rest[1])
	if err != nil {
		return &todo.ValidationError{Field: "end_time", Err: err}
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	tasks, err := store.InWindow(todo.Window{Start: start, End: end})
	if err != nil {
		return err
	}
	printTaskList(tasks, *verbose, *asJSON)
	return nil
}

func upcomingCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist upcoming", flag.ContinueOnError)
	days := fs.Int("days", e.cfg.UpcomingDays, "Days to look ahead")
	verbose := fs.Bool("v", false, "Show details and alerts")
	asJSON := fs.Bool("json", false, "Print tasks as JSON")
	if _, err := parseArgs(fs, args, "tasklist upcoming [-days N] [-v] [-json]", 0, 0); err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	tasks, err := store.UpcomingDays(*days)
	if err != nil {
		return err
	}
	printTaskList(tasks, *verbose, *asJSON)
	return nil
}

func clearCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist clear", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Confirm deleting every task")
	if _, err := parseArgs(fs, args, "tasklist clear -yes", 0, 0); err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	if !*yes {
		return fmt.Errorf("refusing to delete %d tasks without -yes", store.Len())
	}
	n, err := store.DeleteAll()
	return finish(err, func() {
		fmt.Fprintf(stdout, "Deleted %d tasks\n", n)
	})
}

func advanceCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist advance", flag.ContinueOnError)
	rest, err := parseArgs(fs, args, "tasklist advance <id>", 1, 1)
	if err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	task, err := store.Advance(rest[0])
	return finish(err, func() {
		fmt.Fprintf(stdout, "Advanced %s to %s (new id %s)\n", rest[0], task.Due.Format(todo.TimeLayout), task.ID)
	})
}

func rollCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist roll", flag.ContinueOnError)
	if _, err := parseArgs(fs, args, "tasklist roll", 0, 0); err != nil {
		return err
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	moved, err := store.RollForward()
	return finish(err, func() {
		if len(moved) == 0 {
			fmt.Fprintln(stdout, "No overdue recurring tasks.")
			return
		}
		fmt.Fprintf(stdout, "Advanced %d recurring tasks:\n", len(moved))
		for _, t := range moved {
			printTask(t, false)
		}
	})
}

func nowCommand(args []string) error {
	fs := flag.NewFlagSet("tasklist now", flag.ContinueOnError)
	unix := fs.Bool("unix", false, "Print Unix seconds")
	if _, err := parseArgs(fs, args, "tasklist now [-unix]", 0, 0); err != nil {
		return err
	}
	now := clock()
	if *unix {
		fmt.Fprintln(stdout, now.Unix())
		return nil
	}
	fmt.Fprintln(stdout, now.Format(todo.TimeLayout))
	return nil
}

// printTaskList prints tasks in the order given.
func printTaskList(tasks []todo.Task, verbose, asJSON bool) {
	if asJSON {
		printJSON(storage.FromTasks(tasks))
		return
	}
	if len(tasks) == 0 {
		fmt.Fprintln(stdout, "No tasks found.")
		return
	}
	for _, t := range tasks {
		printTask(t, verbose)
	}
}

// printTask prints a single task.
func printTask(t todo.Task, verbose bool) {
	line := fmt.Sprintf("  %s  %s (%s)  %s", t.ID, t.Due.Local().Format("2006-01-02 15:04"), ui.RelativeDue(t.Due, clock()), t.Summary)
	if t.Recurrence.IsRecurring() {
		line += "  [" + t.Recurrence.String() + "]"
	}
	fmt.Fprintln(stdout, line)
	if verbose {
		fmt.Fprintf(stdout, "      Details: %s\n", t.Details)
		fmt.Fprintf(stdout, "      Alerts: %s\n", todo.FormatAlertOffsets(t.AlertOffsets))
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
