// Package cmd provides tests for CLI command handlers.
package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

var baseTime = time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

var envKeys = []string{
	"TASKS_CSV_PATH",
	"TASKLIST_FILE",
	"TASKLIST_FORMAT",
	"TASKLIST_ON_CORRUPT",
	"TASKLIST_UPCOMING_DAYS",
	"TASKLIST_LISTEN",
	"TASKLIST_ROLL_INTERVAL",
	"TASKLIST_API_SECRET",
	"TASKLIST_ALERT_INTERVAL",
	"TASKLIST_SMTP_HOST",
	"TASKLIST_SMTP_PORT",
	"TASKLIST_SMTP_USER",
	"TASKLIST_SMTP_PASSWORD",
	"TASKLIST_ALERT_EMAIL_FROM",
	"TASKLIST_ALERT_EMAIL_TO",
	"TASKLIST_TELEGRAM_TOKEN",
	"TASKLIST_TELEGRAM_CHAT_ID",
	"TASKLIST_LOG_LEVEL",
	"TASKLIST_LOG_FORMAT",
	"TASKLIST_LOG_TIMESTAMPS",
	"TASKLIST_LOG_CALLER",
	"TASKLIST_LOG_DIR",
}

// cli runs commands against a task file in a private directory with a
// fixed clock.
type cli struct {
	dir  string
	file string
	out  *bytes.Buffer
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	work := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("USERPROFILE", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "xdg"))
	t.Setenv("APPDATA", filepath.Join(home, "appdata"))
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	t.Chdir(work)

	c := &cli{dir: work, file: filepath.Join(work, "tasks.csv"), out: &bytes.Buffer{}}
	origOut, origErr, origClock := stdout, stderr, clock
	stdout, stderr = c.out, io.Discard
	clock = func() time.Time { return baseTime }
	t.Cleanup(func() {
		stdout, stderr, clock = origOut, origErr, origClock
	})
	return c
}

// run executes a command with -file pointing at the private task file and
// returns what it printed.
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c.out.Reset()
	err := Run(context.Background(), append([]string{"-file", c.file}, args...))
	return c.out.String(), err
}

// add creates a task and returns its record.
func (c *cli) add(t *testing.T, summary, due string, extra ...string) storage.Record {
	t.Helper()
	args := append([]string{"add", "-json", "-due", due, "-details", summary + " details"}, extra...)
	out, err := c.run(t, append(args, summary)...)
	if err != nil {
		t.Fatalf("add %q: %v", summary, err)
	}
	var rec storage.Record
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("add %q printed %q: %v", summary, out, err)
	}
	return rec
}

func TestRun(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantOut string
		wantErr string
	}{
		{name: "help flag", args: []string{"--help"}, wantOut: "Task commands:"},
		{name: "short help flag", args: []string{"-h"}, wantOut: "Usage:"},
		{name: "help command", args: []string{"help"}, wantOut: "Other commands:"},
		{name: "version flag", args: []string{"--version"}, wantOut: "tasklist version dev"},
		{name: "version command", args: []string{"version"}, wantOut: "tasklist version dev"},
		{name: "no command", args: nil, wantErr: "no command given"},
		{name: "unknown command", args: []string{"frobnicate"}, wantErr: "unknown command: frobnicate"},
		{name: "bad global flag", args: []string{"-on-corrupt", "ignore", "ls"}, wantErr: "loading config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			c.out.Reset()
			err := Run(context.Background(), tt.args)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(c.out.String(), tt.wantOut) {
				t.Errorf("output missing %q:\n%s", tt.wantOut, c.out.String())
			}
		})
	}
}

func TestAddAndGet(t *testing.T) {
	c := newCLI(t)
	rec := c.add(t, "Water plants", "+1h", "-repeat", "week", "-alerts", "0s;15m")

	if want := "_" + "1893502800"; !strings.HasSuffix(rec.ID, want) {
		t.Errorf("id %q does not end with the due timestamp %s", rec.ID, want)
	}
	if rec.DueTime != "2030-01-01T13:00:00Z" {
		t.Errorf("due_time = %q", rec.DueTime)
	}
	if !rec.IsRecurring || rec.RecurrenceUnit != "week" || rec.RecurrenceInterval != 1 {
		t.Errorf("recurrence = %v %q %d", rec.IsRecurring, rec.RecurrenceUnit, rec.RecurrenceInterval)
	}
	if rec.AlertOffsets != "0s;15m0s" {
		t.Errorf("alert_offsets = %q", rec.AlertOffsets)
	}

	out, err := c.run(t, "get", rec.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	for _, want := range []string{rec.ID, "Water plants", "[weekly]", "Details: Water plants details", "1 hour from now"} {
		if !strings.Contains(out, want) {
			t.Errorf("get output missing %q:\n%s", want, out)
		}
	}

	if _, err := os.Stat(c.file); err != nil {
		t.Fatalf("task file not written: %v", err)
	}
}

func TestAddValidation(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"missing due", []string{"add", "-details", "d", "x"}, "due_time"},
		{"past due", []string{"add", "-due", "2001-01-01T00:00:00Z", "-details", "d", "x"}, "due_time"},
		{"bad due", []string{"add", "-due", "tomorrow", "-details", "d", "x"}, "due_time"},
		{"missing details", []string{"add", "-due", "+1h", "x"}, "details"},
		{"bad unit", []string{"add", "-due", "+1h", "-details", "d", "-repeat", "fortnight", "x"}, "recurrence"},
		{"bad alerts", []string{"add", "-due", "+1h", "-details", "d", "-alerts", "soon", "x"}, "alert_offsets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCLI(t)
			_, err := c.run(t, tt.args...)
			var ve *todo.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}

	t.Run("missing summary", func(t *testing.T) {
		c := newCLI(t)
		if _, err := c.run(t, "add", "-due", "+1h", "-details", "d"); err == nil || !strings.Contains(err.Error(), "usage:") {
			t.Fatalf("err = %v, want usage error", err)
		}
	})
}

func TestListOrderAndQueries(t *testing.T) {
	c := newCLI(t)
	late := c.add(t, "Late", "+72h")
	early := c.add(t, "Early", "+2h")
	mid := c.add(t, "Middle", "+30h")

	out, err := c.run(t, "ls")
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	iE, iM, iL := strings.Index(out, early.ID), strings.Index(out, mid.ID), strings.Index(out, late.ID)
	if iE < 0 || iM < 0 || iL < 0 || !(iE < iM && iM < iL) {
		t.Fatalf("ls not in due order:\n%s", out)
	}

	tests := []struct {
		name string
		args []string
		want []string
		skip []string
	}{
		{"window", []string{"window", "+1h", "+48h"}, []string{early.ID, mid.ID}, []string{late.ID}},
		{"window is inclusive", []string{"window", "+2h", "+30h"}, []string{early.ID, mid.ID}, []string{late.ID}},
		{"upcoming default", []string{"upcoming"}, []string{early.ID, mid.ID, late.ID}, nil},
		{"upcoming one day", []string{"upcoming", "-days", "1"}, []string{early.ID}, []string{mid.ID, late.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := c.run(t, tt.args...)
			if err != nil {
				t.Fatalf("%v: %v", tt.args, err)
			}
			for _, id := range tt.want {
				if !strings.Contains(out, id) {
					t.Errorf("missing %s:\n%s", id, out)
				}
			}
			for _, id := range tt.skip {
				if strings.Contains(out, id) {
					t.Errorf("unexpected %s:\n%s", id, out)
				}
			}
		})
	}

	t.Run("inverted window", func(t *testing.T) {
		_, err := c.run(t, "window", "+48h", "+1h")
		var ve *todo.ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("err = %v, want ValidationError", err)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := c.run(t, "ls", "-json")
		if err != nil {
			t.Fatal(err)
		}
		var recs []storage.Record
		if err := json.Unmarshal([]byte(out), &recs); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(recs) != 3 || recs[0].ID != early.ID {
			t.Fatalf("records = %+v", recs)
		}
	})
}

func TestUpdate(t *testing.T) {
	c := newCLI(t)
	rec := c.add(t, "Dentist", "+5h")

	out, err := c.run(t, "update", "-summary", "Dentist (moved)", rec.ID)
	if err != nil {
		t.Fatalf("update summary: %v", err)
	}
	if !strings.Contains(out, "Updated "+rec.ID+"\n") {
		t.Errorf("summary update changed the id:\n%s", out)
	}

	out, err = c.run(t, "update", "-due", "+6h", rec.ID)
	if err != nil {
		t.Fatalf("update due: %v", err)
	}
	if !strings.Contains(out, "new id") || !strings.Contains(out, "_1893520800") {
		t.Errorf("due update did not reissue the id:\n%s", out)
	}
	if _, err := c.run(t, "get", rec.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("old id: err = %v, want not found", err)
	}

	if _, err := c.run(t, "update", rec.ID); err == nil || !strings.Contains(err.Error(), "nothing to update") {
		t.Errorf("empty update: err = %v", err)
	}
	if _, err := c.run(t, "update", "-summary", "x", "missing_1"); !errors.Is(err, todo.ErrNotFound) {
		t.Errorf("unknown id: err = %v", err)
	}
}

func TestMergeRule(t *testing.T) {
	weekly, _ := mergeRule(recurrenceOf(t, "week", 1), false, "", true, 2)
	if weekly.Interval != 2 || weekly.Unit != "week" {
		t.Errorf("-every 2 on weekly = %+v", weekly)
	}
	none, err := mergeRule(recurrenceOf(t, "week", 1), true, "none", false, 0)
	if err != nil || none.IsRecurring() {
		t.Errorf("-repeat none = %+v, %v", none, err)
	}
	if _, err := mergeRule(recurrenceOf(t, "", 0), false, "", true, 3); err == nil {
		t.Error("-every on a one-off task should fail")
	}
	monthly, err := mergeRule(recurrenceOf(t, "", 0), true, "monthly", false, 0)
	if err != nil || monthly.Unit != "month" || monthly.Interval != 1 {
		t.Errorf("-repeat monthly = %+v, %v", monthly, err)
	}
}

func recurrenceOf(t *testing.T, unit string, interval int) recurrence.Rule {
	t.Helper()
	r, err := recurrence.FromFields(unit != "", unit, interval)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestDeleteAndClear(t *testing.T) {
	c := newCLI(t)
	a := c.add(t, "A", "+1h")
	c.add(t, "B", "+2h")

	if _, err := c.run(t, "rm", a.ID); err != nil {
		t.Fatalf("rm: %v", err)
	}
	if _, err := c.run(t, "rm", a.ID); !errors.Is(err, todo.ErrNotFound) {
		t.Fatalf("second rm: err = %v, want not found", err)
	}

	if _, err := c.run(t, "clear"); err == nil || !strings.Contains(err.Error(), "refusing to delete 1 tasks") {
		t.Fatalf("clear without -yes: err = %v", err)
	}
	out, err := c.run(t, "clear", "-yes")
	if err != nil || !strings.Contains(out, "Deleted 1 tasks") {
		t.Fatalf("clear: %q, %v", out, err)
	}
	out, _ = c.run(t, "ls")
	if !strings.Contains(out, "No tasks found.") {
		t.Errorf("ls after clear:\n%s", out)
	}
}

func TestAdvanceAndRoll(t *testing.T) {
	c := newCLI(t)
	daily := c.add(t, "Stretch", "+1h", "-repeat", "daily")
	once := c.add(t, "Call bank", "+2h")

	out, err := c.run(t, "advance", daily.ID)
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !strings.Contains(out, "2030-01-02T13:00:00Z") {
		t.Errorf("advance output:\n%s", out)
	}
	var rre *todo.InvalidRecurrenceError
	if _, err := c.run(t, "advance", once.ID); !errors.As(err, &rre) {
		t.Errorf("advance one-off: err = %v, want InvalidRecurrenceError", err)
	}

	out, err = c.run(t, "roll")
	if err != nil || !strings.Contains(out, "No overdue recurring tasks.") {
		t.Fatalf("roll with nothing due: %q, %v", out, err)
	}

	clock = func() time.Time { return baseTime.Add(75 * time.Hour) }
	out, err = c.run(t, "roll")
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	if !strings.Contains(out, "Advanced 1 recurring tasks") {
		t.Errorf("roll output:\n%s", out)
	}
	out, err = c.run(t, "ls", "-json")
	if err != nil {
		t.Fatal(err)
	}
	var recs []storage.Record
	if err := json.Unmarshal([]byte(out), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].ID != once.ID || recs[1].DueTime != "2030-01-05T13:00:00Z" {
		t.Errorf("after roll = %+v", recs)
	}
}

func TestNow(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "now")
	if err != nil || strings.TrimSpace(out) != "2030-01-01T12:00:00Z" {
		t.Errorf("now = %q, %v", out, err)
	}
	out, err = c.run(t, "now", "-unix")
	if err != nil || strings.TrimSpace(out) != "1893499200" {
		t.Errorf("now -unix = %q, %v", out, err)
	}
}

func TestCorruptFilePolicy(t *testing.T) {
	c := newCLI(t)
	c.add(t, "Good", "+1h")
	f, err := os.OpenFile(c.file, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("oops\n"); err != nil {
		t.Fatal(err)
	}
	f.Close()

	_, err = c.run(t, "ls")
	var cre *storage.CorruptRecordError
	if !errors.As(err, &cre) {
		t.Fatalf("abort policy: err = %v, want CorruptRecordError", err)
	}
	if cre.Pos != 3 {
		t.Errorf("corrupt position = %d, want 3", cre.Pos)
	}

	out, err := c.run(t, "-on-corrupt", "skip", "ls")
	if err != nil || !strings.Contains(out, "Good") {
		t.Fatalf("skip policy: %q, %v", out, err)
	}

	out, err = c.run(t, "doctor")
	if err == nil || !strings.Contains(err.Error(), "doctor checks failed") {
		t.Fatalf("doctor: err = %v", err)
	}
	if !strings.Contains(out, "1 corrupt records") {
		t.Errorf("doctor output:\n%s", out)
	}
}

func TestDoctor(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "doctor")
	if err != nil {
		t.Fatalf("doctor on a fresh setup: %v\n%s", err, out)
	}
	for _, want := range []string{"Not found (created on the first change)", "No api_secret", "All checks passed"} {
		if !strings.Contains(out, want) {
			t.Errorf("doctor output missing %q:\n%s", want, out)
		}
	}

	c.add(t, "Checked", "+1h")
	out, err = c.run(t, "doctor")
	if err != nil || !strings.Contains(out, "Tasks: 1") {
		t.Errorf("doctor with a task: %v\n%s", err, out)
	}
}

func TestToken(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "token"); err == nil || !strings.Contains(err.Error(), "api_secret") {
		t.Fatalf("token without secret: err = %v", err)
	}
	t.Setenv("TASKLIST_API_SECRET", "s3cret")
	out, err := c.run(t, "token", "-ttl", "1h")
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if parts := strings.Split(strings.TrimSpace(out), "."); len(parts) != 3 {
		t.Errorf("token %q is not a JWT", out)
	}
}

func TestConfigCommand(t *testing.T) {
	c := newCLI(t)
	t.Setenv("TASKLIST_API_SECRET", "s3cret")
	out, err := c.run(t, "config")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if !strings.Contains(out, c.file) || !strings.Contains(out, "[flag]") {
		t.Errorf("config does not show the flag-set file:\n%s", out)
	}
	if strings.Contains(out, "s3cret") || !strings.Contains(out, "********") {
		t.Errorf("config does not mask the secret:\n%s", out)
	}

	out, err = c.run(t, "config", "example")
	if err != nil || !strings.Contains(out, "TASKLIST_") {
		t.Errorf("config example: %v\n%s", err, out)
	}
	if _, err := c.run(t, "config", "bogus"); err == nil {
		t.Error("config bogus should fail")
	}
}

func TestExport(t *testing.T) {
	c := newCLI(t)
	c.add(t, "Quarterly review", "+3h")
	path := filepath.Join(c.dir, "agenda.pdf")

	out, err := c.run(t, "export", "-out", path, "-title", "Week ahead")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Wrote 1 tasks") {
		t.Errorf("export output: %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("export did not write a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestLogsNeedsDir(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "logs"); err == nil || !strings.Contains(err.Error(), "log_dir is not configured") {
		t.Fatalf("logs without log_dir: err = %v", err)
	}
	out, err := c.run(t, "-log-dir", filepath.Join(c.dir, "logs"), "logs")
	if err != nil || !strings.Contains(out, "No log files found.") {
		t.Fatalf("logs with empty dir: %q, %v", out, err)
	}
}

func TestParseWhen(t *testing.T) {
	orig := clock
	clock = func() time.Time { return baseTime }
	t.Cleanup(func() { clock = orig })

	got, err := parseWhen("+90m")
	if err != nil || !got.Equal(baseTime.Add(90*time.Minute)) {
		t.Errorf("+90m = %v, %v", got, err)
	}
	got, err = parseWhen("2030-02-03T04:05:06Z")
	if err != nil || !got.Equal(time.Date(2030, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Errorf("RFC 3339 = %v, %v", got, err)
	}
	if _, err := parseWhen("+soon"); err == nil {
		t.Error("+soon should fail")
	}
}
