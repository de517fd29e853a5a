package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  log.Level
	}{
		{"debug", log.DebugLevel},
		{"INFO", log.InfoLevel},
		{"warn", log.WarnLevel},
		{"warning", log.WarnLevel},
		{"error", log.ErrorLevel},
		{"fatal", log.FatalLevel},
		{"", log.InfoLevel},
		{"verbose", log.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFormatter(t *testing.T) {
	tests := []struct {
		input string
		want  log.Formatter
	}{
		{"json", log.JSONFormatter},
		{"logfmt", log.LogfmtFormatter},
		{"text", log.TextFormatter},
		{"", log.TextFormatter},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseFormatter(tt.input); got != tt.want {
				t.Errorf("ParseFormatter(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
	if ValidFormatter("xml") || !ValidFormatter("logfmt") {
		t.Error("ValidFormatter() disagrees with ParseFormatter")
	}
	if ValidLevel("trace") || !ValidLevel("warning") {
		t.Error("ValidLevel() disagrees with ParseLevel")
	}
}

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Formatter = log.LogfmtFormatter
	logger := New(&buf, opts)

	logger.Info("task created", "id", "abc_1")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "task created") || !strings.Contains(out, "id=abc_1") {
		t.Errorf("output missing message or field: %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, "tasklist") {
		t.Errorf("output missing prefix: %q", out)
	}
}

func TestRunLogger(t *testing.T) {
	t.Run("creates directory and file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "logs", "nested")
		rl, err := NewRunLogger(dir, "serve")
		if err != nil {
			t.Fatalf("NewRunLogger() error = %v", err)
		}
		defer rl.Close()

		if !strings.HasSuffix(rl.RunID, "-serve") {
			t.Errorf("RunID = %q, want command suffix", rl.RunID)
		}
		if _, err := os.Stat(rl.LogPath); err != nil {
			t.Errorf("log file not created: %v", err)
		}
	})

	t.Run("empty dir returns error", func(t *testing.T) {
		if _, err := NewRunLogger("", "serve"); err == nil {
			t.Fatal("expected error for empty dir")
		}
	})

	t.Run("close nil logger", func(t *testing.T) {
		var rl *RunLogger
		if err := rl.Close(); err != nil {
			t.Errorf("Close() on nil = %v", err)
		}
	})
}

func TestSanitizeLabel(t *testing.T) {
	tests := map[string]string{
		"serve":      "serve",
		"":           "run",
		"a b/c":      "a_b_c",
		"///":        "run",
		"watch-mode": "watch-mode",
	}
	for in, want := range tests {
		if got := sanitizeLabel(in); got != want {
			t.Errorf("sanitizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestFindLogRuns(t *testing.T) {
	dir := t.TempDir()
	older := filepath.Join(dir, "20300101-000000-1-serve.log")
	newer := filepath.Join(dir, "20300102-000000-2-watch.log")
	for _, p := range []string{older, newer, filepath.Join(dir, "notes.txt")} {
		if err := os.WriteFile(p, []byte("x\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatal(err)
	}

	runs, err := FindLogRuns(dir)
	if err != nil {
		t.Fatalf("FindLogRuns() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("FindLogRuns() = %d runs, want 2", len(runs))
	}
	if runs[0].Path != newer {
		t.Errorf("newest run = %s, want %s", runs[0].Path, newer)
	}
	latest, err := FindLatestLog(dir)
	if err != nil || latest != newer {
		t.Errorf("FindLatestLog() = %q, %v", latest, err)
	}

	missing, err := FindLatestLog(filepath.Join(dir, "absent"))
	if err != nil || missing != "" {
		t.Errorf("FindLatestLog(missing) = %q, %v", missing, err)
	}
}

func TestTailLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	var content strings.Builder
	for i := 0; i < 500; i++ {
		content.WriteString(strings.Repeat("x", 99))
		content.WriteString("\n")
	}
	content.WriteString("last line\n")
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := TailLog(context.Background(), &out, path, 3, false); err != nil {
		t.Fatalf("TailLog() error = %v", err)
	}
	if !strings.HasSuffix(out.String(), "last line\n") {
		t.Errorf("TailLog() output does not end with the last line")
	}
	if out.Len() >= len(content.String()) {
		t.Errorf("TailLog() returned the whole file")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	out.Reset()
	if err := TailLog(ctx, &out, path, 0, true); err != nil {
		t.Fatalf("TailLog(follow) error = %v", err)
	}
	if out.Len() != len(content.String()) {
		t.Errorf("TailLog(follow) copied %d bytes, want %d", out.Len(), len(content.String()))
	}
}
