package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/report"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
	"github.com/nibzard/tasklist/internal/ui"
)

// tuiCommand launches the upcoming-task viewer.
func tuiCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist tui", flag.ContinueOnError)
	days := fs.Int("days", e.cfg.UpcomingDays, "Days to look ahead")
	refresh := fs.Duration("refresh", 30*time.Second, "Reload interval (0 disables)")
	if _, err := parseArgs(fs, args, "tasklist tui [-days N] [-refresh D]", 0, 0); err != nil {
		return err
	}
	if *days < 0 {
		return &todo.ValidationError{Field: "days", Err: fmt.Errorf("must not be negative, got %d", *days)}
	}
	file, err := e.openFile()
	if err != nil {
		return err
	}
	load := func() ([]todo.Task, error) {
		tasks, err := file.Load()
		if err != nil {
			return nil, err
		}
		return todo.NewStore(nil, tasks, todo.WithClock(clock)).UpcomingDays(*days)
	}
	return ui.RunTUI(ctx, load,
		ui.WithDays(*days),
		ui.WithRefreshInterval(*refresh),
		ui.WithSource(file.Path()),
		ui.WithClock(clock),
	)
}

// exportCommand writes the upcoming window as a PDF agenda.
func exportCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist export", flag.ContinueOnError)
	out := fs.String("out", "agenda.pdf", "Output path, or - for stdout")
	days := fs.Int("days", e.cfg.UpcomingDays, "Days to include")
	title := fs.String("title", "Upcoming tasks", "Document title")
	uncompressed := fs.Bool("uncompressed", false, "Leave PDF page streams uncompressed")
	if _, err := parseArgs(fs, args, "tasklist export [-out FILE] [-days N] [-title TEXT]", 0, 0); err != nil {
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
	now := clock()
	window := todo.UpcomingWindow(now, *days)
	agenda := report.Agenda{
		Title:     *title,
		Generated: now,
		Start:     window.Start,
		End:       window.End,
		Tasks:     tasks,
	}
	opts := report.Options{Uncompressed: *uncompressed}

	if *out == "-" {
		return report.Write(stdout, agenda, opts)
	}
	if err := report.WriteFile(*out, agenda, opts); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Wrote %d tasks to %s\n", len(tasks), *out)
	return nil
}

// logsCommand prints the latest serve/watch log.
func logsCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist logs", flag.ContinueOnError)
	follow := fs.Bool("f", false, "Follow the log (like tail -f)")
	fs.BoolVar(follow, "follow", false, "Follow the log (like tail -f)")
	n := fs.Int("n", 0, "Number of lines to show (0 = all)")
	list := fs.Bool("list", false, "List every run log instead")
	if _, err := parseArgs(fs, args, "tasklist logs [-f] [-n N] [-list]", 0, 0); err != nil {
		return err
	}
	if e.cfg.LogDir == "" {
		return errors.New("log_dir is not configured (set it in tasklist.toml, TASKLIST_LOG_DIR or --log-dir)")
	}

	if *list {
		runs, err := logging.FindLogRuns(e.cfg.LogDir)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(stdout, "No log files found.")
			return nil
		}
		for _, run := range runs {
			fmt.Fprintf(stdout, "%s  %s\n", run.ModTime.Format(todo.TimeLayout), run.Path)
		}
		return nil
	}

	logPath, err := logging.FindLatestLog(e.cfg.LogDir)
	if err != nil {
		return fmt.Errorf("finding latest log: %w", err)
	}
	if logPath == "" {
		fmt.Fprintln(stdout, "No log files found.")
		return nil
	}
	if *follow {
		fmt.Fprintf(stderr, "Tailing: %s (Ctrl+C to stop)\n", logPath)
	}
	return logging.TailLog(ctx, stdout, logPath, *n, *follow)
}

// configCommand prints the effective configuration or an example file.
func configCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist config", flag.ContinueOnError)
	rest, err := parseArgs(fs, args, "tasklist config [example]", 0, 1)
	if err != nil {
		return err
	}
	if len(rest) == 1 {
		if rest[0] != "example" {
			return fmt.Errorf("unknown config subcommand %q (want example)", rest[0])
		}
		fmt.Fprint(stdout, config.ExampleConfig())
		return nil
	}
	e.sources.PrintSources(stdout)
	return nil
}

// doctorCommand checks the configuration and the task file.
func doctorCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist doctor", flag.ContinueOnError)
	verbose := fs.Bool("v", false, "List every loaded task")
	if _, err := parseArgs(fs, args, "tasklist doctor [-v]", 0, 0); err != nil {
		return err
	}

	w := stdout
	fmt.Fprintln(w, "tasklist doctor")
	fmt.Fprintln(w, "===============")
	fmt.Fprintln(w)
	allOK := true

	fmt.Fprintln(w, "Config files:")
	if len(e.sources.Files) == 0 {
		fmt.Fprintln(w, "  (none, using defaults and environment)")
	}
	for _, f := range e.sources.Files {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Task file: %s\n", e.cfg.TasksFile)
	file, err := e.openFile()
	if err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		allOK = false
	} else {
		fmt.Fprintf(w, "  Format: %s\n", file.Format())
		allOK = checkTaskFile(e, file, *verbose) && allOK
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Alerts:")
	if e.cfg.AlertInterval() > 0 {
		fmt.Fprintf(w, "  ✅ Checked every %s while serving\n", e.cfg.AlertInterval())
	} else {
		fmt.Fprintln(w, "  ⚠️  Disabled while serving (alert_interval_seconds = 0)")
	}
	fmt.Fprintf(w, "  E-mail: %s\n", enabled(e.cfg.EmailEnabled()))
	fmt.Fprintf(w, "  Telegram: %s\n", enabled(e.cfg.TelegramEnabled()))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "API:")
	fmt.Fprintf(w, "  Listen: %s\n", e.cfg.ListenAddr)
	if e.cfg.APISecret == "" {
		fmt.Fprintln(w, "  ⚠️  No api_secret; requests are not authenticated")
	} else {
		fmt.Fprintln(w, "  ✅ Bearer tokens required")
	}
	fmt.Fprintln(w)

	if e.cfg.LogDir != "" {
		fmt.Fprintf(w, "Log directory: %s\n", e.cfg.LogDir)
		if info, err := os.Stat(e.cfg.LogDir); err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(w, "  ⚠️  Not found (will be created by serve or watch)")
			} else {
				fmt.Fprintf(w, "  ❌ Error: %v\n", err)
				allOK = false
			}
		} else if !info.IsDir() {
			fmt.Fprintln(w, "  ❌ Error: path is not a directory")
			allOK = false
		} else {
			fmt.Fprintln(w, "  ✅ OK")
		}
		fmt.Fprintln(w)
	}

	if allOK {
		fmt.Fprintln(w, "✅ All checks passed!")
		return nil
	}
	fmt.Fprintln(w, "⚠️  Some checks failed.")
	return errors.New("doctor checks failed")
}

func checkTaskFile(e *env, file *storage.File, verbose bool) bool {
	w := stdout
	info, err := os.Stat(file.Path())
	switch {
	case os.IsNotExist(err):
		fmt.Fprintln(w, "  ⚠️  Not found (created on the first change)")
		if _, err := os.Stat(filepath.Dir(file.Path())); err != nil {
			fmt.Fprintf(w, "  ❌ Parent directory: %v\n", err)
			return false
		}
		return true
	case err != nil:
		fmt.Fprintf(w, "  ❌ Error: %v\n", err)
		return false
	case info.IsDir():
		fmt.Fprintln(w, "  ❌ Error: path is a directory")
		return false
	}

	// Load with the skip policy so every corrupt record is reported, not
	// just the first.
	probe, err := storage.Open(storage.Options{
		Path:      file.Path(),
		Format:    e.cfg.Format,
		OnCorrupt: storage.Skip,
		Logger:    e.logger.WithPrefix("doctor"),
	})
	if err != nil {
		fmt.Fprintf(w, "  ❌ %v\n", err)
		return false
	}
	tasks, err := probe.Load()
	if err != nil {
		fmt.Fprintf(w, "  ❌ Load error: %v\n", err)
		return false
	}
	fmt.Fprintf(w, "  Tasks: %d\n", len(tasks))
	ok := true
	if skipped := probe.Skipped(); len(skipped) > 0 {
		fmt.Fprintf(w, "  ❌ %d corrupt records:\n", len(skipped))
		for _, err := range skipped {
			fmt.Fprintf(w, "     - %v\n", err)
		}
		ok = false
	} else {
		fmt.Fprintln(w, "  ✅ Valid")
	}

	overdue := 0
	now := clock()
	for _, t := range tasks {
		if !t.Due.After(now) && t.Recurrence.IsRecurring() {
			overdue++
		}
	}
	if overdue > 0 {
		fmt.Fprintf(w, "  ⚠️  %d overdue recurring tasks (run tasklist roll)\n", overdue)
	}
	if verbose {
		for _, t := range tasks {
			printTask(t, false)
		}
	}
	return ok
}

func enabled(on bool) string {
	if on {
		return "enabled"
	}
	return "not configured"
}
