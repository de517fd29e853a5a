// Package cmd implements the tasklist command line.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/config"
	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Output streams, swapped in tests.
var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// env is what every subcommand receives.
type env struct {
	cfg     *config.Config
	sources *config.ConfigWithSources
	logger  *log.Logger
}

// Run executes the tasklist CLI.
func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tasklist", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		printUsage(fs, stderr)
	}
	help := fs.Bool("help", false, "Show help")
	fs.BoolVar(help, "h", false, "Show help")
	showVersion := fs.Bool("version", false, "Show version")
	fs.BoolVar(showVersion, "v", false, "Show version")

	cws, err := config.LoadWithSources(fs, args)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *help {
		printUsage(fs, stdout)
		return nil
	}
	if *showVersion {
		return versionCommand()
	}

	e := &env{
		cfg:     cws.Config,
		sources: cws,
		logger:  newLogger(cws.Config, stderr),
	}

	remaining := fs.Args()
	if len(remaining) == 0 {
		printUsage(fs, stderr)
		return fmt.Errorf("no command given")
	}
	subcommand, rest := remaining[0], remaining[1:]

	switch subcommand {
	case "add":
		return addCommand(e, rest)
	case "get":
		return getCommand(e, rest)
	case "update":
		return updateCommand(e, rest)
	case "rm", "delete":
		return rmCommand(e, rest)
	case "ls", "list":
		return lsCommand(e, rest)
	case "window":
		return windowCommand(e, rest)
	case "upcoming":
		return upcomingCommand(e, rest)
	case "clear":
		return clearCommand(e, rest)
	case "advance":
		return advanceCommand(e, rest)
	case "roll":
		return rollCommand(e, rest)
	case "now":
		return nowCommand(rest)
	case "serve":
		return serveCommand(ctx, e, rest)
	case "watch":
		return watchCommand(ctx, e, rest)
	case "tui":
		return tuiCommand(ctx, e, rest)
	case "export":
		return exportCommand(e, rest)
	case "token":
		return tokenCommand(e, rest)
	case "logs", "tail":
		return logsCommand(ctx, e, rest)
	case "config":
		return configCommand(e, rest)
	case "doctor":
		return doctorCommand(e, rest)
	case "version", "--version", "-v":
		return versionCommand()
	case "help", "--help", "-h":
		printUsage(fs, stdout)
		return nil
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", subcommand)
		printUsage(fs, stderr)
		return fmt.Errorf("unknown command: %s", subcommand)
	}
}

func newLogger(cfg *config.Config, w io.Writer) *log.Logger {
	opts := logging.DefaultOptions()
	opts.Level = logging.ParseLevel(cfg.LogLevel)
	opts.Formatter = logging.ParseFormatter(cfg.LogFormat)
	opts.ReportTimestamp = cfg.LogTimestamps
	opts.ReportCaller = cfg.LogCaller
	return logging.New(w, opts)
}

// openFile prepares the configured task file.
func (e *env) openFile() (*storage.File, error) {
	policy, err := storage.ParseCorruptPolicy(e.cfg.OnCorrupt)
	if err != nil {
		return nil, err
	}
	return storage.Open(storage.Options{
		Path:      e.cfg.TasksFile,
		Format:    e.cfg.Format,
		OnCorrupt: policy,
		Logger:    e.logger,
	})
}

// openStore loads the task file into a store that flushes back to it.
func (e *env) openStore() (*todo.Store, error) {
	file, err := e.openFile()
	if err != nil {
		return nil, err
	}
	tasks, err := file.Load()
	if err != nil {
		return nil, err
	}
	return todo.NewStore(file, tasks, todo.WithLogger(e.logger), todo.WithClock(clock)), nil
}

// versionCommand prints version information.
func versionCommand() error {
	fmt.Fprintf(stdout, "tasklist version %s\n", Version)
	return nil
}

// printUsage prints the usage message.
func printUsage(fs *flag.FlagSet, w io.Writer) {
	fmt.Fprintln(w, "tasklist - tasks ordered by due time, with recurrence and alerts")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  tasklist [global options] <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Task commands:")
	fmt.Fprintln(w, "  add <summary>          Create a task (-due and -details are required)")
	fmt.Fprintln(w, "  get <id>               Show one task")
	fmt.Fprintln(w, "  update <id>            Change fields of a task")
	fmt.Fprintln(w, "  rm <id>                Delete a task")
	fmt.Fprintln(w, "  ls                     List every task in due order")
	fmt.Fprintln(w, "  window <start> <end>   List tasks due in a time range")
	fmt.Fprintln(w, "  upcoming               List tasks due in the next days")
	fmt.Fprintln(w, "  clear -yes             Delete every task")
	fmt.Fprintln(w, "  advance <id>           Move a recurring task to its next occurrence")
	fmt.Fprintln(w, "  roll                   Advance every overdue recurring task past now")
	fmt.Fprintln(w, "  now                    Print the current time")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Other commands:")
	fmt.Fprintln(w, "  serve                  Serve the HTTP API")
	fmt.Fprintln(w, "  watch                  Send alerts without serving")
	fmt.Fprintln(w, "  tui                    Browse upcoming tasks in the terminal")
	fmt.Fprintln(w, "  export                 Write upcoming tasks to a PDF agenda")
	fmt.Fprintln(w, "  token                  Mint an API bearer token")
	fmt.Fprintln(w, "  logs                   Show the latest serve/watch log")
	fmt.Fprintln(w, "  config [example]       Show effective configuration or an example file")
	fmt.Fprintln(w, "  doctor                 Check configuration and the task file")
	fmt.Fprintln(w, "  version                Show version information")
	fmt.Fprintln(w, "  help                   Show this help message")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Times are RFC 3339 (2026-01-02T09:00:00+01:00), local ISO 8601")
	fmt.Fprintln(w, "(2026-01-02T09:00), or relative to now (+90m, +2h).")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Global Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// parseArgs parses args and checks the positional count.
func parseArgs(fs *flag.FlagSet, args []string, usage string, min, max int) ([]string, error) {
	fs.SetOutput(stderr)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	rest := fs.Args()
	if len(rest) < min {
		return nil, fmt.Errorf("usage: %s", usage)
	}
	if max >= 0 && len(rest) > max {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest[max:], " "))
	}
	return rest, nil
}
