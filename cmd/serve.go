package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nibzard/tasklist/internal/logging"
	"github.com/nibzard/tasklist/internal/notify"
	"github.com/nibzard/tasklist/internal/server"
	"github.com/nibzard/tasklist/internal/todo"
)

const defaultWatchInterval = time.Minute

// withRunLog points the logger at stderr and, when log_dir is set, at a
// fresh per-run file as well. The returned func closes the file.
func (e *env) withRunLog(command string) (func(), error) {
	if e.cfg.LogDir == "" {
		return func() {}, nil
	}
	runLog, err := logging.NewRunLogger(e.cfg.LogDir, command)
	if err != nil {
		return nil, err
	}
	e.logger = newLogger(e.cfg, io.MultiWriter(stderr, runLog.Writer()))
	e.logger.Info("logging to file", "path", runLog.LogPath)
	return func() { _ = runLog.Close() }, nil
}

// buildSinks returns the log sink plus every configured delivery sink.
func buildSinks(e *env) ([]notify.Sink, error) {
	sinks := []notify.Sink{notify.LogSink{Logger: e.logger}}
	if e.cfg.EmailEnabled() {
		sink, err := notify.NewEmailSink(notify.EmailConfig{
			Host:     e.cfg.SMTPHost,
			Port:     e.cfg.SMTPPort,
			User:     e.cfg.SMTPUser,
			Password: e.cfg.SMTPPassword,
			From:     e.cfg.AlertEmailFrom,
			To:       notify.ParseRecipients(e.cfg.AlertEmailTo),
		})
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if e.cfg.TelegramEnabled() {
		sink, err := notify.NewTelegramSink(e.cfg.TelegramToken, e.cfg.TelegramChatID, "", nil)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	return sinks, nil
}

func sinkNames(sinks []notify.Sink) []string {
	names := make([]string, len(sinks))
	for i, s := range sinks {
		names[i] = s.Name()
	}
	return names
}

func serveCommand(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist serve", flag.ContinueOnError)
	rollEvery := fs.Duration("roll", e.cfg.RollInterval(), "Roll recurring tasks forward on this period (0 disables)")
	alertEvery := fs.Duration("alerts", e.cfg.AlertInterval(), "Check for alerts on this period (0 disables)")
	if _, err := parseArgs(fs, args, "tasklist serve [-roll D] [-alerts D]", 0, 0); err != nil {
		return err
	}

	closeLog, err := e.withRunLog("serve")
	if err != nil {
		return err
	}
	defer closeLog()

	store, err := e.openStore()
	if err != nil {
		return err
	}
	if e.cfg.APISecret == "" {
		e.logger.Warn("api_secret is not set; the API accepts unauthenticated requests")
	}
	srv, dispatcher, err := newServeStack(e, store, *alertEvery > 0)
	if err != nil {
		return err
	}
	if dispatcher != nil {
		e.logger.Info("alerts enabled", "interval", *alertEvery)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, e.cfg.ListenAddr, *rollEvery)
	})
	if dispatcher != nil {
		g.Go(func() error {
			return dispatcher.Run(gctx, *alertEvery)
		})
	}
	return g.Wait()
}

// newServeStack builds the API server and, when alerts are on, a
// dispatcher reading from it. Occurrences consumed by a roll forward are
// handed to the dispatcher so their alerts are not lost.
func newServeStack(e *env, store *todo.Store, alerts bool) (*server.Server, *notify.Dispatcher, error) {
	opts := server.Options{
		Secret:       e.cfg.APISecret,
		UpcomingDays: e.cfg.UpcomingDays,
		Logger:       e.logger,
		Now:          clock,
	}
	if !alerts {
		return server.New(store, opts), nil, nil
	}
	sinks, err := buildSinks(e)
	if err != nil {
		return nil, nil, err
	}
	var srv *server.Server
	source := func(ctx context.Context, after time.Time) ([]todo.Task, error) {
		return srv.TasksAfter(ctx, after)
	}
	dispatcher := notify.NewDispatcher(source, sinks, notify.WithLogger(e.logger), notify.WithClock(clock))
	opts.OnRoll = dispatcher.Consumed
	srv = server.New(store, opts)
	e.logger.Debug("alert sinks", "sinks", sinkNames(sinks))
	return srv, dispatcher, nil
}

// fileSource reloads the task file on every tick so edits made by other
// processes are picked up.
func fileSource(e *env) (notify.Source, error) {
	file, err := e.openFile()
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, after time.Time) ([]todo.Task, error) {
		tasks, err := file.Load()
		if err != nil {
			return nil, err
		}
		store := todo.NewStore(nil, tasks)
		return store.Range(after, maxTime), nil
	}, nil
}

var maxTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

func watchCommand(ctx context.Context, e *env, args []string) error {
	interval := e.cfg.AlertInterval()
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	fs := flag.NewFlagSet("tasklist watch", flag.ContinueOnError)
	every := fs.Duration("interval", interval, "How often to check for alerts")
	once := fs.Bool("once", false, "Send alerts due since -since and exit")
	since := fs.Duration("since", time.Hour, "Look-back used with -once")
	if _, err := parseArgs(fs, args, "tasklist watch [-interval D] [-once [-since D]]", 0, 0); err != nil {
		return err
	}

	closeLog, err := e.withRunLog("watch")
	if err != nil {
		return err
	}
	defer closeLog()

	source, err := fileSource(e)
	if err != nil {
		return err
	}
	sinks, err := buildSinks(e)
	if err != nil {
		return err
	}
	d := notify.NewDispatcher(source, sinks, notify.WithLogger(e.logger), notify.WithClock(clock))

	if *once {
		now := clock()
		if _, err := d.Tick(ctx, now.Add(-*since)); err != nil {
			return err
		}
		n, err := d.Tick(ctx, now)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Sent %d alerts\n", n)
		return nil
	}

	e.logger.Info("watching for alerts", "file", e.cfg.TasksFile, "interval", *every, "sinks", sinkNames(sinks))
	return d.Run(ctx, *every)
}

func tokenCommand(e *env, args []string) error {
	fs := flag.NewFlagSet("tasklist token", flag.ContinueOnError)
	ttl := fs.Duration("ttl", 24*time.Hour, "Token lifetime")
	subject := fs.String("subject", "tasklist", "Token subject")
	if _, err := parseArgs(fs, args, "tasklist token [-ttl D] [-subject NAME]", 0, 0); err != nil {
		return err
	}
	if e.cfg.APISecret == "" {
		return errors.New("api_secret is not configured (set it in tasklist.toml or TASKLIST_API_SECRET)")
	}
	token, err := server.MintToken(e.cfg.APISecret, *subject, *ttl, clock())
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}
