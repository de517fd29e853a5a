package notify

import (
	"context"

	"github.com/charmbracelet/log"
)

// LogSink writes each alert to a logger at info level.
type LogSink struct {
	Logger *log.Logger
}

func (LogSink) Name() string { return "log" }

func (s LogSink) Send(_ context.Context, alerts []Alert) error {
	for _, a := range alerts {
		s.Logger.Info("task alert",
			"id", a.Task.ID,
			"summary", a.Task.Summary,
			"due", a.Task.Due,
			"offset", a.Offset,
		)
	}
	return nil
}
