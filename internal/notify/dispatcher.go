package notify

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/parallel"
	"github.com/nibzard/tasklist/internal/todo"
)

// Source returns tasks that may carry alerts after the given instant.
// An alert never fires after its task's due time, so tasks due after
// after are sufficient.
type Source func(ctx context.Context, after time.Time) ([]todo.Task, error)

// Sink delivers a batch of alerts.
type Sink interface {
	Name() string
	Send(ctx context.Context, alerts []Alert) error
}

// Dispatcher sends alerts as their instants pass.
type Dispatcher struct {
	source Source
	sinks  []Sink
	logger *log.Logger
	now    func() time.Time

	mu      sync.Mutex
	last    time.Time
	started bool

	// pending holds occurrences removed from the source by a roll forward
	// whose alerts may not have been sent yet.
	pendingMu sync.Mutex
	pending   []todo.Task
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger for dispatch and sink errors.
func WithLogger(logger *log.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock overrides the time source used by Run.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// NewDispatcher builds a dispatcher over source delivering to sinks.
func NewDispatcher(source Source, sinks []Sink, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		source: source,
		sinks:  sinks,
		logger: log.New(io.Discard),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Tick sends every alert in (last tick, now] and returns how many there
// were. The first call only records now. When the source fails the window
// is kept so the next tick covers it.
func (d *Dispatcher) Tick(ctx context.Context, now time.Time) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started {
		d.started = true
		d.last = now
		return 0, nil
	}
	if !now.After(d.last) {
		return 0, nil
	}

	// Take pending before reading the source so an occurrence rolled in
	// between is seen exactly once.
	held := d.takePending()
	tasks, err := d.source(ctx, d.last)
	if err != nil {
		d.Consumed(held)
		return 0, fmt.Errorf("loading tasks for alerts: %w", err)
	}
	alerts := Due(append(held, tasks...), d.last, now)
	d.last = now
	var later []todo.Task
	for _, t := range held {
		if t.Due.After(now) {
			later = append(later, t)
		}
	}
	d.Consumed(later)
	if len(alerts) == 0 {
		return 0, nil
	}

	pool := parallel.NewPool(ctx, len(d.sinks), false)
	for _, sink := range d.sinks {
		pool.Submit(sink.Name(), func(ctx context.Context) error {
			return sink.Send(ctx, alerts)
		})
	}
	results, _ := pool.Wait()
	for _, r := range results {
		if r.Err != nil {
			d.logger.Error("alert delivery failed", "sink", r.Name, "alerts", len(alerts), "err", r.Err)
			continue
		}
		d.logger.Debug("alerts delivered", "sink", r.Name, "alerts", len(alerts), "took", r.Duration)
	}
	return len(alerts), nil
}

// Consumed hands over occurrences that a roll forward replaced. Their
// alerts still fire on the next tick that covers them.
func (d *Dispatcher) Consumed(tasks []todo.Task) {
	if len(tasks) == 0 {
		return
	}
	d.pendingMu.Lock()
	d.pending = append(d.pending, tasks...)
	d.pendingMu.Unlock()
}

func (d *Dispatcher) takePending() []todo.Task {
	d.pendingMu.Lock()
	defer d.pendingMu.Unlock()
	held := d.pending
	d.pending = nil
	return held
}

// Run ticks immediately and then every interval until ctx is done.
func (d *Dispatcher) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("alert interval must be positive, got %s", interval)
	}
	if _, err := d.Tick(ctx, d.now()); err != nil {
		d.logger.Error("alert tick failed", "err", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := d.Tick(ctx, d.now()); err != nil {
				d.logger.Error("alert tick failed", "err", err)
			}
		}
	}
}
