package todo

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/recurrence"
	"github.com/nibzard/tasklist/internal/taskid"
)

// Persister mirrors the store's task list to durable storage.
// Flush receives the complete ordered list and must replace any prior
// contents. It must not retain the slice.
type Persister interface {
	Flush(tasks []Task) error
}

// Store is the ordered in-memory task list. See the package
// documentation for the ordering and concurrency contract.
type Store struct {
	tasks   []Task
	persist Persister
	now     func() time.Time
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for future-due checks and
// upcoming windows.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithLogger sets the logger for mutation and flush events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore builds a store over tasks, typically the result of a load.
// p may be nil for a purely in-memory store. tasks are copied; if they
// are not already ordered they are stable-sorted once here, which is the
// only full sort the store ever performs.
func NewStore(p Persister, tasks []Task, opts ...Option) *Store {
	s := &Store{
		tasks:   make([]Task, len(tasks)),
		persist: p,
		now:     time.Now,
		logger:  log.New(io.Discard),
	}
	for i := range tasks {
		s.tasks[i] = tasks[i].clone()
	}
	for _, opt := range opts {
		opt(s)
	}
	if !sort.SliceIsSorted(s.tasks, s.less) {
		sort.SliceStable(s.tasks, s.less)
	}
	return s
}

func (s *Store) less(i, j int) bool {
	return s.tasks[i].Due.Before(s.tasks[j].Due)
}

// Len returns the number of tasks.
func (s *Store) Len() int {
	return len(s.tasks)
}

// lowerBound returns the first index whose due time is not before t.
func (s *Store) lowerBound(t time.Time) int {
	return sort.Search(len(s.tasks), func(i int) bool {
		return !s.tasks[i].Due.Before(t)
	})
}

// upperBound returns the first index whose due time is after t.
func (s *Store) upperBound(t time.Time) int {
	return sort.Search(len(s.tasks), func(i int) bool {
		return s.tasks[i].Due.After(t)
	})
}

// indexOf locates id by the due time embedded in it, then scans the run
// of tasks tied at that due time. Returns -1 when absent.
func (s *Store) indexOf(id string) int {
	due, err := taskid.Timestamp(id)
	if err != nil {
		return -1
	}
	for i := s.lowerBound(due); i < len(s.tasks) && s.tasks[i].Due.Equal(due); i++ {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// insert places t after every task due at or before t.Due.
func (s *Store) insert(t Task) int {
	i := s.upperBound(t.Due)
	s.tasks = slices.Insert(s.tasks, i, t)
	return i
}

func (s *Store) removeAt(i int) Task {
	t := s.tasks[i]
	s.tasks = slices.Delete(s.tasks, i, i+1)
	return t
}

func (s *Store) flush(op string) error {
	if s.persist == nil {
		return nil
	}
	if err := s.persist.Flush(s.tasks); err != nil {
		s.logger.Error("flush failed", "op", op, "tasks", len(s.tasks), "err", err)
		return &PersistenceError{Op: op, Err: err}
	}
	return nil
}

// Create validates in, assigns an id and inserts the task in order.
func (s *Store) Create(in NewTask) (Task, error) {
	t, err := in.build(s.now())
	if err != nil {
		return Task{}, err
	}
	i := s.insert(t)
	s.logger.Debug("task created", "id", t.ID, "due", t.Due, "index", i)
	return t.clone(), s.flush("create")
}

// CreateMany creates every input with a single flush. All inputs are
// validated before any is inserted.
func (s *Store) CreateMany(inputs []NewTask) ([]Task, error) {
	now := s.now()
	built := make([]Task, 0, len(inputs))
	for i, in := range inputs {
		t, err := in.build(now)
		if err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				return nil, &ValidationError{Field: fmt.Sprintf("tasks[%d].%s", i, ve.Field), Err: ve.Err}
			}
			return nil, err
		}
		built = append(built, t)
	}
	if len(built) == 0 {
		return []Task{}, nil
	}
	out := make([]Task, len(built))
	for i, t := range built {
		s.insert(t)
		out[i] = t.clone()
	}
	s.logger.Debug("tasks created", "count", len(built))
	return out, s.flush("create")
}

// Get returns the task with the given id.
func (s *Store) Get(id string) (Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	return s.tasks[i].clone(), nil
}

// Update applies p to the task with the given id. If the due time moves
// the task is repositioned under a new id. An empty patch returns the
// task unchanged without flushing.
func (s *Store) Update(id string, p Patch) (Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	if p.IsEmpty() {
		return s.tasks[i].clone(), nil
	}
	updated, err := p.apply(s.tasks[i])
	if err != nil {
		return Task{}, err
	}
	s.replace(i, updated)
	s.logger.Debug("task updated", "id", id, "new_id", updated.ID, "due", updated.Due)
	return updated.clone(), s.flush("update")
}

// replace swaps the task at i for t, moving it if its due time changed.
func (s *Store) replace(i int, t Task) {
	if t.Due.Equal(s.tasks[i].Due) {
		s.tasks[i] = t
		return
	}
	s.removeAt(i)
	s.insert(t)
}

// Delete removes the task with the given id and reports whether it existed.
func (s *Store) Delete(id string) (bool, error) {
	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.removeAt(i)
	s.logger.Debug("task deleted", "id", id)
	return true, s.flush("delete")
}

// DeleteAll removes every task and returns how many there were.
func (s *Store) DeleteAll() (int, error) {
	n := len(s.tasks)
	s.tasks = s.tasks[:0]
	s.logger.Debug("tasks cleared", "count", n)
	return n, s.flush("delete all")
}

// All returns every task in due order.
func (s *Store) All() []Task {
	return s.cloneRange(0, len(s.tasks))
}

// Range returns the tasks with start <= due <= end, in due order. Only
// the matching sub-slice is visited. An inverted window yields nothing.
func (s *Store) Range(start, end time.Time) []Task {
	if end.Before(start) {
		return []Task{}
	}
	return s.cloneRange(s.lowerBound(start), s.upperBound(end))
}

// Upcoming returns the tasks due between now and now plus days.
func (s *Store) Upcoming(days int) []Task {
	w := UpcomingWindow(s.now(), days)
	return s.Range(w.Start, w.End)
}

func (s *Store) cloneRange(lo, hi int) []Task {
	out := make([]Task, 0, hi-lo)
	for _, t := range s.tasks[lo:hi] {
		out = append(out, t.clone())
	}
	return out
}

// Advance moves a recurring task to its next occurrence, issuing a new id
// and repositioning it.
func (s *Store) Advance(id string) (Task, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Task{}, &NotFoundError{ID: id}
	}
	t := s.tasks[i].clone()
	next, err := recurrence.Advance(t.Due, t.Recurrence)
	if err != nil {
		return Task{}, &InvalidRecurrenceError{ID: id, Err: err}
	}
	t.Due = normalizeDue(next)
	t.ID = taskid.New(t.Due)
	s.replace(i, t)
	s.logger.Debug("task advanced", "id", id, "new_id", t.ID, "due", t.Due)
	return t.clone(), s.flush("advance")
}

// RollForward advances every recurring task that is due at or before now
// to its first occurrence after now. One-off tasks are left in place.
// It returns the advanced tasks in their new order and flushes once.
func (s *Store) RollForward() ([]Task, error) {
	now := s.now()
	cut := s.upperBound(now)

	kept := make([]Task, 0, len(s.tasks))
	var moved []Task
	for _, t := range s.tasks[:cut] {
		if !t.Recurrence.IsRecurring() {
			kept = append(kept, t)
			continue
		}
		next, err := recurrence.Next(t.Due, now, t.Recurrence)
		if err != nil {
			return nil, &InvalidRecurrenceError{ID: t.ID, Err: err}
		}
		t = t.clone()
		t.Due = normalizeDue(next)
		t.ID = taskid.New(t.Due)
		moved = append(moved, t)
	}
	if len(moved) == 0 {
		return nil, nil
	}

	s.tasks = append(kept, s.tasks[cut:]...)
	for _, t := range moved {
		s.insert(t)
	}
	sort.SliceStable(moved, func(i, j int) bool { return moved[i].Due.Before(moved[j].Due) })
	s.logger.Debug("recurring tasks rolled forward", "count", len(moved))
	return moved, s.flush("roll forward")
}
