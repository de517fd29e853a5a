// Package server exposes the task store over HTTP.
//
// All store access goes through one mutex: the store itself is not safe
// for concurrent use, and every handler, the roll-forward ticker and the
// alert source share the same instance.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/nibzard/tasklist/internal/todo"

	_ "github.com/nibzard/tasklist/internal/server/docs"
)

const shutdownTimeout = 5 * time.Second

var endOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// Options configure a Server.
type Options struct {
	// Secret enables bearer-token auth when non-empty.
	Secret string
	// UpcomingDays is the default window of GET /tasks/upcoming.
	UpcomingDays int
	Logger       *log.Logger
	// Now overrides the clock used for token checks and /time.
	Now func() time.Time
	// OnRoll receives the occurrences a roll forward replaced, after the
	// store lock is released.
	OnRoll func(consumed []todo.Task)
}

// Server serves the task API.
type Server struct {
	mu     sync.Mutex
	store  *todo.Store
	opts   Options
	logger *log.Logger
	now    func() time.Time
	engine *gin.Engine
}

// New builds a server over store and registers its routes.
func New(store *todo.Store, opts Options) *Server {
	s := &Server{
		store:  store,
		opts:   opts,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.opts.UpcomingDays <= 0 {
		s.opts.UpcomingDays = todo.DefaultUpcomingDays
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	if opts.Secret != "" {
		router.Use(authMiddleware([]byte(opts.Secret), s.now))
	}

	router.GET("/healthz", s.health)
	router.GET("/time", s.currentTime)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	tasks := router.Group("/tasks")
	{
		tasks.POST("", s.createTask)
		tasks.POST("/batch", s.createTasks)
		tasks.GET("", s.listTasks)
		tasks.DELETE("", s.deleteAllTasks)
		tasks.GET("/window", s.tasksInWindow)
		tasks.GET("/upcoming", s.upcomingTasks)
		tasks.POST("/roll", s.rollForward)
		tasks.GET("/:id", s.getTask)
		tasks.PATCH("/:id", s.updateTask)
		tasks.DELETE("/:id", s.deleteTask)
		tasks.POST("/:id/advance", s.advanceTask)
	}

	s.engine = router
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// WithStore runs fn while holding the store lock.
func (s *Server) WithStore(fn func(*todo.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// Roll advances overdue recurring tasks and reports the replaced
// occurrences to OnRoll.
func (s *Server) Roll() ([]todo.Task, error) {
	var moved, consumed []todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		before := st.All()
		var err error
		moved, err = st.RollForward()
		if len(moved) == 0 {
			return err
		}
		for _, t := range before {
			if !t.Recurrence.IsRecurring() {
				continue
			}
			if _, gone := st.Get(t.ID); gone != nil {
				consumed = append(consumed, t)
			}
		}
		return err
	})
	if len(consumed) > 0 && s.opts.OnRoll != nil {
		s.opts.OnRoll(consumed)
	}
	return moved, err
}

// TasksAfter returns every task due at or after t. It is the alert
// source used while serving.
func (s *Server) TasksAfter(_ context.Context, t time.Time) ([]todo.Task, error) {
	var out []todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		out = st.Range(t, endOfTime)
		return nil
	})
	return out, err
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
// A positive rollInterval also rolls recurring tasks forward on that
// period.
func (s *Server) Run(ctx context.Context, addr string, rollInterval time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if rollInterval > 0 {
		go s.rollLoop(ctx, rollInterval)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func (s *Server) rollLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			moved, err := s.Roll()
			if err != nil {
				s.logger.Error("roll forward failed", "err", err)
				continue
			}
			if len(moved) > 0 {
				s.logger.Info("rolled recurring tasks forward", "count", len(moved))
			}
		}
	}
}
