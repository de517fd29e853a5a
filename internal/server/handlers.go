package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

func (s *Server) health(c *gin.Context) {
	var n int
	_ = s.WithStore(func(st *todo.Store) error {
		n = st.Len()
		return nil
	})
	c.JSON(http.StatusOK, gin.H{"status": "ok", "tasks": n})
}

func (s *Server) currentTime(c *gin.Context) {
	now := s.now()
	c.JSON(http.StatusOK, gin.H{"now": now.Format(todo.TimeLayout), "unix": now.Unix()})
}

func (s *Server) createTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, &todo.ValidationError{Field: "body", Err: err})
		return
	}
	in, err := req.newTask()
	if err != nil {
		abortWithError(c, err)
		return
	}

	var task todo.Task
	err = s.WithStore(func(st *todo.Store) error {
		var err error
		task, err = st.Create(in)
		return err
	})
	if task.IsZero() && err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "task", storage.FromTask(task), err)
}

func (s *Server) createTasks(c *gin.Context) {
	var reqs []taskRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		abortWithError(c, &todo.ValidationError{Field: "body", Err: err})
		return
	}
	inputs := make([]todo.NewTask, len(reqs))
	for i, req := range reqs {
		in, err := req.newTask()
		if err != nil {
			var ve *todo.ValidationError
			if errors.As(err, &ve) {
				err = &todo.ValidationError{Field: "tasks[" + strconv.Itoa(i) + "]." + ve.Field, Err: ve.Err}
			}
			abortWithError(c, err)
			return
		}
		inputs[i] = in
	}

	var created []todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		created, err = st.CreateMany(inputs)
		return err
	})
	if created == nil && err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusCreated, "tasks", records(created), err)
}

func (s *Server) listTasks(c *gin.Context) {
	var tasks []todo.Task
	_ = s.WithStore(func(st *todo.Store) error {
		tasks = st.All()
		return nil
	})
	c.JSON(http.StatusOK, gin.H{"tasks": records(tasks)})
}

func (s *Server) getTask(c *gin.Context) {
	var task todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		task, err = st.Get(c.Param("id"))
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": storage.FromTask(task)})
}

func (s *Server) updateTask(c *gin.Context) {
	var req patchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, &todo.ValidationError{Field: "body", Err: err})
		return
	}

	id := c.Param("id")
	var task todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		current, err := st.Get(id)
		if err != nil {
			return err
		}
		p, err := req.patch(current)
		if err != nil {
			return err
		}
		task, err = st.Update(id, p)
		return err
	})
	if task.IsZero() && err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "task", storage.FromTask(task), err)
}

func (s *Server) deleteTask(c *gin.Context) {
	var deleted bool
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		deleted, err = st.Delete(c.Param("id"))
		return err
	})
	respond(c, http.StatusOK, "deleted", deleted, err)
}

func (s *Server) deleteAllTasks(c *gin.Context) {
	var n int
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		n, err = st.DeleteAll()
		return err
	})
	respond(c, http.StatusOK, "deleted", n, err)
}

func (s *Server) tasksInWindow(c *gin.Context) {
	var w todo.Window
	for _, q := range []struct {
		name string
		dst  *time.Time
	}{{"start", &w.Start}, {"end", &w.End}} {
		raw := c.Query(q.name)
		if raw == "" {
			abortWithError(c, &todo.ValidationError{Field: q.name, Err: errMissingParam})
			return
		}
		t, err := todo.ParseTime(raw, time.Local)
		if err != nil {
			abortWithError(c, &todo.ValidationError{Field: q.name, Err: err})
			return
		}
		*q.dst = t
	}

	var tasks []todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		tasks, err = st.InWindow(w)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": records(tasks)})
}

func (s *Server) upcomingTasks(c *gin.Context) {
	days := s.opts.UpcomingDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			abortWithError(c, &todo.ValidationError{Field: "days", Err: err})
			return
		}
		days = n
	}

	var tasks []todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		tasks, err = st.UpcomingDays(days)
		return err
	})
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days, "tasks": records(tasks)})
}

func (s *Server) advanceTask(c *gin.Context) {
	var task todo.Task
	err := s.WithStore(func(st *todo.Store) error {
		var err error
		task, err = st.Advance(c.Param("id"))
		return err
	})
	if task.IsZero() && err != nil {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "task", storage.FromTask(task), err)
}

func (s *Server) rollForward(c *gin.Context) {
	moved, err := s.Roll()
	if err != nil && !todo.IsPersistence(err) {
		abortWithError(c, err)
		return
	}
	respond(c, http.StatusOK, "advanced", records(moved), err)
}
