package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

var errMissingParam = errors.New("query parameter is required")

// statusFor maps store errors onto HTTP status codes.
func statusFor(err error) int {
	var (
		ve *todo.ValidationError
		ie *todo.InvalidRecurrenceError
	)
	switch {
	case errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.Is(err, todo.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ie):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes err as a JSON error body.
func abortWithError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var ve *todo.ValidationError
	if errors.As(err, &ve) && ve.Field != "" {
		body["field"] = ve.Field
	}
	c.AbortWithStatusJSON(statusFor(err), body)
}

// respond writes result, or the error when err is set. A persistence
// error still carries the applied result, flagged as not durable.
func respond(c *gin.Context, status int, key string, result any, err error) {
	if err == nil {
		c.JSON(status, gin.H{key: result})
		return
	}
	if todo.IsPersistence(err) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   err.Error(),
			"durable": false,
			key:       result,
		})
		return
	}
	abortWithError(c, err)
}

func records(tasks []todo.Task) []storage.Record {
	return storage.FromTasks(tasks)
}
