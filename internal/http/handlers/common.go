package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aw226929-cmd/iturnin-backend/internal/http/middleware"
)

// RespondError sends the standard error payload with request_id included.
// err is logged by the access logger but never sent to the caller.
func RespondError(c *gin.Context, status int, message string, err error) {
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"error":      message,
		"request_id": middleware.GetRequestID(c),
	})
}

// BindJSONOrError ensures body is present and parsable.
func BindJSONOrError[T any](c *gin.Context, dst *T) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		RespondError(c, http.StatusBadRequest, "request body is empty", nil)
		return false
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid JSON payload", err)
		return false
	}
	return true
}
