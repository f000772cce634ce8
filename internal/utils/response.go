package utils

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"speechproxy/internal/backend"
)

// BadRequest writes the validation short-circuit envelope. Input validation
// is the only place handlers format their own error body.
func BadRequest(c *gin.Context, detail string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  "Bad Request",
		"detail": detail,
	})
}

// NotFound writes the missing-resource envelope.
func NotFound(c *gin.Context, detail string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":  "Request error",
		"detail": detail,
	})
}

// WriteError normalizes any failure into the client-visible envelope. The
// underlying cause goes to the log; clients only ever see the envelope.
func WriteError(c *gin.Context, log *slog.Logger, err error) {
	status, body := Normalize(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "path", c.FullPath(), "status", status, "error", err)
	} else {
		log.Warn("request rejected", "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, body)
}

// Normalize maps a failure to a status and response body. Backend errors
// keep their status and message, and any structured fields from the backend
// error body are merged at the top level rather than nested. Everything
// else is an internal error with a generic client-visible message.
func Normalize(err error) (int, gin.H) {
	var be *backend.Error
	if errors.As(err, &be) {
		body := gin.H{}
		for k, v := range be.Payload {
			body[k] = v
		}
		body["error"] = statusLabel(be.Status)
		body["detail"] = be.Message
		return be.Status, body
	}

	return http.StatusInternalServerError, gin.H{
		"error":  "Internal server error",
		"detail": "An unexpected error occurred",
	}
}

func statusLabel(status int) string {
	if status >= http.StatusInternalServerError {
		return "Internal server error"
	}
	return "Request error"
}
