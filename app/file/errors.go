// Package file contains the handlers of the /api/v1/files endpoints
package file

import (
	"bitwise74/file-catalog/internal/service"
	"bitwise74/file-catalog/pkg/apperr"
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError answers with the status matching the kind of err. Server
// side failures are logged and hidden behind a generic message.
func respondError(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	status := http.StatusInternalServerError
	msg := "Internal server error"

	switch {
	case errors.Is(err, service.ErrQueueFull):
		status = http.StatusServiceUnavailable
		msg = "Server is busy, try again later"
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusRequestTimeout
		msg = "Request timed out"
	case errors.Is(err, context.Canceled):
		// Client went away, nobody reads the answer
		status = 499
		msg = "Request canceled"
	default:
		switch apperr.KindOf(err) {
		case apperr.KindValidation:
			status = http.StatusBadRequest
			msg = apperr.Message(err)
		case apperr.KindForbidden:
			status = http.StatusForbidden
			msg = apperr.Message(err)
		case apperr.KindNotFound:
			status = http.StatusNotFound
			msg = apperr.Message(err)
		case apperr.KindConflict:
			status = http.StatusConflict
			msg = apperr.Message(err)
		}
	}

	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("requestID", requestID),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": c.GetString("requestID"),
	})
}
