package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"appointment-service/internal/middleware"
	"appointment-service/internal/notification"
	"appointment-service/internal/scheduling"
	"appointment-service/internal/utils"
)

// respondError maps service errors onto envelope responses.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var conflict *scheduling.ConflictError
	switch {
	case errors.As(err, &conflict):
		utils.Conflict(c, conflict.Message)
	case errors.Is(err, scheduling.ErrConflict):
		utils.Conflict(c, err.Error())
	case errors.Is(err, scheduling.ErrInvalidTimeFormat),
		errors.Is(err, scheduling.ErrInvalidTransition),
		errors.Is(err, scheduling.ErrInvalidStatus):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		utils.NotFound(c, "Appointment not found")
	case errors.Is(err, notification.ErrNotFound):
		utils.NotFound(c, err.Error())
	default:
		if log != nil {
			log.Error("request failed",
				zap.String("request_id", middleware.GetRequestID(c)),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
		_ = c.Error(err)
		utils.InternalServerError(c, "Internal server error")
	}
}
