package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Leganyst/appointment-availability/internal/availability"
	"github.com/Leganyst/appointment-availability/internal/booking"
	"github.com/Leganyst/appointment-availability/internal/calendar"
)

// fail пишет ответ об ошибке. Порядок важен: ErrScheduleMisconfigured
// оборачивает ConfigError, но клиенту детали не отдаются.
func (h *Handler) fail(c *gin.Context, err error) {
	var cfgErr *availability.ConfigError

	switch {
	case errors.Is(err, calendar.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, calendar.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrScheduleMisconfigured):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "schedule is temporarily unavailable"})
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid schedule", "field": cfgErr.Field, "reason": cfgErr.Reason})
	case errors.Is(err, booking.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrAlreadyCancelled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.logger.Error("http.internal_error",
			zap.String("request_id", c.GetString(ctxRequestID)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

// rejectionStatus: занятый слот даёт 409, остальные причины 422.
func rejectionStatus(r availability.Reason) int {
	if r == availability.ReasonDoubleBooked {
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}
