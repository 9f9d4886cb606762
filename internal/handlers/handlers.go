package handlers

import (
	"errors"
	"net/http"

	"cinebook/internal/broadcast"
	apperrors "cinebook/internal/errors"
	"cinebook/internal/service"

	"github.com/gin-gonic/gin"
)

type Handlers struct {
	services    *service.Services
	broadcaster *broadcast.Broadcaster
}

func NewHandlers(services *service.Services, broadcaster *broadcast.Broadcaster) *Handlers {
	return &Handlers{
		services:    services,
		broadcaster: broadcaster,
	}
}

// respondError maps domain errors to HTTP statuses. Conflicts and
// policy rejections are routine outcomes, so they answer with the
// details a client needs to recover.
func respondError(c *gin.Context, err error) {
	if conflict, ok := apperrors.AsSeatConflict(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":             "seats not available",
			"conflicting_seats": conflict.SeatIDs,
		})
		return
	}

	if pf, ok := apperrors.AsPaymentFailed(err); ok {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "payment failed",
			"outcome": pf.Outcome,
			"reason":  pf.Reason,
		})
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrHoldExpired):
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrShowNotFound),
		errors.Is(err, apperrors.ErrSeatNotFound),
		errors.Is(err, apperrors.ErrHoldNotFound),
		errors.Is(err, apperrors.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrTooLateToCancel),
		errors.Is(err, apperrors.ErrPromoInvalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func actorFrom(c *gin.Context) string {
	return c.GetString("actor")
}
