package handlers

import (
	"net/http"
	"strconv"

	"cinebook/internal/logger"
	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// Show handlers

// CreateShow - POST /api/shows
func (h *Handlers) CreateShow(c *gin.Context) {
	var req models.CreateShowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.BasePrice <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "base_price must be positive"})
		return
	}

	response, err := h.services.Shows.Create(c.Request.Context(), &req)
	if err != nil {
		logger.Get().Error("failed to create show", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ListShows - GET /api/shows
func (h *Handlers) ListShows(c *gin.Context) {
	response, err := h.services.Shows.List(c.Request.Context())
	if err != nil {
		logger.Get().Error("failed to list shows", "error", err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetSeatMap - GET /api/shows/:id/seats
func (h *Handlers) GetSeatMap(c *gin.Context) {
	showID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || showID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid show id"})
		return
	}

	response, err := h.services.Shows.SeatMap(c.Request.Context(), showID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetAvailability - GET /api/shows/:id/availability
func (h *Handlers) GetAvailability(c *gin.Context) {
	showID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || showID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid show id"})
		return
	}

	response, err := h.services.Shows.Availability(c.Request.Context(), showID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}
