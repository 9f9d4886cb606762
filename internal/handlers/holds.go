package handlers

import (
	"net/http"

	"cinebook/internal/models"

	"github.com/gin-gonic/gin"
)

// Hold handlers

// CreateHold - POST /api/holds
func (h *Handlers) CreateHold(c *gin.Context) {
	var req models.CreateHoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if len(req.SeatIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "seat_ids must not be empty"})
		return
	}

	response, err := h.services.Holds.Create(c.Request.Context(), actorFrom(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// ExtendHold - POST /api/holds/:token/extend
func (h *Handlers) ExtendHold(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hold token is required"})
		return
	}

	response, err := h.services.Holds.Extend(c.Request.Context(), actorFrom(c), token)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ReleaseHold - DELETE /api/holds/:token
func (h *Handlers) ReleaseHold(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "hold token is required"})
		return
	}

	if err := h.services.Holds.Release(c.Request.Context(), actorFrom(c), token); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"released": true})
}
