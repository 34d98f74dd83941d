package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/novatix/novatix-backend/internal/dto"
	"github.com/novatix/novatix-backend/internal/service"
	"github.com/novatix/novatix-backend/pkg/middleware"
	"github.com/novatix/novatix-backend/pkg/response"
)

// CollabHandler handles co-organizer revenue sharing HTTP requests
type CollabHandler struct {
	collabService service.CollabService
}

// NewCollabHandler creates a new CollabHandler
func NewCollabHandler(collabService service.CollabService) *CollabHandler {
	return &CollabHandler{collabService: collabService}
}

// Invite handles proposing a batch of co-organizer agreements
// POST /api/v1/events/:id/co-organizers
func (h *CollabHandler) Invite(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.ProposeSharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.collabService.Invite(c.Request.Context(), userID, eventID, &req)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(result))
}

// Respond handles answering a pending invitation
// POST /api/v1/events/:id/co-organizers/:orgId/respond
func (h *CollabHandler) Respond(c *gin.Context) {
	eventID := c.Param("id")
	orgID := c.Param("orgId")
	if eventID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID and organization ID are required"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.collabService.Respond(c.Request.Context(), userID, eventID, orgID, &req)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Amend handles adjusting an accepted agreement's share
// PATCH /api/v1/events/:id/co-organizers/:orgId
func (h *CollabHandler) Amend(c *gin.Context) {
	eventID := c.Param("id")
	orgID := c.Param("orgId")
	if eventID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID and organization ID are required"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	var req dto.AmendShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
		return
	}

	result, err := h.collabService.Amend(c.Request.Context(), userID, eventID, orgID, &req)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// Remove handles deleting an agreement outright
// DELETE /api/v1/events/:id/co-organizers/:orgId
func (h *CollabHandler) Remove(c *gin.Context) {
	eventID := c.Param("id")
	orgID := c.Param("orgId")
	if eventID == "" || orgID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID and organization ID are required"))
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Unauthorized(""))
		return
	}

	if err := h.collabService.Remove(c.Request.Context(), userID, eventID, orgID); err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(gin.H{"message": "Co-organizer removed"}))
}

// List handles retrieving an event's agreements
// GET /api/v1/events/:id/co-organizers
func (h *CollabHandler) List(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	result, err := h.collabService.List(c.Request.Context(), eventID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}

// RevenueSplit handles computing an event's revenue breakdown
// GET /api/v1/events/:id/revenue-split
func (h *CollabHandler) RevenueSplit(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	result, err := h.collabService.ComputeSplit(c.Request.Context(), eventID)
	if err != nil {
		writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(result))
}
