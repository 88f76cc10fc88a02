package handler

import (
	"merchant-collections/internal/adapter/http/dto"
	"merchant-collections/internal/adapter/http/middleware"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ZoneHandler handles zone registry endpoints.
type ZoneHandler struct {
	zoneSvc ports.ZoneService
}

// NewZoneHandler creates a new ZoneHandler.
func NewZoneHandler(zoneSvc ports.ZoneService) *ZoneHandler {
	return &ZoneHandler{zoneSvc: zoneSvc}
}

// List handles GET /api/v1/zones.
func (h *ZoneHandler) List(c *gin.Context) {
	zones, err := h.zoneSvc.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, zones)
}

// Get handles GET /api/v1/zones/:id.
func (h *ZoneHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid zone id"))
		return
	}

	zone, err := h.zoneSvc.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, zone)
}

// Create handles POST /api/v1/zones.
func (h *ZoneHandler) Create(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	zone, err := h.zoneSvc.Create(c.Request.Context(), viewer, req.Name, req.RatePerMeter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, zone)
}

// Update handles PUT /api/v1/zones/:id.
func (h *ZoneHandler) Update(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid zone id"))
		return
	}

	var req dto.ZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	zone, err := h.zoneSvc.Update(c.Request.Context(), viewer, id, req.Name, req.RatePerMeter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, zone)
}

// Delete handles DELETE /api/v1/zones/:id.
func (h *ZoneHandler) Delete(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid zone id"))
		return
	}

	if err := h.zoneSvc.Delete(c.Request.Context(), viewer, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "zone deleted"})
}
