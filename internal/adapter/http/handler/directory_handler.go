package handler

import (
	"merchant-collections/internal/adapter/http/dto"
	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DirectoryHandler handles staff profile and global settings endpoints.
type DirectoryHandler struct {
	directorySvc ports.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(directorySvc ports.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directorySvc: directorySvc}
}

// ListProfiles handles GET /api/v1/admin/profiles.
func (h *DirectoryHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.directorySvc.ListProfiles(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.ProfileResponse, 0, len(profiles))
	for i := range profiles {
		items = append(items, dto.FromProfile(&profiles[i]))
	}
	response.OK(c, items)
}

// GetProfile handles GET /api/v1/admin/profiles/:id.
func (h *DirectoryHandler) GetProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid profile id"))
		return
	}

	profile, err := h.directorySvc.GetProfile(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromProfile(profile))
}

// Provision handles POST /api/v1/admin/profiles.
func (h *DirectoryHandler) Provision(c *gin.Context) {
	var req dto.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	profile, err := h.directorySvc.Provision(c.Request.Context(), ports.ProvisionInput{
		Email:       req.Email,
		DisplayName: req.DisplayName,
		Password:    req.Password,
		Role:        domain.Role(req.Role),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.FromProfile(profile))
}

// UpdateProfile handles PUT /api/v1/admin/profiles/:id.
func (h *DirectoryHandler) UpdateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid profile id"))
		return
	}

	var req dto.ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	profile, err := h.directorySvc.UpdateProfile(c.Request.Context(), id, req.ToUpdate())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, dto.FromProfile(profile))
}

// GetSettings handles GET /api/v1/settings.
func (h *DirectoryHandler) GetSettings(c *gin.Context) {
	settings, err := h.directorySvc.GetSettings(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// UpdateSettings handles PUT /api/v1/admin/settings.
func (h *DirectoryHandler) UpdateSettings(c *gin.Context) {
	var req dto.SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	settings := &domain.Settings{
		LogoURL:             req.LogoURL,
		DelegatesCanCollect: req.DelegatesCanCollect,
	}
	if err := h.directorySvc.UpdateSettings(c.Request.Context(), settings); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}
