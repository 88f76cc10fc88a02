package handler

import (
	"strconv"

	"merchant-collections/internal/adapter/http/dto"
	"merchant-collections/internal/adapter/http/middleware"
	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MerchantHandler handles merchant registry endpoints.
type MerchantHandler struct {
	merchantSvc ports.MerchantService
}

// NewMerchantHandler creates a new MerchantHandler.
func NewMerchantHandler(merchantSvc ports.MerchantService) *MerchantHandler {
	return &MerchantHandler{merchantSvc: merchantSvc}
}

// List handles GET /api/v1/merchants.
func (h *MerchantHandler) List(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	// The API is 1-based; repositories count pages from zero.
	params := ports.MerchantListParams{
		Viewer:   viewer,
		Search:   c.Query("search"),
		Page:     page - 1,
		PageSize: pageSize,
	}
	if s := c.Query("status"); s != "" {
		status := domain.MerchantStatus(s)
		switch status {
		case domain.MerchantStatusPending, domain.MerchantStatusPartial, domain.MerchantStatusPaid:
			params.Status = &status
		default:
			response.Error(c, apperror.Validation("unknown status filter"))
			return
		}
	}

	merchants, total, err := h.merchantSvc.List(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.NewMerchantListResponse(merchants, total, page, pageSize))
}

// Get handles GET /api/v1/merchants/:id.
func (h *MerchantHandler) Get(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	merchant, err := h.merchantSvc.Get(c.Request.Context(), viewer, id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromMerchant(merchant))
}

// Create handles POST /api/v1/merchants.
func (h *MerchantHandler) Create(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.Create(c.Request.Context(), viewer, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromMerchant(merchant))
}

// Update handles PUT /api/v1/merchants/:id.
func (h *MerchantHandler) Update(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.MerchantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}
	dto.SanitizeStruct(&req)

	merchant, err := h.merchantSvc.Update(c.Request.Context(), viewer, id, req.ToInput())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromMerchant(merchant))
}

// Delete handles DELETE /api/v1/merchants/:id.
func (h *MerchantHandler) Delete(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	if err := h.merchantSvc.Delete(c.Request.Context(), viewer, id); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "merchant deleted"})
}

// SetReadyForAdmin handles PUT /api/v1/merchants/:id/ready.
func (h *MerchantHandler) SetReadyForAdmin(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.ReadyForAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	if err := h.merchantSvc.SetReadyForAdmin(c.Request.Context(), viewer, id, *req.Ready); err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, gin.H{"message": "flag updated"})
}

// ConfirmReceipts handles POST /api/v1/receipts/confirm.
// The batch is processed per id; the response lists both outcomes.
func (h *MerchantHandler) ConfirmReceipts(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var req dto.ConfirmReceiptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.merchantSvc.ConfirmReceipts(c.Request.Context(), viewer, req.MerchantIDs)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
