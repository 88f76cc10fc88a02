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

// PaymentHandler handles the collections ledger endpoints.
type PaymentHandler struct {
	paymentSvc ports.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentSvc ports.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentSvc: paymentSvc}
}

// RecordAbono handles POST /api/v1/merchants/:id/abonos.
func (h *PaymentHandler) RecordAbono(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.AbonoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	abono, err := h.paymentSvc.RecordAbono(c.Request.Context(), ports.AbonoRequest{
		MerchantID:     merchantID,
		Amount:         req.Amount,
		Viewer:         viewer,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromAbono(abono))
}

// ListAbonos handles GET /api/v1/merchants/:id/abonos.
func (h *PaymentHandler) ListAbonos(c *gin.Context) {
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}
	includeArchived := c.Query("include_archived") == "true"

	abonos, err := h.paymentSvc.ListAbonos(c.Request.Context(), merchantID, includeArchived)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AbonoResponse, 0, len(abonos))
	for i := range abonos {
		items = append(items, dto.FromAbono(&abonos[i]))
	}
	response.OK(c, items)
}

// CloseCycle handles POST /api/v1/merchants/:id/close-cycle.
func (h *PaymentHandler) CloseCycle(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}
	merchantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid merchant id"))
		return
	}

	var req dto.CloseCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	merchant, err := h.paymentSvc.CloseCycle(c.Request.Context(), ports.CloseCycleRequest{
		MerchantID: merchantID,
		NewDebt:    *req.NewDebt,
		Viewer:     viewer,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.FromMerchant(merchant))
}
