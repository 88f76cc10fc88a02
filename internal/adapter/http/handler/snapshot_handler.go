package handler

import (
	"errors"
	"net/http"

	"merchant-collections/internal/adapter/http/middleware"
	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
)

// SnapshotHandler handles backup export and restore endpoints.
type SnapshotHandler struct {
	snapshotSvc ports.SnapshotService
}

// NewSnapshotHandler creates a new SnapshotHandler.
func NewSnapshotHandler(snapshotSvc ports.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotSvc: snapshotSvc}
}

// Export handles GET /api/v1/admin/snapshot.
func (h *SnapshotHandler) Export(c *gin.Context) {
	snap, err := h.snapshotSvc.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, snap)
}

// Restore handles POST /api/v1/admin/snapshot/restore.
// Restore is not transactional; the result reports per-table outcomes and a
// failure aborts without rolling back already applied tables.
func (h *SnapshotHandler) Restore(c *gin.Context) {
	viewer, ok := middleware.ViewerFrom(c)
	if !ok {
		response.Error(c, apperror.ErrInvalidToken())
		return
	}

	var snap domain.Snapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.snapshotSvc.Restore(c.Request.Context(), viewer, &snap)
	if err != nil {
		if result != nil {
			// Partial apply: surface what landed alongside the error.
			status := http.StatusInternalServerError
			code := "SNAP_002"
			msg := "restore aborted"
			var appErr *apperror.AppError
			if errors.As(err, &appErr) {
				status = appErr.HTTPStatus
				code = appErr.Code
				msg = appErr.Message
			}
			c.JSON(status, gin.H{
				"error_code": code,
				"message":    msg,
				"result":     result,
			})
			return
		}
		response.Error(c, err)
		return
	}

	response.OK(c, result)
}
