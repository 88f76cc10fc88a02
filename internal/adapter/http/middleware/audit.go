package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SecurityAudit records denied requests (401/403) in the action log.
// Successful business writes are logged by the services themselves; this
// middleware covers the requests that never reach one.
func SecurityAudit(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if status != http.StatusUnauthorized && status != http.StatusForbidden {
			return
		}

		var actorID *uuid.UUID
		if uid, exists := c.Get(CtxUserID); exists {
			if id, ok := uid.(uuid.UUID); ok {
				actorID = &id
			}
		}

		details, _ := json.Marshal(map[string]interface{}{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		})

		auditSvc.Log(c.Request.Context(), &domain.ActionLog{
			ID:           uuid.New(),
			ActorID:      actorID,
			Action:       domain.ActionAccessDenied,
			ResourceType: "http",
			ResourceID:   c.Request.URL.Path,
			Outcome:      domain.OutcomeFailed,
			Details:      string(details),
			IPAddress:    c.ClientIP(),
			CreatedAt:    time.Now().UTC(),
		})
	}
}
