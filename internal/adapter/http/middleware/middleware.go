package middleware

import (
	"net/http"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"
	"merchant-collections/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const (
	// Context keys
	CtxUserID  = "user_id"
	CtxRole    = "role"
	CtxViewer  = "viewer"
	CtxProfile = "profile"
)

// JWTAuth validates the bearer token and loads the caller's profile into a
// Viewer. The profile lookup runs per request so zone reassignments and
// permission changes take effect without reissuing tokens.
func JWTAuth(tokenSvc ports.TokenService, profileRepo ports.ProfileRepository, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		tokenStr := authHeader[7:]
		claims, err := tokenSvc.Validate(tokenStr)
		if err != nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		profile, err := profileRepo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			log.Error().Err(err).Msg("failed to fetch profile")
			response.Error(c, apperror.InternalError(err))
			c.Abort()
			return
		}
		if profile == nil {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}

		viewer := ports.Viewer{
			ID:            profile.ID,
			Role:          profile.Role,
			AssignedZones: profile.AssignedZones,
			CanCollect:    profile.CanCollect,
		}

		c.Set(CtxUserID, profile.ID)
		c.Set(CtxRole, profile.Role)
		c.Set(CtxViewer, viewer)
		c.Set(CtxProfile, profile)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller holds one of the given roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(CtxRole)
		if !exists {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}
		role, ok := val.(domain.Role)
		if !ok {
			response.Error(c, apperror.ErrInvalidToken())
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error(c, apperror.ErrForbidden())
		c.Abort()
	}
}

// ViewerFrom extracts the Viewer set by JWTAuth. The bool is false when the
// route is not behind JWTAuth, which is a wiring bug.
func ViewerFrom(c *gin.Context) (ports.Viewer, bool) {
	val, exists := c.Get(CtxViewer)
	if !exists {
		return ports.Viewer{}, false
	}
	viewer, ok := val.(ports.Viewer)
	return viewer, ok
}

// RequestLogger creates a middleware that logs every HTTP request.
func RequestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()

		event := log.Info()
		if status >= http.StatusInternalServerError {
			event = log.Error()
		} else if status >= http.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

// Recovery creates a panic recovery middleware.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Interface("panic", r).Str("path", c.Request.URL.Path).Msg("panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error_code": "SYS_001",
					"message":    "Internal server error",
				})
			}
		}()
		c.Next()
	}
}
