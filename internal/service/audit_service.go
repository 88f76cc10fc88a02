package service

import (
	"context"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"

	"github.com/rs/zerolog"
)

type auditService struct {
	repo ports.ActionLogRepository
	log  zerolog.Logger
}

// NewAuditService creates a new audit service.
// If repo is nil, action logs are only written to the logger.
func NewAuditService(repo ports.ActionLogRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Log records an action log entry asynchronously (fire-and-forget).
func (s *auditService) Log(ctx context.Context, entry *domain.ActionLog) {
	go func() {
		s.log.Info().
			Str("action", string(entry.Action)).
			Str("resource_type", entry.ResourceType).
			Str("resource_id", entry.ResourceID).
			Str("outcome", entry.Outcome).
			Msg("action")

		if s.repo != nil {
			if err := s.repo.Create(context.Background(), entry); err != nil {
				s.log.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to persist action log")
			}
		}
	}()
}
