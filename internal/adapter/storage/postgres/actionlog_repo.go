package postgres

import (
	"context"
	"fmt"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
)

type actionLogRepo struct {
	pool Pool
}

// NewActionLogRepository creates a PostgreSQL-backed ActionLogRepository.
func NewActionLogRepository(pool Pool) ports.ActionLogRepository {
	return &actionLogRepo{pool: pool}
}

func (r *actionLogRepo) Create(ctx context.Context, entry *domain.ActionLog) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO action_logs (id, actor_id, action, resource_type, resource_id, outcome, details, ip_address, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		entry.ID, entry.ActorID, string(entry.Action), entry.ResourceType,
		entry.ResourceID, entry.Outcome, entry.Details, entry.IPAddress, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}
