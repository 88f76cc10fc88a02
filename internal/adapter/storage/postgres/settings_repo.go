package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-collections/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// SettingsRepo implements ports.SettingsRepository over the single-row
// system_settings table.
type SettingsRepo struct {
	pool Pool
}

// NewSettingsRepo creates a new SettingsRepo.
func NewSettingsRepo(pool Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// Get fetches the global settings record. A missing row yields defaults.
func (r *SettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT logo_url, delegates_can_collect, updated_at FROM system_settings WHERE id = 1`

	s := &domain.Settings{}
	err := r.pool.QueryRow(ctx, query).Scan(&s.LogoURL, &s.DelegatesCanCollect, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.Settings{DelegatesCanCollect: true}, nil
		}
		return nil, fmt.Errorf("get settings: %w", err)
	}
	return s, nil
}

// Update upserts the global settings record.
func (r *SettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	query := `INSERT INTO system_settings (id, logo_url, delegates_can_collect, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET logo_url = $1, delegates_can_collect = $2, updated_at = NOW()`

	_, err := r.pool.Exec(ctx, query, s.LogoURL, s.DelegatesCanCollect)
	if err != nil {
		return fmt.Errorf("update settings: %w", err)
	}
	return nil
}
