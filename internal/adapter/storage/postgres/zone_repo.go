package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ZoneRepo implements ports.ZoneRepository.
type ZoneRepo struct {
	pool Pool
}

// NewZoneRepo creates a new ZoneRepo.
func NewZoneRepo(pool Pool) *ZoneRepo {
	return &ZoneRepo{pool: pool}
}

// Create inserts a new zone.
func (r *ZoneRepo) Create(ctx context.Context, z *domain.Zone) error {
	query := `INSERT INTO zones (id, name, rate_per_meter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, z.ID, z.Name, z.RatePerMeter, z.CreatedAt, z.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert zone: %w", err)
	}
	return nil
}

// GetByID fetches a zone by its UUID.
func (r *ZoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Zone, error) {
	query := `SELECT id, name, rate_per_meter, created_at, updated_at FROM zones WHERE id = $1`

	z := &domain.Zone{}
	err := r.pool.QueryRow(ctx, query, id).Scan(&z.ID, &z.Name, &z.RatePerMeter, &z.CreatedAt, &z.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get zone by id: %w", err)
	}
	return z, nil
}

// List fetches all zones ordered by name.
func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	query := `SELECT id, name, rate_per_meter, created_at, updated_at FROM zones ORDER BY name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Name, &z.RatePerMeter, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan zone row: %w", err)
		}
		zones = append(zones, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate zone rows: %w", err)
	}
	return zones, nil
}

// Update saves a zone's name and rate.
func (r *ZoneRepo) Update(ctx context.Context, z *domain.Zone) error {
	query := `UPDATE zones SET name=$1, rate_per_meter=$2, updated_at=NOW() WHERE id=$3`

	tag, err := r.pool.Exec(ctx, query, z.Name, z.RatePerMeter, z.ID)
	if err != nil {
		return fmt.Errorf("update zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("zone not found: %s", z.ID)
	}
	return nil
}

// Delete removes a zone. Fails on FK violation while assignments reference it.
func (r *ZoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM zones WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("zone not found: %s", id)
	}
	return nil
}
