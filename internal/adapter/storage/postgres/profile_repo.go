package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, email, display_name, password_hash, role, assigned_zones, can_collect, created_at, updated_at`

// ProfileRepo implements ports.ProfileRepository.
type ProfileRepo struct {
	pool Pool
}

// NewProfileRepo creates a new ProfileRepo.
func NewProfileRepo(pool Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

// Create inserts a new staff profile.
func (r *ProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	query := `INSERT INTO profiles (id, email, display_name, password_hash, role, assigned_zones, can_collect, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Email, p.DisplayName, p.PasswordHash, p.Role, p.AssignedZones, p.CanCollect,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// GetByID fetches a profile by its UUID.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns)
	return scanProfile(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail fetches a profile by email.
func (r *ProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles WHERE email = $1`, profileColumns)
	return scanProfile(r.pool.QueryRow(ctx, query, email))
}

// List fetches all staff profiles ordered by display name.
func (r *ProfileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	query := fmt.Sprintf(`SELECT %s FROM profiles ORDER BY display_name`, profileColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := scanProfileInto(rows, &p); err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profile rows: %w", err)
	}
	return profiles, nil
}

// Update saves the administrable profile fields.
func (r *ProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	query := `UPDATE profiles
		SET display_name=$1, role=$2, assigned_zones=$3, can_collect=$4, updated_at=NOW()
		WHERE id=$5`
	tag, err := r.pool.Exec(ctx, query, p.DisplayName, p.Role, p.AssignedZones, p.CanCollect, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", p.ID)
	}
	return nil
}

// UpdatePassword replaces the stored password hash.
func (r *ProfileRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE profiles SET password_hash=$1, updated_at=NOW() WHERE id=$2`, passwordHash, id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile not found: %s", id)
	}
	return nil
}

func scanProfile(row pgx.Row) (*domain.Profile, error) {
	p := &domain.Profile{}
	if err := scanProfileInto(row, p); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan profile: %w", err)
	}
	return p, nil
}

func scanProfileInto(row pgx.Row, p *domain.Profile) error {
	return row.Scan(
		&p.ID, &p.Email, &p.DisplayName, &p.PasswordHash, &p.Role,
		&p.AssignedZones, &p.CanCollect, &p.CreatedAt, &p.UpdatedAt,
	)
}
