package postgres

import (
	"context"
	"fmt"

	"merchant-collections/internal/core/domain"
)

// SnapshotRepo implements ports.SnapshotRepository: full-table dumps and
// primary-key upserts for the backup/restore protocol. Rows travel verbatim;
// no filtering, renaming or omission.
type SnapshotRepo struct {
	pool Pool
}

// NewSnapshotRepo creates a new SnapshotRepo.
func NewSnapshotRepo(pool Pool) *SnapshotRepo {
	return &SnapshotRepo{pool: pool}
}

// DumpMerchants fetches every merchant row, without assignments attached
// (assignments travel in their own table section).
func (r *SnapshotRepo) DumpMerchants(ctx context.Context) ([]domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants ORDER BY created_at`, merchantColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("dump merchants: %w", err)
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := scanMerchantInto(rows, &m); err != nil {
			return nil, fmt.Errorf("scan merchant row: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate merchant rows: %w", err)
	}
	return merchants, nil
}

// DumpZones fetches every zone row.
func (r *SnapshotRepo) DumpZones(ctx context.Context) ([]domain.Zone, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, rate_per_meter, created_at, updated_at FROM zones ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump zones: %w", err)
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

// DumpAbonos fetches every ledger row, archived included.
func (r *SnapshotRepo) DumpAbonos(ctx context.Context) ([]domain.Abono, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, amount, recorded_by, archived, created_at FROM abonos ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump abonos: %w", err)
	}
	defer rows.Close()

	return collectAbonos(rows)
}

// DumpAssignments fetches every zone assignment row.
func (r *SnapshotRepo) DumpAssignments(ctx context.Context) ([]domain.ZoneAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, merchant_id, zone_id, meters, work_day, cost, created_at FROM zone_assignments ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("dump assignments: %w", err)
	}
	defer rows.Close()

	var assignments []domain.ZoneAssignment
	for rows.Next() {
		var a domain.ZoneAssignment
		if err := rows.Scan(&a.ID, &a.MerchantID, &a.ZoneID, &a.Meters, &a.WorkDay, &a.Cost, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate assignment rows: %w", err)
	}
	return assignments, nil
}

// UpsertZones inserts-or-updates zones by primary key.
func (r *SnapshotRepo) UpsertZones(ctx context.Context, zones []domain.Zone) error {
	query := `INSERT INTO zones (id, name, rate_per_meter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, rate_per_meter = EXCLUDED.rate_per_meter, updated_at = NOW()`

	for i := range zones {
		z := &zones[i]
		if _, err := r.pool.Exec(ctx, query, z.ID, z.Name, z.RatePerMeter, z.CreatedAt, z.UpdatedAt); err != nil {
			return fmt.Errorf("upsert zone %s: %w", z.ID, err)
		}
	}
	return nil
}

// UpsertMerchants inserts-or-updates merchants by primary key.
func (r *SnapshotRepo) UpsertMerchants(ctx context.Context, merchants []domain.Merchant) error {
	query := `INSERT INTO merchants (id, first_name, last_name, phone, photo_url, id_photo_url, note,
			total_debt, balance, ready_for_admin, admin_received, admin_received_at, delivery_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, phone = EXCLUDED.phone,
			photo_url = EXCLUDED.photo_url, id_photo_url = EXCLUDED.id_photo_url, note = EXCLUDED.note,
			total_debt = EXCLUDED.total_debt, balance = EXCLUDED.balance,
			ready_for_admin = EXCLUDED.ready_for_admin, admin_received = EXCLUDED.admin_received,
			admin_received_at = EXCLUDED.admin_received_at, delivery_count = EXCLUDED.delivery_count,
			updated_at = NOW()`

	for i := range merchants {
		m := &merchants[i]
		_, err := r.pool.Exec(ctx, query,
			m.ID, m.FirstName, m.LastName, m.Phone, m.PhotoURL, m.IDPhotoURL, m.Note,
			m.TotalDebt, m.Balance, m.ReadyForAdmin, m.AdminReceived, m.AdminReceivedAt,
			m.DeliveryCount, m.CreatedAt, m.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("upsert merchant %s: %w", m.ID, err)
		}
	}
	return nil
}

// UpsertAssignments inserts-or-updates zone assignments by primary key.
func (r *SnapshotRepo) UpsertAssignments(ctx context.Context, assignments []domain.ZoneAssignment) error {
	query := `INSERT INTO zone_assignments (id, merchant_id, zone_id, meters, work_day, cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			merchant_id = EXCLUDED.merchant_id, zone_id = EXCLUDED.zone_id,
			meters = EXCLUDED.meters, work_day = EXCLUDED.work_day, cost = EXCLUDED.cost`

	for i := range assignments {
		a := &assignments[i]
		if _, err := r.pool.Exec(ctx, query, a.ID, a.MerchantID, a.ZoneID, a.Meters, a.WorkDay, a.Cost, a.CreatedAt); err != nil {
			return fmt.Errorf("upsert assignment %s: %w", a.ID, err)
		}
	}
	return nil
}

// UpsertAbonos inserts-or-updates ledger rows by primary key.
func (r *SnapshotRepo) UpsertAbonos(ctx context.Context, abonos []domain.Abono) error {
	query := `INSERT INTO abonos (id, merchant_id, amount, recorded_by, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			merchant_id = EXCLUDED.merchant_id, amount = EXCLUDED.amount,
			recorded_by = EXCLUDED.recorded_by, archived = EXCLUDED.archived`

	for i := range abonos {
		a := &abonos[i]
		if _, err := r.pool.Exec(ctx, query, a.ID, a.MerchantID, a.Amount, a.RecordedBy, a.Archived, a.CreatedAt); err != nil {
			return fmt.Errorf("upsert abono %s: %w", a.ID, err)
		}
	}
	return nil
}
