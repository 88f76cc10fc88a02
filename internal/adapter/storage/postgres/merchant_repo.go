package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const merchantColumns = `id, first_name, last_name, phone, photo_url, id_photo_url, note,
		total_debt, balance, ready_for_admin, admin_received, admin_received_at, delivery_count,
		created_at, updated_at`

// MerchantRepo implements ports.MerchantRepository.
type MerchantRepo struct {
	pool Pool
}

// NewMerchantRepo creates a new MerchantRepo.
func NewMerchantRepo(pool Pool) *MerchantRepo {
	return &MerchantRepo{pool: pool}
}

// Create inserts a new merchant. Balance starts equal to total_debt; the
// abonos trigger maintains it from then on.
func (r *MerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	query := `INSERT INTO merchants (id, first_name, last_name, phone, photo_url, id_photo_url, note,
		total_debt, balance, ready_for_admin, admin_received, admin_received_at, delivery_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := tx.Exec(ctx, query,
		m.ID, m.FirstName, m.LastName, m.Phone, m.PhotoURL, m.IDPhotoURL, m.Note,
		m.TotalDebt, m.Balance, m.ReadyForAdmin, m.AdminReceived, m.AdminReceivedAt,
		m.DeliveryCount, m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert merchant: %w", err)
	}
	return nil
}

// GetByID fetches a merchant with its zone assignments.
func (r *MerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	query := fmt.Sprintf(`SELECT %s FROM merchants WHERE id = $1`, merchantColumns)

	m, err := scanMerchant(r.pool.QueryRow(ctx, query, id))
	if err != nil || m == nil {
		return m, err
	}

	assignments, err := r.ListAssignments(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Assignments = assignments
	return m, nil
}

// Update saves merchant fields within a database transaction. Balance is not
// written here; only the abonos trigger and SetDebt touch it.
func (r *MerchantRepo) Update(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	query := `UPDATE merchants
		SET first_name=$1, last_name=$2, phone=$3, photo_url=$4, id_photo_url=$5, note=$6,
			total_debt=$7, ready_for_admin=$8, updated_at=NOW()
		WHERE id=$9`
	tag, err := tx.Exec(ctx, query,
		m.FirstName, m.LastName, m.Phone, m.PhotoURL, m.IDPhotoURL, m.Note,
		m.TotalDebt, m.ReadyForAdmin, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", m.ID)
	}
	return nil
}

// Delete removes a merchant. Zone assignments and abonos cascade via FK.
func (r *MerchantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM merchants WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete merchant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

// List fetches one merchant page, newest-created first, with an exact total
// count. Role scoping is applied in SQL before pagination: a DELEGATE only
// sees merchants assigned to one of their zones, a SECRETARY only fully-paid
// merchants.
func (r *MerchantRepo) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if s := strings.TrimSpace(params.Search); s != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR phone ILIKE $%d)", argIdx, argIdx, argIdx))
		args = append(args, "%"+s+"%")
		argIdx++
	}

	if params.Status != nil {
		conditions = append(conditions, statusCondition(*params.Status))
	}

	switch params.Viewer.Role {
	case domain.RoleDelegate:
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT merchant_id FROM zone_assignments WHERE zone_id = ANY($%d))", argIdx))
		args = append(args, params.Viewer.AssignedZones)
		argIdx++
	case domain.RoleSecretary:
		// Collections-audit view: fully paid merchants only.
		conditions = append(conditions, statusCondition(domain.MerchantStatusPaid))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM merchants %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count merchants: %w", err)
	}

	offset := params.Page * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT %s FROM merchants %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		merchantColumns, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list merchants: %w", err)
	}
	defer rows.Close()

	var merchants []domain.Merchant
	for rows.Next() {
		var m domain.Merchant
		if err := scanMerchantInto(rows, &m); err != nil {
			return nil, 0, fmt.Errorf("scan merchant row: %w", err)
		}
		merchants = append(merchants, m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate merchant rows: %w", err)
	}

	if err := r.attachAssignments(ctx, merchants); err != nil {
		return nil, 0, err
	}
	return merchants, total, nil
}

// ListAssignments fetches the zone assignments of one merchant.
func (r *MerchantRepo) ListAssignments(ctx context.Context, merchantID uuid.UUID) ([]domain.ZoneAssignment, error) {
	query := `SELECT id, merchant_id, zone_id, meters, work_day, cost, created_at
		FROM zone_assignments WHERE merchant_id = $1 ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
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

// ReplaceAssignments deletes all assignments of a merchant and re-inserts
// the given set inside the caller's transaction.
func (r *MerchantRepo) ReplaceAssignments(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, assignments []domain.ZoneAssignment) error {
	if _, err := tx.Exec(ctx, `DELETE FROM zone_assignments WHERE merchant_id = $1`, merchantID); err != nil {
		return fmt.Errorf("delete assignments: %w", err)
	}

	query := `INSERT INTO zone_assignments (id, merchant_id, zone_id, meters, work_day, cost, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range assignments {
		a := &assignments[i]
		if _, err := tx.Exec(ctx, query, a.ID, a.MerchantID, a.ZoneID, a.Meters, a.WorkDay, a.Cost, a.CreatedAt); err != nil {
			return fmt.Errorf("insert assignment: %w", err)
		}
	}
	return nil
}

// ConfirmReceipt flips the handoff flags for a single merchant and bumps its
// delivery count. Batch confirmation calls this per id so every merchant
// gets an independent increment.
func (r *MerchantRepo) ConfirmReceipt(ctx context.Context, id uuid.UUID, receivedAt time.Time) error {
	query := `UPDATE merchants
		SET ready_for_admin = FALSE, admin_received = TRUE, admin_received_at = $1,
			delivery_count = delivery_count + 1, updated_at = NOW()
		WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, receivedAt, id)
	if err != nil {
		return fmt.Errorf("confirm receipt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

// SetDebt sets a new total debt within a database transaction. The balance
// trigger recomputes balance from the new debt and the surviving abonos.
func (r *MerchantRepo) SetDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID, newDebt int64) error {
	tag, err := tx.Exec(ctx, `UPDATE merchants SET total_debt = $1, updated_at = NOW() WHERE id = $2`, newDebt, id)
	if err != nil {
		return fmt.Errorf("set debt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("merchant not found: %s", id)
	}
	return nil
}

// attachAssignments loads assignments for a page of merchants in one query.
func (r *MerchantRepo) attachAssignments(ctx context.Context, merchants []domain.Merchant) error {
	if len(merchants) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(merchants))
	index := make(map[uuid.UUID]*domain.Merchant, len(merchants))
	for i := range merchants {
		ids[i] = merchants[i].ID
		index[merchants[i].ID] = &merchants[i]
	}

	query := `SELECT id, merchant_id, zone_id, meters, work_day, cost, created_at
		FROM zone_assignments WHERE merchant_id = ANY($1) ORDER BY created_at`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("list page assignments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a domain.ZoneAssignment
		if err := rows.Scan(&a.ID, &a.MerchantID, &a.ZoneID, &a.Meters, &a.WorkDay, &a.Cost, &a.CreatedAt); err != nil {
			return fmt.Errorf("scan assignment row: %w", err)
		}
		if m, ok := index[a.MerchantID]; ok {
			m.Assignments = append(m.Assignments, a)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate assignment rows: %w", err)
	}
	return nil
}

// statusCondition maps a derived status to its SQL predicate over the two
// stored columns.
func statusCondition(status domain.MerchantStatus) string {
	switch status {
	case domain.MerchantStatusPaid:
		return "balance <= 0"
	case domain.MerchantStatusPending:
		return "(balance > 0 AND balance >= total_debt)"
	default: // PARTIAL
		return "(balance > 0 AND balance < total_debt)"
	}
}

// scanMerchant scans a single row, mapping pgx.ErrNoRows to (nil, nil).
func scanMerchant(row pgx.Row) (*domain.Merchant, error) {
	m := &domain.Merchant{}
	if err := scanMerchantInto(row, m); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan merchant: %w", err)
	}
	return m, nil
}

func scanMerchantInto(row pgx.Row, m *domain.Merchant) error {
	return row.Scan(
		&m.ID, &m.FirstName, &m.LastName, &m.Phone, &m.PhotoURL, &m.IDPhotoURL, &m.Note,
		&m.TotalDebt, &m.Balance, &m.ReadyForAdmin, &m.AdminReceived, &m.AdminReceivedAt,
		&m.DeliveryCount, &m.CreatedAt, &m.UpdatedAt,
	)
}
