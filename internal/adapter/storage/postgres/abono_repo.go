package postgres

import (
	"context"
	"fmt"
	"time"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AbonoRepo implements ports.AbonoRepository.
type AbonoRepo struct {
	pool Pool
}

// NewAbonoRepo creates a new AbonoRepo.
func NewAbonoRepo(pool Pool) *AbonoRepo {
	return &AbonoRepo{pool: pool}
}

// Create inserts an immutable ledger row within a database transaction.
// The merchants.balance trigger fires off this insert.
func (r *AbonoRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Abono) error {
	query := `INSERT INTO abonos (id, merchant_id, amount, recorded_by, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := tx.Exec(ctx, query, a.ID, a.MerchantID, a.Amount, a.RecordedBy, a.Archived, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert abono: %w", err)
	}
	return nil
}

// ListByMerchant fetches a merchant's payments, newest first.
func (r *AbonoRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]domain.Abono, error) {
	query := `SELECT id, merchant_id, amount, recorded_by, archived, created_at
		FROM abonos WHERE merchant_id = $1`
	if !includeArchived {
		query += ` AND archived = FALSE`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, merchantID)
	if err != nil {
		return nil, fmt.Errorf("list abonos: %w", err)
	}
	defer rows.Close()

	return collectAbonos(rows)
}

// ListDetailed returns abonos in [from, to] joined with merchant and
// collector display names, optionally restricted to one collector.
func (r *AbonoRepo) ListDetailed(ctx context.Context, from, to time.Time, recordedBy *uuid.UUID) ([]domain.AbonoDetail, error) {
	query := `SELECT a.id, a.merchant_id, a.amount, a.recorded_by, a.archived, a.created_at,
			TRIM(m.first_name || ' ' || m.last_name) AS merchant_name,
			p.display_name AS collector_name
		FROM abonos a
		JOIN merchants m ON m.id = a.merchant_id
		JOIN profiles p ON p.id = a.recorded_by
		WHERE a.created_at >= $1 AND a.created_at <= $2`
	args := []any{from, to}
	if recordedBy != nil {
		query += ` AND a.recorded_by = $3`
		args = append(args, *recordedBy)
	}
	query += ` ORDER BY a.created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list detailed abonos: %w", err)
	}
	defer rows.Close()

	var details []domain.AbonoDetail
	for rows.Next() {
		var d domain.AbonoDetail
		err := rows.Scan(&d.ID, &d.MerchantID, &d.Amount, &d.RecordedBy, &d.Archived, &d.CreatedAt,
			&d.MerchantName, &d.CollectorName)
		if err != nil {
			return nil, fmt.Errorf("scan detailed abono row: %w", err)
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate detailed abono rows: %w", err)
	}
	return details, nil
}

// ArchiveByMerchant flags all live abonos of a merchant within a database
// transaction, returning how many rows were archived.
func (r *AbonoRepo) ArchiveByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error) {
	tag, err := tx.Exec(ctx,
		`UPDATE abonos SET archived = TRUE WHERE merchant_id = $1 AND archived = FALSE`, merchantID)
	if err != nil {
		return 0, fmt.Errorf("archive abonos: %w", err)
	}
	return tag.RowsAffected(), nil
}

func collectAbonos(rows pgx.Rows) ([]domain.Abono, error) {
	var abonos []domain.Abono
	for rows.Next() {
		var a domain.Abono
		if err := rows.Scan(&a.ID, &a.MerchantID, &a.Amount, &a.RecordedBy, &a.Archived, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan abono row: %w", err)
		}
		abonos = append(abonos, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate abono rows: %w", err)
	}
	return abonos, nil
}
