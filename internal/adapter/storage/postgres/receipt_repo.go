package postgres

import (
	"context"
	"errors"
	"fmt"

	"merchant-collections/internal/core/domain"

	"github.com/jackc/pgx/v5"
)

// ReceiptRepo implements ports.ReceiptRepository, the durable idempotency
// layer behind the Redis fast path.
type ReceiptRepo struct {
	pool Pool
}

// NewReceiptRepo creates a new ReceiptRepo.
func NewReceiptRepo(pool Pool) *ReceiptRepo {
	return &ReceiptRepo{pool: pool}
}

// Create inserts a payment receipt within a database transaction.
func (r *ReceiptRepo) Create(ctx context.Context, tx pgx.Tx, receipt *domain.PaymentReceipt) error {
	query := `INSERT INTO payment_receipts (key, abono_id, response_json, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := tx.Exec(ctx, query, receipt.Key, receipt.AbonoID, receipt.ResponseJSON, receipt.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment receipt: %w", err)
	}
	return nil
}

// Get fetches a payment receipt by idempotency key.
func (r *ReceiptRepo) Get(ctx context.Context, key string) (*domain.PaymentReceipt, error) {
	query := `SELECT key, abono_id, response_json, created_at FROM payment_receipts WHERE key = $1`

	receipt := &domain.PaymentReceipt{}
	err := r.pool.QueryRow(ctx, query, key).Scan(&receipt.Key, &receipt.AbonoID, &receipt.ResponseJSON, &receipt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment receipt: %w", err)
	}
	return receipt, nil
}
