package domain

import (
	"time"

	"github.com/google/uuid"
)

// Abono is an immutable payment recorded against a merchant's debt.
// The only field that ever changes after insert is Archived, flipped when a
// billing cycle closes so prior-cycle payments drop out of the balance
// without losing history.
type Abono struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Amount     int64     `json:"amount"` // Smallest currency unit, always > 0
	RecordedBy uuid.UUID `json:"recorded_by"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// AbonoDetail is an abono joined with display context for reporting.
type AbonoDetail struct {
	Abono
	MerchantName  string `json:"merchant_name"`
	CollectorName string `json:"collector_name"`
}

// BuildAbonoIdempotencyKey constructs the dedupe key for payment recording.
func BuildAbonoIdempotencyKey(merchantID uuid.UUID, clientKey string) string {
	return merchantID.String() + ":" + clientKey
}
