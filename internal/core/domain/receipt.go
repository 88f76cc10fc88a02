package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentReceipt caches the result of a recorded abono keyed by the client's
// idempotency key, so a retried submission returns the original row instead
// of double-ledgering the payment.
type PaymentReceipt struct {
	Key          string    `json:"key"` // "merchant_id:client_key"
	AbonoID      uuid.UUID `json:"abono_id"`
	ResponseJSON []byte    `json:"response_json"`
	CreatedAt    time.Time `json:"created_at"`
}
