package domain

import (
	"time"

	"github.com/google/uuid"
)

// Zone is a territorial unit of the municipality.
// RatePerMeter is informational; assignment costs are entered per assignment.
type Zone struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	RatePerMeter int64     `json:"rate_per_meter"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
