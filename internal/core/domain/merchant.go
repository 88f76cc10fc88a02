package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MerchantStatus is the collection state derived from balance vs total debt.
// Balance is maintained by the database trigger over non-archived abonos;
// the application only ever derives status from the two stored values.
type MerchantStatus string

const (
	MerchantStatusPending MerchantStatus = "PENDING"
	MerchantStatusPartial MerchantStatus = "PARTIAL"
	MerchantStatusPaid    MerchantStatus = "PAID"
)

// Merchant is a registered merchant in the municipal commerce registry.
type Merchant struct {
	ID              uuid.UUID        `json:"id"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	Phone           string           `json:"phone"`
	PhotoURL        *string          `json:"photo_url,omitempty"`
	IDPhotoURL      *string          `json:"id_photo_url,omitempty"`
	Note            string           `json:"note,omitempty"`
	TotalDebt       int64            `json:"total_debt"` // Smallest currency unit
	Balance         int64            `json:"balance"`    // Remaining owed, trigger-maintained
	ReadyForAdmin   bool             `json:"ready_for_admin"`
	AdminReceived   bool             `json:"admin_received"`
	AdminReceivedAt *time.Time       `json:"admin_received_at,omitempty"`
	DeliveryCount   int              `json:"delivery_count"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
	Assignments     []ZoneAssignment `json:"zone_assignments,omitempty"`
}

// FullName joins the name parts for display.
func (m *Merchant) FullName() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Status derives the collection state. A merchant with no debt is PAID.
func (m *Merchant) Status() MerchantStatus {
	switch {
	case m.Balance <= 0:
		return MerchantStatusPaid
	case m.Balance >= m.TotalDebt:
		return MerchantStatusPending
	default:
		return MerchantStatusPartial
	}
}

// AssignedZoneIDs returns the ids of the zones this merchant occupies.
func (m *Merchant) AssignedZoneIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m.Assignments))
	for i := range m.Assignments {
		ids = append(ids, m.Assignments[i].ZoneID)
	}
	return ids
}

// ZoneAssignment links a merchant to a zone with the space it occupies.
// Assignments are owned by their merchant and replaced wholesale on save;
// there is no partial-update path.
type ZoneAssignment struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	ZoneID     uuid.UUID `json:"zone_id"`
	Meters     float64   `json:"meters"`
	WorkDay    string    `json:"work_day"`
	Cost       int64     `json:"cost"` // Per-cycle fee, entered manually
	CreatedAt  time.Time `json:"created_at"`
}
