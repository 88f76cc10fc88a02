package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a staff role with fixed permissions.
type Role string

const (
	RoleAdmin     Role = "ADMIN"
	RoleSecretary Role = "SECRETARY"
	RoleDelegate  Role = "DELEGATE"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSecretary, RoleDelegate:
		return true
	}
	return false
}

// Profile is a staff account. Delegates are scoped to AssignedZones and may
// record payments only when both CanCollect and the global policy flag allow.
type Profile struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	DisplayName   string      `json:"display_name"`
	PasswordHash  string      `json:"-"` // Never expose
	Role          Role        `json:"role"`
	AssignedZones []uuid.UUID `json:"assigned_zones"`
	CanCollect    bool        `json:"can_collect"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
