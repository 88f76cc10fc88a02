package dto

import (
	"time"

	"github.com/google/uuid"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
)

// LoginRequest is the request body for staff login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse is the response body for successful login.
type LoginResponse struct {
	Token   string          `json:"token"`
	Expiry  int64           `json:"expiry"` // Unix timestamp
	Profile ProfileResponse `json:"profile"`
}

// ResetRequestRequest asks for a password reset mail.
type ResetRequestRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetConfirmRequest redeems a reset token.
type ResetConfirmRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8,max=128"`
}

// AssignmentEntry is one zone occupation line on a merchant payload.
type AssignmentEntry struct {
	ZoneID  uuid.UUID `json:"zone_id" binding:"required"`
	Meters  float64   `json:"meters" binding:"required,gt=0"`
	WorkDay string    `json:"work_day" binding:"required,max=20"`
	Cost    int64     `json:"cost" binding:"gte=0"`
}

// MerchantRequest is the request body for creating or updating a merchant.
// Assignments replace the existing set wholesale.
type MerchantRequest struct {
	FirstName   string            `json:"first_name" binding:"required,min=1,max=100"`
	LastName    string            `json:"last_name" binding:"max=100"`
	Phone       string            `json:"phone" binding:"omitempty,phone"`
	PhotoURL    *string           `json:"photo_url,omitempty" binding:"omitempty,safe_url"`
	IDPhotoURL  *string           `json:"id_photo_url,omitempty" binding:"omitempty,safe_url"`
	Note        string            `json:"note" binding:"max=1000"`
	TotalDebt   int64             `json:"total_debt" binding:"gte=0"`
	Assignments []AssignmentEntry `json:"zone_assignments" binding:"dive"`
}

// ToInput converts the payload to the service input type.
func (r *MerchantRequest) ToInput() ports.MerchantInput {
	in := ports.MerchantInput{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Phone:      r.Phone,
		PhotoURL:   r.PhotoURL,
		IDPhotoURL: r.IDPhotoURL,
		Note:       r.Note,
		TotalDebt:  r.TotalDebt,
	}
	for _, a := range r.Assignments {
		in.Assignments = append(in.Assignments, ports.AssignmentInput{
			ZoneID:  a.ZoneID,
			Meters:  a.Meters,
			WorkDay: a.WorkDay,
			Cost:    a.Cost,
		})
	}
	return in
}

// ReadyForAdminRequest flags a merchant file for admin pickup.
type ReadyForAdminRequest struct {
	Ready *bool `json:"ready" binding:"required"`
}

// ConfirmReceiptsRequest marks a batch of merchant files as received.
type ConfirmReceiptsRequest struct {
	MerchantIDs []uuid.UUID `json:"merchant_ids" binding:"required,min=1,max=500"`
}

// MerchantResponse is a merchant with its derived status.
type MerchantResponse struct {
	ID              uuid.UUID          `json:"id"`
	FirstName       string             `json:"first_name"`
	LastName        string             `json:"last_name"`
	Phone           string             `json:"phone"`
	PhotoURL        *string            `json:"photo_url,omitempty"`
	IDPhotoURL      *string            `json:"id_photo_url,omitempty"`
	Note            string             `json:"note,omitempty"`
	TotalDebt       int64              `json:"total_debt"`
	Balance         int64              `json:"balance"`
	Status          string             `json:"status"`
	ReadyForAdmin   bool               `json:"ready_for_admin"`
	AdminReceived   bool               `json:"admin_received"`
	AdminReceivedAt *time.Time         `json:"admin_received_at,omitempty"`
	DeliveryCount   int                `json:"delivery_count"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Assignments     []AssignmentDetail `json:"zone_assignments"`
}

// AssignmentDetail is a stored zone assignment on a merchant response.
type AssignmentDetail struct {
	ID      uuid.UUID `json:"id"`
	ZoneID  uuid.UUID `json:"zone_id"`
	Meters  float64   `json:"meters"`
	WorkDay string    `json:"work_day"`
	Cost    int64     `json:"cost"`
}

// FromMerchant maps a domain merchant onto the response shape.
func FromMerchant(m *domain.Merchant) MerchantResponse {
	resp := MerchantResponse{
		ID:              m.ID,
		FirstName:       m.FirstName,
		LastName:        m.LastName,
		Phone:           m.Phone,
		PhotoURL:        m.PhotoURL,
		IDPhotoURL:      m.IDPhotoURL,
		Note:            m.Note,
		TotalDebt:       m.TotalDebt,
		Balance:         m.Balance,
		Status:          string(m.Status()),
		ReadyForAdmin:   m.ReadyForAdmin,
		AdminReceived:   m.AdminReceived,
		AdminReceivedAt: m.AdminReceivedAt,
		DeliveryCount:   m.DeliveryCount,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Assignments:     []AssignmentDetail{},
	}
	for _, a := range m.Assignments {
		resp.Assignments = append(resp.Assignments, AssignmentDetail{
			ID:      a.ID,
			ZoneID:  a.ZoneID,
			Meters:  a.Meters,
			WorkDay: a.WorkDay,
			Cost:    a.Cost,
		})
	}
	return resp
}

// MerchantListResponse wraps a paginated merchant list.
type MerchantListResponse struct {
	Items      []MerchantResponse `json:"items"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// NewMerchantListResponse builds the pagination envelope.
func NewMerchantListResponse(merchants []domain.Merchant, total int64, page, pageSize int) MerchantListResponse {
	items := make([]MerchantResponse, 0, len(merchants))
	for i := range merchants {
		items = append(items, FromMerchant(&merchants[i]))
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return MerchantListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}
}

// AbonoRequest is the request body for recording a payment.
type AbonoRequest struct {
	Amount         int64  `json:"amount" binding:"required,gt=0"`
	IdempotencyKey string `json:"idempotency_key" binding:"omitempty,safe_id,max=100"`
}

// AbonoResponse is a recorded payment.
type AbonoResponse struct {
	ID         uuid.UUID `json:"id"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Amount     int64     `json:"amount"`
	RecordedBy uuid.UUID `json:"recorded_by"`
	Archived   bool      `json:"archived"`
	CreatedAt  time.Time `json:"created_at"`
}

// FromAbono maps a domain abono onto the response shape.
func FromAbono(a *domain.Abono) AbonoResponse {
	return AbonoResponse{
		ID:         a.ID,
		MerchantID: a.MerchantID,
		Amount:     a.Amount,
		RecordedBy: a.RecordedBy,
		Archived:   a.Archived,
		CreatedAt:  a.CreatedAt,
	}
}

// CloseCycleRequest archives current payments and sets the next cycle's debt.
type CloseCycleRequest struct {
	NewDebt *int64 `json:"new_debt" binding:"required,gte=0"`
}

// ZoneRequest is the request body for creating or updating a zone.
type ZoneRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=100"`
	RatePerMeter int64  `json:"rate_per_meter" binding:"gte=0"`
}

// ProfileResponse is a staff account without credentials.
type ProfileResponse struct {
	ID            uuid.UUID   `json:"id"`
	Email         string      `json:"email"`
	DisplayName   string      `json:"display_name"`
	Role          string      `json:"role"`
	AssignedZones []uuid.UUID `json:"assigned_zones"`
	CanCollect    bool        `json:"can_collect"`
	CreatedAt     time.Time   `json:"created_at"`
}

// FromProfile maps a domain profile onto the response shape.
func FromProfile(p *domain.Profile) ProfileResponse {
	zones := p.AssignedZones
	if zones == nil {
		zones = []uuid.UUID{}
	}
	return ProfileResponse{
		ID:            p.ID,
		Email:         p.Email,
		DisplayName:   p.DisplayName,
		Role:          string(p.Role),
		AssignedZones: zones,
		CanCollect:    p.CanCollect,
		CreatedAt:     p.CreatedAt,
	}
}

// ProvisionRequest creates a staff account.
type ProvisionRequest struct {
	Email       string `json:"email" binding:"required,email"`
	DisplayName string `json:"display_name" binding:"required,min=1,max=100"`
	Password    string `json:"password" binding:"required,min=8,max=128"`
	Role        string `json:"role" binding:"required,oneof=ADMIN SECRETARY DELEGATE"`
}

// ProfileUpdateRequest patches a staff account. Absent fields keep their
// stored value; AssignedZones replaces the set when present.
type ProfileUpdateRequest struct {
	DisplayName   *string      `json:"display_name,omitempty" binding:"omitempty,min=1,max=100"`
	Role          *string      `json:"role,omitempty" binding:"omitempty,oneof=ADMIN SECRETARY DELEGATE"`
	AssignedZones *[]uuid.UUID `json:"assigned_zones,omitempty"`
	CanCollect    *bool        `json:"can_collect,omitempty"`
}

// ToUpdate converts the payload to the service patch type.
func (r *ProfileUpdateRequest) ToUpdate() ports.ProfileUpdate {
	upd := ports.ProfileUpdate{
		DisplayName: r.DisplayName,
		CanCollect:  r.CanCollect,
	}
	if r.Role != nil {
		role := domain.Role(*r.Role)
		upd.Role = &role
	}
	if r.AssignedZones != nil {
		upd.AssignedZones = *r.AssignedZones
	}
	return upd
}

// SettingsRequest is the request body for updating global settings.
type SettingsRequest struct {
	LogoURL             *string `json:"logo_url,omitempty" binding:"omitempty,safe_url"`
	DelegatesCanCollect bool    `json:"delegates_can_collect"`
}
