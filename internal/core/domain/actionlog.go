package domain

import (
	"time"

	"github.com/google/uuid"
)

// ActionType identifies an audited or compensable action.
type ActionType string

const (
	ActionLogin           ActionType = "LOGIN"
	ActionPasswordReset   ActionType = "PASSWORD_RESET"
	ActionMerchantCreate  ActionType = "MERCHANT_CREATE"
	ActionMerchantUpdate  ActionType = "MERCHANT_UPDATE"
	ActionMerchantDelete  ActionType = "MERCHANT_DELETE"
	ActionAbonoRecord     ActionType = "ABONO_RECORD"
	ActionCycleClose      ActionType = "CYCLE_CLOSE"
	ActionReceiptConfirm  ActionType = "RECEIPT_CONFIRM"
	ActionSnapshotRestore ActionType = "SNAPSHOT_RESTORE"
	ActionZoneCreate      ActionType = "ZONE_CREATE"
	ActionZoneUpdate      ActionType = "ZONE_UPDATE"
	ActionZoneDelete      ActionType = "ZONE_DELETE"
	ActionProfileUpdate   ActionType = "PROFILE_UPDATE"
	ActionSettingsUpdate  ActionType = "SETTINGS_UPDATE"
	ActionAccessDenied    ActionType = "ACCESS_DENIED"
)

// Action outcomes. Non-transactional batches (receipt confirmation, snapshot
// restore) write one row per step so a failed batch can be diagnosed and
// retried instead of silently leaving mixed state.
const (
	OutcomeOK     = "OK"
	OutcomeFailed = "FAILED"
)

// ActionLog records a single action in the system, serving both as an audit
// trail and as the compensation log for non-atomic multi-step writes.
type ActionLog struct {
	ID           uuid.UUID  `json:"id"`
	ActorID      *uuid.UUID `json:"actor_id,omitempty"`
	Action       ActionType `json:"action"`
	ResourceType string     `json:"resource_type"`
	ResourceID   string     `json:"resource_id,omitempty"`
	Outcome      string     `json:"outcome"`
	Details      string     `json:"details,omitempty"` // JSON string
	IPAddress    string     `json:"ip_address,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}
