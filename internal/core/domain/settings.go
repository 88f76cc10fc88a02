package domain

import "time"

// Settings is the single global configuration record.
type Settings struct {
	LogoURL             *string   `json:"logo_url,omitempty"`
	DelegatesCanCollect bool      `json:"delegates_can_collect"`
	UpdatedAt           time.Time `json:"updated_at"`
}
