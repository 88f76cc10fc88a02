package ports

import (
	"context"
	"time"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
)

// HashService handles password hashing (Argon2id).
type HashService interface {
	Hash(password string) (string, error)
	Verify(password string, hash string) (bool, error)
}

// TokenService handles JWT session token operations.
type TokenService interface {
	Generate(userID uuid.UUID, role domain.Role) (string, time.Time, error)
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims holds the parsed JWT claims.
type TokenClaims struct {
	UserID uuid.UUID
	Role   domain.Role
}

// ResetTokenStore manages one-shot password reset tokens.
type ResetTokenStore interface {
	// Issue stores a token bound to the user with a TTL.
	Issue(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	// Consume atomically fetches and deletes the token's user binding.
	// Returns uuid.Nil with nil error if the token is unknown or spent.
	Consume(ctx context.Context, token string) (uuid.UUID, error)
}

// Mailer dispatches account mail. The default implementation only logs;
// a real SMTP gateway is deployment configuration, not business logic.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, token string) error
}

// IdempotencyCache is the Redis-layer payment dedupe check (fast path).
type IdempotencyCache interface {
	Get(ctx context.Context, key string) ([]byte, error) // nil, nil on miss
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// StatsCache caches the dashboard aggregate for a short TTL.
type StatsCache interface {
	Get(ctx context.Context) (*DashboardStats, error) // nil, nil on miss
	Set(ctx context.Context, stats *DashboardStats, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// --- Service Ports (Business Logic) ---

// AuthService defines staff authentication.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, token, newPassword string) error
}

// LoginResult is a successful sign-in.
type LoginResult struct {
	Token   string
	Expiry  time.Time
	Profile *domain.Profile
}

// MerchantInput holds validated input for creating or saving a merchant.
type MerchantInput struct {
	FirstName   string
	LastName    string
	Phone       string
	PhotoURL    *string
	IDPhotoURL  *string
	Note        string
	TotalDebt   int64
	Assignments []AssignmentInput
}

// AssignmentInput is one (zone, meters, work day, cost) entry.
type AssignmentInput struct {
	ZoneID  uuid.UUID
	Meters  float64
	WorkDay string
	Cost    int64
}

// BatchReceiptResult reports a per-id batch outcome. The batch is
// at-least-attempted, never atomic: callers may retry Failed ids.
type BatchReceiptResult struct {
	Confirmed []uuid.UUID `json:"confirmed"`
	Failed    []uuid.UUID `json:"failed"`
}

// MerchantService defines registry business logic.
type MerchantService interface {
	List(ctx context.Context, params MerchantListParams) ([]domain.Merchant, int64, error)
	Get(ctx context.Context, viewer Viewer, id uuid.UUID) (*domain.Merchant, error)
	Create(ctx context.Context, viewer Viewer, input MerchantInput) (*domain.Merchant, error)
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, input MerchantInput) (*domain.Merchant, error)
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error
	SetReadyForAdmin(ctx context.Context, viewer Viewer, id uuid.UUID, ready bool) error
	ConfirmReceipts(ctx context.Context, viewer Viewer, ids []uuid.UUID) (*BatchReceiptResult, error)
}

// AbonoRequest holds validated input for payment recording.
type AbonoRequest struct {
	MerchantID     uuid.UUID
	Amount         int64
	Viewer         Viewer
	IdempotencyKey string // Optional client dedupe key
}

// CloseCycleRequest starts a new billing cycle for one merchant.
type CloseCycleRequest struct {
	MerchantID uuid.UUID
	NewDebt    int64
	Viewer     Viewer
}

// PaymentService defines the collections ledger business logic.
type PaymentService interface {
	RecordAbono(ctx context.Context, req AbonoRequest) (*domain.Abono, error)
	ListAbonos(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]domain.Abono, error)
	// CloseCycle archives current payments and resets the debt. Returns the
	// merchant as refetched after the trigger recomputed its balance.
	CloseCycle(ctx context.Context, req CloseCycleRequest) (*domain.Merchant, error)
}

// ZoneService defines zone registry business logic.
type ZoneService interface {
	List(ctx context.Context) ([]domain.Zone, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Zone, error)
	Create(ctx context.Context, viewer Viewer, name string, ratePerMeter int64) (*domain.Zone, error)
	Update(ctx context.Context, viewer Viewer, id uuid.UUID, name string, ratePerMeter int64) (*domain.Zone, error)
	Delete(ctx context.Context, viewer Viewer, id uuid.UUID) error
}

// SnapshotService defines the backup/restore protocol.
type SnapshotService interface {
	Export(ctx context.Context) (*domain.Snapshot, error)
	Restore(ctx context.Context, viewer Viewer, snap *domain.Snapshot) (*domain.RestoreResult, error)
}

// ReportingService defines dashboard and CSV export logic.
type ReportingService interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	// CollectionsCSV lists abonos in [from, to] with merchant and collector.
	CollectionsCSV(ctx context.Context, from, to time.Time) ([]byte, error)
	// CensusCSV is the full merchant census, UTF-8 with BOM.
	CensusCSV(ctx context.Context) ([]byte, error)
	// CollectorsCSV aggregates collections per staff member in [from, to].
	CollectorsCSV(ctx context.Context, from, to time.Time) ([]byte, error)
}

// DirectoryService manages staff profiles and global settings.
type DirectoryService interface {
	ListProfiles(ctx context.Context) ([]domain.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Provision(ctx context.Context, input ProvisionInput) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, input ProfileUpdate) (*domain.Profile, error)
	GetSettings(ctx context.Context) (*domain.Settings, error)
	UpdateSettings(ctx context.Context, s *domain.Settings) error
}

// ProvisionInput creates a staff account.
type ProvisionInput struct {
	Email       string
	DisplayName string
	Password    string
	Role        domain.Role
}

// ProfileUpdate mutates the administrable fields of a staff account.
type ProfileUpdate struct {
	DisplayName   *string
	Role          *domain.Role
	AssignedZones []uuid.UUID
	CanCollect    *bool
}

// AuditService records action log entries (fire-and-forget).
type AuditService interface {
	Log(ctx context.Context, entry *domain.ActionLog)
}
