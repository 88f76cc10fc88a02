package ports

import (
	"context"
	"time"

	"merchant-collections/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Viewer is the authentication context threaded through every scoped
// operation. It replaces any notion of ambient session state: whoever calls
// a facade operation says explicitly who is asking.
type Viewer struct {
	ID            uuid.UUID
	Role          domain.Role
	AssignedZones []uuid.UUID
	CanCollect    bool
}

// IsAdmin reports whether the viewer holds the ADMIN role.
func (v Viewer) IsAdmin() bool { return v.Role == domain.RoleAdmin }

// MerchantListParams holds search, filter and pagination for merchant listing.
// Page is zero-based. Role scoping from Viewer is applied before pagination.
type MerchantListParams struct {
	Viewer   Viewer
	Search   string
	Status   *domain.MerchantStatus
	Page     int
	PageSize int
}

// MerchantRepository defines persistence operations for merchants.
// Methods accepting pgx.Tx run inside multi-statement transaction blocks.
type MerchantRepository interface {
	Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error)
	Update(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error
	Delete(ctx context.Context, id uuid.UUID) error
	// List returns one page (created_at DESC) plus the exact total count.
	List(ctx context.Context, params MerchantListParams) ([]domain.Merchant, int64, error)
	ListAssignments(ctx context.Context, merchantID uuid.UUID) ([]domain.ZoneAssignment, error)
	// ReplaceAssignments deletes all assignments for the merchant and
	// re-inserts the given set. There is no partial-update path.
	ReplaceAssignments(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, assignments []domain.ZoneAssignment) error
	// ConfirmReceipt flips the handoff flags and increments delivery_count
	// for a single merchant. Batch confirmation applies this per id.
	ConfirmReceipt(ctx context.Context, id uuid.UUID, receivedAt time.Time) error
	// SetDebt sets a new total debt; the balance trigger recomputes from it.
	SetDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID, newDebt int64) error
}

// ZoneRepository defines persistence operations for zones.
type ZoneRepository interface {
	Create(ctx context.Context, z *domain.Zone) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Zone, error)
	List(ctx context.Context) ([]domain.Zone, error)
	Update(ctx context.Context, z *domain.Zone) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// AbonoRepository defines persistence operations for the payment ledger.
type AbonoRepository interface {
	// Create inserts an immutable ledger row. The database trigger owns the
	// merchant balance recomputation; callers refetch after commit.
	Create(ctx context.Context, tx pgx.Tx, a *domain.Abono) error
	ListByMerchant(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]domain.Abono, error)
	// ListDetailed returns abonos joined with merchant and collector names
	// for the collections reports.
	ListDetailed(ctx context.Context, from, to time.Time, recordedBy *uuid.UUID) ([]domain.AbonoDetail, error)
	// ArchiveByMerchant flags all non-archived abonos, returning the count.
	ArchiveByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error)
}

// ProfileRepository defines persistence operations for staff accounts.
type ProfileRepository interface {
	Create(ctx context.Context, p *domain.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetByEmail(ctx context.Context, email string) (*domain.Profile, error)
	List(ctx context.Context) ([]domain.Profile, error)
	Update(ctx context.Context, p *domain.Profile) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

// SettingsRepository accesses the single global settings record.
type SettingsRepository interface {
	Get(ctx context.Context) (*domain.Settings, error)
	Update(ctx context.Context, s *domain.Settings) error
}

// SnapshotRepository performs the full-table dumps and upserts behind the
// backup/restore protocol. Upserts are insert-or-update by primary key.
type SnapshotRepository interface {
	DumpMerchants(ctx context.Context) ([]domain.Merchant, error)
	DumpZones(ctx context.Context) ([]domain.Zone, error)
	DumpAbonos(ctx context.Context) ([]domain.Abono, error)
	DumpAssignments(ctx context.Context) ([]domain.ZoneAssignment, error)
	UpsertZones(ctx context.Context, zones []domain.Zone) error
	UpsertMerchants(ctx context.Context, merchants []domain.Merchant) error
	UpsertAssignments(ctx context.Context, assignments []domain.ZoneAssignment) error
	UpsertAbonos(ctx context.Context, abonos []domain.Abono) error
}

// StatsRepository exposes the server-side dashboard aggregate.
type StatsRepository interface {
	DashboardStats(ctx context.Context) (*DashboardStats, error)
}

// DashboardStats is the pre-aggregated dashboard statistics object.
type DashboardStats struct {
	TotalMerchants int64 `json:"total_merchants"`
	TotalDebt      int64 `json:"total_debt"`
	TotalBalance   int64 `json:"total_balance"`
	TotalCollected int64 `json:"total_collected"`
}

// ActionLogRepository persists audit/compensation log entries.
type ActionLogRepository interface {
	Create(ctx context.Context, entry *domain.ActionLog) error
}

// ReceiptRepository defines persistence for payment idempotency receipts
// (the durable layer backing the Redis fast path).
type ReceiptRepository interface {
	Create(ctx context.Context, tx pgx.Tx, receipt *domain.PaymentReceipt) error
	Get(ctx context.Context, key string) (*domain.PaymentReceipt, error)
}

// DBTransactor provides database transaction management.
type DBTransactor interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
