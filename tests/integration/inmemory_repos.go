package integration

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// registryState is the shared backing store for all in-memory repos. The
// repos share one state so the abono repo can mimic the database trigger
// that recomputes merchant balances on every ledger write.
type registryState struct {
	mu          sync.RWMutex
	merchants   map[uuid.UUID]*domain.Merchant
	assignments map[uuid.UUID][]domain.ZoneAssignment
	zones       map[uuid.UUID]*domain.Zone
	abonos      map[uuid.UUID]*domain.Abono
	profiles    map[uuid.UUID]*domain.Profile
	receipts    map[string]*domain.PaymentReceipt
	settings    domain.Settings
	logs        []domain.ActionLog
}

func newRegistryState() *registryState {
	return &registryState{
		merchants:   make(map[uuid.UUID]*domain.Merchant),
		assignments: make(map[uuid.UUID][]domain.ZoneAssignment),
		zones:       make(map[uuid.UUID]*domain.Zone),
		abonos:      make(map[uuid.UUID]*domain.Abono),
		profiles:    make(map[uuid.UUID]*domain.Profile),
		receipts:    make(map[string]*domain.PaymentReceipt),
		settings:    domain.Settings{DelegatesCanCollect: true},
	}
}

// recomputeBalance mirrors the abonos trigger: balance = total_debt minus the
// sum of non-archived abonos. Callers must hold the write lock.
func (s *registryState) recomputeBalance(merchantID uuid.UUID) {
	m, ok := s.merchants[merchantID]
	if !ok {
		return
	}
	var paid int64
	for _, a := range s.abonos {
		if a.MerchantID == merchantID && !a.Archived {
			paid += a.Amount
		}
	}
	m.Balance = m.TotalDebt - paid
}

// --- In-Memory Merchant Repo ---

type inMemoryMerchantRepo struct {
	s *registryState
}

func (r *inMemoryMerchantRepo) Create(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *m
	r.s.merchants[m.ID] = &cp
	return nil
}

func (r *inMemoryMerchantRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Merchant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.merchants[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	cp.Assignments = append([]domain.ZoneAssignment(nil), r.s.assignments[id]...)
	return &cp, nil
}

func (r *inMemoryMerchantRepo) Update(ctx context.Context, tx pgx.Tx, m *domain.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.merchants[m.ID]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	existing.FirstName = m.FirstName
	existing.LastName = m.LastName
	existing.Phone = m.Phone
	existing.PhotoURL = m.PhotoURL
	existing.IDPhotoURL = m.IDPhotoURL
	existing.Note = m.Note
	existing.TotalDebt = m.TotalDebt
	existing.ReadyForAdmin = m.ReadyForAdmin
	existing.UpdatedAt = time.Now()
	r.s.recomputeBalance(m.ID)
	return nil
}

func (r *inMemoryMerchantRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.merchants[id]; !ok {
		return fmt.Errorf("merchant not found")
	}
	delete(r.s.merchants, id)
	delete(r.s.assignments, id)
	for aid, a := range r.s.abonos {
		if a.MerchantID == id {
			delete(r.s.abonos, aid)
		}
	}
	return nil
}

func (r *inMemoryMerchantRepo) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inZones := func(merchantID uuid.UUID) bool {
		for _, a := range r.s.assignments[merchantID] {
			for _, z := range params.Viewer.AssignedZones {
				if a.ZoneID == z {
					return true
				}
			}
		}
		return false
	}

	search := strings.ToLower(strings.TrimSpace(params.Search))
	var matched []domain.Merchant
	for _, m := range r.s.merchants {
		switch params.Viewer.Role {
		case domain.RoleDelegate:
			if !inZones(m.ID) {
				continue
			}
		case domain.RoleSecretary:
			if m.Status() != domain.MerchantStatusPaid {
				continue
			}
		}
		if params.Status != nil && m.Status() != *params.Status {
			continue
		}
		if search != "" {
			haystack := strings.ToLower(m.FirstName + " " + m.LastName + " " + m.Phone)
			if !strings.Contains(haystack, search) {
				continue
			}
		}
		cp := *m
		cp.Assignments = append([]domain.ZoneAssignment(nil), r.s.assignments[m.ID]...)
		matched = append(matched, cp)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := params.Page * params.PageSize
	if start >= len(matched) {
		return []domain.Merchant{}, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *inMemoryMerchantRepo) ListAssignments(ctx context.Context, merchantID uuid.UUID) ([]domain.ZoneAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]domain.ZoneAssignment(nil), r.s.assignments[merchantID]...), nil
}

func (r *inMemoryMerchantRepo) ReplaceAssignments(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID, assignments []domain.ZoneAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.assignments[merchantID] = append([]domain.ZoneAssignment(nil), assignments...)
	return nil
}

func (r *inMemoryMerchantRepo) ConfirmReceipt(ctx context.Context, id uuid.UUID, receivedAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.ReadyForAdmin = false
	m.AdminReceived = true
	m.AdminReceivedAt = &receivedAt
	m.DeliveryCount++
	return nil
}

func (r *inMemoryMerchantRepo) SetDebt(ctx context.Context, tx pgx.Tx, id uuid.UUID, newDebt int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.merchants[id]
	if !ok {
		return fmt.Errorf("merchant not found")
	}
	m.TotalDebt = newDebt
	r.s.recomputeBalance(id)
	return nil
}

// --- In-Memory Zone Repo ---

type inMemoryZoneRepo struct {
	s *registryState
}

func (r *inMemoryZoneRepo) Create(ctx context.Context, z *domain.Zone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *z
	r.s.zones[z.ID] = &cp
	return nil
}

func (r *inMemoryZoneRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	z, ok := r.s.zones[id]
	if !ok {
		return nil, nil
	}
	cp := *z
	return &cp, nil
}

func (r *inMemoryZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var zones []domain.Zone
	for _, z := range r.s.zones {
		zones = append(zones, *z)
	}
	sort.Slice(zones, func(i, j int) bool { return zones[i].Name < zones[j].Name })
	return zones, nil
}

func (r *inMemoryZoneRepo) Update(ctx context.Context, z *domain.Zone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[z.ID]; !ok {
		return fmt.Errorf("zone not found")
	}
	cp := *z
	r.s.zones[z.ID] = &cp
	return nil
}

func (r *inMemoryZoneRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.zones[id]; !ok {
		return fmt.Errorf("zone not found")
	}
	delete(r.s.zones, id)
	return nil
}

// --- In-Memory Abono Repo ---

type inMemoryAbonoRepo struct {
	s *registryState
}

func (r *inMemoryAbonoRepo) Create(ctx context.Context, tx pgx.Tx, a *domain.Abono) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *a
	r.s.abonos[a.ID] = &cp
	r.s.recomputeBalance(a.MerchantID)
	return nil
}

func (r *inMemoryAbonoRepo) ListByMerchant(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]domain.Abono, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var abonos []domain.Abono
	for _, a := range r.s.abonos {
		if a.MerchantID != merchantID {
			continue
		}
		if a.Archived && !includeArchived {
			continue
		}
		abonos = append(abonos, *a)
	}
	sort.Slice(abonos, func(i, j int) bool { return abonos[i].CreatedAt.After(abonos[j].CreatedAt) })
	return abonos, nil
}

func (r *inMemoryAbonoRepo) ListDetailed(ctx context.Context, from, to time.Time, recordedBy *uuid.UUID) ([]domain.AbonoDetail, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var details []domain.AbonoDetail
	for _, a := range r.s.abonos {
		if a.CreatedAt.Before(from) || a.CreatedAt.After(to) {
			continue
		}
		if recordedBy != nil && a.RecordedBy != *recordedBy {
			continue
		}
		d := domain.AbonoDetail{Abono: *a}
		if m, ok := r.s.merchants[a.MerchantID]; ok {
			d.MerchantName = m.FullName()
		}
		if p, ok := r.s.profiles[a.RecordedBy]; ok {
			d.CollectorName = p.DisplayName
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].CreatedAt.After(details[j].CreatedAt) })
	return details, nil
}

func (r *inMemoryAbonoRepo) ArchiveByMerchant(ctx context.Context, tx pgx.Tx, merchantID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var count int64
	for _, a := range r.s.abonos {
		if a.MerchantID == merchantID && !a.Archived {
			a.Archived = true
			count++
		}
	}
	r.s.recomputeBalance(merchantID)
	return count, nil
}

// --- In-Memory Profile Repo ---

type inMemoryProfileRepo struct {
	s *registryState
}

func (r *inMemoryProfileRepo) Create(ctx context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.profiles[p.ID] = &cp
	return nil
}

func (r *inMemoryProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *inMemoryProfileRepo) GetByEmail(ctx context.Context, email string) (*domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.profiles {
		if p.Email == email {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *inMemoryProfileRepo) List(ctx context.Context) ([]domain.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var profiles []domain.Profile
	for _, p := range r.s.profiles {
		profiles = append(profiles, *p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].DisplayName < profiles[j].DisplayName })
	return profiles, nil
}

func (r *inMemoryProfileRepo) Update(ctx context.Context, p *domain.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.ID]; !ok {
		return fmt.Errorf("profile not found")
	}
	cp := *p
	r.s.profiles[p.ID] = &cp
	return nil
}

func (r *inMemoryProfileRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return fmt.Errorf("profile not found")
	}
	p.PasswordHash = passwordHash
	return nil
}

// --- In-Memory Settings Repo ---

type inMemorySettingsRepo struct {
	s *registryState
}

func (r *inMemorySettingsRepo) Get(ctx context.Context) (*domain.Settings, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	cp := r.s.settings
	return &cp, nil
}

func (r *inMemorySettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.settings = *s
	return nil
}

// --- In-Memory Receipt Repo ---

type inMemoryReceiptRepo struct {
	s *registryState
}

func (r *inMemoryReceiptRepo) Create(ctx context.Context, tx pgx.Tx, receipt *domain.PaymentReceipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *receipt
	r.s.receipts[receipt.Key] = &cp
	return nil
}

func (r *inMemoryReceiptRepo) Get(ctx context.Context, key string) (*domain.PaymentReceipt, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	receipt, ok := r.s.receipts[key]
	if !ok {
		return nil, nil
	}
	cp := *receipt
	return &cp, nil
}

// --- In-Memory Snapshot Repo ---

type inMemorySnapshotRepo struct {
	s *registryState
}

func (r *inMemorySnapshotRepo) DumpMerchants(ctx context.Context) ([]domain.Merchant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var merchants []domain.Merchant
	for _, m := range r.s.merchants {
		merchants = append(merchants, *m)
	}
	return merchants, nil
}

func (r *inMemorySnapshotRepo) DumpZones(ctx context.Context) ([]domain.Zone, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var zones []domain.Zone
	for _, z := range r.s.zones {
		zones = append(zones, *z)
	}
	return zones, nil
}

func (r *inMemorySnapshotRepo) DumpAbonos(ctx context.Context) ([]domain.Abono, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var abonos []domain.Abono
	for _, a := range r.s.abonos {
		abonos = append(abonos, *a)
	}
	return abonos, nil
}

func (r *inMemorySnapshotRepo) DumpAssignments(ctx context.Context) ([]domain.ZoneAssignment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var assignments []domain.ZoneAssignment
	for _, list := range r.s.assignments {
		assignments = append(assignments, list...)
	}
	return assignments, nil
}

func (r *inMemorySnapshotRepo) UpsertZones(ctx context.Context, zones []domain.Zone) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range zones {
		cp := zones[i]
		r.s.zones[cp.ID] = &cp
	}
	return nil
}

func (r *inMemorySnapshotRepo) UpsertMerchants(ctx context.Context, merchants []domain.Merchant) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range merchants {
		cp := merchants[i]
		cp.Assignments = nil
		r.s.merchants[cp.ID] = &cp
	}
	return nil
}

func (r *inMemorySnapshotRepo) UpsertAssignments(ctx context.Context, assignments []domain.ZoneAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range assignments {
		list := r.s.assignments[a.MerchantID]
		replaced := false
		for i := range list {
			if list[i].ID == a.ID {
				list[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			list = append(list, a)
		}
		r.s.assignments[a.MerchantID] = list
	}
	return nil
}

func (r *inMemorySnapshotRepo) UpsertAbonos(ctx context.Context, abonos []domain.Abono) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	touched := make(map[uuid.UUID]bool)
	for i := range abonos {
		cp := abonos[i]
		r.s.abonos[cp.ID] = &cp
		touched[cp.MerchantID] = true
	}
	for id := range touched {
		r.s.recomputeBalance(id)
	}
	return nil
}

// --- In-Memory Stats Repo ---

type inMemoryStatsRepo struct {
	s *registryState
}

func (r *inMemoryStatsRepo) DashboardStats(ctx context.Context) (*ports.DashboardStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	stats := &ports.DashboardStats{}
	for _, m := range r.s.merchants {
		stats.TotalMerchants++
		stats.TotalDebt += m.TotalDebt
		stats.TotalBalance += m.Balance
	}
	for _, a := range r.s.abonos {
		if !a.Archived {
			stats.TotalCollected += a.Amount
		}
	}
	return stats, nil
}

// --- In-Memory Action Log Repo ---

type inMemoryActionLogRepo struct {
	s *registryState
}

func (r *inMemoryActionLogRepo) Create(ctx context.Context, entry *domain.ActionLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.logs = append(r.s.logs, *entry)
	return nil
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx is a no-op pgx.Tx implementation for in-memory testing.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
