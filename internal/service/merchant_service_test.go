package service

import (
	"context"
	"testing"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/internal/core/ports/mocks"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type merchantTestDeps struct {
	svc          *MerchantServiceImpl
	merchantRepo *mocks.MockMerchantRepository
	zoneRepo     *mocks.MockZoneRepository
	statsCache   *mocks.MockStatsCache
	transactor   *mocks.MockDBTransactor
	ctrl         *gomock.Controller
}

func setupMerchantService(t *testing.T) *merchantTestDeps {
	ctrl := gomock.NewController(t)
	d := &merchantTestDeps{
		merchantRepo: mocks.NewMockMerchantRepository(ctrl),
		zoneRepo:     mocks.NewMockZoneRepository(ctrl),
		statsCache:   mocks.NewMockStatsCache(ctrl),
		transactor:   mocks.NewMockDBTransactor(ctrl),
		ctrl:         ctrl,
	}
	audit := mocks.NewMockAuditService(ctrl)
	audit.EXPECT().Log(gomock.Any(), gomock.Any()).AnyTimes()
	d.svc = NewMerchantService(
		d.merchantRepo, d.zoneRepo, d.statsCache, d.transactor, audit, zerolog.Nop(),
	)
	return d
}

// trackingTx records commit/rollback so aborted saves can be asserted.
type trackingTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (m *trackingTx) Commit(_ context.Context) error   { m.committed = true; return nil }
func (m *trackingTx) Rollback(_ context.Context) error { m.rolledBack = true; return nil }

// ==================== List Tests ====================

func TestMerchantService_List_NormalizesPaging(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.merchantRepo.EXPECT().
		List(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
			assert.Equal(t, 0, params.Page)
			assert.Equal(t, 20, params.PageSize)
			return []domain.Merchant{}, 0, nil
		})

	_, _, err := d.svc.List(ctx, ports.MerchantListParams{
		Viewer:   ports.Viewer{Role: domain.RoleAdmin},
		Page:     -3,
		PageSize: 0,
	})
	require.NoError(t, err)
}

func TestMerchantService_List_DelegateWithoutZonesShortCircuits(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	// No repository call at all.
	merchants, total, err := d.svc.List(context.Background(), ports.MerchantListParams{
		Viewer: ports.Viewer{ID: uuid.New(), Role: domain.RoleDelegate},
	})
	require.NoError(t, err)
	assert.Empty(t, merchants)
	assert.Zero(t, total)
}

// ==================== Get Tests ====================

func TestMerchantService_Get_DelegateOutsideZones(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	viewer := ports.Viewer{
		ID:            uuid.New(),
		Role:          domain.RoleDelegate,
		AssignedZones: []uuid.UUID{uuid.New()},
	}

	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(&domain.Merchant{
		ID: id,
		Assignments: []domain.ZoneAssignment{
			{ZoneID: uuid.New()}, // different zone
		},
	}, nil)

	_, err := d.svc.Get(ctx, viewer, id)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestMerchantService_Get_DelegateInsideZones(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	sharedZone := uuid.New()
	viewer := ports.Viewer{
		ID:            uuid.New(),
		Role:          domain.RoleDelegate,
		AssignedZones: []uuid.UUID{sharedZone, uuid.New()},
	}

	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(&domain.Merchant{
		ID: id,
		Assignments: []domain.ZoneAssignment{
			{ZoneID: sharedZone},
		},
	}, nil)

	merchant, err := d.svc.Get(ctx, viewer, id)
	require.NoError(t, err)
	assert.Equal(t, id, merchant.ID)
}

func TestMerchantService_Get_NotFound(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := d.svc.Get(ctx, ports.Viewer{Role: domain.RoleAdmin}, id)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REG_001", appErr.Code)
}

// ==================== Create Tests ====================

func TestMerchantService_Create_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	zoneID := uuid.New()
	tx := &mockTx{}

	d.zoneRepo.EXPECT().GetByID(ctx, zoneID).Return(&domain.Zone{ID: zoneID, Name: "North Market"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.merchantRepo.EXPECT().Create(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, m *domain.Merchant) error {
			assert.Equal(t, "Amina", m.FirstName)
			assert.Equal(t, int64(120000), m.TotalDebt)
			// Balance starts equal to the debt until the trigger sees abonos.
			assert.Equal(t, int64(120000), m.Balance)
			return nil
		})
	d.merchantRepo.EXPECT().ReplaceAssignments(ctx, tx, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, _ uuid.UUID, assignments []domain.ZoneAssignment) error {
			require.Len(t, assignments, 1)
			assert.Equal(t, zoneID, assignments[0].ZoneID)
			return nil
		})
	d.statsCache.EXPECT().Invalidate(ctx).Return(nil)

	merchant, err := d.svc.Create(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleSecretary}, ports.MerchantInput{
		FirstName: "Amina",
		TotalDebt: 120000,
		Assignments: []ports.AssignmentInput{
			{ZoneID: zoneID, Meters: 3.5, WorkDay: "MONDAY", Cost: 40000},
		},
	})
	require.NoError(t, err)
	assert.Len(t, merchant.Assignments, 1)
	assert.Equal(t, domain.MerchantStatusPending, merchant.Status())
}

func TestMerchantService_Create_AssignmentFailureAbortsInsert(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	zoneID := uuid.New()
	tx := &trackingTx{}

	d.zoneRepo.EXPECT().GetByID(ctx, zoneID).Return(&domain.Zone{ID: zoneID}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.merchantRepo.EXPECT().Create(ctx, tx, gomock.Any()).Return(nil)
	d.merchantRepo.EXPECT().ReplaceAssignments(ctx, tx, gomock.Any(), gomock.Any()).Return(assert.AnError)

	_, err := d.svc.Create(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, ports.MerchantInput{
		FirstName: "Amina",
		TotalDebt: 120000,
		Assignments: []ports.AssignmentInput{
			{ZoneID: zoneID, Meters: 3.5, WorkDay: "MONDAY", Cost: 40000},
		},
	})
	require.Error(t, err)
	// The merchant insert shares the assignments' transaction, so the
	// failed save must not commit it.
	assert.False(t, tx.committed)
	assert.True(t, tx.rolledBack)
}

func TestMerchantService_Create_DelegateForbidden(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.Create(context.Background(), ports.Viewer{ID: uuid.New(), Role: domain.RoleDelegate}, ports.MerchantInput{
		FirstName: "Amina",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestMerchantService_Create_UnknownZoneRejected(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	zoneID := uuid.New()
	d.zoneRepo.EXPECT().GetByID(ctx, zoneID).Return(nil, nil)

	_, err := d.svc.Create(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, ports.MerchantInput{
		FirstName: "Amina",
		Assignments: []ports.AssignmentInput{
			{ZoneID: zoneID, Meters: 2, WorkDay: "MONDAY"},
		},
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REG_002", appErr.Code)
}

func TestMerchantService_Create_InvalidInput(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	viewer := ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}
	cases := []ports.MerchantInput{
		{FirstName: ""},                   // missing name
		{FirstName: "A", TotalDebt: -1},   // negative debt
		{FirstName: "A", Assignments: []ports.AssignmentInput{{ZoneID: uuid.New(), Meters: 0}}},  // zero meters
		{FirstName: "A", Assignments: []ports.AssignmentInput{{ZoneID: uuid.New(), Meters: 1, Cost: -5}}}, // negative cost
	}
	for _, input := range cases {
		_, err := d.svc.Create(context.Background(), viewer, input)
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "REG_002", appErr.Code)
	}
}

// ==================== Update Tests ====================

func TestMerchantService_Update_ReplacesAssignmentsWholesale(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	zoneID := uuid.New()
	tx := &mockTx{}

	existing := &domain.Merchant{
		ID:        id,
		FirstName: "Amina",
		TotalDebt: 100000,
		Balance:   60000,
		Assignments: []domain.ZoneAssignment{
			{ID: uuid.New(), ZoneID: uuid.New()},
			{ID: uuid.New(), ZoneID: uuid.New()},
		},
	}

	d.zoneRepo.EXPECT().GetByID(ctx, zoneID).Return(&domain.Zone{ID: zoneID}, nil)
	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(existing, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.merchantRepo.EXPECT().Update(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, m *domain.Merchant) error {
			assert.Equal(t, "Amina Updated", m.FirstName)
			assert.Equal(t, int64(150000), m.TotalDebt)
			return nil
		})
	d.merchantRepo.EXPECT().ReplaceAssignments(ctx, tx, id, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, _ uuid.UUID, assignments []domain.ZoneAssignment) error {
			// Two old entries replaced by one new.
			require.Len(t, assignments, 1)
			assert.Equal(t, zoneID, assignments[0].ZoneID)
			return nil
		})
	d.statsCache.EXPECT().Invalidate(ctx).Return(nil)
	// Refetch reflects the trigger's balance recomputation.
	refetched := &domain.Merchant{ID: id, FirstName: "Amina Updated", TotalDebt: 150000, Balance: 110000}
	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(refetched, nil)

	merchant, err := d.svc.Update(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, id, ports.MerchantInput{
		FirstName: "Amina Updated",
		TotalDebt: 150000,
		Assignments: []ports.AssignmentInput{
			{ZoneID: zoneID, Meters: 4, WorkDay: "FRIDAY", Cost: 50000},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(110000), merchant.Balance)
}

func TestMerchantService_Update_GoneAfterCommit(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	tx := &mockTx{}

	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(&domain.Merchant{ID: id, FirstName: "Amina"}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.merchantRepo.EXPECT().Update(ctx, tx, gomock.Any()).Return(nil)
	d.merchantRepo.EXPECT().ReplaceAssignments(ctx, tx, id, gomock.Any()).Return(nil)
	d.statsCache.EXPECT().Invalidate(ctx).Return(nil)
	// Deleted by another admin between commit and refetch.
	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(nil, nil)

	_, err := d.svc.Update(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, id, ports.MerchantInput{
		FirstName: "Amina",
	})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REG_001", appErr.Code)
}

// ==================== Delete Tests ====================

func TestMerchantService_Delete_AdminOnly(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	err := d.svc.Delete(context.Background(), ports.Viewer{ID: uuid.New(), Role: domain.RoleSecretary}, uuid.New())
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}

func TestMerchantService_Delete_Success(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	d.merchantRepo.EXPECT().Delete(ctx, id).Return(nil)
	d.statsCache.EXPECT().Invalidate(ctx).Return(nil)

	require.NoError(t, d.svc.Delete(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, id))
}

// ==================== SetReadyForAdmin Tests ====================

func TestMerchantService_SetReadyForAdmin_DelegateScope(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	id := uuid.New()
	zoneID := uuid.New()
	tx := &mockTx{}
	viewer := ports.Viewer{
		ID:            uuid.New(),
		Role:          domain.RoleDelegate,
		AssignedZones: []uuid.UUID{zoneID},
	}

	d.merchantRepo.EXPECT().GetByID(ctx, id).Return(&domain.Merchant{
		ID:          id,
		Assignments: []domain.ZoneAssignment{{ZoneID: zoneID}},
	}, nil)
	d.transactor.EXPECT().Begin(ctx).Return(tx, nil)
	d.merchantRepo.EXPECT().Update(ctx, tx, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ pgx.Tx, m *domain.Merchant) error {
			assert.True(t, m.ReadyForAdmin)
			return nil
		})

	require.NoError(t, d.svc.SetReadyForAdmin(ctx, viewer, id, true))
}

// ==================== ConfirmReceipts Tests ====================

func TestMerchantService_ConfirmReceipts_PartialFailure(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	ctx := context.Background()
	okID, failID := uuid.New(), uuid.New()

	d.merchantRepo.EXPECT().
		ConfirmReceipt(ctx, okID, gomock.AssignableToTypeOf(time.Time{})).
		Return(nil)
	d.merchantRepo.EXPECT().
		ConfirmReceipt(ctx, failID, gomock.AssignableToTypeOf(time.Time{})).
		Return(assert.AnError)

	result, err := d.svc.ConfirmReceipts(ctx, ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, []uuid.UUID{okID, failID})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{okID}, result.Confirmed)
	assert.Equal(t, []uuid.UUID{failID}, result.Failed)
}

func TestMerchantService_ConfirmReceipts_EmptyBatchRejected(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.ConfirmReceipts(context.Background(), ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin}, nil)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "REG_002", appErr.Code)
}

func TestMerchantService_ConfirmReceipts_NonAdminForbidden(t *testing.T) {
	d := setupMerchantService(t)
	defer d.ctrl.Finish()

	_, err := d.svc.ConfirmReceipts(context.Background(), ports.Viewer{ID: uuid.New(), Role: domain.RoleDelegate}, []uuid.UUID{uuid.New()})
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "AUTH_003", appErr.Code)
}
