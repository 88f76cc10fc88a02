package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"merchant-collections/internal/adapter/http/dto"
	"merchant-collections/internal/adapter/http/middleware"
	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/internal/core/ports/mocks"
	"merchant-collections/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestContext(t *testing.T, method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, path, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func setViewer(c *gin.Context, viewer ports.Viewer) {
	c.Set(middleware.CtxUserID, viewer.ID)
	c.Set(middleware.CtxRole, viewer.Role)
	c.Set(middleware.CtxViewer, viewer)
}

func adminViewer() ports.Viewer {
	return ports.Viewer{ID: uuid.New(), Role: domain.RoleAdmin, CanCollect: true}
}

// --- Auth Handler Tests ---

func TestLogin_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	profile := &domain.Profile{
		ID:          uuid.New(),
		Email:       "sonia@example.com",
		DisplayName: "Sonia",
		Role:        domain.RoleSecretary,
	}
	expiry := time.Now().Add(time.Hour)
	mockAuth.EXPECT().
		Login(gomock.Any(), "sonia@example.com", "password123").
		Return(&ports.LoginResult{Token: "jwt-token", Expiry: expiry, Profile: profile}, nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "sonia@example.com",
		Password: "password123",
	})
	h.Login(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "jwt-token", data["token"])
	assert.Equal(t, float64(expiry.Unix()), data["expiry"])
	assert.Equal(t, "Sonia", data["profile"].(map[string]interface{})["display_name"])
}

func TestLogin_ValidationError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewAuthHandler(mocks.NewMockAuthService(ctrl))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/login", gin.H{"email": "not-an-email"})
	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_BadCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().
		Login(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrInvalidCredentials())

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/login", dto.LoginRequest{
		Email:    "sonia@example.com",
		Password: "wrong",
	})
	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestPasswordReset_AlwaysOK(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	// Unknown address still yields 200; the service swallows the miss.
	mockAuth.EXPECT().
		RequestPasswordReset(gomock.Any(), "ghost@example.com").
		Return(nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/reset/request", dto.ResetRequestRequest{
		Email: "ghost@example.com",
	})
	h.RequestPasswordReset(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfirmPasswordReset_SpentToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockAuth := mocks.NewMockAuthService(ctrl)
	h := NewAuthHandler(mockAuth)

	mockAuth.EXPECT().
		ConfirmPasswordReset(gomock.Any(), "spent-token", "newpassword1").
		Return(apperror.ErrResetTokenInvalid())

	c, w := newTestContext(t, http.MethodPost, "/api/v1/auth/reset/confirm", dto.ResetConfirmRequest{
		Token:       "spent-token",
		NewPassword: "newpassword1",
	})
	h.ConfirmPasswordReset(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// --- Merchant Handler Tests ---

func TestMerchantList_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockSvc)
	viewer := adminViewer()

	merchants := []domain.Merchant{
		{ID: uuid.New(), FirstName: "Amina", TotalDebt: 1000, Balance: 500},
		{ID: uuid.New(), FirstName: "Karim", TotalDebt: 800, Balance: 0},
	}
	mockSvc.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
			assert.Equal(t, viewer.ID, params.Viewer.ID)
			assert.Equal(t, "ami", params.Search)
			// Query page 2 is the second page, so the zero-based index 1.
			assert.Equal(t, 1, params.Page)
			assert.Equal(t, 10, params.PageSize)
			return merchants, 12, nil
		})

	c, w := newTestContext(t, http.MethodGet, "/api/v1/merchants?search=ami&page=2&page_size=10", nil)
	setViewer(c, viewer)
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(12), data["total"])
	assert.Equal(t, float64(2), data["total_pages"])
	items := data["items"].([]interface{})
	require.Len(t, items, 2)
	assert.Equal(t, "PARTIAL", items[0].(map[string]interface{})["status"])
	assert.Equal(t, "PAID", items[1].(map[string]interface{})["status"])
}

func TestMerchantList_DefaultPageIsFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockSvc)

	mockSvc.EXPECT().
		List(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
			// No page param means the first page, offset zero.
			assert.Equal(t, 0, params.Page)
			assert.Equal(t, 20, params.PageSize)
			return []domain.Merchant{{ID: uuid.New(), FirstName: "Amina", TotalDebt: 1000, Balance: 1000}}, 1, nil
		})

	c, w := newTestContext(t, http.MethodGet, "/api/v1/merchants", nil)
	setViewer(c, adminViewer())
	h.List(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	items := resp["data"].(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
}

func TestMerchantList_RejectsUnknownStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMerchantHandler(mocks.NewMockMerchantService(ctrl))

	c, w := newTestContext(t, http.MethodGet, "/api/v1/merchants?status=OVERDUE", nil)
	setViewer(c, adminViewer())
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMerchantList_NoViewer(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMerchantHandler(mocks.NewMockMerchantService(ctrl))

	c, w := newTestContext(t, http.MethodGet, "/api/v1/merchants", nil)
	h.List(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMerchantGet_InvalidID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewMerchantHandler(mocks.NewMockMerchantService(ctrl))

	c, w := newTestContext(t, http.MethodGet, "/api/v1/merchants/nope", nil)
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: "nope"}}
	h.Get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMerchantCreate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockSvc)
	viewer := adminViewer()
	zoneID := uuid.New()

	created := &domain.Merchant{
		ID:        uuid.New(),
		FirstName: "Amina",
		LastName:  "Benali",
		TotalDebt: 120000,
		Balance:   120000,
	}
	mockSvc.EXPECT().
		Create(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, v ports.Viewer, in ports.MerchantInput) (*domain.Merchant, error) {
			assert.Equal(t, viewer.ID, v.ID)
			assert.Equal(t, "Amina", in.FirstName)
			require.Len(t, in.Assignments, 1)
			assert.Equal(t, zoneID, in.Assignments[0].ZoneID)
			return created, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants", dto.MerchantRequest{
		FirstName: "Amina",
		LastName:  "Benali",
		TotalDebt: 120000,
		Assignments: []dto.AssignmentEntry{
			{ZoneID: zoneID, Meters: 3.5, WorkDay: "MONDAY", Cost: 40000},
		},
	})
	setViewer(c, viewer)
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "PENDING", data["status"])
}

func TestMerchantDelete_Forbidden(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockSvc)
	id := uuid.New()

	mockSvc.EXPECT().
		Delete(gomock.Any(), gomock.Any(), id).
		Return(apperror.ErrForbidden())

	c, w := newTestContext(t, http.MethodDelete, "/api/v1/merchants/"+id.String(), nil)
	setViewer(c, ports.Viewer{ID: uuid.New(), Role: domain.RoleSecretary})
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Delete(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestConfirmReceipts_PartialOutcome(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockMerchantService(ctrl)
	h := NewMerchantHandler(mockSvc)

	okID, failID := uuid.New(), uuid.New()
	mockSvc.EXPECT().
		ConfirmReceipts(gomock.Any(), gomock.Any(), []uuid.UUID{okID, failID}).
		Return(&ports.BatchReceiptResult{
			Confirmed: []uuid.UUID{okID},
			Failed:    []uuid.UUID{failID},
		}, nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/receipts/confirm", dto.ConfirmReceiptsRequest{
		MerchantIDs: []uuid.UUID{okID, failID},
	})
	setViewer(c, adminViewer())
	h.ConfirmReceipts(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Len(t, data["confirmed"], 1)
	assert.Len(t, data["failed"], 1)
}

// --- Payment Handler Tests ---

func TestRecordAbono_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)
	viewer := adminViewer()
	merchantID := uuid.New()

	abono := &domain.Abono{
		ID:         uuid.New(),
		MerchantID: merchantID,
		Amount:     30000,
		RecordedBy: viewer.ID,
	}
	mockSvc.EXPECT().
		RecordAbono(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.AbonoRequest) (*domain.Abono, error) {
			assert.Equal(t, merchantID, req.MerchantID)
			assert.Equal(t, int64(30000), req.Amount)
			assert.Equal(t, "POS-7731", req.IdempotencyKey)
			return abono, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants/"+merchantID.String()+"/abonos", dto.AbonoRequest{
		Amount:         30000,
		IdempotencyKey: "POS-7731",
	})
	setViewer(c, viewer)
	c.Params = gin.Params{{Key: "id", Value: merchantID.String()}}
	h.RecordAbono(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(30000), data["amount"])
}

func TestRecordAbono_Overpayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)
	merchantID := uuid.New()

	mockSvc.EXPECT().
		RecordAbono(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrOverpayment())

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants/"+merchantID.String()+"/abonos", dto.AbonoRequest{
		Amount: 999999,
	})
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: merchantID.String()}}
	h.RecordAbono(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRecordAbono_RejectsNonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewPaymentHandler(mocks.NewMockPaymentService(ctrl))
	merchantID := uuid.New()

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants/"+merchantID.String()+"/abonos", gin.H{
		"amount": -5,
	})
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: merchantID.String()}}
	h.RecordAbono(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCloseCycle_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)
	merchantID := uuid.New()

	after := &domain.Merchant{ID: merchantID, TotalDebt: 150000, Balance: 150000}
	mockSvc.EXPECT().
		CloseCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CloseCycleRequest) (*domain.Merchant, error) {
			assert.Equal(t, int64(150000), req.NewDebt)
			return after, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants/"+merchantID.String()+"/close-cycle", gin.H{
		"new_debt": 150000,
	})
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: merchantID.String()}}
	h.CloseCycle(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "PENDING", data["status"])
}

func TestCloseCycle_ZeroDebtAllowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockPaymentService(ctrl)
	h := NewPaymentHandler(mockSvc)
	merchantID := uuid.New()

	after := &domain.Merchant{ID: merchantID, TotalDebt: 0, Balance: 0}
	mockSvc.EXPECT().
		CloseCycle(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, req ports.CloseCycleRequest) (*domain.Merchant, error) {
			assert.Equal(t, int64(0), req.NewDebt)
			return after, nil
		})

	c, w := newTestContext(t, http.MethodPost, "/api/v1/merchants/"+merchantID.String()+"/close-cycle", gin.H{
		"new_debt": 0,
	})
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: merchantID.String()}}
	h.CloseCycle(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Zone Handler Tests ---

func TestZoneCreate_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockZoneService(ctrl)
	h := NewZoneHandler(mockSvc)

	zone := &domain.Zone{ID: uuid.New(), Name: "North Market", RatePerMeter: 2500}
	mockSvc.EXPECT().
		Create(gomock.Any(), gomock.Any(), "North Market", int64(2500)).
		Return(zone, nil)

	c, w := newTestContext(t, http.MethodPost, "/api/v1/zones", dto.ZoneRequest{
		Name:         "North Market",
		RatePerMeter: 2500,
	})
	setViewer(c, adminViewer())
	h.Create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestZoneDelete_NotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockZoneService(ctrl)
	h := NewZoneHandler(mockSvc)
	id := uuid.New()

	mockSvc.EXPECT().
		Delete(gomock.Any(), gomock.Any(), id).
		Return(apperror.ErrNotFound("zone"))

	c, w := newTestContext(t, http.MethodDelete, "/api/v1/zones/"+id.String(), nil)
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

// --- Dashboard & Report Handler Tests ---

func TestGetStats_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockSvc)

	mockSvc.EXPECT().
		DashboardStats(gomock.Any()).
		Return(&ports.DashboardStats{TotalMerchants: 42, TotalDebt: 120000, TotalBalance: 45000, TotalCollected: 75000}, nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/dashboard/stats", nil)
	setViewer(c, adminViewer())
	h.GetStats(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(42), data["total_merchants"])
}

func TestCollectionsReport_DateRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockSvc)

	mockSvc.EXPECT().
		CollectionsCSV(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ interface{}, from, to time.Time) ([]byte, error) {
			assert.Equal(t, 2026, from.Year())
			assert.Equal(t, time.March, from.Month())
			assert.True(t, to.After(from))
			return []byte("date,merchant,amount\n"), nil
		})

	c, w := newTestContext(t, http.MethodGet, "/api/v1/reports/collections?from=2026-03-01&to=2026-03-31", nil)
	setViewer(c, adminViewer())
	h.CollectionsReport(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "collections_2026-03-31.csv")
}

func TestCollectionsReport_InvalidRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewDashboardHandler(mocks.NewMockReportingService(ctrl))

	c, w := newTestContext(t, http.MethodGet, "/api/v1/reports/collections?from=2026-03-31&to=2026-03-01", nil)
	setViewer(c, adminViewer())
	h.CollectionsReport(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCensusReport_KeepsBOM(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockReportingService(ctrl)
	h := NewDashboardHandler(mockSvc)

	payload := append([]byte{0xEF, 0xBB, 0xBF}, []byte("first_name,last_name\n")...)
	mockSvc.EXPECT().CensusCSV(gomock.Any()).Return(payload, nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/reports/census", nil)
	setViewer(c, adminViewer())
	h.CensusReport(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, payload, w.Body.Bytes())
}

// --- Snapshot Handler Tests ---

func TestSnapshotRestore_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockSnapshotService(ctrl)
	h := NewSnapshotHandler(mockSvc)

	partial := &domain.RestoreResult{
		Applied: []string{"zones", "merchants"},
		Failed:  "zone_assignments",
	}
	mockSvc.EXPECT().
		Restore(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(partial, apperror.ErrRestoreAborted("zone_assignments", assert.AnError))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/admin/snapshot/restore", domain.Snapshot{
		Version: domain.SnapshotVersion,
		Data: domain.SnapshotData{
			Zones: []domain.Zone{{ID: uuid.New(), Name: "North Market"}},
		},
	})
	setViewer(c, adminViewer())
	h.Restore(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SNAP_002", resp["error_code"])
	result := resp["result"].(map[string]interface{})
	assert.Len(t, result["applied"], 2)
}

func TestSnapshotExport_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockSnapshotService(ctrl)
	h := NewSnapshotHandler(mockSvc)

	mockSvc.EXPECT().Export(gomock.Any()).Return(&domain.Snapshot{
		Version:   domain.SnapshotVersion,
		Timestamp: time.Now(),
	}, nil)

	c, w := newTestContext(t, http.MethodGet, "/api/v1/admin/snapshot", nil)
	setViewer(c, adminViewer())
	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, domain.SnapshotVersion, data["version"])
}

// --- Directory Handler Tests ---

func TestProvision_DuplicateEmail(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockDirectoryService(ctrl)
	h := NewDirectoryHandler(mockSvc)

	mockSvc.EXPECT().
		Provision(gomock.Any(), gomock.Any()).
		Return(nil, apperror.ErrDuplicate("profile"))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/admin/profiles", dto.ProvisionRequest{
		Email:       "sonia@example.com",
		DisplayName: "Sonia",
		Password:    "password123",
		Role:        "SECRETARY",
	})
	setViewer(c, adminViewer())
	h.Provision(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestProvision_RejectsUnknownRole(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewDirectoryHandler(mocks.NewMockDirectoryService(ctrl))

	c, w := newTestContext(t, http.MethodPost, "/api/v1/admin/profiles", gin.H{
		"email":        "sonia@example.com",
		"display_name": "Sonia",
		"password":     "password123",
		"role":         "OVERLORD",
	})
	setViewer(c, adminViewer())
	h.Provision(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateProfile_PatchSemantics(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockSvc := mocks.NewMockDirectoryService(ctrl)
	h := NewDirectoryHandler(mockSvc)
	id := uuid.New()
	zoneID := uuid.New()

	updated := &domain.Profile{ID: id, DisplayName: "Sonia B", Role: domain.RoleDelegate}
	mockSvc.EXPECT().
		UpdateProfile(gomock.Any(), id, gomock.Any()).
		DoAndReturn(func(_ interface{}, _ uuid.UUID, upd ports.ProfileUpdate) (*domain.Profile, error) {
			require.NotNil(t, upd.CanCollect)
			assert.True(t, *upd.CanCollect)
			assert.Nil(t, upd.DisplayName)
			assert.Equal(t, []uuid.UUID{zoneID}, upd.AssignedZones)
			return updated, nil
		})

	c, w := newTestContext(t, http.MethodPut, "/api/v1/admin/profiles/"+id.String(), gin.H{
		"can_collect":    true,
		"assigned_zones": []string{zoneID.String()},
	})
	setViewer(c, adminViewer())
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	h.UpdateProfile(c)

	assert.Equal(t, http.StatusOK, w.Code)
}

// --- Router Tests ---

func TestRouter_HealthRouteRegistered(t *testing.T) {
	r := SetupRouter(RouterDeps{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_ProtectedRouteRequiresToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	deps := RouterDeps{
		TokenSvc: mocks.NewMockTokenService(ctrl),
	}
	r := SetupRouter(deps)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/merchants", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
