package service

import (
	"context"
	"fmt"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MerchantServiceImpl implements ports.MerchantService.
type MerchantServiceImpl struct {
	merchantRepo ports.MerchantRepository
	zoneRepo     ports.ZoneRepository
	statsCache   ports.StatsCache
	transactor   ports.DBTransactor
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewMerchantService creates a new MerchantServiceImpl.
func NewMerchantService(
	merchantRepo ports.MerchantRepository,
	zoneRepo ports.ZoneRepository,
	statsCache ports.StatsCache,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *MerchantServiceImpl {
	return &MerchantServiceImpl{
		merchantRepo: merchantRepo,
		zoneRepo:     zoneRepo,
		statsCache:   statsCache,
		transactor:   transactor,
		audit:        audit,
		log:          log,
	}
}

// List returns one scoped page of merchants plus the exact total count.
func (s *MerchantServiceImpl) List(ctx context.Context, params ports.MerchantListParams) ([]domain.Merchant, int64, error) {
	if params.Page < 0 {
		params.Page = 0
	}
	if params.PageSize <= 0 {
		params.PageSize = 20
	}

	// A delegate with no assigned zones can never match any row.
	if params.Viewer.Role == domain.RoleDelegate && len(params.Viewer.AssignedZones) == 0 {
		return []domain.Merchant{}, 0, nil
	}

	merchants, total, err := s.merchantRepo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.InternalError(fmt.Errorf("list merchants: %w", err))
	}
	return merchants, total, nil
}

// Get returns one merchant with its zone assignments, enforcing zone scope
// for delegates.
func (s *MerchantServiceImpl) Get(ctx context.Context, viewer ports.Viewer, id uuid.UUID) (*domain.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	if viewer.Role == domain.RoleDelegate && !inViewerZones(viewer, merchant) {
		return nil, apperror.ErrForbidden()
	}
	return merchant, nil
}

// Create registers a merchant and its zone assignments in one transaction.
func (s *MerchantServiceImpl) Create(ctx context.Context, viewer ports.Viewer, input ports.MerchantInput) (*domain.Merchant, error) {
	if viewer.Role == domain.RoleDelegate {
		return nil, apperror.ErrForbidden()
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	merchant := &domain.Merchant{
		ID:         uuid.New(),
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Phone:      input.Phone,
		PhotoURL:   input.PhotoURL,
		IDPhotoURL: input.IDPhotoURL,
		Note:       input.Note,
		TotalDebt:  input.TotalDebt,
		Balance:    input.TotalDebt, // Trigger recomputes on first abono
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	// Insert and assignments commit together so a failed save never leaves
	// an assignment-less merchant behind.
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.Create(ctx, dbTx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create merchant: %w", err))
	}

	assignments := buildAssignments(merchant.ID, input.Assignments, now)
	if len(assignments) > 0 {
		if err := s.merchantRepo.ReplaceAssignments(ctx, dbTx, merchant.ID, assignments); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save assignments: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	merchant.Assignments = assignments

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionMerchantCreate,
		ResourceType: "merchant",
		ResourceID:   merchant.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    now,
	})

	return merchant, nil
}

// Update saves the merchant fields and replaces its zone assignments
// wholesale in one transaction. Balance is never written here.
func (s *MerchantServiceImpl) Update(ctx context.Context, viewer ports.Viewer, id uuid.UUID, input ports.MerchantInput) (*domain.Merchant, error) {
	if viewer.Role == domain.RoleDelegate {
		return nil, apperror.ErrForbidden()
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	now := time.Now().UTC()
	merchant.FirstName = input.FirstName
	merchant.LastName = input.LastName
	merchant.Phone = input.Phone
	merchant.PhotoURL = input.PhotoURL
	merchant.IDPhotoURL = input.IDPhotoURL
	merchant.Note = input.Note
	merchant.TotalDebt = input.TotalDebt
	merchant.UpdatedAt = now

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.Update(ctx, dbTx, merchant); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}

	assignments := buildAssignments(merchant.ID, input.Assignments, now)
	if err := s.merchantRepo.ReplaceAssignments(ctx, dbTx, merchant.ID, assignments); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("replace assignments: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionMerchantUpdate,
		ResourceType: "merchant",
		ResourceID:   merchant.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    now,
	})

	// Refetch: the trigger recomputes the balance when total_debt changes.
	updated, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("refetch merchant: %w", err))
	}
	if updated == nil {
		// Deleted between commit and refetch.
		return nil, apperror.ErrNotFound("merchant")
	}
	return updated, nil
}

// Delete removes a merchant. Assignments and abonos cascade in the database.
func (s *MerchantServiceImpl) Delete(ctx context.Context, viewer ports.Viewer, id uuid.UUID) error {
	if !viewer.IsAdmin() {
		return apperror.ErrForbidden()
	}

	if err := s.merchantRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete merchant: %w", err))
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionMerchantDelete,
		ResourceType: "merchant",
		ResourceID:   id.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

// SetReadyForAdmin flags a merchant's collected cash as ready for handoff.
func (s *MerchantServiceImpl) SetReadyForAdmin(ctx context.Context, viewer ports.Viewer, id uuid.UUID, ready bool) error {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return apperror.ErrNotFound("merchant")
	}
	if viewer.Role == domain.RoleDelegate && !inViewerZones(viewer, merchant) {
		return apperror.ErrForbidden()
	}

	merchant.ReadyForAdmin = ready
	merchant.UpdatedAt = time.Now().UTC()

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	if err := s.merchantRepo.Update(ctx, dbTx, merchant); err != nil {
		return apperror.InternalError(fmt.Errorf("update merchant: %w", err))
	}
	if err := dbTx.Commit(ctx); err != nil {
		return apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}
	return nil
}

// ConfirmReceipts confirms cash handoff per merchant id. The batch is never
// atomic: each id is updated independently and every outcome is written to
// the action log, so a partially failed batch can be diagnosed and the
// failed ids retried.
func (s *MerchantServiceImpl) ConfirmReceipts(ctx context.Context, viewer ports.Viewer, ids []uuid.UUID) (*ports.BatchReceiptResult, error) {
	if !viewer.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if len(ids) == 0 {
		return nil, apperror.Validation("no merchant ids given")
	}

	result := &ports.BatchReceiptResult{
		Confirmed: make([]uuid.UUID, 0, len(ids)),
		Failed:    make([]uuid.UUID, 0),
	}
	now := time.Now().UTC()

	for _, id := range ids {
		err := s.merchantRepo.ConfirmReceipt(ctx, id, now)
		outcome := domain.OutcomeOK
		if err != nil {
			outcome = domain.OutcomeFailed
			result.Failed = append(result.Failed, id)
			s.log.Warn().Err(err).Str("merchant_id", id.String()).Msg("receipt confirmation failed")
		} else {
			result.Confirmed = append(result.Confirmed, id)
		}

		s.audit.Log(ctx, &domain.ActionLog{
			ID:           uuid.New(),
			ActorID:      &viewer.ID,
			Action:       domain.ActionReceiptConfirm,
			ResourceType: "merchant",
			ResourceID:   id.String(),
			Outcome:      outcome,
			CreatedAt:    now,
		})
	}

	return result, nil
}

// validateInput checks the name fields and that every assignment references
// an existing zone.
func (s *MerchantServiceImpl) validateInput(ctx context.Context, input ports.MerchantInput) error {
	if input.FirstName == "" {
		return apperror.Validation("first name is required")
	}
	if input.TotalDebt < 0 {
		return apperror.Validation("total debt must not be negative")
	}
	for _, a := range input.Assignments {
		if a.Meters <= 0 {
			return apperror.Validation("assignment meters must be positive")
		}
		if a.Cost < 0 {
			return apperror.Validation("assignment cost must not be negative")
		}
		zone, err := s.zoneRepo.GetByID(ctx, a.ZoneID)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("check zone: %w", err))
		}
		if zone == nil {
			return apperror.Validation("unknown zone: " + a.ZoneID.String())
		}
	}
	return nil
}

func buildAssignments(merchantID uuid.UUID, inputs []ports.AssignmentInput, now time.Time) []domain.ZoneAssignment {
	assignments := make([]domain.ZoneAssignment, 0, len(inputs))
	for _, in := range inputs {
		assignments = append(assignments, domain.ZoneAssignment{
			ID:         uuid.New(),
			MerchantID: merchantID,
			ZoneID:     in.ZoneID,
			Meters:     in.Meters,
			WorkDay:    in.WorkDay,
			Cost:       in.Cost,
			CreatedAt:  now,
		})
	}
	return assignments
}

func inViewerZones(viewer ports.Viewer, merchant *domain.Merchant) bool {
	for _, za := range merchant.Assignments {
		for _, zid := range viewer.AssignedZones {
			if za.ZoneID == zid {
				return true
			}
		}
	}
	return false
}
