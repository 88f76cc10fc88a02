package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// PaymentServiceImpl implements ports.PaymentService.
type PaymentServiceImpl struct {
	abonoRepo    ports.AbonoRepository
	merchantRepo ports.MerchantRepository
	settingsRepo ports.SettingsRepository
	receiptRepo  ports.ReceiptRepository
	idempCache   ports.IdempotencyCache
	statsCache   ports.StatsCache
	transactor   ports.DBTransactor
	audit        ports.AuditService
	log          zerolog.Logger
}

// NewPaymentService creates a new PaymentServiceImpl.
func NewPaymentService(
	abonoRepo ports.AbonoRepository,
	merchantRepo ports.MerchantRepository,
	settingsRepo ports.SettingsRepository,
	receiptRepo ports.ReceiptRepository,
	idempCache ports.IdempotencyCache,
	statsCache ports.StatsCache,
	transactor ports.DBTransactor,
	audit ports.AuditService,
	log zerolog.Logger,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		abonoRepo:    abonoRepo,
		merchantRepo: merchantRepo,
		settingsRepo: settingsRepo,
		receiptRepo:  receiptRepo,
		idempCache:   idempCache,
		statsCache:   statsCache,
		transactor:   transactor,
		audit:        audit,
		log:          log,
	}
}

// RecordAbono inserts one immutable ledger row against the merchant's debt.
// The database trigger recomputes the balance; the service never writes it.
func (s *PaymentServiceImpl) RecordAbono(ctx context.Context, req ports.AbonoRequest) (*domain.Abono, error) {
	if req.Amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	if err := s.checkCollectPermission(ctx, req.Viewer); err != nil {
		return nil, err
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildAbonoIdempotencyKey(req.MerchantID, req.IdempotencyKey)

		// Layer 1: Redis idempotency check
		cached, err := s.idempCache.Get(ctx, idempKey)
		if err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return s.unmarshalCachedAbono(cached)
		}

		// Layer 2: DB idempotency check
		receipt, err := s.receiptRepo.Get(ctx, idempKey)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
		}
		if receipt != nil {
			return s.unmarshalCachedAbono(receipt.ResponseJSON)
		}
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	// The trigger floors the balance at zero; this pre-insert check is the
	// user-facing rejection.
	if req.Amount > merchant.Balance {
		return nil, apperror.ErrOverpayment()
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	abono := &domain.Abono{
		ID:         uuid.New(),
		MerchantID: req.MerchantID,
		Amount:     req.Amount,
		RecordedBy: req.Viewer.ID,
		Archived:   false,
		CreatedAt:  now,
	}

	if err := s.abonoRepo.Create(ctx, dbTx, abono); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create abono: %w", err))
	}

	respJSON, err := json.Marshal(abono)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	if idempKey != "" {
		receipt := &domain.PaymentReceipt{
			Key:          idempKey,
			AbonoID:      abono.ID,
			ResponseJSON: respJSON,
			CreatedAt:    now,
		}
		if err := s.receiptRepo.Create(ctx, dbTx, receipt); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save payment receipt: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	// Post-process: cache in Redis (best-effort)
	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache payment receipt in redis")
		}
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &req.Viewer.ID,
		Action:       domain.ActionAbonoRecord,
		ResourceType: "abono",
		ResourceID:   abono.ID.String(),
		Outcome:      domain.OutcomeOK,
		Details:      fmt.Sprintf(`{"merchant_id":%q,"amount":%d}`, req.MerchantID, req.Amount),
		CreatedAt:    now,
	})

	s.log.Info().
		Str("abono_id", abono.ID.String()).
		Str("merchant_id", req.MerchantID.String()).
		Int64("amount", req.Amount).
		Msg("abono recorded")

	return abono, nil
}

// ListAbonos returns the merchant's payment ledger, newest first.
func (s *PaymentServiceImpl) ListAbonos(ctx context.Context, merchantID uuid.UUID, includeArchived bool) ([]domain.Abono, error) {
	abonos, err := s.abonoRepo.ListByMerchant(ctx, merchantID, includeArchived)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list abonos: %w", err))
	}
	return abonos, nil
}

// CloseCycle archives the merchant's current payments and sets the next
// cycle's debt in a single transaction, then refetches the merchant so the
// returned balance reflects the trigger's recomputation.
func (s *PaymentServiceImpl) CloseCycle(ctx context.Context, req ports.CloseCycleRequest) (*domain.Merchant, error) {
	if !req.Viewer.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if req.NewDebt < 0 {
		return nil, apperror.Validation("new debt must not be negative")
	}

	merchant, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find merchant: %w", err))
	}
	if merchant == nil {
		return nil, apperror.ErrNotFound("merchant")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	archived, err := s.abonoRepo.ArchiveByMerchant(ctx, dbTx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("archive abonos: %w", err))
	}

	if err := s.merchantRepo.SetDebt(ctx, dbTx, req.MerchantID, req.NewDebt); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("set debt: %w", err))
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &req.Viewer.ID,
		Action:       domain.ActionCycleClose,
		ResourceType: "merchant",
		ResourceID:   req.MerchantID.String(),
		Outcome:      domain.OutcomeOK,
		Details:      fmt.Sprintf(`{"archived":%d,"new_debt":%d}`, archived, req.NewDebt),
		CreatedAt:    time.Now().UTC(),
	})

	s.log.Info().
		Str("merchant_id", req.MerchantID.String()).
		Int64("archived", archived).
		Int64("new_debt", req.NewDebt).
		Msg("cycle closed")

	// Refetch: the trigger has recomputed the balance.
	updated, err := s.merchantRepo.GetByID(ctx, req.MerchantID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("refetch merchant: %w", err))
	}
	return updated, nil
}

// checkCollectPermission enforces who may record payments. Admins and
// secretaries always may; delegates need both their own flag and the global
// policy flag.
func (s *PaymentServiceImpl) checkCollectPermission(ctx context.Context, viewer ports.Viewer) error {
	switch viewer.Role {
	case domain.RoleAdmin, domain.RoleSecretary:
		return nil
	case domain.RoleDelegate:
		if !viewer.CanCollect {
			return apperror.ErrCollectionNotPermitted()
		}
		settings, err := s.settingsRepo.Get(ctx)
		if err != nil {
			return apperror.InternalError(fmt.Errorf("load settings: %w", err))
		}
		if !settings.DelegatesCanCollect {
			return apperror.ErrCollectionNotPermitted()
		}
		return nil
	default:
		return apperror.ErrForbidden()
	}
}

// unmarshalCachedAbono deserializes a cached abono row.
func (s *PaymentServiceImpl) unmarshalCachedAbono(data []byte) (*domain.Abono, error) {
	abono := &domain.Abono{}
	if err := json.Unmarshal(data, abono); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal cached abono: %w", err))
	}
	return abono, nil
}
