package service

import (
	"context"
	"fmt"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
)

// ZoneServiceImpl implements ports.ZoneService.
type ZoneServiceImpl struct {
	zoneRepo ports.ZoneRepository
	audit    ports.AuditService
}

// NewZoneService creates a new ZoneServiceImpl.
func NewZoneService(zoneRepo ports.ZoneRepository, audit ports.AuditService) *ZoneServiceImpl {
	return &ZoneServiceImpl{zoneRepo: zoneRepo, audit: audit}
}

// List returns all zones.
func (s *ZoneServiceImpl) List(ctx context.Context) ([]domain.Zone, error) {
	zones, err := s.zoneRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list zones: %w", err))
	}
	return zones, nil
}

// Get returns one zone.
func (s *ZoneServiceImpl) Get(ctx context.Context, id uuid.UUID) (*domain.Zone, error) {
	zone, err := s.zoneRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find zone: %w", err))
	}
	if zone == nil {
		return nil, apperror.ErrNotFound("zone")
	}
	return zone, nil
}

// Create registers a new zone. Admin only.
func (s *ZoneServiceImpl) Create(ctx context.Context, viewer ports.Viewer, name string, ratePerMeter int64) (*domain.Zone, error) {
	if !viewer.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if name == "" {
		return nil, apperror.Validation("zone name is required")
	}
	if ratePerMeter < 0 {
		return nil, apperror.Validation("rate per meter must not be negative")
	}

	now := time.Now().UTC()
	zone := &domain.Zone{
		ID:           uuid.New(),
		Name:         name,
		RatePerMeter: ratePerMeter,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.zoneRepo.Create(ctx, zone); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create zone: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionZoneCreate,
		ResourceType: "zone",
		ResourceID:   zone.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    now,
	})
	return zone, nil
}

// Update renames or reprices a zone. Admin only.
func (s *ZoneServiceImpl) Update(ctx context.Context, viewer ports.Viewer, id uuid.UUID, name string, ratePerMeter int64) (*domain.Zone, error) {
	if !viewer.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if name == "" {
		return nil, apperror.Validation("zone name is required")
	}

	zone, err := s.zoneRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find zone: %w", err))
	}
	if zone == nil {
		return nil, apperror.ErrNotFound("zone")
	}

	zone.Name = name
	zone.RatePerMeter = ratePerMeter
	zone.UpdatedAt = time.Now().UTC()
	if err := s.zoneRepo.Update(ctx, zone); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update zone: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionZoneUpdate,
		ResourceType: "zone",
		ResourceID:   zone.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    zone.UpdatedAt,
	})
	return zone, nil
}

// Delete removes a zone. Admin only. Fails while assignments reference it.
func (s *ZoneServiceImpl) Delete(ctx context.Context, viewer ports.Viewer, id uuid.UUID) error {
	if !viewer.IsAdmin() {
		return apperror.ErrForbidden()
	}
	if err := s.zoneRepo.Delete(ctx, id); err != nil {
		return apperror.InternalError(fmt.Errorf("delete zone: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &viewer.ID,
		Action:       domain.ActionZoneDelete,
		ResourceType: "zone",
		ResourceID:   id.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}
