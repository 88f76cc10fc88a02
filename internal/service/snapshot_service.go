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

// SnapshotServiceImpl implements ports.SnapshotService.
type SnapshotServiceImpl struct {
	snapRepo   ports.SnapshotRepository
	statsCache ports.StatsCache
	audit      ports.AuditService
	log        zerolog.Logger
}

// NewSnapshotService creates a new SnapshotServiceImpl.
func NewSnapshotService(
	snapRepo ports.SnapshotRepository,
	statsCache ports.StatsCache,
	audit ports.AuditService,
	log zerolog.Logger,
) *SnapshotServiceImpl {
	return &SnapshotServiceImpl{
		snapRepo:   snapRepo,
		statsCache: statsCache,
		audit:      audit,
		log:        log,
	}
}

// Export dumps every table verbatim into a versioned snapshot.
func (s *SnapshotServiceImpl) Export(ctx context.Context) (*domain.Snapshot, error) {
	merchants, err := s.snapRepo.DumpMerchants(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dump merchants: %w", err))
	}
	zones, err := s.snapRepo.DumpZones(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dump zones: %w", err))
	}
	abonos, err := s.snapRepo.DumpAbonos(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dump abonos: %w", err))
	}
	assignments, err := s.snapRepo.DumpAssignments(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("dump assignments: %w", err))
	}

	return &domain.Snapshot{
		Version:   domain.SnapshotVersion,
		Timestamp: time.Now().UTC(),
		Data: domain.SnapshotData{
			Merchants:       merchants,
			Zones:           zones,
			Abonos:          abonos,
			ZoneAssignments: assignments,
		},
	}, nil
}

// Restore upserts the snapshot's sections in dependency order: zones before
// merchants before assignments before abonos. Empty sections are skipped,
// never treated as deletions. Restore is not transactional: the first
// failing table aborts the run and the result reports what was already
// applied, each step also logged for later diagnosis.
func (s *SnapshotServiceImpl) Restore(ctx context.Context, viewer ports.Viewer, snap *domain.Snapshot) (*domain.RestoreResult, error) {
	if !viewer.IsAdmin() {
		return nil, apperror.ErrForbidden()
	}
	if snap == nil {
		return nil, apperror.ErrInvalidSnapshot("snapshot is empty")
	}
	if snap.Version != domain.SnapshotVersion {
		return nil, apperror.ErrInvalidSnapshot(fmt.Sprintf("unsupported version %q", snap.Version))
	}

	result := &domain.RestoreResult{
		Applied: []string{},
		Skipped: []string{},
	}

	steps := []struct {
		table string
		count int
		apply func(context.Context) error
	}{
		{"zones", len(snap.Data.Zones), func(ctx context.Context) error {
			return s.snapRepo.UpsertZones(ctx, snap.Data.Zones)
		}},
		{"merchants", len(snap.Data.Merchants), func(ctx context.Context) error {
			return s.snapRepo.UpsertMerchants(ctx, snap.Data.Merchants)
		}},
		{"zone_assignments", len(snap.Data.ZoneAssignments), func(ctx context.Context) error {
			return s.snapRepo.UpsertAssignments(ctx, snap.Data.ZoneAssignments)
		}},
		{"abonos", len(snap.Data.Abonos), func(ctx context.Context) error {
			return s.snapRepo.UpsertAbonos(ctx, snap.Data.Abonos)
		}},
	}

	now := time.Now().UTC()
	for _, step := range steps {
		if step.count == 0 {
			result.Skipped = append(result.Skipped, step.table)
			continue
		}

		if err := step.apply(ctx); err != nil {
			result.Failed = step.table
			s.audit.Log(ctx, &domain.ActionLog{
				ID:           uuid.New(),
				ActorID:      &viewer.ID,
				Action:       domain.ActionSnapshotRestore,
				ResourceType: "snapshot",
				ResourceID:   step.table,
				Outcome:      domain.OutcomeFailed,
				Details:      fmt.Sprintf(`{"applied":%d,"rows":%d}`, len(result.Applied), step.count),
				CreatedAt:    now,
			})
			s.log.Error().Err(err).
				Str("table", step.table).
				Strs("applied", result.Applied).
				Msg("snapshot restore aborted")
			return result, apperror.ErrRestoreAborted(step.table, err)
		}

		result.Applied = append(result.Applied, step.table)
		s.audit.Log(ctx, &domain.ActionLog{
			ID:           uuid.New(),
			ActorID:      &viewer.ID,
			Action:       domain.ActionSnapshotRestore,
			ResourceType: "snapshot",
			ResourceID:   step.table,
			Outcome:      domain.OutcomeOK,
			Details:      fmt.Sprintf(`{"rows":%d}`, step.count),
			CreatedAt:    now,
		})
	}

	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to invalidate stats cache")
	}

	s.log.Info().
		Strs("applied", result.Applied).
		Strs("skipped", result.Skipped).
		Msg("snapshot restored")
	return result, nil
}
