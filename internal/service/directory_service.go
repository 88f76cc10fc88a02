package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
)

// DirectoryServiceImpl implements ports.DirectoryService.
type DirectoryServiceImpl struct {
	profileRepo  ports.ProfileRepository
	settingsRepo ports.SettingsRepository
	hashSvc      ports.HashService
	audit        ports.AuditService
}

// NewDirectoryService creates a new DirectoryServiceImpl.
func NewDirectoryService(
	profileRepo ports.ProfileRepository,
	settingsRepo ports.SettingsRepository,
	hashSvc ports.HashService,
	audit ports.AuditService,
) *DirectoryServiceImpl {
	return &DirectoryServiceImpl{
		profileRepo:  profileRepo,
		settingsRepo: settingsRepo,
		hashSvc:      hashSvc,
		audit:        audit,
	}
}

// ListProfiles returns all staff accounts.
func (s *DirectoryServiceImpl) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.profileRepo.List(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list profiles: %w", err))
	}
	return profiles, nil
}

// GetProfile returns one staff account.
func (s *DirectoryServiceImpl) GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrNotFound("profile")
	}
	return profile, nil
}

// Provision creates a staff account with a hashed initial password.
func (s *DirectoryServiceImpl) Provision(ctx context.Context, input ports.ProvisionInput) (*domain.Profile, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.Validation("a valid email is required")
	}
	if len(input.Password) < 8 {
		return nil, apperror.Validation("password must be at least 8 characters")
	}
	if !input.Role.Valid() {
		return nil, apperror.Validation("unknown role")
	}

	existing, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check email: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrDuplicate("profile")
	}

	hash, err := s.hashSvc.Hash(input.Password)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	now := time.Now().UTC()
	profile := &domain.Profile{
		ID:            uuid.New(),
		Email:         email,
		DisplayName:   input.DisplayName,
		PasswordHash:  hash,
		Role:          input.Role,
		AssignedZones: []uuid.UUID{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create profile: %w", err))
	}
	return profile, nil
}

// UpdateProfile mutates the administrable fields of a staff account.
func (s *DirectoryServiceImpl) UpdateProfile(ctx context.Context, id uuid.UUID, input ports.ProfileUpdate) (*domain.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrNotFound("profile")
	}

	if input.DisplayName != nil {
		profile.DisplayName = *input.DisplayName
	}
	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, apperror.Validation("unknown role")
		}
		profile.Role = *input.Role
	}
	if input.AssignedZones != nil {
		profile.AssignedZones = input.AssignedZones
	}
	if input.CanCollect != nil {
		profile.CanCollect = *input.CanCollect
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update profile: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		Action:       domain.ActionProfileUpdate,
		ResourceType: "profile",
		ResourceID:   profile.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    profile.UpdatedAt,
	})
	return profile, nil
}

// GetSettings returns the global settings record.
func (s *DirectoryServiceImpl) GetSettings(ctx context.Context) (*domain.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("load settings: %w", err))
	}
	return settings, nil
}

// UpdateSettings replaces the global settings record.
func (s *DirectoryServiceImpl) UpdateSettings(ctx context.Context, settings *domain.Settings) error {
	settings.UpdatedAt = time.Now().UTC()
	if err := s.settingsRepo.Update(ctx, settings); err != nil {
		return apperror.InternalError(fmt.Errorf("update settings: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		Action:       domain.ActionSettingsUpdate,
		ResourceType: "settings",
		ResourceID:   "global",
		Outcome:      domain.OutcomeOK,
		CreatedAt:    settings.UpdatedAt,
	})
	return nil
}
