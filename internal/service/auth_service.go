package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"merchant-collections/internal/core/domain"
	"merchant-collections/internal/core/ports"
	"merchant-collections/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	profileRepo ports.ProfileRepository
	hashSvc     ports.HashService
	tokenSvc    ports.TokenService
	resetStore  ports.ResetTokenStore
	mailer      ports.Mailer
	audit       ports.AuditService
	resetTTL    time.Duration
	log         zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	profileRepo ports.ProfileRepository,
	hashSvc ports.HashService,
	tokenSvc ports.TokenService,
	resetStore ports.ResetTokenStore,
	mailer ports.Mailer,
	audit ports.AuditService,
	resetTTL time.Duration,
	log zerolog.Logger,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		profileRepo: profileRepo,
		hashSvc:     hashSvc,
		tokenSvc:    tokenSvc,
		resetStore:  resetStore,
		mailer:      mailer,
		audit:       audit,
		resetTTL:    resetTTL,
		log:         log,
	}
}

// Login validates staff credentials and returns a signed session token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("find profile: %w", err))
	}
	if profile == nil {
		return nil, apperror.ErrInvalidCredentials()
	}

	valid, err := s.hashSvc.Verify(password, profile.PasswordHash)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("verify password: %w", err))
	}
	if !valid {
		s.audit.Log(ctx, &domain.ActionLog{
			ID:           uuid.New(),
			ActorID:      &profile.ID,
			Action:       domain.ActionLogin,
			ResourceType: "profile",
			ResourceID:   profile.ID.String(),
			Outcome:      domain.OutcomeFailed,
			CreatedAt:    time.Now().UTC(),
		})
		return nil, apperror.ErrInvalidCredentials()
	}

	token, expiry, err := s.tokenSvc.Generate(profile.ID, profile.Role)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &profile.ID,
		Action:       domain.ActionLogin,
		ResourceType: "profile",
		ResourceID:   profile.ID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    time.Now().UTC(),
	})

	return &ports.LoginResult{
		Token:   token,
		Expiry:  expiry,
		Profile: profile,
	}, nil
}

// RequestPasswordReset issues a one-shot reset token and mails it. An unknown
// email gets the same nil response so the endpoint cannot enumerate accounts.
func (s *AuthServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	profile, err := s.profileRepo.GetByEmail(ctx, email)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("find profile: %w", err))
	}
	if profile == nil {
		s.log.Info().Str("email", email).Msg("password reset requested for unknown email")
		return nil
	}

	token, err := generateRandomHex(32)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("generate reset token: %w", err))
	}

	if err := s.resetStore.Issue(ctx, token, profile.ID, s.resetTTL); err != nil {
		return apperror.InternalError(fmt.Errorf("issue reset token: %w", err))
	}

	if err := s.mailer.SendPasswordReset(ctx, profile.Email, token); err != nil {
		return apperror.InternalError(fmt.Errorf("send reset mail: %w", err))
	}
	return nil
}

// ConfirmPasswordReset spends the token and stores the new password hash.
func (s *AuthServiceImpl) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < 8 {
		return apperror.Validation("password must be at least 8 characters")
	}

	userID, err := s.resetStore.Consume(ctx, token)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("consume reset token: %w", err))
	}
	if userID == uuid.Nil {
		return apperror.ErrResetTokenInvalid()
	}

	hash, err := s.hashSvc.Hash(newPassword)
	if err != nil {
		return apperror.InternalError(fmt.Errorf("hash password: %w", err))
	}

	if err := s.profileRepo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.InternalError(fmt.Errorf("update password: %w", err))
	}

	s.audit.Log(ctx, &domain.ActionLog{
		ID:           uuid.New(),
		ActorID:      &userID,
		Action:       domain.ActionPasswordReset,
		ResourceType: "profile",
		ResourceID:   userID.String(),
		Outcome:      domain.OutcomeOK,
		CreatedAt:    time.Now().UTC(),
	})
	return nil
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
