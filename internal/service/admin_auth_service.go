package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/pkg/crypto"
	"github.com/prn-tf/libreport/internal/repository"
	"github.com/prn-tf/libreport/internal/token"
)

// AdminAuthService handles the separate admin identity space. Admin
// signup always requires a valid invite code.
type AdminAuthService struct {
	admins     repository.AdminRepository
	keys       repository.AdminKeyRepository
	tokens     token.Service
	bcryptCost int
	logger     zerolog.Logger
}

// NewAdminAuthService creates a new AdminAuthService.
func NewAdminAuthService(
	admins repository.AdminRepository,
	keys repository.AdminKeyRepository,
	tokens token.Service,
	bcryptCost int,
	logger zerolog.Logger,
) *AdminAuthService {
	return &AdminAuthService{
		admins:     admins,
		keys:       keys,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "admin_auth").Logger(),
	}
}

// AdminSignupInput contains the data needed to register an admin.
type AdminSignupInput struct {
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string
	AdminCode       string
}

// AdminAuthOutput is a signed token plus the authenticated admin.
type AdminAuthOutput struct {
	Token string        `json:"token"`
	Admin *domain.Admin `json:"admin"`
}

// Signup registers a new admin. The invite code is mandatory.
func (s *AdminAuthService) Signup(ctx context.Context, input AdminSignupInput) (*AdminAuthOutput, error) {
	if input.Email == "" || input.FullName == "" || input.Password == "" || input.AdminCode == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidEmail(input.Email) {
		return nil, ErrInvalidEmail
	}
	if !domain.ValidFullName(input.FullName) {
		return nil, ErrInvalidFullName
	}
	if !domain.ValidPassword(input.Password) {
		return nil, ErrInvalidPassword
	}
	if input.Password != input.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}

	now := time.Now().UTC()

	key, err := s.keys.GetActiveByCodeHash(ctx, crypto.HashToken(input.AdminCode))
	if err != nil {
		if errors.Is(err, domain.ErrAdminKeyNotFound) {
			return nil, domain.ErrInviteCodeInvalid
		}
		s.logger.Error().Err(err).Msg("failed to look up invite code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if !key.Redeemable(now) {
		return nil, domain.ErrInviteCodeInvalid
	}

	exists, err := s.admins.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check admin email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrAdminAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	if err := s.keys.Redeem(ctx, key.ID); err != nil {
		if errors.Is(err, domain.ErrInviteCodeInvalid) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("key_id", key.ID).Msg("failed to redeem invite code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	admin := domain.NewAdmin(input.Email, input.FullName, string(passwordHash))
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, domain.ErrAdminAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create admin")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	signed, err := s.tokens.SignAdmin(admin)
	if err != nil {
		s.logger.Error().Err(err).Str("admin_id", admin.ID).Msg("failed to sign token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("admin registered")

	return &AdminAuthOutput{Token: signed, Admin: admin}, nil
}

// Login verifies admin credentials and returns a signed token.
func (s *AdminAuthService) Login(ctx context.Context, email, password string) (*AdminAuthOutput, error) {
	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		s.logger.Debug().Msg("admin not found during login")
		return nil, domain.ErrInvalidCredentials
	}

	if !admin.CanAuthenticate() {
		s.logger.Debug().Str("admin_id", admin.ID).Msg("inactive admin attempted login")
		return nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("admin_id", admin.ID).Msg("invalid password during admin login")
		return nil, domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.SignAdmin(admin)
	if err != nil {
		s.logger.Error().Err(err).Str("admin_id", admin.ID).Msg("failed to sign token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Msg("admin logged in")

	return &AdminAuthOutput{Token: signed, Admin: admin}, nil
}

// Me returns the profile of the authenticated admin.
func (s *AdminAuthService) Me(ctx context.Context, adminID string) (*domain.Admin, error) {
	admin, err := s.admins.GetByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("admin_id", adminID).Msg("failed to load admin profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return admin, nil
}
