// Package service provides business logic services for LibReport.
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

// AuthService handles user signup, login, and the password reset flow.
type AuthService struct {
	users      repository.UserRepository
	admins     repository.AdminRepository
	keys       repository.AdminKeyRepository
	resets     repository.PasswordResetRepository
	tokens     token.Service
	bcryptCost int
	resetTTL   time.Duration
	logger     zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users repository.UserRepository,
	admins repository.AdminRepository,
	keys repository.AdminKeyRepository,
	resets repository.PasswordResetRepository,
	tokens token.Service,
	bcryptCost int,
	resetTTL time.Duration,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		admins:     admins,
		keys:       keys,
		resets:     resets,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		resetTTL:   resetTTL,
		logger:     logger.With().Str("service", "auth").Logger(),
	}
}

// SignupInput contains the data needed to register a new account.
type SignupInput struct {
	StudentID       string
	Email           string
	FullName        string
	Password        string
	ConfirmPassword string

	// AdminCode is an optional invite code elevating the account to admin.
	AdminCode string
}

// AuthOutput is a signed token plus the authenticated account.
type AuthOutput struct {
	Token string       `json:"token"`
	User  *domain.User `json:"user"`
}

// Signup registers a new user account. A valid invite code elevates the
// account to admin and mirrors it into the admin identity space.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthOutput, error) {
	if err := validateSignup(input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	// Resolve the invite code before touching anything else.
	var inviteKey *domain.AdminKey
	if input.AdminCode != "" {
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
		inviteKey = key
	}

	exists, err := s.users.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrUserAlreadyExists)
	}

	exists, err = s.users.ExistsByStudentID(ctx, input.StudentID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check student ID existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: student ID already registered", domain.ErrUserAlreadyExists)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	// Burn the invite use before creating the user. The guarded counter
	// increment is what makes concurrent redemptions of a nearly
	// exhausted key safe.
	if inviteKey != nil {
		if err := s.keys.Redeem(ctx, inviteKey.ID); err != nil {
			if errors.Is(err, domain.ErrInviteCodeInvalid) {
				return nil, domain.ErrInviteCodeInvalid
			}
			s.logger.Error().Err(err).Str("key_id", inviteKey.ID).Msg("failed to redeem invite code")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	user := domain.NewUser(input.StudentID, input.Email, input.FullName, string(passwordHash))
	if inviteKey != nil {
		user.Role = domain.RoleAdmin
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	// Mirror elevated accounts into the admin collection so the admin
	// login endpoint accepts them too.
	if inviteKey != nil {
		admin := domain.NewAdmin(user.Email, user.FullName, user.PasswordHash)
		if err := s.admins.Upsert(ctx, admin); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to mirror admin record")
		}
	}

	signed, err := s.tokens.SignUser(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to sign token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("role", string(user.Role)).
		Msg("user registered")

	return &AuthOutput{Token: signed, User: user}, nil
}

// Login verifies credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthOutput, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		// Don't expose whether the email exists.
		s.logger.Debug().Msg("user not found during login")
		return nil, domain.ErrInvalidCredentials
	}

	if !user.CanAuthenticate() {
		s.logger.Debug().Str("user_id", user.ID).Msg("inactive user attempted login")
		return nil, domain.ErrUserInactive
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("user_id", user.ID).Msg("invalid password during login")
		return nil, domain.ErrInvalidCredentials
	}

	signed, err := s.tokens.SignUser(user)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to sign token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")

	return &AuthOutput{Token: signed, User: user}, nil
}

// Me returns the profile of the authenticated account.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load profile")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// ResetRequestOutput carries the freshly issued reset token.
// Email delivery is out of scope; the plaintext token is returned to the
// caller exactly once.
type ResetRequestOutput struct {
	UID       string    `json:"uid"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RequestReset issues a password reset token for the given email.
func (s *AuthService) RequestReset(ctx context.Context, email string) (*ResetRequestOutput, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to look up user for reset")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	plaintext, err := crypto.GenerateResetToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate reset token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	reset := domain.NewPasswordReset(user.ID, crypto.HashToken(plaintext), s.resetTTL)
	if err := s.resets.Create(ctx, reset); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to store reset token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")

	return &ResetRequestOutput{
		UID:       user.ID,
		Token:     plaintext,
		ExpiresAt: reset.ExpiresAt,
	}, nil
}

// ResetPassword redeems a reset token and replaces the user's password.
// Redemption invalidates every other outstanding token for the user.
func (s *AuthService) ResetPassword(ctx context.Context, uid, plaintext, newPassword string) error {
	if uid == "" || plaintext == "" {
		return ErrMissingFields
	}
	if !domain.ValidPassword(newPassword) {
		return ErrInvalidPassword
	}

	now := time.Now().UTC()

	reset, err := s.resets.GetRedeemable(ctx, uid, crypto.HashToken(plaintext), now)
	if err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", uid).Msg("failed to look up reset token")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	if err := s.users.UpdatePasswordHash(ctx, uid, string(passwordHash)); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrResetTokenInvalid
		}
		s.logger.Error().Err(err).Str("user_id", uid).Msg("failed to update password")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.resets.Consume(ctx, reset.ID, uid, now); err != nil {
		if errors.Is(err, domain.ErrResetTokenInvalid) {
			return err
		}
		s.logger.Error().Err(err).Str("user_id", uid).Msg("failed to consume reset token")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", uid).Msg("password reset completed")
	return nil
}

// validateSignup applies the registration validation rules.
func validateSignup(input SignupInput) error {
	if input.StudentID == "" || input.Email == "" || input.FullName == "" || input.Password == "" {
		return ErrMissingFields
	}
	if !domain.ValidStudentID(input.StudentID) {
		return ErrInvalidStudentID
	}
	if !domain.ValidEmail(input.Email) {
		return ErrInvalidEmail
	}
	if !domain.ValidFullName(input.FullName) {
		return ErrInvalidFullName
	}
	if !domain.ValidPassword(input.Password) {
		return ErrInvalidPassword
	}
	if input.Password != input.ConfirmPassword {
		return ErrPasswordMismatch
	}
	return nil
}
