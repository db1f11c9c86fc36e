package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/pkg/crypto"
	"github.com/prn-tf/libreport/internal/repository"
)

// InviteService manages admin invite codes. Only the hash of a code is
// ever stored; the plaintext is returned exactly once at creation.
type InviteService struct {
	keys   repository.AdminKeyRepository
	logger zerolog.Logger
}

// NewInviteService creates a new InviteService.
func NewInviteService(keys repository.AdminKeyRepository, logger zerolog.Logger) *InviteService {
	return &InviteService{
		keys:   keys,
		logger: logger.With().Str("service", "invite").Logger(),
	}
}

// CreateKeyInput configures a new invite code.
type CreateKeyInput struct {
	Label   string
	MaxUses int

	// DaysToExpire sets the expiry this many days out; 0 means no expiry.
	DaysToExpire int
}

// CreateKeyOutput is the stored key plus its one-time plaintext code.
type CreateKeyOutput struct {
	Key  *domain.AdminKey `json:"key"`
	Code string           `json:"code"`
}

// Create generates and stores a new invite code.
func (s *InviteService) Create(ctx context.Context, input CreateKeyInput) (*CreateKeyOutput, error) {
	code, err := crypto.GenerateInviteCode()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate invite code")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var expiresAt *time.Time
	if input.DaysToExpire > 0 {
		t := time.Now().UTC().AddDate(0, 0, input.DaysToExpire)
		expiresAt = &t
	}

	key := domain.NewAdminKey(crypto.HashToken(code), input.Label, input.MaxUses, expiresAt)
	if err := s.keys.Create(ctx, key); err != nil {
		if errors.Is(err, domain.ErrAdminKeyAlreadyExists) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to create invite key")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("key_id", key.ID).
		Str("label", key.Label).
		Int("max_uses", key.MaxUses).
		Msg("invite key created")

	return &CreateKeyOutput{Key: key, Code: code}, nil
}

// List returns all invite keys, newest first. Code hashes never leave
// the domain type's JSON encoding.
func (s *InviteService) List(ctx context.Context) ([]*domain.AdminKey, error) {
	keys, err := s.keys.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list invite keys")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if keys == nil {
		keys = []*domain.AdminKey{}
	}
	return keys, nil
}

// PatchKeyInput carries optional invite key updates.
type PatchKeyInput struct {
	Label   *string
	MaxUses *int
	Active  *bool

	// DaysToExpire moves the expiry this many days out from now.
	// A negative value clears the expiry.
	DaysToExpire *int
}

// Patch applies a partial update and returns the updated key.
func (s *InviteService) Patch(ctx context.Context, id string, input PatchKeyInput) (*domain.AdminKey, error) {
	patch := repository.AdminKeyPatch{
		Label:   input.Label,
		MaxUses: input.MaxUses,
		Active:  input.Active,
	}
	if input.DaysToExpire != nil {
		if *input.DaysToExpire < 0 {
			patch.ClearExpiry = true
		} else {
			t := time.Now().UTC().AddDate(0, 0, *input.DaysToExpire)
			patch.ExpiresAt = &t
		}
	}

	key, err := s.keys.Patch(ctx, id, patch)
	if err != nil {
		if errors.Is(err, domain.ErrAdminKeyNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("key_id", id).Msg("failed to patch invite key")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("key_id", id).Msg("invite key updated")
	return key, nil
}
