package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// VisitService handles badge-in check-ins with de-duplication.
type VisitService struct {
	visits        repository.VisitRepository
	users         repository.UserRepository
	cache         repository.Cache
	window        time.Duration
	defaultBranch string
	logger        zerolog.Logger
}

// NewVisitService creates a new VisitService. The cache is optional;
// when present it serves as the de-dup fast path shared across
// instances, with the database window query as fallback.
func NewVisitService(
	visits repository.VisitRepository,
	users repository.UserRepository,
	cache repository.Cache,
	window time.Duration,
	defaultBranch string,
	logger zerolog.Logger,
) *VisitService {
	return &VisitService{
		visits:        visits,
		users:         users,
		cache:         cache,
		window:        window,
		defaultBranch: defaultBranch,
		logger:        logger.With().Str("service", "visit").Logger(),
	}
}

// CheckInInput identifies the visitor by student ID or card barcode.
type CheckInInput struct {
	StudentID string
	Barcode   string
	Branch    string
}

// CheckInOutput reports the recorded (or suppressed) visit.
type CheckInOutput struct {
	OK      bool         `json:"ok"`
	Deduped bool         `json:"deduped"`
	User    *domain.User `json:"user"`
}

// CheckIn records a visit. Repeated check-ins for the same identity
// inside the de-dup window are acknowledged but not recorded again.
func (s *VisitService) CheckIn(ctx context.Context, input CheckInInput) (*CheckInOutput, error) {
	if input.StudentID == "" && input.Barcode == "" {
		return nil, ErrMissingIdentity
	}

	user, err := s.resolveUser(ctx, input)
	if err != nil {
		return nil, err
	}

	branch := input.Branch
	if branch == "" {
		branch = s.defaultBranch
	}

	now := time.Now().UTC()

	deduped, err := s.isDuplicate(ctx, user, input, now)
	if err != nil {
		return nil, err
	}
	if deduped {
		s.logger.Debug().Str("user_id", user.ID).Msg("visit deduped")
		return &CheckInOutput{OK: true, Deduped: true, User: user}, nil
	}

	visit := &domain.Visit{
		UserID:    user.ID,
		StudentID: user.StudentID,
		Barcode:   input.Barcode,
		Branch:    branch,
		EnteredAt: now,
	}
	if err := s.visits.Create(ctx, visit); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to record visit")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("branch", branch).
		Msg("visit recorded")

	return &CheckInOutput{OK: true, Deduped: false, User: user}, nil
}

// resolveUser looks the visitor up by student ID first, then barcode.
func (s *VisitService) resolveUser(ctx context.Context, input CheckInInput) (*domain.User, error) {
	if input.StudentID != "" {
		user, err := s.users.GetByStudentID(ctx, input.StudentID)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("failed to look up visitor by student ID")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	if input.Barcode != "" {
		user, err := s.users.GetByBarcode(ctx, input.Barcode)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrUserNotFound) {
			s.logger.Error().Err(err).Msg("failed to look up visitor by barcode")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
	}

	return nil, domain.ErrUserNotFound
}

// isDuplicate checks the de-dup window. SetNX on the cache claims the
// window atomically; on cache failure the database query decides.
func (s *VisitService) isDuplicate(ctx context.Context, user *domain.User, input CheckInInput, now time.Time) (bool, error) {
	if s.window <= 0 {
		return false, nil
	}

	if s.cache != nil {
		claimed, err := s.cache.SetNX(ctx, visitDedupKey(user.ID), []byte("1"), s.window)
		if err == nil {
			return !claimed, nil
		}
		s.logger.Warn().Err(err).Msg("visit dedup cache unavailable, falling back to database")
	}

	recent, err := s.visits.HasRecent(ctx, user.ID, user.StudentID, input.Barcode, now.Add(-s.window))
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check visit dedup window")
		return false, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return recent, nil
}

// visitDedupKey is the cache key claiming a visitor's de-dup window.
func visitDedupKey(userID string) string {
	return "visit:dedup:" + userID
}
