package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// hoursCacheTTL bounds staleness of the read-through hours cache.
const hoursCacheTTL = 5 * time.Minute

// HoursService handles the opening-hours configuration.
type HoursService struct {
	hours         repository.HoursRepository
	cache         repository.Cache
	defaultBranch string
	logger        zerolog.Logger
}

// NewHoursService creates a new HoursService. The cache is optional.
func NewHoursService(
	hours repository.HoursRepository,
	cache repository.Cache,
	defaultBranch string,
	logger zerolog.Logger,
) *HoursService {
	return &HoursService{
		hours:         hours,
		cache:         cache,
		defaultBranch: defaultBranch,
		logger:        logger.With().Str("service", "hours").Logger(),
	}
}

// ListWeek returns the hours entries for a branch ordered by day.
// An empty branch means the default branch.
func (s *HoursService) ListWeek(ctx context.Context, branch string) ([]*domain.Hours, error) {
	if branch == "" {
		branch = s.defaultBranch
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, hoursCacheKey(branch)); err == nil {
			var entries []*domain.Hours
			if err := json.Unmarshal(cached, &entries); err == nil {
				return entries, nil
			}
			// Corrupt entry, fall through to the database.
			_ = s.cache.Delete(ctx, hoursCacheKey(branch))
		}
	}

	entries, err := s.hours.ListByBranch(ctx, branch)
	if err != nil {
		s.logger.Error().Err(err).Str("branch", branch).Msg("failed to list hours")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if entries == nil {
		entries = []*domain.Hours{}
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, hoursCacheKey(branch), encoded, hoursCacheTTL); err != nil {
				s.logger.Warn().Err(err).Str("branch", branch).Msg("failed to cache hours")
			}
		}
	}

	return entries, nil
}

// UpsertHoursInput sets the hours for one (branch, day) pair.
type UpsertHoursInput struct {
	Branch    string
	DayOfWeek int
	Open      string
	Close     string
}

// Upsert creates or replaces the entry for (branch, day).
func (s *HoursService) Upsert(ctx context.Context, input UpsertHoursInput) (*domain.Hours, error) {
	if input.Branch == "" {
		input.Branch = s.defaultBranch
	}
	if !domain.ValidDayOfWeek(input.DayOfWeek) {
		return nil, ErrInvalidDayOfWeek
	}
	if !domain.ValidClock(input.Open) || !domain.ValidClock(input.Close) {
		return nil, ErrInvalidClock
	}

	stored, err := s.hours.Upsert(ctx, &domain.Hours{
		Branch:    input.Branch,
		DayOfWeek: input.DayOfWeek,
		Open:      input.Open,
		Close:     input.Close,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("branch", input.Branch).Msg("failed to upsert hours")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, hoursCacheKey(input.Branch)); err != nil {
			s.logger.Warn().Err(err).Str("branch", input.Branch).Msg("failed to invalidate hours cache")
		}
	}

	s.logger.Info().
		Str("branch", input.Branch).
		Int("day", input.DayOfWeek).
		Msg("hours updated")

	return stored, nil
}

// hoursCacheKey is the cache key for one branch's weekly hours.
func hoursCacheKey(branch string) string {
	return "hours:" + branch
}
