package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/archive"
	"github.com/prn-tf/libreport/internal/repository"
)

// ArchiveService builds CSV snapshots of the overdue and visit reports
// and uploads them to object storage.
type ArchiveService struct {
	loans    repository.LoanRepository
	visits   repository.VisitRepository
	uploader archive.Uploader
	logger   zerolog.Logger
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(
	loans repository.LoanRepository,
	visits repository.VisitRepository,
	uploader archive.Uploader,
	logger zerolog.Logger,
) *ArchiveService {
	return &ArchiveService{
		loans:    loans,
		visits:   visits,
		uploader: uploader,
		logger:   logger.With().Str("service", "archive").Logger(),
	}
}

// ExportOutput names the uploaded snapshot objects.
type ExportOutput struct {
	Overdue string `json:"overdue"`
	Heatmap string `json:"heatmap"`
}

// Export uploads the current overdue listing and the 30-day visit
// heatmap as CSV snapshots with timestamped keys.
func (s *ArchiveService) Export(ctx context.Context) (*ExportOutput, error) {
	now := time.Now().UTC()
	stamp := now.Format("2006-01-02T15-04-05Z")

	overdueKey, err := s.exportOverdue(ctx, now, stamp)
	if err != nil {
		return nil, err
	}

	heatmapKey, err := s.exportHeatmap(ctx, now, stamp)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("overdue", overdueKey).
		Str("heatmap", heatmapKey).
		Msg("reports exported")

	return &ExportOutput{Overdue: overdueKey, Heatmap: heatmapKey}, nil
}

func (s *ArchiveService) exportOverdue(ctx context.Context, now time.Time, stamp string) (string, error) {
	items, err := s.loans.ListOverdueDetails(ctx, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list overdue loans for export")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"user", "title", "borrowed_at", "due_at"})
	for _, item := range items {
		_ = w.Write([]string{
			item.User,
			item.Title,
			item.BorrowedAt.Format(time.RFC3339),
			item.DueAt.Format(time.RFC3339),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key, err := s.uploader.Upload(ctx, "overdue-"+stamp+".csv", "text/csv", buf.Bytes())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upload overdue export")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return key, nil
}

func (s *ArchiveService) exportHeatmap(ctx context.Context, now time.Time, stamp string) (string, error) {
	buckets, err := s.visits.Heatmap(ctx, now.AddDate(0, 0, -defaultHeatmapDays), "")
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to query heatmap for export")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"day_of_week", "hour", "count"})
	for _, b := range buckets {
		_ = w.Write([]string{
			strconv.Itoa(b.DayOfWeek),
			strconv.Itoa(b.Hour),
			strconv.FormatInt(b.Count, 10),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	key, err := s.uploader.Upload(ctx, "visits-heatmap-"+stamp+".csv", "text/csv", buf.Bytes())
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to upload heatmap export")
		return "", fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return key, nil
}
