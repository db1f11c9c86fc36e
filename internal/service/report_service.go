package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// Reporting defaults.
const (
	defaultHeatmapDays  = 30
	dashboardTopBooks   = 5
	reportTopBooksLimit = 10
)

// ReportService produces the dashboard, heatmap, and listing reports.
type ReportService struct {
	users  repository.UserRepository
	books  repository.BookRepository
	loans  repository.LoanRepository
	visits repository.VisitRepository
	logger zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(
	users repository.UserRepository,
	books repository.BookRepository,
	loans repository.LoanRepository,
	visits repository.VisitRepository,
	logger zerolog.Logger,
) *ReportService {
	return &ReportService{
		users:  users,
		books:  books,
		loans:  loans,
		visits: visits,
		logger: logger.With().Str("service", "report").Logger(),
	}
}

// Dashboard aggregates the headline counts and top titles.
type Dashboard struct {
	Users       int64                     `json:"users"`
	Books       int64                     `json:"books"`
	ActiveLoans int64                     `json:"activeLoans"`
	VisitsToday int64                     `json:"visitsToday"`
	TopBooks    []*domain.BookBorrowCount `json:"topBooks"`
}

// Dashboard returns the admin dashboard snapshot.
func (s *ReportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	users, err := s.users.Count(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to count users")
	}
	books, err := s.books.Count(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to count books")
	}
	activeLoans, err := s.loans.CountActive(ctx)
	if err != nil {
		return nil, s.fail(err, "failed to count active loans")
	}

	now := time.Now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	visitsToday, err := s.visits.CountSince(ctx, startOfDay)
	if err != nil {
		return nil, s.fail(err, "failed to count visits today")
	}

	topBooks, err := s.loans.TopBorrowed(ctx, dashboardTopBooks)
	if err != nil {
		return nil, s.fail(err, "failed to query top books")
	}
	if topBooks == nil {
		topBooks = []*domain.BookBorrowCount{}
	}

	return &Dashboard{
		Users:       users,
		Books:       books,
		ActiveLoans: activeLoans,
		VisitsToday: visitsToday,
		TopBooks:    topBooks,
	}, nil
}

// Heatmap is the visit density report.
type Heatmap struct {
	Since time.Time               `json:"since"`
	Items []*domain.HeatmapBucket `json:"items"`
}

// VisitHeatmap returns per-(day, hour) visit counts over the last days
// days, optionally filtered by branch. Days defaults to 30.
func (s *ReportService) VisitHeatmap(ctx context.Context, days int, branch string) (*Heatmap, error) {
	if days <= 0 {
		days = defaultHeatmapDays
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	items, err := s.visits.Heatmap(ctx, since, branch)
	if err != nil {
		return nil, s.fail(err, "failed to query visit heatmap")
	}
	if items == nil {
		items = []*domain.HeatmapBucket{}
	}

	return &Heatmap{Since: since, Items: items}, nil
}

// TopBooks returns the most borrowed titles of all time.
func (s *ReportService) TopBooks(ctx context.Context) ([]*domain.BookBorrowCount, error) {
	items, err := s.loans.TopBorrowed(ctx, reportTopBooksLimit)
	if err != nil {
		return nil, s.fail(err, "failed to query top books")
	}
	if items == nil {
		items = []*domain.BookBorrowCount{}
	}
	return items, nil
}

// Overdue returns active loans past their due date.
func (s *ReportService) Overdue(ctx context.Context) ([]*domain.OverdueLoanDetail, error) {
	items, err := s.loans.ListOverdueDetails(ctx, time.Now().UTC())
	if err != nil {
		return nil, s.fail(err, "failed to list overdue loans")
	}
	if items == nil {
		items = []*domain.OverdueLoanDetail{}
	}
	return items, nil
}

func (s *ReportService) fail(err error, msg string) error {
	s.logger.Error().Err(err).Msg(msg)
	return fmt.Errorf("%w: %v", ErrInternalError, err)
}
