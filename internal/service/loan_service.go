package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/lock"
	"github.com/prn-tf/libreport/internal/repository"
)

// Inventory lock parameters. Borrow and return on the same book are
// serialized per instance or per cluster depending on the Locker.
const (
	inventoryLockTTL        = 5 * time.Second
	inventoryLockRetries    = 3
	inventoryLockRetryDelay = 100 * time.Millisecond
)

// LoanService handles borrow and return flows plus loan reporting.
type LoanService struct {
	loans    repository.LoanRepository
	books    repository.BookRepository
	users    repository.UserRepository
	locker   lock.Locker
	loanDays int
	logger   zerolog.Logger
}

// NewLoanService creates a new LoanService.
func NewLoanService(
	loans repository.LoanRepository,
	books repository.BookRepository,
	users repository.UserRepository,
	locker lock.Locker,
	loanDays int,
	logger zerolog.Logger,
) *LoanService {
	if locker == nil {
		locker = lock.NewNoOpLocker()
	}
	return &LoanService{
		loans:    loans,
		books:    books,
		users:    users,
		locker:   locker,
		loanDays: loanDays,
		logger:   logger.With().Str("service", "loan").Logger(),
	}
}

// BorrowInput identifies the borrowing account and catalog item.
type BorrowInput struct {
	AccountID string
	ItemID    string

	// Days overrides the default loan period when positive.
	Days int
}

// Borrow checks out a book. The inventory decrement is a conditional
// update guarded by available_copies > 0, so concurrent borrows of the
// last copy cannot drive the count negative.
func (s *LoanService) Borrow(ctx context.Context, input BorrowInput) (*domain.Loan, error) {
	if input.AccountID == "" || input.ItemID == "" {
		return nil, ErrMissingLoanRef
	}

	if _, err := s.users.GetByID(ctx, input.AccountID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to load borrower")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	days := input.Days
	if days <= 0 {
		days = s.loanDays
	}

	lockKey := lock.Keys.BookInventory(input.ItemID)
	acquired, err := s.locker.AcquireWithRetry(ctx, lockKey, inventoryLockTTL, inventoryLockRetries, inventoryLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("book_id", input.ItemID).Msg("failed to acquire inventory lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if acquired {
		defer func() {
			if _, err := s.locker.Release(ctx, lockKey); err != nil {
				s.logger.Warn().Err(err).Str("book_id", input.ItemID).Msg("failed to release inventory lock")
			}
		}()
	}

	if err := s.books.DecrementAvailable(ctx, input.ItemID); err != nil {
		if errors.Is(err, domain.ErrBookNotFound) || errors.Is(err, domain.ErrNoAvailableCopies) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("book_id", input.ItemID).Msg("failed to decrement inventory")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	loan := domain.NewLoan(input.AccountID, input.ItemID, days)
	if err := s.loans.Create(ctx, loan); err != nil {
		// Put the copy back; the decrement already happened.
		if incErr := s.books.IncrementAvailable(ctx, input.ItemID); incErr != nil {
			s.logger.Error().Err(incErr).Str("book_id", input.ItemID).Msg("failed to compensate inventory decrement")
		}
		s.logger.Error().Err(err).Msg("failed to create loan")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Str("loan_id", loan.ID).
		Str("user_id", input.AccountID).
		Str("book_id", input.ItemID).
		Time("due_at", loan.DueAt).
		Msg("book borrowed")

	return loan, nil
}

// ReturnInput identifies the loan to return, either directly or by the
// (account, item) active pair.
type ReturnInput struct {
	LoanID    string
	AccountID string
	ItemID    string
}

// Return checks a book back in. A returned loan stays returned; double
// returns fail instead of moving the timestamp.
func (s *LoanService) Return(ctx context.Context, input ReturnInput) (*domain.Loan, error) {
	loan, err := s.resolveLoan(ctx, input)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	lockKey := lock.Keys.BookInventory(loan.BookID)
	acquired, err := s.locker.AcquireWithRetry(ctx, lockKey, inventoryLockTTL, inventoryLockRetries, inventoryLockRetryDelay)
	if err != nil {
		s.logger.Error().Err(err).Str("book_id", loan.BookID).Msg("failed to acquire inventory lock")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if acquired {
		defer func() {
			if _, err := s.locker.Release(ctx, lockKey); err != nil {
				s.logger.Warn().Err(err).Str("book_id", loan.BookID).Msg("failed to release inventory lock")
			}
		}()
	}

	if err := s.loans.MarkReturned(ctx, loan.ID, now); err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) || errors.Is(err, domain.ErrLoanAlreadyReturned) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("loan_id", loan.ID).Msg("failed to mark loan returned")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := s.books.IncrementAvailable(ctx, loan.BookID); err != nil {
		// The loan is already stamped; the count is off by one until
		// someone reconciles it.
		s.logger.Error().Err(err).Str("book_id", loan.BookID).Msg("failed to increment inventory on return")
	}

	loan.ReturnedAt = &now

	s.logger.Info().
		Str("loan_id", loan.ID).
		Str("book_id", loan.BookID).
		Msg("book returned")

	return loan, nil
}

// resolveLoan finds the loan referenced by the return request.
func (s *LoanService) resolveLoan(ctx context.Context, input ReturnInput) (*domain.Loan, error) {
	if input.LoanID != "" {
		loan, err := s.loans.GetByID(ctx, input.LoanID)
		if err != nil {
			if errors.Is(err, domain.ErrLoanNotFound) {
				return nil, err
			}
			s.logger.Error().Err(err).Str("loan_id", input.LoanID).Msg("failed to load loan")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return loan, nil
	}

	if input.AccountID == "" || input.ItemID == "" {
		return nil, ErrMissingLoanRef
	}

	loan, err := s.loans.GetActiveByUserAndBook(ctx, input.AccountID, input.ItemID)
	if err != nil {
		if errors.Is(err, domain.ErrLoanNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Msg("failed to resolve active loan")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return loan, nil
}

// ListActive returns all active loans with user and book details and
// their computed Overdue/On Time status.
func (s *LoanService) ListActive(ctx context.Context) ([]*domain.ActiveLoanDetail, error) {
	items, err := s.loans.ListActiveDetails(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list active loans")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if items == nil {
		items = []*domain.ActiveLoanDetail{}
	}
	return items, nil
}

// ListBorrowedByUser returns a student's active loans with book details.
func (s *LoanService) ListBorrowedByUser(ctx context.Context, userID string) ([]*domain.BorrowedBookDetail, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to load user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	items, err := s.loans.ListBorrowedByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list borrowed books")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if items == nil {
		items = []*domain.BorrowedBookDetail{}
	}
	return items, nil
}
