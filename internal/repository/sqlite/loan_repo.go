package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/libreport/internal/domain"
	"github.com/prn-tf/libreport/internal/repository"
)

// loanRepository implements repository.LoanRepository for SQLite.
type loanRepository struct {
	db *DB
}

// NewLoanRepository creates a new SQLite loan repository.
func NewLoanRepository(db *DB) repository.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `id, user_id, book_id, borrowed_at, due_at, returned_at`

// Create creates a new loan.
func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	if loan.ID == "" {
		loan.ID = uuid.NewString()
	}

	query := `
		INSERT INTO loans (id, user_id, book_id, borrowed_at, due_at, returned_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		loan.ID,
		loan.UserID,
		loan.BookID,
		formatTime(loan.BorrowedAt),
		formatTime(loan.DueAt),
		formatNullTime(loan.ReturnedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}

	return nil
}

func scanLoan(row interface{ Scan(...interface{}) error }) (*domain.Loan, error) {
	loan := &domain.Loan{}
	var borrowedAt, dueAt string
	var returnedAt sql.NullString

	err := row.Scan(
		&loan.ID,
		&loan.UserID,
		&loan.BookID,
		&borrowedAt,
		&dueAt,
		&returnedAt,
	)
	if err != nil {
		return nil, err
	}

	loan.BorrowedAt = parseTime(borrowedAt)
	loan.DueAt = parseTime(dueAt)
	loan.ReturnedAt = parseNullTime(returnedAt)

	return loan, nil
}

// GetByID retrieves a loan by ID.
func (r *loanRepository) GetByID(ctx context.Context, id string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = ?`

	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan by ID: %w", err)
	}
	return loan, nil
}

// GetActiveByUserAndBook retrieves the active loan for a (user, book) pair.
func (r *loanRepository) GetActiveByUserAndBook(ctx context.Context, userID, bookID string) (*domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = ? AND book_id = ? AND returned_at IS NULL
		ORDER BY borrowed_at DESC
		LIMIT 1
	`

	loan, err := scanLoan(r.db.QueryRowContext(ctx, query, userID, bookID))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get active loan: %w", err)
	}
	return loan, nil
}

// MarkReturned stamps returned_at on an active loan. The IS NULL guard
// makes a double return fail rather than overwrite the first stamp.
func (r *loanRepository) MarkReturned(ctx context.Context, id string, returnedAt time.Time) error {
	query := `UPDATE loans SET returned_at = ? WHERE id = ? AND returned_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, formatTime(returnedAt), id)
	if err != nil {
		return fmt.Errorf("failed to mark loan returned: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var count int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE id = ?`, id).Scan(&count); err != nil {
			return fmt.Errorf("failed to check loan existence: %w", err)
		}
		if count == 0 {
			return domain.ErrLoanNotFound
		}
		return domain.ErrLoanAlreadyReturned
	}
	return nil
}

// CountActive returns the number of active loans.
func (r *loanRepository) CountActive(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM loans WHERE returned_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active loans: %w", err)
	}
	return count, nil
}

// ListActiveDetails returns active loans joined with user and book details.
func (r *loanRepository) ListActiveDetails(ctx context.Context) ([]*domain.ActiveLoanDetail, error) {
	query := `
		SELECT l.id, b.title, u.full_name, l.borrowed_at, l.due_at
		FROM loans l
		JOIN users u ON u.id = l.user_id
		JOIN books b ON b.id = l.book_id
		WHERE l.returned_at IS NULL
		ORDER BY l.borrowed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	var items []*domain.ActiveLoanDetail
	for rows.Next() {
		item := &domain.ActiveLoanDetail{}
		var borrowedAt, dueAt string
		if err := rows.Scan(&item.LoanID, &item.Title, &item.Student, &borrowedAt, &dueAt); err != nil {
			return nil, fmt.Errorf("failed to scan active loan: %w", err)
		}
		item.BorrowedAt = parseTime(borrowedAt)
		item.DueAt = parseTime(dueAt)
		if item.DueAt.Before(now) {
			item.Status = domain.LoanStatusOverdue
		} else {
			item.Status = domain.LoanStatusOnTime
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating active loans: %w", err)
	}

	return items, nil
}

// ListBorrowedByUser returns the active loans of one user with book details.
func (r *loanRepository) ListBorrowedByUser(ctx context.Context, userID string) ([]*domain.BorrowedBookDetail, error) {
	query := `
		SELECT b.title, b.author, l.borrowed_at, l.due_at
		FROM loans l
		JOIN books b ON b.id = l.book_id
		WHERE l.user_id = ? AND l.returned_at IS NULL
		ORDER BY l.borrowed_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list borrowed books: %w", err)
	}
	defer rows.Close()

	var items []*domain.BorrowedBookDetail
	for rows.Next() {
		item := &domain.BorrowedBookDetail{}
		var borrowedAt, dueAt string
		if err := rows.Scan(&item.Title, &item.Author, &borrowedAt, &dueAt); err != nil {
			return nil, fmt.Errorf("failed to scan borrowed book: %w", err)
		}
		item.BorrowedAt = parseTime(borrowedAt)
		item.DueAt = parseTime(dueAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating borrowed books: %w", err)
	}

	return items, nil
}

// ListOverdueDetails returns active loans past due with user and book details.
func (r *loanRepository) ListOverdueDetails(ctx context.Context, now time.Time) ([]*domain.OverdueLoanDetail, error) {
	query := `
		SELECT u.full_name, b.title, l.borrowed_at, l.due_at
		FROM loans l
		JOIN users u ON u.id = l.user_id
		JOIN books b ON b.id = l.book_id
		WHERE l.returned_at IS NULL AND l.due_at < ?
		ORDER BY l.due_at
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	defer rows.Close()

	var items []*domain.OverdueLoanDetail
	for rows.Next() {
		item := &domain.OverdueLoanDetail{}
		var borrowedAt, dueAt string
		if err := rows.Scan(&item.User, &item.Title, &borrowedAt, &dueAt); err != nil {
			return nil, fmt.Errorf("failed to scan overdue loan: %w", err)
		}
		item.BorrowedAt = parseTime(borrowedAt)
		item.DueAt = parseTime(dueAt)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating overdue loans: %w", err)
	}

	return items, nil
}

// TopBorrowed returns the most borrowed books of all time.
func (r *loanRepository) TopBorrowed(ctx context.Context, limit int) ([]*domain.BookBorrowCount, error) {
	query := `
		SELECT l.book_id, b.title, b.author, COUNT(*) AS borrows
		FROM loans l
		JOIN books b ON b.id = l.book_id
		GROUP BY l.book_id, b.title, b.author
		ORDER BY borrows DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top borrowed books: %w", err)
	}
	defer rows.Close()

	var items []*domain.BookBorrowCount
	for rows.Next() {
		item := &domain.BookBorrowCount{}
		if err := rows.Scan(&item.BookID, &item.Title, &item.Author, &item.Borrows); err != nil {
			return nil, fmt.Errorf("failed to scan top borrowed book: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating top borrowed books: %w", err)
	}

	return items, nil
}

// Ensure loanRepository implements repository.LoanRepository.
var _ repository.LoanRepository = (*loanRepository)(nil)
