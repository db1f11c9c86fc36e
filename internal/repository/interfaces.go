// Package repository defines data access interfaces for LibReport.
// These interfaces abstract database operations, allowing for different
// implementations (PostgreSQL, SQLite, in-memory for testing) while
// keeping the service layer clean.
package repository

import (
	"context"
	"time"

	"github.com/prn-tf/libreport/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user account data access.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by (lowercased) email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByStudentID retrieves a user by student ID.
	GetByStudentID(ctx context.Context, studentID string) (*domain.User, error)

	// GetByBarcode retrieves a user by card barcode.
	GetByBarcode(ctx context.Context, barcode string) (*domain.User, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByStudentID checks if a user with the given student ID exists.
	ExistsByStudentID(ctx context.Context, studentID string) (bool, error)

	// UpdatePasswordHash replaces the stored password hash.
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error

	// UpdateRole changes the user's role.
	UpdateRole(ctx context.Context, id string, role domain.Role) error

	// Search returns users matching q against full name, email, or
	// student ID (case-insensitive substring), newest first. An empty q
	// returns all users up to limit.
	Search(ctx context.Context, q string, limit int) ([]*domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)
}

// =============================================================================
// Admin Repository
// =============================================================================

// AdminRepository defines the interface for the separate admin identity space.
type AdminRepository interface {
	// Create creates a new admin.
	Create(ctx context.Context, admin *domain.Admin) error

	// GetByID retrieves an admin by ID.
	GetByID(ctx context.Context, id string) (*domain.Admin, error)

	// GetByEmail retrieves an admin by (lowercased) email.
	GetByEmail(ctx context.Context, email string) (*domain.Admin, error)

	// ExistsByEmail checks if an admin with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Upsert creates the admin or, if the email already exists, refreshes
	// its full name, password hash, and status. Used to mirror invite-code
	// elevations into the admin collection.
	Upsert(ctx context.Context, admin *domain.Admin) error
}

// =============================================================================
// Admin Key (invite code) Repository
// =============================================================================

// AdminKeyPatch carries optional field updates for an admin key.
// Nil fields are left unchanged.
type AdminKeyPatch struct {
	Label     *string
	MaxUses   *int
	Active    *bool
	ExpiresAt *time.Time
	// ClearExpiry removes the expiry when true.
	ClearExpiry bool
}

// AdminKeyRepository defines the interface for invite code data access.
type AdminKeyRepository interface {
	// Create creates a new invite key.
	Create(ctx context.Context, key *domain.AdminKey) error

	// GetByID retrieves a key by ID.
	GetByID(ctx context.Context, id string) (*domain.AdminKey, error)

	// GetActiveByCodeHash retrieves an active key by its code hash.
	GetActiveByCodeHash(ctx context.Context, codeHash string) (*domain.AdminKey, error)

	// List returns all keys, newest first.
	List(ctx context.Context) ([]*domain.AdminKey, error)

	// Patch applies a partial update and returns the updated key.
	Patch(ctx context.Context, id string, patch AdminKeyPatch) (*domain.AdminKey, error)

	// Redeem atomically increments the key's use counter, guarded by
	// uses < max_uses. Returns domain.ErrInviteCodeInvalid if the guard
	// no longer holds.
	Redeem(ctx context.Context, id string) error
}

// =============================================================================
// Book Repository
// =============================================================================

// BookPatch carries optional field updates for a book.
// Nil fields are left unchanged.
type BookPatch struct {
	Title           *string
	Author          *string
	ISBN            *string
	Tags            []string
	TotalCopies     *int
	AvailableCopies *int
}

// BookRepository defines the interface for catalog data access.
type BookRepository interface {
	// Create creates a new book.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by ID.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// Patch applies a partial update and returns the updated book.
	Patch(ctx context.Context, id string, patch BookPatch) (*domain.Book, error)

	// Delete deletes a book by ID.
	Delete(ctx context.Context, id string) error

	// Search returns books matching q against title or author
	// (case-insensitive substring). An empty q returns all books up to limit.
	Search(ctx context.Context, q string, limit int) ([]*domain.Book, error)

	// Count returns the total number of books.
	Count(ctx context.Context) (int64, error)

	// DecrementAvailable atomically decrements available_copies by one,
	// guarded by available_copies > 0. Returns domain.ErrNoAvailableCopies
	// if the guard no longer holds, domain.ErrBookNotFound if the book
	// does not exist.
	DecrementAvailable(ctx context.Context, id string) error

	// IncrementAvailable increments available_copies by one.
	IncrementAvailable(ctx context.Context, id string) error
}

// =============================================================================
// Loan Repository
// =============================================================================

// LoanRepository defines the interface for loan data access.
type LoanRepository interface {
	// Create creates a new loan.
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by ID.
	GetByID(ctx context.Context, id string) (*domain.Loan, error)

	// GetActiveByUserAndBook retrieves the active loan for a (user, book)
	// pair, if any.
	GetActiveByUserAndBook(ctx context.Context, userID, bookID string) (*domain.Loan, error)

	// MarkReturned stamps returned_at on an active loan. Returns
	// domain.ErrLoanAlreadyReturned if the loan was already returned.
	MarkReturned(ctx context.Context, id string, returnedAt time.Time) error

	// CountActive returns the number of active loans.
	CountActive(ctx context.Context) (int64, error)

	// ListActiveDetails returns active loans joined with user and book
	// details, newest first.
	ListActiveDetails(ctx context.Context) ([]*domain.ActiveLoanDetail, error)

	// ListBorrowedByUser returns the active loans of one user joined
	// with book details.
	ListBorrowedByUser(ctx context.Context, userID string) ([]*domain.BorrowedBookDetail, error)

	// ListOverdueDetails returns active loans past due, joined with user
	// and book details.
	ListOverdueDetails(ctx context.Context, now time.Time) ([]*domain.OverdueLoanDetail, error)

	// TopBorrowed returns the most borrowed books of all time.
	TopBorrowed(ctx context.Context, limit int) ([]*domain.BookBorrowCount, error)
}

// =============================================================================
// Visit Repository
// =============================================================================

// VisitRepository defines the interface for visit log data access.
type VisitRepository interface {
	// Create appends a new visit record.
	Create(ctx context.Context, visit *domain.Visit) error

	// HasRecent reports whether any visit for the same user, student ID,
	// or barcode was recorded strictly after the given time.
	HasRecent(ctx context.Context, userID, studentID, barcode string, after time.Time) (bool, error)

	// CountSince returns the number of visits at or after the given time.
	CountSince(ctx context.Context, since time.Time) (int64, error)

	// Heatmap returns per-(day-of-week, hour) visit counts since the
	// given time, optionally filtered by branch. Day of week is 0-6 with
	// Sunday as 0.
	Heatmap(ctx context.Context, since time.Time, branch string) ([]*domain.HeatmapBucket, error)
}

// =============================================================================
// Hours Repository
// =============================================================================

// HoursRepository defines the interface for opening-hours data access.
type HoursRepository interface {
	// ListByBranch returns the hours entries for a branch ordered by day.
	ListByBranch(ctx context.Context, branch string) ([]*domain.Hours, error)

	// Upsert creates or replaces the entry for (branch, day) and returns
	// the stored entry.
	Upsert(ctx context.Context, entry *domain.Hours) (*domain.Hours, error)
}

// =============================================================================
// Password Reset Repository
// =============================================================================

// PasswordResetRepository defines the interface for reset token data access.
type PasswordResetRepository interface {
	// Create stores a new reset token record.
	Create(ctx context.Context, reset *domain.PasswordReset) error

	// GetRedeemable retrieves the unused, unexpired token record matching
	// the user and token hash. Returns domain.ErrResetTokenInvalid if no
	// such record exists.
	GetRedeemable(ctx context.Context, userID, tokenHash string, now time.Time) (*domain.PasswordReset, error)

	// Consume marks the record used and, in the same transaction,
	// invalidates every other outstanding unused token for the user.
	Consume(ctx context.Context, id, userID string, usedAt time.Time) error
}
