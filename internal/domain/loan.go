package domain

import "time"

// Loan status labels computed at query time.
const (
	LoanStatusOverdue = "Overdue"
	LoanStatusOnTime  = "On Time"
)

// Loan represents a borrow record. A loan with a nil ReturnedAt is active.
type Loan struct {
	// ID is the unique identifier for the loan.
	ID string `json:"id"`

	// UserID is the borrowing account.
	UserID string `json:"userId"`

	// BookID is the borrowed catalog item.
	BookID string `json:"bookId"`

	// BorrowedAt is when the loan was created.
	BorrowedAt time.Time `json:"borrowedAt"`

	// DueAt is when the loan is due back.
	DueAt time.Time `json:"dueAt"`

	// ReturnedAt is when the loan was returned; nil while active.
	ReturnedAt *time.Time `json:"returnedAt"`
}

// NewLoan creates a new active Loan due in the given number of days.
func NewLoan(userID, bookID string, days int) *Loan {
	now := time.Now().UTC()
	return &Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueAt:      now.Add(time.Duration(days) * 24 * time.Hour),
	}
}

// IsActive reports whether the loan has not been returned.
func (l *Loan) IsActive() bool {
	return l.ReturnedAt == nil
}

// Status returns the computed overdue/on-time label at time now.
func (l *Loan) Status(now time.Time) string {
	if l.DueAt.Before(now) {
		return LoanStatusOverdue
	}
	return LoanStatusOnTime
}

// ActiveLoanDetail is an active loan joined with user and book details
// for the management UI listing.
type ActiveLoanDetail struct {
	LoanID     string    `json:"id"`
	Title      string    `json:"title"`
	Student    string    `json:"student"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
	Status     string    `json:"status"`
}

// BorrowedBookDetail is an active loan joined with book details,
// scoped to a single student.
type BorrowedBookDetail struct {
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
}

// OverdueLoanDetail is an overdue loan joined with user and book details.
type OverdueLoanDetail struct {
	User       string    `json:"user"`
	Title      string    `json:"title"`
	BorrowedAt time.Time `json:"borrowedAt"`
	DueAt      time.Time `json:"dueAt"`
}

// BookBorrowCount is a catalog item with its all-time borrow count.
type BookBorrowCount struct {
	BookID  string `json:"bookId"`
	Title   string `json:"title"`
	Author  string `json:"author"`
	Borrows int64  `json:"borrows"`
}
