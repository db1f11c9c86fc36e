// Package domain contains the core business entities for LibReport.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User / Admin Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same email or
	// student ID exists.
	ErrUserAlreadyExists = errors.New("user already exists")

	// ErrAdminNotFound indicates the requested admin does not exist.
	ErrAdminNotFound = errors.New("admin not found")

	// ErrAdminAlreadyExists indicates an admin with the same email exists.
	ErrAdminAlreadyExists = errors.New("admin already exists")

	// ErrUserInactive indicates the account is disabled.
	ErrUserInactive = errors.New("user account is inactive")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidRole indicates an unknown role value.
	ErrInvalidRole = errors.New("invalid role")

	// ===========================================
	// Invite Code Errors
	// ===========================================

	// ErrAdminKeyNotFound indicates the requested invite key does not exist.
	ErrAdminKeyNotFound = errors.New("admin key not found")

	// ErrAdminKeyAlreadyExists indicates a key with the same code hash exists.
	ErrAdminKeyAlreadyExists = errors.New("admin key already exists")

	// ErrInviteCodeInvalid indicates the invite code is unknown, expired,
	// inactive, or over its use quota.
	ErrInviteCodeInvalid = errors.New("invalid or expired admin code")

	// ===========================================
	// Catalog Errors
	// ===========================================

	// ErrBookNotFound indicates the requested book does not exist.
	ErrBookNotFound = errors.New("book not found")

	// ===========================================
	// Loan Errors
	// ===========================================

	// ErrLoanNotFound indicates no matching active loan exists.
	ErrLoanNotFound = errors.New("active loan not found")

	// ErrLoanAlreadyReturned indicates the loan was already returned.
	ErrLoanAlreadyReturned = errors.New("already returned")

	// ErrNoAvailableCopies indicates the book has no copies on the shelf.
	ErrNoAvailableCopies = errors.New("no available copies")

	// ===========================================
	// Hours Errors
	// ===========================================

	// ErrHoursNotFound indicates no hours entry exists for the branch/day.
	ErrHoursNotFound = errors.New("hours entry not found")

	// ===========================================
	// Password Reset Errors
	// ===========================================

	// ErrResetTokenInvalid indicates the reset token is unknown, used,
	// or expired.
	ErrResetTokenInvalid = errors.New("invalid or expired token")
)

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., user ID, book ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
