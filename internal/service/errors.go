// Package service provides business logic services for LibReport.
package service

import (
	"errors"
	"fmt"
)

// ErrValidation is the root of all request validation errors. Handlers
// map anything wrapping it to a 400 response.
var ErrValidation = errors.New("validation failed")

// Common service errors.
var (
	// Signup / credential validation
	ErrMissingFields    = fmt.Errorf("%w: missing required fields", ErrValidation)
	ErrInvalidStudentID = fmt.Errorf("%w: invalid student ID format", ErrValidation)
	ErrInvalidEmail     = fmt.Errorf("%w: invalid email format", ErrValidation)
	ErrInvalidFullName  = fmt.Errorf("%w: full name may contain letters, spaces, apostrophes, hyphens, and periods", ErrValidation)
	ErrInvalidPassword  = fmt.Errorf("%w: password must be at least 8 characters with at least one letter and one digit", ErrValidation)
	ErrPasswordMismatch = fmt.Errorf("%w: passwords do not match", ErrValidation)

	// Visits
	ErrMissingIdentity = fmt.Errorf("%w: studentId or barcode required", ErrValidation)

	// Catalog
	ErrMissingTitle  = fmt.Errorf("%w: title and author are required", ErrValidation)
	ErrInvalidCopies = fmt.Errorf("%w: copies must not be negative", ErrValidation)

	// Hours
	ErrInvalidDayOfWeek = fmt.Errorf("%w: day of week must be between 0 and 6", ErrValidation)
	ErrInvalidClock     = fmt.Errorf("%w: time must be in HH:mm format", ErrValidation)

	// Loans
	ErrMissingLoanRef = fmt.Errorf("%w: loanId or accountId and itemId required", ErrValidation)

	// General errors
	ErrInternalError = errors.New("internal server error")
)
