// Package domain contains the core business entities for LibReport.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the library management system.
package domain

import (
	"net/mail"
	"regexp"
	"strings"
	"time"
)

// Role is the authorization role attached to a user account.
type Role string

// Valid account roles.
const (
	RoleAdmin     Role = "admin"
	RoleLibrarian Role = "librarian"
	RoleFaculty   Role = "faculty"
	RoleStudent   Role = "student"
	RoleViewer    Role = "viewer"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleLibrarian, RoleFaculty, RoleStudent, RoleViewer:
		return true
	}
	return false
}

// AccountStatus is the lifecycle status of a user account.
type AccountStatus string

// Valid account statuses.
const (
	StatusActive   AccountStatus = "active"
	StatusDisabled AccountStatus = "disabled"
	StatusPending  AccountStatus = "pending"
)

// Student IDs are accepted either in the dashed campus format
// (03-2324-032246) or as a plain 4-12 digit number.
var (
	studentIDDashed = regexp.MustCompile(`^\d{2}-\d{4}-\d{6}$`)
	studentIDPlain  = regexp.MustCompile(`^\d{4,12}$`)
	fullNamePattern = regexp.MustCompile(`^[A-Za-z .'-]+$`)
)

// User represents a registered library account.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"id"`

	// StudentID is the unique campus identifier used at check-in.
	StudentID string `json:"studentId"`

	// Email is the unique, lowercased email address.
	Email string `json:"email"`

	// FullName is the display name of the account holder.
	FullName string `json:"fullName"`

	// Barcode is the optional library card barcode, unique when present.
	Barcode string `json:"barcode,omitempty"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Role determines the user's authorization level.
	Role Role `json:"role"`

	// Status is the account lifecycle status.
	Status AccountStatus `json:"status"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the account was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default role and status.
func NewUser(studentID, email, fullName, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		StudentID:    strings.TrimSpace(studentID),
		Email:        NormalizeEmail(email),
		FullName:     strings.TrimSpace(fullName),
		PasswordHash: passwordHash,
		Role:         RoleStudent,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the account is allowed to log in.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidStudentID reports whether s is an acceptable student identifier.
func ValidStudentID(s string) bool {
	return studentIDDashed.MatchString(s) || studentIDPlain.MatchString(s)
}

// ValidEmail reports whether s is a syntactically valid email address.
func ValidEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// ValidFullName reports whether s contains only letters, spaces,
// apostrophes, hyphens, and periods.
func ValidFullName(s string) bool {
	return fullNamePattern.MatchString(s)
}

// ValidPassword reports whether s is at least 8 characters and contains
// at least one letter and one digit.
func ValidPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			hasDigit = true
		case (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
			hasLetter = true
		}
	}
	return hasLetter && hasDigit
}
