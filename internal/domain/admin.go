package domain

import "time"

// Admin represents an account in the separate admin identity space.
// Admins authenticate through the admin-only endpoints; a regular User
// elevated via an invite code gets a mirrored Admin record.
type Admin struct {
	// ID is the unique identifier for the admin.
	ID string `json:"id"`

	// Email is the unique, lowercased email address.
	Email string `json:"email"`

	// FullName is the display name.
	FullName string `json:"fullName"`

	// PasswordHash is the bcrypt hash of the admin's password.
	PasswordHash string `json:"-"`

	// Status is either "active" or "disabled".
	Status AccountStatus `json:"status"`

	// CreatedAt is the timestamp when the admin was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the admin was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAdmin creates a new active Admin.
func NewAdmin(email, fullName, passwordHash string) *Admin {
	now := time.Now().UTC()
	return &Admin{
		Email:        NormalizeEmail(email),
		FullName:     fullName,
		PasswordHash: passwordHash,
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the admin is allowed to log in.
func (a *Admin) CanAuthenticate() bool {
	return a.Status == StatusActive
}
