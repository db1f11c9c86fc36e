package domain

import "time"

// AdminKey is an invite code that grants admin elevation at signup.
// Only the SHA-256 hash of the plaintext code is stored.
type AdminKey struct {
	// ID is the unique identifier for the key.
	ID string `json:"id"`

	// CodeHash is the hex-encoded SHA-256 hash of the plaintext code.
	// Never returned in API responses.
	CodeHash string `json:"-"`

	// Label is a human-readable description of the key.
	Label string `json:"label"`

	// MaxUses is how many times the key may be redeemed.
	MaxUses int `json:"maxUses"`

	// Uses is how many times the key has been redeemed.
	Uses int `json:"uses"`

	// Active indicates whether the key may still be redeemed.
	Active bool `json:"active"`

	// ExpiresAt is the optional expiry; nil means the key never expires.
	ExpiresAt *time.Time `json:"expiresAt"`

	// CreatedAt is the timestamp when the key was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the key was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewAdminKey creates a new active AdminKey.
func NewAdminKey(codeHash, label string, maxUses int, expiresAt *time.Time) *AdminKey {
	now := time.Now().UTC()
	if maxUses < 1 {
		maxUses = 1
	}
	return &AdminKey{
		CodeHash:  codeHash,
		Label:     label,
		MaxUses:   maxUses,
		Uses:      0,
		Active:    true,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Redeemable reports whether the key may be redeemed at time now:
// active, not expired, and under its use quota.
func (k *AdminKey) Redeemable(now time.Time) bool {
	if !k.Active {
		return false
	}
	if k.ExpiresAt != nil && !k.ExpiresAt.After(now) {
		return false
	}
	return k.Uses < k.MaxUses
}
