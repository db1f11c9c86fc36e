package domain

import "time"

// PasswordReset is a single-use password reset token record.
// Only the SHA-256 hash of the plaintext token is stored. Redeeming a
// token invalidates every other outstanding token for the same user.
type PasswordReset struct {
	// ID is the unique identifier for the record.
	ID string `json:"id"`

	// UserID is the account the token belongs to.
	UserID string `json:"userId"`

	// TokenHash is the hex-encoded SHA-256 hash of the plaintext token.
	TokenHash string `json:"-"`

	// CreatedAt is when the token was issued.
	CreatedAt time.Time `json:"createdAt"`

	// ExpiresAt is when the token stops being redeemable.
	ExpiresAt time.Time `json:"expiresAt"`

	// Used marks the token as consumed or invalidated.
	Used bool `json:"used"`

	// UsedAt is when the token was consumed or invalidated.
	UsedAt *time.Time `json:"usedAt"`
}

// NewPasswordReset creates a token record expiring after ttl.
func NewPasswordReset(userID, tokenHash string, ttl time.Duration) *PasswordReset {
	now := time.Now().UTC()
	return &PasswordReset{
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Redeemable reports whether the token can still be consumed at time now.
func (p *PasswordReset) Redeemable(now time.Time) bool {
	return !p.Used && p.ExpiresAt.After(now)
}
