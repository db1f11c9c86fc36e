// Package crypto provides cryptographic utilities for LibReport.
// This covers token hashing and random secret generation; password
// hashing lives with the services and uses bcrypt.
package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashToken computes the hex-encoded SHA-256 hash of a secret token.
// Reset tokens and admin invite codes are stored hashed; the plaintext
// only ever travels to the caller once.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateSHA256 validates that a string is a valid SHA-256 hex hash.
func ValidateSHA256(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	for _, c := range hash {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}
