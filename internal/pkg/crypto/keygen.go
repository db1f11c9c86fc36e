// Package crypto provides cryptographic utilities for LibReport.
package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// ResetTokenBytes is the entropy of a password reset token.
	ResetTokenBytes = 16

	// InviteCodeLength is the length of generated admin invite codes.
	InviteCodeLength = 24
)

// inviteCodeChars contains characters used in invite codes. Ambiguous
// characters (0/O, 1/I/l) are excluded so codes survive being read aloud.
const inviteCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghjkmnpqrstuvwxyz23456789"

// GenerateResetToken generates a random hex reset token.
// Example: "9f86d081884c7d659a2feaa0c55ad015"
func GenerateResetToken() (string, error) {
	buf := make([]byte, ResetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateInviteCode generates a random admin invite code.
func GenerateInviteCode() (string, error) {
	return generateRandomString(InviteCodeLength, inviteCodeChars)
}

// generateRandomString generates a random string of the specified length
// using characters from the provided character set.
func generateRandomString(length int, charset string) (string, error) {
	result := make([]byte, length)
	charsetLen := len(charset)

	randomBytes := make([]byte, length)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	for i := 0; i < length; i++ {
		result[i] = charset[int(randomBytes[i])%charsetLen]
	}

	return string(result), nil
}
