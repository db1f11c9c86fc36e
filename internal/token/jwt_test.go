package token

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/libreport/internal/domain"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

func testUser() *domain.User {
	return &domain.User{
		ID:     "user-1",
		Email:  "jane@example.edu",
		Role:   domain.RoleStudent,
		Status: domain.StatusActive,
	}
}

func TestSignAndVerifyUser(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	tokenString, err := svc.SignUser(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "jane@example.edu", claims.Email)
	assert.Equal(t, "student", claims.Role)
	assert.Empty(t, claims.Kind)
	assert.False(t, claims.IsAdmin())
}

func TestSignAndVerifyAdmin(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	admin := &domain.Admin{ID: "admin-1", Email: "root@example.edu"}
	tokenString, err := svc.SignAdmin(admin)
	require.NoError(t, err)

	claims, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.Subject)
	assert.Equal(t, "admin", claims.Kind)
	assert.True(t, claims.IsAdmin())
}

func TestAdminRoleGrantsAdmin(t *testing.T) {
	// Legacy elevated users carry role=admin instead of kind=admin.
	svc := NewService(testSecret, time.Hour)

	user := testUser()
	user.Role = domain.RoleAdmin
	tokenString, err := svc.SignUser(user)
	require.NoError(t, err)

	claims, err := svc.Verify(tokenString)
	require.NoError(t, err)
	assert.True(t, claims.IsAdmin())
}

func TestVerifyRejectsExpired(t *testing.T) {
	svc := NewService(testSecret, -time.Minute)

	tokenString, err := svc.SignUser(testUser())
	require.NoError(t, err)

	_, err = svc.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	svc := NewService(testSecret, time.Hour)
	other := NewService("another-secret-also-32-chars-long!!", time.Hour)

	tokenString, err := svc.SignUser(testUser())
	require.NoError(t, err)

	_, err = other.Verify(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewService(testSecret, time.Hour)

	_, err := svc.Verify("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
