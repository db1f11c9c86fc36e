// Package token issues and verifies the bearer tokens used by the API.
// Tokens are HS256 JWTs carrying the account ID as subject plus the
// role (users) or kind (admins) needed for authorization decisions.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/prn-tf/libreport/internal/domain"
)

// Token verification errors.
var (
	// ErrTokenInvalid indicates the token is malformed, expired, or has
	// a bad signature.
	ErrTokenInvalid = errors.New("invalid or expired token")
)

// adminKind marks tokens issued to the separate admin identity space.
const adminKind = "admin"

// Claims represents the JWT claims carried by LibReport bearer tokens.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Kind  string `json:"kind,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the claims grant admin access. Both dedicated
// admin tokens (kind) and elevated user tokens (role) qualify.
func (c *Claims) IsAdmin() bool {
	return c.Kind == adminKind || c.Role == string(domain.RoleAdmin)
}

// Service defines bearer token operations.
type Service interface {
	// SignUser issues a token for a regular user account.
	SignUser(user *domain.User) (string, error)

	// SignAdmin issues a token for an admin account.
	SignAdmin(admin *domain.Admin) (string, error)

	// Verify parses and validates a token string.
	Verify(tokenString string) (*Claims, error)
}

type service struct {
	secret []byte
	ttl    time.Duration
}

// NewService creates a new token Service.
func NewService(secret string, ttl time.Duration) Service {
	return &service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// SignUser issues a token for a regular user account.
func (s *service) SignUser(user *domain.User) (string, error) {
	return s.sign(Claims{
		Email: user.Email,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
		},
	})
}

// SignAdmin issues a token for an admin account.
func (s *service) SignAdmin(admin *domain.Admin) (string, error) {
	return s.sign(Claims{
		Email: admin.Email,
		Kind:  adminKind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: admin.ID,
		},
	})
}

func (s *service) sign(claims Claims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify parses and validates a token string.
func (s *service) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}
