package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/wearhouse/storefront/internal/models"
)

// TokenManager issues and verifies the bearer tokens carried on every
// authenticated request.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager signing with the given secret.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl}
}

type claims struct {
	UserID int64       `json:"user_id"`
	Role   models.Role `json:"role"`
	jwt.RegisteredClaims
}

// Sign issues a token for the given user.
func (m *TokenManager) Sign(userID int64, role models.Role) (string, error) {
	now := time.Now()
	c := claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies a bearer token and returns the principal it carries,
// or nil when the token is missing, expired, or otherwise invalid. The
// caller treats a nil principal as unauthorized.
func (m *TokenManager) Resolve(token string) *Principal {
	if token == "" {
		return nil
	}
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || !c.Role.Valid() {
		return nil
	}
	return &Principal{UserID: c.UserID, Role: c.Role}
}
