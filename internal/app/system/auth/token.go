// internal/app/system/auth/token.go
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Bearer tokens are HS256 JWTs signed with the configured key. They
// carry the same identity fields as the session cookie so API clients
// and browsers see identical authorization behavior.

var (
	tokenMu  sync.RWMutex
	tokenKey []byte
	tokenTTL = 24 * time.Hour
)

var ErrTokenInvalid = errors.New("invalid or expired token")

// InitTokens configures the signing key and token lifetime. Must be
// called during startup before any token is issued or verified.
func InitTokens(signingKey string, ttl time.Duration) error {
	if len(signingKey) < 32 {
		return fmt.Errorf("token signing key must be at least 32 chars")
	}
	tokenMu.Lock()
	defer tokenMu.Unlock()
	tokenKey = []byte(signingKey)
	if ttl > 0 {
		tokenTTL = ttl
	}
	return nil
}

type tokenClaims struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	PartnerID string `json:"partner_id,omitempty"`
	jwt.RegisteredClaims
}

// IssueToken mints a bearer token for the user.
func IssueToken(u *SessionUser) (string, error) {
	tokenMu.RLock()
	key := tokenKey
	ttl := tokenTTL
	tokenMu.RUnlock()
	if key == nil {
		return "", fmt.Errorf("token signing key not configured")
	}

	now := time.Now()
	claims := tokenClaims{
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		PartnerID: u.PartnerID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// VerifyToken parses and validates a bearer token, returning the user
// identity it carries.
func VerifyToken(raw string) (*SessionUser, error) {
	tokenMu.RLock()
	key := tokenKey
	tokenMu.RUnlock()
	if key == nil {
		return nil, ErrTokenInvalid
	}

	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return key, nil
	})
	if err != nil || !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return &SessionUser{
		ID:        claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		PartnerID: claims.PartnerID,
	}, nil
}
