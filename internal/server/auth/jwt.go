package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/threatscope/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenTTL is the session lifetime when none is configured.
const DefaultTokenTTL = 2 * time.Hour

// Claims embeds the registered claims and carries the subject user id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenService issues and validates HS256 session tokens. Tokens are not
// stored anywhere and cannot be revoked; they are valid while now < exp.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenService returns a service signing with secret. A non-positive ttl
// falls back to DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenService{secret: key, ttl: ttl, now: time.Now}
}

// Issue mints a token for userID and reports its expiry instant.
func (s *TokenService) Issue(userID string) (string, time.Time, error) {
	now := s.now()
	exp := jwt.NewNumericDate(now.Add(s.ttl))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: exp,
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})

	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return tokenString, exp.Time, nil
}

// Validate checks the signature and expiry of tokenString and returns the
// subject user id. Failures are common.ErrTokenMissing, common.ErrTokenInvalid
// or common.ErrTokenExpired.
func (s *TokenService) Validate(tokenString string) (string, error) {
	if tokenString == "" {
		return "", common.ErrTokenMissing
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrTokenInvalid
	}

	if !token.Valid || claims.UserID == "" {
		return "", common.ErrTokenInvalid
	}

	return claims.UserID, nil
}
