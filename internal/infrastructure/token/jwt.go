package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yamdb/yamdb-api/internal/core/ports"
)

const defaultTTL = 24 * time.Hour

// ErrInvalidToken covers every reason a bearer token is refused.
var ErrInvalidToken = errors.New("invalid token")

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// JWTSigner issues HS256 access tokens carrying the user id as subject.
// It implements ports.TokenSigner.
type JWTSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &JWTSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *JWTSigner) Sign(c ports.AccessClaims) (string, error) {
	now := s.now()
	exp := c.ExpiresAt
	if exp.IsZero() {
		exp = now.Add(s.ttl)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: c.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   c.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTSigner) Verify(raw string) (*ports.AccessClaims, error) {
	var c claims
	tkn, err := jwt.ParseWithClaims(raw, &c, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tkn.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &ports.AccessClaims{
		UserID:    c.Subject,
		Username:  c.Username,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
