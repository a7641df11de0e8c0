package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yamdb/yamdb-api/internal/core/ports"
)

func TestJWTSigner_RoundTrip(t *testing.T) {
	s := NewJWTSigner("secret", time.Hour)

	raw, err := s.Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	got, err := s.Verify(raw)
	if err != nil {
		t.Fatalf("Verify returned error: %v", err)
	}
	if got.UserID != "u1" || got.Username != "alice" {
		t.Fatalf("unexpected claims: %+v", got)
	}
	if got.ExpiresAt.Before(time.Now()) {
		t.Fatalf("token already expired: %v", got.ExpiresAt)
	}
}

func TestJWTSigner_WrongSecret(t *testing.T) {
	raw, err := NewJWTSigner("secret", time.Hour).Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}
	if _, err := NewJWTSigner("other", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTSigner_Expired(t *testing.T) {
	s := NewJWTSigner("secret", time.Hour)
	s.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	raw, err := s.Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("Sign returned error: %v", err)
	}

	s.now = time.Now
	if _, err := s.Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTSigner_RejectsOtherAlgorithms(t *testing.T) {
	tkn := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := tkn.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}
	if _, err := NewJWTSigner("secret", time.Hour).Verify(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTSigner_Garbage(t *testing.T) {
	if _, err := NewJWTSigner("secret", time.Hour).Verify("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
