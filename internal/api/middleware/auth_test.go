package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
	"github.com/yamdb/yamdb-api/internal/infrastructure/token"
)

type stubUsers map[string]*domain.User

func (s stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, domain.ErrUserNotFound
}

func newAuthRequest(header string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthenticate_ValidToken(t *testing.T) {
	signer := token.NewJWTSigner("secret", time.Hour)
	users := stubUsers{"u1": {ID: "u1", Username: "alice", Role: domain.RoleModerator}}
	signed, err := signer.Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	c, rec := newAuthRequest("Bearer " + signed)
	called := false
	handler := Authenticate(signer, users, zerolog.Nop())(func(c echo.Context) error {
		called = true
		u := CurrentUser(c)
		if u == nil || u.Username != "alice" {
			t.Fatalf("user not set: %+v", u)
		}
		if u.Role != domain.RoleModerator {
			t.Fatalf("role must come from the store, got %s", u.Role)
		}
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuthenticate_RoleIsReloaded(t *testing.T) {
	signer := token.NewJWTSigner("secret", time.Hour)
	users := stubUsers{"u1": {ID: "u1", Username: "alice", Role: domain.RoleUser}}
	signed, _ := signer.Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})

	var seen domain.Role
	handler := Authenticate(signer, users, zerolog.Nop())(func(c echo.Context) error {
		seen = CurrentUser(c).Role
		return nil
	})

	c, _ := newAuthRequest("Bearer " + signed)
	_ = handler(c)
	if seen != domain.RoleUser {
		t.Fatalf("expected user, got %s", seen)
	}

	// Promoted after the token was issued: same token, new role.
	users["u1"].Role = domain.RoleAdmin
	c, _ = newAuthRequest("Bearer " + signed)
	_ = handler(c)
	if seen != domain.RoleAdmin {
		t.Fatalf("expected admin after promotion, got %s", seen)
	}
}

func TestAuthenticate_MissingHeaderIsAnonymous(t *testing.T) {
	c, _ := newAuthRequest("")
	called := false
	handler := Authenticate(token.NewJWTSigner("secret", time.Hour), stubUsers{}, zerolog.Nop())(func(c echo.Context) error {
		called = true
		if CurrentUser(c) != nil {
			t.Fatalf("anonymous request must have no user")
		}
		return nil
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	signer := token.NewJWTSigner("secret", time.Hour)
	ghost, _ := signer.Sign(ports.AccessClaims{UserID: "ghost", Username: "ghost"})
	forged, _ := token.NewJWTSigner("other", time.Hour).Sign(ports.AccessClaims{UserID: "u1", Username: "alice"})
	users := stubUsers{"u1": {ID: "u1", Username: "alice", Role: domain.RoleAdmin}}

	cases := map[string]string{
		"wrong scheme": "Token abc",
		"no token":     "Bearer",
		"garbage":      "Bearer not-a-jwt",
		"wrong secret": "Bearer " + forged,
		"deleted user": "Bearer " + ghost,
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newAuthRequest(header)
			handler := Authenticate(signer, users, zerolog.Nop())(func(c echo.Context) error {
				t.Fatalf("should not reach next")
				return nil
			})
			if err := handler(c); !errors.Is(err, domain.ErrAuthenticationRequired) {
				t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
			}
		})
	}
}
