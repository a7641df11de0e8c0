package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/permission"
)

func runRequire(p permission.Policy, method string, user *domain.User) error {
	e := echo.New()
	req := httptest.NewRequest(method, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if user != nil {
		c.Set(userKey, user)
	}
	return Require(p)(func(c echo.Context) error { return nil })(c)
}

func TestRequire_ReadOnlyOrAdmin(t *testing.T) {
	p := permission.ReadOnlyOrAdmin{}
	admin := &domain.User{ID: "a", Role: domain.RoleAdmin}
	plain := &domain.User{ID: "u", Role: domain.RoleUser}

	if err := runRequire(p, http.MethodGet, nil); err != nil {
		t.Fatalf("anonymous read: unexpected error %v", err)
	}
	if err := runRequire(p, http.MethodPost, nil); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("anonymous write: expected ErrAuthenticationRequired, got %v", err)
	}
	if err := runRequire(p, http.MethodDelete, plain); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("user write: expected ErrPermissionDenied, got %v", err)
	}
	if err := runRequire(p, http.MethodPost, admin); err != nil {
		t.Fatalf("admin write: unexpected error %v", err)
	}
}

func TestRequire_AdminOnlyBlocksReads(t *testing.T) {
	mod := &domain.User{ID: "m", Role: domain.RoleModerator}
	if err := runRequire(permission.AdminOnly{}, http.MethodGet, mod); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
	staff := &domain.User{ID: "s", Role: domain.RoleUser, IsStaff: true}
	if err := runRequire(permission.AdminOnly{}, http.MethodGet, staff); err != nil {
		t.Fatalf("staff read: unexpected error %v", err)
	}
}
