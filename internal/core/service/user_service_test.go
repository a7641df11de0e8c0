package service

import (
	"context"
	"errors"
	"testing"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

func rolePtr(r domain.Role) *domain.Role { return &r }

func TestUserService_Create(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewUserService(repo, discardLogger)
	ctx := context.Background()

	u, err := svc.Create(ctx, ports.UserInput{Username: strPtr("alice"), Email: strPtr("alice@example.com")})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if u.Role != domain.RoleUser || u.ID == "" {
		t.Fatalf("expected default role and an id, got %+v", u)
	}

	if _, err := svc.Create(ctx, ports.UserInput{Username: strPtr("alice"), Email: strPtr("other@example.com")}); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected a conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.UserInput{Username: strPtr("me"), Email: strPtr("me@example.com")}); !errors.Is(err, domain.ErrReservedUsername) {
		t.Fatalf("expected ErrReservedUsername, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.UserInput{Username: strPtr("bob"), Email: strPtr("bob@example.com"), Role: rolePtr("superuser")}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := svc.Create(ctx, ports.UserInput{Username: strPtr("bob")}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("missing email: expected a validation error, got %v", err)
	}
}

func TestUserService_Update_ChangesRole(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser})
	svc := NewUserService(repo, discardLogger)

	u, err := svc.Update(context.Background(), "alice", ports.UserInput{Role: rolePtr(domain.RoleModerator), Bio: strPtr("hi")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.Role != domain.RoleModerator || u.Bio != "hi" {
		t.Fatalf("unexpected user: %+v", u)
	}
	stored, _ := repo.FindByUsername(context.Background(), "alice")
	if stored.Role != domain.RoleModerator {
		t.Fatalf("role change not persisted: %s", stored.Role)
	}

	if _, err := svc.Update(context.Background(), "ghost", ports.UserInput{}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_UpdateSelf_IgnoresRole(t *testing.T) {
	self := &domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser}
	repo := newStubUserRepo(self)
	svc := NewUserService(repo, discardLogger)

	u, err := svc.UpdateSelf(context.Background(), self, ports.UserInput{
		Role:      rolePtr(domain.RoleAdmin),
		FirstName: strPtr("Alice"),
	})
	if err != nil {
		t.Fatalf("UpdateSelf: %v", err)
	}
	if u.Role != domain.RoleUser {
		t.Fatalf("self-service must not change the role, got %s", u.Role)
	}
	if u.FirstName != "Alice" {
		t.Fatalf("profile field not applied: %+v", u)
	}

	if _, err := svc.UpdateSelf(context.Background(), nil, ports.UserInput{}); !errors.Is(err, domain.ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestUserService_Delete(t *testing.T) {
	repo := newStubUserRepo(&domain.User{ID: "u1", Username: "alice", Email: "alice@example.com", Role: domain.RoleUser})
	svc := NewUserService(repo, discardLogger)
	ctx := context.Background()

	if err := svc.Delete(ctx, "alice"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := svc.Delete(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestUserService_List(t *testing.T) {
	repo := newStubUserRepo(
		&domain.User{ID: "u1", Username: "alice", Email: "a@example.com"},
		&domain.User{ID: "u2", Username: "bob", Email: "b@example.com"},
	)
	svc := NewUserService(repo, discardLogger)

	page, err := svc.List(context.Background(), ports.ListUsersFilter{Search: "bo"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 1 || page.Items[0].Username != "bob" {
		t.Fatalf("unexpected page: %+v", page)
	}
}
