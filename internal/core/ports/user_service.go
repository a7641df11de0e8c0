package ports

import (
	"context"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// UserInput carries the writable profile fields. Nil fields are left
// unchanged on update.
type UserInput struct {
	Username  *string
	Email     *string
	Role      *domain.Role
	FirstName *string
	LastName  *string
	Bio       *string
}

// UserService is the administrative user API plus self-service profile
// access. Access control is applied by the transport layer.
type UserService interface {
	List(ctx context.Context, filter ListUsersFilter) (*PageResult[*domain.User], error)
	Create(ctx context.Context, in UserInput) (*domain.User, error)
	Get(ctx context.Context, username string) (*domain.User, error)
	Update(ctx context.Context, username string, in UserInput) (*domain.User, error)
	Delete(ctx context.Context, username string) error

	// UpdateSelf edits the caller's own profile; role changes are ignored.
	UpdateSelf(ctx context.Context, self *domain.User, in UserInput) (*domain.User, error)
}
