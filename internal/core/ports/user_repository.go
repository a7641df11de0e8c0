package ports

import (
	"context"
	"time"

	"github.com/yamdb/yamdb-api/internal/core/domain"
)

// ListUsersFilter narrows the admin user listing.
type ListUsersFilter struct {
	Search string // optional: partial match on username
	Page   Page
}

// UsernameResolver maps account ids to their current usernames. Unknown ids
// are absent from the result.
type UsernameResolver interface {
	Usernames(ctx context.Context, ids []string) (map[string]string, error)
}

// UserRepository persists accounts. Username and email are unique at the
// store; violations come back as domain conflict errors.
type UserRepository interface {
	UsernameResolver

	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetOrCreate atomically returns the user with exactly this
	// (username, email) pair, creating it with the plain user role if absent.
	// It fails with domain.ErrUserExists when either field belongs to a
	// different account.
	GetOrCreate(ctx context.Context, username, email string) (*domain.User, error)

	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, username string) error
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, int64, error)

	// MarkLoggedIn sets last_login to at only if it still equals prev
	// (nil meaning never logged in). It returns
	// domain.ErrInvalidConfirmationCode when the value moved in between.
	MarkLoggedIn(ctx context.Context, id string, prev *time.Time, at time.Time) error
}
