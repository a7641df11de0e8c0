package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yamdb/yamdb-api/internal/core/domain"
	"github.com/yamdb/yamdb-api/internal/core/ports"
)

// UserService implements user administration and self-service profiles.
type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
	now   func() time.Time
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log, now: time.Now}
}

func (s *UserService) List(ctx context.Context, filter ports.ListUsersFilter) (*ports.PageResult[*domain.User], error) {
	filter.Page = filter.Page.Normalize()
	items, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return ports.NewPageResult(items, total, filter.Page), nil
}

func (s *UserService) Create(ctx context.Context, in ports.UserInput) (*domain.User, error) {
	if in.Username == nil {
		return nil, domain.NewFieldError("username", "is required")
	}
	if in.Email == nil {
		return nil, domain.NewFieldError("email", "is required")
	}

	user := &domain.User{
		ID:         uuid.NewString(),
		Role:       domain.RoleUser,
		DateJoined: s.now().UTC(),
	}
	if err := applyProfile(user, in, true); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info().Str("username", user.Username).Str("role", string(user.Role)).Msg("user created")
	return user, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*domain.User, error) {
	return s.users.FindByUsername(ctx, username)
}

func (s *UserService) Update(ctx context.Context, username string, in ports.UserInput) (*domain.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	prevRole := user.Role
	if err := applyProfile(user, in, true); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if user.Role != prevRole {
		s.log.Info().Str("username", user.Username).Str("from", string(prevRole)).Str("to", string(user.Role)).Msg("role changed")
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.users.Delete(ctx, username); err != nil {
		return err
	}
	s.log.Info().Str("username", username).Msg("user deleted")
	return nil
}

// UpdateSelf edits the caller's profile. A role in the input is ignored:
// users can see their role but never change it.
func (s *UserService) UpdateSelf(ctx context.Context, self *domain.User, in ports.UserInput) (*domain.User, error) {
	if self == nil {
		return nil, domain.ErrAuthenticationRequired
	}
	user, err := s.users.FindByID(ctx, self.ID)
	if err != nil {
		return nil, err
	}
	if err := applyProfile(user, in, false); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func applyProfile(u *domain.User, in ports.UserInput, allowRole bool) error {
	if in.Username != nil {
		if err := domain.ValidateUsername(*in.Username); err != nil {
			return err
		}
		u.Username = *in.Username
	}
	if in.Email != nil {
		email, err := domain.NormalizeEmail(*in.Email)
		if err != nil {
			return err
		}
		u.Email = email
	}
	if allowRole && in.Role != nil {
		if !in.Role.Valid() {
			return domain.ErrInvalidRole
		}
		u.Role = *in.Role
	}
	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Bio != nil {
		u.Bio = *in.Bio
	}
	return nil
}
